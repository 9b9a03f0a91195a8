package ports

import (
	"context"

	"github.com/sahafa/appcore/internal/core/domain"
)

// Bootstrapper runs the bounded startup sequence: local session recovery,
// best-effort capability initialization, and the concurrent preload batch.
// Run never fails; degraded backends produce a partial bundle and an outcome
// classification instead. Each call fully supersedes any in-flight prior
// attempt's effect on externally visible state.
type Bootstrapper interface {
	Run(ctx context.Context) (*domain.PreloadBundle, domain.BootstrapOutcome)
	// LastOutcome reports the outcome of the most recently completed attempt,
	// or OutcomeCompleted and false if none has finished yet.
	LastOutcome() (domain.BootstrapOutcome, bool)
}
