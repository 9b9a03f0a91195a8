package service

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/sahafa/appcore/internal/core/domain"
	"github.com/sahafa/appcore/internal/core/ports"
	"github.com/sahafa/appcore/internal/metrics"
)

// BootstrapConfig bounds a bootstrap attempt. Ceiling caps the whole run,
// BatchTimeout caps the preload fetch join, and MinSplash keeps the loading
// indicator visible long enough not to flicker.
type BootstrapConfig struct {
	Ceiling      time.Duration
	BatchTimeout time.Duration
	MinSplash    time.Duration
}

func (c BootstrapConfig) withDefaults() BootstrapConfig {
	if c.Ceiling <= 0 {
		c.Ceiling = 10 * time.Second
	}
	if c.BatchTimeout <= 0 {
		c.BatchTimeout = 8 * time.Second
	}
	if c.MinSplash < 0 {
		c.MinSplash = 0
	}
	return c
}

// BootstrapSequencer runs the bounded startup sequence: local session
// recovery, best-effort push/ad initialization when a token is present, then
// a concurrent batch of preload fetches. Run always returns within the
// ceiling; degraded dependencies produce null slots and an outcome
// classification instead of failures.
//
// Timers never cancel in-flight requests. A stalled fetch keeps its goroutine
// until the underlying call returns, but it can only write into its own
// attempt, and the attempt's bundle is snapshotted at return, so late results
// cannot corrupt anything already handed to the caller. The leak is bounded
// to a handful of requests per retry.
type BootstrapSequencer struct {
	sessions ports.SessionService
	content  ports.ContentAPI
	push     ports.PushNotifier
	ads      ports.AdProvider
	cfg      BootstrapConfig
	logger   zerolog.Logger

	generation atomic.Uint64

	mu          sync.Mutex
	lastOutcome domain.BootstrapOutcome
	hasOutcome  bool
}

// NewBootstrapSequencer wires the sequencer. push and ads may be nil when the
// corresponding capability is unavailable; they are best-effort either way.
func NewBootstrapSequencer(
	sessions ports.SessionService,
	content ports.ContentAPI,
	push ports.PushNotifier,
	ads ports.AdProvider,
	cfg BootstrapConfig,
	logger zerolog.Logger,
) *BootstrapSequencer {
	return &BootstrapSequencer{
		sessions: sessions,
		content:  content,
		push:     push,
		ads:      ads,
		cfg:      cfg.withDefaults(),
		logger:   logger,
	}
}

// attempt isolates one bootstrap run. Fetch goroutines only ever write into
// their own attempt, so a superseded run cannot touch a newer one's state.
type attempt struct {
	gen     uint64
	expired chan struct{}

	mu        sync.Mutex
	bundle    domain.PreloadBundle
	fault     domain.FaultKind
	populated int
}

// classify records the fault kind of a failed fetch. The first observed fault
// wins; later ones are ignored.
func (a *attempt) classify(kind domain.FaultKind) {
	a.mu.Lock()
	if a.fault == "" {
		a.fault = kind
	}
	a.mu.Unlock()
}

func (a *attempt) fill(set func(b *domain.PreloadBundle)) {
	a.mu.Lock()
	set(&a.bundle)
	a.populated++
	a.mu.Unlock()
}

func (a *attempt) snapshot() (domain.PreloadBundle, domain.FaultKind, int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.bundle, a.fault, a.populated
}

// Run executes one bootstrap attempt and returns the assembled bundle with
// its outcome. A new call supersedes any still-running prior attempt: only
// the latest generation may publish the externally visible outcome.
func (b *BootstrapSequencer) Run(ctx context.Context) (*domain.PreloadBundle, domain.BootstrapOutcome) {
	gen := b.generation.Add(1)
	start := time.Now()
	att := &attempt{gen: gen, expired: make(chan struct{})}

	b.logger.Info().Uint64("attempt", gen).Msg("bootstrap started")

	done := make(chan struct{})
	go func() {
		defer close(done)
		b.execute(ctx, att)
	}()

	ceiling := time.NewTimer(b.cfg.Ceiling)
	defer ceiling.Stop()

	ceilingFired := false
	select {
	case <-done:
	case <-ceiling.C:
		ceilingFired = true
		close(att.expired)
	}

	bundle, fault, populated := att.snapshot()
	outcome := resolveOutcome(fault, ceilingFired, populated)

	if gen == b.generation.Load() {
		b.mu.Lock()
		b.lastOutcome = outcome
		b.hasOutcome = true
		b.mu.Unlock()
	}

	elapsed := time.Since(start)
	metrics.BootstrapOutcomesTotal.WithLabelValues(string(outcome)).Inc()
	metrics.BootstrapDuration.WithLabelValues(string(outcome)).Observe(elapsed.Seconds())
	b.logger.Info().
		Uint64("attempt", gen).
		Str("outcome", string(outcome)).
		Int("slots_populated", populated).
		Dur("elapsed", elapsed).
		Bool("ceiling_fired", ceilingFired).
		Msg("bootstrap finished")

	return &bundle, outcome
}

// LastOutcome reports the outcome of the most recently completed attempt.
func (b *BootstrapSequencer) LastOutcome() (domain.BootstrapOutcome, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.hasOutcome {
		return domain.OutcomeCompleted, false
	}
	return b.lastOutcome, true
}

func resolveOutcome(fault domain.FaultKind, ceilingFired bool, populated int) domain.BootstrapOutcome {
	switch {
	case fault == domain.FaultNetwork:
		return domain.OutcomeNetworkError
	case fault == domain.FaultServer:
		return domain.OutcomeCriticalError
	case ceilingFired && populated == 0:
		return domain.OutcomeTimedOut
	default:
		return domain.OutcomeCompleted
	}
}

func (b *BootstrapSequencer) execute(ctx context.Context, att *attempt) {
	// Session recovery is sequenced strictly before the batch: the profile
	// fetch and the capability warmups need to know whether a token exists.
	// Its own failures are swallowed inside the session service.
	b.sessions.TryLocalSignin(ctx)

	token := b.sessions.Session().Token
	if token != "" {
		b.warmCapabilities(ctx, token)
	}

	b.runBatch(ctx, att, token)

	// Keep the splash visible briefly unless the ceiling already fired.
	if b.cfg.MinSplash > 0 {
		splash := time.NewTimer(b.cfg.MinSplash)
		defer splash.Stop()
		select {
		case <-splash.C:
		case <-att.expired:
		}
	}
}

// warmCapabilities fires the push registration and ad warmup. Both are
// auxiliary: failures are logged and otherwise ignored, and neither gates the
// preload batch.
func (b *BootstrapSequencer) warmCapabilities(ctx context.Context, token string) {
	if b.push != nil {
		go func() {
			if err := b.push.Initialize(ctx, token); err != nil {
				b.logger.Warn().Err(err).Msg("push registration failed")
			}
		}()
	}
	if b.ads != nil {
		go func() {
			if err := b.ads.Initialize(ctx); err != nil {
				b.logger.Warn().Err(err).Msg("ad warmup failed")
			}
		}()
	}
}

// runBatch issues the preload fetches concurrently and waits for all of them,
// bounded by BatchTimeout. A fetch failure produces a null slot and at most
// one fault classification for the whole attempt; it never aborts siblings.
func (b *BootstrapSequencer) runBatch(ctx context.Context, att *attempt, token string) {
	type preload struct {
		slot  string
		fetch func(context.Context) (func(*domain.PreloadBundle), error)
	}

	preloads := []preload{
		{"home_articles", func(ctx context.Context) (func(*domain.PreloadBundle), error) {
			v, err := b.content.HomeArticles(ctx)
			return func(p *domain.PreloadBundle) { p.HomeArticles = v }, err
		}},
		{"journalists", func(ctx context.Context) (func(*domain.PreloadBundle), error) {
			v, err := b.content.RandomJournalists(ctx)
			return func(p *domain.PreloadBundle) { p.Journalists = v }, err
		}},
		{"search_index", func(ctx context.Context) (func(*domain.PreloadBundle), error) {
			v, err := b.content.SearchArticles(ctx)
			return func(p *domain.PreloadBundle) { p.SearchIndex = v }, err
		}},
		{"headlines", func(ctx context.Context) (func(*domain.PreloadBundle), error) {
			v, err := b.content.HomeHeadlines(ctx)
			return func(p *domain.PreloadBundle) { p.Headlines = v }, err
		}},
		{"recent_videos", func(ctx context.Context) (func(*domain.PreloadBundle), error) {
			v, err := b.content.RecentVideos(ctx)
			return func(p *domain.PreloadBundle) { p.RecentVideos = v }, err
		}},
	}
	if token != "" {
		preloads = append(preloads, preload{"profile", func(ctx context.Context) (func(*domain.PreloadBundle), error) {
			v, err := b.content.UserProfile(ctx, token)
			return func(p *domain.PreloadBundle) { p.Profile = v }, err
		}})
	}

	var wg sync.WaitGroup
	for _, p := range preloads {
		p := p
		wg.Add(1)
		go func() {
			defer wg.Done()
			set, err := p.fetch(ctx)
			if err != nil {
				kind := domain.FaultKindOf(err)
				att.classify(kind)
				metrics.PreloadSlotFailuresTotal.WithLabelValues(p.slot, string(kind)).Inc()
				b.logger.Warn().Err(err).Str("slot", p.slot).Str("kind", string(kind)).Msg("preload fetch failed")
				return
			}
			att.fill(set)
		}()
	}

	settled := make(chan struct{})
	go func() {
		wg.Wait()
		close(settled)
	}()

	batch := time.NewTimer(b.cfg.BatchTimeout)
	defer batch.Stop()
	select {
	case <-settled:
	case <-batch.C:
		// Still-pending fetches count as failed; their eventual results land
		// in this attempt's bundle after the snapshot and are discarded.
		b.logger.Warn().Uint64("attempt", att.gen).Msg("preload batch timed out")
	case <-att.expired:
	}
}

var _ ports.Bootstrapper = (*BootstrapSequencer)(nil)
