package ports

import (
	"context"

	"github.com/sahafa/appcore/internal/core/domain"
)

// SessionService owns the Session entity and every legal transition on it.
// Mutating operations record a human-readable LastError on the session when
// they fail, in addition to returning the error, so the presentation layer
// can render inline messages without its own error plumbing.
type SessionService interface {
	SignUp(ctx context.Context, email, password, confirmPassword string) error
	SignIn(ctx context.Context, email, password string) error
	// TryLocalSignin recovers a persisted session. It never fails from the
	// caller's point of view: a missing token is the normal anonymous start
	// and an invalid one silently resets to anonymous.
	TryLocalSignin(ctx context.Context)
	VerifyEmail(ctx context.Context, code string) error
	ResendVerificationCode(ctx context.Context) error
	UpdateRole(ctx context.Context, role string) error
	// SignOut clears the persisted and in-memory session. Idempotent.
	SignOut(ctx context.Context)
	ClearError()

	// Session returns a snapshot of the current session state.
	Session() domain.Session
	Stage() domain.Stage
}
