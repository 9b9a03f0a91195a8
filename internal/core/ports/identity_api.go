package ports

import "context"

// Identity is the authoritative account state as reported by GET /me.
type Identity struct {
	Role          string
	Email         string
	VerifiedEmail bool
}

// SignupResult is the subset of the signup response the client trusts.
type SignupResult struct {
	Token string
	Role  string
	Email string
}

// IdentityAPI is the remote identity surface of the backend. Implementations
// return *domain.RemoteError for failures that produced (or failed to
// produce) a backend response, so callers can branch on status and fault
// kind.
type IdentityAPI interface {
	SignUp(ctx context.Context, email, password string) (*SignupResult, error)
	SignIn(ctx context.Context, email, password string) (token string, err error)
	Me(ctx context.Context, token string) (*Identity, error)
	VerifyEmail(ctx context.Context, token, code string) error
	SendVerificationCode(ctx context.Context, token string) error
	ResendVerificationCode(ctx context.Context, token string) error
	// UpdateRole returns the authoritative role applied by the backend,
	// which may differ from the requested one.
	UpdateRole(ctx context.Context, token, role string) (string, error)
}
