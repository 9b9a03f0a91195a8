package service

import (
	"context"
	"strconv"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/sahafa/appcore/internal/core/domain"
	"github.com/sahafa/appcore/internal/core/ports"
	"github.com/sahafa/appcore/internal/metrics"
)

// SessionService is the single source of truth for the client session. It is
// the sole writer of the auth keys in the durable store: every successful
// mutation mirrors the four persisted fields there before the in-memory
// session changes, and multi-key writes go through one atomic MultiSet so a
// reader never observes a torn session.
type SessionService struct {
	store    ports.DurableStore
	identity ports.IdentityAPI
	validate *validator.Validate
	logger   zerolog.Logger

	mu      sync.RWMutex
	session domain.Session
}

func NewSessionService(store ports.DurableStore, identity ports.IdentityAPI, logger zerolog.Logger) *SessionService {
	return &SessionService{
		store:    store,
		identity: identity,
		validate: validator.New(),
		logger:   logger,
	}
}

// SignUp validates the form locally, creates the account remotely, persists
// the new session, and best-effort triggers the verification code email.
// Validation failures never reach the network.
func (s *SessionService) SignUp(ctx context.Context, email, password, confirmPassword string) error {
	in := signupInput{Email: email, Password: password, ConfirmPassword: confirmPassword}
	if err := checkInput(s.validate, in); err != nil {
		s.setError(err.Error())
		metrics.AuthOperationsTotal.WithLabelValues("signup", "validation_error").Inc()
		return err
	}

	res, err := s.identity.SignUp(ctx, email, password)
	if err != nil {
		metrics.AuthOperationsTotal.WithLabelValues("signup", "auth_error").Inc()
		if domain.IsUnprocessable(err) {
			s.setError(domain.ErrDuplicateAccount.Error())
			return domain.ErrDuplicateAccount
		}
		s.logger.Warn().Err(err).Msg("signup request failed")
		s.setError(domain.ErrSignupFailed.Error())
		return domain.ErrSignupFailed
	}

	next := domain.Session{Token: res.Token, Role: res.Role, Email: email}
	if res.Email != "" {
		next.Email = res.Email
	}
	if err := s.persist(ctx, next); err != nil {
		s.logger.Error().Err(err).Msg("failed to persist session after signup")
		s.setError(domain.ErrSignupFailed.Error())
		metrics.AuthOperationsTotal.WithLabelValues("signup", "remote_error").Inc()
		return domain.ErrSignupFailed
	}
	s.replace(next)
	metrics.AuthOperationsTotal.WithLabelValues("signup", "ok").Inc()

	// Secondary action: the user can request a resend later, so a failure
	// here is logged and swallowed.
	if err := s.identity.SendVerificationCode(ctx, res.Token); err != nil {
		s.logger.Warn().Err(err).Msg("failed to send verification code after signup")
	}
	return nil
}

// SignIn exchanges credentials for a token, then fetches the authoritative
// account state from GET /me; the signin response alone is not trusted for
// role, email, or verification status.
func (s *SessionService) SignIn(ctx context.Context, email, password string) error {
	in := signinInput{Email: email, Password: password}
	if err := checkInput(s.validate, in); err != nil {
		s.setError(err.Error())
		metrics.AuthOperationsTotal.WithLabelValues("signin", "validation_error").Inc()
		return err
	}

	token, err := s.identity.SignIn(ctx, email, password)
	if err != nil {
		metrics.AuthOperationsTotal.WithLabelValues("signin", "auth_error").Inc()
		if domain.IsUnprocessable(err) {
			s.setError(domain.ErrInvalidCredentials.Error())
			return domain.ErrInvalidCredentials
		}
		s.logger.Warn().Err(err).Msg("signin request failed")
		s.setError(domain.ErrSigninFailed.Error())
		return domain.ErrSigninFailed
	}

	ident, err := s.identity.Me(ctx, token)
	if err != nil {
		s.logger.Warn().Err(err).Msg("identity fetch failed after signin")
		s.setError(domain.ErrSigninFailed.Error())
		metrics.AuthOperationsTotal.WithLabelValues("signin", "remote_error").Inc()
		return domain.ErrSigninFailed
	}

	next := domain.Session{
		Token:         token,
		Role:          ident.Role,
		VerifiedEmail: ident.VerifiedEmail,
		Email:         ident.Email,
	}
	if err := s.persist(ctx, next); err != nil {
		s.logger.Error().Err(err).Msg("failed to persist session after signin")
		s.setError(domain.ErrSigninFailed.Error())
		metrics.AuthOperationsTotal.WithLabelValues("signin", "remote_error").Inc()
		return domain.ErrSigninFailed
	}
	s.replace(next)
	metrics.AuthOperationsTotal.WithLabelValues("signin", "ok").Inc()
	return nil
}

// TryLocalSignin recovers the session persisted by a previous run. A missing
// token is the normal anonymous start, not an error. A stored token that the
// backend rejects (expired, revoked, or unreachable) silently resets the
// client to anonymous: "must sign in again" is expected behavior, not a
// fault, so nothing is surfaced.
func (s *SessionService) TryLocalSignin(ctx context.Context) {
	token, ok, err := s.store.Get(ctx, ports.StoreKeyToken)
	if err != nil {
		s.logger.Warn().Err(err).Msg("could not read stored token")
		return
	}
	if !ok || token == "" {
		return
	}

	ident, err := s.identity.Me(ctx, token)
	if err != nil {
		s.logger.Debug().Err(err).Msg("stored session rejected, resetting to anonymous")
		s.reset(ctx)
		metrics.AuthOperationsTotal.WithLabelValues("local_signin", "auth_error").Inc()
		return
	}

	next := domain.Session{
		Token:         token,
		Role:          ident.Role,
		VerifiedEmail: ident.VerifiedEmail,
		Email:         ident.Email,
	}
	if err := s.persist(ctx, next); err != nil {
		s.logger.Warn().Err(err).Msg("failed to refresh stored session")
		s.reset(ctx)
		return
	}
	s.replace(next)
	metrics.AuthOperationsTotal.WithLabelValues("local_signin", "ok").Inc()
	s.logger.Info().Str("stage", string(next.Stage())).Msg("session recovered from local store")
}

// VerifyEmail submits the verification code. The remote error message is
// surfaced verbatim on failure.
func (s *SessionService) VerifyEmail(ctx context.Context, code string) error {
	sess := s.Session()
	if !sess.Authenticated() {
		s.setError(domain.ErrNotAuthenticated.Error())
		return domain.ErrNotAuthenticated
	}

	if err := s.identity.VerifyEmail(ctx, sess.Token, code); err != nil {
		s.setError(domain.RemoteMessage(err))
		metrics.AuthOperationsTotal.WithLabelValues("verify_email", "remote_error").Inc()
		return err
	}

	if err := s.store.Set(ctx, ports.StoreKeyVerifiedEmail, "true"); err != nil {
		s.logger.Error().Err(err).Msg("failed to persist email verification")
	}
	s.mu.Lock()
	s.session.VerifiedEmail = true
	s.session.LastError = ""
	s.mu.Unlock()
	metrics.AuthOperationsTotal.WithLabelValues("verify_email", "ok").Inc()
	return nil
}

// ResendVerificationCode requests a fresh code. The remote error message is
// surfaced verbatim on failure.
func (s *SessionService) ResendVerificationCode(ctx context.Context) error {
	sess := s.Session()
	if !sess.Authenticated() {
		s.setError(domain.ErrNotAuthenticated.Error())
		return domain.ErrNotAuthenticated
	}

	if err := s.identity.ResendVerificationCode(ctx, sess.Token); err != nil {
		s.setError(domain.RemoteMessage(err))
		metrics.AuthOperationsTotal.WithLabelValues("resend_code", "remote_error").Inc()
		return err
	}
	metrics.AuthOperationsTotal.WithLabelValues("resend_code", "ok").Inc()
	return nil
}

// UpdateRole sets the user's role during onboarding and persists whatever
// role the backend actually applied, which wins over the requested one.
func (s *SessionService) UpdateRole(ctx context.Context, role string) error {
	sess := s.Session()
	if !sess.Authenticated() {
		s.setError(domain.ErrNotAuthenticated.Error())
		return domain.ErrNotAuthenticated
	}

	applied, err := s.identity.UpdateRole(ctx, sess.Token, role)
	if err != nil {
		s.logger.Warn().Err(err).Str("role", role).Msg("role update failed")
		s.setError(domain.RemoteMessage(err))
		metrics.AuthOperationsTotal.WithLabelValues("update_role", "remote_error").Inc()
		return err
	}

	if err := s.store.Set(ctx, ports.StoreKeyRole, applied); err != nil {
		s.logger.Error().Err(err).Msg("failed to persist role")
	}
	s.mu.Lock()
	s.session.Role = applied
	s.session.LastError = ""
	s.mu.Unlock()
	metrics.AuthOperationsTotal.WithLabelValues("update_role", "ok").Inc()
	return nil
}

// SignOut clears the persisted auth keys and resets the in-memory session to
// the empty anonymous shape. Safe to call any number of times.
func (s *SessionService) SignOut(ctx context.Context) {
	s.reset(ctx)
	metrics.AuthOperationsTotal.WithLabelValues("signout", "ok").Inc()
}

// ClearError clears only the LastError field.
func (s *SessionService) ClearError() {
	s.mu.Lock()
	s.session.LastError = ""
	s.mu.Unlock()
}

// Session returns a snapshot of the current session.
func (s *SessionService) Session() domain.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session
}

// Stage returns the derived flow for the current session.
func (s *SessionService) Stage() domain.Stage {
	return s.Session().Stage()
}

// persist mirrors the four durable session fields as one atomic batch.
func (s *SessionService) persist(ctx context.Context, sess domain.Session) error {
	return s.store.MultiSet(ctx, map[string]string{
		ports.StoreKeyToken:         sess.Token,
		ports.StoreKeyRole:          sess.Role,
		ports.StoreKeyVerifiedEmail: strconv.FormatBool(sess.VerifiedEmail),
		ports.StoreKeyEmail:         sess.Email,
	})
}

func (s *SessionService) reset(ctx context.Context) {
	if err := s.store.Remove(ctx, ports.SessionKeys...); err != nil {
		s.logger.Warn().Err(err).Msg("failed to clear persisted session")
	}
	s.replace(domain.Session{})
}

func (s *SessionService) replace(next domain.Session) {
	s.mu.Lock()
	prev := s.session.Stage()
	s.session = next
	s.mu.Unlock()
	if got := next.Stage(); got != prev {
		s.logger.Debug().Str("from", string(prev)).Str("to", string(got)).Msg("session stage changed")
	}
}

func (s *SessionService) setError(msg string) {
	s.mu.Lock()
	s.session.LastError = msg
	s.mu.Unlock()
}

var _ ports.SessionService = (*SessionService)(nil)
