package domain

import "errors"

// Stage is the derived top-level flow the presentation layer should show.
type Stage string

const (
	StageAnonymous       Stage = "anonymous"
	StageEmailUnverified Stage = "email_unverified"
	StageRoleUnset       Stage = "role_unset"
	StageActive          Stage = "active"
)

// RoleNeedID is the placeholder role the backend assigns before the user has
// completed role-selection onboarding. It counts as "no role" on the client.
const RoleNeedID = "needID"

// validStageTransitions defines the allowed session stage machine.
// tryLocalSignin may additionally jump from anonymous to any authenticated
// stage, and signOut returns to anonymous from anywhere.
var validStageTransitions = map[Stage][]Stage{
	StageAnonymous:       {StageEmailUnverified, StageRoleUnset, StageActive},
	StageEmailUnverified: {StageRoleUnset, StageAnonymous},
	StageRoleUnset:       {StageActive, StageAnonymous},
	StageActive:          {StageAnonymous},
}

var ErrInvalidCredentials = errors.New("incorrect email or password")
var ErrDuplicateAccount = errors.New("an account with this email already exists")
var ErrSignupFailed = errors.New("could not create the account, please try again")
var ErrSigninFailed = errors.New("could not sign in, please try again")
var ErrNotAuthenticated = errors.New("not authenticated")

// CanTransitionTo reports whether a direct transition from s to next is legal.
func (s Stage) CanTransitionTo(next Stage) bool {
	for _, allowed := range validStageTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Session is the authoritative client-side view of the authentication state.
// Token, Role, VerifiedEmail and Email are mirrored to durable storage on
// every successful mutation; LastError is in-memory only.
type Session struct {
	Token         string `json:"token,omitempty"`
	Role          string `json:"role,omitempty"`
	VerifiedEmail bool   `json:"verified_email"`
	Email         string `json:"email,omitempty"`
	LastError     string `json:"last_error,omitempty"`
}

// Stage derives the current flow from the session fields. An empty token means
// anonymous regardless of the other fields; an unverified email gates
// everything else; a missing or placeholder role gates the main flow.
func (s Session) Stage() Stage {
	switch {
	case s.Token == "":
		return StageAnonymous
	case !s.VerifiedEmail:
		return StageEmailUnverified
	case s.Role == "" || s.Role == RoleNeedID:
		return StageRoleUnset
	default:
		return StageActive
	}
}

// Authenticated reports whether a bearer token is present.
func (s Session) Authenticated() bool {
	return s.Token != ""
}
