package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// FaultKind classifies a remote call failure for bootstrap error screens.
type FaultKind string

const (
	// FaultNetwork: the backend was unreachable (DNS, dial, timeout).
	FaultNetwork FaultKind = "network"
	// FaultServer: the backend was reached but answered with an error.
	FaultServer FaultKind = "server"
)

// RemoteError is a failed call against the remote API. StatusCode is zero for
// network-class faults where no response was received.
type RemoteError struct {
	Kind       FaultKind
	StatusCode int
	Message    string
}

func (e *RemoteError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("remote: %s fault: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("remote: %s fault (status %d): %s", e.Kind, e.StatusCode, e.Message)
}

// FaultKindOf extracts the fault classification from err. Anything that is not
// a RemoteError counts as a network fault: the call never produced a backend
// response.
func FaultKindOf(err error) FaultKind {
	var re *RemoteError
	if errors.As(err, &re) {
		return re.Kind
	}
	return FaultNetwork
}

// IsUnprocessable reports whether err is the backend's HTTP 422 signal, used
// for invalid credentials on signin and duplicate accounts on signup.
func IsUnprocessable(err error) bool {
	var re *RemoteError
	return errors.As(err, &re) && re.StatusCode == http.StatusUnprocessableEntity
}

// RemoteMessage returns the backend-provided message of err, or err.Error()
// when the failure carries none. Used where the UI shows the remote message
// verbatim (email verification, code resend).
func RemoteMessage(err error) string {
	var re *RemoteError
	if errors.As(err, &re) && re.Message != "" {
		return re.Message
	}
	return err.Error()
}
