package dispatch

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrServiceDisabled means no notification transport is configured.
	ErrServiceDisabled = errors.New("notification service is not configured; set notification.transport and its credentials")

	// ErrNotDispatchable means the alert type is never sent.
	ErrNotDispatchable = errors.New("alert type cannot be dispatched")
)

// ResolutionError reports that no notification address could be found.
// Attempts lists each source consulted, in order.
type ResolutionError struct {
	AlertID  string
	Attempts []Attempt
}

func (e *ResolutionError) Error() string {
	tried := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		tried = append(tried, a.String())
	}
	return fmt.Sprintf("no notification email found for alert %s (tried %s)", e.AlertID, strings.Join(tried, ", "))
}

// ValidationError reports a resolved address that is not a usable e-mail.
type ValidationError struct {
	AlertID string
	Email   string
	Source  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf(
		"invalid notification email %q from %s for alert %s: clean up the email fields on the record and try again",
		e.Email, e.Source, e.AlertID,
	)
}

// TransportError wraps a failure of the notification service itself.
type TransportError struct {
	AlertID string
	Err     error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("sending alert %s failed: %v", e.AlertID, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
