package oerror

import "fmt"

// OomphError is the error type returned by clicktest packages.
type OomphError struct {
	Err string
}

// New returns a new OomphError with the message formatted with the args passed.
func New(format string, args ...any) *OomphError {
	if len(args) == 0 {
		return &OomphError{Err: format}
	}
	return &OomphError{Err: fmt.Sprintf(format, args...)}
}

func (e *OomphError) Error() string {
	return e.Err
}

var (
	// ErrAlreadyActive is returned when a click test is started for a subject that already has one running.
	ErrAlreadyActive = New("click test already active")
	// ErrNotFound is returned when there is no active click test for a subject. Callers finalising or
	// recording events should treat it as "nothing to do" rather than a failure.
	ErrNotFound = New("no active click test")
	// ErrInvalidThresholds is returned when a thresholds snapshot is non-finite or has an inverted range.
	ErrInvalidThresholds = New("invalid thresholds")
)
