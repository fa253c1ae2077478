// Package status holds the value every analysis operation returns: either ok
// or failed with a single descriptive message.
package status

import "fmt"

// Status represents the outcome of an operation. The zero value is ok.
type Status struct {
	failed bool
	msg    string
}

// Ok returns a successful status.
func Ok() Status {
	return Status{}
}

// GenericError returns a failed status carrying msg.
func GenericError(msg string) Status {
	return Status{failed: true, msg: msg}
}

// Errorf formats a message and returns it as a failed status.
func Errorf(format string, args ...any) Status {
	return GenericError(fmt.Sprintf(format, args...))
}

// IsOk reports whether no error was recorded.
func (s Status) IsOk() bool {
	return !s.failed
}

// ErrorMessage returns the recorded message. It is empty for an ok status.
func (s Status) ErrorMessage() string {
	return s.msg
}

// Err converts the status into an error, nil when ok.
func (s Status) Err() error {
	if !s.failed {
		return nil
	}
	return &Error{Msg: s.msg}
}

func (s Status) String() string {
	if !s.failed {
		return "ok"
	}
	return s.msg
}

// Error is the error form of a failed Status.
type Error struct {
	Msg string
}

func (e *Error) Error() string { return e.Msg }
