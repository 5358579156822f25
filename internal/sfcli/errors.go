package sfcli

import (
	"errors"
	"fmt"
)

// ErrCommandFailed is matched by every CommandError via errors.Is.
var ErrCommandFailed = errors.New("salesforce cli command failed")

// CommandError is returned when the CLI exits non-zero, times out, writes
// more than the output ceiling or prints something that is not the expected JSON.
type CommandError struct {
	Command  string // rendered command line, for logs
	Message  string // best message available (CLI JSON message, stderr or Go error)
	ExitCode int    // -1 when the process did not exit normally
	Timeout  bool
	Err      error // underlying error, if any
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("salesforce cli command failed: %s", e.Message)
}

func (e *CommandError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrCommandFailed) match any CommandError.
func (e *CommandError) Is(target error) bool { return target == ErrCommandFailed }

// ErrorMessage returns the CLI-provided message of err when it carries one,
// else err.Error(). Empty for a nil error.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	var ce *CommandError
	if errors.As(err, &ce) {
		return ce.Message
	}
	return err.Error()
}
