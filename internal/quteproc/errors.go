package quteproc

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotRunning is returned when a command is sent without a live browser.
	ErrNotRunning = errors.New("browser is not running")

	// ErrUnexpectedExit reports that the browser exited without being asked to.
	ErrUnexpectedExit = errors.New("browser exited unexpectedly")

	// ErrNoIPCSocket means the browser never logged its IPC server path.
	ErrNoIPCSocket = errors.New("browser did not announce an IPC socket")
)

// UnexpectedLogError lists warning or error lines no step declared expected.
type UnexpectedLogError struct {
	Lines []LogLine
}

func (e *UnexpectedLogError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d unexpected log line(s) above INFO:", len(e.Lines))
	for _, l := range e.Lines {
		b.WriteString("\n  ")
		b.WriteString(l.String())
	}
	return b.String()
}

// BlacklistedMessageError is returned when a message that must not appear was
// logged.
type BlacklistedMessageError struct {
	Filter LogFilter
	Line   LogLine
}

func (e *BlacklistedMessageError) Error() string {
	return fmt.Sprintf("%s was logged: %s", e.Filter, e.Line)
}

// InvalidOutputError collects browser output that was not JSON logging.
type InvalidOutputError struct {
	Lines []string
}

func (e *InvalidOutputError) Error() string {
	return "got invalid output from browser:\n" + strings.Join(e.Lines, "\n")
}
