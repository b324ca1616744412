package parser

import (
	"fmt"
	"strings"
)

// FormatError reports a log whose bytes do not match the format it claims to be. Offset is the
// byte position the problem was found at, or -1 when it concerns the file as a whole.
type FormatError struct {
	Path   string
	Offset int64
	Reason string
}

func (e *FormatError) Error() string {
	if e.Offset < 0 {
		return fmt.Sprintf("malformed log %s: %s", e.Path, e.Reason)
	}
	return fmt.Sprintf("malformed log %s at byte %d: %s", e.Path, e.Offset, e.Reason)
}

// NewFormatError returns a *FormatError with a formatted reason.
func NewFormatError(path string, offset int64, format string, args ...interface{}) *FormatError {
	return &FormatError{Path: path, Offset: offset, Reason: fmt.Sprintf(format, args...)}
}

// UnsupportedVersionError reports that no registered decoder can read a version.
type UnsupportedVersionError struct {
	Requested Version
	Available []Version
}

func (e *UnsupportedVersionError) Error() string {
	if len(e.Available) == 0 {
		return fmt.Sprintf("no parser registered for %s", e.Requested)
	}
	available := make([]string, len(e.Available))
	for i, v := range e.Available {
		available[i] = v.String()
	}
	return fmt.Sprintf("no parser registered for %s (available: %s)", e.Requested, strings.Join(available, ", "))
}
