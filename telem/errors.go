package telem

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// ErrSchemaNotFound is returned when a log carries no embedded schema.
var ErrSchemaNotFound = errors.New("failed to locate telemetry schema in log")

// SchemaValidationError describes why schema text could not be compiled. Board, Message and
// Signal are set to the declaration being built when the error was found.
type SchemaValidationError struct {
	Line    int
	Board   string
	Message string
	Signal  string
	Reason  string
}

func (e *SchemaValidationError) Error() string {
	var sb strings.Builder
	sb.WriteString("invalid telemetry schema")
	if e.Line > 0 {
		fmt.Fprintf(&sb, " (line %d", e.Line)
		var path []string
		for _, part := range []string{e.Board, e.Message, e.Signal} {
			if part != "" {
				path = append(path, part)
			}
		}
		if len(path) > 0 {
			fmt.Fprintf(&sb, ", %s", strings.Join(path, "."))
		}
		sb.WriteString(")")
	}
	sb.WriteString(": ")
	sb.WriteString(e.Reason)
	return sb.String()
}
