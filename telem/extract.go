package telem

import (
	"bytes"
	"unicode/utf8"
)

// ExtractSchema finds schema text embedded at the head of a log. The log is scanned line by line
// until a line is not valid UTF-8. The schema starts at the first line beginning with '>' or "!!"
// and ends after the last line beginning with ">>>". dataOffset is the byte position just past
// the schema, where binary records begin.
func ExtractSchema(raw []byte) (schema string, dataOffset int, err error) {
	start, end := -1, -1
	pos := 0
	for pos < len(raw) {
		next := len(raw)
		if nl := bytes.IndexByte(raw[pos:], '\n'); nl >= 0 {
			next = pos + nl + 1
		}
		line := raw[pos:next]
		if !utf8.Valid(line) {
			break
		}
		trimmed := bytes.TrimLeft(line, " \t\r\n\v\f")
		if start < 0 && (bytes.HasPrefix(trimmed, []byte(">")) || bytes.HasPrefix(trimmed, []byte("!!"))) {
			start = pos
		}
		if start >= 0 && bytes.HasPrefix(trimmed, []byte(">>>")) {
			end = next
		}
		pos = next
	}
	if start < 0 || end < 0 {
		return "", 0, ErrSchemaNotFound
	}
	return string(raw[start:end]), end, nil
}
