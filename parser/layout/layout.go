// Package layout describes packed, little-endian binary records written by the data-acquisition
// firmware: a fixed sequence of typed fields with explicit padding, checked against the size the
// firmware declares for the structure.
package layout

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Kind is the type of a field element.
type Kind int

// Supported element kinds.
const (
	Bool Kind = iota
	Int8
	Uint8
	Int16
	Uint16
	Int32
	Uint32
	Float32
	Float64
	// Bytes marks padding and skipped regions.
	Bytes
)

var kindSizes = [...]int{
	Bool:    1,
	Int8:    1,
	Uint8:   1,
	Int16:   2,
	Uint16:  2,
	Int32:   4,
	Uint32:  4,
	Float32: 4,
	Float64: 8,
	Bytes:   1,
}

var kindNames = [...]string{
	Bool:    "bool",
	Int8:    "int8",
	Uint8:   "uint8",
	Int16:   "int16",
	Uint16:  "uint16",
	Int32:   "int32",
	Uint32:  "uint32",
	Float32: "float32",
	Float64: "float64",
	Bytes:   "bytes",
}

// Size is the width of one element in bytes.
func (k Kind) Size() int {
	return kindSizes[k]
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// Entry is one region of a layout. Entries without a name are padding.
type Entry struct {
	Name   string
	Kind   Kind
	Count  int
	Offset int
	// Ignored regions are named but never decoded.
	Ignored bool
}

// Size is the number of bytes the entry covers.
func (e Entry) Size() int {
	return e.Kind.Size() * e.Count
}

// Scalar is a single value.
func Scalar(name string, kind Kind) []Entry {
	return []Entry{{Name: name, Kind: kind, Count: 1}}
}

// Array is n consecutive values.
func Array(name string, kind Kind, n int) []Entry {
	return []Entry{{Name: name, Kind: kind, Count: n}}
}

// Pad is n bytes of compiler padding.
func Pad(n int) []Entry {
	return []Entry{{Kind: Bytes, Count: n}}
}

// Skip is a named region of n bytes that is intentionally not decoded.
func Skip(name string, n int) []Entry {
	return []Entry{{Name: name, Kind: Bytes, Count: n, Ignored: true}}
}

// Embed inlines every entry of another layout.
func Embed(l *Layout) []Entry {
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Layout is a validated sequence of entries.
type Layout struct {
	name    string
	size    int
	entries []Entry
	byName  map[string]int
}

// New lays out entries back to back and checks the total against expectedSize.
func New(name string, expectedSize int, entries ...[]Entry) (*Layout, error) {
	l := &Layout{name: name, byName: map[string]int{}}
	offset := 0
	for _, group := range entries {
		for _, e := range group {
			if e.Count <= 0 {
				return nil, errors.Errorf("layout %s: entry %q has non-positive count %d", name, e.Name, e.Count)
			}
			e.Offset = offset
			offset += e.Size()
			if e.Name != "" {
				if _, dup := l.byName[e.Name]; dup {
					return nil, errors.Errorf("layout %s: duplicate field %q", name, e.Name)
				}
				l.byName[e.Name] = len(l.entries)
			}
			l.entries = append(l.entries, e)
		}
	}
	if offset != expectedSize {
		return nil, errors.Errorf("layout %s: fields total %d bytes, expected %d", name, offset, expectedSize)
	}
	l.size = offset
	return l, nil
}

// MustNew is New for layouts declared at package initialization. A mis-sized layout panics.
func MustNew(name string, expectedSize int, entries ...[]Entry) *Layout {
	l, err := New(name, expectedSize, entries...)
	if err != nil {
		panic(err)
	}
	return l
}

// Name returns the layout's name.
func (l *Layout) Name() string {
	return l.name
}

// Size is the record length in bytes.
func (l *Layout) Size() int {
	return l.size
}

// Entries returns the laid out entries, padding included.
func (l *Layout) Entries() []Entry {
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Entry returns the named entry.
func (l *Layout) Entry(name string) (Entry, bool) {
	idx, ok := l.byName[name]
	if !ok {
		return Entry{}, false
	}
	return l.entries[idx], true
}

// Check returns an error unless rec is exactly one record long.
func (l *Layout) Check(rec []byte) error {
	if len(rec) != l.size {
		return errors.Errorf("layout %s: record is %d bytes, expected %d", l.name, len(rec), l.size)
	}
	return nil
}

func (l *Layout) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s (%d bytes)\n", l.name, l.size)
	for _, e := range l.entries {
		name := e.Name
		if name == "" {
			name = "<pad>"
		}
		if e.Count > 1 {
			fmt.Fprintf(&sb, "  %5d  %s[%d] %s\n", e.Offset, e.Kind, e.Count, name)
		} else {
			fmt.Fprintf(&sb, "  %5d  %s %s\n", e.Offset, e.Kind, name)
		}
	}
	return sb.String()
}
