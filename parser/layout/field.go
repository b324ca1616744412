package layout

import (
	"encoding/binary"
	"math"

	"github.com/pkg/errors"
)

// Value is the set of Go types a field can decode into.
type Value interface {
	bool | int8 | uint8 | int16 | uint16 | int32 | uint32 | float32 | float64
}

// Field is a typed handle to a named entry, resolved once and reused for every record.
type Field[T Value] struct {
	name   string
	offset int
	count  int
	width  int
}

func kindOf[T Value]() Kind {
	var zero T
	switch any(zero).(type) {
	case bool:
		return Bool
	case int8:
		return Int8
	case uint8:
		return Uint8
	case int16:
		return Int16
	case uint16:
		return Uint16
	case int32:
		return Int32
	case uint32:
		return Uint32
	case float32:
		return Float32
	default:
		return Float64
	}
}

// Lookup resolves the named entry of l as a Field of T. The entry's kind must match T.
func Lookup[T Value](l *Layout, name string) (Field[T], error) {
	e, ok := l.Entry(name)
	if !ok {
		return Field[T]{}, errors.Errorf("layout %s: no field %q", l.name, name)
	}
	if e.Ignored {
		return Field[T]{}, errors.Errorf("layout %s: field %q is a skipped region", l.name, name)
	}
	if want := kindOf[T](); e.Kind != want {
		return Field[T]{}, errors.Errorf("layout %s: field %q is %s, not %s", l.name, name, e.Kind, want)
	}
	return Field[T]{name: name, offset: e.Offset, count: e.Count, width: e.Kind.Size()}, nil
}

// MustLookup is Lookup for handles resolved at package initialization.
func MustLookup[T Value](l *Layout, name string) Field[T] {
	f, err := Lookup[T](l, name)
	if err != nil {
		panic(err)
	}
	return f
}

// Name returns the field's name.
func (f Field[T]) Name() string {
	return f.name
}

// Len is the number of elements in the field.
func (f Field[T]) Len() int {
	return f.count
}

// Get decodes the first element of the field from rec.
func (f Field[T]) Get(rec []byte) T {
	return decode[T](rec[f.offset:])
}

// At decodes element i of an array field.
func (f Field[T]) At(rec []byte, i int) T {
	return decode[T](rec[f.offset+i*f.width:])
}

// Copy decodes min(Len(), len(dst)) elements into dst and returns how many were copied.
func (f Field[T]) Copy(rec []byte, dst []T) int {
	n := min(f.count, len(dst))
	for i := 0; i < n; i++ {
		dst[i] = f.At(rec, i)
	}
	return n
}

// Set encodes v as the first element of the field.
func (f Field[T]) Set(rec []byte, v T) {
	encode(rec[f.offset:], v)
}

// SetAt encodes v as element i of an array field.
func (f Field[T]) SetAt(rec []byte, i int, v T) {
	encode(rec[f.offset+i*f.width:], v)
}

func decode[T Value](b []byte) T {
	var out T
	switch p := any(&out).(type) {
	case *bool:
		*p = b[0] != 0
	case *int8:
		*p = int8(b[0])
	case *uint8:
		*p = b[0]
	case *int16:
		*p = int16(binary.LittleEndian.Uint16(b))
	case *uint16:
		*p = binary.LittleEndian.Uint16(b)
	case *int32:
		*p = int32(binary.LittleEndian.Uint32(b))
	case *uint32:
		*p = binary.LittleEndian.Uint32(b)
	case *float32:
		*p = math.Float32frombits(binary.LittleEndian.Uint32(b))
	case *float64:
		*p = math.Float64frombits(binary.LittleEndian.Uint64(b))
	}
	return out
}

func encode[T Value](b []byte, v T) {
	switch x := any(v).(type) {
	case bool:
		if x {
			b[0] = 1
		} else {
			b[0] = 0
		}
	case int8:
		b[0] = byte(x)
	case uint8:
		b[0] = x
	case int16:
		binary.LittleEndian.PutUint16(b, uint16(x))
	case uint16:
		binary.LittleEndian.PutUint16(b, x)
	case int32:
		binary.LittleEndian.PutUint32(b, uint32(x))
	case uint32:
		binary.LittleEndian.PutUint32(b, x)
	case float32:
		binary.LittleEndian.PutUint32(b, math.Float32bits(x))
	case float64:
		binary.LittleEndian.PutUint64(b, math.Float64bits(x))
	}
}
