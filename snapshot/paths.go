package snapshot

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

const tagName = "snap"

var snapshotType = reflect.TypeOf(Snapshot{})

// step is either a struct field index or, when field is negative, an array index.
type step struct {
	field int
	elem  int
}

// Setter assigns v to one leaf field of s. Integer fields truncate, booleans are set for any
// non-zero value.
type Setter func(s *Snapshot, v float64)

// ResolvePath turns a dotted path such as "bms.cell_temps[3]" or "corners[0].wheel_speed" into a
// Setter. Paths must name a single numeric or boolean leaf.
func ResolvePath(path string) (Setter, error) {
	steps, leaf, err := resolve(path)
	if err != nil {
		return nil, err
	}
	set := leafSetter(leaf.Kind())
	return func(s *Snapshot, v float64) {
		set(walk(reflect.ValueOf(s).Elem(), steps), v)
	}, nil
}

// ValidPath reports whether path names a leaf of the snapshot.
func ValidPath(path string) bool {
	_, _, err := resolve(path)
	return err == nil
}

func resolve(path string) ([]step, reflect.Type, error) {
	if path == "" {
		return nil, nil, errors.New("empty snapshot path")
	}
	var steps []step
	typ := snapshotType
	for _, part := range strings.Split(path, ".") {
		name, indices, err := splitIndices(part)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "snapshot path %q", path)
		}
		if typ.Kind() != reflect.Struct {
			return nil, nil, errors.Errorf("snapshot path %q: %q is not a group", path, name)
		}
		fieldIdx, ok := fieldByTag(typ, name)
		if !ok {
			return nil, nil, errors.Errorf("snapshot path %q: unknown field %q", path, name)
		}
		steps = append(steps, step{field: fieldIdx, elem: -1})
		typ = typ.Field(fieldIdx).Type

		for _, idx := range indices {
			if typ.Kind() != reflect.Array {
				return nil, nil, errors.Errorf("snapshot path %q: %q is not an array", path, name)
			}
			if idx < 0 || idx >= typ.Len() {
				return nil, nil, errors.Errorf("snapshot path %q: index %d out of range [0, %d)", path, idx, typ.Len())
			}
			steps = append(steps, step{field: -1, elem: idx})
			typ = typ.Elem()
		}
	}
	if !isLeaf(typ.Kind()) {
		return nil, nil, errors.Errorf("snapshot path %q does not name a single value", path)
	}
	return steps, typ, nil
}

func splitIndices(part string) (string, []int, error) {
	open := strings.IndexByte(part, '[')
	if open < 0 {
		return part, nil, nil
	}
	name := part[:open]
	rest := part[open:]
	var indices []int
	for rest != "" {
		end := strings.IndexByte(rest, ']')
		if rest[0] != '[' || end < 0 {
			return "", nil, errors.Errorf("malformed index in %q", part)
		}
		idx, err := strconv.Atoi(rest[1:end])
		if err != nil {
			return "", nil, errors.Wrapf(err, "malformed index in %q", part)
		}
		indices = append(indices, idx)
		rest = rest[end+1:]
	}
	return name, indices, nil
}

func fieldByTag(typ reflect.Type, name string) (int, bool) {
	for i := 0; i < typ.NumField(); i++ {
		if typ.Field(i).Tag.Get(tagName) == name {
			return i, true
		}
	}
	return 0, false
}

func walk(v reflect.Value, steps []step) reflect.Value {
	for _, st := range steps {
		if st.field >= 0 {
			v = v.Field(st.field)
		} else {
			v = v.Index(st.elem)
		}
	}
	return v
}

func isLeaf(kind reflect.Kind) bool {
	switch kind {
	case reflect.Bool,
		reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}

func leafSetter(kind reflect.Kind) func(reflect.Value, float64) {
	switch kind {
	case reflect.Bool:
		return func(v reflect.Value, f float64) { v.SetBool(f != 0) }
	case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return func(v reflect.Value, f float64) { v.SetInt(int64(f)) }
	case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return func(v reflect.Value, f float64) {
			if f < 0 {
				f = 0
			}
			v.SetUint(uint64(f))
		}
	default:
		return func(v reflect.Value, f float64) { v.SetFloat(f) }
	}
}

var (
	columnsOnce sync.Once
	columns     []string
)

// Columns lists the path of every leaf of a snapshot in declaration order, e.g.
// "time.time_since_startup", "corners[0].wheel_speed", "bms.cell_temps[79]".
func Columns() []string {
	columnsOnce.Do(func() {
		columns = appendColumns(nil, "", snapshotType)
	})
	return columns
}

func appendColumns(out []string, prefix string, typ reflect.Type) []string {
	switch typ.Kind() {
	case reflect.Struct:
		for i := 0; i < typ.NumField(); i++ {
			name := typ.Field(i).Tag.Get(tagName)
			if prefix != "" {
				name = prefix + "." + name
			}
			out = appendColumns(out, name, typ.Field(i).Type)
		}
	case reflect.Array:
		for i := 0; i < typ.Len(); i++ {
			out = appendColumns(out, fmt.Sprintf("%s[%d]", prefix, i), typ.Elem())
		}
	default:
		out = append(out, prefix)
	}
	return out
}

// Values flattens s in the order of Columns. Booleans become 0 or 1.
func Values(s *Snapshot) []float64 {
	return appendValues(make([]float64, 0, len(Columns())), reflect.ValueOf(s).Elem())
}

func appendValues(out []float64, v reflect.Value) []float64 {
	switch {
	case v.Kind() == reflect.Struct:
		for i := 0; i < v.NumField(); i++ {
			out = appendValues(out, v.Field(i))
		}
	case v.Kind() == reflect.Array:
		for i := 0; i < v.Len(); i++ {
			out = appendValues(out, v.Index(i))
		}
	case v.CanUint():
		out = append(out, float64(v.Uint()))
	case v.CanInt():
		out = append(out, float64(v.Int()))
	case v.CanFloat():
		out = append(out, v.Float())
	case v.Kind() == reflect.Bool:
		if v.Bool() {
			out = append(out, 1)
		} else {
			out = append(out, 0)
		}
	}
	return out
}
