package parser

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/pkg/errors"
)

// DefaultSchema is the format family written by the 2025 car's loggers.
const DefaultSchema = "NFR25"

// Version identifies a log format revision. It is comparable and used as a registry key.
type Version struct {
	Schema string
	Major  uint8
	Minor  uint8
	Patch  uint8
}

// NewVersion returns the version schema major.minor.patch.
func NewVersion(schema string, major, minor, patch uint8) Version {
	return Version{Schema: schema, Major: major, Minor: minor, Patch: patch}
}

// Compare orders versions by (major, minor, patch). The schema is not considered; ordering is
// only meaningful between versions of the same schema.
func (v Version) Compare(o Version) int {
	switch {
	case v.Major != o.Major:
		return cmpUint8(v.Major, o.Major)
	case v.Minor != o.Minor:
		return cmpUint8(v.Minor, o.Minor)
	default:
		return cmpUint8(v.Patch, o.Patch)
	}
}

// Less reports whether v sorts before o. Versions of different schemas sort by schema name.
func (v Version) Less(o Version) bool {
	if v.Schema != o.Schema {
		return v.Schema < o.Schema
	}
	return v.Compare(o) < 0
}

func cmpUint8(a, b uint8) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// Triple returns the numeric part, e.g. "0.0.2".
func (v Version) Triple() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

func (v Version) String() string {
	return fmt.Sprintf("%s v%s", v.Schema, v.Triple())
}

// ParseVersion parses "0.0.2", "v0.0.2", "NFR25 0.0.2" or "NFR25 v0.0.2". A missing schema
// means DefaultSchema. Every component must fit in a byte.
func ParseVersion(s string) (Version, error) {
	fields := strings.Fields(s)
	schema := DefaultSchema
	var triple string
	switch len(fields) {
	case 1:
		triple = fields[0]
	case 2:
		schema, triple = fields[0], fields[1]
	default:
		return Version{}, errors.Errorf("malformed parser version %q", s)
	}

	sv, err := semver.StrictNewVersion(strings.TrimPrefix(triple, "v"))
	if err != nil {
		return Version{}, errors.Wrapf(err, "malformed parser version %q", s)
	}
	if sv.Prerelease() != "" || sv.Metadata() != "" {
		return Version{}, errors.Errorf("parser version %q must be a plain major.minor.patch", s)
	}
	for _, part := range []uint64{sv.Major(), sv.Minor(), sv.Patch()} {
		if part > 255 {
			return Version{}, errors.Errorf("parser version %q: component %d does not fit in a byte", s, part)
		}
	}
	return NewVersion(schema, uint8(sv.Major()), uint8(sv.Minor()), uint8(sv.Patch())), nil
}
