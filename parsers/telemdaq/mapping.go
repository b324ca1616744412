package telemdaq

import (
	// for embedding the default mapping.
	_ "embed"
	"sort"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/merc-cyy/Northwestern-Formula-Racing-Telemetry/snapshot"
	"github.com/merc-cyy/Northwestern-Formula-Racing-Telemetry/telem"
)

// Unmapped marks a signal that has no snapshot field.
const Unmapped = "???"

//go:embed mappings/2025_6_10.yml
var defaultMapping []byte

// Mapping routes schema signals onto snapshot paths. Signals it does not name are dropped.
type Mapping struct {
	paths map[string]string
}

// ParseMapping reads a YAML document of the form
//
//	Board:
//	  Message:
//	    Signal: snapshot.path
//
// Every path must name a snapshot field; all unknown paths are reported together.
func ParseMapping(data []byte) (*Mapping, error) {
	var doc map[string]map[string]map[string]string
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, "parsing signal mapping")
	}

	m := &Mapping{paths: map[string]string{}}
	var errs error
	for board, messages := range doc {
		for message, signals := range messages {
			for signal, path := range signals {
				if path == "" || path == Unmapped {
					continue
				}
				key := telem.SignalKey(board, message, signal)
				if !snapshot.ValidPath(path) {
					errs = multierr.Append(errs, errors.Errorf("%s maps to unknown snapshot path %q", key, path))
					continue
				}
				m.paths[key] = path
			}
		}
	}
	if errs != nil {
		return nil, errors.Wrap(errs, "invalid signal mapping")
	}
	return m, nil
}

// DefaultMapping returns the mapping for the 2025 car.
func DefaultMapping() (*Mapping, error) {
	return ParseMapping(defaultMapping)
}

// Path returns the snapshot path key is mapped to.
func (m *Mapping) Path(key string) (string, bool) {
	path, ok := m.paths[key]
	return path, ok
}

// Keys lists the mapped signal keys, sorted.
func (m *Mapping) Keys() []string {
	keys := lo.Keys(m.paths)
	sort.Strings(keys)
	return keys
}
