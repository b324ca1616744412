// Package parser maps log format versions to the decoders that read them and dispatches log files
// to the right decoder based on their version header.
package parser

import (
	"context"
	"sort"

	"github.com/mitchellh/copystructure"
	"github.com/pkg/errors"
	"github.com/samber/lo"

	"github.com/merc-cyy/Northwestern-Formula-Racing-Telemetry/logging"
	"github.com/merc-cyy/Northwestern-Formula-Racing-Telemetry/snapshot"
)

// A Parser decodes a whole log file into snapshots. Any malformed input aborts the decode.
type Parser interface {
	Parse(ctx context.Context, path string) (*snapshot.DB, error)
}

// A Constructor builds a Parser.
type Constructor func(logger logging.Logger) (Parser, error)

// Registration describes a registered decoder.
type Registration struct {
	Description string
	Constructor Constructor
}

// Registry holds the decoder for every known format version. It is filled by Register during
// startup and only read afterwards, so lookups need no locking.
type Registry struct {
	logger  logging.Logger
	parsers map[Version]Registration
}

// NewRegistry returns an empty registry.
func NewRegistry(logger logging.Logger) *Registry {
	return &Registry{logger: logger, parsers: map[Version]Registration{}}
}

// Register adds a decoder for v. Registering the same version twice panics.
func (r *Registry) Register(v Version, reg Registration) {
	if reg.Constructor == nil {
		panic(errors.Errorf("cannot register a nil constructor for %s", v))
	}
	if _, old := r.parsers[v]; old {
		panic(errors.Errorf("trying to register two parsers for the same version %s", v))
	}
	r.parsers[v] = reg
}

// Lookup returns the registration for exactly v. nil is returned if there is none.
func (r *Registry) Lookup(v Version) *Registration {
	if reg, ok := r.parsers[v]; ok {
		return &reg
	}
	return nil
}

// Registrations returns a copy of the registry.
func (r *Registry) Registrations() map[Version]Registration {
	copied, err := copystructure.Copy(r.parsers)
	if err != nil {
		panic(err)
	}
	return copied.(map[Version]Registration)
}

// Versions returns every registered version, sorted.
func (r *Registry) Versions() []Version {
	versions := lo.Keys(r.parsers)
	sort.Slice(versions, func(i, j int) bool {
		return versions[i].Less(versions[j])
	})
	return versions
}

// Resolve picks the decoder for v: an exact match, else the newest registered version of the same
// schema that is not newer than v. A decoder newer than v is never chosen.
func (r *Registry) Resolve(v Version) (Version, Registration, error) {
	if reg, ok := r.parsers[v]; ok {
		return v, reg, nil
	}

	candidates := lo.Filter(lo.Keys(r.parsers), func(k Version, _ int) bool {
		return k.Schema == v.Schema && k.Compare(v) <= 0
	})
	if len(candidates) == 0 {
		return Version{}, Registration{}, &UnsupportedVersionError{Requested: v, Available: r.Versions()}
	}
	best := lo.MaxBy(candidates, func(a, b Version) bool {
		return a.Compare(b) > 0
	})
	return best, r.parsers[best], nil
}

// Parse reads the version header of path, resolves a decoder for it and decodes the file.
func (r *Registry) Parse(ctx context.Context, path string) (*snapshot.DB, Version, error) {
	requested, versioned, err := ReadHeader(path)
	if err != nil {
		return nil, Version{}, err
	}
	if !versioned {
		r.logger.Warnw("log has no version header, assuming the oldest format", "path", path, "version", requested)
	}
	return r.parse(ctx, path, requested)
}

// ParseAs decodes path with the decoder resolved for v, ignoring the file's own version header.
func (r *Registry) ParseAs(ctx context.Context, path string, v Version) (*snapshot.DB, Version, error) {
	return r.parse(ctx, path, v)
}

func (r *Registry) parse(ctx context.Context, path string, requested Version) (*snapshot.DB, Version, error) {
	resolved, reg, err := r.Resolve(requested)
	if err != nil {
		return nil, Version{}, err
	}
	r.logger.Infow("resolved parser", "path", path, "requested", requested, "resolved", resolved)

	p, err := reg.Constructor(r.logger.Sublogger(resolved.Triple()))
	if err != nil {
		return nil, resolved, errors.Wrapf(err, "constructing parser %s", resolved)
	}
	db, err := p.Parse(ctx, path)
	if err != nil {
		return nil, resolved, errors.Wrapf(err, "parsing %s as %s", path, resolved)
	}
	return db, resolved, nil
}
