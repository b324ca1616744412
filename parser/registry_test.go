package parser

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"go.viam.com/test"

	"github.com/merc-cyy/Northwestern-Formula-Racing-Telemetry/logging"
	"github.com/merc-cyy/Northwestern-Formula-Racing-Telemetry/snapshot"
)

type fakeParser struct {
	version Version
	records int
}

func (p *fakeParser) Parse(ctx context.Context, path string) (*snapshot.DB, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	db := snapshot.NewDB(p.records)
	for i := 0; i < db.Len(); i++ {
		db.At(i).Time.TimeSinceStartup = uint32(p.version.Minor)
	}
	return db, nil
}

func fakeRegistration(v Version) Registration {
	return Registration{
		Description: "fake " + v.Triple(),
		Constructor: func(logger logging.Logger) (Parser, error) {
			return &fakeParser{version: v, records: 2}, nil
		},
	}
}

func newTestRegistry(t *testing.T, versions ...Version) *Registry {
	reg := NewRegistry(logging.NewTestLogger(t))
	for _, v := range versions {
		reg.Register(v, fakeRegistration(v))
	}
	return reg
}

func TestResolve(t *testing.T) {
	reg := newTestRegistry(t,
		NewVersion("F", 1, 0, 0),
		NewVersion("F", 1, 2, 0),
		NewVersion("F", 2, 0, 0),
		NewVersion("G", 1, 1, 0),
	)

	for _, tc := range []struct {
		requested Version
		expected  Version
	}{
		{NewVersion("F", 1, 1, 5), NewVersion("F", 1, 0, 0)},
		{NewVersion("F", 1, 2, 0), NewVersion("F", 1, 2, 0)},
		{NewVersion("F", 1, 9, 9), NewVersion("F", 1, 2, 0)},
		{NewVersion("F", 2, 0, 0), NewVersion("F", 2, 0, 0)},
		{NewVersion("F", 255, 0, 0), NewVersion("F", 2, 0, 0)},
		{NewVersion("G", 1, 2, 0), NewVersion("G", 1, 1, 0)},
	} {
		t.Run(tc.requested.String(), func(t *testing.T) {
			resolved, registration, err := reg.Resolve(tc.requested)
			test.That(t, err, test.ShouldBeNil)
			test.That(t, resolved, test.ShouldResemble, tc.expected)
			test.That(t, registration.Description, test.ShouldEqual, "fake "+tc.expected.Triple())
		})
	}

	for _, v := range []Version{
		NewVersion("F", 0, 9, 0),
		NewVersion("G", 1, 0, 9),
		NewVersion("H", 9, 9, 9),
	} {
		_, _, err := reg.Resolve(v)
		var unsupported *UnsupportedVersionError
		test.That(t, errors.As(err, &unsupported), test.ShouldBeTrue)
		test.That(t, unsupported.Requested, test.ShouldResemble, v)
		test.That(t, unsupported.Available, test.ShouldHaveLength, 4)
	}
}

func TestRegisterAndLookup(t *testing.T) {
	v := NewVersion(DefaultSchema, 0, 0, 1)
	reg := newTestRegistry(t, v)

	test.That(t, reg.Lookup(v), test.ShouldNotBeNil)
	test.That(t, reg.Lookup(NewVersion(DefaultSchema, 0, 0, 2)), test.ShouldBeNil)

	test.That(t, func() { reg.Register(v, fakeRegistration(v)) }, test.ShouldPanic)
	test.That(t, func() { reg.Register(NewVersion("X", 0, 0, 0), Registration{}) }, test.ShouldPanic)

	copied := reg.Registrations()
	delete(copied, v)
	test.That(t, reg.Lookup(v), test.ShouldNotBeNil)
}

func TestVersionsSorted(t *testing.T) {
	reg := newTestRegistry(t,
		NewVersion("NFR25", 49, 48, 48),
		NewVersion("NFR25", 0, 0, 2),
		NewVersion("ALPHA", 3, 0, 0),
		NewVersion("NFR25", 0, 0, 1),
	)
	test.That(t, reg.Versions(), test.ShouldResemble, []Version{
		NewVersion("ALPHA", 3, 0, 0),
		NewVersion("NFR25", 0, 0, 1),
		NewVersion("NFR25", 0, 0, 2),
		NewVersion("NFR25", 49, 48, 48),
	})
}

func writeLog(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	test.That(t, os.WriteFile(path, data, 0o600), test.ShouldBeNil)
	return path
}

func TestParseDispatch(t *testing.T) {
	reg := newTestRegistry(t,
		NewVersion(DefaultSchema, 0, 0, 0),
		NewVersion(DefaultSchema, 0, 3, 0),
	)
	ctx := context.Background()

	path := writeLog(t, "versioned.bin", append(EncodeHeader(NewVersion(DefaultSchema, 0, 4, 1)), 0xAA))
	db, resolved, err := reg.Parse(ctx, path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, resolved, test.ShouldResemble, NewVersion(DefaultSchema, 0, 3, 0))
	test.That(t, db.Len(), test.ShouldEqual, 2)
	test.That(t, db.At(0).Time.TimeSinceStartup, test.ShouldEqual, uint32(3))

	legacy := writeLog(t, "legacy.bin", []byte("garbage header and more"))
	_, resolved, err = reg.Parse(ctx, legacy)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, resolved, test.ShouldResemble, NewVersion(DefaultSchema, 0, 0, 0))

	_, resolved, err = reg.ParseAs(ctx, legacy, NewVersion(DefaultSchema, 9, 0, 0))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, resolved, test.ShouldResemble, NewVersion(DefaultSchema, 0, 3, 0))

	short := writeLog(t, "short.bin", []byte("NFR2"))
	_, _, err = reg.Parse(ctx, short)
	var formatErr *FormatError
	test.That(t, errors.As(err, &formatErr), test.ShouldBeTrue)
	test.That(t, formatErr.Path, test.ShouldEqual, short)
}

func TestParseUnsupported(t *testing.T) {
	reg := newTestRegistry(t, NewVersion(DefaultSchema, 0, 0, 1))
	path := writeLog(t, "old.bin", []byte("no magic here"))

	_, _, err := reg.Parse(context.Background(), path)
	var unsupported *UnsupportedVersionError
	test.That(t, errors.As(err, &unsupported), test.ShouldBeTrue)
	test.That(t, err.Error(), test.ShouldContainSubstring, "NFR25 v0.0.0")
	test.That(t, err.Error(), test.ShouldContainSubstring, "available: NFR25 v0.0.1")
}

func TestParseLogsResolution(t *testing.T) {
	logger, observed := logging.NewObservedTestLogger(t)
	reg := NewRegistry(logger)
	v := NewVersion(DefaultSchema, 0, 0, 2)
	reg.Register(v, fakeRegistration(v))

	path := writeLog(t, "run.bin", EncodeHeader(v))
	_, _, err := reg.Parse(context.Background(), path)
	test.That(t, err, test.ShouldBeNil)

	entries := observed.FilterMessage("resolved parser").All()
	test.That(t, entries, test.ShouldHaveLength, 1)
	test.That(t, entries[0].ContextMap()["path"], test.ShouldEqual, path)
}
