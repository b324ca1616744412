package parser

import (
	"bytes"

	"github.com/merc-cyy/Northwestern-Formula-Racing-Telemetry/logfile"
)

// Magic opens every log of the default schema.
var Magic = []byte(DefaultSchema)

// HeaderLen is the magic followed by the major, minor and patch bytes.
var HeaderLen = len(Magic) + 3

// DecodeHeader reads the version from the leading bytes of a log. When the magic does not match,
// the log predates versioned headers and is reported as DefaultSchema v0.0.0 with ok false.
func DecodeHeader(path string, header []byte) (v Version, ok bool, err error) {
	if len(header) < HeaderLen {
		return Version{}, false, NewFormatError(path, int64(len(header)),
			"file is %d bytes, shorter than the %d byte header", len(header), HeaderLen)
	}
	if !bytes.Equal(header[:len(Magic)], Magic) {
		return NewVersion(DefaultSchema, 0, 0, 0), false, nil
	}
	m := len(Magic)
	return NewVersion(DefaultSchema, header[m], header[m+1], header[m+2]), true, nil
}

// ReadHeader reads the version header of the log at path.
func ReadHeader(path string) (Version, bool, error) {
	header, err := logfile.ReadHeader(path, HeaderLen)
	if err != nil {
		return Version{}, false, err
	}
	return DecodeHeader(path, header)
}

// EncodeHeader returns the header bytes for v. v.Schema is written as the magic.
func EncodeHeader(v Version) []byte {
	out := make([]byte, 0, len(v.Schema)+3)
	out = append(out, v.Schema...)
	return append(out, v.Major, v.Minor, v.Patch)
}
