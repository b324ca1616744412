// Package frontdaq decodes logs written by the front data-acquisition board: a version preamble
// followed by packed, fixed-size records.
package frontdaq

import (
	"bytes"
	"context"

	"github.com/pkg/errors"

	"github.com/merc-cyy/Northwestern-Formula-Racing-Telemetry/logfile"
	"github.com/merc-cyy/Northwestern-Formula-Racing-Telemetry/logging"
	"github.com/merc-cyy/Northwestern-Formula-Racing-Telemetry/parser"
	"github.com/merc-cyy/Northwestern-Formula-Racing-Telemetry/parser/layout"
	"github.com/merc-cyy/Northwestern-Formula-Racing-Telemetry/snapshot"
	"github.com/merc-cyy/Northwestern-Formula-Racing-Telemetry/utils"
)

// PreambleLen is the version header followed by one byte holding the low 8 bits of the record
// size.
var PreambleLen = parser.HeaderLen + 1

// Versions decoded by this package.
var (
	V001 = parser.NewVersion(parser.DefaultSchema, 0, 0, 1)
	V002 = parser.NewVersion(parser.DefaultSchema, 0, 0, 2)

	// V001ASCII is the header v0.0.1 firmware actually writes: "NFR25001", version digits in ASCII.
	V001ASCII = parser.NewVersion(parser.DefaultSchema, '0', '0', '1')
	// V002ASCII keeps an ASCII "NFR25002" header from resolving down to V001ASCII.
	V002ASCII = parser.NewVersion(parser.DefaultSchema, '0', '0', '2')
)

type decodeFunc func(rec []byte, s *snapshot.Snapshot)

// Decoder reads one fixed record layout.
type Decoder struct {
	logger  logging.Logger
	version parser.Version
	record  *layout.Layout
	decode  decodeFunc
}

// NewV001 returns the decoder for NFR25 v0.0.1 logs.
func NewV001(logger logging.Logger) *Decoder {
	return &Decoder{logger: logger, version: V001, record: recordV001, decode: decodeV001}
}

// NewV002 returns the decoder for NFR25 v0.0.2 logs.
func NewV002(logger logging.Logger) *Decoder {
	return &Decoder{logger: logger, version: V002, record: recordV002, decode: decodeV002}
}

// Register adds the front daq decoders to reg under both their binary and ASCII header versions.
func Register(reg *parser.Registry) {
	reg.Register(V001, parser.Registration{
		Description: "front daq DriveBusData, 1004 byte records",
		Constructor: func(logger logging.Logger) (parser.Parser, error) {
			return NewV001(logger), nil
		},
	})
	reg.Register(V001ASCII, parser.Registration{
		Description: "front daq DriveBusData, 1004 byte records, ASCII \"001\" header",
		Constructor: func(logger logging.Logger) (parser.Parser, error) {
			return NewV001(logger), nil
		},
	})
	reg.Register(V002ASCII, parser.Registration{
		Description: "front daq DriveBusData, 2484 byte records, ASCII \"002\" header",
		Constructor: func(logger logging.Logger) (parser.Parser, error) {
			return NewV002(logger), nil
		},
	})
	reg.Register(V002, parser.Registration{
		Description: "front daq DriveBusData with tires, aero, imu and gps, 2484 byte records",
		Constructor: func(logger logging.Logger) (parser.Parser, error) {
			return NewV002(logger), nil
		},
	})
}

// Layout returns the record layout the decoder expects.
func (d *Decoder) Layout() *layout.Layout {
	return d.record
}

// Parse decodes every record of the log at path.
func (d *Decoder) Parse(ctx context.Context, path string) (*snapshot.DB, error) {
	data, err := logfile.ReadAll(path)
	if err != nil {
		return nil, err
	}
	body, err := d.checkPreamble(path, data)
	if err != nil {
		return nil, err
	}

	size := d.record.Size()
	if rem := len(body) % size; rem != 0 {
		return nil, parser.NewFormatError(path, int64(len(data)-rem),
			"data region of %d bytes is not a multiple of the %d byte record (%d trailing bytes)",
			len(body), size, rem)
	}
	n := len(body) / size
	d.logger.Debugw("decoding records", "path", path, "layout", d.record.Name(), "records", n, "record_size", size)

	db := snapshot.NewDB(n)
	err = utils.GroupWorkParallel(ctx, n, func(groupNum, groupSize, from, to int) (utils.MemberWorkFunc, utils.GroupWorkDoneFunc) {
		return func(memberNum, workNum int) error {
			off := workNum * size
			d.decode(body[off:off+size], db.At(workNum))
			return nil
		}, nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "decoding %s", path)
	}
	return db, nil
}

func (d *Decoder) checkPreamble(path string, data []byte) ([]byte, error) {
	if len(data) < PreambleLen {
		return nil, parser.NewFormatError(path, int64(len(data)),
			"file is %d bytes, shorter than the %d byte preamble", len(data), PreambleLen)
	}
	if !bytes.Equal(data[:len(parser.Magic)], parser.Magic) {
		return nil, parser.NewFormatError(path, 0, "missing %q magic", parser.Magic)
	}
	header, _, err := parser.DecodeHeader(path, data)
	if err != nil {
		return nil, err
	}
	if header != d.version {
		d.logger.Debugw("header version differs from decoder", "path", path, "header", header, "decoder", d.version)
	}
	sizeByte := data[parser.HeaderLen]
	if want := byte(d.record.Size() & 0xFF); sizeByte != want {
		return nil, parser.NewFormatError(path, int64(parser.HeaderLen),
			"record size byte is %d, expected %d for %d byte records", sizeByte, want, d.record.Size())
	}
	return data[PreambleLen:], nil
}
