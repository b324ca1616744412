// Package telemdaq decodes logs written by the telemetry data logger. Such a log carries its own
// schema as text ahead of the binary records, so one decoder handles every CAN layout; a YAML
// mapping decides which signals land in which snapshot fields.
package telemdaq

import (
	"bytes"
	"context"
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/merc-cyy/Northwestern-Formula-Racing-Telemetry/bitbuffer"
	"github.com/merc-cyy/Northwestern-Formula-Racing-Telemetry/logfile"
	"github.com/merc-cyy/Northwestern-Formula-Racing-Telemetry/logging"
	"github.com/merc-cyy/Northwestern-Formula-Racing-Telemetry/parser"
	"github.com/merc-cyy/Northwestern-Formula-Racing-Telemetry/snapshot"
	"github.com/merc-cyy/Northwestern-Formula-Racing-Telemetry/telem"
	"github.com/merc-cyy/Northwestern-Formula-Racing-Telemetry/utils"
)

// Version is the header the logger firmware writes. It stored the ASCII digits "100" rather than
// the bytes 1, 0, 0.
var Version = parser.NewVersion(parser.DefaultSchema, '1', '0', '0')

// RecordTimeLen is the uint32 uptime in milliseconds followed by the uint32 unix time that
// precede every snapshot buffer.
const RecordTimeLen = 8

// Decoder reads schema-carrying telemetry logs.
type Decoder struct {
	logger  logging.Logger
	mapping *Mapping
}

// NewDecoder returns a decoder that places signals according to mapping.
func NewDecoder(logger logging.Logger, mapping *Mapping) *Decoder {
	return &Decoder{logger: logger, mapping: mapping}
}

// Register adds the telemetry decoder, using the default mapping, to reg.
func Register(reg *parser.Registry) {
	reg.Register(Version, parser.Registration{
		Description: "telemetry logger with embedded schema",
		Constructor: func(logger logging.Logger) (parser.Parser, error) {
			mapping, err := DefaultMapping()
			if err != nil {
				return nil, err
			}
			return NewDecoder(logger, mapping), nil
		},
	})
}

type binding struct {
	reading int
	set     snapshot.Setter
}

// Schema extracts and compiles the schema embedded in raw. dataOffset is where the records start.
func Schema(raw []byte) (cfg *telem.Config, dataOffset int, err error) {
	skip := 0
	if bytes.HasPrefix(raw, parser.Magic) && len(raw) >= parser.HeaderLen {
		skip = parser.HeaderLen
	}
	text, end, err := telem.ExtractSchema(raw[skip:])
	if err != nil {
		return nil, 0, err
	}
	cfg, err = telem.Compile(text)
	if err != nil {
		return nil, 0, err
	}
	return cfg, skip + end, nil
}

// Parse decodes every record of the log at path.
func (d *Decoder) Parse(ctx context.Context, path string) (*snapshot.DB, error) {
	raw, err := logfile.ReadAll(path)
	if err != nil {
		return nil, err
	}
	cfg, dataOffset, err := Schema(raw)
	if err != nil {
		return nil, errors.Wrapf(err, "reading schema of %s", path)
	}
	dp := telem.NewDataParser(cfg)
	bindings, err := d.bind(dp)
	if err != nil {
		return nil, err
	}

	recordLen := RecordTimeLen + cfg.TotalBytes()
	data := raw[dataOffset:]
	if rem := len(data) % recordLen; rem != 0 {
		return nil, parser.NewFormatError(path, int64(len(raw)-rem),
			"data region of %d bytes is not a multiple of the %d byte record (%d trailing bytes)",
			len(data), recordLen, rem)
	}
	n := len(data) / recordLen
	d.logger.Debugw("decoding records",
		"path", path,
		"boards", len(cfg.Boards),
		"signals", len(dp.Keys()),
		"mapped", len(bindings),
		"records", n,
		"record_size", recordLen)

	db := snapshot.NewDB(n)
	err = utils.GroupWorkParallel(ctx, n, func(groupNum, groupSize, from, to int) (utils.MemberWorkFunc, utils.GroupWorkDoneFunc) {
		return func(memberNum, workNum int) error {
			off := workNum * recordLen
			rec := data[off : off+recordLen]
			s := db.At(workNum)
			s.Time.TimeSinceStartup = binary.LittleEndian.Uint32(rec[0:4])
			s.Time.UnixTime = binary.LittleEndian.Uint32(rec[4:8])

			buf, err := bitbuffer.FromBytes(cfg.TotalBits(), rec[RecordTimeLen:])
			if err != nil {
				return err
			}
			readings, err := dp.ParseSnapshot(buf)
			if err != nil {
				return parser.NewFormatError(path, int64(dataOffset+off), "record %d: %v", workNum, err)
			}
			for _, b := range bindings {
				b.set(s, readings[b.reading].Value)
			}
			return nil
		}, nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "decoding %s", path)
	}
	return db, nil
}

func (d *Decoder) bind(dp *telem.DataParser) ([]binding, error) {
	var bindings []binding
	var dropped []string
	for i, key := range dp.Keys() {
		path, ok := d.mapping.Path(key)
		if !ok {
			dropped = append(dropped, key)
			continue
		}
		set, err := snapshot.ResolvePath(path)
		if err != nil {
			return nil, errors.Wrapf(err, "mapping %s", key)
		}
		bindings = append(bindings, binding{reading: i, set: set})
	}
	if len(dropped) > 0 {
		d.logger.Debugw("signals without a snapshot field are dropped", "signals", dropped)
	}
	return bindings, nil
}
