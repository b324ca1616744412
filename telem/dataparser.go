package telem

import (
	"github.com/pkg/errors"

	"github.com/merc-cyy/Northwestern-Formula-Racing-Telemetry/bitbuffer"
)

// Reading is one decoded signal. Label is set when Raw matches one of the signal's enum entries.
type Reading struct {
	Name  string
	Raw   int64
	Value float64
	Label string
}

type boundSignal struct {
	key    string
	signal *Signal
	handle bitbuffer.Handle
}

// DataParser decodes snapshot buffers laid out by a Config.
type DataParser struct {
	cfg     *Config
	signals []boundSignal
	index   map[string]int
}

// NewDataParser binds every signal of cfg to its location in a snapshot buffer.
func NewDataParser(cfg *Config) *DataParser {
	p := &DataParser{cfg: cfg, index: map[string]int{}}
	for _, b := range cfg.Boards {
		for _, m := range b.Messages {
			for _, s := range m.Signals {
				key := SignalKey(b.Name, m.Name, s.Name)
				p.index[key] = len(p.signals)
				p.signals = append(p.signals, boundSignal{
					key:    key,
					signal: s,
					handle: bitbuffer.Handle{Offset: m.BufferOffset + s.StartBit, Size: s.Length},
				})
			}
		}
	}
	return p
}

// Config returns the schema the parser was built from.
func (p *DataParser) Config() *Config {
	return p.cfg
}

// Keys lists the reading names in the order ParseSnapshot returns them.
func (p *DataParser) Keys() []string {
	keys := make([]string, len(p.signals))
	for i, bs := range p.signals {
		keys[i] = bs.key
	}
	return keys
}

// BitSize is the snapshot buffer size the parser expects.
func (p *DataParser) BitSize() int {
	return p.cfg.TotalBits()
}

// ParseSnapshot decodes every signal in buf, one Reading per signal in declaration order.
func (p *DataParser) ParseSnapshot(buf *bitbuffer.Buffer) ([]Reading, error) {
	readings := make([]Reading, len(p.signals))
	for i, bs := range p.signals {
		raw, err := p.readRaw(buf, bs)
		if err != nil {
			return nil, err
		}
		readings[i] = Reading{Name: bs.key, Raw: raw, Value: bs.signal.Physical(raw)}
		if label, ok := bs.signal.Label(raw); ok {
			readings[i].Label = label
		}
	}
	return readings, nil
}

func (p *DataParser) readRaw(buf *bitbuffer.Buffer, bs boundSignal) (int64, error) {
	data, err := buf.Read(bs.handle)
	if err != nil {
		return 0, errors.Wrapf(err, "reading signal %s", bs.key)
	}
	var raw uint64
	if bs.signal.Endianness == BigEndian {
		for _, b := range data {
			raw = raw<<8 | uint64(b)
		}
	} else {
		for i := len(data) - 1; i >= 0; i-- {
			raw = raw<<8 | uint64(data[i])
		}
	}
	length := bs.signal.Length
	if bs.signal.Signed && length < 64 && raw&(1<<(length-1)) != 0 {
		raw |= ^uint64(0) << length
	}
	return int64(raw), nil
}

// Pack writes the raw value of the signal named key into buf. It is the inverse of ParseSnapshot
// and is used to build synthetic snapshots.
func (p *DataParser) Pack(buf *bitbuffer.Buffer, key string, raw int64) error {
	idx, ok := p.index[key]
	if !ok {
		return errors.Errorf("unknown signal %q", key)
	}
	bs := p.signals[idx]
	data := make([]byte, bs.handle.ByteLen())
	v := uint64(raw)
	if bs.signal.Endianness == BigEndian {
		for i := len(data) - 1; i >= 0; i-- {
			data[i] = byte(v)
			v >>= 8
		}
	} else {
		for i := range data {
			data[i] = byte(v)
			v >>= 8
		}
	}
	return errors.Wrapf(buf.Write(bs.handle, data), "writing signal %s", key)
}
