package telem

import (
	"fmt"
	"strings"
)

// MaxMessageID is the largest id a standard 11-bit CAN identifier can carry.
const MaxMessageID = 0x7FF

// MinMessageStride is the number of snapshot bits reserved for every message, regardless of size.
const MinMessageStride = 64

// Endianness is the byte order of a multi-byte signal.
type Endianness string

// Signal byte orders.
const (
	LittleEndian Endianness = "little"
	BigEndian    Endianness = "big"
)

// EnumEntry names a raw value of a signal.
type EnumEntry struct {
	Name     string
	RawValue int64
}

// Signal is a bit field inside a message.
type Signal struct {
	Name       string
	DataType   string
	StartBit   int
	Length     int
	Factor     float64
	Offset     float64
	Signed     bool
	Endianness Endianness
	Enums      []EnumEntry
}

// Physical converts a raw value into the signal's physical unit. Raw values of unsigned signals
// are reinterpreted as uint64.
func (s *Signal) Physical(raw int64) float64 {
	if !s.Signed {
		return float64(uint64(raw))*s.Factor + s.Offset
	}
	return float64(raw)*s.Factor + s.Offset
}

// Label returns the enum entry name matching raw, if any.
func (s *Signal) Label(raw int64) (string, bool) {
	for _, e := range s.Enums {
		if e.RawValue == raw {
			return e.Name, true
		}
	}
	return "", false
}

// Message is a fixed-size frame holding one or more signals. BufferOffset is the bit position of
// the message inside a snapshot buffer.
type Message struct {
	Name         string
	ID           uint32
	Size         int
	Signals      []*Signal
	BufferOffset int
}

// Stride is the number of snapshot bits the message occupies.
func (m *Message) Stride() int {
	if bits := m.Size * 8; bits > MinMessageStride {
		return bits
	}
	return MinMessageStride
}

// Board groups the messages sent by one telemetry source.
type Board struct {
	Name        string
	Description string
	Messages    []*Message
}

// Config is a compiled schema. It must not be modified once built.
type Config struct {
	Options map[string]any
	Boards  []*Board

	totalBits int
}

// TotalBits is the size in bits of a snapshot buffer holding every message.
func (c *Config) TotalBits() int {
	return c.totalBits
}

// TotalBytes is TotalBits rounded up to whole bytes.
func (c *Config) TotalBytes() int {
	return (c.totalBits + 7) / 8
}

// Board returns the board named name.
func (c *Config) Board(name string) (*Board, bool) {
	for _, b := range c.Boards {
		if b.Name == name {
			return b, true
		}
	}
	return nil, false
}

// MessageByID returns the message with the given id and the board it belongs to.
func (c *Config) MessageByID(id uint32) (*Board, *Message, bool) {
	for _, b := range c.Boards {
		for _, m := range b.Messages {
			if m.ID == id {
				return b, m, true
			}
		}
	}
	return nil, nil, false
}

// SignalKey is the dotted name under which a signal's reading is reported.
func SignalKey(board, message, signal string) string {
	return strings.Join([]string{board, message, signal}, ".")
}

// Keys lists every signal key in declaration order.
func (c *Config) Keys() []string {
	var keys []string
	for _, b := range c.Boards {
		for _, m := range b.Messages {
			for _, s := range m.Signals {
				keys = append(keys, SignalKey(b.Name, m.Name, s.Name))
			}
		}
	}
	return keys
}

func (c *Config) assignOffsets() {
	offset := 0
	for _, b := range c.Boards {
		for _, m := range b.Messages {
			m.BufferOffset = offset
			offset += m.Stride()
		}
	}
	c.totalBits = offset
}

func (m *Message) String() string {
	return fmt.Sprintf("%s(0x%03X)", m.Name, m.ID)
}
