// Package bitbuffer stores bit fields at arbitrary bit offsets inside a fixed-size byte buffer.
//
// Bits are numbered least-significant first within each byte: bit 0 of the buffer is the low bit
// of byte 0 and bit 9 is bit 1 of byte 1. Source and destination byte slices passed to Write and
// returned by Read use the same convention, with the field's bit 0 in the low bit of the first byte.
package bitbuffer

import (
	"fmt"

	"github.com/pkg/errors"
)

// Handle names a run of Size bits starting at bit Offset.
type Handle struct {
	Offset int
	Size   int
}

// End returns the bit position just past the run.
func (h Handle) End() int {
	return h.Offset + h.Size
}

// ByteLen is the number of bytes needed to hold Size bits.
func (h Handle) ByteLen() int {
	return byteLen(h.Size)
}

func (h Handle) String() string {
	return fmt.Sprintf("[%d, %d)", h.Offset, h.End())
}

// RangeError is returned when a handle does not fit inside a buffer.
type RangeError struct {
	Op      string
	Handle  Handle
	BitSize int
}

func (e *RangeError) Error() string {
	if e.Handle.Size == 0 {
		return fmt.Sprintf("bitbuffer: cannot %s zero-size run at bit %d", e.Op, e.Handle.Offset)
	}
	return fmt.Sprintf("bitbuffer: cannot %s bits %v: buffer holds %d bits", e.Op, e.Handle, e.BitSize)
}

// Buffer is a byte buffer with a fixed capacity in bits.
type Buffer struct {
	bitSize int
	data    []byte
}

func byteLen(bits int) int {
	return (bits + 7) >> 3
}

// New returns a zeroed buffer holding bitSize bits.
func New(bitSize int) *Buffer {
	if bitSize < 0 {
		bitSize = 0
	}
	return &Buffer{bitSize: bitSize, data: make([]byte, byteLen(bitSize))}
}

// FromBytes wraps data without copying it. data must hold at least bitSize bits.
func FromBytes(bitSize int, data []byte) (*Buffer, error) {
	if bitSize < 0 {
		return nil, errors.Errorf("bitbuffer: negative bit size %d", bitSize)
	}
	if need := byteLen(bitSize); len(data) < need {
		return nil, errors.Errorf("bitbuffer: provided buffer too small: need %d bytes, got %d", need, len(data))
	}
	return &Buffer{bitSize: bitSize, data: data}, nil
}

// BitSize returns the capacity in bits.
func (b *Buffer) BitSize() int {
	return b.bitSize
}

// Bytes returns the backing bytes.
func (b *Buffer) Bytes() []byte {
	return b.data
}

func (b *Buffer) check(op string, h Handle) error {
	if h.Offset < 0 || h.Size < 0 || h.End() > b.bitSize {
		return &RangeError{Op: op, Handle: h, BitSize: b.bitSize}
	}
	return nil
}

// Write copies the low h.Size bits of src into the buffer at h.Offset. src must be exactly
// h.ByteLen() bytes long. Bits of src beyond h.Size are ignored.
func (b *Buffer) Write(h Handle, src []byte) error {
	if err := b.check("write", h); err != nil {
		return err
	}
	if len(src) != h.ByteLen() {
		return errors.Errorf("bitbuffer: write of %d bits needs %d source bytes, got %d", h.Size, h.ByteLen(), len(src))
	}

	if h.Offset&7 == 0 {
		start := h.Offset >> 3
		full := h.Size >> 3
		copy(b.data[start:start+full], src[:full])
		if rem := h.Size & 7; rem != 0 {
			mask := byte(1<<rem) - 1
			b.data[start+full] = b.data[start+full]&^mask | src[full]&mask
		}
		return nil
	}

	for bitIdx := 0; bitIdx < h.Size; bitIdx++ {
		abs := h.Offset + bitIdx
		bit := (src[bitIdx>>3] >> (bitIdx & 7)) & 1
		pos := byte(1) << (abs & 7)
		if bit == 1 {
			b.data[abs>>3] |= pos
		} else {
			b.data[abs>>3] &^= pos
		}
	}
	return nil
}

// Read returns h.ByteLen() bytes holding the bits at h. Unused high bits of the final byte are
// zero. Zero-size and out of range handles are a *RangeError.
func (b *Buffer) Read(h Handle) ([]byte, error) {
	if h.Size == 0 {
		return nil, &RangeError{Op: "read", Handle: h, BitSize: b.bitSize}
	}
	if err := b.check("read", h); err != nil {
		return nil, err
	}

	out := make([]byte, h.ByteLen())
	if h.Offset&7 == 0 {
		start := h.Offset >> 3
		full := h.Size >> 3
		copy(out[:full], b.data[start:start+full])
		if rem := h.Size & 7; rem != 0 {
			out[full] = b.data[start+full] & (byte(1<<rem) - 1)
		}
		return out, nil
	}

	for bitIdx := 0; bitIdx < h.Size; bitIdx++ {
		abs := h.Offset + bitIdx
		if (b.data[abs>>3]>>(abs&7))&1 == 1 {
			out[bitIdx>>3] |= 1 << (bitIdx & 7)
		}
	}
	return out, nil
}

// ReadOK is Read for callers that only care whether the handle was readable.
func (b *Buffer) ReadOK(h Handle) ([]byte, bool) {
	out, err := b.Read(h)
	return out, err == nil
}
