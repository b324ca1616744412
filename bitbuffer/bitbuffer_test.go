package bitbuffer

import (
	"math/rand"
	"testing"

	"github.com/pkg/errors"
	"go.viam.com/test"
)

func TestRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	const bitSize = 512

	for i := 0; i < 2000; i++ {
		size := 1 + rng.Intn(64)
		offset := rng.Intn(bitSize - size + 1)
		h := Handle{Offset: offset, Size: size}

		src := make([]byte, h.ByteLen())
		rng.Read(src)
		if rem := size % 8; rem != 0 {
			src[len(src)-1] &= byte(1<<rem) - 1
		}

		buf := New(bitSize)
		// Fill with ones so writes must clear bits too.
		for j := range buf.Bytes() {
			buf.Bytes()[j] = 0xFF
		}
		test.That(t, buf.Write(h, src), test.ShouldBeNil)
		out, err := buf.Read(h)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, out, test.ShouldResemble, src)
	}
}

func TestWriteLeavesNeighborsAlone(t *testing.T) {
	buf := New(32)
	copy(buf.Bytes(), []byte{0xFF, 0xFF, 0xFF, 0xFF})

	test.That(t, buf.Write(Handle{Offset: 4, Size: 12}, []byte{0x00, 0x00}), test.ShouldBeNil)
	test.That(t, buf.Bytes(), test.ShouldResemble, []byte{0x0F, 0x00, 0xFF, 0xFF})

	test.That(t, buf.Write(Handle{Offset: 16, Size: 3}, []byte{0xF8}), test.ShouldBeNil)
	test.That(t, buf.Bytes()[2], test.ShouldEqual, byte(0xF8))
}

func TestCrossByteLayout(t *testing.T) {
	buf := New(24)
	test.That(t, buf.Write(Handle{Offset: 4, Size: 12}, []byte{0xBC, 0x0A}), test.ShouldBeNil)
	test.That(t, buf.Bytes(), test.ShouldResemble, []byte{0xC0, 0xAB, 0x00})

	out, err := buf.Read(Handle{Offset: 8, Size: 8})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldResemble, []byte{0xAB})

	out, err = buf.Read(Handle{Offset: 4, Size: 12})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldResemble, []byte{0xBC, 0x0A})
}

func TestAlignedAndUnalignedAgree(t *testing.T) {
	data := []byte{0x5A, 0xC3, 0x96, 0x0F, 0xE1}
	buf, err := FromBytes(40, data)
	test.That(t, err, test.ShouldBeNil)

	aligned, err := buf.Read(Handle{Offset: 8, Size: 21})
	test.That(t, err, test.ShouldBeNil)

	// Shift the same bits up by one and read them back from an unaligned offset.
	shifted := New(48)
	for bit := 0; bit < 21; bit++ {
		v, err := buf.Read(Handle{Offset: 8 + bit, Size: 1})
		test.That(t, err, test.ShouldBeNil)
		test.That(t, shifted.Write(Handle{Offset: 9 + bit, Size: 1}, v), test.ShouldBeNil)
	}
	unaligned, err := shifted.Read(Handle{Offset: 9, Size: 21})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, unaligned, test.ShouldResemble, aligned)
}

func TestCapacity(t *testing.T) {
	buf := New(16)

	err := buf.Write(Handle{Offset: 10, Size: 7}, []byte{0x7F})
	var rangeErr *RangeError
	test.That(t, errors.As(err, &rangeErr), test.ShouldBeTrue)
	test.That(t, rangeErr.BitSize, test.ShouldEqual, 16)
	test.That(t, rangeErr.Handle.End(), test.ShouldEqual, 17)

	_, err = buf.Read(Handle{Offset: 9, Size: 8})
	test.That(t, errors.As(err, &rangeErr), test.ShouldBeTrue)

	_, ok := buf.ReadOK(Handle{Offset: 9, Size: 8})
	test.That(t, ok, test.ShouldBeFalse)

	_, err = buf.Read(Handle{Offset: -1, Size: 2})
	test.That(t, errors.As(err, &rangeErr), test.ShouldBeTrue)

	// The last bit is still addressable.
	test.That(t, buf.Write(Handle{Offset: 15, Size: 1}, []byte{1}), test.ShouldBeNil)
	out, ok := buf.ReadOK(Handle{Offset: 15, Size: 1})
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, out, test.ShouldResemble, []byte{1})
}

func TestZeroSize(t *testing.T) {
	buf := New(8)
	test.That(t, buf.Write(Handle{Offset: 3, Size: 0}, []byte{}), test.ShouldBeNil)

	_, err := buf.Read(Handle{Offset: 3, Size: 0})
	var rangeErr *RangeError
	test.That(t, errors.As(err, &rangeErr), test.ShouldBeTrue)
	test.That(t, err.Error(), test.ShouldContainSubstring, "zero-size")
}

func TestSourceLength(t *testing.T) {
	buf := New(32)
	err := buf.Write(Handle{Offset: 0, Size: 9}, []byte{0xFF})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "needs 2 source bytes")
}

func TestFromBytes(t *testing.T) {
	_, err := FromBytes(17, []byte{1, 2})
	test.That(t, err, test.ShouldNotBeNil)

	data := []byte{1, 2, 3}
	buf, err := FromBytes(17, data)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, buf.BitSize(), test.ShouldEqual, 17)

	// The buffer aliases the provided bytes.
	test.That(t, buf.Write(Handle{Offset: 0, Size: 8}, []byte{0xEE}), test.ShouldBeNil)
	test.That(t, data[0], test.ShouldEqual, byte(0xEE))
}
