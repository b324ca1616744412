package layout

import (
	"testing"

	"go.viam.com/test"
)

func TestNewSizeCheck(t *testing.T) {
	inner, err := New("inner", 8,
		Array("flags", Bool, 3),
		Pad(1),
		Scalar("volts", Float32),
	)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, inner.Size(), test.ShouldEqual, 8)

	_, err = New("short", 8,
		Array("flags", Bool, 3),
		Scalar("volts", Float32),
	)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "fields total 7 bytes, expected 8")

	test.That(t, func() {
		MustNew("wide", 4, Scalar("a", Float64))
	}, test.ShouldPanic)

	_, err = New("dup", 2, Scalar("a", Uint8), Scalar("a", Uint8))
	test.That(t, err, test.ShouldNotBeNil)

	_, err = New("empty", 0, Array("a", Uint8, 0))
	test.That(t, err, test.ShouldNotBeNil)
}

func TestEmbedOffsets(t *testing.T) {
	inner := MustNew("inner", 8,
		Array("flags", Bool, 3),
		Pad(1),
		Scalar("volts", Float32),
	)
	outer := MustNew("outer", 4+8+6,
		Scalar("millis", Uint32),
		Embed(inner),
		Array("temps", Int16, 2),
		Skip("reserved", 2),
	)

	volts, ok := outer.Entry("volts")
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, volts.Offset, test.ShouldEqual, 8)

	reserved, ok := outer.Entry("reserved")
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, reserved.Offset, test.ShouldEqual, 16)
	test.That(t, reserved.Ignored, test.ShouldBeTrue)

	test.That(t, outer.Entries(), test.ShouldHaveLength, 6)
	test.That(t, outer.String(), test.ShouldContainSubstring, "int16[2] temps")
}

func TestFieldAccess(t *testing.T) {
	l := MustNew("rec", 28,
		Scalar("millis", Uint32),
		Array("faults", Bool, 2),
		Scalar("rpm", Int16),
		Array("cells", Float32, 3),
		Scalar("lat", Float64),
	)
	// Packed: the float64 sits at offset 20.
	lat, ok := l.Entry("lat")
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, lat.Offset, test.ShouldEqual, 20)

	millis := MustLookup[uint32](l, "millis")
	faults := MustLookup[bool](l, "faults")
	rpm := MustLookup[int16](l, "rpm")
	cells := MustLookup[float32](l, "cells")

	rec := make([]byte, l.Size())
	millis.Set(rec, 123456)
	faults.SetAt(rec, 1, true)
	rpm.Set(rec, -1200)
	for i, v := range []float32{3.7, 3.8, 3.9} {
		cells.SetAt(rec, i, v)
	}

	test.That(t, millis.Get(rec), test.ShouldEqual, uint32(123456))
	test.That(t, faults.At(rec, 0), test.ShouldBeFalse)
	test.That(t, faults.At(rec, 1), test.ShouldBeTrue)
	test.That(t, rpm.Get(rec), test.ShouldEqual, int16(-1200))
	test.That(t, rec[6:8], test.ShouldResemble, []byte{0x50, 0xFB})

	dst := make([]float32, 2)
	test.That(t, cells.Copy(rec, dst), test.ShouldEqual, 2)
	test.That(t, dst, test.ShouldResemble, []float32{3.7, 3.8})
	test.That(t, cells.Len(), test.ShouldEqual, 3)

	test.That(t, l.Check(rec), test.ShouldBeNil)
	test.That(t, l.Check(rec[1:]), test.ShouldNotBeNil)
}

func TestLookupErrors(t *testing.T) {
	l := MustNew("rec", 8, Scalar("millis", Uint32), Skip("spare", 2), Pad(2))

	_, err := Lookup[float32](l, "millis")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "is uint32, not float32")

	_, err = Lookup[uint8](l, "spare")
	test.That(t, err, test.ShouldNotBeNil)

	_, err = Lookup[uint32](l, "missing")
	test.That(t, err, test.ShouldNotBeNil)

	test.That(t, func() { MustLookup[int8](l, "millis") }, test.ShouldPanic)
}
