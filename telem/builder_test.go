package telem

import (
	"fmt"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"go.viam.com/test"
)

const twoBoardSchema = `
!! version 3
!! rate 10.5
!! name front
> BOARD1 front daq
>> MSG 0x100 2
>>> SIG uint8 0 8 2 1
> BOARD2
>> STATUS 0x101 8
>>> temp int16 0 16 0.1 -40 signed little
>>> mode uint8 16 4 1 0
>>>> IDLE 0
>>>> DRIVE 1
>>>> FAULT 0xF
>>> counter uint16 24 16 1 0 big
`

func TestBuild(t *testing.T) {
	cfg, err := Compile(twoBoardSchema)
	test.That(t, err, test.ShouldBeNil)

	test.That(t, cfg.Options["version"], test.ShouldEqual, int64(3))
	test.That(t, cfg.Options["rate"], test.ShouldEqual, 10.5)
	test.That(t, cfg.Options["name"], test.ShouldEqual, "front")

	test.That(t, cfg.Boards, test.ShouldHaveLength, 2)
	board1 := cfg.Boards[0]
	test.That(t, board1.Name, test.ShouldEqual, "BOARD1")
	test.That(t, board1.Description, test.ShouldEqual, "front daq")
	test.That(t, board1.Messages, test.ShouldHaveLength, 1)

	msg := board1.Messages[0]
	test.That(t, msg.ID, test.ShouldEqual, uint32(0x100))
	test.That(t, msg.Size, test.ShouldEqual, 2)
	test.That(t, msg.Signals[0].Signed, test.ShouldBeFalse)
	test.That(t, msg.Signals[0].Endianness, test.ShouldEqual, LittleEndian)

	_, status, ok := cfg.MessageByID(0x101)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, status.Signals, test.ShouldHaveLength, 3)

	temp := status.Signals[0]
	test.That(t, temp.Signed, test.ShouldBeTrue)
	test.That(t, temp.Factor, test.ShouldAlmostEqual, 0.1)
	test.That(t, temp.Offset, test.ShouldEqual, -40.0)

	mode := status.Signals[1]
	test.That(t, mode.Enums, test.ShouldResemble, []EnumEntry{{"IDLE", 0}, {"DRIVE", 1}, {"FAULT", 15}})

	counter := status.Signals[2]
	test.That(t, counter.Endianness, test.ShouldEqual, BigEndian)

	test.That(t, cfg.Keys(), test.ShouldResemble, []string{
		"BOARD1.MSG.SIG", "BOARD2.STATUS.temp", "BOARD2.STATUS.mode", "BOARD2.STATUS.counter",
	})
}

func TestSignednessDefaults(t *testing.T) {
	cfg, err := Compile(`
> B
>> M 1 8
>>> a int8 0 8 1 0
>>> b uint8 8 8 1 0
>>> c int8 16 8 1 0 unsigned
>>> d float 24 8 1 0 signed
`)
	test.That(t, err, test.ShouldBeNil)
	sigs := cfg.Boards[0].Messages[0].Signals
	test.That(t, sigs[0].Signed, test.ShouldBeTrue)
	test.That(t, sigs[1].Signed, test.ShouldBeFalse)
	test.That(t, sigs[2].Signed, test.ShouldBeFalse)
	test.That(t, sigs[3].Signed, test.ShouldBeTrue)
}

func TestBufferOffsets(t *testing.T) {
	cfg, err := Compile(`
> A
>> SMALL 0x10 2
>>> s uint8 0 8 1 0
>> WIDE 0x11 16
>>> w uint8 120 8 1 0
> B
>> NEXT 0x12 8
>>> n uint8 0 8 1 0
`)
	test.That(t, err, test.ShouldBeNil)
	msgs := cfg.Boards[0].Messages
	test.That(t, msgs[0].BufferOffset, test.ShouldEqual, 0)
	test.That(t, msgs[1].BufferOffset, test.ShouldEqual, 64)
	test.That(t, cfg.Boards[1].Messages[0].BufferOffset, test.ShouldEqual, 64+128)
	test.That(t, cfg.TotalBits(), test.ShouldEqual, 64+128+64)
	test.That(t, cfg.TotalBytes(), test.ShouldEqual, 32)
}

func TestTrailingTokensSkipped(t *testing.T) {
	cfg, err := Compile(`
> B
>> M 0x1 1 extra words here
>>> s uint8 0 8 1 0 unsigned little trailing 12 0x3
`)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.Boards[0].Messages[0].Signals[0].Name, test.ShouldEqual, "s")
}

func TestBuildErrors(t *testing.T) {
	for _, tc := range []struct {
		name   string
		schema string
		reason string
		line   int
	}{
		{
			name:   "no board",
			schema: "!! a 1\n",
			reason: "no board defined",
			line:   2,
		},
		{
			name:   "empty",
			schema: "",
			reason: "no board defined",
			line:   1,
		},
		{
			name:   "board without messages",
			schema: "> B\n> C\n>> M 1 1\n>>> s uint8 0 8 1 0\n",
			reason: "has no messages",
			line:   1,
		},
		{
			name:   "message without signals",
			schema: "> B\n>> M 1 1\n>> N 2 1\n>>> s uint8 0 8 1 0\n",
			reason: "has no signals",
			line:   2,
		},
		{
			name:   "duplicate board",
			schema: "> B\n>> M 1 1\n>>> s uint8 0 8 1 0\n> B\n>> N 2 1\n>>> s uint8 0 8 1 0\n",
			reason: "duplicate board name",
			line:   4,
		},
		{
			name:   "duplicate message id across boards",
			schema: "> B\n>> M 0x10 1\n>>> s uint8 0 8 1 0\n> C\n>> N 16 1\n>>> s uint8 0 8 1 0\n",
			reason: "duplicate message id 0x10",
			line:   5,
		},
		{
			name:   "message id too large",
			schema: "> B\n>> M 0x800 1\n>>> s uint8 0 8 1 0\n",
			reason: "outside",
			line:   2,
		},
		{
			name:   "duplicate signal",
			schema: "> B\n>> M 1 2\n>>> s uint8 0 8 1 0\n>>> s uint8 8 8 1 0\n",
			reason: "duplicate signal name",
			line:   4,
		},
		{
			name:   "signal past end of message",
			schema: "> B\n>> M 1 2\n>>> s uint16 4 13 1 0\n",
			reason: "exceed message size of 16 bits",
			line:   3,
		},
		{
			name:   "zero length signal",
			schema: "> B\n>> M 1 2\n>>> s uint8 0 0 1 0\n",
			reason: "between 1 and 64 bits",
			line:   3,
		},
		{
			name:   "odd big endian",
			schema: "> B\n>> M 1 2\n>>> s uint16 0 12 1 0 big\n",
			reason: "whole number of bytes",
			line:   3,
		},
		{
			name:   "duplicate enum value",
			schema: "> B\n>> M 1 1\n>>> s uint8 0 8 1 0\n>>>> A 1\n>>>> B 0x1\n",
			reason: "reuses raw value 1",
			line:   5,
		},
		{
			name:   "name where number expected",
			schema: "> B\n>> M one 1\n>>> s uint8 0 8 1 0\n",
			reason: "expected message id",
			line:   2,
		},
		{
			name:   "truncated signal",
			schema: "> B\n>> M 1 1\n>>> s uint8 0 8",
			reason: "got end of input",
			line:   3,
		},
		{
			name:   "trailing declaration",
			schema: "> B\n>> M 1 1\n>>> s uint8 0 8 1 0\n!! late 1\n",
			reason: "after last board",
			line:   4,
		},
		{
			name:   "signal before message",
			schema: "> B\n>>> s uint8 0 8 1 0\n",
			reason: "has no messages",
			line:   1,
		},
		{
			name:   "oversized literal",
			schema: "> B\n>> M 99999999999999999999 1\n",
			reason: "does not fit in 64 bits",
			line:   2,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Compile(tc.schema)
			test.That(t, err, test.ShouldNotBeNil)

			var schemaErr *SchemaValidationError
			test.That(t, errors.As(err, &schemaErr), test.ShouldBeTrue)
			test.That(t, schemaErr.Reason, test.ShouldContainSubstring, tc.reason)
			test.That(t, schemaErr.Line, test.ShouldEqual, tc.line)
		})
	}
}

func TestValidationErrorContext(t *testing.T) {
	_, err := Compile("> PDM\n>> STATUS 1 1\n>>> amps uint16 0 16 1 0\n")
	var schemaErr *SchemaValidationError
	test.That(t, errors.As(err, &schemaErr), test.ShouldBeTrue)
	test.That(t, schemaErr.Board, test.ShouldEqual, "PDM")
	test.That(t, schemaErr.Message, test.ShouldEqual, "STATUS")
	test.That(t, schemaErr.Signal, test.ShouldEqual, "amps")
	test.That(t, err.Error(), test.ShouldStartWith, "invalid telemetry schema (line 3, PDM.STATUS.amps)")
}

func TestUniqueSchemasBuild(t *testing.T) {
	var sb strings.Builder
	id := 0
	for board := 0; board < 20; board++ {
		fmt.Fprintf(&sb, "> BOARD_%d\n", board)
		for msg := 0; msg < 5; msg++ {
			fmt.Fprintf(&sb, ">> MSG_%d 0x%X 8\n", msg, id)
			id++
			for sig := 0; sig < 8; sig++ {
				fmt.Fprintf(&sb, ">>> sig_%d uint8 %d 8 1 0\n", sig, sig*8)
			}
		}
	}
	cfg, err := Compile(sb.String())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.Keys(), test.ShouldHaveLength, 20*5*8)
	test.That(t, cfg.TotalBits(), test.ShouldEqual, 20*5*64)
}
