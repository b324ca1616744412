/*
Package telem compiles the line-oriented telemetry schema written into data-acquisition logs and
decodes snapshot buffers with it.

A schema lists boards, the CAN messages each board sends and the signals packed into each
message:

	!! version 3
	> BMS battery management
	>> BMS_SOE 0x150 8
	>>> max_discharge uint16 0 16 0.1 0 unsigned little
	>>> state uint8 16 4 1 0
	>>>> IDLE 0
	>>>> DRIVE 1

Compiling assigns every message a slot in the snapshot buffer in declaration order. A slot is
max(64, 8*size) bits wide. A signal is read from bit BufferOffset+StartBit of the buffer and
converted with raw*Factor + Offset.
*/
package telem
