package j1939

import (
	"context"
	"encoding/binary"
	"time"

	"go.einride.tech/can"
)

// Frame is single CAN frame as seen by J1939 layer.
type Frame struct {
	// Time is when frame was read from bus. Filled by this library.
	Time time.Time

	ID     Identifier
	Length uint8 // 0-8
	Data   [8]byte
}

// FrameFromCAN converts transport frame to J1939 frame.
func FrameFromCAN(f can.Frame, t time.Time) Frame {
	return Frame{
		Time:   t,
		ID:     NewIdentifier(f.ID, f.IsExtended),
		Length: clampLength(f.Length),
		Data:   f.Data,
	}
}

// clampLength limits data length to 8 bytes of classic CAN frame.
func clampLength(length uint8) uint8 {
	if length > 8 {
		return 8
	}
	return length
}

// CAN converts frame to transport frame.
func (f Frame) CAN() can.Frame {
	result := can.Frame{
		Length: clampLength(f.Length),
		Data:   f.Data,
	}
	if f.ID != nil {
		result.ID = f.ID.Raw()
		result.IsExtended = f.ID.IsExtended()
	}
	return result
}

// ExtendedID returns identifier as 29 bit identifier. Second value is false for standard frames.
func (f Frame) ExtendedID() (ExtendedID, bool) {
	id, ok := f.ID.(ExtendedID)
	return id, ok
}

// Payload returns copy of used data bytes. Length over 8 is treated as 8.
func (f Frame) Payload() RawData {
	length := clampLength(f.Length)
	data := make([]byte, length)
	copy(data, f.Data[:length])
	return data
}

// MarshalFrame encodes frame into binary form: time as unix nanoseconds (8 bytes), identifier (4 bytes, bit 31 set
// for extended identifiers), length (1 byte) and data.
func MarshalFrame(f Frame) []byte {
	length := clampLength(f.Length)
	b := make([]byte, 8+4+1+int(length))

	binary.LittleEndian.PutUint64(b, uint64(f.Time.UnixNano())) // 0 - 7
	canID := uint32(0)
	if f.ID != nil {
		canID = f.ID.Raw()
		if f.ID.IsExtended() {
			canID |= 1 << 31
		}
	}
	binary.LittleEndian.PutUint32(b[8:], canID) // 8 - 11
	b[12] = length                              // 12
	copy(b[13:], f.Data[:length])               // 13 - ...

	return b
}

// FrameReader reads frames from bus or log.
type FrameReader interface {
	ReadFrame(ctx context.Context) (Frame, error)
	Initialize() error
	Close() error
}

// FrameWriter writes frames to bus or log.
type FrameWriter interface {
	WriteFrame(ctx context.Context, frame Frame) error
	Close() error
}

type FrameReaderWriter interface {
	FrameReader
	FrameWriter
}
