package j1939

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.einride.tech/can"
)

func TestFrameFromCAN(t *testing.T) {
	now := time.Date(2022, 10, 11, 12, 7, 22, 0, time.UTC)

	var testCases = []struct {
		name         string
		given        can.Frame
		expect       Frame
		expectHeader *Header
	}{
		{
			name: "ok, extended",
			given: can.Frame{
				ID:         0x18EEFF10,
				IsExtended: true,
				Length:     8,
				Data:       can.Data{0x0E, 0x99, 0xA2, 0x03, 0x19, 0x80, 0x08, 0xB2},
			},
			expect: Frame{
				Time:   now,
				ID:     ExtendedID(0x18EEFF10),
				Length: 8,
				Data:   [8]byte{0x0E, 0x99, 0xA2, 0x03, 0x19, 0x80, 0x08, 0xB2},
			},
			expectHeader: &Header{
				PGN:         PGNAddressClaimed,
				Priority:    6,
				Source:      0x10,
				Destination: AddressGlobal,
			},
		},
		{
			name: "ok, standard",
			given: can.Frame{
				ID:     0x755,
				Length: 2,
				Data:   can.Data{0x01, 0x02},
			},
			expect: Frame{
				Time:   now,
				ID:     StandardID(0x755),
				Length: 2,
				Data:   [8]byte{0x01, 0x02},
			},
		},
		{
			name: "ok, length is clamped",
			given: can.Frame{
				ID:         0x0CF00400,
				IsExtended: true,
				Length:     64,
			},
			expect: Frame{
				Time:   now,
				ID:     ExtendedID(0x0CF00400),
				Length: 8,
			},
			expectHeader: &Header{
				PGN:         61444,
				Priority:    3,
				Source:      0x00,
				Destination: AddressGlobal,
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			frame := FrameFromCAN(tc.given, now)
			assert.Equal(t, tc.expect, frame)

			id, ok := frame.ExtendedID()
			assert.Equal(t, tc.expectHeader != nil, ok)
			if tc.expectHeader != nil {
				assert.Equal(t, *tc.expectHeader, id.Header())
			}
		})
	}
}

func TestFrame_CAN(t *testing.T) {
	frame := Frame{
		ID:     ExtendedID(0x18EEFF10),
		Length: 3,
		Data:   [8]byte{0x01, 0x02, 0x03},
	}

	result := frame.CAN()

	assert.Equal(t, can.Frame{
		ID:         0x18EEFF10,
		IsExtended: true,
		Length:     3,
		Data:       can.Data{0x01, 0x02, 0x03},
	}, result)
	assert.Equal(t, frame, FrameFromCAN(result, time.Time{}))

	assert.Equal(t, can.Frame{}, Frame{}.CAN())
}

func TestFrame_Payload(t *testing.T) {
	frame := Frame{
		ID:     ExtendedID(0x18EEFF10),
		Length: 3,
		Data:   [8]byte{0x01, 0x02, 0x03, 0x04},
	}

	payload := frame.Payload()
	assert.Equal(t, RawData{0x01, 0x02, 0x03}, payload)

	payload[0] = 0xFF
	assert.Equal(t, uint8(0x01), frame.Data[0])
}

func TestMarshalFrame(t *testing.T) {
	frame := Frame{
		Time:   time.Unix(0, 0x0102030405060708),
		ID:     ExtendedID(0x18EEFF10),
		Length: 2,
		Data:   [8]byte{0xAA, 0xBB},
	}

	assert.Equal(t, []byte{
		0x08, 0x07, 0x06, 0x05, 0x04, 0x03, 0x02, 0x01, // time
		0x10, 0xFF, 0xEE, 0x98, // id with extended flag
		0x02,       // length
		0xAA, 0xBB, // data
	}, MarshalFrame(frame))

	frame.ID = StandardID(0x755)
	assert.Equal(t, []byte{0x55, 0x07, 0x00, 0x00}, MarshalFrame(frame)[8:12])
}

func TestFrame_lengthOverEightBytes(t *testing.T) {
	frame := Frame{
		ID:     ExtendedID(0x18EEFF10),
		Length: 9,
		Data:   [8]byte{1, 2, 3, 4, 5, 6, 7, 8},
	}

	assert.Equal(t, RawData{1, 2, 3, 4, 5, 6, 7, 8}, frame.Payload())
	assert.Equal(t, uint8(8), frame.CAN().Length)

	b := MarshalFrame(frame)
	assert.Len(t, b, 8+4+1+8)
	assert.Equal(t, uint8(8), b[12])
}
