package socketcan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.einride.tech/can"
)

func TestUnmarshalCANFrame(t *testing.T) {
	var testCases = []struct {
		name        string
		given       []byte
		expect      can.Frame
		expectError string
	}{
		{
			name: "ok, extended frame",
			given: []byte{
				0xA1, 0x1D, 0x00, 0x8F, // 0F001DA1 + EFF flag
				0x03, 0x00, 0x00, 0x00,
				0x01, 0x02, 0x03, 0x00, 0x00, 0x00, 0x00, 0x00,
			},
			expect: can.Frame{
				ID:         0x0F001DA1,
				IsExtended: true,
				Length:     3,
				Data:       can.Data{0x01, 0x02, 0x03},
			},
		},
		{
			name: "ok, standard frame",
			given: []byte{
				0x55, 0x07, 0x00, 0x00,
				0x08, 0x00, 0x00, 0x00,
				0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08,
			},
			expect: can.Frame{
				ID:     0x755,
				Length: 8,
				Data:   can.Data{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08},
			},
		},
		{
			name: "nok, remote transmission request",
			given: []byte{
				0x00, 0xEE, 0xFF, 0xD8,
				0x00, 0x00, 0x00, 0x00,
				0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
			},
			expectError: "read CAN remote transmission request frame",
		},
		{
			name: "nok, error message",
			given: []byte{
				0x04, 0x00, 0x00, 0x20,
				0x08, 0x00, 0x00, 0x00,
				0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
			},
			expectError: "read CAN error message frame",
		},
		{
			name: "nok, invalid length",
			given: []byte{
				0x55, 0x07, 0x00, 0x00,
				0x09, 0x00, 0x00, 0x00,
				0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
			},
			expectError: "CAN frame length 9 is over 8 bytes",
		},
		{
			name:        "nok, short buffer",
			given:       []byte{0x55, 0x07, 0x00, 0x00},
			expectError: "CAN frame must be 16 bytes, got: 4",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			frame, err := unmarshalCANFrame(tc.given)

			assert.Equal(t, tc.expect, frame)
			if tc.expectError != "" {
				assert.EqualError(t, err, tc.expectError)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestMarshalCANFrame(t *testing.T) {
	var testCases = []struct {
		name     string
		given    can.Frame
		expect   []byte
		expectID uint32
	}{
		{
			name: "ok, extended frame",
			given: can.Frame{
				ID:         0x18EAFFFE,
				IsExtended: true,
				Length:     3,
				Data:       can.Data{0x00, 0xEE, 0x00},
			},
			expect: []byte{
				0xFE, 0xFF, 0xEA, 0x98,
				0x03, 0x00, 0x00, 0x00,
				0x00, 0xEE, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
			},
			expectID: 0x18EAFFFE,
		},
		{
			name: "ok, standard frame is masked to 11 bits",
			given: can.Frame{
				ID:     0xF755,
				Length: 1,
				Data:   can.Data{0xAA},
			},
			expect: []byte{
				0x55, 0x07, 0x00, 0x00,
				0x01, 0x00, 0x00, 0x00,
				0xAA, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
			},
			expectID: 0x755,
		},
		{
			name: "ok, remote frame",
			given: can.Frame{
				ID:         0x18EAFFFE,
				IsExtended: true,
				IsRemote:   true,
			},
			expect: []byte{
				0xFE, 0xFF, 0xEA, 0xD8,
				0x00, 0x00, 0x00, 0x00,
				0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result := marshalCANFrame(tc.given)
			assert.Equal(t, tc.expect, result)

			if !tc.given.IsRemote {
				frame, err := unmarshalCANFrame(result)
				assert.NoError(t, err)
				assert.Equal(t, tc.expectID, frame.ID)
				assert.Equal(t, tc.given.IsExtended, frame.IsExtended)
				assert.Equal(t, tc.given.Data, frame.Data)
			}
		})
	}
}
