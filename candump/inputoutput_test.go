package candump

import (
	"testing"
	"time"

	"github.com/aldas/go-j1939"
	test_test "github.com/aldas/go-j1939/test"
	"github.com/stretchr/testify/assert"
	"go.einride.tech/can"
)

func TestMarshalFrame(t *testing.T) {
	now := test_test.UTCTime(1665488842) // Tue Oct 11 2022 11:47:22 GMT+0000

	var testCases = []struct {
		name        string
		when        j1939.Frame
		whenIfName  string
		expect      string
		expectError string
	}{
		{
			name:       "ok, address claimed",
			when:       test_test.ExtendedFrame(now, 0x18EEFF10, 0x99, 0xad, 0x22, 0x22, 0x00, 0xa0, 0x64, 0xc0),
			whenIfName: "can0",
			expect:     "(1665488842.000000) can0 18EEFF10#99AD222200A064C0",
		},
		{
			name:       "ok, microseconds and default interface",
			when:       test_test.ExtendedFrame(now.Add(250123*time.Microsecond), 0x0CF00400, 0xF0, 0x7D),
			whenIfName: "",
			expect:     "(1665488842.250123) can0 0CF00400#F07D",
		},
		{
			name: "ok, standard identifier",
			when: j1939.Frame{
				Time:   now,
				ID:     j1939.StandardID(0x755),
				Length: 2,
				Data:   [8]byte{0x01, 0x02},
			},
			whenIfName: "vcan0",
			expect:     "(1665488842.000000) vcan0 755#0102",
		},
		{
			name:        "nok, missing identifier",
			when:        j1939.Frame{Time: now},
			expectError: "candump output frame has no identifier",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result, err := MarshalFrame(tc.when, tc.whenIfName)

			assert.Equal(t, tc.expect, string(result))
			if tc.expectError != "" {
				assert.EqualError(t, err, tc.expectError)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestUnmarshalString(t *testing.T) {
	var testCases = []struct {
		name        string
		when        string
		expect      Line
		expectError string
	}{
		{
			name: "ok",
			when: "(1665488842.000000) can0 18EEFF10#99AD222200A064C0",
			expect: Line{
				Time:      test_test.UTCTime(1665488842), // Tue Oct 11 2022 11:47:22 GMT+0000
				Interface: "can0",
				Frame: can.Frame{
					ID:         0x18EEFF10,
					IsExtended: true,
					Length:     8,
					Data:       can.Data{0x99, 0xad, 0x22, 0x22, 0x00, 0xa0, 0x64, 0xc0},
				},
			},
		},
		{
			name: "ok, microseconds",
			when: "(1665488842.250123) can1 0CF00400#F07D",
			expect: Line{
				Time:      time.Unix(1665488842, 250123000).In(time.UTC),
				Interface: "can1",
				Frame: can.Frame{
					ID:         0x0CF00400,
					IsExtended: true,
					Length:     2,
					Data:       can.Data{0xF0, 0x7D},
				},
			},
		},
		{
			name: "ok, without timestamp",
			when: "755#0102",
			expect: Line{
				Frame: can.Frame{
					ID:     0x755,
					Length: 2,
					Data:   can.Data{0x01, 0x02},
				},
			},
		},
		{
			name:        "nok, too many parts",
			when:        "(1665488842.000000) can0 18EEFF10#99 extra",
			expectError: "candump input has unexpected number of components",
		},
		{
			name:        "nok, timestamp without parentheses",
			when:        "1665488842.000000 can0 18EEFF10#99",
			expectError: "candump input timestamp must be in parentheses",
		},
		{
			name:        "nok, invalid seconds",
			when:        "(16654x.000000) can0 18EEFF10#99",
			expectError: "candump input invalid timestamp seconds, err: strconv.ParseInt: parsing \"16654x\": invalid syntax",
		},
		{
			name:        "nok, invalid fraction",
			when:        "(1665488842.00x) can0 18EEFF10#99",
			expectError: "candump input invalid timestamp fraction, err: strconv.ParseUint: parsing \"00x\": invalid syntax",
		},
		{
			name:        "nok, too long fraction",
			when:        "(1665488842.0000000001) can0 18EEFF10#99",
			expectError: "candump input timestamp fraction is longer than nanoseconds",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result, err := UnmarshalString(tc.when)

			assert.Equal(t, tc.expect, result)
			if tc.expectError != "" {
				assert.EqualError(t, err, tc.expectError)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestUnmarshalString_invalidFrame(t *testing.T) {
	result, err := UnmarshalString("(1665488842.000000) can0 18EEFF10#9X")

	assert.Equal(t, Line{}, result)
	assert.ErrorContains(t, err, "candump input invalid frame, err: ")
}

func TestMarshalFrame_roundTrip(t *testing.T) {
	frame := test_test.ExtendedFrame(test_test.UTCTime(1665488842), 0x18EAFFFE, 0x00, 0xEE, 0x00)

	b, err := MarshalFrame(frame, "can0")
	assert.NoError(t, err)

	line, err := UnmarshalString(string(b))
	assert.NoError(t, err)
	assert.Equal(t, "can0", line.Interface)
	assert.Equal(t, frame, j1939.FrameFromCAN(line.Frame, line.Time))
}
