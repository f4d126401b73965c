package j1939

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSignal_8bitBoundaries(t *testing.T) {
	var testCases = []struct {
		name   string
		given  uint32
		expect SignalState
	}{
		{name: "ok, 0x00 is valid", given: 0x00, expect: StateValid},
		{name: "ok, 0xFA is valid", given: 0xFA, expect: StateValid},
		{name: "ok, 0xFB is specific", given: 0xFB, expect: StateSpecific},
		{name: "ok, 0xFC is reserved as specific", given: 0xFC, expect: StateSpecific},
		{name: "ok, 0xFD is reserved as specific", given: 0xFD, expect: StateSpecific},
		{name: "ok, 0xFE is error", given: 0xFE, expect: StateError},
		{name: "ok, 0xFF is not available", given: 0xFF, expect: StateNotAvailable},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s, err := NewSignal(Width8, tc.given)

			assert.NoError(t, err)
			assert.Equal(t, tc.expect, s.State())
			assert.Equal(t, tc.expect == StateValid, s.IsValid())
			assert.Equal(t, tc.expect == StateSpecific, s.IsSpecific())
			assert.Equal(t, tc.expect == StateError, s.IsError())
			assert.Equal(t, tc.expect == StateNotAvailable, s.IsNotAvailable())
		})
	}
}

func TestSignal_boundaries(t *testing.T) {
	var testCases = []struct {
		name              string
		width             SignalWidth
		lastValid         uint32
		firstSpecific     uint32
		firstError        uint32
		firstNotAvailable uint32
	}{
		{name: "4 bits", width: Width4, lastValid: 0xA, firstSpecific: 0xB, firstError: 0xE, firstNotAvailable: 0xF},
		{name: "10 bits", width: Width10, lastValid: 0x3FA, firstSpecific: 0x3FB, firstError: 0x3FE, firstNotAvailable: 0x3FF},
		{name: "12 bits", width: Width12, lastValid: 0xFAF, firstSpecific: 0xFB0, firstError: 0xFE0, firstNotAvailable: 0xFF0},
		{name: "16 bits", width: Width16, lastValid: 0xFAFF, firstSpecific: 0xFB00, firstError: 0xFE00, firstNotAvailable: 0xFF00},
		{name: "20 bits", width: Width20, lastValid: 0xFAFFF, firstSpecific: 0xFB000, firstError: 0xFE000, firstNotAvailable: 0xFF000},
		{name: "24 bits", width: Width24, lastValid: 0xFAFFFF, firstSpecific: 0xFB0000, firstError: 0xFE0000, firstNotAvailable: 0xFF0000},
		{name: "28 bits", width: Width28, lastValid: 0xFAFFFFF, firstSpecific: 0xFB00000, firstError: 0xFE00000, firstNotAvailable: 0xFF00000},
		{name: "32 bits", width: Width32, lastValid: 0xFAFFFFFF, firstSpecific: 0xFB000000, firstError: 0xFE000000, firstNotAvailable: 0xFF000000},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assertState(t, tc.width, 0, StateValid)
			assertState(t, tc.width, tc.lastValid, StateValid)
			assertState(t, tc.width, tc.firstSpecific, StateSpecific)
			assertState(t, tc.width, tc.firstError-1, StateSpecific)
			assertState(t, tc.width, tc.firstError, StateError)
			assertState(t, tc.width, tc.firstNotAvailable-1, StateError)
			assertState(t, tc.width, tc.firstNotAvailable, StateNotAvailable)
			assertState(t, tc.width, tc.width.Max(), StateNotAvailable)
		})
	}
}

func assertState(t *testing.T, width SignalWidth, value uint32, expect SignalState) {
	t.Helper()
	state, err := width.Classify(value)
	assert.NoError(t, err)
	assert.Equal(t, expect, state, "width: %v, value: %#x", width, value)
}

func TestSignalTable_contiguous(t *testing.T) {
	for _, w := range SignalWidths {
		r, ok := w.Ranges()
		if !assert.True(t, ok, "width %v", w) {
			continue
		}
		assert.Equal(t, uint32(0), r.Valid.Min, "width %v", w)
		assert.Equal(t, r.Valid.Max+1, r.Specific.Min, "width %v", w)
		assert.Equal(t, r.Specific.Max+1, r.Reserved.Min, "width %v", w)
		assert.Equal(t, r.Reserved.Max+1, r.Error.Min, "width %v", w)
		assert.Equal(t, r.Error.Max+1, r.NotAvailable.Min, "width %v", w)
		assert.Equal(t, w.Max(), r.NotAvailable.Max, "width %v", w)
	}
	assert.Len(t, signalTable, len(SignalWidths))
}

func TestSignal_exclusivity(t *testing.T) {
	for _, w := range SignalWidths {
		r, _ := w.Ranges()

		values := make([]uint32, 0, 70000)
		if w <= Width16 {
			for v := uint32(0); v <= w.Max(); v++ {
				values = append(values, v)
			}
		} else {
			for _, rng := range []Range{r.Valid, r.Specific, r.Reserved, r.Error, r.NotAvailable} {
				values = append(values, rng.Min, rng.Min+1, rng.Max-1, rng.Max)
			}
			step := w.Max() / 10007
			for v := uint64(0); v <= uint64(w.Max()); v += uint64(step) {
				values = append(values, uint32(v))
			}
		}

		for _, v := range values {
			s, err := NewSignal(w, v)
			if !assert.NoError(t, err) {
				return
			}
			count := 0
			for _, isTrue := range []bool{s.IsValid(), s.IsSpecific(), s.IsError(), s.IsNotAvailable()} {
				if isTrue {
					count++
				}
			}
			if count != 1 {
				t.Fatalf("width %v value %#x matches %v ranges", w, v, count)
			}
		}
	}
}

func TestNewSignal_errors(t *testing.T) {
	_, err := NewSignal(SignalWidth(7), 1)
	assert.True(t, errors.Is(err, ErrUnsupportedWidth))

	_, err = NewSignal(Width8, 0x100)
	assert.EqualError(t, err, "256 does not fit into 8 bits of field `signal`")
	assert.True(t, errors.Is(err, ErrOutOfRange))

	_, err = NewSignal(Width4, 0x10)
	assert.True(t, errors.Is(err, ErrOutOfRange))
}

func TestSignal_IsReserved(t *testing.T) {
	s, err := NewSignal(Width16, 0xFC10)
	assert.NoError(t, err)
	assert.True(t, s.IsReserved())
	assert.True(t, s.IsSpecific())

	s, err = NewSignal(Width16, 0xFB10)
	assert.NoError(t, err)
	assert.False(t, s.IsReserved())
	assert.True(t, s.IsSpecific())

	assert.Equal(t, Width16, s.Width())
	assert.Equal(t, uint32(0xFB10), s.Value())
}

func TestSignalWidth_Max(t *testing.T) {
	assert.Equal(t, uint32(0xF), Width4.Max())
	assert.Equal(t, uint32(0xFF), Width8.Max())
	assert.Equal(t, uint32(0x3FF), Width10.Max())
	assert.Equal(t, uint32(0xFFFFFFF), Width28.Max())
	assert.Equal(t, uint32(0xFFFFFFFF), Width32.Max())
}

func TestParseParameter(t *testing.T) {
	var testCases = []struct {
		name        string
		given       uint8
		expect      Parameter
		expectError string
	}{
		{name: "ok, disabled", given: 0, expect: ParameterDisabled},
		{name: "ok, enabled", given: 1, expect: ParameterEnabled},
		{name: "ok, error", given: 2, expect: ParameterIsError},
		{name: "ok, not available", given: 3, expect: ParameterNotAvailable},
		{name: "nok, 4", given: 4, expect: DefaultParameter, expectError: "unrecognized parameter code: 4"},
		{name: "nok, 99", given: 99, expect: DefaultParameter, expectError: "unrecognized parameter code: 99"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result, err := ParseParameter(tc.given)

			assert.Equal(t, tc.expect, result)
			if tc.expectError != "" {
				assert.EqualError(t, err, tc.expectError)
				assert.True(t, errors.Is(err, ErrUnrecognizedCode))
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tc.given, result.Uint8())
			}
		})
	}
}

func TestParseCommand(t *testing.T) {
	var testCases = []struct {
		name        string
		given       uint8
		expect      Command
		expectError string
	}{
		{name: "ok, disable", given: 0, expect: CommandDisable},
		{name: "ok, enable", given: 1, expect: CommandEnable},
		{name: "nok, 2 is reserved", given: 2, expect: DefaultCommand, expectError: "unrecognized command code: 2"},
		{name: "ok, no action", given: 3, expect: CommandNoAction},
		{name: "nok, 99", given: 99, expect: DefaultCommand, expectError: "unrecognized command code: 99"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result, err := ParseCommand(tc.given)

			assert.Equal(t, tc.expect, result)
			if tc.expectError != "" {
				assert.EqualError(t, err, tc.expectError)
				assert.True(t, errors.Is(err, ErrUnrecognizedCode))
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tc.given, result.Uint8())
			}
		})
	}
}

func TestDefaults(t *testing.T) {
	assert.Equal(t, ParameterNotAvailable, DefaultParameter)
	assert.Equal(t, CommandNoAction, DefaultCommand)
	assert.Equal(t, "not available", DefaultParameter.String())
	assert.Equal(t, "no action", DefaultCommand.String())
}
