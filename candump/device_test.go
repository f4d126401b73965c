package candump

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aldas/go-j1939"
	test_test "github.com/aldas/go-j1939/test"
	"github.com/stretchr/testify/assert"
)

func readAll(t *testing.T, d *Device) []j1939.Frame {
	result := make([]j1939.Frame, 0)
	for {
		f, err := d.ReadFrame(context.Background())
		if errors.Is(err, io.EOF) {
			return result
		}
		if !assert.NoError(t, err) {
			return result
		}
		result = append(result, f)
	}
}

func TestDevice_ReadFrame(t *testing.T) {
	now := test_test.UTCTime(1700000000)
	d := NewDevice(bytes.NewReader(test_test.LoadBytes(t, "address_claims.log")), "")
	d.timeNow = func() time.Time { return now }
	assert.NoError(t, d.Initialize())

	frames := readAll(t, d)

	assert.Equal(t, []j1939.Frame{
		test_test.ExtendedFrame(test_test.UTCTime(1665488842), 0x18EEFF10, 0x99, 0xAD, 0x22, 0x22, 0x00, 0xA0, 0x64, 0xC0),
		test_test.ExtendedFrame(time.Unix(1665488842, 250000000).In(time.UTC), 0x0CF00400, 0xF0, 0x7D, 0x7D, 0x40, 0x1F, 0xFF, 0xFF, 0xFF),
		test_test.ExtendedFrame(time.Unix(1665488842, 500000000).In(time.UTC), 0x18EEFF20, 0x0E, 0x99, 0xA2, 0x03, 0x19, 0x80, 0x08, 0xB2),
		{
			Time:   time.Unix(1665488843, 123000).In(time.UTC),
			ID:     j1939.StandardID(0x755),
			Length: 2,
			Data:   [8]byte{0x01, 0x02},
		},
	}, frames)
	assert.NoError(t, d.Close())
}

func TestDevice_ReadFrame_interfaceFilter(t *testing.T) {
	d := NewDevice(bytes.NewReader(test_test.LoadBytes(t, "address_claims.log")), "can1")

	frames := readAll(t, d)

	assert.Len(t, frames, 1)
	id, ok := frames[0].ExtendedID()
	assert.True(t, ok)
	assert.Equal(t, uint8(0x20), id.SourceAddress())
}

func TestDevice_ReadFrame_withoutTimestamp(t *testing.T) {
	now := test_test.UTCTime(1700000000)
	d := NewDevice(strings.NewReader("18EEFF10#99AD222200A064C0\n"), "can0")
	d.timeNow = func() time.Time { return now }

	frame, err := d.ReadFrame(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, now, frame.Time)
	assert.Equal(t, j1939.ExtendedID(0x18EEFF10), frame.ID)
}

func TestDevice_ReadFrame_invalidLine(t *testing.T) {
	d := NewDevice(strings.NewReader("x\ty\n"), "")

	_, err := d.ReadFrame(context.Background())

	assert.EqualError(t, err, "candump line `x\\ty`: candump input has unexpected number of components")
}

func TestDevice_ReadFrame_cancelledContext(t *testing.T) {
	d := NewDevice(bytes.NewReader(test_test.LoadBytes(t, "address_claims.log")), "")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := d.ReadFrame(ctx)

	assert.True(t, errors.Is(err, context.Canceled))
}

func TestWriter_WriteFrame(t *testing.T) {
	buf := new(bytes.Buffer)
	w := NewWriter(buf, "can0")

	frame := test_test.ExtendedFrame(test_test.UTCTime(1665488842), 0x18EEFF10, 0x99, 0xAD)
	assert.NoError(t, w.WriteFrame(context.Background(), frame))
	assert.NoError(t, w.WriteFrame(context.Background(), frame))
	assert.NoError(t, w.Close())

	assert.Equal(t, "(1665488842.000000) can0 18EEFF10#99AD\n(1665488842.000000) can0 18EEFF10#99AD\n", buf.String())
}
