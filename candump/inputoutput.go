package candump

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aldas/go-j1939"
	"go.einride.tech/can"
)

// MarshalFrame encodes frame as candump log line `(1665488842.000000) can0 18EEFF10#99AD222200A064C0`.
func MarshalFrame(f j1939.Frame, ifName string) ([]byte, error) {
	if f.ID == nil {
		return nil, errors.New("candump output frame has no identifier")
	}
	if ifName == "" {
		ifName = "can0"
	}
	buf := new(bytes.Buffer)
	if _, err := fmt.Fprintf(buf, "(%d.%06d) ", f.Time.Unix(), f.Time.Nanosecond()/1000); err != nil {
		return nil, fmt.Errorf("candump output failure, err: %w", err)
	}
	buf.WriteString(ifName)
	buf.WriteByte(' ')
	buf.WriteString(f.CAN().String())
	return buf.Bytes(), nil
}

// Line is single parsed candump log line.
type Line struct {
	// Time is zero when line has no timestamp (`candump` without `-l`/`-L` flags)
	Time      time.Time
	Interface string
	Frame     can.Frame
}

// UnmarshalString parses candump log line. Supported forms are
//
//	(1665488842.000000) can0 18EEFF10#99AD222200A064C0
//	18EEFF10#99AD222200A064C0
func UnmarshalString(raw string) (Line, error) {
	parts := strings.Fields(raw)
	var result Line
	switch len(parts) {
	case 1:
	case 3:
		t, err := parseTimestamp(parts[0])
		if err != nil {
			return Line{}, err
		}
		result.Time = t
		result.Interface = parts[1]
	default:
		return Line{}, errors.New("candump input has unexpected number of components")
	}

	if err := result.Frame.UnmarshalString(parts[len(parts)-1]); err != nil {
		return Line{}, fmt.Errorf("candump input invalid frame, err: %w", err)
	}
	return result, nil
}

func parseTimestamp(raw string) (time.Time, error) {
	if len(raw) < 3 || raw[0] != '(' || raw[len(raw)-1] != ')' {
		return time.Time{}, errors.New("candump input timestamp must be in parentheses")
	}
	secStr, fracStr, _ := strings.Cut(raw[1:len(raw)-1], ".")
	sec, err := strconv.ParseInt(secStr, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("candump input invalid timestamp seconds, err: %w", err)
	}
	nsec := int64(0)
	if fracStr != "" {
		if len(fracStr) > 9 {
			return time.Time{}, errors.New("candump input timestamp fraction is longer than nanoseconds")
		}
		frac, err := strconv.ParseUint(fracStr, 10, 32)
		if err != nil {
			return time.Time{}, fmt.Errorf("candump input invalid timestamp fraction, err: %w", err)
		}
		nsec = int64(frac)
		for i := len(fracStr); i < 9; i++ {
			nsec *= 10
		}
	}
	return time.Unix(sec, nsec).In(time.UTC), nil
}
