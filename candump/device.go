package candump

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aldas/go-j1939"
)

// Device reads frames from candump log. Reader can be file, stdin or serial port.
type Device struct {
	reader  io.Reader
	scanner *bufio.Scanner

	// interfaceName filters lines by interface name. Empty value accepts all interfaces.
	interfaceName string

	timeNow func() time.Time
}

func NewDevice(reader io.Reader, interfaceName string) *Device {
	return &Device{
		reader:        reader,
		scanner:       bufio.NewScanner(reader),
		interfaceName: interfaceName,
		timeNow:       time.Now,
	}
}

func (d *Device) Initialize() error {
	return nil // do nothing
}

// ReadFrame reads next frame from log. Empty lines and lines starting with `#` are skipped. Lines without timestamp
// get current time. Returns io.EOF when log ends.
func (d *Device) ReadFrame(ctx context.Context) (j1939.Frame, error) {
	for d.scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return j1939.Frame{}, err
		}
		line := strings.TrimSpace(d.scanner.Text())
		if line == "" || line[0] == '#' {
			continue
		}
		l, err := UnmarshalString(line)
		if err != nil {
			return j1939.Frame{}, fmt.Errorf("candump line `%v`: %w", escapeWhitespace(line), err)
		}
		if d.interfaceName != "" && l.Interface != "" && l.Interface != d.interfaceName {
			continue
		}
		t := l.Time
		if t.IsZero() {
			t = d.timeNow()
		}
		return j1939.FrameFromCAN(l.Frame, t), nil
	}
	if err := d.scanner.Err(); err != nil {
		return j1939.Frame{}, err
	}
	return j1939.Frame{}, io.EOF
}

func (d *Device) Close() error {
	closer, ok := d.reader.(io.Closer)
	if ok {
		return closer.Close()
	}
	return nil
}

// Writer writes frames as candump log lines.
type Writer struct {
	writer        io.Writer
	interfaceName string
}

func NewWriter(writer io.Writer, interfaceName string) *Writer {
	return &Writer{writer: writer, interfaceName: interfaceName}
}

func (w *Writer) WriteFrame(ctx context.Context, frame j1939.Frame) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b, err := MarshalFrame(frame, w.interfaceName)
	if err != nil {
		return err
	}
	b = append(b, '\n')
	_, err = w.writer.Write(b)
	return err
}

func (w *Writer) Close() error {
	closer, ok := w.writer.(io.Closer)
	if ok {
		return closer.Close()
	}
	return nil
}

var whitespaceEscaper = strings.NewReplacer("\t", `\t`, "\r", `\r`, "\v", `\v`, "\f", `\f`)

// escapeWhitespace makes control whitespace visible in error messages. Scanner has already removed line endings.
func escapeWhitespace(line string) string {
	return whitespaceEscaper.Replace(line)
}
