package socketcan

import (
	"context"
	"errors"
	"time"

	"github.com/aldas/go-j1939"
	"go.einride.tech/can"
)

type connection interface {
	SetReadTimeout(timeout time.Duration) error
	SetSendTimeout(timeout time.Duration) error
	ReadFrame() (can.Frame, error)
	WriteFrame(frame can.Frame) error
	Close() error
}

// DeviceConfig is configuration for SocketCAN device.
type DeviceConfig struct {
	// InterfaceName is SocketCAN interface name. For example: can0
	InterfaceName string

	// ReceiveDataTimeout is to limit amount of time reads can result no data. to timeout the connection when there is
	// no interaction in bus. This is different from for example serial device readTimeout which limits how much time
	// Read call blocks but we want to Reads block small amount of time to be able to check if context was cancelled
	// during read but at the same time we want to be able to detect when there are no coming from bus for excessive
	// amount of time.
	ReceiveDataTimeout time.Duration

	// SkipErrorFrames instructs device to ignore RTR and error message frames instead of returning error
	SkipErrorFrames bool
}

// Device reads and writes J1939 frames over Linux SocketCAN interface.
type Device struct {
	conn   connection
	config DeviceConfig

	dial    func(ifName string) (connection, error)
	timeNow func() time.Time
}

func NewDevice(config DeviceConfig) *Device {
	if config.ReceiveDataTimeout == 0 {
		config.ReceiveDataTimeout = 5 * time.Second
	}
	return &Device{
		config: config,
		dial: func(ifName string) (connection, error) {
			return NewConnection(ifName)
		},
		timeNow: time.Now,
	}
}

func (d *Device) Close() error {
	if d.conn == nil {
		return nil
	}
	return d.conn.Close()
}

func (d *Device) Initialize() error {
	conn, err := d.dial(d.config.InterfaceName)
	if err != nil {
		return err
	}
	d.conn = conn
	return nil
}

// WriteFrame sends frame to bus. Write is limited by context deadline when context has one.
func (d *Device) WriteFrame(ctx context.Context, frame j1939.Frame) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	timeout := time.Duration(0) // 0 means block until written
	if deadline, ok := ctx.Deadline(); ok {
		timeout = deadline.Sub(d.timeNow())
		if timeout <= 0 {
			return context.DeadlineExceeded
		}
	}
	if err := d.conn.SetSendTimeout(timeout); err != nil {
		return err
	}
	return d.conn.WriteFrame(frame.CAN())
}

// ReadFrame reads next frame from bus. Returns errReadTimeout when nothing has been received for ReceiveDataTimeout.
func (d *Device) ReadFrame(ctx context.Context) (j1939.Frame, error) {
	start := d.timeNow()
	for {
		select {
		case <-ctx.Done():
			return j1939.Frame{}, ctx.Err()
		default:
		}

		if err := d.conn.SetReadTimeout(50 * time.Millisecond); err != nil { // max 50ms block time for read per iteration
			return j1939.Frame{}, err
		}
		frame, err := d.conn.ReadFrame()

		now := d.timeNow()
		if err != nil {
			if errors.Is(err, errReadTimeout) {
				if now.Sub(start) > d.config.ReceiveDataTimeout {
					return j1939.Frame{}, err
				}
				continue
			}
			if d.config.SkipErrorFrames && (errors.Is(err, ErrRemoteFrame) || errors.Is(err, ErrErrorFrame)) {
				continue
			}
			return j1939.Frame{}, err
		}
		return j1939.FrameFromCAN(frame, now), nil
	}
}
