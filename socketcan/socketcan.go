package socketcan

import (
	"encoding/binary"
	"errors"
	"fmt"
	"net"
	"syscall"
	"time"

	"go.einride.tech/can"
	"golang.org/x/sys/unix"
)

const (
	canRaw = 1

	// canFrameLength is size of `struct can_frame` read from and written to raw CAN socket
	canFrameLength = 16

	// canIDFlagsMask is bitmask to get 29-31 bits belonging to flags from socketCAN struct
	canIDFlagsMask = uint32(0b111) << 29
	// canIDERRFlag is bit 29 in CAN ID and means ERR error message flag (0 = data frame, 1 = error message)
	canIDERRFlag = uint32(1 << 29)
	// canIDRTRFlag is bit 30 in CAN ID and means RTR remote transmission request (1 = rtr frame)
	canIDRTRFlag = uint32(1 << 30)
	// canIDEFFFlag is bit 31 in CAN ID and means EFF extended frame format / IDE identifier extension flag (0 = standard 11 bit, 1 = extended 29 bit)
	canIDEFFFlag = uint32(1 << 31)

	standardIDMask = uint32(0x7FF)
	extendedIDMask = uint32(0x1FFFFFFF)
)

var (
	// ErrRemoteFrame is returned when remote transmission request frame is read from socket
	ErrRemoteFrame = errors.New("read CAN remote transmission request frame")
	// ErrErrorFrame is returned when error message frame is read from socket
	ErrErrorFrame = errors.New("read CAN error message frame")

	errReadTimeout  = errors.New("read timeout")
	errWriteTimeout = errors.New("write timeout")
)

// Connection is raw CAN socket bound to single interface.
type Connection struct {
	socketFD int
}

func NewConnection(ifName string) (*Connection, error) {
	ifi, err := net.InterfaceByName(ifName)
	if err != nil {
		return nil, fmt.Errorf("bad ifName: %w", err)
	}

	fd, err := unix.Socket(unix.AF_CAN, unix.SOCK_RAW, canRaw)
	if err != nil {
		return nil, fmt.Errorf("could not create CAN socket: %w", err)
	}

	addr := &unix.SockaddrCAN{Ifindex: ifi.Index}
	if err = unix.Bind(fd, addr); err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("could not bind CAN socket: %w", err)
	}

	return &Connection{socketFD: fd}, nil
}

func isContinuableSocketErr(err error) bool {
	// EWOULDBLOCK - If you set a timeout on the socket with SO_RCVTIMEO or SO_SNDTIMEO - in this case, a receive or
	// send will return with EWOULDBLOCK if the timeout elapses while no input data becomes available or the output
	// buffer remains full

	// EINTR - If a signal occurs during a blocking operation, then the operation will either (a) return partial
	// completion, or (b) return failure, do nothing, and set errno to EINTR.

	return err == syscall.EWOULDBLOCK || err == syscall.EINTR
}

func (c *Connection) SetReadTimeout(timeout time.Duration) error {
	return c.setSocketTimeout(unix.SO_RCVTIMEO, timeout)
}

func (c *Connection) SetSendTimeout(timeout time.Duration) error {
	return c.setSocketTimeout(unix.SO_SNDTIMEO, timeout)
}

func (c *Connection) setSocketTimeout(opt int, timeout time.Duration) error {
	tv := unix.NsecToTimeval(timeout.Nanoseconds())
	return unix.SetsockoptTimeval(c.socketFD, unix.SOL_SOCKET, opt, &tv)
}

func (c *Connection) Close() error {
	return unix.Close(c.socketFD)
}

// WriteFrame sends single frame to bus.
func (c *Connection) WriteFrame(frame can.Frame) error {
	_, err := unix.Write(c.socketFD, marshalCANFrame(frame))
	if isContinuableSocketErr(err) {
		return errWriteTimeout
	}
	return err
}

// ReadFrame reads single frame from bus. Blocks until frame is received or read timeout is reached.
func (c *Connection) ReadFrame() (can.Frame, error) {
	buf := make([]byte, canFrameLength)
	_, err := unix.Read(c.socketFD, buf)
	if err != nil {
		if isContinuableSocketErr(err) {
			return can.Frame{}, errReadTimeout
		}
		return can.Frame{}, err
	}
	return unmarshalCANFrame(buf)
}

// marshalCANFrame encodes frame as `struct can_frame`
// https://github.com/linux-can/can-utils/blob/affdc1b79973c7497bb8607603c24734e11a91aa/include/linux/can.h#L107
func marshalCANFrame(frame can.Frame) []byte {
	buf := make([]byte, canFrameLength)

	// bits 0-28 is CAN ID
	// bit 29 is ERR error message flag (0 = data frame, 1 = error message)
	// bit 30 is RTR remote transmission request (1 = rtr frame)
	// bit 31 is EFF extended frame format / IDE identifier extension flag (0 = standard 11 bit, 1 = extended 29 bit)
	canID := frame.ID & standardIDMask
	if frame.IsExtended {
		canID = frame.ID&extendedIDMask | canIDEFFFlag
	}
	if frame.IsRemote {
		canID |= canIDRTRFlag
	}
	binary.LittleEndian.PutUint32(buf[0:4], canID) // FIXME: for big-endian arch (mips64, ppc64) we should use big-endian

	length := frame.Length
	if length > 8 {
		length = 8
	}
	buf[4] = length
	copy(buf[8:], frame.Data[:length])
	return buf
}

func unmarshalCANFrame(buf []byte) (can.Frame, error) {
	if len(buf) < canFrameLength {
		return can.Frame{}, fmt.Errorf("CAN frame must be %v bytes, got: %v", canFrameLength, len(buf))
	}
	canID := binary.LittleEndian.Uint32(buf[0:4])
	if canID&canIDRTRFlag != 0 {
		return can.Frame{}, ErrRemoteFrame
	} else if canID&canIDERRFlag != 0 {
		return can.Frame{}, ErrErrorFrame
	}

	f := can.Frame{
		ID:         canID &^ canIDFlagsMask,
		IsExtended: canID&canIDEFFFlag != 0,
		Length:     buf[4],
	}
	if !f.IsExtended {
		f.ID &= standardIDMask
	}
	if f.Length > 8 {
		return can.Frame{}, fmt.Errorf("CAN frame length %v is over 8 bytes", f.Length)
	}
	copy(f.Data[:], buf[8:8+f.Length])
	return f, nil
}
