package j1939

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
)

// RawData is message payload. Fields are addressed by bit offset and bit length, bits are counted LSB first starting
// from byte 0 (same way as NAME fields are laid out).
type RawData []byte

// DecodeBytes extracts bitLength bits starting at bitOffset into new byte slice. Result is shifted so that first
// extracted bit is bit 0 of byte 0.
func (d *RawData) DecodeBytes(bitOffset uint16, bitLength uint16) ([]byte, error) {
	if bitLength == 0 {
		return nil, errors.New("bit length must be greater than 0")
	}
	rawData := []byte(*d)
	endByteIndex := (uint32(bitOffset) + uint32(bitLength) - 1) / 8
	if int(endByteIndex) > len(rawData)-1 {
		return nil, errors.New("bitoffset is out of bounds of data")
	}

	length := (bitLength + 7) / 8
	result := make([]byte, length)

	startByteIndex := bitOffset / 8
	startBitIndex := bitOffset % 8
	if startBitIndex == 0 { // starts exactly at byte border
		copy(result, rawData[startByteIndex:endByteIndex+1])
	} else { // we need to shift bits to get rid of unneeded leading bits
		for i := uint16(0); i < length; i++ {
			idx := startByteIndex + i
			result[i] = rawData[idx] >> startBitIndex
			if uint32(idx)+1 <= endByteIndex {
				result[i] |= rawData[idx+1] << (8 - startBitIndex)
			}
		}
	}
	if unnecessaryBits := bitLength % 8; unnecessaryBits != 0 {
		result[len(result)-1] &= 0xFF >> (8 - unnecessaryBits)
	}
	return result, nil
}

// DecodeUint extracts unsigned value of bitLength (1-64) bits starting at bitOffset.
func (d *RawData) DecodeUint(bitOffset uint16, bitLength uint16) (uint64, error) {
	if bitLength == 0 || bitLength > 64 {
		return 0, fmt.Errorf("bit length %v can not be decoded", bitLength)
	}
	rawData := []byte(*d)
	startByteIndex := uint32(bitOffset) / 8
	endByteIndex := (uint32(bitOffset) + uint32(bitLength) + 7) / 8 // exclusive
	if int(endByteIndex) > len(rawData) {
		return 0, errors.New("bitoffset is out of bounds of data")
	}

	// value can span 9 bytes when 64 bits are read from non byte border
	var rawBytes [9]byte
	copy(rawBytes[:], rawData[startByteIndex:endByteIndex])

	shift := bitOffset % 8
	result := binary.LittleEndian.Uint64(rawBytes[:8]) >> shift
	if shift != 0 {
		result |= uint64(rawBytes[8]) << (64 - shift)
	}
	if bitLength < 64 {
		result &= (uint64(1) << bitLength) - 1
	}
	return result, nil
}

// EncodeUint writes value of bitLength (1-64) bits starting at bitOffset. Other bits are left as they are.
func (d *RawData) EncodeUint(bitOffset uint16, bitLength uint16, value uint64) error {
	if bitLength == 0 || bitLength > 64 {
		return fmt.Errorf("bit length %v can not be encoded", bitLength)
	}
	if bitLength < 64 && value > (uint64(1)<<bitLength)-1 {
		return &FieldRangeError{Field: "payload", Value: value, Bits: uint8(bitLength)}
	}
	rawData := []byte(*d)
	if (uint32(bitOffset)+uint32(bitLength)+7)/8 > uint32(len(rawData)) {
		return errors.New("bitoffset is out of bounds of data")
	}
	for i := uint16(0); i < bitLength; i++ {
		pos := bitOffset + i
		mask := uint8(1) << (pos % 8)
		if (value>>i)&1 == 1 {
			rawData[pos/8] |= mask
		} else {
			rawData[pos/8] &^= mask
		}
	}
	return nil
}

// DecodeSignal extracts raw signal value of given width.
func (d *RawData) DecodeSignal(bitOffset uint16, width SignalWidth) (Signal, error) {
	if _, ok := width.Ranges(); !ok {
		return Signal{}, ErrUnsupportedWidth
	}
	raw, err := d.DecodeUint(bitOffset, uint16(width))
	if err != nil {
		return Signal{}, err
	}
	return NewSignal(width, uint32(raw))
}

// DecodeValue extracts raw signal value of given width and returns it only when it is ordinary engineering data.
// Indicator values result ErrValueNotAvailable, ErrValueError or ErrValueSpecific.
func (d *RawData) DecodeValue(bitOffset uint16, width SignalWidth) (uint32, error) {
	s, err := d.DecodeSignal(bitOffset, width)
	if err != nil {
		return 0, err
	}
	switch s.State() {
	case StateNotAvailable:
		return 0, ErrValueNotAvailable
	case StateError:
		return 0, ErrValueError
	case StateSpecific:
		return 0, ErrValueSpecific
	}
	return s.Value(), nil
}

// DecodeParameter extracts 2 bit discrete parameter.
func (d *RawData) DecodeParameter(bitOffset uint16) (Parameter, error) {
	raw, err := d.DecodeUint(bitOffset, 2)
	if err != nil {
		return DefaultParameter, err
	}
	return ParseParameter(uint8(raw))
}

// DecodeCommand extracts 2 bit control command.
func (d *RawData) DecodeCommand(bitOffset uint16) (Command, error) {
	raw, err := d.DecodeUint(bitOffset, 2)
	if err != nil {
		return DefaultCommand, err
	}
	return ParseCommand(uint8(raw))
}

// DecodeSlot extracts raw value of slot width and converts it to physical value.
func (d *RawData) DecodeSlot(bitOffset uint16, definition SlotDefinition) (Slot, error) {
	raw, err := d.DecodeValue(bitOffset, definition.Bits())
	if err != nil {
		return Slot{}, err
	}
	return definition.FromRaw(raw)
}

// EncodeSlot writes slot raw value with slot width.
func (d *RawData) EncodeSlot(bitOffset uint16, slot Slot) error {
	return d.EncodeUint(bitOffset, uint16(slot.Definition().Bits()), uint64(slot.Raw()))
}

// DecodeName extracts 64 bit NAME (for example from address claimed PGN 60928 payload).
func (d *RawData) DecodeName(bitOffset uint16) (Name, error) {
	raw, err := d.DecodeUint(bitOffset, 64)
	if err != nil {
		return 0, err
	}
	return Name(raw), nil
}

func (d *RawData) AsHex() string {
	if d == nil {
		return ""
	}
	return hex.EncodeToString(*d)
}
