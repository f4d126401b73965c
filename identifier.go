package j1939

import "fmt"

const (
	// StandardIDMask covers 11 bits of standard (CAN 2.0A) identifier
	StandardIDMask = uint32(0x7FF)
	// ExtendedIDMask covers 29 bits of extended (CAN 2.0B) identifier
	ExtendedIDMask = uint32(0x1FFF_FFFF)

	// pduFormatPDU2Start is first PDU format value that denotes broadcast (PDU2) message. Values 0-239 are PDU1.
	pduFormatPDU2Start = 240
)

// Identifier is J1939 view of CAN frame identifier. Implemented by StandardID and ExtendedID.
//
// Identifier does not validate that raw value fits into its variant width. Caller (transport layer) is responsible for
// that. Bits above variant width are ignored by all accessors.
type Identifier interface {
	// Raw returns identifier value masked to its variant width (11 or 29 bits)
	Raw() uint32
	// IsExtended is true for 29 bit identifiers
	IsExtended() bool
	// Priority is message priority (3 bits). 0 is highest priority.
	Priority() uint8
	// SourceAddress is address of the node that sent the message.
	SourceAddress() uint8
}

// NewIdentifier tags raw CAN identifier with its variant.
func NewIdentifier(raw uint32, extended bool) Identifier {
	if extended {
		return ExtendedID(raw)
	}
	return StandardID(raw)
}

// StandardID is 11 bit CAN identifier.
//
//	bits 10-8: priority
//	bits  7-0: source address
type StandardID uint16

func (id StandardID) Raw() uint32 {
	return uint32(id) & StandardIDMask
}

func (id StandardID) IsExtended() bool {
	return false
}

func (id StandardID) Priority() uint8 {
	return uint8((id >> 8) & 0b111) // bit 8,9,10
}

func (id StandardID) SourceAddress() uint8 {
	return uint8(id) // bit 0-7
}

func (id StandardID) String() string {
	return fmt.Sprintf("%03X", id.Raw())
}

// ExtendedID is 29 bit CAN identifier.
//
//	bits 28-26: priority
//	bit     25: extended data page
//	bit     24: data page
//	bits 23-16: PDU format (PF)
//	bits  15-8: PDU specific (PS), destination address or group extension
//	bits   7-0: source address
type ExtendedID uint32

// NewExtendedID creates identifier from header fields. For PDU1 (peer-to-peer) PGNs lower byte of PGN is replaced with
// destination address. For PDU2 (broadcast) PGNs destination is ignored as lower byte of PGN is group extension.
func NewExtendedID(priority uint8, pgn uint32, source uint8, destination uint8) ExtendedID {
	canID := uint32(source)               // bits 0-7
	canID |= (pgn & 0x3FFFF) << 8         // bits 8-25
	canID |= uint32(priority&0b111) << 26 // bit 26,27,28

	if uint8(pgn>>8) < pduFormatPDU2Start {
		canID = canID&^0xFF00 | uint32(destination)<<8 // PDU1, bits 8-15 are destination
	}
	return ExtendedID(canID)
}

func (id ExtendedID) Raw() uint32 {
	return uint32(id) & ExtendedIDMask
}

func (id ExtendedID) IsExtended() bool {
	return true
}

func (id ExtendedID) Priority() uint8 {
	return uint8((id >> 26) & 0b111) // bit 26,27,28
}

func (id ExtendedID) SourceAddress() uint8 {
	return uint8(id) // bit 0-7
}

// PDUFormat returns PF field (bits 23-16).
func (id ExtendedID) PDUFormat() uint8 {
	return uint8(id >> 16)
}

// PDUSpecific returns PS field (bits 15-8). Meaning depends on PDU format, see DestinationAddress and GroupExtension.
func (id ExtendedID) PDUSpecific() uint8 {
	return uint8(id >> 8)
}

// DataPage returns DP bit (bit 24).
func (id ExtendedID) DataPage() bool {
	return (id>>24)&1 == 1
}

// ExtendedDataPage returns EDP bit (bit 25).
func (id ExtendedID) ExtendedDataPage() bool {
	return (id>>25)&1 == 1
}

// IsPDU1 is true for peer-to-peer messages (PDU format 0-239).
func (id ExtendedID) IsPDU1() bool {
	return id.PDUFormat() < pduFormatPDU2Start
}

// IsPDU2 is true for broadcast messages (PDU format 240-255).
func (id ExtendedID) IsPDU2() bool {
	return !id.IsPDU1()
}

// DestinationAddress returns PDU specific field as destination address for PDU1 messages. For PDU2 messages second
// return value is false.
func (id ExtendedID) DestinationAddress() (uint8, bool) {
	if !id.IsPDU1() {
		return 0, false
	}
	return id.PDUSpecific(), true
}

// GroupExtension returns PDU specific field as group extension for PDU2 messages. For PDU1 messages second return
// value is false.
func (id ExtendedID) GroupExtension() (uint8, bool) {
	if !id.IsPDU2() {
		return 0, false
	}
	return id.PDUSpecific(), true
}

// PGN returns 18 bit parameter group number (EDP, DP, PF and for PDU2 messages also PS).
func (id ExtendedID) PGN() uint32 {
	pgn := (uint32(id) >> 8) & 0x3FFFF // bits 8-25
	if id.IsPDU1() {
		pgn &^= 0xFF // PS is destination address and not part of PGN
	}
	return pgn
}

func (id ExtendedID) String() string {
	return fmt.Sprintf("%08X", id.Raw())
}
