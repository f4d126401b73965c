package j1939

const (
	// AddressGlobal is destination address for messages to all nodes (broadcast)
	AddressGlobal = uint8(255)
	// AddressNull is source address for nodes that have not (yet) claimed an address
	AddressNull = uint8(254)
)

// Well known network management PGNs.
const (
	PGNAcknowledgement     = uint32(59392) // 0xE800
	PGNRequest             = uint32(59904) // 0xEA00
	PGNAddressClaimed      = uint32(60928) // 0xEE00
	PGNCommandedAddress    = uint32(65240) // 0xFED8
	PGNProprietaryA        = uint32(61184) // 0xEF00
	PGNTransportProtocolCM = uint32(60416) // 0xEC00
	PGNTransportProtocolDT = uint32(60160) // 0xEB00
)

// Header is decoded form of extended identifier.
type Header struct {
	PGN         uint32 `json:"pgn"`
	Priority    uint8  `json:"priority"`
	Source      uint8  `json:"source"`
	Destination uint8  `json:"destination"`
}

// ExtendedID converts header back to 29 bit identifier.
func (h Header) ExtendedID() ExtendedID {
	return NewExtendedID(h.Priority, h.PGN, h.Source, h.Destination)
}

// Header parses header fields from identifier. For broadcast (PDU2) messages destination is AddressGlobal.
func (id ExtendedID) Header() Header {
	result := Header{
		PGN:         id.PGN(),
		Priority:    id.Priority(),
		Source:      id.SourceAddress(),
		Destination: AddressGlobal, // 0xff is broadcast to all
	}
	if da, ok := id.DestinationAddress(); ok {
		result.Destination = da
	}
	return result
}
