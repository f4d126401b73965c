package j1939

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
)

// nameField describes location of single NAME sub-field in 64 bit value. Bits are counted LSB first, bit 0 is lowest
// bit of wire byte 0.
type nameField struct {
	name   string
	offset uint8
	bits   uint8
}

func (f nameField) mask() uint64 {
	return (uint64(1) << f.bits) - 1
}

func (f nameField) get(n uint64) uint64 {
	return (n >> f.offset) & f.mask()
}

func (f nameField) put(n uint64, value uint64) (uint64, error) {
	if value > f.mask() {
		return n, &FieldRangeError{Field: f.name, Value: value, Bits: f.bits}
	}
	return n | value<<f.offset, nil
}

// NAME layout. Bit 48 is reserved by the standard and always written as 0.
var (
	fieldIdentity                = nameField{name: "identity number", offset: 0, bits: 21}
	fieldManufacturerCode        = nameField{name: "manufacturer code", offset: 21, bits: 11}
	fieldECUInstance             = nameField{name: "ECU instance", offset: 32, bits: 3}
	fieldFunctionInstance        = nameField{name: "function instance", offset: 35, bits: 5}
	fieldFunction                = nameField{name: "function", offset: 40, bits: 8}
	fieldReserved                = nameField{name: "reserved", offset: 48, bits: 1}
	fieldVehicleSystem           = nameField{name: "vehicle system", offset: 49, bits: 7}
	fieldVehicleSystemInstance   = nameField{name: "vehicle system instance", offset: 56, bits: 4}
	fieldIndustryGroup           = nameField{name: "industry group", offset: 60, bits: 3}
	fieldArbitraryAddressCapable = nameField{name: "arbitrary address capable", offset: 63, bits: 1}
)

// nameLayout lists fields in the order they are validated on construction.
var nameLayout = []nameField{
	fieldIdentity,
	fieldManufacturerCode,
	fieldECUInstance,
	fieldFunctionInstance,
	fieldFunction,
	fieldVehicleSystem,
	fieldVehicleSystemInstance,
	fieldIndustryGroup,
	fieldArbitraryAddressCapable,
}

// IndustryGroup is 3 bit industry group code in NAME.
type IndustryGroup uint8

const (
	// IndustryGroupGlobal applies to all industries.
	IndustryGroupGlobal IndustryGroup = 0
	// IndustryGroupOnHighway is on-highway equipment.
	IndustryGroupOnHighway IndustryGroup = 1
	// IndustryGroupAgriculturalAndForestry is agricultural and forestry equipment.
	IndustryGroupAgriculturalAndForestry IndustryGroup = 2
	// IndustryGroupConstruction is construction equipment.
	IndustryGroupConstruction IndustryGroup = 3
	// IndustryGroupMarine is marine equipment.
	IndustryGroupMarine IndustryGroup = 4
	// IndustryGroupIndustrialProcess is industrial-process control-stationary (gen-sets).
	IndustryGroupIndustrialProcess IndustryGroup = 5
	// 6 and 7 are reserved
)

// ParseIndustryGroup maps wire code to IndustryGroup. Reserved codes 6 and 7 result UnrecognizedCodeError.
func ParseIndustryGroup(code uint8) (IndustryGroup, error) {
	switch IndustryGroup(code) {
	case IndustryGroupGlobal,
		IndustryGroupOnHighway,
		IndustryGroupAgriculturalAndForestry,
		IndustryGroupConstruction,
		IndustryGroupMarine,
		IndustryGroupIndustrialProcess:
		return IndustryGroup(code), nil
	}
	return 0, &UnrecognizedCodeError{Kind: "industry group", Code: code}
}

func (g IndustryGroup) String() string {
	switch g {
	case IndustryGroupGlobal:
		return "Global"
	case IndustryGroupOnHighway:
		return "On-Highway"
	case IndustryGroupAgriculturalAndForestry:
		return "Agricultural and Forestry"
	case IndustryGroupConstruction:
		return "Construction"
	case IndustryGroupMarine:
		return "Marine"
	case IndustryGroupIndustrialProcess:
		return "Industrial-Process"
	}
	return fmt.Sprintf("Reserved(%d)", uint8(g))
}

// NameFields holds unpacked NAME values.
type NameFields struct {
	Identity                uint32        `json:"identity"`                  // 21 bits
	ManufacturerCode        uint16        `json:"manufacturer_code"`         // 11 bits
	ECUInstance             uint8         `json:"ecu_instance"`              // 3 bits
	FunctionInstance        uint8         `json:"function_instance"`         // 5 bits
	Function                uint8         `json:"function"`                  // 8 bits
	VehicleSystem           uint8         `json:"vehicle_system"`            // 7 bits
	VehicleSystemInstance   uint8         `json:"vehicle_system_instance"`   // 4 bits
	IndustryGroup           IndustryGroup `json:"industry_group"`            // 3 bits
	ArbitraryAddressCapable bool          `json:"arbitrary_address_capable"` // 1 bit
}

// Name is 64 bit NAME used in address claim procedure to uniquely identify controller application in the network.
//
// Wire representation is 8 bytes little-endian: byte 0 holds bits 0-7 (lowest bits of identity number) and byte 7
// holds vehicle system instance, industry group and arbitrary address capable bit.
type Name uint64

// NewName packs fields into Name. Each field is checked against its bit width and first field that does not fit is
// reported as FieldRangeError.
func NewName(f NameFields) (Name, error) {
	aac := uint64(0)
	if f.ArbitraryAddressCapable {
		aac = 1
	}
	values := []uint64{
		uint64(f.Identity),
		uint64(f.ManufacturerCode),
		uint64(f.ECUInstance),
		uint64(f.FunctionInstance),
		uint64(f.Function),
		uint64(f.VehicleSystem),
		uint64(f.VehicleSystemInstance),
		uint64(f.IndustryGroup),
		aac,
	}

	n := uint64(0)
	for i, field := range nameLayout {
		var err error
		if n, err = field.put(n, values[i]); err != nil {
			return 0, err
		}
	}
	return Name(n), nil
}

// NameFromBytes converts 8 byte wire representation to Name.
func NameFromBytes(b [8]byte) Name {
	return Name(binary.LittleEndian.Uint64(b[:]))
}

// ParseName converts wire representation to Name. Input must be exactly 8 bytes.
func ParseName(b []byte) (Name, error) {
	if len(b) != 8 {
		return 0, fmt.Errorf("NAME must be 8 bytes, got: %v", len(b))
	}
	return Name(binary.LittleEndian.Uint64(b)), nil
}

// Bytes returns 8 byte wire representation.
func (n Name) Bytes() [8]byte {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], uint64(n))
	return b
}

// Uint64 returns NAME as packed 64 bit value.
func (n Name) Uint64() uint64 {
	return uint64(n)
}

// Identity is identity number (21 bits), assigned by manufacturer.
func (n Name) Identity() uint32 {
	return uint32(fieldIdentity.get(uint64(n)))
}

// ManufacturerCode is manufacturer code (11 bits) assigned by SAE.
func (n Name) ManufacturerCode() uint16 {
	return uint16(fieldManufacturerCode.get(uint64(n)))
}

func (n Name) ECUInstance() uint8 {
	return uint8(fieldECUInstance.get(uint64(n)))
}

func (n Name) FunctionInstance() uint8 {
	return uint8(fieldFunctionInstance.get(uint64(n)))
}

func (n Name) Function() uint8 {
	return uint8(fieldFunction.get(uint64(n)))
}

func (n Name) VehicleSystem() uint8 {
	return uint8(fieldVehicleSystem.get(uint64(n)))
}

func (n Name) VehicleSystemInstance() uint8 {
	return uint8(fieldVehicleSystemInstance.get(uint64(n)))
}

// IndustryGroup returns industry group. Second return value is false when code is reserved (6 or 7).
func (n Name) IndustryGroup() (IndustryGroup, bool) {
	g, err := ParseIndustryGroup(uint8(fieldIndustryGroup.get(uint64(n))))
	return g, err == nil
}

func (n Name) ArbitraryAddressCapable() bool {
	return fieldArbitraryAddressCapable.get(uint64(n)) == 1
}

// Reserved returns value of reserved bit 48.
func (n Name) Reserved() bool {
	return fieldReserved.get(uint64(n)) == 1
}

// Fields unpacks all fields. Reserved industry group codes are returned as is.
func (n Name) Fields() NameFields {
	return NameFields{
		Identity:                n.Identity(),
		ManufacturerCode:        n.ManufacturerCode(),
		ECUInstance:             n.ECUInstance(),
		FunctionInstance:        n.FunctionInstance(),
		Function:                n.Function(),
		VehicleSystem:           n.VehicleSystem(),
		VehicleSystemInstance:   n.VehicleSystemInstance(),
		IndustryGroup:           IndustryGroup(fieldIndustryGroup.get(uint64(n))),
		ArbitraryAddressCapable: n.ArbitraryAddressCapable(),
	}
}

// HasPriorityOver reports if this NAME wins address contention against other NAME. In address claim procedure
// numerically lower NAME has higher priority.
func (n Name) HasPriorityOver(other Name) bool {
	return n < other
}

func (n Name) String() string {
	b := n.Bytes()
	return hex.EncodeToString(b[:])
}

// MarshalText encodes NAME as 16 hex characters of its wire bytes.
func (n Name) MarshalText() ([]byte, error) {
	return []byte(n.String()), nil
}

// UnmarshalText decodes NAME from 16 hex characters of its wire bytes.
func (n *Name) UnmarshalText(text []byte) error {
	if len(text) != 16 {
		return errors.New("NAME text must be 16 hex characters")
	}
	var b [8]byte
	if _, err := hex.Decode(b[:], text); err != nil {
		return fmt.Errorf("NAME text is not valid hex, err: %w", err)
	}
	*n = NameFromBytes(b)
	return nil
}
