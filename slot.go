package j1939

import (
	"errors"
	"fmt"
	"math"
	"strconv"
)

// SlotDefinition is Scaling, Limit, Offset and Transfer function (SLOT) of parameter. Physical value is calculated
// from raw wire value as `raw * scale + offset`. Min and max are explicit physical bounds used for both decoding and
// encoding and do not depend on offset.
type SlotDefinition struct {
	name   string
	unit   string
	scale  float64
	offset float64
	min    float64
	max    float64
	bits   SignalWidth
}

// NewSlotDefinition creates slot definition.
func NewSlotDefinition(name string, unit string, scale float64, offset float64, min float64, max float64, bits SignalWidth) SlotDefinition {
	return SlotDefinition{
		name:   name,
		unit:   unit,
		scale:  scale,
		offset: offset,
		min:    min,
		max:    max,
		bits:   bits,
	}
}

// Slot definitions. New parameters are added by data, not by code.
var (
	// SAEaa01 is angular acceleration
	SAEaa01 = NewSlotDefinition("SAEaa01", "rpm/s", 1, 0, 0, 64255, Width16)

	// EngineSpeed is used for example by SPN 190
	EngineSpeed = NewSlotDefinition("EngineSpeed", "rpm", 0.125, 0, 0, 8031.875, Width16)
	// VehicleSpeed is used for example by SPN 84 (wheel-based vehicle speed)
	VehicleSpeed = NewSlotDefinition("VehicleSpeed", "km/h", 1.0/256, 0, 0, 250.99609375, Width16)
	// Temperature1Byte is used for example by SPN 110 (engine coolant temperature)
	Temperature1Byte = NewSlotDefinition("Temperature1Byte", "°C", 1, -40, -40, 210, Width8)
	// Temperature2Byte is used for example by SPN 175 (engine oil temperature)
	Temperature2Byte = NewSlotDefinition("Temperature2Byte", "°C", 0.03125, -273, -273, 1734.96875, Width16)
	// Percent is used for example by SPN 91 (accelerator pedal position)
	Percent = NewSlotDefinition("Percent", "%", 0.4, 0, 0, 100, Width8)
	// Pressure4kPa is used for example by SPN 100 (engine oil pressure)
	Pressure4kPa = NewSlotDefinition("Pressure4kPa", "kPa", 4, 0, 0, 1000, Width8)
	// ElectricalPotential is used for example by SPN 168 (battery potential)
	ElectricalPotential = NewSlotDefinition("ElectricalPotential", "V", 0.05, 0, 0, 3212.75, Width16)
)

// SlotDefinitions lists all predefined slots.
var SlotDefinitions = []SlotDefinition{
	SAEaa01,
	EngineSpeed,
	VehicleSpeed,
	Temperature1Byte,
	Temperature2Byte,
	Percent,
	Pressure4kPa,
	ElectricalPotential,
}

// FindSlotDefinition searches predefined slots by name.
func FindSlotDefinition(name string) (SlotDefinition, bool) {
	for _, d := range SlotDefinitions {
		if d.name == name {
			return d, true
		}
	}
	return SlotDefinition{}, false
}

func (d SlotDefinition) Name() string {
	return d.name
}

// Unit is physical unit label, for example `rpm/s`
func (d SlotDefinition) Unit() string {
	return d.unit
}

func (d SlotDefinition) ScalingFactor() float64 {
	return d.scale
}

func (d SlotDefinition) Offset() float64 {
	return d.offset
}

// Min is the smallest allowed physical value (inclusive)
func (d SlotDefinition) Min() float64 {
	return d.min
}

// Max is the largest allowed physical value (inclusive)
func (d SlotDefinition) Max() float64 {
	return d.max
}

// Bits is width of raw value on wire
func (d SlotDefinition) Bits() SignalWidth {
	return d.bits
}

// Validate checks that definition is usable: scale is positive, bounds are ordered, min is not below offset (raw
// values are unsigned) and max encodes into valid range of bit width.
func (d SlotDefinition) Validate() error {
	if !(d.scale > 0) {
		return fmt.Errorf("slot %v scale must be positive", d.name)
	}
	if d.min > d.max {
		return fmt.Errorf("slot %v min is larger than max", d.name)
	}
	if d.min < d.offset {
		return fmt.Errorf("slot %v min is smaller than offset", d.name)
	}
	ranges, ok := d.bits.Ranges()
	if !ok {
		return fmt.Errorf("slot %v: %w", d.name, ErrUnsupportedWidth)
	}
	if d.toRaw(d.max) > float64(ranges.Valid.Max) {
		return fmt.Errorf("slot %v max does not fit into valid range of %v bits", d.name, d.bits)
	}
	return nil
}

func (d SlotDefinition) contains(v float64) bool {
	return v >= d.min && v <= d.max
}

// New creates slot from physical value. Value must be within [Min, Max] bounds.
func (d SlotDefinition) New(value float64) (Slot, error) {
	if !d.contains(value) {
		return Slot{}, &BoundsError{Slot: d.name, Value: value, Min: d.min, Max: d.max}
	}
	return Slot{definition: d, value: value}, nil
}

// FromRaw decodes wire value to slot. Resulting physical value must be within [Min, Max] bounds.
func (d SlotDefinition) FromRaw(raw uint32) (Slot, error) {
	value := float64(raw)*d.scale + d.offset
	if !d.contains(value) {
		return Slot{}, &BoundsError{Slot: d.name, Value: value, Min: d.min, Max: d.max}
	}
	return Slot{definition: d, value: value}, nil
}

// Slot is physical value bound to its slot definition.
type Slot struct {
	definition SlotDefinition
	value      float64
}

// Value is physical value in definition units.
func (s Slot) Value() float64 {
	return s.value
}

func (s Slot) Definition() SlotDefinition {
	return s.definition
}

// rawSnapEpsilon is how close quotient must be to an integer to be taken as that integer. Scales like 0.05 are not
// exact in binary and raw*scale/scale can land just below raw.
const rawSnapEpsilon = 1e-9

// toRaw converts physical value to raw value truncating fractional part towards zero.
func (d SlotDefinition) toRaw(value float64) float64 {
	q := (value - d.offset) / d.scale
	if r := math.Round(q); math.Abs(q-r) < rawSnapEpsilon {
		return r
	}
	return math.Trunc(q)
}

// Raw encodes physical value to wire value. Fractional part is truncated towards zero.
func (s Slot) Raw() uint32 {
	raw := s.definition.toRaw(s.value)
	if raw < 0 { // only possible with definition that fails Validate
		return 0
	}
	return uint32(raw)
}

func (s Slot) String() string {
	return strconv.FormatFloat(s.value, 'f', -1, 64) + " " + s.definition.unit
}

// MarshalJSON encodes slot as physical value with its unit.
func (s Slot) MarshalJSON() ([]byte, error) {
	if s.definition.scale == 0 {
		return nil, errors.New("slot has no definition")
	}
	return []byte(fmt.Sprintf(`{"value":%v,"unit":%q}`, strconv.FormatFloat(s.value, 'f', -1, 64), s.definition.unit)), nil
}
