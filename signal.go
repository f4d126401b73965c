package j1939

import "fmt"

// SignalWidth is bit width of signal (SPN) value for which standardized indicator ranges exist.
type SignalWidth uint8

// Supported signal widths
const (
	Width4  SignalWidth = 4
	Width8  SignalWidth = 8
	Width10 SignalWidth = 10
	Width12 SignalWidth = 12
	Width16 SignalWidth = 16
	Width20 SignalWidth = 20
	Width24 SignalWidth = 24
	Width28 SignalWidth = 28
	Width32 SignalWidth = 32
)

// Range is inclusive range of raw values.
type Range struct {
	Min uint32 `json:"min"`
	Max uint32 `json:"max"`
}

// Contains reports if value is within range (inclusive)
func (r Range) Contains(v uint32) bool {
	return v >= r.Min && v <= r.Max
}

// SignalRanges splits whole value space of signal width into disjoint ranges.
type SignalRanges struct {
	// Valid is range for ordinary engineering data
	Valid Range `json:"valid"`
	// Specific is parameter specific indicator range
	Specific Range `json:"specific"`
	// Reserved is range reserved for future indicator values. Values in this range are classified as specific.
	Reserved Range `json:"reserved"`
	// Error is error indicator range
	Error Range `json:"error"`
	// NotAvailable is not available / not requested indicator range
	NotAvailable Range `json:"not_available"`
}

// signalTable holds transmitted value ranges for signals by bit width.
var signalTable = map[SignalWidth]SignalRanges{
	Width4: {
		Valid:        Range{0x0, 0xA},
		Specific:     Range{0xB, 0xB},
		Reserved:     Range{0xC, 0xD},
		Error:        Range{0xE, 0xE},
		NotAvailable: Range{0xF, 0xF},
	},
	Width8: {
		Valid:        Range{0x00, 0xFA},
		Specific:     Range{0xFB, 0xFB},
		Reserved:     Range{0xFC, 0xFD},
		Error:        Range{0xFE, 0xFE},
		NotAvailable: Range{0xFF, 0xFF},
	},
	Width10: {
		Valid:        Range{0x000, 0x3FA},
		Specific:     Range{0x3FB, 0x3FB},
		Reserved:     Range{0x3FC, 0x3FD},
		Error:        Range{0x3FE, 0x3FE},
		NotAvailable: Range{0x3FF, 0x3FF},
	},
	Width12: {
		Valid:        Range{0x000, 0xFAF},
		Specific:     Range{0xFB0, 0xFBF},
		Reserved:     Range{0xFC0, 0xFDF},
		Error:        Range{0xFE0, 0xFEF},
		NotAvailable: Range{0xFF0, 0xFFF},
	},
	Width16: {
		Valid:        Range{0x0000, 0xFAFF},
		Specific:     Range{0xFB00, 0xFBFF},
		Reserved:     Range{0xFC00, 0xFDFF},
		Error:        Range{0xFE00, 0xFEFF},
		NotAvailable: Range{0xFF00, 0xFFFF},
	},
	Width20: {
		Valid:        Range{0x00000, 0xFAFFF},
		Specific:     Range{0xFB000, 0xFBFFF},
		Reserved:     Range{0xFC000, 0xFDFFF},
		Error:        Range{0xFE000, 0xFEFFF},
		NotAvailable: Range{0xFF000, 0xFFFFF},
	},
	Width24: {
		Valid:        Range{0x000000, 0xFAFFFF},
		Specific:     Range{0xFB0000, 0xFBFFFF},
		Reserved:     Range{0xFC0000, 0xFDFFFF},
		Error:        Range{0xFE0000, 0xFEFFFF},
		NotAvailable: Range{0xFF0000, 0xFFFFFF},
	},
	Width28: {
		Valid:        Range{0x0000000, 0xFAFFFFF},
		Specific:     Range{0xFB00000, 0xFBFFFFF},
		Reserved:     Range{0xFC00000, 0xFDFFFFF},
		Error:        Range{0xFE00000, 0xFEFFFFF},
		NotAvailable: Range{0xFF00000, 0xFFFFFFF},
	},
	Width32: {
		Valid:        Range{0x00000000, 0xFAFFFFFF},
		Specific:     Range{0xFB000000, 0xFBFFFFFF},
		Reserved:     Range{0xFC000000, 0xFDFFFFFF},
		Error:        Range{0xFE000000, 0xFEFFFFFF},
		NotAvailable: Range{0xFF000000, 0xFFFFFFFF},
	},
}

// SignalWidths lists all supported widths in ascending order.
var SignalWidths = []SignalWidth{Width4, Width8, Width10, Width12, Width16, Width20, Width24, Width28, Width32}

// Ranges returns indicator ranges for width. Second return value is false for unsupported widths.
func (w SignalWidth) Ranges() (SignalRanges, bool) {
	r, ok := signalTable[w]
	return r, ok
}

// Max returns the largest value representable with width.
func (w SignalWidth) Max() uint32 {
	if w >= 32 {
		return 0xFFFF_FFFF
	}
	return (uint32(1) << w) - 1
}

// Classify returns state of raw value for this width.
func (w SignalWidth) Classify(value uint32) (SignalState, error) {
	r, ok := signalTable[w]
	if !ok {
		return 0, ErrUnsupportedWidth
	}
	if value > w.Max() {
		return 0, &FieldRangeError{Field: "signal", Value: uint64(value), Bits: uint8(w)}
	}
	return r.classify(value), nil
}

func (r SignalRanges) classify(value uint32) SignalState {
	switch {
	case r.Valid.Contains(value):
		return StateValid
	case r.Specific.Contains(value), r.Reserved.Contains(value):
		return StateSpecific
	case r.Error.Contains(value):
		return StateError
	default:
		return StateNotAvailable
	}
}

// SignalState is semantic range raw signal value falls into.
type SignalState uint8

const (
	// StateValid means value is ordinary engineering data
	StateValid SignalState = iota
	// StateSpecific means value is parameter specific (or reserved) indicator
	StateSpecific
	// StateError means value is error indicator
	StateError
	// StateNotAvailable means value is not available/not requested indicator
	StateNotAvailable
)

func (s SignalState) String() string {
	switch s {
	case StateValid:
		return "valid"
	case StateSpecific:
		return "specific"
	case StateError:
		return "error"
	case StateNotAvailable:
		return "not available"
	}
	return fmt.Sprintf("SignalState(%d)", uint8(s))
}

// Signal is raw signal value of known width.
type Signal struct {
	width SignalWidth
	value uint32
	state SignalState
}

// NewSignal creates signal. Width must be supported and value must fit into width.
func NewSignal(width SignalWidth, value uint32) (Signal, error) {
	state, err := width.Classify(value)
	if err != nil {
		return Signal{}, err
	}
	return Signal{width: width, value: value, state: state}, nil
}

func (s Signal) Width() SignalWidth {
	return s.width
}

func (s Signal) Value() uint32 {
	return s.value
}

func (s Signal) State() SignalState {
	return s.state
}

// IsValid is true when value is within valid (engineering data) range.
func (s Signal) IsValid() bool {
	return s.state == StateValid
}

// IsSpecific is true when value is within parameter specific indicator range or range reserved for future
// indicators.
func (s Signal) IsSpecific() bool {
	return s.state == StateSpecific
}

// IsReserved is true when value is within range reserved for future indicators. Reserved values are also specific.
func (s Signal) IsReserved() bool {
	return signalTable[s.width].Reserved.Contains(s.value)
}

// IsError is true when value is within error indicator range.
func (s Signal) IsError() bool {
	return s.state == StateError
}

// IsNotAvailable is true when value is within not available indicator range.
func (s Signal) IsNotAvailable() bool {
	return s.state == StateNotAvailable
}

// Parameter is transmitted value for 2 bit discrete parameter (measured) signal.
type Parameter uint8

const (
	ParameterDisabled     Parameter = 0x0
	ParameterEnabled      Parameter = 0x1
	ParameterIsError      Parameter = 0x2
	ParameterNotAvailable Parameter = 0x3

	// DefaultParameter is value to assume when parameter is absent
	DefaultParameter = ParameterNotAvailable
)

// ParseParameter maps wire code to Parameter. On error DefaultParameter is returned with UnrecognizedCodeError.
func ParseParameter(code uint8) (Parameter, error) {
	switch Parameter(code) {
	case ParameterDisabled, ParameterEnabled, ParameterIsError, ParameterNotAvailable:
		return Parameter(code), nil
	}
	return DefaultParameter, &UnrecognizedCodeError{Kind: "parameter", Code: code}
}

func (p Parameter) Uint8() uint8 {
	return uint8(p)
}

func (p Parameter) String() string {
	switch p {
	case ParameterDisabled:
		return "disabled"
	case ParameterEnabled:
		return "enabled"
	case ParameterIsError:
		return "error"
	case ParameterNotAvailable:
		return "not available"
	}
	return fmt.Sprintf("Parameter(%d)", uint8(p))
}

// Command is transmitted value for 2 bit control command (status) signal.
type Command uint8

const (
	CommandDisable Command = 0x0
	CommandEnable  Command = 0x1
	// 0x2 is reserved
	CommandNoAction Command = 0x3

	// DefaultCommand is value to assume when command is absent
	DefaultCommand = CommandNoAction
)

// ParseCommand maps wire code to Command. Reserved code 2 is rejected. On error DefaultCommand is returned with
// UnrecognizedCodeError.
func ParseCommand(code uint8) (Command, error) {
	switch Command(code) {
	case CommandDisable, CommandEnable, CommandNoAction:
		return Command(code), nil
	}
	return DefaultCommand, &UnrecognizedCodeError{Kind: "command", Code: code}
}

func (c Command) Uint8() uint8 {
	return uint8(c)
}

func (c Command) String() string {
	switch c {
	case CommandDisable:
		return "disable"
	case CommandEnable:
		return "enable"
	case CommandNoAction:
		return "no action"
	}
	return fmt.Sprintf("Command(%d)", uint8(c))
}
