package j1939

import (
	"errors"
	"fmt"
)

var (
	// ErrOutOfRange indicates that value does not fit into bit width of the field it is assigned to
	ErrOutOfRange = errors.New("value out of field range")
	// ErrUnrecognizedCode indicates that wire value is not part of enumerated domain (reserved or undefined code)
	ErrUnrecognizedCode = errors.New("unrecognized code")
	// ErrValueOutOfBounds indicates that physical value is outside of slot [min, max] bounds
	ErrValueOutOfBounds = errors.New("value outside of slot bounds")
	// ErrUnsupportedWidth indicates that signal bit width has no standardized range table
	ErrUnsupportedWidth = errors.New("unsupported signal bit width")

	// ErrValueNotAvailable indicates that signal carries `not available` indicator (for example 8bits => 0xFF)
	ErrValueNotAvailable = errors.New("signal value not available")
	// ErrValueError indicates that signal carries `error` indicator (for example 8bits => 0xFE)
	ErrValueError = errors.New("signal value is error indicator")
	// ErrValueSpecific indicates that signal carries parameter specific or reserved indicator (for example 8bits => 0xFB)
	ErrValueSpecific = errors.New("signal value is parameter specific indicator")
)

// FieldRangeError reports which field did not fit into its declared bit width.
type FieldRangeError struct {
	Field string
	Value uint64
	Bits  uint8
}

func (e *FieldRangeError) Error() string {
	return fmt.Sprintf("%v does not fit into %v bits of field `%v`", e.Value, e.Bits, e.Field)
}

func (e *FieldRangeError) Unwrap() error {
	return ErrOutOfRange
}

// UnrecognizedCodeError reports wire code that has no variant in enumerated set.
type UnrecognizedCodeError struct {
	Kind string
	Code uint8
}

func (e *UnrecognizedCodeError) Error() string {
	return fmt.Sprintf("unrecognized %v code: %v", e.Kind, e.Code)
}

func (e *UnrecognizedCodeError) Unwrap() error {
	return ErrUnrecognizedCode
}

// BoundsError reports physical value rejected by slot bounds.
type BoundsError struct {
	Slot  string
	Value float64
	Min   float64
	Max   float64
}

func (e *BoundsError) Error() string {
	return fmt.Sprintf("slot %v value %v outside of bounds [%v, %v]", e.Slot, e.Value, e.Min, e.Max)
}

func (e *BoundsError) Unwrap() error {
	return ErrValueOutOfBounds
}
