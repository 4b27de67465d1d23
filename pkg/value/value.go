// Package value defines the literal values held in a chunk's constant pool.
package value

import (
	"fmt"
	"strconv"
)

// Kind tags the variant stored in a Value.
type Kind uint8

const (
	KindNil Kind = iota
	KindBool
	KindNumber
	KindString
)

// String returns a human-readable name for Kind.
func (k Kind) String() string {
	switch k {
	case KindNil:
		return "nil"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// Value is a literal constant. Only the field selected by Kind is meaningful.
type Value struct {
	Kind   Kind    `cbor:"k"`
	Bool   bool    `cbor:"b,omitempty"`
	Number float64 `cbor:"n,omitempty"`
	Str    string  `cbor:"s,omitempty"`
}

// Nil returns the nil value.
func Nil() Value { return Value{Kind: KindNil} }

// Bool wraps a boolean.
func Bool(b bool) Value { return Value{Kind: KindBool, Bool: b} }

// Number wraps a float64.
func Number(n float64) Value { return Value{Kind: KindNumber, Number: n} }

// String wraps a string.
func String(s string) Value { return Value{Kind: KindString, Str: s} }

// IsNil reports whether v is nil.
func (v Value) IsNil() bool { return v.Kind == KindNil }

// Equal reports whether v and other hold the same kind and payload.
// Numbers compare with ==, so NaN is never equal to itself.
func (v Value) Equal(other Value) bool {
	if v.Kind != other.Kind {
		return false
	}
	switch v.Kind {
	case KindNil:
		return true
	case KindBool:
		return v.Bool == other.Bool
	case KindNumber:
		return v.Number == other.Number
	case KindString:
		return v.Str == other.Str
	}
	return false
}

// String formats v the way the interpreter prints it.
func (v Value) String() string {
	switch v.Kind {
	case KindNil:
		return "nil"
	case KindBool:
		return strconv.FormatBool(v.Bool)
	case KindNumber:
		return strconv.FormatFloat(v.Number, 'g', -1, 64)
	case KindString:
		return v.Str
	default:
		return fmt.Sprintf("<%s>", v.Kind)
	}
}
