package value

import (
	"fmt"
	"time"
)

// TypeID identifies the declared type of a stored value.
// The store never interprets payloads; it only compares TypeIDs to detect
// mismatched reads.
type TypeID uint8

const (
	// TypeInvalid means the type could not be determined.
	// Storing or defaulting with an invalid type is an error at the store surface.
	TypeInvalid TypeID = iota
	TypeBool
	TypeInt
	TypeFloat
	TypeText
	TypeBytes
	TypeTimestamp
)

// String returns the lowercase type name used in traces and scenario files.
func (t TypeID) String() string {
	switch t {
	case TypeBool:
		return "bool"
	case TypeInt:
		return "int"
	case TypeFloat:
		return "float"
	case TypeText:
		return "text"
	case TypeBytes:
		return "bytes"
	case TypeTimestamp:
		return "timestamp"
	default:
		return "invalid"
	}
}

// ByValue reports whether values of this type are stored inline.
// Variable-length types (text, bytes) are copied into scoped storage instead.
func (t TypeID) ByValue() bool {
	switch t {
	case TypeText, TypeBytes:
		return false
	default:
		return true
	}
}

// FixedLen returns the payload size in bytes for fixed-size types,
// or -1 for variable-length types.
func (t TypeID) FixedLen() int {
	switch t {
	case TypeBool:
		return 1
	case TypeInt, TypeFloat, TypeTimestamp:
		return 8
	default:
		return -1
	}
}

// ParseTypeID converts a type name back into a TypeID.
// Accepts the names produced by TypeID.String.
func ParseTypeID(s string) (TypeID, error) {
	switch s {
	case "bool":
		return TypeBool, nil
	case "int":
		return TypeInt, nil
	case "float":
		return TypeFloat, nil
	case "text":
		return TypeText, nil
	case "bytes":
		return TypeBytes, nil
	case "timestamp":
		return TypeTimestamp, nil
	default:
		return TypeInvalid, fmt.Errorf("unknown type name %q", s)
	}
}

// Value is a sealed interface over the types a variable can hold.
// Only Null, Bool, Int, Float, Text, Bytes, and Timestamp implement it.
type Value interface {
	// Type returns the declared type of the value.
	// For Null this is the type the null was declared with.
	Type() TypeID

	// IsNull reports whether the value is a typed null.
	IsNull() bool

	value() // Sealed - only these types implement it
}

// Null is a typed null: it carries the type it was declared with so a
// later non-null write or typed read can still be checked.
type Null struct {
	Of TypeID
}

func (n Null) Type() TypeID { return n.Of }
func (Null) IsNull() bool   { return true }
func (Null) value()         {}

// Bool is a boolean value.
type Bool bool

func (Bool) Type() TypeID { return TypeBool }
func (Bool) IsNull() bool { return false }
func (Bool) value()       {}

// Int is a 64-bit integer value.
type Int int64

func (Int) Type() TypeID { return TypeInt }
func (Int) IsNull() bool { return false }
func (Int) value()       {}

// Float is a 64-bit floating point value.
type Float float64

func (Float) Type() TypeID { return TypeFloat }
func (Float) IsNull() bool { return false }
func (Float) value()       {}

// Text is a string value. Go strings are immutable, so Text payloads are
// exclusively owned once cloned on write.
type Text string

func (Text) Type() TypeID { return TypeText }
func (Text) IsNull() bool { return false }
func (Text) value()       {}

// Bytes is a raw byte payload. Bytes payloads are copied into the owning
// scope's arena on write so callers cannot mutate stored versions.
type Bytes []byte

func (Bytes) Type() TypeID { return TypeBytes }
func (Bytes) IsNull() bool { return false }
func (Bytes) value()       {}

// Timestamp is a point-in-time value.
type Timestamp time.Time

func (Timestamp) Type() TypeID { return TypeTimestamp }
func (Timestamp) IsNull() bool { return false }
func (Timestamp) value()       {}

// NewNull creates a typed null.
func NewNull(of TypeID) Null {
	return Null{Of: of}
}

// TypeOf returns the TypeID of v, or TypeInvalid when the type cannot be
// determined (nil interface, or a null declared without a type).
func TypeOf(v Value) TypeID {
	if v == nil {
		return TypeInvalid
	}
	return v.Type()
}

// Equal compares two values for payload equality.
// Nulls are equal when their declared types match.
func Equal(a, b Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Type() != b.Type() {
		return false
	}
	if a.IsNull() || b.IsNull() {
		return a.IsNull() == b.IsNull()
	}
	switch av := a.(type) {
	case Bool:
		return av == b.(Bool)
	case Int:
		return av == b.(Int)
	case Float:
		return av == b.(Float)
	case Text:
		return av == b.(Text)
	case Bytes:
		bv := b.(Bytes)
		if len(av) != len(bv) {
			return false
		}
		for i := range av {
			if av[i] != bv[i] {
				return false
			}
		}
		return true
	case Timestamp:
		return time.Time(av).Equal(time.Time(b.(Timestamp)))
	default:
		return false
	}
}

// Format renders a value for trace and CLI output.
// Nulls render as "null", text is quoted, bytes are rendered as 0x-prefixed hex.
func Format(v Value) string {
	if v == nil {
		return "<invalid>"
	}
	if v.IsNull() {
		return "null"
	}
	switch val := v.(type) {
	case Bool:
		return fmt.Sprintf("%t", bool(val))
	case Int:
		return fmt.Sprintf("%d", int64(val))
	case Float:
		return fmt.Sprintf("%g", float64(val))
	case Text:
		return fmt.Sprintf("%q", string(val))
	case Bytes:
		return fmt.Sprintf("0x%x", []byte(val))
	case Timestamp:
		return time.Time(val).UTC().Format(time.RFC3339Nano)
	default:
		return "<invalid>"
	}
}
