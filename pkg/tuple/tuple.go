// Package tuple implements the self-describing binary tuple codec the
// storage core stores opaque bytes for, and the field-level schema
// the CSV importer and multidimensional indexes use to interpret those
// bytes.
package tuple

import "fmt"

// FieldType is the declared type of one column in a Schema.
type FieldType byte

const (
	// FieldTypeInt identifies a 32-bit signed integer field.
	FieldTypeInt FieldType = iota
	// FieldTypeString identifies a short, fixed-width string field.
	FieldTypeString
)

func (t FieldType) String() string {
	switch t {
	case FieldTypeInt:
		return "int"
	case FieldTypeString:
		return "string"
	default:
		return fmt.Sprintf("unknown(%d)", byte(t))
	}
}

// StringFieldWidth is the number of bytes a string field occupies on
// the wire, padded with zero bytes or truncated to fit.
const StringFieldWidth = 128

// Field is one typed scalar value inside a Tuple. Exactly one of
// IntVal/StrVal is meaningful, selected by Type.
type Field struct {
	Type   FieldType
	IntVal int32
	StrVal string
}

// IntField constructs an integer-typed field.
func IntField(v int32) Field {
	return Field{Type: FieldTypeInt, IntVal: v}
}

// StringField constructs a string-typed field. Values longer than
// StringFieldWidth bytes are truncated on encode.
func StringField(v string) Field {
	return Field{Type: FieldTypeString, StrVal: v}
}

// Equal reports whether two fields carry the same type and value.
func (f Field) Equal(other Field) bool {
	if f.Type != other.Type {
		return false
	}
	switch f.Type {
	case FieldTypeInt:
		return f.IntVal == other.IntVal
	case FieldTypeString:
		return f.StrVal == other.StrVal
	default:
		return false
	}
}

// Less reports whether f sorts strictly before other using integer or
// lexicographic string ordering. Comparing fields of different types
// is a programming error and always reports false.
func (f Field) Less(other Field) bool {
	if f.Type != other.Type {
		return false
	}
	switch f.Type {
	case FieldTypeInt:
		return f.IntVal < other.IntVal
	case FieldTypeString:
		return f.StrVal < other.StrVal
	default:
		return false
	}
}

// Tuple is an ordered sequence of typed fields.
type Tuple []Field

// Schema is the ordered list of field types every tuple in a container
// shares.
type Schema []FieldType

// Project extracts the fields at the given positions, in order. It
// panics if a position is out of range, matching the storage core's
// convention of treating caller-supplied index metadata as trusted.
func (t Tuple) Project(positions []int) Tuple {
	out := make(Tuple, len(positions))
	for i, pos := range positions {
		out[i] = t[pos]
	}
	return out
}

// ProjectEqual reports whether t and other agree on every field at the
// given positions.
func (t Tuple) ProjectEqual(other Tuple, positions []int) bool {
	for _, pos := range positions {
		if !t[pos].Equal(other[pos]) {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of t (Field holds no pointers, so a
// slice copy suffices).
func (t Tuple) Clone() Tuple {
	out := make(Tuple, len(t))
	copy(out, t)
	return out
}
