package tuple

import "errors"

var (
	// ErrSchemaMismatch is returned when a tuple's field count or types
	// disagree with the schema being used to decode or coerce it.
	ErrSchemaMismatch = errors.New("tuple: schema mismatch")

	// ErrTruncated is returned when the byte slice ends before the
	// codec finishes decoding a declared field.
	ErrTruncated = errors.New("tuple: truncated encoding")

	// ErrUnknownFieldType is returned when a type tag on the wire does
	// not match any known FieldType.
	ErrUnknownFieldType = errors.New("tuple: unknown field type tag")
)
