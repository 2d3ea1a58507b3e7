package tuple

import (
	"fmt"
	"strconv"
)

// CoerceCSVField parses the text of one CSV column into the Field type
// the schema declares for that position.
func CoerceCSVField(t FieldType, text string) (Field, error) {
	switch t {
	case FieldTypeInt:
		v, err := strconv.ParseInt(text, 10, 32)
		if err != nil {
			return Field{}, fmt.Errorf("tuple: coerce %q to int: %w", text, err)
		}
		return IntField(int32(v)), nil
	case FieldTypeString:
		return StringField(text), nil
	default:
		return Field{}, fmt.Errorf("tuple: %w: %v", ErrUnknownFieldType, t)
	}
}

// CoerceCSVRow coerces an entire CSV row against a schema, returning
// ErrSchemaMismatch if the column count disagrees.
func CoerceCSVRow(schema Schema, row []string) (Tuple, error) {
	if len(row) != len(schema) {
		return nil, fmt.Errorf("%w: row has %d columns, schema has %d", ErrSchemaMismatch, len(row), len(schema))
	}
	out := make(Tuple, len(schema))
	for i, ft := range schema {
		f, err := CoerceCSVField(ft, row[i])
		if err != nil {
			return nil, err
		}
		out[i] = f
	}
	return out, nil
}
