package tuple

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// fieldCountSize is the width, in bytes, of the leading field-count
// prefix: [2-byte field count][descriptor]...[descriptor].
const fieldCountSize = 2

// descriptorSize returns the on-wire size of one field's
// [1-byte type tag][payload].
func descriptorSize(t FieldType) int {
	switch t {
	case FieldTypeInt:
		return 1 + 4
	case FieldTypeString:
		return 1 + StringFieldWidth
	default:
		return 0
	}
}

// Encode serialises a tuple to its self-describing binary form:
// [2-byte field count][type tag][value]...
func Encode(t Tuple) ([]byte, error) {
	buf := new(bytes.Buffer)
	if len(t) > 0xFFFF {
		return nil, fmt.Errorf("tuple: too many fields (%d)", len(t))
	}
	binary.Write(buf, binary.LittleEndian, uint16(len(t)))
	for _, f := range t {
		buf.WriteByte(byte(f.Type))
		switch f.Type {
		case FieldTypeInt:
			binary.Write(buf, binary.LittleEndian, f.IntVal)
		case FieldTypeString:
			buf.Write(padString(f.StrVal))
		default:
			return nil, fmt.Errorf("tuple: %w: %v", ErrUnknownFieldType, f.Type)
		}
	}
	return buf.Bytes(), nil
}

// padString truncates s to StringFieldWidth bytes, or zero-pads it up
// to that width.
func padString(s string) []byte {
	out := make([]byte, StringFieldWidth)
	n := copy(out, s)
	_ = n
	return out
}

// unpadString trims the trailing zero bytes a padded string field was
// written with.
func unpadString(b []byte) string {
	end := bytes.IndexByte(b, 0x00)
	if end == -1 {
		return string(b)
	}
	return string(b[:end])
}

// Decode parses a tuple previously produced by Encode. The schema is
// not consulted for framing (the wire format is self-describing) but
// callers that need to enforce column typing should cross-check the
// decoded field types against their Schema.
func Decode(b []byte) (Tuple, error) {
	if len(b) < fieldCountSize {
		return nil, ErrTruncated
	}
	count := int(binary.LittleEndian.Uint16(b[:fieldCountSize]))
	pos := fieldCountSize
	out := make(Tuple, count)
	for i := 0; i < count; i++ {
		if pos >= len(b) {
			return nil, ErrTruncated
		}
		typ := FieldType(b[pos])
		pos++
		switch typ {
		case FieldTypeInt:
			if pos+4 > len(b) {
				return nil, ErrTruncated
			}
			out[i] = IntField(int32(binary.LittleEndian.Uint32(b[pos : pos+4])))
			pos += 4
		case FieldTypeString:
			if pos+StringFieldWidth > len(b) {
				return nil, ErrTruncated
			}
			out[i] = StringField(unpadString(b[pos : pos+StringFieldWidth]))
			pos += StringFieldWidth
		default:
			return nil, fmt.Errorf("tuple: %w: %v", ErrUnknownFieldType, typ)
		}
	}
	return out, nil
}

// DecodeField decodes a single field at position pos without
// materialising the rest of the tuple, used by index build/lookup
// paths that only need the projected dimensions.
func DecodeField(b []byte, pos int) (Field, error) {
	if len(b) < fieldCountSize {
		return Field{}, ErrTruncated
	}
	count := int(binary.LittleEndian.Uint16(b[:fieldCountSize]))
	if pos < 0 || pos >= count {
		return Field{}, fmt.Errorf("tuple: field position %d out of range [0,%d)", pos, count)
	}
	offset := fieldCountSize
	for i := 0; i < pos; i++ {
		if offset >= len(b) {
			return Field{}, ErrTruncated
		}
		offset += descriptorSize(FieldType(b[offset]))
	}
	if offset >= len(b) {
		return Field{}, ErrTruncated
	}
	typ := FieldType(b[offset])
	offset++
	switch typ {
	case FieldTypeInt:
		if offset+4 > len(b) {
			return Field{}, ErrTruncated
		}
		return IntField(int32(binary.LittleEndian.Uint32(b[offset : offset+4]))), nil
	case FieldTypeString:
		if offset+StringFieldWidth > len(b) {
			return Field{}, ErrTruncated
		}
		return StringField(unpadString(b[offset : offset+StringFieldWidth])), nil
	default:
		return Field{}, fmt.Errorf("tuple: %w: %v", ErrUnknownFieldType, typ)
	}
}
