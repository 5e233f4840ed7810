package feed

import "encoding/json"

// field binds one feed key to a setter on T.
type field[T any] struct {
	name     string
	required bool
	decode   func(raw json.RawMessage, dst *T) error
}

func required[T any](name string, decode func(json.RawMessage, *T) error) field[T] {
	return field[T]{name: name, required: true, decode: decode}
}

func optional[T any](name string, decode func(json.RawMessage, *T) error) field[T] {
	return field[T]{name: name, decode: decode}
}

// bind adapts a coercer and a field accessor into a field decoder.
func bind[T, V any](coerce func(json.RawMessage) (V, error), at func(*T) *V) func(json.RawMessage, *T) error {
	return func(raw json.RawMessage, dst *T) error {
		v, err := coerce(raw)
		if err != nil {
			return err
		}
		*at(dst) = v
		return nil
	}
}

// decodeFields applies fields in declaration order and stops at the first
// failure. Members of src that no field names are ignored.
func decodeFields[T any](src map[string]json.RawMessage, fields []field[T], dst *T) error {
	for _, f := range fields {
		raw, ok := src[f.name]
		if !ok {
			if f.required {
				return &DecodeError{Kind: KindMissingField, Path: Path{}.Field(f.name)}
			}
			continue
		}
		if err := f.decode(raw, dst); err != nil {
			return prefix(Path{}.Field(f.name), err)
		}
	}
	return nil
}

// decodeObject decodes a JSON object through a field table.
func decodeObject[T any](raw json.RawMessage, fields []field[T]) (T, error) {
	var out T
	members, err := object(raw)
	if err != nil {
		return out, err
	}
	if err := decodeFields(members, fields, &out); err != nil {
		return out, err
	}
	return out, nil
}
