package feed

import (
	"bytes"
	"encoding/json"
	"maps"
	"math"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/vanshika/gradefeed/internal/domain"
)

const maxShown = 64

// jsonType reports the JSON type of raw from its first significant byte.
func jsonType(raw json.RawMessage) string {
	trimmed := bytes.TrimLeft(raw, " \t\r\n")
	if len(trimmed) == 0 {
		return "empty"
	}
	switch trimmed[0] {
	case '"':
		return "string"
	case '[':
		return "array"
	case '{':
		return "object"
	case 't', 'f':
		return "boolean"
	case 'n':
		return "null"
	default:
		return "number"
	}
}

// show renders a raw value for an error message, truncated.
func show(raw json.RawMessage) string {
	s := string(bytes.TrimSpace(raw))
	if len(s) > maxShown {
		cut := maxShown
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		return s[:cut] + "..."
	}
	return s
}

func mismatch(raw json.RawMessage, want string) *DecodeError {
	return &DecodeError{
		Kind:     KindTypeMismatch,
		Expected: want,
		Got:      jsonType(raw) + " " + show(raw),
	}
}

// IntBool decodes an integer standing in for a boolean: 0 is false, 1 is true.
func IntBool(raw json.RawMessage) (bool, error) {
	n, err := Int64(raw)
	if err != nil {
		return false, err
	}
	switch n {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, &DecodeError{
			Kind:     KindDomain,
			Expected: "{0,1}",
			Got:      strconv.FormatInt(n, 10),
		}
	}
}

// StrFloat decodes a string holding a decimal floating-point literal. NaN,
// infinities and hexadecimal literals are rejected.
func StrFloat(raw json.RawMessage) (float64, error) {
	s, err := String(raw)
	if err != nil {
		return 0, err
	}
	v, perr := strconv.ParseFloat(s, 64)
	if perr != nil || isHexFloat(s) {
		return 0, &DecodeError{
			Kind:     KindDomain,
			Expected: "floating-point",
			Got:      strconv.Quote(s),
		}
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, &DecodeError{
			Kind:     KindDomain,
			Expected: "finite floating-point",
			Got:      strconv.Quote(s),
		}
	}
	return v, nil
}

func isHexFloat(s string) bool {
	s = strings.TrimLeft(s, "+-")
	return len(s) > 1 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X')
}

// Freeze decodes a column freeze tag. Absence is handled by the caller and
// maps to domain.FreezeNone.
func Freeze(raw json.RawMessage) (domain.FreezeState, error) {
	s, err := String(raw)
	if err != nil {
		return domain.FreezeNone, err
	}
	state, ok := domain.ParseFreezeState(s)
	if !ok {
		return domain.FreezeNone, &DecodeError{
			Kind:     KindDomain,
			Expected: `one of "", "F", "C"`,
			Got:      strconv.Quote(s),
		}
	}
	return state, nil
}

// GradeTypeTag decodes the column type discriminant.
func GradeTypeTag(raw json.RawMessage) (domain.GradeType, error) {
	s, err := String(raw)
	if err != nil {
		return 0, err
	}
	t, ok := domain.ParseGradeType(s)
	if !ok {
		return 0, &DecodeError{
			Kind:     KindDomain,
			Expected: "one of Text, Note, Login, Moy, Prst, Enumeration, Upload, Max",
			Got:      strconv.Quote(s),
		}
	}
	return t, nil
}

// String decodes a JSON string.
func String(raw json.RawMessage) (string, error) {
	if jsonType(raw) != "string" {
		return "", mismatch(raw, "string")
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", mismatch(raw, "string")
	}
	return s, nil
}

// Int64 decodes a JSON integer. Fractions and exponents are rejected.
func Int64(raw json.RawMessage) (int64, error) {
	if jsonType(raw) != "number" {
		return 0, mismatch(raw, "integer")
	}
	n, err := strconv.ParseInt(string(bytes.TrimSpace(raw)), 10, 64)
	if err != nil {
		return 0, mismatch(raw, "integer")
	}
	return n, nil
}

// Int decodes a JSON integer into an int.
func Int(raw json.RawMessage) (int, error) {
	n, err := Int64(raw)
	return int(n), err
}

// Bool decodes a native JSON boolean.
func Bool(raw json.RawMessage) (bool, error) {
	switch string(bytes.TrimSpace(raw)) {
	case "true":
		return true, nil
	case "false":
		return false, nil
	default:
		return false, mismatch(raw, "boolean")
	}
}

// Passthrough keeps raw as an opaque value.
func Passthrough(raw json.RawMessage) (domain.Opaque, error) {
	out := make(domain.Opaque, len(raw))
	copy(out, raw)
	return out, nil
}

// Strings decodes an array of strings.
func Strings(raw json.RawMessage) ([]string, error) {
	return listOf(raw, String)
}

// StringMap decodes an object whose values are all strings.
func StringMap(raw json.RawMessage) (map[string]string, error) {
	return mapOf(raw, String)
}

// IntMap decodes an object whose values are all integers.
func IntMap(raw json.RawMessage) (map[string]int, error) {
	return mapOf(raw, Int)
}

// elements splits a JSON array into its raw elements.
func elements(raw json.RawMessage) ([]json.RawMessage, error) {
	if jsonType(raw) != "array" {
		return nil, mismatch(raw, "array")
	}
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return nil, mismatch(raw, "array")
	}
	return elems, nil
}

// tuple splits a JSON array that must hold exactly n elements.
func tuple(raw json.RawMessage, n int) ([]json.RawMessage, error) {
	elems, err := elements(raw)
	if err != nil {
		return nil, err
	}
	if len(elems) != n {
		return nil, structural(n, len(elems))
	}
	return elems, nil
}

// object splits a JSON object into its raw members.
func object(raw json.RawMessage) (map[string]json.RawMessage, error) {
	if jsonType(raw) != "object" {
		return nil, mismatch(raw, "object")
	}
	var members map[string]json.RawMessage
	if err := json.Unmarshal(raw, &members); err != nil {
		return nil, mismatch(raw, "object")
	}
	return members, nil
}

// listOf decodes every element with elem, failing on the first bad one.
func listOf[T any](raw json.RawMessage, elem func(json.RawMessage) (T, error)) ([]T, error) {
	elems, err := elements(raw)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(elems))
	for i, e := range elems {
		v, err := elem(e)
		if err != nil {
			return nil, prefix(Path{}.Index(i), err)
		}
		out = append(out, v)
	}
	return out, nil
}

// mapOf decodes every member with elem. Keys are visited in sorted order so
// the reported failure is stable.
func mapOf[T any](raw json.RawMessage, elem func(json.RawMessage) (T, error)) (map[string]T, error) {
	members, err := object(raw)
	if err != nil {
		return nil, err
	}
	out := make(map[string]T, len(members))
	for _, key := range slices.Sorted(maps.Keys(members)) {
		v, err := elem(members[key])
		if err != nil {
			return nil, prefix(Path{}.Field(key), err)
		}
		out[key] = v
	}
	return out, nil
}
