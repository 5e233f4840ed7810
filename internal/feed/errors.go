package feed

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Kind classifies a decode failure.
type Kind int

const (
	// KindEnvelope means the blob itself is not a JSON array.
	KindEnvelope Kind = iota
	// KindKeyDecode means a pair key is not a string.
	KindKeyDecode
	// KindStructural means an array does not have the required element count.
	KindStructural
	// KindDomain means a well-shaped value lies outside its allowed domain.
	KindDomain
	// KindMissingField means a required field is absent.
	KindMissingField
	// KindTypeMismatch means a value has the wrong JSON type.
	KindTypeMismatch
	// KindDuplicateKey means a key appears twice under RejectDuplicates.
	KindDuplicateKey
)

// Sentinels matched by errors.Is against any *DecodeError of the same kind.
var (
	ErrEnvelope     = errors.New("envelope error")
	ErrKeyDecode    = errors.New("key decode error")
	ErrStructural   = errors.New("structural error")
	ErrDomain       = errors.New("domain violation")
	ErrMissingField = errors.New("missing field")
	ErrTypeMismatch = errors.New("type mismatch")
	ErrDuplicateKey = errors.New("duplicate key")
)

func (k Kind) sentinel() error {
	switch k {
	case KindEnvelope:
		return ErrEnvelope
	case KindKeyDecode:
		return ErrKeyDecode
	case KindStructural:
		return ErrStructural
	case KindDomain:
		return ErrDomain
	case KindMissingField:
		return ErrMissingField
	case KindTypeMismatch:
		return ErrTypeMismatch
	case KindDuplicateKey:
		return ErrDuplicateKey
	default:
		return nil
	}
}

// String returns the short machine name of the kind.
func (k Kind) String() string {
	switch k {
	case KindEnvelope:
		return "envelope"
	case KindKeyDecode:
		return "key_decode"
	case KindStructural:
		return "structural"
	case KindDomain:
		return "domain"
	case KindMissingField:
		return "missing_field"
	case KindTypeMismatch:
		return "type_mismatch"
	case KindDuplicateKey:
		return "duplicate_key"
	default:
		return "unknown"
	}
}

// MarshalText renders the machine name.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Step is one element of a Path: a field name or an array index.
type Step struct {
	Field string
	Index int
	IsIdx bool
}

// Path locates a value from the root of the feed.
type Path []Step

// Field returns a new path extended with a field name.
func (p Path) Field(name string) Path {
	return append(p[:len(p):len(p)], Step{Field: name})
}

// Index returns a new path extended with an array index.
func (p Path) Index(i int) Path {
	return append(p[:len(p):len(p)], Step{Index: i, IsIdx: true})
}

// String renders the path as Grades[0][2].columns[1].type.
func (p Path) String() string {
	var b strings.Builder
	for i, s := range p {
		if s.IsIdx {
			b.WriteByte('[')
			b.WriteString(strconv.Itoa(s.Index))
			b.WriteByte(']')
			continue
		}
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(s.Field)
	}
	return b.String()
}

// MarshalText renders the path string.
func (p Path) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// DecodeError is a located decode failure.
type DecodeError struct {
	Kind     Kind
	Path     Path
	Expected string
	Got      string
	Err      error
}

func (e *DecodeError) Error() string {
	var b strings.Builder
	if len(e.Path) > 0 {
		b.WriteString(e.Path.String())
		b.WriteString(": ")
	}
	b.WriteString(e.Kind.sentinel().Error())
	if e.Got != "" {
		b.WriteString(": got ")
		b.WriteString(e.Got)
	}
	if e.Expected != "" {
		if e.Got != "" {
			b.WriteString(", expected ")
		} else {
			b.WriteString(": expected ")
		}
		b.WriteString(e.Expected)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap exposes the kind sentinel and the underlying cause.
func (e *DecodeError) Unwrap() []error {
	errs := []error{e.Kind.sentinel()}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// ErrorList aggregates failures across independent repeated elements.
type ErrorList []*DecodeError

func (l ErrorList) Error() string {
	switch len(l) {
	case 0:
		return "no errors"
	case 1:
		return l[0].Error()
	}
	msg := fmt.Sprintf("%d decode errors:", len(l))
	for _, err := range l {
		msg += " " + err.Error() + ";"
	}
	return msg
}

// Unwrap exposes every aggregated error.
func (l ErrorList) Unwrap() []error {
	errs := make([]error, len(l))
	for i, err := range l {
		errs[i] = err
	}
	return errs
}

func (l ErrorList) asError() error {
	if len(l) == 0 {
		return nil
	}
	return l
}

// AsDecodeError returns the first *DecodeError found in err's tree.
func AsDecodeError(err error) (*DecodeError, bool) {
	var de *DecodeError
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// Errors flattens err into its located decode failures.
func Errors(err error) []*DecodeError {
	var list ErrorList
	if errors.As(err, &list) {
		return list
	}
	if de, ok := AsDecodeError(err); ok {
		return []*DecodeError{de}
	}
	return nil
}

// prefix re-roots the path of every decode failure in err under p.
func prefix(p Path, err error) error {
	switch e := err.(type) {
	case nil:
		return nil
	case *DecodeError:
		return e.under(p)
	case ErrorList:
		out := make(ErrorList, len(e))
		for i, de := range e {
			out[i] = de.under(p)
		}
		return out
	default:
		return &DecodeError{Kind: KindDomain, Path: p, Err: err}
	}
}

func (e *DecodeError) under(p Path) *DecodeError {
	cp := *e
	cp.Path = make(Path, 0, len(p)+len(e.Path))
	cp.Path = append(cp.Path, p...)
	cp.Path = append(cp.Path, e.Path...)
	return &cp
}

func structural(want, got int) *DecodeError {
	return &DecodeError{
		Kind:     KindStructural,
		Expected: plural(want, "element"),
		Got:      plural(got, "element"),
	}
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return strconv.Itoa(n) + " " + noun + "s"
}
