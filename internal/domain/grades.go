package domain

import "fmt"

// GradeType is the closed set of column kinds a grade sheet may declare.
type GradeType int

const (
	GradeText GradeType = iota
	GradeNote
	GradeLogin
	GradeMoy
	GradePrst
	GradeEnumeration
	GradeUpload
	GradeMax
)

var gradeTypeTags = [...]string{
	GradeText:        "Text",
	GradeNote:        "Note",
	GradeLogin:       "Login",
	GradeMoy:         "Moy",
	GradePrst:        "Prst",
	GradeEnumeration: "Enumeration",
	GradeUpload:      "Upload",
	GradeMax:         "Max",
}

// String returns the feed tag for the type.
func (t GradeType) String() string {
	if t < 0 || int(t) >= len(gradeTypeTags) {
		return "GradeType(?)"
	}
	return gradeTypeTags[t]
}

// ParseGradeType maps a feed tag onto its GradeType. Tags are case-sensitive.
func ParseGradeType(tag string) (GradeType, bool) {
	switch tag {
	case "Text":
		return GradeText, true
	case "Note":
		return GradeNote, true
	case "Login":
		return GradeLogin, true
	case "Moy":
		return GradeMoy, true
	case "Prst":
		return GradePrst, true
	case "Enumeration":
		return GradeEnumeration, true
	case "Upload":
		return GradeUpload, true
	case "Max":
		return GradeMax, true
	default:
		return 0, false
	}
}

// MarshalText renders the feed tag.
func (t GradeType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText accepts the feed tag.
func (t *GradeType) UnmarshalText(b []byte) error {
	v, ok := ParseGradeType(string(b))
	if !ok {
		return fmt.Errorf("unknown grade type %q", b)
	}
	*t = v
	return nil
}

// FreezeState tells whether a column still accepts edits.
type FreezeState int

const (
	FreezeNone FreezeState = iota
	FreezeFrozen
	FreezeClosed
)

// Feed tags for FreezeState.
const (
	FreezeTagNone   = ""
	FreezeTagFrozen = "F"
	FreezeTagClosed = "C"
)

// String returns a readable name for the state.
func (s FreezeState) String() string {
	switch s {
	case FreezeNone:
		return "none"
	case FreezeFrozen:
		return "frozen"
	case FreezeClosed:
		return "closed"
	default:
		return "FreezeState(?)"
	}
}

// ParseFreezeState maps a feed tag onto its FreezeState.
func ParseFreezeState(tag string) (FreezeState, bool) {
	switch tag {
	case FreezeTagNone:
		return FreezeNone, true
	case FreezeTagFrozen:
		return FreezeFrozen, true
	case FreezeTagClosed:
		return FreezeClosed, true
	default:
		return 0, false
	}
}

// MarshalText renders the readable name.
func (s FreezeState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText accepts the readable name written by MarshalText.
func (s *FreezeState) UnmarshalText(b []byte) error {
	for _, v := range []FreezeState{FreezeNone, FreezeFrozen, FreezeClosed} {
		if v.String() == string(b) {
			*s = v
			return nil
		}
	}
	return fmt.Errorf("unknown freeze state %q", b)
}

// GradeColumn describes one column of a grade sheet.
type GradeColumn struct {
	ID      string      `json:"id"`
	Title   string      `json:"title"`
	Type    GradeType   `json:"type"`
	Width   int         `json:"width,omitempty"`
	Comment string      `json:"comment,omitempty"`
	Weight  *float64    `json:"weight,omitempty"`
	Freezed FreezeState `json:"freezed"`
	Author  string      `json:"author,omitempty"`
	MinMax  Opaque      `json:"minmax,omitempty"`
}

// GradeTable is one grade sheet as seen by a single student.
type GradeTable struct {
	UE       string        `json:"ue"`
	Year     int           `json:"year,omitempty"`
	Semester string        `json:"semester,omitempty"`
	Title    string        `json:"title,omitempty"`
	Masters  []Person      `json:"masters,omitempty"`
	Rounding float64       `json:"rounding"`
	Columns  []GradeColumn `json:"columns"`
	Line     []Opaque      `json:"line,omitempty"`
	Stats    Opaque        `json:"stats,omitempty"`
	Official bool          `json:"official"`
}
