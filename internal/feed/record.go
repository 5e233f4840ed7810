package feed

import (
	"encoding/json"

	"github.com/vanshika/gradefeed/internal/domain"
)

// Options tunes a Decoder.
type Options struct {
	Duplicates        DuplicatePolicy
	Workers           int
	ParallelThreshold int
	// SkipMalformedTables drops grade tables that fail to decode and reports
	// them in Result.Skipped instead of failing the whole record.
	SkipMalformedTables bool
}

// Result is a decoded record plus the grade tables dropped on the way.
type Result struct {
	Record  domain.Record
	Skipped ErrorList
}

// Decoder runs the full pipeline: pair normalization then typed decoding.
// It holds no per-call state and is safe for concurrent use.
type Decoder struct {
	normalizer *Normalizer
	skip       bool
}

// NewDecoder builds a Decoder from opts.
func NewDecoder(opts Options) *Decoder {
	return &Decoder{
		normalizer: NewNormalizer(opts.Duplicates, opts.Workers, opts.ParallelThreshold),
		skip:       opts.SkipMalformedTables,
	}
}

// Decode normalizes blob and decodes it into a Record.
func (d *Decoder) Decode(blob []byte) (Result, error) {
	m, err := d.normalizer.Normalize(blob)
	if err != nil {
		return Result{}, err
	}
	return d.DecodeMap(m)
}

// DecodeMap decodes an already normalized feed.
func (d *Decoder) DecodeMap(m Map) (Result, error) {
	st := recordState{skip: d.skip}
	if err := decodeFields(m, recordFields, &st); err != nil {
		return Result{}, err
	}
	return Result{Record: st.rec, Skipped: st.skipped}, nil
}

// Decode runs the pipeline with default options.
func Decode(blob []byte) (domain.Record, error) {
	res, err := NewDecoder(Options{}).Decode(blob)
	return res.Record, err
}

type recordState struct {
	rec     domain.Record
	skip    bool
	skipped ErrorList
}

// rec adapts an accessor on domain.Record to the per-call state.
func rec[V any](at func(*domain.Record) *V) func(*recordState) *V {
	return func(st *recordState) *V { return at(&st.rec) }
}

func str(name string, at func(*domain.Record) *string) field[recordState] {
	return optional(name, bind(String, rec(at)))
}

func opaque(name string, at func(*domain.Record) *domain.Opaque) field[recordState] {
	return optional(name, bind(Passthrough, rec(at)))
}

func decodeGradesField(raw json.RawMessage, st *recordState) error {
	tables, skipped, err := decodeGradeFeed(raw, st.skip)
	if err != nil {
		return err
	}
	st.rec.Grades = tables
	if len(skipped) > 0 {
		st.skipped = append(st.skipped, Errors(prefix(Path{}.Field("Grades"), skipped))...)
	}
	return nil
}

// recordFields is the top-level field table. Required fields come first and
// are checked in this order.
var recordFields = []field[recordState]{
	required("Login", bind(String, rec(func(r *domain.Record) *string { return &r.Login }))),
	required("Names", bind(decodePerson, rec(func(r *domain.Record) *domain.Person { return &r.Names }))),
	required("Civilite", bind(String, rec(func(r *domain.Record) *string { return &r.Civilite }))),
	required("GoHome", bind(IntBool, rec(func(r *domain.Record) *bool { return &r.GoHome }))),
	required("Preferences", bind(decodePreferences, rec(func(r *domain.Record) *domain.Preferences { return &r.Preferences }))),
	required("Abjs", bind(decodeAbsences, rec(func(r *domain.Record) *[]domain.JustifiedAbsence { return &r.Abjs }))),
	required("MemberOf", bind(decodeMemberOf, rec(func(r *domain.Record) *domain.MemberOf { return &r.MemberOf }))),
	required("Semesters", bind(StringMap, rec(func(r *domain.Record) *map[string]string { return &r.Semesters }))),
	required("Grades", decodeGradesField),

	optional("Advertising", bind(Bool, rec(func(r *domain.Record) *bool { return &r.Advertising }))),
	optional("PictureUpload", bind(Bool, rec(func(r *domain.Record) *bool { return &r.PictureUpload }))),

	str("Explanation", func(r *domain.Record) *string { return &r.Explanation }),
	str("Message", func(r *domain.Record) *string { return &r.Message }),
	str("MoreOnSuivi", func(r *domain.Record) *string { return &r.MoreOnSuivi }),
	str("Logo", func(r *domain.Record) *string { return &r.Logo }),
	str("Compte", func(r *domain.Record) *string { return &r.Compte }),
	str("Charte", func(r *domain.Record) *string { return &r.Charte }),
	str("Signature", func(r *domain.Record) *string { return &r.Signature }),
	str("BilanAPOGEE", func(r *domain.Record) *string { return &r.BilanAPOGEE }),
	str("SetReferent", func(r *domain.Record) *string { return &r.SetReferent }),
	str("Bilan", func(r *domain.Record) *string { return &r.Bilan }),
	str("DateDeNaissance", func(r *domain.Record) *string { return &r.BirthDate }),
	str("EDT", func(r *domain.Record) *string { return &r.EDT }),
	str("IA_scol", func(r *domain.Record) *string { return &r.IAScol }),
	str("Tables", func(r *domain.Record) *string { return &r.Tables }),
	str("Notes", func(r *domain.Record) *string { return &r.Notes }),
	str("Students", func(r *domain.Record) *string { return &r.Students }),
	str("FFSU", func(r *domain.Record) *string { return &r.FFSU }),
	str("TT", func(r *domain.Record) *string { return &r.TT }),
	str("RSS", func(r *domain.Record) *string { return &r.RSSURL }),
	str("Questionnaire", func(r *domain.Record) *string { return &r.Questionnaire }),
	str("ReferentNP", func(r *domain.Record) *string { return &r.ReferentNP }),
	str("Mails", func(r *domain.Record) *string { return &r.Mails }),
	str("choix_TVL", func(r *domain.Record) *string { return &r.ChoixTVL }),
	str("RdV", func(r *domain.Record) *string { return &r.RdV }),

	optional("GrpMessages", bind(Strings, rec(func(r *domain.Record) *[]string { return &r.GrpMessages }))),
	optional("DA", bind(Strings, rec(func(r *domain.Record) *[]string { return &r.DA }))),
	optional("UETree", bind(StringMap, rec(func(r *domain.Record) *map[string]string { return &r.UETree }))),
	optional("Profiling", bind(IntMap, rec(func(r *domain.Record) *map[string]int { return &r.Profiling }))),

	opaque("FST", func(r *domain.Record) *domain.Opaque { return &r.FST }),
	opaque("Referent", func(r *domain.Record) *domain.Opaque { return &r.Referent }),
	opaque("ACLS", func(r *domain.Record) *domain.Opaque { return &r.ACLS }),
	opaque("RSSStream", func(r *domain.Record) *domain.Opaque { return &r.RSSStream }),
	opaque("IPAnnuelle", func(r *domain.Record) *domain.Opaque { return &r.IPAnnuelle }),
	opaque("P_template", func(r *domain.Record) *domain.Opaque { return &r.PTemplate }),
}

// FieldNames lists the top-level keys the decoder understands, in table order.
func FieldNames() []string {
	names := make([]string, len(recordFields))
	for i, f := range recordFields {
		names[i] = f.name
	}
	return names
}

// RequiredFieldNames lists the keys that must be present in every feed.
func RequiredFieldNames() []string {
	var names []string
	for _, f := range recordFields {
		if f.required {
			names = append(names, f.name)
		}
	}
	return names
}
