package domain

import "encoding/json"

// Opaque holds a feed value whose shape is not modelled. It is passed through
// untouched and never validated.
type Opaque json.RawMessage

// MarshalJSON emits the raw bytes, or null when nothing was captured.
func (o Opaque) MarshalJSON() ([]byte, error) {
	if len(o) == 0 {
		return []byte("null"), nil
	}
	return o, nil
}

// UnmarshalJSON keeps a copy of the raw bytes.
func (o *Opaque) UnmarshalJSON(data []byte) error {
	*o = append((*o)[:0], data...)
	return nil
}

// Person is a name/surname/mail triple.
type Person struct {
	Name    string `json:"name"`
	Surname string `json:"surname"`
	Mail    string `json:"mail"`
}

// JustifiedAbsence is an excused absence interval. Dates are kept verbatim.
type JustifiedAbsence struct {
	Start   string `json:"start"`
	End     string `json:"end"`
	Comment string `json:"comment"`
}

// Preferences are the display settings a student picked in the portal.
type Preferences struct {
	BigBox              bool `json:"big_box"`
	BlackAndWhite       bool `json:"black_and_white"`
	DebugTable          bool `json:"debug_table"`
	DisplayTips         bool `json:"display_tips"`
	FilterOnAll         bool `json:"filter_on_all"`
	GreenPrst           bool `json:"green_prst"`
	HideEmpty           bool `json:"hide_empty"`
	HideRightColumn     bool `json:"hide_right_column"`
	HighlightGrade      bool `json:"highlight_grade"`
	InvertName          bool `json:"invert_name"`
	NoTeacherColor      bool `json:"no_teacher_color"`
	OneLineMore         bool `json:"one_line_more"`
	PageTitle           bool `json:"page_title"`
	PDFExport           bool `json:"pdf_export"`
	RSS                 bool `json:"rss"`
	ShowAbj             bool `json:"show_abj"`
	ShowComments        bool `json:"show_comments"`
	UnmodifiableWarning bool `json:"unmodifiable_warning"`

	NrFavorites int `json:"nr_favorites"`
	NrLines     int `json:"nr_lines"`
}

// Group is one LDAP membership reduced to its common name and organisational unit.
type Group struct {
	DN string `json:"dn"`
	CN string `json:"cn"`
	OU string `json:"ou,omitempty"`
}

// OtherGroup is an auxiliary membership kept as a label and an untouched value.
type OtherGroup struct {
	Label string `json:"label"`
	Value Opaque `json:"value"`
}

// MemberOf lists the directory groups a student belongs to.
type MemberOf struct {
	Groups []Group      `json:"groups"`
	Others []OtherGroup `json:"others"`
}

// Record is the fully decoded student feed.
type Record struct {
	Login       string             `json:"login"`
	Names       Person             `json:"names"`
	Civilite    string             `json:"civilite"`
	GoHome      bool               `json:"go_home"`
	Grades      []GradeTable       `json:"grades"`
	Preferences Preferences        `json:"preferences"`
	Abjs        []JustifiedAbsence `json:"abjs"`
	MemberOf    MemberOf           `json:"member_of"`
	Semesters   map[string]string  `json:"semesters"`

	Advertising   bool `json:"advertising"`
	PictureUpload bool `json:"picture_upload"`

	Explanation   string `json:"explanation,omitempty"`
	Message       string `json:"message,omitempty"`
	MoreOnSuivi   string `json:"more_on_suivi,omitempty"`
	Logo          string `json:"logo,omitempty"`
	Compte        string `json:"compte,omitempty"`
	Charte        string `json:"charte,omitempty"`
	Signature     string `json:"signature,omitempty"`
	BilanAPOGEE   string `json:"bilan_apogee,omitempty"`
	SetReferent   string `json:"set_referent,omitempty"`
	Bilan         string `json:"bilan,omitempty"`
	BirthDate     string `json:"birth_date,omitempty"`
	EDT           string `json:"edt,omitempty"`
	IAScol        string `json:"ia_scol,omitempty"`
	Tables        string `json:"tables,omitempty"`
	Notes         string `json:"notes,omitempty"`
	Students      string `json:"students,omitempty"`
	FFSU          string `json:"ffsu,omitempty"`
	TT            string `json:"tt,omitempty"`
	RSSURL        string `json:"rss,omitempty"`
	Questionnaire string `json:"questionnaire,omitempty"`
	ReferentNP    string `json:"referent_np,omitempty"`
	Mails         string `json:"mails,omitempty"`
	ChoixTVL      string `json:"choix_tvl,omitempty"`
	RdV           string `json:"rdv,omitempty"`

	GrpMessages []string          `json:"grp_messages,omitempty"`
	DA          []string          `json:"da,omitempty"`
	UETree      map[string]string `json:"ue_tree,omitempty"`
	Profiling   map[string]int    `json:"profiling,omitempty"`

	// Passthrough fields: not validated.
	FST        Opaque `json:"fst,omitempty"`
	Referent   Opaque `json:"referent,omitempty"`
	ACLS       Opaque `json:"acls,omitempty"`
	RSSStream  Opaque `json:"rss_stream,omitempty"`
	IPAnnuelle Opaque `json:"ip_annuelle,omitempty"`
	PTemplate  Opaque `json:"p_template,omitempty"`
}
