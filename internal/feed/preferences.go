package feed

import (
	"encoding/json"

	"github.com/vanshika/gradefeed/internal/domain"
)

func flag(name string, at func(*domain.Preferences) *bool) field[domain.Preferences] {
	return optional(name, bind(IntBool, at))
}

// preferenceFields: every flag is an integer-domain boolean; absent flags
// stay false and unknown keys are ignored.
var preferenceFields = []field[domain.Preferences]{
	flag("big_box", func(p *domain.Preferences) *bool { return &p.BigBox }),
	flag("black_and_white", func(p *domain.Preferences) *bool { return &p.BlackAndWhite }),
	flag("debug_table", func(p *domain.Preferences) *bool { return &p.DebugTable }),
	flag("display_tips", func(p *domain.Preferences) *bool { return &p.DisplayTips }),
	flag("filter_on_all", func(p *domain.Preferences) *bool { return &p.FilterOnAll }),
	flag("green_prst", func(p *domain.Preferences) *bool { return &p.GreenPrst }),
	flag("hide_empty", func(p *domain.Preferences) *bool { return &p.HideEmpty }),
	flag("hide_right_column", func(p *domain.Preferences) *bool { return &p.HideRightColumn }),
	flag("highlight_grade", func(p *domain.Preferences) *bool { return &p.HighlightGrade }),
	flag("invert_name", func(p *domain.Preferences) *bool { return &p.InvertName }),
	flag("no_teacher_color", func(p *domain.Preferences) *bool { return &p.NoTeacherColor }),
	flag("one_line_more", func(p *domain.Preferences) *bool { return &p.OneLineMore }),
	flag("page_title", func(p *domain.Preferences) *bool { return &p.PageTitle }),
	flag("pdf_export", func(p *domain.Preferences) *bool { return &p.PDFExport }),
	flag("rss", func(p *domain.Preferences) *bool { return &p.RSS }),
	flag("show_abj", func(p *domain.Preferences) *bool { return &p.ShowAbj }),
	flag("show_comments", func(p *domain.Preferences) *bool { return &p.ShowComments }),
	flag("unmodifiable_warning", func(p *domain.Preferences) *bool { return &p.UnmodifiableWarning }),

	optional("nr_favorites", bind(Int, func(p *domain.Preferences) *int { return &p.NrFavorites })),
	optional("nr_lines", bind(Int, func(p *domain.Preferences) *int { return &p.NrLines })),
}

// PreferenceFlags lists the feed keys of the boolean preferences.
func PreferenceFlags() []string {
	var names []string
	for _, f := range preferenceFields {
		if f.name != "nr_favorites" && f.name != "nr_lines" {
			names = append(names, f.name)
		}
	}
	return names
}

func decodePreferences(raw json.RawMessage) (domain.Preferences, error) {
	return decodeObject(raw, preferenceFields)
}
