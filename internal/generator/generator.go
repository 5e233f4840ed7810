package generator

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/vanshika/gradefeed/internal/domain"
	"github.com/vanshika/gradefeed/internal/extract"
)

// Feed is one generated pair-list blob.
type Feed struct {
	Name       string     `json:"name"`
	Login      string     `json:"login"`
	Corruption Corruption `json:"corruption,omitempty"`
	Blob       []byte     `json:"-"`
	Page       string     `json:"-"`
}

// Dataset contains the generated feeds.
type Dataset struct {
	Feeds []Feed `json:"feeds"`
}

// Generator produces synthetic feeds shaped like the portal's output.
type Generator struct {
	cfg  Config
	rand *rand.Rand
}

// New returns a configured Generator instance.
func New(cfg Config) *Generator {
	def := DefaultConfig()
	if cfg.NumFeeds <= 0 {
		cfg.NumFeeds = def.NumFeeds
	}
	if cfg.MaxTables <= 0 {
		cfg.MaxTables = def.MaxTables
	}
	if cfg.MaxColumns <= 0 {
		cfg.MaxColumns = def.MaxColumns
	}
	if len(cfg.Corruptions) == 0 {
		cfg.CorruptionChance = 0
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}
	return &Generator{
		cfg:  cfg,
		rand: rand.New(rand.NewSource(cfg.Seed)),
	}
}

// Generate synthesises the configured number of feeds. It respects context
// cancellation.
func (g *Generator) Generate(ctx context.Context) (Dataset, error) {
	feeds := make([]Feed, 0, g.cfg.NumFeeds)
	for i := 0; i < g.cfg.NumFeeds; i++ {
		if err := ctx.Err(); err != nil {
			return Dataset{}, err
		}
		corruption := CorruptNone
		if g.rand.Float64() < g.cfg.CorruptionChance {
			corruption = g.cfg.Corruptions[g.rand.Intn(len(g.cfg.Corruptions))]
		}
		f, err := g.Feed(fmt.Sprintf("p%07d", 1000000+i), corruption)
		if err != nil {
			return Dataset{}, err
		}
		f.Name = fmt.Sprintf("feed-%05d", i+1)
		feeds = append(feeds, f)
	}
	return Dataset{Feeds: feeds}, nil
}

// Feed builds one feed for login with the given defect.
func (g *Generator) Feed(login string, corruption Corruption) (Feed, error) {
	pairs := g.pairs(login, corruption)
	blob, err := json.Marshal(pairs)
	if err != nil {
		return Feed{}, fmt.Errorf("encode feed for %s: %w", login, err)
	}
	f := Feed{Name: login, Login: login, Corruption: corruption, Blob: blob}
	if g.cfg.Pages {
		f.Page = extract.Page(string(blob))
	}
	return f, nil
}

func (g *Generator) pairs(login string, corruption Corruption) []any {
	name, surname := g.pick(firstNames), g.pick(lastNames)
	mail := fmt.Sprintf("%s.%s@etu.example.fr", strings.ToLower(name), strings.ToLower(surname))
	if corruption == CorruptMissingAt {
		mail = fmt.Sprintf("%s.%s.etu.example.fr", strings.ToLower(name), strings.ToLower(surname))
	}
	goHome := g.rand.Intn(2)
	if corruption == CorruptBadFlag {
		goHome = 2 + g.rand.Intn(8)
	}

	grades := []any{g.tables(corruption), []any{}}
	if corruption == CorruptBadEnvelope {
		grades = []any{grades[0], []any{"unexpected"}}
	}

	return []any{
		[]any{"Login", login},
		[]any{"Names", []any{name, surname, mail}},
		[]any{"Civilite", g.pick([]string{"M.", "Mme"})},
		[]any{"GoHome", goHome},
		[]any{"Preferences", g.preferences()},
		[]any{"Abjs", g.absences()},
		[]any{"MemberOf", []any{
			[]any{
				fmt.Sprintf("CN=%s,OU=Groupes,DC=univ,DC=example", g.pick(groups)),
				"CN=etudiants,OU=Etudiants,DC=univ,DC=example",
			},
			[]any{[]any{"Semestre", g.pick(semesters)}},
		}},
		[]any{"Semesters", map[string]string{"2024/Automne": "S1", "2025/Printemps": "S2"}},
		[]any{"Grades", grades},
		[]any{"Advertising", g.rand.Intn(2) == 1},
		[]any{"Message", ""},
		[]any{"DA", []string{"INF", "MATH"}},
		[]any{"Profiling", map[string]int{"build": g.rand.Intn(200)}},
		[]any{"FST", map[string]any{"year": 2024}},
	}
}

func (g *Generator) preferences() map[string]int {
	prefs := map[string]int{
		"nr_lines":     10 + g.rand.Intn(40),
		"nr_favorites": g.rand.Intn(6),
	}
	for _, key := range preferenceKeys {
		if g.rand.Intn(3) == 0 {
			prefs[key] = g.rand.Intn(2)
		}
	}
	return prefs
}

func (g *Generator) absences() []any {
	n := g.rand.Intn(3)
	out := make([]any, 0, n)
	for i := 0; i < n; i++ {
		day := 1 + g.rand.Intn(27)
		out = append(out, []any{
			fmt.Sprintf("%02d/10/2024", day),
			fmt.Sprintf("%02d/10/2024", day+1),
			g.pick([]string{"maladie", "sport", "convocation"}),
		})
	}
	return out
}

func (g *Generator) tables(corruption Corruption) []any {
	n := 1 + g.rand.Intn(g.cfg.MaxTables)
	out := make([]any, 0, n)
	badTable := -1
	if corruption == CorruptUnknownType {
		badTable = g.rand.Intn(n)
	}
	for i := 0; i < n; i++ {
		out = append(out, g.table(i, i == badTable))
	}
	return out
}

func (g *Generator) table(idx int, badType bool) map[string]any {
	ncols := 1 + g.rand.Intn(g.cfg.MaxColumns)
	columns := make([]any, 0, ncols)
	line := make([]any, 0, ncols)
	for j := 0; j < ncols; j++ {
		typ := g.pick(gradeTypes)
		if badType && j == 0 {
			typ = "Bonus"
		}
		col := map[string]any{
			"the_id":  fmt.Sprintf("col_%d_%d", idx, j),
			"title":   g.pick(columnTitles),
			"type":    typ,
			"width":   1 + g.rand.Intn(4),
			"freezed": g.pick([]string{domain.FreezeTagNone, domain.FreezeTagFrozen, domain.FreezeTagClosed}),
			"author":  fmt.Sprintf("t%07d", g.rand.Intn(10000000)),
			"minmax":  "[0;20]",
		}
		if g.rand.Intn(2) == 0 {
			col["weight"] = strconv.FormatFloat(float64(1+g.rand.Intn(8))/2, 'f', -1, 64)
		}
		columns = append(columns, col)
		line = append(line, []any{strconv.FormatFloat(float64(g.rand.Intn(41))/2, 'f', -1, 64), "", ""})
	}

	first, last := g.pick(firstNames), g.pick(lastNames)
	master := []any{first, last, fmt.Sprintf("%s.%s@univ.example.fr", strings.ToLower(first), strings.ToLower(last))}

	return map[string]any{
		"ue":          fmt.Sprintf("UE-%s%04dL", g.pick([]string{"INF", "MAT", "PHY"}), 1000+g.rand.Intn(9000)),
		"year":        2024,
		"semester":    g.pick([]string{"Automne", "Printemps"}),
		"table_title": g.pick(tableTitles),
		"masters":     []any{master},
		"rounding":    g.pick([]string{"0", "0.01", "0.5"}),
		"columns":     columns,
		"line":        line,
		"stats":       map[string]any{"count": 1 + g.rand.Intn(300)},
		"official_ue": g.rand.Intn(2),
	}
}

func (g *Generator) pick(options []string) string {
	return options[g.rand.Intn(len(options))]
}

var (
	firstNames   = []string{"Ada", "Alan", "Grace", "Edsger", "Barbara", "Donald", "Margaret", "Niklaus", "Frances", "Tony"}
	lastNames    = []string{"Lovelace", "Turing", "Hopper", "Dijkstra", "Liskov", "Knuth", "Hamilton", "Wirth", "Allen", "Hoare"}
	groups       = []string{"L1-INF-G1", "L1-INF-G2", "L2-MATH-G1", "L3-PHY-G3"}
	semesters    = []string{"S1", "S2", "S3"}
	tableTitles  = []string{"Algorithmique", "Programmation", "Analyse", "Mécanique", "Réseaux"}
	columnTitles = []string{"CC1", "CC2", "TP", "Examen", "Moyenne", "Présence"}
	gradeTypes   = []string{"Note", "Moy", "Prst", "Text", "Enumeration", "Max", "Upload", "Login"}

	preferenceKeys = []string{
		"big_box", "black_and_white", "debug_table", "display_tips", "filter_on_all",
		"green_prst", "hide_empty", "hide_right_column", "highlight_grade", "invert_name",
		"no_teacher_color", "one_line_more", "page_title", "pdf_export", "rss",
		"show_abj", "show_comments", "unmodifiable_warning",
	}
)
