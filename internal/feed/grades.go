package feed

import (
	"encoding/json"

	"github.com/vanshika/gradefeed/internal/domain"
)

var gradeTableFields = []field[domain.GradeTable]{
	required("ue", bind(String, func(t *domain.GradeTable) *string { return &t.UE })),
	optional("year", bind(Int, func(t *domain.GradeTable) *int { return &t.Year })),
	optional("semester", bind(String, func(t *domain.GradeTable) *string { return &t.Semester })),
	optional("table_title", bind(String, func(t *domain.GradeTable) *string { return &t.Title })),
	optional("masters", bind(decodePeople, func(t *domain.GradeTable) *[]domain.Person { return &t.Masters })),
	optional("rounding", bind(StrFloat, func(t *domain.GradeTable) *float64 { return &t.Rounding })),
	required("columns", bind(decodeColumns, func(t *domain.GradeTable) *[]domain.GradeColumn { return &t.Columns })),
	optional("line", bind(decodeLine, func(t *domain.GradeTable) *[]domain.Opaque { return &t.Line })),
	optional("stats", bind(Passthrough, func(t *domain.GradeTable) *domain.Opaque { return &t.Stats })),
	optional("official_ue", bind(IntBool, func(t *domain.GradeTable) *bool { return &t.Official })),
}

var gradeColumnFields = []field[domain.GradeColumn]{
	required("the_id", bind(String, func(c *domain.GradeColumn) *string { return &c.ID })),
	required("title", bind(String, func(c *domain.GradeColumn) *string { return &c.Title })),
	required("type", bind(GradeTypeTag, func(c *domain.GradeColumn) *domain.GradeType { return &c.Type })),
	optional("width", bind(Int, func(c *domain.GradeColumn) *int { return &c.Width })),
	optional("comment", bind(String, func(c *domain.GradeColumn) *string { return &c.Comment })),
	optional("weight", bind(weight, func(c *domain.GradeColumn) **float64 { return &c.Weight })),
	optional("freezed", bind(Freeze, func(c *domain.GradeColumn) *domain.FreezeState { return &c.Freezed })),
	optional("minmax", bind(Passthrough, func(c *domain.GradeColumn) *domain.Opaque { return &c.MinMax })),
	optional("author", bind(String, func(c *domain.GradeColumn) *string { return &c.Author })),
}

func weight(raw json.RawMessage) (*float64, error) {
	v, err := StrFloat(raw)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func decodeGradeTable(raw json.RawMessage) (domain.GradeTable, error) {
	return decodeObject(raw, gradeTableFields)
}

func decodeGradeColumn(raw json.RawMessage) (domain.GradeColumn, error) {
	return decodeObject(raw, gradeColumnFields)
}

func decodeColumns(raw json.RawMessage) ([]domain.GradeColumn, error) {
	return listOf(raw, decodeGradeColumn)
}

func decodeLine(raw json.RawMessage) ([]domain.Opaque, error) {
	return listOf(raw, Passthrough)
}

// decodeGradeFeed decodes the [[table...], []] envelope.
//
// Table failures are independent of each other and are collected into an
// ErrorList rather than stopping at the first one. When skip is false any
// table failure fails the envelope; when skip is true the malformed tables
// are dropped and returned as skipped.
func decodeGradeFeed(raw json.RawMessage, skip bool) ([]domain.GradeTable, ErrorList, error) {
	elems, err := tuple(raw, 2)
	if err != nil {
		return nil, nil, err
	}
	reserved, err := elements(elems[1])
	if err != nil {
		return nil, nil, prefix(Path{}.Index(1), err)
	}
	if len(reserved) != 0 {
		return nil, nil, prefix(Path{}.Index(1), structural(0, len(reserved)))
	}
	rows, err := elements(elems[0])
	if err != nil {
		return nil, nil, prefix(Path{}.Index(0), err)
	}

	tables := make([]domain.GradeTable, 0, len(rows))
	var failed ErrorList
	for i, row := range rows {
		table, err := decodeGradeTable(row)
		if err != nil {
			failed = append(failed, Errors(prefix(Path{}.Index(0).Index(i), err))...)
			continue
		}
		tables = append(tables, table)
	}
	if len(failed) > 0 && !skip {
		return nil, nil, failed
	}
	return tables, failed, nil
}
