package feed

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanshika/gradefeed/internal/domain"
)

func TestDecodeGradeFeedKeepsOrder(t *testing.T) {
	envelope := []any{
		[]any{
			table("UE-A", column("c1", "Note")),
			table("UE-B", column("c1", "Moy"), column("c2", "Text")),
			table("UE-C"),
		},
		[]any{},
	}
	tables, skipped, err := decodeGradeFeed(mustJSON(t, envelope), false)
	require.NoError(t, err)
	assert.Empty(t, skipped)
	require.Len(t, tables, 3)
	assert.Equal(t, "UE-A", tables[0].UE)
	assert.Equal(t, "UE-B", tables[1].UE)
	assert.Equal(t, "UE-C", tables[2].UE)
	assert.Equal(t, domain.GradeMoy, tables[1].Columns[0].Type)
	assert.Empty(t, tables[2].Columns)
}

func TestDecodeGradeFeedEnvelope(t *testing.T) {
	cases := []struct {
		name string
		in   string
		kind Kind
		path string
	}{
		{"reserved slot not empty", `[[], [1]]`, KindStructural, "[1]"},
		{"reserved slot not array", `[[], {}]`, KindTypeMismatch, "[1]"},
		{"one element", `[[]]`, KindStructural, ""},
		{"three elements", `[[], [], []]`, KindStructural, ""},
		{"not an array", `{"tables": []}`, KindTypeMismatch, ""},
		{"tables not an array", `["x", []]`, KindTypeMismatch, "[0]"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := decodeGradeFeed(raw(tc.in), false)
			requireDecodeError(t, err, tc.kind, tc.path)
		})
	}
}

func TestDecodeGradeFeedReservedSlotLength(t *testing.T) {
	_, _, err := decodeGradeFeed(raw(`[[], ["x", "y"]]`), true)
	de := requireDecodeError(t, err, KindStructural, "[1]")
	assert.Equal(t, "0 elements", de.Expected)
	assert.Equal(t, "2 elements", de.Got)
}

func TestDecodeGradeFeedAggregatesTableErrors(t *testing.T) {
	envelope := []any{
		[]any{
			table("UE-A", column("c1", "Bonus")),
			table("UE-B", column("c1", "Note")),
			map[string]any{"columns": []any{}},
		},
		[]any{},
	}
	_, _, err := decodeGradeFeed(mustJSON(t, envelope), false)
	require.Error(t, err)

	var list ErrorList
	require.True(t, errors.As(err, &list))
	require.Len(t, list, 2)
	assert.Equal(t, "[0][0].columns[0].type", list[0].Path.String())
	assert.Equal(t, KindDomain, list[0].Kind)
	assert.Equal(t, "[0][2].ue", list[1].Path.String())
	assert.Equal(t, KindMissingField, list[1].Kind)
	assert.True(t, errors.Is(err, ErrMissingField))
}

func TestDecodeGradeFeedSkipMalformed(t *testing.T) {
	envelope := []any{
		[]any{
			table("UE-A", column("c1", "Bonus")),
			table("UE-B", column("c1", "Note")),
		},
		[]any{},
	}
	tables, skipped, err := decodeGradeFeed(mustJSON(t, envelope), true)
	require.NoError(t, err)
	require.Len(t, tables, 1)
	assert.Equal(t, "UE-B", tables[0].UE)
	require.Len(t, skipped, 1)
	assert.Equal(t, "[0][0].columns[0].type", skipped[0].Path.String())
}

func TestDecodeGradeTableFields(t *testing.T) {
	in := `{
		"ue": "UE-INF1001L",
		"year": 2024,
		"semester": "Automne",
		"table_title": "Algorithmique",
		"masters": [["Alan", "Turing", "alan@example.com"]],
		"rounding": "0.25",
		"official_ue": 1,
		"stats": {"avg": [12.5, 3]},
		"line": [["12", "turing", "20240101"], null],
		"columns": [{
			"the_id": "0_1",
			"title": "CC1",
			"type": "Note",
			"width": 4,
			"comment": "first test",
			"weight": "1.5",
			"freezed": "F",
			"minmax": "[0;20]",
			"author": "turing"
		}, {
			"the_id": "0_2",
			"title": "Moyenne",
			"type": "Moy"
		}]
	}`
	got, err := decodeGradeTable(raw(in))
	require.NoError(t, err)
	assert.Equal(t, "UE-INF1001L", got.UE)
	assert.Equal(t, 2024, got.Year)
	assert.Equal(t, "Algorithmique", got.Title)
	assert.Equal(t, []domain.Person{{Name: "Alan", Surname: "Turing", Mail: "alan@example.com"}}, got.Masters)
	assert.Equal(t, 0.25, got.Rounding)
	assert.True(t, got.Official)
	assert.JSONEq(t, `{"avg": [12.5, 3]}`, string(got.Stats))
	require.Len(t, got.Line, 2)
	assert.Equal(t, "null", string(got.Line[1]))

	require.Len(t, got.Columns, 2)
	c := got.Columns[0]
	assert.Equal(t, domain.GradeNote, c.Type)
	require.NotNil(t, c.Weight)
	assert.Equal(t, 1.5, *c.Weight)
	assert.Equal(t, domain.FreezeFrozen, c.Freezed)
	assert.Equal(t, `"[0;20]"`, string(c.MinMax))

	d := got.Columns[1]
	assert.Nil(t, d.Weight)
	assert.Equal(t, domain.FreezeNone, d.Freezed)
}

func TestDecodeGradeColumnErrors(t *testing.T) {
	cases := []struct {
		name string
		in   string
		kind Kind
		path string
	}{
		{"unknown type", `{"the_id": "a", "title": "t", "type": "Bonus"}`, KindDomain, "type"},
		{"missing type", `{"the_id": "a", "title": "t"}`, KindMissingField, "type"},
		{"bad weight", `{"the_id": "a", "title": "t", "type": "Note", "weight": "heavy"}`, KindDomain, "weight"},
		{"numeric weight", `{"the_id": "a", "title": "t", "type": "Note", "weight": 2}`, KindTypeMismatch, "weight"},
		{"infinite weight", `{"the_id": "a", "title": "t", "type": "Note", "weight": "Inf"}`, KindDomain, "weight"},
		{"bad freeze", `{"the_id": "a", "title": "t", "type": "Note", "freezed": "Z"}`, KindDomain, "freezed"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := decodeGradeColumn(raw(tc.in))
			requireDecodeError(t, err, tc.kind, tc.path)
		})
	}
}

func TestDecodeGradeTableRejectsNonFiniteFloats(t *testing.T) {
	tbl := table("UE-X", column("0_1", "Note"))
	tbl["rounding"] = "NaN"
	_, err := decodeGradeTable(mustJSON(t, tbl))
	de := requireDecodeError(t, err, KindDomain, "rounding")
	assert.Equal(t, "finite floating-point", de.Expected)

	col := column("0_1", "Note")
	col["weight"] = "-Inf"
	tbl = table("UE-X", col)
	_, err = decodeGradeTable(mustJSON(t, tbl))
	requireDecodeError(t, err, KindDomain, "columns[0].weight")
}
