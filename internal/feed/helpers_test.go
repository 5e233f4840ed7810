package feed

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func minimalPairs() []any {
	return []any{
		[]any{"Login", "p1234567"},
		[]any{"Names", []any{"Ada", "Lovelace", "ada@example.com"}},
		[]any{"Civilite", "Mme"},
		[]any{"GoHome", 0},
		[]any{"Preferences", map[string]any{}},
		[]any{"Abjs", []any{}},
		[]any{"MemberOf", []any{[]any{}, []any{}}},
		[]any{"Semesters", map[string]any{}},
		[]any{"Grades", []any{[]any{}, []any{}}},
	}
}

// withPair replaces the value of key, or appends the pair when key is new.
func withPair(pairs []any, key string, value any) []any {
	out := make([]any, 0, len(pairs)+1)
	replaced := false
	for _, p := range pairs {
		kv := p.([]any)
		if kv[0] == key {
			out = append(out, []any{key, value})
			replaced = true
			continue
		}
		out = append(out, p)
	}
	if !replaced {
		out = append(out, []any{key, value})
	}
	return out
}

func withoutPair(pairs []any, key string) []any {
	out := make([]any, 0, len(pairs))
	for _, p := range pairs {
		if p.([]any)[0] == key {
			continue
		}
		out = append(out, p)
	}
	return out
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

func raw(s string) json.RawMessage {
	return json.RawMessage(s)
}

func requireDecodeError(t *testing.T, err error, kind Kind, path string) *DecodeError {
	t.Helper()
	require.Error(t, err)
	de, ok := AsDecodeError(err)
	require.True(t, ok, "expected *DecodeError, got %T: %v", err, err)
	require.Equal(t, kind, de.Kind, "error: %v", de)
	require.Equal(t, path, de.Path.String(), "error: %v", de)
	return de
}

func table(ue string, columns ...any) map[string]any {
	if columns == nil {
		columns = []any{}
	}
	return map[string]any{
		"ue":      ue,
		"columns": columns,
	}
}

func column(id, typ string) map[string]any {
	return map[string]any{
		"the_id": id,
		"title":  "col " + id,
		"type":   typ,
	}
}
