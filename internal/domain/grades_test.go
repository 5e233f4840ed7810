package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGradeTypeTags(t *testing.T) {
	for gt := GradeText; gt <= GradeMax; gt++ {
		parsed, ok := ParseGradeType(gt.String())
		require.True(t, ok, gt.String())
		assert.Equal(t, gt, parsed)
	}
	_, ok := ParseGradeType("note")
	assert.False(t, ok)
	assert.Equal(t, "GradeType(?)", GradeType(42).String())
}

func TestColumnJSON(t *testing.T) {
	w := 1.5
	col := GradeColumn{ID: "c", Title: "CC", Type: GradeEnumeration, Weight: &w, Freezed: FreezeClosed}
	b, err := json.Marshal(col)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"c","title":"CC","type":"Enumeration","weight":1.5,"freezed":"closed"}`, string(b))

	var back GradeColumn
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, col, back)

	assert.Error(t, json.Unmarshal([]byte(`{"type":"Bonus"}`), &back))
	assert.Error(t, json.Unmarshal([]byte(`{"freezed":"F"}`), &back))
}

func TestOpaque(t *testing.T) {
	var o Opaque
	b, err := json.Marshal(struct {
		V Opaque `json:"v"`
	}{o})
	require.NoError(t, err)
	assert.JSONEq(t, `{"v":null}`, string(b))

	require.NoError(t, json.Unmarshal([]byte(`{"a":[1,2]}`), &o))
	assert.Equal(t, `{"a":[1,2]}`, string(o))
}

func TestSnapshotSummary(t *testing.T) {
	snap := Snapshot{ID: "s", Login: "p1", Record: Record{GoHome: true, Grades: make([]GradeTable, 3)}}
	sum := snap.Summary()
	assert.Equal(t, 3, sum.TableCount)
	assert.True(t, sum.GoHome)
	assert.Equal(t, "p1", sum.Login)
}
