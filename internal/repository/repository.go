package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/vanshika/gradefeed/internal/domain"
	"github.com/vanshika/gradefeed/internal/graph"
)

const (
	defaultListLimit = 20
	maxListLimit     = 200
)

// ErrSnapshotNotFound is returned by LoadSnapshot for unknown ids.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// Repository stores decoded snapshots in the graph.
type Repository struct {
	client graph.Client
}

// New instantiates a Repository backed by the supplied graph client.
func New(client graph.Client) *Repository {
	return &Repository{client: client}
}

// SaveSnapshot writes the snapshot node, its grade tables, their columns and
// the teachers of each table in one transaction.
func (r *Repository) SaveSnapshot(ctx context.Context, snap domain.Snapshot) error {
	if snap.ID == "" {
		return errors.New("snapshot id is required")
	}
	if snap.Login == "" {
		return errors.New("snapshot login is required")
	}

	body, err := json.Marshal(snap.Record)
	if err != nil {
		return fmt.Errorf("encode snapshot %s: %w", snap.ID, err)
	}

	statements := []graph.Statement{
		{
			Query: saveSnapshotCypher,
			Params: map[string]any{
				"login":      snap.Login,
				"snapshotId": snap.ID,
				"props":      snapshotProperties(snap, string(body)),
				"student":    studentProperties(snap.Record),
			},
		},
	}
	if tables := tableParams(snap.Record.Grades); len(tables) > 0 {
		statements = append(statements, graph.Statement{
			Query:  saveTablesCypher,
			Params: map[string]any{"snapshotId": snap.ID, "tables": tables},
		})
	}

	if err := r.client.ExecuteBatch(ctx, statements); err != nil {
		return fmt.Errorf("save snapshot %s: %w", snap.ID, err)
	}
	return nil
}

// ListSnapshots returns the newest snapshot headers of a student.
func (r *Repository) ListSnapshots(ctx context.Context, login string, limit int) ([]domain.SnapshotSummary, error) {
	if login == "" {
		return nil, errors.New("login is required")
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	res, err := r.client.ExecuteRead(ctx, listSnapshotsCypher, map[string]any{
		"login": login,
		"limit": int64(limit),
	})
	if err != nil {
		return nil, fmt.Errorf("list snapshots for %s: %w", login, err)
	}

	out := make([]domain.SnapshotSummary, 0, len(res.Records))
	for _, record := range res.Records {
		out = append(out, domain.SnapshotSummary{
			ID:         toString(record["snapshotId"]),
			Login:      login,
			FetchedAt:  toTime(record["fetchedAt"]),
			TableCount: int(toInt64(record["tableCount"])),
			GoHome:     toBool(record["goHome"]),
		})
	}
	return out, nil
}

// LoadSnapshot returns a stored snapshot with its decoded record.
func (r *Repository) LoadSnapshot(ctx context.Context, id string) (domain.Snapshot, error) {
	if id == "" {
		return domain.Snapshot{}, errors.New("snapshot id is required")
	}

	res, err := r.client.ExecuteRead(ctx, loadSnapshotCypher, map[string]any{"snapshotId": id})
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("load snapshot %s: %w", id, err)
	}
	if len(res.Records) == 0 {
		return domain.Snapshot{}, ErrSnapshotNotFound
	}

	record := res.Records[0]
	snap := domain.Snapshot{
		ID:        id,
		Login:     toString(record["login"]),
		FetchedAt: toTime(record["fetchedAt"]),
	}
	if err := json.Unmarshal([]byte(toString(record["record"])), &snap.Record); err != nil {
		return domain.Snapshot{}, fmt.Errorf("decode stored snapshot %s: %w", id, err)
	}
	return snap, nil
}

func snapshotProperties(snap domain.Snapshot, body string) map[string]any {
	return map[string]any{
		"fetchedAt":  formatTime(snap.FetchedAt),
		"goHome":     snap.Record.GoHome,
		"tableCount": int64(len(snap.Record.Grades)),
		"record":     body,
	}
}

func studentProperties(rec domain.Record) map[string]any {
	return map[string]any{
		"name":     rec.Names.Name,
		"surname":  rec.Names.Surname,
		"mail":     rec.Names.Mail,
		"civilite": rec.Civilite,
	}
}

func tableParams(tables []domain.GradeTable) []map[string]any {
	out := make([]map[string]any, 0, len(tables))
	for i, t := range tables {
		columns := make([]map[string]any, 0, len(t.Columns))
		for j, c := range t.Columns {
			col := map[string]any{
				"position": int64(j),
				"columnId": c.ID,
				"title":    c.Title,
				"type":     c.Type.String(),
				"freezed":  c.Freezed.String(),
				"author":   c.Author,
			}
			if c.Weight != nil {
				col["weight"] = *c.Weight
			}
			columns = append(columns, col)
		}
		masters := make([]map[string]any, 0, len(t.Masters))
		for _, m := range t.Masters {
			masters = append(masters, map[string]any{
				"mail":    m.Mail,
				"name":    m.Name,
				"surname": m.Surname,
			})
		}
		out = append(out, map[string]any{
			"position": int64(i),
			"props": map[string]any{
				"ue":       t.UE,
				"year":     int64(t.Year),
				"semester": t.Semester,
				"title":    t.Title,
				"rounding": t.Rounding,
				"official": t.Official,
			},
			"columns": columns,
			"masters": masters,
		})
	}
	return out
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func toString(val any) string {
	switch v := val.(type) {
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	case []byte:
		return string(v)
	default:
		return ""
	}
}

func toInt64(val any) int64 {
	switch v := val.(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	default:
		return 0
	}
}

func toBool(val any) bool {
	b, _ := val.(bool)
	return b
}

func toTime(val any) time.Time {
	switch v := val.(type) {
	case time.Time:
		return v
	case string:
		if parsed, err := time.Parse(time.RFC3339Nano, v); err == nil {
			return parsed
		}
	}
	return time.Time{}
}

const saveSnapshotCypher = `
MERGE (st:Student {login: $login})
SET st += $student
CREATE (s:Snapshot {snapshotId: $snapshotId})
SET s += $props
MERGE (st)-[:HAS_SNAPSHOT]->(s)
RETURN s.snapshotId AS snapshotId
`

const saveTablesCypher = `
MATCH (s:Snapshot {snapshotId: $snapshotId})
UNWIND $tables AS table
CREATE (t:GradeTable)
SET t += table.props
MERGE (s)-[:HAS_TABLE {position: table.position}]->(t)
FOREACH (col IN table.columns |
	CREATE (c:GradeColumn)
	SET c += col
	MERGE (t)-[:HAS_COLUMN {position: col.position}]->(c)
)
FOREACH (m IN table.masters |
	MERGE (p:Person {mail: m.mail})
	SET p.name = m.name, p.surname = m.surname
	MERGE (p)-[:TEACHES]->(t)
)
`

const listSnapshotsCypher = `
MATCH (:Student {login: $login})-[:HAS_SNAPSHOT]->(s:Snapshot)
RETURN s.snapshotId AS snapshotId, s.fetchedAt AS fetchedAt, s.tableCount AS tableCount, s.goHome AS goHome
ORDER BY s.fetchedAt DESC
LIMIT $limit
`

const loadSnapshotCypher = `
MATCH (st:Student)-[:HAS_SNAPSHOT]->(s:Snapshot {snapshotId: $snapshotId})
RETURN st.login AS login, s.fetchedAt AS fetchedAt, s.record AS record
`
