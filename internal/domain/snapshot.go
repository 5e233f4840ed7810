package domain

import "time"

// Snapshot is one decoded feed captured at a point in time.
type Snapshot struct {
	ID        string    `json:"id"`
	Login     string    `json:"login"`
	FetchedAt time.Time `json:"fetched_at"`
	Record    Record    `json:"record"`
}

// Summary returns the header stored alongside the snapshot.
func (s Snapshot) Summary() SnapshotSummary {
	return SnapshotSummary{
		ID:         s.ID,
		Login:      s.Login,
		FetchedAt:  s.FetchedAt,
		TableCount: len(s.Record.Grades),
		GoHome:     s.Record.GoHome,
	}
}

// SnapshotSummary is the stored header of a snapshot, without the record body.
type SnapshotSummary struct {
	ID         string    `json:"id"`
	Login      string    `json:"login"`
	FetchedAt  time.Time `json:"fetched_at"`
	TableCount int       `json:"table_count"`
	GoHome     bool      `json:"go_home"`
}
