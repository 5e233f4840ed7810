package generator

import (
	"fmt"
	"strings"
)

// Corruption names one deliberate defect injected into a generated feed.
type Corruption string

const (
	CorruptNone        Corruption = ""
	CorruptMissingAt   Corruption = "missing-at"
	CorruptBadFlag     Corruption = "bad-flag"
	CorruptBadEnvelope Corruption = "bad-envelope"
	CorruptUnknownType Corruption = "unknown-type"
)

// Corruptions lists every defect the generator knows.
func Corruptions() []Corruption {
	return []Corruption{CorruptMissingAt, CorruptBadFlag, CorruptBadEnvelope, CorruptUnknownType}
}

// ParseCorruptions reads a comma-separated list such as "missing-at,bad-flag".
func ParseCorruptions(csv string) ([]Corruption, error) {
	var out []Corruption
	for _, part := range strings.Split(csv, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		known := false
		for _, c := range Corruptions() {
			if string(c) == part {
				out = append(out, c)
				known = true
				break
			}
		}
		if !known {
			return nil, fmt.Errorf("unknown corruption %q", part)
		}
	}
	return out, nil
}

// Config drives the synthetic feed generator.
type Config struct {
	NumFeeds         int
	MaxTables        int
	MaxColumns       int
	CorruptionChance float64
	Corruptions      []Corruption
	Pages            bool
	Seed             int64
}

// DefaultConfig returns settings for a small, clean dataset.
func DefaultConfig() Config {
	return Config{
		NumFeeds:   100,
		MaxTables:  8,
		MaxColumns: 6,
		Seed:       42,
	}
}
