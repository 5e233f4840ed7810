package feed

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"
)

// Map is the feed after pair normalization: unique keys to raw values.
type Map map[string]json.RawMessage

// DuplicatePolicy decides what happens when a key appears more than once.
type DuplicatePolicy int

const (
	// LastWins keeps the value of the last occurrence.
	LastWins DuplicatePolicy = iota
	// FirstWins keeps the value of the first occurrence.
	FirstWins
	// RejectDuplicates fails the normalization.
	RejectDuplicates
)

// String returns the configuration name of the policy.
func (p DuplicatePolicy) String() string {
	switch p {
	case LastWins:
		return "last-wins"
	case FirstWins:
		return "first-wins"
	case RejectDuplicates:
		return "reject"
	default:
		return "DuplicatePolicy(" + strconv.Itoa(int(p)) + ")"
	}
}

// ParseDuplicatePolicy parses a configuration name.
func ParseDuplicatePolicy(s string) (DuplicatePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "last-wins", "last":
		return LastWins, nil
	case "first-wins", "first":
		return FirstWins, nil
	case "reject", "error":
		return RejectDuplicates, nil
	default:
		return LastWins, fmt.Errorf("unknown duplicate policy %q", s)
	}
}

const (
	defaultWorkers           = 4
	defaultParallelThreshold = 256
)

// Normalizer turns the [[key, value], ...] blob into a Map.
type Normalizer struct {
	policy    DuplicatePolicy
	workers   int
	threshold int
}

// NewNormalizer creates a Normalizer. Feeds with fewer pairs than threshold
// are processed serially.
func NewNormalizer(policy DuplicatePolicy, workers, threshold int) *Normalizer {
	if workers <= 0 {
		workers = defaultWorkers
	}
	if threshold <= 0 {
		threshold = defaultParallelThreshold
	}
	return &Normalizer{policy: policy, workers: workers, threshold: threshold}
}

type pairSlot struct {
	key   string
	value json.RawMessage
	err   error
}

// Normalize parses blob as an array of pairs and builds the Map.
func (n *Normalizer) Normalize(blob []byte) (Map, error) {
	if jsonType(blob) != "array" {
		return nil, &DecodeError{Kind: KindEnvelope, Expected: "array of [key, value] pairs", Got: jsonType(blob)}
	}
	var pairs []json.RawMessage
	if err := json.Unmarshal(blob, &pairs); err != nil {
		return nil, &DecodeError{Kind: KindEnvelope, Err: err}
	}
	return n.NormalizePairs(pairs)
}

// NormalizePairs builds the Map from already split pairs. Each pair is
// extracted independently; large feeds are split across workers, each
// writing only its own slots. The merge runs in source order.
func (n *Normalizer) NormalizePairs(pairs []json.RawMessage) (Map, error) {
	slots := make([]pairSlot, len(pairs))

	if len(pairs) < n.threshold || n.workers == 1 {
		for i := range pairs {
			slots[i] = splitPair(i, pairs[i])
		}
	} else {
		chunk := (len(pairs) + n.workers - 1) / n.workers
		var g errgroup.Group
		g.SetLimit(n.workers)
		for start := 0; start < len(pairs); start += chunk {
			end := min(start+chunk, len(pairs))
			g.Go(func() error {
				for i := start; i < end; i++ {
					slots[i] = splitPair(i, pairs[i])
				}
				return nil
			})
		}
		// Workers report failures through their slots and always return nil.
		_ = g.Wait()
	}

	out := make(Map, len(slots))
	for i, s := range slots {
		if s.err != nil {
			return nil, s.err
		}
		if _, seen := out[s.key]; seen {
			switch n.policy {
			case FirstWins:
				continue
			case RejectDuplicates:
				return nil, &DecodeError{
					Kind:     KindDuplicateKey,
					Path:     Path{}.Index(i),
					Expected: "unique key",
					Got:      strconv.Quote(s.key),
				}
			}
		}
		out[s.key] = s.value
	}
	return out, nil
}

func splitPair(i int, raw json.RawMessage) pairSlot {
	at := Path{}.Index(i)
	elems, err := tuple(raw, 2)
	if err != nil {
		return pairSlot{err: prefix(at, err)}
	}
	if jsonType(elems[0]) != "string" {
		return pairSlot{err: &DecodeError{
			Kind:     KindKeyDecode,
			Path:     at,
			Expected: "string key",
			Got:      jsonType(elems[0]) + " " + show(elems[0]),
		}}
	}
	key, err := String(elems[0])
	if err != nil {
		return pairSlot{err: &DecodeError{Kind: KindKeyDecode, Path: at, Expected: "string key", Got: show(elems[0])}}
	}
	return pairSlot{key: key, value: elems[1]}
}

// Normalize is a convenience wrapper using the default last-wins policy.
func Normalize(blob []byte) (Map, error) {
	return NewNormalizer(LastWins, 0, 0).Normalize(blob)
}
