// Package digest computes content hashes of normalized records so that a
// reconciliation pass can skip records that have not changed.
package digest

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
)

// Status classifies a fetched record against the stored hashes
type Status int

const (
	// New covers both never-seen and changed records
	New Status = iota
	Unchanged
)

func (s Status) String() string {
	if s == Unchanged {
		return "unchanged"
	}
	return "new"
}

// Set holds the hashes currently stored for a project and kind
type Set map[string]struct{}

func (s Set) Has(hash string) bool {
	_, ok := s[hash]
	return ok
}

func (s Set) Add(hash string) {
	s[hash] = struct{}{}
}

// Compute returns the SHA-256 hex digest of the canonical JSON encoding of
// v. Object keys are sorted and every array is sorted by the encoding of
// its elements, so two records that differ only in collection order hash
// the same.
func Compute(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to encode record: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var generic any
	if err := dec.Decode(&generic); err != nil {
		return "", fmt.Errorf("failed to decode record: %w", err)
	}

	canonical, err := canonicalize(generic)
	if err != nil {
		return "", err
	}

	out, err := json.Marshal(canonical)
	if err != nil {
		return "", fmt.Errorf("failed to encode canonical record: %w", err)
	}

	sum := sha256.Sum256(out)
	return hex.EncodeToString(sum[:]), nil
}

// MustCompute is Compute for values known to be encodable
func MustCompute(v any) string {
	h, err := Compute(v)
	if err != nil {
		panic(err)
	}
	return h
}

// Classify reports whether hash is already stored
func Classify(hash string, existing Set) Status {
	if existing.Has(hash) {
		return Unchanged
	}
	return New
}

func canonicalize(v any) (any, error) {
	switch v := v.(type) {
	case map[string]any:
		for k, child := range v {
			c, err := canonicalize(child)
			if err != nil {
				return nil, err
			}
			v[k] = c
		}
		return v, nil

	case []any:
		type keyed struct {
			key   string
			value any
		}
		items := make([]keyed, len(v))
		for i, child := range v {
			c, err := canonicalize(child)
			if err != nil {
				return nil, err
			}
			enc, err := json.Marshal(c)
			if err != nil {
				return nil, fmt.Errorf("failed to encode array element: %w", err)
			}
			items[i] = keyed{key: string(enc), value: c}
		}
		sort.SliceStable(items, func(i, j int) bool { return items[i].key < items[j].key })

		out := make([]any, len(items))
		for i, item := range items {
			out[i] = item.value
		}
		return out, nil

	default:
		return v, nil
	}
}
