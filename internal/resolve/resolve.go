package resolve

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"math"
	"sort"
	"strings"

	"simstats/internal/stats"

	mapset "github.com/deckarep/golang-set/v2"
)

// Tier identifies which resolution step produced a match
type Tier int

const (
	TierNone Tier = iota
	TierExact
	TierNormalized
	TierFuzzy
)

func (t Tier) String() string {
	switch t {
	case TierExact:
		return "exact"
	case TierNormalized:
		return "normalized"
	case TierFuzzy:
		return "fuzzy"
	}
	return "none"
}

// totalMarker qualifies an aggregate counter, e.g., overallHits::total
const totalMarker = "::total"

// Resolution is the outcome of a successful lookup
type Resolution struct {
	Key   string
	Value float64
	Tier  Tier
}

// Resolver picks a single counter out of a record for an ordered list of
// patterns
type Resolver struct {
	// PreferTotal restricts fuzzy candidates to "::total" keys when any exist
	PreferTotal bool
}

// New returns a Resolver with PreferTotal set
func New() Resolver {
	return Resolver{PreferTotal: true}
}

// Resolve tries, in order: verbatim match of each Exact pattern, normalized
// match of each Exact pattern, then fuzzy containment across all patterns.
// The first tier with any match wins. Fuzzy matching picks the longest
// candidate key (restricted to "::total" keys when PreferTotal is set and one
// exists); among equally long keys the one found last wins.
func (r Resolver) Resolve(rec *stats.Record, patterns ...Pattern) (Resolution, bool) {
	if rec == nil || rec.Empty() {
		return Resolution{}, false
	}
	// verbatim
	for _, p := range patterns {
		if p.Kind != KindExact {
			continue
		}
		if v, ok := rec.Get(p.Key); ok {
			return Resolution{Key: p.Key, Value: v, Tier: TierExact}, true
		}
	}
	// normalized
	for _, p := range patterns {
		if p.Kind != KindExact {
			continue
		}
		nk := stats.Normalize(p.Key)
		if nk == "" {
			continue
		}
		if v, ok := rec.GetNormalized(nk); ok {
			return Resolution{Key: nk, Value: v, Tier: TierNormalized}, true
		}
	}
	// fuzzy containment
	candidates := r.candidates(rec, patterns)
	if len(candidates) == 0 {
		return Resolution{}, false
	}
	best := mostSpecific(candidates, r.PreferTotal)
	v, _ := rec.Get(best)
	return Resolution{Key: best, Value: v, Tier: TierFuzzy}, true
}

// Value resolves patterns and returns the value, or NaN when nothing matched
func (r Resolver) Value(rec *stats.Record, patterns ...Pattern) float64 {
	return r.ValueOr(rec, math.NaN(), patterns...)
}

// ValueOr resolves patterns and returns the value, or def when nothing matched
func (r Resolver) ValueOr(rec *stats.Record, def float64, patterns ...Pattern) float64 {
	if res, ok := r.Resolve(rec, patterns...); ok {
		return res.Value
	}
	return def
}

func (r Resolver) candidates(rec *stats.Record, patterns []Pattern) []string {
	var candidates []string
	seen := mapset.NewThreadUnsafeSet[string]()
	rec.Each(func(key string, _ float64) bool {
		if strings.Contains(key, " ") {
			return true
		}
		lowerKey := strings.ToLower(key)
		for _, p := range patterns {
			if p.matches(lowerKey) && seen.Add(key) {
				candidates = append(candidates, key)
			}
		}
		return true
	})
	return candidates
}

func mostSpecific(candidates []string, preferTotal bool) string {
	if preferTotal {
		var totals []string
		for _, c := range candidates {
			if strings.Contains(c, totalMarker) {
				totals = append(totals, c)
			}
		}
		if len(totals) > 0 {
			candidates = totals
		}
	}
	sorted := make([]string, len(candidates))
	copy(sorted, candidates)
	sort.SliceStable(sorted, func(i, j int) bool {
		return len(sorted[i]) < len(sorted[j])
	})
	return sorted[len(sorted)-1]
}
