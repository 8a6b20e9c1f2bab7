// Package resolve locates counters in a stats.Record when their exact names
// vary between simulator builds and configurations.
package resolve

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"strings"
)

// PatternKind tags the two forms of Pattern
type PatternKind int

const (
	// KindExact is a literal key. It takes part in every resolution tier.
	KindExact PatternKind = iota
	// KindAllOf is a set of substrings that must all appear in a key. It only
	// takes part in fuzzy containment.
	KindAllOf
)

// allOfSeparator joins the substrings of an AllOf pattern in its textual form
const allOfSeparator = "&"

// Pattern is one candidate key specification
type Pattern struct {
	Kind  PatternKind
	Key   string   // KindExact
	Parts []string // KindAllOf, lowercased
}

// Exact returns a literal key pattern
func Exact(key string) Pattern {
	return Pattern{Kind: KindExact, Key: key}
}

// AllOf returns a pattern matching any key that contains every one of parts,
// ignoring case
func AllOf(parts ...string) Pattern {
	lowered := make([]string, 0, len(parts))
	for _, p := range parts {
		lowered = append(lowered, strings.ToLower(p))
	}
	return Pattern{Kind: KindAllOf, Parts: lowered}
}

// ParsePattern converts the textual form used in configuration files and on
// the command line: "a&b&c" is AllOf(a, b, c), anything else is Exact.
func ParsePattern(text string) Pattern {
	text = strings.TrimSpace(text)
	if !strings.Contains(text, allOfSeparator) {
		return Exact(text)
	}
	var parts []string
	for p := range strings.SplitSeq(text, allOfSeparator) {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return AllOf(parts...)
}

// ParsePatterns applies ParsePattern to each entry, skipping empty ones
func ParsePatterns(texts []string) []Pattern {
	patterns := make([]Pattern, 0, len(texts))
	for _, t := range texts {
		if strings.TrimSpace(t) == "" {
			continue
		}
		patterns = append(patterns, ParsePattern(t))
	}
	return patterns
}

// String is the inverse of ParsePattern
func (p Pattern) String() string {
	if p.Kind == KindAllOf {
		return strings.Join(p.Parts, allOfSeparator)
	}
	return p.Key
}

// matches reports whether the lowercased key satisfies the pattern's fuzzy
// containment rule
func (p Pattern) matches(lowerKey string) bool {
	switch p.Kind {
	case KindExact:
		return p.Key != "" && strings.Contains(lowerKey, strings.ToLower(p.Key))
	case KindAllOf:
		if len(p.Parts) == 0 {
			return false
		}
		for _, part := range p.Parts {
			if !strings.Contains(lowerKey, part) {
				return false
			}
		}
		return true
	}
	return false
}
