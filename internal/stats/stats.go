// Package stats parses simulator statistics files into immutable records.
package stats

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"bufio"
	"io"
	"log/slog"
	"os"
	"regexp"
	"strconv"
	"strings"
)

// numeric value token: optional sign, digits, optional fraction, optional exponent
var reNumber = regexp.MustCompile(`^[-+]?\d+(\.\d+)?([eE][-+]?\d+)?$`)

// Record holds the counters parsed from one statistics file. It has two
// indexes: the verbatim keys as they appear in the file and a normalized
// index (see Normalize). When two keys normalize to the same string, the one
// parsed last owns the normalized entry.
type Record struct {
	values     map[string]float64
	normalized map[string]float64
	order      []string // verbatim keys, first-seen order
}

func newRecord() *Record {
	return &Record{
		values:     make(map[string]float64),
		normalized: make(map[string]float64),
	}
}

// Normalize lowercases a key and drops every character that isn't [a-z0-9]
func Normalize(key string) string {
	var sb strings.Builder
	sb.Grow(len(key))
	for _, r := range strings.ToLower(key) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// ParseFile reads the statistics file at path. A missing or unreadable file
// results in an empty record; downstream that simply means "no data".
func ParseFile(path string) *Record {
	f, err := os.Open(path) // #nosec G304
	if err != nil {
		slog.Debug("statistics file not readable, treating as empty", slog.String("path", path), slog.String("error", err.Error()))
		return newRecord()
	}
	defer f.Close()
	rec, err := Parse(f)
	if err != nil {
		slog.Warn("statistics file read stopped early", slog.String("path", path), slog.String("error", err.Error()))
	}
	return rec
}

// Parse builds a record from r, one counter per line:
//
//	<key> <value> [# comment]
//
// Blank lines and '#' comments are skipped, as is any line without a numeric
// value in the second (or, failing that, third) field. The returned error
// only reports a failure of the underlying reader; the lines read up to that
// point are kept.
func Parse(r io.Reader) (*Record, error) {
	rec := newRecord()
	reader := bufio.NewReader(r)
	for {
		// lines have no length limit
		line, err := reader.ReadString('\n')
		if key, value, ok := parseLine(line); ok {
			rec.set(key, value)
		}
		if err == io.EOF {
			return rec, nil
		}
		if err != nil {
			return rec, err
		}
	}
}

func parseLine(line string) (key string, value float64, ok bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return
	}
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return
	}
	token := strings.TrimRight(fields[1], "=,:")
	if !reNumber.MatchString(token) {
		if len(fields) < 3 || !reNumber.MatchString(fields[2]) {
			return
		}
		token = fields[2]
	}
	v, err := strconv.ParseFloat(token, 64)
	if err != nil {
		return
	}
	return fields[0], v, true
}

func (r *Record) set(key string, value float64) {
	if _, exists := r.values[key]; !exists {
		r.order = append(r.order, key)
	}
	r.values[key] = value
	r.normalized[Normalize(key)] = value
}

// Get returns the value stored under the verbatim key
func (r *Record) Get(key string) (float64, bool) {
	v, ok := r.values[key]
	return v, ok
}

// GetNormalized returns the value stored under an already normalized key
func (r *Record) GetNormalized(normalizedKey string) (float64, bool) {
	v, ok := r.normalized[normalizedKey]
	return v, ok
}

// Keys returns a copy of the verbatim keys in the order they were first parsed
func (r *Record) Keys() []string {
	keys := make([]string, len(r.order))
	copy(keys, r.order)
	return keys
}

// Each calls fn for every verbatim key in parse order until fn returns false
func (r *Record) Each(fn func(key string, value float64) bool) {
	for _, k := range r.order {
		if !fn(k, r.values[k]) {
			return
		}
	}
}

// Len is the number of distinct verbatim keys
func (r *Record) Len() int {
	return len(r.order)
}

// Empty reports whether no counters were parsed
func (r *Record) Empty() bool {
	return len(r.order) == 0
}
