package resolve

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"strings"

	"simstats/internal/stats"
)

// Sum adds up the values of every key that contains all of parts (ignoring
// case). Used for counters replicated per thread or per unit. Returns 0 when
// no key matches.
func Sum(rec *stats.Record, parts ...string) float64 {
	sum, _ := Aggregate(rec, parts...)
	return sum
}

// Aggregate is Sum that also reports how many keys contributed, so callers can
// tell "no such counter" apart from "counters that add up to zero"
func Aggregate(rec *stats.Record, parts ...string) (sum float64, matched int) {
	if rec == nil || len(parts) == 0 {
		return
	}
	p := AllOf(parts...)
	rec.Each(func(key string, value float64) bool {
		if strings.Contains(key, " ") {
			return true
		}
		if p.matches(strings.ToLower(key)) {
			sum += value
			matched++
		}
		return true
	})
	return
}
