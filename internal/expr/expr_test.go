package expr

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"simstats/internal/derive"
	"simstats/internal/resolve"
	"simstats/internal/stats"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleStats = `
simInsts                                    2000
system.cpu.commit.loads                      500
system.cpu.commit.stores                     250
system.cpu.ipc                               1.25
l1dcaches.overallAccesses::total            1000
l1dcaches.overallHits::total                 900
`

const definitions = `
- name: l1d_miss_ratio
  expression: "[l1d_misses] / [l1d_accesses]"
- name: loads_pki
  expression: "1000 * [loads] / [sim_insts]"
  variables:
    loads: ["system.cpu.commit.loads", "commit&loads"]
- name: mem_ops
  expression: "[commit&loads] + [system.cpu.commit.stores]"
- name: capped_ipc
  expression: "min([ipc], 1)"
- name: missing
  expression: "[l3cache&misses] * 2"
- name: divide_by_zero
  expression: "[ipc] / 0"
- name: comparison
  expression: "[ipc] > 1"
`

func evaluate(t *testing.T, set *Set, text string) []float64 {
	t.Helper()
	rec, err := stats.Parse(strings.NewReader(text))
	require.NoError(t, err)
	return set.Evaluate(rec, derive.Derive(rec, derive.DefaultConfig()))
}

func TestEvaluate(t *testing.T) {
	set, err := Parse([]byte(definitions), resolve.New())
	require.NoError(t, err)
	assert.Equal(t, []string{"l1d_miss_ratio", "loads_pki", "mem_ops", "capped_ipc", "missing", "divide_by_zero", "comparison"}, set.Names())
	assert.Equal(t, 7, set.Len())

	values := evaluate(t, set, sampleStats)
	require.Len(t, values, 7)
	assert.InDelta(t, 0.1, values[0], 1e-12)
	assert.InDelta(t, 250.0, values[1], 1e-12)
	assert.Equal(t, 750.0, values[2])
	assert.Equal(t, 1.0, values[3])
	assert.True(t, math.IsNaN(values[4]), "unresolvable variable")
	assert.True(t, math.IsNaN(values[5]), "infinite result")
	assert.True(t, math.IsNaN(values[6]), "non numeric result")
}

func TestEvaluateEmptyRecord(t *testing.T) {
	set, err := Parse([]byte(definitions), resolve.New())
	require.NoError(t, err)
	for _, v := range evaluate(t, set, "") {
		assert.True(t, math.IsNaN(v))
	}
}

func TestNewRejectsInvalidDefinitions(t *testing.T) {
	tests := []struct {
		name string
		defs []Definition
	}{
		{"missing name", []Definition{{Expression: "1"}}},
		{"built-in column", []Definition{{Name: "ipc", Expression: "1"}}},
		{"duplicate", []Definition{{Name: "a", Expression: "1"}, {Name: "a", Expression: "2"}}},
		{"missing expression", []Definition{{Name: "a", Expression: " "}}},
		{"bad expression", []Definition{{Name: "a", Expression: "1 +* ("}}},
		{"unknown function", []Definition{{Name: "a", Expression: "median([x])"}}},
		{"empty variable", []Definition{{Name: "a", Expression: "[x]", Variables: map[string][]string{"x": {" "}}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.defs, resolve.New())
			assert.Error(t, err)
		})
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "metrics.yaml")
	require.NoError(t, os.WriteFile(path, []byte(definitions), 0644))
	set, err := LoadFile(path, resolve.New())
	require.NoError(t, err)
	assert.Equal(t, 7, set.Len())

	_, err = LoadFile(filepath.Join(dir, "missing.yaml"), resolve.New())
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("name: [unterminated"), 0644))
	_, err = LoadFile(bad, resolve.New())
	assert.Error(t, err)
}

func TestEvaluatorFunctions(t *testing.T) {
	functions := getEvaluatorFunctions()
	v, err := functions["max"](1, 2.5)
	require.NoError(t, err)
	assert.Equal(t, 2.5, v)
	v, err = functions["min"](1, 2.5)
	require.NoError(t, err)
	assert.Equal(t, 1.0, v)
	_, err = functions["min"](1)
	assert.Error(t, err)
	_, err = functions["max"]("a", 1)
	assert.Error(t, err)
}
