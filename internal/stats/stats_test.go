package stats

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleStats = `
---------- Begin Simulation Statistics ----------
simSeconds                                   0.000123                       # Number of seconds simulated (Second)
simTicks                                    123456789                       # Number of ticks simulated (Tick)
sim_insts                                        1000                       # Number of instructions simulated
# a comment line
   # an indented comment line
board.clk_domain.clock                            312                       # Clock period in ticks (Tick)
board.processor.cores.core.ipc               1.5e+00                       # IPC
board.cache_hierarchy.l1dcaches.overallHits::total    900,                # trailing comma
weird.line = 42
lonely_key
bad.value   abc   def
board.processor.cores.core.numCycles          nan                          # not a number
`

func TestParse(t *testing.T) {
	rec, err := Parse(strings.NewReader(sampleStats))
	require.NoError(t, err)

	tests := []struct {
		key   string
		want  float64
		found bool
	}{
		{"simSeconds", 0.000123, true},
		{"simTicks", 123456789, true},
		{"sim_insts", 1000, true},
		{"board.clk_domain.clock", 312, true},
		{"board.processor.cores.core.ipc", 1.5, true},
		{"board.cache_hierarchy.l1dcaches.overallHits::total", 900, true},
		{"weird.line", 42, true}, // '=' is not numeric, falls back to third token
		{"lonely_key", 0, false},
		{"bad.value", 0, false},
		{"board.processor.cores.core.numCycles", 0, false},
		{"----------", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got, ok := rec.Get(tt.key)
			assert.Equal(t, tt.found, ok)
			if tt.found {
				assert.InDelta(t, tt.want, got, 1e-12)
			}
		})
	}
	assert.Equal(t, 7, rec.Len())
}

func TestParseValueTokens(t *testing.T) {
	tests := []struct {
		line  string
		want  float64
		valid bool
	}{
		{"k 12", 12, true},
		{"k -12", -12, true},
		{"k +12", 12, true},
		{"k 1.25", 1.25, true},
		{"k 1e3", 1000, true},
		{"k 1E-3", 0.001, true},
		{"k 2.5e+2", 250, true},
		{"k 7:", 7, true},
		{"k 7=", 7, true},
		{"k 7,,", 7, true},
		{"k .5", 0, false},
		{"k 5.", 0, false},
		{"k 0x10", 0, false},
		{"k inf", 0, false},
		{"k = 3", 3, true},
		{"k = x 3", 0, false},
		{"k", 0, false},
		{"", 0, false},
		{"# k 3", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			_, v, ok := parseLine(tt.line)
			assert.Equal(t, tt.valid, ok)
			if tt.valid {
				assert.InDelta(t, tt.want, v, 1e-12)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "boardcachehierarchyl1dcachesoverallhitstotal", Normalize("board.cache_hierarchy.l1dcaches.overallHits::total"))
	assert.Equal(t, "siminsts", Normalize("sim_insts"))
	assert.Equal(t, "siminsts", Normalize("SIM-Insts"))
	assert.Equal(t, "", Normalize("::--"))
}

func TestNormalizedIndexLastParsedWins(t *testing.T) {
	rec, err := Parse(strings.NewReader("sim_insts 10\nsimInsts 20\n"))
	require.NoError(t, err)
	v, ok := rec.GetNormalized("siminsts")
	require.True(t, ok)
	assert.Equal(t, 20.0, v)
	// both verbatim keys remain
	a, _ := rec.Get("sim_insts")
	b, _ := rec.Get("simInsts")
	assert.Equal(t, 10.0, a)
	assert.Equal(t, 20.0, b)
}

func TestEveryKeyHasNormalizedEntry(t *testing.T) {
	rec, err := Parse(strings.NewReader(sampleStats))
	require.NoError(t, err)
	rec.Each(func(key string, value float64) bool {
		_, ok := rec.GetNormalized(Normalize(key))
		assert.True(t, ok, key)
		return true
	})
}

func TestDuplicateVerbatimKeyKeepsFirstPosition(t *testing.T) {
	rec, err := Parse(strings.NewReader("a 1\nb 2\na 3\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, rec.Keys())
	v, _ := rec.Get("a")
	assert.Equal(t, 3.0, v)
}

func TestParseSkipsOversizedLine(t *testing.T) {
	long := "x " + strings.Repeat("y", 2*1024*1024)
	rec, err := Parse(strings.NewReader("a 1\n" + long + "\nsim_insts 1000\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "sim_insts"}, rec.Keys())
	v, ok := rec.Get("sim_insts")
	require.True(t, ok)
	assert.Equal(t, 1000.0, v)
}

func TestParseLastLineWithoutNewline(t *testing.T) {
	rec, err := Parse(strings.NewReader("a 1\r\nb 2"))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, rec.Keys())
}

func TestParseReaderErrorKeepsLinesRead(t *testing.T) {
	r := io.MultiReader(strings.NewReader("a 1\n"), iotest.ErrReader(errors.New("disk gone")))
	rec, err := Parse(r)
	assert.EqualError(t, err, "disk gone")
	assert.Equal(t, []string{"a"}, rec.Keys())
}

func TestParseFileIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats.txt")
	require.NoError(t, os.WriteFile(path, []byte(sampleStats), 0644))
	first := ParseFile(path)
	second := ParseFile(path)
	assert.Equal(t, first, second)
	assert.False(t, first.Empty())
}

func TestParseFileMissing(t *testing.T) {
	rec := ParseFile(filepath.Join(t.TempDir(), "does-not-exist", "stats.txt"))
	require.NotNil(t, rec)
	assert.True(t, rec.Empty())
	assert.Empty(t, rec.Keys())
}

func TestKeysReturnsCopy(t *testing.T) {
	rec, err := Parse(strings.NewReader("a 1\n"))
	require.NoError(t, err)
	keys := rec.Keys()
	keys[0] = "mutated"
	assert.Equal(t, []string{"a"}, rec.Keys())
}
