package extract

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"simstats/internal/collect"
	"simstats/internal/derive"
	"simstats/internal/table"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const runStats = `
---------- Begin Simulation Statistics ----------
simSeconds                                   0.000010                       # Number of seconds simulated (Second)
sim_ticks                                    10000000                       # Number of ticks simulated (Tick)
sim_insts                                        4000                       # Number of instructions simulated (Count)
system.clk_domain.clock                          1000                       # Clock period in ticks (Tick)
system.cpu.numCycles                            10000                       # Number of cpu cycles simulated (Cycle)
system.cpu.ipc                               0.400000                       # IPC: instructions per cycle ((Count/Cycle))
system.cpu.l1dcaches.overallAccesses::total      1000                       # number of overall accesses (Count)
system.cpu.l1dcaches.overallHits::total           900                       # number of overall hits (Count)
system.cpu.l1dcaches.overallMisses::total         100                       # number of overall misses (Count)
---------- End Simulation Statistics   ----------
`

func writeRun(t *testing.T, root string, run string, content string) {
	t.Helper()
	dir := filepath.Join(root, run)
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, collect.DefaultFileName), []byte(content), 0644))
}

func readCsv(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func newSettings(root string, output string) settings {
	return settings{
		root:     root,
		output:   output,
		fileName: collect.DefaultFileName,
		formats:  []string{"csv"},
		derive:   derive.DefaultConfig(),
	}
}

func TestExtractMetricsCsv(t *testing.T) {
	root := t.TempDir()
	writeRun(t, root, "run_b", runStats)
	writeRun(t, root, "run_a", runStats)
	writeRun(t, root, "run_c", "") // no data still yields a row
	output := filepath.Join(t.TempDir(), "out", "gem5_metrics.csv")

	var updates int
	reportPaths, rows, err := extractMetrics(context.Background(), newSettings(root, output), func(done, total int, path string) {
		updates++
	})
	require.NoError(t, err)
	assert.Equal(t, 3, rows)
	assert.Equal(t, 3, updates)
	assert.Equal(t, []string{output}, reportPaths)

	records := readCsv(t, output)
	require.Len(t, records, 4)
	assert.Equal(t, table.ColumnNames(), records[0])
	assert.Equal(t, "run_a", records[1][0])
	assert.Equal(t, "run_b", records[2][0])
	assert.Equal(t, "run_c", records[3][0])
	assert.Equal(t, "0.4", records[1][2])
	// every metric of the empty run is unavailable
	for i, cell := range records[3][2 : len(records[3])-1] {
		assert.Empty(t, cell, records[0][i+2])
	}
	assert.Equal(t, "1,4,40", records[3][len(records[3])-1])
}

func TestExtractMetricsNoFiles(t *testing.T) {
	root := t.TempDir()
	outDir := t.TempDir()
	output := filepath.Join(outDir, "gem5_metrics.csv")
	reportPaths, rows, err := extractMetrics(context.Background(), newSettings(root, output), nil)
	assert.ErrorIs(t, err, collect.ErrNoStatsFiles)
	assert.Zero(t, rows)
	assert.Empty(t, reportPaths)
	entries, err := os.ReadDir(outDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestExtractMetricsAllOutputs(t *testing.T) {
	root := t.TempDir()
	writeRun(t, root, "r1", runStats)
	writeRun(t, root, "r2", runStats)
	metricFile := filepath.Join(t.TempDir(), "metrics.yaml")
	require.NoError(t, os.WriteFile(metricFile, []byte(`
- name: l1d_miss_ratio
  expression: "[misses] / [accesses]"
  variables:
    misses: ["system.cpu.l1dcaches.overallMisses::total"]
    accesses: ["system.cpu.l1dcaches.overallAccesses::total"]
`), 0644))
	output := filepath.Join(t.TempDir(), "sweep.csv")
	s := newSettings(root, output)
	s.formats = []string{"csv", "xlsx", "json", "txt", "prom"}
	s.summary = true
	s.metricFile = metricFile
	s.workers = 1

	reportPaths, rows, err := extractMetrics(context.Background(), s, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, rows)
	dir := filepath.Dir(output)
	assert.Equal(t, []string{
		output,
		filepath.Join(dir, "sweep.xlsx"),
		filepath.Join(dir, "sweep.json"),
		filepath.Join(dir, "sweep.txt"),
		filepath.Join(dir, "sweep.prom"),
		filepath.Join(dir, "sweep_summary.csv"),
	}, reportPaths)
	for _, reportPath := range reportPaths {
		info, err := os.Stat(reportPath)
		require.NoError(t, err, reportPath)
		assert.NotZero(t, info.Size(), reportPath)
	}

	records := readCsv(t, output)
	header := records[0]
	assert.Equal(t, "l1d_miss_ratio", header[len(header)-1])
	assert.Equal(t, "0.1", records[1][len(header)-1])

	summaryRows := readCsv(t, filepath.Join(dir, "sweep_summary.csv"))
	assert.Equal(t, "metric", summaryRows[0][0])

	f, err := excelize.OpenFile(filepath.Join(dir, "sweep.xlsx"))
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{table.RunsTableName, "summary"}, f.GetSheetList())
}

func TestExtractMetricsBadMetricFile(t *testing.T) {
	root := t.TempDir()
	writeRun(t, root, "r1", runStats)
	output := filepath.Join(t.TempDir(), "m.csv")
	s := newSettings(root, output)
	s.metricFile = filepath.Join(t.TempDir(), "missing.yaml")
	_, _, err := extractMetrics(context.Background(), s, nil)
	assert.Error(t, err)
	_, statErr := os.Stat(output)
	assert.True(t, os.IsNotExist(statErr))
}

func TestExtractMetricsBadRoot(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, collect.DefaultFileName)
	require.NoError(t, os.WriteFile(file, []byte(runStats), 0644))
	tests := []struct {
		name string
		root string
	}{
		{"missing root", filepath.Join(dir, "missing")},
		{"root is a file", file},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outDir := t.TempDir()
			_, rows, err := extractMetrics(context.Background(), newSettings(tt.root, filepath.Join(outDir, "m.csv")), nil)
			assert.Error(t, err)
			assert.NotErrorIs(t, err, collect.ErrNoStatsFiles)
			assert.Zero(t, rows)
			entries, err := os.ReadDir(outDir)
			require.NoError(t, err)
			assert.Empty(t, entries)
		})
	}
}

func TestOutputPath(t *testing.T) {
	tests := []struct {
		output string
		format string
		want   string
	}{
		{"gem5_metrics.csv", "csv", "gem5_metrics.csv"},
		{"gem5_metrics.csv", "xlsx", "gem5_metrics.xlsx"},
		{"out/m.XLSX", "xlsx", "out/m.XLSX"},
		{"metrics", "csv", "metrics.csv"},
	}
	for _, tt := range tests {
		t.Run(tt.output+"_"+tt.format, func(t *testing.T) {
			assert.Equal(t, tt.want, outputPath(tt.output, tt.format))
		})
	}
}

func TestValidateFlags(t *testing.T) {
	reset := func() {
		flagFormat = []string{"csv"}
		flagWeights = "1,4,40"
		flagLatency = "average"
		flagWorkers = 0
		flagClock = 0
		flagHitL1 = 1
		flagHitL2 = 10
		flagName = collect.DefaultFileName
		flagOutput = defaultOutput
	}
	defer reset()
	tests := []struct {
		name    string
		set     func()
		wantErr bool
	}{
		{"defaults", func() {}, false},
		{"all formats", func() { flagFormat = []string{"csv", "xlsx", "json", "txt", "prom"} }, false},
		{"bad format", func() { flagFormat = []string{"html"} }, true},
		{"bad weights", func() { flagWeights = "1,4" }, true},
		{"latency case", func() { flagLatency = "TOTAL" }, false},
		{"bad latency", func() { flagLatency = "median" }, true},
		{"negative workers", func() { flagWorkers = -1 }, true},
		{"negative clock", func() { flagClock = -1 }, true},
		{"negative hit time", func() { flagHitL2 = -1 }, true},
		{"name with separator", func() { flagName = "a/stats.txt" }, true},
		{"empty output", func() { flagOutput = "" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reset()
			tt.set()
			err := validateFlags(&cobra.Command{Use: cmdName}, nil)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadSettingsDefaults(t *testing.T) {
	s, err := loadSettings(Cmd)
	require.NoError(t, err)
	assert.Equal(t, ".", s.root)
	assert.Equal(t, defaultOutput, s.output)
	assert.Equal(t, collect.DefaultFileName, s.fileName)
	assert.Equal(t, []string{"csv"}, s.formats)
	assert.False(t, s.summary)
	assert.Equal(t, derive.DefaultConfig(), s.derive)
}

func TestExtractMetricsCancelled(t *testing.T) {
	root := t.TempDir()
	writeRun(t, root, "r1", runStats)
	output := filepath.Join(t.TempDir(), "m.csv")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := extractMetrics(ctx, newSettings(root, output), nil)
	assert.ErrorIs(t, err, context.Canceled)
	_, statErr := os.Stat(output)
	assert.True(t, os.IsNotExist(statErr))
}
