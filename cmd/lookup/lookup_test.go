package lookup

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"simstats/internal/resolve"
	"simstats/internal/stats"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const lookupStats = `
system.cpu.ipc                                 0.500000  # IPC
system.cpu.l2cache.overallMisses::cpu.data           30  # misses
system.cpu.l2cache.overallMisses::total              40  # misses
system.cpu.memDep0.insertedLoads                     10  # loads
system.cpu.memDep1.insertedLoads                      5  # loads
`

func parse(t *testing.T) *stats.Record {
	t.Helper()
	rec, err := stats.Parse(strings.NewReader(lookupStats))
	require.NoError(t, err)
	return rec
}

func lines(out *bytes.Buffer) []string {
	return strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
}

func TestPrintResolutions(t *testing.T) {
	color.NoColor = true
	var out bytes.Buffer
	printResolutions(&out, resolve.New(), parse(t), []string{
		"system.cpu.ipc",
		"System_CPU_IPC",
		"l2cache&overallMisses",
		"missing.key,system.cpu.ipc",
		"missing.key",
	})
	assert.Equal(t, []string{
		"system.cpu.ipc\tsystem.cpu.ipc\t0.5\texact",
		"System_CPU_IPC\tsystemcpuipc\t0.5\tnormalized",
		"l2cache&overallMisses\tsystem.cpu.l2cache.overallMisses::total\t40\tfuzzy",
		"missing.key,system.cpu.ipc\tsystem.cpu.ipc\t0.5\texact",
		"missing.key\tnot found",
	}, lines(&out))
}

func TestPrintSums(t *testing.T) {
	color.NoColor = true
	var out bytes.Buffer
	printSums(&out, parse(t), []string{"memDep&insertedLoads", "insertedStores"})
	assert.Equal(t, []string{
		"memDep&insertedLoads\t15\t2 counters",
		"insertedStores\tnot found",
	}, lines(&out))
}

func TestValidateFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats.txt")
	require.NoError(t, os.WriteFile(path, []byte(lookupStats), 0644))
	cmd := &cobra.Command{Use: cmdName}
	assert.NoError(t, validateFlags(cmd, []string{path, "system.cpu.ipc"}))
	assert.Error(t, validateFlags(cmd, []string{filepath.Join(t.TempDir(), "missing.txt"), "x"}))
	assert.Error(t, validateFlags(cmd, []string{t.TempDir(), "x"}))
	assert.Error(t, validateFlags(cmd, []string{path, " , "}))
}

func TestRunCmd(t *testing.T) {
	color.NoColor = true
	path := filepath.Join(t.TempDir(), "stats.txt")
	require.NoError(t, os.WriteFile(path, []byte(lookupStats), 0644))
	var out bytes.Buffer
	cmd := &cobra.Command{Use: cmdName}
	cmd.SetOut(&out)
	flagSum = false
	flagPreferTotal = true
	require.NoError(t, runCmd(cmd, []string{path, "system.cpu.ipc"}))
	assert.Equal(t, "system.cpu.ipc\tsystem.cpu.ipc\t0.5\texact\n", out.String())

	empty := filepath.Join(t.TempDir(), "stats.txt")
	require.NoError(t, os.WriteFile(empty, []byte("---------- Begin Simulation Statistics ----------\n"), 0644))
	assert.Error(t, runCmd(cmd, []string{empty, "system.cpu.ipc"}))
}
