package util

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSiblingPath(t *testing.T) {
	tests := []struct {
		path   string
		suffix string
		ext    string
		want   string
	}{
		{"gem5_metrics.csv", "", ".xlsx", "gem5_metrics.xlsx"},
		{"out/gem5_metrics.csv", "_summary", ".csv", "out/gem5_metrics_summary.csv"},
		{"metrics", "", ".json", "metrics.json"},
		{"a.b/metrics.csv", "", ".prom", "a.b/metrics.prom"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, SiblingPath(tt.path, tt.suffix, tt.ext))
		})
	}
}

func TestFileAndDirectoryExists(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "stats.txt")
	require.NoError(t, os.WriteFile(file, []byte("x 1\n"), 0644))

	exists, err := FileExists(file)
	assert.NoError(t, err)
	assert.True(t, exists)
	exists, err = FileExists(filepath.Join(dir, "missing"))
	assert.NoError(t, err)
	assert.False(t, exists)
	_, err = FileExists(dir)
	assert.Error(t, err)

	exists, err = DirectoryExists(dir)
	assert.NoError(t, err)
	assert.True(t, exists)
	exists, err = DirectoryExists(filepath.Join(dir, "missing"))
	assert.NoError(t, err)
	assert.False(t, exists)
	_, err = DirectoryExists(file)
	assert.Error(t, err)
}

func TestCreateDirectoryIfNotExists(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	require.NoError(t, CreateDirectoryIfNotExists(dir, 0755))
	exists, err := DirectoryExists(dir)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, CreateDirectoryIfNotExists(dir, 0755))
}

func TestExpandUser(t *testing.T) {
	assert.Equal(t, "/tmp/x", ExpandUser("/tmp/x"))
	assert.Equal(t, "x~", ExpandUser("x~"))
	abs, err := AbsPath("relative")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(abs))
}
