package cmd

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSyslogHandlerFormat(t *testing.T) {
	h := &SyslogHandler{logLeveler: slog.LevelInfo}
	r := slog.NewRecord(time.Now(), slog.LevelWarn, "statistics file read stopped early", 0)
	r.AddAttrs(slog.String("path", "run1/stats.txt"), slog.Int("lines", 3))
	assert.Equal(t, `level=WARN msg="statistics file read stopped early" path="run1/stats.txt" lines="3"`, h.format(r))
}

func TestSyslogHandlerEnabled(t *testing.T) {
	h := &SyslogHandler{logLeveler: slog.LevelInfo}
	assert.False(t, h.Enabled(context.Background(), slog.LevelDebug))
	assert.True(t, h.Enabled(context.Background(), slog.LevelInfo))
	assert.True(t, h.Enabled(context.Background(), slog.LevelError))
	assert.Same(t, h, h.WithGroup("g"))
	assert.Same(t, h, h.WithAttrs(nil))
}

func TestSourcePath(t *testing.T) {
	assert.Equal(t, "relative/file.go", sourcePath("relative/file.go"))
}

func TestRootCommands(t *testing.T) {
	names := []string{}
	for _, c := range rootCmd.Commands() {
		names = append(names, c.Name())
	}
	assert.Contains(t, names, "extract")
	assert.Contains(t, names, "lookup")
	for _, name := range []string{flagDebugName, flagSyslogName, flagLogStdOutName, flagConfigName} {
		assert.NotNil(t, rootCmd.PersistentFlags().Lookup(name), name)
	}
}
