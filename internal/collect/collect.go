// Package collect finds the statistics files under a directory tree and turns
// each one into a RunRecord.
package collect

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"runtime"
	"slices"
	"sync"

	"simstats/internal/derive"
	"simstats/internal/stats"

	"golang.org/x/sync/errgroup"
)

// DefaultFileName is the statistics file gem5 writes into each output directory
const DefaultFileName = "stats.txt"

// ErrNoStatsFiles is returned when discovery finds nothing to process
var ErrNoStatsFiles = errors.New("no statistics files found")

// RunRecord is the result for one statistics file
type RunRecord struct {
	Run     string // name of the directory holding the file
	Path    string
	Metrics derive.Metrics
	Extra   []float64 // user defined metrics, in definition order
}

// Evaluator computes additional metrics for a run after the fixed ones
type Evaluator interface {
	Evaluate(rec *stats.Record, m derive.Metrics) []float64
}

// ProgressFunc is called once per completed run
type ProgressFunc func(done, total int, path string)

// Options controls Collect
type Options struct {
	Config    derive.Config
	Workers   int
	Evaluator Evaluator
	Progress  ProgressFunc
}

// Discover walks root and returns every file named fileName, sorted
// lexicographically. Unreadable subdirectories are logged and skipped.
func Discover(root string, fileName string) ([]string, error) {
	if fileName == "" {
		fileName = DefaultFileName
	}
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			slog.Warn("skipping unreadable path", slog.String("path", path), slog.String("error", err.Error()))
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if !d.IsDir() && d.Name() == fileName {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}
	slices.Sort(paths)
	return paths, nil
}

// RunName is the name of the directory containing the statistics file
func RunName(path string) string {
	return filepath.Base(filepath.Dir(path))
}

// Process runs the full pipeline for a single statistics file
func Process(path string, cfg derive.Config, eval Evaluator) RunRecord {
	rec := stats.ParseFile(path)
	if rec.Empty() {
		slog.Debug("no statistics parsed", slog.String("path", path))
	}
	m := derive.Derive(rec, cfg)
	r := RunRecord{
		Run:     RunName(path),
		Path:    path,
		Metrics: m,
	}
	if eval != nil {
		r.Extra = eval.Evaluate(rec, m)
	}
	return r
}

// Collect processes paths concurrently and returns one record per path, in
// the same order as paths. Only cancellation of ctx produces an error.
func Collect(ctx context.Context, paths []string, opts Options) ([]RunRecord, error) {
	if len(paths) == 0 {
		return nil, ErrNoStatsFiles
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	records := make([]RunRecord, len(paths))
	var mu sync.Mutex
	done := 0
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			records[i] = Process(path, opts.Config, opts.Evaluator)
			if opts.Progress != nil {
				mu.Lock()
				done++
				opts.Progress(done, len(paths), path)
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return records, nil
}
