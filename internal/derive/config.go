package derive

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"fmt"

	"simstats/internal/resolve"
)

// LatencySource selects which miss latency counter feeds the miss penalty
type LatencySource string

const (
	// LatencyAverage uses overallAvgMissLatency directly
	LatencyAverage LatencySource = "average"
	// LatencyTotal uses overallMissLatency divided by the miss count
	LatencyTotal LatencySource = "total"
)

// LatencySources lists the accepted values, for flag help and validation
var LatencySources = []string{string(LatencyAverage), string(LatencyTotal)}

// Weights are the coefficients of the energy proxy
type Weights struct {
	L1   float64
	L2   float64
	DRAM float64
}

// DefaultWeights are relative per-access costs for L1, L2 and DRAM
var DefaultWeights = Weights{L1: 1, L2: 4, DRAM: 40}

// Level describes one cache level. Tag is the substring that identifies the
// level's counters. HitTime is an assumed hit latency in cycles, used only by
// AMAT.
type Level struct {
	Name    string
	Tag     string
	HitTime float64
}

// Levels are the three cache levels reported in every row
type Levels struct {
	L1D Level
	L1I Level
	L2  Level
}

// All returns the levels in output order
func (l Levels) All() []Level {
	return []Level{l.L1D, l.L1I, l.L2}
}

// Counters holds the candidate patterns for every directly resolved counter
type Counters struct {
	IPC             []resolve.Pattern
	CommittedInsts  []resolve.Pattern
	NumCycles       []resolve.Pattern
	SimInsts        []resolve.Pattern
	SimTicks        []resolve.Pattern
	Clock           []resolve.Pattern
	BranchMispred   []resolve.Pattern
	BranchCommitted []resolve.Pattern
	FlushEvents     []resolve.Pattern
	SquashedInsts   []resolve.Pattern
	DRAMReads       []resolve.Pattern
	DRAMWrites      []resolve.Pattern
	DRAMBytesRead   []resolve.Pattern
	DRAMBytesWrite  []resolve.Pattern
}

// counter name -> field, used when overriding counters from configuration
func (c *Counters) fields() map[string]*[]resolve.Pattern {
	return map[string]*[]resolve.Pattern{
		"ipc":                 &c.IPC,
		"committed_insts":     &c.CommittedInsts,
		"num_cycles":          &c.NumCycles,
		"sim_insts":           &c.SimInsts,
		"sim_ticks":           &c.SimTicks,
		"clock":               &c.Clock,
		"branch_mispredicted": &c.BranchMispred,
		"branch_committed":    &c.BranchCommitted,
		"flush_events":        &c.FlushEvents,
		"squashed_insts":      &c.SquashedInsts,
		"dram_reads":          &c.DRAMReads,
		"dram_writes":         &c.DRAMWrites,
		"dram_bytes_read":     &c.DRAMBytesRead,
		"dram_bytes_written":  &c.DRAMBytesWrite,
	}
}

// Override replaces the patterns of the named counter
func (c *Counters) Override(name string, patterns []resolve.Pattern) error {
	field, ok := c.fields()[name]
	if !ok {
		return fmt.Errorf("unknown counter: %s", name)
	}
	if len(patterns) == 0 {
		return fmt.Errorf("counter %s: at least one pattern is required", name)
	}
	*field = patterns
	return nil
}

// CounterNames returns the names accepted by Override
func CounterNames() []string {
	return []string{
		"ipc", "committed_insts", "num_cycles", "sim_insts", "sim_ticks", "clock",
		"branch_mispredicted", "branch_committed", "flush_events", "squashed_insts",
		"dram_reads", "dram_writes", "dram_bytes_read", "dram_bytes_written",
	}
}

// Config is everything the derivers need besides the record itself
type Config struct {
	Weights       Weights
	Levels        Levels
	LatencySource LatencySource
	// ClockOverride, when positive, replaces the clock period (ticks per
	// cycle) found in the statistics
	ClockOverride float64
	PreferTotal   bool
	Counters      Counters
}

// DefaultConfig returns the configuration matching gem5's standard naming
func DefaultConfig() Config {
	x := resolve.Exact
	return Config{
		Weights: DefaultWeights,
		Levels: Levels{
			L1D: Level{Name: "l1d", Tag: "l1dcaches", HitTime: 1},
			L1I: Level{Name: "l1i", Tag: "l1icaches", HitTime: 1},
			L2:  Level{Name: "l2", Tag: "l2cache", HitTime: 10},
		},
		LatencySource: LatencyAverage,
		PreferTotal:   true,
		Counters: Counters{
			IPC: []resolve.Pattern{
				x("board.processor.cores0.core.ipc"),
				x("board.processor.cores.core.ipc"),
				x("system.cpu.ipc"),
			},
			CommittedInsts: []resolve.Pattern{
				x("board.processor.cores0.core.committedInsts"),
				x("board.processor.cores.core.committedInsts"),
				x("system.cpu.commit.committedInsts"),
				x("system.cpu.committedInsts"),
			},
			NumCycles: []resolve.Pattern{
				x("board.processor.cores0.core.numCycles"),
				x("board.processor.cores.core.numCycles"),
				x("system.cpu.numCycles"),
			},
			SimInsts: []resolve.Pattern{x("sim_insts"), x("simInsts")},
			SimTicks: []resolve.Pattern{x("sim_ticks"), x("simTicks")},
			Clock: []resolve.Pattern{
				x("board.clk_domain.clock"),
				x("system.clk_domain.clock"),
				x("system.cpu_clk_domain.clock"),
			},
			BranchMispred: []resolve.Pattern{
				x("system.cpu.branchPred.mispredicted_0::total"),
				x("branchPred.mispredicted_0::total"),
				resolve.AllOf("branchpred", "mispredicted"),
			},
			BranchCommitted: []resolve.Pattern{
				x("system.cpu.branchPred.committed_0::total"),
				x("branchPred.committed_0::total"),
				resolve.AllOf("branchpred", "committed"),
			},
			FlushEvents: []resolve.Pattern{
				x("system.cpu.commit.branchMispredicts"),
				x("commit.branchMispredicts"),
				resolve.AllOf("commit", "branchmispredicts"),
			},
			SquashedInsts: []resolve.Pattern{
				x("system.cpu.commit.commitSquashedInsts"),
				x("commit.commitSquashedInsts"),
				resolve.AllOf("commit", "squashedinsts"),
			},
			DRAMReads:      []resolve.Pattern{resolve.AllOf("memory", "module", "numreads")},
			DRAMWrites:     []resolve.Pattern{resolve.AllOf("memory", "module", "numwrites")},
			DRAMBytesRead:  []resolve.Pattern{resolve.AllOf("memory", "module", "bytesread")},
			DRAMBytesWrite: []resolve.Pattern{resolve.AllOf("memory", "module", "byteswritten")},
		},
	}
}

// Validate checks values that would otherwise make derivations meaningless
func (c Config) Validate() error {
	switch c.LatencySource {
	case LatencyAverage, LatencyTotal:
	default:
		return fmt.Errorf("invalid latency source: %q", c.LatencySource)
	}
	if c.ClockOverride < 0 {
		return fmt.Errorf("clock override must not be negative")
	}
	for _, l := range c.Levels.All() {
		if l.Tag == "" {
			return fmt.Errorf("cache level %s: tag must not be empty", l.Name)
		}
		if l.HitTime < 0 {
			return fmt.Errorf("cache level %s: hit time must not be negative", l.Name)
		}
	}
	return nil
}
