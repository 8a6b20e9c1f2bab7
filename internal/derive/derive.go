// Package derive computes architectural metrics from the raw counters of a
// statistics record. Every function here is pure. A value that can't be
// determined, including the result of a division by zero, is NaN and
// propagates as such through dependent metrics.
package derive

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"math"

	"simstats/internal/resolve"
	"simstats/internal/stats"
)

// counter name suffixes shared by all cache levels
const (
	suffixAccesses       = "overallaccesses"
	suffixHits           = "overallhits"
	suffixMisses         = "overallmisses"
	suffixAvgMissLatency = "overallavgmisslatency"
	suffixMissLatency    = "overallmisslatency"
)

// memory dependence unit counters, summed across all units
const (
	memDepUnit        = "memdepunit"
	insertedLoads     = "insertedloads"
	conflictingLoads  = "conflictingloads"
	insertedStores    = "insertedstores"
	conflictingStores = "conflictingstores"
)

// NA is the unavailable value
var NA = math.NaN()

// Available reports whether v holds a usable value
func Available(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// ratio is num/den, NA unless both are available and den is positive
func ratio(num, den float64) float64 {
	if !Available(num) || !Available(den) || den <= 0 {
		return NA
	}
	return num / den
}

// CacheBlockMetrics are the counters of one cache level
type CacheBlockMetrics struct {
	Accesses         float64
	Hits             float64
	Misses           float64
	HitRate          float64
	MissLatencyTicks float64
}

// CacheLevelMetrics adds the instruction and clock dependent metrics
type CacheLevelMetrics struct {
	CacheBlockMetrics
	MPKI              float64
	MissPenaltyCycles float64
	AMATCycles        float64
}

// Metrics is the complete set of values derived for one run
type Metrics struct {
	IPC      float64
	Cycles   float64
	SimInsts float64
	Clock    float64

	L1D CacheLevelMetrics
	L1I CacheLevelMetrics
	L2  CacheLevelMetrics

	BranchMispreds    float64
	BranchCommitted   float64
	BranchMispredRate float64

	LoadsInserted     float64
	LoadsConflicting  float64
	LoadConflictRate  float64
	StoresInserted    float64
	StoresConflicting float64
	StoreConflictRate float64

	FlushEvents   float64
	SquashedInsts float64

	StallCyclesUpper float64

	L1AccessesTotal  float64
	L2AccessesTotal  float64
	DRAMReads        float64
	DRAMWrites       float64
	DRAMBytesRead    float64
	DRAMBytesWritten float64
	EnergyProxy      float64
	Weights          Weights
}

// deriver binds a record to a configuration for the duration of one run
type deriver struct {
	rec *stats.Record
	cfg Config
	r   resolve.Resolver
}

func (d deriver) value(patterns []resolve.Pattern) float64 {
	return d.r.Value(d.rec, patterns...)
}

func (d deriver) levelValue(level Level, suffix string) float64 {
	return d.r.Value(d.rec, resolve.AllOf(level.Tag, suffix))
}

// Derive runs every deriver against rec
func Derive(rec *stats.Record, cfg Config) Metrics {
	d := deriver{rec: rec, cfg: cfg, r: resolve.Resolver{PreferTotal: cfg.PreferTotal}}
	m := Metrics{Weights: cfg.Weights}

	m.Clock = d.clock()
	m.Cycles = Cycles(d.value(cfg.Counters.NumCycles), d.value(cfg.Counters.SimTicks), m.Clock)
	m.SimInsts = SimInsts(d.value(cfg.Counters.SimInsts), d.value(cfg.Counters.CommittedInsts))
	m.IPC = IPC(
		d.value(cfg.Counters.IPC),
		d.value(cfg.Counters.CommittedInsts),
		d.value(cfg.Counters.NumCycles),
		d.value(cfg.Counters.SimInsts),
		d.value(cfg.Counters.SimTicks),
		m.Clock,
	)

	m.L1D = d.cacheLevel(cfg.Levels.L1D, m.SimInsts, m.Clock)
	m.L1I = d.cacheLevel(cfg.Levels.L1I, m.SimInsts, m.Clock)
	m.L2 = d.cacheLevel(cfg.Levels.L2, m.SimInsts, m.Clock)

	m.BranchMispreds = d.value(cfg.Counters.BranchMispred)
	m.BranchCommitted = d.value(cfg.Counters.BranchCommitted)
	m.BranchMispredRate = BranchMispredictRate(m.BranchMispreds, m.BranchCommitted)

	m.LoadsInserted, m.LoadsConflicting, m.LoadConflictRate = MemDepConflicts(rec, insertedLoads, conflictingLoads)
	m.StoresInserted, m.StoresConflicting, m.StoreConflictRate = MemDepConflicts(rec, insertedStores, conflictingStores)

	m.FlushEvents = d.value(cfg.Counters.FlushEvents)
	m.SquashedInsts = d.value(cfg.Counters.SquashedInsts)

	var totalLatencies []float64
	for _, level := range cfg.Levels.All() {
		totalLatencies = append(totalLatencies, d.levelValue(level, suffixMissLatency))
	}
	m.StallCyclesUpper = StallCyclesUpperBound(totalLatencies, m.Clock)

	m.L1AccessesTotal = sumAvailable(m.L1D.Accesses, m.L1I.Accesses)
	m.L2AccessesTotal = m.L2.Accesses
	m.DRAMReads = d.value(cfg.Counters.DRAMReads)
	m.DRAMWrites = d.value(cfg.Counters.DRAMWrites)
	m.DRAMBytesRead = d.value(cfg.Counters.DRAMBytesRead)
	m.DRAMBytesWritten = d.value(cfg.Counters.DRAMBytesWrite)
	m.EnergyProxy = EnergyProxy(cfg.Weights, m.L1AccessesTotal, m.L2AccessesTotal, m.DRAMReads, m.DRAMWrites)
	return m
}

func (d deriver) clock() float64 {
	if d.cfg.ClockOverride > 0 {
		return d.cfg.ClockOverride
	}
	return d.value(d.cfg.Counters.Clock)
}

func (d deriver) cacheLevel(level Level, insts float64, clock float64) CacheLevelMetrics {
	block := CacheBlock(
		d.levelValue(level, suffixAccesses),
		d.levelValue(level, suffixHits),
		d.levelValue(level, suffixMisses),
	)
	switch d.cfg.LatencySource {
	case LatencyTotal:
		block.MissLatencyTicks = ratio(d.levelValue(level, suffixMissLatency), block.Misses)
	default:
		block.MissLatencyTicks = d.levelValue(level, suffixAvgMissLatency)
	}
	penalty := MissPenaltyCycles(block.MissLatencyTicks, clock)
	return CacheLevelMetrics{
		CacheBlockMetrics: block,
		MPKI:              MPKI(block.Misses, insts),
		MissPenaltyCycles: penalty,
		AMATCycles:        AMAT(level.HitTime, block.HitRate, penalty),
	}
}

// BranchMispredictRate is mispredicted over committed branches
func BranchMispredictRate(mispredicted, committed float64) float64 {
	return ratio(mispredicted, committed)
}

// IPC prefers the reported value, then committed/cycles, then
// simInsts/(simTicks/clock)
func IPC(direct, committed, cycles, simInsts, simTicks, clock float64) float64 {
	if Available(direct) {
		return direct
	}
	if v := ratio(committed, cycles); Available(v) {
		return v
	}
	return ratio(simInsts, ratio(simTicks, clock))
}

// Cycles prefers the reported cycle count, then simTicks/clock
func Cycles(numCycles, simTicks, clock float64) float64 {
	if Available(numCycles) {
		return numCycles
	}
	return ratio(simTicks, clock)
}

// SimInsts prefers the simulated instruction count, then committed
// instructions
func SimInsts(simInsts, committed float64) float64 {
	if Available(simInsts) {
		return simInsts
	}
	if Available(committed) {
		return committed
	}
	return NA
}

// CacheBlock fills in the misses (accesses - hits, floored at 0) when they
// were not reported and computes the hit rate when accesses is positive. The
// hit rate is clamped to [0, 1].
func CacheBlock(accesses, hits, misses float64) CacheBlockMetrics {
	b := CacheBlockMetrics{
		Accesses:         accesses,
		Hits:             hits,
		Misses:           misses,
		HitRate:          NA,
		MissLatencyTicks: NA,
	}
	if !Available(b.Misses) && Available(accesses) && Available(hits) {
		b.Misses = math.Max(0, accesses-hits)
	}
	if rate := ratio(hits, accesses); Available(rate) {
		b.HitRate = math.Min(1, math.Max(0, rate))
	}
	return b
}

// MPKI is misses per thousand instructions
func MPKI(misses, insts float64) float64 {
	return ratio(misses, ratio(insts, 1000))
}

// MissPenaltyCycles converts a miss latency in ticks to cycles
func MissPenaltyCycles(latencyTicks, clock float64) float64 {
	return ratio(latencyTicks, clock)
}

// AMAT is hitTime + (1 - hitRate) * missPenalty, in cycles. hitTime is an
// assumed constant, not a measurement.
func AMAT(hitTime, hitRate, missPenalty float64) float64 {
	if !Available(hitRate) || !Available(missPenalty) || missPenalty < 0 {
		return NA
	}
	return hitTime + (1-hitRate)*missPenalty
}

// MemDepConflicts sums the inserted and conflicting counters across every
// memory dependence unit. Either sum is NA when no unit reports it.
func MemDepConflicts(rec *stats.Record, inserted, conflicting string) (ins, conf, rate float64) {
	ins, conf = NA, NA
	if sum, n := resolve.Aggregate(rec, memDepUnit, inserted); n > 0 {
		ins = sum
	}
	if sum, n := resolve.Aggregate(rec, memDepUnit, conflicting); n > 0 {
		conf = sum
	}
	rate = ratio(conf, ins)
	return
}

// StallCyclesUpperBound adds the total miss latency of every level and
// converts it to cycles. Levels overlap in reality, so this is an upper bound.
func StallCyclesUpperBound(totalLatencyTicks []float64, clock float64) float64 {
	return ratio(sumAvailable(totalLatencyTicks...), clock)
}

// EnergyProxy is a weighted sum of cache and DRAM activity. Missing terms
// count as zero; the result is NA only if every term is missing.
func EnergyProxy(w Weights, l1Accesses, l2Accesses, dramReads, dramWrites float64) float64 {
	if !Available(l1Accesses) && !Available(l2Accesses) && !Available(dramReads) && !Available(dramWrites) {
		return NA
	}
	return w.L1*orZero(l1Accesses) + w.L2*orZero(l2Accesses) + w.DRAM*(orZero(dramReads)+orZero(dramWrites))
}

func orZero(v float64) float64 {
	if Available(v) {
		return v
	}
	return 0
}

// sumAvailable adds the available values, NA if there are none
func sumAvailable(vals ...float64) float64 {
	sum := NA
	for _, v := range vals {
		if !Available(v) {
			continue
		}
		if math.IsNaN(sum) {
			sum = 0
		}
		sum += v
	}
	return sum
}
