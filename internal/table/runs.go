package table

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"fmt"
	"strconv"
	"strings"

	"simstats/internal/collect"
	"simstats/internal/derive"
)

// RunsTableName is the name of the per-run metrics table
const RunsTableName = "metrics"

// Column names that are not metrics
const (
	ColumnRun     = "run"
	ColumnPath    = "stats_path"
	ColumnWeights = "weights_wL1_wL2_wDRAM"
)

// Column describes one fixed column of the runs table
type Column struct {
	Name        string
	Description string
	Kind        Kind
	value       func(m derive.Metrics) float64
}

func count(name, desc string, fn func(m derive.Metrics) float64) Column {
	return Column{Name: name, Description: desc, Kind: KindCount, value: fn}
}

func metric(name, desc string, fn func(m derive.Metrics) float64) Column {
	return Column{Name: name, Description: desc, Kind: KindValue, value: fn}
}

func cacheColumns(prefix string, level func(m derive.Metrics) derive.CacheLevelMetrics) []Column {
	return []Column{
		count(prefix+"_accesses", prefix+" accesses", func(m derive.Metrics) float64 { return level(m).Accesses }),
		count(prefix+"_hits", prefix+" hits", func(m derive.Metrics) float64 { return level(m).Hits }),
		count(prefix+"_misses", prefix+" misses", func(m derive.Metrics) float64 { return level(m).Misses }),
		metric(prefix+"_hit_rate", "hits / accesses", func(m derive.Metrics) float64 { return level(m).HitRate }),
		metric(prefix+"_mpki", "misses per thousand instructions", func(m derive.Metrics) float64 { return level(m).MPKI }),
		metric(prefix+"_miss_penalty_cycles", "miss latency in cycles", func(m derive.Metrics) float64 { return level(m).MissPenaltyCycles }),
		metric(prefix+"_amat_cycles", "average memory access time in cycles", func(m derive.Metrics) float64 { return level(m).AMATCycles }),
	}
}

// metricColumns are the numeric fixed columns, in output order
var metricColumns = func() []Column {
	cols := []Column{
		metric("ipc", "instructions per cycle", func(m derive.Metrics) float64 { return m.IPC }),
		count("cycles", "simulated cycles", func(m derive.Metrics) float64 { return m.Cycles }),
		count("sim_insts", "simulated instructions", func(m derive.Metrics) float64 { return m.SimInsts }),
	}
	cols = append(cols, cacheColumns("l1d", func(m derive.Metrics) derive.CacheLevelMetrics { return m.L1D })...)
	cols = append(cols, cacheColumns("l1i", func(m derive.Metrics) derive.CacheLevelMetrics { return m.L1I })...)
	cols = append(cols, cacheColumns("l2", func(m derive.Metrics) derive.CacheLevelMetrics { return m.L2 })...)
	cols = append(cols,
		count("branch_mispreds", "mispredicted branches", func(m derive.Metrics) float64 { return m.BranchMispreds }),
		count("branch_committed", "committed branches", func(m derive.Metrics) float64 { return m.BranchCommitted }),
		metric("branch_mispred_rate", "mispredicted / committed", func(m derive.Metrics) float64 { return m.BranchMispredRate }),
		count("memdep_loads_inserted", "", func(m derive.Metrics) float64 { return m.LoadsInserted }),
		count("memdep_loads_conflicting", "", func(m derive.Metrics) float64 { return m.LoadsConflicting }),
		metric("memdep_load_conflict_rate", "", func(m derive.Metrics) float64 { return m.LoadConflictRate }),
		count("memdep_stores_inserted", "", func(m derive.Metrics) float64 { return m.StoresInserted }),
		count("memdep_stores_conflicting", "", func(m derive.Metrics) float64 { return m.StoresConflicting }),
		metric("memdep_store_conflict_rate", "", func(m derive.Metrics) float64 { return m.StoreConflictRate }),
		count("flush_events", "pipeline flushes caused by mispredicts", func(m derive.Metrics) float64 { return m.FlushEvents }),
		count("squashed_insts", "", func(m derive.Metrics) float64 { return m.SquashedInsts }),
		metric("eff_stall_cycles_upper", "upper bound on memory stall cycles", func(m derive.Metrics) float64 { return m.StallCyclesUpper }),
		count("l1_accesses_total", "", func(m derive.Metrics) float64 { return m.L1AccessesTotal }),
		count("l2_accesses_total", "", func(m derive.Metrics) float64 { return m.L2AccessesTotal }),
		count("dram_reads", "", func(m derive.Metrics) float64 { return m.DRAMReads }),
		count("dram_writes", "", func(m derive.Metrics) float64 { return m.DRAMWrites }),
		count("dram_bytes_read", "", func(m derive.Metrics) float64 { return m.DRAMBytesRead }),
		count("dram_bytes_written", "", func(m derive.Metrics) float64 { return m.DRAMBytesWritten }),
		metric("energy_proxy", "weighted sum of cache and DRAM accesses", func(m derive.Metrics) float64 { return m.EnergyProxy }),
	)
	return cols
}()

// ColumnNames returns every fixed column name in output order
func ColumnNames() []string {
	names := []string{ColumnRun, ColumnPath}
	for _, c := range metricColumns {
		names = append(names, c.Name)
	}
	return append(names, ColumnWeights)
}

// MetricValue looks up a numeric fixed column by name
func MetricValue(m derive.Metrics, name string) (float64, bool) {
	for _, c := range metricColumns {
		if c.Name == name {
			return c.value(m), true
		}
	}
	return derive.NA, false
}

// FormatWeights renders the energy weights as a single cell
func FormatWeights(w derive.Weights) string {
	parts := []string{
		strconv.FormatFloat(w.L1, 'g', -1, 64),
		strconv.FormatFloat(w.L2, 'g', -1, 64),
		strconv.FormatFloat(w.DRAM, 'g', -1, 64),
	}
	return strings.Join(parts, ",")
}

// RunsTable builds the per-run table. extraNames are the user defined metric
// names, appended after the fixed columns; every record must carry one extra
// value per name.
func RunsTable(records []collect.RunRecord, extraNames []string) (TableValues, error) {
	fields := []Field{
		{Name: ColumnRun, Description: "directory holding the statistics file", Kind: KindText},
		{Name: ColumnPath, Description: "statistics file", Kind: KindText},
	}
	for _, c := range metricColumns {
		fields = append(fields, Field{Name: c.Name, Description: c.Description, Kind: c.Kind})
	}
	weightsIdx := len(fields)
	fields = append(fields, Field{Name: ColumnWeights, Description: "energy proxy weights", Kind: KindText})
	for _, name := range extraNames {
		fields = append(fields, Field{Name: name, Description: "user defined metric", Kind: KindValue})
	}
	for _, r := range records {
		if len(r.Extra) != len(extraNames) {
			return TableValues{}, fmt.Errorf("run %s: expected %d user defined values, got %d", r.Run, len(extraNames), len(r.Extra))
		}
		fields[0].Values = append(fields[0].Values, r.Run)
		fields[1].Values = append(fields[1].Values, r.Path)
		for i, c := range metricColumns {
			fields[2+i].Values = append(fields[2+i].Values, FormatValue(c.value(r.Metrics)))
		}
		fields[weightsIdx].Values = append(fields[weightsIdx].Values, FormatWeights(r.Metrics.Weights))
		for i, v := range r.Extra {
			fields[weightsIdx+1+i].Values = append(fields[weightsIdx+1+i].Values, FormatValue(v))
		}
	}
	tv := TableValues{
		Name:        RunsTableName,
		HasRows:     true,
		NoDataFound: "No runs found.",
		Fields:      fields,
	}
	if err := Validate(tv); err != nil {
		return TableValues{}, err
	}
	return tv, nil
}
