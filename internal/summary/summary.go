package summary

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

// summary (count,mean,min,max,stddev) of every numeric column across runs

import (
	"log/slog"
	"math"
	"strconv"

	"simstats/internal/table"

	mstats "github.com/montanaflynn/stats"
)

// TableName is the name of the summary table
const TableName = "summary"

// column names of the summary table
const (
	fieldMetric = "metric"
	fieldCount  = "count"
	fieldMean   = "mean"
	fieldMin    = "min"
	fieldMax    = "max"
	fieldStddev = "stddev"
)

// MetricStats holds the statistics of one column. Everything but Count is NaN
// when no run had a value.
type MetricStats struct {
	Name   string
	Count  int
	Mean   float64
	Min    float64
	Max    float64
	Stddev float64
}

// Compute summarizes every numeric field of tv, in field order
func Compute(tv table.TableValues) []MetricStats {
	var out []MetricStats
	for _, field := range tv.Fields {
		if !field.Numeric() {
			continue
		}
		out = append(out, computeField(field))
	}
	return out
}

func computeField(field table.Field) MetricStats {
	var data mstats.Float64Data
	for i := range field.Values {
		v, ok := field.Float(i)
		if !ok {
			continue
		}
		data = append(data, v)
	}
	s := MetricStats{
		Name:   field.Name,
		Count:  data.Len(),
		Mean:   math.NaN(),
		Min:    math.NaN(),
		Max:    math.NaN(),
		Stddev: math.NaN(),
	}
	if s.Count == 0 {
		return s
	}
	var err error
	if s.Mean, err = mstats.Mean(data); err != nil {
		slog.Debug("failed to compute mean", slog.String("metric", field.Name), slog.String("error", err.Error()))
	}
	if s.Min, err = mstats.Min(data); err != nil {
		slog.Debug("failed to compute min", slog.String("metric", field.Name), slog.String("error", err.Error()))
	}
	if s.Max, err = mstats.Max(data); err != nil {
		slog.Debug("failed to compute max", slog.String("metric", field.Name), slog.String("error", err.Error()))
	}
	if s.Stddev, err = mstats.StandardDeviationPopulation(data); err != nil {
		slog.Debug("failed to compute stddev", slog.String("metric", field.Name), slog.String("error", err.Error()))
	}
	return s
}

// Table returns the summary of tv as a table with one row per numeric field
func Table(tv table.TableValues) table.TableValues {
	fields := []table.Field{
		{Name: fieldMetric, Kind: table.KindText},
		{Name: fieldCount, Kind: table.KindCount},
		{Name: fieldMean, Kind: table.KindValue},
		{Name: fieldMin, Kind: table.KindValue},
		{Name: fieldMax, Kind: table.KindValue},
		{Name: fieldStddev, Kind: table.KindValue},
	}
	for _, s := range Compute(tv) {
		fields[0].Values = append(fields[0].Values, s.Name)
		fields[1].Values = append(fields[1].Values, strconv.Itoa(s.Count))
		fields[2].Values = append(fields[2].Values, table.FormatValue(s.Mean))
		fields[3].Values = append(fields[3].Values, table.FormatValue(s.Min))
		fields[4].Values = append(fields[4].Values, table.FormatValue(s.Max))
		fields[5].Values = append(fields[5].Values, table.FormatValue(s.Stddev))
	}
	return table.TableValues{
		Name:        TableName,
		HasRows:     true,
		NoDataFound: "No numeric columns.",
		Fields:      fields,
	}
}
