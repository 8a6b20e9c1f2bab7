package summary

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"math"
	"testing"

	"simstats/internal/table"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTable() table.TableValues {
	return table.TableValues{
		Name:    "metrics",
		HasRows: true,
		Fields: []table.Field{
			{Name: "run", Kind: table.KindText, Values: []string{"a", "b", "c", "d"}},
			{Name: "ipc", Kind: table.KindValue, Values: []string{"1", "2", "", "3"}},
			{Name: "cycles", Kind: table.KindCount, Values: []string{"", "", "", ""}},
			{Name: "weird", Kind: table.KindValue, Values: []string{"x", "4", "4", "+Inf"}},
		},
	}
}

func TestCompute(t *testing.T) {
	got := Compute(sampleTable())
	require.Len(t, got, 3)

	ipc := got[0]
	assert.Equal(t, "ipc", ipc.Name)
	assert.Equal(t, 3, ipc.Count)
	assert.Equal(t, 2.0, ipc.Mean)
	assert.Equal(t, 1.0, ipc.Min)
	assert.Equal(t, 3.0, ipc.Max)
	assert.InDelta(t, math.Sqrt(2.0/3.0), ipc.Stddev, 1e-12)

	cycles := got[1]
	assert.Equal(t, 0, cycles.Count)
	assert.True(t, math.IsNaN(cycles.Mean))
	assert.True(t, math.IsNaN(cycles.Stddev))

	weird := got[2]
	assert.Equal(t, 2, weird.Count)
	assert.Equal(t, 0.0, weird.Stddev)
}

func TestTable(t *testing.T) {
	tv := Table(sampleTable())
	require.NoError(t, table.Validate(tv))
	assert.Equal(t, TableName, tv.Name)
	assert.Equal(t, []string{"metric", "count", "mean", "min", "max", "stddev"}, tv.Header())
	assert.Equal(t, 3, tv.NumRows())
	assert.Equal(t, []string{"ipc", "3", "2", "1", "3", tv.Fields[5].Values[0]}, tv.Row(0))
	assert.Equal(t, []string{"cycles", "0", "", "", "", ""}, tv.Row(1))
}

func TestTableNoRuns(t *testing.T) {
	tv := Table(table.TableValues{Name: "metrics", Fields: []table.Field{{Name: "ipc", Kind: table.KindValue}}})
	assert.Equal(t, 1, tv.NumRows())
	assert.Equal(t, "0", tv.Fields[1].Values[0])
}
