// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

// Package table turns run records into named fields of string values, the
// common form consumed by every report renderer.
package table

import (
	"fmt"
	"log/slog"
	"math"
	"strconv"
)

// Kind tells renderers how a field's values should be presented
type Kind int

const (
	KindText  Kind = iota // free text, never numeric
	KindCount             // integral counters, rendered with grouping in text reports
	KindValue             // rates, ratios and other real values
)

// Field represents the values for a field in a table
type Field struct {
	Name        string
	Description string // optional description of the field
	Kind        Kind
	Values      []string
}

// Numeric reports whether the field holds numbers
func (f Field) Numeric() bool {
	return f.Kind != KindText
}

// Float returns the value at idx as a number. ok is false when the cell is
// empty or not a finite number.
func (f Field) Float(idx int) (v float64, ok bool) {
	if idx < 0 || idx >= len(f.Values) || f.Values[idx] == "" {
		return math.NaN(), false
	}
	v, err := strconv.ParseFloat(f.Values[idx], 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return math.NaN(), false
	}
	return v, true
}

// TableValues is a named set of fields with the same number of values each
type TableValues struct {
	Name        string
	HasRows     bool   // fields are columns and each value index is a row
	NoDataFound string // message to display when no data is found
	Fields      []Field
}

// NumRows returns the number of values per field
func (tv TableValues) NumRows() int {
	if len(tv.Fields) == 0 {
		return 0
	}
	return len(tv.Fields[0].Values)
}

// Row returns the values at index row, one per field
func (tv TableValues) Row(row int) []string {
	values := make([]string, len(tv.Fields))
	for i, field := range tv.Fields {
		values[i] = field.Values[row]
	}
	return values
}

// Header returns the field names
func (tv TableValues) Header() []string {
	names := make([]string, len(tv.Fields))
	for i, field := range tv.Fields {
		names[i] = field.Name
	}
	return names
}

// Validate checks that the table is well formed
func Validate(tableValues TableValues) error {
	if tableValues.Name == "" {
		return fmt.Errorf("table name cannot be empty")
	}
	// no field values is a valid state
	if len(tableValues.Fields) == 0 {
		return nil
	}
	names := make(map[string]int, len(tableValues.Fields))
	for i, field := range tableValues.Fields {
		if field.Name == "" {
			return fmt.Errorf("table %s, field %d, name cannot be empty", tableValues.Name, i)
		}
		if prev, ok := names[field.Name]; ok {
			return fmt.Errorf("table %s, field %d, %s, duplicates field %d", tableValues.Name, i, field.Name, prev)
		}
		names[field.Name] = i
	}
	// the number of entries in each field must be the same
	numEntries := len(tableValues.Fields[0].Values)
	for i, field := range tableValues.Fields {
		if len(field.Values) != numEntries {
			slog.Debug("field length mismatch", slog.String("table", tableValues.Name), slog.String("field", field.Name))
			return fmt.Errorf("table %s, field %d, %s, number of entries must be the same for all fields, expected %d, got %d", tableValues.Name, i, field.Name, numEntries, len(field.Values))
		}
	}
	return nil
}

// FormatValue renders a metric value for output. Unavailable values are
// empty; everything else uses the shortest representation that round-trips.
func FormatValue(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
