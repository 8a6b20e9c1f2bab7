// Package report renders tables in the supported output formats: csv, xlsx,
// json, txt and prom.
package report

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"fmt"
	"slices"
	"strings"

	"simstats/internal/table"
)

const (
	FormatCsv  = "csv"
	FormatXlsx = "xlsx"
	FormatJson = "json"
	FormatTxt  = "txt"
	FormatProm = "prom"
)

const noDataFound = "No data found."

var FormatOptions = []string{FormatCsv, FormatXlsx, FormatJson, FormatTxt, FormatProm}

// ValidFormat reports whether format is one of FormatOptions
func ValidFormat(format string) bool {
	return slices.Contains(FormatOptions, format)
}

// Create generates a report in the specified format.
//
// The xlsx report puts each table on its own sheet and the txt report lists
// the tables one after the other. The csv, json and prom formats hold a
// single table, so only the first table is rendered.
//
// Parameters:
// - format: one of FormatOptions.
// - allTableValues: the tables to render, at least one.
//
// Returns:
// - out: The generated report as a byte slice.
// - err: An error, if any occurred during report generation.
func Create(format string, allTableValues []table.TableValues) (out []byte, err error) {
	if len(allTableValues) == 0 {
		return nil, fmt.Errorf("no tables to render")
	}
	for _, tableValues := range allTableValues {
		if err = table.Validate(tableValues); err != nil {
			return nil, err
		}
	}
	switch format {
	case FormatCsv:
		return createCsvReport(allTableValues[0])
	case FormatTxt:
		return createTextReport(allTableValues)
	case FormatJson:
		return createJsonReport(allTableValues[0])
	case FormatXlsx:
		return createXlsxReport(allTableValues)
	case FormatProm:
		return createPromReport(allTableValues[0])
	}
	return nil, fmt.Errorf("expected one of %s, got %s", strings.Join(FormatOptions, ", "), format)
}
