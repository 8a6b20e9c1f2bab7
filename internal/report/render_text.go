package report

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"fmt"
	"math"
	"strings"

	"simstats/internal/table"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func createTextReport(allTableValues []table.TableValues) (out []byte, err error) {
	printer := message.NewPrinter(language.English)
	var sb strings.Builder
	for _, tableValues := range allTableValues {
		sb.WriteString(fmt.Sprintf("%s\n", tableValues.Name))
		for range len(tableValues.Name) {
			sb.WriteString("=")
		}
		sb.WriteString("\n")
		if tableValues.NumRows() == 0 {
			msg := noDataFound
			if tableValues.NoDataFound != "" {
				msg = tableValues.NoDataFound
			}
			sb.WriteString(msg + "\n\n")
			continue
		}
		sb.WriteString(DefaultTextTableRendererFunc(humanize(tableValues, printer)))
		sb.WriteString("\n")
	}
	out = []byte(sb.String())
	return
}

// humanize returns a copy of tableValues with numbers formatted for reading:
// counts get thousands separators, other values four decimals
func humanize(tableValues table.TableValues, printer *message.Printer) table.TableValues {
	out := tableValues
	out.Fields = make([]table.Field, len(tableValues.Fields))
	for i, field := range tableValues.Fields {
		out.Fields[i] = field
		if !field.Numeric() {
			continue
		}
		out.Fields[i].Values = make([]string, len(field.Values))
		for j := range field.Values {
			v, ok := field.Float(j)
			switch {
			case !ok:
				out.Fields[i].Values[j] = field.Values[j]
			case field.Kind == table.KindCount && v == math.Trunc(v):
				out.Fields[i].Values[j] = printer.Sprintf("%d", int64(v))
			default:
				out.Fields[i].Values[j] = printer.Sprintf("%.4f", v)
			}
		}
	}
	return out
}

// DefaultTextTableRendererFunc renders a table as aligned text. Tables with
// rows print the field names as column headings, other tables print one
// "name: value" line per field.
func DefaultTextTableRendererFunc(tableValues table.TableValues) string {
	var sb strings.Builder
	if tableValues.HasRows { // print the field names as column headings across the top of the table
		// find the longest item per column -- can be the field name (column header) or a value
		maxFieldLen := make([]int, len(tableValues.Fields))
		for i, field := range tableValues.Fields {
			// the last column shouldn't occupy more space than the value
			if i == len(tableValues.Fields)-1 {
				continue
			}
			// other columns should occupy the larger of the field name or the longest value
			maxFieldLen[i] = len(field.Name)
			for _, val := range field.Values {
				maxFieldLen[i] = max(maxFieldLen[i], len(val))
			}
		}
		columnSpacing := 3
		// print the field names
		for i, field := range tableValues.Fields {
			sb.WriteString(fmt.Sprintf("%-*s", maxFieldLen[i]+columnSpacing, field.Name))
		}
		sb.WriteString("\n")
		// underline the field names
		for i, field := range tableValues.Fields {
			sb.WriteString(fmt.Sprintf("%-*s", maxFieldLen[i]+columnSpacing, strings.Repeat("-", len(field.Name))))
		}
		sb.WriteString("\n")
		// print the rows
		for row := range tableValues.NumRows() {
			for i, field := range tableValues.Fields {
				sb.WriteString(fmt.Sprintf("%-*s", maxFieldLen[i]+columnSpacing, field.Values[row]))
			}
			sb.WriteString("\n")
		}
	} else {
		// get the longest field name to format the table nicely
		maxFieldNameLen := 0
		for _, field := range tableValues.Fields {
			maxFieldNameLen = max(maxFieldNameLen, len(field.Name))
		}
		// print the field names followed by their value
		for _, field := range tableValues.Fields {
			var value string
			if len(field.Values) > 0 {
				value = field.Values[0]
			}
			sb.WriteString(fmt.Sprintf("%s%-*s %s\n", field.Name, maxFieldNameLen-len(field.Name)+1, ":", value))
		}
	}
	return sb.String()
}
