package report

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"bufio"
	"bytes"
	"fmt"
	"strconv"

	"simstats/internal/table"

	"github.com/xuri/excelize/v2"
)

func cellName(col int, row int) (name string) {
	columnName, err := excelize.ColumnNumberToName(col)
	if err != nil {
		return
	}
	name, err = excelize.JoinCellName(columnName, row)
	if err != nil {
		return
	}
	return
}

// renderXlsxTable writes tableValues to its own sheet, named after the table
func renderXlsxTable(tableValues table.TableValues, f *excelize.File, sheetName string) {
	row := 1
	if tableValues.NumRows() == 0 {
		msg := noDataFound
		if tableValues.NoDataFound != "" {
			msg = tableValues.NoDataFound
		}
		_ = f.SetCellValue(sheetName, cellName(1, row), msg)
		return
	}
	DefaultXlsxTableRendererFunc(tableValues, f, sheetName, &row)
}

// DefaultXlsxTableRendererFunc writes the field names as a bold header row
// followed by one row per value index, starting at *row
func DefaultXlsxTableRendererFunc(tableValues table.TableValues, f *excelize.File, sheetName string, row *int) {
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Bold: true,
		},
	})
	alignLeft, _ := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{
			Horizontal: "left",
		},
	})
	col := 1
	for _, field := range tableValues.Fields {
		_ = f.SetCellValue(sheetName, cellName(col, *row), field.Name)
		_ = f.SetCellStyle(sheetName, cellName(col, *row), cellName(col, *row), headerStyle)
		col++
	}
	*row++
	for tableRow := range tableValues.NumRows() {
		col = 1
		for _, field := range tableValues.Fields {
			value := field.Values[tableRow]
			if value != "" {
				if field.Numeric() {
					_ = f.SetCellValue(sheetName, cellName(col, *row), getValueForCell(value))
				} else {
					_ = f.SetCellValue(sheetName, cellName(col, *row), value)
					_ = f.SetCellStyle(sheetName, cellName(col, *row), cellName(col, *row), alignLeft)
				}
			}
			col++
		}
		*row++
	}
}

func createXlsxReport(allTableValues []table.TableValues) (out []byte, err error) {
	f := excelize.NewFile()
	defer f.Close()
	for i, tableValues := range allTableValues {
		sheetName := tableValues.Name
		if i == 0 {
			if err = f.SetSheetName("Sheet1", sheetName); err != nil {
				return nil, fmt.Errorf("failed to name sheet %s: %w", sheetName, err)
			}
		} else if _, err = f.NewSheet(sheetName); err != nil {
			return nil, fmt.Errorf("failed to create sheet %s: %w", sheetName, err)
		}
		_ = f.SetColWidth(sheetName, "A", "A", 25)
		_ = f.SetColWidth(sheetName, "B", "B", 40)
		if lastCol, err := excelize.ColumnNumberToName(max(len(tableValues.Fields), 3)); err == nil {
			_ = f.SetColWidth(sheetName, "C", lastCol, 18)
		}
		renderXlsxTable(tableValues, f, sheetName)
	}
	var buf bytes.Buffer
	w := bufio.NewWriter(&buf)
	if _, err = f.WriteTo(w); err != nil {
		err = fmt.Errorf("failed to write xlsx report to buffer: %v", err)
		return
	}
	if err = w.Flush(); err != nil {
		err = fmt.Errorf("failed to flush xlsx report: %v", err)
		return
	}
	out = buf.Bytes()
	return
}

func getValueForCell(value string) (val any) {
	intValue, err := strconv.Atoi(value)
	if err == nil {
		val = intValue
		return
	}
	floatValue, err := strconv.ParseFloat(value, 64)
	if err == nil {
		val = floatValue
		return
	}
	val = value
	return
}
