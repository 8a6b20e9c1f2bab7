package report

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"simstats/internal/table"
)

func createCsvReport(tableValues table.TableValues) (out []byte, err error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err = w.Write(tableValues.Header()); err != nil {
		return nil, fmt.Errorf("failed to write csv header: %w", err)
	}
	for row := range tableValues.NumRows() {
		if err = w.Write(tableValues.Row(row)); err != nil {
			return nil, fmt.Errorf("failed to write csv row %d: %w", row, err)
		}
	}
	w.Flush()
	if err = w.Error(); err != nil {
		return nil, fmt.Errorf("failed to write csv report: %w", err)
	}
	out = buf.Bytes()
	return
}
