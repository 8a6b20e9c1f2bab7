package report

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"encoding/json"

	"simstats/internal/table"
)

// orderedRecord marshals its fields in column order
type orderedRecord struct {
	names  []string
	values []any
}

func (r orderedRecord) MarshalJSON() ([]byte, error) {
	buf := []byte{'{'}
	for i, name := range r.names {
		if i > 0 {
			buf = append(buf, ',')
		}
		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(r.values[i])
		if err != nil {
			return nil, err
		}
		buf = append(buf, key...)
		buf = append(buf, ':')
		buf = append(buf, val...)
	}
	return append(buf, '}'), nil
}

// createJsonReport renders one object per row. Numeric cells become numbers,
// or null when empty.
func createJsonReport(tableValues table.TableValues) (out []byte, err error) {
	names := tableValues.Header()
	records := make([]orderedRecord, 0, tableValues.NumRows())
	for row := range tableValues.NumRows() {
		record := orderedRecord{names: names, values: make([]any, len(names))}
		for i, field := range tableValues.Fields {
			if !field.Numeric() {
				record.values[i] = field.Values[row]
				continue
			}
			if v, ok := field.Float(row); ok {
				record.values[i] = v
			}
		}
		records = append(records, record)
	}
	return json.MarshalIndent(records, "", " ")
}
