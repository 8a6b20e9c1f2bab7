package report

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"bytes"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"simstats/internal/table"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

const promMetricPrefix = "simstats_"

var rxInvalidPromChars = regexp.MustCompile(`[^a-zA-Z0-9_]`)

func sanitizeMetricName(name string) string {
	sanitized := strings.ReplaceAll(name, "%", "pct")
	return rxInvalidPromChars.ReplaceAllString(sanitized, "_")
}

// createPromReport renders every numeric field as a gauge in the Prometheus
// text exposition format, suitable for the node exporter textfile collector.
// Text fields become labels; empty cells are skipped.
func createPromReport(tableValues table.TableValues) (out []byte, err error) {
	var labelNames []string
	var labelFields []table.Field
	for _, field := range tableValues.Fields {
		if !field.Numeric() {
			labelNames = append(labelNames, sanitizeMetricName(field.Name))
			labelFields = append(labelFields, field)
		}
	}
	registry := prometheus.NewRegistry()
	for _, field := range tableValues.Fields {
		if !field.Numeric() {
			continue
		}
		help := field.Description
		if help == "" {
			help = field.Name
		}
		gauge := prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: promMetricPrefix + sanitizeMetricName(field.Name),
				Help: help,
			},
			labelNames,
		)
		if err = registry.Register(gauge); err != nil {
			return nil, fmt.Errorf("failed to register gauge for %s: %w", field.Name, err)
		}
		for row := range tableValues.NumRows() {
			v, ok := field.Float(row)
			if !ok {
				continue
			}
			labels := make([]string, len(labelFields))
			for i, lf := range labelFields {
				labels[i] = lf.Values[row]
			}
			gauge.WithLabelValues(labels...).Set(v)
		}
	}
	families, err := registry.Gather()
	if err != nil {
		return nil, fmt.Errorf("failed to gather metrics: %w", err)
	}
	var buf bytes.Buffer
	for _, mf := range families {
		if _, err = expfmt.MetricFamilyToText(&buf, mf); err != nil {
			return nil, fmt.Errorf("failed to encode %s: %w", mf.GetName(), err)
		}
	}
	slog.Debug("rendered prometheus metrics", slog.Int("families", len(families)))
	out = buf.Bytes()
	return
}
