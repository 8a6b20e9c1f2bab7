// Package config merges command line flags, SIMSTATS_ environment variables
// and an optional configuration file into the settings of a run.
package config

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"simstats/internal/derive"
	"simstats/internal/resolve"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every key when reading environment variables,
// e.g. SIMSTATS_WORKERS
const EnvPrefix = "SIMSTATS"

// keys shared by flags, environment variables and the configuration file
const (
	KeyRoot        = "root"
	KeyOutput      = "output"
	KeyName        = "name"
	KeyFormat      = "format"
	KeyWeights     = "weights"
	KeyMetricFile  = "metricfile"
	KeySummary     = "summary"
	KeyWorkers     = "workers"
	KeyClock       = "clock"
	KeyHitL1       = "hit-l1"
	KeyHitL2       = "hit-l2"
	KeyLatency     = "latency"
	KeyPreferTotal = "prefer-total"
	KeyLevels      = "levels"
	KeyCounters    = "counters"
)

// Load builds a viper instance with flags bound and, when path is not empty,
// the configuration file read. Flags set on the command line take precedence
// over environment variables, which take precedence over the file.
func Load(path string, flags *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()
	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("failed to bind flags: %w", err)
		}
	}
	if path == "" {
		return v, nil
	}
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	slog.Debug("loaded config file", slog.String("path", v.ConfigFileUsed()))
	return v, nil
}

// Formats returns the report formats held in v. Entries are split on commas
// since an environment variable holds the list as a single string.
func Formats(v *viper.Viper) []string {
	var formats []string
	for _, entry := range v.GetStringSlice(KeyFormat) {
		for _, format := range strings.Split(entry, ",") {
			if format = strings.TrimSpace(format); format != "" {
				formats = append(formats, format)
			}
		}
	}
	return formats
}

// ParseWeights parses the three energy proxy weights, separated by commas or
// spaces, e.g. "1,4,40"
func ParseWeights(text string) (derive.Weights, error) {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
	return weightsFromStrings(fields)
}

func weightsFromStrings(fields []string) (derive.Weights, error) {
	if len(fields) != 3 {
		return derive.Weights{}, fmt.Errorf("expected 3 weights (L1, L2, DRAM), got %d", len(fields))
	}
	var w [3]float64
	for i, field := range fields {
		f, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
		if err != nil {
			return derive.Weights{}, fmt.Errorf("invalid weight %q: %w", field, err)
		}
		if f < 0 {
			return derive.Weights{}, fmt.Errorf("weight %q must not be negative", field)
		}
		w[i] = f
	}
	return derive.Weights{L1: w[0], L2: w[1], DRAM: w[2]}, nil
}

// weights accepts either the textual form or a list, as a YAML file may hold
func weights(v *viper.Viper) (derive.Weights, error) {
	switch raw := v.Get(KeyWeights).(type) {
	case nil:
		return derive.DefaultWeights, nil
	case string:
		return ParseWeights(raw)
	case []any:
		fields := make([]string, len(raw))
		for i, item := range raw {
			fields[i] = fmt.Sprint(item)
		}
		return weightsFromStrings(fields)
	case []string:
		return weightsFromStrings(raw)
	default:
		return derive.Weights{}, fmt.Errorf("unsupported weights value: %v", raw)
	}
}

// DeriveConfig returns the derivation settings held in v, starting from
// derive.DefaultConfig
func DeriveConfig(v *viper.Viper) (derive.Config, error) {
	cfg := derive.DefaultConfig()
	var err error
	if cfg.Weights, err = weights(v); err != nil {
		return cfg, err
	}
	if v.IsSet(KeyClock) {
		cfg.ClockOverride = v.GetFloat64(KeyClock)
	}
	if v.IsSet(KeyLatency) {
		cfg.LatencySource = derive.LatencySource(strings.ToLower(v.GetString(KeyLatency)))
	}
	if v.IsSet(KeyPreferTotal) {
		cfg.PreferTotal = v.GetBool(KeyPreferTotal)
	}
	// per level settings from the file, then the hit time flags
	levels := map[string]*derive.Level{
		cfg.Levels.L1D.Name: &cfg.Levels.L1D,
		cfg.Levels.L1I.Name: &cfg.Levels.L1I,
		cfg.Levels.L2.Name:  &cfg.Levels.L2,
	}
	for name, level := range levels {
		key := KeyLevels + "." + name
		if v.IsSet(key + ".tag") {
			level.Tag = v.GetString(key + ".tag")
		}
		if v.IsSet(key + ".hit-time") {
			level.HitTime = v.GetFloat64(key + ".hit-time")
		}
	}
	if v.IsSet(KeyHitL1) {
		cfg.Levels.L1D.HitTime = v.GetFloat64(KeyHitL1)
		cfg.Levels.L1I.HitTime = v.GetFloat64(KeyHitL1)
	}
	if v.IsSet(KeyHitL2) {
		cfg.Levels.L2.HitTime = v.GetFloat64(KeyHitL2)
	}
	counters := v.GetStringMapStringSlice(KeyCounters)
	names := make([]string, 0, len(counters))
	for name := range counters {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err = cfg.Counters.Override(name, resolve.ParsePatterns(counters[name])); err != nil {
			return cfg, fmt.Errorf("invalid counter override: %w", err)
		}
	}
	if err = cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}
