// Package expr evaluates user defined metrics, expressions over the fixed
// metrics and raw counters of a run.
//
// Definitions are read from a YAML list:
//
//	# metrics.yaml
//	- name: l1d_miss_ratio
//	  expression: "[l1d_misses] / [l1d_accesses]"
//	- name: loads_pki
//	  expression: "1000 * [loads] / [sim_insts]"
//	  variables:
//	    loads: ["system.cpu.commit.loads", "commit&loads"]
//
// A variable is resolved from its entry under variables, then from the fixed
// column with the same name, then by using the variable name itself as a key
// pattern.
package expr

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"fmt"
	"log/slog"
	"math"
	"os"
	"slices"
	"strings"

	"simstats/internal/derive"
	"simstats/internal/resolve"
	"simstats/internal/stats"
	"simstats/internal/table"

	"github.com/casbin/govaluate"
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

// Definition is one user defined metric as written in the definition file
type Definition struct {
	Name       string              `yaml:"name"`
	Expression string              `yaml:"expression"`
	Variables  map[string][]string `yaml:"variables"`
}

type compiledMetric struct {
	Definition
	evaluable *govaluate.EvaluableExpression
	variables []string                     // every variable referenced by the expression
	patterns  map[string][]resolve.Pattern // explicit patterns, by variable name
}

// Set is a parsed list of definitions, ready to be evaluated against any
// number of runs. It is safe for concurrent use.
type Set struct {
	metrics  []compiledMetric
	resolver resolve.Resolver
}

// LoadFile reads and parses a definition file
func LoadFile(path string, resolver resolve.Resolver) (*Set, error) {
	data, err := os.ReadFile(path) // #nosec G304
	if err != nil {
		return nil, errors.Wrap(err, "failed to read metric definition file")
	}
	set, err := Parse(data, resolver)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid metric definition file %s", path)
	}
	return set, nil
}

// Parse builds a Set from YAML definitions
func Parse(data []byte, resolver resolve.Resolver) (*Set, error) {
	var defs []Definition
	if err := yaml.Unmarshal(data, &defs); err != nil {
		return nil, errors.Wrap(err, "failed to parse metric definitions")
	}
	return New(defs, resolver)
}

// New validates and compiles defs
func New(defs []Definition, resolver resolve.Resolver) (*Set, error) {
	reserved := mapset.NewThreadUnsafeSet(table.ColumnNames()...)
	seen := mapset.NewThreadUnsafeSet[string]()
	functions := getEvaluatorFunctions()
	set := &Set{resolver: resolver}
	for i, def := range defs {
		def.Name = strings.TrimSpace(def.Name)
		if def.Name == "" {
			return nil, errors.Errorf("metric %d: name is required", i)
		}
		if reserved.Contains(def.Name) {
			return nil, errors.Errorf("metric %s: name is used by a built-in column", def.Name)
		}
		if !seen.Add(def.Name) {
			return nil, errors.Errorf("metric %s: defined more than once", def.Name)
		}
		if strings.TrimSpace(def.Expression) == "" {
			return nil, errors.Errorf("metric %s: expression is required", def.Name)
		}
		evaluable, err := govaluate.NewEvaluableExpressionWithFunctions(def.Expression, functions)
		if err != nil {
			return nil, errors.Wrapf(err, "metric %s", def.Name)
		}
		m := compiledMetric{
			Definition: def,
			evaluable:  evaluable,
			variables:  mapset.NewThreadUnsafeSet(evaluable.Vars()...).ToSlice(),
			patterns:   make(map[string][]resolve.Pattern),
		}
		slices.Sort(m.variables)
		for name, texts := range def.Variables {
			patterns := resolve.ParsePatterns(texts)
			if len(patterns) == 0 {
				return nil, errors.Errorf("metric %s: variable %s has no patterns", def.Name, name)
			}
			if !slices.Contains(m.variables, name) {
				slog.Warn("variable not used by expression", slog.String("metric", def.Name), slog.String("variable", name))
			}
			m.patterns[name] = patterns
		}
		set.metrics = append(set.metrics, m)
	}
	return set, nil
}

// Names returns the metric names in definition order
func (s *Set) Names() []string {
	names := make([]string, len(s.metrics))
	for i, m := range s.metrics {
		names[i] = m.Name
	}
	return names
}

// Len returns the number of metrics
func (s *Set) Len() int {
	return len(s.metrics)
}

// Evaluate computes every metric for one run. A metric whose variables
// can't all be resolved, or whose result is not a finite number, is NaN.
func (s *Set) Evaluate(rec *stats.Record, m derive.Metrics) []float64 {
	values := make([]float64, len(s.metrics))
	for i, metric := range s.metrics {
		values[i] = s.evaluate(metric, rec, m)
	}
	return values
}

func (s *Set) evaluate(metric compiledMetric, rec *stats.Record, m derive.Metrics) float64 {
	variables := make(map[string]any, len(metric.variables))
	for _, name := range metric.variables {
		v := s.variable(metric, name, rec, m)
		if !derive.Available(v) {
			slog.Debug("metric variable unavailable", slog.String("metric", metric.Name), slog.String("variable", name))
			return derive.NA
		}
		variables[name] = v
	}
	result, err := evaluateExpression(metric, variables)
	if err != nil {
		slog.Debug("failed to evaluate expression", slog.String("error", err.Error()))
		return derive.NA
	}
	v, ok := result.(float64)
	if !ok || !derive.Available(v) {
		return derive.NA
	}
	return v
}

func (s *Set) variable(metric compiledMetric, name string, rec *stats.Record, m derive.Metrics) float64 {
	if patterns, ok := metric.patterns[name]; ok {
		return s.resolver.Value(rec, patterns...)
	}
	if v, ok := table.MetricValue(m, name); ok {
		return v
	}
	return s.resolver.Value(rec, resolve.ParsePattern(name))
}

func evaluateExpression(metric compiledMetric, variables map[string]any) (result any, err error) {
	defer func() {
		if errx := recover(); errx != nil {
			err = fmt.Errorf("%v : %s : %s", errx, metric.Name, metric.Expression)
		}
	}()
	if result, err = metric.evaluable.Evaluate(variables); err != nil {
		err = fmt.Errorf("%v : %s : %s", err, metric.Name, metric.Expression)
	}
	return
}

func toFloat(arg any) (float64, error) {
	switch t := arg.(type) {
	case int:
		return float64(t), nil
	case float64:
		return t, nil
	}
	return math.NaN(), fmt.Errorf("expected a number, got %T", arg)
}

func getEvaluatorFunctions() (functions map[string]govaluate.ExpressionFunction) {
	binary := func(fn func(a, b float64) float64) govaluate.ExpressionFunction {
		return func(args ...any) (any, error) {
			if len(args) != 2 {
				return nil, fmt.Errorf("expected 2 arguments, got %d", len(args))
			}
			left, err := toFloat(args[0])
			if err != nil {
				return nil, err
			}
			right, err := toFloat(args[1])
			if err != nil {
				return nil, err
			}
			return fn(left, right), nil
		}
	}
	functions = make(map[string]govaluate.ExpressionFunction)
	functions["max"] = binary(func(a, b float64) float64 { return max(a, b) })
	functions["min"] = binary(func(a, b float64) float64 { return min(a, b) })
	return
}
