// Package lookup is a subcommand of the root command. It shows which counter of
// a statistics file a pattern list resolves to.
package lookup

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"simstats/internal/common"
	"simstats/internal/resolve"
	"simstats/internal/stats"
	"simstats/internal/table"
	"simstats/internal/util"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

const cmdName = "lookup"

var examples = []string{
	fmt.Sprintf("  Resolve one counter:             $ %s %s m5out/stats.txt system.cpu.ipc", common.AppName, cmdName),
	fmt.Sprintf("  First match of a candidate list: $ %s %s m5out/stats.txt \"board.processor.cores.core.ipc,system.cpu.ipc\"", common.AppName, cmdName),
	fmt.Sprintf("  Keys containing all parts:       $ %s %s m5out/stats.txt \"l2cache&overallMisses\"", common.AppName, cmdName),
	fmt.Sprintf("  Sum over units:                  $ %s %s m5out/stats.txt --sum \"memDep&insertedLoads\"", common.AppName, cmdName),
}

var Cmd = &cobra.Command{
	Use:           cmdName + " FILE PATTERN...",
	Short:         "Show which counter a pattern list resolves to",
	Example:       strings.Join(examples, "\n"),
	RunE:          runCmd,
	PreRunE:       validateFlags,
	GroupID:       "primary",
	Args:          cobra.MinimumNArgs(2),
	SilenceErrors: true,
}

var (
	flagSum         bool
	flagPreferTotal bool
)

const (
	flagSumName         = "sum"
	flagPreferTotalName = "prefer-total"
)

const patternListSeparator = ","

func init() {
	Cmd.Flags().BoolVar(&flagSum, flagSumName, false, "")
	Cmd.Flags().BoolVar(&flagPreferTotal, flagPreferTotalName, true, "")
	Cmd.SetUsageFunc(common.UsageFunc(getFlagGroups))
}

func getFlagGroups() []common.FlagGroup {
	flags := []common.Flag{
		{
			Name: flagSumName,
			Help: "add up every counter whose key contains all '&' separated parts instead of resolving a single counter",
		},
		{
			Name: flagPreferTotalName,
			Help: "prefer '::total' keys among fuzzy matches",
		},
	}
	return []common.FlagGroup{{GroupName: "Options", Flags: flags}}
}

func validateFlags(cmd *cobra.Command, args []string) error {
	if len(args) < 1 {
		return common.FlagValidationError(cmd, "statistics file required")
	}
	exists, err := util.FileExists(args[0])
	if err != nil {
		return common.FlagValidationError(cmd, err.Error())
	}
	if !exists {
		return common.FlagValidationError(cmd, fmt.Sprintf("statistics file does not exist: %s", args[0]))
	}
	for _, arg := range args[1:] {
		if strings.TrimSpace(strings.ReplaceAll(arg, patternListSeparator, "")) == "" {
			return common.FlagValidationError(cmd, fmt.Sprintf("empty pattern list: %q", arg))
		}
	}
	return nil
}

func runCmd(cmd *cobra.Command, args []string) error {
	rec := stats.ParseFile(args[0])
	slog.Debug("parsed statistics file", slog.String("path", args[0]), slog.Int("counters", rec.Len()))
	if rec.Empty() {
		err := fmt.Errorf("no counters found in %s", args[0])
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		cmd.SilenceUsage = true
		return err
	}
	out := cmd.OutOrStdout()
	if flagSum {
		printSums(out, rec, args[1:])
		return nil
	}
	printResolutions(out, resolve.Resolver{PreferTotal: flagPreferTotal}, rec, args[1:])
	return nil
}

var (
	exactColor      = color.New(color.FgGreen).SprintFunc()
	normalizedColor = color.New(color.FgCyan).SprintFunc()
	fuzzyColor      = color.New(color.FgYellow).SprintFunc()
	missingColor    = color.New(color.FgRed).SprintFunc()
)

func tierColor(tier resolve.Tier) func(a ...any) string {
	switch tier {
	case resolve.TierExact:
		return exactColor
	case resolve.TierNormalized:
		return normalizedColor
	case resolve.TierFuzzy:
		return fuzzyColor
	}
	return missingColor
}

// printResolutions prints one line per pattern list: the list, the key it
// resolved to, the value and the tier
func printResolutions(out io.Writer, resolver resolve.Resolver, rec *stats.Record, patternLists []string) {
	for _, list := range patternLists {
		patterns := resolve.ParsePatterns(strings.Split(list, patternListSeparator))
		res, ok := resolver.Resolve(rec, patterns...)
		if !ok {
			fmt.Fprintf(out, "%s\t%s\n", list, missingColor("not found"))
			continue
		}
		fmt.Fprintf(out, "%s\t%s\t%s\t%s\n", list, res.Key, table.FormatValue(res.Value), tierColor(res.Tier)(res.Tier.String()))
	}
}

// printSums prints one line per '&' separated part list: the list, the sum
// and how many counters contributed
func printSums(out io.Writer, rec *stats.Record, partLists []string) {
	for _, list := range partLists {
		p := resolve.ParsePattern(list)
		parts := p.Parts
		if p.Kind == resolve.KindExact {
			parts = []string{p.Key}
		}
		sum, matched := resolve.Aggregate(rec, parts...)
		if matched == 0 {
			fmt.Fprintf(out, "%s\t%s\n", list, missingColor("not found"))
			continue
		}
		fmt.Fprintf(out, "%s\t%s\t%d counters\n", list, table.FormatValue(sum), matched)
	}
}
