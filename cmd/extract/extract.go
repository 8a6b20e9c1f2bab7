// Package extract is a subcommand of the root command. It derives metrics from
// every gem5 statistics file found below a directory and writes one row per run.
package extract

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"strings"
	"syscall"

	"simstats/internal/collect"
	"simstats/internal/common"
	"simstats/internal/config"
	"simstats/internal/derive"
	"simstats/internal/expr"
	"simstats/internal/progress"
	"simstats/internal/report"
	"simstats/internal/resolve"
	"simstats/internal/summary"
	"simstats/internal/table"
	"simstats/internal/util"

	"github.com/spf13/cobra"
)

const cmdName = "extract"

var examples = []string{
	fmt.Sprintf("  All runs below the current directory:  $ %s %s", common.AppName, cmdName),
	fmt.Sprintf("  Runs below a directory, custom output: $ %s %s --root sweep --output results/sweep.csv", common.AppName, cmdName),
	fmt.Sprintf("  Several formats with summary:          $ %s %s --format csv,xlsx,txt --summary", common.AppName, cmdName),
	fmt.Sprintf("  Energy proxy weights:                  $ %s %s --weights 1,5,60", common.AppName, cmdName),
	fmt.Sprintf("  Additional metrics from a file:        $ %s %s --metricfile metrics.yaml", common.AppName, cmdName),
}

var Cmd = &cobra.Command{
	Use:           cmdName,
	Short:         "Extract metrics from gem5 statistics files",
	Example:       strings.Join(examples, "\n"),
	RunE:          runCmd,
	PreRunE:       validateFlags,
	GroupID:       "primary",
	Args:          cobra.NoArgs,
	SilenceErrors: true,
}

// flag vars
var (
	flagRoot       string
	flagOutput     string
	flagName       string
	flagFormat     []string
	flagWeights    string
	flagMetricFile string
	flagSummary    bool
	flagWorkers    int
	flagClock      float64
	flagHitL1      float64
	flagHitL2      float64
	flagLatency    string
)

// flag names match the configuration file keys
const (
	flagRootName       = config.KeyRoot
	flagOutputName     = config.KeyOutput
	flagNameName       = config.KeyName
	flagFormatName     = config.KeyFormat
	flagWeightsName    = config.KeyWeights
	flagMetricFileName = config.KeyMetricFile
	flagSummaryName    = config.KeySummary
	flagWorkersName    = config.KeyWorkers
	flagClockName      = config.KeyClock
	flagHitL1Name      = config.KeyHitL1
	flagHitL2Name      = config.KeyHitL2
	flagLatencyName    = config.KeyLatency
)

const defaultOutput = "gem5_metrics.csv"

func init() {
	Cmd.Flags().StringVar(&flagRoot, flagRootName, ".", "")
	Cmd.Flags().StringVar(&flagOutput, flagOutputName, defaultOutput, "")
	Cmd.Flags().StringVar(&flagName, flagNameName, collect.DefaultFileName, "")
	Cmd.Flags().StringSliceVar(&flagFormat, flagFormatName, []string{report.FormatCsv}, "")
	Cmd.Flags().StringVar(&flagWeights, flagWeightsName, table.FormatWeights(derive.DefaultWeights), "")
	Cmd.Flags().StringVar(&flagMetricFile, flagMetricFileName, "", "")
	Cmd.Flags().BoolVar(&flagSummary, flagSummaryName, false, "")
	Cmd.Flags().IntVar(&flagWorkers, flagWorkersName, 0, "")
	Cmd.Flags().Float64Var(&flagClock, flagClockName, 0, "")
	Cmd.Flags().Float64Var(&flagHitL1, flagHitL1Name, derive.DefaultConfig().Levels.L1D.HitTime, "")
	Cmd.Flags().Float64Var(&flagHitL2, flagHitL2Name, derive.DefaultConfig().Levels.L2.HitTime, "")
	Cmd.Flags().StringVar(&flagLatency, flagLatencyName, string(derive.LatencyAverage), "")

	Cmd.SetUsageFunc(common.UsageFunc(getFlagGroups))
}

func getFlagGroups() []common.FlagGroup {
	var groups []common.FlagGroup
	flags := []common.Flag{
		{
			Name: flagRootName,
			Help: "directory searched recursively for statistics files",
		},
		{
			Name: flagNameName,
			Help: "file name of the statistics files",
		},
		{
			Name: flagWorkersName,
			Help: "number of files processed in parallel, 0 for one per CPU",
		},
	}
	groups = append(groups, common.FlagGroup{
		GroupName: "Input Options",
		Flags:     flags,
	})
	flags = []common.Flag{
		{
			Name: flagWeightsName,
			Help: "energy proxy weights for L1, L2 and DRAM accesses",
		},
		{
			Name: flagClockName,
			Help: "clock period in ticks per cycle, overrides the clock found in the statistics",
		},
		{
			Name: flagHitL1Name,
			Help: "assumed L1 hit time in cycles, used for AMAT",
		},
		{
			Name: flagHitL2Name,
			Help: "assumed L2 hit time in cycles, used for AMAT",
		},
		{
			Name: flagLatencyName,
			Help: fmt.Sprintf("miss latency counter used for the miss penalty, one of: %s", strings.Join(derive.LatencySources, ", ")),
		},
		{
			Name: flagMetricFileName,
			Help: "YAML file with additional metric definitions",
		},
	}
	groups = append(groups, common.FlagGroup{
		GroupName: "Metric Options",
		Flags:     flags,
	})
	flags = []common.Flag{
		{
			Name: flagOutputName,
			Help: "output file, other formats are written next to it with their own extension",
		},
		{
			Name: flagFormatName,
			Help: fmt.Sprintf("choose output format(s) from: %s", strings.Join(report.FormatOptions, ", ")),
		},
		{
			Name: flagSummaryName,
			Help: "also write per metric statistics across all runs",
		},
	}
	groups = append(groups, common.FlagGroup{
		GroupName: "Output Options",
		Flags:     flags,
	})
	return groups
}

func validateFlags(cmd *cobra.Command, args []string) error {
	// validate format options
	for _, format := range flagFormat {
		if !report.ValidFormat(format) {
			return common.FlagValidationError(cmd, fmt.Sprintf("format options are: %s", strings.Join(report.FormatOptions, ", ")))
		}
	}
	if _, err := config.ParseWeights(flagWeights); err != nil {
		return common.FlagValidationError(cmd, fmt.Sprintf("invalid weights: %v", err))
	}
	if !slices.Contains(derive.LatencySources, strings.ToLower(flagLatency)) {
		return common.FlagValidationError(cmd, fmt.Sprintf("latency options are: %s", strings.Join(derive.LatencySources, ", ")))
	}
	if flagWorkers < 0 {
		return common.FlagValidationError(cmd, "workers must not be negative")
	}
	if flagClock < 0 {
		return common.FlagValidationError(cmd, "clock must not be negative")
	}
	if flagHitL1 < 0 || flagHitL2 < 0 {
		return common.FlagValidationError(cmd, "hit times must not be negative")
	}
	if flagName == "" || strings.ContainsRune(flagName, filepath.Separator) {
		return common.FlagValidationError(cmd, fmt.Sprintf("invalid statistics file name: %q", flagName))
	}
	if flagOutput == "" {
		return common.FlagValidationError(cmd, "output must not be empty")
	}
	return nil
}

// settings are the merged flag, environment and configuration file values
type settings struct {
	root       string
	output     string
	fileName   string
	formats    []string
	metricFile string
	summary    bool
	workers    int
	derive     derive.Config
}

func loadSettings(cmd *cobra.Command) (settings, error) {
	appContext := common.GetAppContext(cmd)
	v, err := config.Load(appContext.ConfigFile, cmd.Flags())
	if err != nil {
		return settings{}, err
	}
	deriveConfig, err := config.DeriveConfig(v)
	if err != nil {
		return settings{}, err
	}
	s := settings{
		root:       v.GetString(config.KeyRoot),
		output:     v.GetString(config.KeyOutput),
		fileName:   v.GetString(config.KeyName),
		formats:    config.Formats(v),
		metricFile: v.GetString(config.KeyMetricFile),
		summary:    v.GetBool(config.KeySummary),
		workers:    v.GetInt(config.KeyWorkers),
		derive:     deriveConfig,
	}
	// values from the configuration file did not pass through validateFlags
	for _, format := range s.formats {
		if !report.ValidFormat(format) {
			return s, fmt.Errorf("invalid format %q, options are: %s", format, strings.Join(report.FormatOptions, ", "))
		}
	}
	if len(s.formats) == 0 {
		s.formats = []string{report.FormatCsv}
	}
	if s.output == "" {
		s.output = defaultOutput
	}
	if s.fileName == "" {
		s.fileName = collect.DefaultFileName
	}
	return s, nil
}

func runCmd(cmd *cobra.Command, args []string) error {
	s, err := loadSettings(cmd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		slog.Error(err.Error())
		cmd.SilenceUsage = true
		return err
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	spinner := progress.NewSpinner(cmdName)
	stopSignals := configureSignalHandler(cancel, spinner)
	defer stopSignals()
	spinner.Start()
	reportPaths, rows, err := extractMetrics(ctx, s, spinner.Update)
	spinner.Finish()
	if err != nil {
		if errors.Is(err, collect.ErrNoStatsFiles) {
			fmt.Fprintf(os.Stderr, "Error: no %s found under: %s\n", s.fileName, s.root)
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		slog.Error(err.Error())
		cmd.SilenceUsage = true
		return err
	}
	fmt.Printf("Wrote %d rows\n", rows)
	fmt.Printf("Weights used (wL1, wL2, wDRAM): %s\n", table.FormatWeights(s.derive.Weights))
	fmt.Println("Report files:")
	for _, reportPath := range reportPaths {
		fmt.Printf("  %s\n", reportPath)
	}
	return nil
}

// configureSignalHandler cancels the batch on SIGINT or SIGTERM. Runs already
// in progress complete; no output is written. The returned function stops the
// handler.
func configureSignalHandler(cancel context.CancelFunc, spinner *progress.Spinner) func() {
	sigChannel := make(chan os.Signal, 1)
	signal.Notify(sigChannel, syscall.SIGINT, syscall.SIGTERM)
	done := make(chan struct{})
	go func() {
		select {
		case sig := <-sigChannel:
			slog.Info("received signal", slog.String("signal", sig.String()))
			spinner.Status("Signal received, cleaning up...")
			cancel()
		case <-done:
		}
	}()
	return func() {
		signal.Stop(sigChannel)
		close(done)
	}
}

// extractMetrics discovers, collects and renders. Nothing is written unless at
// least one statistics file is found.
func extractMetrics(ctx context.Context, s settings, progressFunc collect.ProgressFunc) (reportPaths []string, rows int, err error) {
	opts := collect.Options{
		Config:   s.derive,
		Workers:  s.workers,
		Progress: progressFunc,
	}
	var extraNames []string
	if s.metricFile != "" {
		var set *expr.Set
		set, err = expr.LoadFile(s.metricFile, resolve.Resolver{PreferTotal: s.derive.PreferTotal})
		if err != nil {
			return
		}
		opts.Evaluator = set
		extraNames = set.Names()
		slog.Info("loaded metric definitions", slog.String("path", s.metricFile), slog.Int("count", set.Len()))
	}
	exists, err := util.DirectoryExists(s.root)
	if err != nil {
		return
	}
	if !exists {
		err = fmt.Errorf("root directory %s does not exist", s.root)
		return
	}
	paths, err := collect.Discover(s.root, s.fileName)
	if err != nil {
		return
	}
	slog.Info("discovered statistics files", slog.String("root", s.root), slog.Int("count", len(paths)))
	records, err := collect.Collect(ctx, paths, opts)
	if err != nil {
		return
	}
	runs, err := table.RunsTable(records, extraNames)
	if err != nil {
		return
	}
	allTables := []table.TableValues{runs}
	if s.summary {
		allTables = append(allTables, summary.Table(runs))
	}
	if err = util.CreateDirectoryIfNotExists(filepath.Dir(s.output), 0755); err != nil { // #nosec G301
		err = fmt.Errorf("failed to create output directory: %w", err)
		return
	}
	for _, format := range s.formats {
		var reportBytes []byte
		reportBytes, err = report.Create(format, allTables)
		if err != nil {
			err = fmt.Errorf("failed to create %s report: %w", format, err)
			return
		}
		reportPath := outputPath(s.output, format)
		if err = common.WriteReport(reportBytes, reportPath); err != nil {
			return
		}
		reportPaths = append(reportPaths, reportPath)
	}
	if s.summary {
		var reportBytes []byte
		reportBytes, err = report.Create(report.FormatCsv, allTables[1:])
		if err != nil {
			err = fmt.Errorf("failed to create summary report: %w", err)
			return
		}
		reportPath := util.SiblingPath(s.output, "_"+summary.TableName, "."+report.FormatCsv)
		if err = common.WriteReport(reportBytes, reportPath); err != nil {
			return
		}
		reportPaths = append(reportPaths, reportPath)
	}
	rows = runs.NumRows()
	return
}

// outputPath is the output path itself when its extension names the format,
// otherwise the output path with the format's extension
func outputPath(output string, format string) string {
	if strings.EqualFold(filepath.Ext(output), "."+format) {
		return output
	}
	return util.SiblingPath(output, "", "."+format)
}
