// Package common defines data structures and functions that are used by multiple
// application commands, e.g., extract, lookup.
package common

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var AppName = filepath.Base(os.Args[0])

// AppContext represents the application context that can be accessed from all commands.
type AppContext struct {
	Timestamp   string // Timestamp is the application start time.
	LogFilePath string // LogFilePath is the path to the log file, empty when logging elsewhere.
	ConfigFile  string // ConfigFile is the optional configuration file given on the command line.
	Version     string // Version is the version of the application.
	Debug       bool   // Debug is true when debug logging was requested.
}

type Flag struct {
	Name string
	Help string
}
type FlagGroup struct {
	GroupName string
	Flags     []Flag
}

// GetAppContext returns the context set by the root command, or an empty
// context when the command runs without a parent, e.g., in tests.
func GetAppContext(cmd *cobra.Command) AppContext {
	if cmd.Parent() == nil || cmd.Parent().Context() == nil {
		return AppContext{}
	}
	if appContext, ok := cmd.Parent().Context().Value(AppContext{}).(AppContext); ok {
		return appContext
	}
	return AppContext{}
}

// UsageFunc returns a cobra usage function that prints the command's flags
// in the given groups followed by the global flags
func UsageFunc(getFlagGroups func() []FlagGroup) func(cmd *cobra.Command) error {
	return func(cmd *cobra.Command) error {
		cmd.Printf("Usage: %s\n\n", cmd.UseLine())
		if cmd.Example != "" {
			cmd.Printf("Examples:\n%s\n\n", cmd.Example)
		}
		cmd.Println("Flags:")
		for _, group := range getFlagGroups() {
			cmd.Printf("  %s:\n", group.GroupName)
			for _, flag := range group.Flags {
				flagDefault := ""
				if f := cmd.Flags().Lookup(flag.Name); f != nil && f.DefValue != "" && f.DefValue != "[]" {
					flagDefault = fmt.Sprintf(" (default: %s)", f.DefValue)
				}
				cmd.Printf("    --%-20s %s%s\n", flag.Name, flag.Help, flagDefault)
			}
		}
		if cmd.Parent() == nil {
			return nil
		}
		cmd.Println("\nGlobal Flags:")
		cmd.Parent().PersistentFlags().VisitAll(func(pf *pflag.Flag) {
			flagDefault := ""
			if pf.DefValue != "" {
				flagDefault = fmt.Sprintf(" (default: %s)", pf.DefValue)
			}
			cmd.Printf("  --%-20s %s%s\n", pf.Name, pf.Usage, flagDefault)
		})
		return nil
	}
}

// FlagValidationError is used to report an error with a flag
func FlagValidationError(cmd *cobra.Command, msg string) error {
	err := errors.New(msg)
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	fmt.Fprintf(os.Stderr, "See '%s --help' for usage details.\n", cmd.CommandPath())
	cmd.SilenceUsage = true
	return err
}

// WriteReport writes the report bytes to the specified path.
func WriteReport(reportBytes []byte, reportPath string) error {
	err := os.WriteFile(reportPath, reportBytes, 0644) // #nosec G306
	if err != nil {
		err = fmt.Errorf("failed to write report file: %v", err)
		fmt.Fprintln(os.Stderr, err)
		slog.Error(err.Error())
		return err
	}
	return nil
}
