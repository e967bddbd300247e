package commands

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/klauer/whatrecord/grammar"
	"github.com/klauer/whatrecord/lint"
)

// LintCommand holds configuration for the lint command.
type LintCommand struct {
	dbdPath    string
	dialect    int
	configFile string
	warn       []string
	noWarn     []string
	noColor    bool
}

// NewLintCommand creates the lint command.
func NewLintCommand() *cobra.Command {
	lc := &LintCommand{}
	cmd := &cobra.Command{
		Use:   "lint [flags] DB",
		Short: "Check a database against its record type definitions",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return lc.run(args[0])
		},
	}
	cmd.Flags().StringVarP(&lc.dbdPath, "dbd", "d", "", "record type definition file (.dbd)")
	cmd.Flags().IntVar(&lc.dialect, "dialect", grammar.V4, "grammar dialect (3 or 4)")
	cmd.Flags().StringVarP(&lc.configFile, "config", "c", "", "yaml config file with warning toggles")
	cmd.Flags().StringArrayVarP(&lc.warn, "warn", "W", nil, "enable a warning category")
	cmd.Flags().StringArrayVar(&lc.noWarn, "no-warn", nil, "disable a warning category")
	cmd.Flags().BoolVar(&lc.noColor, "no-color", false, "disable colored output")
	return cmd
}

func (lc *LintCommand) run(dbPath string) error {
	cfg, err := lc.buildConfig()
	if err != nil {
		return err
	}
	results, err := lint.LintFile(lc.dbdPath, dbPath, lint.FileOptions{
		Version: lc.dialect,
		Config:  &cfg,
	})
	if err != nil {
		return err
	}
	lc.report(results)
	if !results.Success() {
		return fmt.Errorf("%d error(s) in %s", len(results.Errors), dbPath)
	}
	return nil
}

// buildConfig layers the config file and the --warn/--no-warn flags on top
// of the defaults.
func (lc *LintCommand) buildConfig() (lint.Config, error) {
	defaults := lint.DefaultConfig()
	toggles := map[string]*bool{
		lint.WarnBadField:      &defaults.BadFields,
		lint.WarnUnquotedField: &defaults.UnquotedFields,
		lint.WarnExtLink:       &defaults.ExtLinks,
		lint.WarnRecAppend:     &defaults.RecAppend,
		lint.WarnSpecComm:      &defaults.SpecComm,
		lint.WarnVarInt:        &defaults.VarInt,
	}

	if lc.configFile != "" {
		v := viper.New()
		v.SetConfigFile(lc.configFile)
		if err := v.ReadInConfig(); err != nil {
			return defaults, fmt.Errorf("reading config: %w", err)
		}
		for name, target := range toggles {
			key := "warnings." + name
			if v.IsSet(key) {
				*target = v.GetBool(key)
			}
		}
	}
	for _, name := range lc.warn {
		target, ok := toggles[name]
		if !ok {
			return defaults, fmt.Errorf("unknown warning category %q", name)
		}
		*target = true
	}
	for _, name := range lc.noWarn {
		target, ok := toggles[name]
		if !ok {
			return defaults, fmt.Errorf("unknown warning category %q", name)
		}
		*target = false
	}
	return defaults, nil
}

func (lc *LintCommand) report(results *lint.Results) {
	if lc.noColor {
		color.NoColor = true
	}
	warnColor := color.New(color.FgYellow)
	errColor := color.New(color.FgRed, color.Bold)
	for _, w := range results.Warnings {
		warnColor.Fprintf(os.Stderr, "warning[%s] %s:%d: %s\n", w.Name, w.File, w.Line, w.Message)
	}
	for _, e := range results.Errors {
		errColor.Fprintf(os.Stderr, "error[%s] %s:%d: %s\n", e.Name, e.File, e.Line, e.Message)
	}
	if results.Success() {
		color.New(color.FgGreen).Fprintf(os.Stderr, "%d record(s), %d group(s): ok (%d warning(s))\n",
			len(results.Records), len(results.PVAGroups), len(results.Warnings))
	}
}
