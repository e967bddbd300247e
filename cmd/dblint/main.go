// Package main provides the entry point for the dblint CLI tool.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/klauer/whatrecord/cmd/dblint/commands"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "dblint",
		Short: "EPICS database inspection and linting",
		Long: `dblint parses EPICS database (.db) and database definition (.dbd)
files into a semantic model and reports on it.

Commands:
  lint      Check a database against its record type definitions
  list      Tabulate the records of a database
  dump      Dump the parsed database model`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(commands.NewLintCommand())
	rootCmd.AddCommand(commands.NewListCommand())
	rootCmd.AddCommand(commands.NewDumpCommand())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
