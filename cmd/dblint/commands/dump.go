package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/klauer/whatrecord/grammar"
)

// DumpCommand holds configuration for the dump command.
type DumpCommand struct {
	dbdPath string
	dialect int
	format  string
}

// NewDumpCommand creates the dump command.
func NewDumpCommand() *cobra.Command {
	dc := &DumpCommand{}
	cmd := &cobra.Command{
		Use:   "dump [flags] DB",
		Short: "Dump the parsed database model",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return dc.run(args[0])
		},
	}
	cmd.Flags().StringVarP(&dc.dbdPath, "dbd", "d", "", "record type definition file (.dbd)")
	cmd.Flags().IntVar(&dc.dialect, "dialect", grammar.V4, "grammar dialect (3 or 4)")
	cmd.Flags().StringVarP(&dc.format, "format", "f", "yaml", "output format (yaml, json, spew)")
	return cmd
}

func (dc *DumpCommand) run(dbPath string) error {
	database, _, err := loadDatabase(dbPath, dc.dbdPath, dc.dialect)
	if err != nil {
		return err
	}
	switch dc.format {
	case "yaml":
		enc := yaml.NewEncoder(os.Stdout)
		enc.SetIndent(2)
		if err := enc.Encode(database); err != nil {
			return err
		}
		return enc.Close()
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(database)
	case "spew":
		spew.Fdump(os.Stdout, database)
		return nil
	default:
		return fmt.Errorf("unknown format %q (want yaml, json or spew)", dc.format)
	}
}
