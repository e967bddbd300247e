package commands

import (
	"os"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/klauer/whatrecord/db"
	"github.com/klauer/whatrecord/grammar"
)

// ListCommand holds configuration for the list command.
type ListCommand struct {
	dbdPath string
	dialect int
	groups  bool
}

// NewListCommand creates the list command.
func NewListCommand() *cobra.Command {
	lc := &ListCommand{}
	cmd := &cobra.Command{
		Use:   "list [flags] DB",
		Short: "Tabulate the records of a database",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return lc.run(args[0])
		},
	}
	cmd.Flags().StringVarP(&lc.dbdPath, "dbd", "d", "", "record type definition file (.dbd)")
	cmd.Flags().IntVar(&lc.dialect, "dialect", grammar.V4, "grammar dialect (3 or 4)")
	cmd.Flags().BoolVarP(&lc.groups, "groups", "g", false, "list synthesized groups instead of records")
	return cmd
}

func (lc *ListCommand) run(dbPath string) error {
	database, _, err := loadDatabase(dbPath, lc.dbdPath, lc.dialect)
	if err != nil {
		return err
	}

	tbl := table.NewWriter()
	tbl.SetOutputMirror(os.Stdout)
	tbl.SetStyle(table.StyleLight)
	if lc.groups {
		lc.appendGroups(tbl, database)
	} else {
		lc.appendRecords(tbl, database)
	}
	tbl.Render()
	return nil
}

func (lc *ListCommand) appendRecords(tbl table.Writer, database *db.Database) {
	tbl.AppendHeader(table.Row{"Record", "Type", "Fields", "Aliases", "Context"})
	for _, name := range database.RecordNames() {
		rec := database.Records[name]
		ctx := ""
		if len(rec.Context) > 0 {
			ctx = rec.Context[0].String()
		}
		tbl.AppendRow(table.Row{rec.Name, rec.RecordType, len(rec.Fields), len(rec.Aliases), ctx})
	}
	tbl.AppendFooter(table.Row{"Total", "", len(database.RecordNames()), "", ""})
}

func (lc *ListCommand) appendGroups(tbl table.Writer, database *db.Database) {
	tbl.AppendHeader(table.Row{"Group", "Fields", "Context"})
	names := make([]string, 0, len(database.PVAGroups))
	for name := range database.PVAGroups {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		group := database.PVAGroups[name]
		ctx := ""
		if len(group.Context) > 0 {
			ctx = group.Context[0].String()
		}
		tbl.AppendRow(table.Row{group.Name, len(group.GroupFields), ctx})
	}
	tbl.AppendFooter(table.Row{"Total", len(names), ""})
}
