package lint

import (
	"fmt"

	"github.com/klauer/whatrecord/db"
)

// FileOptions configures LintFile.
type FileOptions struct {
	// Version selects the grammar dialect for both files; zero means the
	// current dialect.
	Version int
	// Macro, when set, expands database lines before parsing.
	Macro func(string) string
	// DBD, when set, is used instead of loading dbdPath.
	DBD *db.Database
	// Config selects warning categories; nil means DefaultConfig.
	Config *Config
}

// LintFile loads a record type database and a record database from files and
// lints the latter against the former. Unreadable files and syntax failures
// are fatal. A pre-loaded DBD in opts makes dbdPath optional.
func LintFile(dbdPath, dbPath string, opts FileOptions) (*Results, error) {
	dbd := opts.DBD
	if dbd == nil && dbdPath != "" {
		var err error
		dbd, err = db.FromFile(dbdPath, db.Options{Version: opts.Version})
		if err != nil {
			return nil, fmt.Errorf("loading record types: %w", err)
		}
	}
	database, err := db.FromFile(dbPath, db.Options{
		Version: opts.Version,
		DBD:     dbd,
		Macro:   opts.Macro,
	})
	if err != nil {
		return nil, fmt.Errorf("loading database: %w", err)
	}
	cfg := DefaultConfig()
	if opts.Config != nil {
		cfg = *opts.Config
	}
	return Lint(database, dbd, cfg), nil
}
