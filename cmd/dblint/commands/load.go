// Package commands implements CLI command handlers for dblint.
package commands

import (
	"fmt"

	"github.com/klauer/whatrecord/db"
	"github.com/klauer/whatrecord/grammar"
)

// loadDatabase loads dbPath, resolving field types against dbdPath when one
// is given. It returns both databases; the dbd is nil when no path was set.
func loadDatabase(dbPath, dbdPath string, dialect int) (*db.Database, *db.Database, error) {
	if dialect != grammar.V3 && dialect != grammar.V4 {
		return nil, nil, fmt.Errorf("unsupported grammar dialect %d (want %d or %d)",
			dialect, grammar.V3, grammar.V4)
	}
	var dbd *db.Database
	if dbdPath != "" {
		var err error
		dbd, err = db.FromFile(dbdPath, db.Options{Version: dialect})
		if err != nil {
			return nil, nil, fmt.Errorf("loading record types: %w", err)
		}
	}
	database, err := db.FromFile(dbPath, db.Options{Version: dialect, DBD: dbd})
	if err != nil {
		return nil, nil, fmt.Errorf("loading database: %w", err)
	}
	return database, dbd, nil
}
