package db

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"

	"github.com/klauer/whatrecord"
	"github.com/klauer/whatrecord/grammar"
	"github.com/klauer/whatrecord/parser"
	"github.com/klauer/whatrecord/source"
)

// Error codes for database loading.
const (
	ErrReadFile = whatrecord.LoadErrors + iota
	ErrDecode
)

// Database is an assembled database or database definition. Maps hold the
// keyed entities; slices preserve declaration order where order matters.
type Database struct {
	Records     map[string]*Record
	PVAGroups   map[string]*Record
	RecordTypes map[string]*RecordType

	Aliases           map[string]string
	StandaloneAliases []StandaloneAlias

	Menus       map[string]*Menu
	Breaktables map[string]*BreakTable

	Paths      []string
	Addpaths   []string
	Includes   []string
	Drivers    []string
	Functions  []string
	Registrars []string

	Devices   []*Device
	Links     []Link
	Variables []Variable

	Comments []Comment

	recordOrder []string
	redeclared  []Redeclaration
}

// NewDatabase returns an empty database with all maps allocated.
func NewDatabase() *Database {
	return &Database{
		Records:     map[string]*Record{},
		PVAGroups:   map[string]*Record{},
		RecordTypes: map[string]*RecordType{},
		Aliases:     map[string]string{},
		Menus:       map[string]*Menu{},
		Breaktables: map[string]*BreakTable{},
	}
}

// Redeclarations lists records that were redeclared without the explicit
// override marker, in encounter order.
func (db *Database) Redeclarations() []Redeclaration {
	return db.redeclared
}

// RecordNames returns instance record names in declaration order. A record
// declared twice appears once, at its first position.
func (db *Database) RecordNames() []string {
	return db.recordOrder
}

// Options controls database loading.
type Options struct {
	// Filename names the source in contexts and errors; defaults to "stdin"
	// for FromString.
	Filename string
	// Version selects the grammar dialect; zero means grammar.V4.
	Version int
	// DBD supplies record type schemas for field type resolution. Record
	// types declared in the loaded text itself take precedence and are
	// visible only to records that follow them.
	DBD *Database
	// Macro, when set, expands each source line before parsing.
	Macro func(string) string
	// SkipAliases suppresses the alias inclusion pass (alias names are still
	// recorded in Aliases and on records).
	SkipAliases bool
	// Encoding decodes file bytes in FromFile; defaults to Latin-1.
	Encoding encoding.Encoding
}

func (o *Options) version() int {
	if o.Version == 0 {
		return grammar.V4
	}
	return o.Version
}

// FromString parses and assembles a database from text.
func FromString(text string, opts Options) (*Database, error) {
	if opts.Filename == "" {
		opts.Filename = "stdin"
	}
	if opts.Macro != nil {
		text = expandLines(text, opts.Macro)
	}
	compiled, err := grammar.Load(opts.version())
	if err != nil {
		return nil, err
	}
	src := source.New(opts.Filename, source.NormalizeNewlines([]byte(text)))
	res, err := parser.Parse(src, compiled)
	if err != nil {
		return nil, err
	}
	return assemble(res, opts)
}

// FromFile loads, decodes and assembles a database file. The file is decoded
// with opts.Encoding, Latin-1 when unset, so arbitrary byte values in
// comments never fail the load.
func FromFile(path string, opts Options) (*Database, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, whatrecord.FormatError(ErrReadFile, "cannot read %q: %s", path, err)
	}
	enc := opts.Encoding
	if enc == nil {
		enc = charmap.ISO8859_1
	}
	decoded, err := enc.NewDecoder().Bytes(raw)
	if err != nil {
		return nil, whatrecord.FormatError(ErrDecode, "cannot decode %q: %s", path, err)
	}
	if opts.Filename == "" {
		opts.Filename = path
	}
	return FromString(string(decoded), opts)
}

// expandLines applies the macro expander line by line, stripping trailing
// whitespace the expander may introduce.
func expandLines(text string, macro func(string) string) string {
	lines := strings.Split(text, "\n")
	var b strings.Builder
	for _, line := range lines {
		b.WriteString(strings.TrimRight(macro(line), " \t\r"))
		b.WriteString("\n")
	}
	return b.String()
}

// String summarizes the database contents.
func (db *Database) String() string {
	return fmt.Sprintf("Database(records: %d, record types: %d, aliases: %d, groups: %d)",
		len(db.Records), len(db.RecordTypes), len(db.Aliases), len(db.PVAGroups))
}
