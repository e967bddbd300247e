/*
Package whatrecord resolves EPICS database and database definition source text
into a typed, queryable semantic model.

Consists of subpackages:
  - source: source text with offset to line/column mapping;
  - lexer: lexical analyzer with a comment side channel;
  - grammar: versioned static grammar definitions and their compiled, shareable form;
  - parser: single-pass parser producing typed declaration nodes;
  - common: load contexts, JSON-ish values, link classification, linter message types;
  - db: semantic entities, record-type registry, and database assembly;
  - lint: warning/error taxonomy layered on an assembled database;
  - cmd/dblint: command-line linter and inspector.

Typical usage is:

1. Load a database definition (.dbd) with db.FromFile to obtain record types.

2. Load one or more database (.db) files with db.FromFile, passing the
definition database so instance field types resolve.

3. Feed the result through lint.Lint (or use lint.LintFile to do all of the
above in one call) and inspect Results.
*/
package whatrecord

import (
	"fmt"
)

// Error classes used by subpackages, each class contains up to 99 error codes:
const (
	GrammarErrors = 1   // used by grammar
	LexicalErrors = 101 // used by lexer
	SyntaxErrors  = 201 // used by parser
	LoadErrors    = 301 // used by db
)

// Error is the error type used by whatrecord subpackages.
type Error struct {
	// Code contains non-zero error code.
	Code int

	// Message contains non-empty error message including source name and position information if provided.
	Message string

	// SourceName contains source name that caused this error or empty string.
	SourceName string

	// Line contains line number in source file or 0.
	Line int

	// Col contains column number in source file or 0.
	Col int
}

// SourcePos is used to retrieve source name and position information when constructing an error;
// source.Pos and lexer.Token implement this interface.
type SourcePos interface {
	// SourceName returns source file name or empty string.
	SourceName() string
	// Line returns line number or 0.
	Line() int
	// Col returns column number or 0.
	Col() int
}

// NewError creates new Error structure.
// name, line, and col will be added to error message if provided (non-zero).
func NewError(code int, msg, name string, line, col int) *Error {
	if name != "" && line != 0 {
		msg += fmt.Sprintf(" in %s at line %d", name, line)
		if col != 0 {
			msg += fmt.Sprintf(" col %d", col)
		}
	}
	return &Error{code, msg, name, line, col}
}

// Error simply returns Error.Message.
func (e *Error) Error() string {
	return e.Message
}

// FormatError creates Error structure with no source and position information.
// params will be added to error message using fmt.Sprintf function.
func FormatError(code int, msg string, params ...any) *Error {
	if len(params) > 0 {
		msg = fmt.Sprintf(msg, params...)
	}
	return NewError(code, msg, "", 0, 0)
}

// FormatErrorPos creates Error structure with source and position information.
// pos must not be nil.
// params will be added to error message using fmt.Sprintf function.
func FormatErrorPos(pos SourcePos, code int, msg string, params ...any) *Error {
	if len(params) > 0 {
		msg = fmt.Sprintf(msg, params...)
	}
	return NewError(code, msg, pos.SourceName(), pos.Line(), pos.Col())
}
