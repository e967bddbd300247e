package parser

import (
	"github.com/klauer/whatrecord"
	"github.com/klauer/whatrecord/lexer"
)

// Error codes used by parser:
const (
	ErrUnexpectedEof = whatrecord.SyntaxErrors + iota
	ErrUnexpectedToken
)

func unexpectedEofError(t *lexer.Token, expected string) *whatrecord.Error {
	return whatrecord.FormatErrorPos(t, ErrUnexpectedEof, "unexpected end of file, expecting %s", expected)
}

func unexpectedTokenError(t *lexer.Token, expected string) *whatrecord.Error {
	return whatrecord.FormatErrorPos(t, ErrUnexpectedToken, "unexpected %q, expecting %s", t.Text(), expected)
}
