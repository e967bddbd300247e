package lexer

import (
	"github.com/klauer/whatrecord/source"
)

// Token is one lexeme fetched from a Source. Tokens are immutable.
type Token struct {
	tokenType int
	typeName  string
	text      string
	source    *source.Source
	line, col int
}

func (t *Token) Type() int {
	return t.tokenType
}

func (t *Token) TypeName() string {
	return t.typeName
}

func (t *Token) Text() string {
	return t.text
}

func (t *Token) Source() *source.Source {
	return t.source
}

func (t *Token) SourceName() string {
	if t.source == nil {
		return ""
	}
	return t.source.Name()
}

func (t *Token) Line() int {
	return t.line
}

func (t *Token) Col() int {
	return t.col
}

// NewToken creates a token at the given resolved position.
func NewToken(tokenType int, typeName, text string, pos source.Pos) *Token {
	return &Token{tokenType, typeName, text, pos.Source(), pos.Line(), pos.Col()}
}

const (
	EofTokenType = -2
	EofTokenName = "-end-of-file-"
)

// EofToken creates the token returned at the end of a source.
func EofToken(s *source.Source) *Token {
	line := 0
	col := 0
	if s != nil {
		line, col = s.LineCol(s.Len())
	}
	return &Token{tokenType: EofTokenType, typeName: EofTokenName, source: s, line: line, col: col}
}
