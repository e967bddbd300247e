// Package lexer defines the lexical analyzer for database source text.
package lexer

import (
	"fmt"
	"unicode/utf8"

	"github.com/klauer/whatrecord"
	"github.com/klauer/whatrecord/grammar"
	"github.com/klauer/whatrecord/source"
)

// Error codes used by lexer:
const (
	// WrongCharError indicates that lexer cannot fetch any token at current position.
	// Error message contains the rune at current source position.
	WrongCharError = whatrecord.LexicalErrors + iota
)

// CommentFunc receives comment tokens in source order. Comments never reach
// the parser; they are a side channel of the tokenizer.
type CommentFunc func(t *Token)

// Lexer fetches tokens from a single Source using the matchers of a compiled
// grammar. The active lexer group is chosen per fetch by the caller, so the
// accepted token subset can follow the parser state. A Lexer holds the
// current position and is therefore scoped to one parse call; the compiled
// grammar it reads is shared and immutable.
type Lexer struct {
	compiled *grammar.Compiled
	src      *source.Source
	pos      int
	comment  CommentFunc
}

// New creates a Lexer over src. comment may be nil.
func New(src *source.Source, c *grammar.Compiled, comment CommentFunc) *Lexer {
	return &Lexer{compiled: c, src: src, comment: comment}
}

func wrongCharError(s *source.Source, content []byte, line, col int) *whatrecord.Error {
	r, _ := utf8.DecodeRune(content)
	msg := fmt.Sprintf("wrong char %q (u+%x)", r, r)
	return whatrecord.NewError(WrongCharError, msg, s.Name(), line, col)
}

// Next fetches the next token using the given lexer group and advances the
// position. Aside tokens are consumed internally; comments among them are
// passed to the comment callback. Returns an EOF token at the end of input
// and a located error on a lexical failure.
func (l *Lexer) Next(group int) (*Token, error) {
	content := l.src.Content()
	for {
		if l.pos >= len(content) {
			return EofToken(l.src), nil
		}

		prog := l.compiled.Groups[group]
		match := prog.Re.FindSubmatchIndex(content[l.pos:])
		if len(match) == 0 || match[0] != 0 || match[1] <= match[0] {
			line, col := l.src.LineCol(l.pos)
			return nil, wrongCharError(l.src, content[l.pos:], line, col)
		}

		tok, advance := l.tokenFromMatch(prog, content, match)
		l.pos += advance
		if tok != nil {
			return tok, nil
		}
	}
}

// tokenFromMatch maps the first captured group of a match onto its term.
// Aside terms yield a nil token so fetching continues at the new position.
func (l *Lexer) tokenFromMatch(prog grammar.GroupProgram, content []byte, match []int) (*Token, int) {
	for i := 2; i < len(match); i += 2 {
		if match[i] < 0 || match[i+1] < 0 {
			continue
		}

		termIndex := prog.Types[(i>>1)-1]
		term := l.compiled.Terms[termIndex]
		text := string(content[l.pos+match[i] : l.pos+match[i+1]])
		if term.Flags&grammar.AsideTerm != 0 {
			if term.Flags&grammar.CommentTerm != 0 && l.comment != nil {
				l.comment(NewToken(termIndex, term.Name, text, source.NewPos(l.src, l.pos+match[i])))
			}
			return nil, match[1]
		}

		tok := NewToken(termIndex, term.Name, text, source.NewPos(l.src, l.pos+match[i]))
		return tok, match[1]
	}

	return nil, match[1]
}
