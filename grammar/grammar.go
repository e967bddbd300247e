// Package grammar bundles the versioned grammar definitions for the EPICS
// database language and compiles them into the immutable form shared by all
// parse calls.
//
// Two dialects are supported: V3 (legacy concrete syntax) and V4 (current).
// The dialect selects only acceptable surface syntax; both produce identical
// declaration node shapes downstream.
package grammar

import (
	"regexp"

	"github.com/klauer/whatrecord"
)

// Supported grammar versions.
const (
	V3 = 3
	V4 = 4
)

// Error codes used by grammar:
const (
	// UnknownVersionError indicates a version other than V3 or V4.
	UnknownVersionError = whatrecord.GrammarErrors + iota

	// BadTermError indicates a term with an uncompilable regular expression.
	BadTermError
)

// TermFlags describe lexical terms.
type TermFlags int

const (
	// AsideTerm marks terms that never reach the parser (whitespace, comments).
	AsideTerm TermFlags = 1 << iota

	// CommentTerm marks aside terms delivered through the comment side channel.
	CommentTerm

	// QuotedTerm marks terms whose surrounding quotes are stripped by consumers.
	QuotedTerm
)

// Lexer groups. The active group is selected by the parser state: JSON-like
// literal values restrict the bareword charset (':' becomes punctuation)
// while ordinary declaration context allows colons inside names and values.
const (
	GroupNormal = iota
	GroupJSON
	GroupCount
)

// Term indices double as token types.
const (
	TermWhitespace = iota
	TermComment
	TermCdef
	TermQuoted
	TermName
	TermJSONName
	TermPunct
	TermJSONPunct
)

// Term describes one lexical term: its name, regular expression, the bitmask
// of lexer groups it participates in, and its flags.
type Term struct {
	Name   string
	Re     string
	Groups int
	Flags  TermFlags
}

// Grammar is a versioned grammar definition. The zero value is not usable;
// obtain definitions through Definition or compiled grammars through Load.
type Grammar struct {
	Version int
	Terms   []Term
}

const (
	bothGroups  = 1<<GroupNormal | 1<<GroupJSON
	normalGroup = 1 << GroupNormal
	jsonGroup   = 1 << GroupJSON
)

// db surface syntax terms, shared by both dialects. Term order matters:
// the compiled per-group regexp prefers earlier alternatives.
var dbTerms = []Term{
	{"whitespace", `[ \t\r\n]+`, bothGroups, AsideTerm},
	{"comment", `#[^\n]*`, bothGroups, AsideTerm | CommentTerm},
	{"cdef", `%[^\n]*`, normalGroup, 0},
	{"string", `"(?:[^"\\\n]|\\.)*"|'(?:[^'\\\n]|\\.)*'`, bothGroups, QuotedTerm},
	{"name", `[A-Za-z0-9_*+:.;<>$\[\]-]+`, normalGroup, 0},
	{"json-name", `[A-Za-z0-9_*+.-]+`, jsonGroup, 0},
	{"punct", `[(){},]`, normalGroup, 0},
	{"json-punct", `[(){}\[\]:,]`, jsonGroup, 0},
}

// Definition returns a fresh copy of the bundled grammar definition for the
// given version.
func Definition(version int) (*Grammar, error) {
	if version != V3 && version != V4 {
		return nil, whatrecord.FormatError(UnknownVersionError, "unknown grammar version %d", version)
	}

	terms := make([]Term, len(dbTerms))
	copy(terms, dbTerms)
	return &Grammar{Version: version, Terms: terms}, nil
}

// GroupProgram is the compiled matcher for one lexer group: a single
// alternation regexp whose n-th capturing group maps to Types[n-1].
type GroupProgram struct {
	Re    *regexp.Regexp
	Types []int
}

// Compiled is a compiled grammar: one matcher per lexer group plus the term
// table. It is immutable and safe for concurrent use by any number of
// simultaneous parse calls.
type Compiled struct {
	Version int
	Terms   []Term
	Groups  [GroupCount]GroupProgram
}

// AllowsJSON reports whether informational values may use the full JSON-like
// literal grammar (V4) rather than scalar strings only (V3).
func (c *Compiled) AllowsJSON() bool {
	return c.Version >= V4
}

// Compile builds the per-group matchers for a grammar definition.
func Compile(g *Grammar) (*Compiled, error) {
	c := &Compiled{Version: g.Version, Terms: g.Terms}
	for group := 0; group < GroupCount; group++ {
		expr := ""
		var types []int
		for i, t := range g.Terms {
			if t.Groups&(1<<group) == 0 {
				continue
			}
			if expr != "" {
				expr += "|"
			}
			expr += "(" + t.Re + ")"
			types = append(types, i)
		}

		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, whatrecord.FormatError(BadTermError, "grammar v%d group %d: %s", g.Version, group, err)
		}
		c.Groups[group] = GroupProgram{Re: re, Types: types}
	}
	return c, nil
}
