// Package parser converts database source text into typed declaration nodes.
//
// The parse is deterministic and single-pass: one token of lookahead, no
// backtracking. A failure is atomic; no partial result is ever returned.
package parser

import (
	"math"
	"regexp"
	"strings"

	"github.com/klauer/whatrecord/common"
	"github.com/klauer/whatrecord/grammar"
	"github.com/klauer/whatrecord/lexer"
	"github.com/klauer/whatrecord/source"
)

// Parse runs one parse over src using a compiled grammar. Comments are
// collected through the tokenizer side channel in declaration order.
func Parse(src *source.Source, c *grammar.Compiled) (*Result, error) {
	pc := &parseContext{
		compiled: c,
		fn:       src.Name(),
		result:   &Result{},
	}
	pc.lex = lexer.New(src, c, func(t *lexer.Token) {
		pc.result.Comments = append(pc.result.Comments, Comment{
			Text:    t.Text(),
			Context: common.LoadContext{Name: pc.fn, Line: t.Line()},
		})
	})

	if err := pc.parse(); err != nil {
		return nil, err
	}
	return pc.result, nil
}

type parseContext struct {
	lex      *lexer.Lexer
	compiled *grammar.Compiled
	fn       string
	peeked   *lexer.Token
	result   *Result
}

func (pc *parseContext) next(group int) (*lexer.Token, error) {
	if pc.peeked != nil {
		t := pc.peeked
		pc.peeked = nil
		return t, nil
	}
	return pc.lex.Next(group)
}

func (pc *parseContext) pushBack(t *lexer.Token) {
	pc.peeked = t
}

func (pc *parseContext) node(t *lexer.Token) declNode {
	return declNode{Ctx: common.Context(pc.fn, t.Line())}
}

func (pc *parseContext) context(t *lexer.Token) common.FullLoadContext {
	return common.Context(pc.fn, t.Line())
}

// expect consumes the next token of the given group and requires its exact text.
func (pc *parseContext) expect(text string, group int) error {
	t, err := pc.next(group)
	if err != nil {
		return err
	}
	if t.Type() == lexer.EofTokenType {
		return unexpectedEofError(t, `"`+text+`"`)
	}
	if t.Text() != text {
		return unexpectedTokenError(t, `"`+text+`"`)
	}
	return nil
}

// argument consumes one name-or-string argument, stripping quotes.
func (pc *parseContext) argument(what string) (text string, quoted bool, tok *lexer.Token, err error) {
	tok, err = pc.next(grammar.GroupNormal)
	if err != nil {
		return "", false, nil, err
	}
	switch tok.Type() {
	case lexer.EofTokenType:
		return "", false, nil, unexpectedEofError(tok, what)
	case grammar.TermQuoted:
		return stripQuotes(tok.Text()), true, tok, nil
	case grammar.TermName:
		return tok.Text(), false, tok, nil
	}
	return "", false, nil, unexpectedTokenError(tok, what)
}

func stripQuotes(text string) string {
	if len(text) >= 2 && (text[0] == '"' || text[0] == '\'') {
		return text[1 : len(text)-1]
	}
	return text
}

func (pc *parseContext) parse() error {
	for {
		tok, err := pc.next(grammar.GroupNormal)
		if err != nil {
			return err
		}
		if tok.Type() == lexer.EofTokenType {
			return nil
		}
		if tok.Type() != grammar.TermName {
			return unexpectedTokenError(tok, "declaration")
		}

		var decl Decl
		switch tok.Text() {
		case "menu":
			decl, err = pc.parseMenu(tok)
		case "include":
			decl, err = pc.parseBareString(tok, func(n declNode, path string) Decl {
				return &IncludeDecl{declNode: n, Path: path}
			})
		case "path":
			decl, err = pc.parseBareString(tok, func(n declNode, path string) Decl {
				return &PathDecl{declNode: n, Path: path}
			})
		case "addpath":
			decl, err = pc.parseBareString(tok, func(n declNode, path string) Decl {
				return &AddPathDecl{declNode: n, Path: path}
			})
		case "driver":
			decl, err = pc.parseOneArg(tok, func(n declNode, name string) Decl {
				return &DriverDecl{declNode: n, Name: name}
			})
		case "registrar":
			decl, err = pc.parseOneArg(tok, func(n declNode, name string) Decl {
				return &RegistrarDecl{declNode: n, Name: name}
			})
		case "function":
			decl, err = pc.parseOneArg(tok, func(n declNode, name string) Decl {
				return &FunctionDecl{declNode: n, Name: name}
			})
		case "link":
			decl, err = pc.parseLink(tok)
		case "variable":
			decl, err = pc.parseVariable(tok)
		case "device":
			decl, err = pc.parseDevice(tok)
		case "breaktable":
			decl, err = pc.parseBreakTable(tok)
		case "recordtype":
			decl, err = pc.parseRecordType(tok)
		case "record", "grecord":
			decl, err = pc.parseRecord(tok)
		case "alias":
			decl, err = pc.parseStandaloneAlias(tok)
		default:
			return unexpectedTokenError(tok, "declaration")
		}
		if err != nil {
			return err
		}
		pc.result.Decls = append(pc.result.Decls, decl)
	}
}

func (pc *parseContext) parseBareString(kw *lexer.Token, mk func(declNode, string) Decl) (Decl, error) {
	text, _, _, err := pc.argument("path string")
	if err != nil {
		return nil, err
	}
	return mk(pc.node(kw), text), nil
}

func (pc *parseContext) parseOneArg(kw *lexer.Token, mk func(declNode, string) Decl) (Decl, error) {
	if err := pc.expect("(", grammar.GroupNormal); err != nil {
		return nil, err
	}
	name, _, _, err := pc.argument("name")
	if err != nil {
		return nil, err
	}
	if err = pc.expect(")", grammar.GroupNormal); err != nil {
		return nil, err
	}
	return mk(pc.node(kw), name), nil
}

func (pc *parseContext) parseLink(kw *lexer.Token) (Decl, error) {
	args, err := pc.argumentList(2, 2)
	if err != nil {
		return nil, err
	}
	return &LinkDecl{declNode: pc.node(kw), Name: args[0], Identifier: args[1]}, nil
}

func (pc *parseContext) parseVariable(kw *lexer.Token) (Decl, error) {
	args, err := pc.argumentList(1, 2)
	if err != nil {
		return nil, err
	}
	v := &VariableDecl{declNode: pc.node(kw), Name: args[0]}
	if len(args) > 1 {
		v.Type = args[1]
	}
	return v, nil
}

func (pc *parseContext) parseDevice(kw *lexer.Token) (Decl, error) {
	args, err := pc.argumentList(4, 4)
	if err != nil {
		return nil, err
	}
	return &DeviceDecl{
		declNode:     pc.node(kw),
		RecordType:   args[0],
		LinkType:     args[1],
		DsetName:     args[2],
		ChoiceString: args[3],
	}, nil
}

func (pc *parseContext) parseStandaloneAlias(kw *lexer.Token) (Decl, error) {
	args, err := pc.argumentList(2, 2)
	if err != nil {
		return nil, err
	}
	return &AliasDecl{declNode: pc.node(kw), RecordName: args[0], AliasName: args[1]}, nil
}

// argumentList consumes "(" arg ["," arg]... ")" with between lo and hi
// arguments.
func (pc *parseContext) argumentList(lo, hi int) ([]string, error) {
	if err := pc.expect("(", grammar.GroupNormal); err != nil {
		return nil, err
	}

	var args []string
	for {
		text, _, _, err := pc.argument("argument")
		if err != nil {
			return nil, err
		}
		args = append(args, text)

		tok, err := pc.next(grammar.GroupNormal)
		if err != nil {
			return nil, err
		}
		if tok.Type() == lexer.EofTokenType {
			return nil, unexpectedEofError(tok, `")"`)
		}
		switch tok.Text() {
		case ",":
			if len(args) == hi {
				return nil, unexpectedTokenError(tok, `")"`)
			}
		case ")":
			if len(args) < lo {
				return nil, unexpectedTokenError(tok, "argument")
			}
			return args, nil
		default:
			return nil, unexpectedTokenError(tok, `"," or ")"`)
		}
	}
}

func (pc *parseContext) parseMenu(kw *lexer.Token) (Decl, error) {
	if err := pc.expect("(", grammar.GroupNormal); err != nil {
		return nil, err
	}
	name, _, _, err := pc.argument("menu name")
	if err != nil {
		return nil, err
	}
	if err = pc.expect(")", grammar.GroupNormal); err != nil {
		return nil, err
	}
	if err = pc.expect("{", grammar.GroupNormal); err != nil {
		return nil, err
	}

	menu := &MenuDecl{declNode: pc.node(kw), Name: name, Choices: make(map[string]string)}
	for {
		tok, err := pc.next(grammar.GroupNormal)
		if err != nil {
			return nil, err
		}
		if tok.Type() == lexer.EofTokenType {
			return nil, unexpectedEofError(tok, `"}"`)
		}

		switch tok.Text() {
		case "}":
			return menu, nil
		case "choice":
			args, err := pc.argumentList(2, 2)
			if err != nil {
				return nil, err
			}
			menu.Choices[args[0]] = args[1]
		case "include":
			decl, err := pc.parseBareString(tok, func(n declNode, path string) Decl {
				return &IncludeDecl{declNode: n, Path: path}
			})
			if err != nil {
				return nil, err
			}
			pc.result.Decls = append(pc.result.Decls, decl)
		default:
			return nil, unexpectedTokenError(tok, `"choice" or "}"`)
		}
	}
}

func (pc *parseContext) parseBreakTable(kw *lexer.Token) (Decl, error) {
	if err := pc.expect("(", grammar.GroupNormal); err != nil {
		return nil, err
	}
	name, _, _, err := pc.argument("break table name")
	if err != nil {
		return nil, err
	}
	if err = pc.expect(")", grammar.GroupNormal); err != nil {
		return nil, err
	}
	if err = pc.expect("{", grammar.GroupNormal); err != nil {
		return nil, err
	}

	bt := &BreakTableDecl{declNode: pc.node(kw), Name: name}
	for {
		tok, err := pc.next(grammar.GroupNormal)
		if err != nil {
			return nil, err
		}
		switch {
		case tok.Type() == lexer.EofTokenType:
			return nil, unexpectedEofError(tok, `"}"`)
		case tok.Text() == "}":
			return bt, nil
		case tok.Text() == ",":
			// separators between values are optional
		case tok.Type() == grammar.TermQuoted:
			bt.Values = append(bt.Values, stripQuotes(tok.Text()))
		case tok.Type() == grammar.TermName:
			bt.Values = append(bt.Values, tok.Text())
		default:
			return nil, unexpectedTokenError(tok, `break table value or "}"`)
		}
	}
}

func (pc *parseContext) parseRecordType(kw *lexer.Token) (Decl, error) {
	if err := pc.expect("(", grammar.GroupNormal); err != nil {
		return nil, err
	}
	name, _, _, err := pc.argument("record type name")
	if err != nil {
		return nil, err
	}
	if err = pc.expect(")", grammar.GroupNormal); err != nil {
		return nil, err
	}
	if err = pc.expect("{", grammar.GroupNormal); err != nil {
		return nil, err
	}

	rt := &RecordTypeDecl{declNode: pc.node(kw), Name: name}
	for {
		tok, err := pc.next(grammar.GroupNormal)
		if err != nil {
			return nil, err
		}
		if tok.Type() == lexer.EofTokenType {
			return nil, unexpectedEofError(tok, `"}"`)
		}
		if tok.Type() == grammar.TermCdef {
			rt.Cdefs = append(rt.Cdefs, strings.TrimPrefix(tok.Text(), "%"))
			continue
		}

		switch tok.Text() {
		case "}":
			return rt, nil
		case "field":
			fld, err := pc.parseRecordTypeField(tok)
			if err != nil {
				return nil, err
			}
			rt.Fields = append(rt.Fields, fld)
		case "include":
			decl, err := pc.parseBareString(tok, func(n declNode, path string) Decl {
				return &IncludeDecl{declNode: n, Path: path}
			})
			if err != nil {
				return nil, err
			}
			pc.result.Decls = append(pc.result.Decls, decl)
		default:
			return nil, unexpectedTokenError(tok, `"field" or "}"`)
		}
	}
}

func (pc *parseContext) parseRecordTypeField(kw *lexer.Token) (RecordTypeFieldDecl, error) {
	none := RecordTypeFieldDecl{}
	args, err := pc.argumentList(2, 2)
	if err != nil {
		return none, err
	}

	fld := RecordTypeFieldDecl{Name: args[0], Type: args[1], Context: pc.context(kw)}
	tok, err := pc.next(grammar.GroupNormal)
	if err != nil {
		return none, err
	}
	if tok.Type() == lexer.EofTokenType || tok.Text() != "{" {
		pc.pushBack(tok)
		return fld, nil
	}

	for {
		tok, err = pc.next(grammar.GroupNormal)
		if err != nil {
			return none, err
		}
		if tok.Type() == lexer.EofTokenType {
			return none, unexpectedEofError(tok, `"}"`)
		}
		if tok.Text() == "}" {
			return fld, nil
		}
		if tok.Type() != grammar.TermName {
			return none, unexpectedTokenError(tok, `field attribute or "}"`)
		}

		attr := tok.Text()
		if err = pc.expect("(", grammar.GroupNormal); err != nil {
			return none, err
		}
		value, _, _, err := pc.argument("attribute value")
		if err != nil {
			return none, err
		}
		if err = pc.expect(")", grammar.GroupNormal); err != nil {
			return none, err
		}
		fld.Body = append(fld.Body, [2]string{attr, value})
	}
}

func (pc *parseContext) parseRecord(kw *lexer.Token) (Decl, error) {
	args, err := pc.argumentList(2, 2)
	if err != nil {
		return nil, err
	}

	rec := &RecordDecl{
		declNode:   pc.node(kw),
		RecordType: args[0],
		Name:       args[1],
		IsGrecord:  kw.Text() == "grecord",
	}

	tok, err := pc.next(grammar.GroupNormal)
	if err != nil {
		return nil, err
	}
	if tok.Type() == lexer.EofTokenType || tok.Text() != "{" {
		pc.pushBack(tok)
		return rec, nil
	}

	for {
		tok, err = pc.next(grammar.GroupNormal)
		if err != nil {
			return nil, err
		}
		if tok.Type() == lexer.EofTokenType {
			return nil, unexpectedEofError(tok, `"}"`)
		}

		switch tok.Text() {
		case "}":
			return rec, nil
		case "field":
			fld, err := pc.parseRecordField(tok)
			if err != nil {
				return nil, err
			}
			rec.Fields = append(rec.Fields, fld)
		case "info":
			info, err := pc.parseRecordInfo(tok)
			if err != nil {
				return nil, err
			}
			rec.Infos = append(rec.Infos, info)
		case "alias":
			if err = pc.expect("(", grammar.GroupNormal); err != nil {
				return nil, err
			}
			name, _, _, err := pc.argument("alias name")
			if err != nil {
				return nil, err
			}
			if err = pc.expect(")", grammar.GroupNormal); err != nil {
				return nil, err
			}
			rec.Aliases = append(rec.Aliases, name)
		default:
			return nil, unexpectedTokenError(tok, `"field", "info", "alias", or "}"`)
		}
	}
}

func (pc *parseContext) parseRecordField(kw *lexer.Token) (FieldDecl, error) {
	none := FieldDecl{}
	if err := pc.expect("(", grammar.GroupNormal); err != nil {
		return none, err
	}
	name, _, _, err := pc.argument("field name")
	if err != nil {
		return none, err
	}
	if err = pc.expect(",", grammar.GroupNormal); err != nil {
		return none, err
	}
	value, quoted, _, err := pc.argument("field value")
	if err != nil {
		return none, err
	}
	if err = pc.expect(")", grammar.GroupNormal); err != nil {
		return none, err
	}

	return FieldDecl{
		Name:    name,
		Value:   value,
		Quoted:  quoted,
		Context: pc.context(kw),
	}, nil
}

func (pc *parseContext) parseRecordInfo(kw *lexer.Token) (InfoDecl, error) {
	none := InfoDecl{}
	if err := pc.expect("(", grammar.GroupNormal); err != nil {
		return none, err
	}
	name, _, _, err := pc.argument("info name")
	if err != nil {
		return none, err
	}
	if err = pc.expect(",", grammar.GroupNormal); err != nil {
		return none, err
	}

	info := InfoDecl{Name: name, Context: pc.context(kw)}
	closeGroup := grammar.GroupNormal
	if pc.compiled.AllowsJSON() {
		info.Value, err = pc.parseJSONValue()
		closeGroup = grammar.GroupJSON
	} else {
		var quoted bool
		var text string
		text, quoted, _, err = pc.argument("info value")
		if err == nil {
			if quoted {
				info.Value = text
			} else {
				info.Value = common.UnquotedString(text)
			}
		}
	}
	if err != nil {
		return none, err
	}

	if err = pc.expect(")", closeGroup); err != nil {
		return none, err
	}
	return info, nil
}

var hexIntRe = regexp.MustCompile(`^([+-]?)0[xX]([0-9a-fA-F]+)$`)

// parseJSONValue parses one JSON-like literal using the JSON lexer group.
func (pc *parseContext) parseJSONValue() (any, error) {
	tok, err := pc.next(grammar.GroupJSON)
	if err != nil {
		return nil, err
	}
	switch tok.Type() {
	case lexer.EofTokenType:
		return nil, unexpectedEofError(tok, "value")
	case grammar.TermQuoted:
		return stripQuotes(tok.Text()), nil
	case grammar.TermJSONName:
		return scalarFromBareword(tok.Text()), nil
	case grammar.TermJSONPunct:
		switch tok.Text() {
		case "{":
			return pc.parseJSONObject()
		case "[":
			return pc.parseJSONArray()
		}
	}
	return nil, unexpectedTokenError(tok, "value")
}

// scalarFromBareword maps unquoted JSON scalars onto native values. Signed
// hexadecimal integers keep their canonical text: sign, "0x", digits.
func scalarFromBareword(text string) any {
	switch text {
	case "true":
		return true
	case "false":
		return false
	case "null":
		return nil
	case "NaN":
		return math.NaN()
	}
	if m := hexIntRe.FindStringSubmatch(text); m != nil {
		return m[1] + "0x" + m[2]
	}
	return common.UnquotedString(text)
}

func (pc *parseContext) parseJSONObject() (*common.Object, error) {
	obj := common.NewObject()
	for {
		tok, err := pc.next(grammar.GroupJSON)
		if err != nil {
			return nil, err
		}
		if tok.Type() == lexer.EofTokenType {
			return nil, unexpectedEofError(tok, `"}"`)
		}
		if tok.Text() == "}" && tok.Type() == grammar.TermJSONPunct {
			return obj, nil
		}

		var keyText string
		switch tok.Type() {
		case grammar.TermQuoted:
			keyText = stripQuotes(tok.Text())
		case grammar.TermJSONName:
			keyText = tok.Text()
		default:
			return nil, unexpectedTokenError(tok, `object key or "}"`)
		}
		key := common.StringWithContext{Value: keyText, Context: pc.context(tok)}

		if err = pc.expect(":", grammar.GroupJSON); err != nil {
			return nil, err
		}
		value, err := pc.parseJSONValue()
		if err != nil {
			return nil, err
		}
		obj.Set(key, value)

		tok, err = pc.next(grammar.GroupJSON)
		if err != nil {
			return nil, err
		}
		if tok.Type() == lexer.EofTokenType {
			return nil, unexpectedEofError(tok, `"}"`)
		}
		switch tok.Text() {
		case ",":
			// trailing commas are accepted
		case "}":
			return obj, nil
		default:
			return nil, unexpectedTokenError(tok, `"," or "}"`)
		}
	}
}

func (pc *parseContext) parseJSONArray() ([]any, error) {
	values := make([]any, 0)
	for {
		tok, err := pc.next(grammar.GroupJSON)
		if err != nil {
			return nil, err
		}
		if tok.Type() == lexer.EofTokenType {
			return nil, unexpectedEofError(tok, `"]"`)
		}
		if tok.Text() == "]" && tok.Type() == grammar.TermJSONPunct {
			return values, nil
		}

		pc.pushBack(tok)
		value, err := pc.parseJSONValue()
		if err != nil {
			return nil, err
		}
		values = append(values, value)

		tok, err = pc.next(grammar.GroupJSON)
		if err != nil {
			return nil, err
		}
		if tok.Type() == lexer.EofTokenType {
			return nil, unexpectedEofError(tok, `"]"`)
		}
		switch tok.Text() {
		case ",":
		case "]":
			return values, nil
		default:
			return nil, unexpectedTokenError(tok, `"," or "]"`)
		}
	}
}
