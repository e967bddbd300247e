package parser

import (
	"github.com/klauer/whatrecord/common"
)

// Decl is one top-level declaration recognized by the grammar. The set of
// implementations is closed: the assembler classifies declarations with an
// exhaustive type switch, so adding a kind here must be mirrored there.
type Decl interface {
	DeclContext() common.FullLoadContext
	decl()
}

// declNode carries the context shared by all declaration kinds.
type declNode struct {
	Ctx common.FullLoadContext
}

func (d declNode) DeclContext() common.FullLoadContext { return d.Ctx }
func (declNode) decl()                                 {}

// MenuDecl is a named value enumeration: menu(name) { choice(id, "text") ... }.
type MenuDecl struct {
	declNode
	Name    string
	Choices map[string]string
}

// IncludeDecl is an inline inclusion directive: include "file".
type IncludeDecl struct {
	declNode
	Path string
}

// PathDecl sets the search path: path "dirs".
type PathDecl struct {
	declNode
	Path string
}

// AddPathDecl appends to the search path: addpath "dirs".
type AddPathDecl struct {
	declNode
	Path string
}

// DriverDecl declares driver support: driver(drvet).
type DriverDecl struct {
	declNode
	Name string
}

// LinkDecl declares link support: link(name, identifier).
type LinkDecl struct {
	declNode
	Name       string
	Identifier string
}

// RegistrarDecl declares an exported registrar function.
type RegistrarDecl struct {
	declNode
	Name string
}

// FunctionDecl declares an exported C function.
type FunctionDecl struct {
	declNode
	Name string
}

// VariableDecl declares a shell variable; Type is empty when omitted.
type VariableDecl struct {
	declNode
	Name string
	Type string
}

// DeviceDecl declares device support:
// device(recordType, linkType, dsetName, "choice").
type DeviceDecl struct {
	declNode
	RecordType   string
	LinkType     string
	DsetName     string
	ChoiceString string
}

// BreakTableDecl is a breakpoint lookup table; Values keeps the raw texts in
// declaration order.
type BreakTableDecl struct {
	declNode
	Name   string
	Values []string
}

// AliasDecl is a standalone alias declaration: alias("record", "alias").
type AliasDecl struct {
	declNode
	RecordName string
	AliasName  string
}

// RecordTypeFieldDecl is one field schema inside a recordtype body. Body
// holds the ordered (attribute, value) pairs of the field block.
type RecordTypeFieldDecl struct {
	Name    string
	Type    string
	Body    [][2]string
	Context common.FullLoadContext
}

// RecordTypeDecl is a record type schema declaration.
type RecordTypeDecl struct {
	declNode
	Name   string
	Cdefs  []string
	Fields []RecordTypeFieldDecl
}

// FieldDecl is one field(name, value) entry of a record body. Quoted records
// whether the value carried surrounding quotes.
type FieldDecl struct {
	Name    string
	Value   string
	Quoted  bool
	Context common.FullLoadContext
}

// InfoDecl is one info(name, value) entry of a record body. Value is a
// JSON-ish literal (V4) or a scalar (V3).
type InfoDecl struct {
	Name    string
	Value   any
	Context common.FullLoadContext
}

// RecordDecl is a record instance declaration. IsGrecord marks the
// override/global declaration keyword variant.
type RecordDecl struct {
	declNode
	RecordType string
	Name       string
	IsGrecord  bool
	Fields     []FieldDecl
	Infos      []InfoDecl
	Aliases    []string
}

// Comment is one tokenizer side-channel comment, in declaration order.
type Comment struct {
	Text    string
	Context common.LoadContext
}

// Result is the outcome of one successful parse: the ordered top-level
// declarations and the comment side channel.
type Result struct {
	Decls    []Decl
	Comments []Comment
}
