// Package db assembles parsed declarations into the semantic database model:
// record types, record instances, aliases, and synthesized PVA group views.
package db

import (
	"github.com/klauer/whatrecord/common"
)

// Field is one field of a record instance. DType is empty exactly when no
// record type (or no matching field within it) was resolvable at assembly
// time; that is a lint-visible condition, not a parse failure.
type Field struct {
	DType   string
	Name    string
	Value   string
	Quoted  bool
	Context common.FullLoadContext
}

// RecordLink is a record field classified as a reference to another record.
type RecordLink struct {
	Field *Field
	Info  common.LinkInfo
}

// Record is one record instance. For synthesized PVA group views (IsPVA),
// GroupFields holds the aggregated field references and Fields stays empty:
// group fields are never instantiated by a textual record declaration.
type Record struct {
	Context     common.FullLoadContext
	Name        string
	RecordType  string
	Fields      map[string]*Field
	Archived    bool
	Metadata    map[string]any
	// InfoContexts locates each Metadata entry's info declaration.
	InfoContexts map[string]common.FullLoadContext
	Aliases     []string
	IsGrecord   bool
	IsPVA       bool
	GroupFields map[string]*PVAFieldReference
}

// FieldsOfType returns all fields whose resolved type is one of types.
func (r *Record) FieldsOfType(types ...string) []*Field {
	var res []*Field
	for _, fld := range r.Fields {
		for _, t := range types {
			if fld.DType == t {
				res = append(res, fld)
				break
			}
		}
	}
	return res
}

// Links classifies every link-typed field of the record. Fields that do not
// denote a record reference are skipped silently.
func (r *Record) Links() []RecordLink {
	var res []RecordLink
	for _, fld := range r.Fields {
		if !common.LinkFieldTypes[fld.DType] {
			continue
		}
		info, ok := common.ParseLink(fld.Value)
		if !ok {
			continue
		}
		res = append(res, RecordLink{Field: fld, Info: info})
	}
	return res
}

// RecordTypeField is one field schema of a record type. Body keeps the
// ordered (attribute, value) pairs of the field block.
type RecordTypeField struct {
	Name    string
	Type    string
	Body    [][2]string
	Context common.FullLoadContext
}

// RecordType is a record type schema. Within one declaration body a field
// name declared twice keeps the later declaration.
type RecordType struct {
	Name      string
	Cdefs     []string
	Fields    map[string]*RecordTypeField
	Devices   map[string]*Device
	Aliases   []string
	Info      map[string]string
	IsGrecord bool
	Context   common.FullLoadContext
}

// Device is a device support declaration (dset).
type Device struct {
	RecordType   string
	LinkType     string
	DsetName     string
	ChoiceString string
}

// Menu is a named value enumeration.
type Menu struct {
	Name    string
	Choices map[string]string
	Context common.FullLoadContext
}

// Link is a link support declaration (jlink).
type Link struct {
	Name       string
	Identifier string
}

// Variable is a shell variable declaration; Type is empty when omitted.
type Variable struct {
	Name string
	Type string
}

// BreakTable is a breakpoint (raw-to-engineering) lookup table.
type BreakTable struct {
	Name    string
	Values  []string
	Context common.FullLoadContext
}

// StandaloneAlias is an alias declared outside any record body, kept in
// declaration order for faithful reconstruction of the source.
type StandaloneAlias struct {
	RecordName string
	AliasName  string
}

// PVAFieldReference is one aggregated field of a synthesized group record.
// Its identity is (group name, field name); RecordName/FieldName point at the
// backing record channel when one was declared.
type PVAFieldReference struct {
	Name       string
	Context    common.FullLoadContext
	RecordName string
	FieldName  string
	Metadata   map[string]any
}

// Comment is one source comment, in declaration order.
type Comment struct {
	Text    string
	Context common.LoadContext
}

// Redeclaration notes a record redeclared without the explicit "*" override
// marker; consumed by the linter.
type Redeclaration struct {
	Name    string
	Context common.FullLoadContext
}
