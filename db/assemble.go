package db

import (
	"fmt"

	"github.com/klauer/whatrecord/common"
	"github.com/klauer/whatrecord/parser"
)

// pvaRecordType is the pseudo record type of synthesized group views.
const pvaRecordType = "PVA"

// assembler carries the state of one assembly run. The record type registry
// is seeded from the Options DBD and grows as recordtype declarations are
// encountered; a record only resolves field types against types declared
// before it.
type assembler struct {
	db       *Database
	registry map[string]*RecordType
	opts     Options
}

func assemble(res *parser.Result, opts Options) (*Database, error) {
	a := &assembler{
		db:       NewDatabase(),
		registry: map[string]*RecordType{},
		opts:     opts,
	}
	if opts.DBD != nil {
		for name, rtype := range opts.DBD.RecordTypes {
			a.registry[name] = rtype
		}
	}

	for _, c := range res.Comments {
		a.db.Comments = append(a.db.Comments, Comment{Text: c.Text, Context: c.Context})
	}
	for _, decl := range res.Decls {
		a.classify(decl)
	}

	a.aliasPass()
	a.groupPass()
	return a.db, nil
}

// classify dispatches one declaration. The declaration set is closed; an
// unknown kind here is a defect, not an input error.
func (a *assembler) classify(decl parser.Decl) {
	switch d := decl.(type) {
	case *parser.MenuDecl:
		a.db.Menus[d.Name] = &Menu{Name: d.Name, Choices: d.Choices, Context: d.DeclContext()}
	case *parser.IncludeDecl:
		a.db.Includes = append(a.db.Includes, d.Path)
	case *parser.PathDecl:
		a.db.Paths = append(a.db.Paths, d.Path)
	case *parser.AddPathDecl:
		a.db.Addpaths = append(a.db.Addpaths, d.Path)
	case *parser.DriverDecl:
		a.db.Drivers = append(a.db.Drivers, d.Name)
	case *parser.RegistrarDecl:
		a.db.Registrars = append(a.db.Registrars, d.Name)
	case *parser.FunctionDecl:
		a.db.Functions = append(a.db.Functions, d.Name)
	case *parser.LinkDecl:
		a.db.Links = append(a.db.Links, Link{Name: d.Name, Identifier: d.Identifier})
	case *parser.VariableDecl:
		a.db.Variables = append(a.db.Variables, Variable{Name: d.Name, Type: d.Type})
	case *parser.DeviceDecl:
		a.addDevice(d)
	case *parser.BreakTableDecl:
		a.db.Breaktables[d.Name] = &BreakTable{Name: d.Name, Values: d.Values, Context: d.DeclContext()}
	case *parser.AliasDecl:
		a.db.StandaloneAliases = append(a.db.StandaloneAliases,
			StandaloneAlias{RecordName: d.RecordName, AliasName: d.AliasName})
	case *parser.RecordTypeDecl:
		a.addRecordType(d)
	case *parser.RecordDecl:
		a.addRecord(d)
	default:
		panic(fmt.Sprintf("unhandled declaration %T", decl))
	}
}

func (a *assembler) addDevice(d *parser.DeviceDecl) {
	dev := &Device{
		RecordType:   d.RecordType,
		LinkType:     d.LinkType,
		DsetName:     d.DsetName,
		ChoiceString: d.ChoiceString,
	}
	a.db.Devices = append(a.db.Devices, dev)
	if rtype, ok := a.db.RecordTypes[d.RecordType]; ok {
		if rtype.Devices == nil {
			rtype.Devices = map[string]*Device{}
		}
		rtype.Devices[d.ChoiceString] = dev
	}
}

func (a *assembler) addRecordType(d *parser.RecordTypeDecl) {
	rtype := &RecordType{
		Name:    d.Name,
		Cdefs:   d.Cdefs,
		Fields:  map[string]*RecordTypeField{},
		Devices: map[string]*Device{},
		Context: d.DeclContext(),
	}
	for i := range d.Fields {
		fld := &d.Fields[i]
		rtype.Fields[fld.Name] = &RecordTypeField{
			Name:    fld.Name,
			Type:    fld.Type,
			Body:    fld.Body,
			Context: fld.Context,
		}
	}
	a.db.RecordTypes[d.Name] = rtype
	a.registry[d.Name] = rtype
}

// addRecord builds or amends a record instance. A redeclaration with the
// explicit "*" record type, or with the same type, merges into the existing
// record; a conflicting type replaces it and is noted for the linter.
func (a *assembler) addRecord(d *parser.RecordDecl) {
	existing := a.db.Records[d.Name]
	rec := existing
	if existing != nil && d.RecordType != "*" && d.RecordType != existing.RecordType {
		a.db.redeclared = append(a.db.redeclared, Redeclaration{Name: d.Name, Context: d.DeclContext()})
		rec = nil
	}
	if rec == nil {
		rec = &Record{
			Name:         d.Name,
			RecordType:   d.RecordType,
			Fields:       map[string]*Field{},
			Metadata:     map[string]any{},
			InfoContexts: map[string]common.FullLoadContext{},
			IsGrecord:    d.IsGrecord,
			Context:      d.DeclContext(),
		}
		if existing == nil {
			a.db.recordOrder = append(a.db.recordOrder, d.Name)
		}
		a.db.Records[d.Name] = rec
	} else if existing != nil {
		rec.Context = rec.Context.Merged(d.DeclContext()...)
	}

	rtype := a.registry[rec.RecordType]
	for i := range d.Fields {
		fld := &d.Fields[i]
		dtype := ""
		if rtype != nil {
			if schema, ok := rtype.Fields[fld.Name]; ok {
				dtype = schema.Type
			}
		}
		rec.Fields[fld.Name] = &Field{
			DType:   dtype,
			Name:    fld.Name,
			Value:   fld.Value,
			Quoted:  fld.Quoted,
			Context: fld.Context,
		}
	}
	for i := range d.Infos {
		info := &d.Infos[i]
		rec.Metadata[info.Name] = info.Value
		rec.InfoContexts[info.Name] = info.Context
	}
	rec.Aliases = append(rec.Aliases, d.Aliases...)
}

// aliasPass builds the alias map: standalone aliases first, then record-body
// aliases, so a body alias overwrites a standalone mapping to the same key.
// Unless disabled, every alias name then resolves to the very record it
// names.
func (a *assembler) aliasPass() {
	for _, sa := range a.db.StandaloneAliases {
		a.db.Aliases[sa.AliasName] = sa.RecordName
	}
	for _, name := range a.db.recordOrder {
		rec, ok := a.db.Records[name]
		if !ok {
			continue
		}
		for _, alias := range rec.Aliases {
			a.db.Aliases[alias] = name
		}
	}
	if a.opts.SkipAliases {
		return
	}
	for alias, recName := range a.db.Aliases {
		if rec, ok := a.db.Records[recName]; ok {
			a.db.Records[alias] = rec
		}
	}
}

// groupPass aggregates Q:group info entries into synthesized PVA records.
// Records contribute in declaration order, so later declarations win where
// group metadata collides.
func (a *assembler) groupPass() {
	for _, name := range a.db.recordOrder {
		rec, ok := a.db.Records[name]
		if !ok {
			continue
		}
		md, ok := rec.Metadata["Q:group"]
		if !ok {
			continue
		}
		obj, ok := md.(*common.Object)
		if !ok {
			continue
		}
		delete(rec.Metadata, "Q:group")
		delete(rec.InfoContexts, "Q:group")
		for _, groupKey := range obj.Keys() {
			spec, _ := obj.Get(groupKey.Value)
			a.mergeGroup(rec, groupKey, spec)
		}
	}
}

func (a *assembler) mergeGroup(rec *Record, groupKey common.StringWithContext, spec any) {
	group, ok := a.db.PVAGroups[groupKey.Value]
	if !ok {
		group = &Record{
			Name:        groupKey.Value,
			RecordType:  pvaRecordType,
			IsPVA:       true,
			Fields:      map[string]*Field{},
			Metadata:    map[string]any{},
			GroupFields: map[string]*PVAFieldReference{},
			Context:     groupKey.Context,
		}
		a.db.PVAGroups[groupKey.Value] = group
	}
	specObj, ok := spec.(*common.Object)
	if !ok {
		return
	}
	for _, fieldKey := range specObj.Keys() {
		fieldSpec, _ := specObj.Get(fieldKey.Value)
		ref, ok := group.GroupFields[fieldKey.Value]
		if !ok {
			ref = &PVAFieldReference{
				Name:     fieldKey.Value,
				Context:  fieldKey.Context,
				Metadata: map[string]any{},
			}
			group.GroupFields[fieldKey.Value] = ref
		}
		fieldObj, ok := fieldSpec.(*common.Object)
		if !ok {
			// Scalar shorthand: the value is metadata keyed by the field name.
			ref.Metadata[fieldKey.Value] = fieldSpec
			continue
		}
		if channel, ok := fieldObj.Pop("+channel"); ok {
			if text, ok := common.AsString(channel); ok {
				ref.RecordName = rec.Name
				ref.FieldName = text
			}
		}
		for _, mdKey := range fieldObj.Keys() {
			v, _ := fieldObj.Get(mdKey.Value)
			ref.Metadata[mdKey.Value] = v
		}
	}
}
