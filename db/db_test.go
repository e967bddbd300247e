package db

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const aoDbd = `
recordtype(ao) {
	field(DESC, DBF_STRING)
	field(VAL, DBF_DOUBLE)
	field(OUT, DBF_OUTLINK)
	field(FLNK, DBF_FWDLINK)
}
`

func loadString(t *testing.T, text string, opts Options) *Database {
	t.Helper()
	database, err := FromString(text, opts)
	require.NoError(t, err)
	return database
}

func loadDbd(t *testing.T) *Database {
	t.Helper()
	return loadString(t, aoDbd, Options{Filename: "types.dbd"})
}

func TestRecordWithoutTypes(t *testing.T) {
	database := loadString(t, `record(ao, "test") { field(DESC, "desc") }`, Options{})

	require.Len(t, database.Records, 1)
	rec := database.Records["test"]
	require.NotNil(t, rec)
	assert.Equal(t, "test", rec.Name)
	assert.Equal(t, "ao", rec.RecordType)

	require.Len(t, rec.Fields, 1)
	fld := rec.Fields["DESC"]
	require.NotNil(t, fld)
	assert.Equal(t, "DESC", fld.Name)
	assert.Equal(t, "desc", fld.Value)
	assert.Empty(t, fld.DType)
}

func TestFieldTypeResolution(t *testing.T) {
	dbd := loadDbd(t)
	database := loadString(t, `record(ao, "test") { field(DESC, "desc") field(XTRA, "?") }`,
		Options{DBD: dbd})

	rec := database.Records["test"]
	require.NotNil(t, rec)
	assert.Equal(t, "DBF_STRING", rec.Fields["DESC"].DType)
	assert.Equal(t, "desc", rec.Fields["DESC"].Value)
	// No matching field schema leaves the type empty.
	assert.Empty(t, rec.Fields["XTRA"].DType)
}

func TestRecordTypeVisibilityIsInOrder(t *testing.T) {
	database := loadString(t, `
record(ao, "early") { field(VAL, "1") }
recordtype(ao) {
	field(VAL, DBF_DOUBLE)
}
record(ao, "late") { field(VAL, "2") }
`, Options{})

	assert.Empty(t, database.Records["early"].Fields["VAL"].DType)
	assert.Equal(t, "DBF_DOUBLE", database.Records["late"].Fields["VAL"].DType)
}

func TestAliasSharedIdentity(t *testing.T) {
	database := loadString(t, `record(ao, "test") { alias("test2") }`, Options{})

	require.Contains(t, database.Records, "test2")
	assert.Same(t, database.Records["test"], database.Records["test2"])
	assert.Equal(t, "test", database.Aliases["test2"])
	assert.Equal(t, []string{"test2"}, database.Records["test"].Aliases)
}

func TestStandaloneAlias(t *testing.T) {
	database := loadString(t, `
record(ao, "test")
alias("test", "other")
`, Options{})

	assert.Equal(t, []StandaloneAlias{{RecordName: "test", AliasName: "other"}},
		database.StandaloneAliases)
	assert.Same(t, database.Records["test"], database.Records["other"])
	// Record alias lists hold body aliases only.
	assert.Empty(t, database.Records["test"].Aliases)
}

func TestBodyAliasOverridesStandaloneAlias(t *testing.T) {
	database := loadString(t, `
record(ao, "R1")
record(ao, "R2") { alias("A") }
alias("R1", "A")
`, Options{})

	assert.Equal(t, "R2", database.Aliases["A"])
	assert.Same(t, database.Records["R2"], database.Records["A"])
}

func TestSkipAliases(t *testing.T) {
	database := loadString(t, `record(ao, "test") { alias("test2") }`,
		Options{SkipAliases: true})

	assert.NotContains(t, database.Records, "test2")
	assert.Equal(t, "test", database.Aliases["test2"])
}

func TestRecordOverrideMarkerMerges(t *testing.T) {
	database := loadString(t, `
record(ao, "test") { field(DESC, "one") }
record("*", "test") { field(VAL, "2") }
`, Options{})

	rec := database.Records["test"]
	require.NotNil(t, rec)
	assert.Equal(t, "ao", rec.RecordType)
	assert.Equal(t, "one", rec.Fields["DESC"].Value)
	assert.Equal(t, "2", rec.Fields["VAL"].Value)
	assert.Len(t, rec.Context, 2)
	assert.Empty(t, database.Redeclarations())
	assert.Equal(t, []string{"test"}, database.RecordNames())
}

func TestRedeclarationWithoutMarker(t *testing.T) {
	database := loadString(t, `
record(ao, "test") { field(DESC, "one") }
record(ai, "test") { field(VAL, "2") }
`, Options{})

	rec := database.Records["test"]
	require.NotNil(t, rec)
	assert.Equal(t, "ai", rec.RecordType)
	assert.NotContains(t, rec.Fields, "DESC")
	require.Len(t, database.Redeclarations(), 1)
	assert.Equal(t, "test", database.Redeclarations()[0].Name)
	assert.Equal(t, []string{"test"}, database.RecordNames())
}

func TestLinkClassification(t *testing.T) {
	dbd := loadDbd(t)
	database := loadString(t, `
record(ao, "test") {
	field(OUT, "SOME:PV.VAL PP MS")
	field(FLNK, "3.14")
	field(DESC, "OTHER:PV")
}
`, Options{DBD: dbd})

	links := database.Records["test"].Links()
	require.Len(t, links, 1)
	assert.Equal(t, "OUT", links[0].Field.Name)
	assert.Equal(t, "SOME:PV.VAL", links[0].Info.Target)
	assert.Equal(t, []string{"PP", "MS"}, links[0].Info.Modifiers)
}

func TestGroupAggregation(t *testing.T) {
	database := loadString(t, `
record(ai, "rec:X") {
	info(Q:group, {
		"grp:name": {
			"X": {"+channel": "VAL"}
		}
	})
}
record(ai, "rec:Y") {
	info(Q:group, {
		"grp:name": {
			"Y": {"+channel": "VAL", "+type": "plain"}
		}
	})
}
`, Options{})

	require.Len(t, database.PVAGroups, 1)
	group := database.PVAGroups["grp:name"]
	require.NotNil(t, group)
	assert.True(t, group.IsPVA)
	assert.Equal(t, "PVA", group.RecordType)
	assert.Empty(t, group.Fields)

	require.Len(t, group.GroupFields, 2)
	x := group.GroupFields["X"]
	require.NotNil(t, x)
	assert.Equal(t, "rec:X", x.RecordName)
	assert.Equal(t, "VAL", x.FieldName)

	y := group.GroupFields["Y"]
	require.NotNil(t, y)
	assert.Equal(t, "rec:Y", y.RecordName)
	assert.Equal(t, "plain", y.Metadata["+type"])

	// The reserved key is fully consumed from the contributing records.
	assert.NotContains(t, database.Records["rec:X"].Metadata, "Q:group")
	assert.NotContains(t, database.Records["rec:Y"].Metadata, "Q:group")
}

func TestGroupLastWriterWins(t *testing.T) {
	database := loadString(t, `
record(ai, "rec:X") {
	info(Q:group, {"grp": {"F": {"+channel": "VAL", "note": "first"}}})
}
record(ai, "rec:Y") {
	info(Q:group, {"grp": {"F": {"+channel": "VAL2", "note": "second"}}})
}
`, Options{})

	ref := database.PVAGroups["grp"].GroupFields["F"]
	require.NotNil(t, ref)
	assert.Equal(t, "rec:Y", ref.RecordName)
	assert.Equal(t, "VAL2", ref.FieldName)
	assert.Equal(t, "second", ref.Metadata["note"])
}

func TestGroupScalarSpec(t *testing.T) {
	database := loadString(t, `
record(ai, "rec:X") {
	info(Q:group, {"grp": {"F": "scalar"}})
}
`, Options{})

	ref := database.PVAGroups["grp"].GroupFields["F"]
	require.NotNil(t, ref)
	assert.Empty(t, ref.RecordName)
	assert.Equal(t, "scalar", ref.Metadata["F"])
}

func TestDeviceAttachesToRecordType(t *testing.T) {
	database := loadString(t, `
recordtype(ai) {
	field(VAL, DBF_DOUBLE)
}
device(ai, CONSTANT, devAiSoft, "Soft Channel")
device(xx, CONSTANT, devXxSoft, "Elsewhere")
`, Options{})

	require.Len(t, database.Devices, 2)
	rtype := database.RecordTypes["ai"]
	require.NotNil(t, rtype)
	dev := rtype.Devices["Soft Channel"]
	require.NotNil(t, dev)
	assert.Equal(t, "devAiSoft", dev.DsetName)
}

func TestMacroExpansion(t *testing.T) {
	macro := func(line string) string {
		return strings.ReplaceAll(line, "$(P)", "PREFIX:")
	}
	database := loadString(t, `record(ao, "$(P)test")`, Options{Macro: macro})
	assert.Contains(t, database.Records, "PREFIX:test")
}

func TestDbdEntities(t *testing.T) {
	database := loadString(t, `
menu(menuYesNo) {
	choice(menuYesNoNO, "NO")
}
breaktable(typeKdegC) { 0.0 0.0 }
driver(drvAsyn)
registrar(asSub)
function(fn)
variable(v, int)
link(state, lnkStateIf)
path "/a"
addpath "/b"
include "x.dbd"
`, Options{})

	assert.Contains(t, database.Menus, "menuYesNo")
	assert.Contains(t, database.Breaktables, "typeKdegC")
	assert.Equal(t, []string{"drvAsyn"}, database.Drivers)
	assert.Equal(t, []string{"asSub"}, database.Registrars)
	assert.Equal(t, []string{"fn"}, database.Functions)
	assert.Equal(t, []Variable{{Name: "v", Type: "int"}}, database.Variables)
	assert.Equal(t, []Link{{Name: "state", Identifier: "lnkStateIf"}}, database.Links)
	assert.Equal(t, []string{"/a"}, database.Paths)
	assert.Equal(t, []string{"/b"}, database.Addpaths)
	assert.Equal(t, []string{"x.dbd"}, database.Includes)
}

func TestReparseStructuralEquality(t *testing.T) {
	text := `
record(ao, "test") {
	field(DESC, "desc")
	info(note, {"a": 1})
	alias("test2")
}
`
	first := loadString(t, text, Options{})
	second := loadString(t, text, Options{})
	assert.Equal(t, first, second)
}

func TestDbdDatabaseIsNotMutated(t *testing.T) {
	dbd := loadDbd(t)
	before := len(dbd.RecordTypes)
	loadString(t, `
recordtype(extra) {
	field(VAL, DBF_LONG)
}
record(extra, "x") { field(VAL, "1") }
`, Options{DBD: dbd})
	assert.Len(t, dbd.RecordTypes, before)
}

func TestSyntaxFailureIsAtomic(t *testing.T) {
	_, err := FromString(`record(ao, "test") {`, Options{})
	require.Error(t, err)
}
