package parser

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/klauer/whatrecord"
	"github.com/klauer/whatrecord/common"
	"github.com/klauer/whatrecord/grammar"
	"github.com/klauer/whatrecord/source"
)

func parse(t *testing.T, version int, text string) *Result {
	t.Helper()
	c, err := grammar.Load(version)
	require.NoError(t, err)
	res, err := Parse(source.New("test.db", []byte(text)), c)
	require.NoError(t, err)
	return res
}

func parseError(t *testing.T, version int, text string) *whatrecord.Error {
	t.Helper()
	c, err := grammar.Load(version)
	require.NoError(t, err)
	res, err := Parse(source.New("test.db", []byte(text)), c)
	require.Error(t, err)
	assert.Nil(t, res)
	pe, ok := err.(*whatrecord.Error)
	require.True(t, ok)
	return pe
}

func TestSimpleRecord(t *testing.T) {
	res := parse(t, grammar.V4, `
record(ao, "test") {
	field(DESC, "a description")
	field(VAL, 3)
	alias("test2")
}
`)
	require.Len(t, res.Decls, 1)
	rec, ok := res.Decls[0].(*RecordDecl)
	require.True(t, ok)
	assert.Equal(t, "ao", rec.RecordType)
	assert.Equal(t, "test", rec.Name)
	assert.False(t, rec.IsGrecord)
	assert.Equal(t, common.Context("test.db", 2), rec.DeclContext())
	assert.Equal(t, []string{"test2"}, rec.Aliases)

	require.Len(t, rec.Fields, 2)
	assert.Equal(t, FieldDecl{
		Name:    "DESC",
		Value:   "a description",
		Quoted:  true,
		Context: common.Context("test.db", 3),
	}, rec.Fields[0])
	assert.Equal(t, "3", rec.Fields[1].Value)
	assert.False(t, rec.Fields[1].Quoted)
}

func TestGrecordAndBodylessRecord(t *testing.T) {
	res := parse(t, grammar.V4, `
grecord(ai, "one")
record(ai, "two")
`)
	require.Len(t, res.Decls, 2)
	assert.True(t, res.Decls[0].(*RecordDecl).IsGrecord)
	assert.False(t, res.Decls[1].(*RecordDecl).IsGrecord)
}

func TestRecordType(t *testing.T) {
	res := parse(t, grammar.V4, `
recordtype(ao) {
	%#include "aoRecord.h"
	field(VAL, DBF_DOUBLE) {
		prompt("Desired Output")
		asl(ASL0)
	}
	field(OUT, DBF_OUTLINK)
}
`)
	require.Len(t, res.Decls, 1)
	rt, ok := res.Decls[0].(*RecordTypeDecl)
	require.True(t, ok)
	assert.Equal(t, "ao", rt.Name)
	assert.Equal(t, []string{`#include "aoRecord.h"`}, rt.Cdefs)
	require.Len(t, rt.Fields, 2)
	assert.Equal(t, "VAL", rt.Fields[0].Name)
	assert.Equal(t, "DBF_DOUBLE", rt.Fields[0].Type)
	assert.Equal(t, [][2]string{
		{"prompt", "Desired Output"},
		{"asl", "ASL0"},
	}, rt.Fields[0].Body)
	assert.Empty(t, rt.Fields[1].Body)
}

func TestTopLevelDeclarations(t *testing.T) {
	res := parse(t, grammar.V4, `
menu(menuYesNo) {
	choice(menuYesNoNO, "NO")
	choice(menuYesNoYES, "YES")
}
device(ai, CONSTANT, devAiSoft, "Soft Channel")
driver(drvAsyn)
registrar(asSub)
function(myFunc)
variable(aiVar, int)
variable(bareVar)
link(state, lnkStateIf)
breaktable(typeKdegC) {
	0.0 0.0
	365.023224 67.0
}
alias("rec:one", "rec:two")
path "/a:/b"
addpath "/c"
include "more.db"
`)
	require.Len(t, res.Decls, 13)

	menu := res.Decls[0].(*MenuDecl)
	assert.Equal(t, "menuYesNo", menu.Name)
	assert.Equal(t, map[string]string{"menuYesNoNO": "NO", "menuYesNoYES": "YES"}, menu.Choices)

	dev := res.Decls[1].(*DeviceDecl)
	assert.Equal(t, "ai", dev.RecordType)
	assert.Equal(t, "CONSTANT", dev.LinkType)
	assert.Equal(t, "devAiSoft", dev.DsetName)
	assert.Equal(t, "Soft Channel", dev.ChoiceString)

	assert.Equal(t, "drvAsyn", res.Decls[2].(*DriverDecl).Name)
	assert.Equal(t, "asSub", res.Decls[3].(*RegistrarDecl).Name)
	assert.Equal(t, "myFunc", res.Decls[4].(*FunctionDecl).Name)

	v := res.Decls[5].(*VariableDecl)
	assert.Equal(t, "aiVar", v.Name)
	assert.Equal(t, "int", v.Type)
	assert.Empty(t, res.Decls[6].(*VariableDecl).Type)

	lnk := res.Decls[7].(*LinkDecl)
	assert.Equal(t, "state", lnk.Name)
	assert.Equal(t, "lnkStateIf", lnk.Identifier)

	bt := res.Decls[8].(*BreakTableDecl)
	assert.Equal(t, "typeKdegC", bt.Name)
	assert.Equal(t, []string{"0.0", "0.0", "365.023224", "67.0"}, bt.Values)

	al := res.Decls[9].(*AliasDecl)
	assert.Equal(t, "rec:one", al.RecordName)
	assert.Equal(t, "rec:two", al.AliasName)

	assert.Equal(t, "/a:/b", res.Decls[10].(*PathDecl).Path)
	assert.Equal(t, "/c", res.Decls[11].(*AddPathDecl).Path)
	assert.Equal(t, "more.db", res.Decls[12].(*IncludeDecl).Path)
}

func TestInfoJSONValues(t *testing.T) {
	res := parse(t, grammar.V4, `
record(ai, "rec:X") {
	info(autosaveFields, "VAL")
	info(mixed, {
		"str": "text",
		bare: unquoted,
		"flag": true,
		"off": false,
		"none": null,
		"nan": NaN,
		"hex": -0x0F,
		"list": [1, "two"],
	})
}
`)
	rec := res.Decls[0].(*RecordDecl)
	require.Len(t, rec.Infos, 2)
	assert.Equal(t, "VAL", rec.Infos[0].Value)

	obj, ok := rec.Infos[1].Value.(*common.Object)
	require.True(t, ok)
	assert.Equal(t, 8, obj.Len())

	v, _ := obj.Get("str")
	assert.Equal(t, "text", v)
	v, _ = obj.Get("bare")
	assert.Equal(t, common.UnquotedString("unquoted"), v)
	v, _ = obj.Get("flag")
	assert.Equal(t, true, v)
	v, _ = obj.Get("off")
	assert.Equal(t, false, v)
	v, _ = obj.Get("none")
	assert.Nil(t, v)
	v, _ = obj.Get("nan")
	assert.True(t, math.IsNaN(v.(float64)))
	v, _ = obj.Get("hex")
	assert.Equal(t, "-0x0F", v)
	v, _ = obj.Get("list")
	assert.Equal(t, []any{common.UnquotedString("1"), "two"}, v)

	// Keys carry their own load contexts, in declaration order.
	keys := obj.Keys()
	assert.Equal(t, "str", keys[0].Value)
	assert.Equal(t, common.Context("test.db", 5), keys[0].Context)
	assert.Equal(t, common.Context("test.db", 6), keys[1].Context)
}

func TestInfoScalarOnlyInV3(t *testing.T) {
	res := parse(t, grammar.V3, `
record(ai, "rec:X") {
	info(one, "quoted")
	info(two, bare)
}
`)
	rec := res.Decls[0].(*RecordDecl)
	require.Len(t, rec.Infos, 2)
	assert.Equal(t, "quoted", rec.Infos[0].Value)
	assert.Equal(t, common.UnquotedString("bare"), rec.Infos[1].Value)
}

func TestCommentSideChannel(t *testing.T) {
	res := parse(t, grammar.V4, `
# leading
record(ai, "rec:X") { # trailing
}
#: external("other:pv")
`)
	require.Len(t, res.Comments, 3)
	assert.Equal(t, "# leading", res.Comments[0].Text)
	assert.Equal(t, 2, res.Comments[0].Context.Line)
	assert.Equal(t, "# trailing", res.Comments[1].Text)
	assert.Equal(t, `#: external("other:pv")`, res.Comments[2].Text)
}

func TestIncludeInsideBodies(t *testing.T) {
	res := parse(t, grammar.V4, `
menu(m) {
	include "menuChoices.dbd"
}
recordtype(x) {
	include "xFields.dbd"
}
`)
	var includes []string
	for _, d := range res.Decls {
		if inc, ok := d.(*IncludeDecl); ok {
			includes = append(includes, inc.Path)
		}
	}
	assert.Equal(t, []string{"menuChoices.dbd", "xFields.dbd"}, includes)
}

func TestSyntaxErrors(t *testing.T) {
	samples := []struct {
		src  string
		code int
	}{
		{`record(ai "x")`, ErrUnexpectedToken},
		{`record(ai, "x") {`, ErrUnexpectedEof},
		{`bogus(1)`, ErrUnexpectedToken},
		{`record(ai, "x") { field(A) }`, ErrUnexpectedToken},
		{`record(ai, "x") { field(A, {}) }`, ErrUnexpectedToken},
	}
	for _, sample := range samples {
		pe := parseError(t, grammar.V4, sample.src)
		assert.Equal(t, sample.code, pe.Code, "source: %s", sample.src)
		assert.Equal(t, "test.db", pe.SourceName)
		assert.NotZero(t, pe.Line)
	}
}
