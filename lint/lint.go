// Package lint checks an assembled database against its record type
// definitions and produces an ordered warning/error report.
package lint

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/klauer/whatrecord/common"
	"github.com/klauer/whatrecord/db"
)

// Warning category names.
const (
	WarnBadField      = "bad_field"
	WarnUnquotedField = "unquoted_field"
	WarnExtLink       = "ext_link"
	WarnRecAppend     = "rec_append"
	WarnSpecComm      = "spec_comm"
	WarnVarInt        = "varint"
)

// Config enables warning categories independently.
type Config struct {
	BadFields      bool
	UnquotedFields bool
	ExtLinks       bool
	RecAppend      bool
	SpecComm       bool
	VarInt         bool
}

// DefaultConfig matches the historical loader defaults: field validation,
// variable typing and special comment checks on, the noisier categories off.
func DefaultConfig() Config {
	return Config{
		BadFields: true,
		SpecComm:  true,
		VarInt:    true,
	}
}

// Results is the outcome of one lint run over a database.
type Results struct {
	RecordTypes map[string]*db.RecordType
	Records     map[string]*db.Record
	PVAGroups   map[string]*db.Record

	// ExternalPVs lists records declared external via #: special comments;
	// links to them are never reported.
	ExternalPVs []string

	Errors   []common.LinterError
	Warnings []common.LinterWarning
}

// Success reports whether the run produced no errors. Warnings never affect
// success.
func (r *Results) Success() bool {
	return len(r.Errors) == 0
}

func (r *Results) warn(cfg bool, name string, ctx common.FullLoadContext, format string, args ...any) {
	if !cfg {
		return
	}
	file, line := lastContext(ctx)
	r.Warnings = append(r.Warnings, common.LinterWarning{
		LinterMessage: common.LinterMessage{
			Name:    name,
			File:    file,
			Line:    line,
			Message: fmt.Sprintf(format, args...),
		},
	})
}

func lastContext(ctx common.FullLoadContext) (string, int) {
	if len(ctx) == 0 {
		return "", 0
	}
	last := ctx[len(ctx)-1]
	return last.Name, last.Line
}

// externalRe matches the body of a "#: external("pv")" special comment.
var externalRe = regexp.MustCompile(`^external\(\s*"?([^")\s]+)"?\s*\)$`)

// Lint checks database against the record types of dbd (which may be nil
// when the database carries its own recordtype declarations).
func Lint(database *db.Database, dbd *db.Database, cfg Config) *Results {
	res := &Results{
		Records:     database.Records,
		PVAGroups:   database.PVAGroups,
		RecordTypes: database.RecordTypes,
	}
	if dbd != nil {
		res.RecordTypes = dbd.RecordTypes
	}

	res.checkSpecialComments(database, cfg)
	res.checkVariables(database, cfg)
	res.checkRedeclarations(database, cfg)
	res.checkRecords(database, cfg)
	return res
}

// checkSpecialComments scans "#:" comments for external PV declarations. A
// "#:" comment that is not a well-formed external() clause is itself a
// warning.
func (res *Results) checkSpecialComments(database *db.Database, cfg Config) {
	for _, c := range database.Comments {
		body, ok := strings.CutPrefix(c.Text, "#:")
		if !ok {
			continue
		}
		body = strings.TrimSpace(body)
		if m := externalRe.FindStringSubmatch(body); m != nil {
			res.ExternalPVs = append(res.ExternalPVs, m[1])
			continue
		}
		res.warn(cfg.SpecComm, WarnSpecComm, common.FullLoadContext{c.Context},
			"Invalid special comment '%s'", body)
	}
}

func (res *Results) checkVariables(database *db.Database, cfg Config) {
	for _, v := range database.Variables {
		if v.Type == "" {
			res.warn(cfg.VarInt, WarnVarInt, nil,
				"Variable '%s' has no type, 'int' assumed", v.Name)
		}
	}
}

func (res *Results) checkRedeclarations(database *db.Database, cfg Config) {
	for _, rd := range database.Redeclarations() {
		res.warn(cfg.RecAppend, WarnRecAppend, rd.Context,
			"Record '%s' redeclared without the '*' marker", rd.Name)
	}
}

func (res *Results) checkRecords(database *db.Database, cfg Config) {
	// Field types are only checkable against a loaded record type database;
	// a plain .db linted on its own must not warn about every field.
	haveTypes := len(res.RecordTypes) > 0
	for _, name := range database.RecordNames() {
		rec, ok := database.Records[name]
		if !ok {
			continue
		}
		rtype := res.RecordTypes[rec.RecordType]
		for _, fname := range sortedFieldNames(rec) {
			fld := rec.Fields[fname]
			if haveTypes && fld.DType == "" {
				if rtype == nil {
					res.warn(cfg.BadFields, WarnBadField, fld.Context,
						"Unknown record type '%s' for field '%s'", rec.RecordType, fld.Name)
				} else {
					res.warn(cfg.BadFields, WarnBadField, fld.Context,
						"Field '%s' not defined by record type '%s'", fld.Name, rec.RecordType)
				}
			}
			if !fld.Quoted {
				res.warn(cfg.UnquotedFields, WarnUnquotedField, fld.Context,
					"Unquoted field value '%s'", fld.Name)
			}
		}
		res.checkInfos(rec, cfg)
		res.checkLinks(database, rec, cfg)
	}
}

// checkInfos reports unquoted scalar info values. Structured values carry
// the unquoted marker on their inner scalars only and are not reported.
func (res *Results) checkInfos(rec *db.Record, cfg Config) {
	names := make([]string, 0, len(rec.Metadata))
	for name := range rec.Metadata {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if _, ok := rec.Metadata[name].(common.UnquotedString); ok {
			res.warn(cfg.UnquotedFields, WarnUnquotedField, rec.InfoContexts[name],
				"Unquoted info value '%s'", name)
		}
	}
}

// checkLinks reports link-typed fields referring to records that are neither
// in the database nor declared external.
func (res *Results) checkLinks(database *db.Database, rec *db.Record, cfg Config) {
	if !cfg.ExtLinks {
		return
	}
	links := rec.Links()
	sort.Slice(links, func(i, j int) bool { return links[i].Field.Name < links[j].Field.Name })
	for _, link := range links {
		target, _ := common.SplitRecordAndField(link.Info.Target)
		if _, ok := database.Records[target]; ok {
			continue
		}
		if res.isExternal(target, link.Info.Target) {
			continue
		}
		res.warn(true, WarnExtLink, link.Field.Context,
			"Link to unknown record '%s'", link.Info.Target)
	}
}

func (res *Results) isExternal(record, full string) bool {
	for _, pv := range res.ExternalPVs {
		ext, _ := common.SplitRecordAndField(pv)
		if ext == record || pv == full {
			return true
		}
	}
	return false
}

func sortedFieldNames(rec *db.Record) []string {
	names := make([]string, 0, len(rec.Fields))
	for name := range rec.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
