package common

import (
	"strconv"
	"strings"
	"unicode"
)

// Field types whose values are expected to reference other records.
var LinkFieldTypes = map[string]bool{
	"DBF_INLINK":  true,
	"DBF_OUTLINK": true,
	"DBF_FWDLINK": true,
}

// LinkInfo is a classified record reference: the target name (possibly
// REC.FLD) and the ordered trailing modifiers (PP, MS, ...), unmodified.
type LinkInfo struct {
	Target    string
	Modifiers []string
}

// SplitRecordAndField splits "REC.FLD" into "REC" and "FLD". The field part
// is empty when there is no dot.
func SplitRecordAndField(pvname string) (record, field string) {
	record, field, _ = strings.Cut(pvname, ".")
	return record, field
}

// ParseLink classifies a field's textual value. It reports ok == false,
// without distinguishing the sub-case, when the value does not denote a
// record reference: a device/alternate-transport value starting with "@"
// (resolved by a different mechanism entirely), an empty target, a plain
// integer literal, or a floating-point literal.
func ParseLink(value string) (LinkInfo, bool) {
	target := value
	var modifiers []string
	if i := strings.IndexFunc(value, unicode.IsSpace); i >= 0 {
		target = value[:i]
		modifiers = strings.Fields(value[i:])
	}

	switch {
	case target == "":
		return LinkInfo{}, false
	case strings.HasPrefix(target, "@"):
		return LinkInfo{}, false
	case isAllDigits(target):
		return LinkInfo{}, false
	}
	if _, err := strconv.ParseFloat(target, 64); err == nil {
		return LinkInfo{}, false
	}

	return LinkInfo{Target: target, Modifiers: modifiers}, true
}

func isAllDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
