// Package common defines the shared value types of the semantic model: load
// contexts, context-carrying strings, JSON-ish informational values, linter
// message types, and the link classifier.
package common

import (
	"fmt"
)

// LoadContext identifies the provenance of a parsed element: the source name
// and the 1-based line number. Immutable.
type LoadContext struct {
	Name string
	Line int
}

func (c LoadContext) String() string {
	return fmt.Sprintf("%s:%d", c.Name, c.Line)
}

// FullLoadContext is an ordered sequence of load contexts. Elements
// accumulate when content is merged (e.g. a record re-opened by a later
// declaration keeps both contexts).
type FullLoadContext []LoadContext

// Context creates a single-element FullLoadContext.
func Context(name string, line int) FullLoadContext {
	return FullLoadContext{{Name: name, Line: line}}
}

// Merged returns a new context with extra appended.
func (c FullLoadContext) Merged(extra ...LoadContext) FullLoadContext {
	res := make(FullLoadContext, 0, len(c)+len(extra))
	res = append(res, c...)
	return append(res, extra...)
}

// StringWithContext is a string value that also remembers where it was
// parsed. It is used where per-key source-location diagnostics matter,
// notably JSON object keys. Equality of the textual value is what counts for
// lookup; the context is exposed separately.
type StringWithContext struct {
	Value   string
	Context FullLoadContext
}

func (s StringWithContext) String() string {
	return s.Value
}
