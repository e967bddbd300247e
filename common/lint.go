package common

import "fmt"

// LinterMessage is one linter finding: the category name, the source file and
// line it points at, and the rendered message.
type LinterMessage struct {
	Name    string
	File    string
	Line    int
	Message string
}

func (m LinterMessage) String() string {
	return fmt.Sprintf("%s:%d: %s: %s", m.File, m.Line, m.Name, m.Message)
}

// LinterWarning is a non-fatal finding; it never affects lint success.
type LinterWarning struct {
	LinterMessage
}

// LinterError is a finding that makes the lint run unsuccessful.
type LinterError struct {
	LinterMessage
}
