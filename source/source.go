// Package source defines immutable source text used by the lexer and parser.
package source

import (
	"bytes"
	"unicode/utf8"
)

// Source holds the full decoded text of one configuration file together with
// a line-start index used to map byte offsets to line/column pairs.
// A Source is immutable once created.
type Source struct {
	name          string
	content       []byte
	lineStarts    []int
	prevLineIndex int
}

// New creates a Source for the given name and content.
// The name is reported in load contexts and error messages; it is not opened.
func New(name string, content []byte) *Source {
	s := &Source{name: name, content: content, prevLineIndex: -1}
	lineCnt := bytes.Count(content, []byte("\n")) + 1
	s.lineStarts = make([]int, lineCnt)
	j := 1
	for i := 0; i < len(content) && j < lineCnt; i++ {
		if content[i] == '\n' {
			s.lineStarts[j] = i + 1
			j++
		}
	}

	return s
}

// NormalizeNewlines rewrites CR LF and bare CR line endings to LF.
// The number of lines never changes.
func NormalizeNewlines(content []byte) []byte {
	content = bytes.ReplaceAll(content, []byte("\r\n"), []byte("\n"))
	return bytes.ReplaceAll(content, []byte("\r"), []byte("\n"))
}

func (s *Source) Name() string {
	return s.name
}

func (s *Source) Content() []byte {
	return s.content
}

func (s *Source) Len() int {
	return len(s.content)
}

// LineCol maps a byte offset to a 1-based line and column.
// Offsets outside the content are clamped.
func (s *Source) LineCol(pos int) (line, col int) {
	var lineIndex int
	switch {
	case pos < 0:
		pos = 0
	case pos >= len(s.content):
		pos = len(s.content)
		lineIndex = len(s.lineStarts) - 1
	default:
		lineIndex = s.findLineIndex(pos)
	}

	lineStart := s.lineStarts[lineIndex]
	return lineIndex + 1, utf8.RuneCount(s.content[lineStart:pos]) + 1
}

func (s *Source) findLineIndex(pos int) int {
	if s.prevLineIndex >= 0 && s.lineStarts[s.prevLineIndex] <= pos {
		lineIndex := s.prevLineIndex
		last := len(s.lineStarts) - 1
		for lineIndex <= last && s.lineStarts[lineIndex] <= pos {
			lineIndex++
		}
		lineIndex--
		s.prevLineIndex = lineIndex
		return lineIndex
	}

	leftIndex := 0
	rightIndex := len(s.lineStarts) - 1
	index := 0
	if s.prevLineIndex >= 0 {
		rightIndex = s.prevLineIndex
	}
	for leftIndex < rightIndex {
		index = (leftIndex + rightIndex + 1) >> 1
		lineStart := s.lineStarts[index]
		if lineStart == pos {
			return index
		}

		if lineStart < pos {
			leftIndex = index
		} else {
			rightIndex = index - 1
			index = rightIndex
		}
	}
	s.prevLineIndex = index
	return index
}

// Pos is a resolved position within a Source.
type Pos struct {
	src            *Source
	pos, line, col int
}

// NewPos resolves a byte offset in s to a Pos.
func NewPos(s *Source, pos int) Pos {
	line, col := s.LineCol(pos)
	return Pos{s, pos, line, col}
}

func (p Pos) Source() *Source {
	return p.src
}

func (p Pos) Pos() int {
	return p.pos
}

func (p Pos) Line() int {
	return p.line
}

func (p Pos) Col() int {
	return p.col
}

func (p Pos) SourceName() string {
	if p.src == nil {
		return ""
	}
	return p.src.Name()
}
