package source

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSourceLineCol(t *testing.T) {
	type result struct {
		pos, line, col int
	}

	samples := map[string][]result{
		"": {
			{0, 1, 1},
			{100, 1, 1},
		},
		"\n": {
			{0, 1, 1},
			{1, 2, 1},
			{100, 2, 1},
		},
		"record(ai, \"x\") {\n    field(A, \"1\")\n}\n": {
			{0, 1, 1},
			{7, 1, 8},
			{18, 2, 1},
			{22, 2, 5},
			{36, 3, 1},
			{22, 2, 5},
			{7, 1, 8},
		},
	}

	for text, results := range samples {
		src := New("", []byte(text))
		for _, res := range results {
			l, c := src.LineCol(res.pos)
			assert.Equal(t, res.line, l, "text %q pos %d", text, res.pos)
			assert.Equal(t, res.col, c, "text %q pos %d", text, res.pos)
		}
	}
}

func TestNormalizeNewlines(t *testing.T) {
	in := []byte("a\r\nb\rc\n")
	assert.Equal(t, []byte("a\nb\nc\n"), NormalizeNewlines(in))
}

func TestPos(t *testing.T) {
	src := New("test.db", []byte("abc\ndef\n"))
	p := NewPos(src, 5)
	assert.Equal(t, "test.db", p.SourceName())
	assert.Equal(t, 2, p.Line())
	assert.Equal(t, 2, p.Col())
	assert.Equal(t, 5, p.Pos())
	assert.Same(t, src, p.Source())
}
