package scrub

import (
	"strings"

	"github.com/gomarkdown/markdown/ast"
	"github.com/gomarkdown/markdown/parser"
)

// segment is a contiguous slice of the input document. Protected segments
// (code spans and fenced/indented blocks) pass through the scrubber
// verbatim.
type segment struct {
	text      string
	protected bool
}

// codeRanges parses text as markdown and returns the byte ranges of all
// code literals, ascending and non-overlapping. The markdown AST carries
// no source offsets, so a cursor walks the document in node order: prose
// text advances it, code nodes claim the range the cursor lands on. That
// keeps a code literal that also appears in earlier prose from being
// matched at the prose occurrence. A literal the cursor cannot place is
// left unprotected rather than guessed at.
func codeRanges(text string) [][2]int {
	p := parser.NewWithExtensions(parser.CommonExtensions)
	doc := p.Parse([]byte(text))

	var ranges [][2]int
	cursor := 0

	advance := func(lit string) (int, bool) {
		if lit == "" {
			return 0, false
		}
		idx := strings.Index(text[cursor:], lit)
		if idx < 0 {
			return 0, false
		}
		start := cursor + idx
		cursor = start + len(lit)
		return start, true
	}

	ast.WalkFunc(doc, func(node ast.Node, entering bool) ast.WalkStatus {
		if !entering {
			return ast.GoToNext
		}
		switch n := node.(type) {
		case *ast.CodeBlock:
			if start, ok := advance(string(n.Literal)); ok {
				ranges = append(ranges, [2]int{start, start + len(n.Literal)})
			}
		case *ast.Code:
			if start, ok := advance(string(n.Literal)); ok {
				ranges = append(ranges, [2]int{start, start + len(n.Literal)})
			}
		case *ast.Text:
			advance(string(n.Literal))
		case *ast.HTMLBlock:
			advance(string(n.Literal))
		case *ast.HTMLSpan:
			advance(string(n.Literal))
		}
		return ast.GoToNext
	})
	return ranges
}

// split carves text into alternating unprotected/protected segments along
// ranges, which must be ascending and non-overlapping.
func split(text string, ranges [][2]int) []segment {
	if len(ranges) == 0 {
		return []segment{{text: text}}
	}

	var segs []segment
	pos := 0
	for _, r := range ranges {
		if r[0] > pos {
			segs = append(segs, segment{text: text[pos:r[0]]})
		}
		segs = append(segs, segment{text: text[r[0]:r[1]], protected: true})
		pos = r[1]
	}
	if pos < len(text) {
		segs = append(segs, segment{text: text[pos:]})
	}
	return segs
}
