package parser

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/dop251/goja/ast"
	"github.com/dop251/goja/file"

	"github.com/roach88/scriptblocks/internal/ir"
)

// source wraps the input text and answers span and position questions about
// syntax tree nodes.
type source struct {
	text       string
	lineStarts []int
}

func newSource(text string) *source {
	starts := []int{0}
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &source{text: text, lineStarts: starts}
}

// offset converts a node index to a byte offset. Programs parsed without a
// file set use base 1.
func (s *source) offset(idx file.Idx) int {
	return s.clamp(int(idx) - 1)
}

func (s *source) clamp(off int) int {
	return max(0, min(off, len(s.text)))
}

// position returns the 1-based line and 0-based column of off. Columns count
// characters, not bytes.
func (s *source) position(off int) ir.Position {
	line := sort.Search(len(s.lineStarts), func(i int) bool { return s.lineStarts[i] > off }) - 1
	line = max(line, 0)
	col := utf8.RuneCountInString(s.text[s.lineStarts[line]:off])
	return ir.Position{Line: line + 1, Column: col}
}

func (s *source) location(start, end int) *ir.SourceLocation {
	return &ir.SourceLocation{Start: s.position(start), End: s.position(end)}
}

// span returns the balanced byte range of n.
func (s *source) span(n ast.Node) (int, int) {
	start, end := s.offset(n.Idx0()), s.offset(n.Idx1())
	if end < start {
		end = start
	}
	return s.balance(start, end)
}

// statementSpan is span extended over a trailing semicolon on the same line.
func (s *source) statementSpan(n ast.Node) (int, int) {
	start, end := s.span(n)
	i := end
	for i < len(s.text) && (s.text[i] == ' ' || s.text[i] == '\t') {
		i++
	}
	if i < len(s.text) && s.text[i] == ';' {
		end = i + 1
	}
	return start, end
}

// exprText returns the source text of an expression. Sequence expressions are
// wrapped in parentheses so the text stays a single expression.
func (s *source) exprText(n ast.Node) string {
	start, end := s.span(n)
	text := strings.TrimSpace(s.text[start:end])
	if _, ok := n.(*ast.SequenceExpression); ok && !wrapped(text) {
		text = "(" + text + ")"
	}
	return text
}

func (s *source) slice(start, end int) string {
	return s.text[s.clamp(start):s.clamp(end)]
}

// balance widens [start, end) over adjacent parentheses until every
// parenthesis inside the range is matched. The syntax tree drops grouping
// parentheses, so a node such as the left operand of (a + b) * c starts
// after the opening one.
func (s *source) balance(start, end int) (int, int) {
	closeExcess, openExcess := parenExcess(s.text[start:end])
	for ; closeExcess > 0; closeExcess-- {
		i := start
		for i > 0 && isSpace(s.text[i-1]) {
			i--
		}
		if i == 0 || s.text[i-1] != '(' {
			break
		}
		start = i - 1
	}
	for ; openExcess > 0; openExcess-- {
		i := end
		for i < len(s.text) && isSpace(s.text[i]) {
			i++
		}
		if i == len(s.text) || s.text[i] != ')' {
			break
		}
		end = i + 1
	}
	return start, end
}

// parenExcess counts unmatched closing and opening parentheses in code,
// ignoring string literals, template literals and comments.
func parenExcess(code string) (closeExcess, openExcess int) {
	depth := 0
	scanCode(code, func(i int) bool {
		switch code[i] {
		case '(':
			depth++
		case ')':
			if depth == 0 {
				closeExcess++
			} else {
				depth--
			}
		}
		return true
	})
	return closeExcess, depth
}

// wrapped reports whether text is entirely enclosed by one pair of parentheses.
func wrapped(text string) bool {
	if len(text) < 2 || text[0] != '(' || text[len(text)-1] != ')' {
		return false
	}
	depth := 0
	closedEarly := false
	scanCode(text, func(i int) bool {
		switch text[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 && i != len(text)-1 {
				closedEarly = true
				return false
			}
		}
		return true
	})
	return !closedEarly
}

// scanCode calls visit with the index of every byte of code that is outside
// string literals, template literals and comments. Scanning stops when visit
// returns false.
func scanCode(code string, visit func(i int) bool) {
	for i := 0; i < len(code); i++ {
		c := code[i]
		switch {
		case c == '"' || c == '\'' || c == '`':
			i = skipQuoted(code, i)
		case c == '/' && i+1 < len(code) && code[i+1] == '/':
			for i < len(code) && code[i] != '\n' {
				i++
			}
		case c == '/' && i+1 < len(code) && code[i+1] == '*':
			end := strings.Index(code[i+2:], "*/")
			if end < 0 {
				return
			}
			i += end + 3
		default:
			if !visit(i) {
				return
			}
		}
	}
}

// skipQuoted returns the index of the quote closing the literal opened at i,
// or the last index when the literal is unterminated.
func skipQuoted(code string, i int) int {
	quote := code[i]
	for j := i + 1; j < len(code); j++ {
		switch code[j] {
		case '\\':
			j++
		case quote:
			return j
		}
	}
	return len(code) - 1
}

// splitTopLevel splits code on sep where sep is not nested inside brackets,
// strings or comments.
func splitTopLevel(code string, sep byte) []string {
	var parts []string
	depth, last := 0, 0
	scanCode(code, func(i int) bool {
		switch code[i] {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case sep:
			if depth == 0 {
				parts = append(parts, code[last:i])
				last = i + 1
			}
		}
		return true
	})
	return append(parts, code[last:])
}

// matchingParen returns the index of the parenthesis closing the one at open.
func matchingParen(code string, open int) int {
	depth, match := 0, -1
	scanCode(code[open:], func(i int) bool {
		switch code[open+i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				match = open + i
				return false
			}
		}
		return true
	})
	return match
}

// leadingComments collects the comments directly above start: full-line
// // comments and /* */ blocks that begin a line. Collection stops at the
// first line holding anything else.
func (s *source) leadingComments(start int) []string {
	var out []string
	pos := start
	for {
		i := pos
		for i > 0 && isSpace(s.text[i-1]) {
			i--
		}
		if i == 0 {
			break
		}
		lineStart := strings.LastIndexByte(s.text[:i], '\n') + 1
		line := strings.TrimSpace(s.text[lineStart:i])

		if strings.HasPrefix(line, "//") {
			out = append(out, strings.TrimSpace(line[2:]))
			pos = lineStart
			continue
		}
		if strings.HasSuffix(line, "*/") {
			open := strings.LastIndex(s.text[:i-2], "/*")
			if open < 0 {
				break
			}
			openLine := strings.LastIndexByte(s.text[:open], '\n') + 1
			if strings.TrimSpace(s.text[openLine:open]) != "" {
				break
			}
			out = append(out, trimBlockComment(s.text[open+2:i-2]))
			pos = openLine
			continue
		}
		break
	}
	for l, r := 0, len(out)-1; l < r; l, r = l+1, r-1 {
		out[l], out[r] = out[r], out[l]
	}
	return out
}

// trimBlockComment strips surrounding space and the leading asterisks of
// JSDoc-style continuation lines.
func trimBlockComment(body string) string {
	lines := strings.Split(body, "\n")
	for i, l := range lines {
		l = strings.TrimSpace(l)
		l = strings.TrimPrefix(l, "*")
		lines[i] = strings.TrimSpace(l)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
