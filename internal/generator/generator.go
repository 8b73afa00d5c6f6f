// Package generator emits script source from a block document.
//
// Emission is the inverse of the parser's recognition rules: every kind the
// parser produces has one surface form here, and re-parsing the output yields
// the same kinds, field values and child order. Raw statements are copied out
// verbatim. A kind without a rule is an error; nothing is silently dropped.
//
// Block metadata (source locations and comments) is never read.
package generator

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/roach88/scriptblocks/internal/ir"
)

// DefaultIndent is one nesting level of output.
const DefaultIndent = "  "

// Option configures Generate.
type Option func(*generator)

// WithIndent sets the string written once per nesting level.
func WithIndent(indent string) Option {
	return func(g *generator) {
		g.indent = indent
	}
}

// Generate returns the source text of doc's program. The output ends with a
// newline unless the program is empty.
func Generate(doc *ir.Document, opts ...Option) (string, error) {
	g := &generator{doc: doc, indent: DefaultIndent, visiting: make(map[string]bool)}
	for _, opt := range opts {
		opt(g)
	}

	root, ok := doc.Blocks[doc.Root]
	if !ok {
		return "", &MissingBlockError{BlockID: doc.Root}
	}
	if err := g.slot(root, ir.SlotBody, 0); err != nil {
		return "", err
	}
	return g.out.String(), nil
}

type generator struct {
	doc      *ir.Document
	indent   string
	out      strings.Builder
	visiting map[string]bool
}

func (g *generator) line(depth int, text string) {
	g.out.WriteString(strings.Repeat(g.indent, depth))
	g.out.WriteString(text)
	g.out.WriteByte('\n')
}

// slot emits every child of parent's slot in stored order.
func (g *generator) slot(parent *ir.Block, slotID string, depth int) error {
	for _, id := range parent.Children[slotID] {
		child, ok := g.doc.Blocks[id]
		if !ok {
			return &MissingBlockError{BlockID: id, ParentID: parent.ID, SlotID: slotID}
		}
		if err := g.block(child, depth); err != nil {
			return err
		}
	}
	return nil
}

// block emits one statement. The visiting set guards against corrupt
// documents whose slots form a loop.
func (g *generator) block(b *ir.Block, depth int) error {
	if g.visiting[b.ID] {
		return fmt.Errorf("block %q is its own ancestor", b.ID)
	}
	g.visiting[b.ID] = true
	defer delete(g.visiting, b.ID)

	return g.emit(b, depth, "")
}

// opener is prepended to the first line of a statement; it carries "} else "
// when an if-statement continues an else chain.
func (g *generator) emit(b *ir.Block, depth int, opener string) error {
	switch b.Kind {
	case ir.KindFunctionDeclaration:
		head := "function " + b.Text("name") + "(" + b.Text("params") + ") {"
		if async, _ := b.Bool("async"); async {
			head = "async " + head
		}
		return g.braced(b, depth, opener+head, ir.SlotBody)

	case ir.KindVariableDeclaration:
		if value := b.Text("value"); value != "" {
			g.line(depth, opener+"let "+b.Text("name")+" = "+value+";")
		} else {
			g.line(depth, opener+"let "+b.Text("name")+";")
		}

	case ir.KindIf:
		return g.ifStatement(b, depth, opener)

	case ir.KindWhile:
		return g.braced(b, depth, opener+"while ("+b.Text("condition")+") {", ir.SlotBody)

	case ir.KindFor:
		return g.braced(b, depth, opener+"for ("+forHeader(b)+") {", ir.SlotBody)

	case ir.KindBreak:
		g.line(depth, opener+withOperand("break", b.Text("label")))

	case ir.KindContinue:
		g.line(depth, opener+withOperand("continue", b.Text("label")))

	case ir.KindThrow:
		g.line(depth, opener+withOperand("throw", b.Text("argument")))

	case ir.KindReturn:
		g.line(depth, opener+withOperand("return", b.Text("argument")))

	case ir.KindSwitch:
		return g.switchStatement(b, depth, opener)

	case ir.KindSwitchCase:
		return g.switchCase(b, depth)

	case ir.KindTry:
		return g.tryStatement(b, depth, opener)

	case ir.KindFunctionCall:
		g.line(depth, opener+bind(b, b.Text("functionName")+"("+b.Text("arguments")+")"))

	case ir.KindRawStatement:
		// Continuation lines keep their original indentation so the code
		// field round-trips byte for byte.
		g.line(depth, opener+b.Text(ir.FieldCode))

	default:
		verb, ok := ir.VerbByKind(b.Kind)
		if !ok {
			return &UnsupportedBlockKindError{Kind: b.Kind, BlockID: b.ID}
		}
		g.line(depth, opener+bind(b, verb.Name+"("+verbArgs(b, verb)+")"))
	}
	return nil
}

// braced emits head, the children of slotID one level deeper, and a closing
// brace.
func (g *generator) braced(b *ir.Block, depth int, head, slotID string) error {
	g.line(depth, head)
	if err := g.slot(b, slotID, depth+1); err != nil {
		return err
	}
	g.line(depth, "}")
	return nil
}

func (g *generator) ifStatement(b *ir.Block, depth int, opener string) error {
	g.line(depth, opener+"if ("+b.Text("condition")+") {")
	if err := g.slot(b, ir.SlotConsequent, depth+1); err != nil {
		return err
	}

	alt := b.Children[ir.SlotAlternate]
	if len(alt) == 0 {
		g.line(depth, "}")
		return nil
	}
	if len(alt) == 1 {
		if next, ok := g.doc.Blocks[alt[0]]; ok && next.Kind == ir.KindIf && !g.visiting[next.ID] {
			g.visiting[next.ID] = true
			defer delete(g.visiting, next.ID)
			return g.ifStatement(next, depth, "} else ")
		}
	}
	g.line(depth, "} else {")
	if err := g.slot(b, ir.SlotAlternate, depth+1); err != nil {
		return err
	}
	g.line(depth, "}")
	return nil
}

func (g *generator) switchStatement(b *ir.Block, depth int, opener string) error {
	g.line(depth, opener+"switch ("+b.Text("discriminant")+") {")
	if err := g.slot(b, ir.SlotCases, depth+1); err != nil {
		return err
	}
	g.line(depth, "}")
	return nil
}

func (g *generator) switchCase(b *ir.Block, depth int) error {
	if isDefault, _ := b.Bool("isDefault"); isDefault || b.Text("test") == "" {
		g.line(depth, "default:")
	} else {
		g.line(depth, "case "+b.Text("test")+":")
	}
	return g.slot(b, ir.SlotBody, depth+1)
}

func (g *generator) tryStatement(b *ir.Block, depth int, opener string) error {
	g.line(depth, opener+"try {")
	if err := g.slot(b, ir.SlotTry, depth+1); err != nil {
		return err
	}

	hasCatch, _ := b.Bool("hasCatch")
	hasCatch = hasCatch || len(b.Children[ir.SlotCatch]) > 0
	hasFinally, _ := b.Bool("hasFinally")
	// a try needs at least one handler to parse
	hasFinally = hasFinally || len(b.Children[ir.SlotFinally]) > 0 || !hasCatch

	if hasCatch {
		if param := b.Text("catchParam"); param != "" {
			g.line(depth, "} catch ("+param+") {")
		} else {
			g.line(depth, "} catch {")
		}
		if err := g.slot(b, ir.SlotCatch, depth+1); err != nil {
			return err
		}
	}
	if hasFinally {
		g.line(depth, "} finally {")
		if err := g.slot(b, ir.SlotFinally, depth+1); err != nil {
			return err
		}
	}
	g.line(depth, "}")
	return nil
}

func forHeader(b *ir.Block) string {
	init, test, update := b.Text("init"), b.Text("test"), b.Text("update")
	if init == "" && test == "" && update == "" {
		return ";;"
	}
	return init + "; " + test + "; " + update
}

func withOperand(keyword, operand string) string {
	if operand == "" {
		return keyword + ";"
	}
	return keyword + " " + operand + ";"
}

// bind prefixes a call with its let binding, if any, and terminates it.
func bind(b *ir.Block, call string) string {
	if v := b.Text(ir.FieldVariable); v != "" {
		return "let " + v + " = " + call + ";"
	}
	return call + ";"
}

// verbArgs formats a verb's arguments in parameter order. Absent arguments
// before a present one are written as undefined; trailing ones are omitted.
func verbArgs(b *ir.Block, verb ir.Verb) string {
	args := make([]string, 0, len(verb.Params))
	last := -1
	for i, p := range verb.Params {
		if !b.Has(p.Field) {
			args = append(args, "undefined")
			continue
		}
		args = append(args, formatValue(b, p.Field))
		last = i
	}
	return strings.Join(args[:last+1], ", ")
}

// formatValue writes a field as source: expression text as is, strings
// quoted, numbers in shortest form.
func formatValue(b *ir.Block, field string) string {
	if b.IsExpression(field) {
		return b.Text(field)
	}
	switch v := b.Data[field].(type) {
	case string:
		return quote(v)
	case bool:
		return strconv.FormatBool(v)
	}
	if n, ok := b.Number(field); ok {
		return formatNumber(n)
	}
	return "undefined"
}

func formatNumber(n float64) string {
	return strconv.FormatFloat(n, 'f', -1, 64)
}

// quote returns s as a double-quoted string literal. Bytes that are not
// valid UTF-8 are escaped as code units: a surrogate half encoded in WTF-8
// keeps its value, and any other stray byte is written as \u00XX.
func quote(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size <= 1 {
			if u, ok := surrogateAt(s[i:]); ok {
				fmt.Fprintf(&b, `\u%04x`, u)
				i += 3
			} else {
				fmt.Fprintf(&b, `\u%04x`, s[i])
				i++
			}
			continue
		}
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		case '\u2028', '\u2029':
			fmt.Fprintf(&b, `\u%04x`, r)
		default:
			if r < 0x20 {
				fmt.Fprintf(&b, `\u%04x`, r)
			} else {
				b.WriteString(s[i : i+size])
			}
		}
		i += size
	}
	b.WriteByte('"')
	return b.String()
}

// surrogateAt decodes a UTF-16 surrogate half encoded as three bytes at the
// start of s.
func surrogateAt(s string) (uint16, bool) {
	if len(s) < 3 || s[0] != 0xED || s[1] < 0xA0 || s[1] > 0xBF || s[2] < 0x80 || s[2] > 0xBF {
		return 0, false
	}
	return 0xD000 | uint16(s[1]&0x3F)<<6 | uint16(s[2]&0x3F), true
}
