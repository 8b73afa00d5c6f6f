package parser

import (
	"fmt"
	"strings"

	"github.com/dop251/goja/ast"
	"github.com/dop251/goja/token"

	"github.com/roach88/scriptblocks/internal/ir"
)

// statements converts a statement list into child ids in source order.
// Empty statements carry nothing and are dropped.
func (b *builder) statements(list []ast.Statement) []string {
	ids := make([]string, 0, len(list))
	for _, st := range list {
		if _, ok := st.(*ast.EmptyStatement); ok {
			continue
		}
		ids = append(ids, b.statement(st))
	}
	return ids
}

// body flattens a loop or branch body. A body that is not a block becomes a
// one-element list.
func (b *builder) body(st ast.Statement) []string {
	switch s := st.(type) {
	case nil:
		return []string{}
	case *ast.BlockStatement:
		return b.statements(s.List)
	}
	return b.statements([]ast.Statement{st})
}

// statement converts one statement and returns its block id. Shapes without a
// dedicated kind fall through to the raw arm at the end.
func (b *builder) statement(st ast.Statement) string {
	switch s := st.(type) {
	case *ast.FunctionDeclaration:
		if s.Function.Name != nil && !s.Function.Generator {
			return b.function(s)
		}
	case *ast.LexicalDeclaration:
		if id, ok := b.let(s); ok {
			return id
		}
	case *ast.IfStatement:
		return b.ifStatement(s)
	case *ast.WhileStatement:
		blk := b.newBlock(ir.KindWhile, s, map[string]any{"condition": b.src.exprText(s.Test)})
		blk.Children[ir.SlotBody] = b.body(s.Body)
		return blk.ID
	case *ast.ForStatement:
		if id, ok := b.forStatement(s); ok {
			return id
		}
	case *ast.BranchStatement:
		if id, ok := b.branch(s); ok {
			return id
		}
	case *ast.ThrowStatement:
		return b.newBlock(ir.KindThrow, s, map[string]any{"argument": b.optionalExpr(s.Argument)}).ID
	case *ast.ReturnStatement:
		return b.newBlock(ir.KindReturn, s, map[string]any{"argument": b.optionalExpr(s.Argument)}).ID
	case *ast.SwitchStatement:
		return b.switchStatement(s)
	case *ast.TryStatement:
		return b.tryStatement(s)
	case *ast.ExpressionStatement:
		if call, ok := s.Expression.(*ast.CallExpression); ok {
			if id, ok := b.call(s, call, ""); ok {
				return id
			}
		}
	}
	return b.raw(st)
}

// raw keeps the statement as its exact source text.
func (b *builder) raw(st ast.Statement) string {
	start, end := b.src.statementSpan(st)
	code := b.src.slice(start, end)
	b.rawCount++
	b.logger.Debug("statement kept as raw code",
		"node", fmt.Sprintf("%T", st),
		"line", b.src.position(start).Line)
	return b.newBlock(ir.KindRawStatement, st, map[string]any{ir.FieldCode: code}).ID
}

func (b *builder) optionalExpr(e ast.Expression) string {
	if e == nil {
		return ""
	}
	return b.src.exprText(e)
}

func (b *builder) function(s *ast.FunctionDeclaration) string {
	fn := s.Function
	params := ""
	if fn.ParameterList != nil {
		params = strings.TrimSpace(b.src.slice(b.src.offset(fn.ParameterList.Opening)+1, b.src.offset(fn.ParameterList.Closing)))
	}
	blk := b.newBlock(ir.KindFunctionDeclaration, s, map[string]any{
		"name":   fn.Name.Name.String(),
		"params": params,
		"async":  fn.Async,
	})
	if fn.Body != nil {
		blk.Children[ir.SlotBody] = b.statements(fn.Body.List)
	}
	return blk.ID
}

// let handles a let declaration binding exactly one identifier. A call
// initializer is tried as a verb or function call bound to the name first.
func (b *builder) let(s *ast.LexicalDeclaration) (string, bool) {
	if s.Token != token.LET || len(s.List) != 1 {
		return "", false
	}
	binding := s.List[0]
	target, ok := binding.Target.(*ast.Identifier)
	if !ok {
		return "", false
	}
	name := target.Name.String()

	if call, ok := binding.Initializer.(*ast.CallExpression); ok {
		if id, ok := b.call(s, call, name); ok {
			return id, true
		}
	}

	return b.newBlock(ir.KindVariableDeclaration, s, map[string]any{
		"name":  name,
		"value": b.optionalExpr(binding.Initializer),
	}).ID, true
}

func (b *builder) ifStatement(s *ast.IfStatement) string {
	blk := b.newBlock(ir.KindIf, s, map[string]any{"condition": b.src.exprText(s.Test)})
	blk.Children[ir.SlotConsequent] = b.body(s.Consequent)
	blk.Children[ir.SlotAlternate] = b.body(s.Alternate)
	return blk.ID
}

// forStatement reads the three clauses from the header text so that any
// initializer shape (let, var, expression) is kept verbatim.
func (b *builder) forStatement(s *ast.ForStatement) (string, bool) {
	header := b.src.slice(b.src.offset(s.For), b.src.offset(s.Body.Idx0()))
	open := strings.IndexByte(header, '(')
	if open < 0 {
		return "", false
	}
	closing := matchingParen(header, open)
	if closing < 0 {
		return "", false
	}
	clauses := splitTopLevel(header[open+1:closing], ';')
	if len(clauses) != 3 {
		return "", false
	}

	blk := b.newBlock(ir.KindFor, s, map[string]any{
		"init":   strings.TrimSpace(clauses[0]),
		"test":   strings.TrimSpace(clauses[1]),
		"update": strings.TrimSpace(clauses[2]),
	})
	blk.Children[ir.SlotBody] = b.body(s.Body)
	return blk.ID, true
}

func (b *builder) branch(s *ast.BranchStatement) (string, bool) {
	label := ""
	if s.Label != nil {
		label = s.Label.Name.String()
	}
	switch s.Token {
	case token.BREAK:
		return b.newBlock(ir.KindBreak, s, map[string]any{"label": label}).ID, true
	case token.CONTINUE:
		return b.newBlock(ir.KindContinue, s, map[string]any{"label": label}).ID, true
	}
	return "", false
}

func (b *builder) switchStatement(s *ast.SwitchStatement) string {
	blk := b.newBlock(ir.KindSwitch, s, map[string]any{"discriminant": b.src.exprText(s.Discriminant)})
	cases := make([]string, 0, len(s.Body))
	for _, c := range s.Body {
		start, end := b.caseSpan(c)
		cb := b.newBlockAt(ir.KindSwitchCase, start, end, map[string]any{
			"test":      b.optionalExpr(c.Test),
			"isDefault": c.Test == nil,
		})
		cb.Children[ir.SlotBody] = b.statements(c.Consequent)
		cases = append(cases, cb.ID)
	}
	blk.Children[ir.SlotCases] = cases
	return blk.ID
}

func (b *builder) tryStatement(s *ast.TryStatement) string {
	data := map[string]any{
		"catchParam": "",
		"hasCatch":   s.Catch != nil,
		"hasFinally": s.Finally != nil,
	}
	if s.Catch != nil && s.Catch.Parameter != nil {
		data["catchParam"] = b.src.exprText(s.Catch.Parameter)
	}

	blk := b.newBlock(ir.KindTry, s, data)
	if s.Body != nil {
		blk.Children[ir.SlotTry] = b.statements(s.Body.List)
	}
	if s.Catch != nil && s.Catch.Body != nil {
		blk.Children[ir.SlotCatch] = b.statements(s.Catch.Body.List)
	}
	if s.Finally != nil {
		blk.Children[ir.SlotFinally] = b.statements(s.Finally.List)
	}
	return blk.ID
}

// caseSpan runs from the case keyword to the end of its last statement, or to
// its colon when the case is empty.
func (b *builder) caseSpan(c *ast.CaseStatement) (int, int) {
	start := b.src.offset(c.Case)
	if n := len(c.Consequent); n > 0 {
		_, end := b.src.statementSpan(c.Consequent[n-1])
		return start, end
	}
	from := start
	if c.Test != nil {
		_, from = b.src.span(c.Test)
	}
	if colon := strings.IndexByte(b.src.text[from:], ':'); colon >= 0 {
		return start, from + colon + 1
	}
	return start, from
}
