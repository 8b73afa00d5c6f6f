package parser

import (
	"strings"

	"github.com/dop251/goja/ast"
	"github.com/dop251/goja/unistring"

	"github.com/roach88/scriptblocks/internal/ir"
)

// call converts a call statement, optionally bound to variable by a let.
// It reports false when the callee is neither a verb nor a named function
// so the caller can fall back.
func (b *builder) call(st ast.Statement, call *ast.CallExpression, variable string) (string, bool) {
	if callee, ok := call.Callee.(*ast.Identifier); ok {
		if verb, ok := ir.VerbByName(callee.Name.String()); ok && fitsVerb(verb, call.ArgumentList) {
			return b.verbCall(st, verb, call.ArgumentList, variable), true
		}
	}

	name, ok := calleeName(call.Callee)
	if !ok {
		return "", false
	}
	args := make([]string, len(call.ArgumentList))
	for i, arg := range call.ArgumentList {
		args[i] = b.argText(arg)
	}
	return b.newBlock(ir.KindFunctionCall, st, map[string]any{
		"functionName":   name,
		"arguments":      strings.Join(args, ", "),
		ir.FieldVariable: variable,
	}).ID, true
}

// fitsVerb reports whether args can be stored in the verb's fields: no more
// arguments than the verb declares and no spread.
func fitsVerb(verb ir.Verb, args []ast.Expression) bool {
	if len(args) > len(verb.Params) {
		return false
	}
	for _, arg := range args {
		if _, spread := arg.(*ast.SpreadElement); spread {
			return false
		}
	}
	return true
}

func (b *builder) verbCall(st ast.Statement, verb ir.Verb, args []ast.Expression, variable string) string {
	data := map[string]any{ir.FieldVariable: variable}
	for i, p := range verb.Params {
		if i >= len(args) || isUndefined(args[i]) {
			if p.Default != nil {
				data[p.Field] = p.Default
			}
			continue
		}
		b.verbArg(data, p, args[i])
	}
	return b.newBlock(verb.Kind, st, data).ID
}

// isUndefined reports whether arg is the bare identifier undefined, which the
// generator writes for an absent argument followed by present ones.
func isUndefined(arg ast.Expression) bool {
	id, ok := arg.(*ast.Identifier)
	return ok && id.Name.String() == "undefined"
}

// verbArg stores one argument. Literals of the parameter's type are unwrapped;
// anything else is kept as expression text with its marker set, unless the
// parameter coerces non-literals to its default.
func (b *builder) verbArg(data map[string]any, p ir.VerbParam, arg ast.Expression) {
	switch p.Type {
	case ir.ParamText:
		if lit, ok := arg.(*ast.StringLiteral); ok && !hasLoneSurrogate(lit.Value) {
			data[p.Field] = lit.Value.String()
			return
		}
	case ir.ParamNumber:
		if lit, ok := arg.(*ast.NumberLiteral); ok {
			if n, ok := numberValue(lit.Value); ok {
				data[p.Field] = n
				return
			}
		}
	case ir.ParamBool:
		if lit, ok := arg.(*ast.BooleanLiteral); ok {
			data[p.Field] = lit.Value
			return
		}
	}
	if p.Coerce {
		data[p.Field] = p.Default
		return
	}
	data[p.Field] = b.src.exprText(arg)
	data[ir.ExpressionKey(p.Field)] = true
}

// hasLoneSurrogate reports whether v holds a UTF-16 surrogate half without
// its partner. Such a value has no UTF-8 form, so the literal is kept as
// source text instead.
func hasLoneSurrogate(v unistring.String) bool {
	u := v.AsUtf16()
	if len(u) == 0 {
		return false
	}
	u = u[1:] // byte order mark
	for i := 0; i < len(u); i++ {
		c := u[i]
		switch {
		case c < 0xD800 || c > 0xDFFF:
		case c < 0xDC00 && i+1 < len(u) && u[i+1] >= 0xDC00 && u[i+1] <= 0xDFFF:
			i++
		default:
			return true
		}
	}
	return false
}

func numberValue(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	}
	return 0, false
}

func (b *builder) argText(arg ast.Expression) string {
	if spread, ok := arg.(*ast.SpreadElement); ok {
		return "..." + b.src.exprText(spread.Expression)
	}
	return b.src.exprText(arg)
}

// calleeName returns the dotted name of an identifier or member chain such
// as page.keyboard.press.
func calleeName(e ast.Expression) (string, bool) {
	switch c := e.(type) {
	case *ast.Identifier:
		return c.Name.String(), true
	case *ast.DotExpression:
		left, ok := calleeName(c.Left)
		if !ok {
			return "", false
		}
		return left + "." + c.Identifier.Name.String(), true
	}
	return "", false
}
