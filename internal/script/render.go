package script

import (
	"math"
	"strconv"
	"strings"
)

// Render converts a program back to canonical source text. The result
// recompiles to a structurally identical program, which is how evolved
// IR is handed back to callers.
func Render(prog *Program) string {
	var b strings.Builder
	for i, fn := range prog.Funcs {
		if i > 0 {
			b.WriteByte('\n')
		}
		renderFunc(&b, fn)
	}
	return b.String()
}

func renderFunc(b *strings.Builder, fn *Func) {
	b.WriteString("fn ")
	b.WriteString(fn.Name)
	b.WriteByte('(')
	b.WriteString(strings.Join(fn.Params, ", "))
	b.WriteString(") {\n")
	for _, stmt := range fn.Body {
		b.WriteString("    ")
		renderStmt(b, stmt)
		b.WriteByte('\n')
	}
	b.WriteString("}\n")
}

func renderStmt(b *strings.Builder, s Stmt) {
	switch s := s.(type) {
	case *Assign:
		b.WriteString(s.Name)
		b.WriteString(" = ")
		renderExpr(b, s.Value, precLowest)
	case *Return:
		b.WriteString("return ")
		renderExpr(b, s.Value, precLowest)
	}
}

const (
	precLowest = iota
	precAdd
	precMul
	precUnary
)

func opPrec(op BinOp) int {
	switch op {
	case OpMul, OpDiv:
		return precMul
	default:
		return precAdd
	}
}

// renderExpr emits e, parenthesizing only where the surrounding
// precedence requires it.
func renderExpr(b *strings.Builder, e Expr, outer int) {
	switch e := e.(type) {
	case *Lit:
		b.WriteString(FormatValue(e.Value))
	case *Var:
		b.WriteString(e.Name)
	case *Binary:
		prec := opPrec(e.Op)
		paren := prec < outer
		if paren {
			b.WriteByte('(')
		}
		renderExpr(b, e.Left, prec)
		b.WriteByte(' ')
		b.WriteString(e.Op.String())
		b.WriteByte(' ')
		// Right operand of - and / needs a tighter context so that
		// a - (b - c) and a / (b * c) round-trip correctly.
		rightPrec := prec
		if e.Op == OpSub || e.Op == OpDiv {
			rightPrec = prec + 1
		}
		renderExpr(b, e.Right, rightPrec)
		if paren {
			b.WriteByte(')')
		}
	case *Call:
		b.WriteString(e.Name)
		b.WriteByte('(')
		for i, a := range e.Args {
			if i > 0 {
				b.WriteString(", ")
			}
			renderExpr(b, a, precLowest)
		}
		b.WriteByte(')')
	}
}

// FormatValue renders a numeric value the way script literals are
// written: integral values without a trailing fraction, everything else
// in plain decimal. The tokenizer has no exponent syntax, so exponent
// notation here would produce source that cannot be compiled again.
func FormatValue(v float64) string {
	if v == float64(int64(v)) && math.Abs(v) < 1e18 {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
