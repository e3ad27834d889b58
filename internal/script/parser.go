package script

import (
	"strconv"
)

// EntryName is the entry-point function every compiled program has.
// Bare top-level statements are wrapped into fn main(n).
const EntryName = "main"

// defaultParam is the parameter the implicit main is given so bare
// scripts can still consume the call input.
const defaultParam = "n"

// Compile parses source into an immutable Program and runs the static
// checks: every identifier read must be a parameter or assigned
// earlier in the same scope, call targets must exist with matching
// arity, every body must end in a return statement, and an entry
// point must be present. Failures are *CompileError values carrying
// the offending position.
func Compile(source string) (*Program, error) {
	if !firstNonSpace(source) {
		return nil, compileErrorf(Position{Line: 1, Col: 1}, "empty program")
	}

	tokens, err := tokenize(source)
	if err != nil {
		return nil, err
	}

	p := &parser{tokens: tokens}
	prog, err := p.parseProgram()
	if err != nil {
		return nil, err
	}
	if err := checkProgram(prog); err != nil {
		return nil, err
	}
	return prog, nil
}

type parser struct {
	tokens []token
	pos    int
}

func (p *parser) peek() token {
	return p.tokens[p.pos]
}

func (p *parser) next() token {
	t := p.tokens[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) accept(kind tokenKind) bool {
	if p.peek().kind == kind {
		p.next()
		return true
	}
	return false
}

func (p *parser) expect(kind tokenKind) (token, error) {
	t := p.next()
	if t.kind != kind {
		return t, compileErrorf(t.pos, "expected %s, found %s", kind, t)
	}
	return t, nil
}

func (p *parser) skipSeparators() {
	for p.peek().kind == tokNewline {
		p.next()
	}
}

func (p *parser) parseProgram() (*Program, error) {
	p.skipSeparators()

	if p.peek().kind == tokFn {
		var funcs []*Func
		for p.peek().kind != tokEOF {
			fn, err := p.parseFunc()
			if err != nil {
				return nil, err
			}
			funcs = append(funcs, fn)
			p.skipSeparators()
		}
		return &Program{Funcs: funcs, Entry: EntryName}, nil
	}

	// Bare statement sequence: wrap into the implicit entry function.
	body, err := p.parseStmts(tokEOF)
	if err != nil {
		return nil, err
	}
	fn := &Func{Name: EntryName, Params: []string{defaultParam}, Body: body}
	return &Program{Funcs: []*Func{fn}, Entry: EntryName}, nil
}

func (p *parser) parseFunc() (*Func, error) {
	if _, err := p.expect(tokFn); err != nil {
		return nil, err
	}
	name, err := p.expect(tokIdent)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokLParen); err != nil {
		return nil, err
	}

	var params []string
	if p.peek().kind != tokRParen {
		for {
			param, err := p.expect(tokIdent)
			if err != nil {
				return nil, err
			}
			params = append(params, param.text)
			if !p.accept(tokComma) {
				break
			}
		}
	}
	if _, err := p.expect(tokRParen); err != nil {
		return nil, err
	}
	if _, err := p.expect(tokLBrace); err != nil {
		return nil, err
	}

	body, err := p.parseStmts(tokRBrace)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokRBrace); err != nil {
		return nil, err
	}

	return &Func{Name: name.text, Params: params, Body: body}, nil
}

// parseStmts parses statements until the terminator token (not
// consumed for tokRBrace).
func (p *parser) parseStmts(until tokenKind) ([]Stmt, error) {
	var stmts []Stmt
	for {
		p.skipSeparators()
		if p.peek().kind == until || p.peek().kind == tokEOF {
			return stmts, nil
		}

		stmt, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)

		// A statement ends at a separator, closing brace, or EOF.
		switch p.peek().kind {
		case tokNewline, until, tokEOF:
		default:
			t := p.peek()
			return nil, compileErrorf(t.pos, "unexpected %s after statement", t)
		}
	}
}

func (p *parser) parseStmt() (Stmt, error) {
	t := p.peek()
	switch t.kind {
	case tokReturn:
		p.next()
		value, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		return &Return{Value: value, At: t.pos}, nil
	case tokIdent:
		name := p.next()
		if _, err := p.expect(tokAssign); err != nil {
			return nil, err
		}
		value, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		return &Assign{Name: name.text, Value: value, At: name.pos}, nil
	default:
		return nil, compileErrorf(t.pos, "expected statement, found %s", t)
	}
}

// parseExpr handles + and - at the lowest precedence level.
func (p *parser) parseExpr() (Expr, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for {
		t := p.peek()
		var op BinOp
		switch t.kind {
		case tokPlus:
			op = OpAdd
		case tokMinus:
			op = OpSub
		default:
			return left, nil
		}
		p.next()
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		left = &Binary{Op: op, Left: left, Right: right, At: t.pos}
	}
}

// parseTerm handles * and /.
func (p *parser) parseTerm() (Expr, error) {
	left, err := p.parseFactor()
	if err != nil {
		return nil, err
	}
	for {
		t := p.peek()
		var op BinOp
		switch t.kind {
		case tokStar:
			op = OpMul
		case tokSlash:
			op = OpDiv
		default:
			return left, nil
		}
		p.next()
		right, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		left = &Binary{Op: op, Left: left, Right: right, At: t.pos}
	}
}

func (p *parser) parseFactor() (Expr, error) {
	t := p.next()
	switch t.kind {
	case tokNumber:
		v, err := strconv.ParseFloat(t.text, 64)
		if err != nil {
			return nil, compileErrorf(t.pos, "invalid number %q", t.text)
		}
		return &Lit{Value: v, At: t.pos}, nil
	case tokMinus:
		// Unary minus desugars to 0 - x.
		inner, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		return &Binary{Op: OpSub, Left: &Lit{Value: 0, At: t.pos}, Right: inner, At: t.pos}, nil
	case tokIdent:
		if p.peek().kind == tokLParen {
			return p.parseCallArgs(t)
		}
		return &Var{Name: t.text, At: t.pos}, nil
	case tokLParen:
		inner, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokRParen); err != nil {
			return nil, err
		}
		return inner, nil
	default:
		return nil, compileErrorf(t.pos, "expected expression, found %s", t)
	}
}

func (p *parser) parseCallArgs(name token) (Expr, error) {
	if _, err := p.expect(tokLParen); err != nil {
		return nil, err
	}
	var args []Expr
	if p.peek().kind != tokRParen {
		for {
			arg, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if !p.accept(tokComma) {
				break
			}
		}
	}
	if _, err := p.expect(tokRParen); err != nil {
		return nil, err
	}
	return &Call{Name: name.text, Args: args, At: name.pos}, nil
}

// checkProgram runs the static checks over a parsed program.
func checkProgram(prog *Program) error {
	arity := make(map[string]int, len(prog.Funcs))
	for _, fn := range prog.Funcs {
		if _, dup := arity[fn.Name]; dup {
			return compileErrorf(funcPos(fn), "duplicate function %q", fn.Name)
		}
		arity[fn.Name] = len(fn.Params)
	}
	if _, ok := arity[prog.Entry]; !ok {
		return compileErrorf(Position{Line: 1, Col: 1}, "missing entry point: fn %s not found", prog.Entry)
	}

	for _, fn := range prog.Funcs {
		if err := checkFunc(fn, arity); err != nil {
			return err
		}
	}
	return nil
}

func funcPos(fn *Func) Position {
	if len(fn.Body) > 0 {
		return fn.Body[0].Pos()
	}
	return Position{Line: 1, Col: 1}
}

func checkFunc(fn *Func, arity map[string]int) error {
	if len(fn.Body) == 0 {
		return compileErrorf(funcPos(fn), "function %q has an empty body", fn.Name)
	}

	assigned := make(map[string]bool, len(fn.Params))
	for _, p := range fn.Params {
		assigned[p] = true
	}

	for _, stmt := range fn.Body {
		switch s := stmt.(type) {
		case *Assign:
			if err := checkExpr(s.Value, assigned, arity); err != nil {
				return err
			}
			assigned[s.Name] = true
		case *Return:
			if err := checkExpr(s.Value, assigned, arity); err != nil {
				return err
			}
		}
	}

	if _, ok := fn.Body[len(fn.Body)-1].(*Return); !ok {
		last := fn.Body[len(fn.Body)-1]
		return compileErrorf(last.Pos(), "function %q does not end with a return statement", fn.Name)
	}
	return nil
}

func checkExpr(e Expr, assigned map[string]bool, arity map[string]int) error {
	switch e := e.(type) {
	case *Var:
		if !assigned[e.Name] {
			return compileErrorf(e.At, "variable %q used before assignment", e.Name)
		}
	case *Binary:
		if err := checkExpr(e.Left, assigned, arity); err != nil {
			return err
		}
		return checkExpr(e.Right, assigned, arity)
	case *Call:
		want, ok := arity[e.Name]
		if !ok {
			return compileErrorf(e.At, "call to undefined function %q", e.Name)
		}
		if len(e.Args) != want {
			return compileErrorf(e.At, "function %q takes %d argument(s), got %d", e.Name, want, len(e.Args))
		}
		for _, a := range e.Args {
			if err := checkExpr(a, assigned, arity); err != nil {
				return err
			}
		}
	}
	return nil
}
