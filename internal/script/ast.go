package script

// The IR is a tree of immutable node values. New program versions are
// always built from fresh nodes; existing trees are never patched in
// place, so subtrees can be shared freely across goroutines (the
// evolution engine relies on this for parallel fitness evaluation).

// BinOp is a binary arithmetic operator.
type BinOp int

const (
	OpAdd BinOp = iota
	OpSub
	OpMul
	OpDiv
)

func (op BinOp) String() string {
	switch op {
	case OpAdd:
		return "+"
	case OpSub:
		return "-"
	case OpMul:
		return "*"
	case OpDiv:
		return "/"
	default:
		return "?"
	}
}

// Commutative reports whether operand order is irrelevant for op.
func (op BinOp) Commutative() bool {
	return op == OpAdd || op == OpMul
}

// Expr is an expression node.
type Expr interface {
	exprNode()
	// Pos is the source position the node was parsed from. Synthesized
	// nodes carry the position of the node they were derived from.
	Pos() Position
}

// Stmt is a statement node.
type Stmt interface {
	stmtNode()
	Pos() Position
}

// Lit is a numeric literal.
type Lit struct {
	Value float64
	At    Position
}

// Var is a reference to a variable or parameter.
type Var struct {
	Name string
	At   Position
}

// Binary applies Op to Left and Right.
type Binary struct {
	Op    BinOp
	Left  Expr
	Right Expr
	At    Position
}

// Call invokes a named function with argument expressions.
type Call struct {
	Name string
	Args []Expr
	At   Position
}

func (*Lit) exprNode()    {}
func (*Var) exprNode()    {}
func (*Binary) exprNode() {}
func (*Call) exprNode()   {}

func (e *Lit) Pos() Position    { return e.At }
func (e *Var) Pos() Position    { return e.At }
func (e *Binary) Pos() Position { return e.At }
func (e *Call) Pos() Position   { return e.At }

// Assign binds the value of an expression to a name.
type Assign struct {
	Name  string
	Value Expr
	At    Position
}

// Return terminates the enclosing function with a value.
type Return struct {
	Value Expr
	At    Position
}

func (*Assign) stmtNode() {}
func (*Return) stmtNode() {}

func (s *Assign) Pos() Position { return s.At }
func (s *Return) Pos() Position { return s.At }

// Func is a named function definition.
type Func struct {
	Name   string
	Params []string
	Body   []Stmt
}

// Program is a compiled script: one or more functions plus the entry
// point name. Construct through Compile or WithEntryFunc.
type Program struct {
	Funcs []*Func
	Entry string
}

// EntryFunc returns the entry-point function, or nil if the program
// has none (which Compile never produces).
func (p *Program) EntryFunc() *Func {
	return p.Lookup(p.Entry)
}

// Lookup returns the named function or nil.
func (p *Program) Lookup(name string) *Func {
	for _, f := range p.Funcs {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// WithEntryFunc builds a new Program identical to p except that the
// entry function is replaced by fn. The original is left untouched;
// non-entry functions are shared between the two versions.
func (p *Program) WithEntryFunc(fn *Func) *Program {
	funcs := make([]*Func, len(p.Funcs))
	for i, f := range p.Funcs {
		if f.Name == p.Entry {
			funcs[i] = fn
		} else {
			funcs[i] = f
		}
	}
	return &Program{Funcs: funcs, Entry: p.Entry}
}

// CloneFunc returns a deep copy of fn so callers can assemble new
// bodies without aliasing the original statement slice.
func CloneFunc(fn *Func) *Func {
	body := make([]Stmt, len(fn.Body))
	for i, s := range fn.Body {
		body[i] = CloneStmt(s)
	}
	params := make([]string, len(fn.Params))
	copy(params, fn.Params)
	return &Func{Name: fn.Name, Params: params, Body: body}
}

// CloneStmt returns a deep copy of a statement.
func CloneStmt(s Stmt) Stmt {
	switch s := s.(type) {
	case *Assign:
		return &Assign{Name: s.Name, Value: CloneExpr(s.Value), At: s.At}
	case *Return:
		return &Return{Value: CloneExpr(s.Value), At: s.At}
	default:
		return s
	}
}

// CloneExpr returns a deep copy of an expression.
func CloneExpr(e Expr) Expr {
	switch e := e.(type) {
	case *Lit:
		return &Lit{Value: e.Value, At: e.At}
	case *Var:
		return &Var{Name: e.Name, At: e.At}
	case *Binary:
		return &Binary{Op: e.Op, Left: CloneExpr(e.Left), Right: CloneExpr(e.Right), At: e.At}
	case *Call:
		args := make([]Expr, len(e.Args))
		for i, a := range e.Args {
			args[i] = CloneExpr(a)
		}
		return &Call{Name: e.Name, Args: args, At: e.At}
	default:
		return e
	}
}

// EqualExpr reports structural equality of two expressions. Used by
// the redundant-expression mutation to find reusable subtrees.
func EqualExpr(a, b Expr) bool {
	switch a := a.(type) {
	case *Lit:
		b, ok := b.(*Lit)
		return ok && a.Value == b.Value
	case *Var:
		b, ok := b.(*Var)
		return ok && a.Name == b.Name
	case *Binary:
		b, ok := b.(*Binary)
		return ok && a.Op == b.Op && EqualExpr(a.Left, b.Left) && EqualExpr(a.Right, b.Right)
	case *Call:
		b, ok := b.(*Call)
		if !ok || a.Name != b.Name || len(a.Args) != len(b.Args) {
			return false
		}
		for i := range a.Args {
			if !EqualExpr(a.Args[i], b.Args[i]) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// VarsRead collects the variable names read by an expression into set.
func VarsRead(e Expr, set map[string]bool) {
	switch e := e.(type) {
	case *Var:
		set[e.Name] = true
	case *Binary:
		VarsRead(e.Left, set)
		VarsRead(e.Right, set)
	case *Call:
		for _, a := range e.Args {
			VarsRead(a, set)
		}
	}
}
