package evolve

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/chenura999/nanoforge/internal/script"
)

// A mutation rewrites the entry function in place and reports whether
// it found an applicable site. Every operator preserves the program's
// observable behavior on finite values; verification against the
// baseline backstops the ones that can still go wrong after crossover.
type mutation struct {
	name  string
	apply func(fn *script.Func, rng *rand.Rand) bool
}

var mutations = []mutation{
	{"const-fold", foldConstant},
	{"commute", swapCommutative},
	{"strength-reduce", reduceStrength},
	{"dead-assign", dropDeadAssign},
	{"reuse-expr", reuseComputedExpr},
	{"hoist-literal", hoistLiteral},
}

// mutateProgram returns a fresh program whose entry function differs
// from prog's by one applied operator, plus the operator name. When no
// operator finds a site the clone is returned unchanged with an empty
// name.
func mutateProgram(prog *script.Program, rng *rand.Rand) (*script.Program, string) {
	fn := script.CloneFunc(prog.EntryFunc())
	order := rng.Perm(len(mutations))
	for _, i := range order {
		if mutations[i].apply(fn, rng) {
			return prog.WithEntryFunc(fn), mutations[i].name
		}
	}
	return prog.WithEntryFunc(fn), ""
}

// crossover builds a child from a statement prefix of one parent's
// entry body and the remaining suffix of the other's. The suffix always
// keeps the donor's trailing return, so the child stays well-formed
// even when the spliced halves disagree about variables.
func crossover(a, b *script.Program, rng *rand.Rand) *script.Program {
	fa, fb := a.EntryFunc(), b.EntryFunc()
	cutA := rng.Intn(len(fa.Body))
	cutB := rng.Intn(len(fb.Body))

	body := make([]script.Stmt, 0, cutA+len(fb.Body)-cutB)
	for _, s := range fa.Body[:cutA] {
		body = append(body, script.CloneStmt(s))
	}
	for _, s := range fb.Body[cutB:] {
		body = append(body, script.CloneStmt(s))
	}

	params := make([]string, len(fa.Params))
	copy(params, fa.Params)
	return a.WithEntryFunc(&script.Func{Name: fa.Name, Params: params, Body: body})
}

// slot is an addressable expression position inside a function body.
// Writing through ptr replaces the node; top marks the direct value of
// an assignment or return statement.
type slot struct {
	ptr *script.Expr
	top bool
}

func exprSlots(fn *script.Func) []slot {
	var slots []slot
	var walk func(ptr *script.Expr, top bool)
	walk = func(ptr *script.Expr, top bool) {
		slots = append(slots, slot{ptr: ptr, top: top})
		switch e := (*ptr).(type) {
		case *script.Binary:
			walk(&e.Left, false)
			walk(&e.Right, false)
		case *script.Call:
			for i := range e.Args {
				walk(&e.Args[i], false)
			}
		}
	}
	for _, s := range fn.Body {
		switch st := s.(type) {
		case *script.Assign:
			walk(&st.Value, true)
		case *script.Return:
			walk(&st.Value, true)
		}
	}
	return slots
}

func pickSlot(slots []slot, rng *rand.Rand, ok func(slot) bool) (slot, bool) {
	var candidates []slot
	for _, s := range slots {
		if ok(s) {
			candidates = append(candidates, s)
		}
	}
	if len(candidates) == 0 {
		return slot{}, false
	}
	return candidates[rng.Intn(len(candidates))], true
}

// foldConstant replaces a binary node over two literals with the
// computed literal. Folds that would divide by zero or produce a
// non-finite value are left alone so the mutant keeps the original's
// error behavior.
func foldConstant(fn *script.Func, rng *rand.Rand) bool {
	s, ok := pickSlot(exprSlots(fn), rng, func(s slot) bool {
		b, ok := (*s.ptr).(*script.Binary)
		if !ok {
			return false
		}
		l, lok := b.Left.(*script.Lit)
		r, rok := b.Right.(*script.Lit)
		if !lok || !rok {
			return false
		}
		if b.Op == script.OpDiv && r.Value == 0 {
			return false
		}
		return isFinite(foldValue(b.Op, l.Value, r.Value))
	})
	if !ok {
		return false
	}
	b := (*s.ptr).(*script.Binary)
	v := foldValue(b.Op, b.Left.(*script.Lit).Value, b.Right.(*script.Lit).Value)
	*s.ptr = &script.Lit{Value: v, At: b.At}
	return true
}

func foldValue(op script.BinOp, l, r float64) float64 {
	switch op {
	case script.OpAdd:
		return l + r
	case script.OpSub:
		return l - r
	case script.OpMul:
		return l * r
	case script.OpDiv:
		return l / r
	}
	panic(fmt.Sprintf("unknown binary operator %d", op))
}

func isFinite(v float64) bool {
	return !math.IsInf(v, 0) && !math.IsNaN(v)
}

// swapCommutative flips the operands of a commutative node.
func swapCommutative(fn *script.Func, rng *rand.Rand) bool {
	s, ok := pickSlot(exprSlots(fn), rng, func(s slot) bool {
		b, ok := (*s.ptr).(*script.Binary)
		return ok && b.Op.Commutative() && !script.EqualExpr(b.Left, b.Right)
	})
	if !ok {
		return false
	}
	b := (*s.ptr).(*script.Binary)
	b.Left, b.Right = b.Right, b.Left
	return true
}

// reduceStrength rewrites a node to a cheaper equivalent: x*2 becomes
// x+x, and multiplying, dividing, adding or subtracting by the
// identity element drops the operation.
func reduceStrength(fn *script.Func, rng *rand.Rand) bool {
	s, ok := pickSlot(exprSlots(fn), rng, func(s slot) bool {
		b, ok := (*s.ptr).(*script.Binary)
		return ok && reducedForm(b) != nil
	})
	if !ok {
		return false
	}
	*s.ptr = reducedForm((*s.ptr).(*script.Binary))
	return true
}

func reducedForm(b *script.Binary) script.Expr {
	litValue := func(e script.Expr) (float64, bool) {
		l, ok := e.(*script.Lit)
		if !ok {
			return 0, false
		}
		return l.Value, true
	}
	switch b.Op {
	case script.OpMul:
		if v, ok := litValue(b.Right); ok {
			switch v {
			case 2:
				return &script.Binary{Op: script.OpAdd, Left: b.Left, Right: script.CloneExpr(b.Left), At: b.At}
			case 1:
				return b.Left
			}
		}
		if v, ok := litValue(b.Left); ok {
			switch v {
			case 2:
				return &script.Binary{Op: script.OpAdd, Left: b.Right, Right: script.CloneExpr(b.Right), At: b.At}
			case 1:
				return b.Right
			}
		}
	case script.OpDiv:
		if v, ok := litValue(b.Right); ok && v == 1 {
			return b.Left
		}
	case script.OpAdd:
		if v, ok := litValue(b.Right); ok && v == 0 {
			return b.Left
		}
		if v, ok := litValue(b.Left); ok && v == 0 {
			return b.Right
		}
	case script.OpSub:
		if v, ok := litValue(b.Right); ok && v == 0 {
			return b.Left
		}
	}
	return nil
}

// dropDeadAssign removes an assignment whose variable is never read
// before being overwritten or the function returning.
func dropDeadAssign(fn *script.Func, rng *rand.Rand) bool {
	var dead []int
	for i := range fn.Body {
		if _, ok := fn.Body[i].(*script.Assign); ok && assignIsDead(fn.Body, i) {
			dead = append(dead, i)
		}
	}
	if len(dead) == 0 {
		return false
	}
	i := dead[rng.Intn(len(dead))]
	fn.Body = append(fn.Body[:i], fn.Body[i+1:]...)
	return true
}

func assignIsDead(body []script.Stmt, i int) bool {
	name := body[i].(*script.Assign).Name
	for _, s := range body[i+1:] {
		reads := map[string]bool{}
		switch st := s.(type) {
		case *script.Assign:
			script.VarsRead(st.Value, reads)
			if reads[name] {
				return false
			}
			if st.Name == name {
				return true
			}
		case *script.Return:
			script.VarsRead(st.Value, reads)
			return !reads[name]
		}
	}
	return true
}

// reuseComputedExpr replaces a recomputed assignment value with a read
// of the earlier variable holding the same expression, provided no
// intervening assignment clobbered the earlier variable or anything
// the expression reads.
func reuseComputedExpr(fn *script.Func, rng *rand.Rand) bool {
	type site struct {
		j    int
		name string
	}
	var candidates []site
	for i := 0; i < len(fn.Body); i++ {
		ai, ok := fn.Body[i].(*script.Assign)
		if !ok {
			continue
		}
		reads := map[string]bool{}
		script.VarsRead(ai.Value, reads)
		for j := i + 1; j < len(fn.Body); j++ {
			aj, ok := fn.Body[j].(*script.Assign)
			if !ok {
				continue
			}
			if _, isVar := aj.Value.(*script.Var); isVar {
				continue
			}
			if !script.EqualExpr(ai.Value, aj.Value) {
				continue
			}
			if clobberedBetween(fn.Body, i, j, ai.Name, reads) {
				continue
			}
			candidates = append(candidates, site{j: j, name: ai.Name})
		}
	}
	if len(candidates) == 0 {
		return false
	}
	c := candidates[rng.Intn(len(candidates))]
	target := fn.Body[c.j].(*script.Assign)
	target.Value = &script.Var{Name: c.name, At: target.Value.Pos()}
	return true
}

func clobberedBetween(body []script.Stmt, i, j int, name string, reads map[string]bool) bool {
	for k := i + 1; k < j; k++ {
		if ak, ok := body[k].(*script.Assign); ok {
			if ak.Name == name || reads[ak.Name] {
				return true
			}
		}
	}
	return false
}

// hoistLiteral lifts a literal buried inside an expression into a
// fresh variable assigned at the top of the body. Behaviorally neutral
// on its own, it creates reuse sites for later mutations.
func hoistLiteral(fn *script.Func, rng *rand.Rand) bool {
	s, ok := pickSlot(exprSlots(fn), rng, func(s slot) bool {
		_, isLit := (*s.ptr).(*script.Lit)
		return isLit && !s.top
	})
	if !ok {
		return false
	}
	lit := (*s.ptr).(*script.Lit)
	name := freshName(fn)
	*s.ptr = &script.Var{Name: name, At: lit.At}
	fn.Body = append([]script.Stmt{&script.Assign{Name: name, Value: lit}}, fn.Body...)
	return true
}

func freshName(fn *script.Func) string {
	used := map[string]bool{}
	for _, p := range fn.Params {
		used[p] = true
	}
	for _, s := range fn.Body {
		if a, ok := s.(*script.Assign); ok {
			used[a.Name] = true
		}
	}
	for i := 0; ; i++ {
		name := fmt.Sprintf("h%d", i)
		if !used[name] {
			return name
		}
	}
}
