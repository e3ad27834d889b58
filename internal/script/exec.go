package script

import (
	"math"
)

// Limits bounds a single execution. The step counter covers every
// node evaluation including inside calls, so a pathological candidate
// program cannot stall the timing harness.
type Limits struct {
	MaxSteps int
	MaxDepth int
}

// DefaultLimits are generous for hand-written scripts while still
// cutting off runaway synthesized programs quickly.
var DefaultLimits = Limits{
	MaxSteps: 100_000,
	MaxDepth: 64,
}

// Run evaluates the program's entry function with input bound to its
// first parameter, under DefaultLimits. Extra parameters default to
// zero. Execution is purely a function of (program, input); no state
// survives between calls.
func Run(prog *Program, input float64) (float64, error) {
	return RunWithLimits(prog, input, DefaultLimits)
}

// RunWithLimits is Run with explicit execution bounds.
func RunWithLimits(prog *Program, input float64, limits Limits) (float64, error) {
	entry := prog.EntryFunc()
	if entry == nil {
		return 0, runtimeErrorf(ErrUnknownFunction, "entry function %q not defined", prog.Entry)
	}

	args := make([]float64, len(entry.Params))
	if len(args) > 0 {
		args[0] = input
	}

	vm := &machine{prog: prog, stepsLeft: limits.MaxSteps, depthLeft: limits.MaxDepth}
	return vm.call(entry, args)
}

type machine struct {
	prog      *Program
	stepsLeft int
	depthLeft int
}

func (m *machine) step() error {
	m.stepsLeft--
	if m.stepsLeft < 0 {
		return runtimeErrorf(ErrStepBudget, "execution exceeded step budget")
	}
	return nil
}

func (m *machine) call(fn *Func, args []float64) (float64, error) {
	m.depthLeft--
	if m.depthLeft < 0 {
		return 0, runtimeErrorf(ErrCallDepth, "call depth limit reached in %q", fn.Name)
	}
	defer func() { m.depthLeft++ }()

	// Fresh variable environment per call frame.
	env := make(map[string]float64, len(fn.Params)+len(fn.Body))
	for i, p := range fn.Params {
		if i < len(args) {
			env[p] = args[i]
		} else {
			env[p] = 0
		}
	}

	for _, stmt := range fn.Body {
		if err := m.step(); err != nil {
			return 0, err
		}
		switch s := stmt.(type) {
		case *Assign:
			v, err := m.eval(s.Value, env)
			if err != nil {
				return 0, err
			}
			env[s.Name] = v
		case *Return:
			return m.eval(s.Value, env)
		}
	}
	return 0, runtimeErrorf(ErrNoReturn, "function %q finished without returning", fn.Name)
}

func (m *machine) eval(e Expr, env map[string]float64) (float64, error) {
	if err := m.step(); err != nil {
		return 0, err
	}

	switch e := e.(type) {
	case *Lit:
		return e.Value, nil
	case *Var:
		v, ok := env[e.Name]
		if !ok {
			return 0, runtimeErrorf(ErrUnassignedVar, "variable %q referenced before assignment", e.Name)
		}
		return v, nil
	case *Binary:
		left, err := m.eval(e.Left, env)
		if err != nil {
			return 0, err
		}
		right, err := m.eval(e.Right, env)
		if err != nil {
			return 0, err
		}
		return m.apply(e.Op, left, right)
	case *Call:
		callee := m.prog.Lookup(e.Name)
		if callee == nil {
			return 0, runtimeErrorf(ErrUnknownFunction, "call to undefined function %q", e.Name)
		}
		args := make([]float64, len(e.Args))
		for i, a := range e.Args {
			v, err := m.eval(a, env)
			if err != nil {
				return 0, err
			}
			args[i] = v
		}
		return m.call(callee, args)
	default:
		return 0, runtimeErrorf(ErrUnknownFunction, "unsupported expression node")
	}
}

func (m *machine) apply(op BinOp, left, right float64) (float64, error) {
	var result float64
	switch op {
	case OpAdd:
		result = left + right
	case OpSub:
		result = left - right
	case OpMul:
		result = left * right
	case OpDiv:
		if right == 0 {
			return 0, runtimeErrorf(ErrDivisionByZero, "division by zero")
		}
		result = left / right
	}
	// Overflow is reported, never wrapped or propagated as ±Inf.
	if math.IsInf(result, 0) || math.IsNaN(result) {
		return 0, runtimeErrorf(ErrOverflow, "result of %s is not finite", op)
	}
	return result, nil
}
