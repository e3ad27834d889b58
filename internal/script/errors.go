package script

import "fmt"

// Position identifies a location in source text (1-based).
type Position struct {
	Line int
	Col  int
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Col)
}

// CompileError reports a syntax or static-scope violation with its
// source position. Use errors.As to recover the position.
type CompileError struct {
	Pos     Position
	Message string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("compile error at %s: %s", e.Pos, e.Message)
}

func (e *CompileError) Is(target error) bool {
	_, ok := target.(*CompileError)
	return ok
}

func compileErrorf(pos Position, format string, args ...any) *CompileError {
	return &CompileError{Pos: pos, Message: fmt.Sprintf(format, args...)}
}

// RuntimeErrorKind classifies executor failures.
type RuntimeErrorKind int

const (
	// ErrUnassignedVar is a reference to a variable that has no value
	// in the current call frame.
	ErrUnassignedVar RuntimeErrorKind = iota
	// ErrDivisionByZero is raised before the division is performed.
	ErrDivisionByZero
	// ErrOverflow is raised when an arithmetic result is not finite.
	// Results never wrap silently.
	ErrOverflow
	// ErrStepBudget means the bounded step counter was exhausted.
	ErrStepBudget
	// ErrCallDepth means the call stack exceeded its limit.
	ErrCallDepth
	// ErrUnknownFunction is a call to a name with no definition that
	// slipped past static checks (e.g. a synthesized program).
	ErrUnknownFunction
	// ErrNoReturn means a function body finished without executing a
	// return statement.
	ErrNoReturn
)

func (k RuntimeErrorKind) String() string {
	switch k {
	case ErrUnassignedVar:
		return "unassigned variable"
	case ErrDivisionByZero:
		return "division by zero"
	case ErrOverflow:
		return "arithmetic overflow"
	case ErrStepBudget:
		return "step budget exceeded"
	case ErrCallDepth:
		return "call depth exceeded"
	case ErrUnknownFunction:
		return "unknown function"
	case ErrNoReturn:
		return "missing return"
	default:
		return "unknown"
	}
}

// RuntimeError is a typed execution failure. It never terminates the
// host process; the executor converts every failure mode into one.
type RuntimeError struct {
	Kind    RuntimeErrorKind
	Message string
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("runtime error (%s): %s", e.Kind, e.Message)
}

func (e *RuntimeError) Is(target error) bool {
	t, ok := target.(*RuntimeError)
	if !ok {
		return false
	}
	return t.Message == "" && t.Kind == e.Kind
}

func runtimeErrorf(kind RuntimeErrorKind, format string, args ...any) *RuntimeError {
	return &RuntimeError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}
