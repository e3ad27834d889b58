package evolve

import (
	"math/rand"
	"testing"

	"github.com/chenura999/nanoforge/internal/script"
)

func mustCompile(t *testing.T, source string) *script.Program {
	t.Helper()
	prog, err := script.Compile(source)
	if err != nil {
		t.Fatalf("Compile(%q): %v", source, err)
	}
	return prog
}

func sameOutputs(t *testing.T, a, b *script.Program, inputs []float64) {
	t.Helper()
	for _, in := range inputs {
		wantV, wantErr := script.Run(a, in)
		gotV, gotErr := script.Run(b, in)
		if (wantErr == nil) != (gotErr == nil) {
			t.Fatalf("input %g: baseline err %v, mutant err %v", in, wantErr, gotErr)
		}
		if wantErr == nil && gotV != wantV {
			t.Fatalf("input %g: baseline %g, mutant %g", in, wantV, gotV)
		}
	}
}

func TestFoldConstant(t *testing.T) {
	prog := mustCompile(t, "x = 2 + 3\nreturn x * n")
	fn := script.CloneFunc(prog.EntryFunc())
	if !foldConstant(fn, rand.New(rand.NewSource(1))) {
		t.Fatal("expected a foldable site")
	}
	lit, ok := fn.Body[0].(*script.Assign).Value.(*script.Lit)
	if !ok || lit.Value != 5 {
		t.Fatalf("expected x = 5 after folding, got %#v", fn.Body[0])
	}
	sameOutputs(t, prog, prog.WithEntryFunc(fn), []float64{0, 1, 7})
}

func TestFoldConstantSkipsDivisionByZero(t *testing.T) {
	prog := mustCompile(t, "return n + 3 / 0")
	fn := script.CloneFunc(prog.EntryFunc())
	if foldConstant(fn, rand.New(rand.NewSource(1))) {
		t.Fatal("division by zero must not fold")
	}
}

func TestSwapCommutative(t *testing.T) {
	prog := mustCompile(t, "return n + 1")
	fn := script.CloneFunc(prog.EntryFunc())
	if !swapCommutative(fn, rand.New(rand.NewSource(1))) {
		t.Fatal("expected a commutative site")
	}
	b := fn.Body[0].(*script.Return).Value.(*script.Binary)
	if _, ok := b.Left.(*script.Lit); !ok {
		t.Fatalf("expected literal on the left after swap, got %#v", b.Left)
	}
	sameOutputs(t, prog, prog.WithEntryFunc(fn), []float64{0, 2, 9})
}

func TestSwapCommutativeIgnoresSubtraction(t *testing.T) {
	prog := mustCompile(t, "return n - 1")
	fn := script.CloneFunc(prog.EntryFunc())
	if swapCommutative(fn, rand.New(rand.NewSource(1))) {
		t.Fatal("subtraction is not commutative")
	}
}

func TestReduceStrength(t *testing.T) {
	cases := []struct {
		name   string
		source string
	}{
		{"mul by two", "return n * 2"},
		{"mul by one", "return n * 1"},
		{"div by one", "return n / 1"},
		{"add zero", "return n + 0"},
		{"sub zero", "return n - 0"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			prog := mustCompile(t, tc.source)
			fn := script.CloneFunc(prog.EntryFunc())
			if !reduceStrength(fn, rand.New(rand.NewSource(1))) {
				t.Fatal("expected a reducible site")
			}
			sameOutputs(t, prog, prog.WithEntryFunc(fn), []float64{0, 1, 3, 10})
		})
	}
}

func TestReduceStrengthMulByTwoBecomesAdd(t *testing.T) {
	prog := mustCompile(t, "return n * 2")
	fn := script.CloneFunc(prog.EntryFunc())
	reduceStrength(fn, rand.New(rand.NewSource(1)))
	b, ok := fn.Body[0].(*script.Return).Value.(*script.Binary)
	if !ok || b.Op != script.OpAdd {
		t.Fatalf("expected addition after reduction, got %#v", fn.Body[0].(*script.Return).Value)
	}
}

func TestDropDeadAssign(t *testing.T) {
	prog := mustCompile(t, "x = 1\ny = n + 2\nreturn y")
	fn := script.CloneFunc(prog.EntryFunc())
	if !dropDeadAssign(fn, rand.New(rand.NewSource(1))) {
		t.Fatal("expected a dead assignment")
	}
	if len(fn.Body) != 2 {
		t.Fatalf("expected 2 statements after elimination, got %d", len(fn.Body))
	}
	sameOutputs(t, prog, prog.WithEntryFunc(fn), []float64{0, 4})
}

func TestDropDeadAssignKeepsLiveVariables(t *testing.T) {
	prog := mustCompile(t, "x = n + 1\nreturn x")
	fn := script.CloneFunc(prog.EntryFunc())
	if dropDeadAssign(fn, rand.New(rand.NewSource(1))) {
		t.Fatal("live assignment must not be dropped")
	}
}

func TestReuseComputedExpr(t *testing.T) {
	prog := mustCompile(t, "a = n * 3\nb = n * 3\nreturn a + b")
	fn := script.CloneFunc(prog.EntryFunc())
	if !reuseComputedExpr(fn, rand.New(rand.NewSource(1))) {
		t.Fatal("expected a reusable expression")
	}
	v, ok := fn.Body[1].(*script.Assign).Value.(*script.Var)
	if !ok || v.Name != "a" {
		t.Fatalf("expected b = a, got %#v", fn.Body[1])
	}
	sameOutputs(t, prog, prog.WithEntryFunc(fn), []float64{0, 1, 6})
}

func TestReuseComputedExprRespectsClobbering(t *testing.T) {
	prog := mustCompile(t, "a = n * 3\nn = n + 1\nb = n * 3\nreturn a + b")
	fn := script.CloneFunc(prog.EntryFunc())
	if reuseComputedExpr(fn, rand.New(rand.NewSource(1))) {
		t.Fatal("reassigned operand must block reuse")
	}
}

func TestHoistLiteral(t *testing.T) {
	prog := mustCompile(t, "return n + 7")
	fn := script.CloneFunc(prog.EntryFunc())
	if !hoistLiteral(fn, rand.New(rand.NewSource(1))) {
		t.Fatal("expected a hoistable literal")
	}
	first, ok := fn.Body[0].(*script.Assign)
	if !ok {
		t.Fatalf("expected hoisted assignment first, got %#v", fn.Body[0])
	}
	if lit, ok := first.Value.(*script.Lit); !ok || lit.Value != 7 {
		t.Fatalf("expected hoisted literal 7, got %#v", first.Value)
	}
	sameOutputs(t, prog, prog.WithEntryFunc(fn), []float64{0, 2, 5})
}

func TestCrossoverOfIdenticalParents(t *testing.T) {
	prog := mustCompile(t, "x = n + 1\ny = x * 2\nreturn y")
	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 10; i++ {
		child := crossover(prog, prog, rng)
		fn := child.EntryFunc()
		if len(fn.Body) == 0 {
			t.Fatal("crossover produced empty body")
		}
		if _, ok := fn.Body[len(fn.Body)-1].(*script.Return); !ok {
			t.Fatal("crossover lost the trailing return")
		}
	}
}

func TestMutateProgramPreservesBehavior(t *testing.T) {
	prog := mustCompile(t, "a = n * 2\nb = a + 3\nc = a + 3\nwaste = 4 + 5\nreturn b + c")
	inputs := []float64{0, 1, 2, 5, 10}
	for seed := int64(1); seed <= 25; seed++ {
		mutant, op := mutateProgram(prog, rand.New(rand.NewSource(seed)))
		if op == "" {
			t.Fatalf("seed %d: no operator applied", seed)
		}
		sameOutputs(t, prog, mutant, inputs)
	}
}

func TestMutateProgramLeavesOriginalUntouched(t *testing.T) {
	prog := mustCompile(t, "x = 1 + 2\nreturn x * n")
	before := script.Render(prog)
	for seed := int64(1); seed <= 10; seed++ {
		mutateProgram(prog, rand.New(rand.NewSource(seed)))
	}
	if after := script.Render(prog); after != before {
		t.Fatalf("original mutated:\nbefore:\n%s\nafter:\n%s", before, after)
	}
}
