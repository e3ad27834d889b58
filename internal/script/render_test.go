package script

import (
	"testing"
)

func TestRenderRoundTrip(t *testing.T) {
	sources := []string{
		"x = 42\ny = x + 10\nreturn y",
		"fn main(n) { result = n + 1\n return result }",
		"return 2 + 3 * 4",
		"return (2 + 3) * 4",
		"return n - (1 - 2)",
		"return n / (2 * 4)",
		"fn sq(x) { return x * x }\nfn main(n) { return sq(n) + sq(n + 1) }",
		"return 0.5 * n + 1.25",
		"x = 0.0000001\nreturn x + 1",
		"return n * 100000000000000000000",
	}

	inputs := []float64{0, 1, 3, 10, 97}

	for _, source := range sources {
		prog := mustCompile(t, source)
		rendered := Render(prog)
		reparsed, err := Compile(rendered)
		if err != nil {
			t.Fatalf("Rendered output failed to compile:\n%s\nerror: %v", rendered, err)
		}

		// Round-tripped programs must be behaviorally identical.
		for _, input := range inputs {
			want, wantErr := Run(prog, input)
			got, gotErr := Run(reparsed, input)
			if (wantErr == nil) != (gotErr == nil) {
				t.Fatalf("Round trip changed error behavior for %q input %v: %v vs %v", source, input, wantErr, gotErr)
			}
			if wantErr == nil && want != got {
				t.Errorf("Round trip changed result for %q input %v: %v vs %v", source, input, want, got)
			}
		}
	}
}

func TestRenderStable(t *testing.T) {
	prog := mustCompile(t, "x = 1\nreturn x + 2")

	first := Render(prog)
	reparsed, err := Compile(first)
	if err != nil {
		t.Fatalf("Rendered output failed to compile: %v", err)
	}
	second := Render(reparsed)
	if first != second {
		t.Errorf("Render is not a fixed point:\n%s\nvs\n%s", first, second)
	}
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		value float64
		want  string
	}{
		{42, "42"},
		{-3, "-3"},
		{0, "0"},
		{2.5, "2.5"},
		{0.125, "0.125"},
		{1e-7, "0.0000001"},
		{1e20, "100000000000000000000"},
	}
	for _, tt := range tests {
		if got := FormatValue(tt.value); got != tt.want {
			t.Errorf("FormatValue(%v) = %q, expected %q", tt.value, got, tt.want)
		}
	}
}

// Every formatted value must lex again: the tokenizer has no exponent
// syntax, so FormatValue may never fall back to it.
func TestFormatValueRecompiles(t *testing.T) {
	values := []float64{0, 1, -3, 2.5, 1e-7, -1e-7, 1e20, 1e-300, 123456789.123456789, 0.1 + 0.2}
	for _, v := range values {
		source := "return " + FormatValue(v)
		prog, err := Compile(source)
		if err != nil {
			t.Fatalf("FormatValue(%v) produced uncompilable source %q: %v", v, source, err)
		}
		got, err := Run(prog, 0)
		if err != nil {
			t.Fatalf("running %q: %v", source, err)
		}
		if got != v {
			t.Errorf("FormatValue(%v) round-tripped to %v", v, got)
		}
	}
}
