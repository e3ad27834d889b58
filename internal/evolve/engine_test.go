package evolve

import (
	"context"
	"errors"
	"testing"

	"github.com/chenura999/nanoforge/internal/bench"
	"github.com/chenura999/nanoforge/internal/script"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Generations = 3
	cfg.PopulationSize = 8
	cfg.EliteCount = 1
	cfg.Workers = 2
	cfg.Seed = 42
	cfg.Bench = bench.Options{Warmup: 0, Runs: 1, InnerIters: 1}
	return cfg
}

func TestNewRejectsBadConfig(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative population", func(c *Config) { c.PopulationSize = -1 }},
		{"negative mutation rate", func(c *Config) { c.MutationRate = -0.1 }},
		{"crossover above one", func(c *Config) { c.CrossoverRate = 1.5 }},
		{"tournament larger than population", func(c *Config) { c.TournamentSize = 99; c.PopulationSize = 4 }},
		{"elites fill population", func(c *Config) { c.EliteCount = 8; c.PopulationSize = 8 }},
		{"speedup below one", func(c *Config) { c.MinSpeedup = 0.5 }},
		{"negative workers", func(c *Config) { c.Workers = -1 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := testConfig()
			tc.mutate(&cfg)
			if _, err := New(cfg); err == nil {
				t.Fatal("expected config error")
			}
		})
	}
}

func TestNewFillsDefaults(t *testing.T) {
	e, err := New(Config{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	d := DefaultConfig()
	if e.cfg.PopulationSize != d.PopulationSize || e.cfg.Generations != d.Generations {
		t.Fatalf("defaults not applied: %+v", e.cfg)
	}
}

func TestEvolveRejectsBadSource(t *testing.T) {
	e, err := New(testConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	var cerr *script.CompileError
	if _, err := e.Evolve(context.Background(), "return +"); !errors.As(err, &cerr) {
		t.Fatalf("expected compile error, got %v", err)
	}
}

func TestEvolveNoUsableInputs(t *testing.T) {
	e, err := New(testConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, err = e.Evolve(context.Background(), "return 1 / (n - n)")
	if !errors.Is(err, ErrNoUsableInputs) {
		t.Fatalf("expected ErrNoUsableInputs, got %v", err)
	}
}

func TestEvolveProducesEquivalentProgram(t *testing.T) {
	source := "waste = n * 100\nx = n + 1\ny = n + 1\nreturn x + y"
	e, err := New(testConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	res, err := e.Evolve(context.Background(), source)
	if err != nil {
		t.Fatalf("Evolve: %v", err)
	}

	if res.Speedup < 1 {
		t.Fatalf("speedup below floor: %g", res.Speedup)
	}
	if res.Generations < 1 || res.Generations > 3 {
		t.Fatalf("unexpected generation count %d", res.Generations)
	}
	if len(res.History) != res.Generations {
		t.Fatalf("history length %d, generations %d", len(res.History), res.Generations)
	}
	for _, g := range res.History {
		if g.ValidCount < 1 {
			t.Fatalf("generation %d has no valid individuals", g.Index)
		}
	}

	baseline := mustCompile(t, source)
	best := mustCompile(t, res.BestSource)
	sameOutputs(t, baseline, best, []float64{0, 1, 2, 5, 10, 100})
}

func TestEvolveBestSourceRecompiles(t *testing.T) {
	// Tiny literals render in plain decimal, so whatever program wins,
	// the returned source must go back through Compile.
	source := "x = 0.0000001\nreturn x + 1"
	e, err := New(testConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	res, err := e.Evolve(context.Background(), source)
	if err != nil {
		t.Fatalf("Evolve: %v", err)
	}
	best, err := script.Compile(res.BestSource)
	if err != nil {
		t.Fatalf("best source failed to compile:\n%s\nerror: %v", res.BestSource, err)
	}
	sameOutputs(t, mustCompile(t, source), best, []float64{0, 1, 2, 5, 10, 100})
}

func TestEvolveCallsGenerationHook(t *testing.T) {
	e, err := New(testConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	var seen []int
	e.OnGeneration = func(g Generation) { seen = append(seen, g.Index) }

	res, err := e.Evolve(context.Background(), "return n + 1")
	if err != nil {
		t.Fatalf("Evolve: %v", err)
	}
	if len(seen) != res.Generations {
		t.Fatalf("hook called %d times for %d generations", len(seen), res.Generations)
	}
	for i, idx := range seen {
		if idx != i {
			t.Fatalf("hook indices out of order: %v", seen)
		}
	}
}

func TestEvolveCancelledContext(t *testing.T) {
	e, err := New(testConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := e.Evolve(ctx, "return n + 1"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestEvolveSpeedupFloor(t *testing.T) {
	// The identity program leaves nothing to optimize away: every
	// individual renders identically to the baseline, so timing noise
	// between its re-measurements must never surface as a speedup.
	cfg := testConfig()
	cfg.Generations = 2
	e, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	res, err := e.Evolve(context.Background(), "return n")
	if err != nil {
		t.Fatalf("Evolve: %v", err)
	}
	if res.Speedup != 1 {
		t.Fatalf("unchanged program reported speedup %g, want exactly 1", res.Speedup)
	}
	if res.BestSource != res.OriginalSource {
		t.Fatalf("unchanged program returned a different source:\n%s", res.BestSource)
	}
	if res.BestNs != res.BaselineNs {
		t.Fatalf("unchanged program reported BestNs %g, want BaselineNs %g", res.BestNs, res.BaselineNs)
	}
}

func TestEvolveSinglePopulation(t *testing.T) {
	cfg := testConfig()
	cfg.PopulationSize = 1
	cfg.EliteCount = 0
	cfg.TournamentSize = 1
	cfg.Generations = 2
	e, err := New(cfg)
	if err != nil {
		t.Fatalf("New with population of one: %v", err)
	}
	res, err := e.Evolve(context.Background(), "return n + 1")
	if err != nil {
		t.Fatalf("Evolve: %v", err)
	}
	if res.Speedup < 1 {
		t.Fatalf("speedup below floor: %g", res.Speedup)
	}
	baseline := mustCompile(t, res.OriginalSource)
	best := mustCompile(t, res.BestSource)
	sameOutputs(t, baseline, best, []float64{0, 2, 7})
}

func TestConfigDefaultsRespectSmallPopulations(t *testing.T) {
	cfg := Config{PopulationSize: 1}
	e, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if e.cfg.EliteCount != 0 {
		t.Errorf("EliteCount = %d, want 0 for a population of one", e.cfg.EliteCount)
	}
	if e.cfg.TournamentSize != 1 {
		t.Errorf("TournamentSize = %d, want 1 for a population of one", e.cfg.TournamentSize)
	}
}

func TestIndividualFitness(t *testing.T) {
	valid := &Individual{CostNs: 50, Valid: true}
	if got := valid.Fitness(100); got != 2 {
		t.Fatalf("fitness = %g, want 2", got)
	}
	invalid := &Individual{CostNs: 50, Valid: false}
	if got := invalid.Fitness(100); got != 0 {
		t.Fatalf("disqualified fitness = %g, want 0", got)
	}
}
