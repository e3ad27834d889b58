// Package evolve searches for faster renditions of a compiled script
// by mutating its entry function, verifying every candidate against
// the baseline's outputs and keeping only the ones that compute the
// same results in less time.
package evolve

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"sort"

	"github.com/sourcegraph/conc/pool"

	"github.com/chenura999/nanoforge/internal/bench"
	"github.com/chenura999/nanoforge/internal/script"
)

// ErrNoUsableInputs reports that every candidate verification input
// made the baseline program fail, leaving nothing to verify against.
var ErrNoUsableInputs = errors.New("baseline program fails on every verification input")

// fixed probe values always tried as verification inputs.
var probeInputs = []float64{0, 1, 2, 5, 10, 100}

const maxDerivedInputs = 16

// Individual is one candidate program in a population.
type Individual struct {
	Program *script.Program
	// CostNs is the median time to run the program over all
	// verification inputs; +Inf for disqualified individuals.
	CostNs float64
	// Valid reports that the program reproduced the baseline's output
	// on every verification input.
	Valid bool
}

// Fitness is baseline cost over candidate cost; zero when disqualified.
func (ind *Individual) Fitness(baselineNs float64) float64 {
	if !ind.Valid || ind.CostNs <= 0 || math.IsInf(ind.CostNs, 1) {
		return 0
	}
	return baselineNs / ind.CostNs
}

// Generation summarizes one completed generation.
type Generation struct {
	Index       int     `json:"index"`
	BestFitness float64 `json:"best_fitness"`
	AvgFitness  float64 `json:"avg_fitness"`
	ValidCount  int     `json:"valid_count"`
}

// Result is the outcome of an evolution run.
type Result struct {
	// OriginalSource is the canonical rendering of the input program.
	OriginalSource string `json:"original_source"`
	// BestSource is the winning program's source; equal to
	// OriginalSource when no mutant beat the speedup threshold.
	BestSource string `json:"best_source"`
	// Speedup is baseline time over best time, never below 1.
	Speedup float64 `json:"speedup"`
	// Generations is how many generations actually ran.
	Generations int `json:"generations"`
	// BaselineNs and BestNs are the measured costs behind Speedup.
	BaselineNs float64 `json:"baseline_ns"`
	BestNs     float64 `json:"best_ns"`
	// History holds one entry per completed generation.
	History []Generation `json:"history"`
}

// Engine runs evolutionary search over script programs.
type Engine struct {
	cfg Config
	rng *rand.Rand
	log *slog.Logger

	// OnGeneration, when set, is called after each generation with its
	// summary. Called from the Evolve goroutine, never concurrently.
	OnGeneration func(Generation)
}

// New builds an engine from cfg, filling zero fields with defaults.
func New(cfg Config) (*Engine, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid evolution config: %w", err)
	}
	return &Engine{
		cfg: cfg,
		rng: rand.New(rand.NewSource(cfg.Seed)),
		log: slog.Default().With("component", "evolve"),
	}, nil
}

// Evolve compiles source, evolves its entry function and returns the
// best verified program found. The baseline always survives as the
// fallback: a run that finds nothing faster reports the original
// source with a speedup of exactly 1.
func (e *Engine) Evolve(ctx context.Context, source string) (*Result, error) {
	baseline, err := script.Compile(source)
	if err != nil {
		return nil, fmt.Errorf("compiling baseline: %w", err)
	}

	inputs, want, err := e.verificationSet(baseline)
	if err != nil {
		return nil, err
	}

	baselineNs, err := e.timeProgram(ctx, baseline, inputs)
	if err != nil {
		return nil, fmt.Errorf("timing baseline: %w", err)
	}
	e.log.Debug("baseline measured",
		"cost_ns", baselineNs,
		"inputs", len(inputs),
		"population", e.cfg.PopulationSize)

	pop := e.seedPopulation(baseline)
	best := &Individual{Program: baseline, CostNs: baselineNs, Valid: true}
	result := &Result{
		OriginalSource: script.Render(baseline),
		BaselineNs:     baselineNs,
	}

	stale := 0
	for gen := 0; gen < e.cfg.Generations; gen++ {
		if err := ctx.Err(); err != nil {
			e.log.Debug("evolution cancelled", "generation", gen)
			break
		}

		e.evaluate(ctx, pop, inputs, want)
		sortByCost(pop)

		improved := false
		if pop[0].Valid && pop[0].CostNs < best.CostNs {
			best = pop[0]
			improved = true
		}

		summary := summarize(gen, pop, baselineNs)
		result.History = append(result.History, summary)
		result.Generations = gen + 1
		if e.OnGeneration != nil {
			e.OnGeneration(summary)
		}
		e.log.Debug("generation done",
			"generation", gen,
			"best_fitness", summary.BestFitness,
			"valid", summary.ValidCount)

		if improved {
			stale = 0
		} else {
			stale++
			if e.cfg.StagnationLimit > 0 && stale >= e.cfg.StagnationLimit {
				e.log.Debug("stagnation limit reached", "generation", gen)
				break
			}
		}

		if gen < e.cfg.Generations-1 {
			pop = e.breed(pop)
		}
	}

	// A re-timed copy of the baseline can beat the initial measurement
	// on noise alone; an unchanged program never reports a speedup.
	bestSource := script.Render(best.Program)
	speedup := baselineNs / best.CostNs
	if speedup < e.cfg.MinSpeedup || bestSource == result.OriginalSource {
		result.BestSource = result.OriginalSource
		result.Speedup = 1
		result.BestNs = baselineNs
	} else {
		result.BestSource = bestSource
		result.Speedup = speedup
		result.BestNs = best.CostNs
	}
	return result, nil
}

// verificationSet picks the probe inputs and records the baseline's
// output on each. Inputs the baseline itself fails on are dropped so
// candidates are only held to outcomes the baseline defines.
func (e *Engine) verificationSet(baseline *script.Program) (inputs, want []float64, err error) {
	candidates := e.cfg.Inputs
	if len(candidates) == 0 {
		candidates = deriveInputs(baseline)
	}
	for _, in := range candidates {
		out, err := script.Run(baseline, in)
		if err != nil {
			continue
		}
		inputs = append(inputs, in)
		want = append(want, out)
	}
	if len(inputs) == 0 {
		return nil, nil, ErrNoUsableInputs
	}
	return inputs, want, nil
}

// deriveInputs combines the fixed probes with the distinct literal
// values appearing in the program, in deterministic order.
func deriveInputs(prog *script.Program) []float64 {
	seen := make(map[float64]bool, maxDerivedInputs)
	out := make([]float64, 0, maxDerivedInputs)
	add := func(v float64) {
		if len(out) < maxDerivedInputs && isFinite(v) && !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	for _, v := range probeInputs {
		add(v)
	}
	for _, fn := range prog.Funcs {
		for _, s := range exprSlots(fn) {
			if lit, ok := (*s.ptr).(*script.Lit); ok {
				add(lit.Value)
			}
		}
	}
	return out
}

func (e *Engine) seedPopulation(baseline *script.Program) []*Individual {
	pop := make([]*Individual, e.cfg.PopulationSize)
	pop[0] = &Individual{Program: baseline}
	for i := 1; i < len(pop); i++ {
		mutant, _ := mutateProgram(baseline, e.rng)
		pop[i] = &Individual{Program: mutant}
	}
	return pop
}

// evaluate verifies and times every individual on a bounded worker
// pool. The pool wait is the generation barrier.
func (e *Engine) evaluate(ctx context.Context, pop []*Individual, inputs, want []float64) {
	p := pool.New().WithMaxGoroutines(e.cfg.Workers)
	for _, ind := range pop {
		p.Go(func() {
			e.evaluateOne(ctx, ind, inputs, want)
		})
	}
	p.Wait()
}

func (e *Engine) evaluateOne(ctx context.Context, ind *Individual, inputs, want []float64) {
	ind.Valid = false
	ind.CostNs = math.Inf(1)
	for i, in := range inputs {
		got, err := script.Run(ind.Program, in)
		if err != nil || got != want[i] {
			return
		}
	}
	cost, err := e.timeProgram(ctx, ind.Program, inputs)
	if err != nil {
		return
	}
	ind.Valid = true
	ind.CostNs = cost
}

func (e *Engine) timeProgram(ctx context.Context, prog *script.Program, inputs []float64) (float64, error) {
	return bench.MeasureCtx(ctx, func() error {
		for _, in := range inputs {
			if _, err := script.Run(prog, in); err != nil {
				return err
			}
		}
		return nil
	}, e.cfg.Bench)
}

// breed builds the next population: elites survive unchanged, the rest
// come from tournament-selected parents with crossover and mutation.
func (e *Engine) breed(pop []*Individual) []*Individual {
	next := make([]*Individual, 0, len(pop))
	for i := 0; i < e.cfg.EliteCount && i < len(pop); i++ {
		next = append(next, &Individual{Program: pop[i].Program})
	}
	for len(next) < len(pop) {
		parent := e.tournament(pop)
		child := parent.Program
		if e.rng.Float64() < e.cfg.CrossoverRate {
			child = crossover(child, e.tournament(pop).Program, e.rng)
		}
		if e.rng.Float64() < e.cfg.MutationRate {
			child, _ = mutateProgram(child, e.rng)
		}
		next = append(next, &Individual{Program: child})
	}
	return next
}

// tournament picks the lowest-cost of TournamentSize random entrants.
// Disqualified individuals carry infinite cost, so they only win a
// tournament when every entrant is disqualified.
func (e *Engine) tournament(pop []*Individual) *Individual {
	best := pop[e.rng.Intn(len(pop))]
	for i := 1; i < e.cfg.TournamentSize; i++ {
		other := pop[e.rng.Intn(len(pop))]
		if less(other, best) {
			best = other
		}
	}
	return best
}

func less(a, b *Individual) bool {
	if a.Valid != b.Valid {
		return a.Valid
	}
	return a.CostNs < b.CostNs
}

func sortByCost(pop []*Individual) {
	sort.SliceStable(pop, func(i, j int) bool {
		return less(pop[i], pop[j])
	})
}

func summarize(index int, pop []*Individual, baselineNs float64) Generation {
	g := Generation{Index: index}
	sum := 0.0
	for _, ind := range pop {
		f := ind.Fitness(baselineNs)
		sum += f
		if f > g.BestFitness {
			g.BestFitness = f
		}
		if ind.Valid {
			g.ValidCount++
		}
	}
	g.AvgFitness = sum / float64(len(pop))
	return g
}
