package evolve

import (
	"fmt"
	"runtime"

	"github.com/chenura999/nanoforge/internal/bench"
)

// Config controls an evolution run. Zero values are filled in from
// DefaultConfig by New.
type Config struct {
	// Generations is the maximum number of generations to run.
	Generations int `json:"generations"`
	// PopulationSize is the exact number of individuals per generation.
	PopulationSize int `json:"population_size"`
	// MutationRate is the per-child probability of applying a mutation.
	MutationRate float64 `json:"mutation_rate"`
	// CrossoverRate is the per-child probability of breeding from two
	// parents instead of copying one.
	CrossoverRate float64 `json:"crossover_rate"`
	// TournamentSize is how many individuals compete per parent pick.
	TournamentSize int `json:"tournament_size"`
	// EliteCount is how many best individuals survive unchanged.
	EliteCount int `json:"elite_count"`
	// StagnationLimit stops the run after this many generations without
	// improvement of the best cost. Zero disables the check.
	StagnationLimit int `json:"stagnation_limit"`
	// MinSpeedup is the threshold below which the original source is
	// returned instead of the best mutant.
	MinSpeedup float64 `json:"min_speedup"`
	// Seed makes the run reproducible.
	Seed int64 `json:"seed"`
	// Workers bounds the goroutines used for fitness evaluation.
	Workers int `json:"workers"`
	// Inputs are the verification probe values. Empty means derive them
	// from the baseline program's literals plus fixed probe points.
	Inputs []float64 `json:"inputs,omitempty"`
	// Bench configures the shared timing harness.
	Bench bench.Options `json:"bench"`
}

// DefaultConfig returns the settings used when a field is left zero.
func DefaultConfig() Config {
	return Config{
		Generations:     30,
		PopulationSize:  40,
		MutationRate:    0.8,
		CrossoverRate:   0.3,
		TournamentSize:  3,
		EliteCount:      2,
		StagnationLimit: 10,
		MinSpeedup:      1.0,
		Seed:            1,
		Workers:         runtime.NumCPU(),
		Bench:           bench.Options{Warmup: 1, Runs: 5, InnerIters: 8},
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Generations == 0 {
		c.Generations = d.Generations
	}
	if c.PopulationSize == 0 {
		c.PopulationSize = d.PopulationSize
	}
	if c.MutationRate == 0 {
		c.MutationRate = d.MutationRate
	}
	if c.CrossoverRate == 0 {
		c.CrossoverRate = d.CrossoverRate
	}
	if c.TournamentSize == 0 {
		c.TournamentSize = d.TournamentSize
		if c.TournamentSize > c.PopulationSize {
			c.TournamentSize = c.PopulationSize
		}
	}
	if c.EliteCount == 0 {
		c.EliteCount = d.EliteCount
		if c.EliteCount >= c.PopulationSize {
			c.EliteCount = c.PopulationSize - 1
		}
	}
	if c.MinSpeedup == 0 {
		c.MinSpeedup = d.MinSpeedup
	}
	if c.Workers == 0 {
		c.Workers = d.Workers
	}
	if c.Bench == (bench.Options{}) {
		c.Bench = d.Bench
	}
	return c
}

// Validate rejects configurations the engine cannot run with.
func (c Config) Validate() error {
	if c.Generations < 1 {
		return fmt.Errorf("generations must be at least 1, got %d", c.Generations)
	}
	if c.PopulationSize < 1 {
		return fmt.Errorf("population size must be at least 1, got %d", c.PopulationSize)
	}
	if c.MutationRate < 0 || c.MutationRate > 1 {
		return fmt.Errorf("mutation rate must be in [0, 1], got %g", c.MutationRate)
	}
	if c.CrossoverRate < 0 || c.CrossoverRate > 1 {
		return fmt.Errorf("crossover rate must be in [0, 1], got %g", c.CrossoverRate)
	}
	if c.TournamentSize < 1 || c.TournamentSize > c.PopulationSize {
		return fmt.Errorf("tournament size must be in [1, %d], got %d", c.PopulationSize, c.TournamentSize)
	}
	if c.EliteCount < 0 || c.EliteCount >= c.PopulationSize {
		return fmt.Errorf("elite count must be in [0, %d), got %d", c.PopulationSize, c.EliteCount)
	}
	if c.StagnationLimit < 0 {
		return fmt.Errorf("stagnation limit must not be negative, got %d", c.StagnationLimit)
	}
	if c.MinSpeedup < 1 {
		return fmt.Errorf("minimum speedup must be at least 1, got %g", c.MinSpeedup)
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	return nil
}
