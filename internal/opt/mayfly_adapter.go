package opt

import (
	"math/rand"

	"github.com/cwbudde/mayfly"
)

// MayflyAdapter wraps the external mayfly swarm optimizer behind the
// Optimizer interface.
type MayflyAdapter struct {
	maxIters int
	popSize  int
	seed     int64
}

// NewMayfly creates a mayfly optimizer adapter. The library requires
// a population of at least 20.
func NewMayfly(maxIters, popSize int, seed int64) Optimizer {
	return &MayflyAdapter{
		maxIters: maxIters,
		popSize:  popSize,
		seed:     seed,
	}
}

// Run executes the mayfly optimization.
//
// The library only supports scalar bounds shared by every dimension,
// so callers whose dimensions differ should search a normalized box
// (e.g. [0,1]^dim) and rescale inside eval; lower[0]/upper[0] are
// used as the shared bounds.
func (m *MayflyAdapter) Run(eval func([]float64) float64, lower, upper []float64, dim int) ([]float64, float64) {
	config := mayfly.NewDefaultConfig()

	config.ObjectiveFunc = eval
	config.ProblemSize = dim
	config.MaxIterations = m.maxIters
	config.NPop = m.popSize
	config.LowerBound = lower[0]
	config.UpperBound = upper[0]

	// Seeded RNG keeps tuning runs reproducible.
	config.Rand = rand.New(rand.NewSource(m.seed))

	result, err := mayfly.Optimize(config)
	if err != nil {
		// Degenerate fallback: report the box origin.
		origin := make([]float64, dim)
		for i := range origin {
			origin[i] = lower[0]
		}
		return origin, eval(origin)
	}

	return result.GlobalBest.Position, result.GlobalBest.Cost
}
