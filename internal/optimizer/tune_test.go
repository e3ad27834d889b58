package optimizer

import (
	"testing"
)

// gridSearch is a deterministic stand-in for the swarm optimizer so
// tuning tests do not depend on stochastic convergence.
type gridSearch struct {
	steps int
}

func (g *gridSearch) Run(eval func([]float64) float64, lower, upper []float64, dim int) ([]float64, float64) {
	if g.steps == 0 {
		g.steps = 16
	}
	best := make([]float64, dim)
	bestCost := eval(best)

	x := make([]float64, dim)
	var walk func(d int)
	walk = func(d int) {
		if d == dim {
			if cost := eval(x); cost < bestCost {
				bestCost = cost
				copy(best, x)
			}
			return
		}
		for i := 0; i <= g.steps; i++ {
			x[d] = lower[0] + (upper[0]-lower[0])*float64(i)/float64(g.steps)
			walk(d + 1)
		}
	}
	walk(0)
	return best, bestCost
}

// synthObservations builds samples where the cheap variant flips at a
// size threshold: variant 0 wins below pivot, variant 1 above.
func synthObservations(pivot uint64, n int) []Observation {
	obs := make([]Observation, 0, n*4)
	for i := 0; i < n; i++ {
		small := uint64(1 + i%int(pivot))
		large := pivot * uint64(2+i%16)
		obs = append(obs,
			Observation{Size: small, Variant: 0, Primary: 10},
			Observation{Size: small, Variant: 1, Primary: 40},
			Observation{Size: large, Variant: 0, Primary: 80},
			Observation{Size: large, Variant: 1, Primary: 20},
		)
	}
	return obs
}

func TestTuneBoundariesProducesValidPartition(t *testing.T) {
	obs := synthObservations(64, 100)

	buckets, err := TuneBoundaries(obs, 2, &gridSearch{}, TuneOptions{BucketCount: 4, MinObservations: 10})
	if err != nil {
		t.Fatalf("TuneBoundaries failed: %v", err)
	}
	if len(buckets) != 4 {
		t.Fatalf("Expected 4 buckets, got %d", len(buckets))
	}
	if _, err := NewBucketer(buckets); err != nil {
		t.Errorf("Tuned ladder is not a valid partition: %v", err)
	}
}

func TestTuneBoundariesRequiresEnoughData(t *testing.T) {
	obs := synthObservations(64, 3)
	_, err := TuneBoundaries(obs, 2, &gridSearch{}, TuneOptions{BucketCount: 4, MinObservations: 100})
	if err == nil {
		t.Error("Expected error with too few observations")
	}
}

func TestTuneBoundariesRejectsBadArguments(t *testing.T) {
	obs := synthObservations(64, 100)

	if _, err := TuneBoundaries(obs, 0, &gridSearch{}, TuneOptions{BucketCount: 4, MinObservations: 1}); err == nil {
		t.Error("Expected error for zero variants")
	}
	if _, err := TuneBoundaries(obs, 2, &gridSearch{}, TuneOptions{BucketCount: 1, MinObservations: 1}); err == nil {
		t.Error("Expected error for single-bucket ladder")
	}
}

func TestLadderCostPrefersSeparatingPivot(t *testing.T) {
	obs := synthObservations(64, 200)

	// A ladder with a boundary at the pivot separates cheap regimes;
	// one far away mixes them and must score no better.
	good, err := GeometricBuckets(64, 4, 4)
	if err != nil {
		t.Fatalf("GeometricBuckets failed: %v", err)
	}
	bad, err := GeometricBuckets(7, 1.3, 4)
	if err != nil {
		t.Fatalf("GeometricBuckets failed: %v", err)
	}

	if gc, bc := ladderCost(obs, good, 2), ladderCost(obs, bad, 2); gc > bc {
		t.Errorf("Separating ladder scored worse: %v > %v", gc, bc)
	}
}
