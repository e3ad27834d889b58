package optimizer

import (
	"fmt"
	"math"

	"github.com/chenura999/nanoforge/internal/opt"
)

// TuneOptions configures a boundary tuning run.
type TuneOptions struct {
	// BucketCount is the number of size classes in the suggested
	// ladder. Defaults to the current bucket count when zero.
	BucketCount int
	// MinObservations below which tuning refuses to run; a handful of
	// samples would just overfit noise.
	MinObservations int
}

// DefaultTuneOptions match the default five-bucket ladder.
var DefaultTuneOptions = TuneOptions{
	BucketCount:     5,
	MinObservations: 50,
}

// TuneBoundaries searches for a geometric bucket ladder that best
// separates the recorded observations into classes with distinct
// cheap variants. The search runs over (first boundary, growth
// ratio) in log2 space using the supplied numeric optimizer.
//
// The result is only a suggestion: adopting it means building a new
// Bucketer and a fresh Optimizer (or calling Reset), because
// statistics accumulated under the old boundaries do not transfer.
func TuneBoundaries(observations []Observation, numVariants int, optim opt.Optimizer, opts TuneOptions) ([]Bucket, error) {
	if opts.BucketCount == 0 {
		opts.BucketCount = DefaultTuneOptions.BucketCount
	}
	if opts.BucketCount < 2 {
		return nil, fmt.Errorf("bucket count must be at least 2, got %d", opts.BucketCount)
	}
	if numVariants < 1 {
		return nil, fmt.Errorf("at least one variant is required")
	}
	if len(observations) < opts.MinObservations {
		return nil, fmt.Errorf("need at least %d observations to tune, have %d",
			opts.MinObservations, len(observations))
	}

	// Search space, normalized to [0,1]^2 because the adapter only
	// supports shared scalar bounds:
	//   x[0] -> log2(first boundary)  in [1, 16]   (2 .. 65536)
	//   x[1] -> log2(growth ratio)    in [0.5, 4]  (sqrt(2) .. 16)
	const (
		loFirst, hiFirst = 1.0, 16.0
		loRatio, hiRatio = 0.5, 4.0
	)

	eval := func(x []float64) float64 {
		first := uint64(math.Round(math.Exp2(loFirst + clamp01(x[0])*(hiFirst-loFirst))))
		ratio := math.Exp2(loRatio + clamp01(x[1])*(hiRatio-loRatio))
		buckets, err := GeometricBuckets(first, ratio, opts.BucketCount)
		if err != nil {
			return math.MaxFloat64
		}
		return ladderCost(observations, buckets, numVariants)
	}

	lower := []float64{0, 0}
	upper := []float64{1, 1}
	best, _ := optim.Run(eval, lower, upper, 2)

	first := uint64(math.Round(math.Exp2(loFirst + clamp01(best[0])*(hiFirst-loFirst))))
	ratio := math.Exp2(loRatio + clamp01(best[1])*(hiRatio-loRatio))
	return GeometricBuckets(first, ratio, opts.BucketCount)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// ladderCost scores a candidate bucket ladder against observations:
// the sample-weighted sum of each bucket's best per-variant mean
// cost. A ladder that groups sizes sharing a cheap variant scores
// low; empty buckets are penalized so the search does not park
// boundaries where no data lives.
func ladderCost(observations []Observation, buckets []Bucket, numVariants int) float64 {
	bucketer, err := NewBucketer(buckets)
	if err != nil {
		return math.MaxFloat64
	}

	type cell struct {
		count uint64
		mean  float64
	}
	grid := make([][]cell, len(buckets))
	for i := range grid {
		grid[i] = make([]cell, numVariants)
	}

	var worst float64
	for _, obs := range observations {
		if obs.Variant < 0 || obs.Variant >= numVariants {
			continue
		}
		c := &grid[bucketer.BucketOf(obs.Size)][obs.Variant]
		c.count++
		c.mean += (obs.Primary - c.mean) / float64(c.count)
		if obs.Primary > worst {
			worst = obs.Primary
		}
	}

	var total float64
	for _, row := range grid {
		var samples uint64
		best := -1.0
		for _, c := range row {
			samples += c.count
			if c.count > 0 && (best < 0 || c.mean < best) {
				best = c.mean
			}
		}
		if samples == 0 {
			// Empty bucket: charge the worst observed cost once.
			total += worst
			continue
		}
		total += best * float64(samples)
	}
	return total
}
