// Package bench is the single cost-measurement convention shared by
// the kernel benchmark loop and the evolution engine: warmup runs
// followed by repeated timed runs, reporting the median nanoseconds
// per operation. Using one convention on both sides keeps optimizer
// updates and evolution fitness comparable.
package bench

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"time"
)

// Options controls a measurement.
type Options struct {
	// Warmup runs executed before timing starts.
	Warmup int
	// Runs is the number of timed runs; the median is reported.
	Runs int
	// InnerIters is how many times fn executes inside one timed run,
	// amortizing timer resolution over fast operations.
	InnerIters int
}

// DefaultOptions suit sub-microsecond kernels and script executions.
var DefaultOptions = Options{
	Warmup:     3,
	Runs:       7,
	InnerIters: 16,
}

func (o Options) normalized() Options {
	if o.Warmup < 0 {
		o.Warmup = 0
	}
	if o.Runs < 1 {
		o.Runs = 1
	}
	if o.InnerIters < 1 {
		o.InnerIters = 1
	}
	return o
}

// Measure times fn and returns the median nanoseconds per operation.
// An error from fn aborts the measurement immediately.
func Measure(fn func() error, o Options) (float64, error) {
	return MeasureCtx(context.Background(), fn, o)
}

// MeasureCtx is Measure with cancellation between runs; a cancelled
// context aborts with ctx.Err().
func MeasureCtx(ctx context.Context, fn func() error, o Options) (float64, error) {
	o = o.normalized()

	for i := 0; i < o.Warmup; i++ {
		if err := fn(); err != nil {
			return 0, fmt.Errorf("warmup run failed: %w", err)
		}
	}

	samples := make([]float64, 0, o.Runs)
	for r := 0; r < o.Runs; r++ {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		start := time.Now()
		for i := 0; i < o.InnerIters; i++ {
			if err := fn(); err != nil {
				return 0, fmt.Errorf("timed run failed: %w", err)
			}
		}
		elapsed := time.Since(start)
		samples = append(samples, float64(elapsed.Nanoseconds())/float64(o.InnerIters))
	}

	return median(samples), nil
}

// MeasureAlloc is Measure plus the mean heap bytes allocated per
// operation, for use as the optimizer's secondary cost metric.
func MeasureAlloc(fn func() error, o Options) (nsPerOp, bytesPerOp float64, err error) {
	o = o.normalized()

	var before, after runtime.MemStats
	runtime.ReadMemStats(&before)

	nsPerOp, err = Measure(fn, o)
	if err != nil {
		return 0, 0, err
	}

	runtime.ReadMemStats(&after)
	totalOps := float64(o.Warmup + o.Runs*o.InnerIters)
	allocated := float64(after.TotalAlloc - before.TotalAlloc)
	return nsPerOp, allocated / totalOps, nil
}

func median(samples []float64) float64 {
	sorted := append([]float64(nil), samples...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}
