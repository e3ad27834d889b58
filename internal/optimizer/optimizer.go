package optimizer

import (
	"fmt"
	"log/slog"
	"math"
	"sync"
)

// maxObservations bounds the raw-sample ring kept for boundary
// tuning; oldest samples are evicted first.
const maxObservations = 4096

// Observation is one raw cost sample retained for the boundary tuner.
type Observation struct {
	Size    uint64  `json:"size"`
	Variant int     `json:"variant"`
	Primary float64 `json:"primary"`
}

// BoundaryRow is one line of the learned decision boundary: the best
// variant for a sampled bucket and how trustworthy that choice is.
type BoundaryRow struct {
	Bucket     string
	Variant    string
	Confidence float64
}

// Optimizer learns which kernel variant is empirically fastest per
// size class from costs reported by its caller. It owns the
// performance model exclusively; Select and Update are safe under
// concurrent use, and DecisionBoundary observes a consistent
// snapshot.
//
// All failures are returned errors; bad input never aborts the
// process and never leaves a partially updated model.
type Optimizer struct {
	mu       sync.RWMutex
	bucketer *Bucketer
	variants []string
	model    [][]VariantStat // [bucket][variant]

	obs     []Observation
	obsNext int
	obsFull bool
}

// New creates an empty optimizer over the given bucket configuration
// and the registry's ordered variant names.
func New(bucketer *Bucketer, variantNames []string) (*Optimizer, error) {
	if bucketer == nil {
		return nil, fmt.Errorf("bucketer cannot be nil")
	}
	if len(variantNames) == 0 {
		return nil, fmt.Errorf("at least one variant is required")
	}

	names := make([]string, len(variantNames))
	copy(names, variantNames)

	o := &Optimizer{
		bucketer: bucketer,
		variants: names,
	}
	o.model = newModel(bucketer.Len(), len(names))
	return o, nil
}

func newModel(buckets, variants int) [][]VariantStat {
	model := make([][]VariantStat, buckets)
	for i := range model {
		model[i] = make([]VariantStat, variants)
	}
	return model
}

// NumVariants returns the registry size this optimizer was built for.
func (o *Optimizer) NumVariants() int {
	return len(o.variants)
}

// VariantNames returns the ordered variant names.
func (o *Optimizer) VariantNames() []string {
	out := make([]string, len(o.variants))
	copy(out, o.variants)
	return out
}

// Bucketer returns the bucket configuration.
func (o *Optimizer) Bucketer() *Bucketer {
	return o.bucketer
}

// Select resolves the bucket for size and picks a variant index.
//
// Policy: any eligible variant with zero samples is preferred, in
// registry order, so every variant gets sampled before the model
// commits (cold-start exploration). With full data the variant with
// the lowest mean primary cost wins; ties go to the variant with
// fewer samples, then to the lower registry index.
//
// eligible masks variants the caller's hardware cannot run; nil means
// all variants are eligible. A mask excluding everything is an error.
func (o *Optimizer) Select(size uint64, eligible []bool) (int, error) {
	if eligible != nil && len(eligible) != len(o.variants) {
		return 0, fmt.Errorf("eligibility mask has %d entries, registry has %d", len(eligible), len(o.variants))
	}

	o.mu.RLock()
	defer o.mu.RUnlock()

	row := o.model[o.bucketer.BucketOf(size)]

	allowed := func(i int) bool {
		return eligible == nil || eligible[i]
	}

	// Cold start: first eligible unsampled variant, deterministic order.
	for i := range row {
		if allowed(i) && row[i].Samples == 0 {
			return i, nil
		}
	}

	best := -1
	for i := range row {
		if !allowed(i) {
			continue
		}
		if best < 0 {
			best = i
			continue
		}
		switch {
		case row[i].MeanPrimary < row[best].MeanPrimary:
			best = i
		case row[i].MeanPrimary == row[best].MeanPrimary && row[i].Samples < row[best].Samples:
			best = i
		}
	}
	if best < 0 {
		return 0, fmt.Errorf("no eligible variant for size %d", size)
	}
	return best, nil
}

// Update folds a measured cost pair into the model cell for (bucket
// of size, variant). Both costs must be finite and non-negative and
// the variant index must be in registry range; violations are reported
// before anything is mutated.
func (o *Optimizer) Update(size uint64, variant int, primary, secondary float64) error {
	if variant < 0 || variant >= len(o.variants) {
		return &VariantIndexError{Index: variant, Count: len(o.variants)}
	}
	if !validCost(primary) || !validCost(secondary) {
		return &InvalidCostError{Primary: primary, Secondary: secondary}
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	bucket := o.bucketer.BucketOf(size)
	row := o.model[bucket]
	row[variant].observe(primary, secondary)
	recomputeConfidence(row)

	o.recordObservation(Observation{Size: size, Variant: variant, Primary: primary})

	slog.Debug("Model updated",
		"bucket", o.bucketer.buckets[bucket].Label,
		"variant", o.variants[variant],
		"samples", row[variant].Samples,
		"mean_primary", row[variant].MeanPrimary)
	return nil
}

func validCost(v float64) bool {
	return v >= 0 && !math.IsInf(v, 1) && !math.IsNaN(v)
}

func (o *Optimizer) recordObservation(obs Observation) {
	if len(o.obs) < maxObservations {
		o.obs = append(o.obs, obs)
		return
	}
	o.obs[o.obsNext] = obs
	o.obsNext = (o.obsNext + 1) % maxObservations
	o.obsFull = true
}

// BucketLabel returns the human-readable size class for size. Pure
// lookup; never fails.
func (o *Optimizer) BucketLabel(size uint64) string {
	return o.bucketer.buckets[o.bucketer.BucketOf(size)].Label
}

// DecisionBoundary returns one row per bucket that has at least one
// sample, in bucket order: the bucket label, the variant with the
// lowest mean primary cost, and that variant's stored confidence.
func (o *Optimizer) DecisionBoundary() []BoundaryRow {
	o.mu.RLock()
	defer o.mu.RUnlock()

	var rows []BoundaryRow
	for b, row := range o.model {
		best := -1
		for i := range row {
			if row[i].Samples == 0 {
				continue
			}
			if best < 0 || row[i].MeanPrimary < row[best].MeanPrimary {
				best = i
			}
		}
		if best < 0 {
			continue
		}
		rows = append(rows, BoundaryRow{
			Bucket:     o.bucketer.buckets[b].Label,
			Variant:    o.variants[best],
			Confidence: row[best].Confidence,
		})
	}
	return rows
}

// Stats returns a copy of the model row for the bucket containing
// size, for introspection and tests.
func (o *Optimizer) Stats(size uint64) []VariantStat {
	o.mu.RLock()
	defer o.mu.RUnlock()

	row := o.model[o.bucketer.BucketOf(size)]
	out := make([]VariantStat, len(row))
	copy(out, row)
	return out
}

// Observations returns the retained raw samples, oldest first.
func (o *Optimizer) Observations() []Observation {
	o.mu.RLock()
	defer o.mu.RUnlock()

	if !o.obsFull {
		out := make([]Observation, len(o.obs))
		copy(out, o.obs)
		return out
	}
	out := make([]Observation, 0, len(o.obs))
	out = append(out, o.obs[o.obsNext:]...)
	out = append(out, o.obs[:o.obsNext]...)
	return out
}

// Reset drops every statistic and retained observation. Required
// before adopting a different bucket configuration: statistics tied
// to old boundaries are meaningless under new ones and are never
// carried over silently.
func (o *Optimizer) Reset() {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.model = newModel(o.bucketer.Len(), len(o.variants))
	o.obs = nil
	o.obsNext = 0
	o.obsFull = false
	slog.Debug("Model reset", "buckets", o.bucketer.Len(), "variants", len(o.variants))
}
