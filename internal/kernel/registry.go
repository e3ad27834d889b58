package kernel

import "fmt"

// Variant is one interchangeable implementation strategy for the
// vector kernels. Indices into a Registry are stable for the life of
// the registry, which is what lets the dispatch optimizer refer to
// variants by integer alone.
type Variant struct {
	Name string
	// Requires reports whether the variant can run on the probed
	// hardware. Nil means always usable.
	Requires func(Features) bool

	Add   AddFunc
	Sum   SumFunc
	Scale ScaleFunc
}

// AddFunc computes dst[i] = a[i] + b[i] over min(len(a), len(b),
// len(dst)) elements. dst may alias a or b.
type AddFunc func(dst, a, b []float64)

// SumFunc reduces a to a single total.
type SumFunc func(a []float64) float64

// ScaleFunc computes dst[i] = a[i] * s. dst may alias a.
type ScaleFunc func(dst, a []float64, s float64)

// Registry is an ordered, immutable table of kernel variants.
type Registry struct {
	variants []Variant
}

// NewRegistry builds a registry; variant names must be unique and
// non-empty since persisted models are keyed by them.
func NewRegistry(variants []Variant) (*Registry, error) {
	if len(variants) == 0 {
		return nil, fmt.Errorf("at least one variant is required")
	}
	seen := make(map[string]bool, len(variants))
	for i, v := range variants {
		if v.Name == "" {
			return nil, fmt.Errorf("variant %d has an empty name", i)
		}
		if seen[v.Name] {
			return nil, fmt.Errorf("duplicate variant name %q", v.Name)
		}
		seen[v.Name] = true
	}
	owned := make([]Variant, len(variants))
	copy(owned, variants)
	return &Registry{variants: owned}, nil
}

// DefaultRegistry returns the built-in variant table: a portable
// scalar baseline, a 4x-unrolled form, and a cache-blocked form. The
// unrolled and blocked variants are the portable analogues of SIMD
// code paths; which one actually wins per size class is exactly what
// the dispatch optimizer learns, so none of them gate on hardware
// flags by default.
func DefaultRegistry() *Registry {
	r, err := NewRegistry([]Variant{
		{Name: "scalar", Add: addScalar, Sum: sumScalar, Scale: scaleScalar},
		{Name: "unrolled4", Add: addUnrolled4, Sum: sumUnrolled4, Scale: scaleUnrolled4},
		{Name: "blocked", Add: addBlocked, Sum: sumBlocked, Scale: scaleBlocked},
	})
	if err != nil {
		// The built-in table is static; a failure here is a bug.
		panic(err)
	}
	return r
}

// Len returns the number of variants.
func (r *Registry) Len() int {
	return len(r.variants)
}

// Names returns the ordered variant names, the canonical input for
// constructing a dispatch optimizer over this registry.
func (r *Registry) Names() []string {
	names := make([]string, len(r.variants))
	for i, v := range r.variants {
		names[i] = v.Name
	}
	return names
}

// Variant returns the variant at index i.
func (r *Registry) Variant(i int) (Variant, error) {
	if i < 0 || i >= len(r.variants) {
		return Variant{}, fmt.Errorf("variant index %d out of range (registry has %d variants)", i, len(r.variants))
	}
	return r.variants[i], nil
}

// EligibleMask reports, per variant in registry order, whether the
// probed features allow it to run. The mask feeds straight into
// Optimizer.Select.
func (r *Registry) EligibleMask(f Features) []bool {
	mask := make([]bool, len(r.variants))
	for i, v := range r.variants {
		mask[i] = v.Requires == nil || v.Requires(f)
	}
	return mask
}
