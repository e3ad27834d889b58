package optimizer

import (
	"fmt"
	"strings"
)

// Bucket is an immutable half-open size range [Lo, Hi). Hi == 0 marks
// the unbounded top bucket. The ordered set of buckets must partition
// the whole non-negative size domain with no gaps or overlaps.
type Bucket struct {
	Lo    uint64 `json:"lo"`
	Hi    uint64 `json:"hi"` // 0 = unbounded
	Label string `json:"label"`
}

// Contains reports whether size falls inside the bucket.
func (b Bucket) Contains(size uint64) bool {
	if size < b.Lo {
		return false
	}
	return b.Hi == 0 || size < b.Hi
}

// DefaultBuckets are the size classes kernel dispatch separates into.
// The bands grow geometrically: SIMD-style variants lose to scalar
// code below a few dozen elements and win decisively above a few
// thousand, with memory bandwidth dominating at the top.
func DefaultBuckets() []Bucket {
	return []Bucket{
		{Lo: 0, Hi: 32, Label: "Tiny (<32)"},
		{Lo: 32, Hi: 256, Label: "Small (32-255)"},
		{Lo: 256, Hi: 4096, Label: "Medium (256-4K)"},
		{Lo: 4096, Hi: 65536, Label: "Large (4K-64K)"},
		{Lo: 65536, Hi: 0, Label: "Huge (>64K)"},
	}
}

// GeometricBuckets builds a ladder of count buckets whose boundaries
// grow by ratio starting at first, with generated labels. Used by the
// boundary tuner to materialize a suggested configuration.
func GeometricBuckets(first uint64, ratio float64, count int) ([]Bucket, error) {
	if count < 2 {
		return nil, fmt.Errorf("bucket count must be at least 2, got %d", count)
	}
	if first == 0 {
		return nil, fmt.Errorf("first boundary must be positive")
	}
	if ratio <= 1 {
		return nil, fmt.Errorf("ratio must be greater than 1, got %g", ratio)
	}

	buckets := make([]Bucket, 0, count)
	lo := uint64(0)
	boundary := float64(first)
	for i := 0; i < count-1; i++ {
		hi := uint64(boundary + 0.5)
		if hi <= lo {
			hi = lo + 1
		}
		buckets = append(buckets, Bucket{Lo: lo, Hi: hi, Label: rangeLabel(lo, hi)})
		lo = hi
		boundary *= ratio
	}
	buckets = append(buckets, Bucket{Lo: lo, Hi: 0, Label: rangeLabel(lo, 0)})
	return buckets, nil
}

func rangeLabel(lo, hi uint64) string {
	if lo == 0 {
		return fmt.Sprintf("<%s", humanSize(hi))
	}
	if hi == 0 {
		return fmt.Sprintf(">=%s", humanSize(lo))
	}
	return fmt.Sprintf("%s-%s", humanSize(lo), humanSize(hi))
}

func humanSize(n uint64) string {
	switch {
	case n >= 1<<20 && n%(1<<20) == 0:
		return fmt.Sprintf("%dM", n>>20)
	case n >= 1<<10 && n%(1<<10) == 0:
		return fmt.Sprintf("%dK", n>>10)
	default:
		return fmt.Sprintf("%d", n)
	}
}

// Bucketer maps problem sizes to one of a fixed set of size classes.
// Boundaries are set at construction and never change; changing them
// invalidates accumulated statistics and requires building a new
// optimizer (see Optimizer.Reset).
type Bucketer struct {
	buckets []Bucket
}

// NewBucketer validates that buckets form an ordered, gap-free,
// overlap-free partition of all non-negative sizes.
func NewBucketer(buckets []Bucket) (*Bucketer, error) {
	if len(buckets) == 0 {
		return nil, fmt.Errorf("at least one bucket is required")
	}
	if buckets[0].Lo != 0 {
		return nil, fmt.Errorf("first bucket must start at 0, starts at %d", buckets[0].Lo)
	}
	for i, b := range buckets {
		last := i == len(buckets)-1
		if last {
			if b.Hi != 0 {
				return nil, fmt.Errorf("last bucket %q must be unbounded", b.Label)
			}
			continue
		}
		if b.Hi == 0 {
			return nil, fmt.Errorf("only the last bucket may be unbounded, %q is not last", b.Label)
		}
		if b.Hi <= b.Lo {
			return nil, fmt.Errorf("bucket %q is empty or inverted [%d,%d)", b.Label, b.Lo, b.Hi)
		}
		if buckets[i+1].Lo != b.Hi {
			return nil, fmt.Errorf("gap or overlap between %q and %q (%d != %d)",
				b.Label, buckets[i+1].Label, b.Hi, buckets[i+1].Lo)
		}
	}

	owned := make([]Bucket, len(buckets))
	copy(owned, buckets)
	return &Bucketer{buckets: owned}, nil
}

// BucketOf returns the index of the bucket containing size. It is
// total: every non-negative size maps to exactly one bucket.
func (b *Bucketer) BucketOf(size uint64) int {
	// Linear scan; the bucket count is a handful.
	for i, bucket := range b.buckets {
		if bucket.Contains(size) {
			return i
		}
	}
	return len(b.buckets) - 1
}

// Buckets returns a copy of the configured buckets in order.
func (b *Bucketer) Buckets() []Bucket {
	out := make([]Bucket, len(b.buckets))
	copy(out, b.buckets)
	return out
}

// Len returns the number of size classes.
func (b *Bucketer) Len() int {
	return len(b.buckets)
}

// Fingerprint is a stable textual signature of the boundary
// configuration, compared on load to reject mismatched models.
func (b *Bucketer) Fingerprint() string {
	parts := make([]string, len(b.buckets))
	for i, bucket := range b.buckets {
		parts[i] = fmt.Sprintf("%d:%d", bucket.Lo, bucket.Hi)
	}
	return strings.Join(parts, ",")
}
