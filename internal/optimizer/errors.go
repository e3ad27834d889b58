package optimizer

import "fmt"

// VariantIndexError reports a variant index outside the registry
// bounds. Stale indices are rejected, never clamped.
type VariantIndexError struct {
	Index int
	Count int
}

func (e *VariantIndexError) Error() string {
	return fmt.Sprintf("variant index %d out of range (registry has %d variants)", e.Index, e.Count)
}

func (e *VariantIndexError) Is(target error) bool {
	_, ok := target.(*VariantIndexError)
	return ok
}

// InvalidCostError reports a cost sample that is negative, NaN or
// infinite. A single such sample folded into a running mean would
// poison every later selection in its bucket, so it is refused whole.
type InvalidCostError struct {
	Primary   float64
	Secondary float64
}

func (e *InvalidCostError) Error() string {
	return fmt.Sprintf("costs must be finite and non-negative (primary=%g, secondary=%g)", e.Primary, e.Secondary)
}

func (e *InvalidCostError) Is(target error) bool {
	_, ok := target.(*InvalidCostError)
	return ok
}

// SchemaMismatchError reports a persisted model that does not match
// the optimizer it is being loaded into. Loading never merges
// best-effort; a mismatch is surfaced whole.
type SchemaMismatchError struct {
	Field    string
	Expected string
	Actual   string
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("model schema mismatch: %s (expected %s, got %s)", e.Field, e.Expected, e.Actual)
}

func (e *SchemaMismatchError) Is(target error) bool {
	_, ok := target.(*SchemaMismatchError)
	return ok
}
