package store

import (
	"time"

	"github.com/google/uuid"

	"github.com/chenura999/nanoforge/internal/evolve"
)

// RunRecord is the persisted outcome of one evolution run. It holds
// both source renditions so a stored run can be replayed or audited
// without the original script file. The full configuration rides along
// because a speedup number is meaningless without the settings that
// produced it.
type RunRecord struct {
	// RunID uniquely identifies this run.
	RunID string `json:"runId"`

	// CreatedAt records when the run finished.
	CreatedAt time.Time `json:"createdAt"`

	// OriginalSource is the canonical rendering of the input program.
	OriginalSource string `json:"originalSource"`

	// BestSource is the winning program's source.
	BestSource string `json:"bestSource"`

	// Speedup is baseline time over best time, never below 1.
	Speedup float64 `json:"speedup"`

	// Generations is how many generations the run completed.
	Generations int `json:"generations"`

	// BaselineNs and BestNs are the measured costs behind Speedup.
	BaselineNs float64 `json:"baselineNs"`
	BestNs     float64 `json:"bestNs"`

	// Config holds the evolution settings used, for reproducibility.
	Config evolve.Config `json:"config"`
}

// RunInfo is run metadata without the sources, for efficient listing.
type RunInfo struct {
	RunID       string    `json:"runId"`
	CreatedAt   time.Time `json:"createdAt"`
	Speedup     float64   `json:"speedup"`
	Generations int       `json:"generations"`
	Improved    bool      `json:"improved"`
}

// NewRunID returns a fresh identifier for an evolution run.
func NewRunID() string {
	return uuid.New().String()
}

// NewRunRecord assembles a record from an evolution result.
func NewRunRecord(runID string, result *evolve.Result, cfg evolve.Config) *RunRecord {
	return &RunRecord{
		RunID:          runID,
		CreatedAt:      time.Now().UTC(),
		OriginalSource: result.OriginalSource,
		BestSource:     result.BestSource,
		Speedup:        result.Speedup,
		Generations:    result.Generations,
		BaselineNs:     result.BaselineNs,
		BestNs:         result.BestNs,
		Config:         cfg,
	}
}

// ToInfo converts a full record to its listing metadata.
func (r *RunRecord) ToInfo() RunInfo {
	return RunInfo{
		RunID:       r.RunID,
		CreatedAt:   r.CreatedAt,
		Speedup:     r.Speedup,
		Generations: r.Generations,
		Improved:    r.BestSource != r.OriginalSource,
	}
}

// Validate checks that the record can be persisted and later trusted.
func (r *RunRecord) Validate() error {
	if r.RunID == "" {
		return &ValidationError{Field: "RunID", Reason: "cannot be empty"}
	}
	if r.CreatedAt.IsZero() {
		return &ValidationError{Field: "CreatedAt", Reason: "cannot be zero"}
	}
	if r.OriginalSource == "" {
		return &ValidationError{Field: "OriginalSource", Reason: "cannot be empty"}
	}
	if r.BestSource == "" {
		return &ValidationError{Field: "BestSource", Reason: "cannot be empty"}
	}
	if r.Speedup < 1 {
		return &ValidationError{Field: "Speedup", Reason: "cannot be below 1"}
	}
	if r.Generations < 1 {
		return &ValidationError{Field: "Generations", Reason: "must be positive"}
	}
	if r.BaselineNs <= 0 {
		return &ValidationError{Field: "BaselineNs", Reason: "must be positive"}
	}
	if r.BestNs <= 0 {
		return &ValidationError{Field: "BestNs", Reason: "must be positive"}
	}
	return nil
}

// ValidationError represents a run record validation error.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation error: " + e.Field + " " + e.Reason
}

func (e *ValidationError) Is(target error) bool {
	_, ok := target.(*ValidationError)
	return ok
}
