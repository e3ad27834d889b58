package optimizer

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
)

// modelSchemaVersion guards the persisted document layout.
const modelSchemaVersion = 1

// statDocument is the persisted form of one model cell.
type statDocument struct {
	Samples       uint64  `json:"sample_count"`
	MeanPrimary   float64 `json:"mean_primary"`
	MeanSecondary float64 `json:"mean_secondary"`
}

// modelDocument is the full persisted model: header identifying the
// bucket and variant configuration, then statistics keyed by bucket
// label and variant name.
type modelDocument struct {
	Version      int                                `json:"version"`
	Buckets      []Bucket                           `json:"buckets"`
	Variants     []string                           `json:"variants"`
	Stats        map[string]map[string]statDocument `json:"stats"`
	Observations []Observation                      `json:"observations,omitempty"`
}

// Save serializes the full performance model to path as JSON, using
// the temp-file + rename pattern so a crash never leaves a truncated
// model behind.
func (o *Optimizer) Save(path string) error {
	o.mu.RLock()
	doc := modelDocument{
		Version:      modelSchemaVersion,
		Buckets:      o.bucketer.Buckets(),
		Variants:     o.VariantNames(),
		Stats:        make(map[string]map[string]statDocument),
		Observations: o.observationsLocked(),
	}
	for b, row := range o.model {
		label := o.bucketer.buckets[b].Label
		for v := range row {
			if row[v].Samples == 0 {
				continue
			}
			if doc.Stats[label] == nil {
				doc.Stats[label] = make(map[string]statDocument)
			}
			doc.Stats[label][o.variants[v]] = statDocument{
				Samples:       row[v].Samples,
				MeanPrimary:   row[v].MeanPrimary,
				MeanSecondary: row[v].MeanSecondary,
			}
		}
	}
	o.mu.RUnlock()

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize model: %w", err)
	}

	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write temp model file: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to rename model file: %w", err)
	}

	slog.Debug("Model saved", "path", path)
	return nil
}

// observationsLocked is Observations without the lock; callers must
// hold at least a read lock.
func (o *Optimizer) observationsLocked() []Observation {
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

// Load replaces the model with the document at path. The document's
// bucket configuration and variant names must match this optimizer
// exactly; any mismatch is a *SchemaMismatchError and leaves the
// current model untouched. Loading never merges.
func (o *Optimizer) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read model file: %w", err)
	}

	var doc modelDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to parse model file: %w", err)
	}

	if doc.Version != modelSchemaVersion {
		return &SchemaMismatchError{
			Field:    "version",
			Expected: fmt.Sprintf("%d", modelSchemaVersion),
			Actual:   fmt.Sprintf("%d", doc.Version),
		}
	}

	loaded, err := NewBucketer(doc.Buckets)
	if err != nil {
		return fmt.Errorf("model file has invalid buckets: %w", err)
	}
	if loaded.Fingerprint() != o.bucketer.Fingerprint() {
		return &SchemaMismatchError{
			Field:    "buckets",
			Expected: o.bucketer.Fingerprint(),
			Actual:   loaded.Fingerprint(),
		}
	}
	if len(doc.Variants) != len(o.variants) {
		return &SchemaMismatchError{
			Field:    "variants",
			Expected: fmt.Sprintf("%d names", len(o.variants)),
			Actual:   fmt.Sprintf("%d names", len(doc.Variants)),
		}
	}
	for i, name := range doc.Variants {
		if name != o.variants[i] {
			return &SchemaMismatchError{
				Field:    fmt.Sprintf("variant[%d]", i),
				Expected: o.variants[i],
				Actual:   name,
			}
		}
	}

	// Resolve labels/names to indices before touching the model so a
	// malformed document cannot leave it half-loaded.
	labelIndex := make(map[string]int, o.bucketer.Len())
	for i, b := range o.bucketer.buckets {
		labelIndex[b.Label] = i
	}
	nameIndex := make(map[string]int, len(o.variants))
	for i, name := range o.variants {
		nameIndex[name] = i
	}

	model := newModel(o.bucketer.Len(), len(o.variants))
	for label, variants := range doc.Stats {
		b, ok := labelIndex[label]
		if !ok {
			return &SchemaMismatchError{Field: "bucket label", Expected: "known label", Actual: label}
		}
		for name, stat := range variants {
			v, ok := nameIndex[name]
			if !ok {
				return &SchemaMismatchError{Field: "variant name", Expected: "known name", Actual: name}
			}
			model[b][v] = VariantStat{
				Samples:       stat.Samples,
				MeanPrimary:   stat.MeanPrimary,
				MeanSecondary: stat.MeanSecondary,
			}
		}
	}
	for _, row := range model {
		recomputeConfidence(row)
	}

	for _, obs := range doc.Observations {
		if obs.Variant < 0 || obs.Variant >= len(o.variants) {
			return &SchemaMismatchError{
				Field:    "observation variant",
				Expected: fmt.Sprintf("index < %d", len(o.variants)),
				Actual:   fmt.Sprintf("%d", obs.Variant),
			}
		}
	}

	o.mu.Lock()
	o.model = model
	o.obs = append([]Observation(nil), doc.Observations...)
	o.obsNext = 0
	o.obsFull = false
	if len(o.obs) >= maxObservations {
		o.obs = o.obs[len(o.obs)-maxObservations:]
		o.obsFull = true
	}
	o.mu.Unlock()

	slog.Debug("Model loaded", "path", path, "buckets", len(doc.Stats))
	return nil
}
