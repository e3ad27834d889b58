package store

import (
	"errors"
	"testing"
	"time"

	"github.com/chenura999/nanoforge/internal/evolve"
)

func validRecord() *RunRecord {
	return &RunRecord{
		RunID:          NewRunID(),
		CreatedAt:      time.Now().UTC(),
		OriginalSource: "fn main(n) {\n    return n + 1\n}",
		BestSource:     "fn main(n) {\n    return n + 1\n}",
		Speedup:        1,
		Generations:    5,
		BaselineNs:     1200,
		BestNs:         1200,
		Config:         evolve.DefaultConfig(),
	}
}

func TestNewRunIDUnique(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id := NewRunID()
		if id == "" {
			t.Fatal("empty run ID")
		}
		if seen[id] {
			t.Fatalf("duplicate run ID %q", id)
		}
		seen[id] = true
	}
}

func TestNewRunRecordFromResult(t *testing.T) {
	result := &evolve.Result{
		OriginalSource: "fn main(n) {\n    return n\n}",
		BestSource:     "fn main(n) {\n    return n\n}",
		Speedup:        1,
		Generations:    3,
		BaselineNs:     900,
		BestNs:         900,
	}
	cfg := evolve.DefaultConfig()
	record := NewRunRecord("run-1", result, cfg)

	if record.RunID != "run-1" {
		t.Errorf("RunID = %q", record.RunID)
	}
	if record.CreatedAt.IsZero() {
		t.Error("CreatedAt not set")
	}
	if record.Speedup != result.Speedup || record.Generations != result.Generations {
		t.Errorf("result fields not carried over: %+v", record)
	}
	if record.Config.PopulationSize != cfg.PopulationSize {
		t.Errorf("config not carried over: %+v", record.Config)
	}
	if err := record.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestRunRecordValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*RunRecord)
	}{
		{"empty run ID", func(r *RunRecord) { r.RunID = "" }},
		{"zero timestamp", func(r *RunRecord) { r.CreatedAt = time.Time{} }},
		{"empty original source", func(r *RunRecord) { r.OriginalSource = "" }},
		{"empty best source", func(r *RunRecord) { r.BestSource = "" }},
		{"speedup below floor", func(r *RunRecord) { r.Speedup = 0.5 }},
		{"zero generations", func(r *RunRecord) { r.Generations = 0 }},
		{"zero baseline cost", func(r *RunRecord) { r.BaselineNs = 0 }},
		{"negative best cost", func(r *RunRecord) { r.BestNs = -1 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			record := validRecord()
			tc.mutate(record)
			err := record.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !errors.Is(err, &ValidationError{}) {
				t.Fatalf("expected ValidationError, got %T: %v", err, err)
			}
		})
	}
}

func TestRunRecordValidateAccepts(t *testing.T) {
	if err := validRecord().Validate(); err != nil {
		t.Fatalf("valid record rejected: %v", err)
	}
}

func TestToInfo(t *testing.T) {
	record := validRecord()
	record.Speedup = 1.8
	record.BestSource = "fn main(n) {\n    return n\n}"

	info := record.ToInfo()
	if info.RunID != record.RunID {
		t.Errorf("RunID = %q, want %q", info.RunID, record.RunID)
	}
	if info.Speedup != 1.8 {
		t.Errorf("Speedup = %g", info.Speedup)
	}
	if !info.Improved {
		t.Error("expected Improved when sources differ")
	}

	record.BestSource = record.OriginalSource
	if record.ToInfo().Improved {
		t.Error("expected Improved false when sources match")
	}
}
