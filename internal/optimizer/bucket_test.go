package optimizer

import (
	"math"
	"testing"
)

func defaultBucketer(t *testing.T) *Bucketer {
	t.Helper()
	b, err := NewBucketer(DefaultBuckets())
	if err != nil {
		t.Fatalf("NewBucketer failed: %v", err)
	}
	return b
}

func TestBucketOfCoversWholeDomain(t *testing.T) {
	b := defaultBucketer(t)

	sizes := []uint64{0, 1, 31, 32, 255, 256, 4095, 4096, 65535, 65536, 1 << 30, math.MaxUint64}
	for _, size := range sizes {
		idx := b.BucketOf(size)
		if idx < 0 || idx >= b.Len() {
			t.Fatalf("BucketOf(%d) = %d, out of range", size, idx)
		}
		if !b.Buckets()[idx].Contains(size) {
			t.Errorf("BucketOf(%d) returned bucket %q which does not contain it", size, b.Buckets()[idx].Label)
		}
	}
}

func TestBucketBoundaries(t *testing.T) {
	b := defaultBucketer(t)

	tests := []struct {
		size uint64
		want string
	}{
		{0, "Tiny (<32)"},
		{31, "Tiny (<32)"},
		{32, "Small (32-255)"},
		{255, "Small (32-255)"},
		{256, "Medium (256-4K)"},
		{4096, "Large (4K-64K)"},
		{65536, "Huge (>64K)"},
		{10_000_000, "Huge (>64K)"},
	}
	for _, tt := range tests {
		idx := b.BucketOf(tt.size)
		if got := b.Buckets()[idx].Label; got != tt.want {
			t.Errorf("BucketOf(%d) = %q, expected %q", tt.size, got, tt.want)
		}
	}
}

func TestNewBucketerRejectsBadPartitions(t *testing.T) {
	tests := []struct {
		name    string
		buckets []Bucket
	}{
		{"empty", nil},
		{"does not start at zero", []Bucket{{Lo: 1, Hi: 0, Label: "all"}}},
		{"bounded last bucket", []Bucket{{Lo: 0, Hi: 10, Label: "a"}}},
		{"gap", []Bucket{{Lo: 0, Hi: 10, Label: "a"}, {Lo: 20, Hi: 0, Label: "b"}}},
		{"overlap", []Bucket{{Lo: 0, Hi: 10, Label: "a"}, {Lo: 5, Hi: 0, Label: "b"}}},
		{"inverted", []Bucket{{Lo: 0, Hi: 0, Label: "a"}, {Lo: 0, Hi: 0, Label: "b"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewBucketer(tt.buckets); err == nil {
				t.Errorf("NewBucketer(%v) succeeded, expected error", tt.buckets)
			}
		})
	}
}

func TestGeometricBuckets(t *testing.T) {
	buckets, err := GeometricBuckets(32, 4, 5)
	if err != nil {
		t.Fatalf("GeometricBuckets failed: %v", err)
	}
	if len(buckets) != 5 {
		t.Fatalf("Expected 5 buckets, got %d", len(buckets))
	}
	if _, err := NewBucketer(buckets); err != nil {
		t.Errorf("Generated ladder is not a valid partition: %v", err)
	}
	if buckets[0].Hi != 32 {
		t.Errorf("Expected first boundary 32, got %d", buckets[0].Hi)
	}
	if buckets[len(buckets)-1].Hi != 0 {
		t.Errorf("Expected unbounded top bucket")
	}
}

func TestFingerprintDistinguishesConfigurations(t *testing.T) {
	a := defaultBucketer(t)

	ladder, err := GeometricBuckets(16, 8, 5)
	if err != nil {
		t.Fatalf("GeometricBuckets failed: %v", err)
	}
	b, err := NewBucketer(ladder)
	if err != nil {
		t.Fatalf("NewBucketer failed: %v", err)
	}

	if a.Fingerprint() == b.Fingerprint() {
		t.Error("Different boundary configurations share a fingerprint")
	}
	if a.Fingerprint() != defaultBucketer(t).Fingerprint() {
		t.Error("Identical configurations have different fingerprints")
	}
}
