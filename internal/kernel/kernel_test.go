package kernel

import (
	"math"
	"math/rand"
	"testing"
)

func testVectors(n int, seed int64) (a, b []float64) {
	rng := rand.New(rand.NewSource(seed))
	a = make([]float64, n)
	b = make([]float64, n)
	for i := 0; i < n; i++ {
		a[i] = rng.Float64()*200 - 100
		b[i] = rng.Float64()*200 - 100
	}
	return a, b
}

func TestVariantsAgreeOnAdd(t *testing.T) {
	reg := DefaultRegistry()

	for _, n := range []int{0, 1, 3, 4, 7, 64, 1023, 1024, 1025, 10_000} {
		a, b := testVectors(n, int64(n))
		want := make([]float64, n)
		addScalar(want, a, b)

		for i := 0; i < reg.Len(); i++ {
			v, err := reg.Variant(i)
			if err != nil {
				t.Fatalf("Variant(%d) failed: %v", i, err)
			}
			got := make([]float64, n)
			v.Add(got, a, b)
			for j := range want {
				if got[j] != want[j] {
					t.Fatalf("Variant %q add differs at n=%d index %d: %v vs %v", v.Name, n, j, got[j], want[j])
				}
			}
		}
	}
}

func TestVariantsAgreeOnSum(t *testing.T) {
	reg := DefaultRegistry()

	for _, n := range []int{0, 1, 5, 1024, 4097} {
		a, _ := testVectors(n, int64(n)+17)
		want := sumScalar(a)

		for i := 0; i < reg.Len(); i++ {
			v, _ := reg.Variant(i)
			got := v.Sum(a)
			// Summation order differs between variants, so allow a
			// small relative tolerance.
			tol := 1e-9 * (math.Abs(want) + 1)
			if math.Abs(got-want) > tol {
				t.Errorf("Variant %q sum differs at n=%d: %v vs %v", v.Name, n, got, want)
			}
		}
	}
}

func TestVariantsAgreeOnScale(t *testing.T) {
	reg := DefaultRegistry()

	a, _ := testVectors(1000, 3)
	want := make([]float64, len(a))
	scaleScalar(want, a, 2.5)

	for i := 0; i < reg.Len(); i++ {
		v, _ := reg.Variant(i)
		got := make([]float64, len(a))
		v.Scale(got, a, 2.5)
		for j := range want {
			if got[j] != want[j] {
				t.Fatalf("Variant %q scale differs at index %d", v.Name, j)
			}
		}
	}
}

func TestAddInPlaceAliasing(t *testing.T) {
	a, b := testVectors(100, 9)
	want := make([]float64, len(a))
	addScalar(want, a, b)

	// dst aliasing a must be safe.
	got := append([]float64(nil), a...)
	addUnrolled4(got, got, b)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("In-place add differs at index %d", i)
		}
	}
}

func TestNewRegistryValidation(t *testing.T) {
	if _, err := NewRegistry(nil); err == nil {
		t.Error("Expected error for empty registry")
	}
	if _, err := NewRegistry([]Variant{{Name: ""}}); err == nil {
		t.Error("Expected error for empty variant name")
	}
	if _, err := NewRegistry([]Variant{{Name: "x"}, {Name: "x"}}); err == nil {
		t.Error("Expected error for duplicate variant name")
	}
}

func TestEligibleMask(t *testing.T) {
	reg, err := NewRegistry([]Variant{
		{Name: "always", Add: addScalar, Sum: sumScalar, Scale: scaleScalar},
		{Name: "avx2-only", Requires: func(f Features) bool { return f.AVX2 }, Add: addScalar, Sum: sumScalar, Scale: scaleScalar},
	})
	if err != nil {
		t.Fatalf("NewRegistry failed: %v", err)
	}

	mask := reg.EligibleMask(Features{AVX2: false})
	if !mask[0] || mask[1] {
		t.Errorf("Expected [true false], got %v", mask)
	}
	mask = reg.EligibleMask(Features{AVX2: true})
	if !mask[0] || !mask[1] {
		t.Errorf("Expected [true true], got %v", mask)
	}
}

func TestVariantIndexOutOfRange(t *testing.T) {
	reg := DefaultRegistry()
	if _, err := reg.Variant(-1); err == nil {
		t.Error("Expected error for negative index")
	}
	if _, err := reg.Variant(reg.Len()); err == nil {
		t.Error("Expected error for index past end")
	}
}

func TestDetectIsStable(t *testing.T) {
	if Detect() != Detect() {
		t.Error("Detect returned different results across calls")
	}
}
