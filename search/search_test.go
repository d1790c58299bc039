package search

import (
	"math"
	"testing"

	"github.com/stefanparimucha/elisa/fault"
)

func TestNewtonSquareRoot(t *testing.T) {
	f := func(x float64) float64 { return x*x - 2 }
	df := func(x float64) float64 { return 2 * x }

	x, err := Newton(f, df, 1.0, 0, 0)
	if err != nil {
		t.Fatalf("Newton failed: %v", err)
	}
	if math.Abs(x-math.Sqrt2) > 1e-10 {
		t.Errorf("root = %.12f, want %.12f", x, math.Sqrt2)
	}
}

func TestNewtonConvergenceFailure(t *testing.T) {
	// f has no root; the iteration must hit the cap, not hang.
	f := func(x float64) float64 { return x*x + 1 }
	df := func(x float64) float64 { return 2 * x }

	_, err := Newton(f, df, 3.0, 1e-14, 16)
	if err == nil {
		t.Fatal("expected convergence failure for rootless function")
	}
	if !fault.Kind(err, fault.Convergence) {
		t.Errorf("error kind = %v, want fault.Convergence", err)
	}
}

func TestBrentCubic(t *testing.T) {
	f := func(x float64) float64 { return (x - 1) * (x + 2) * (x - 5) }

	x, err := Brent(f, 0, 3, 1e-13, 0)
	if err != nil {
		t.Fatalf("Brent failed: %v", err)
	}
	if math.Abs(x-1) > 1e-10 {
		t.Errorf("root = %.12f, want 1", x)
	}
}

func TestBrentRequiresSignChange(t *testing.T) {
	f := func(x float64) float64 { return x*x + 1 }
	if _, err := Brent(f, -1, 1, 0, 0); err == nil {
		t.Error("expected error for bracket without sign change")
	}
}

func TestFindRootFrom(t *testing.T) {
	// Potential-like shape: diverges at 0, decreasing through a root.
	f := func(x float64) float64 { return 1/x - 10 }

	x, err := FindRootFrom(f, 1e-4, 30, 1e-13)
	if err != nil {
		t.Fatalf("FindRootFrom failed: %v", err)
	}
	if math.Abs(x-0.1) > 1e-10 {
		t.Errorf("root = %.12f, want 0.1", x)
	}
}

func TestScanRootsPolynomial(t *testing.T) {
	// Roots at -2, 1, 5.
	f := func(x float64) float64 { return (x - 1) * (x + 2) * (x - 5) }
	df := func(x float64) float64 { return 3*x*x - 8*x - 7 }

	roots := ScanRoots(f, df, -6, 8, 100, 5, 3)
	if len(roots) != 3 {
		t.Fatalf("found %d roots, want 3", len(roots))
	}
	want := map[float64]bool{-2: false, 1: false, 5: false}
	for _, r := range roots {
		for w := range want {
			if math.Abs(r-w) < 1e-8 {
				want[w] = true
			}
		}
	}
	for w, hit := range want {
		if !hit {
			t.Errorf("root %g not found in %v", w, roots)
		}
	}
}

func TestScanRootsSkipsSingularSeeds(t *testing.T) {
	// 1/x - 1 diverges at 0; the scan passes through it.
	f := func(x float64) float64 { return 1/x - 1 }
	df := func(x float64) float64 { return -1 / (x * x) }

	roots := ScanRoots(f, df, -1, 3, 41, 5, 0)
	if len(roots) != 1 {
		t.Fatalf("found %d roots, want 1 (%v)", len(roots), roots)
	}
	if math.Abs(roots[0]-1) > 1e-8 {
		t.Errorf("root = %.10f, want 1", roots[0])
	}
}
