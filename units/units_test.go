package units

import (
	"math"
	"testing"
)

func TestMassRoundTrip(t *testing.T) {
	for _, m := range []float64{0.3, 1.0, 2.5, 17.0} {
		got := KgToMSol(MSolToKg(m))
		if math.Abs(got-m) > 1e-12 {
			t.Errorf("mass round trip: got %.15f, want %.15f", got, m)
		}
	}
}

func TestLogGCgs(t *testing.T) {
	// Solar surface gravity: 274 m/s² -> log g ≈ 4.44 (cgs).
	logg := LogGCgs(274.0)
	if math.Abs(logg-4.4378) > 1e-3 {
		t.Errorf("solar log g = %.4f, want ≈4.4378", logg)
	}
	if got := GCgsFromLog(logg); math.Abs(got-274.0) > 1e-9 {
		t.Errorf("log g inversion = %.9f, want 274.0", got)
	}
}

func TestDayConversion(t *testing.T) {
	if got := DaysToSeconds(2.0); got != 172800.0 {
		t.Errorf("2 d = %.1f s, want 172800", got)
	}
	if got := SecondsToDays(43200.0); got != 0.5 {
		t.Errorf("43200 s = %.3f d, want 0.5", got)
	}
}
