package forecast

import (
	"math"
	"testing"
)

func TestPressureTrend(t *testing.T) {
	tests := []struct {
		name      string
		history   []float64
		window    int
		ok        bool
		direction TrendDirection
		strength  TrendStrength
		samples   int
	}{
		{"empty", nil, 12, false, "", "", 0},
		{"single sample", []float64{1010}, 12, false, "", "", 0},
		{"rapid rise", []float64{1000, 1001, 1002}, 12, true, TrendRising, TrendRapid, 3},
		{"rapid fall", []float64{1008, 1007, 1006, 1005}, 12, true, TrendFalling, TrendRapid, 4},
		{"moderate rise", []float64{1000, 1000.3, 1000.6}, 12, true, TrendRising, TrendModerate, 3},
		{"moderate fall", []float64{1000, 999.7}, 12, true, TrendFalling, TrendModerate, 2},
		{"slow drift", []float64{1000, 1000.1}, 12, true, TrendRising, TrendNone, 2},
		{"flat", []float64{1000, 1000, 1000}, 12, true, TrendSteady, TrendNone, 3},
		{"non-finite dropped", []float64{1000, math.NaN(), math.Inf(1), 1001}, 12, true, TrendRising, TrendRapid, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, ok := PressureTrend(tt.history, tt.window, 0.5, 0.2)
			if ok != tt.ok {
				t.Fatalf("ok = %v; want %v", ok, tt.ok)
			}
			if !ok {
				return
			}
			if tr.Direction != tt.direction || tr.Strength != tt.strength {
				t.Errorf("trend = %s/%s; want %s/%s", tr.Direction, tr.Strength, tt.direction, tt.strength)
			}
			if tr.Samples != tt.samples {
				t.Errorf("Samples = %d; want %d", tr.Samples, tt.samples)
			}
		})
	}
}

func TestPressureTrendUsesWindow(t *testing.T) {
	// A steep fall long ago followed by a flat tail.
	history := []float64{1020, 1015, 1010}
	for i := 0; i < 12; i++ {
		history = append(history, 1005)
	}

	tr, ok := PressureTrend(history, 12, 0.5, 0.2)
	if !ok {
		t.Fatalf("ok = false")
	}
	if tr.Samples != 12 {
		t.Errorf("Samples = %d; want 12", tr.Samples)
	}
	if tr.Direction != TrendSteady || tr.Change != 0 {
		t.Errorf("trend = %+v; want steady with zero change", tr)
	}
}
