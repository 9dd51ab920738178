package risk_test

import (
	"testing"

	"github.com/RimaChaieb/tuniguard-api/internal/risk"
)

func repeat(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestScore(t *testing.T) {
	tests := []struct {
		name    string
		history []float64
		want    float64
	}{
		{"empty history is neutral", nil, 50},
		{"single high score clamps to 100", []float64{90}, 100},
		{"single low score", []float64{10}, 95},
		{"five low scores", repeat(0, 5), 75},
		{"ten low scores", repeat(0, 10), 50},
		{"twenty high scores", repeat(80, 20), 80},
		{"exactly 70 is not exposure", repeat(70, 10), 50},
		{"mixed exposure", []float64{90, 10, 90, 10}, 95},
		{"three of ten exposed", append(repeat(71, 3), repeat(0, 7)...), 59},
		{"one of three exposed rounds to two decimals", []float64{80, 0, 0}, 95},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := risk.Score(tc.history)
			if got != tc.want {
				t.Errorf("Score(%v) = %v, want %v", tc.history, got, tc.want)
			}
		})
	}
}

func TestScore_OnlyWindowCounts(t *testing.T) {
	// 20 safe scans followed by older high-risk scans: the older ones fall
	// outside the window and must not affect exposure.
	history := append(repeat(0, risk.Window), repeat(99, 15)...)
	if got := risk.Score(history); got != 50 {
		t.Errorf("Score = %v, want 50", got)
	}
}

func TestScore_Bounds(t *testing.T) {
	for n := 1; n <= risk.Window; n++ {
		for exposed := 0; exposed <= n; exposed++ {
			h := append(repeat(100, exposed), repeat(0, n-exposed)...)
			got := risk.Score(h)
			if got < 0 || got > 100 {
				t.Fatalf("Score(n=%d, exposed=%d) = %v, out of [0,100]", n, exposed, got)
			}
		}
	}
}

func TestScore_ThirdExposure(t *testing.T) {
	// n=3: engagement 0.3, exposure 1/3 → 100 - 15 + 10 = 95
	// n=6 with 1 exposed: 100 - 30 + 5 = 75
	if got := risk.Score([]float64{75, 1, 2, 3, 4, 5}); got != 75 {
		t.Errorf("Score = %v, want 75", got)
	}
	// n=7 with 1 exposed: 100 - 35 + 30/7 = 69.2857 → 69.29
	if got := risk.Score([]float64{75, 1, 2, 3, 4, 5, 6}); got != 69.29 {
		t.Errorf("Score = %v, want 69.29", got)
	}
}

func TestSignalBars(t *testing.T) {
	tests := []struct {
		score float64
		want  string
	}{
		{0, risk.SignalWeak},
		{24.99, risk.SignalWeak},
		{25, risk.SignalModerate},
		{49.5, risk.SignalModerate},
		{50, risk.SignalStrong},
		{74.99, risk.SignalStrong},
		{75, risk.SignalCritical},
		{100, risk.SignalCritical},
	}
	for _, tc := range tests {
		if got := risk.SignalBars(tc.score); got != tc.want {
			t.Errorf("SignalBars(%v) = %q, want %q", tc.score, got, tc.want)
		}
	}
}

func TestClamp(t *testing.T) {
	if risk.Clamp(-3) != 0 || risk.Clamp(130) != 100 || risk.Clamp(42.5) != 42.5 {
		t.Error("Clamp did not bound to [0,100]")
	}
}
