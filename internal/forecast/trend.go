package forecast

import "math"

type TrendDirection string

const (
	TrendRising  TrendDirection = "rising"
	TrendFalling TrendDirection = "falling"
	TrendSteady  TrendDirection = "steady"
)

type TrendStrength string

const (
	TrendRapid    TrendStrength = "rapid"
	TrendModerate TrendStrength = "moderate"
	TrendNone     TrendStrength = "none"
)

// Trend summarises the recent pressure tendency. Rate is hPa per sample
// interval.
type Trend struct {
	Change    float64        `json:"change"`
	Rate      float64        `json:"rate"`
	Samples   int            `json:"samples"`
	Direction TrendDirection `json:"direction"`
	Strength  TrendStrength  `json:"strength"`
}

// PressureTrend computes the tendency over the last window samples of
// history (oldest first). It returns false when fewer than two usable
// samples are available. Non-finite samples are dropped.
func PressureTrend(history []float64, window int, rapidRate, moderateRate float64) (Trend, bool) {
	samples := make([]float64, 0, len(history))
	for _, v := range history {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		samples = append(samples, v)
	}
	if window >= 2 && len(samples) > window {
		samples = samples[len(samples)-window:]
	}
	if len(samples) < 2 {
		return Trend{}, false
	}

	change := samples[len(samples)-1] - samples[0]
	rate := change / float64(len(samples)-1)

	tr := Trend{
		Change:    change,
		Rate:      rate,
		Samples:   len(samples),
		Direction: TrendSteady,
		Strength:  TrendNone,
	}
	switch {
	case change > 0:
		tr.Direction = TrendRising
	case change < 0:
		tr.Direction = TrendFalling
	}
	switch abs := math.Abs(rate); {
	case abs > rapidRate:
		tr.Strength = TrendRapid
	case abs > moderateRate:
		tr.Strength = TrendModerate
	}
	return tr, true
}
