package forecast

import "math"

// HeatIndexC returns the apparent temperature in °C for an air temperature
// in °C and relative humidity in percent, using the NWS procedure: the
// Steadman approximation when it stays below 80°F, otherwise the Rothfusz
// regression with its low and high humidity adjustments.
func HeatIndexC(tempC, humidityPct float64) float64 {
	t := cToF(tempC)
	rh := humidityPct

	simple := 0.5 * (t + 61.0 + (t-68.0)*1.2 + rh*0.094)
	if (simple+t)/2 < 80 {
		return fToC(simple)
	}

	hi := -42.379 +
		2.04901523*t +
		10.14333127*rh -
		0.22475541*t*rh -
		0.00683783*t*t -
		0.05481717*rh*rh +
		0.00122874*t*t*rh +
		0.00085282*t*rh*rh -
		0.00000199*t*t*rh*rh

	switch {
	case rh < 13 && t >= 80 && t <= 112:
		hi -= ((13 - rh) / 4) * math.Sqrt((17-math.Abs(t-95))/17)
	case rh > 85 && t >= 80 && t <= 87:
		hi += ((rh - 85) / 10) * ((87 - t) / 5)
	}
	return fToC(hi)
}

func cToF(c float64) float64 { return c*1.8 + 32 }

func fToC(f float64) float64 { return (f - 32) / 1.8 }
