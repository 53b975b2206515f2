package forecast

// snowConditions reports whether the basic conditions for snow hold:
// freezing air, high humidity and pressure inside the band.
func snowConditions(t Thresholds, tempC, humidity, pressure float64) bool {
	return tempC <= t.SnowMaxTempC &&
		humidity > t.SnowMinHumidityPct &&
		pressure > t.SnowPressureMinHPa &&
		pressure < t.SnowPressureMaxHPa
}

// SnowProbability combines temperature, humidity and falling pressure into
// a score in [0,1]. It returns 0 when the basic conditions do not hold.
func SnowProbability(t Thresholds, tempC, humidity, pressure float64, tr Trend) float64 {
	if !snowConditions(t, tempC, humidity, pressure) {
		return 0
	}

	var p float64
	switch {
	case tempC <= t.SnowMaxTempC-2:
		p += 0.3
	case tempC <= t.SnowMaxTempC-1:
		p += 0.2
	default:
		p += 0.1
	}

	switch {
	case humidity > t.SnowMinHumidityPct+10:
		p += 0.3
	case humidity > t.SnowMinHumidityPct+5:
		p += 0.2
	default:
		p += 0.1
	}

	if tr.Direction == TrendFalling {
		if pressure < t.SnowFallingPressure {
			p += 0.3
		} else {
			p += 0.2
		}
	}

	if p > 1 {
		p = 1
	}
	return p
}
