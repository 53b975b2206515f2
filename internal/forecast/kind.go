package forecast

import "strings"

// Kind identifies the physical quantity a sensor channel reports.
type Kind int

const (
	KindUnknown Kind = iota
	KindTemperature
	KindHumidity
	KindPressure
	KindWindSpeed
	KindWindGust
	KindWindDirection
	KindUVIndex
	KindRain
)

var kindNames = map[Kind]string{
	KindUnknown:       "unknown",
	KindTemperature:   "temperature",
	KindHumidity:      "humidity",
	KindPressure:      "pressure",
	KindWindSpeed:     "wind_speed",
	KindWindGust:      "wind_gust",
	KindWindDirection: "wind_direction",
	KindUVIndex:       "uv_index",
	KindRain:          "rain",
}

// kindMatchers is ordered most specific first: "wind_gust" must win over
// anything that merely mentions wind, "uv_index" over "index" and so on.
var kindMatchers = []struct {
	substr string
	kind   Kind
}{
	{"wind_gust", KindWindGust},
	{"wind_speed", KindWindSpeed},
	{"wind_direction", KindWindDirection},
	{"uv_index", KindUVIndex},
	{"rain", KindRain},
	{"humidity", KindHumidity},
	{"pressure", KindPressure},
	{"temperature", KindTemperature},
}

// KindOf resolves the kind of a sensor from its entity identifier. It is
// meant to be called once, when the tracked sensors are configured; see
// ParseSensorBindings.
//
// Indoor channels and absolute (station level) pressure resolve to
// KindUnknown so that they cannot shadow the outdoor and sea-level
// corrected channels the rules are calibrated for.
func KindOf(entityID string) Kind {
	id := strings.ToLower(entityID)
	if strings.Contains(id, "indoor") || strings.Contains(id, "absolute_pressure") {
		return KindUnknown
	}
	for _, m := range kindMatchers {
		if strings.Contains(id, m.substr) {
			return m.kind
		}
	}
	return KindUnknown
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return kindNames[KindUnknown]
}

// ParseKind is the inverse of Kind.String. Unrecognised names map to
// KindUnknown.
func ParseKind(s string) Kind {
	s = strings.ToLower(strings.TrimSpace(s))
	for k, name := range kindNames {
		if name == s {
			return k
		}
	}
	return KindUnknown
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(b []byte) error {
	*k = ParseKind(string(b))
	return nil
}
