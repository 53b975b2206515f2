package forecast

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

var ErrInvalidThresholds = errors.New("invalid thresholds")

// Thresholds are the tunable constants of the rule table. Units: °C, %,
// hPa, m/s, mm/h.
type Thresholds struct {
	HeatExtremeC float64 `yaml:"heat_extreme_c"`
	HeatHighC    float64 `yaml:"heat_high_c"`
	ColdExtremeC float64 `yaml:"cold_extreme_c"`

	VeryWarmC float64 `yaml:"very_warm_c"`
	WarmC     float64 `yaml:"warm_c"`
	ColdC     float64 `yaml:"cold_c"`
	CoolC     float64 `yaml:"cool_c"`

	UVExtreme  float64 `yaml:"uv_extreme"`
	UVVeryHigh float64 `yaml:"uv_very_high"`
	UVHigh     float64 `yaml:"uv_high"`

	PressureLowHPa  float64 `yaml:"pressure_low_hpa"`
	PressureHighHPa float64 `yaml:"pressure_high_hpa"`

	VeryHumidPct float64 `yaml:"very_humid_pct"`
	HumidPct     float64 `yaml:"humid_pct"`
	DryPct       float64 `yaml:"dry_pct"`

	WindyMS      float64 `yaml:"windy_ms"`
	BreezyMS     float64 `yaml:"breezy_ms"`
	StrongWindMS float64 `yaml:"strong_wind_ms"`
	StrongGustMS float64 `yaml:"strong_gust_ms"`
	GustFactor   float64 `yaml:"gust_factor"`

	LightRainMMH    float64 `yaml:"light_rain_mmh"`
	ModerateRainMMH float64 `yaml:"moderate_rain_mmh"`

	TrendWindow       int     `yaml:"trend_window"`
	TrendRapidRate    float64 `yaml:"trend_rapid_rate"`
	TrendModerateRate float64 `yaml:"trend_moderate_rate"`

	SnowMaxTempC          float64 `yaml:"snow_max_temp_c"`
	SnowMinHumidityPct    float64 `yaml:"snow_min_humidity_pct"`
	SnowPressureMinHPa    float64 `yaml:"snow_pressure_min_hpa"`
	SnowPressureMaxHPa    float64 `yaml:"snow_pressure_max_hpa"`
	SnowFallingPressure   float64 `yaml:"snow_falling_pressure_hpa"`
	SnowLikelyProbability float64 `yaml:"snow_likely_probability"`

	HeatIndexEnabled  bool    `yaml:"heat_index_enabled"`
	HeatIndexDangerC  float64 `yaml:"heat_index_danger_c"`
	HeatIndexCautionC float64 `yaml:"heat_index_caution_c"`

	MuggyTempC       float64 `yaml:"muggy_temp_c"`
	MuggyHumidityPct float64 `yaml:"muggy_humidity_pct"`

	NormsEnabled bool `yaml:"norms_enabled"`

	// NormDeviationC and NormStrongDeviationC bound the distance from the
	// norm's mean temperature that raises a medium and a high warning.
	NormDeviationC       float64   `yaml:"norm_deviation_c"`
	NormStrongDeviationC float64   `yaml:"norm_strong_deviation_c"`
	NightDropC           float64   `yaml:"night_drop_c"`
	Norms                NormTable `yaml:"norms"`
}

// Norm is the usual range of temperature and humidity for one season and
// time of day.
type Norm struct {
	TempMinC       float64 `yaml:"temp_min_c"`
	TempMaxC       float64 `yaml:"temp_max_c"`
	HumidityMinPct float64 `yaml:"humidity_min_pct"`
	HumidityMaxPct float64 `yaml:"humidity_max_pct"`
}

func (n Norm) meanTempC() float64 { return (n.TempMinC + n.TempMaxC) / 2 }

// SeasonNorms holds a season's daylight hours (local, fractional) and its
// norm for each time of day.
type SeasonNorms struct {
	SunriseHour float64 `yaml:"sunrise_hour"`
	SunsetHour  float64 `yaml:"sunset_hour"`
	Day         Norm    `yaml:"day"`
	Evening     Norm    `yaml:"evening"`
	Night       Norm    `yaml:"night"`
}

func (s SeasonNorms) at(tod TimeOfDay) Norm {
	switch tod {
	case TimeDay:
		return s.Day
	case TimeEvening:
		return s.Evening
	default:
		return s.Night
	}
}

func (s SeasonNorms) daytime(hour float64) bool {
	return hour >= s.SunriseHour && hour < s.SunsetHour
}

type NormTable struct {
	Winter SeasonNorms `yaml:"winter"`
	Spring SeasonNorms `yaml:"spring"`
	Summer SeasonNorms `yaml:"summer"`
	Autumn SeasonNorms `yaml:"autumn"`
}

func (t NormTable) For(s Season) SeasonNorms {
	switch s {
	case SeasonWinter:
		return t.Winter
	case SeasonSpring:
		return t.Spring
	case SeasonSummer:
		return t.Summer
	default:
		return t.Autumn
	}
}

// DefaultThresholds returns the reference values of the latest classifier
// revision.
func DefaultThresholds() Thresholds {
	return Thresholds{
		HeatExtremeC: 35,
		HeatHighC:    30,
		ColdExtremeC: -10,

		VeryWarmC: 30,
		WarmC:     25,
		ColdC:     0,
		CoolC:     10,

		UVExtreme:  11,
		UVVeryHigh: 8,
		UVHigh:     6,

		PressureLowHPa:  1000,
		PressureHighHPa: 1020,

		VeryHumidPct: 80,
		HumidPct:     60,
		DryPct:       30,

		WindyMS:      10,
		BreezyMS:     5,
		StrongWindMS: 10,
		StrongGustMS: 15,
		GustFactor:   1.5,

		LightRainMMH:    2.5,
		ModerateRainMMH: 7.5,

		TrendWindow:       12,
		TrendRapidRate:    0.5,
		TrendModerateRate: 0.2,

		SnowMaxTempC:          0,
		SnowMinHumidityPct:    80,
		SnowPressureMinHPa:    995,
		SnowPressureMaxHPa:    1015,
		SnowFallingPressure:   1010,
		SnowLikelyProbability: 0.5,

		HeatIndexEnabled:  true,
		HeatIndexDangerC:  40,
		HeatIndexCautionC: 35,

		MuggyTempC:       30,
		MuggyHumidityPct: 60,

		NormsEnabled:         true,
		NormDeviationC:       3,
		NormStrongDeviationC: 5,
		NightDropC:           8,
		Norms:                defaultNorms(),
	}
}

// defaultNorms are the climate normals of a continental station around
// 43°N (Niš, Serbia).
func defaultNorms() NormTable {
	return NormTable{
		Winter: SeasonNorms{
			SunriseHour: 7, SunsetHour: 16,

			Day:     Norm{TempMinC: 0, TempMaxC: 8, HumidityMinPct: 65, HumidityMaxPct: 85},
			Evening: Norm{TempMinC: -1, TempMaxC: 5, HumidityMinPct: 70, HumidityMaxPct: 88},
			Night:   Norm{TempMinC: -2, TempMaxC: 4, HumidityMinPct: 75, HumidityMaxPct: 90},
		},
		Spring: SeasonNorms{
			SunriseHour: 5.5, SunsetHour: 19,

			Day:     Norm{TempMinC: 12, TempMaxC: 22, HumidityMinPct: 55, HumidityMaxPct: 75},
			Evening: Norm{TempMinC: 10, TempMaxC: 18, HumidityMinPct: 60, HumidityMaxPct: 80},
			Night:   Norm{TempMinC: 8, TempMaxC: 15, HumidityMinPct: 65, HumidityMaxPct: 85},
		},
		Summer: SeasonNorms{
			SunriseHour: 5, SunsetHour: 20.5,

			Day:     Norm{TempMinC: 20, TempMaxC: 32, HumidityMinPct: 45, HumidityMaxPct: 65},
			Evening: Norm{TempMinC: 18, TempMaxC: 28, HumidityMinPct: 50, HumidityMaxPct: 70},
			Night:   Norm{TempMinC: 15, TempMaxC: 25, HumidityMinPct: 55, HumidityMaxPct: 75},
		},
		Autumn: SeasonNorms{
			SunriseHour: 6, SunsetHour: 17.5,

			Day:     Norm{TempMinC: 10, TempMaxC: 20, HumidityMinPct: 60, HumidityMaxPct: 80},
			Evening: Norm{TempMinC: 8, TempMaxC: 17, HumidityMinPct: 65, HumidityMaxPct: 83},
			Night:   Norm{TempMinC: 5, TempMaxC: 15, HumidityMinPct: 70, HumidityMaxPct: 85},
		},
	}
}

// LoadThresholds reads a YAML file and overlays it onto DefaultThresholds.
// Keys missing from the file keep their default; unknown keys are an
// error. An empty path returns the defaults.
func LoadThresholds(path string) (Thresholds, error) {
	t := DefaultThresholds()
	if path == "" {
		return t, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Thresholds{}, fmt.Errorf("read thresholds %s: %w", path, err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&t); err != nil && !errors.Is(err, io.EOF) {
		return Thresholds{}, fmt.Errorf("parse thresholds %s: %w", path, err)
	}
	if err := t.Validate(); err != nil {
		return Thresholds{}, fmt.Errorf("thresholds %s: %w", path, err)
	}
	return t, nil
}

// Validate checks that cascaded thresholds are ordered so that every
// branch of a cascade is reachable.
func (t Thresholds) Validate() error {
	checks := []struct {
		ok  bool
		msg string
	}{
		{t.HeatExtremeC >= t.HeatHighC, "heat_extreme_c must be >= heat_high_c"},
		{t.ColdExtremeC < t.HeatHighC, "cold_extreme_c must be < heat_high_c"},
		{t.VeryWarmC >= t.WarmC, "very_warm_c must be >= warm_c"},
		{t.ColdC <= t.CoolC, "cold_c must be <= cool_c"},
		{t.UVExtreme >= t.UVVeryHigh && t.UVVeryHigh >= t.UVHigh, "uv thresholds must satisfy extreme >= very_high >= high"},
		{t.PressureLowHPa < t.PressureHighHPa, "pressure_low_hpa must be < pressure_high_hpa"},
		{t.VeryHumidPct >= t.HumidPct && t.HumidPct > t.DryPct, "humidity thresholds must satisfy very_humid >= humid > dry"},
		{t.WindyMS >= t.BreezyMS, "windy_ms must be >= breezy_ms"},
		{t.GustFactor >= 1, "gust_factor must be >= 1"},
		{t.LightRainMMH <= t.ModerateRainMMH, "light_rain_mmh must be <= moderate_rain_mmh"},
		{t.TrendWindow >= 2, "trend_window must be >= 2"},
		{t.TrendRapidRate >= t.TrendModerateRate && t.TrendModerateRate > 0, "trend rates must satisfy rapid >= moderate > 0"},
		{t.SnowPressureMinHPa < t.SnowPressureMaxHPa, "snow pressure band min must be < max"},
		{t.SnowLikelyProbability >= 0 && t.SnowLikelyProbability <= 1, "snow_likely_probability must be within [0,1]"},
		{t.HeatIndexDangerC >= t.HeatIndexCautionC, "heat_index_danger_c must be >= heat_index_caution_c"},
		{t.NormStrongDeviationC >= t.NormDeviationC && t.NormDeviationC > 0, "norm deviations must satisfy strong >= normal > 0"},
		{t.NightDropC > 0, "night_drop_c must be > 0"},
	}
	for _, c := range checks {
		if !c.ok {
			return fmt.Errorf("%w: %s", ErrInvalidThresholds, c.msg)
		}
	}
	for _, s := range []Season{SeasonWinter, SeasonSpring, SeasonSummer, SeasonAutumn} {
		if err := t.Norms.For(s).validate(); err != nil {
			return fmt.Errorf("%w: norms.%s: %v", ErrInvalidThresholds, s, err)
		}
	}
	return nil
}

func (s SeasonNorms) validate() error {
	if !(s.SunriseHour >= 0 && s.SunriseHour < s.SunsetHour && s.SunsetHour <= 24) {
		return errors.New("daylight must satisfy 0 <= sunrise_hour < sunset_hour <= 24")
	}
	for _, tod := range []TimeOfDay{TimeDay, TimeEvening, TimeNight} {
		n := s.at(tod)
		if n.TempMinC > n.TempMaxC {
			return fmt.Errorf("%s: temp_min_c must be <= temp_max_c", tod)
		}
		if n.HumidityMinPct > n.HumidityMaxPct {
			return fmt.Errorf("%s: humidity_min_pct must be <= humidity_max_pct", tod)
		}
	}
	return nil
}
