package forecast

const (
	RuleHeatExtreme       RuleID = "heat.extreme"
	RuleHeatHigh          RuleID = "heat.high"
	RuleColdExtreme       RuleID = "cold.extreme"
	RuleUVExtreme         RuleID = "uv.extreme"
	RuleUVVeryHigh        RuleID = "uv.very_high"
	RuleUVHigh            RuleID = "uv.high"
	RulePressureLow       RuleID = "pressure.low"
	RulePressureHigh      RuleID = "pressure.high"
	RuleTrendRapidRise    RuleID = "trend.rapid_rise"
	RuleTrendRapidFall    RuleID = "trend.rapid_fall"
	RuleTrendModerateRise RuleID = "trend.moderate_rise"
	RuleTrendModerateFall RuleID = "trend.moderate_fall"
	RuleSnowLikely        RuleID = "snow.likely"
	RuleSnowPossible      RuleID = "snow.possible"
	RuleHeatIndexDanger   RuleID = "heat_index.danger"
	RuleHeatIndexCaution  RuleID = "heat_index.caution"
	RuleWindStrong        RuleID = "wind.strong"
	RuleWindGusts         RuleID = "wind.gusts"
	RuleRainHeavy         RuleID = "rain.heavy"
	RuleNormFarAbove      RuleID = "norm.far_above"
	RuleNormFarBelow      RuleID = "norm.far_below"
	RuleNormAbove         RuleID = "norm.above"
	RuleNormBelow         RuleID = "norm.below"
	RuleNightTempDrop     RuleID = "norm.night_drop"
	RuleNightDewFog       RuleID = "norm.dew_fog"
	RuleDaytimeHeat       RuleID = "norm.daytime_heat"
)

// Condition words.
const (
	CondVeryWarm     RuleID = "cond.very_warm"
	CondWarm         RuleID = "cond.warm"
	CondCold         RuleID = "cond.cold"
	CondCool         RuleID = "cond.cool"
	CondPleasant     RuleID = "cond.pleasant"
	CondVeryHumid    RuleID = "cond.very_humid"
	CondHumid        RuleID = "cond.humid"
	CondDry          RuleID = "cond.dry"
	CondWindy        RuleID = "cond.windy"
	CondBreezy       RuleID = "cond.breezy"
	CondStrongGusts  RuleID = "cond.strong_gusts"
	CondLightRain    RuleID = "cond.light_rain"
	CondModerateRain RuleID = "cond.moderate_rain"
	CondHeavyRain    RuleID = "cond.heavy_rain"
	CondSnowLikely   RuleID = "cond.snow_likely"
	CondSnowPossible RuleID = "cond.snow_possible"
	CondMuggy        RuleID = "cond.muggy"
	CondStable       RuleID = "cond.stable"
)

// facts is the evaluated view of one Input that rule predicates read.
type facts struct {
	snap      Snapshot
	th        Thresholds
	season    Season
	trend     *Trend
	heatIndex *float64
	snow      *SnowAssessment
	// norm is the climate norm for season and time of day; daytime is
	// true between that season's sunrise and sunset.
	norm      Norm
	daytime   bool
}

// matchFunc reports whether a rule fires and, if so, the arguments of its
// message template.
type matchFunc func(f *facts) ([]any, bool)

// rule is one row of the table. Rules sharing a non-empty group are
// exclusive: only the first matching one in table order fires.
type rule struct {
	id       RuleID
	group    string
	severity Severity
	priority int
	match    matchFunc
}

type limit func(Thresholds) float64

func above(k Kind, l limit) matchFunc {
	return func(f *facts) ([]any, bool) {
		v, ok := f.snap.Value(k)
		if !ok || !(v > l(f.th)) {
			return nil, false
		}
		return []any{v}, true
	}
}

func atLeast(k Kind, l limit) matchFunc {
	return func(f *facts) ([]any, bool) {
		v, ok := f.snap.Value(k)
		if !ok || !(v >= l(f.th)) {
			return nil, false
		}
		return []any{v}, true
	}
}

func below(k Kind, l limit) matchFunc {
	return func(f *facts) ([]any, bool) {
		v, ok := f.snap.Value(k)
		if !ok || !(v < l(f.th)) {
			return nil, false
		}
		return []any{v}, true
	}
}

func present(k Kind) matchFunc {
	return func(f *facts) ([]any, bool) {
		v, ok := f.snap.Value(k)
		if !ok {
			return nil, false
		}
		return []any{v}, true
	}
}

func trendRule(dir TrendDirection, strength TrendStrength) matchFunc {
	return func(f *facts) ([]any, bool) {
		if f.trend == nil || f.trend.Direction != dir || f.trend.Strength != strength {
			return nil, false
		}
		return []any{f.trend.Change}, true
	}
}

func snowRule(likely bool) matchFunc {
	return func(f *facts) ([]any, bool) {
		if f.snow == nil || f.snow.Likely != likely {
			return nil, false
		}
		return []any{f.snow.Probability * 100}, true
	}
}

func heatIndexAbove(l limit) matchFunc {
	return func(f *facts) ([]any, bool) {
		if f.heatIndex == nil || !(*f.heatIndex > l(f.th)) {
			return nil, false
		}
		return []any{*f.heatIndex}, true
	}
}

var warningRules = []rule{
	{RuleHeatExtreme, "temperature", SeverityHigh, 1, above(KindTemperature, func(t Thresholds) float64 { return t.HeatExtremeC })},
	{RuleHeatHigh, "temperature", SeverityMedium, 2, above(KindTemperature, func(t Thresholds) float64 { return t.HeatHighC })},
	{RuleColdExtreme, "temperature", SeverityHigh, 1, below(KindTemperature, func(t Thresholds) float64 { return t.ColdExtremeC })},

	{RuleUVExtreme, "uv", SeverityHigh, 1, atLeast(KindUVIndex, func(t Thresholds) float64 { return t.UVExtreme })},
	{RuleUVVeryHigh, "uv", SeverityHigh, 2, atLeast(KindUVIndex, func(t Thresholds) float64 { return t.UVVeryHigh })},
	{RuleUVHigh, "uv", SeverityMedium, 3, atLeast(KindUVIndex, func(t Thresholds) float64 { return t.UVHigh })},

	{RulePressureLow, "pressure", SeverityMedium, 3, below(KindPressure, func(t Thresholds) float64 { return t.PressureLowHPa })},
	{RulePressureHigh, "pressure", SeverityLow, 4, above(KindPressure, func(t Thresholds) float64 { return t.PressureHighHPa })},

	{RuleTrendRapidRise, "trend", SeverityLow, 1, trendRule(TrendRising, TrendRapid)},
	{RuleTrendRapidFall, "trend", SeverityHigh, 1, trendRule(TrendFalling, TrendRapid)},
	{RuleTrendModerateRise, "trend", SeverityLow, 2, trendRule(TrendRising, TrendModerate)},
	{RuleTrendModerateFall, "trend", SeverityMedium, 2, trendRule(TrendFalling, TrendModerate)},

	{RuleSnowLikely, "snow", SeverityHigh, 1, snowRule(true)},
	{RuleSnowPossible, "snow", SeverityMedium, 2, snowRule(false)},

	{RuleHeatIndexDanger, "heat_index", SeverityHigh, 1, heatIndexAbove(func(t Thresholds) float64 { return t.HeatIndexDangerC })},
	{RuleHeatIndexCaution, "heat_index", SeverityMedium, 2, heatIndexAbove(func(t Thresholds) float64 { return t.HeatIndexCautionC })},

	{RuleWindGusts, "gust", SeverityHigh, 1, above(KindWindGust, func(t Thresholds) float64 { return t.StrongGustMS })},
	{RuleWindStrong, "wind", SeverityMedium, 2, above(KindWindSpeed, func(t Thresholds) float64 { return t.StrongWindMS })},

	{RuleRainHeavy, "rain", SeverityMedium, 2, atLeast(KindRain, func(t Thresholds) float64 { return t.ModerateRainMMH })},

	{RuleNormFarAbove, "norm", SeverityHigh, 2, normDeviation(1, func(t Thresholds) float64 { return t.NormStrongDeviationC })},
	{RuleNormFarBelow, "norm", SeverityHigh, 2, normDeviation(-1, func(t Thresholds) float64 { return t.NormStrongDeviationC })},
	{RuleNormAbove, "norm", SeverityMedium, 2, normDeviation(1, func(t Thresholds) float64 { return t.NormDeviationC })},
	{RuleNormBelow, "norm", SeverityMedium, 2, normDeviation(-1, func(t Thresholds) float64 { return t.NormDeviationC })},
	{RuleNightTempDrop, "", SeverityMedium, 2, nightTempDrop},
	{RuleNightDewFog, "", SeverityLow, 3, nightDewFog},
	{RuleDaytimeHeat, "", SeverityHigh, 1, daytimeHeat},
}

var conditionRules = []rule{
	{id: CondVeryWarm, group: "temperature", match: above(KindTemperature, func(t Thresholds) float64 { return t.VeryWarmC })},
	{id: CondWarm, group: "temperature", match: above(KindTemperature, func(t Thresholds) float64 { return t.WarmC })},
	{id: CondCold, group: "temperature", match: below(KindTemperature, func(t Thresholds) float64 { return t.ColdC })},
	{id: CondCool, group: "temperature", match: below(KindTemperature, func(t Thresholds) float64 { return t.CoolC })},
	{id: CondPleasant, group: "temperature", match: present(KindTemperature)},

	{id: CondVeryHumid, group: "humidity", match: above(KindHumidity, func(t Thresholds) float64 { return t.VeryHumidPct })},
	{id: CondHumid, group: "humidity", match: above(KindHumidity, func(t Thresholds) float64 { return t.HumidPct })},
	{id: CondDry, group: "humidity", match: below(KindHumidity, func(t Thresholds) float64 { return t.DryPct })},

	{id: CondWindy, group: "wind", match: above(KindWindSpeed, func(t Thresholds) float64 { return t.WindyMS })},
	{id: CondBreezy, group: "wind", match: above(KindWindSpeed, func(t Thresholds) float64 { return t.BreezyMS })},

	{id: CondStrongGusts, group: "gust", match: strongGusts},

	{id: CondLightRain, group: "rain", match: rainBand(func(t Thresholds) float64 { return t.LightRainMMH })},
	{id: CondModerateRain, group: "rain", match: rainBand(func(t Thresholds) float64 { return t.ModerateRainMMH })},
	{id: CondHeavyRain, group: "rain", match: above(KindRain, func(Thresholds) float64 { return 0 })},

	{id: CondSnowLikely, group: "snow", match: snowRule(true)},
	{id: CondSnowPossible, group: "snow", match: snowRule(false)},

	{id: CondMuggy, group: "muggy", match: muggy},
}

func strongGusts(f *facts) ([]any, bool) {
	wind, ok := f.snap.Value(KindWindSpeed)
	if !ok || !(wind > f.th.WindyMS) {
		return nil, false
	}
	gust, ok := f.snap.Value(KindWindGust)
	if !ok || !(gust > wind*f.th.GustFactor) {
		return nil, false
	}
	return []any{gust}, true
}

// rainBand matches a positive rain rate strictly below the limit.
func rainBand(l limit) matchFunc {
	return func(f *facts) ([]any, bool) {
		v, ok := f.snap.Value(KindRain)
		if !ok || !(v > 0) || !(v < l(f.th)) {
			return nil, false
		}
		return []any{v}, true
	}
}

func muggy(f *facts) ([]any, bool) {
	if f.season != SeasonSummer {
		return nil, false
	}
	t, ok := f.snap.Value(KindTemperature)
	if !ok || !(t > f.th.MuggyTempC) {
		return nil, false
	}
	h, ok := f.snap.Value(KindHumidity)
	if !ok || !(h > f.th.MuggyHumidityPct) {
		return nil, false
	}
	return nil, true
}

// normDeviation matches a temperature further than the limit from the
// norm's mean, above it for sign 1 and below it for sign -1. The argument
// is the distance in °C.
func normDeviation(sign float64, l limit) matchFunc {
	return func(f *facts) ([]any, bool) {
		t, ok := f.snap.Value(KindTemperature)
		if !ok || !f.th.NormsEnabled {
			return nil, false
		}
		d := (t - f.norm.meanTempC()) * sign
		if !(d > l(f.th)) {
			return nil, false
		}
		return []any{d}, true
	}
}

func nightTempDrop(f *facts) ([]any, bool) {
	t, ok := f.snap.Value(KindTemperature)
	if !ok || !f.th.NormsEnabled || f.daytime || !(t-f.norm.TempMaxC < -f.th.NightDropC) {
		return nil, false
	}
	return []any{t}, true
}

func nightDewFog(f *facts) ([]any, bool) {
	h, ok := f.snap.Value(KindHumidity)
	if !ok || !f.th.NormsEnabled || f.daytime || !(h > f.norm.HumidityMaxPct) {
		return nil, false
	}
	return []any{h}, true
}

func daytimeHeat(f *facts) ([]any, bool) {
	if f.season != SeasonSummer || !f.daytime {
		return nil, false
	}
	t, ok := f.snap.Value(KindTemperature)
	if !ok || !f.th.NormsEnabled || !(t > f.norm.TempMaxC) {
		return nil, false
	}
	return []any{t}, true
}

type firing struct {
	rule rule
	args []any
}

// evaluate walks rules in table order and returns the ones that fire,
// honouring exclusive groups.
func evaluate(rules []rule, f *facts) []firing {
	var out []firing
	taken := make(map[string]bool)
	for _, r := range rules {
		if r.group != "" && taken[r.group] {
			continue
		}
		args, ok := r.match(f)
		if !ok {
			continue
		}
		if r.group != "" {
			taken[r.group] = true
		}
		out = append(out, firing{rule: r, args: args})
	}
	return out
}
