package forecast

import (
	"reflect"
	"strings"
	"testing"
	"time"
)

var (
	winter = time.Date(2025, time.January, 15, 8, 0, 0, 0, time.UTC)
	spring = time.Date(2025, time.April, 10, 12, 0, 0, 0, time.UTC)
	summer = time.Date(2025, time.July, 20, 15, 0, 0, 0, time.UTC)
)

func snapshotOf(values map[Kind]float64) Snapshot {
	s := NewSnapshot()
	for k, v := range values {
		s.Set(k, v)
	}
	return s
}

func findWarning(p Prediction, id RuleID) (Warning, bool) {
	for _, w := range p.Warnings {
		if w.ID == id {
			return w, true
		}
	}
	return Warning{}, false
}

func newTestClassifier() *Classifier {
	return NewClassifier(DefaultThresholds(), NewCatalog("en"))
}

func TestClassifyNoData(t *testing.T) {
	c := newTestClassifier()

	tests := []struct {
		name string
		snap Snapshot
	}{
		{"empty", NewSnapshot()},
		{"zero value", Snapshot{}},
		{"only wind and uv", snapshotOf(map[Kind]float64{KindWindSpeed: 12, KindUVIndex: 9, KindRain: 3})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, ok := c.Classify(Input{Snapshot: tt.snap, Now: spring}); ok {
				t.Fatalf("Classify ok = true; want false")
			}
		})
	}
}

func TestClassifyPartialBaseline(t *testing.T) {
	c := newTestClassifier()
	p, ok := c.Classify(Input{
		Snapshot: snapshotOf(map[Kind]float64{KindPressure: 995}),
		Now:      spring,
	})
	if !ok {
		t.Fatalf("Classify ok = false; want true")
	}
	if _, found := findWarning(p, RulePressureLow); !found {
		t.Errorf("warnings = %v; want %s", p.Warnings, RulePressureLow)
	}
	if p.CurrentCondition != "stable" {
		t.Errorf("CurrentCondition = %q; want stable", p.CurrentCondition)
	}
	if p.HeatIndexC != nil {
		t.Errorf("HeatIndexC = %v; want nil without temperature", *p.HeatIndexC)
	}
}

func TestClassifyExtremeHeat(t *testing.T) {
	c := newTestClassifier()
	p, ok := c.Classify(Input{
		Snapshot: snapshotOf(map[Kind]float64{KindTemperature: 36, KindHumidity: 50, KindPressure: 1013}),
		Now:      spring,
	})
	if !ok {
		t.Fatalf("Classify ok = false; want true")
	}

	w, found := findWarning(p, RuleHeatExtreme)
	if !found {
		t.Fatalf("warnings = %v; want %s", p.Warnings, RuleHeatExtreme)
	}
	if w.Severity != SeverityHigh || w.Priority != 1 {
		t.Errorf("heat warning = %s/%d; want high/1", w.Severity, w.Priority)
	}
	if _, found := findWarning(p, RuleHeatHigh); found {
		t.Errorf("%s fired alongside %s", RuleHeatHigh, RuleHeatExtreme)
	}
	if _, found := findWarning(p, RuleHeatIndexDanger); !found {
		t.Errorf("warnings = %v; want %s", p.Warnings, RuleHeatIndexDanger)
	}
	if p.CurrentCondition != "very warm" {
		t.Errorf("CurrentCondition = %q; want very warm", p.CurrentCondition)
	}
	if !strings.Contains(w.Message, "36.0") {
		t.Errorf("Message = %q; want it to mention 36.0", w.Message)
	}
}

func TestClassifyUV(t *testing.T) {
	c := newTestClassifier()
	// 26°C is the summer daytime norm, so only uv rules can fire.
	base := map[Kind]float64{KindTemperature: 26, KindHumidity: 50, KindPressure: 1013}

	classify := func(uv float64) Prediction {
		values := map[Kind]float64{KindUVIndex: uv}
		for k, v := range base {
			values[k] = v
		}
		p, _ := c.Classify(Input{Snapshot: snapshotOf(values), Now: summer})
		return p
	}

	veryHigh, found := findWarning(classify(9), RuleUVVeryHigh)
	if !found {
		t.Fatalf("uv=9: no %s warning", RuleUVVeryHigh)
	}
	if veryHigh.Severity != SeverityHigh {
		t.Errorf("uv=9 severity = %s; want high", veryHigh.Severity)
	}
	high, found := findWarning(classify(6), RuleUVHigh)
	if !found {
		t.Fatalf("uv=6: no %s warning", RuleUVHigh)
	}
	if high.Severity != SeverityMedium {
		t.Errorf("uv=6 severity = %s; want medium", high.Severity)
	}
	if veryHigh.Priority > high.Priority {
		t.Errorf("uv=9 priority %d; want <= uv=6 priority %d", veryHigh.Priority, high.Priority)
	}

	extreme := classify(11)
	if _, found := findWarning(extreme, RuleUVExtreme); !found {
		t.Errorf("uv=11: no %s warning", RuleUVExtreme)
	}
	if len(extreme.Warnings) != 1 {
		t.Errorf("uv=11 warnings = %v; want exactly one uv warning", extreme.Warnings)
	}
	if w := classify(5).Warnings; len(w) != 0 {
		t.Errorf("uv=5 warnings = %v; want none", w)
	}
}

func TestClassifyPressure(t *testing.T) {
	c := newTestClassifier()
	tests := []struct {
		pressure float64
		want     []RuleID
	}{
		{995, []RuleID{RulePressureLow}},
		{1025, []RuleID{RulePressureHigh}},
		{1010, nil},
	}
	for _, tt := range tests {
		p, ok := c.Classify(Input{
			Snapshot: snapshotOf(map[Kind]float64{KindTemperature: 20, KindHumidity: 50, KindPressure: tt.pressure}),
			Now:      spring,
		})
		if !ok {
			t.Fatalf("pressure=%v: ok = false", tt.pressure)
		}
		var got []RuleID
		for _, w := range p.Warnings {
			got = append(got, w.ID)
		}
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("pressure=%v warnings = %v; want %v", tt.pressure, got, tt.want)
		}
	}
}

func TestClassifySnow(t *testing.T) {
	c := newTestClassifier()
	falling := []float64{1008, 1007, 1006, 1005}

	t.Run("likely in band with falling trend", func(t *testing.T) {
		p, ok := c.Classify(Input{
			Snapshot:        snapshotOf(map[Kind]float64{KindTemperature: -3, KindHumidity: 90, KindPressure: 1005}),
			PressureHistory: falling,
			Now:             winter,
		})
		if !ok {
			t.Fatalf("ok = false")
		}
		if p.Snow == nil {
			t.Fatalf("Snow = nil; want assessment")
		}
		if p.Snow.Probability <= 0.5 || !p.Snow.Likely {
			t.Errorf("Snow = %+v; want probability > 0.5 and likely", *p.Snow)
		}
		w, found := findWarning(p, RuleSnowLikely)
		if !found {
			t.Fatalf("warnings = %v; want %s", p.Warnings, RuleSnowLikely)
		}
		if w.Severity != SeverityHigh {
			t.Errorf("snow severity = %s; want high", w.Severity)
		}
		if _, found := findWarning(p, RuleSnowPossible); found {
			t.Errorf("%s fired alongside %s", RuleSnowPossible, RuleSnowLikely)
		}
		if want := "cold, very humid, high chance of snow"; p.CurrentCondition != want {
			t.Errorf("CurrentCondition = %q; want %q", p.CurrentCondition, want)
		}
	})

	t.Run("outside pressure band", func(t *testing.T) {
		p, _ := c.Classify(Input{
			Snapshot:        snapshotOf(map[Kind]float64{KindTemperature: -3, KindHumidity: 90, KindPressure: 1018}),
			PressureHistory: []float64{1021, 1020, 1019, 1018},
			Now:             winter,
		})
		if p.Snow != nil {
			t.Errorf("Snow = %+v; want nil", *p.Snow)
		}
		for _, id := range []RuleID{RuleSnowLikely, RuleSnowPossible} {
			if _, found := findWarning(p, id); found {
				t.Errorf("%s fired outside the pressure band", id)
			}
		}
	})

	t.Run("possible without falling pressure", func(t *testing.T) {
		p, _ := c.Classify(Input{
			Snapshot:        snapshotOf(map[Kind]float64{KindTemperature: -0.5, KindHumidity: 82, KindPressure: 1005}),
			PressureHistory: []float64{1005, 1005, 1005},
			Now:             winter,
		})
		if p.Snow == nil || p.Snow.Likely {
			t.Fatalf("Snow = %+v; want possible", p.Snow)
		}
		if w, found := findWarning(p, RuleSnowPossible); !found || w.Severity != SeverityMedium {
			t.Errorf("warnings = %v; want medium %s", p.Warnings, RuleSnowPossible)
		}
	})

	t.Run("not in summer", func(t *testing.T) {
		p, _ := c.Classify(Input{
			Snapshot:        snapshotOf(map[Kind]float64{KindTemperature: -3, KindHumidity: 90, KindPressure: 1005}),
			PressureHistory: falling,
			Now:             summer,
		})
		if p.Snow != nil {
			t.Errorf("Snow = %+v; want nil outside winter", *p.Snow)
		}
	})

	t.Run("not without history", func(t *testing.T) {
		p, _ := c.Classify(Input{
			Snapshot: snapshotOf(map[Kind]float64{KindTemperature: -3, KindHumidity: 90, KindPressure: 1005}),
			Now:      winter,
		})
		if p.Snow != nil {
			t.Errorf("Snow = %+v; want nil without a trend", *p.Snow)
		}
	})
}

func TestClassifyWarningsSorted(t *testing.T) {
	c := newTestClassifier()
	p, ok := c.Classify(Input{
		Snapshot: snapshotOf(map[Kind]float64{
			KindTemperature: 36,
			KindPressure:    995,
			KindUVIndex:     7,
			KindWindSpeed:   12,
			KindWindGust:    20,
			KindRain:        8,
		}),
		PressureHistory: []float64{1000, 1000.3, 1000.6},
		Now:             spring,
	})
	if !ok {
		t.Fatalf("ok = false")
	}

	for i := 1; i < len(p.Warnings); i++ {
		if p.Warnings[i-1].Priority > p.Warnings[i].Priority {
			t.Fatalf("warnings not sorted at %d: %v", i, p.Warnings)
		}
	}

	want := []RuleID{
		RuleHeatExtreme,
		RuleWindGusts,
		RuleTrendModerateRise,
		RuleWindStrong,
		RuleRainHeavy,
		RuleNormFarAbove,
		RuleUVHigh,
		RulePressureLow,
	}
	var got []RuleID
	for _, w := range p.Warnings {
		got = append(got, w.ID)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("warning order = %v; want %v", got, want)
	}

	// Warnings of equal priority keep the order of the rule table.
	tableIndex := make(map[RuleID]int, len(warningRules))
	for i, r := range warningRules {
		tableIndex[r.id] = i
	}
	for i := 1; i < len(p.Warnings); i++ {
		prev, cur := p.Warnings[i-1], p.Warnings[i]
		if prev.Priority == cur.Priority && tableIndex[prev.ID] > tableIndex[cur.ID] {
			t.Errorf("equal priority %d: %s before %s; want table order", cur.Priority, prev.ID, cur.ID)
		}
	}
}

func TestClassifyWarningsTiesKeepTableOrder(t *testing.T) {
	c := newTestClassifier()
	// Every warning here has priority 1.
	p, ok := c.Classify(Input{
		Snapshot: snapshotOf(map[Kind]float64{
			KindTemperature: 36,
			KindHumidity:    50,
			KindUVIndex:     11,
			KindWindSpeed:   4,
			KindWindGust:    20,
		}),
		Now: spring,
	})
	if !ok {
		t.Fatalf("ok = false")
	}

	var got []RuleID
	for _, w := range p.Warnings {
		if w.Priority == 1 {
			got = append(got, w.ID)
		}
	}
	want := []RuleID{RuleHeatExtreme, RuleUVExtreme, RuleHeatIndexDanger, RuleWindGusts}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("priority-1 order = %v; want %v", got, want)
	}
}

func TestClassifyNorms(t *testing.T) {
	c := newTestClassifier()
	winterNight := time.Date(2025, time.January, 15, 23, 0, 0, 0, time.UTC)
	winterDusk := time.Date(2025, time.January, 15, 17, 0, 0, 0, time.UTC)
	summerEvening := time.Date(2025, time.July, 20, 19, 0, 0, 0, time.UTC)
	summerNight := time.Date(2025, time.July, 20, 23, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		values      map[Kind]float64
		now         time.Time
		want        []RuleID
		wantTime    TimeOfDay
		wantDaytime bool
	}{
		{"within norm", map[Kind]float64{KindTemperature: 19}, spring, nil, TimeDay, true},
		{"above norm", map[Kind]float64{KindTemperature: 21}, spring, []RuleID{RuleNormAbove}, TimeDay, true},
		{"far above norm", map[Kind]float64{KindTemperature: 23}, spring, []RuleID{RuleNormFarAbove}, TimeDay, true},
		{"below norm", map[Kind]float64{KindTemperature: 13}, spring, []RuleID{RuleNormBelow}, TimeDay, true},
		{
			"cold humid winter night",
			map[Kind]float64{KindTemperature: -5, KindHumidity: 95},
			winterNight,
			[]RuleID{RuleNormFarBelow, RuleNightTempDrop, RuleNightDewFog},
			TimeNight, false,
		},
		{
			"winter dusk counts as night for dew",
			map[Kind]float64{KindTemperature: 4, KindHumidity: 88},
			winterDusk,
			[]RuleID{RuleNightDewFog},
			TimeDay, false,
		},
		{
			"hot summer afternoon",
			map[Kind]float64{KindTemperature: 33, KindHumidity: 40},
			summer,
			[]RuleID{RuleDaytimeHeat, RuleNormFarAbove},
			TimeDay, true,
		},
		{
			"summer evening before sunset",
			map[Kind]float64{KindTemperature: 23, KindHumidity: 80},
			summerEvening,
			nil,
			TimeEvening, true,
		},
		{
			"humid summer night",
			map[Kind]float64{KindTemperature: 20, KindHumidity: 80},
			summerNight,
			[]RuleID{RuleNightDewFog},
			TimeNight, false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, ok := c.Classify(Input{Snapshot: snapshotOf(tt.values), Now: tt.now})
			if !ok {
				t.Fatalf("ok = false")
			}
			var got []RuleID
			for _, w := range p.Warnings {
				if strings.HasPrefix(string(w.ID), "norm.") {
					got = append(got, w.ID)
				}
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("norm warnings = %v; want %v", got, tt.want)
			}
			if p.TimeOfDay != tt.wantTime || p.Daytime != tt.wantDaytime {
				t.Errorf("time = %s/daytime %v; want %s/%v", p.TimeOfDay, p.Daytime, tt.wantTime, tt.wantDaytime)
			}
		})
	}
}

func TestClassifyNormSeverity(t *testing.T) {
	c := newTestClassifier()
	classify := func(temp float64, now time.Time) Prediction {
		p, _ := c.Classify(Input{Snapshot: snapshotOf(map[Kind]float64{KindTemperature: temp}), Now: now, Lang: "sr"})
		return p
	}

	tests := []struct {
		name     string
		p        Prediction
		id       RuleID
		severity Severity
		priority int
		message  string
	}{
		{"above", classify(21, spring), RuleNormAbove, SeverityMedium, 2, "iznad proseka za ovo doba dana (+4.0°C)"},
		{"far below", classify(10, spring), RuleNormFarBelow, SeverityHigh, 2, "ispod proseka za ovo doba dana (-7.0°C)"},
		{"daytime heat", classify(33, summer), RuleDaytimeHeat, SeverityHigh, 1, "Visoke dnevne temperature (33.0°C)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, found := findWarning(tt.p, tt.id)
			if !found {
				t.Fatalf("warnings = %v; want %s", tt.p.Warnings, tt.id)
			}
			if w.Severity != tt.severity || w.Priority != tt.priority {
				t.Errorf("%s = %s/%d; want %s/%d", tt.id, w.Severity, w.Priority, tt.severity, tt.priority)
			}
			if !strings.Contains(w.Message, tt.message) {
				t.Errorf("Message = %q; want it to contain %q", w.Message, tt.message)
			}
		})
	}
}

func TestClassifyNormsDisabled(t *testing.T) {
	th := DefaultThresholds()
	th.NormsEnabled = false
	c := NewClassifier(th, nil)

	p, _ := c.Classify(Input{
		Snapshot: snapshotOf(map[Kind]float64{KindTemperature: -5, KindHumidity: 95}),
		Now:      time.Date(2025, time.January, 15, 23, 0, 0, 0, time.UTC),
	})
	for _, w := range p.Warnings {
		if strings.HasPrefix(string(w.ID), "norm.") {
			t.Errorf("%s fired with norms disabled", w.ID)
		}
	}
	if p.TimeOfDay != TimeNight {
		t.Errorf("TimeOfDay = %s; want night", p.TimeOfDay)
	}
}

func TestClassifyIsPure(t *testing.T) {
	c := newTestClassifier()
	in := Input{
		Snapshot:        snapshotOf(map[Kind]float64{KindTemperature: -3, KindHumidity: 90, KindPressure: 1005, KindUVIndex: 2}),
		PressureHistory: []float64{1008, 1007, 1006, 1005},
		Now:             winter,
		Lang:            "sr",
	}
	first, ok1 := c.Classify(in)
	second, ok2 := c.Classify(in)
	if ok1 != ok2 || !reflect.DeepEqual(first, second) {
		t.Fatalf("second call differs:\n%+v\n%+v", first, second)
	}
}

func TestClassifyConditionWords(t *testing.T) {
	c := newTestClassifier()
	tests := []struct {
		name   string
		values map[Kind]float64
		now    time.Time
		want   string
	}{
		{"warm", map[Kind]float64{KindTemperature: 26}, spring, "warm"},
		{"cold", map[Kind]float64{KindTemperature: -1}, spring, "cold"},
		{"cool", map[Kind]float64{KindTemperature: 5}, spring, "cool"},
		{"pleasant", map[Kind]float64{KindTemperature: 20}, spring, "pleasant"},
		{"very humid", map[Kind]float64{KindTemperature: 20, KindHumidity: 85}, spring, "pleasant, very humid"},
		{"dry", map[Kind]float64{KindHumidity: 25}, spring, "dry"},
		{"windy", map[Kind]float64{KindTemperature: 20, KindWindSpeed: 12}, spring, "pleasant, windy"},
		{"breezy", map[Kind]float64{KindTemperature: 20, KindWindSpeed: 6}, spring, "pleasant, breezy"},
		{"strong gusts", map[Kind]float64{KindTemperature: 20, KindWindSpeed: 12, KindWindGust: 20}, spring, "pleasant, windy, strong gusts"},
		{"light rain", map[Kind]float64{KindTemperature: 20, KindRain: 1}, spring, "pleasant, light rain"},
		{"moderate rain", map[Kind]float64{KindTemperature: 20, KindRain: 5}, spring, "pleasant, moderate rain"},
		{"heavy rain", map[Kind]float64{KindTemperature: 20, KindRain: 9}, spring, "pleasant, heavy rain"},
		{"no rain", map[Kind]float64{KindTemperature: 20, KindRain: 0}, spring, "pleasant"},
		{"muggy in summer", map[Kind]float64{KindTemperature: 31, KindHumidity: 65}, summer, "very warm, humid, muggy"},
		{"not muggy in spring", map[Kind]float64{KindTemperature: 31, KindHumidity: 65}, spring, "very warm, humid"},
		{"stable", map[Kind]float64{KindPressure: 1010}, spring, "stable"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, ok := c.Classify(Input{Snapshot: snapshotOf(tt.values), Now: tt.now})
			if !ok {
				t.Fatalf("ok = false")
			}
			if p.CurrentCondition != tt.want {
				t.Errorf("CurrentCondition = %q; want %q", p.CurrentCondition, tt.want)
			}
		})
	}
}

func TestClassifyLanguage(t *testing.T) {
	c := newTestClassifier()
	in := Input{
		Snapshot: snapshotOf(map[Kind]float64{KindTemperature: 36, KindHumidity: 50}),
		Now:      spring,
	}

	in.Lang = "sr"
	p, _ := c.Classify(in)
	if p.CurrentCondition != "veoma toplo" {
		t.Errorf("sr CurrentCondition = %q; want veoma toplo", p.CurrentCondition)
	}
	if w, _ := findWarning(p, RuleHeatExtreme); !strings.HasPrefix(w.Message, "Ekstremna vrućina") {
		t.Errorf("sr heat message = %q", w.Message)
	}

	in.Lang = "de"
	p, _ = c.Classify(in)
	if p.CurrentCondition != "very warm" {
		t.Errorf("unknown lang CurrentCondition = %q; want very warm", p.CurrentCondition)
	}
}

func TestClassifyCustomThresholds(t *testing.T) {
	th := DefaultThresholds()
	th.HeatExtremeC = 32
	th.HeatIndexEnabled = false
	c := NewClassifier(th, nil)

	p, _ := c.Classify(Input{
		Snapshot: snapshotOf(map[Kind]float64{KindTemperature: 33, KindHumidity: 70}),
		Now:      spring,
	})
	if _, found := findWarning(p, RuleHeatExtreme); !found {
		t.Errorf("warnings = %v; want %s at 33°C with heat_extreme_c=32", p.Warnings, RuleHeatExtreme)
	}
	if p.HeatIndexC != nil {
		t.Errorf("HeatIndexC = %v; want nil when disabled", *p.HeatIndexC)
	}
}
