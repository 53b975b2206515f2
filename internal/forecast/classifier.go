package forecast

import (
	"cmp"
	"slices"
	"strings"
)

const conditionSeparator = ", "

// Classifier turns a sensor snapshot into a Prediction. It holds no
// mutable state; one value is safe for concurrent use.
type Classifier struct {
	th  Thresholds
	cat *Catalog
}

// NewClassifier returns a classifier using th and cat. A nil catalog uses
// the built-in messages with English as the default.
func NewClassifier(th Thresholds, cat *Catalog) *Classifier {
	if cat == nil {
		cat = NewCatalog(DefaultLang)
	}
	return &Classifier{th: th, cat: cat}
}

func (c *Classifier) Catalog() *Catalog { return c.cat }

// Classify evaluates the rule table against in. It returns false when
// temperature, humidity and pressure are all absent. Other missing inputs
// only disable the rules that read them.
func (c *Classifier) Classify(in Input) (Prediction, bool) {
	snap := in.Snapshot
	if !snap.Has(KindTemperature) && !snap.Has(KindHumidity) && !snap.Has(KindPressure) {
		return Prediction{}, false
	}

	season := SeasonOf(in.Now)
	tod := TimeOfDayOf(in.Now)
	norms := c.th.Norms.For(season)
	f := &facts{
		snap:    snap,
		th:      c.th,
		season:  season,
		norm:    norms.at(tod),
		daytime: norms.daytime(hourOfDay(in.Now)),
	}
	if tr, ok := PressureTrend(in.PressureHistory, c.th.TrendWindow, c.th.TrendRapidRate, c.th.TrendModerateRate); ok {
		f.trend = &tr
	}
	temp, hasTemp := snap.Value(KindTemperature)
	hum, hasHum := snap.Value(KindHumidity)
	pres, hasPres := snap.Value(KindPressure)

	if c.th.HeatIndexEnabled && hasTemp && hasHum {
		hi := HeatIndexC(temp, hum)
		f.heatIndex = &hi
	}
	if f.season == SeasonWinter && hasTemp && hasHum && hasPres && f.trend != nil &&
		snowConditions(c.th, temp, hum, pres) {
		p := SnowProbability(c.th, temp, hum, pres, *f.trend)
		f.snow = &SnowAssessment{Probability: p, Likely: p > c.th.SnowLikelyProbability}
	}

	lang := c.cat.Resolve(in.Lang)
	pred := Prediction{
		Conditions: []RuleID{},
		Warnings:   []Warning{},
		Season:     f.season,
		TimeOfDay:  tod,
		Daytime:    f.daytime,
		Trend:      f.trend,
		HeatIndexC: f.heatIndex,
		Snow:       f.snow,
	}

	words := make([]string, 0, 4)
	for _, fr := range evaluate(conditionRules, f) {
		pred.Conditions = append(pred.Conditions, fr.rule.id)
		words = append(words, c.cat.Message(lang, fr.rule.id))
	}
	if len(words) == 0 {
		words = append(words, c.cat.Message(lang, CondStable))
	}
	pred.CurrentCondition = strings.Join(words, conditionSeparator)

	for _, fr := range evaluate(warningRules, f) {
		pred.Warnings = append(pred.Warnings, Warning{
			ID:       fr.rule.id,
			Message:  c.cat.Message(lang, fr.rule.id, fr.args...),
			Severity: fr.rule.severity,
			Priority: fr.rule.priority,
		})
	}
	slices.SortStableFunc(pred.Warnings, func(a, b Warning) int {
		return cmp.Compare(a.Priority, b.Priority)
	})

	return pred, true
}
