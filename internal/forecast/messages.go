package forecast

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

const DefaultLang = "en"

// Catalog maps a language to message templates keyed by rule ID.
// Templates are fmt format strings; each rule passes the same arguments
// in every language. A Catalog is read-only once built and safe for
// concurrent use.
type Catalog struct {
	defaultLang string
	messages    map[string]map[RuleID]string
}

// NewCatalog returns a catalog holding the built-in languages with
// defaultLang as the fallback. An unknown defaultLang falls back to en.
func NewCatalog(defaultLang string) *Catalog {
	c := &Catalog{
		defaultLang: DefaultLang,
		messages: map[string]map[RuleID]string{
			"en": maps.Clone(english),
			"sr": maps.Clone(serbian),
		},
	}
	if _, ok := c.messages[normalizeLang(defaultLang)]; ok {
		c.defaultLang = normalizeLang(defaultLang)
	}
	return c
}

func (c *Catalog) DefaultLang() string { return c.defaultLang }

func (c *Catalog) Languages() []string {
	return slices.Sorted(maps.Keys(c.messages))
}

// Has reports whether lang has its own table.
func (c *Catalog) Has(lang string) bool {
	_, ok := c.messages[normalizeLang(lang)]
	return ok
}

// Resolve maps lang onto a language the catalog knows.
func (c *Catalog) Resolve(lang string) string {
	if l := normalizeLang(lang); c.Has(l) {
		return l
	}
	return c.defaultLang
}

// Message renders the template for id in lang. Missing templates fall back
// to the default language and then to the rule ID itself.
func (c *Catalog) Message(lang string, id RuleID, args ...any) string {
	tmpl, ok := c.messages[c.Resolve(lang)][id]
	if !ok {
		tmpl, ok = c.messages[c.defaultLang][id]
	}
	if !ok {
		return string(id)
	}
	if len(args) == 0 {
		return tmpl
	}
	return fmt.Sprintf(tmpl, args...)
}

// normalizeLang reduces tags like "sr-Latn-RS" or "EN_us" to their
// primary subtag.
func normalizeLang(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if i := strings.IndexAny(lang, "-_"); i >= 0 {
		lang = lang[:i]
	}
	return lang
}

var english = map[RuleID]string{
	RuleHeatExtreme:       "Extreme heat (%.1f°C). Avoid the sun and stay hydrated.",
	RuleHeatHigh:          "High temperature (%.1f°C). Limit outdoor activity.",
	RuleColdExtreme:       "Extreme cold (%.1f°C). Risk of frostbite.",
	RuleUVExtreme:         "Extreme UV index (%.0f). Avoid sun exposure.",
	RuleUVVeryHigh:        "Very high UV index (%.0f). Use sun protection.",
	RuleUVHigh:            "High UV index (%.0f). Wear sunscreen.",
	RulePressureLow:       "Low pressure (%.0f hPa), rain likely.",
	RulePressureHigh:      "High pressure (%.0f hPa), stable weather.",
	RuleTrendRapidRise:    "Pressure rising rapidly (%+.1f hPa), weather improving.",
	RuleTrendRapidFall:    "Pressure falling rapidly (%+.1f hPa), storm possible.",
	RuleTrendModerateRise: "Pressure rising (%+.1f hPa), weather improving.",
	RuleTrendModerateFall: "Pressure falling (%+.1f hPa), weather deteriorating.",
	RuleSnowLikely:        "High chance of snow (%.0f%%).",
	RuleSnowPossible:      "Snow possible (%.0f%%).",
	RuleHeatIndexDanger:   "Feels like %.1f°C. Danger of heat stroke.",
	RuleHeatIndexCaution:  "Feels like %.1f°C. Take care outdoors.",
	RuleWindStrong:        "Strong wind (%.1f m/s).",
	RuleWindGusts:         "Strong wind gusts (%.1f m/s).",
	RuleRainHeavy:         "Heavy rain (%.1f mm/h).",
	RuleNormFarAbove:      "Temperature well above average for this time of day (+%.1f°C).",
	RuleNormFarBelow:      "Temperature well below average for this time of day (-%.1f°C).",
	RuleNormAbove:         "Temperature above average for this time of day (+%.1f°C).",
	RuleNormBelow:         "Temperature below average for this time of day (-%.1f°C).",
	RuleNightTempDrop:     "Sharp night-time temperature drop (%.1f°C).",
	RuleNightDewFog:       "High night-time humidity (%.0f%%), dew or fog possible.",
	RuleDaytimeHeat:       "High daytime temperature (%.1f°C). Avoid the midday sun.",

	CondVeryWarm:     "very warm",
	CondWarm:         "warm",
	CondCold:         "cold",
	CondCool:         "cool",
	CondPleasant:     "pleasant",
	CondVeryHumid:    "very humid",
	CondHumid:        "humid",
	CondDry:          "dry",
	CondWindy:        "windy",
	CondBreezy:       "breezy",
	CondStrongGusts:  "strong gusts",
	CondLightRain:    "light rain",
	CondModerateRain: "moderate rain",
	CondHeavyRain:    "heavy rain",
	CondSnowLikely:   "high chance of snow",
	CondSnowPossible: "snow possible",
	CondMuggy:        "muggy",
	CondStable:       "stable",
}

var serbian = map[RuleID]string{
	RuleHeatExtreme:       "Ekstremna vrućina (%.1f°C). Izbegavajte sunce i pijte dosta vode.",
	RuleHeatHigh:          "Visoka temperatura (%.1f°C). Ograničite boravak napolju.",
	RuleColdExtreme:       "Ekstremna hladnoća (%.1f°C). Opasnost od promrzlina.",
	RuleUVExtreme:         "Ekstremni UV indeks (%.0f). Izbegavajte izlaganje suncu.",
	RuleUVVeryHigh:        "Veoma visok UV indeks (%.0f). Koristite zaštitu od sunca.",
	RuleUVHigh:            "Visok UV indeks (%.0f). Koristite kremu za sunčanje.",
	RulePressureLow:       "Nizak pritisak (%.0f hPa), moguća kiša.",
	RulePressureHigh:      "Visok pritisak (%.0f hPa), stabilno vreme.",
	RuleTrendRapidRise:    "Pritisak naglo raste (%+.1f hPa), vreme se popravlja.",
	RuleTrendRapidFall:    "Pritisak naglo pada (%+.1f hPa), moguće nevreme.",
	RuleTrendModerateRise: "Pritisak raste (%+.1f hPa), vreme se popravlja.",
	RuleTrendModerateFall: "Pritisak pada (%+.1f hPa), vreme se kvari.",
	RuleSnowLikely:        "Velika verovatnoća snega (%.0f%%).",
	RuleSnowPossible:      "Moguć sneg (%.0f%%).",
	RuleHeatIndexDanger:   "Subjektivni osećaj %.1f°C. Opasnost od toplotnog udara.",
	RuleHeatIndexCaution:  "Subjektivni osećaj %.1f°C. Budite oprezni napolju.",
	RuleWindStrong:        "Jak vetar (%.1f m/s).",
	RuleWindGusts:         "Jaki udari vetra (%.1f m/s).",
	RuleRainHeavy:         "Jaka kiša (%.1f mm/h).",
	RuleNormFarAbove:      "Temperatura znatno iznad proseka za ovo doba dana (+%.1f°C).",
	RuleNormFarBelow:      "Temperatura znatno ispod proseka za ovo doba dana (-%.1f°C).",
	RuleNormAbove:         "Temperatura iznad proseka za ovo doba dana (+%.1f°C).",
	RuleNormBelow:         "Temperatura ispod proseka za ovo doba dana (-%.1f°C).",
	RuleNightTempDrop:     "Značajan pad temperature tokom noći (%.1f°C).",
	RuleNightDewFog:       "Visoka vlažnost tokom noći (%.0f%%), moguća rosa ili magla.",
	RuleDaytimeHeat:       "Visoke dnevne temperature (%.1f°C). Izbegavajte podnevno sunce.",

	CondVeryWarm:     "veoma toplo",
	CondWarm:         "toplo",
	CondCold:         "hladno",
	CondCool:         "sveže",
	CondPleasant:     "prijatno",
	CondVeryHumid:    "veoma vlažno",
	CondHumid:        "vlažno",
	CondDry:          "suvo",
	CondWindy:        "vetrovito",
	CondBreezy:       "povetarac",
	CondStrongGusts:  "jaki udari vetra",
	CondLightRain:    "slaba kiša",
	CondModerateRain: "umerena kiša",
	CondHeavyRain:    "jaka kiša",
	CondSnowLikely:   "velika šansa za sneg",
	CondSnowPossible: "moguć sneg",
	CondMuggy:        "sparno",
	CondStable:       "stabilno",
}
