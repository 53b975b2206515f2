package forecast

import (
	"fmt"
	"time"
)

type Severity int

const (
	SeverityLow Severity = iota
	SeverityMedium
	SeverityHigh
)

func (s Severity) String() string {
	switch s {
	case SeverityLow:
		return "low"
	case SeverityMedium:
		return "medium"
	case SeverityHigh:
		return "high"
	default:
		return fmt.Sprintf("severity(%d)", int(s))
	}
}

func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Severity) UnmarshalText(b []byte) error {
	switch string(b) {
	case "low":
		*s = SeverityLow
	case "medium":
		*s = SeverityMedium
	case "high":
		*s = SeverityHigh
	default:
		return fmt.Errorf("invalid severity %q (allowed: low, medium, high)", string(b))
	}
	return nil
}

// RuleID is the stable identifier of a rule. Messages are looked up by it.
type RuleID string

// Warning is one prioritized message produced by a rule. Lower Priority
// values are displayed first.
type Warning struct {
	ID       RuleID   `json:"id"`
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
	Priority int      `json:"priority"`
}

// Input is everything a classification depends on. Now selects the season
// and the time of day in its own location; the classifier never reads the
// clock.
type Input struct {
	Snapshot        Snapshot
	PressureHistory []float64 // oldest first
	Now             time.Time
	Lang            string
}

type SnowAssessment struct {
	Probability float64 `json:"probability"`
	Likely      bool    `json:"likely"`
}

type Prediction struct {
	CurrentCondition string          `json:"current_condition"`
	Conditions       []RuleID        `json:"conditions"`
	Warnings         []Warning       `json:"warnings"`
	Season           Season          `json:"season"`
	TimeOfDay        TimeOfDay       `json:"time_of_day"`
	Daytime          bool            `json:"daytime"`
	Trend            *Trend          `json:"trend,omitempty"`
	HeatIndexC       *float64        `json:"heat_index_c,omitempty"`
	Snow             *SnowAssessment `json:"snow,omitempty"`
}
