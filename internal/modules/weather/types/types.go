package types

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/LudiSistemas/HA/internal/forecast"
)

// SensorReading is the latest known state of one sensor channel.
type SensorReading struct {
	EntityID     string        `json:"entity_id"`
	Kind         forecast.Kind `json:"kind"`
	State        string        `json:"state"`
	Value        *float64      `json:"value"`
	Unit         string        `json:"unit"`
	FriendlyName string        `json:"friendly_name"`
	LastUpdated  time.Time     `json:"last_updated"`
}

type HistoryPoint struct {
	Time  time.Time `json:"time"`
	State string    `json:"state"`
	Value *float64  `json:"value"`
}

// HistoricalSeries is one day-offset window of a sensor's states. Min, Max
// and Current are nil when the window holds no numeric state.
type HistoricalSeries struct {
	EntityID string         `json:"entity_id"`
	Offset   int            `json:"offset"`
	Start    time.Time      `json:"start"`
	End      time.Time      `json:"end"`
	Min      *float64       `json:"min"`
	Max      *float64       `json:"max"`
	Current  *float64       `json:"current"`
	History  []HistoryPoint `json:"history"`
	HasMore  bool           `json:"has_more"`
}

type StateAttributes struct {
	UnitOfMeasurement string `json:"unit_of_measurement,omitempty"`
	FriendlyName      string `json:"friendly_name,omitempty"`
}

// StateMessage is a sensor state as published by Home Assistant.
type StateMessage struct {
	EntityID    string          `json:"entity_id"`
	State       string          `json:"state"`
	Attributes  StateAttributes `json:"attributes"`
	LastUpdated time.Time       `json:"last_updated"`
}

// UnmarshalJSON accepts numeric states as well as the usual strings.
func (m *StateMessage) UnmarshalJSON(b []byte) error {
	var raw struct {
		EntityID    string          `json:"entity_id"`
		State       json.RawMessage `json:"state"`
		Attributes  StateAttributes `json:"attributes"`
		LastUpdated time.Time       `json:"last_updated"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	state, err := decodeState(raw.State)
	if err != nil {
		return fmt.Errorf("state: %w", err)
	}

	*m = StateMessage{
		EntityID:    raw.EntityID,
		State:       state,
		Attributes:  raw.Attributes,
		LastUpdated: raw.LastUpdated,
	}
	return nil
}

func decodeState(raw json.RawMessage) (string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", fmt.Errorf("expected string or number, got %s", raw)
	}
	return n.String(), nil
}

// Validate checks the fields ingestion relies on.
func (m StateMessage) Validate() error {
	if strings.TrimSpace(m.EntityID) == "" {
		return fmt.Errorf("entity_id is required")
	}
	if strings.TrimSpace(m.State) == "" {
		return fmt.Errorf("state is required")
	}
	if m.LastUpdated.IsZero() {
		return fmt.Errorf("last_updated is required")
	}
	return nil
}

// ConditionsReport is the classifier output together with the inputs it
// was computed from.
type ConditionsReport struct {
	forecast.Prediction
	Lang        string             `json:"lang"`
	GeneratedAt time.Time          `json:"generated_at"`
	Inputs      map[string]float64 `json:"inputs"`
	Sources     map[string]string  `json:"sources"`
}
