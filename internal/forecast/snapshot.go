package forecast

import (
	"math"
	"strconv"
	"strings"
)

// Snapshot holds the latest value of each sensor kind. Missing kinds are
// simply absent; every rule checks presence before comparing.
type Snapshot struct {
	values map[Kind]float64
}

func NewSnapshot() Snapshot {
	return Snapshot{values: make(map[Kind]float64)}
}

// Set records v for kind. Non-finite values and KindUnknown are ignored.
func (s *Snapshot) Set(kind Kind, v float64) {
	if kind == KindUnknown || math.IsNaN(v) || math.IsInf(v, 0) {
		return
	}
	if s.values == nil {
		s.values = make(map[Kind]float64)
	}
	s.values[kind] = v
}

// SetState parses a string-encoded sensor state. States that do not parse
// as a number ("unavailable", "unknown", "") leave the kind absent.
func (s *Snapshot) SetState(kind Kind, state string) {
	v, ok := ParseState(state)
	if !ok {
		return
	}
	s.Set(kind, v)
}

func (s Snapshot) Value(kind Kind) (float64, bool) {
	v, ok := s.values[kind]
	return v, ok
}

func (s Snapshot) Has(kind Kind) bool {
	_, ok := s.values[kind]
	return ok
}

// ParseState converts a sensor state string into a finite number.
func ParseState(state string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(state), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
