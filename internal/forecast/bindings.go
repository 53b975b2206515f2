package forecast

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidBindings = errors.New("invalid sensor bindings")

// SensorBindings maps every tracked entity ID to the kind it feeds. At
// most one entity feeds each kind other than KindUnknown, so the reading
// chosen for a kind never depends on arrival order.
type SensorBindings map[string]Kind

// ParseSensorBindings parses a comma separated list of entity IDs such as
// "sensor.outdoor_temperature, sensor.rain_rate=rain". An entry without
// "=kind" takes the kind KindOf infers from its ID. Entries that resolve
// to KindUnknown are tracked for history but never classified.
func ParseSensorBindings(s string) (SensorBindings, error) {
	b := make(SensorBindings)
	owner := make(map[Kind]string)
	for _, entry := range strings.Split(s, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		id, name, pinned := strings.Cut(entry, "=")
		id = strings.TrimSpace(id)
		if id == "" {
			return nil, fmt.Errorf("%w: %q has no entity id", ErrInvalidBindings, entry)
		}
		kind := KindOf(id)
		if pinned {
			name = strings.TrimSpace(name)
			kind = ParseKind(name)
			if kind == KindUnknown && !strings.EqualFold(name, KindUnknown.String()) {
				return nil, fmt.Errorf("%w: %s: unknown kind %q", ErrInvalidBindings, id, name)
			}
		}
		if _, dup := b[id]; dup {
			return nil, fmt.Errorf("%w: %s listed twice", ErrInvalidBindings, id)
		}
		if kind != KindUnknown {
			if other, taken := owner[kind]; taken {
				return nil, fmt.Errorf("%w: %s and %s both feed %s", ErrInvalidBindings, other, id, kind)
			}
			owner[kind] = id
		}
		b[id] = kind
	}
	return b, nil
}

// Lookup returns the kind bound to entityID and whether it is tracked.
func (b SensorBindings) Lookup(entityID string) (Kind, bool) {
	k, ok := b[entityID]
	return k, ok
}

// Classified reports whether entityID is tracked and feeds the rules.
func (b SensorBindings) Classified(entityID string) bool {
	k, ok := b[entityID]
	return ok && k != KindUnknown
}
