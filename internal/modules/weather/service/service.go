package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/LudiSistemas/HA/internal/forecast"
	"github.com/LudiSistemas/HA/internal/metrics"
	"github.com/LudiSistemas/HA/internal/modules/weather/repository"
	"github.com/LudiSistemas/HA/internal/modules/weather/types"
)

var (
	ErrNoData          = errors.New("no data")
	ErrUnknownSensor   = errors.New("unknown sensor")
	ErrUntrackedSensor = errors.New("untracked sensor")
	ErrInvalidOffset   = errors.New("invalid offset")
	ErrInvalidState    = errors.New("invalid state")
)

const day = 24 * time.Hour

type Options struct {
	// MaxOffsetDays caps the day offset accepted by History.
	MaxOffsetDays int
	// PressureWindow is how far back pressure samples feed the trend.
	PressureWindow time.Duration
	// Sensors are the tracked entities. Anything else is rejected by
	// Ingest with ErrUntrackedSensor.
	Sensors forecast.SensorBindings
	// Location is the station's time zone; nil means time.Local.
	Location *time.Location
}

type Service struct {
	repository repository.WeatherRepository
	classifier *forecast.Classifier
	metrics    *metrics.Metrics
	logger     *slog.Logger
	opts       Options
	now        func() time.Time
}

func NewService(repo repository.WeatherRepository, classifier *forecast.Classifier, opts Options, m *metrics.Metrics, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.PressureWindow <= 0 {
		opts.PressureWindow = 3 * time.Hour
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	return &Service{
		repository: repo,
		classifier: classifier,
		metrics:    m,
		logger:     logger,
		opts:       opts,
		now:        time.Now,
	}
}

// Ingest validates msg and stores it under the kind its entity is bound
// to. States that are not numbers ("unavailable") are stored without a
// value.
func (s *Service) Ingest(ctx context.Context, msg types.StateMessage) error {
	if err := msg.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidState, err)
	}

	kind, tracked := s.opts.Sensors.Lookup(msg.EntityID)
	if !tracked {
		return fmt.Errorf("%w: %s", ErrUntrackedSensor, msg.EntityID)
	}
	rd := types.SensorReading{
		EntityID:     msg.EntityID,
		Kind:         kind,
		State:        msg.State,
		Unit:         msg.Attributes.UnitOfMeasurement,
		FriendlyName: msg.Attributes.FriendlyName,
		LastUpdated:  msg.LastUpdated.UTC(),
	}
	if v, ok := forecast.ParseState(msg.State); ok {
		if err := checkRange(kind, v); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidState, msg.EntityID, err)
		}
		rd.Value = &v
	}

	if err := s.repository.StoreReading(ctx, rd); err != nil {
		return fmt.Errorf("store %s: %w", msg.EntityID, err)
	}
	s.metrics.StateIngested(kind.String())
	s.logger.Debug("stored sensor state", "entity_id", rd.EntityID, "kind", kind.String(), "state", rd.State)
	return nil
}

func checkRange(kind forecast.Kind, v float64) error {
	switch kind {
	case forecast.KindHumidity:
		if v < 0 || v > 100 {
			return fmt.Errorf("humidity out of range: %g (must be 0-100)", v)
		}
	case forecast.KindPressure:
		if v <= 0 {
			return fmt.Errorf("pressure must be positive: %g", v)
		}
	case forecast.KindWindSpeed, forecast.KindWindGust, forecast.KindUVIndex, forecast.KindRain:
		if v < 0 {
			return fmt.Errorf("%s must not be negative: %g", kind, v)
		}
	case forecast.KindWindDirection:
		if v < 0 || v > 360 {
			return fmt.Errorf("wind direction out of range: %g (must be 0-360)", v)
		}
	}
	return nil
}

// Sensors returns the latest reading of every tracked sensor. Rows left
// behind by sensors that are no longer configured are hidden.
func (s *Service) Sensors(ctx context.Context) ([]types.SensorReading, error) {
	readings, err := s.repository.GetLatestReadings(ctx)
	if err != nil {
		return nil, fmt.Errorf("latest readings: %w", err)
	}
	out := make([]types.SensorReading, 0, len(readings))
	for _, rd := range readings {
		kind, ok := s.opts.Sensors.Lookup(rd.EntityID)
		if !ok {
			continue
		}
		rd.Kind = kind
		out = append(out, rd)
	}
	return out, nil
}

// History returns the 24h window ending offset days before now.
func (s *Service) History(ctx context.Context, entityID string, offset int) (types.HistoricalSeries, error) {
	if offset < 0 || offset > s.opts.MaxOffsetDays {
		return types.HistoricalSeries{}, fmt.Errorf("%w: %d (allowed 0-%d)", ErrInvalidOffset, offset, s.opts.MaxOffsetDays)
	}

	if _, tracked := s.opts.Sensors.Lookup(entityID); !tracked {
		return types.HistoricalSeries{}, fmt.Errorf("%w: %s", ErrUnknownSensor, entityID)
	}
	if _, err := s.repository.GetSensor(ctx, entityID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return types.HistoricalSeries{}, fmt.Errorf("%w: %s", ErrUnknownSensor, entityID)
		}
		return types.HistoricalSeries{}, fmt.Errorf("get sensor: %w", err)
	}

	end := s.now().UTC().Add(-time.Duration(offset) * day)
	start := end.Add(-day)

	points, err := s.repository.GetHistory(ctx, entityID, start, end)
	if err != nil {
		return types.HistoricalSeries{}, fmt.Errorf("history %s: %w", entityID, err)
	}
	if points == nil {
		points = []types.HistoryPoint{}
	}

	series := types.HistoricalSeries{
		EntityID: entityID,
		Offset:   offset,
		Start:    start,
		End:      end,
		History:  points,
	}
	for _, p := range points {
		if p.Value == nil {
			continue
		}
		v := *p.Value
		if series.Min == nil || v < *series.Min {
			series.Min = floatPtr(v)
		}
		if series.Max == nil || v > *series.Max {
			series.Max = floatPtr(v)
		}
		series.Current = floatPtr(v)
	}

	if offset < s.opts.MaxOffsetDays {
		oldest := end.Add(-time.Duration(s.opts.MaxOffsetDays-offset+1) * day)
		series.HasMore, err = s.repository.HasStatesBetween(ctx, entityID, oldest, start)
		if err != nil {
			return types.HistoricalSeries{}, fmt.Errorf("older states %s: %w", entityID, err)
		}
	}
	return series, nil
}

// Conditions classifies the latest reading of every bound sensor kind.
// Each kind is fed by the one entity bound to it, whatever order states
// arrived in.
func (s *Service) Conditions(ctx context.Context, lang string) (types.ConditionsReport, error) {
	readings, err := s.repository.GetLatestReadings(ctx)
	if err != nil {
		return types.ConditionsReport{}, fmt.Errorf("latest readings: %w", err)
	}

	now := s.now().UTC()
	chosen := make(map[forecast.Kind]types.SensorReading)
	for _, rd := range readings {
		kind, ok := s.opts.Sensors.Lookup(rd.EntityID)
		if !ok || kind == forecast.KindUnknown || rd.Value == nil {
			continue
		}
		// Hand-built bindings may repeat a kind; the lowest entity ID wins.
		if cur, ok := chosen[kind]; ok && cur.EntityID < rd.EntityID {
			continue
		}
		chosen[kind] = rd
	}

	snap := forecast.NewSnapshot()
	inputs := make(map[string]float64, len(chosen))
	sources := make(map[string]string, len(chosen))
	for kind, rd := range chosen {
		snap.Set(kind, *rd.Value)
		inputs[kind.String()] = *rd.Value
		sources[kind.String()] = rd.EntityID
	}

	var history []float64
	if rd, ok := chosen[forecast.KindPressure]; ok {
		history, err = s.repository.GetValues(ctx, rd.EntityID, now.Add(-s.opts.PressureWindow), now.Add(time.Minute))
		if err != nil {
			return types.ConditionsReport{}, fmt.Errorf("pressure history: %w", err)
		}
	}

	pred, ok := s.classifier.Classify(forecast.Input{
		Snapshot:        snap,
		PressureHistory: history,
		Now:             now.In(s.opts.Location),
		Lang:            lang,
	})
	if !ok {
		s.metrics.Classification(false, nil)
		return types.ConditionsReport{}, ErrNoData
	}

	severities := make([]string, 0, len(pred.Warnings))
	for _, w := range pred.Warnings {
		severities = append(severities, w.Severity.String())
	}
	s.metrics.Classification(true, severities)

	return types.ConditionsReport{
		Prediction:  pred,
		Lang:        s.classifier.Catalog().Resolve(lang),
		GeneratedAt: now,
		Inputs:      inputs,
		Sources:     sources,
	}, nil
}

// Prune deletes states that fall outside the history lookback by more
// than a day.
func (s *Service) Prune(ctx context.Context) (int64, error) {
	cutoff := s.now().UTC().Add(-time.Duration(s.opts.MaxOffsetDays+2) * day)
	n, err := s.repository.DeleteStatesBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	return n, nil
}

func floatPtr(v float64) *float64 { return &v }
