package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/LudiSistemas/HA/internal/forecast"
	"github.com/LudiSistemas/HA/internal/modules/weather/types"
)

//go:embed sql/upsert-sensor.sql
var upsertSensorSQL string

//go:embed sql/insert-state.sql
var insertStateSQL string

//go:embed sql/get-latest-readings.sql
var getLatestReadingsSQL string

//go:embed sql/get-sensor.sql
var getSensorSQL string

//go:embed sql/get-history.sql
var getHistorySQL string

//go:embed sql/get-values.sql
var getValuesSQL string

//go:embed sql/has-states-between.sql
var hasStatesBetweenSQL string

//go:embed sql/delete-states-before.sql
var deleteStatesBeforeSQL string

var ErrNotFound = errors.New("not found")

// tsLayout is fixed width so that stored timestamps compare correctly as
// text.
const tsLayout = "2006-01-02T15:04:05.000000000Z"

func formatTS(t time.Time) string {
	return t.UTC().Format(tsLayout)
}

func parseTS(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t.UTC(), nil
}

type WeatherRepository interface {
	// StoreReading upserts the sensor and records its state in one
	// transaction.
	StoreReading(ctx context.Context, r types.SensorReading) error
	GetLatestReadings(ctx context.Context) ([]types.SensorReading, error)
	GetSensor(ctx context.Context, entityID string) (types.SensorReading, error)
	GetHistory(ctx context.Context, entityID string, from, to time.Time) ([]types.HistoryPoint, error)
	GetValues(ctx context.Context, entityID string, from, to time.Time) ([]float64, error)
	HasStatesBetween(ctx context.Context, entityID string, from, to time.Time) (bool, error)
	DeleteStatesBefore(ctx context.Context, t time.Time) (int64, error)
}

type repositoryImpl struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) WeatherRepository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) StoreReading(ctx context.Context, rd types.SensorReading) error {
	ts := formatTS(rd.LastUpdated)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, upsertSensorSQL,
		rd.EntityID, rd.Kind.String(), rd.Unit, rd.FriendlyName, ts,
	); err != nil {
		return fmt.Errorf("upsert sensor %s: %w", rd.EntityID, err)
	}

	var value any
	if rd.Value != nil {
		value = *rd.Value
	}
	if _, err := tx.ExecContext(ctx, insertStateSQL, rd.EntityID, ts, rd.State, value); err != nil {
		return fmt.Errorf("insert state %s: %w", rd.EntityID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (r *repositoryImpl) GetLatestReadings(ctx context.Context) ([]types.SensorReading, error) {
	rows, err := r.db.QueryContext(ctx, getLatestReadingsSQL)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("close latest readings rows", "error", err)
		}
	}()

	out := []types.SensorReading{}
	for rows.Next() {
		var (
			rd    types.SensorReading
			kind  string
			ts    string
			value sql.NullFloat64
		)
		if err := rows.Scan(&rd.EntityID, &kind, &rd.Unit, &rd.FriendlyName, &ts, &rd.State, &value); err != nil {
			return nil, err
		}
		rd.Kind = forecast.ParseKind(kind)
		if rd.LastUpdated, err = parseTS(ts); err != nil {
			return nil, err
		}
		rd.Value = nullableFloat(value)
		out = append(out, rd)
	}
	return out, rows.Err()
}

// GetSensor returns the sensor's metadata; State and Value are left empty.
func (r *repositoryImpl) GetSensor(ctx context.Context, entityID string) (types.SensorReading, error) {
	var (
		rd   types.SensorReading
		kind string
		ts   string
	)
	err := r.db.QueryRowContext(ctx, getSensorSQL, entityID).Scan(&rd.EntityID, &kind, &rd.Unit, &rd.FriendlyName, &ts)
	if errors.Is(err, sql.ErrNoRows) {
		return types.SensorReading{}, fmt.Errorf("sensor %q: %w", entityID, ErrNotFound)
	}
	if err != nil {
		return types.SensorReading{}, err
	}
	rd.Kind = forecast.ParseKind(kind)
	if rd.LastUpdated, err = parseTS(ts); err != nil {
		return types.SensorReading{}, err
	}
	return rd, nil
}

func (r *repositoryImpl) GetHistory(ctx context.Context, entityID string, from, to time.Time) ([]types.HistoryPoint, error) {
	rows, err := r.db.QueryContext(ctx, getHistorySQL, entityID, formatTS(from), formatTS(to))
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("close history rows", "error", err)
		}
	}()

	out := []types.HistoryPoint{}
	for rows.Next() {
		var (
			p     types.HistoryPoint
			ts    string
			value sql.NullFloat64
		)
		if err := rows.Scan(&ts, &p.State, &value); err != nil {
			return nil, err
		}
		if p.Time, err = parseTS(ts); err != nil {
			return nil, err
		}
		p.Value = nullableFloat(value)
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *repositoryImpl) GetValues(ctx context.Context, entityID string, from, to time.Time) ([]float64, error) {
	rows, err := r.db.QueryContext(ctx, getValuesSQL, entityID, formatTS(from), formatTS(to))
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("close values rows", "error", err)
		}
	}()

	var out []float64
	for rows.Next() {
		var v float64
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (r *repositoryImpl) HasStatesBetween(ctx context.Context, entityID string, from, to time.Time) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, hasStatesBetweenSQL, entityID, formatTS(from), formatTS(to)).Scan(&exists)
	return exists, err
}

func (r *repositoryImpl) DeleteStatesBefore(ctx context.Context, t time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, deleteStatesBeforeSQL, formatTS(t))
	if err != nil {
		return 0, fmt.Errorf("delete states: %w", err)
	}
	return res.RowsAffected()
}

func nullableFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
