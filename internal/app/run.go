package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/LudiSistemas/HA/internal/config"
	"github.com/LudiSistemas/HA/internal/db"
	"github.com/LudiSistemas/HA/internal/forecast"
	"github.com/LudiSistemas/HA/internal/httpapi"
	"github.com/LudiSistemas/HA/internal/metrics"
	"github.com/LudiSistemas/HA/internal/migrate"
	weather "github.com/LudiSistemas/HA/internal/modules/weather"
	"github.com/LudiSistemas/HA/internal/modules/weather/service"
	"github.com/LudiSistemas/HA/internal/mqtt"
	"github.com/LudiSistemas/HA/internal/retention"
)

func Run(ctx context.Context, cfg config.Config) error {
	slog.Info("config loaded",
		"appEnv", cfg.AppEnv,
		"logLevel", cfg.LogLevel.String(),
		"httpAddr", cfg.HTTPAddr,
		"dbDriver", cfg.Driver,
		"dbPath", cfg.Path,
		"dbMaxOpenConns", cfg.MaxOpenConns,
		"dbMaxIdleConns", cfg.MaxIdleConns,
		"dbConnMaxLifetime", cfg.ConnMaxLifetime,
		"mqttBroker", cfg.MQTTBroker,
		"mqttPort", cfg.MQTTPort,
		"mqttTopic", cfg.MQTTTopic,
		"sensors", len(cfg.Sensors),
		"timezone", cfg.Location.String(),
		"rulesFile", cfg.RulesFile,
		"defaultLang", cfg.DefaultLang,
		"historyMaxOffsetDays", cfg.HistoryMaxOffsetDays,
		"pressureHistoryWindow", cfg.PressureHistoryWindow,
		"retentionSchedule", cfg.RetentionSchedule,
	)

	thresholds, err := forecast.LoadThresholds(cfg.RulesFile)
	if err != nil {
		return err
	}
	catalog := forecast.NewCatalog(cfg.DefaultLang)
	if !catalog.Has(cfg.DefaultLang) {
		slog.Warn("no messages for default language, using fallback",
			"defaultLang", cfg.DefaultLang,
			"fallback", catalog.DefaultLang(),
		)
	}
	classifier := forecast.NewClassifier(thresholds, catalog)

	m := metrics.New()

	dbConn, err := db.Open(ctx, cfg, slog.Default(), m.ObserveQuery)
	if err != nil {
		return err
	}
	defer func() {
		closeErr := db.Close(dbConn)
		if closeErr != nil {
			slog.Error("db close", "error", closeErr)
		}
	}()

	applied, err := migrate.Run(ctx, dbConn, slog.Default())
	if err != nil {
		return err
	}
	slog.Info("database ready", "migrationsApplied", len(applied))

	// The handler must be attached before Connect so the subscription made
	// on CONNACK already delivers queued messages.
	mqttSubscriber := mqtt.NewSubscriber(cfg, slog.Default(), m)
	mux := httpapi.NewMux(dbConn, m, mqttSubscriber)
	weatherService := weather.RegisterFeature(mux, weather.Deps{
		DB:         dbConn,
		Classifier: classifier,
		Options: service.Options{
			MaxOffsetDays:  cfg.HistoryMaxOffsetDays,
			PressureWindow: cfg.PressureHistoryWindow,
			Sensors:        cfg.Sensors,
			Location:       cfg.Location,
		},
		Metrics:    m,
		Logger:     slog.Default(),
		Subscriber: mqttSubscriber,
	})

	pruner, err := retention.New(cfg.RetentionSchedule, weatherService, slog.Default(), m)
	if err != nil {
		return err
	}

	bgCtx, bgCancel := context.WithCancel(ctx)
	defer bgCancel()

	// A broker outage must not keep HTTP from serving stored data.
	go func() {
		if err := mqttSubscriber.ConnectWithRetry(bgCtx, time.Second, time.Minute); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, mqtt.ErrStopped) {
			slog.Warn("mqtt connection abandoned", "error", err)
		}
	}()

	retentionDone := make(chan struct{})
	go func() {
		defer close(retentionDone)
		if err := pruner.Start(bgCtx); err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("retention scheduler", "error", err)
		}
	}()

	srv := httpapi.NewServer(cfg, mux, m)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http listening", "addr", cfg.HTTPAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		bgCancel()
		<-retentionDone
		mqttSubscriber.Disconnect()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	slog.Info("mqtt disconnecting")
	mqttSubscriber.Disconnect()

	slog.Info("http shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	bgCancel()
	<-retentionDone

	err = <-errCh
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return ctx.Err()
}
