package weather

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/LudiSistemas/HA/internal/forecast"
	"github.com/LudiSistemas/HA/internal/metrics"
	"github.com/LudiSistemas/HA/internal/modules/weather/controller"
	"github.com/LudiSistemas/HA/internal/modules/weather/repository"
	"github.com/LudiSistemas/HA/internal/modules/weather/service"
	"github.com/LudiSistemas/HA/internal/mqtt"
)

type Deps struct {
	DB         *sql.DB
	Classifier *forecast.Classifier
	Options    service.Options
	Metrics    *metrics.Metrics
	Logger     *slog.Logger
	// Subscriber is optional; without it the feature only serves HTTP.
	Subscriber mqtt.MQTTSubscriber
}

// RegisterFeature wires the weather feature onto mux and, when a
// subscriber is given, onto MQTT ingestion. The returned service is
// shared with the retention job.
func RegisterFeature(mux *http.ServeMux, deps Deps) *service.Service {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	weatherRepository := repository.NewRepository(deps.DB)
	weatherService := service.NewService(weatherRepository, deps.Classifier, deps.Options, deps.Metrics, logger)
	weatherController := controller.NewWeatherController(weatherService)
	weatherController.RegisterRoutes(mux)

	if deps.Subscriber != nil {
		registerMQTTHandler(deps.Subscriber, weatherService, logger)
	}
	return weatherService
}
