package controller

import (
	"context"
	"net/http"

	"github.com/LudiSistemas/HA/internal/modules/weather/types"
)

type WeatherService interface {
	Sensors(ctx context.Context) ([]types.SensorReading, error)
	History(ctx context.Context, entityID string, offset int) (types.HistoricalSeries, error)
	Conditions(ctx context.Context, lang string) (types.ConditionsReport, error)
}

type WeatherController interface {
	RegisterRoutes(mux *http.ServeMux)
}

type weatherControllerImpl struct {
	service WeatherService
}

func NewWeatherController(service WeatherService) WeatherController {
	return &weatherControllerImpl{service: service}
}

func (c *weatherControllerImpl) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/sensors", c.handleSensors)
	mux.HandleFunc("GET /api/sensors/{id}/history", c.handleHistory)
	mux.HandleFunc("GET /api/conditions", c.handleConditions)
}
