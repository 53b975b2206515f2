package controller

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/LudiSistemas/HA/internal/modules/weather/service"
	"github.com/LudiSistemas/HA/internal/utils"
)

func (c *weatherControllerImpl) handleSensors(w http.ResponseWriter, r *http.Request) {
	sensors, err := c.service.Sensors(r.Context())
	if err != nil {
		slog.Error("list sensors failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to load sensors")
		return
	}
	utils.WriteJSON(w, http.StatusOK, sensors)
}

func (c *weatherControllerImpl) handleHistory(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		utils.WriteError(w, http.StatusBadRequest, "missing sensor id")
		return
	}

	offset, err := parseOffset(r)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	series, err := c.service.History(r.Context(), id, offset)
	switch {
	case errors.Is(err, service.ErrInvalidOffset):
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, service.ErrUnknownSensor):
		utils.WriteError(w, http.StatusNotFound, err.Error())
		return
	case err != nil:
		slog.Error("sensor history failed", "entity_id", id, "offset", offset, "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to load history")
		return
	}
	utils.WriteJSON(w, http.StatusOK, series)
}

func (c *weatherControllerImpl) handleConditions(w http.ResponseWriter, r *http.Request) {
	lang, err := parseLang(r)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	report, err := c.service.Conditions(r.Context(), lang)
	switch {
	case errors.Is(err, service.ErrNoData):
		utils.WriteError(w, http.StatusNotFound, "no data")
		return
	case err != nil:
		slog.Error("classify conditions failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to classify conditions")
		return
	}
	utils.WriteJSON(w, http.StatusOK, report)
}
