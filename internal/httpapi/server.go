package httpapi

import (
	"net/http"
	"time"

	"github.com/LudiSistemas/HA/internal/config"
	"github.com/LudiSistemas/HA/internal/metrics"
)

func NewServer(cfg config.Config, mux *http.ServeMux, m *metrics.Metrics) *http.Server {
	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           m.WrapHandler(requestLogger(mux)),
		ReadHeaderTimeout: 5 * time.Second,
	}
}
