package httpapi

import (
	"database/sql"
	"net/http"

	"github.com/LudiSistemas/HA/internal/metrics"
)

func NewMux(db *sql.DB, m *metrics.Metrics, mqtt ConnectionStatus) *http.ServeMux {
	mux := http.NewServeMux()
	registerHealthcheck(mux, db, mqtt)
	mux.Handle("GET /metrics", m.Handler())
	return mux
}
