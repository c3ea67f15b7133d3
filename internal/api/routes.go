package api

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RegisterRoutes регистрирует маршруты процессора на mux.
func RegisterRoutes(mux *http.ServeMux, h *Handler, logger *slog.Logger) {
	wrap := Chain(
		Recovery(logger),
		Logging(logger),
	)

	mux.Handle("GET /healthz", wrap(http.HandlerFunc(h.Health)))
	mux.Handle("GET /metrics", wrap(promhttp.Handler()))
}
