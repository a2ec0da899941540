package server

import (
	"log/slog"
	"net/http"

	"github.com/mhpenta/pixelart/internal/handler"
	"github.com/mhpenta/pixelart/internal/middleware"
)

func NewMux(h *handler.Handler, logger *slog.Logger, corsOrigins []string) http.Handler {
	mux := http.NewServeMux()

	// Page
	mux.HandleFunc("GET /{$}", h.HandleIndex)
	mux.HandleFunc("POST /generate", h.HandleGenerateForm)

	// API
	mux.HandleFunc("GET /api/state", h.HandleState)
	mux.HandleFunc("POST /api/generate", h.HandleGenerate)
	mux.HandleFunc("GET /ws", h.HandleStateWS)

	mux.HandleFunc("GET /healthz", h.HandleHealth)

	// Middleware
	return middleware.Chain(mux,
		middleware.Logging(logger),
		middleware.Recover(logger),
		middleware.CORS(corsOrigins),
	)
}
