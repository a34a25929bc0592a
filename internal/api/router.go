package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/whotscan/internal/api/handler"
	"github.com/mcoot/whotscan/internal/api/middleware"
	"github.com/mcoot/whotscan/internal/services/games"
	"github.com/mcoot/whotscan/internal/sse"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger      *slog.Logger
	GameService *games.Service
	// HubManager is optional; without it the events route is not served
	HubManager *sse.HubManager
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	gameHandler := handler.NewGameHandler(cfg.GameService)
	handHandler := handler.NewHandHandler(cfg.GameService, cfg.Logger)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(middleware.Recovery(cfg.Logger))
	api.Use(middleware.Logging(cfg.Logger))

	api.HandleFunc("/health", gameHandler.Health).Methods(http.MethodGet)

	// Fixed paths before /games/{id}
	api.HandleFunc("/games", gameHandler.List).Methods(http.MethodGet)
	api.HandleFunc("/games/next-id", gameHandler.NextID).Methods(http.MethodGet)
	api.HandleFunc("/games/recent", gameHandler.Recent).Methods(http.MethodGet)

	api.HandleFunc("/games/{id}", gameHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/games/{id}/commitment", gameHandler.Commitment).Methods(http.MethodGet)
	api.HandleFunc("/games/{id}/players", gameHandler.Players).Methods(http.MethodGet)
	api.HandleFunc("/games/{id}/players/{index}", gameHandler.Player).Methods(http.MethodGet)
	api.HandleFunc("/games/{id}/players/{index}/hand", handHandler.Decode).Methods(http.MethodPost)
	api.HandleFunc("/games/{id}/players/{index}/hand", handHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/games/{id}/hands", handHandler.List).Methods(http.MethodGet)
	api.HandleFunc("/games/{id}/hands", handHandler.Clear).Methods(http.MethodDelete)

	if cfg.HubManager != nil {
		eventsHandler := handler.NewEventsHandler(cfg.HubManager)
		api.HandleFunc("/games/{id}/events", eventsHandler.Stream).Methods(http.MethodGet)
	}

	return r
}
