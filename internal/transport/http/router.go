package http

import (
	"net/http"

	"ai-ops-scorecard/internal/app"
	"ai-ops-scorecard/internal/logger"
	"ai-ops-scorecard/internal/metrics"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

// RouterConfig holds the transport-level settings.
type RouterConfig struct {
	AllowedOrigins []string
	Logger         logger.Logger
	Metrics        *metrics.Manager
}

// NewRouter mounts the websocket, JSON API, health and metrics endpoints behind CORS.
func NewRouter(service *app.QuizService, cfg RouterConfig) http.Handler {
	if cfg.Logger == nil {
		cfg.Logger = logger.Nop()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.Default()
	}

	wsHandler := NewWSHandler(service, cfg.Logger.Named("ws"), cfg.AllowedOrigins)
	apiHandler := NewAPIHandler(service, cfg.Logger.Named("api"))

	r := mux.NewRouter()
	// The websocket route stays outside the metrics middleware, which does not support hijacking.
	r.HandleFunc("/ws", wsHandler.ServeWS).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(metricsMiddleware(cfg.Metrics))
	api.HandleFunc("/results", apiHandler.SharedResults).Methods(http.MethodGet)
	api.HandleFunc("/catalog", apiHandler.Catalog).Methods(http.MethodGet)
	api.HandleFunc("/implementation-guide", apiHandler.ImplementationGuide).Methods(http.MethodPost)

	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)
	r.Handle("/metrics", cfg.Metrics.Handler()).Methods(http.MethodGet)

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	})
	return c.Handler(r)
}
