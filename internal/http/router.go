package http

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kjstillabower/mountain-weather-poller/internal/observability"
)

// NewRouter wires h onto a mux router. limiter guards only the refresh route;
// refreshWait bounds ?wait=true requests.
func NewRouter(h *Handler, limiter *rate.Limiter, refreshWait time.Duration, logger *zap.Logger) *mux.Router {
	router := mux.NewRouter()
	router.Use(CorrelationIDMiddleware(logger))
	router.Use(MetricsMiddleware)

	router.HandleFunc("/health", h.GetHealth).Methods(http.MethodGet)
	router.Handle("/metrics", observability.MetricsHandler()).Methods(http.MethodGet)
	router.HandleFunc("/location", h.GetLocation).Methods(http.MethodGet)
	router.HandleFunc("/alerts", h.GetAlerts).Methods(http.MethodGet)
	router.HandleFunc("/snapshot", h.GetSnapshots).Methods(http.MethodGet)
	router.HandleFunc("/snapshot/{domain}", h.GetSnapshot).Methods(http.MethodGet)

	var refresh http.Handler = http.HandlerFunc(h.PostRefresh)
	if refreshWait > 0 {
		refresh = TimeoutMiddleware(refreshWait)(refresh)
	}
	refresh = RateLimitMiddleware(limiter)(refresh)
	router.Handle("/snapshot/{domain}/refresh", refresh).Methods(http.MethodPost)

	return router
}
