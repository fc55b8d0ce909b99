package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/kjstillabower/mountain-weather-poller/internal/geo"
	"github.com/kjstillabower/mountain-weather-poller/internal/lifecycle"
	"github.com/kjstillabower/mountain-weather-poller/internal/models"
	"github.com/kjstillabower/mountain-weather-poller/internal/observability"
	"github.com/kjstillabower/mountain-weather-poller/internal/poller"
)

// Location describes the configured point and its resolved regions.
type Location struct {
	Name       string         `json:"name,omitempty"`
	Latitude   float64        `json:"latitude"`
	Longitude  float64        `json:"longitude"`
	Massif     geo.Resolution `json:"massif"`
	Department geo.Resolution `json:"department"`
}

// InFrance reports whether the point lies inside a known department.
func (l Location) InFrance() bool { return l.Department.Found }

// HealthConfig holds freshness thresholds for the health handler.
type HealthConfig struct {
	// Intervals maps each registered domain to its poll interval.
	Intervals map[models.Domain]time.Duration
	// StaleAfterIntervals: a domain whose last success is older than this
	// many intervals is reported stale.
	StaleAfterIntervals int
	// MirrorPing, when set, is called to check mirror reachability. Used when backend is memcached.
	MirrorPing func() error
	// Now defaults to time.Now.
	Now func() time.Time
}

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	registry         *poller.Registry
	location         Location
	phase            *lifecycle.Tracker
	healthConfig     *HealthConfig
	logger           *zap.Logger
	healthStatusMu   sync.Mutex
	healthStatusPrev string
}

// NewHandler returns a new Handler.
func NewHandler(
	registry *poller.Registry,
	location Location,
	phase *lifecycle.Tracker,
	healthConfig *HealthConfig,
	logger *zap.Logger,
) *Handler {
	if phase == nil {
		phase = lifecycle.New()
	}
	if healthConfig == nil {
		healthConfig = &HealthConfig{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		registry:     registry,
		location:     location,
		phase:        phase,
		healthConfig: healthConfig,
		logger:       logger,
	}
}

type snapshotsResponse struct {
	Location Location               `json:"location"`
	Domains  map[string]poller.View `json:"domains"`
}

// GetSnapshots handles GET /snapshot.
func (h *Handler) GetSnapshots(w http.ResponseWriter, r *http.Request) {
	views := h.registry.Views()
	resp := snapshotsResponse{Location: h.location, Domains: make(map[string]poller.View, len(views))}
	for _, v := range views {
		resp.Domains[string(v.Domain)] = v
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetSnapshot handles GET /snapshot/{domain}.
func (h *Handler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	p, ok := h.poller(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, p.View())
}

// PostRefresh handles POST /snapshot/{domain}/refresh. With ?wait=true it
// blocks until the pass that serves the request is published and returns
// the resulting view; otherwise it returns 202 immediately.
func (h *Handler) PostRefresh(w http.ResponseWriter, r *http.Request) {
	p, ok := h.poller(w, r)
	if !ok {
		return
	}
	wait, _ := strconv.ParseBool(r.URL.Query().Get("wait"))
	if !wait {
		p.RequestRefresh()
		writeJSON(w, http.StatusAccepted, map[string]interface{}{
			"accepted": true,
			"domain":   p.Domain(),
		})
		return
	}

	view, err := p.RefreshView(r.Context())
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, view)
	case errors.Is(err, poller.ErrStopped):
		writeError(w, r, http.StatusServiceUnavailable, "SHUTTING_DOWN", "poller is stopping")
	case errors.Is(err, context.DeadlineExceeded):
		writeError(w, r, http.StatusGatewayTimeout, "REFRESH_TIMEOUT", "refresh did not complete in time; it continues in background")
	default:
		requestLogger(r, h.logger).Debug("refresh wait ended", zap.Error(err))
		writeError(w, r, http.StatusServiceUnavailable, "REFRESH_CANCELLED", "refresh wait cancelled")
	}
}

type alertsResponse struct {
	Applicable     bool           `json:"applicable"`
	HasData        bool           `json:"hasData"`
	Reason         string         `json:"reason,omitempty"`
	Department     string         `json:"department,omitempty"`
	DepartmentName string         `json:"departmentName,omitempty"`
	Stale          bool           `json:"stale"`
	HasActiveAlert bool           `json:"hasActiveAlert"`
	HasOrangeAlert bool           `json:"hasOrangeAlert"`
	HasRedAlert    bool           `json:"hasRedAlert"`
	MinLevel       models.Level   `json:"minLevel"`
	Alerts         []models.Alert `json:"alerts"`
	UpdateTime     string         `json:"updateTime,omitempty"`
}

// GetAlerts handles GET /alerts?min={color|1-4}. min defaults to yellow.
func (h *Handler) GetAlerts(w http.ResponseWriter, r *http.Request) {
	minLevel := models.LevelYellow
	if s := r.URL.Query().Get("min"); s != "" {
		l, err := models.ParseLevel(s)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, "INVALID_LEVEL", err.Error())
			return
		}
		minLevel = l
	}

	p, ok := h.registry.Get(models.DomainVigilance)
	if !ok {
		writeError(w, r, http.StatusNotFound, "DOMAIN_DISABLED", "vigilance polling is not enabled")
		return
	}
	view := p.View()
	rec, ok := view.Record.(*models.Vigilance)
	if !view.Available || !ok || rec == nil {
		writeError(w, r, http.StatusServiceUnavailable, "UNAVAILABLE", "vigilance data not yet available")
		return
	}
	writeJSON(w, http.StatusOK, alertsResponse{
		Applicable:     rec.Applicable,
		HasData:        rec.HasData,
		Reason:         rec.Reason,
		Department:     rec.Department,
		DepartmentName: rec.DepartmentName,
		Stale:          view.Stale,
		HasActiveAlert: rec.HasActiveAlert(),
		HasOrangeAlert: rec.HasOrangeAlert(),
		HasRedAlert:    rec.HasRedAlert(),
		MinLevel:       minLevel,
		Alerts:         rec.ActiveAlerts(minLevel),
		UpdateTime:     rec.UpdateTime,
	})
}

// GetLocation handles GET /location.
func (h *Handler) GetLocation(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"name":       h.location.Name,
		"latitude":   h.location.Latitude,
		"longitude":  h.location.Longitude,
		"inFrance":   h.location.InFrance(),
		"massif":     h.location.Massif,
		"department": h.location.Department,
	})
}

// poller resolves the {domain} path variable and writes 404 when it is
// unknown or not enabled.
func (h *Handler) poller(w http.ResponseWriter, r *http.Request) (poller.Poller, bool) {
	raw := mux.Vars(r)["domain"]
	d, err := models.ParseDomain(raw)
	if err != nil {
		writeError(w, r, http.StatusNotFound, "UNKNOWN_DOMAIN", "unknown domain: "+raw)
		return nil, false
	}
	p, ok := h.registry.Get(d)
	if !ok {
		writeError(w, r, http.StatusNotFound, "DOMAIN_DISABLED", "domain not enabled: "+string(d))
		return nil, false
	}
	return p, true
}

// healthResult holds the computed health status and metadata for logging.
type healthResult struct {
	status     string
	statusCode int
	reason     string
	checks     map[string]string
}

// GetHealth handles GET /health.
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	result := h.computeHealthStatus()

	h.healthStatusMu.Lock()
	prev := h.healthStatusPrev
	if prev != "" && prev != result.status {
		h.logger.Info("health status transition",
			zap.String("previous_status", prev),
			zap.String("current_status", result.status),
			zap.String("reason", result.reason))
	}
	h.healthStatusPrev = result.status
	h.healthStatusMu.Unlock()

	if h.healthConfig.MirrorPing != nil {
		if h.healthConfig.MirrorPing() == nil {
			result.checks["mirror"] = "healthy"
		} else {
			result.checks["mirror"] = "unhealthy"
		}
	}
	resp := map[string]interface{}{
		"status":    result.status,
		"service":   observability.ServiceName,
		"version":   "dev",
		"phase":     h.phase.Phase().String(),
		"checks":    result.checks,
		"timestamp": h.now().UTC().Format(time.RFC3339),
	}
	writeJSON(w, result.statusCode, resp)
}

// computeHealthStatus evaluates conditions in priority order:
// shutting-down > starting > degraded > healthy.
// Degraded still answers 200: last good data is being served.
func (h *Handler) computeHealthStatus() healthResult {
	checks := make(map[string]string)
	if h.phase.IsShuttingDown() {
		return healthResult{"shutting-down", http.StatusServiceUnavailable, "signal", checks}
	}

	now := h.now()
	published := true
	degraded := ""
	for _, v := range h.registry.Views() {
		check := h.domainCheck(v, now)
		checks[string(v.Domain)] = check
		if v.Sequence == 0 {
			published = false
		}
		if check != "healthy" && degraded == "" {
			degraded = string(v.Domain) + "_" + check
		}
	}

	if h.phase.Phase() == lifecycle.Starting {
		if !published {
			return healthResult{"starting", http.StatusServiceUnavailable, "awaiting_first_snapshot", checks}
		}
		h.phase.MarkReady()
	}
	if degraded != "" {
		return healthResult{"degraded", http.StatusOK, degraded, checks}
	}
	return healthResult{"healthy", http.StatusOK, "", checks}
}

// domainCheck is "unavailable" before the first success, "stale" when the
// last pass was partial or failed or the last success is too old, and
// "healthy" otherwise.
func (h *Handler) domainCheck(v poller.View, now time.Time) string {
	if !v.Available {
		return "unavailable"
	}
	if v.Stale || v.LastOutcome == poller.OutcomeError || v.LastOutcome == poller.OutcomeFailed {
		return "stale"
	}
	interval := h.healthConfig.Intervals[v.Domain]
	factor := h.healthConfig.StaleAfterIntervals
	if factor <= 0 {
		factor = 2
	}
	if interval > 0 && v.Age(now) > time.Duration(factor)*interval {
		return "stale"
	}
	return "healthy"
}

func (h *Handler) now() time.Time {
	if h.healthConfig.Now != nil {
		return h.healthConfig.Now()
	}
	return time.Now()
}

// writeJSON writes a JSON response with the specified HTTP status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes an error response in the standard error format with code, message,
// and requestId (correlation ID) if available in request context.
func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]string{
			"code":      code,
			"message":   message,
			"requestId": correlationID(r),
		},
	})
}
