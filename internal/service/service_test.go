package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/kjstillabower/mountain-weather-poller/internal/config"
	"github.com/kjstillabower/mountain-weather-poller/internal/geo"
	"github.com/kjstillabower/mountain-weather-poller/internal/models"
)

const forecastBody = `{
	"elevation": 1035,
	"utc_offset_seconds": 3600,
	"timezone_abbreviation": "CET",
	"current": {"time": "2026-02-12T10:00", "temperature_2m": -3.5},
	"daily": {"time": ["2026-02-12"], "temperature_2m_max": [1.5]},
	"hourly": {"time": ["2026-02-12T10:00"], "temperature_2m": [-3.5]}
}`

const airQualityBody = `{
	"utc_offset_seconds": 3600,
	"current": {"time": "2026-02-12T10:00", "european_aqi": 31},
	"hourly": {"time": ["2026-02-12T10:00"], "european_aqi": [31]}
}`

const vigilanceBody = `{
	"product": {
		"update_time": "2026-02-12T10:00:00Z",
		"timelaps": [{"zones": {"74": {"niveau_vigilance": 3, "phenomenes": {"8": {"niveau": 3}}}}}]
	}
}`

// upstream fakes all three providers on one server. aqStatus, when non-zero,
// makes the air-quality route fail with that status.
type upstream struct {
	srv      *httptest.Server
	aqStatus atomic.Int32
	calls    atomic.Int32
}

func newUpstream(t *testing.T) *upstream {
	t.Helper()
	u := &upstream{}
	r := mux.NewRouter()
	write := func(w http.ResponseWriter, status int, body string) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}
	r.HandleFunc("/forecast", func(w http.ResponseWriter, r *http.Request) {
		u.calls.Add(1)
		write(w, http.StatusOK, forecastBody)
	})
	r.HandleFunc("/air-quality", func(w http.ResponseWriter, r *http.Request) {
		u.calls.Add(1)
		if s := u.aqStatus.Load(); s != 0 {
			write(w, int(s), `{"reason": "maintenance"}`)
			return
		}
		write(w, http.StatusOK, airQualityBody)
	})
	r.HandleFunc("/vigilance/cartevigilance/encours", func(w http.ResponseWriter, r *http.Request) {
		u.calls.Add(1)
		if r.Header.Get("apikey") != "token" {
			write(w, http.StatusUnauthorized, `{"message": "bad key"}`)
			return
		}
		write(w, http.StatusOK, vigilanceBody)
	})
	u.srv = httptest.NewServer(r)
	t.Cleanup(u.srv.Close)
	return u
}

func testConfig(u *upstream) *config.Config {
	return &config.Config{
		ServerPort:          "0",
		Location:            config.Location{Name: "Chamonix", Latitude: 45.9237, Longitude: 6.8694},
		Forecast:            config.DomainConfig{Enabled: true, Interval: time.Hour, URL: u.srv.URL + "/forecast"},
		AirQuality:          config.DomainConfig{Enabled: true, Interval: time.Hour, URL: u.srv.URL + "/air-quality"},
		Vigilance:           config.DomainConfig{Enabled: true, Interval: 6 * time.Hour, URL: u.srv.URL + "/vigilance"},
		VigilanceAPIToken:   "token",
		ProviderTimeout:     2 * time.Second,
		RefreshWaitTimeout:  2 * time.Second,
		Mirror:              config.Mirror{Backend: config.MirrorNone},
		RateLimitRPS:        100,
		RateLimitBurst:      100,
		StaleAfterIntervals: 2,
	}
}

func newService(t *testing.T, cfg *config.Config, logger *zap.Logger) *Service {
	t.Helper()
	s, err := New(cfg, logger)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = s.Stop(ctx)
	})
	return s
}

func get(t *testing.T, h http.Handler, target string) (int, map[string]interface{}) {
	t.Helper()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	var body map[string]interface{}
	_ = json.NewDecoder(w.Body).Decode(&body)
	return w.Code, body
}

// waitHealth polls /health until it reports want.
func waitHealth(t *testing.T, s *Service, want string) map[string]interface{} {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	var body map[string]interface{}
	for time.Now().Before(deadline) {
		_, body = get(t, s.Handler(), "/health")
		if body["status"] == want {
			return body
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("health never reached %q, last = %v", want, body)
	return nil
}

func TestResolveLocation(t *testing.T) {
	tests := []struct {
		name       string
		p          geo.Point
		maxKm      float64
		wantMassif bool
		wantDept   string
	}{
		{"chamonix", geo.Point{Lat: 45.9237, Lon: 6.8694}, 0, true, "74"},
		{"london without cutoff", geo.Point{Lat: 51.5, Lon: -0.12}, 0, true, ""},
		{"london with cutoff", geo.Point{Lat: 51.5, Lon: -0.12}, 50, false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc := ResolveLocation(tt.name, tt.p, tt.maxKm)
			if loc.Massif.Found != tt.wantMassif {
				t.Errorf("Massif.Found = %v, want %v", loc.Massif.Found, tt.wantMassif)
			}
			if loc.InFrance() != (tt.wantDept != "") || loc.Department.Region.Code != tt.wantDept {
				t.Errorf("Department = %v, want %q", loc.Department, tt.wantDept)
			}
		})
	}
}

// TestService_EndToEnd verifies every domain publishes through the real clients and router.
func TestService_EndToEnd(t *testing.T) {
	u := newUpstream(t)
	s := newService(t, testConfig(u), zap.NewNop())

	if code, body := get(t, s.Handler(), "/health"); code != http.StatusServiceUnavailable || body["status"] != "starting" {
		t.Errorf("health before Start = %d %v, want 503 starting", code, body["status"])
	}
	if err := s.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	waitHealth(t, s, "healthy")

	_, body := get(t, s.Handler(), "/snapshot")
	domains, _ := body["domains"].(map[string]interface{})
	for _, d := range models.Domains {
		v, _ := domains[string(d)].(map[string]interface{})
		if v["available"] != true || v["stale"] != false {
			t.Errorf("%s view = %v, want available and fresh", d, v)
		}
	}
	// 4 forecast parts, 1 air quality, 1 vigilance.
	if got := u.calls.Load(); got != 6 {
		t.Errorf("upstream calls = %d, want 6", got)
	}

	code, alerts := get(t, s.Handler(), "/alerts?min=orange")
	if code != http.StatusOK || alerts["hasOrangeAlert"] != true {
		t.Errorf("alerts = %d %v", code, alerts)
	}
}

// TestService_PartialFailure verifies one failing provider leaves the others fresh.
func TestService_PartialFailure(t *testing.T) {
	u := newUpstream(t)
	s := newService(t, testConfig(u), zap.NewNop())
	if err := s.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	waitHealth(t, s, "healthy")

	u.aqStatus.Store(http.StatusBadGateway)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/snapshot/air_quality/refresh?wait=true", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("refresh status = %d, want 200", w.Code)
	}
	var view map[string]interface{}
	_ = json.NewDecoder(w.Body).Decode(&view)
	if view["available"] != true || view["stale"] != true || view["lastErrorKind"] != "upstream_5xx" {
		t.Errorf("air_quality view = %v, want previous record marked stale", view)
	}

	body := waitHealth(t, s, "degraded")
	checks, _ := body["checks"].(map[string]interface{})
	if checks["air_quality"] != "stale" || checks["forecast"] != "healthy" || checks["vigilance"] != "healthy" {
		t.Errorf("checks = %v", checks)
	}
}

// TestService_OutsideFrance verifies vigilance reports not applicable without calling upstream.
func TestService_OutsideFrance(t *testing.T) {
	u := newUpstream(t)
	cfg := testConfig(u)
	cfg.Location = config.Location{Name: "London", Latitude: 51.5, Longitude: -0.12}
	cfg.Forecast.Enabled = false
	cfg.AirQuality.Enabled = false
	core, logs := observer.New(zapcore.WarnLevel)

	s := newService(t, cfg, zap.New(core))
	if len(logs.FilterMessageSnippet("outside vigilance coverage").All()) != 1 {
		t.Error("expected one warning about vigilance coverage")
	}
	if err := s.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	waitHealth(t, s, "healthy")

	_, alerts := get(t, s.Handler(), "/alerts")
	if alerts["applicable"] != false || alerts["reason"] != models.ReasonNotInFrance {
		t.Errorf("alerts = %v", alerts)
	}
	if got := u.calls.Load(); got != 0 {
		t.Errorf("upstream calls = %d, want 0", got)
	}
}

// TestService_MissingTokenIsAuthFailure verifies a missing token degrades only vigilance.
func TestService_MissingTokenIsAuthFailure(t *testing.T) {
	u := newUpstream(t)
	cfg := testConfig(u)
	cfg.VigilanceAPIToken = ""
	s := newService(t, cfg, zap.NewNop())
	if err := s.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	body := waitHealth(t, s, "degraded")
	checks, _ := body["checks"].(map[string]interface{})
	if checks["vigilance"] != "unavailable" || checks["forecast"] != "healthy" {
		t.Errorf("checks = %v", checks)
	}
	_, v := get(t, s.Handler(), "/snapshot/vigilance")
	if v["lastErrorKind"] != "auth" {
		t.Errorf("vigilance lastErrorKind = %v, want auth", v["lastErrorKind"])
	}
}

// TestService_MemcachedMirrorCheck verifies an unreachable memcached shows in health checks only.
func TestService_MemcachedMirrorCheck(t *testing.T) {
	u := newUpstream(t)
	cfg := testConfig(u)
	cfg.Mirror = config.Mirror{Backend: config.MirrorMemcached, MemcachedAddrs: "127.0.0.1:1", MemcachedTimeout: 100 * time.Millisecond}
	s := newService(t, cfg, zap.NewNop())
	if err := s.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	body := waitHealth(t, s, "healthy")
	checks, _ := body["checks"].(map[string]interface{})
	if checks["mirror"] != "unhealthy" {
		t.Errorf("checks[mirror] = %v, want unhealthy", checks["mirror"])
	}
}

func TestService_StopDrains(t *testing.T) {
	u := newUpstream(t)
	s, err := New(testConfig(u), zap.NewNop())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := s.Stop(context.Background()); err != nil {
		t.Fatalf("Stop() before Start error = %v", err)
	}
	if code, body := get(t, s.Handler(), "/health"); code != http.StatusServiceUnavailable || body["status"] != "shutting-down" {
		t.Errorf("health after Stop = %d %v", code, body["status"])
	}
}

func TestNew_UnknownMirrorBackend(t *testing.T) {
	u := newUpstream(t)
	cfg := testConfig(u)
	cfg.Mirror.Backend = "redis"
	if _, err := New(cfg, nil); err == nil {
		t.Error("New() expected error for unknown mirror backend")
	}
}
