//go:build integration
// +build integration

package testhelpers

import (
	"context"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/kjstillabower/mountain-weather-poller/internal/config"
	"github.com/kjstillabower/mountain-weather-poller/internal/observability"
	"github.com/kjstillabower/mountain-weather-poller/internal/service"
)

// IntegrationTestConfig holds configuration for integration tests against live providers.
type IntegrationTestConfig struct {
	Latitude       float64
	Longitude      float64
	VigilanceToken string // empty skips the vigilance domain
	MirrorBackend  string // "none", "in_memory" or "memcached"
	MemcachedAddr  string
}

// GetIntegrationConfig loads integration test configuration from environment.
// Skips the test unless INTEGRATION_LIVE=1, since these tests call public APIs.
func GetIntegrationConfig(t *testing.T) IntegrationTestConfig {
	t.Helper()
	if os.Getenv("INTEGRATION_LIVE") != "1" {
		t.Skip("INTEGRATION_LIVE not set, skipping live integration test")
	}

	cfg := IntegrationTestConfig{
		Latitude:       45.9237,
		Longitude:      6.8694,
		VigilanceToken: os.Getenv("VIGILANCE_API_TOKEN"),
		MirrorBackend:  os.Getenv("INTEGRATION_MIRROR_BACKEND"),
		MemcachedAddr:  os.Getenv("MEMCACHED_ADDRS"),
	}
	if v, err := strconv.ParseFloat(os.Getenv("INTEGRATION_LATITUDE"), 64); err == nil {
		cfg.Latitude = v
	}
	if v, err := strconv.ParseFloat(os.Getenv("INTEGRATION_LONGITUDE"), 64); err == nil {
		cfg.Longitude = v
	}
	if cfg.MirrorBackend == "" {
		cfg.MirrorBackend = config.MirrorNone
	}
	if cfg.MemcachedAddr == "" {
		cfg.MemcachedAddr = "localhost:11211"
	}
	return cfg
}

// SetupIntegrationService creates a fully wired Service against the default provider URLs.
// The returned cleanup stops pollers and closes the mirror.
func SetupIntegrationService(t *testing.T, ic IntegrationTestConfig) (*service.Service, func()) {
	t.Helper()
	logger, err := observability.NewLogger()
	if err != nil {
		t.Fatalf("NewLogger() error = %v", err)
	}

	cfg := &config.Config{
		ServerPort:         "0",
		Location:           config.Location{Name: "integration", Latitude: ic.Latitude, Longitude: ic.Longitude},
		Forecast:           config.DomainConfig{Enabled: true, Interval: time.Hour},
		AirQuality:         config.DomainConfig{Enabled: true, Interval: time.Hour},
		Vigilance:          config.DomainConfig{Enabled: ic.VigilanceToken != "", Interval: 6 * time.Hour},
		VigilanceAPIToken:  ic.VigilanceToken,
		ProviderTimeout:    15 * time.Second,
		RefreshWaitTimeout: 45 * time.Second,
		Breaker:            config.Breaker{Enabled: true, FailureThreshold: 5, OpenTimeout: 2 * time.Minute},
		Mirror: config.Mirror{
			Backend:          ic.MirrorBackend,
			TTL:              time.Hour,
			MemcachedAddrs:   ic.MemcachedAddr,
			MemcachedTimeout: 500 * time.Millisecond,
		},
		RateLimitRPS:        10,
		RateLimitBurst:      10,
		StaleAfterIntervals: 2,
	}

	svc, err := service.New(cfg, logger)
	if err != nil {
		t.Fatalf("service.New() error = %v", err)
	}
	cleanup := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = svc.Stop(ctx)
		_ = logger.Sync()
	}
	return svc, cleanup
}
