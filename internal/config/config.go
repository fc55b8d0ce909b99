package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/kjstillabower/mountain-weather-poller/internal/geo"
	"github.com/kjstillabower/mountain-weather-poller/internal/validation"
)

// Mirror backends.
const (
	MirrorNone      = "none"
	MirrorInMemory  = "in_memory"
	MirrorMemcached = "memcached"
)

// Config holds service configuration loaded from .env, YAML, secrets and env.
type Config struct {
	ServerPort string `validate:"required,numeric"`

	Location Location

	Forecast   DomainConfig
	AirQuality DomainConfig
	Vigilance  DomainConfig

	// VigilanceAPIToken may be empty; the vigilance provider then reports
	// an auth error on every pass.
	VigilanceAPIToken string

	ProviderTimeout    time.Duration
	RefreshWaitTimeout time.Duration
	ShutdownTimeout    time.Duration

	Breaker Breaker

	Mirror Mirror

	RateLimitRPS   int `validate:"gt=0"`
	RateLimitBurst int `validate:"gt=0"`

	// MaxMassifDistanceKm bounds nearest-massif resolution; 0 disables the cutoff.
	MaxMassifDistanceKm float64 `validate:"gte=0"`

	// StaleAfterIntervals is the number of missed intervals after which
	// health reports a domain as stale even when its last pass succeeded.
	StaleAfterIntervals int `validate:"gte=1"`
}

// Location is the single configured point every domain polls for.
type Location struct {
	Name      string
	Latitude  float64 `validate:"gte=-90,lte=90"`
	Longitude float64 `validate:"gte=-180,lte=180"`
}

// Point returns the location as a geo.Point.
func (l Location) Point() geo.Point {
	return geo.Point{Lat: l.Latitude, Lon: l.Longitude}
}

// DomainConfig configures one polling domain.
type DomainConfig struct {
	Enabled  bool
	Interval time.Duration
	URL      string
}

// Breaker configures the per-provider circuit breaker.
type Breaker struct {
	Enabled          bool
	FailureThreshold uint32 `validate:"gt=0"`
	OpenTimeout      time.Duration
}

// Mirror configures optional write-only snapshot publication.
type Mirror struct {
	Backend               string `validate:"oneof=none in_memory memcached"`
	TTL                   time.Duration
	MemcachedAddrs        string
	MemcachedTimeout      time.Duration
	MemcachedMaxIdleConns int
}

type domainFile struct {
	Enabled  *bool  `yaml:"enabled"`
	Interval string `yaml:"interval"`
	URL      string `yaml:"url"`
}

type fileConfig struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`

	Location struct {
		Name      string   `yaml:"name"`
		Latitude  *float64 `yaml:"latitude"`
		Longitude *float64 `yaml:"longitude"`
	} `yaml:"location"`

	Domains struct {
		Forecast   domainFile `yaml:"forecast"`
		AirQuality domainFile `yaml:"air_quality"`
		Vigilance  domainFile `yaml:"vigilance"`
	} `yaml:"domains"`

	Provider struct {
		Timeout string `yaml:"timeout"`
		Breaker struct {
			Enabled          *bool  `yaml:"enabled"`
			FailureThreshold uint32 `yaml:"failure_threshold"`
			OpenTimeout      string `yaml:"open_timeout"`
		} `yaml:"circuit_breaker"`
	} `yaml:"provider"`

	Refresh struct {
		WaitTimeout    string `yaml:"wait_timeout"`
		RateLimitRPS   int    `yaml:"rate_limit_rps"`
		RateLimitBurst int    `yaml:"rate_limit_burst"`
	} `yaml:"refresh"`

	Mirror struct {
		Backend   string `yaml:"backend"`
		TTL       string `yaml:"ttl"`
		Memcached struct {
			Addrs        string `yaml:"addrs"`
			Timeout      string `yaml:"timeout"`
			MaxIdleConns int    `yaml:"max_idle_conns"`
		} `yaml:"memcached"`
	} `yaml:"mirror"`

	Geo struct {
		MaxMassifDistanceKm float64 `yaml:"max_massif_distance_km"`
	} `yaml:"geo"`

	Health struct {
		StaleAfterIntervals int `yaml:"stale_after_intervals"`
	} `yaml:"health"`

	Shutdown struct {
		Timeout string `yaml:"timeout"`
	} `yaml:"shutdown"`
}

type secretsFile struct {
	VigilanceAPIToken string `yaml:"vigilance_api_token"`
}

// Load reads .env (optional), then {CONFIG_DIR}/{ENV_NAME}.yaml (defaults: ./config, dev)
// and {CONFIG_DIR}/secrets.yaml. Env vars override file values. Call from project root
// unless CONFIG_DIR is set.
func Load() (*Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("config: get working directory: %w", err)
	}
	if err := godotenv.Load(filepath.Join(cwd, ".env")); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	env := os.Getenv("ENV_NAME")
	if env == "" {
		env = "dev"
	}
	dir := os.Getenv("CONFIG_DIR")
	if dir == "" {
		dir = filepath.Join(cwd, "config")
	}

	configPath := filepath.Join(dir, env+".yaml")
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", configPath)
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	cfg := &Config{}

	cfg.ServerPort = envOr("SERVER_PORT", fc.Server.Port)
	if cfg.ServerPort == "" {
		cfg.ServerPort = "8080"
	}

	cfg.Location.Name = strings.TrimSpace(fc.Location.Name)
	if fc.Location.Latitude == nil || fc.Location.Longitude == nil {
		if os.Getenv("LOCATION_LATITUDE") == "" || os.Getenv("LOCATION_LONGITUDE") == "" {
			return nil, fmt.Errorf("location.latitude and location.longitude required (set in config or LOCATION_LATITUDE/LOCATION_LONGITUDE)")
		}
	} else {
		cfg.Location.Latitude = *fc.Location.Latitude
		cfg.Location.Longitude = *fc.Location.Longitude
	}
	if cfg.Location.Latitude, err = envFloat("LOCATION_LATITUDE", cfg.Location.Latitude); err != nil {
		return nil, err
	}
	if cfg.Location.Longitude, err = envFloat("LOCATION_LONGITUDE", cfg.Location.Longitude); err != nil {
		return nil, err
	}

	cfg.Forecast = domain(fc.Domains.Forecast, time.Hour)
	cfg.AirQuality = domain(fc.Domains.AirQuality, time.Hour)
	cfg.Vigilance = domain(fc.Domains.Vigilance, 6*time.Hour)

	cfg.VigilanceAPIToken = strings.TrimSpace(os.Getenv("VIGILANCE_API_TOKEN"))
	if cfg.VigilanceAPIToken == "" {
		token, err := loadSecrets(filepath.Join(dir, "secrets.yaml"))
		if err != nil {
			return nil, err
		}
		cfg.VigilanceAPIToken = token
	}

	cfg.ProviderTimeout = parseDuration(fc.Provider.Timeout, 30*time.Second)
	cfg.Breaker.Enabled = true
	if fc.Provider.Breaker.Enabled != nil {
		cfg.Breaker.Enabled = *fc.Provider.Breaker.Enabled
	}
	cfg.Breaker.FailureThreshold = fc.Provider.Breaker.FailureThreshold
	if cfg.Breaker.FailureThreshold == 0 {
		cfg.Breaker.FailureThreshold = 5
	}
	cfg.Breaker.OpenTimeout = parseDuration(fc.Provider.Breaker.OpenTimeout, 2*time.Minute)

	cfg.RefreshWaitTimeout = parseDuration(fc.Refresh.WaitTimeout, 45*time.Second)
	cfg.RateLimitRPS = fc.Refresh.RateLimitRPS
	if cfg.RateLimitRPS <= 0 {
		cfg.RateLimitRPS = 1
	}
	cfg.RateLimitBurst = fc.Refresh.RateLimitBurst
	if cfg.RateLimitBurst <= 0 {
		cfg.RateLimitBurst = 5
	}

	cfg.Mirror.Backend = strings.TrimSpace(strings.ToLower(envOr("MIRROR_BACKEND", fc.Mirror.Backend)))
	if cfg.Mirror.Backend == "" {
		cfg.Mirror.Backend = MirrorNone
	}
	cfg.Mirror.TTL = parseDurationOrZero(fc.Mirror.TTL, 0)
	if cfg.Mirror.TTL < 0 {
		cfg.Mirror.TTL = 0
	}
	cfg.Mirror.MemcachedAddrs = strings.TrimSpace(envOr("MEMCACHED_ADDRS", fc.Mirror.Memcached.Addrs))
	if cfg.Mirror.MemcachedAddrs == "" {
		cfg.Mirror.MemcachedAddrs = "localhost:11211"
	}
	cfg.Mirror.MemcachedTimeout = parseDuration(fc.Mirror.Memcached.Timeout, 500*time.Millisecond)
	cfg.Mirror.MemcachedMaxIdleConns = fc.Mirror.Memcached.MaxIdleConns
	if cfg.Mirror.MemcachedMaxIdleConns <= 0 {
		cfg.Mirror.MemcachedMaxIdleConns = 2
	}

	cfg.MaxMassifDistanceKm = fc.Geo.MaxMassifDistanceKm
	cfg.StaleAfterIntervals = fc.Health.StaleAfterIntervals
	if cfg.StaleAfterIntervals <= 0 {
		cfg.StaleAfterIntervals = 2
	}

	cfg.ShutdownTimeout = parseDuration(fc.Shutdown.Timeout, 30*time.Second)

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func domain(f domainFile, defaultInterval time.Duration) DomainConfig {
	d := DomainConfig{Enabled: true, URL: strings.TrimSpace(f.URL)}
	if f.Enabled != nil {
		d.Enabled = *f.Enabled
	}
	d.Interval = parseDurationOrZero(f.Interval, defaultInterval)
	return d
}

func loadSecrets(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("read secrets file: %w", err)
	}
	var sec secretsFile
	if err := yaml.Unmarshal(data, &sec); err != nil {
		return "", fmt.Errorf("parse secrets file: %w", err)
	}
	return strings.TrimSpace(sec.VigilanceAPIToken), nil
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return strings.TrimSpace(fallback)
}

func envFloat(key string, fallback float64) (float64, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a decimal number, got %q", key, v)
	}
	return f, nil
}

// parseDuration parses a duration string and returns defaultVal if parsing fails or result is <= 0.
func parseDuration(s string, defaultVal time.Duration) time.Duration {
	d := parseDurationOrZero(s, defaultVal)
	if d <= 0 {
		return defaultVal
	}
	return d
}

// parseDurationOrZero parses a duration string, returning defaultVal on empty string or parse error.
// Returns zero or negative durations as-is (caller should handle fallback).
func parseDurationOrZero(s string, defaultVal time.Duration) time.Duration {
	s = strings.TrimSpace(s)
	if s == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return defaultVal
	}
	return d
}

// validate runs struct tag rules, then checks that every enabled domain has
// a positive interval. An explicit zero or negative interval is rejected
// rather than defaulted.
func validate(cfg *Config) error {
	if err := validation.Struct(cfg); err != nil {
		return err
	}
	for _, d := range []struct {
		name string
		cfg  DomainConfig
	}{
		{"forecast", cfg.Forecast},
		{"air_quality", cfg.AirQuality},
		{"vigilance", cfg.Vigilance},
	} {
		if d.cfg.Enabled && d.cfg.Interval <= 0 {
			return fmt.Errorf("domains.%s.interval must be positive, got %s", d.name, d.cfg.Interval)
		}
	}
	if !cfg.Forecast.Enabled && !cfg.AirQuality.Enabled && !cfg.Vigilance.Enabled {
		return fmt.Errorf("at least one domain must be enabled")
	}
	return nil
}
