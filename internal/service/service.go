// Package service assembles the poller process: location resolution,
// provider clients, one coordinator per enabled domain, the optional
// snapshot mirror and the HTTP router.
package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kjstillabower/mountain-weather-poller/internal/cache"
	"github.com/kjstillabower/mountain-weather-poller/internal/client"
	"github.com/kjstillabower/mountain-weather-poller/internal/config"
	"github.com/kjstillabower/mountain-weather-poller/internal/geo"
	httphandler "github.com/kjstillabower/mountain-weather-poller/internal/http"
	"github.com/kjstillabower/mountain-weather-poller/internal/lifecycle"
	"github.com/kjstillabower/mountain-weather-poller/internal/merge"
	"github.com/kjstillabower/mountain-weather-poller/internal/models"
	"github.com/kjstillabower/mountain-weather-poller/internal/poller"
)

// Service owns every long-lived component of one poller process.
type Service struct {
	cfg       *config.Config
	logger    *zap.Logger
	location  httphandler.Location
	registry  *poller.Registry
	scheduler *poller.Scheduler
	phase     *lifecycle.Tracker
	handler   http.Handler
	memcached *cache.MemcachedMirror
}

// ResolveLocation resolves p against the massif and department tables once.
// maxMassifKm <= 0 disables the massif cutoff.
func ResolveLocation(name string, p geo.Point, maxMassifKm float64) httphandler.Location {
	return httphandler.Location{
		Name:       name,
		Latitude:   p.Lat,
		Longitude:  p.Lon,
		Massif:     geo.Massifs.NearestWithin(p, maxMassifKm),
		Department: geo.Departments.Containing(p),
	}
}

// New wires a Service from cfg. Nothing polls until Start.
func New(cfg *config.Config, logger *zap.Logger) (*Service, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		cfg:       cfg,
		logger:    logger,
		scheduler: poller.NewScheduler(logger),
		phase:     lifecycle.New(),
	}

	s.location = ResolveLocation(cfg.Location.Name, cfg.Location.Point(), cfg.MaxMassifDistanceKm)
	logger.Info("location resolved",
		zap.String("location", cfg.Location.Name),
		zap.Stringer("point", cfg.Location.Point()),
		zap.Stringer("massif", s.location.Massif),
		zap.Stringer("department", s.location.Department),
	)
	if !s.location.InFrance() && cfg.Vigilance.Enabled {
		logger.Warn("location outside vigilance coverage; vigilance will report not applicable",
			zap.Stringer("point", cfg.Location.Point()))
	}

	publish, err := s.mirror()
	if err != nil {
		return nil, err
	}

	pollers, err := s.coordinators(publish)
	if err != nil {
		return nil, err
	}
	s.registry, err = poller.NewRegistry(pollers...)
	if err != nil {
		return nil, err
	}

	intervals := make(map[models.Domain]time.Duration)
	for _, d := range s.registry.Domains() {
		p, _ := s.registry.Get(d)
		if iv, ok := p.(interface{ Interval() time.Duration }); ok {
			intervals[d] = iv.Interval()
		}
	}
	healthConfig := &httphandler.HealthConfig{
		Intervals:           intervals,
		StaleAfterIntervals: cfg.StaleAfterIntervals,
	}
	if s.memcached != nil {
		healthConfig.MirrorPing = s.memcached.Ping
	}

	var limiter *rate.Limiter
	if cfg.RateLimitRPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)
	}
	h := httphandler.NewHandler(s.registry, s.location, s.phase, healthConfig, logger)
	s.handler = httphandler.NewRouter(h, limiter, cfg.RefreshWaitTimeout, logger)
	return s, nil
}

// mirror returns the OnPublish hook for the configured backend, or nil for "none".
func (s *Service) mirror() (func(poller.View), error) {
	var m cache.Mirror
	switch s.cfg.Mirror.Backend {
	case config.MirrorNone:
		s.logger.Info("snapshot mirror: none")
		return nil, nil
	case config.MirrorInMemory:
		m = cache.NewInMemoryMirror()
		s.logger.Info("snapshot mirror: in_memory")
	case config.MirrorMemcached:
		mc := cache.NewMemcachedMirror(s.cfg.Mirror.MemcachedAddrs, s.cfg.Mirror.MemcachedTimeout, s.cfg.Mirror.MemcachedMaxIdleConns)
		s.memcached = mc
		m = mc
		s.logger.Info("snapshot mirror: memcached", zap.String("addrs", s.cfg.Mirror.MemcachedAddrs))
	default:
		return nil, fmt.Errorf("service: unknown mirror backend %q", s.cfg.Mirror.Backend)
	}
	name := s.cfg.Location.Name
	if name == "" {
		name = s.cfg.Location.Point().String()
	}
	return cache.NewPublisher(m, s.cfg.Mirror.Backend, name, s.cfg.Mirror.TTL, s.logger).Publish, nil
}

func (s *Service) clientOptions() client.Options {
	return client.Options{
		Timeout: s.cfg.ProviderTimeout,
		Breaker: client.BreakerConfig{
			Enabled:          s.cfg.Breaker.Enabled,
			FailureThreshold: s.cfg.Breaker.FailureThreshold,
			OpenTimeout:      s.cfg.Breaker.OpenTimeout,
		},
		Logger: s.logger,
	}
}

func (s *Service) coordinators(publish func(poller.View)) ([]poller.Poller, error) {
	cfg := s.cfg
	point := cfg.Location.Point()
	opts := s.clientOptions()
	var out []poller.Poller

	if cfg.Forecast.Enabled {
		fc := client.NewForecastClient(point, cfg.Forecast.URL, opts)
		adapters := make([]poller.Adapter[models.Forecast], 0, len(client.ForecastParts))
		for _, a := range fc.Adapters() {
			adapters = append(adapters, a)
		}
		c, err := poller.NewCoordinator(poller.Config[models.Forecast]{
			Domain:    models.DomainForecast,
			Interval:  cfg.Forecast.Interval,
			Adapters:  adapters,
			Merge:     merge.Forecast,
			Logger:    s.logger,
			OnPublish: publish,
		})
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}

	if cfg.AirQuality.Enabled {
		c, err := poller.NewCoordinator(poller.Config[models.AirQuality]{
			Domain:    models.DomainAirQuality,
			Interval:  cfg.AirQuality.Interval,
			Adapters:  []poller.Adapter[models.AirQuality]{client.NewAirQualityClient(point, cfg.AirQuality.URL, opts)},
			Merge:     merge.Replace[models.AirQuality](),
			Logger:    s.logger,
			OnPublish: publish,
		})
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}

	if cfg.Vigilance.Enabled {
		vc := client.NewVigilanceClient(s.location.Department, cfg.VigilanceAPIToken, cfg.Vigilance.URL, opts)
		c, err := poller.NewCoordinator(poller.Config[models.Vigilance]{
			Domain:    models.DomainVigilance,
			Interval:  cfg.Vigilance.Interval,
			Adapters:  []poller.Adapter[models.Vigilance]{vc},
			Merge:     merge.Replace[models.Vigilance](),
			Logger:    s.logger,
			OnPublish: publish,
		})
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// Location returns the resolved location.
func (s *Service) Location() httphandler.Location { return s.location }

// Registry returns the coordinator registry.
func (s *Service) Registry() *poller.Registry { return s.registry }

// Handler returns the HTTP router.
func (s *Service) Handler() http.Handler { return s.handler }

// Phase returns the lifecycle tracker consulted by /health.
func (s *Service) Phase() *lifecycle.Tracker { return s.phase }

// Start schedules every coordinator; each runs its first pass immediately.
func (s *Service) Start() error {
	if err := s.registry.StartAll(s.scheduler); err != nil {
		return fmt.Errorf("service: start pollers: %w", err)
	}
	s.scheduler.Start()
	s.logger.Info("pollers started", zap.Int("jobs", s.scheduler.Len()))
	return nil
}

// Drain marks the process as shutting down so /health returns 503.
func (s *Service) Drain() {
	s.phase.Drain()
}

// Stop halts scheduling and abandons passes in flight, waiting for them
// until ctx is done, then closes the mirror. Safe to call before Start.
func (s *Service) Stop(ctx context.Context) error {
	s.phase.Drain()
	s.scheduler.Stop()

	var errs []error
	done := make(chan struct{})
	go func() {
		s.registry.StopAll()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		errs = append(errs, fmt.Errorf("service: stop pollers: %w", ctx.Err()))
	}

	if s.memcached != nil {
		if err := s.memcached.Close(); err != nil {
			errs = append(errs, fmt.Errorf("memcached close: %w", err))
		}
	}
	return errors.Join(errs...)
}
