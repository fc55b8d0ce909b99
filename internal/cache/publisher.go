package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kjstillabower/mountain-weather-poller/internal/observability"
	"github.com/kjstillabower/mountain-weather-poller/internal/poller"
	"github.com/kjstillabower/mountain-weather-poller/internal/slug"
)

// DefaultWriteTimeout bounds a single mirror write.
const DefaultWriteTimeout = 2 * time.Second

// Publisher writes every published snapshot view to a Mirror under
// "snapshot:{location}:{domain}". Write failures are logged and counted,
// never returned to the coordinator.
type Publisher struct {
	mirror   Mirror
	backend  string
	location string
	ttl      time.Duration
	timeout  time.Duration
	logger   *zap.Logger
}

// NewPublisher returns a Publisher. backend labels metrics; location is slugged into keys.
func NewPublisher(mirror Mirror, backend, location string, ttl time.Duration, logger *zap.Logger) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{
		mirror:   mirror,
		backend:  backend,
		location: location,
		ttl:      ttl,
		timeout:  DefaultWriteTimeout,
		logger:   logger,
	}
}

// Key returns the mirror key for a domain.
func (p *Publisher) Key(domain string) string {
	return slug.Key("snapshot", p.location, domain)
}

// Publish serializes v and writes it. Suitable as poller.Config.OnPublish.
func (p *Publisher) Publish(v poller.View) {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()
	if err := p.write(ctx, v); err != nil {
		observability.MirrorWritesTotal.WithLabelValues(p.backend, "error").Inc()
		p.logger.Warn("snapshot mirror write failed",
			zap.String("backend", p.backend),
			zap.String("domain", string(v.Domain)),
			zap.Uint64("sequence", v.Sequence),
			zap.Error(err),
		)
		return
	}
	observability.MirrorWritesTotal.WithLabelValues(p.backend, "success").Inc()
}

func (p *Publisher) write(ctx context.Context, v poller.View) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := p.mirror.Set(ctx, p.Key(string(v.Domain)), raw, p.ttl); err != nil {
		return fmt.Errorf("mirror set: %w", err)
	}
	return nil
}
