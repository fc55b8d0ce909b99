package poller

import (
	"context"
	"fmt"

	"github.com/kjstillabower/mountain-weather-poller/internal/models"
)

// Poller is the type-erased view of a Coordinator.
type Poller interface {
	Domain() models.Domain
	View() View
	RefreshView(ctx context.Context) (View, error)
	RequestRefresh()
	Start(s *Scheduler) error
	Stop()
}

// Registry holds the coordinators of one process, keyed by domain.
// It is built once at startup and read-only afterwards.
type Registry struct {
	order    []models.Domain
	byDomain map[models.Domain]Poller
}

// NewRegistry fails on duplicate domains.
func NewRegistry(pollers ...Poller) (*Registry, error) {
	r := &Registry{byDomain: make(map[models.Domain]Poller, len(pollers))}
	for _, p := range pollers {
		d := p.Domain()
		if _, dup := r.byDomain[d]; dup {
			return nil, fmt.Errorf("poller: duplicate domain %s", d)
		}
		r.byDomain[d] = p
		r.order = append(r.order, d)
	}
	return r, nil
}

func (r *Registry) Get(d models.Domain) (Poller, bool) {
	p, ok := r.byDomain[d]
	return p, ok
}

// Domains returns registered domains in registration order.
func (r *Registry) Domains() []models.Domain {
	return append([]models.Domain(nil), r.order...)
}

// Views returns every domain's current view in registration order.
func (r *Registry) Views() []View {
	out := make([]View, 0, len(r.order))
	for _, d := range r.order {
		out = append(out, r.byDomain[d].View())
	}
	return out
}

// StartAll registers every coordinator with s.
func (r *Registry) StartAll(s *Scheduler) error {
	for _, d := range r.order {
		if err := r.byDomain[d].Start(s); err != nil {
			return err
		}
	}
	return nil
}

// StopAll stops every coordinator; passes in flight are abandoned.
func (r *Registry) StopAll() {
	for _, d := range r.order {
		r.byDomain[d].Stop()
	}
}
