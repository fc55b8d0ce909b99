//go:build integration
// +build integration

package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/kjstillabower/mountain-weather-poller/internal/models"
	"github.com/kjstillabower/mountain-weather-poller/internal/testhelpers"
)

// TestService_LiveRefresh_Integration verifies a waited refresh publishes a record from the live providers.
func TestService_LiveRefresh_Integration(t *testing.T) {
	ic := testhelpers.GetIntegrationConfig(t)
	svc, cleanup := testhelpers.SetupIntegrationService(t, ic)
	defer cleanup()

	for _, d := range []models.Domain{models.DomainForecast, models.DomainAirQuality} {
		p, ok := svc.Registry().Get(d)
		if !ok {
			t.Fatalf("domain %s not registered", d)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 45*time.Second)
		view, err := p.RefreshView(ctx)
		cancel()
		if err != nil {
			t.Fatalf("%s RefreshView() error = %v", d, err)
		}
		if !view.Available {
			t.Errorf("%s unavailable after refresh: %s (%s)", d, view.LastError, view.LastErrorKind)
		}
		if view.Stale {
			t.Logf("%s partially failed: %v", d, view.FailedParts)
		}
	}
}
