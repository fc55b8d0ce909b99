package poller

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/kjstillabower/mountain-weather-poller/internal/models"
)

// TestRegistry_DuplicateDomain verifies a domain can be registered once.
func TestRegistry_DuplicateDomain(t *testing.T) {
	a := newAQ(t, "dup_test", &fake[models.AirQuality]{name: "aq", fetch: aqiByCall})
	b := newAQ(t, "dup_test", &fake[models.AirQuality]{name: "aq", fetch: aqiByCall})

	if _, err := NewRegistry(a, b); err == nil {
		t.Fatal("NewRegistry() expected duplicate error")
	}
}

// TestRegistry_Lookup verifies Get, Domains order and Views.
func TestRegistry_Lookup(t *testing.T) {
	a := newAQ(t, "reg_a", &fake[models.AirQuality]{name: "aq", fetch: aqiByCall})
	b := newAQ(t, "reg_b", &fake[models.AirQuality]{name: "aq", fetch: aqiByCall})
	r, err := NewRegistry(b, a)
	if err != nil {
		t.Fatal(err)
	}

	if got := r.Domains(); len(got) != 2 || got[0] != "reg_b" || got[1] != "reg_a" {
		t.Errorf("Domains() = %v, want registration order", got)
	}
	if _, ok := r.Get("reg_a"); !ok {
		t.Error("Get(reg_a) not found")
	}
	if _, ok := r.Get("missing"); ok {
		t.Error("Get(missing) should not be found")
	}
	views := r.Views()
	if len(views) != 2 || views[0].Available {
		t.Errorf("Views() = %+v", views)
	}
}

// TestScheduler_RunsImmediately verifies a registered coordinator gets its
// first pass as soon as the scheduler starts.
func TestScheduler_RunsImmediately(t *testing.T) {
	c := newAQ(t, "sched_test", &fake[models.AirQuality]{name: "aq", fetch: aqiByCall})
	r, err := NewRegistry(c)
	if err != nil {
		t.Fatal(err)
	}
	s := NewScheduler(nil)
	if err := r.StartAll(s); err != nil {
		t.Fatalf("StartAll() error = %v", err)
	}
	if s.Len() != 1 {
		t.Errorf("scheduled jobs = %d, want 1", s.Len())
	}
	s.Start()
	defer s.Stop()

	waitFor(t, "first scheduled pass", func() bool { return c.Snapshot().Sequence >= 1 })
	r.StopAll()
}

// TestScheduler_RejectsZeroInterval verifies invalid intervals are refused.
func TestScheduler_RejectsZeroInterval(t *testing.T) {
	s := NewScheduler(nil)
	if err := s.Every("bad", 0, func() {}); err == nil {
		t.Error("Every(0) expected error")
	}
	if err := s.Every("ok", time.Hour, func() {}); err != nil {
		t.Errorf("Every(1h) error = %v", err)
	}
}

// TestView_JSON verifies the wire shape of a view.
func TestView_JSON(t *testing.T) {
	ts := time.Date(2026, 2, 12, 10, 0, 0, 0, time.UTC)
	rec := models.Vigilance{Applicable: false, Reason: models.ReasonNotInFrance}
	s := Snapshot[models.Vigilance]{Domain: models.DomainVigilance, Record: &rec, Sequence: 3, MergedAt: ts, LastSuccess: ts, LastOutcome: OutcomeSuccess}

	b, err := json.Marshal(s.View())
	if err != nil {
		t.Fatal(err)
	}
	got := string(b)
	for _, want := range []string{`"domain":"vigilance"`, `"available":true`, `"sequence":3`, `"state":"idle"`, `"reason":"not_in_france"`, `"lastSuccess":"2026-02-12T10:00:00Z"`} {
		if !strings.Contains(got, want) {
			t.Errorf("view JSON %s missing %s", got, want)
		}
	}
	if strings.Contains(got, "lastFailure") {
		t.Errorf("zero lastFailure should be omitted: %s", got)
	}

	empty := Snapshot[models.Vigilance]{Domain: models.DomainVigilance}.View()
	if empty.Record != nil {
		t.Error("unavailable view should carry a nil record")
	}
	if age := empty.Age(ts); age != -1 {
		t.Errorf("Age() = %v, want -1", age)
	}
}
