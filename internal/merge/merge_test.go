package merge

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/kjstillabower/mountain-weather-poller/internal/models"
)

func f(v float64) *float64 { return &v }

func day(d int, tmax float64) models.DailyForecast {
	return models.DailyForecast{Date: time.Date(2026, 2, d, 0, 0, 0, 0, time.UTC), TemperatureMax: f(tmax)}
}

func forecastOutcomes(temp float64, dailyErr error) []Outcome[models.Forecast] {
	out := []Outcome[models.Forecast]{
		{Name: "current", Value: models.Forecast{Current: &models.CurrentConditions{Temperature: f(temp)}, Elevation: f(1035)}},
		{Name: "hourly", Value: models.Forecast{Hourly: []models.HourlyForecast{}}},
	}
	if dailyErr != nil {
		out = append(out, Outcome[models.Forecast]{Name: "daily", Err: dailyErr})
	} else {
		out = append(out, Outcome[models.Forecast]{Name: "daily", Value: models.Forecast{Daily: []models.DailyForecast{day(12, temp)}}})
	}
	return out
}

// TestForecast_FirstCycle verifies a full success assembles every part.
func TestForecast_FirstCycle(t *testing.T) {
	res := Forecast(nil, forecastOutcomes(-2, nil))

	if !res.Full() || res.Err != nil {
		t.Fatalf("Result = %+v, want full success", res)
	}
	r := res.Record
	if r == nil || r.Current == nil || *r.Current.Temperature != -2 || len(r.Daily) != 1 || *r.Elevation != 1035 {
		t.Fatalf("Record = %+v", r)
	}
	if r.Hourly == nil {
		t.Error("empty hourly series should still replace the section")
	}
	if r.Hourly6h != nil {
		t.Error("Hourly6h was never fetched and should stay nil")
	}
}

// TestForecast_PartialFailureKeepsPreviousPart verifies a failed part keeps
// its previous values while successful parts advance.
func TestForecast_PartialFailureKeepsPreviousPart(t *testing.T) {
	first := Forecast(nil, forecastOutcomes(-2, nil))
	prev := first.Record
	prevDaily := prev.Daily

	boom := errors.New("daily down")
	res := Forecast(prev, forecastOutcomes(5, boom))

	if !res.Updated || res.Full() {
		t.Fatalf("Result = %+v, want partial", res)
	}
	if !reflect.DeepEqual(res.FailedParts, []string{"daily"}) {
		t.Errorf("FailedParts = %v, want [daily]", res.FailedParts)
	}
	if !errors.Is(res.Err, boom) {
		t.Errorf("Err = %v, want wrapping %v", res.Err, boom)
	}
	if *res.Record.Current.Temperature != 5 {
		t.Errorf("Current.Temperature = %v, want 5", *res.Record.Current.Temperature)
	}
	if !reflect.DeepEqual(res.Record.Daily, prevDaily) {
		t.Errorf("Daily = %+v, want previous %+v", res.Record.Daily, prevDaily)
	}
	if *prev.Current.Temperature != -2 {
		t.Error("previous record was mutated by the merge")
	}
	if res.Record == prev {
		t.Error("partial merge must produce a new record")
	}
}

// TestApply_AllFailed verifies a cycle with no success returns the previous
// record unchanged, or nil when there never was one.
func TestApply_AllFailed(t *testing.T) {
	merge := Replace[models.AirQuality]()
	fail := []Outcome[models.AirQuality]{{Name: "air_quality", Err: errors.New("timeout")}}

	res := merge(nil, fail)
	if res.Record != nil || res.Updated {
		t.Errorf("never succeeded: Result = %+v, want nil record", res)
	}

	prev := &models.AirQuality{Current: models.AirQualityCurrent{EuropeanAQI: f(30)}}
	res = merge(prev, fail)
	if res.Record != prev || res.Updated {
		t.Errorf("Record = %p, want previous %p unchanged", res.Record, prev)
	}
	if !reflect.DeepEqual(res.FailedParts, []string{"air_quality"}) {
		t.Errorf("FailedParts = %v", res.FailedParts)
	}
}

// TestReplace_Success verifies a single-adapter success replaces the record.
func TestReplace_Success(t *testing.T) {
	prev := &models.Vigilance{Applicable: true, HasData: true, OverallLevel: models.LevelRed}
	next := models.Vigilance{Applicable: true, HasData: true, OverallLevel: models.LevelGreen}

	res := Replace[models.Vigilance]()(prev, []Outcome[models.Vigilance]{{Name: "vigilance", Value: next}})
	if !res.Full() || res.Record.OverallLevel != models.LevelGreen {
		t.Errorf("Result = %+v", res)
	}
	if prev.OverallLevel != models.LevelRed {
		t.Error("previous record was mutated")
	}
}

// TestApply_FailedPartsSorted verifies failed names are reported in sorted order.
func TestApply_FailedPartsSorted(t *testing.T) {
	outcomes := []Outcome[models.Forecast]{
		{Name: "hourly_6h", Err: errors.New("a")},
		{Name: "current", Err: errors.New("b")},
		{Name: "daily", Err: errors.New("c")},
	}
	res := Forecast(nil, outcomes)
	if !reflect.DeepEqual(res.FailedParts, []string{"current", "daily", "hourly_6h"}) {
		t.Errorf("FailedParts = %v", res.FailedParts)
	}
}
