package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/kjstillabower/mountain-weather-poller/internal/models"
)

func hourlyAQIBody(times, values int) string {
	ts := make([]string, times)
	for i := range ts {
		ts[i] = fmt.Sprintf(`"2026-02-%02dT%02d:00"`, 12+i/24, i%24)
	}
	vs := make([]string, values)
	for i := range vs {
		vs[i] = fmt.Sprintf("%d", 20+i)
	}
	return fmt.Sprintf(`"hourly": {"time": [%s], "european_aqi": [%s]}`, strings.Join(ts, ","), strings.Join(vs, ","))
}

// TestAirQualityClient_Fetch verifies current values and the 24-entry hourly cap.
func TestAirQualityClient_Fetch(t *testing.T) {
	var query url.Values
	srv, _ := countingServer(t, func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.Query()
		jsonHandler(http.StatusOK, `{
			"utc_offset_seconds": 3600,
			"current": {"time": "2026-02-12T10:00", "european_aqi": 31, "pm2_5": 8.4, "ozone": 61},
			`+hourlyAQIBody(96, 96)+`
		}`)(w, r)
	})
	c := NewAirQualityClient(chamonix, srv.URL, Options{})

	got, err := c.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if query.Get("forecast_days") != "4" || query.Get("hourly") != "european_aqi" {
		t.Errorf("unexpected query %v", query)
	}
	if !strings.Contains(query.Get("current"), "sulphur_dioxide") {
		t.Errorf("current vars = %q", query.Get("current"))
	}

	if got.Current.EuropeanAQI == nil || *got.Current.EuropeanAQI != 31 {
		t.Errorf("EuropeanAQI = %v, want 31", got.Current.EuropeanAQI)
	}
	if got.Current.PM25 == nil || *got.Current.PM25 != 8.4 {
		t.Errorf("PM25 = %v, want 8.4", got.Current.PM25)
	}
	if got.Current.PM10 != nil || got.Current.NitrogenDioxide != nil {
		t.Error("absent pollutants should be nil")
	}
	if len(got.Hourly) != models.AirQualityHourlyLimit {
		t.Fatalf("len(Hourly) = %d, want %d", len(got.Hourly), models.AirQualityHourlyLimit)
	}
	if v := got.Hourly[23].EuropeanAQI; v == nil || *v != 43 {
		t.Errorf("Hourly[23] = %v, want 43", v)
	}
	if got.Hourly[0].Time.Hour() != 0 || got.Hourly[23].Time.Hour() != 23 {
		t.Errorf("hourly times = %v .. %v", got.Hourly[0].Time, got.Hourly[23].Time)
	}
}

// TestAirQualityClient_HourlyOptional verifies a short or missing hourly series
// is tolerated.
func TestAirQualityClient_HourlyOptional(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
	}{
		{"missing hourly", `{"current": {"european_aqi": 12}}`, 0},
		{"fewer values than times", `{"current": {}, ` + hourlyAQIBody(10, 4) + `}`, 4},
		{"fewer times than values", `{"current": {}, ` + hourlyAQIBody(3, 10) + `}`, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := countingServer(t, jsonHandler(http.StatusOK, tt.body))
			c := NewAirQualityClient(chamonix, srv.URL, Options{})

			got, err := c.Fetch(context.Background())
			if err != nil {
				t.Fatalf("Fetch() error = %v", err)
			}
			if got.Hourly == nil || len(got.Hourly) != tt.want {
				t.Errorf("Hourly = %v, want %d entries", got.Hourly, tt.want)
			}
		})
	}
}

// TestAirQualityClient_MissingCurrent verifies the current section is required.
func TestAirQualityClient_MissingCurrent(t *testing.T) {
	srv, _ := countingServer(t, jsonHandler(http.StatusOK, `{`+hourlyAQIBody(2, 2)+`}`))
	c := NewAirQualityClient(chamonix, srv.URL, Options{})

	if _, err := c.Fetch(context.Background()); !errors.Is(err, ErrProtocol) {
		t.Fatalf("Fetch() error = %v, want ErrProtocol", err)
	}
	if c.Name() != "air_quality" {
		t.Errorf("Name() = %q", c.Name())
	}
}
