package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"time"
)

const (
	localMinuteLayout = "2006-01-02T15:04"
	dateLayout        = "2006-01-02"
)

func decodeJSON(body []byte, v interface{}) error {
	dec := json.NewDecoder(bytes.NewReader(body))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode body: %w", err)
	}
	return nil
}

// zoneFor builds the fixed zone the upstream used for its local timestamps.
func zoneFor(abbrev string, offsetSeconds int) *time.Location {
	if offsetSeconds == 0 && (abbrev == "" || abbrev == "GMT" || abbrev == "UTC") {
		return time.UTC
	}
	if abbrev == "" {
		abbrev = fmt.Sprintf("UTC%+d", offsetSeconds/3600)
	}
	return time.FixedZone(abbrev, offsetSeconds)
}

// parseLocal accepts minute-precision local times, dates, and RFC 3339.
func parseLocal(s string, loc *time.Location) (time.Time, bool) {
	for _, layout := range []string{localMinuteLayout, dateLayout} {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.In(loc), true
	}
	return time.Time{}, false
}

func parseLocalPtr(s *string, loc *time.Location) *time.Time {
	if s == nil {
		return nil
	}
	t, ok := parseLocal(*s, loc)
	if !ok {
		return nil
	}
	return &t
}

// at returns vals[i], or nil when the series is short or the value was null.
func at(vals []*float64, i int) *float64 {
	if i < 0 || i >= len(vals) {
		return nil
	}
	return vals[i]
}

func stringAt(vals []*string, i int) *string {
	if i < 0 || i >= len(vals) {
		return nil
	}
	return vals[i]
}

func intAt(vals []*float64, i int) *int {
	return toInt(at(vals, i))
}

func toInt(f *float64) *int {
	if f == nil {
		return nil
	}
	n := int(math.Round(*f))
	return &n
}

func toBool(f *float64) *bool {
	if f == nil {
		return nil
	}
	b := *f != 0
	return &b
}
