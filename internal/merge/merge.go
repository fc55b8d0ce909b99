// Package merge combines one poll cycle's adapter outcomes into a record.
//
// The policy is the same for every domain: successful outcomes are overlaid
// onto a copy of the previous record, failed outcomes leave the previous
// values in place, and a cycle with no success yields the previous record
// itself. Overlays must replace fields, never mutate them in place, so the
// previous record stays valid for readers still holding it.
package merge

import (
	"errors"
	"sort"

	"github.com/kjstillabower/mountain-weather-poller/internal/models"
)

// Outcome is one adapter's result for a cycle.
type Outcome[T any] struct {
	Name  string
	Value T
	Err   error
}

// Result is the merged state of one cycle.
type Result[T any] struct {
	// Record is the merged record, nil only if no cycle has ever succeeded.
	Record *T
	// Updated is true when at least one outcome succeeded this cycle.
	Updated bool
	// FailedParts lists failed adapter names, sorted.
	FailedParts []string
	// Err joins the failures, nil when every outcome succeeded.
	Err error
}

// Full reports whether every outcome of the cycle succeeded.
func (r Result[T]) Full() bool {
	return r.Updated && len(r.FailedParts) == 0
}

// Func merges a cycle's outcomes with the previous record.
type Func[T any] func(prev *T, outcomes []Outcome[T]) Result[T]

// Apply runs the partial-failure policy using overlay to fold each success
// into the new record.
func Apply[T any](prev *T, outcomes []Outcome[T], overlay func(dst *T, o Outcome[T])) Result[T] {
	var next T
	if prev != nil {
		next = *prev
	}

	var (
		res  Result[T]
		errs []error
	)
	for _, o := range outcomes {
		if o.Err != nil {
			res.FailedParts = append(res.FailedParts, o.Name)
			errs = append(errs, o.Err)
			continue
		}
		overlay(&next, o)
		res.Updated = true
	}
	sort.Strings(res.FailedParts)
	res.Err = errors.Join(errs...)

	if res.Updated {
		res.Record = &next
	} else {
		res.Record = prev
	}
	return res
}

// Overlay builds a Func from an overlay function.
func Overlay[T any](overlay func(dst *T, o Outcome[T])) Func[T] {
	return func(prev *T, outcomes []Outcome[T]) Result[T] {
		return Apply(prev, outcomes, overlay)
	}
}

// Replace builds a Func for single-adapter domains: a success replaces the record.
func Replace[T any]() Func[T] {
	return Overlay(func(dst *T, o Outcome[T]) { *dst = o.Value })
}

// Forecast overlays every section present in a part's partial record.
var Forecast Func[models.Forecast] = Overlay(overlayForecast)

func overlayForecast(dst *models.Forecast, o Outcome[models.Forecast]) {
	v := o.Value
	if v.Current != nil {
		dst.Current = v.Current
	}
	if v.Elevation != nil {
		dst.Elevation = v.Elevation
	}
	if v.Daily != nil {
		dst.Daily = v.Daily
	}
	if v.Hourly != nil {
		dst.Hourly = v.Hourly
	}
	if v.Hourly6h != nil {
		dst.Hourly6h = v.Hourly6h
	}
}
