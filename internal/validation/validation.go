// Package validation checks user- and config-supplied input with
// go-playground/validator rules.
package validation

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/kjstillabower/mountain-weather-poller/internal/geo"
)

// ErrCoordinatesRequired is returned when latitude or longitude is missing.
var ErrCoordinatesRequired = errors.New("latitude and longitude are required")

// ErrCoordinatesInvalid is returned when a coordinate is not a number.
var ErrCoordinatesInvalid = errors.New("coordinates must be decimal degrees")

// ErrLatitudeRange is returned when latitude is outside [-90, 90].
var ErrLatitudeRange = errors.New("latitude must be between -90 and 90")

// ErrLongitudeRange is returned when longitude is outside [-180, 180].
var ErrLongitudeRange = errors.New("longitude must be between -180 and 180")

var validate = validator.New()

type coordinates struct {
	Latitude  float64 `validate:"gte=-90,lte=90"`
	Longitude float64 `validate:"gte=-180,lte=180"`
}

// ValidateCoordinates returns p unchanged if both coordinates are in range.
// NaN fails both bounds.
func ValidateCoordinates(p geo.Point) (geo.Point, error) {
	err := validate.Struct(coordinates{Latitude: p.Lat, Longitude: p.Lon})
	if err == nil {
		return p, nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		if verrs[0].Field() == "Latitude" {
			return geo.Point{}, ErrLatitudeRange
		}
		return geo.Point{}, ErrLongitudeRange
	}
	return geo.Point{}, fmt.Errorf("validate coordinates: %w", err)
}

// ParseCoordinates parses decimal-degree strings (query params, CLI args)
// and validates the result.
func ParseCoordinates(lat, lon string) (geo.Point, error) {
	lat, lon = strings.TrimSpace(lat), strings.TrimSpace(lon)
	if lat == "" || lon == "" {
		return geo.Point{}, ErrCoordinatesRequired
	}
	la, err := strconv.ParseFloat(lat, 64)
	if err != nil {
		return geo.Point{}, fmt.Errorf("%w: latitude %q", ErrCoordinatesInvalid, lat)
	}
	lo, err := strconv.ParseFloat(lon, 64)
	if err != nil {
		return geo.Point{}, fmt.Errorf("%w: longitude %q", ErrCoordinatesInvalid, lon)
	}
	return ValidateCoordinates(geo.Point{Lat: la, Lon: lo})
}

// Struct validates v against its `validate` tags and flattens the failures
// into a single error naming each offending field.
func Struct(v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s failed %s=%s (got %v)", fe.Namespace(), fe.Tag(), fe.Param(), fe.Value()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
		}
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
}
