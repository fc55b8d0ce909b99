package models

import (
	"fmt"
	"strings"
)

// Domain identifies one independently polled data set.
type Domain string

const (
	DomainForecast   Domain = "forecast"
	DomainAirQuality Domain = "air_quality"
	DomainVigilance  Domain = "vigilance"
)

// Domains lists every known domain in a stable order.
var Domains = []Domain{DomainForecast, DomainAirQuality, DomainVigilance}

// ParseDomain accepts a domain name, case-insensitive, with "-" or "_" separators.
func ParseDomain(s string) (Domain, error) {
	norm := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_")
	for _, d := range Domains {
		if string(d) == norm {
			return d, nil
		}
	}
	return "", fmt.Errorf("unknown domain %q", s)
}
