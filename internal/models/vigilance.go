package models

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Level is a vigilance level on the 1 (green) to 4 (red) scale.
type Level int

const (
	LevelGreen  Level = 1
	LevelYellow Level = 2
	LevelOrange Level = 3
	LevelRed    Level = 4
)

// Color returns the color name for l. Out-of-range levels map to green.
func (l Level) Color() string {
	switch l {
	case LevelYellow:
		return "yellow"
	case LevelOrange:
		return "orange"
	case LevelRed:
		return "red"
	default:
		return "green"
	}
}

// Valid reports whether l is on the 1-4 scale.
func (l Level) Valid() bool {
	return l >= LevelGreen && l <= LevelRed
}

// ParseLevel accepts a color name or its 1-4 digit.
func ParseLevel(s string) (Level, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if n, err := strconv.Atoi(s); err == nil {
		if l := Level(n); l.Valid() {
			return l, nil
		}
		return 0, fmt.Errorf("vigilance level %d out of range 1-4", n)
	}
	for l := LevelGreen; l <= LevelRed; l++ {
		if l.Color() == s {
			return l, nil
		}
	}
	return 0, fmt.Errorf("unknown vigilance level %q", s)
}

// Reasons a vigilance record carries no data.
const (
	ReasonNotInFrance = "not_in_france"
	ReasonNotFound    = "not_found"
	ReasonNoData      = "no_data"
)

var phenomenonNames = map[int]string{
	1: "wind",
	2: "rain_flood",
	3: "thunderstorm",
	4: "flood",
	5: "snow_ice",
	6: "extreme_heat",
	7: "extreme_cold",
	8: "avalanche",
	9: "fog",
}

var phenomenonDisplayNames = map[string]string{
	"wind":         "Wind",
	"rain_flood":   "Rain/Flood",
	"thunderstorm": "Thunderstorm",
	"flood":        "Flood",
	"snow_ice":     "Snow/Ice",
	"extreme_heat": "Extreme Heat",
	"extreme_cold": "Extreme Cold",
	"avalanche":    "Avalanche",
	"fog":          "Fog",
}

// PhenomenonName maps an upstream phenomenon id ("1".."9") to its name.
func PhenomenonName(id string) (string, bool) {
	n, err := strconv.Atoi(id)
	if err != nil {
		return "", false
	}
	name, ok := phenomenonNames[n]
	return name, ok
}

// PhenomenonDisplayName returns a human-readable label, or name itself when unknown.
func PhenomenonDisplayName(name string) string {
	if d, ok := phenomenonDisplayNames[name]; ok {
		return d
	}
	return name
}

// PhenomenonLevel is the level of a single phenomenon.
type PhenomenonLevel struct {
	Level Level  `json:"level"`
	Color string `json:"color"`
}

// NewPhenomenonLevel pairs l with its color.
func NewPhenomenonLevel(l Level) PhenomenonLevel {
	return PhenomenonLevel{Level: l, Color: l.Color()}
}

// Vigilance is the normalized weather-alert record for one department.
// Applicable is false when the point lies outside every known department;
// HasData is false whenever the upstream had nothing for the department.
type Vigilance struct {
	Applicable     bool                       `json:"applicable"`
	HasData        bool                       `json:"hasData"`
	Reason         string                     `json:"reason,omitempty"`
	Department     string                     `json:"department,omitempty"`
	DepartmentName string                     `json:"departmentName,omitempty"`
	OverallLevel   Level                      `json:"overallLevel,omitempty"`
	OverallColor   string                     `json:"overallColor,omitempty"`
	Phenomena      map[string]PhenomenonLevel `json:"phenomena,omitempty"`
	UpdateTime     string                     `json:"updateTime,omitempty"`
}

// NotApplicable is the record for points outside vigilance coverage.
func NotApplicable() Vigilance {
	return Vigilance{Applicable: false, HasData: false, Reason: ReasonNotInFrance}
}

// Alert is one phenomenon at or above a threshold.
type Alert struct {
	Phenomenon  string `json:"phenomenon"`
	DisplayName string `json:"displayName"`
	Level       Level  `json:"level"`
	Color       string `json:"color"`
}

// HasActiveAlert reports whether any phenomenon is above green.
func (v Vigilance) HasActiveAlert() bool {
	return v.anyLevel(func(l Level) bool { return l > LevelGreen })
}

// HasOrangeAlert reports whether any phenomenon is orange or red.
func (v Vigilance) HasOrangeAlert() bool {
	return v.anyLevel(func(l Level) bool { return l >= LevelOrange })
}

// HasRedAlert reports whether any phenomenon is red.
func (v Vigilance) HasRedAlert() bool {
	return v.anyLevel(func(l Level) bool { return l == LevelRed })
}

// ActiveAlerts lists phenomena at or above threshold, sorted by phenomenon name.
func (v Vigilance) ActiveAlerts(threshold Level) []Alert {
	if !v.HasData {
		return nil
	}
	var out []Alert
	for name, p := range v.Phenomena {
		if p.Level >= threshold {
			out = append(out, Alert{
				Phenomenon:  name,
				DisplayName: PhenomenonDisplayName(name),
				Level:       p.Level,
				Color:       p.Level.Color(),
			})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Phenomenon < out[j].Phenomenon })
	return out
}

func (v Vigilance) anyLevel(match func(Level) bool) bool {
	if !v.HasData {
		return false
	}
	for _, p := range v.Phenomena {
		if match(p.Level) {
			return true
		}
	}
	return false
}
