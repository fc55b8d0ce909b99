package models

import (
	"reflect"
	"testing"
)

func TestLevel_Color(t *testing.T) {
	tests := []struct {
		level Level
		want  string
	}{
		{LevelGreen, "green"},
		{LevelYellow, "yellow"},
		{LevelOrange, "orange"},
		{LevelRed, "red"},
		{Level(0), "green"},
		{Level(7), "green"},
	}
	for _, tt := range tests {
		if got := tt.level.Color(); got != tt.want {
			t.Errorf("Level(%d).Color() = %q, want %q", tt.level, got, tt.want)
		}
	}
}

func vigilanceWith(levels map[string]Level) Vigilance {
	v := Vigilance{Applicable: true, HasData: true, Phenomena: map[string]PhenomenonLevel{}}
	for name, l := range levels {
		v.Phenomena[name] = NewPhenomenonLevel(l)
	}
	return v
}

// TestVigilance_AlertQueries covers the three threshold predicates.
func TestVigilance_AlertQueries(t *testing.T) {
	tests := []struct {
		name       string
		v          Vigilance
		wantActive bool
		wantOrange bool
		wantRed    bool
	}{
		{
			name: "all green",
			v:    vigilanceWith(map[string]Level{"wind": 1, "fog": 1}),
		},
		{
			name:       "one yellow",
			v:          vigilanceWith(map[string]Level{"wind": 2, "fog": 1}),
			wantActive: true,
		},
		{
			name:       "orange",
			v:          vigilanceWith(map[string]Level{"avalanche": 3}),
			wantActive: true,
			wantOrange: true,
		},
		{
			name:       "red",
			v:          vigilanceWith(map[string]Level{"snow_ice": 4, "wind": 1}),
			wantActive: true,
			wantOrange: true,
			wantRed:    true,
		},
		{
			name: "not applicable",
			v:    NotApplicable(),
		},
		{
			name: "no data ignores stale phenomena",
			v: Vigilance{Applicable: true, HasData: false, Phenomena: map[string]PhenomenonLevel{
				"wind": NewPhenomenonLevel(LevelRed),
			}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.v.HasActiveAlert(); got != tt.wantActive {
				t.Errorf("HasActiveAlert() = %v, want %v", got, tt.wantActive)
			}
			if got := tt.v.HasOrangeAlert(); got != tt.wantOrange {
				t.Errorf("HasOrangeAlert() = %v, want %v", got, tt.wantOrange)
			}
			if got := tt.v.HasRedAlert(); got != tt.wantRed {
				t.Errorf("HasRedAlert() = %v, want %v", got, tt.wantRed)
			}
		})
	}
}

func TestVigilance_ActiveAlerts_SortedByName(t *testing.T) {
	v := vigilanceWith(map[string]Level{"wind": 2, "avalanche": 3, "fog": 1, "rain_flood": 4})

	got := v.ActiveAlerts(LevelYellow)
	want := []Alert{
		{Phenomenon: "avalanche", DisplayName: "Avalanche", Level: 3, Color: "orange"},
		{Phenomenon: "rain_flood", DisplayName: "Rain/Flood", Level: 4, Color: "red"},
		{Phenomenon: "wind", DisplayName: "Wind", Level: 2, Color: "yellow"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ActiveAlerts(yellow) = %+v, want %+v", got, want)
	}

	if got := v.ActiveAlerts(LevelRed); len(got) != 1 || got[0].Phenomenon != "rain_flood" {
		t.Errorf("ActiveAlerts(red) = %+v, want only rain_flood", got)
	}
}

func TestPhenomenonName(t *testing.T) {
	tests := []struct {
		id     string
		want   string
		wantOK bool
	}{
		{"1", "wind", true},
		{"5", "snow_ice", true},
		{"8", "avalanche", true},
		{"9", "fog", true},
		{"0", "", false},
		{"10", "", false},
		{"x", "", false},
	}
	for _, tt := range tests {
		got, ok := PhenomenonName(tt.id)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("PhenomenonName(%q) = (%q, %v), want (%q, %v)", tt.id, got, ok, tt.want, tt.wantOK)
		}
	}
	if got := PhenomenonDisplayName("mystery"); got != "mystery" {
		t.Errorf("PhenomenonDisplayName(unknown) = %q, want passthrough", got)
	}
}

func TestParseDomain(t *testing.T) {
	for in, want := range map[string]Domain{
		"forecast":    DomainForecast,
		"air-quality": DomainAirQuality,
		"AIR_QUALITY": DomainAirQuality,
		" vigilance ": DomainVigilance,
	} {
		got, err := ParseDomain(in)
		if err != nil || got != want {
			t.Errorf("ParseDomain(%q) = (%q, %v), want %q", in, got, err, want)
		}
	}
	if _, err := ParseDomain("pollen"); err == nil {
		t.Error("ParseDomain(pollen) expected error")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"orange", LevelOrange, false},
		{" RED ", LevelRed, false},
		{"2", LevelYellow, false},
		{"green", LevelGreen, false},
		{"5", 0, true},
		{"purple", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseLevel(%q) = (%v, %v), want (%v, err %v)", tt.in, got, err, tt.want, tt.wantErr)
		}
	}
}
