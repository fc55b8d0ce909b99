package client

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/kjstillabower/mountain-weather-poller/internal/geo"
	"github.com/kjstillabower/mountain-weather-poller/internal/models"
)

func hauteSavoie(t *testing.T) geo.Resolution {
	t.Helper()
	r, ok := geo.Departments.Lookup("74")
	if !ok {
		t.Fatal("department 74 missing from table")
	}
	return geo.Resolution{Region: r, Found: true}
}

const vigilanceBody = `{
	"product": {
		"update_time": "2026-02-12T10:00:00Z",
		"timelaps": [
			{"zones": {
				"74": {"niveau_vigilance": 3, "phenomenes": {
					"1": {"niveau": 2},
					"8": {"niveau": 3},
					"5": {},
					"42": {"niveau": 4}
				}},
				"73": {"niveau_vigilance": 1, "phenomenes": {}}
			}},
			{"zones": {"74": {"niveau_vigilance": 4}}}
		]
	}
}`

// TestVigilanceClient_Fetch verifies the department zone of the first timelaps
// is extracted and unknown phenomena are dropped.
func TestVigilanceClient_Fetch(t *testing.T) {
	var gotKey, gotPath string
	srv, _ := countingServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotKey, gotPath = r.Header.Get("apikey"), r.URL.Path
		jsonHandler(http.StatusOK, vigilanceBody)(w, r)
	})
	dept := hauteSavoie(t)
	c := NewVigilanceClient(dept, "token-123", srv.URL+"/", Options{})

	got, err := c.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if gotKey != "token-123" || gotPath != "/cartevigilance/encours" {
		t.Errorf("request apikey=%q path=%q", gotKey, gotPath)
	}

	if !got.Applicable || !got.HasData || got.Reason != "" {
		t.Fatalf("record = %+v, want applicable with data", got)
	}
	if got.Department != "74" || got.DepartmentName != dept.Region.Name {
		t.Errorf("department = %q/%q", got.Department, got.DepartmentName)
	}
	if got.OverallLevel != models.LevelOrange || got.OverallColor != "orange" {
		t.Errorf("overall = %d/%s, want 3/orange", got.OverallLevel, got.OverallColor)
	}
	want := map[string]models.PhenomenonLevel{
		"wind":      {Level: 2, Color: "yellow"},
		"avalanche": {Level: 3, Color: "orange"},
		"snow_ice":  {Level: 1, Color: "green"},
	}
	if len(got.Phenomena) != len(want) {
		t.Fatalf("Phenomena = %v, want %v", got.Phenomena, want)
	}
	for name, w := range want {
		if got.Phenomena[name] != w {
			t.Errorf("Phenomena[%s] = %+v, want %+v", name, got.Phenomena[name], w)
		}
	}
	if got.UpdateTime != "2026-02-12T10:00:00Z" {
		t.Errorf("UpdateTime = %q", got.UpdateTime)
	}
	if !got.HasOrangeAlert() || got.HasRedAlert() {
		t.Error("expected orange but not red alert")
	}
}

// TestVigilanceClient_NotApplicable verifies points outside every department
// short-circuit without a request or a token.
func TestVigilanceClient_NotApplicable(t *testing.T) {
	srv, hits := countingServer(t, jsonHandler(http.StatusOK, vigilanceBody))
	c := NewVigilanceClient(geo.NotFound, "", srv.URL, Options{})

	got, err := c.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if got.Applicable || got.HasData || got.Reason != models.ReasonNotInFrance {
		t.Errorf("record = %+v, want not applicable", got)
	}
	if hits.Load() != 0 {
		t.Errorf("upstream hits = %d, want 0", hits.Load())
	}
	if c.Applicable() {
		t.Error("Applicable() = true")
	}
}

// TestVigilanceClient_Outcomes covers non-success upstream responses.
func TestVigilanceClient_Outcomes(t *testing.T) {
	tests := []struct {
		name       string
		token      string
		status     int
		body       string
		wantErr    error
		wantReason string
	}{
		{name: "missing token", token: "", status: 200, body: vigilanceBody, wantErr: ErrAuth},
		{name: "unauthorized", token: "t", status: 401, body: `{}`, wantErr: ErrAuth},
		{name: "forbidden", token: "t", status: 403, body: `{}`, wantErr: ErrAuth},
		{name: "not found", token: "t", status: 404, body: `{}`, wantReason: models.ReasonNotFound},
		{name: "server error", token: "t", status: 502, body: `{}`, wantErr: ErrProtocol},
		{name: "rate limited", token: "t", status: 429, body: `{}`, wantErr: ErrProtocol},
		{name: "not json", token: "t", status: 200, body: `nope`, wantErr: ErrProtocol},
		{name: "missing product", token: "t", status: 200, body: `{"update_time": "x"}`, wantErr: ErrProtocol},
		{name: "empty timelaps", token: "t", status: 200, body: `{"product": {"timelaps": []}}`, wantReason: models.ReasonNoData},
		{name: "department absent", token: "t", status: 200, body: `{"product": {"timelaps": [{"zones": {"73": {}}}]}}`, wantReason: models.ReasonNoData},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, hits := countingServer(t, jsonHandler(tt.status, tt.body))
			c := NewVigilanceClient(hauteSavoie(t), tt.token, srv.URL, Options{})

			got, err := c.Fetch(context.Background())
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Fetch() error = %v, want %v", err, tt.wantErr)
				}
				if tt.token == "" && hits.Load() != 0 {
					t.Error("missing token should not reach upstream")
				}
				return
			}
			if err != nil {
				t.Fatalf("Fetch() unexpected error %v", err)
			}
			if !got.Applicable || got.HasData || got.Reason != tt.wantReason || got.Department != "74" {
				t.Errorf("record = %+v, want reason %q", got, tt.wantReason)
			}
			if got.HasActiveAlert() {
				t.Error("record without data cannot have alerts")
			}
		})
	}
}

// TestVigilanceClient_OutOfRangeLevels verifies unexpected levels map to green
// and are logged with the raw value.
func TestVigilanceClient_OutOfRangeLevels(t *testing.T) {
	srv, _ := countingServer(t, jsonHandler(http.StatusOK, `{"product": {"timelaps": [{"zones": {
		"74": {"niveau_vigilance": 5, "phenomenes": {"1": {"niveau": 0}, "8": {"niveau": 2}}}
	}}]}}`))
	core, logs := observer.New(zapcore.DebugLevel)
	c := NewVigilanceClient(hauteSavoie(t), "t", srv.URL, Options{Logger: zap.New(core)})

	got, err := c.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if got.OverallLevel != models.LevelGreen || got.Phenomena["wind"].Level != models.LevelGreen {
		t.Errorf("overall=%d wind=%d, want green for out-of-range levels", got.OverallLevel, got.Phenomena["wind"].Level)
	}
	if got.Phenomena["avalanche"].Level != models.LevelYellow {
		t.Errorf("avalanche = %d, want yellow", got.Phenomena["avalanche"].Level)
	}

	entries := logs.FilterMessage("vigilance level out of range, using green").All()
	if len(entries) != 2 {
		t.Fatalf("out-of-range log entries = %d, want 2", len(entries))
	}
	raw := map[string]int64{}
	for _, e := range entries {
		if e.Level != zapcore.DebugLevel {
			t.Errorf("entry level = %v, want debug", e.Level)
		}
		fields := e.ContextMap()
		raw[fields["field"].(string)] = fields["level"].(int64)
	}
	if raw["overall"] != 5 || raw["wind"] != 0 {
		t.Errorf("logged levels = %v, want overall=5 wind=0", raw)
	}
}
