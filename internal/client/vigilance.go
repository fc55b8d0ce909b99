package client

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/kjstillabower/mountain-weather-poller/internal/geo"
	"github.com/kjstillabower/mountain-weather-poller/internal/models"
)

const (
	DefaultVigilanceURL = "https://public-api.meteofrance.fr/public/DPVigilance/v1"
	ProviderVigilance   = "meteo-france-vigilance"
)

// VigilanceClient fetches the current vigilance map and extracts one department.
// The department is resolved once by the caller and fixed for the client's lifetime.
type VigilanceClient struct {
	baseURL    string
	token      string
	department geo.Resolution
	t          *transport
	logger     *zap.Logger
}

// NewVigilanceClient creates a client for department. A NotFound department
// makes every Fetch return models.NotApplicable without calling upstream.
func NewVigilanceClient(department geo.Resolution, token, baseURL string, opts Options) *VigilanceClient {
	if baseURL == "" {
		baseURL = DefaultVigilanceURL
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VigilanceClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		department: department,
		t:          newTransport(ProviderVigilance, opts, 1),
		logger:     logger.With(zap.String("provider", ProviderVigilance)),
	}
}

func (c *VigilanceClient) Name() string { return string(models.DomainVigilance) }

// Applicable reports whether the configured point lies inside a known department.
func (c *VigilanceClient) Applicable() bool { return c.department.Found }

type vigilanceResponse struct {
	UpdateTime string `json:"update_time"`
	Product    *struct {
		UpdateTime string `json:"update_time"`
		Timelaps   []struct {
			Zones map[string]struct {
				Level      *int `json:"niveau_vigilance"`
				Phenomenes map[string]struct {
					Level *int `json:"niveau"`
				} `json:"phenomenes"`
			} `json:"zones"`
		} `json:"timelaps"`
	} `json:"product"`
}

func (c *VigilanceClient) Fetch(ctx context.Context) (models.Vigilance, error) {
	if !c.department.Found {
		return models.NotApplicable(), nil
	}
	if c.token == "" {
		return models.Vigilance{}, authError(ProviderVigilance, 0, "API token is not configured")
	}

	dept := c.department.Region
	base := models.Vigilance{
		Applicable:     true,
		Department:     dept.Code,
		DepartmentName: dept.Name,
	}

	header := http.Header{}
	header.Set("apikey", c.token)
	resp, err := c.t.get(ctx, c.baseURL+"/cartevigilance/encours", header)
	if err != nil {
		return models.Vigilance{}, err
	}

	switch resp.status {
	case http.StatusNotFound:
		base.Reason = models.ReasonNotFound
		return base, nil
	case http.StatusUnauthorized, http.StatusForbidden:
		return models.Vigilance{}, authError(ProviderVigilance, resp.status, "API token rejected")
	}
	if err := c.t.requireOK(resp); err != nil {
		return models.Vigilance{}, err
	}

	var body vigilanceResponse
	if err := decodeJSON(resp.body, &body); err != nil {
		return models.Vigilance{}, protocolError(ProviderVigilance, resp.status, "", err)
	}
	if body.Product == nil {
		return models.Vigilance{}, protocolError(ProviderVigilance, resp.status, "missing product section", nil)
	}

	base.UpdateTime = body.Product.UpdateTime
	if base.UpdateTime == "" {
		base.UpdateTime = body.UpdateTime
	}

	if len(body.Product.Timelaps) == 0 {
		base.Reason = models.ReasonNoData
		return base, nil
	}
	zone, ok := body.Product.Timelaps[0].Zones[dept.Code]
	if !ok {
		base.Reason = models.ReasonNoData
		return base, nil
	}

	base.HasData = true
	base.OverallLevel = c.levelOrGreen("overall", zone.Level)
	base.OverallColor = base.OverallLevel.Color()
	base.Phenomena = make(map[string]models.PhenomenonLevel, len(zone.Phenomenes))
	for id, p := range zone.Phenomenes {
		name, known := models.PhenomenonName(id)
		if !known {
			continue
		}
		base.Phenomena[name] = models.NewPhenomenonLevel(c.levelOrGreen(name, p.Level))
	}
	return base, nil
}

// levelOrGreen treats absent or out-of-range levels as green. An out-of-range
// level is logged at DEBUG with the raw upstream value.
func (c *VigilanceClient) levelOrGreen(field string, n *int) models.Level {
	if n == nil {
		return models.LevelGreen
	}
	l := models.Level(*n)
	if !l.Valid() {
		c.logger.Debug("vigilance level out of range, using green",
			zap.String("department", c.department.Region.Code),
			zap.String("field", field),
			zap.Int("level", *n),
		)
		return models.LevelGreen
	}
	return l
}
