package client

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/kjstillabower/mountain-weather-poller/internal/geo"
	"github.com/kjstillabower/mountain-weather-poller/internal/models"
)

const (
	DefaultAirQualityURL = "https://air-quality-api.open-meteo.com/v1/air-quality"
	ProviderAirQuality   = "open-meteo-air-quality"
)

var airQualityCurrentVars = []string{
	"european_aqi", "pm2_5", "pm10", "nitrogen_dioxide", "ozone", "sulphur_dioxide",
}

// AirQualityClient fetches current pollutants and the hourly AQI outlook for a point.
type AirQualityClient struct {
	baseURL string
	point   geo.Point
	t       *transport
}

func NewAirQualityClient(point geo.Point, baseURL string, opts Options) *AirQualityClient {
	if baseURL == "" {
		baseURL = DefaultAirQualityURL
	}
	return &AirQualityClient{
		baseURL: baseURL,
		point:   point,
		t:       newTransport(ProviderAirQuality, opts, 1),
	}
}

func (c *AirQualityClient) Name() string { return string(models.DomainAirQuality) }

type airQualityResponse struct {
	UTCOffsetSeconds int    `json:"utc_offset_seconds"`
	TimezoneAbbrev   string `json:"timezone_abbreviation"`
	Current          *struct {
		Time            *string  `json:"time"`
		EuropeanAQI     *float64 `json:"european_aqi"`
		PM25            *float64 `json:"pm2_5"`
		PM10            *float64 `json:"pm10"`
		NitrogenDioxide *float64 `json:"nitrogen_dioxide"`
		Ozone           *float64 `json:"ozone"`
		SulphurDioxide  *float64 `json:"sulphur_dioxide"`
	} `json:"current"`
	Hourly *struct {
		Time        []string   `json:"time"`
		EuropeanAQI []*float64 `json:"european_aqi"`
	} `json:"hourly"`
}

// Fetch requires the current section; the hourly series is optional and capped
// at models.AirQualityHourlyLimit entries.
func (c *AirQualityClient) Fetch(ctx context.Context) (models.AirQuality, error) {
	params := url.Values{}
	params.Set("latitude", strconv.FormatFloat(c.point.Lat, 'f', -1, 64))
	params.Set("longitude", strconv.FormatFloat(c.point.Lon, 'f', -1, 64))
	params.Set("current", strings.Join(airQualityCurrentVars, ","))
	params.Set("hourly", "european_aqi")
	params.Set("timezone", "auto")
	params.Set("forecast_days", "4")

	u, err := withQuery(c.baseURL, params)
	if err != nil {
		return models.AirQuality{}, protocolError(ProviderAirQuality, 0, "build request", err)
	}
	resp, err := c.t.get(ctx, u, nil)
	if err != nil {
		return models.AirQuality{}, err
	}
	if err := c.t.requireOK(resp); err != nil {
		return models.AirQuality{}, err
	}

	var body airQualityResponse
	if err := decodeJSON(resp.body, &body); err != nil {
		return models.AirQuality{}, protocolError(ProviderAirQuality, resp.status, "", err)
	}
	if body.Current == nil {
		return models.AirQuality{}, protocolError(ProviderAirQuality, resp.status, "missing current section", nil)
	}
	loc := zoneFor(body.TimezoneAbbrev, body.UTCOffsetSeconds)

	out := models.AirQuality{
		Current: models.AirQualityCurrent{
			Time:            parseLocalPtr(body.Current.Time, loc),
			EuropeanAQI:     body.Current.EuropeanAQI,
			PM25:            body.Current.PM25,
			PM10:            body.Current.PM10,
			NitrogenDioxide: body.Current.NitrogenDioxide,
			Ozone:           body.Current.Ozone,
			SulphurDioxide:  body.Current.SulphurDioxide,
		},
		Hourly: []models.AQIPoint{},
	}
	if body.Hourly != nil {
		n := len(body.Hourly.Time)
		if len(body.Hourly.EuropeanAQI) < n {
			n = len(body.Hourly.EuropeanAQI)
		}
		if n > models.AirQualityHourlyLimit {
			n = models.AirQualityHourlyLimit
		}
		for i := 0; i < n; i++ {
			t, ok := parseLocal(body.Hourly.Time[i], loc)
			if !ok {
				continue
			}
			out.Hourly = append(out.Hourly, models.AQIPoint{Time: t, EuropeanAQI: body.Hourly.EuropeanAQI[i]})
		}
	}
	return out, nil
}
