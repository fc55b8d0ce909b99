package client

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/kjstillabower/mountain-weather-poller/internal/geo"
	"github.com/kjstillabower/mountain-weather-poller/internal/models"
)

// DefaultForecastURL is the Open-Meteo endpoint serving Météo-France models.
const DefaultForecastURL = "https://api.open-meteo.com/v1/meteofrance"

// ProviderForecast names the forecast upstream in errors, metrics and the breaker.
const ProviderForecast = "open-meteo"

// ForecastPart is one independently requested section of the forecast.
type ForecastPart string

const (
	PartCurrent  ForecastPart = "current"
	PartDaily    ForecastPart = "daily"
	PartHourly   ForecastPart = "hourly"
	PartHourly6h ForecastPart = "hourly_6h"
)

// ForecastParts lists every part in request order.
var ForecastParts = []ForecastPart{PartCurrent, PartDaily, PartHourly, PartHourly6h}

const (
	forecastDays  = 3
	forecastHours = 24
)

var (
	currentVars = []string{
		"temperature_2m", "relative_humidity_2m", "wind_speed_10m", "wind_direction_10m",
		"wind_gusts_10m", "is_day", "precipitation", "rain", "showers", "snowfall",
		"cloud_cover", "pressure_msl", "weather_code",
	}
	dailyVars = []string{
		"temperature_2m_max", "temperature_2m_min", "wind_speed_10m_max", "wind_gusts_10m_max",
		"wind_direction_10m_dominant", "sunrise", "sunset", "sunshine_duration",
		"daylight_duration", "uv_index_max", "rain_sum", "showers_sum", "snowfall_sum",
		"precipitation_sum", "precipitation_hours", "weather_code",
	}
	hourlyVars = []string{
		"temperature_2m", "precipitation", "snowfall", "wind_speed_10m", "wind_gusts_10m",
		"wind_direction_10m", "cloud_cover", "freezing_level_height", "weather_code",
	}
)

// ForecastClient fetches forecast parts for a fixed point.
type ForecastClient struct {
	baseURL string
	point   geo.Point
	t       *transport
}

// NewForecastClient creates a client for point. An empty baseURL uses DefaultForecastURL.
func NewForecastClient(point geo.Point, baseURL string, opts Options) *ForecastClient {
	if baseURL == "" {
		baseURL = DefaultForecastURL
	}
	return &ForecastClient{
		baseURL: baseURL,
		point:   point,
		t:       newTransport(ProviderForecast, opts, uint32(len(ForecastParts))),
	}
}

// Adapters returns one adapter per forecast part, all sharing this client's breaker.
func (c *ForecastClient) Adapters() []*ForecastAdapter {
	out := make([]*ForecastAdapter, 0, len(ForecastParts))
	for _, p := range ForecastParts {
		out = append(out, &ForecastAdapter{client: c, part: p})
	}
	return out
}

// ForecastAdapter fetches a single part and returns a Forecast holding only that part.
type ForecastAdapter struct {
	client *ForecastClient
	part   ForecastPart
}

func (a *ForecastAdapter) Name() string { return string(a.part) }

func (a *ForecastAdapter) Fetch(ctx context.Context) (models.Forecast, error) {
	return a.client.FetchPart(ctx, a.part)
}

type openMeteoEnvelope struct {
	Elevation        *float64        `json:"elevation"`
	UTCOffsetSeconds int             `json:"utc_offset_seconds"`
	TimezoneAbbrev   string          `json:"timezone_abbreviation"`
	Current          *omCurrent      `json:"current"`
	Daily            *omDaily        `json:"daily"`
	Hourly           *omHourlySeries `json:"hourly"`
}

type omCurrent struct {
	Time          *string  `json:"time"`
	Temperature   *float64 `json:"temperature_2m"`
	Humidity      *float64 `json:"relative_humidity_2m"`
	WindSpeed     *float64 `json:"wind_speed_10m"`
	WindDirection *float64 `json:"wind_direction_10m"`
	WindGust      *float64 `json:"wind_gusts_10m"`
	IsDay         *float64 `json:"is_day"`
	Precipitation *float64 `json:"precipitation"`
	Rain          *float64 `json:"rain"`
	Showers       *float64 `json:"showers"`
	Snowfall      *float64 `json:"snowfall"`
	CloudCover    *float64 `json:"cloud_cover"`
	Pressure      *float64 `json:"pressure_msl"`
	WeatherCode   *float64 `json:"weather_code"`
}

type omDaily struct {
	Time               []string   `json:"time"`
	TemperatureMax     []*float64 `json:"temperature_2m_max"`
	TemperatureMin     []*float64 `json:"temperature_2m_min"`
	WindSpeedMax       []*float64 `json:"wind_speed_10m_max"`
	WindGustMax        []*float64 `json:"wind_gusts_10m_max"`
	WindDirection      []*float64 `json:"wind_direction_10m_dominant"`
	Sunrise            []*string  `json:"sunrise"`
	Sunset             []*string  `json:"sunset"`
	SunshineDuration   []*float64 `json:"sunshine_duration"`
	DaylightDuration   []*float64 `json:"daylight_duration"`
	UVIndexMax         []*float64 `json:"uv_index_max"`
	RainSum            []*float64 `json:"rain_sum"`
	ShowersSum         []*float64 `json:"showers_sum"`
	SnowfallSum        []*float64 `json:"snowfall_sum"`
	PrecipitationSum   []*float64 `json:"precipitation_sum"`
	PrecipitationHours []*float64 `json:"precipitation_hours"`
	WeatherCode        []*float64 `json:"weather_code"`
}

type omHourlySeries struct {
	Time          []string   `json:"time"`
	Temperature   []*float64 `json:"temperature_2m"`
	Precipitation []*float64 `json:"precipitation"`
	Snowfall      []*float64 `json:"snowfall"`
	WindSpeed     []*float64 `json:"wind_speed_10m"`
	WindGust      []*float64 `json:"wind_gusts_10m"`
	WindDirection []*float64 `json:"wind_direction_10m"`
	CloudCover    []*float64 `json:"cloud_cover"`
	FreezingLevel []*float64 `json:"freezing_level_height"`
	WeatherCode   []*float64 `json:"weather_code"`
}

// FetchPart requests one part. The returned Forecast has only that part's fields set.
func (c *ForecastClient) FetchPart(ctx context.Context, part ForecastPart) (models.Forecast, error) {
	params, err := c.params(part)
	if err != nil {
		return models.Forecast{}, err
	}
	u, err := withQuery(c.baseURL, params)
	if err != nil {
		return models.Forecast{}, protocolError(ProviderForecast, 0, "build request", err)
	}

	resp, err := c.t.get(ctx, u, nil)
	if err != nil {
		return models.Forecast{}, err
	}
	if err := c.t.requireOK(resp); err != nil {
		return models.Forecast{}, err
	}

	var env openMeteoEnvelope
	if err := decodeJSON(resp.body, &env); err != nil {
		return models.Forecast{}, protocolError(ProviderForecast, resp.status, string(part), err)
	}
	loc := zoneFor(env.TimezoneAbbrev, env.UTCOffsetSeconds)

	missing := func(section string) error {
		return protocolError(ProviderForecast, resp.status, fmt.Sprintf("missing %s section", section), nil)
	}

	var out models.Forecast
	switch part {
	case PartCurrent:
		if env.Current == nil {
			return models.Forecast{}, missing("current")
		}
		out.Current = mapCurrent(env.Current, loc)
		out.Elevation = env.Elevation
	case PartDaily:
		if env.Daily == nil || env.Daily.Time == nil {
			return models.Forecast{}, missing("daily")
		}
		out.Daily = mapDaily(env.Daily, loc)
	case PartHourly, PartHourly6h:
		if env.Hourly == nil || env.Hourly.Time == nil {
			return models.Forecast{}, missing("hourly")
		}
		series := mapHourly(env.Hourly, loc)
		if part == PartHourly {
			out.Hourly = series
		} else {
			out.Hourly6h = series
		}
	}
	return out, nil
}

func (c *ForecastClient) params(part ForecastPart) (url.Values, error) {
	v := url.Values{}
	v.Set("latitude", strconv.FormatFloat(c.point.Lat, 'f', -1, 64))
	v.Set("longitude", strconv.FormatFloat(c.point.Lon, 'f', -1, 64))
	v.Set("timezone", "auto")

	switch part {
	case PartCurrent:
		v.Set("current", strings.Join(currentVars, ","))
	case PartDaily:
		v.Set("daily", strings.Join(dailyVars, ","))
		v.Set("forecast_days", strconv.Itoa(forecastDays))
	case PartHourly:
		v.Set("hourly", strings.Join(hourlyVars, ","))
		v.Set("forecast_hours", strconv.Itoa(forecastHours))
	case PartHourly6h:
		v.Set("hourly", strings.Join(hourlyVars, ","))
		v.Set("temporal_resolution", "hourly_6")
		v.Set("forecast_days", strconv.Itoa(forecastDays))
	default:
		return nil, fmt.Errorf("unknown forecast part %q", part)
	}
	return v, nil
}

func mapCurrent(c *omCurrent, loc *time.Location) *models.CurrentConditions {
	return &models.CurrentConditions{
		Time:          parseLocalPtr(c.Time, loc),
		Temperature:   c.Temperature,
		Humidity:      c.Humidity,
		WindSpeed:     c.WindSpeed,
		WindDirection: c.WindDirection,
		WindGust:      c.WindGust,
		IsDay:         toBool(c.IsDay),
		Precipitation: c.Precipitation,
		Rain:          c.Rain,
		Showers:       c.Showers,
		Snowfall:      c.Snowfall,
		CloudCover:    c.CloudCover,
		Pressure:      c.Pressure,
		WeatherCode:   toInt(c.WeatherCode),
	}
}

// Entries whose timestamp cannot be parsed are skipped.
func mapDaily(d *omDaily, loc *time.Location) []models.DailyForecast {
	out := make([]models.DailyForecast, 0, len(d.Time))
	for i, ts := range d.Time {
		date, ok := parseLocal(ts, loc)
		if !ok {
			continue
		}
		out = append(out, models.DailyForecast{
			Date:               date,
			TemperatureMax:     at(d.TemperatureMax, i),
			TemperatureMin:     at(d.TemperatureMin, i),
			WindSpeedMax:       at(d.WindSpeedMax, i),
			WindGustMax:        at(d.WindGustMax, i),
			WindDirection:      at(d.WindDirection, i),
			Sunrise:            parseLocalPtr(stringAt(d.Sunrise, i), loc),
			Sunset:             parseLocalPtr(stringAt(d.Sunset, i), loc),
			SunshineDuration:   at(d.SunshineDuration, i),
			DaylightDuration:   at(d.DaylightDuration, i),
			UVIndexMax:         at(d.UVIndexMax, i),
			RainSum:            at(d.RainSum, i),
			ShowersSum:         at(d.ShowersSum, i),
			SnowfallSum:        at(d.SnowfallSum, i),
			PrecipitationSum:   at(d.PrecipitationSum, i),
			PrecipitationHours: at(d.PrecipitationHours, i),
			WeatherCode:        intAt(d.WeatherCode, i),
		})
	}
	return out
}

func mapHourly(h *omHourlySeries, loc *time.Location) []models.HourlyForecast {
	out := make([]models.HourlyForecast, 0, len(h.Time))
	for i, ts := range h.Time {
		t, ok := parseLocal(ts, loc)
		if !ok {
			continue
		}
		out = append(out, models.HourlyForecast{
			Time:          t,
			Temperature:   at(h.Temperature, i),
			Precipitation: at(h.Precipitation, i),
			Snowfall:      at(h.Snowfall, i),
			WindSpeed:     at(h.WindSpeed, i),
			WindGust:      at(h.WindGust, i),
			WindDirection: at(h.WindDirection, i),
			CloudCover:    at(h.CloudCover, i),
			FreezingLevel: at(h.FreezingLevel, i),
			WeatherCode:   intAt(h.WeatherCode, i),
		})
	}
	return out
}
