package models

import "time"

// Forecast is the normalized forecast record for one point. Each section is
// produced by its own upstream request; a nil section has never been fetched.
// Individual numeric fields are nil when the upstream omitted them.
type Forecast struct {
	Current   *CurrentConditions `json:"current,omitempty"`
	Elevation *float64           `json:"elevation,omitempty"`
	Daily     []DailyForecast    `json:"daily,omitempty"`
	Hourly    []HourlyForecast   `json:"hourly,omitempty"`
	Hourly6h  []HourlyForecast   `json:"hourly6h,omitempty"`
}

// CurrentConditions holds the latest observed model values.
type CurrentConditions struct {
	Time          *time.Time `json:"time,omitempty"`
	Temperature   *float64   `json:"temperature"`
	Humidity      *float64   `json:"humidity"`
	WindSpeed     *float64   `json:"windSpeed"`
	WindDirection *float64   `json:"windDirection"`
	WindGust      *float64   `json:"windGust"`
	IsDay         *bool      `json:"isDay"`
	Precipitation *float64   `json:"precipitation"`
	Rain          *float64   `json:"rain"`
	Showers       *float64   `json:"showers"`
	Snowfall      *float64   `json:"snowfall"`
	CloudCover    *float64   `json:"cloudCover"`
	Pressure      *float64   `json:"pressure"`
	WeatherCode   *int       `json:"weatherCode"`
}

// DailyForecast is one calendar day of aggregated values.
type DailyForecast struct {
	Date               time.Time  `json:"date"`
	TemperatureMax     *float64   `json:"temperatureMax"`
	TemperatureMin     *float64   `json:"temperatureMin"`
	WindSpeedMax       *float64   `json:"windSpeedMax"`
	WindGustMax        *float64   `json:"windGustMax"`
	WindDirection      *float64   `json:"windDirection"`
	Sunrise            *time.Time `json:"sunrise,omitempty"`
	Sunset             *time.Time `json:"sunset,omitempty"`
	SunshineDuration   *float64   `json:"sunshineDuration"`
	DaylightDuration   *float64   `json:"daylightDuration"`
	UVIndexMax         *float64   `json:"uvIndexMax"`
	RainSum            *float64   `json:"rainSum"`
	ShowersSum         *float64   `json:"showersSum"`
	SnowfallSum        *float64   `json:"snowfallSum"`
	PrecipitationSum   *float64   `json:"precipitationSum"`
	PrecipitationHours *float64   `json:"precipitationHours"`
	WeatherCode        *int       `json:"weatherCode"`
}

// HourlyForecast is one step of an hourly (or 6-hourly) series.
type HourlyForecast struct {
	Time          time.Time `json:"time"`
	Temperature   *float64  `json:"temperature"`
	Precipitation *float64  `json:"precipitation"`
	Snowfall      *float64  `json:"snowfall"`
	WindSpeed     *float64  `json:"windSpeed"`
	WindGust      *float64  `json:"windGust"`
	WindDirection *float64  `json:"windDirection"`
	CloudCover    *float64  `json:"cloudCover"`
	FreezingLevel *float64  `json:"freezingLevel"`
	WeatherCode   *int      `json:"weatherCode"`
}
