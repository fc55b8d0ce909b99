package models

import "time"

// AirQualityHourlyLimit caps the hourly AQI series.
const AirQualityHourlyLimit = 24

// AirQuality is the normalized air-quality record for one point.
type AirQuality struct {
	Current AirQualityCurrent `json:"current"`
	Hourly  []AQIPoint        `json:"hourly"`
}

// AirQualityCurrent holds pollutant concentrations in µg/m³ and the European AQI.
type AirQualityCurrent struct {
	Time            *time.Time `json:"time,omitempty"`
	EuropeanAQI     *float64   `json:"europeanAqi"`
	PM25            *float64   `json:"pm2_5"`
	PM10            *float64   `json:"pm10"`
	NitrogenDioxide *float64   `json:"nitrogenDioxide"`
	Ozone           *float64   `json:"ozone"`
	SulphurDioxide  *float64   `json:"sulphurDioxide"`
}

// AQIPoint is one hourly European AQI forecast value.
type AQIPoint struct {
	Time        time.Time `json:"time"`
	EuropeanAQI *float64  `json:"europeanAqi"`
}
