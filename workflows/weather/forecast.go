// Package weather implements the weather-workflow: fetch-weather looks up a
// multi-day forecast for the trigger city and plan-activities asks the
// weather agent for activity suggestions, streaming its answer.
package weather

import (
	"context"

	"github.com/hupe1980/agentnet/schema"
)

// Forecast is one day of weather for a location.
type Forecast struct {
	Date                string  `json:"date"`
	MaxTemp             float64 `json:"maxTemp"`
	MinTemp             float64 `json:"minTemp"`
	PrecipitationChance float64 `json:"precipitationChance"`
	Condition           string  `json:"condition"`
	Location            string  `json:"location"`
}

// ForecastSchema describes the output of fetch-weather.
var ForecastSchema = schema.Array(schema.Object(
	schema.Prop("date", schema.String()),
	schema.Prop("maxTemp", schema.Number()),
	schema.Prop("minTemp", schema.Number()),
	schema.Prop("precipitationChance", schema.Number()),
	schema.Prop("condition", schema.String()),
	schema.Prop("location", schema.String()),
))

// Forecaster looks up the daily forecast of a city.
type Forecaster interface {
	Forecast(ctx context.Context, city string) ([]Forecast, error)
}

// ForecasterFunc adapts a function to Forecaster.
type ForecasterFunc func(ctx context.Context, city string) ([]Forecast, error)

// Forecast implements Forecaster.
func (f ForecasterFunc) Forecast(ctx context.Context, city string) ([]Forecast, error) {
	return f(ctx, city)
}

// conditions maps WMO weather codes to descriptions.
var conditions = map[int]string{
	0:  "Clear sky",
	1:  "Mainly clear",
	2:  "Partly cloudy",
	3:  "Overcast",
	45: "Foggy",
	48: "Depositing rime fog",
	51: "Light drizzle",
	53: "Moderate drizzle",
	55: "Dense drizzle",
	61: "Slight rain",
	63: "Moderate rain",
	65: "Heavy rain",
	71: "Slight snow fall",
	73: "Moderate snow fall",
	75: "Heavy snow fall",
	80: "Slight rain showers",
	81: "Moderate rain showers",
	82: "Violent rain showers",
	95: "Thunderstorm",
	96: "Thunderstorm with slight hail",
	99: "Thunderstorm with heavy hail",
}

// Condition describes a WMO weather code.
func Condition(code int) string {
	if c, ok := conditions[code]; ok {
		return c
	}
	return "Unknown"
}
