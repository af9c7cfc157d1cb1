package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hupe1980/agentnet/core"
)

const (
	geocodingURL = "https://geocoding-api.open-meteo.com/v1/search"
	forecastURL  = "https://api.open-meteo.com/v1/forecast"
	sourceName   = "open-meteo"
)

// OpenMeteoOptions configures the Open-Meteo forecaster.
type OpenMeteoOptions struct {
	GeocodingURL string
	ForecastURL  string
	HTTPClient   *http.Client
}

// OpenMeteo is a Forecaster backed by the keyless Open-Meteo APIs.
type OpenMeteo struct {
	opts OpenMeteoOptions
}

// NewOpenMeteo creates an Open-Meteo forecaster.
func NewOpenMeteo(optFns ...func(o *OpenMeteoOptions)) *OpenMeteo {
	opts := OpenMeteoOptions{
		GeocodingURL: geocodingURL,
		ForecastURL:  forecastURL,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &OpenMeteo{opts: opts}
}

type geocodingResponse struct {
	Results []struct {
		Name      string  `json:"name"`
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	} `json:"results"`
}

type forecastResponse struct {
	Daily struct {
		Time          []string  `json:"time"`
		MaxTemp       []float64 `json:"temperature_2m_max"`
		MinTemp       []float64 `json:"temperature_2m_min"`
		Precipitation []float64 `json:"precipitation_probability_mean"`
		WeatherCode   []int     `json:"weathercode"`
	} `json:"daily"`
}

// Forecast implements Forecaster. An unknown city yields an empty forecast,
// not an error.
func (m *OpenMeteo) Forecast(ctx context.Context, city string) ([]Forecast, error) {
	geoURL := m.opts.GeocodingURL + "?" + url.Values{"name": {city}, "count": {"1"}}.Encode()

	var geo geocodingResponse
	if err := m.get(ctx, geoURL, &geo); err != nil {
		return nil, err
	}
	if len(geo.Results) == 0 {
		return []Forecast{}, nil
	}

	loc := geo.Results[0]
	q := url.Values{
		"latitude":  {fmt.Sprintf("%g", loc.Latitude)},
		"longitude": {fmt.Sprintf("%g", loc.Longitude)},
		"daily":     {"temperature_2m_max,temperature_2m_min,precipitation_probability_mean,weathercode"},
		"timezone":  {"auto"},
	}

	var fc forecastResponse
	if err := m.get(ctx, m.opts.ForecastURL+"?"+q.Encode(), &fc); err != nil {
		return nil, err
	}

	d := fc.Daily
	out := make([]Forecast, 0, len(d.Time))
	for i, date := range d.Time {
		out = append(out, Forecast{
			Date:                date,
			MaxTemp:             at(d.MaxTemp, i),
			MinTemp:             at(d.MinTemp, i),
			PrecipitationChance: at(d.Precipitation, i),
			Condition:           Condition(at(d.WeatherCode, i)),
			Location:            city,
		})
	}

	return out, nil
}

func (m *OpenMeteo) get(ctx context.Context, u string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	res, err := m.opts.HTTPClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &core.ToolExecutionError{Tool: sourceName, Message: "request failed", Cause: err}
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(res.Body, 4<<10))
		return &core.ToolExecutionError{Tool: sourceName, StatusCode: res.StatusCode, Body: strings.TrimSpace(string(b))}
	}

	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return &core.ToolExecutionError{Tool: sourceName, Message: fmt.Sprintf("decode response: %v", err), Cause: err}
	}

	return nil
}

// at tolerates daily series shorter than the time axis.
func at[T any](xs []T, i int) T {
	var zero T
	if i < len(xs) {
		return xs[i]
	}
	return zero
}
