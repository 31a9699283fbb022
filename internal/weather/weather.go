// Package weather fetches the current conditions for the configured location
// from the Open-Meteo public API.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/lifeos/core/internal/domain/entities"
	"github.com/lifeos/core/internal/infrastructure/logger"
)

const (
	geocodingURL = "https://geocoding-api.open-meteo.com/v1/search"
	forecastURL  = "https://api.open-meteo.com/v1/forecast"
)

// Current is the weather snapshot shown on the dashboard.
type Current struct {
	City        string  `json:"city"`
	Temperature float64 `json:"temperature"`
	Code        int     `json:"code"`
	Description string  `json:"description"`
}

// Client talks to Open-Meteo.
type Client struct {
	http   *http.Client
	logger *logger.Logger
}

// New creates a weather client.
func New(log *logger.Logger) *Client {
	return &Client{
		http:   &http.Client{Timeout: 10 * time.Second},
		logger: log.WithComponent("weather"),
	}
}

// Current resolves the location to coordinates and fetches the current
// conditions. "City, CC" locations that fail geocoding are retried with the
// city name alone.
func (c *Client) Current(ctx context.Context, location string) (*Current, error) {
	place, err := c.geocode(ctx, location)
	if err != nil && strings.Contains(location, ",") {
		city := strings.TrimSpace(strings.SplitN(location, ",", 2)[0])
		place, err = c.geocode(ctx, city)
	}
	if err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("latitude", fmt.Sprintf("%f", place.Latitude))
	query.Set("longitude", fmt.Sprintf("%f", place.Longitude))
	query.Set("current", "temperature_2m,weather_code")
	query.Set("timezone", "auto")

	var payload struct {
		Current struct {
			Temperature float64 `json:"temperature_2m"`
			WeatherCode int     `json:"weather_code"`
		} `json:"current"`
	}
	if err := c.getJSON(ctx, forecastURL+"?"+query.Encode(), &payload); err != nil {
		return nil, fmt.Errorf("fetch forecast: %w", err)
	}

	return &Current{
		City:        place.Name,
		Temperature: payload.Current.Temperature,
		Code:        payload.Current.WeatherCode,
		Description: Describe(payload.Current.WeatherCode),
	}, nil
}

type place struct {
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func (c *Client) geocode(ctx context.Context, name string) (*place, error) {
	query := url.Values{}
	query.Set("name", name)
	query.Set("count", "1")
	query.Set("format", "json")

	var payload struct {
		Results []place `json:"results"`
	}
	if err := c.getJSON(ctx, geocodingURL+"?"+query.Encode(), &payload); err != nil {
		return nil, fmt.Errorf("geocode %q: %w", name, err)
	}
	if len(payload.Results) == 0 {
		return nil, fmt.Errorf("%w: %q", entities.ErrLocationNotFound, name)
	}
	return &payload.Results[0], nil
}

func (c *Client) getJSON(ctx context.Context, rawURL string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(v)
}

// Describe maps a WMO weather code to a short description.
func Describe(code int) string {
	descriptions := map[int]string{
		0: "Clear sky", 1: "Mainly clear", 2: "Partly cloudy", 3: "Overcast",
		45: "Fog", 48: "Rime fog", 51: "Drizzle", 53: "Drizzle", 55: "Dense drizzle",
		61: "Light rain", 63: "Rain", 65: "Heavy rain",
		71: "Light snow", 73: "Snow", 75: "Heavy snow",
		80: "Showers", 81: "Heavy showers", 82: "Violent showers",
		95: "Thunderstorm", 96: "Thunderstorm with hail", 99: "Severe thunderstorm",
	}
	if desc, ok := descriptions[code]; ok {
		return desc
	}
	return "Unknown"
}
