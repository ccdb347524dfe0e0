package weather

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	endpointGeocoding = "geocoding"
	endpointForecast  = "forecast"

	// tomorrowIndex is the offset of the next day in the daily arrays.
	tomorrowIndex = 1

	maxBodyBytes  = 1 << 20
	maxErrorBytes = 512
)

// UpstreamObserver receives the outcome of every upstream request.
type UpstreamObserver func(endpoint, outcome string)

// Client handles Open-Meteo geocoding and forecast requests.
type Client struct {
	GeocodeURL  string
	ForecastURL string
	UserAgent   string
	HTTPClient  *http.Client
	Observe     UpstreamObserver
}

// NewClient creates a client for the given endpoints. A zero timeout leaves
// request lifetime to the caller's context.
func NewClient(geocodeURL, forecastURL, userAgent string, timeout time.Duration) *Client {
	return &Client{
		GeocodeURL:  geocodeURL,
		ForecastURL: forecastURL,
		UserAgent:   userAgent,
		HTTPClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *Client) get(ctx context.Context, endpoint, requestURL string) (data []byte, err error) {
	if c.Observe != nil {
		defer func() { c.Observe(endpoint, Outcome(err)) }()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, err
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, &NetworkError{Endpoint: endpoint, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBytes))
		return nil, &APIError{Endpoint: endpoint, Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	data, err = io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &NetworkError{Endpoint: endpoint, Err: err}
	}
	return data, nil
}

type geocodeResponse struct {
	Results []struct {
		Name      string  `json:"name"`
		Country   string  `json:"country"`
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	} `json:"results"`
}

// Search returns up to limit geocoding candidates for name, in the order the
// service ranked them. No match is an empty slice, not an error.
func (c *Client) Search(ctx context.Context, name string, limit int) ([]Suggestion, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyQuery
	}
	if limit <= 0 {
		limit = 1
	}

	params := url.Values{}
	params.Set("name", name)
	params.Set("count", strconv.Itoa(limit))
	params.Set("language", "en")
	params.Set("format", "json")

	data, err := c.get(ctx, endpointGeocoding, c.GeocodeURL+"?"+params.Encode())
	if err != nil {
		return nil, err
	}

	var resp geocodeResponse
	if err := decode(endpointGeocoding, geocodeSchema, data, &resp); err != nil {
		return nil, err
	}

	n := min(len(resp.Results), limit)
	out := make([]Suggestion, 0, n)
	for _, r := range resp.Results[:n] {
		out = append(out, Suggestion{
			Name:       r.Name,
			Country:    r.Country,
			Coordinate: Coordinate{Latitude: r.Latitude, Longitude: r.Longitude},
		})
	}
	return out, nil
}

// Resolve returns the best geocoding match for name.
func (c *Client) Resolve(ctx context.Context, name string) (Suggestion, error) {
	results, err := c.Search(ctx, name, 1)
	if err != nil {
		return Suggestion{}, err
	}
	if len(results) == 0 {
		return Suggestion{}, fmt.Errorf("%q: %w", strings.TrimSpace(name), ErrNotFound)
	}
	return results[0], nil
}

type forecastResponse struct {
	Timezone       string `json:"timezone"`
	CurrentWeather struct {
		Temperature float64 `json:"temperature"`
		WindSpeed   float64 `json:"windspeed"`
		WeatherCode int     `json:"weathercode"`
	} `json:"current_weather"`
	Daily struct {
		MaxTemp     []*float64 `json:"temperature_2m_max"`
		MinTemp     []*float64 `json:"temperature_2m_min"`
		WeatherCode []*int     `json:"weathercode"`
	} `json:"daily"`
}

// Forecast fetches current conditions and tomorrow's summary for coord.
// Daily values are aligned to the location's own timezone.
func (c *Client) Forecast(ctx context.Context, coord Coordinate) (*Report, error) {
	params := url.Values{}
	params.Set("latitude", strconv.FormatFloat(coord.Latitude, 'f', -1, 64))
	params.Set("longitude", strconv.FormatFloat(coord.Longitude, 'f', -1, 64))
	params.Set("current_weather", "true")
	params.Set("daily", "temperature_2m_max,temperature_2m_min,weathercode")
	params.Set("timezone", "auto")

	data, err := c.get(ctx, endpointForecast, c.ForecastURL+"?"+params.Encode())
	if err != nil {
		return nil, err
	}

	var fc forecastResponse
	if err := decode(endpointForecast, forecastSchema, data, &fc); err != nil {
		return nil, err
	}
	return transform(coord, &fc)
}

// transform reads tomorrow from the daily arrays. Other days may be null;
// tomorrow may not.
func transform(coord Coordinate, fc *forecastResponse) (*Report, error) {
	d := fc.Daily
	if len(d.MaxTemp) <= tomorrowIndex || len(d.MinTemp) <= tomorrowIndex || len(d.WeatherCode) <= tomorrowIndex {
		return nil, &SchemaError{Endpoint: endpointForecast, Err: fmt.Errorf("daily forecast has no entry for tomorrow")}
	}
	maxTemp, minTemp, code := d.MaxTemp[tomorrowIndex], d.MinTemp[tomorrowIndex], d.WeatherCode[tomorrowIndex]
	if maxTemp == nil || minTemp == nil || code == nil {
		return nil, &SchemaError{Endpoint: endpointForecast, Err: fmt.Errorf("daily forecast for tomorrow has null values")}
	}

	return &Report{
		Coordinate: coord,
		Timezone:   fc.Timezone,
		Current: CurrentWeather{
			Temperature: fc.CurrentWeather.Temperature,
			WindSpeed:   fc.CurrentWeather.WindSpeed,
			WeatherCode: fc.CurrentWeather.WeatherCode,
		},
		Tomorrow: ForecastSummary{
			MinTemp:     *minTemp,
			MaxTemp:     *maxTemp,
			WeatherCode: *code,
		},
	}, nil
}
