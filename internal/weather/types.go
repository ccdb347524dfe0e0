package weather

import "fmt"

// Coordinate is a WGS84 point.
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// String formats c as "lat,lon" with four decimals.
func (c Coordinate) String() string {
	return fmt.Sprintf("%.4f,%.4f", c.Latitude, c.Longitude)
}

// Suggestion is one geocoding candidate.
type Suggestion struct {
	Name       string     `json:"name"`
	Country    string     `json:"country"`
	Coordinate Coordinate `json:"coordinate"`
}

// Label is the display form used in the suggestion list.
func (s Suggestion) Label() string {
	if s.Country == "" {
		return s.Name
	}
	return s.Name + ", " + s.Country
}

// CurrentWeather is the observation at fetch time.
type CurrentWeather struct {
	Temperature float64 `json:"temperature"`
	WindSpeed   float64 `json:"wind_speed"`
	WeatherCode int     `json:"weather_code"`
}

// Icon maps the current weather code.
func (c CurrentWeather) Icon() Icon { return IconFor(c.WeatherCode) }

// ForecastSummary describes the day after today.
type ForecastSummary struct {
	MinTemp     float64 `json:"min_temp"`
	MaxTemp     float64 `json:"max_temp"`
	WeatherCode int     `json:"weather_code"`
}

// Icon maps tomorrow's weather code.
func (f ForecastSummary) Icon() Icon { return IconFor(f.WeatherCode) }

// Report is the result of one successful forecast fetch.
type Report struct {
	Location   string          `json:"location,omitempty"`
	Coordinate Coordinate      `json:"coordinate"`
	Timezone   string          `json:"timezone,omitempty"`
	Current    CurrentWeather  `json:"current"`
	Tomorrow   ForecastSummary `json:"tomorrow"`
}
