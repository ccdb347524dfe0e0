package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultGeocodeURL  = "https://geocoding-api.open-meteo.com/v1/search"
	DefaultForecastURL = "https://api.open-meteo.com/v1/forecast"
	DefaultTileURL     = "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png"

	leafletImages = "https://unpkg.com/leaflet@1.9.4/dist/images/"

	// MaxSuggestions is the hard cap on autocomplete results.
	MaxSuggestions = 5
)

// Config holds runtime settings for the widget server.
type Config struct {
	Port string

	GeocodeURL     string
	ForecastURL    string
	UserAgent      string
	RequestTimeout time.Duration
	SuggestLimit   int

	TileURL         string
	TileAttribution string
	MapZoom         int
	MarkerIconURL   string
	MarkerRetinaURL string
	MarkerShadowURL string

	SessionIdleTTL time.Duration
	CORSOrigins    []string
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present; real environment values win.
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("failed to load .env", "error", err)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = getEnvOrDefault("WTHR_PORT", "8080")
	}

	limit := getEnvInt("SUGGEST_LIMIT", MaxSuggestions)
	if limit <= 0 || limit > MaxSuggestions {
		limit = MaxSuggestions
	}

	return Config{
		Port:            port,
		GeocodeURL:      getEnvOrDefault("GEOCODE_URL", DefaultGeocodeURL),
		ForecastURL:     getEnvOrDefault("FORECAST_URL", DefaultForecastURL),
		UserAgent:       getEnvOrDefault("WTHR_USER_AGENT", "citywx/1.0"),
		RequestTimeout:  getEnvDuration("REQUEST_TIMEOUT", 10*time.Second),
		SuggestLimit:    limit,
		TileURL:         getEnvOrDefault("TILE_URL", DefaultTileURL),
		TileAttribution: getEnvOrDefault("TILE_ATTRIBUTION", "&copy; OpenStreetMap contributors"),
		MapZoom:         getEnvInt("MAP_ZOOM", 10),
		MarkerIconURL:   getEnvOrDefault("MARKER_ICON_URL", leafletImages+"marker-icon.png"),
		MarkerRetinaURL: getEnvOrDefault("MARKER_ICON_RETINA_URL", leafletImages+"marker-icon-2x.png"),
		MarkerShadowURL: getEnvOrDefault("MARKER_SHADOW_URL", leafletImages+"marker-shadow.png"),
		SessionIdleTTL:  getEnvDuration("SESSION_IDLE_TTL", 30*time.Minute),
		CORSOrigins:     splitList(getEnvOrDefault("CORS_ORIGINS", "*")),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
		slog.Warn("ignoring invalid integer", "key", key, "value", v)
	}
	return defaultValue
}

// getEnvDuration accepts Go durations ("15s") or a bare number of seconds.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(v); err == nil && d > 0 {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil && n > 0 {
		return time.Duration(n) * time.Second
	}
	slog.Warn("ignoring invalid duration", "key", key, "value", v)
	return defaultValue
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
