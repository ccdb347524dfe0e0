package handlers

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/swelljoe/citywx/internal/weather"
	"github.com/swelljoe/citywx/internal/widget"
)

const sessionCookie = "wthr_session"

//go:embed templates/*.html
var templateFS embed.FS

var funcs = template.FuncMap{
	"deg": func(v float64) string { return fmt.Sprintf("%.1f°C", v) },
	"kmh": func(v float64) string { return fmt.Sprintf("%.1f km/h", v) },
}

// Weather is the stateless pipeline behind the JSON API.
type Weather interface {
	Suggest(ctx context.Context, text string) ([]weather.Suggestion, error)
	Lookup(ctx context.Context, city string) (*weather.Report, error)
	LookupAt(ctx context.Context, place weather.Suggestion) (*weather.Report, error)
}

// Handlers holds dependencies for HTTP handlers
type Handlers struct {
	weather   Weather
	sessions  *widget.Registry
	mapConfig widget.MapConfig
	templates *template.Template
}

// New creates a new Handlers instance
func New(w Weather, sessions *widget.Registry, mapConfig widget.MapConfig) *Handlers {
	tmpl := template.Must(template.New("").Funcs(funcs).ParseFS(templateFS, "templates/*.html"))
	return &Handlers{
		weather:   w,
		sessions:  sessions,
		mapConfig: mapConfig,
		templates: tmpl,
	}
}

// RegisterRoutes mounts the page, its fragments and the JSON API.
func (h *Handlers) RegisterRoutes(r chi.Router) {
	r.Get("/", h.HandleIndex)
	r.Get("/health", h.HandleHealth)
	r.Get("/suggest", h.HandleSuggest)
	r.Post("/search", h.HandleSearch)
	r.Post("/select", h.HandleSelect)

	r.Route("/api", func(r chi.Router) {
		r.Get("/suggest", h.HandleSuggestAPI)
		r.Get("/weather", h.HandleWeatherAPI)
	})
}

type pageData struct {
	State widget.State
	Map   widget.MapConfig
	OOB   bool
}

// session returns the caller's session, creating one when the cookie is
// missing or refers to an evicted session.
func (h *Handlers) session(w http.ResponseWriter, r *http.Request) *widget.Session {
	if c, err := r.Cookie(sessionCookie); err == nil {
		if s, ok := h.sessions.Get(c.Value); ok {
			return s
		}
	}
	s := h.sessions.Create()
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    s.ID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return s
}

func (h *Handlers) render(w http.ResponseWriter, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.templates.ExecuteTemplate(w, name, data); err != nil {
		slog.Error("template error", "template", name, "error", err)
	}
}

// HandleIndex handles the main page
func (h *Handlers) HandleIndex(w http.ResponseWriter, r *http.Request) {
	s := h.session(w, r)
	h.render(w, "index.html", pageData{State: s.Snapshot(), Map: h.mapConfig})
}

// HandleHealth handles health check endpoint
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "sessions": h.sessions.Len()})
}

// HandleSuggest refreshes the suggestion list for the typed query.
func (h *Handlers) HandleSuggest(w http.ResponseWriter, r *http.Request) {
	s := h.session(w, r)
	if _, err := s.Input(r.Context(), queryParam(r)); err != nil {
		if errors.Is(err, widget.ErrStale) {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		slog.Warn("autocomplete failed", "session", s.ID, "error", err)
		http.Error(w, "autocomplete unavailable", http.StatusBadGateway)
		return
	}
	h.render(w, "suggestions", s.Snapshot())
}

// HandleSearch looks up the submitted query.
func (h *Handlers) HandleSearch(w http.ResponseWriter, r *http.Request) {
	s := h.session(w, r)
	err := s.Search(r.Context(), r.FormValue("query"))
	h.renderWeather(w, s, err)
}

// HandleSelect looks up a suggestion the user picked.
func (h *Handlers) HandleSelect(w http.ResponseWriter, r *http.Request) {
	place, err := parseSuggestion(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s := h.session(w, r)
	err = s.Select(r.Context(), place)
	h.renderWeather(w, s, err)
}

// renderWeather answers a lookup. Lookup failures are part of the state and
// render normally; a superseded request renders nothing.
func (h *Handlers) renderWeather(w http.ResponseWriter, s *widget.Session, err error) {
	if errors.Is(err, widget.ErrStale) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	h.render(w, "weather", pageData{State: s.Snapshot(), Map: h.mapConfig, OOB: true})
}

// HandleSuggestAPI performs location autocomplete
func (h *Handlers) HandleSuggestAPI(w http.ResponseWriter, r *http.Request) {
	q := queryParam(r)
	if !weather.IsSearchable(q) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte("[]"))
		return
	}

	results, err := h.weather.Suggest(r.Context(), q)
	if err != nil {
		slog.Warn("search error", "query", q, "error", err)
		writeError(w, err)
		return
	}
	if results == nil {
		results = []weather.Suggestion{}
	}
	writeJSON(w, http.StatusOK, results)
}

// HandleWeatherAPI handles weather data requests by city name or lat/lon.
func (h *Handlers) HandleWeatherAPI(w http.ResponseWriter, r *http.Request) {
	city := strings.TrimSpace(r.URL.Query().Get("city"))
	latStr := r.URL.Query().Get("lat")
	lonStr := r.URL.Query().Get("lon")

	var (
		report *weather.Report
		err    error
	)
	switch {
	case latStr != "" && lonStr != "":
		coord, perr := parseCoordinate(latStr, lonStr)
		if perr != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": perr.Error()})
			return
		}
		report, err = h.weather.LookupAt(r.Context(), weather.Suggestion{Name: city, Coordinate: coord})
	case city != "":
		report, err = h.weather.Lookup(r.Context(), city)
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "location is required (provide city or lat/lon)"})
		return
	}

	if err != nil {
		slog.Warn("weather error", "city", city, "error", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func queryParam(r *http.Request) string {
	if q := r.URL.Query().Get("q"); q != "" {
		return q
	}
	return r.FormValue("query")
}

func parseSuggestion(r *http.Request) (weather.Suggestion, error) {
	name := strings.TrimSpace(r.FormValue("name"))
	if name == "" {
		return weather.Suggestion{}, errors.New("name is required")
	}
	coord, err := parseCoordinate(r.FormValue("lat"), r.FormValue("lon"))
	if err != nil {
		return weather.Suggestion{}, err
	}
	return weather.Suggestion{
		Name:       name,
		Country:    strings.TrimSpace(r.FormValue("country")),
		Coordinate: coord,
	}, nil
}

func parseCoordinate(latStr, lonStr string) (weather.Coordinate, error) {
	lat, err := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
	if err != nil || lat < -90 || lat > 90 {
		return weather.Coordinate{}, errors.New("invalid latitude")
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(lonStr), 64)
	if err != nil || lon < -180 || lon > 180 {
		return weather.Coordinate{}, errors.New("invalid longitude")
	}
	return weather.Coordinate{Latitude: lat, Longitude: lon}, nil
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("response write error", "error", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusBadGateway
	switch {
	case errors.Is(err, weather.ErrEmptyQuery):
		status = http.StatusBadRequest
	case errors.Is(err, weather.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	}
	writeJSON(w, status, map[string]string{"error": weather.Message(err)})
}
