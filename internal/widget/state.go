package widget

import (
	"slices"

	"github.com/swelljoe/citywx/internal/weather"
)

// Phase is the lifecycle of the latest lookup.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseResolving
	PhaseReady
	PhaseErrored
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseResolving:
		return "resolving"
	case PhaseReady:
		return "ready"
	case PhaseErrored:
		return "errored"
	default:
		return "unknown"
	}
}

// State is what the page renders. Every field holds only the latest value.
type State struct {
	Query       string
	Suggestions []weather.Suggestion

	// Location, Coordinate, Current and Tomorrow change together and only
	// on a successful fetch.
	Location   string
	Coordinate *weather.Coordinate
	Current    *weather.CurrentWeather
	Tomorrow   *weather.ForecastSummary

	Error string
	Phase Phase
}

func (s State) clone() State {
	out := s
	out.Suggestions = slices.Clone(s.Suggestions)
	if s.Coordinate != nil {
		c := *s.Coordinate
		out.Coordinate = &c
	}
	if s.Current != nil {
		c := *s.Current
		out.Current = &c
	}
	if s.Tomorrow != nil {
		t := *s.Tomorrow
		out.Tomorrow = &t
	}
	return out
}

func (s *State) apply(r *weather.Report) {
	coord := r.Coordinate
	current := r.Current
	tomorrow := r.Tomorrow

	s.Location = r.Location
	s.Coordinate = &coord
	s.Current = &current
	s.Tomorrow = &tomorrow
	s.Error = ""
	s.Phase = PhaseReady
}
