package widget

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"

	"github.com/swelljoe/citywx/internal/weather"
)

// ErrStale is returned when a newer request on the same session superseded
// this one. The session state was not modified.
var ErrStale = errors.New("superseded by a newer request")

// Lookup is the weather pipeline a session drives.
type Lookup interface {
	Suggest(ctx context.Context, text string) ([]weather.Suggestion, error)
	Lookup(ctx context.Context, city string) (*weather.Report, error)
	LookupAt(ctx context.Context, place weather.Suggestion) (*weather.Report, error)
}

// Observer is notified once per finished session operation.
type Observer interface {
	Lookup(trigger, outcome string)
	Stale(trigger string)
}

// Triggers label what started a session operation.
const (
	TriggerInput  = "input"
	TriggerSearch = "search"
	TriggerSelect = "select"
)

// Session holds the presentation state of one browser.
//
// Each operation takes a sequence number under the lock, runs the network
// call without it, and applies the result only if no newer operation of the
// same kind started meanwhile.
type Session struct {
	ID string

	lookup   Lookup
	observer Observer

	mu            sync.Mutex
	state         State
	suggestSeq    uint64
	lookupSeq     uint64
	cancelSuggest context.CancelFunc
}

// NewSession creates an idle session. observer may be nil.
func NewSession(id string, lookup Lookup, observer Observer) *Session {
	return &Session{ID: id, lookup: lookup, observer: observer}
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// Input records text as the query and refreshes suggestions. Text shorter
// than weather.MinQueryLength clears the suggestions without a request. A
// pending autocomplete request from an earlier keystroke is canceled.
func (s *Session) Input(ctx context.Context, text string) ([]weather.Suggestion, error) {
	s.mu.Lock()
	s.state.Query = text
	seq := s.bumpSuggestLocked()
	if !weather.IsSearchable(text) {
		s.state.Suggestions = nil
		s.mu.Unlock()
		return nil, nil
	}
	ctx, cancel := context.WithCancel(ctx)
	s.cancelSuggest = cancel
	s.mu.Unlock()
	defer cancel()

	results, err := s.lookup.Suggest(ctx, text)

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.suggestSeq {
		s.stale(TriggerInput)
		return nil, ErrStale
	}
	s.cancelSuggest = nil
	s.observe(TriggerInput, err)
	if err != nil {
		return nil, err
	}
	s.state.Suggestions = results
	return slices.Clone(results), nil
}

// Search looks up query as typed.
func (s *Session) Search(ctx context.Context, query string) error {
	s.mu.Lock()
	s.state.Query = query
	seq := s.beginLookupLocked()
	s.mu.Unlock()

	report, err := s.lookup.Lookup(ctx, query)
	return s.finish(TriggerSearch, seq, report, err)
}

// Select adopts a suggestion: the list is cleared and the query becomes the
// suggestion's name before the fetch starts. The forecast is fetched at the
// suggestion's own coordinate without geocoding the name again, so a
// selected homonym is never swapped for the service's first match.
func (s *Session) Select(ctx context.Context, place weather.Suggestion) error {
	s.mu.Lock()
	s.state.Suggestions = nil
	s.state.Query = place.Name
	seq := s.beginLookupLocked()
	s.mu.Unlock()

	report, err := s.lookup.LookupAt(ctx, place)
	return s.finish(TriggerSelect, seq, report, err)
}

// beginLookupLocked also invalidates any pending autocomplete so it cannot
// repopulate the list after a selection or search.
func (s *Session) beginLookupLocked() uint64 {
	s.bumpSuggestLocked()
	s.lookupSeq++
	s.state.Phase = PhaseResolving
	return s.lookupSeq
}

func (s *Session) bumpSuggestLocked() uint64 {
	if s.cancelSuggest != nil {
		s.cancelSuggest()
		s.cancelSuggest = nil
	}
	s.suggestSeq++
	return s.suggestSeq
}

func (s *Session) finish(trigger string, seq uint64, report *weather.Report, err error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if seq != s.lookupSeq {
		s.stale(trigger)
		return ErrStale
	}
	s.observe(trigger, err)
	if err != nil {
		slog.Debug("lookup failed", "session", s.ID, "trigger", trigger, "error", err)
		s.state.Error = weather.Message(err)
		s.state.Phase = PhaseErrored
		return err
	}
	s.state.apply(report)
	return nil
}

func (s *Session) observe(trigger string, err error) {
	if s.observer != nil {
		s.observer.Lookup(trigger, weather.Outcome(err))
	}
}

func (s *Session) stale(trigger string) {
	if s.observer != nil {
		s.observer.Stale(trigger)
	}
}
