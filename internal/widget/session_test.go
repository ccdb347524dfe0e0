package widget

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/swelljoe/citywx/internal/weather"
)

// fakeLookup answers from fixed tables. Calls whose text appears in block
// wait until the channel is closed or the context ends.
type fakeLookup struct {
	mu          sync.Mutex
	suggestions map[string][]weather.Suggestion
	reports     map[string]*weather.Report
	errs        map[string]error
	block       map[string]chan struct{}
	calls       []string
}

func newFakeLookup() *fakeLookup {
	return &fakeLookup{
		suggestions: make(map[string][]weather.Suggestion),
		reports:     make(map[string]*weather.Report),
		errs:        make(map[string]error),
		block:       make(map[string]chan struct{}),
	}
}

func (f *fakeLookup) wait(ctx context.Context, key string) error {
	f.mu.Lock()
	f.calls = append(f.calls, key)
	ch := f.block[key]
	f.mu.Unlock()
	if ch == nil {
		return nil
	}
	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *fakeLookup) Suggest(ctx context.Context, text string) ([]weather.Suggestion, error) {
	if err := f.wait(ctx, text); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.suggestions[text], f.errs[text]
}

func (f *fakeLookup) Lookup(ctx context.Context, city string) (*weather.Report, error) {
	if err := f.wait(ctx, city); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.errs[city]; err != nil {
		return nil, err
	}
	return f.reports[city], nil
}

func (f *fakeLookup) LookupAt(ctx context.Context, place weather.Suggestion) (*weather.Report, error) {
	return f.Lookup(ctx, place.Name)
}

func (f *fakeLookup) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type recordingObserver struct {
	mu      sync.Mutex
	lookups []string
	stale   []string
}

func (o *recordingObserver) Lookup(trigger, outcome string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.lookups = append(o.lookups, trigger+":"+outcome)
}

func (o *recordingObserver) Stale(trigger string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.stale = append(o.stale, trigger)
}

func report(name string, lat float64, tomorrowMax float64) *weather.Report {
	return &weather.Report{
		Location:   name,
		Coordinate: weather.Coordinate{Latitude: lat, Longitude: lat / 2},
		Current:    weather.CurrentWeather{Temperature: 10, WindSpeed: 5, WeatherCode: 3},
		Tomorrow:   weather.ForecastSummary{MinTemp: 1, MaxTemp: tomorrowMax, WeatherCode: 61},
	}
}

func TestSessionStartsIdle(t *testing.T) {
	s := NewSession("id", newFakeLookup(), nil)
	st := s.Snapshot()
	if st.Phase != PhaseIdle || st.Coordinate != nil || st.Current != nil || st.Error != "" {
		t.Fatalf("unexpected initial state: %+v", st)
	}
}

func TestSearchSuccess(t *testing.T) {
	f := newFakeLookup()
	f.reports["Paris"] = report("Paris, France", 48.85, 21)
	s := NewSession("id", f, nil)

	if err := s.Search(context.Background(), "Paris"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	st := s.Snapshot()
	if st.Phase != PhaseReady {
		t.Errorf("phase = %v, want ready", st.Phase)
	}
	if st.Query != "Paris" || st.Location != "Paris, France" {
		t.Errorf("unexpected query/location: %q %q", st.Query, st.Location)
	}
	if st.Coordinate == nil || st.Coordinate.Latitude != 48.85 {
		t.Errorf("coordinate not set: %+v", st.Coordinate)
	}
	if st.Tomorrow == nil || st.Tomorrow.MaxTemp != 21 {
		t.Errorf("tomorrow not set: %+v", st.Tomorrow)
	}
}

func TestSearchNotFoundKeepsWeather(t *testing.T) {
	f := newFakeLookup()
	f.reports["Rome"] = report("Rome, Italy", 41.9, 25)
	f.errs["Atlantis"] = weather.ErrNotFound
	obs := &recordingObserver{}
	s := NewSession("id", f, obs)

	if err := s.Search(context.Background(), "Rome"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	before := s.Snapshot()

	err := s.Search(context.Background(), "Atlantis")
	if !errors.Is(err, weather.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	after := s.Snapshot()
	if after.Phase != PhaseErrored {
		t.Errorf("phase = %v, want errored", after.Phase)
	}
	if after.Error != weather.Message(weather.ErrNotFound) {
		t.Errorf("error = %q", after.Error)
	}
	if *after.Coordinate != *before.Coordinate || *after.Current != *before.Current || *after.Tomorrow != *before.Tomorrow {
		t.Errorf("weather state changed on failure: before %+v after %+v", before, after)
	}
	if after.Location != before.Location {
		t.Errorf("location changed on failure: %q -> %q", before.Location, after.Location)
	}
	want := []string{"search:ok", "search:not_found"}
	if len(obs.lookups) != 2 || obs.lookups[0] != want[0] || obs.lookups[1] != want[1] {
		t.Errorf("observed %v, want %v", obs.lookups, want)
	}
}

func TestFirstLookupNotFoundLeavesNoCoordinate(t *testing.T) {
	f := newFakeLookup()
	f.errs["Nowhere"] = weather.ErrNotFound
	s := NewSession("id", f, nil)

	s.Search(context.Background(), "Nowhere")

	st := s.Snapshot()
	if st.Coordinate != nil || st.Current != nil || st.Tomorrow != nil {
		t.Fatalf("expected no weather state, got %+v", st)
	}
	if st.Error == "" {
		t.Fatal("expected an error message")
	}
}

func TestSuccessClearsError(t *testing.T) {
	f := newFakeLookup()
	f.errs["bad"] = &weather.APIError{Endpoint: "forecast", Status: 500}
	f.reports["Oslo"] = report("Oslo", 59.9, 8)
	s := NewSession("id", f, nil)

	s.Search(context.Background(), "bad")
	if s.Snapshot().Error == "" {
		t.Fatal("expected an error after failed search")
	}

	if err := s.Search(context.Background(), "Oslo"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st := s.Snapshot(); st.Error != "" || st.Phase != PhaseReady {
		t.Fatalf("error not cleared: %+v", st)
	}
}

func TestErrorReplacesPreviousError(t *testing.T) {
	f := newFakeLookup()
	f.errs["one"] = weather.ErrNotFound
	f.errs["two"] = &weather.APIError{Endpoint: "forecast", Status: 503}
	s := NewSession("id", f, nil)

	s.Search(context.Background(), "one")
	s.Search(context.Background(), "two")

	if got, want := s.Snapshot().Error, weather.Message(f.errs["two"]); got != want {
		t.Fatalf("error = %q, want %q", got, want)
	}
}

func TestInputShortClearsSuggestions(t *testing.T) {
	f := newFakeLookup()
	f.suggestions["Be"] = []weather.Suggestion{{Name: "Berlin"}, {Name: "Bern"}}
	s := NewSession("id", f, nil)

	if got, err := s.Input(context.Background(), "Be"); err != nil || len(got) != 2 {
		t.Fatalf("Input(Be) = %v, %v", got, err)
	}

	for _, text := range []string{"B", "", " B "} {
		got, err := s.Input(context.Background(), text)
		if err != nil || len(got) != 0 {
			t.Fatalf("Input(%q) = %v, %v; want empty", text, got, err)
		}
		if st := s.Snapshot(); len(st.Suggestions) != 0 || st.Query != text {
			t.Fatalf("state after Input(%q): %+v", text, st)
		}
	}
	if n := f.callCount(); n != 1 {
		t.Fatalf("expected 1 upstream call, got %d", n)
	}
}

func TestInputErrorKeepsErrorMessage(t *testing.T) {
	f := newFakeLookup()
	f.errs["Zz"] = &weather.NetworkError{Endpoint: "geocoding", Err: errors.New("refused")}
	s := NewSession("id", f, nil)

	if _, err := s.Input(context.Background(), "Zz"); err == nil {
		t.Fatal("expected autocomplete error")
	}
	if st := s.Snapshot(); st.Error != "" || st.Phase != PhaseIdle {
		t.Fatalf("autocomplete failure must not change lookup state: %+v", st)
	}
}

func TestSelectClearsSuggestionsAndSetsQuery(t *testing.T) {
	f := newFakeLookup()
	f.suggestions["Spr"] = []weather.Suggestion{{Name: "Springfield", Country: "United States"}, {Name: "Sprague"}}
	f.reports["Springfield"] = report("Springfield, United States", 39.8, 30)
	release := make(chan struct{})
	f.block["Springfield"] = release
	s := NewSession("id", f, nil)

	if _, err := s.Input(context.Background(), "Spr"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		done <- s.Select(context.Background(), weather.Suggestion{Name: "Springfield", Country: "United States"})
	}()

	// Before the fetch completes the list is gone and the query is the name.
	waitFor(t, func() bool { return s.Snapshot().Phase == PhaseResolving })
	st := s.Snapshot()
	if len(st.Suggestions) != 0 {
		t.Errorf("suggestions not cleared: %+v", st.Suggestions)
	}
	if st.Query != "Springfield" {
		t.Errorf("query = %q, want Springfield", st.Query)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st := s.Snapshot(); st.Phase != PhaseReady || st.Tomorrow.MaxTemp != 30 {
		t.Fatalf("unexpected final state: %+v", st)
	}
}

func TestStaleLookupDiscarded(t *testing.T) {
	f := newFakeLookup()
	f.reports["Old"] = report("Old", 1, 11)
	f.reports["New"] = report("New", 2, 22)
	release := make(chan struct{})
	f.block["Old"] = release
	obs := &recordingObserver{}
	s := NewSession("id", f, obs)

	oldDone := make(chan error, 1)
	go func() { oldDone <- s.Search(context.Background(), "Old") }()
	waitFor(t, func() bool { return f.callCount() == 1 })

	if err := s.Search(context.Background(), "New"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The older lookup finishes last and must not overwrite the newer result.
	close(release)
	if err := <-oldDone; !errors.Is(err, ErrStale) {
		t.Fatalf("expected ErrStale, got %v", err)
	}

	st := s.Snapshot()
	if st.Location != "New" || st.Tomorrow.MaxTemp != 22 {
		t.Fatalf("stale response overwrote state: %+v", st)
	}
	if len(obs.stale) != 1 || obs.stale[0] != TriggerSearch {
		t.Errorf("stale observations = %v", obs.stale)
	}
}

func TestNewKeystrokeCancelsPendingSuggest(t *testing.T) {
	f := newFakeLookup()
	f.block["Lo"] = make(chan struct{}) // never released
	f.suggestions["Lon"] = []weather.Suggestion{{Name: "London"}}
	s := NewSession("id", f, nil)

	oldDone := make(chan error, 1)
	go func() {
		_, err := s.Input(context.Background(), "Lo")
		oldDone <- err
	}()
	waitFor(t, func() bool { return f.callCount() == 1 })

	got, err := s.Input(context.Background(), "Lon")
	if err != nil || len(got) != 1 {
		t.Fatalf("Input(Lon) = %v, %v", got, err)
	}

	select {
	case err := <-oldDone:
		if !errors.Is(err, ErrStale) {
			t.Fatalf("expected ErrStale, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("pending autocomplete was not canceled")
	}

	if st := s.Snapshot(); len(st.Suggestions) != 1 || st.Suggestions[0].Name != "London" {
		t.Fatalf("unexpected suggestions: %+v", st.Suggestions)
	}
}

func TestSearchInvalidatesPendingSuggest(t *testing.T) {
	f := newFakeLookup()
	release := make(chan struct{})
	f.block["Ma"] = release
	f.suggestions["Ma"] = []weather.Suggestion{{Name: "Madrid"}, {Name: "Malmö"}}
	f.reports["Madrid"] = report("Madrid", 40.4, 33)
	s := NewSession("id", f, nil)

	pending := make(chan error, 1)
	go func() {
		_, err := s.Input(context.Background(), "Ma")
		pending <- err
	}()
	waitFor(t, func() bool { return f.callCount() == 1 })

	if err := s.Search(context.Background(), "Madrid"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	close(release)

	if err := <-pending; !errors.Is(err, ErrStale) {
		t.Fatalf("expected ErrStale, got %v", err)
	}
	if st := s.Snapshot(); len(st.Suggestions) != 0 {
		t.Fatalf("late autocomplete repopulated suggestions: %+v", st.Suggestions)
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	f := newFakeLookup()
	f.suggestions["Ni"] = []weather.Suggestion{{Name: "Nice"}}
	f.reports["Nice"] = report("Nice", 43.7, 19)
	s := NewSession("id", f, nil)
	s.Input(context.Background(), "Ni")
	s.Search(context.Background(), "Nice")

	st := s.Snapshot()
	st.Coordinate.Latitude = 0
	st.Current.Temperature = -100

	again := s.Snapshot()
	if again.Coordinate.Latitude != 43.7 || again.Current.Temperature != 10 {
		t.Fatalf("snapshot shares memory with session: %+v", again)
	}
}

func TestPhaseString(t *testing.T) {
	tests := map[Phase]string{
		PhaseIdle:      "idle",
		PhaseResolving: "resolving",
		PhaseReady:     "ready",
		PhaseErrored:   "errored",
		Phase(42):      "unknown",
	}
	for p, want := range tests {
		if got := p.String(); got != want {
			t.Errorf("Phase(%d).String() = %q, want %q", int(p), got, want)
		}
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition not met in time")
}
