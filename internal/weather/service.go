package weather

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"
)

// MinQueryLength is the shortest trimmed input that triggers autocomplete.
const MinQueryLength = 2

// IsSearchable reports whether text is long enough to autocomplete.
func IsSearchable(text string) bool {
	return utf8.RuneCountInString(strings.TrimSpace(text)) >= MinQueryLength
}

// Service runs the geocode → forecast pipeline on top of a Client.
type Service struct {
	client       *Client
	suggestLimit int
}

// NewService creates a weather service. suggestLimit caps autocomplete
// results.
func NewService(client *Client, suggestLimit int) *Service {
	if suggestLimit <= 0 {
		suggestLimit = 5
	}
	return &Service{
		client:       client,
		suggestLimit: suggestLimit,
	}
}

// Suggest returns autocomplete candidates for text. Input shorter than
// MinQueryLength returns no suggestions and issues no request.
func (s *Service) Suggest(ctx context.Context, text string) ([]Suggestion, error) {
	if !IsSearchable(text) {
		return nil, nil
	}
	return s.client.Search(ctx, text, s.suggestLimit)
}

// Lookup resolves city and fetches its weather.
func (s *Service) Lookup(ctx context.Context, city string) (*Report, error) {
	place, err := s.client.Resolve(ctx, city)
	if err != nil {
		return nil, err
	}
	return s.LookupAt(ctx, place)
}

// LookupAt fetches weather for an already resolved place.
func (s *Service) LookupAt(ctx context.Context, place Suggestion) (*Report, error) {
	report, err := s.client.Forecast(ctx, place.Coordinate)
	if err != nil {
		return nil, fmt.Errorf("forecast for %s: %w", place.Label(), err)
	}
	report.Location = place.Label()
	return report, nil
}
