package place

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolveReturnsBestMatch(t *testing.T) {
	paris := Coordinates{Lat: 48.8566, Lon: 2.3522, Name: "Paris", Country: "FR"}
	geoStub := &stubGeoClient{matches: []Coordinates{paris}}
	resolver := NewResolver(geoStub, newTestLogger())

	coords := resolver.Resolve(context.Background(), "Paris, France")
	require.Equal(t, paris, coords)
	require.Equal(t, "Paris, France", geoStub.lastQuery)
}

func TestResolveNoMatchSubstitutesFallback(t *testing.T) {
	geoStub := &stubGeoClient{matches: []Coordinates{}}
	resolver := NewResolver(geoStub, newTestLogger())

	coords := resolver.Resolve(context.Background(), "Nonexistent Place, Nowhere")
	require.Equal(t, Coordinates{Lat: 35.6762, Lon: 139.6503, Name: "Tokyo", Country: "JP"}, coords)
}

func TestResolveProviderErrorSubstitutesFallback(t *testing.T) {
	geoStub := &stubGeoClient{err: errors.New("503 service unavailable")}
	resolver := NewResolver(geoStub, newTestLogger())

	coords := resolver.Resolve(context.Background(), "Paris, France")
	require.Equal(t, Fallback(), coords)
}

func TestResolveBlankInputSubstitutesFallback(t *testing.T) {
	geoStub := &stubGeoClient{}
	resolver := NewResolver(geoStub, newTestLogger())

	coords := resolver.Resolve(context.Background(), "   ")
	require.Equal(t, Fallback(), coords)
	require.Empty(t, geoStub.lastQuery)
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stubGeoClient struct {
	matches   []Coordinates
	err       error
	lastQuery string
}

func (s *stubGeoClient) Geocode(ctx context.Context, query string) ([]Coordinates, error) {
	s.lastQuery = query
	if s.err != nil {
		return nil, s.err
	}
	return s.matches, nil
}
