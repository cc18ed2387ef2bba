package place

import (
	"context"
	"log/slog"
	"strings"
)

// Resolver maps free text place descriptions to coordinates.
type Resolver interface {
	Resolve(ctx context.Context, location string) Coordinates
}

// GeoClient is the geocoding provider boundary.
type GeoClient interface {
	Geocode(ctx context.Context, query string) ([]Coordinates, error)
}

type resolver struct {
	client GeoClient
	logger *slog.Logger
}

// NewResolver wires up the location resolution stage.
func NewResolver(client GeoClient, logger *slog.Logger) Resolver {
	return &resolver{
		client: client,
		logger: logger.With("component", "place.resolver"),
	}
}

// Resolve returns the provider's best match, or the fixed fallback on any
// failure. It never returns an error: the pipeline trades correctness for
// availability here.
func (r *resolver) Resolve(ctx context.Context, location string) Coordinates {
	query := strings.TrimSpace(location)
	if query == "" {
		return Fallback()
	}

	matches, err := r.client.Geocode(ctx, query)
	if err != nil {
		r.logger.Warn("geocoding failed, substituting fallback location", "location", query, "error", err)
		return Fallback()
	}
	if len(matches) == 0 {
		r.logger.Warn("no geocoding match, substituting fallback location", "location", query)
		return Fallback()
	}
	return matches[0]
}
