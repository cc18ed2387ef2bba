package advisor

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/yanqian/wearcast/internal/domain/forecast"
	"github.com/yanqian/wearcast/internal/domain/intent"
	"github.com/yanqian/wearcast/internal/domain/place"
	"github.com/yanqian/wearcast/internal/domain/wardrobe"
	apperrors "github.com/yanqian/wearcast/pkg/errors"
)

const previewTimeout = 15 * time.Second

// Service runs the end-to-end extraction → resolution → weather →
// recommendation pipeline.
type Service interface {
	Advise(ctx context.Context, req Request) (Response, error)
}

type service struct {
	cfg       Config
	extractor intent.Extractor
	resolver  place.Resolver
	weather   forecast.Service
	generator wardrobe.Generator
	logger    *slog.Logger
	timezone  *time.Location
	now       func() time.Time
}

// NewService wires up the pipeline orchestrator.
func NewService(cfg Config, extractor intent.Extractor, resolver place.Resolver, weather forecast.Service, generator wardrobe.Generator, logger *slog.Logger) Service {
	return &service{
		cfg:       cfg,
		extractor: extractor,
		resolver:  resolver,
		weather:   weather,
		generator: generator,
		logger:    logger.With("component", "advisor.service"),
		timezone:  time.FixedZone("Asia/Tokyo", 9*60*60),
		now:       time.Now,
	}
}

func (s *service) Advise(ctx context.Context, req Request) (Response, error) {
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return Response{}, apperrors.Wrap("invalid_input", "Message is required", nil)
	}
	language := normalizeLanguage(req.Language)

	if s.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.RequestTimeout)
		defer cancel()
	}

	// "Now" is computed once so relative date/time phrases resolve
	// consistently for the whole request.
	now := s.now().In(s.timezone)
	nowDate := now.Format("2006-01-02")
	nowTime := now.Format("15:04")

	extracted, usage := s.extractor.Extract(ctx, message, language, nowDate, nowTime)
	if extracted.Location == "" {
		// The extractor guarantees a non-empty location; this guard is
		// defensive.
		return Response{}, apperrors.Wrap("extraction_failed", "Could not extract location", nil)
	}
	s.logger.Info("intent extracted", "location", extracted.Location, "date", extracted.Date, "time", extracted.Time)

	coords := s.resolver.Resolve(ctx, extracted.Location)
	s.logger.Info("location resolved", "name", coords.Name, "lat", coords.Lat, "lon", coords.Lon)

	useDate := extracted.Date
	if useDate == "" {
		useDate = nowDate
	}
	weather, err := s.weather.Lookup(ctx, coords.Lat, coords.Lon, forecast.Target{Date: useDate, Time: extracted.Time})
	if err != nil {
		return Response{}, err
	}

	recommendation, recUsage := s.generator.Generate(ctx, message, coords.Name, weather, language)
	usage.Add(recUsage)

	// Display-only map preview warmup, detached from the request: the main
	// response never waits on it.
	s.prefetchPreview(coords)

	var timeValue *string
	if extracted.Time != "" {
		t := extracted.Time
		timeValue = &t
	}

	return Response{
		Location:       coords.Name,
		Date:           useDate,
		Time:           timeValue,
		Weather:        weather,
		Recommendation: recommendation,
		Coordinates:    Point{Lat: coords.Lat, Lon: coords.Lon},
		TokenUsage:     usage,
	}, nil
}

func (s *service) prefetchPreview(coords place.Coordinates) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), previewTimeout)
		defer cancel()
		if _, err := s.weather.Upcoming(ctx, coords.Lat, coords.Lon); err != nil {
			s.logger.Debug("map preview warmup failed", "name", coords.Name, "error", err)
		}
	}()
}

func normalizeLanguage(language string) string {
	if strings.EqualFold(strings.TrimSpace(language), "en") {
		return "en"
	}
	return "jp"
}
