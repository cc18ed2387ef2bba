package advisor

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/wearcast/internal/domain/forecast"
	"github.com/yanqian/wearcast/internal/domain/intent"
	"github.com/yanqian/wearcast/internal/domain/place"
	"github.com/yanqian/wearcast/internal/domain/wardrobe"
	apperrors "github.com/yanqian/wearcast/pkg/errors"
	"github.com/yanqian/wearcast/pkg/metrics"
)

func TestAdviseFullPipeline(t *testing.T) {
	extractorStub := &stubExtractor{
		result: intent.Intent{Location: "Paris, France", Date: "2024-06-02", Time: "19:00"},
		usage:  metrics.TokenUsage{PromptTokens: 100, CompletionTokens: 20, TotalTokens: 120},
	}
	resolverStub := &stubResolver{coords: place.Coordinates{Lat: 48.8566, Lon: 2.3522, Name: "Paris", Country: "FR"}}
	weatherStub := &stubForecast{
		weather:  forecast.Weather{Temperature: 18, Condition: "Rain", Description: "light rain", Icon: "10d", Humidity: 80, WindSpeed: 6, Precipitation: 70},
		upcoming: make(chan struct{}, 1),
	}
	generatorStub := &stubGenerator{
		rec:   wardrobe.Recommendation{Kind: wardrobe.KindStructured, Main: "Waterproof jacket", Accessories: "Umbrella", Tips: "Waterproof shoes"},
		usage: metrics.TokenUsage{PromptTokens: 200, CompletionTokens: 50, TotalTokens: 250},
	}
	svc := newTestService(extractorStub, resolverStub, weatherStub, generatorStub)

	resp, err := svc.Advise(context.Background(), Request{Message: "What should I wear in Paris tomorrow evening?", Language: "en"})
	require.NoError(t, err)
	require.Equal(t, "Paris", resp.Location)
	require.Equal(t, "2024-06-02", resp.Date)
	require.NotNil(t, resp.Time)
	require.Equal(t, "19:00", *resp.Time)
	require.Equal(t, 18, resp.Weather.Temperature)
	require.Equal(t, "Waterproof jacket", resp.Recommendation.Main)
	require.Equal(t, Point{Lat: 48.8566, Lon: 2.3522}, resp.Coordinates)
	require.Equal(t, 370, resp.TokenUsage.TotalTokens)
	require.Equal(t, 300, resp.TokenUsage.PromptTokens)

	require.Equal(t, "en", extractorStub.lastLanguage)
	require.Equal(t, "2024-06-01", extractorStub.lastNowDate)
	require.Equal(t, "15:04", extractorStub.lastNowTime)
	require.Equal(t, "Paris, France", resolverStub.lastLocation)
	require.Equal(t, forecast.Target{Date: "2024-06-02", Time: "19:00"}, weatherStub.lastTarget)
	require.Equal(t, "Paris", generatorStub.lastPlace)

	select {
	case <-weatherStub.upcoming:
	case <-time.After(time.Second):
		t.Fatal("expected map preview warmup to fire")
	}
}

func TestAdviseEmptyMessage(t *testing.T) {
	svc := newTestService(&stubExtractor{}, &stubResolver{}, &stubForecast{}, &stubGenerator{})

	_, err := svc.Advise(context.Background(), Request{Message: "   "})
	require.Error(t, err)
	require.True(t, apperrors.IsCode(err, "invalid_input"))
	require.Equal(t, "Message is required", apperrors.Message(err))
}

func TestAdviseExtractionReturnedNoLocation(t *testing.T) {
	svc := newTestService(&stubExtractor{result: intent.Intent{}}, &stubResolver{}, &stubForecast{}, &stubGenerator{})

	_, err := svc.Advise(context.Background(), Request{Message: "hello"})
	require.Error(t, err)
	require.True(t, apperrors.IsCode(err, "extraction_failed"))
}

func TestAdviseWeatherFailurePropagates(t *testing.T) {
	weatherStub := &stubForecast{lookupErr: apperrors.Wrap("weather_error", "Weather service unavailable", nil)}
	svc := newTestService(
		&stubExtractor{result: intent.Intent{Location: "Tokyo, Japan"}},
		&stubResolver{coords: place.Fallback()},
		weatherStub,
		&stubGenerator{},
	)

	_, err := svc.Advise(context.Background(), Request{Message: "weather?"})
	require.Error(t, err)
	require.True(t, apperrors.IsCode(err, "weather_error"))
}

func TestAdviseDateDefaultsToToday(t *testing.T) {
	weatherStub := &stubForecast{upcoming: make(chan struct{}, 1)}
	svc := newTestService(
		&stubExtractor{result: intent.Intent{Location: "Tokyo, Japan"}},
		&stubResolver{coords: place.Fallback()},
		weatherStub,
		&stubGenerator{rec: wardrobe.Recommendation{Kind: wardrobe.KindStructured}},
	)

	resp, err := svc.Advise(context.Background(), Request{Message: "今日の服装は？"})
	require.NoError(t, err)
	require.Equal(t, "2024-06-01", resp.Date)
	require.Nil(t, resp.Time)
	require.Equal(t, forecast.Target{Date: "2024-06-01"}, weatherStub.lastTarget)
}

func TestAdviseLanguageDefaultsToJapanese(t *testing.T) {
	extractorStub := &stubExtractor{result: intent.Intent{Location: "Tokyo, Japan"}}
	svc := newTestService(extractorStub, &stubResolver{coords: place.Fallback()}, &stubForecast{upcoming: make(chan struct{}, 1)}, &stubGenerator{})

	_, err := svc.Advise(context.Background(), Request{Message: "こんにちは", Language: "fr"})
	require.NoError(t, err)
	require.Equal(t, "jp", extractorStub.lastLanguage)
}

func newTestService(extractor intent.Extractor, resolver place.Resolver, weather forecast.Service, generator wardrobe.Generator) *service {
	tz := time.FixedZone("Asia/Tokyo", 9*60*60)
	return &service{
		cfg:       Config{RequestTimeout: 5 * time.Second},
		extractor: extractor,
		resolver:  resolver,
		weather:   weather,
		generator: generator,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		timezone:  tz,
		now: func() time.Time {
			return time.Date(2024, 6, 1, 15, 4, 0, 0, tz)
		},
	}
}

type stubExtractor struct {
	result       intent.Intent
	usage        metrics.TokenUsage
	lastLanguage string
	lastNowDate  string
	lastNowTime  string
}

func (s *stubExtractor) Extract(ctx context.Context, query, language, nowDate, nowTime string) (intent.Intent, metrics.TokenUsage) {
	s.lastLanguage = language
	s.lastNowDate = nowDate
	s.lastNowTime = nowTime
	return s.result, s.usage
}

type stubResolver struct {
	coords       place.Coordinates
	lastLocation string
}

func (s *stubResolver) Resolve(ctx context.Context, location string) place.Coordinates {
	s.lastLocation = location
	return s.coords
}

type stubForecast struct {
	weather    forecast.Weather
	lookupErr  error
	lastTarget forecast.Target
	upcoming   chan struct{}
}

func (s *stubForecast) Lookup(ctx context.Context, lat, lon float64, target forecast.Target) (forecast.Weather, error) {
	s.lastTarget = target
	if s.lookupErr != nil {
		return forecast.Weather{}, s.lookupErr
	}
	return s.weather, nil
}

func (s *stubForecast) Upcoming(ctx context.Context, lat, lon float64) ([]forecast.Weather, error) {
	if s.upcoming != nil {
		s.upcoming <- struct{}{}
	}
	return nil, nil
}

func (s *stubForecast) CitiesOverview(ctx context.Context) ([]forecast.CitySummary, error) {
	return nil, nil
}

func (s *stubForecast) Detailed(ctx context.Context, lat, lon float64, name, nameJa string) (forecast.Detailed, error) {
	return forecast.Detailed{}, nil
}

type stubGenerator struct {
	rec       wardrobe.Recommendation
	usage     metrics.TokenUsage
	lastPlace string
}

func (s *stubGenerator) Generate(ctx context.Context, query, placeName string, weather forecast.Weather, language string) (wardrobe.Recommendation, metrics.TokenUsage) {
	s.lastPlace = placeName
	return s.rec, s.usage
}
