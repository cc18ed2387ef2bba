package forecast

import (
	"context"
	"log/slog"
	"math"
	"sync"
	"time"

	apperrors "github.com/yanqian/wearcast/pkg/errors"
)

// The provider's free forecast product covers 5 days of 3-hour buckets.
const maxForecastDays = 5

// upcomingBuckets is 24 hours of 3-hour entries.
const upcomingBuckets = 8

// Service selects and normalizes weather observations.
type Service interface {
	// Lookup returns the canonical weather for the requested moment,
	// choosing between current conditions and the closest forecast bucket.
	Lookup(ctx context.Context, lat, lon float64, target Target) (Weather, error)
	// Upcoming returns up to the next 24 hours of normalized buckets.
	Upcoming(ctx context.Context, lat, lon float64) ([]Weather, error)
	// CitiesOverview fetches current conditions for the fixed city list.
	CitiesOverview(ctx context.Context) ([]CitySummary, error)
	// Detailed combines current conditions and the upcoming buckets.
	Detailed(ctx context.Context, lat, lon float64, name, nameJa string) (Detailed, error)
}

// WeatherClient is the provider boundary.
type WeatherClient interface {
	Current(ctx context.Context, lat, lon float64) (Observation, error)
	Forecast(ctx context.Context, lat, lon float64) (Series, error)
}

type service struct {
	client   WeatherClient
	logger   *slog.Logger
	timezone *time.Location
	now      func() time.Time
	cities   []City
}

// NewService wires up the weather lookup stage.
func NewService(client WeatherClient, logger *slog.Logger) Service {
	return &service{
		client:   client,
		logger:   logger.With("component", "forecast.service"),
		timezone: time.FixedZone("Asia/Tokyo", 9*60*60),
		now:      time.Now,
		cities: []City{
			{Name: "Tokyo", NameJa: "東京", Lat: 35.6762, Lon: 139.6503},
			{Name: "Osaka", NameJa: "大阪", Lat: 34.6937, Lon: 135.5023},
			{Name: "Kyoto", NameJa: "京都", Lat: 35.0116, Lon: 135.7681},
			{Name: "Sapporo", NameJa: "札幌", Lat: 43.0642, Lon: 141.3469},
		},
	}
}

func (s *service) Lookup(ctx context.Context, lat, lon float64, target Target) (Weather, error) {
	if day, ok := s.forecastDay(target.Date); ok {
		return s.lookupForecast(ctx, lat, lon, day, target.Time)
	}

	obs, err := s.client.Current(ctx, lat, lon)
	if err != nil {
		return Weather{}, apperrors.Wrap("weather_error", "failed to fetch current conditions", err)
	}
	return fromObservation(obs), nil
}

// forecastDay reports whether the requested date selects the forecast path:
// strictly in the future and within the provider's horizon, compared at
// calendar-day granularity. Today, past dates, unparseable dates, and dates
// beyond the horizon all fall back to current conditions.
func (s *service) forecastDay(date string) (time.Time, bool) {
	if date == "" {
		return time.Time{}, false
	}
	requested, err := time.ParseInLocation("2006-01-02", date, s.timezone)
	if err != nil {
		return time.Time{}, false
	}
	now := s.now().In(s.timezone)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.timezone)
	diffDays := int(math.Round(requested.Sub(today).Hours() / 24))
	if diffDays > 0 && diffDays <= maxForecastDays {
		return requested, true
	}
	return time.Time{}, false
}

func (s *service) lookupForecast(ctx context.Context, lat, lon float64, day time.Time, hhmm string) (Weather, error) {
	series, err := s.client.Forecast(ctx, lat, lon)
	if err != nil {
		return Weather{}, apperrors.Wrap("weather_error", "failed to fetch forecast", err)
	}
	if len(series.Buckets) == 0 {
		return Weather{}, apperrors.Wrap("weather_error", "forecast series is empty", nil)
	}

	target := s.targetInstant(day, hhmm)
	best := series.Buckets[0]
	bestDelta := absDuration(best.At.Sub(target))
	for _, bucket := range series.Buckets[1:] {
		if delta := absDuration(bucket.At.Sub(target)); delta < bestDelta {
			best = bucket
			bestDelta = delta
		}
	}
	return fromBucket(best), nil
}

// targetInstant combines the requested day with the requested time of day,
// defaulting to local noon.
func (s *service) targetInstant(day time.Time, hhmm string) time.Time {
	hour, minute := 12, 0
	if parsed, err := time.Parse("15:04", hhmm); err == nil {
		hour, minute = parsed.Hour(), parsed.Minute()
	}
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, s.timezone)
}

func (s *service) Upcoming(ctx context.Context, lat, lon float64) ([]Weather, error) {
	series, err := s.client.Forecast(ctx, lat, lon)
	if err != nil {
		return nil, apperrors.Wrap("weather_error", "failed to fetch forecast", err)
	}
	buckets := series.Buckets
	if len(buckets) > upcomingBuckets {
		buckets = buckets[:upcomingBuckets]
	}
	out := make([]Weather, 0, len(buckets))
	for _, bucket := range buckets {
		out = append(out, fromBucket(bucket))
	}
	return out, nil
}

func (s *service) CitiesOverview(ctx context.Context) ([]CitySummary, error) {
	summaries := make([]*CitySummary, len(s.cities))

	var wg sync.WaitGroup
	for i, city := range s.cities {
		wg.Add(1)
		go func(i int, city City) {
			defer wg.Done()
			obs, err := s.client.Current(ctx, city.Lat, city.Lon)
			if err != nil {
				s.logger.Warn("city weather fetch failed", "city", city.Name, "error", err)
				return
			}
			weather := fromObservation(obs)
			summaries[i] = &CitySummary{
				Name:        city.Name,
				NameJa:      city.NameJa,
				Temperature: weather.Temperature,
				Condition:   weather.Condition,
				Description: weather.Description,
				Icon:        weather.Icon,
			}
		}(i, city)
	}
	wg.Wait()

	out := make([]CitySummary, 0, len(summaries))
	for _, summary := range summaries {
		if summary != nil {
			out = append(out, *summary)
		}
	}
	return out, nil
}

func (s *service) Detailed(ctx context.Context, lat, lon float64, name, nameJa string) (Detailed, error) {
	var (
		wg       sync.WaitGroup
		obs      Observation
		obsErr   error
		upcoming []Weather
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		obs, obsErr = s.client.Current(ctx, lat, lon)
	}()
	go func() {
		defer wg.Done()
		var err error
		if upcoming, err = s.Upcoming(ctx, lat, lon); err != nil {
			s.logger.Warn("upcoming forecast fetch failed", "error", err)
			upcoming = []Weather{}
		}
	}()
	wg.Wait()

	if obsErr != nil {
		return Detailed{}, apperrors.Wrap("weather_error", "failed to fetch current conditions", obsErr)
	}
	return Detailed{
		Name:     name,
		NameJa:   nameJa,
		Weather:  fromObservation(obs),
		Forecast: upcoming,
	}, nil
}

func fromObservation(obs Observation) Weather {
	return Weather{
		Temperature:   int(math.Round(obs.Temperature)),
		Condition:     obs.Condition,
		Description:   obs.Description,
		Icon:          obs.Icon,
		Humidity:      obs.Humidity,
		WindSpeed:     int(math.Round(obs.WindSpeed)),
		Precipitation: float64(obs.Clouds),
	}
}

func fromBucket(bucket Bucket) Weather {
	return Weather{
		Temperature:   int(math.Round(bucket.Temperature)),
		Condition:     bucket.Condition,
		Description:   bucket.Description,
		Icon:          bucket.Icon,
		Humidity:      bucket.Humidity,
		WindSpeed:     int(math.Round(bucket.WindSpeed)),
		Precipitation: bucket.POP * 100,
	}
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
