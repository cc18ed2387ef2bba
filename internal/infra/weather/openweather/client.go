package openweather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/yanqian/wearcast/internal/domain/forecast"
	"github.com/yanqian/wearcast/internal/domain/place"
)

const (
	defaultBaseURL    = "https://api.openweathermap.org/data/2.5"
	defaultGeoBaseURL = "https://api.openweathermap.org/geo/1.0"
)

// Client talks to the OpenWeatherMap weather and geocoding APIs.
type Client struct {
	apiKey     string
	baseURL    string
	geoBaseURL string
	units      string
	lang       string
	httpClient *http.Client
}

// NewClient builds an API client. The key is required: without it every call
// would fail and the pipeline surfaces that as a weather failure anyway, so
// fail fast at wiring time.
func NewClient(apiKey, baseURL, geoBaseURL, units, lang string, timeout time.Duration) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("openweather api key cannot be empty")
	}
	if strings.TrimSpace(baseURL) == "" {
		baseURL = defaultBaseURL
	}
	if strings.TrimSpace(geoBaseURL) == "" {
		geoBaseURL = defaultGeoBaseURL
	}
	if strings.TrimSpace(units) == "" {
		units = "metric"
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		geoBaseURL: strings.TrimRight(geoBaseURL, "/"),
		units:      units,
		lang:       lang,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// Geocode returns the provider's matches for a free text place name, best
// match first. An empty slice means the place is unknown.
func (c *Client) Geocode(ctx context.Context, query string) ([]place.Coordinates, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("limit", "1")
	params.Set("appid", c.apiKey)
	endpoint := fmt.Sprintf("%s/direct?%s", c.geoBaseURL, params.Encode())

	body, err := c.get(ctx, endpoint, "geocoding")
	if err != nil {
		return nil, err
	}

	var raw []geocodeEntry
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decode geocoding response: %w", err)
	}

	matches := make([]place.Coordinates, 0, len(raw))
	for _, entry := range raw {
		matches = append(matches, place.Coordinates{
			Lat:     entry.Lat,
			Lon:     entry.Lon,
			Name:    entry.Name,
			Country: entry.Country,
		})
	}
	return matches, nil
}

// Current fetches instantaneous conditions for the coordinates.
func (c *Client) Current(ctx context.Context, lat, lon float64) (forecast.Observation, error) {
	endpoint := fmt.Sprintf("%s/weather?%s", c.baseURL, c.coordParams(lat, lon).Encode())

	body, err := c.get(ctx, endpoint, "current weather")
	if err != nil {
		return forecast.Observation{}, err
	}

	var raw currentResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return forecast.Observation{}, fmt.Errorf("decode current weather response: %w", err)
	}
	if len(raw.Weather) == 0 {
		return forecast.Observation{}, errors.New("current weather response has no conditions")
	}

	return forecast.Observation{
		Temperature: raw.Main.Temp,
		Condition:   raw.Weather[0].Main,
		Description: raw.Weather[0].Description,
		Icon:        raw.Weather[0].Icon,
		Humidity:    raw.Main.Humidity,
		WindSpeed:   raw.Wind.Speed,
		Clouds:      raw.Clouds.All,
	}, nil
}

// Forecast fetches the chronologically ordered 5-day/3-hour series.
func (c *Client) Forecast(ctx context.Context, lat, lon float64) (forecast.Series, error) {
	endpoint := fmt.Sprintf("%s/forecast?%s", c.baseURL, c.coordParams(lat, lon).Encode())

	body, err := c.get(ctx, endpoint, "forecast")
	if err != nil {
		return forecast.Series{}, err
	}

	var raw forecastResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return forecast.Series{}, fmt.Errorf("decode forecast response: %w", err)
	}

	buckets := make([]forecast.Bucket, 0, len(raw.List))
	for _, item := range raw.List {
		if len(item.Weather) == 0 {
			continue
		}
		buckets = append(buckets, forecast.Bucket{
			At:          time.Unix(item.Dt, 0),
			Temperature: item.Main.Temp,
			Condition:   item.Weather[0].Main,
			Description: item.Weather[0].Description,
			Icon:        item.Weather[0].Icon,
			Humidity:    item.Main.Humidity,
			WindSpeed:   item.Wind.Speed,
			POP:         item.Pop,
		})
	}
	return forecast.Series{Buckets: buckets}, nil
}

func (c *Client) coordParams(lat, lon float64) url.Values {
	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	params.Set("appid", c.apiKey)
	params.Set("units", c.units)
	if c.lang != "" {
		params.Set("lang", c.lang)
	}
	return params
}

func (c *Client) get(ctx context.Context, endpoint, label string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", label, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s request failed: %w", label, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, fmt.Errorf("%s request error: status=%d body=%s", label, resp.StatusCode, string(payload))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", label, err)
	}
	return body, nil
}

type geocodeEntry struct {
	Name    string  `json:"name"`
	Country string  `json:"country"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

type weatherEntry struct {
	Main        string `json:"main"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

type currentResponse struct {
	Main struct {
		Temp     float64 `json:"temp"`
		Humidity int     `json:"humidity"`
	} `json:"main"`
	Weather []weatherEntry `json:"weather"`
	Wind    struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
	Clouds struct {
		All int `json:"all"`
	} `json:"clouds"`
}

type forecastResponse struct {
	List []struct {
		Dt   int64 `json:"dt"`
		Main struct {
			Temp     float64 `json:"temp"`
			Humidity int     `json:"humidity"`
		} `json:"main"`
		Weather []weatherEntry `json:"weather"`
		Wind    struct {
			Speed float64 `json:"speed"`
		} `json:"wind"`
		Pop float64 `json:"pop"`
	} `json:"list"`
}
