package advisor

import (
	"time"

	"github.com/yanqian/wearcast/internal/domain/forecast"
	"github.com/yanqian/wearcast/internal/domain/wardrobe"
	"github.com/yanqian/wearcast/pkg/metrics"
)

// Request is the conversational query boundary.
type Request struct {
	Message  string `json:"message"`
	Language string `json:"language"`
}

// Point carries just the coordinates needed by the map preview.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Response is serialized back to API consumers.
type Response struct {
	Location       string                  `json:"location"`
	Date           string                  `json:"date"`
	Time           *string                 `json:"time"`
	Weather        forecast.Weather        `json:"weather"`
	Recommendation wardrobe.Recommendation `json:"recommendation"`
	Coordinates    Point                   `json:"coordinates"`
	TokenUsage     metrics.TokenUsage      `json:"tokenUsage,omitzero"`
}

// Config wires runtime dependencies for the pipeline.
type Config struct {
	RequestTimeout time.Duration
}
