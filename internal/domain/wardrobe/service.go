package wardrobe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"

	"github.com/yanqian/wearcast/internal/domain/forecast"
	"github.com/yanqian/wearcast/internal/infra/llm/groq"
	"github.com/yanqian/wearcast/pkg/metrics"
)

const adviceSchemaJSON = `{
	"type": "object",
	"required": ["main", "accessories", "tips"],
	"properties": {
		"main": {"type": "string"},
		"accessories": {"type": "string"},
		"tips": {"type": "string"}
	}
}`

// Generator produces clothing advice from the query and canonical weather.
// It is total: unusable model output degrades to a plain apology, never an
// error.
type Generator interface {
	Generate(ctx context.Context, query, placeName string, weather forecast.Weather, language string) (Recommendation, metrics.TokenUsage)
}

type ChatClient interface {
	CreateChatCompletion(ctx context.Context, req groq.ChatCompletionRequest) (groq.ChatCompletionResponse, error)
}

type service struct {
	cfg      Config
	client   ChatClient
	schema   *gojsonschema.Schema
	logger   *slog.Logger
	timezone *time.Location
	now      func() time.Time
}

// NewGenerator wires up the recommendation stage.
func NewGenerator(cfg Config, client ChatClient, logger *slog.Logger) (Generator, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(adviceSchemaJSON))
	if err != nil {
		return nil, fmt.Errorf("compile advice schema: %w", err)
	}
	return &service{
		cfg:      cfg,
		client:   client,
		schema:   schema,
		logger:   logger.With("component", "wardrobe.generator"),
		timezone: time.FixedZone("Asia/Tokyo", 9*60*60),
		now:      time.Now,
	}, nil
}

func (s *service) Generate(ctx context.Context, query, placeName string, weather forecast.Weather, language string) (Recommendation, metrics.TokenUsage) {
	var usage metrics.TokenUsage

	season := seasonFor(int(s.now().In(s.timezone).Month()), language)
	resp, err := s.client.CreateChatCompletion(ctx, groq.ChatCompletionRequest{
		Model:          s.cfg.Model,
		Temperature:    s.cfg.Temperature,
		ResponseFormat: groq.JSONObject(),
		Messages: []groq.Message{
			{Role: "system", Content: systemPrompt(language)},
			{Role: "user", Content: userPrompt(language, query, placeName, season, weather)},
		},
	})
	if err != nil {
		s.logger.Warn("recommendation call failed", "error", err)
		return apology(language), usage
	}
	usage.Add(metrics.TokenUsage{
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
	})

	if len(resp.Choices) == 0 {
		s.logger.Warn("recommendation returned no choices")
		return apology(language), usage
	}

	rec, err := s.parsePayload(resp.Choices[0].Message.Content)
	if err != nil {
		s.logger.Warn("recommendation payload malformed", "error", err)
		return apology(language), usage
	}
	return rec, usage
}

// parsePayload validates the three-key shape. A schema-valid document is
// decoded directly; a loosely shaped object is salvaged per field, each
// missing or mistyped field becoming an empty string.
func (s *service) parsePayload(raw string) (Recommendation, error) {
	doc, err := extractJSONObject(raw)
	if err != nil {
		return Recommendation{}, err
	}

	result, err := s.schema.Validate(gojsonschema.NewBytesLoader(doc))
	if err != nil {
		return Recommendation{}, fmt.Errorf("validate advice payload: %w", err)
	}

	rec := Recommendation{Kind: KindStructured}
	if result.Valid() {
		var wire struct {
			Main        string `json:"main"`
			Accessories string `json:"accessories"`
			Tips        string `json:"tips"`
		}
		if err := json.Unmarshal(doc, &wire); err != nil {
			return Recommendation{}, err
		}
		rec.Main = wire.Main
		rec.Accessories = wire.Accessories
		rec.Tips = wire.Tips
		return rec, nil
	}

	var loose map[string]any
	if err := json.Unmarshal(doc, &loose); err != nil {
		return Recommendation{}, err
	}
	if v, ok := loose["main"].(string); ok {
		rec.Main = v
	}
	if v, ok := loose["accessories"].(string); ok {
		rec.Accessories = v
	}
	if v, ok := loose["tips"].(string); ok {
		rec.Tips = v
	}
	return rec, nil
}

func extractJSONObject(raw string) ([]byte, error) {
	sanitized := strings.TrimSpace(raw)
	sanitized = strings.TrimPrefix(sanitized, "```json")
	sanitized = strings.TrimSuffix(sanitized, "```")
	sanitized = strings.Trim(sanitized, "`")
	sanitized = strings.TrimSpace(strings.TrimPrefix(sanitized, "json"))

	if json.Valid([]byte(sanitized)) {
		return []byte(sanitized), nil
	}

	start := strings.Index(sanitized, "{")
	end := strings.LastIndex(sanitized, "}")
	if start >= 0 && end > start {
		candidate := sanitized[start : end+1]
		if json.Valid([]byte(candidate)) {
			return []byte(candidate), nil
		}
	}
	return nil, errors.New("no JSON object found in model output")
}

func apology(language string) Recommendation {
	text := "Sorry, I couldn't generate clothing advice at this time."
	if language == "jp" {
		text = "申し訳ございませんが、服装のアドバイスを生成できませんでした。"
	}
	return Recommendation{Kind: KindPlain, Text: text}
}

func seasonFor(month int, language string) string {
	var idx int
	switch {
	case month >= 3 && month <= 5:
		idx = 0
	case month >= 6 && month <= 8:
		idx = 1
	case month >= 9 && month <= 11:
		idx = 2
	default:
		idx = 3
	}
	if language == "jp" {
		return [...]string{"春", "夏", "秋", "冬"}[idx]
	}
	return [...]string{"Spring", "Summer", "Autumn", "Winter"}[idx]
}

func systemPrompt(language string) string {
	if language == "jp" {
		return "日本の気候と文化に適した服装アドバイスをJSONで返します。各フィールドは見出しや番号のない1〜3文のプレーンテキスト。JSONのみで回答。"
	}
	return "Return clothing advice as strict JSON. Each field is 1-3 sentences of plain text with no headings, numbering, or surrounding prose. Respond with JSON only, no code fences."
}

func userPrompt(language, query, placeName, season string, weather forecast.Weather) string {
	weatherLines := strings.Join([]string{
		fmt.Sprintf("Temperature: %d°C", weather.Temperature),
		fmt.Sprintf("Weather: %s", weather.Condition),
		fmt.Sprintf("Precipitation: %.0f %%", weather.Precipitation),
		fmt.Sprintf("Wind speed: %d m/s", weather.WindSpeed),
		fmt.Sprintf("Humidity: %d %%", weather.Humidity),
	}, "\n")

	if language == "jp" {
		return fmt.Sprintf("ユーザーの質問: %q\n場所: %s\n季節: %s\n天気データ:\n%s\nスキーマ: { \"main\": string, \"accessories\": string, \"tips\": string }", query, placeName, season, weatherLines)
	}
	return fmt.Sprintf("User question: %q\nLocation: %s\nSeason: %s\nWeather data:\n%s\nSchema: { \"main\": string, \"accessories\": string, \"tips\": string }", query, placeName, season, weatherLines)
}
