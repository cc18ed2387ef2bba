package intent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/yanqian/wearcast/internal/infra/llm/groq"
	"github.com/yanqian/wearcast/pkg/metrics"
)

// fallbackLocation is returned when every extraction attempt fails.
const fallbackLocation = "Tokyo, Japan"

const intentSchemaJSON = `{
	"type": "object",
	"required": ["location"],
	"properties": {
		"location": {"type": "string", "minLength": 1},
		"date": {"type": ["string", "null"], "pattern": "^\\d{4}-\\d{2}-\\d{2}$"},
		"time": {"type": ["string", "null"], "pattern": "^\\d{2}:\\d{2}$"}
	}
}`

var (
	dateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	timeRe = regexp.MustCompile(`^\d{2}:\d{2}$`)
)

// Extractor turns raw user text into a validated Intent. It is total: every
// failure mode degrades to a usable default and no error ever reaches the
// caller.
type Extractor interface {
	Extract(ctx context.Context, query, language, nowDate, nowTime string) (Intent, metrics.TokenUsage)
}

type ChatClient interface {
	CreateChatCompletion(ctx context.Context, req groq.ChatCompletionRequest) (groq.ChatCompletionResponse, error)
}

type service struct {
	cfg    Config
	client ChatClient
	schema *gojsonschema.Schema
	logger *slog.Logger
}

// NewExtractor wires up the extraction stage.
func NewExtractor(cfg Config, client ChatClient, logger *slog.Logger) (Extractor, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(intentSchemaJSON))
	if err != nil {
		return nil, fmt.Errorf("compile intent schema: %w", err)
	}
	return &service{
		cfg:    cfg,
		client: client,
		schema: schema,
		logger: logger.With("component", "intent.extractor"),
	}, nil
}

func (s *service) Extract(ctx context.Context, query, language, nowDate, nowTime string) (Intent, metrics.TokenUsage) {
	var usage metrics.TokenUsage

	extracted, ok := s.extractFull(ctx, query, language, nowDate, nowTime, &usage)
	if ok && extracted.Location != "" {
		return extracted, usage
	}

	// Narrower second attempt: location only. Independently parsed date and
	// time survive the merge.
	extracted.Location = s.extractLocationOnly(ctx, query, language, &usage)
	return extracted, usage
}

func (s *service) extractFull(ctx context.Context, query, language, nowDate, nowTime string, usage *metrics.TokenUsage) (Intent, bool) {
	resp, err := s.client.CreateChatCompletion(ctx, groq.ChatCompletionRequest{
		Model:          s.cfg.Model,
		Temperature:    s.cfg.Temperature,
		ResponseFormat: groq.JSONObject(),
		Messages: []groq.Message{
			{Role: "system", Content: fullSystemPrompt(language)},
			{Role: "user", Content: fullUserPrompt(language, query, nowDate, nowTime)},
		},
	})
	if err != nil {
		s.logger.Warn("intent extraction call failed", "error", err)
		return Intent{}, false
	}
	usage.Add(tokenUsage(resp.Usage))

	if len(resp.Choices) == 0 {
		s.logger.Warn("intent extraction returned no choices")
		return Intent{}, false
	}

	extracted, err := s.parsePayload(resp.Choices[0].Message.Content)
	if err != nil {
		s.logger.Warn("intent extraction payload malformed", "error", err)
		return Intent{}, false
	}
	return extracted, true
}

func (s *service) extractLocationOnly(ctx context.Context, query, language string, usage *metrics.TokenUsage) string {
	resp, err := s.client.CreateChatCompletion(ctx, groq.ChatCompletionRequest{
		Model:          s.cfg.Model,
		Temperature:    s.cfg.Temperature,
		ResponseFormat: groq.JSONObject(),
		Messages: []groq.Message{
			{Role: "system", Content: locationSystemPrompt(language)},
			{Role: "user", Content: locationUserPrompt(language, query)},
		},
	})
	if err != nil {
		s.logger.Warn("location-only extraction call failed", "error", err)
		return fallbackLocation
	}
	usage.Add(tokenUsage(resp.Usage))

	if len(resp.Choices) == 0 {
		return fallbackLocation
	}
	doc, err := extractJSONObject(resp.Choices[0].Message.Content)
	if err != nil {
		s.logger.Warn("location-only extraction payload malformed", "error", err)
		return fallbackLocation
	}
	var wire struct {
		Location string `json:"location"`
	}
	if err := json.Unmarshal(doc, &wire); err != nil {
		return fallbackLocation
	}
	if location := strings.TrimSpace(wire.Location); location != "" {
		return location
	}
	return fallbackLocation
}

// parsePayload validates the model output against the intent schema. A
// schema-valid document is decoded directly; anything looser is salvaged
// field by field, with non-conforming date/time values dropped rather than
// kept malformed.
func (s *service) parsePayload(raw string) (Intent, error) {
	doc, err := extractJSONObject(raw)
	if err != nil {
		return Intent{}, err
	}

	result, err := s.schema.Validate(gojsonschema.NewBytesLoader(doc))
	if err != nil {
		return Intent{}, fmt.Errorf("validate intent payload: %w", err)
	}

	var wire struct {
		Location string  `json:"location"`
		Date     *string `json:"date"`
		Time     *string `json:"time"`
	}
	if result.Valid() {
		if err := json.Unmarshal(doc, &wire); err != nil {
			return Intent{}, err
		}
	} else {
		var loose map[string]any
		if err := json.Unmarshal(doc, &loose); err != nil {
			return Intent{}, err
		}
		if v, ok := loose["location"].(string); ok {
			wire.Location = v
		}
		if v, ok := loose["date"].(string); ok {
			wire.Date = &v
		}
		if v, ok := loose["time"].(string); ok {
			wire.Time = &v
		}
	}

	extracted := Intent{Location: strings.TrimSpace(wire.Location)}
	if wire.Date != nil && dateRe.MatchString(*wire.Date) {
		extracted.Date = *wire.Date
	}
	if wire.Time != nil && timeRe.MatchString(*wire.Time) {
		extracted.Time = *wire.Time
	}
	return extracted, nil
}

// extractJSONObject applies the layered parse: strip code fences, accept the
// document as-is, then fall back to the substring between the outermost
// braces.
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

func tokenUsage(u groq.Usage) metrics.TokenUsage {
	return metrics.TokenUsage{
		PromptTokens:     u.PromptTokens,
		CompletionTokens: u.CompletionTokens,
		TotalTokens:      u.TotalTokens,
	}
}

func fullSystemPrompt(language string) string {
	if language == "jp" {
		return "天気の質問から『都市, 国名』『YYYY-MM-DD または null』『HH:mm または null』を抽出して返します。ランドマークは属する都市に解決してください。相対的な日付表現は現在日付を基準に解決します。JSONのみで回答。"
	}
	return "Extract 'City, Country', an optional YYYY-MM-DD date, and an optional HH:mm 24-hour time from a weather question. Resolve landmarks to their containing city. Resolve relative date and time-of-day expressions against the supplied current date and time. Respond with JSON only, no prose or code fences."
}

func fullUserPrompt(language, query, nowDate, nowTime string) string {
	if language == "jp" {
		return fmt.Sprintf("現在日付: %s\n現在時刻(24h): %s\nユーザーの質問: %q\nスキーマ: { \"location\": \"City, Country\", \"date\": \"YYYY-MM-DD|null\", \"time\": \"HH:mm|null\" }", nowDate, nowTime, query)
	}
	return fmt.Sprintf("Current date: %s\nCurrent time (24h): %s\nUser question: %q\nSchema: { \"location\": \"City, Country\", \"date\": \"YYYY-MM-DD|null\", \"time\": \"HH:mm|null\" }", nowDate, nowTime, query)
}

func locationSystemPrompt(language string) string {
	if language == "jp" {
		return "あなたは天気の質問から都市, 国名を厳密に一つ抽出します。ランドマークは属する都市に解決。形式は必ず City, Country。判断不能なら Tokyo, Japan。JSONのみで回答。"
	}
	return "Extract exactly one location in the form 'City, Country'. Resolve landmarks to their city. If undetermined, return 'Tokyo, Japan'. Respond with JSON only."
}

func locationUserPrompt(language, query string) string {
	if language == "jp" {
		return fmt.Sprintf("ユーザーの質問: %q\nスキーマ: { \"location\": \"City, Country\" }", query)
	}
	return fmt.Sprintf("User question: %q\nSchema: { \"location\": \"City, Country\" }", query)
}
