package intent

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/wearcast/internal/infra/llm/groq"
)

func TestExtractFullSuccess(t *testing.T) {
	chatStub := &stubChatClient{
		responses: []groq.ChatCompletionResponse{
			completion(`{"location":"Paris, France","date":"2024-06-02","time":"19:00"}`, 100, 20),
		},
	}
	svc := newTestExtractor(t, chatStub)

	extracted, usage := svc.Extract(context.Background(), "What should I wear in Paris tomorrow evening?", "en", "2024-06-01", "15:04")
	require.Equal(t, "Paris, France", extracted.Location)
	require.Equal(t, "2024-06-02", extracted.Date)
	require.Equal(t, "19:00", extracted.Time)
	require.Equal(t, 1, chatStub.calls)
	require.Equal(t, 120, usage.TotalTokens)

	require.Len(t, chatStub.lastRequest.Messages, 2)
	require.Contains(t, chatStub.lastRequest.Messages[1].Content, "Current date: 2024-06-01")
	require.Contains(t, chatStub.lastRequest.Messages[1].Content, "Current time (24h): 15:04")
	require.NotNil(t, chatStub.lastRequest.ResponseFormat)
	require.Equal(t, "json_object", chatStub.lastRequest.ResponseFormat.Type)
}

func TestExtractStripsCodeFences(t *testing.T) {
	chatStub := &stubChatClient{
		responses: []groq.ChatCompletionResponse{
			completion("```json\n{\"location\":\"Osaka, Japan\",\"date\":null,\"time\":null}\n```", 0, 0),
		},
	}
	svc := newTestExtractor(t, chatStub)

	extracted, _ := svc.Extract(context.Background(), "大阪の天気は？", "jp", "2024-06-01", "09:00")
	require.Equal(t, "Osaka, Japan", extracted.Location)
	require.Empty(t, extracted.Date)
	require.Empty(t, extracted.Time)
}

func TestExtractBraceSubstringFallback(t *testing.T) {
	chatStub := &stubChatClient{
		responses: []groq.ChatCompletionResponse{
			completion(`Sure! Here is the answer: {"location":"London, United Kingdom","date":"2024-06-03","time":null} hope that helps`, 0, 0),
		},
	}
	svc := newTestExtractor(t, chatStub)

	extracted, _ := svc.Extract(context.Background(), "London on Monday", "en", "2024-06-01", "09:00")
	require.Equal(t, "London, United Kingdom", extracted.Location)
	require.Equal(t, "2024-06-03", extracted.Date)
}

func TestExtractDropsMalformedDateAndTime(t *testing.T) {
	chatStub := &stubChatClient{
		responses: []groq.ChatCompletionResponse{
			completion(`{"location":"Kyoto, Japan","date":"2024/06/02","time":"7pm"}`, 0, 0),
		},
	}
	svc := newTestExtractor(t, chatStub)

	extracted, _ := svc.Extract(context.Background(), "Kyoto tomorrow", "en", "2024-06-01", "09:00")
	require.Equal(t, "Kyoto, Japan", extracted.Location)
	require.Empty(t, extracted.Date)
	require.Empty(t, extracted.Time)
}

func TestExtractEmptyLocationTriggersLocationOnlyFallback(t *testing.T) {
	chatStub := &stubChatClient{
		responses: []groq.ChatCompletionResponse{
			completion(`{"location":"","date":"2024-06-02","time":"08:00"}`, 0, 0),
			completion(`{"location":"Sapporo, Japan"}`, 0, 0),
		},
	}
	svc := newTestExtractor(t, chatStub)

	extracted, _ := svc.Extract(context.Background(), "will it snow tomorrow morning", "en", "2024-06-01", "09:00")
	require.Equal(t, "Sapporo, Japan", extracted.Location)
	require.Equal(t, "2024-06-02", extracted.Date)
	require.Equal(t, "08:00", extracted.Time)
	require.Equal(t, 2, chatStub.calls)
}

func TestExtractUnreachableServiceReturnsFixedDefault(t *testing.T) {
	chatStub := &stubChatClient{err: errors.New("connection refused")}
	svc := newTestExtractor(t, chatStub)

	extracted, usage := svc.Extract(context.Background(), "weather in Berlin", "en", "2024-06-01", "09:00")
	require.Equal(t, Intent{Location: "Tokyo, Japan"}, extracted)
	require.True(t, usage.IsZero())
}

func TestExtractGarbageFallsBackToLocationOnly(t *testing.T) {
	chatStub := &stubChatClient{
		responses: []groq.ChatCompletionResponse{
			completion("not json at all", 0, 0),
			completion(`{"location":"Nagoya, Japan"}`, 0, 0),
		},
	}
	svc := newTestExtractor(t, chatStub)

	extracted, _ := svc.Extract(context.Background(), "名古屋は？", "jp", "2024-06-01", "09:00")
	require.Equal(t, "Nagoya, Japan", extracted.Location)
	require.Empty(t, extracted.Date)
	require.Empty(t, extracted.Time)
}

func TestExtractLocationOnlyBlankAnswerReturnsDefault(t *testing.T) {
	chatStub := &stubChatClient{
		responses: []groq.ChatCompletionResponse{
			completion(`{"location":""}`, 0, 0),
			completion(`{"location":"   "}`, 0, 0),
		},
	}
	svc := newTestExtractor(t, chatStub)

	extracted, _ := svc.Extract(context.Background(), "what should I wear", "en", "2024-06-01", "09:00")
	require.Equal(t, "Tokyo, Japan", extracted.Location)
}

func TestExtractJapanesePrompts(t *testing.T) {
	chatStub := &stubChatClient{
		responses: []groq.ChatCompletionResponse{
			completion(`{"location":"Tokyo, Japan","date":null,"time":null}`, 0, 0),
		},
	}
	svc := newTestExtractor(t, chatStub)

	_, _ = svc.Extract(context.Background(), "今日の東京の天気は？", "jp", "2024-06-01", "09:00")
	require.Contains(t, chatStub.lastRequest.Messages[0].Content, "JSONのみで回答")
	require.Contains(t, chatStub.lastRequest.Messages[1].Content, "現在日付: 2024-06-01")
}

func newTestExtractor(t *testing.T, client ChatClient) Extractor {
	t.Helper()
	svc, err := NewExtractor(Config{Model: "llama-test", Temperature: 0.1}, client, newTestLogger())
	require.NoError(t, err)
	return svc
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func completion(content string, promptTokens, completionTokens int) groq.ChatCompletionResponse {
	resp := groq.ChatCompletionResponse{
		Usage: groq.Usage{
			PromptTokens:     promptTokens,
			CompletionTokens: completionTokens,
			TotalTokens:      promptTokens + completionTokens,
		},
	}
	resp.Choices = []struct {
		Message groq.Message `json:"message"`
	}{
		{Message: groq.Message{Role: "assistant", Content: content}},
	}
	return resp
}

type stubChatClient struct {
	responses   []groq.ChatCompletionResponse
	err         error
	calls       int
	lastRequest groq.ChatCompletionRequest
}

func (s *stubChatClient) CreateChatCompletion(ctx context.Context, req groq.ChatCompletionRequest) (groq.ChatCompletionResponse, error) {
	s.lastRequest = req
	if s.err != nil {
		return groq.ChatCompletionResponse{}, s.err
	}
	if s.calls >= len(s.responses) {
		return groq.ChatCompletionResponse{}, nil
	}
	resp := s.responses[s.calls]
	s.calls++
	return resp, nil
}
