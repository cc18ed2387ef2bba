package main

import (
	"github.com/yanqian/wearcast/internal/domain/advisor"
	"github.com/yanqian/wearcast/internal/domain/intent"
	"github.com/yanqian/wearcast/internal/domain/wardrobe"
	"github.com/yanqian/wearcast/internal/infra/config"
	"github.com/yanqian/wearcast/internal/infra/llm/groq"
	"github.com/yanqian/wearcast/internal/infra/weather/openweather"
)

func provideGroqClient(cfg *config.Config) (*groq.Client, error) {
	return groq.NewClient(cfg.LLM.APIKey, cfg.LLM.BaseURL, cfg.LLM.Timeout)
}

func provideOpenWeatherClient(cfg *config.Config) (*openweather.Client, error) {
	return openweather.NewClient(
		cfg.Weather.APIKey,
		cfg.Weather.BaseURL,
		cfg.Weather.GeoBaseURL,
		cfg.Weather.Units,
		cfg.Weather.Lang,
		cfg.Weather.Timeout,
	)
}

func provideIntentConfig(cfg *config.Config) intent.Config {
	return intent.Config{
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
	}
}

func provideWardrobeConfig(cfg *config.Config) wardrobe.Config {
	return wardrobe.Config{
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
	}
}

func provideAdvisorConfig(cfg *config.Config) advisor.Config {
	return advisor.Config{
		RequestTimeout: cfg.Advisor.RequestTimeout,
	}
}
