//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/yanqian/wearcast/internal/bootstrap"
	"github.com/yanqian/wearcast/internal/domain/advisor"
	"github.com/yanqian/wearcast/internal/domain/forecast"
	"github.com/yanqian/wearcast/internal/domain/intent"
	"github.com/yanqian/wearcast/internal/domain/place"
	"github.com/yanqian/wearcast/internal/domain/wardrobe"
	"github.com/yanqian/wearcast/internal/infra/config"
	"github.com/yanqian/wearcast/internal/infra/llm/groq"
	"github.com/yanqian/wearcast/internal/infra/weather/openweather"
	httpiface "github.com/yanqian/wearcast/internal/interface/http"
	"github.com/yanqian/wearcast/pkg/logger"
)

func initializeApp() (*bootstrap.App, error) {
	wire.Build(
		config.Load,
		logger.New,
		provideGroqClient,
		provideOpenWeatherClient,
		provideIntentConfig,
		provideWardrobeConfig,
		provideAdvisorConfig,
		intent.NewExtractor,
		place.NewResolver,
		forecast.NewService,
		wardrobe.NewGenerator,
		advisor.NewService,
		wire.Bind(new(intent.ChatClient), new(*groq.Client)),
		wire.Bind(new(wardrobe.ChatClient), new(*groq.Client)),
		wire.Bind(new(place.GeoClient), new(*openweather.Client)),
		wire.Bind(new(forecast.WeatherClient), new(*openweather.Client)),
		httpiface.NewHandler,
		httpiface.NewRouter,
		bootstrap.NewApp,
	)
	return nil, nil
}
