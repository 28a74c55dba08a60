package main

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"StockAssistant/internal/collector"
	"StockAssistant/internal/config"
	"StockAssistant/internal/logging"
	"StockAssistant/internal/pipeline"
	"StockAssistant/internal/recorder"
	"StockAssistant/internal/resolver"
)

// app holds the components shared by serve and ask.
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	pipeline *pipeline.Pipeline
	recorder recorder.Recorder
	closers  []func() error
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("close", zap.Error(err))
		}
	}
	_ = a.logger.Sync()
}

func loadConfig(serve bool) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if serve {
		err = cfg.ValidateServe()
	} else {
		err = cfg.Validate()
	}
	if err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

func buildApp(ctx context.Context, cfg *config.Config, withRecorder bool) (*app, error) {
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, logger: logger}

	completer, err := newCompleter(ctx, cfg)
	if err != nil {
		return nil, err
	}
	logger.Info("language model", zap.String("llm", completer.Name()))

	provider, err := a.newProvider(ctx)
	if err != nil {
		return nil, err
	}
	logger.Info("data source", zap.String("provider", provider.Name()))

	a.recorder = recorder.NewNoopRecorder()
	if withRecorder && cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath, logger)
		if err != nil {
			logger.Warn("init sqlite recorder failed, using noop", zap.Error(err))
		} else {
			a.recorder = sr
			a.closers = append(a.closers, sr.Close)
		}
	}

	a.pipeline = assemblePipeline(cfg, completer, provider, a.recorder, logger)
	return a, nil
}

// assemblePipeline connects the stages. Each stage constructor tags its own
// logger with a stage field.
func assemblePipeline(cfg *config.Config, completer resolver.Completer, provider collector.Provider,
	rec recorder.Recorder, logger *zap.Logger) *pipeline.Pipeline {
	return pipeline.New(
		resolver.New(completer, cfg.Resolver.Policy(), logger),
		collector.NewCollector(provider, cfg.Collector.Policy(), logger),
		logger.With(zap.String("stage", "pipeline")),
		pipeline.WithRecorder(rec),
	)
}

func newCompleter(ctx context.Context, cfg *config.Config) (resolver.Completer, error) {
	switch cfg.LLM.Backend {
	case config.LLMGemini:
		return resolver.NewGeminiCompleter(ctx, cfg.LLM.GeminiAPIKey, cfg.LLM.Model)
	default:
		return resolver.NewOpenAICompleter(cfg.LLM.OpenAIAPIKey, cfg.LLM.Model, cfg.LLM.BaseURL, nil), nil
	}
}

func (a *app) newProvider(ctx context.Context) (collector.Provider, error) {
	cfg := a.cfg
	var p collector.Provider
	switch cfg.Market.Provider {
	case config.MarketFinanceGo:
		p = collector.NewFinanceGoProvider()
	case config.MarketREST:
		p = collector.NewRESTProvider(cfg.Market.BaseURL, cfg.Market.APIKey, cfg.Proxy, cfg.Collector.Timeout)
	default:
		p = collector.NewYahooProvider(cfg.Proxy, cfg.Collector.Timeout)
	}

	if cfg.Redis.Addr == "" {
		return p, nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		a.logger.Warn("redis unavailable, caching disabled", zap.Error(err))
		_ = rdb.Close()
		return p, nil
	}
	a.closers = append(a.closers, rdb.Close)
	return collector.NewCachingProvider(rdb, cfg.Redis.TTL, p, ""), nil
}
