package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/askretail/askretail-engine/pkg/config"
	"github.com/askretail/askretail-engine/pkg/dates"
	"github.com/askretail/askretail-engine/pkg/engine"
	"github.com/askretail/askretail-engine/pkg/handlers"
	"github.com/askretail/askretail-engine/pkg/intent"
	"github.com/askretail/askretail-engine/pkg/llm"
	"github.com/askretail/askretail-engine/pkg/middleware"
	"github.com/askretail/askretail-engine/pkg/quality"
	"github.com/askretail/askretail-engine/pkg/schema"
	"github.com/askretail/askretail-engine/pkg/services"
	"github.com/askretail/askretail-engine/pkg/sqlguard"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := newLogger(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("configuration loaded",
		zap.String("env", cfg.Env),
		zap.String("data_dir", cfg.Engine.DataDir),
		zap.String("version", cfg.Version))

	registry := schema.NewRegistry()

	eng, err := engine.Open(cfg.Engine, logger)
	if err != nil {
		logger.Fatal("failed to open engine", zap.Error(err))
	}
	defer func() { _ = eng.Close() }()

	// Best effort; a missing dataset leaves the views absent until
	// /datasource/refresh is called with the files in place.
	startCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if _, err := eng.EnsureViews(startCtx, registry); err != nil {
		logger.Warn("initial view bootstrap failed", zap.Error(err))
	}
	cancel()

	resolver := dates.NewResolver(eng, cfg.Engine.FallbackHorizonDate(), logger)
	classifier := intent.NewClassifier(resolver, eng, logger)
	gateway := sqlguard.NewGateway(registry)
	collector := quality.NewCollector(eng, registry, cfg.Engine.LookupTimeout(), logger)
	scorer := quality.NewScorer(cfg.Confidence)

	generator := buildGenerator(cfg, registry, logger)

	chatService := services.NewChatService(eng, classifier, gateway, generator, collector, scorer, cfg.Engine, logger)
	datasourceService := services.NewDatasourceService(eng, registry, logger)
	analyticsService := services.NewAnalyticsService(eng, registry, gateway, cfg.Engine, logger)
	reportService := services.NewReportService(eng, resolver, gateway, cfg.Engine, logger)

	mux := http.NewServeMux()
	handlers.NewHealthHandler(cfg, logger).RegisterRoutes(mux)
	handlers.NewChatHandler(chatService, logger).RegisterRoutes(mux)
	handlers.NewDatasourceHandler(datasourceService, logger).RegisterRoutes(mux)
	handlers.NewAnalyticsHandler(analyticsService, logger).RegisterRoutes(mux)
	handlers.NewReportHandler(reportService, logger).RegisterRoutes(mux)

	server := &http.Server{
		Addr:    cfg.BindAddr + ":" + cfg.Port,
		Handler: middleware.RequestLogger(logger)(mux),
	}

	go func() {
		logger.Info("starting askretail-engine",
			zap.String("addr", server.Addr),
			zap.String("version", cfg.Version))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", zap.Error(err))
	}
	logger.Info("server stopped")
}

// buildGenerator assembles the AI fallback chain from whatever providers
// are configured. Returns nil when no provider has credentials; AI mode
// then degrades to a structured refusal.
func buildGenerator(cfg *config.Config, registry *schema.Registry, logger *zap.Logger) llm.Generator {
	systemPrompt := llm.BuildSystemPrompt(registry.PromptContext(), cfg.Engine.AIMaxRows)

	var generators []llm.Generator
	if cfg.AI.APIKey != "" {
		for _, model := range []string{cfg.AI.Model, cfg.AI.FallbackModel} {
			if model == "" {
				continue
			}
			gen, err := llm.NewOpenAIGenerator(llm.OpenAIConfig{
				BaseURL:      cfg.AI.BaseURL,
				Model:        model,
				APIKey:       cfg.AI.APIKey,
				SystemPrompt: systemPrompt,
				MaxTokens:    cfg.AI.MaxTokens,
				Timeout:      cfg.AI.Timeout(),
			}, logger)
			if err != nil {
				logger.Warn("skipping AI provider", zap.String("model", model), zap.Error(err))
				continue
			}
			generators = append(generators, gen)
		}
	}
	if cfg.AI.AnthropicAPIKey != "" {
		gen, err := llm.NewAnthropicGenerator(cfg.AI.AnthropicAPIKey, cfg.AI.AnthropicModel, systemPrompt, cfg.AI.MaxTokens, cfg.AI.Timeout(), logger)
		if err != nil {
			logger.Warn("skipping Anthropic provider", zap.Error(err))
		} else {
			generators = append(generators, gen)
		}
	}
	if len(generators) == 0 {
		logger.Info("no AI providers configured, AI mode disabled")
		return nil
	}

	chain, err := llm.NewChain(logger, generators...)
	if err != nil {
		logger.Warn("failed to build AI chain", zap.Error(err))
		return nil
	}
	return chain
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "development" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
