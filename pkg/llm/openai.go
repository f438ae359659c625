package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// OpenAIGenerator talks to any OpenAI-compatible chat completion endpoint,
// including OpenRouter.
type OpenAIGenerator struct {
	client       *openai.Client
	model        string
	systemPrompt string
	maxTokens    int
	logger       *zap.Logger
}

// OpenAIConfig holds the endpoint settings for one generator instance.
type OpenAIConfig struct {
	BaseURL      string
	Model        string
	APIKey       string
	SystemPrompt string
	MaxTokens    int
	Timeout      time.Duration
}

// NewOpenAIGenerator creates a generator bound to one model.
func NewOpenAIGenerator(cfg OpenAIConfig, logger *zap.Logger) (*OpenAIGenerator, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("model is required")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	clientConfig.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	if cfg.Timeout > 0 {
		clientConfig.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &OpenAIGenerator{
		client:       openai.NewClientWithConfig(clientConfig),
		model:        cfg.Model,
		systemPrompt: cfg.SystemPrompt,
		maxTokens:    cfg.MaxTokens,
		logger:       logger.Named("llm"),
	}, nil
}

// Model returns the configured model name.
func (g *OpenAIGenerator) Model() string {
	return g.model
}

// Generate requests a structured SQL generation for the question.
func (g *OpenAIGenerator) Generate(ctx context.Context, req Request) (*Generation, error) {
	start := time.Now()

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: g.systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: BuildUserPrompt(req)},
		},
		Temperature: 0,
		MaxTokens:   g.maxTokens,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		g.logger.Warn("generation request failed",
			zap.String("model", g.model),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return nil, classifyError(g.model, err)
	}
	if len(resp.Choices) == 0 {
		return nil, classifyError(g.model, fmt.Errorf("no choices in response"))
	}

	gen, err := parseGeneration(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, classifyError(g.model, err)
	}
	gen.Model = g.model

	g.logger.Info("generation completed",
		zap.String("model", g.model),
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
		zap.Duration("elapsed", time.Since(start)))
	return gen, nil
}
