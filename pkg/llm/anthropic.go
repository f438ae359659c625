package llm

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/liushuangls/go-anthropic/v2"
	"go.uber.org/zap"
)

// AnthropicGenerator is the last-resort provider when the OpenAI-compatible
// chain is exhausted.
type AnthropicGenerator struct {
	client       *anthropic.Client
	model        string
	systemPrompt string
	maxTokens    int
	logger       *zap.Logger
}

// NewAnthropicGenerator creates a generator backed by the Anthropic
// Messages API.
func NewAnthropicGenerator(apiKey, model, systemPrompt string, maxTokens int, timeout time.Duration, logger *zap.Logger) (*AnthropicGenerator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("anthropic api key is required")
	}
	if model == "" {
		return nil, fmt.Errorf("anthropic model is required")
	}
	var opts []anthropic.ClientOption
	if timeout > 0 {
		opts = append(opts, anthropic.WithHTTPClient(&http.Client{Timeout: timeout}))
	}
	return &AnthropicGenerator{
		client:       anthropic.NewClient(apiKey, opts...),
		model:        model,
		systemPrompt: systemPrompt,
		maxTokens:    maxTokens,
		logger:       logger.Named("llm.anthropic"),
	}, nil
}

// Model returns the configured model name.
func (g *AnthropicGenerator) Model() string {
	return g.model
}

// Generate requests a structured SQL generation for the question.
func (g *AnthropicGenerator) Generate(ctx context.Context, req Request) (*Generation, error) {
	start := time.Now()

	resp, err := g.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:     anthropic.Model(g.model),
		System:    g.systemPrompt,
		MaxTokens: g.maxTokens,
		Messages: []anthropic.Message{
			anthropic.NewUserTextMessage(BuildUserPrompt(req)),
		},
	})
	if err != nil {
		g.logger.Warn("generation request failed",
			zap.String("model", g.model),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return nil, classifyError(g.model, err)
	}

	var content string
	for _, block := range resp.Content {
		if block.Type == anthropic.MessagesContentTypeText {
			content = block.GetText()
			break
		}
	}
	if content == "" {
		return nil, classifyError(g.model, fmt.Errorf("no text content in response"))
	}

	gen, err := parseGeneration(content)
	if err != nil {
		return nil, classifyError(g.model, err)
	}
	gen.Model = g.model

	g.logger.Info("generation completed",
		zap.String("model", g.model),
		zap.Duration("elapsed", time.Since(start)))
	return gen, nil
}
