package llm

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/askretail/askretail-engine/pkg/apperrors"
	"github.com/askretail/askretail-engine/pkg/retry"
)

// Chain tries each generator in order until one produces a usable
// generation. Every provider failing yields ErrGeneration.
type Chain struct {
	generators []Generator
	retryCfg   *retry.Config
	logger     *zap.Logger
}

// NewChain builds a fallback chain. At least one generator is required.
func NewChain(logger *zap.Logger, generators ...Generator) (*Chain, error) {
	if len(generators) == 0 {
		return nil, fmt.Errorf("at least one generator is required")
	}
	return &Chain{
		generators: generators,
		retryCfg:   retry.DefaultConfig(),
		logger:     logger.Named("llm.chain"),
	}, nil
}

// Generate runs the chain. Transient failures retry the same provider with
// backoff; anything else moves on to the next one. Context cancellation
// stops the chain immediately.
func (c *Chain) Generate(ctx context.Context, req Request) (*Generation, error) {
	var lastErr error
	for _, gen := range c.generators {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %v", apperrors.ErrGeneration, ctx.Err())
		}

		result, err := retry.DoWithResult(ctx, c.retryCfg, func() (*Generation, error) {
			return gen.Generate(ctx, req)
		})
		if err == nil {
			return result, nil
		}
		lastErr = err
		c.logger.Warn("provider failed, trying next",
			zap.String("model", gen.Model()),
			zap.Error(err))
	}
	return nil, fmt.Errorf("%w: all providers failed: %v", apperrors.ErrGeneration, lastErr)
}

// Model returns the primary model name.
func (c *Chain) Model() string {
	return c.generators[0].Model()
}
