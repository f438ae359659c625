// Package llm generates DuckDB SELECT statements from natural-language
// questions via OpenAI-compatible endpoints, with an Anthropic fallback.
// Generated SQL is never trusted; callers must pass it through the safety
// gateway before execution.
package llm

import (
	"context"
)

// Request carries the question and optional explicit date bounds into
// generation.
type Request struct {
	Question string
	DateFrom string // ISO date, optional
	DateTo   string // ISO date, optional
}

// Generation is one model's structured answer.
type Generation struct {
	SQL       string   `json:"sql"`
	Summary   string   `json:"summary"`
	FollowUps []string `json:"follow_ups"`
	Model     string   `json:"-"`
}

// Generator produces a SQL generation for a question.
type Generator interface {
	Generate(ctx context.Context, req Request) (*Generation, error)
	Model() string
}
