package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/askretail/askretail-engine/pkg/apperrors"
	"github.com/askretail/askretail-engine/pkg/intent"
	"github.com/askretail/askretail-engine/pkg/llm"
	"github.com/askretail/askretail-engine/pkg/quality"
)

// chatAI runs the generation path. Generated SQL goes through the exact
// same gateway as synthesized SQL, with the tighter AI row cap.
func (s *ChatService) chatAI(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	if s.generator == nil {
		return nil, &ChatError{
			Message:    "AI Smart Mode is not configured.",
			Suggestion: "Switch to Classic Mode.",
			QueryMode:  ModeAI,
		}
	}

	genReq := llm.Request{Question: req.Message}
	if req.Filters != nil && req.Filters.DateRange != nil {
		genReq.DateFrom = req.Filters.DateRange.From
		genReq.DateTo = req.Filters.DateRange.To
	}

	generation, err := s.generator.Generate(ctx, genReq)
	if err != nil {
		s.logger.Warn("AI generation failed", zap.Error(err))
		if errors.Is(err, apperrors.ErrGeneration) {
			return nil, &ChatError{
				Message:    "AI Smart Mode could not generate a query.",
				Suggestion: "Switch to Classic Mode or try again shortly.",
				QueryMode:  ModeAI,
			}
		}
		return nil, &ChatError{
			Message:    "AI Smart Mode is temporarily unavailable.",
			Suggestion: "Switch to Classic Mode or try again shortly.",
			QueryMode:  ModeAI,
		}
	}

	validated, err := s.gateway.Validate(generation.SQL, nil, s.cfg.AIMaxRows)
	if err != nil {
		s.logger.Warn("AI SQL rejected",
			zap.String("model", generation.Model),
			zap.String("sql", generation.SQL),
			zap.Error(err))
		return nil, &ChatError{
			Message:    fmt.Sprintf("Generated SQL was rejected: %v", err),
			Suggestion: "Try rephrasing your request or switch to Classic Mode.",
			QueryMode:  ModeAI,
		}
	}

	start := time.Now()
	result, err := s.data.Query(ctx, validated.SQL, validated.Params, s.cfg.AIQueryTimeout())
	if err != nil {
		s.logger.Warn("AI SQL execution failed", zap.Error(err))
		return nil, &ChatError{
			Message:    "Generated SQL failed to run.",
			Suggestion: "Try rephrasing or adjust the request.",
			QueryMode:  ModeAI,
		}
	}
	execMs := float64(time.Since(start)) / float64(time.Millisecond)

	validations := []quality.Validation{
		{Name: "sql_generated", Status: quality.StatusPass},
		nonEmptyValidation(result.RowCount(), "AI Smart Mode did not find matching rows"),
	}
	conf := s.confidence(ctx, validations, result.RowCount())

	followUps := dedupe(generation.FollowUps)
	if len(followUps) == 0 {
		followUps = quality.FollowUps(intent.KindUnrecognized)
	}
	if len(followUps) == 0 {
		followUps = []string{"Try a more specific question", "Switch back to Classic Mode"}
	}
	if len(followUps) > 4 {
		followUps = followUps[:4]
	}

	answer := generation.Summary
	if answer != "" {
		answer = strings.ReplaceAll(answer, "{count}", fmt.Sprintf("%d", result.RowCount()))
	} else if result.RowCount() > 0 {
		answer = fmt.Sprintf("AI Smart Mode returned %d rows.", result.RowCount())
	} else {
		answer = "AI Smart Mode could not find matching rows."
	}

	return &ChatResponse{
		AnswerText:      answer,
		TablesUsed:      validated.Tables,
		SQL:             validated.SQL,
		RowsScanned:     int64(result.RowCount()),
		ExecMs:          execMs,
		DataSnippets:    []Snippet{},
		Validations:     validations,
		Confidence:      conf.Score,
		FollowUps:       followUps,
		ChartSuggestion: ChartSuggestion{Type: "table"},
		QualityBadges:   conf.Badges,
		QueryMode:       ModeAI,
	}, nil
}

func dedupe(values []string) []string {
	seen := make(map[string]bool, len(values))
	var out []string
	for _, v := range values {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
