package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/askretail/askretail-engine/pkg/apperrors"
	"github.com/askretail/askretail-engine/pkg/config"
	"github.com/askretail/askretail-engine/pkg/dates"
	"github.com/askretail/askretail-engine/pkg/engine"
	"github.com/askretail/askretail-engine/pkg/intent"
	"github.com/askretail/askretail-engine/pkg/llm"
	"github.com/askretail/askretail-engine/pkg/quality"
	"github.com/askretail/askretail-engine/pkg/sqlguard"
)

// ChatService routes a natural-language question through either the
// deterministic classic path or the AI generation path, always ending at
// the SQL safety gateway before execution.
type ChatService struct {
	data       DataEngine
	classifier *intent.Classifier
	gateway    *sqlguard.Gateway
	generator  llm.Generator
	collector  *quality.Collector
	scorer     *quality.Scorer
	cfg        config.EngineConfig
	logger     *zap.Logger
}

// NewChatService wires the chat pipeline. generator may be nil when no AI
// provider is configured; AI-mode requests then fail with a suggestion to
// use classic mode.
func NewChatService(
	data DataEngine,
	classifier *intent.Classifier,
	gateway *sqlguard.Gateway,
	generator llm.Generator,
	collector *quality.Collector,
	scorer *quality.Scorer,
	cfg config.EngineConfig,
	logger *zap.Logger,
) *ChatService {
	return &ChatService{
		data:       data,
		classifier: classifier,
		gateway:    gateway,
		generator:  generator,
		collector:  collector,
		scorer:     scorer,
		cfg:        cfg,
		logger:     logger.Named("chat"),
	}
}

// Chat answers one question. A *ChatError return is a structured
// cannot-answer outcome, not a server failure.
func (s *ChatService) Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	mode := req.Mode()
	s.logger.Info("chat request",
		zap.String("mode", mode),
		zap.String("message", req.Message))

	if mode == ModeAI {
		return s.chatAI(ctx, req)
	}
	return s.chatClassic(ctx, req)
}

func (s *ChatService) chatClassic(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	var filter *dates.Filter
	if req.Filters != nil && req.Filters.DateRange != nil {
		filter = req.Filters.DateRange
	}

	in, err := s.classifier.Classify(ctx, req.Message, filter)
	if err != nil {
		if errors.Is(err, apperrors.ErrInvalidDateFormat) {
			return nil, &ChatError{
				Message:    "Invalid date filter: dates must be ISO formatted (YYYY-MM-DD).",
				Suggestion: "Fix the date_range filter, e.g. {\"from\": \"2024-07-01\", \"to\": \"2024-07-31\"}.",
				QueryMode:  ModeClassic,
			}
		}
		return nil, fmt.Errorf("classify message: %w", err)
	}

	if in.Kind == intent.KindUnrecognized {
		suggestion := s.classifier.SuggestFor(ctx, req.Message)
		return nil, &ChatError{
			Message:    suggestion.Message,
			Suggestion: suggestion.Hint,
			QueryMode:  ModeClassic,
		}
	}

	plan, err := intent.Synthesize(in)
	if err != nil {
		return nil, fmt.Errorf("synthesize plan: %w", err)
	}

	validated, err := s.gateway.Validate(plan.SQL, plan.Params, s.cfg.MaxRows)
	validations := []quality.Validation{gateValidation(err)}
	if err != nil {
		// Synthesized SQL failing the gateway is a bug, but the caller
		// still gets a structured refusal.
		s.logger.Error("synthesized SQL rejected", zap.Error(err), zap.String("sql", plan.SQL))
		return nil, &ChatError{
			Message:    "The planned query was rejected by the safety gateway.",
			Suggestion: "Try a supported question or adjust filters.",
			QueryMode:  ModeClassic,
		}
	}

	start := time.Now()
	result, err := s.data.CachedQuery(ctx, validated.SQL, validated.Params, s.cfg.QueryTimeout())
	if err != nil {
		if errors.Is(err, apperrors.ErrEngineTimeout) {
			return nil, &ChatError{
				Message:    "Query exceeded the time limit.",
				Suggestion: "Narrow the date range or reduce result size.",
				QueryMode:  ModeClassic,
			}
		}
		return nil, fmt.Errorf("execute plan: %w", err)
	}
	execMs := float64(time.Since(start)) / float64(time.Millisecond)

	validations = append(validations, nonEmptyValidation(result.RowCount(), ""))
	if result.RowCount() == 0 {
		return s.emptyResponse(in, validated, validations, execMs), nil
	}

	return s.shapeAnswer(ctx, in, validated, result, validations, execMs)
}

// emptyResponse is the consistent cannot-answer envelope for a valid query
// that matched nothing. Confidence is pinned low rather than scored.
func (s *ChatService) emptyResponse(in intent.Intent, validated *sqlguard.ValidatedQuery, validations []quality.Validation, execMs float64) *ChatResponse {
	return &ChatResponse{
		AnswerText:      "Cannot answer: no matching rows. Refine your question or expand the time range.",
		TablesUsed:      validated.Tables,
		SQL:             validated.SQL,
		RowsScanned:     0,
		ExecMs:          execMs,
		DataSnippets:    []Snippet{},
		Validations:     validations,
		Confidence:      0.2,
		FollowUps:       quality.FollowUps(in.Kind),
		ChartSuggestion: ChartSuggestion{Type: "line"},
		QueryMode:       ModeClassic,
	}
}

// scanned runs an internal count statement. Failures degrade to the number
// of returned rows rather than failing the answer.
func (s *ChatService) scanned(ctx context.Context, sqlText string, params []any, fallback int) int64 {
	result, err := s.data.Query(ctx, sqlText, params, s.cfg.QueryTimeout())
	if err != nil || result.RowCount() == 0 {
		return int64(fallback)
	}
	return asInt(result.Rows[0][0])
}

func gateValidation(err error) quality.Validation {
	if err != nil {
		return quality.Validation{Name: "sql_gateway", Status: quality.StatusFail, Message: err.Error()}
	}
	return quality.Validation{Name: "sql_gateway", Status: quality.StatusPass}
}

func nonEmptyValidation(rows int, failMessage string) quality.Validation {
	if rows == 0 {
		return quality.Validation{Name: "non_empty_result", Status: quality.StatusFail, Message: failMessage}
	}
	return quality.Validation{Name: "non_empty_result", Status: quality.StatusPass}
}

func (s *ChatService) confidence(ctx context.Context, validations []quality.Validation, rows int) quality.ConfidenceResult {
	return s.scorer.Score(validations, rows, s.collector.Collect(ctx))
}

// snippetRows bounds snippet extraction to the first three rows.
func snippetRows(result *engine.Result) [][]any {
	if len(result.Rows) > 3 {
		return result.Rows[:3]
	}
	return result.Rows
}
