// Package services holds the orchestration layer between HTTP handlers and
// the query engine: intent routing, AI generation, result shaping, and
// dataset management.
package services

import (
	"context"
	"time"

	"github.com/askretail/askretail-engine/pkg/dates"
	"github.com/askretail/askretail-engine/pkg/engine"
	"github.com/askretail/askretail-engine/pkg/quality"
)

// Query modes.
const (
	ModeClassic = "classic"
	ModeAI      = "ai"
)

// DataEngine is the slice of the engine the chat service needs. The
// concrete engine satisfies it; tests use fakes.
type DataEngine interface {
	Query(ctx context.Context, sqlText string, params []any, timeout time.Duration) (*engine.Result, error)
	CachedQuery(ctx context.Context, sqlText string, params []any, timeout time.Duration) (*engine.Result, error)
	SampleIDs(ctx context.Context) (orderID, customerID string)
}

// Filters carries the optional structured filters accepted alongside a
// chat message.
type Filters struct {
	DateRange *dates.Filter `json:"date_range,omitempty"`
}

// ChatRequest is a single question. AIAssist is a legacy alias that forces
// AI mode regardless of QueryMode.
type ChatRequest struct {
	Message   string   `json:"message"`
	Filters   *Filters `json:"filters,omitempty"`
	AIAssist  bool     `json:"ai_assist"`
	QueryMode string   `json:"query_mode"`
}

// Mode resolves the effective query mode.
func (r *ChatRequest) Mode() string {
	if r.AIAssist {
		return ModeAI
	}
	if r.QueryMode == ModeAI {
		return ModeAI
	}
	return ModeClassic
}

// Snippet is one evidence row surfaced with the answer.
type Snippet struct {
	Date    string  `json:"date,omitempty"`
	Revenue float64 `json:"revenue"`
}

// ChartSuggestion tells the client which visual fits the result.
type ChartSuggestion struct {
	Type string `json:"type"`
	X    string `json:"x,omitempty"`
	Y    string `json:"y,omitempty"`
}

// ChartPoint is one (label, value) pair in a rendered series.
type ChartPoint struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// ChartSeries is one named series of points.
type ChartSeries struct {
	Name string       `json:"name"`
	Data []ChartPoint `json:"data"`
}

// Chart is a ready-to-render chart payload.
type Chart struct {
	Type   string        `json:"type"`
	Series []ChartSeries `json:"series"`
}

// ChatResponse is the full answer envelope.
type ChatResponse struct {
	AnswerText      string               `json:"answer_text"`
	TablesUsed      []string             `json:"tables_used"`
	SQL             string               `json:"sql"`
	RowsScanned     int64                `json:"rows_scanned"`
	ExecMs          float64              `json:"exec_ms"`
	DataSnippets    []Snippet            `json:"data_snippets"`
	Validations     []quality.Validation `json:"validations"`
	Confidence      float64              `json:"confidence"`
	FollowUps       []string             `json:"follow_ups"`
	ChartSuggestion ChartSuggestion      `json:"chart_suggestion"`
	QualityBadges   []quality.Badge      `json:"quality_badges"`
	Chart           *Chart               `json:"chart,omitempty"`
	QueryMode       string               `json:"query_mode"`
}

// ChatError is a structured cannot-answer outcome. It renders as a JSON
// body with an actionable suggestion, not as an HTTP failure.
type ChatError struct {
	Message    string `json:"error"`
	Suggestion string `json:"suggestion"`
	QueryMode  string `json:"query_mode"`
}

func (e *ChatError) Error() string {
	return e.Message
}
