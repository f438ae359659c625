package llm

import (
	"fmt"
	"strings"
)

const systemPromptTemplate = `You are a SQL generator for a DuckDB retail database. Respond with a single JSON object and nothing else:

{"sql": "<one SELECT statement>", "summary": "<one sentence describing the result>", "follow_ups": ["<question>", "<question>"]}

Rules:
- Exactly one SELECT (or WITH ... SELECT) statement. No semicolons, no comments.
- Only the tables and columns listed below. Never invent names.
- Dates are stored as text; compare with CAST(order_date AS DATE).
- Always include a LIMIT of at most %d rows.
- Use DuckDB syntax. Prefer explicit JOIN ... ON over comma joins.

%s`

// BuildSystemPrompt renders the generation system prompt. schemaContext is
// the markdown table/column listing from the schema registry.
func BuildSystemPrompt(schemaContext string, maxRows int) string {
	return fmt.Sprintf(systemPromptTemplate, maxRows, schemaContext)
}

// BuildUserPrompt renders the per-question prompt, folding explicit date
// bounds in when the caller provided them.
func BuildUserPrompt(req Request) string {
	var b strings.Builder
	b.WriteString("Question: ")
	b.WriteString(req.Question)
	if req.DateFrom != "" && req.DateTo != "" {
		fmt.Fprintf(&b, "\nRestrict results to order dates between %s and %s inclusive.", req.DateFrom, req.DateTo)
	}
	return b.String()
}
