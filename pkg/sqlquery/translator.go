package sqlquery

import (
	"context"
	"fmt"
	"log"
	"strings"

	"agri-assist-be/pkg/llm"
	"agri-assist-be/pkg/policy"
)

// Translator converts a natural-language question into a SELECT statement
// against a role-constrained schema view. The model is shown only the
// tables and columns the role is granted, nothing else.
type Translator struct {
	llmProvider llm.LLMProvider
	logger      *log.Logger
}

func NewTranslator(llmProvider llm.LLMProvider, logger *log.Logger) *Translator {
	return &Translator{
		llmProvider: llmProvider,
		logger:      logger,
	}
}

// Translate generates SQL for the question. prevError carries the failure
// of a previous attempt so the retry can correct itself; empty on the
// first attempt.
func (t *Translator) Translate(ctx context.Context, question string, schemas []policy.TableSchema, prevError string) (string, error) {
	if len(schemas) == 0 {
		return "", fmt.Errorf("%w: no tables visible to this role", policy.ErrViolation)
	}

	prompt := buildTranslationPrompt(question, schemas, prevError)

	raw, err := t.llmProvider.Generate(ctx, prompt, llm.WithTemperature(0))
	if err != nil {
		return "", &GenerationError{Err: err}
	}

	sql := CleanStatement(raw)
	if sql == "" {
		return "", &GenerationError{Err: fmt.Errorf("model returned no statement")}
	}

	t.logger.Printf("[SQL] generated: %s", sql)
	return sql, nil
}

func buildTranslationPrompt(question string, schemas []policy.TableSchema, prevError string) string {
	var b strings.Builder
	b.WriteString("<task>\n")
	b.WriteString("You convert natural language questions about agricultural operations into safe SQL SELECT queries.\n")
	b.WriteString("</task>\n\n")

	b.WriteString("<schemas>\n")
	for _, s := range schemas {
		b.WriteString("Table: ")
		b.WriteString(s.Name)
		b.WriteString("\nColumns: ")
		b.WriteString(strings.Join(s.Columns, ", "))
		b.WriteString("\n\n")
	}
	b.WriteString("</schemas>\n\n")

	b.WriteString("<constraints>\n")
	b.WriteString("- Use only the tables and columns listed above, with exact names.\n")
	b.WriteString("- Return only a SELECT query, no INSERT/UPDATE/DELETE/DDL.\n")
	b.WriteString("- If asked about 'employee name', consider alternatives like 'full_name'.\n")
	b.WriteString("- If asked about 'position', consider synonyms like 'designation'.\n")
	b.WriteString("- Do not mix aggregate functions with *; use a grouped summary or plain columns.\n")
	b.WriteString("- Answer with the SQL statement only, no explanation, no code fences.\n")
	b.WriteString("</constraints>\n\n")

	if prevError != "" {
		b.WriteString("<previous_attempt_error>\n")
		b.WriteString(prevError)
		b.WriteString("\n</previous_attempt_error>\n\n")
	}

	b.WriteString("<question>\n")
	b.WriteString(question)
	b.WriteString("\n</question>\n\nSQL:")
	return b.String()
}

// CleanStatement strips code fences and labels models like to wrap
// statements in.
func CleanStatement(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "```sql")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "SQL:")
	return strings.TrimSpace(s)
}
