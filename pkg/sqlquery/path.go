package sqlquery

import (
	"context"
	"errors"
	"fmt"
	"log"

	"agri-assist-be/internal/repository/contract"
	"agri-assist-be/pkg/llm"
	"agri-assist-be/pkg/policy"
	"agri-assist-be/pkg/store"
)

// Path drives the structured-query branch: schema view, translation,
// guard, execution, with one retry for generation and execution failures.
// Policy violations are terminal immediately.
type Path struct {
	translator *Translator
	pol        *policy.Policy
	logger     *log.Logger
}

func NewPath(llmProvider llm.LLMProvider, pol *policy.Policy, logger *log.Logger) *Path {
	return &Path{
		translator: NewTranslator(llmProvider, logger),
		pol:        pol,
		logger:     logger,
	}
}

// Config carries the SQL path's tuning values.
type Config struct {
	RowCap      int
	RetryBudget int
}

// Run executes the SQL path for the question. The returned error is a
// *GenerationError or *ExecutionError when the retry budget ran out (the
// caller falls back to RAG), or wraps policy.ErrViolation when the role's
// grant was exceeded (the caller fails closed).
func (p *Path) Run(
	ctx context.Context,
	repo contract.TabularRepository,
	question store.Question,
	config Config,
) (*store.SQLResult, error) {

	schemas, err := p.pol.VisibleSchema(question.Role)
	if err != nil {
		return nil, err
	}
	// Zero visible columns means the role cannot query anything; the
	// model call is never made.
	if len(schemas) == 0 {
		return nil, fmt.Errorf("%w: role %s has no queryable tables", policy.ErrViolation, question.Role)
	}

	attempts := config.RetryBudget + 1
	prevError := ""

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			p.logger.Printf("[SQL] retrying after: %s", prevError)
		}

		result, err := p.attempt(ctx, repo, question, schemas, prevError, config.RowCap)
		if err == nil {
			return result, nil
		}

		// Grant violations and unsafe statements fail closed, no retry.
		if errors.Is(err, policy.ErrViolation) || errors.Is(err, ErrUnsafeQuery) {
			return nil, err
		}

		lastErr = err
		prevError = err.Error()
	}

	return nil, lastErr
}

func (p *Path) attempt(
	ctx context.Context,
	repo contract.TabularRepository,
	question store.Question,
	schemas []policy.TableSchema,
	prevError string,
	rowCap int,
) (*store.SQLResult, error) {

	sql, err := p.translator.Translate(ctx, question.Text, schemas, prevError)
	if err != nil {
		return nil, err
	}

	if err := CheckReadOnly(sql); err != nil {
		return nil, err
	}
	if err := CheckPolicy(sql, question.Role, p.pol); err != nil {
		return nil, err
	}

	result, err := repo.ExecuteReadOnly(ctx, sql, rowCap)
	if err != nil {
		return nil, &ExecutionError{Statement: sql, Err: err}
	}
	// The statement guard sees identifiers; only the executed result
	// shows the true output columns. Anything outside the grant that
	// slipped through is discarded here, rows and all.
	if err := CheckResultColumns(result.Columns, sql, question.Role, p.pol); err != nil {
		return nil, err
	}
	if result.Truncated {
		p.logger.Printf("[SQL] result truncated at %d rows", result.RowCount)
	}
	return result, nil
}
