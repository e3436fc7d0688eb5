package orchestrator

import (
	"context"
	"errors"
	"log"
	"runtime/debug"
	"time"

	"agri-assist-be/internal/repository/contract"
	"agri-assist-be/pkg/policy"
	"agri-assist-be/pkg/rag/classify"
	"agri-assist-be/pkg/rag/rerank"
	"agri-assist-be/pkg/rag/response"
	"agri-assist-be/pkg/rag/retrieval"
	"agri-assist-be/pkg/rag/synthesis"
	"agri-assist-be/pkg/sqlquery"
	"agri-assist-be/pkg/store"
)

// Stage names the pipeline phases, mostly for trace logs and tests.
type Stage string

const (
	StageClassifying  Stage = "CLASSIFYING"
	StageExecuting    Stage = "EXECUTING"
	StageSynthesizing Stage = "SYNTHESIZING"
	StageQualityCheck Stage = "QUALITY_CHECK"
	StageDone         Stage = "DONE"
	StageFallback     Stage = "FALLBACK"
)

// Config carries every pipeline tuning value in one place so the
// service layer can build it from app configuration.
type Config struct {
	Retrieval        retrieval.Config
	SQL              sqlquery.Config
	Synthesis        synthesis.Config
	TopKFinal        int
	StageTimeout     time.Duration
	AggregateTimeout time.Duration
}

// Repos groups the data-plane dependencies of one request. They come
// from the caller so a unit of work can scope them to a transaction.
type Repos struct {
	Chunks  contract.ChunkRepository
	Tabular contract.TabularRepository
}

// Orchestrator runs one question through classification, execution,
// synthesis and the quality check, falling back from SQL to retrieval
// at most once.
type Orchestrator struct {
	classifier *classify.Classifier
	retriever  *retrieval.Engine
	reranker   *rerank.Reranker
	generator  *synthesis.Generator
	sqlPath    *sqlquery.Path
	pol        *policy.Policy
	config     Config
	logger     *log.Logger
}

func New(
	classifier *classify.Classifier,
	retriever *retrieval.Engine,
	reranker *rerank.Reranker,
	generator *synthesis.Generator,
	sqlPath *sqlquery.Path,
	pol *policy.Policy,
	config Config,
	logger *log.Logger,
) *Orchestrator {
	return &Orchestrator{
		classifier: classifier,
		retriever:  retriever,
		reranker:   reranker,
		generator:  generator,
		sqlPath:    sqlPath,
		pol:        pol,
		config:     config,
		logger:     logger,
	}
}

// Answer runs the full pipeline. It returns an error only for the
// fail-closed cases (unknown role, policy violation); every other
// failure mode still yields an Answer, degraded if need be. A panic in
// any stage is converted into a degraded failure answer.
func (o *Orchestrator) Answer(ctx context.Context, repos Repos, question store.Question) (answer *store.Answer, err error) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.Printf("[PIPELINE] panic answering request %s: %v\n%s", question.RequestID, r, debug.Stack())
			answer = failureAnswer()
			err = nil
		}
	}()

	// Unknown roles fail closed before anything runs.
	if _, roleErr := o.pol.VisibleTags(question.Role); roleErr != nil {
		return nil, roleErr
	}
	if preErr := Preflight(question.Text, question.Role); preErr != nil {
		o.logger.Printf("[PIPELINE] preflight blocked request %s: %v", question.RequestID, preErr)
		return nil, preErr
	}

	ctx, cancel := context.WithTimeout(ctx, o.config.AggregateTimeout)
	defer cancel()

	classification := o.classify(ctx, question)
	o.logger.Printf("[%s] request=%s mode=%s confidence=%.2f", StageClassifying, question.RequestID, classification.Mode, classification.Confidence)

	fellBack := false
	if classification.Mode == store.ModeSQL {
		result, sqlErr := o.runSQL(ctx, repos.Tabular, question)
		if sqlErr == nil {
			answer := o.synthesizeSQL(ctx, question, result)
			o.logger.Printf("[%s] request=%s mode=SQL quality=%.2f", StageDone, question.RequestID, answer.QualityScore)
			return answer, nil
		}
		if errors.Is(sqlErr, policy.ErrViolation) {
			return nil, sqlErr
		}
		// An unsafe statement means the model tried to write or reach
		// past a single SELECT. That aborts the request outright rather
		// than handing the same question to retrieval.
		if errors.Is(sqlErr, sqlquery.ErrUnsafeQuery) {
			o.logger.Printf("[PIPELINE] unsafe statement aborted request %s: %v", question.RequestID, sqlErr)
			return failureAnswer(), nil
		}
		// Generation and execution failures already consumed their
		// retry inside the SQL path; fall back to retrieval once.
		o.logger.Printf("[%s] request=%s sql path abandoned: %v", StageFallback, question.RequestID, sqlErr)
		fellBack = true
	}

	evidence, ragErr := o.runRAG(ctx, repos.Chunks, question)
	if ragErr != nil {
		if errors.Is(ragErr, policy.ErrViolation) || errors.Is(ragErr, policy.ErrUnknownRole) {
			return nil, ragErr
		}
		o.logger.Printf("[PIPELINE] retrieval failed for request %s: %v", question.RequestID, ragErr)
		return failureAnswer(), nil
	}

	answer = o.synthesizeEvidence(ctx, question, evidence)
	answer.FellBack = fellBack
	o.logger.Printf("[%s] request=%s mode=RAG evidence=%d quality=%.2f degraded=%t", StageDone, question.RequestID, len(evidence), answer.QualityScore, answer.Degraded)
	return answer, nil
}

func (o *Orchestrator) classify(ctx context.Context, question store.Question) store.Classification {
	stageCtx, cancel := o.stageContext(ctx)
	defer cancel()
	return o.classifier.Classify(stageCtx, question)
}

func (o *Orchestrator) runSQL(ctx context.Context, repo contract.TabularRepository, question store.Question) (*store.SQLResult, error) {
	stageCtx, cancel := o.stageContext(ctx)
	defer cancel()
	return o.sqlPath.Run(stageCtx, repo, question, o.config.SQL)
}

// runRAG retrieves and reranks. A transient retrieval failure gets one
// retry before giving up.
func (o *Orchestrator) runRAG(ctx context.Context, repo contract.ChunkRepository, question store.Question) ([]store.Candidate, error) {
	stageCtx, cancel := o.stageContext(ctx)
	defer cancel()

	candidates, err := o.retriever.Retrieve(stageCtx, repo, question, o.config.Retrieval)
	if err != nil && !errors.Is(err, policy.ErrViolation) && !errors.Is(err, policy.ErrUnknownRole) {
		o.logger.Printf("[%s] retrieval retry after: %v", StageExecuting, err)
		candidates, err = o.retriever.Retrieve(stageCtx, repo, question, o.config.Retrieval)
	}
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	return o.reranker.Rerank(stageCtx, question.Text, candidates, o.config.TopKFinal), nil
}

func (o *Orchestrator) synthesizeEvidence(ctx context.Context, question store.Question, evidence []store.Candidate) *store.Answer {
	stageCtx, cancel := o.stageContext(ctx)
	defer cancel()
	return o.generator.FromEvidence(stageCtx, question, evidence, o.config.Synthesis)
}

func (o *Orchestrator) synthesizeSQL(ctx context.Context, question store.Question, result *store.SQLResult) *store.Answer {
	stageCtx, cancel := o.stageContext(ctx)
	defer cancel()
	return o.generator.FromSQLResult(stageCtx, question, result, o.config.Synthesis)
}

func (o *Orchestrator) stageContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if o.config.StageTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, o.config.StageTimeout)
}

func failureAnswer() *store.Answer {
	return &store.Answer{
		Text:         response.Failure,
		ModeUsed:     store.ModeRAG,
		QualityScore: 0,
		Degraded:     true,
	}
}
