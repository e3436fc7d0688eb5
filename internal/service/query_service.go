package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"agri-assist-be/internal/dto"
	"agri-assist-be/internal/entity"
	"agri-assist-be/internal/pkg/logger"
	"agri-assist-be/internal/repository/unitofwork"
	"agri-assist-be/pkg/policy"
	"agri-assist-be/pkg/rag/orchestrator"
	"agri-assist-be/pkg/store"

	"github.com/google/uuid"
)

type IQueryService interface {
	Ask(ctx context.Context, userId uuid.UUID, roleName string, req *dto.AskQueryRequest) (*dto.AskQueryResponse, error)
}

type queryService struct {
	uowFactory       unitofwork.RepositoryFactory
	pipeline         *orchestrator.Orchestrator
	answerCache      *store.AnswerCache
	publisherService IPublisherService
	sysLogger        logger.ILogger
}

func NewQueryService(
	uowFactory unitofwork.RepositoryFactory,
	pipeline *orchestrator.Orchestrator,
	answerCache *store.AnswerCache,
	publisherService IPublisherService,
	sysLogger logger.ILogger,
) IQueryService {
	return &queryService{
		uowFactory:       uowFactory,
		pipeline:         pipeline,
		answerCache:      answerCache,
		publisherService: publisherService,
		sysLogger:        sysLogger,
	}
}

func (s *queryService) Ask(ctx context.Context, userId uuid.UUID, roleName string, req *dto.AskQueryRequest) (*dto.AskQueryResponse, error) {
	startedAt := time.Now()
	requestId := uuid.NewString()

	role, ok := policy.ParseRole(roleName)
	if !ok {
		err := fmt.Errorf("%w: %q", policy.ErrUnknownRole, roleName)
		s.publishAudit(ctx, requestId, userId, roleName, req.Question, entity.AuditOutcomeBlocked, "", err.Error(), nil, startedAt)
		return nil, err
	}

	question := store.Question{
		Text:      req.Question,
		Role:      role,
		RequestID: requestId,
	}

	if cached, ok := s.answerCache.Get(ctx, role, req.Question); ok {
		s.sysLogger.Info("QUERY", "Answer served from cache", map[string]interface{}{
			"request_id": requestId,
			"role":       string(role),
		})
		res := toAskResponse(requestId, cached)
		res.Cached = true
		return res, nil
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	repos := orchestrator.Repos{
		Chunks:  uow.ChunkRepository(),
		Tabular: uow.TabularRepository(),
	}

	answer, err := s.pipeline.Answer(ctx, repos, question)
	if err != nil {
		// Fail-closed path: policy violation or unknown role.
		s.publishAudit(ctx, requestId, userId, string(role), req.Question, entity.AuditOutcomeBlocked, "", err.Error(), nil, startedAt)
		return nil, err
	}

	s.answerCache.Set(ctx, role, req.Question, answer)

	outcome := entity.AuditOutcomeAnswered
	if answer.FellBack {
		outcome = entity.AuditOutcomeFallback
	}
	if answer.Degraded {
		outcome = entity.AuditOutcomeDegraded
	}
	s.publishAudit(ctx, requestId, userId, string(role), req.Question, outcome, string(answer.ModeUsed), "", answer, startedAt)

	return toAskResponse(requestId, answer), nil
}

// publishAudit emits the audit record onto the internal bus. Audit
// persistence is auxiliary; a publish failure is logged, never returned.
func (s *queryService) publishAudit(
	ctx context.Context,
	requestId string,
	userId uuid.UUID,
	role, question, outcome, mode, reason string,
	answer *store.Answer,
	startedAt time.Time,
) {
	msg := dto.QueryAuditMessage{
		RequestId:  requestId,
		UserId:     userId.String(),
		Role:       role,
		Question:   question,
		Outcome:    outcome,
		Reason:     reason,
		Mode:       mode,
		DurationMs: time.Since(startedAt).Milliseconds(),
		AskedAt:    startedAt,
	}
	if answer != nil {
		msg.QualityScore = answer.QualityScore
		msg.Degraded = answer.Degraded
		msg.FellBack = answer.FellBack
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		s.sysLogger.Error("QUERY", "Failed to marshal audit message", map[string]interface{}{"error": err.Error()})
		return
	}
	if err := s.publisherService.Publish(ctx, payload); err != nil {
		s.sysLogger.Error("QUERY", "Failed to publish audit message", map[string]interface{}{
			"error":      err.Error(),
			"request_id": requestId,
		})
	}
}

func toAskResponse(requestId string, answer *store.Answer) *dto.AskQueryResponse {
	return &dto.AskQueryResponse{
		RequestId:    requestId,
		Answer:       answer.Text,
		Mode:         string(answer.ModeUsed),
		QualityScore: answer.QualityScore,
		Degraded:     answer.Degraded,
		FellBack:     answer.FellBack,
		Evidence:     answer.SupportingEvidence,
	}
}
