package service

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"agri-assist-be/internal/dto"
	"agri-assist-be/internal/entity"
	"agri-assist-be/internal/repository/unitofwork"
	"agri-assist-be/pkg/events"
	pkgNats "agri-assist-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

type IAuditConsumerService interface {
	Consume(ctx context.Context) error
}

// auditConsumerService drains the audit topic: every message becomes a
// persisted QueryAudit row and, when NATS is wired, an external event.
type auditConsumerService struct {
	pubSub     *gochannel.GoChannel
	topicName  string
	uowFactory unitofwork.RepositoryFactory
	natsPub    *pkgNats.Publisher
}

func NewAuditConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	uowFactory unitofwork.RepositoryFactory,
	natsPub *pkgNats.Publisher,
) IAuditConsumerService {
	return &auditConsumerService{
		pubSub:     pubSub,
		topicName:  topicName,
		uowFactory: uowFactory,
		natsPub:    natsPub,
	}
}

func (cs *auditConsumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *auditConsumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.QueryAuditMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		log.Printf("[ERROR] Failed to unmarshal audit message: %v", err)
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	userId, err := uuid.Parse(payload.UserId)
	if err != nil {
		log.Printf("[WARN] Audit message %s has invalid user id %q", payload.RequestId, payload.UserId)
		userId = uuid.Nil
	}

	audit := &entity.QueryAudit{
		Id:         uuid.New(),
		UserId:     userId,
		Role:       payload.Role,
		Question:   payload.Question,
		Outcome:    payload.Outcome,
		Mode:       payload.Mode,
		Reason:     payload.Reason,
		DurationMs: payload.DurationMs,
		CreatedAt:  payload.AskedAt,
	}

	uow := cs.uowFactory.NewUnitOfWork(ctx)
	if err := uow.AuditRepository().Create(ctx, audit); err != nil {
		log.Printf("[ERROR] Failed to persist audit %s: %v", payload.RequestId, err)
		msg.Nack()
		return
	}

	cs.forwardToNats(ctx, payload)
	msg.Ack()
}

func (cs *auditConsumerService) forwardToNats(ctx context.Context, payload dto.QueryAuditMessage) {
	if cs.natsPub == nil {
		return
	}

	evt := events.BaseEvent{
		Type: "QUERY_" + payload.Outcome,
		Data: map[string]interface{}{
			"request_id":    payload.RequestId,
			"user_id":       payload.UserId,
			"role":          payload.Role,
			"outcome":       payload.Outcome,
			"mode":          payload.Mode,
			"quality_score": payload.QualityScore,
			"degraded":      payload.Degraded,
			"fell_back":     payload.FellBack,
			"duration_ms":   payload.DurationMs,
		},
		OccurredAt: time.Now(),
	}
	if err := cs.natsPub.Publish(ctx, evt); err != nil {
		log.Printf("[WARN] Failed to forward audit event %s to NATS: %v", payload.RequestId, err)
	}
}
