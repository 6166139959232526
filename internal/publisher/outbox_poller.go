package publisher

import (
	"context"
	"encoding/json"
	"log"
	"time"

	r "github.com/SSG-Realive/Realive-sub001/internal/repository"
	"github.com/segmentio/kafka-go"
)

// EventWriter is the slice of kafka.Writer the poller needs.
type EventWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

type OutboxPoller struct {
	timeout      time.Duration
	eventTick    time.Duration
	recoveryTick time.Duration
	repo         r.SessionRepo
	writer       EventWriter
}

func NewOutboxPoller(repo r.SessionRepo, brokers ...string) *OutboxPoller {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  "checkout-completed",
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
	return &OutboxPoller{time.Second * 5, time.Second, time.Second * 5, repo, w}
}

func (p *OutboxPoller) Run(ctx context.Context) {
	eventTicker := time.NewTicker(p.eventTick)
	recoveryTicker := time.NewTicker(p.recoveryTick)
	defer eventTicker.Stop()
	defer recoveryTicker.Stop()
	for {
		select {
		case <-eventTicker.C:
			p.processUnpublishedEvents(ctx)
		case <-recoveryTicker.C:
			p.recoverStuckSessions(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (p *OutboxPoller) processUnpublishedEvents(ctx context.Context) {
	events, err := p.repo.GetUnprocessedEvents(ctx, 100)
	if err != nil {
		log.Printf("failed to fetch outbox events: %v", err)
		return
	}

	for _, event := range events {
		if errPublish := p.publish(ctx, event.SessionID, event.Payload); errPublish != nil {
			log.Printf("failed to publish event id = %v with error %v", event.ID, errPublish)
			continue
		}

		if errMark := p.repo.MarkEventAsProcessed(ctx, event.ID); errMark != nil {
			log.Printf("failed to mark event as processed id = %v with error %v", event.ID, errMark)
			continue
		}
	}
}

// recoverStuckSessions re-emits outbox events for completed sessions that
// have none, so no completed checkout stays unpublished forever.
func (p *OutboxPoller) recoverStuckSessions(ctx context.Context) {
	sessions, err := p.repo.GetStuckSessions(ctx)
	if err != nil {
		log.Printf("failed to get stuck sessions: %v", err)
		return
	}
	for _, session := range sessions {
		log.Printf("recovering stuck session: %v", session.ID)

		payload := session.CompletedPayload
		if len(payload) == 0 {
			// Older rows may predate the completed_payload column; rebuild
			// the event from what the session itself records.
			rebuilt, errMarshal := json.Marshal(map[string]interface{}{
				"checkout_id":  session.ID,
				"user_id":      session.UserID,
				"kind":         session.Kind,
				"total_amount": session.Amount,
				"completed_at": session.UpdatedAt,
			})
			if errMarshal != nil {
				log.Printf("failed to rebuild payload for session %v: %v", session.ID, errMarshal)
				continue
			}
			payload = rebuilt
		}

		if errComplete := p.repo.CompleteSession(ctx, session.ID, payload); errComplete != nil {
			log.Printf("failed to re-complete stuck session %v: %v", session.ID, errComplete)
		}
	}
}

func (p *OutboxPoller) publish(ctx context.Context, key string, payload []byte) error {
	publishCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	return p.writer.WriteMessages(publishCtx, kafka.Message{
		Key:   []byte(key),
		Value: payload,
	})
}
