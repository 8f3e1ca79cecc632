package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const activityChannel = "document_activity"

// ActivityEvent is published for other services (analytics, notification)
// whenever something notable happens in a document room.
type ActivityEvent struct {
	Event      string    `json:"event"` // "user-joined", "user-left", "document-saved"
	DocumentID string    `json:"documentId"`
	UserID     uint      `json:"userId"`
	UserName   string    `json:"userName"`
	Timestamp  time.Time `json:"timestamp"`
}

// ActivityPublisher fans document activity out over Redis pub/sub. Publishing
// is fire and forget: a failed publish is logged and dropped, it never blocks
// or fails the operation that produced the event.
type ActivityPublisher struct {
	rdb    *redis.Client
	logger *zap.Logger
}

func NewActivityPublisher(redisAddr string, logger *zap.Logger) *ActivityPublisher {
	rdb := redis.NewClient(&redis.Options{
		Addr: redisAddr,
	})
	return &ActivityPublisher{rdb: rdb, logger: logger}
}

// NewActivityPublisherWithClient wires an existing client (used in tests).
func NewActivityPublisherWithClient(rdb *redis.Client, logger *zap.Logger) *ActivityPublisher {
	return &ActivityPublisher{rdb: rdb, logger: logger}
}

func (p *ActivityPublisher) Publish(ctx context.Context, event ActivityEvent) {
	if p == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("marshal activity event", zap.Error(err))
		return
	}
	if err := p.rdb.Publish(ctx, activityChannel, payload).Err(); err != nil {
		p.logger.Warn("publish activity event",
			zap.String("event", event.Event),
			zap.String("documentId", event.DocumentID),
			zap.Error(err))
	}
}

func (p *ActivityPublisher) Close() error {
	if p == nil {
		return nil
	}
	return p.rdb.Close()
}
