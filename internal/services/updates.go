package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/misty-step/bibliomnomnom/internal/models"
)

// UpdatePublisher sends per-user pipeline events over Redis pub/sub; the
// WebSocket hub relays them to connected clients. Events are telemetry
// only and never load-bearing, so publish failures are swallowed.
type UpdatePublisher struct {
	redis *redis.Client
}

func NewUpdatePublisher(redisClient *redis.Client) *UpdatePublisher {
	return &UpdatePublisher{redis: redisClient}
}

// UserUpdatesChannel is the pub/sub channel carrying one user's pipeline
// events. The publisher writes it; the WebSocket hub subscribes to it.
func UserUpdatesChannel(userID uuid.UUID) string {
	return fmt.Sprintf("user_updates:%s", userID)
}

func (p *UpdatePublisher) Publish(ctx context.Context, userID uuid.UUID, msg models.WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	p.redis.Publish(ctx, UserUpdatesChannel(userID), string(data))
}
