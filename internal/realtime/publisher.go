package realtime

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Publisher emits change tokens for concern row changes. Every token goes to
// the all-rows channel and to the owner's channel so both partition shapes
// see it.
type Publisher struct {
	client *redis.Client
	logger *zap.Logger
}

// NewPublisher constructs the publisher.
func NewPublisher(client *redis.Client, logger *zap.Logger) *Publisher {
	return &Publisher{client: client, logger: logger}
}

// Publish fans the token out to both channels. Failures are logged and
// swallowed: a missed notification degrades liveness, never correctness,
// because consumers refetch from the store on their next cycle anyway.
func (p *Publisher) Publish(ctx context.Context, token ChangeToken) {
	if p == nil || p.client == nil {
		return
	}
	payload, err := json.Marshal(token)
	if err != nil {
		p.logger.Error("marshal change token", zap.Error(err))
		return
	}

	channels := []string{PartitionAll().Channel(), PartitionOwnedBy(token.OwnerID).Channel()}
	for _, channel := range channels {
		if err := p.client.Publish(ctx, channel, payload).Err(); err != nil {
			p.logger.Warn("publish change token",
				zap.String("channel", channel),
				zap.Error(err),
			)
		}
	}
}
