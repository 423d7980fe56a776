package realtime

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// TokenStream is a cancellable sequence of change tokens for one partition.
// Tokens() is closed when the stream ends, whether by Close or by transport
// failure.
type TokenStream interface {
	Tokens() <-chan ChangeToken
	Close() error
}

// TokenSource opens token streams. The bridge depends on this interface so
// tests can feed it synthetic tokens without a broker.
type TokenSource interface {
	Open(ctx context.Context, partition Partition) (TokenStream, error)
}

// RedisTokenSource subscribes to the partition's pub/sub channel.
type RedisTokenSource struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisTokenSource constructs the source.
func NewRedisTokenSource(client *redis.Client, logger *zap.Logger) *RedisTokenSource {
	return &RedisTokenSource{client: client, logger: logger}
}

// Open subscribes to the partition channel and starts decoding messages.
func (s *RedisTokenSource) Open(ctx context.Context, partition Partition) (TokenStream, error) {
	pubsub := s.client.Subscribe(ctx, partition.Channel())
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, err
	}

	stream := &redisTokenStream{
		pubsub: pubsub,
		tokens: make(chan ChangeToken),
	}

	go func() {
		defer close(stream.tokens)
		for msg := range pubsub.Channel() {
			var token ChangeToken
			if err := json.Unmarshal([]byte(msg.Payload), &token); err != nil {
				s.logger.Warn("malformed change token", zap.Error(err))
				continue
			}
			select {
			case stream.tokens <- token:
			case <-ctx.Done():
				return
			}
		}
	}()

	return stream, nil
}

type redisTokenStream struct {
	pubsub *redis.PubSub
	tokens chan ChangeToken
}

func (s *redisTokenStream) Tokens() <-chan ChangeToken {
	return s.tokens
}

func (s *redisTokenStream) Close() error {
	return s.pubsub.Close()
}
