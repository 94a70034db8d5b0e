package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/config"
)

// ErrLockHeld is returned when another holder owns the lock.
var ErrLockHeld = errors.New("lock already held")

var errRedisNotConfigured = errors.New("redis client not configured")

// releaseScript deletes the key only while it still carries our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// Redis wraps the go-redis client.
type Redis struct {
	Client *redis.Client
}

// NewRedis connects to Redis using the provided configuration.
func NewRedis(cfg config.RedisConfig, logger *zap.Logger) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		logger.Warn("unable to reach redis", zap.Error(err))
	} else {
		logger.Info("connected to redis")
	}

	return &Redis{Client: client}
}

// Close closes the client.
func (r *Redis) Close() {
	if r != nil && r.Client != nil {
		_ = r.Client.Close()
	}
}

// Ping verifies Redis connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	if r == nil || r.Client == nil {
		return errRedisNotConfigured
	}
	return r.Client.Ping(ctx).Err()
}

// AcquireLock takes key with SET NX for at most ttl. The returned func releases
// the lock if it is still ours.
func (r *Redis) AcquireLock(ctx context.Context, key string, ttl time.Duration) (func(context.Context), error) {
	if r == nil || r.Client == nil {
		return nil, errRedisNotConfigured
	}
	token := uuid.NewString()
	ok, err := r.Client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrLockHeld
	}
	return func(ctx context.Context) {
		_ = releaseScript.Run(ctx, r.Client, []string{key}, token).Err()
	}, nil
}

// Publish sends payload on a pub/sub channel.
func (r *Redis) Publish(ctx context.Context, channel string, payload []byte) error {
	if r == nil || r.Client == nil {
		return errRedisNotConfigured
	}
	return r.Client.Publish(ctx, channel, payload).Err()
}

// Subscribe streams payloads published on channel until ctx ends or close is called.
func (r *Redis) Subscribe(ctx context.Context, channel string) (<-chan []byte, func() error, error) {
	if r == nil || r.Client == nil {
		return nil, nil, errRedisNotConfigured
	}
	sub := r.Client.Subscribe(ctx, channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, nil, err
	}
	out := make(chan []byte)
	go func() {
		defer close(out)
		messages := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}
				select {
				case out <- []byte(msg.Payload):
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, sub.Close, nil
}
