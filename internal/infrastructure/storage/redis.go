package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/cardspace/internal/shared/types"
)

const keyPrefix = "cardspace:layout:"

// RecordKey is the redis key holding a user's record. Change notices are
// published on a channel of the same name.
func RecordKey(userID string) string {
	return keyPrefix + userID
}

// RedisStore shares records between servers and notifies them of changes
type RedisStore struct {
	client *redis.Client
	codec  *Codec
	logger *zap.Logger
}

// NewRedisStore connects to addr
func NewRedisStore(ctx context.Context, addr string, logger *zap.Logger) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	return NewRedisStoreWithClient(client, logger)
}

// NewRedisStoreWithClient wraps an existing client
func NewRedisStoreWithClient(client *redis.Client, logger *zap.Logger) (*RedisStore, error) {
	codec, err := NewCodec()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisStore{client: client, codec: codec, logger: logger}, nil
}

// Name implements RecordStore
func (r *RedisStore) Name() string { return "redis" }

// Load implements RecordStore
func (r *RedisStore) Load(ctx context.Context, userID string) (*types.LayoutRecord, error) {
	payload, err := r.client.Get(ctx, RecordKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load record for %s: %w", userID, err)
	}
	return r.codec.Decode(payload)
}

// Save stores the record and publishes a change notice in one transaction
func (r *RedisStore) Save(ctx context.Context, rec *types.LayoutRecord) error {
	if err := validate(rec); err != nil {
		return err
	}
	payload, err := r.codec.Encode(rec)
	if err != nil {
		return err
	}
	notice, err := sonic.MarshalString(Notice{
		UserID:   rec.UserID,
		DeviceID: rec.DeviceID,
		Hash:     rec.Hash,
		Version:  rec.Version,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal notice: %w", err)
	}

	key := RecordKey(rec.UserID)
	pipe := r.client.TxPipeline()
	pipe.Set(ctx, key, payload, 0)
	pipe.Publish(ctx, key, notice)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save record for %s: %w", rec.UserID, err)
	}
	return nil
}

// Watch delivers change notices for every user until ctx is done
func (r *RedisStore) Watch(ctx context.Context, fn func(Notice)) error {
	sub := r.client.PSubscribe(ctx, keyPrefix+"*")
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			n, err := parseNotice(msg.Channel, msg.Payload)
			if err != nil {
				r.logger.Warn("Dropping malformed change notice",
					zap.String("channel", msg.Channel),
					zap.Error(err))
				continue
			}
			fn(n)
		}
	}
}

func parseNotice(channel, payload string) (Notice, error) {
	var n Notice
	if err := sonic.UnmarshalString(payload, &n); err != nil {
		return n, err
	}
	if n.UserID == "" {
		n.UserID = strings.TrimPrefix(channel, keyPrefix)
	}
	return n, nil
}

// Close closes the client
func (r *RedisStore) Close() error {
	r.codec.Close()
	return r.client.Close()
}
