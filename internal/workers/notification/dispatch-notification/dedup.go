// internal/workers/notification/dispatch-notification/dedup.go
package dispatchnotification

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

const dedupPrefix = "dispatch:dedup:"

// Deduplicator remembers events that already produced an audit record.
type Deduplicator interface {
	Seen(ctx context.Context, key string) (bool, error)
	Mark(ctx context.Context, key string) error
}

type RedisDeduplicator struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewRedisDeduplicator(client redis.Cmdable, ttl time.Duration) *RedisDeduplicator {
	return &RedisDeduplicator{client: client, ttl: ttl}
}

func (d *RedisDeduplicator) Seen(ctx context.Context, key string) (bool, error) {
	n, err := d.client.Exists(ctx, dedupPrefix+key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (d *RedisDeduplicator) Mark(ctx context.Context, key string) error {
	return d.client.SetNX(ctx, dedupPrefix+key, time.Now().UTC().Format(time.RFC3339), d.ttl).Err()
}

// DedupKey hashes the event content together with the recipient hint and requested type.
func DedupKey(input *Input, hint, typeName string) (string, error) {
	payload, err := json.Marshal(input)
	if err != nil {
		return "", err
	}
	sum := sha256.New()
	sum.Write(payload)
	sum.Write([]byte{0})
	sum.Write([]byte(hint))
	sum.Write([]byte{0})
	sum.Write([]byte(typeName))
	return hex.EncodeToString(sum.Sum(nil)), nil
}
