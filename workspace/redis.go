package workspace

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/yonbergman/electric-planner/store"
)

// RedisStore caches the latest workspace snapshot per slot.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func slotKey(slot string) string {
	return fmt.Sprintf("electricplanner:workspace:%s", slot)
}

const allSlotsKey = "electricplanner:workspaces"

// Cached is a snapshot as held in Redis.
type Cached struct {
	Version  int
	Data     []byte
	Checksum string
}

// Intact reports whether Data still matches the checksum written with it.
func (c *Cached) Intact() bool {
	return c.Checksum != "" && c.Checksum == store.Checksum(c.Data)
}

func (r *RedisStore) Set(ctx context.Context, slot string, c Cached) error {
	pipe := r.client.TxPipeline()
	pipe.HSet(ctx, slotKey(slot), map[string]any{
		"version":  c.Version,
		"data":     c.Data,
		"checksum": c.Checksum,
	})
	pipe.SAdd(ctx, allSlotsKey, slot)
	_, err := pipe.Exec(ctx)
	return err
}

// Get returns nil with no error when the slot is not cached.
func (r *RedisStore) Get(ctx context.Context, slot string) (*Cached, error) {
	fields, err := r.client.HGetAll(ctx, slotKey(slot)).Result()
	if err == redis.Nil || (err == nil && len(fields) == 0) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	version, _ := strconv.Atoi(fields["version"])
	return &Cached{Version: version, Data: []byte(fields["data"]), Checksum: fields["checksum"]}, nil
}

func (r *RedisStore) Delete(ctx context.Context, slot string) error {
	pipe := r.client.TxPipeline()
	pipe.Del(ctx, slotKey(slot))
	pipe.SRem(ctx, allSlotsKey, slot)
	_, err := pipe.Exec(ctx)
	return err
}

func (r *RedisStore) Slots(ctx context.Context) ([]string, error) {
	return r.client.SMembers(ctx, allSlotsKey).Result()
}
