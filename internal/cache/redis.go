package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/intervia/interview-api/pkg/model"
	"github.com/redis/go-redis/v9"
)

func NewRedisClient(addr, pass string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: pass,
		DB:       db,
	})
}

func Ping(ctx context.Context, c *redis.Client) error {
	return c.Ping(ctx).Err()
}

// InvitationCache stores invitation snapshots (invitation + category +
// ordered questions). Reference data never changes after the invite is sent,
// so entries expire by TTL only.
type InvitationCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewInvitationCache(rdb *redis.Client, ttl time.Duration) *InvitationCache {
	return &InvitationCache{rdb: rdb, ttl: ttl}
}

func invitationKey(id uuid.UUID) string {
	return fmt.Sprintf("invitation:%s", id)
}

// Get returns the cached snapshot, or nil on miss. Cache errors are returned
// so the caller can log and fall through to the database.
func (c *InvitationCache) Get(ctx context.Context, id uuid.UUID) (*model.InvitationDetail, error) {
	raw, err := c.rdb.Get(ctx, invitationKey(id)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cache get: %w", err)
	}
	var detail model.InvitationDetail
	if err := json.Unmarshal(raw, &detail); err != nil {
		return nil, fmt.Errorf("cache decode: %w", err)
	}
	return &detail, nil
}

func (c *InvitationCache) Set(ctx context.Context, detail *model.InvitationDetail) error {
	raw, err := json.Marshal(detail)
	if err != nil {
		return fmt.Errorf("cache encode: %w", err)
	}
	if err := c.rdb.Set(ctx, invitationKey(detail.Invitation.InvitationID), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}
