package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/johnquangdev/silent-contributor/internal/domain/engagement"
	"github.com/johnquangdev/silent-contributor/internal/infrastructure/cache"
)

const cacheKeyPrefix = "dashboard:records:"

// RecordCache keeps normalised records per meeting in a cache.Store
type RecordCache struct {
	store cache.Store
	ttl   time.Duration
}

// NewRecordCache creates a record cache. A non-positive ttl disables caching.
func NewRecordCache(store cache.Store, ttl time.Duration) *RecordCache {
	return &RecordCache{store: store, ttl: ttl}
}

func cacheKey(meetingID uuid.UUID) string {
	return cacheKeyPrefix + meetingID.String()
}

// Get returns the cached records of a meeting
func (c *RecordCache) Get(ctx context.Context, meetingID uuid.UUID) ([]engagement.Record, bool, error) {
	if c == nil || c.ttl <= 0 {
		return nil, false, nil
	}
	raw, ok, err := c.store.Get(ctx, cacheKey(meetingID))
	if err != nil || !ok {
		return nil, false, err
	}

	var records []engagement.Record
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached records: %w", err)
	}
	return records, true, nil
}

// Set stores the records of a meeting for the cache TTL
func (c *RecordCache) Set(ctx context.Context, meetingID uuid.UUID, records []engagement.Record) error {
	if c == nil || c.ttl <= 0 {
		return nil
	}
	raw, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("failed to encode records: %w", err)
	}
	return c.store.Set(ctx, cacheKey(meetingID), string(raw), c.ttl)
}

// Invalidate drops the cached records of a meeting
func (c *RecordCache) Invalidate(ctx context.Context, meetingID uuid.UUID) error {
	if c == nil {
		return nil
	}
	return c.store.Delete(ctx, cacheKey(meetingID))
}
