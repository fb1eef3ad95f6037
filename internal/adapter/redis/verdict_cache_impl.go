package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/user/listing-risk-service/internal/entity"
	"github.com/user/listing-risk-service/pkg/utils"
)

const verdictKeyPrefix = "verdict:"

// VerdictCacheImpl provides a Redis-backed implementation of the
// VerdictCacheRepository interface. Redis handles expiry natively, so a read
// past the freshness window is simply a missing key.
type VerdictCacheImpl struct {
	client *redis.Client
	ttl    time.Duration
}

// NewVerdictCache creates a new instance of VerdictCacheImpl.
func NewVerdictCache(client *redis.Client, ttl time.Duration) *VerdictCacheImpl {
	return &VerdictCacheImpl{client: client, ttl: ttl}
}

// generateKey creates a consistent Redis key for a subject by hashing it.
func (r *VerdictCacheImpl) generateKey(subjectID string) string {
	return fmt.Sprintf("%s%s", verdictKeyPrefix, utils.HashKey(subjectID))
}

// Get retrieves the cached verdict for a subject, if still fresh.
func (r *VerdictCacheImpl) Get(ctx context.Context, subjectID string) (*entity.RiskVerdict, bool, error) {
	payload, err := r.client.Get(ctx, r.generateKey(subjectID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var verdict entity.RiskVerdict
	if err := json.Unmarshal(payload, &verdict); err != nil {
		return nil, false, err
	}
	return &verdict, true, nil
}

// Put stores a verdict with the freshness window as the key expiry. SET
// replaces any existing value atomically.
func (r *VerdictCacheImpl) Put(ctx context.Context, subjectID string, verdict *entity.RiskVerdict) error {
	payload, err := json.Marshal(verdict)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, r.generateKey(subjectID), payload, r.ttl).Err()
}

// Invalidate drops the cached verdict for a subject.
func (r *VerdictCacheImpl) Invalidate(ctx context.Context, subjectID string) error {
	return r.client.Del(ctx, r.generateKey(subjectID)).Err()
}
