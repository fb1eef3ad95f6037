package repository

import (
	"context"

	"github.com/user/listing-risk-service/internal/entity"
)

// VerdictCacheRepository defines the freshness cache for verdicts, keyed by
// subject identity. An entry older than the configured TTL is a miss; expiry
// is evaluated on read. Put replaces any existing entry for the key.
type VerdictCacheRepository interface {
	Get(ctx context.Context, subjectID string) (*entity.RiskVerdict, bool, error)
	Put(ctx context.Context, subjectID string, verdict *entity.RiskVerdict) error
	// Invalidate drops the entry for a subject, used for forced re-analysis.
	Invalidate(ctx context.Context, subjectID string) error
}
