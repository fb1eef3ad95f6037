package repository

import (
	"context"

	"github.com/user/listing-risk-service/internal/entity"
)

// VerdictHistoryRepository defines the append-only audit log of issued
// verdicts. Recording is best-effort: the pipeline never blocks on it, and a
// history row never satisfies a freshness-cache lookup.
type VerdictHistoryRepository interface {
	// Save appends one verdict to the history.
	Save(ctx context.Context, verdict *entity.RiskVerdict) error
	// FindLatest retrieves the most recent verdict recorded for a subject.
	FindLatest(ctx context.Context, subjectID string) (*entity.RiskVerdict, error)
}
