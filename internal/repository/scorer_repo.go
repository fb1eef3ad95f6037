package repository

import (
	"context"

	"github.com/user/listing-risk-service/internal/entity"
)

// ScorerRepository defines the contract for the remote risk-scoring service.
type ScorerRepository interface {
	// Score submits a snapshot and returns a classified verdict with
	// Source=fresh. Transient failures are retried internally; the returned
	// error is a *ScoringError wrapping ErrScoringExhausted or
	// ErrRequestRejected.
	Score(ctx context.Context, snapshot *entity.ListingSnapshot) (*entity.RiskVerdict, error)
}
