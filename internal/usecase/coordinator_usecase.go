package usecase

import (
	"context"
	"log/slog"

	"golang.org/x/sync/singleflight"

	"github.com/user/listing-risk-service/internal/entity"
	"github.com/user/listing-risk-service/internal/repository"
	"github.com/user/listing-risk-service/pkg/metrics"
)

// Coordinator sits above the cache and the scoring client. It guarantees at
// most one in-flight scoring call per subject at a time; concurrent callers
// for the same subject share the one outcome.
type Coordinator interface {
	// Resolve returns a verdict for the snapshot's subject, from cache when
	// fresh, otherwise via a (possibly shared) scoring call.
	Resolve(ctx context.Context, snapshot *entity.ListingSnapshot) (*entity.RiskVerdict, error)
	// Cached returns the cached verdict for a subject without triggering a
	// scoring call.
	Cached(ctx context.Context, subjectID string) (*entity.RiskVerdict, bool)
	// Invalidate drops the cached verdict for a subject, forcing the next
	// Resolve to score again.
	Invalidate(ctx context.Context, subjectID string) error
}

type coordinatorUseCase struct {
	cache  repository.VerdictCacheRepository
	scorer repository.ScorerRepository
	group  singleflight.Group
}

// NewCoordinator creates the coordinator. It takes exclusive ownership of the
// cache: no other component reads or writes it.
func NewCoordinator(cache repository.VerdictCacheRepository, scorer repository.ScorerRepository) Coordinator {
	return &coordinatorUseCase{cache: cache, scorer: scorer}
}

func (uc *coordinatorUseCase) Resolve(ctx context.Context, snapshot *entity.ListingSnapshot) (*entity.RiskVerdict, error) {
	if !snapshot.HasSubject() {
		return nil, repository.ErrNoSubject
	}
	key := snapshot.SubjectID

	if cached, ok := uc.Cached(ctx, key); ok {
		metrics.CacheLookups.WithLabelValues("hit").Inc()
		return cached, nil
	}
	metrics.CacheLookups.WithLabelValues("miss").Inc()

	ch := uc.group.DoChan(key, func() (interface{}, error) {
		// The call outlives any individual caller: a subject abandoned by
		// navigation still settles, and its verdict is cached for a possible
		// return visit.
		callCtx := context.WithoutCancel(ctx)

		verdict, err := uc.scorer.Score(callCtx, snapshot)
		if err != nil {
			// Failures are never cached; the next Resolve starts fresh.
			return nil, err
		}
		if putErr := uc.cache.Put(callCtx, key, verdict); putErr != nil {
			slog.Warn("Failed to cache verdict", "subject", key, "error", putErr)
		}
		return verdict, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			metrics.CoalescedCalls.Inc()
		}
		return res.Val.(*entity.RiskVerdict), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (uc *coordinatorUseCase) Cached(ctx context.Context, subjectID string) (*entity.RiskVerdict, bool) {
	verdict, ok, err := uc.cache.Get(ctx, subjectID)
	if err != nil {
		slog.Warn("Verdict cache lookup failed", "subject", subjectID, "error", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}
	// The stored verdict stays untouched; the caller sees a copy labeled as
	// coming from the cache.
	cached := *verdict
	cached.Source = entity.SourceCached
	return &cached, true
}

func (uc *coordinatorUseCase) Invalidate(ctx context.Context, subjectID string) error {
	return uc.cache.Invalidate(ctx, subjectID)
}
