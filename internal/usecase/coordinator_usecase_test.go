package usecase

import (
	"context"
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/listing-risk-service/internal/adapter/memcache"
	"github.com/user/listing-risk-service/internal/entity"
	"github.com/user/listing-risk-service/internal/repository"
	"github.com/user/listing-risk-service/pkg/metrics"
)

func TestMain(m *testing.M) {
	metrics.Init()
	os.Exit(m.Run())
}

// fakeScorer counts invocations and can be scripted to fail or to block
// until released.
type fakeScorer struct {
	calls   atomic.Int32
	delay   time.Duration
	release chan struct{} // when set, Score blocks until closed
	errs    []error       // consumed per call; nil means success
	mu      sync.Mutex
	score   float64
}

func (f *fakeScorer) Score(ctx context.Context, snapshot *entity.ListingSnapshot) (*entity.RiskVerdict, error) {
	n := int(f.calls.Add(1))
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.release != nil {
		<-f.release
	}

	f.mu.Lock()
	var err error
	if n <= len(f.errs) {
		err = f.errs[n-1]
	}
	score := f.score
	f.mu.Unlock()

	if err != nil {
		return nil, err
	}
	return &entity.RiskVerdict{
		SubjectID: snapshot.SubjectID,
		Score:     score,
		Level:     entity.LevelMedium,
		Source:    entity.SourceFresh,
		ScoredAt:  time.Now(),
	}, nil
}

func snapshotFor(subject string) *entity.ListingSnapshot {
	return &entity.ListingSnapshot{SubjectID: subject, ExtractedAt: time.Now()}
}

func TestResolveNoSubject(t *testing.T) {
	coord := NewCoordinator(memcache.NewVerdictCache(time.Minute), &fakeScorer{score: 50})
	_, err := coord.Resolve(context.Background(), &entity.ListingSnapshot{})
	assert.True(t, errors.Is(err, repository.ErrNoSubject))
}

func TestResolveFreshThenCached(t *testing.T) {
	scorer := &fakeScorer{score: 50}
	coord := NewCoordinator(memcache.NewVerdictCache(time.Minute), scorer)

	first, err := coord.Resolve(context.Background(), snapshotFor("111"))
	require.NoError(t, err)
	assert.Equal(t, entity.SourceFresh, first.Source)

	second, err := coord.Resolve(context.Background(), snapshotFor("111"))
	require.NoError(t, err)
	assert.Equal(t, entity.SourceCached, second.Source)
	assert.Equal(t, first.Score, second.Score)
	assert.Equal(t, int32(1), scorer.calls.Load(), "cache hit must not invoke the scorer")
}

func TestResolveCoalescesConcurrentCallers(t *testing.T) {
	scorer := &fakeScorer{score: 72, delay: 50 * time.Millisecond}
	coord := NewCoordinator(memcache.NewVerdictCache(time.Minute), scorer)

	const callers = 10
	results := make([]*entity.RiskVerdict, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := coord.Resolve(context.Background(), snapshotFor("111"))
			assert.NoError(t, err)
			results[i] = v
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), scorer.calls.Load(), "concurrent callers must share one call")
	for i := 1; i < callers; i++ {
		assert.Same(t, results[0], results[i], "all waiters must observe the identical verdict")
	}
}

func TestResolveFailureNotCached(t *testing.T) {
	exhausted := &repository.ScoringError{SubjectID: "111", Attempts: 3, Kind: repository.ErrScoringExhausted}
	scorer := &fakeScorer{score: 30, errs: []error{exhausted}}
	coord := NewCoordinator(memcache.NewVerdictCache(time.Minute), scorer)

	_, err := coord.Resolve(context.Background(), snapshotFor("111"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, repository.ErrScoringExhausted))

	verdict, err := coord.Resolve(context.Background(), snapshotFor("111"))
	require.NoError(t, err, "a failed attempt must not poison the key")
	assert.Equal(t, entity.SourceFresh, verdict.Source)
	assert.Equal(t, int32(2), scorer.calls.Load())
}

func TestResolveExpiredEntryTriggersRescore(t *testing.T) {
	scorer := &fakeScorer{score: 50}
	coord := NewCoordinator(memcache.NewVerdictCache(20*time.Millisecond), scorer)

	_, err := coord.Resolve(context.Background(), snapshotFor("111"))
	require.NoError(t, err)

	time.Sleep(40 * time.Millisecond)

	verdict, err := coord.Resolve(context.Background(), snapshotFor("111"))
	require.NoError(t, err)
	assert.Equal(t, entity.SourceFresh, verdict.Source)
	assert.Equal(t, int32(2), scorer.calls.Load(), "expired entry must be rescored")
}

func TestResolveIndependentSubjectsInFlightConcurrently(t *testing.T) {
	scorer := &fakeScorer{score: 50, delay: 30 * time.Millisecond}
	coord := NewCoordinator(memcache.NewVerdictCache(time.Minute), scorer)

	var wg sync.WaitGroup
	for _, subject := range []string{"111", "222"} {
		wg.Add(1)
		go func(subject string) {
			defer wg.Done()
			v, err := coord.Resolve(context.Background(), snapshotFor(subject))
			if assert.NoError(t, err) {
				assert.Equal(t, subject, v.SubjectID)
			}
		}(subject)
	}
	wg.Wait()

	assert.Equal(t, int32(2), scorer.calls.Load(), "different subjects must not share a record")
}

func TestInvalidateForcesRescore(t *testing.T) {
	scorer := &fakeScorer{score: 50}
	coord := NewCoordinator(memcache.NewVerdictCache(time.Minute), scorer)

	_, err := coord.Resolve(context.Background(), snapshotFor("111"))
	require.NoError(t, err)
	require.NoError(t, coord.Invalidate(context.Background(), "111"))

	verdict, err := coord.Resolve(context.Background(), snapshotFor("111"))
	require.NoError(t, err)
	assert.Equal(t, entity.SourceFresh, verdict.Source)
	assert.Equal(t, int32(2), scorer.calls.Load())
}
