package usecase

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/listing-risk-service/internal/adapter/memcache"
	"github.com/user/listing-risk-service/internal/entity"
	"github.com/user/listing-risk-service/internal/extractor"
	"github.com/user/listing-risk-service/internal/repository"
)

type fakePage struct {
	mu   sync.Mutex
	url  string
	muts chan struct{}
}

func newFakePage(subject string) *fakePage {
	p := &fakePage{muts: make(chan struct{}, 16)}
	p.setSubject(subject)
	return p
}

func (p *fakePage) setSubject(subject string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if subject == "" {
		p.url = "https://www.example-market.com/deals"
		return
	}
	p.url = fmt.Sprintf("https://www.example-market.com/itm/%s", subject)
}

func (p *fakePage) Snapshot(ctx context.Context) (*entity.PageView, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	html := `<html><body><h1 data-testid="x-item-title">Vintage Camera</h1></body></html>`
	return &entity.PageView{URL: p.url, HTML: html, RetrievedAt: time.Now()}, nil
}

func (p *fakePage) Location(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.url, nil
}

func (p *fakePage) Mutations(ctx context.Context) (<-chan struct{}, error) {
	return p.muts, nil
}

func (p *fakePage) Close() error { return nil }

type fakeRenderer struct {
	mu       sync.Mutex
	verdicts []*entity.RiskVerdict
	failures []string
	clears   int
}

func (r *fakeRenderer) RenderVerdict(v *entity.RiskVerdict) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.verdicts = append(r.verdicts, v)
}

func (r *fakeRenderer) RenderFailure(subjectID string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures = append(r.failures, subjectID)
}

func (r *fakeRenderer) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clears++
}

func (r *fakeRenderer) renderedSubjects() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	subjects := make([]string, len(r.verdicts))
	for i, v := range r.verdicts {
		subjects[i] = v.SubjectID
	}
	return subjects
}

// blockingScorer blocks scoring calls for chosen subjects until released.
type blockingScorer struct {
	mu      sync.Mutex
	blocked map[string]chan struct{}
	started map[string]chan struct{}
}

func newBlockingScorer() *blockingScorer {
	return &blockingScorer{
		blocked: make(map[string]chan struct{}),
		started: make(map[string]chan struct{}),
	}
}

func (s *blockingScorer) block(subject string) (started, release chan struct{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	started = make(chan struct{})
	release = make(chan struct{})
	s.started[subject] = started
	s.blocked[subject] = release
	return started, release
}

func (s *blockingScorer) Score(ctx context.Context, snapshot *entity.ListingSnapshot) (*entity.RiskVerdict, error) {
	s.mu.Lock()
	started := s.started[snapshot.SubjectID]
	release := s.blocked[snapshot.SubjectID]
	s.mu.Unlock()

	if started != nil {
		close(started)
	}
	if release != nil {
		<-release
	}
	return &entity.RiskVerdict{
		SubjectID: snapshot.SubjectID,
		Score:     55,
		Level:     entity.LevelMedium,
		Source:    entity.SourceFresh,
		ScoredAt:  time.Now(),
	}, nil
}

func newSession(page repository.PageSessionRepository, scorer repository.ScorerRepository, renderer repository.Renderer) *WatchSession {
	coord := NewCoordinator(memcache.NewVerdictCache(time.Minute), scorer)
	return NewWatchSession(page, extractor.New(5), coord, renderer, nil, 10*time.Millisecond)
}

func TestCycleRendersVerdict(t *testing.T) {
	page := newFakePage("111")
	renderer := &fakeRenderer{}
	session := newSession(page, newBlockingScorer(), renderer)

	session.runCycle(context.Background())

	require.Len(t, renderer.verdicts, 1)
	assert.Equal(t, "111", renderer.verdicts[0].SubjectID)
	assert.Equal(t, entity.LevelMedium, renderer.verdicts[0].Level)
}

func TestCycleNoSubjectClears(t *testing.T) {
	page := newFakePage("")
	renderer := &fakeRenderer{}
	session := newSession(page, newBlockingScorer(), renderer)

	session.runCycle(context.Background())

	assert.Equal(t, 1, renderer.clears)
	assert.Empty(t, renderer.verdicts)
}

func TestCycleFailureRenderedAsFailure(t *testing.T) {
	page := newFakePage("111")
	renderer := &fakeRenderer{}
	scorer := &fakeScorer{errs: []error{
		&repository.ScoringError{SubjectID: "111", Attempts: 3, Kind: repository.ErrScoringExhausted},
	}}
	session := newSession(page, scorer, renderer)

	session.runCycle(context.Background())

	assert.Empty(t, renderer.verdicts, "a failure must never fabricate a verdict")
	require.Len(t, renderer.failures, 1)
	assert.Equal(t, "111", renderer.failures[0])
}

func TestFailureDoesNotBlockNextSubject(t *testing.T) {
	page := newFakePage("111")
	renderer := &fakeRenderer{}
	scorer := &fakeScorer{score: 55, errs: []error{
		&repository.ScoringError{SubjectID: "111", Attempts: 3, Kind: repository.ErrScoringExhausted},
	}}
	session := newSession(page, scorer, renderer)

	session.runCycle(context.Background())
	page.setSubject("222")
	session.runCycle(context.Background())

	assert.Equal(t, []string{"222"}, renderer.renderedSubjects())
}

func TestLateVerdictForAbandonedSubjectSuppressed(t *testing.T) {
	page := newFakePage("111")
	renderer := &fakeRenderer{}
	scorer := newBlockingScorer()
	started, release := scorer.block("111")
	session := newSession(page, scorer, renderer)

	done := make(chan struct{})
	go func() {
		session.runCycle(context.Background())
		close(done)
	}()

	// The user navigates to "222" while "111" is still in flight.
	<-started
	page.setSubject("222")
	session.runCycle(context.Background())

	assert.Equal(t, []string{"222"}, renderer.renderedSubjects())

	// "111" settles late; its verdict must not reach the renderer.
	close(release)
	<-done
	assert.Equal(t, []string{"222"}, renderer.renderedSubjects())

	// Navigating back to "111" reuses the late-cached verdict.
	page.setSubject("111")
	session.runCycle(context.Background())
	subjects := renderer.renderedSubjects()
	require.Len(t, subjects, 2)
	assert.Equal(t, "111", subjects[1])
	assert.Equal(t, entity.SourceCached, renderer.verdicts[1].Source)
}

func TestCycleRecoverableAcrossSubjects(t *testing.T) {
	page := newFakePage("111")
	renderer := &fakeRenderer{}
	scorer := &fakeScorer{score: 55}
	session := newSession(page, scorer, renderer)

	session.runCycle(context.Background())
	page.setSubject("")
	session.runCycle(context.Background())
	page.setSubject("333")
	session.runCycle(context.Background())

	assert.Equal(t, []string{"111", "333"}, renderer.renderedSubjects())
	assert.Equal(t, 1, renderer.clears)
}
