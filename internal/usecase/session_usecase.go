package usecase

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/user/listing-risk-service/internal/extractor"
	"github.com/user/listing-risk-service/internal/repository"
	"github.com/user/listing-risk-service/pkg/metrics"
)

// WatchSession runs the full pipeline against one live page for the lifetime
// of its view: watcher → extractor → coordinator → renderer. Only scoring
// suspends; extraction and classification run inline on the event stream.
type WatchSession struct {
	page        repository.PageSessionRepository
	extractor   *extractor.Extractor
	coordinator Coordinator
	renderer    repository.Renderer
	history     repository.VerdictHistoryRepository
	watcher     *ChangeWatcher

	mu        sync.Mutex
	displayed string
	runCtx    context.Context
}

// NewWatchSession wires a session. The session takes ownership of the page
// handle and closes it when Run returns.
func NewWatchSession(
	page repository.PageSessionRepository,
	ext *extractor.Extractor,
	coordinator Coordinator,
	renderer repository.Renderer,
	history repository.VerdictHistoryRepository,
	debounce time.Duration,
) *WatchSession {
	s := &WatchSession{
		page:        page,
		extractor:   ext,
		coordinator: coordinator,
		renderer:    renderer,
		history:     history,
	}
	s.watcher = NewChangeWatcher(debounce, s.probeIdentity, s.analyze)
	return s
}

// Run analyzes the page once, then reacts to mutation events until the
// context ends or the page session closes.
func (s *WatchSession) Run(ctx context.Context) error {
	defer s.page.Close()

	s.mu.Lock()
	s.runCtx = ctx
	s.mu.Unlock()

	mutations, err := s.page.Mutations(ctx)
	if err != nil {
		return err
	}

	metrics.ActiveSessions.Inc()
	defer metrics.ActiveSessions.Dec()

	s.runCycle(ctx)

	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-mutations:
			if !ok {
				return nil
			}
			s.watcher.NoteMutation()
		}
	}
}

// Watcher exposes the state machine, mainly for tests and diagnostics.
func (s *WatchSession) Watcher() *ChangeWatcher {
	return s.watcher
}

func (s *WatchSession) analyze() {
	s.mu.Lock()
	ctx := s.runCtx
	s.mu.Unlock()
	if ctx == nil {
		ctx = context.Background()
	}
	s.runCycle(ctx)
}

func (s *WatchSession) runCycle(ctx context.Context) {
	view, err := s.page.Snapshot(ctx)
	if err != nil {
		slog.Error("Failed to snapshot page", "error", err)
		metrics.AnalysesTotal.WithLabelValues("failure", "page_load").Inc()
		return
	}

	snapshot := s.extractor.Extract(view)
	if !snapshot.HasSubject() {
		s.setDisplayed("")
		s.watcher.SetAnalyzed("")
		s.renderer.Clear()
		metrics.AnalysesTotal.WithLabelValues("no_subject", "").Inc()
		return
	}

	// The new subject becomes current before scoring settles, so a verdict
	// arriving late for a subject the user already left is never rendered.
	s.setDisplayed(snapshot.SubjectID)
	s.watcher.SetAnalyzed(snapshot.SubjectID)

	verdict, err := s.coordinator.Resolve(ctx, snapshot)
	if err != nil {
		metrics.AnalysesTotal.WithLabelValues("failure", failureKind(err)).Inc()
		if s.currentDisplayed() == snapshot.SubjectID {
			s.renderer.RenderFailure(snapshot.SubjectID, err)
		}
		return
	}

	if s.currentDisplayed() != snapshot.SubjectID {
		slog.Debug("Discarding verdict for abandoned subject",
			"subject", snapshot.SubjectID, "displayed", s.currentDisplayed())
		return
	}

	s.renderer.RenderVerdict(verdict)
	metrics.AnalysesTotal.WithLabelValues("success", "").Inc()
	recordHistory(s.history, verdict)
}

// probeIdentity derives the current subject from the page address alone; the
// watcher calls it on every mutation tick.
func (s *WatchSession) probeIdentity() string {
	s.mu.Lock()
	ctx := s.runCtx
	s.mu.Unlock()
	if ctx == nil {
		ctx = context.Background()
	}

	loc, err := s.page.Location(ctx)
	if err != nil {
		// Can't tell; treat as unchanged so the mutation just debounces.
		return s.currentDisplayed()
	}
	return extractor.SubjectFromURL(loc)
}

func (s *WatchSession) setDisplayed(subjectID string) {
	s.mu.Lock()
	s.displayed = subjectID
	s.mu.Unlock()
}

func (s *WatchSession) currentDisplayed() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.displayed
}
