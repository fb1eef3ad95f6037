package usecase

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/user/listing-risk-service/internal/entity"
	"github.com/user/listing-risk-service/internal/extractor"
	"github.com/user/listing-risk-service/internal/repository"
)

// ErrSessionNotFound means no watch session exists with the given ID.
var ErrSessionNotFound = errors.New("watch session not found")

// StatefulRenderer is a Renderer that can report what it currently shows.
// Watch sessions expose their display through it.
type StatefulRenderer interface {
	repository.Renderer
	State() entity.DisplayState
}

// RendererFactory creates the per-session display store.
type RendererFactory func() StatefulRenderer

// SessionInfo is a point-in-time view of one watch session.
type SessionInfo struct {
	ID        string
	URL       string
	StartedAt time.Time
	Watcher   WatcherState
	Display   entity.DisplayState
}

// SessionManager owns the set of live watch sessions. Each session holds one
// browser page open and keeps its rendered verdict current until closed.
type SessionManager struct {
	pages       SessionFactory
	extractor   *extractor.Extractor
	coordinator Coordinator
	history     repository.VerdictHistoryRepository
	renderers   RendererFactory
	debounce    time.Duration

	mu       sync.Mutex
	sessions map[string]*managedSession
}

type managedSession struct {
	id        string
	url       string
	startedAt time.Time
	session   *WatchSession
	renderer  StatefulRenderer
	cancel    context.CancelFunc
	done      chan struct{}
}

// NewSessionManager creates an empty manager.
func NewSessionManager(
	pages SessionFactory,
	ext *extractor.Extractor,
	coordinator Coordinator,
	history repository.VerdictHistoryRepository,
	renderers RendererFactory,
	debounce time.Duration,
) *SessionManager {
	return &SessionManager{
		pages:       pages,
		extractor:   ext,
		coordinator: coordinator,
		history:     history,
		renderers:   renderers,
		debounce:    debounce,
		sessions:    make(map[string]*managedSession),
	}
}

// Open starts a watch session for a listing URL and returns its initial view.
// The session outlives the request that created it and runs until Close.
func (m *SessionManager) Open(ctx context.Context, url string) (*SessionInfo, error) {
	page, err := m.pages(url)
	if err != nil {
		return nil, err
	}

	renderer := m.renderers()
	watch := NewWatchSession(page, m.extractor, m.coordinator, renderer, m.history, m.debounce)
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))

	ms := &managedSession{
		id:        uuid.NewString(),
		url:       url,
		startedAt: time.Now(),
		session:   watch,
		renderer:  renderer,
		cancel:    cancel,
		done:      make(chan struct{}),
	}

	m.mu.Lock()
	m.sessions[ms.id] = ms
	m.mu.Unlock()

	go func() {
		defer close(ms.done)
		if err := watch.Run(runCtx); err != nil {
			slog.Error("Watch session ended with error", "session", ms.id, "url", ms.url, "error", err)
		}
		m.remove(ms.id)
	}()

	slog.Info("Opened watch session", "session", ms.id, "url", url)
	return ms.info(), nil
}

// Get returns the current view of one session.
func (m *SessionManager) Get(id string) (*SessionInfo, error) {
	m.mu.Lock()
	ms, ok := m.sessions[id]
	m.mu.Unlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	return ms.info(), nil
}

// List returns views of all live sessions.
func (m *SessionManager) List() []*SessionInfo {
	m.mu.Lock()
	defer m.mu.Unlock()
	infos := make([]*SessionInfo, 0, len(m.sessions))
	for _, ms := range m.sessions {
		infos = append(infos, ms.info())
	}
	return infos
}

// Close stops a session and releases its page.
func (m *SessionManager) Close(id string) error {
	m.mu.Lock()
	ms, ok := m.sessions[id]
	m.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}

	ms.cancel()
	<-ms.done
	slog.Info("Closed watch session", "session", id)
	return nil
}

// CloseAll stops every session; used on shutdown.
func (m *SessionManager) CloseAll() {
	m.mu.Lock()
	open := make([]*managedSession, 0, len(m.sessions))
	for _, ms := range m.sessions {
		open = append(open, ms)
	}
	m.mu.Unlock()

	for _, ms := range open {
		ms.cancel()
		<-ms.done
	}
}

func (m *SessionManager) remove(id string) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
}

func (ms *managedSession) info() *SessionInfo {
	return &SessionInfo{
		ID:        ms.id,
		URL:       ms.url,
		StartedAt: ms.startedAt,
		Watcher:   ms.session.Watcher().State(),
		Display:   ms.renderer.State(),
	}
}
