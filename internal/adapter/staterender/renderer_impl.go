package staterender

import (
	"log/slog"
	"sync"
	"time"

	"github.com/user/listing-risk-service/internal/entity"
)

// RendererImpl implements the Renderer port as an in-process latest-state
// store. The actual display surface polls it; this service never draws
// anything itself.
type RendererImpl struct {
	mu    sync.RWMutex
	state entity.DisplayState
}

// NewRenderer creates a renderer holding a cleared state.
func NewRenderer() *RendererImpl {
	return &RendererImpl{state: entity.DisplayState{Cleared: true, UpdatedAt: time.Now()}}
}

func (r *RendererImpl) RenderVerdict(verdict *entity.RiskVerdict) {
	slog.Info("Rendering verdict",
		"subject", verdict.SubjectID, "score", verdict.Score, "level", verdict.Level, "source", verdict.Source)
	r.mu.Lock()
	r.state = entity.DisplayState{SubjectID: verdict.SubjectID, Verdict: verdict, UpdatedAt: time.Now()}
	r.mu.Unlock()
}

func (r *RendererImpl) RenderFailure(subjectID string, err error) {
	slog.Warn("Rendering analysis failure", "subject", subjectID, "error", err)
	r.mu.Lock()
	r.state = entity.DisplayState{SubjectID: subjectID, Failure: err.Error(), UpdatedAt: time.Now()}
	r.mu.Unlock()
}

func (r *RendererImpl) Clear() {
	slog.Info("Clearing rendered state")
	r.mu.Lock()
	r.state = entity.DisplayState{Cleared: true, UpdatedAt: time.Now()}
	r.mu.Unlock()
}

// State returns the latest display state.
func (r *RendererImpl) State() entity.DisplayState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}
