package usecase

import (
	"sync"
	"time"
)

// WatcherState is the change watcher's position in its state machine.
type WatcherState int

const (
	StateIdle WatcherState = iota
	StateDebouncing
	StatePendingAnalysis
)

func (s WatcherState) String() string {
	switch s {
	case StateDebouncing:
		return "debouncing"
	case StatePendingAnalysis:
		return "pending_analysis"
	default:
		return "idle"
	}
}

// ChangeWatcher folds bursts of structural page mutations into single
// analysis triggers. A quiet period must elapse before a trigger fires,
// except when the subject identity itself changed: navigation must not wait
// out a debounce window while a stale verdict stays on screen.
type ChangeWatcher struct {
	debounce time.Duration
	identity func() string // cheap current-subject probe, no DOM walk
	analyze  func()

	mu           sync.Mutex
	state        WatcherState
	timer        *time.Timer
	lastAnalyzed string
	running      bool // an analysis is in flight; at most one at a time
	rearm        bool // a mutation landed mid-analysis and still needs handling
}

// NewChangeWatcher creates a watcher in the Idle state. identity derives the
// current subject from the page address; analyze starts one analysis cycle.
func NewChangeWatcher(debounce time.Duration, identity func() string, analyze func()) *ChangeWatcher {
	return &ChangeWatcher{
		debounce: debounce,
		identity: identity,
		analyze:  analyze,
	}
}

// NoteMutation records one structural mutation event. Same-subject mutations
// (re)start the debounce timer; an identity change triggers immediately. A
// mutation observed while an analysis is in flight is folded into a rearm
// flag that the running analysis settles on completion, so no change is ever
// dropped.
func (w *ChangeWatcher) NoteMutation() {
	current := w.identity()

	w.mu.Lock()
	if w.running {
		w.rearm = true
		w.mu.Unlock()
		return
	}

	if current != w.lastAnalyzed {
		w.stopTimerLocked()
		w.state = StatePendingAnalysis
		w.running = true
		w.mu.Unlock()
		w.run()
		return
	}

	w.state = StateDebouncing
	w.stopTimerLocked()
	w.timer = time.AfterFunc(w.debounce, w.debounceElapsed)
	w.mu.Unlock()
}

func (w *ChangeWatcher) debounceElapsed() {
	w.mu.Lock()
	if w.state != StateDebouncing || w.running {
		w.mu.Unlock()
		return
	}
	w.state = StatePendingAnalysis
	w.running = true
	w.mu.Unlock()
	w.run()
}

// run executes analyses until no mutation arrived mid-flight. The running
// flag is set by the caller under the lock, which keeps the timer path and
// the identity-bypass path from analyzing the same subject in parallel.
func (w *ChangeWatcher) run() {
	for {
		w.analyze()

		w.mu.Lock()
		if !w.rearm {
			w.running = false
			w.state = StateIdle
			w.mu.Unlock()
			return
		}
		w.rearm = false
		last := w.lastAnalyzed
		w.mu.Unlock()

		// Navigation mid-analysis: go straight into the next cycle.
		if w.identity() != last {
			w.mu.Lock()
			w.state = StatePendingAnalysis
			w.mu.Unlock()
			continue
		}

		// Same subject changed under the running analysis; wait out a fresh
		// quiet period before re-analyzing.
		w.mu.Lock()
		w.rearm = false
		w.running = false
		w.state = StateDebouncing
		w.stopTimerLocked()
		w.timer = time.AfterFunc(w.debounce, w.debounceElapsed)
		w.mu.Unlock()
		return
	}
}

// SetAnalyzed records which subject the last completed cycle analyzed; "" for
// a no-subject page. The identity-change bypass compares against it.
func (w *ChangeWatcher) SetAnalyzed(subjectID string) {
	w.mu.Lock()
	w.lastAnalyzed = subjectID
	w.mu.Unlock()
}

// State reports the current state machine position.
func (w *ChangeWatcher) State() WatcherState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

func (w *ChangeWatcher) stopTimerLocked() {
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
}
