package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/user/listing-risk-service/internal/entity"
	"github.com/user/listing-risk-service/internal/extractor"
	"github.com/user/listing-risk-service/internal/repository"
	"github.com/user/listing-risk-service/pkg/metrics"
)

// ErrVerdictNotFound means no verdict, cached or historical, exists for a
// subject.
var ErrVerdictNotFound = errors.New("no verdict recorded for subject")

const historyTimeout = 3 * time.Second

// SessionFactory opens a live page session for a listing URL.
type SessionFactory func(url string) (repository.PageSessionRepository, error)

// Analyzer is the one-shot entry point: fetch a listing page, extract,
// resolve, return the verdict.
type Analyzer interface {
	// AnalyzeURL runs one full pipeline pass for a listing URL. force drops
	// any cached verdict for the subject first.
	AnalyzeURL(ctx context.Context, url string, force bool) (*entity.RiskVerdict, error)
	// LookupVerdict returns the cached verdict for a subject, falling back to
	// the latest history record when a history store is configured.
	LookupVerdict(ctx context.Context, subjectID string) (*entity.RiskVerdict, error)
}

type analyzerUseCase struct {
	sessions    SessionFactory
	extractor   *extractor.Extractor
	coordinator Coordinator
	history     repository.VerdictHistoryRepository // nil when not configured
}

// NewAnalyzer creates the one-shot analyzer use case.
func NewAnalyzer(
	sessions SessionFactory,
	ext *extractor.Extractor,
	coordinator Coordinator,
	history repository.VerdictHistoryRepository,
) Analyzer {
	return &analyzerUseCase{
		sessions:    sessions,
		extractor:   ext,
		coordinator: coordinator,
		history:     history,
	}
}

func (uc *analyzerUseCase) AnalyzeURL(ctx context.Context, url string, force bool) (*entity.RiskVerdict, error) {
	session, err := uc.sessions(url)
	if err != nil {
		metrics.AnalysesTotal.WithLabelValues("failure", "page_load").Inc()
		return nil, err
	}
	defer session.Close()

	view, err := session.Snapshot(ctx)
	if err != nil {
		metrics.AnalysesTotal.WithLabelValues("failure", "page_load").Inc()
		return nil, err
	}

	snapshot := uc.extractor.Extract(view)
	if !snapshot.HasSubject() {
		metrics.AnalysesTotal.WithLabelValues("no_subject", "").Inc()
		return nil, repository.ErrNoSubject
	}

	if force {
		if err := uc.coordinator.Invalidate(ctx, snapshot.SubjectID); err != nil {
			slog.Warn("Failed to invalidate cached verdict for forced analysis",
				"subject", snapshot.SubjectID, "error", err)
		}
	}

	verdict, err := uc.coordinator.Resolve(ctx, snapshot)
	if err != nil {
		metrics.AnalysesTotal.WithLabelValues("failure", failureKind(err)).Inc()
		return nil, err
	}

	metrics.AnalysesTotal.WithLabelValues("success", "").Inc()
	recordHistory(uc.history, verdict)
	return verdict, nil
}

func (uc *analyzerUseCase) LookupVerdict(ctx context.Context, subjectID string) (*entity.RiskVerdict, error) {
	if verdict, ok := uc.coordinator.Cached(ctx, subjectID); ok {
		return verdict, nil
	}
	if uc.history == nil {
		return nil, ErrVerdictNotFound
	}
	verdict, err := uc.history.FindLatest(ctx, subjectID)
	if err != nil {
		return nil, ErrVerdictNotFound
	}
	return verdict, nil
}

// recordHistory appends a fresh verdict to the audit log without ever
// blocking or failing the pipeline.
func recordHistory(history repository.VerdictHistoryRepository, verdict *entity.RiskVerdict) {
	if history == nil || verdict.Source != entity.SourceFresh {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), historyTimeout)
		defer cancel()
		if err := history.Save(ctx, verdict); err != nil {
			slog.Warn("Failed to record verdict history", "subject", verdict.SubjectID, "error", err)
		}
	}()
}

// failureKind labels an analysis failure for metrics.
func failureKind(err error) string {
	switch {
	case errors.Is(err, repository.ErrNoSubject):
		return "no_subject"
	case errors.Is(err, repository.ErrRequestRejected):
		return "rejected"
	case errors.Is(err, repository.ErrScoringExhausted):
		return "exhausted"
	default:
		return "other"
	}
}
