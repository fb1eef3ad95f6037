package scoringapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"time"

	"github.com/user/listing-risk-service/internal/classifier"
	"github.com/user/listing-risk-service/internal/entity"
	"github.com/user/listing-risk-service/internal/repository"
	"github.com/user/listing-risk-service/pkg/metrics"
)

const jitterFactor = 0.2 // +/- 20%

// Options configures the scoring client. Timeout and retry bounds are
// explicit; the reference defaults live in pkg/config, not here.
type Options struct {
	BaseURL        string
	APIKey         string
	AttemptTimeout time.Duration
	MaxAttempts    int
	BackoffBase    time.Duration
}

// Client talks to the remote scoring endpoint over HTTP.
type Client struct {
	httpClient *http.Client
	opts       Options
}

// NewClient creates a new scoring client implementation.
func NewClient(opts Options) repository.ScorerRepository {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 1
	}
	return &Client{
		// The per-attempt deadline comes from the request context; the
		// transport-level timeout is a backstop only.
		httpClient: &http.Client{Timeout: opts.AttemptTimeout * 4},
		opts:       opts,
	}
}

// scoreResponse is the scoring service's reply. Only Score feeds
// classification; the rest is display metadata carried through verbatim.
type scoreResponse struct {
	Score        float64         `json:"score"`
	ModelVersion string          `json:"model_version"`
	Signals      []entity.Signal `json:"signals"`
}

// Score submits the snapshot and retries transient failures with exponential
// backoff. Scoring is a pure read on the server, so repeating the identical
// request is always safe.
func (c *Client) Score(ctx context.Context, snapshot *entity.ListingSnapshot) (*entity.RiskVerdict, error) {
	body, err := json.Marshal(snapshot)
	if err != nil {
		return nil, &repository.ScoringError{
			SubjectID: snapshot.SubjectID,
			Attempts:  0,
			Kind:      repository.ErrRequestRejected,
			Cause:     err,
		}
	}

	start := time.Now()
	defer func() {
		metrics.ScoringDuration.Observe(time.Since(start).Seconds())
	}()

	var lastErr error
	attempts := 0
	for attempt := 1; attempt <= c.opts.MaxAttempts; attempt++ {
		attempts = attempt
		verdict, attemptErr := c.attempt(ctx, snapshot.SubjectID, body)
		if attemptErr == nil {
			metrics.ScoringRequests.WithLabelValues("success").Inc()
			metrics.ScoringAttempts.Observe(float64(attempt))
			return verdict, nil
		}

		var scErr *repository.ScoringError
		if isRejected(attemptErr) {
			metrics.ScoringRequests.WithLabelValues("rejected").Inc()
			metrics.ScoringAttempts.Observe(float64(attempt))
			scErr = &repository.ScoringError{
				SubjectID: snapshot.SubjectID,
				Attempts:  attempt,
				Kind:      repository.ErrRequestRejected,
				Cause:     attemptErr,
			}
			return nil, scErr
		}

		metrics.ScoringRequests.WithLabelValues("transient").Inc()
		lastErr = attemptErr
		slog.Warn("Transient scoring failure",
			"subject", snapshot.SubjectID, "attempt", attempt, "error", attemptErr)

		if attempt < c.opts.MaxAttempts {
			if err := c.backoff(ctx, attempt); err != nil {
				// The caller gave up between attempts. That is not exhaustion;
				// surface the cancellation itself and report what actually ran.
				metrics.ScoringRequests.WithLabelValues("canceled").Inc()
				metrics.ScoringAttempts.Observe(float64(attempts))
				return nil, err
			}
		}
	}

	metrics.ScoringRequests.WithLabelValues("exhausted").Inc()
	metrics.ScoringAttempts.Observe(float64(attempts))
	return nil, &repository.ScoringError{
		SubjectID: snapshot.SubjectID,
		Attempts:  attempts,
		Kind:      repository.ErrScoringExhausted,
		Cause:     lastErr,
	}
}

// rejectedError marks application-level refusals that must not be retried.
type rejectedError struct{ status int }

func (e *rejectedError) Error() string {
	return fmt.Sprintf("scoring service rejected request with status %d", e.status)
}

func isRejected(err error) bool {
	_, ok := err.(*rejectedError)
	return ok
}

func (c *Client) attempt(ctx context.Context, subjectID string, body []byte) (*entity.RiskVerdict, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.opts.AttemptTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodPost, c.opts.BaseURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.opts.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.opts.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Network errors and attempt timeouts surface here; both transient.
		return nil, fmt.Errorf("%w: %v", repository.ErrScoringTransient, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		// Fall through to decoding.
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return nil, &rejectedError{status: resp.StatusCode}
	default:
		return nil, fmt.Errorf("%w: server returned status %d", repository.ErrScoringTransient, resp.StatusCode)
	}

	var decoded scoreResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("%w: malformed response body: %v", repository.ErrScoringTransient, err)
	}
	if decoded.Score < 0 || decoded.Score > 100 {
		return nil, fmt.Errorf("%w: score %v outside [0,100]", repository.ErrScoringTransient, decoded.Score)
	}

	return &entity.RiskVerdict{
		SubjectID:    subjectID,
		Score:        decoded.Score,
		Level:        classifier.Classify(decoded.Score),
		Source:       entity.SourceFresh,
		Signals:      decoded.Signals,
		ModelVersion: decoded.ModelVersion,
		ScoredAt:     time.Now(),
	}, nil
}

// backoff sleeps for base*2^(attempt-1) with jitter, honoring cancellation.
func (c *Client) backoff(ctx context.Context, attempt int) error {
	delay := c.opts.BackoffBase << (attempt - 1)
	jitter := 1 + jitterFactor*(2*rand.Float64()-1)
	delay = time.Duration(float64(delay) * jitter)

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
