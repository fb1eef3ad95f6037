package repository

import (
	"context"

	"github.com/user/listing-risk-service/internal/entity"
)

// PageSessionRepository defines read-only access to a live third-party page:
// on-demand capture of its current rendered state and a subscription to
// structural-change notifications.
type PageSessionRepository interface {
	// Snapshot captures the page's current URL and serialized DOM.
	Snapshot(ctx context.Context) (*entity.PageView, error)
	// Location returns the page's current URL without serializing the DOM.
	Location(ctx context.Context) (string, error)
	// Mutations emits an event whenever the page structure changes. The
	// channel closes when the session or context ends.
	Mutations(ctx context.Context) (<-chan struct{}, error)
	// Close releases the underlying browser resources.
	Close() error
}
