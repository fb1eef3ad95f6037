package repository

import "github.com/user/listing-risk-service/internal/entity"

// Renderer is the external display collaborator. It receives verdicts and
// failures as display-only input; it performs no extraction or scoring.
type Renderer interface {
	// RenderVerdict shows the verdict for the currently displayed subject.
	RenderVerdict(verdict *entity.RiskVerdict)
	// RenderFailure shows a typed analysis failure for a subject. A verdict is
	// never fabricated on failure.
	RenderFailure(subjectID string, err error)
	// Clear removes any shown state; emitted when no subject is present.
	Clear()
}
