package entity

import "time"

// DisplayState is what a watch session currently shows: a verdict, a typed
// failure, or nothing at all when the page holds no listing.
type DisplayState struct {
	SubjectID string       `json:"subject_id,omitempty"`
	Verdict   *RiskVerdict `json:"verdict,omitempty"`
	Failure   string       `json:"failure,omitempty"`
	Cleared   bool         `json:"cleared"`
	UpdatedAt time.Time    `json:"updated_at"`
}
