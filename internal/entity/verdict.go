package entity

import "time"

// RiskLevel is the discrete classification of a risk score.
type RiskLevel string

const (
	LevelSafe     RiskLevel = "SAFE"
	LevelLow      RiskLevel = "LOW"
	LevelMedium   RiskLevel = "MEDIUM"
	LevelHigh     RiskLevel = "HIGH"
	LevelCritical RiskLevel = "CRITICAL"
)

// VerdictSource records whether a verdict came from the cache or a fresh
// scoring call.
type VerdictSource string

const (
	SourceFresh  VerdictSource = "fresh"
	SourceCached VerdictSource = "cached"
)

// Signal is server-side metadata explaining a scoring decision. The classifier
// ignores signals; they are carried through for display.
type Signal struct {
	Feature     string  `json:"feature"`
	Explanation string  `json:"explanation,omitempty"`
	Impact      float64 `json:"impact,omitempty"`
}

// RiskVerdict is the classified risk output for one subject.
type RiskVerdict struct {
	SubjectID    string        `json:"subject_id"`
	Score        float64       `json:"score"`
	Level        RiskLevel     `json:"level"`
	Source       VerdictSource `json:"source"`
	Signals      []Signal      `json:"signals,omitempty"`
	ModelVersion string        `json:"model_version,omitempty"`
	ScoredAt     time.Time     `json:"scored_at"`
}
