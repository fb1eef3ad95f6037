package response

import (
	"time"

	"github.com/user/listing-risk-service/internal/entity"
	"github.com/user/listing-risk-service/internal/usecase"
)

type SignalResponse struct {
	Feature     string  `json:"feature"`
	Explanation string  `json:"explanation,omitempty"`
	Impact      float64 `json:"impact"`
}

// VerdictResponse is a DTO for a risk verdict, mirroring entity.RiskVerdict.
type VerdictResponse struct {
	SubjectID    string           `json:"subject_id"`
	Score        float64          `json:"score"`
	Level        string           `json:"level"`
	Source       string           `json:"source"`
	Signals      []SignalResponse `json:"signals,omitempty"`
	ModelVersion string           `json:"model_version,omitempty"`
	ScoredAt     time.Time        `json:"scored_at"`
}

func NewVerdictResponse(v *entity.RiskVerdict) VerdictResponse {
	signals := make([]SignalResponse, 0, len(v.Signals))
	for _, s := range v.Signals {
		signals = append(signals, SignalResponse{
			Feature:     s.Feature,
			Explanation: s.Explanation,
			Impact:      s.Impact,
		})
	}
	return VerdictResponse{
		SubjectID:    v.SubjectID,
		Score:        v.Score,
		Level:        string(v.Level),
		Source:       string(v.Source),
		Signals:      signals,
		ModelVersion: v.ModelVersion,
		ScoredAt:     v.ScoredAt,
	}
}

type SessionResponse struct {
	ID        string           `json:"id"`
	URL       string           `json:"url"`
	StartedAt time.Time        `json:"started_at"`
	Watcher   string           `json:"watcher_state"`
	SubjectID string           `json:"subject_id,omitempty"`
	Verdict   *VerdictResponse `json:"verdict,omitempty"`
	Failure   string           `json:"failure,omitempty"`
	Cleared   bool             `json:"cleared"`
}

func NewSessionResponse(info *usecase.SessionInfo) SessionResponse {
	resp := SessionResponse{
		ID:        info.ID,
		URL:       info.URL,
		StartedAt: info.StartedAt,
		Watcher:   info.Watcher.String(),
		SubjectID: info.Display.SubjectID,
		Failure:   info.Display.Failure,
		Cleared:   info.Display.Cleared,
	}
	if info.Display.Verdict != nil {
		v := NewVerdictResponse(info.Display.Verdict)
		resp.Verdict = &v
	}
	return resp
}
