package postgres

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/user/listing-risk-service/internal/entity"
)

// VerdictHistoryImpl provides a concrete implementation for the
// VerdictHistoryRepository interface using PostgreSQL.
type VerdictHistoryImpl struct {
	db *pgxpool.Pool
}

// NewVerdictHistory creates a new instance of VerdictHistoryImpl.
func NewVerdictHistory(db *pgxpool.Pool) *VerdictHistoryImpl {
	return &VerdictHistoryImpl{db: db}
}

// Save appends one verdict to the history table.
func (r *VerdictHistoryImpl) Save(ctx context.Context, verdict *entity.RiskVerdict) error {
	signalsJSON, err := json.Marshal(verdict.Signals)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO verdict_history (subject_id, score, level, source, signals, model_version, scored_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7);
	`

	_, err = r.db.Exec(ctx, query,
		verdict.SubjectID,
		verdict.Score,
		string(verdict.Level),
		string(verdict.Source),
		signalsJSON,
		verdict.ModelVersion,
		verdict.ScoredAt,
	)
	return err
}

// FindLatest retrieves the most recent verdict recorded for a subject.
func (r *VerdictHistoryImpl) FindLatest(ctx context.Context, subjectID string) (*entity.RiskVerdict, error) {
	query := `
		SELECT subject_id, score, level, source, signals, model_version, scored_at
		FROM verdict_history
		WHERE subject_id = $1
		ORDER BY scored_at DESC
		LIMIT 1;
	`
	row := r.db.QueryRow(ctx, query, subjectID)

	var verdict entity.RiskVerdict
	var level, source string
	var signalsJSON []byte

	err := row.Scan(
		&verdict.SubjectID,
		&verdict.Score,
		&level,
		&source,
		&signalsJSON,
		&verdict.ModelVersion,
		&verdict.ScoredAt,
	)
	if err != nil {
		return nil, err // pgx.ErrNoRows will be returned if not found
	}

	verdict.Level = entity.RiskLevel(level)
	verdict.Source = entity.VerdictSource(source)
	if len(signalsJSON) > 0 {
		if err := json.Unmarshal(signalsJSON, &verdict.Signals); err != nil {
			return nil, err
		}
	}

	return &verdict, nil
}
