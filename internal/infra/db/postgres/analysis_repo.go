package postgres

import (
	"context"
	"database/sql"
	"time"

	domain "github.com/bryanwahyu/threat-console/internal/domain/threat"
)

type AnalysisRepository struct {
	db *sql.DB
}

func NewAnalysisRepository(db *sql.DB) *AnalysisRepository {
	return &AnalysisRepository{db: db}
}

// Save inserts or updates an analysis record
func (r *AnalysisRepository) Save(ctx context.Context, a *domain.AnalysisResult) error {
	const q = `
INSERT INTO threat_analysis
  (id, tenant_id, mode, subject, score, level, narrative, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
ON CONFLICT (id) DO UPDATE SET
  score=EXCLUDED.score,
  level=EXCLUDED.level,
  narrative=EXCLUDED.narrative;
`
	createdAt := a.Timestamp
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err := r.db.ExecContext(ctx, q,
		string(a.ID), stringOrDash(a.TenantID), string(a.Mode), stringOrDash(a.Subject),
		a.Score, string(a.Level), a.Narrative, createdAt,
	)
	return err
}

// Latest returns the newest records for a tenant
func (r *AnalysisRepository) Latest(ctx context.Context, tenant string, limit int) ([]*domain.AnalysisResult, error) {
	const q = `
SELECT id, tenant_id, mode, subject, score, level, narrative, created_at
FROM threat_analysis
WHERE tenant_id=$1
ORDER BY created_at DESC, id DESC
LIMIT $2;
`
	rows, err := r.db.QueryContext(ctx, q, tenant, clampLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*domain.AnalysisResult{}
	for rows.Next() {
		var a domain.AnalysisResult
		var id, mode, level string
		if err := rows.Scan(&id, &a.TenantID, &mode, &a.Subject, &a.Score, &level, &a.Narrative, &a.Timestamp); err != nil {
			return nil, err
		}
		a.ID = domain.AnalysisID(id)
		a.Mode = domain.Mode(mode)
		a.Level = domain.Level(level)
		out = append(out, &a)
	}
	return out, rows.Err()
}
