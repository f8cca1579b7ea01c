package mysql

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

// Save inserts an analysis record
func (r *AnalysisRepository) Save(ctx context.Context, a *domain.AnalysisResult) error {
	const q = `
INSERT INTO threat_analysis
  (id, tenant_id, mode, subject, score, level, narrative, created_at)
VALUES (?,?,?,?,?,?,?,?)
ON DUPLICATE KEY UPDATE
  score=VALUES(score), level=VALUES(level), narrative=VALUES(narrative);
`
	createdAt := a.Timestamp
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err := r.db.ExecContext(ctx, q,
		string(a.ID), stringOrDash(a.TenantID), string(a.Mode), stringOrDash(a.Subject),
		a.Score, string(a.Level), a.Narrative, createdAt.UTC(),
	)
	return err
}

// Latest returns the newest records for a tenant
func (r *AnalysisRepository) Latest(ctx context.Context, tenant string, limit int) ([]*domain.AnalysisResult, error) {
	const q = `
SELECT id, tenant_id, mode, subject, score, level, narrative, created_at
FROM threat_analysis
WHERE tenant_id=?
ORDER BY created_at DESC, id DESC
LIMIT ?;
`
	rows, err := r.db.QueryContext(ctx, q, tenant, clampLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*domain.AnalysisResult{}
	for rows.Next() {
		var a domain.AnalysisResult
		var mode, level string
		if err := rows.Scan(&a.ID, &a.TenantID, &mode, &a.Subject, &a.Score, &level, &a.Narrative, &a.Timestamp); err != nil {
			return nil, err
		}
		a.Mode = domain.Mode(mode)
		a.Level = domain.Level(level)
		out = append(out, &a)
	}
	return out, rows.Err()
}
