package postgres

import (
	"context"
	"database/sql"
	"strings"
	"time"

	domain "github.com/bryanwahyu/threat-console/internal/domain/mail"
)

type DispatchRepository struct {
	db *sql.DB
}

func NewDispatchRepository(db *sql.DB) *DispatchRepository { return &DispatchRepository{db: db} }

func (r *DispatchRepository) Save(ctx context.Context, d *domain.Dispatch) error {
	const q = `
INSERT INTO mail_dispatch
  (id, tenant_id, template_id, recipient, status, message, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)
`
	msg := d.Message
	if strings.TrimSpace(msg) == "" {
		msg = "-"
	}
	created := d.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	_, err := r.db.ExecContext(ctx, q,
		d.ID, stringOrDash(d.TenantID), stringOrDash(d.TemplateID), stringOrDash(d.Recipient),
		string(d.Status), msg, created,
	)
	return err
}

func (r *DispatchRepository) ListByTenant(ctx context.Context, tenant string, limit int) ([]*domain.Dispatch, error) {
	const q = `
SELECT id, tenant_id, template_id, recipient, status, message, created_at
FROM mail_dispatch
WHERE tenant_id = $1
ORDER BY created_at DESC, id DESC
LIMIT $2;`
	rows, err := r.db.QueryContext(ctx, q, tenant, clampLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*domain.Dispatch{}
	for rows.Next() {
		var d domain.Dispatch
		var status string
		if err := rows.Scan(&d.ID, &d.TenantID, &d.TemplateID, &d.Recipient, &status, &d.Message, &d.CreatedAt); err != nil {
			return nil, err
		}
		d.Status = domain.Status(status)
		out = append(out, &d)
	}
	return out, rows.Err()
}
