package postgres

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/lib/pq"
)

func Connect(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx2, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx2); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// Schema creates the archive tables when they are missing.
const Schema = `
CREATE TABLE IF NOT EXISTS threat_analysis (
  id          VARCHAR(64)  PRIMARY KEY,
  tenant_id   VARCHAR(64)  NOT NULL,
  mode        VARCHAR(16)  NOT NULL,
  subject     VARCHAR(128) NOT NULL,
  score       INTEGER      NOT NULL CHECK (score BETWEEN 0 AND 100),
  level       VARCHAR(16)  NOT NULL,
  narrative   TEXT         NOT NULL,
  created_at  TIMESTAMPTZ  NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_threat_analysis_tenant ON threat_analysis (tenant_id, created_at DESC);
CREATE TABLE IF NOT EXISTS mail_dispatch (
  id          VARCHAR(64)  PRIMARY KEY,
  tenant_id   VARCHAR(64)  NOT NULL,
  template_id VARCHAR(64)  NOT NULL,
  recipient   VARCHAR(320) NOT NULL,
  status      VARCHAR(16)  NOT NULL,
  message     TEXT         NOT NULL,
  created_at  TIMESTAMPTZ  NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_mail_dispatch_tenant ON mail_dispatch (tenant_id, created_at DESC);`

// Migrate applies Schema. lib/pq accepts several statements in one Exec
// when no parameters are bound.
func Migrate(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, Schema)
	return err
}
