package mysql

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

func Connect(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	// test ping
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
  id          VARCHAR(64)  NOT NULL PRIMARY KEY,
  tenant_id   VARCHAR(64)  NOT NULL,
  mode        VARCHAR(16)  NOT NULL,
  subject     VARCHAR(128) NOT NULL,
  score       INT          NOT NULL,
  level       VARCHAR(16)  NOT NULL,
  narrative   MEDIUMTEXT   NOT NULL,
  created_at  DATETIME(3)  NOT NULL,
  KEY idx_threat_analysis_tenant (tenant_id, created_at)
);
CREATE TABLE IF NOT EXISTS mail_dispatch (
  id          VARCHAR(64)  NOT NULL PRIMARY KEY,
  tenant_id   VARCHAR(64)  NOT NULL,
  template_id VARCHAR(64)  NOT NULL,
  recipient   VARCHAR(320) NOT NULL,
  status      VARCHAR(16)  NOT NULL,
  message     TEXT         NOT NULL,
  created_at  DATETIME(3)  NOT NULL,
  KEY idx_mail_dispatch_tenant (tenant_id, created_at)
);`

// Migrate runs Schema one statement at a time; the driver rejects
// multi-statement Exec unless the DSN enables it.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range splitStatements(Schema) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
