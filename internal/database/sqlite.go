package database

import (
	"database/sql"
	"fmt"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

type DB struct {
	*sql.DB
}

func New(dataDir string) (*DB, error) {
	return Open(filepath.Join(dataDir, "jamwathq.db"))
}

func Open(dbPath string) (*DB, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	d := &DB{db}
	if err := d.migrate(); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return d, nil
}

func (d *DB) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS admins (
			id TEXT PRIMARY KEY,
			email TEXT UNIQUE NOT NULL,
			password_hash TEXT NOT NULL,
			first_name TEXT NOT NULL,
			last_name TEXT NOT NULL,
			role TEXT NOT NULL DEFAULT 'viewer',
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			two_factor_enabled BOOLEAN NOT NULL DEFAULT FALSE,
			two_factor_secret TEXT,
			last_login DATETIME,
			last_ip TEXT,
			login_attempts INTEGER NOT NULL DEFAULT 0,
			locked_until DATETIME,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS activity_logs (
			id TEXT PRIMARY KEY,
			admin_id TEXT NOT NULL,
			action TEXT NOT NULL,
			target_type TEXT NOT NULL,
			target_id TEXT,
			details TEXT NOT NULL DEFAULT '{}',
			ip TEXT NOT NULL,
			user_agent TEXT,
			timestamp DATETIME NOT NULL,
			FOREIGN KEY (admin_id) REFERENCES admins(id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_activity_admin ON activity_logs(admin_id, timestamp DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_activity_action ON activity_logs(action, timestamp DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_activity_target ON activity_logs(target_type, target_id)`,
		`CREATE INDEX IF NOT EXISTS idx_activity_timestamp ON activity_logs(timestamp DESC)`,
		`CREATE TABLE IF NOT EXISTS security_logs (
			id TEXT PRIMARY KEY,
			type TEXT NOT NULL,
			severity TEXT NOT NULL DEFAULT 'medium',
			message TEXT NOT NULL,
			details TEXT NOT NULL DEFAULT '{}',
			ip TEXT NOT NULL,
			user_agent TEXT,
			user_id TEXT,
			resolved BOOLEAN NOT NULL DEFAULT FALSE,
			resolved_by TEXT,
			resolved_at DATETIME,
			timestamp DATETIME NOT NULL,
			FOREIGN KEY (resolved_by) REFERENCES admins(id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_security_type ON security_logs(type, timestamp DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_security_severity ON security_logs(severity, timestamp DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_security_ip ON security_logs(ip, timestamp DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_security_resolved ON security_logs(resolved, timestamp DESC)`,
		`CREATE TABLE IF NOT EXISTS reviews (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			user_first_name TEXT NOT NULL,
			user_gender TEXT NOT NULL DEFAULT 'unknown',
			state TEXT NOT NULL,
			job_title TEXT NOT NULL,
			employer TEXT NOT NULL DEFAULT '',
			city TEXT NOT NULL DEFAULT '',
			wages REAL NOT NULL,
			hours_per_week INTEGER NOT NULL,
			rating INTEGER NOT NULL,
			experience TEXT NOT NULL,
			times_used INTEGER NOT NULL DEFAULT 1,
			tos_accepted BOOLEAN NOT NULL,
			tos_accepted_at DATETIME NOT NULL,
			is_approved BOOLEAN NOT NULL DEFAULT TRUE,
			created_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_reviews_state ON reviews(state, is_approved)`,
		`CREATE INDEX IF NOT EXISTS idx_reviews_user ON reviews(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_reviews_created ON reviews(created_at DESC)`,
		`CREATE TABLE IF NOT EXISTS agency_reviews (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			user_first_name TEXT NOT NULL,
			agency_id TEXT NOT NULL,
			agency_name TEXT NOT NULL,
			application_process INTEGER NOT NULL,
			customer_service INTEGER NOT NULL,
			communication INTEGER NOT NULL,
			support_services INTEGER NOT NULL,
			overall_experience INTEGER NOT NULL,
			overall_rating REAL NOT NULL,
			usage_frequency INTEGER NOT NULL,
			comments TEXT NOT NULL,
			tos_accepted_at DATETIME NOT NULL,
			ip_address TEXT,
			created_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_agency_reviews_agency ON agency_reviews(agency_id, created_at DESC)`,
	}

	for _, m := range migrations {
		if _, err := d.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	return nil
}
