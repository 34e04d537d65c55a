package audit

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"jamwathq/internal/apperr"
	"jamwathq/internal/database"
	"jamwathq/internal/models"

	"github.com/google/uuid"
)

var (
	ErrSecurityEventNotFound = apperr.New(apperr.NotFound, "Security event not found")
	ErrAlreadyResolved       = apperr.New(apperr.Conflict, "Security event is already resolved")
)

type SecurityEvent struct {
	Type      models.SecurityEventType
	Severity  models.Severity
	Message   string
	Details   map[string]any
	IP        string
	UserAgent string
	UserID    string
}

type SecurityFilter struct {
	Type       models.SecurityEventType
	Severity   models.Severity
	IP         string
	Unresolved bool
	Limit      int
}

type SecurityStore struct {
	db  *database.DB
	now func() time.Time
}

func NewSecurityStore(db *database.DB, now func() time.Time) *SecurityStore {
	if now == nil {
		now = time.Now
	}
	return &SecurityStore{db: db, now: now}
}

func (s *SecurityStore) Log(ctx context.Context, ev SecurityEvent) (*models.SecurityLog, error) {
	if ev.Severity == "" {
		ev.Severity = models.SeverityMedium
	}
	if !ev.Type.Valid() {
		return nil, apperr.Invalid(fmt.Sprintf("Unknown security event type %q", ev.Type))
	}
	if !ev.Severity.Valid() {
		return nil, apperr.Invalid(fmt.Sprintf("Unknown severity %q", ev.Severity))
	}
	if ev.Message == "" {
		return nil, apperr.Invalid("Security events require a message")
	}

	details, err := encodeDetails(ev.Details)
	if err != nil {
		return nil, err
	}

	entry := &models.SecurityLog{
		ID:        uuid.NewString(),
		Type:      ev.Type,
		Severity:  ev.Severity,
		Message:   ev.Message,
		Details:   ev.Details,
		IP:        ev.IP,
		UserAgent: ev.UserAgent,
		Timestamp: s.now().UTC(),
	}
	if ev.UserID != "" {
		entry.UserID = &ev.UserID
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO security_logs (id, type, severity, message, details, ip, user_agent, user_id, timestamp)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.Type, entry.Severity, entry.Message, details, entry.IP,
		nullString(entry.UserAgent), nullString(ev.UserID), entry.Timestamp,
	)
	if err != nil {
		return nil, apperr.Store("insert security log", err)
	}
	return entry, nil
}

const securityColumns = `id, type, severity, message, details, ip, COALESCE(user_agent, ''), user_id,
	resolved, resolved_by, resolved_at, timestamp`

func scanSecurityLog(row interface{ Scan(...any) error }) (*models.SecurityLog, error) {
	var (
		entry      models.SecurityLog
		details    string
		userID     sql.NullString
		resolvedBy sql.NullString
		resolvedAt sql.NullTime
	)
	if err := row.Scan(&entry.ID, &entry.Type, &entry.Severity, &entry.Message, &details, &entry.IP,
		&entry.UserAgent, &userID, &entry.Resolved, &resolvedBy, &resolvedAt, &entry.Timestamp); err != nil {
		return nil, err
	}
	entry.Details = decodeDetails(details)
	if userID.Valid {
		entry.UserID = &userID.String
	}
	if resolvedBy.Valid {
		entry.ResolvedBy = &resolvedBy.String
	}
	if resolvedAt.Valid {
		entry.ResolvedAt = &resolvedAt.Time
	}
	return &entry, nil
}

// List returns events newest first.
func (s *SecurityStore) List(ctx context.Context, f SecurityFilter) ([]models.SecurityLog, error) {
	var (
		where []string
		args  []any
	)
	if f.Type != "" {
		where = append(where, "type = ?")
		args = append(args, f.Type)
	}
	if f.Severity != "" {
		where = append(where, "severity = ?")
		args = append(args, f.Severity)
	}
	if f.IP != "" {
		where = append(where, "ip = ?")
		args = append(args, f.IP)
	}
	if f.Unresolved {
		where = append(where, "resolved = FALSE")
	}

	query := "SELECT " + securityColumns + " FROM security_logs"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY timestamp DESC LIMIT ?"
	args = append(args, clampLimit(f.Limit))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperr.Store("list security logs", err)
	}
	defer rows.Close()

	logs := []models.SecurityLog{}
	for rows.Next() {
		entry, err := scanSecurityLog(rows)
		if err != nil {
			return nil, apperr.Store("scan security log", err)
		}
		logs = append(logs, *entry)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Store("list security logs", err)
	}
	return logs, nil
}

// Critical lists unresolved critical events.
func (s *SecurityStore) Critical(ctx context.Context) ([]models.SecurityLog, error) {
	return s.List(ctx, SecurityFilter{Severity: models.SeverityCritical, Unresolved: true, Limit: MaxLimit})
}

func (s *SecurityStore) Get(ctx context.Context, id string) (*models.SecurityLog, error) {
	entry, err := scanSecurityLog(s.db.QueryRowContext(ctx, "SELECT "+securityColumns+" FROM security_logs WHERE id = ?", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSecurityEventNotFound
		}
		return nil, apperr.Store("get security log", err)
	}
	return entry, nil
}

// Resolve marks an unresolved event as resolved by adminID. The update only
// matches unresolved rows, so a second resolve fails with ErrAlreadyResolved.
func (s *SecurityStore) Resolve(ctx context.Context, id, adminID string) (*models.SecurityLog, error) {
	result, err := s.db.ExecContext(ctx,
		"UPDATE security_logs SET resolved = TRUE, resolved_by = ?, resolved_at = ? WHERE id = ? AND resolved = FALSE",
		adminID, s.now().UTC(), id,
	)
	if err != nil {
		return nil, apperr.Store("resolve security log", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		if _, err := s.Get(ctx, id); err != nil {
			return nil, err
		}
		return nil, ErrAlreadyResolved
	}
	return s.Get(ctx, id)
}

// Stats counts events per type over the last days, busiest type first.
func (s *SecurityStore) Stats(ctx context.Context, days int) ([]models.SecurityStat, error) {
	if days <= 0 {
		days = 7
	}
	since := s.now().UTC().AddDate(0, 0, -days)

	rows, err := s.db.QueryContext(ctx, `
		SELECT type,
			COUNT(*),
			SUM(CASE WHEN severity = 'critical' THEN 1 ELSE 0 END),
			SUM(CASE WHEN severity = 'high' THEN 1 ELSE 0 END)
		FROM security_logs
		WHERE timestamp >= ?
		GROUP BY type
		ORDER BY COUNT(*) DESC, type
	`, since)
	if err != nil {
		return nil, apperr.Store("security stats", err)
	}
	defer rows.Close()

	stats := []models.SecurityStat{}
	for rows.Next() {
		var stat models.SecurityStat
		if err := rows.Scan(&stat.Type, &stat.Count, &stat.CriticalCount, &stat.HighCount); err != nil {
			return nil, apperr.Store("scan security stats", err)
		}
		stats = append(stats, stat)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Store("security stats", err)
	}
	return stats, nil
}
