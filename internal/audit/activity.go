// Package audit persists the two append-only event streams: activity logs
// (successful admin mutations) and security logs (rejected or anomalous
// access).
package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"jamwathq/internal/apperr"
	"jamwathq/internal/database"
	"jamwathq/internal/models"

	"github.com/google/uuid"
)

const (
	DefaultLimit = 50
	MaxLimit     = 500
)

type ActivityEntry struct {
	AdminID    string
	Action     models.Action
	TargetType models.TargetType
	TargetID   string
	Details    map[string]any
	IP         string
	UserAgent  string
}

type ActivityFilter struct {
	AdminID string
	Action  models.Action
	Limit   int
}

type ActivityStore struct {
	db  *database.DB
	now func() time.Time
}

func NewActivityStore(db *database.DB, now func() time.Time) *ActivityStore {
	if now == nil {
		now = time.Now
	}
	return &ActivityStore{db: db, now: now}
}

func (s *ActivityStore) Log(ctx context.Context, e ActivityEntry) (*models.ActivityLog, error) {
	if e.AdminID == "" {
		return nil, apperr.Invalid("Activity entries require an admin")
	}
	if !e.Action.Valid() {
		return nil, apperr.Invalid(fmt.Sprintf("Unknown activity action %q", e.Action))
	}
	if !e.TargetType.Valid() {
		return nil, apperr.Invalid(fmt.Sprintf("Unknown activity target type %q", e.TargetType))
	}

	details, err := encodeDetails(e.Details)
	if err != nil {
		return nil, err
	}

	entry := &models.ActivityLog{
		ID:         uuid.NewString(),
		AdminID:    e.AdminID,
		Action:     e.Action,
		TargetType: e.TargetType,
		Details:    e.Details,
		IP:         e.IP,
		UserAgent:  e.UserAgent,
		Timestamp:  s.now().UTC(),
	}
	if e.TargetID != "" {
		entry.TargetID = &e.TargetID
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO activity_logs (id, admin_id, action, target_type, target_id, details, ip, user_agent, timestamp)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.AdminID, entry.Action, entry.TargetType, nullString(e.TargetID), details, entry.IP,
		nullString(entry.UserAgent), entry.Timestamp,
	)
	if err != nil {
		return nil, apperr.Store("insert activity log", err)
	}
	return entry, nil
}

// List returns entries newest first. An empty filter lists recent activity.
func (s *ActivityStore) List(ctx context.Context, f ActivityFilter) ([]models.ActivityLog, error) {
	var (
		where []string
		args  []any
	)
	if f.AdminID != "" {
		where = append(where, "admin_id = ?")
		args = append(args, f.AdminID)
	}
	if f.Action != "" {
		where = append(where, "action = ?")
		args = append(args, f.Action)
	}

	query := "SELECT id, admin_id, action, target_type, target_id, details, ip, COALESCE(user_agent, ''), timestamp FROM activity_logs"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY timestamp DESC LIMIT ?"
	args = append(args, clampLimit(f.Limit))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperr.Store("list activity logs", err)
	}
	defer rows.Close()

	logs := []models.ActivityLog{}
	for rows.Next() {
		var (
			entry    models.ActivityLog
			targetID sql.NullString
			details  string
		)
		if err := rows.Scan(&entry.ID, &entry.AdminID, &entry.Action, &entry.TargetType, &targetID,
			&details, &entry.IP, &entry.UserAgent, &entry.Timestamp); err != nil {
			return nil, apperr.Store("scan activity log", err)
		}
		if targetID.Valid {
			entry.TargetID = &targetID.String
		}
		entry.Details = decodeDetails(details)
		logs = append(logs, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Store("list activity logs", err)
	}
	return logs, nil
}

func encodeDetails(details map[string]any) (string, error) {
	if details == nil {
		return "{}", nil
	}
	b, err := json.Marshal(details)
	if err != nil {
		return "", fmt.Errorf("failed to encode details: %w", err)
	}
	return string(b), nil
}

func decodeDetails(raw string) map[string]any {
	details := map[string]any{}
	if err := json.Unmarshal([]byte(raw), &details); err != nil {
		return map[string]any{"raw": raw}
	}
	return details
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}
