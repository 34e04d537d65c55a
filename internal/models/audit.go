package models

import "time"

type Action string

const (
	ActionUserView           Action = "user_view"
	ActionUserUpdate         Action = "user_update"
	ActionUserDelete         Action = "user_delete"
	ActionUserBan            Action = "user_ban"
	ActionUserUnban          Action = "user_unban"
	ActionReviewView         Action = "review_view"
	ActionReviewApprove      Action = "review_approve"
	ActionReviewReject       Action = "review_reject"
	ActionReviewUpdate       Action = "review_update"
	ActionReviewDelete       Action = "review_delete"
	ActionAgencyCreate       Action = "agency_create"
	ActionAgencyUpdate       Action = "agency_update"
	ActionAgencyDelete       Action = "agency_delete"
	ActionAgencyVerify       Action = "agency_verify"
	ActionContentUpdate      Action = "content_update"
	ActionNewsCreate         Action = "news_create"
	ActionNewsUpdate         Action = "news_update"
	ActionNewsDelete         Action = "news_delete"
	ActionSettingsUpdate     Action = "settings_update"
	ActionBackupCreate       Action = "backup_create"
	ActionBackupRestore      Action = "backup_restore"
	ActionCacheClear         Action = "cache_clear"
	ActionAdminLogin         Action = "admin_login"
	ActionAdminLogout        Action = "admin_logout"
	ActionAdminCreate        Action = "admin_create"
	ActionAdminUpdate        Action = "admin_update"
	ActionAdminDelete        Action = "admin_delete"
	ActionUnauthorizedAccess Action = "unauthorized_access"
)

var validActions = map[Action]bool{
	ActionUserView: true, ActionUserUpdate: true, ActionUserDelete: true, ActionUserBan: true, ActionUserUnban: true,
	ActionReviewView: true, ActionReviewApprove: true, ActionReviewReject: true, ActionReviewUpdate: true, ActionReviewDelete: true,
	ActionAgencyCreate: true, ActionAgencyUpdate: true, ActionAgencyDelete: true, ActionAgencyVerify: true,
	ActionContentUpdate: true, ActionNewsCreate: true, ActionNewsUpdate: true, ActionNewsDelete: true,
	ActionSettingsUpdate: true, ActionBackupCreate: true, ActionBackupRestore: true, ActionCacheClear: true,
	ActionAdminLogin: true, ActionAdminLogout: true, ActionAdminCreate: true, ActionAdminUpdate: true, ActionAdminDelete: true,
	ActionUnauthorizedAccess: true,
}

func (a Action) Valid() bool { return validActions[a] }

type TargetType string

const (
	TargetUser     TargetType = "user"
	TargetReview   TargetType = "review"
	TargetAgency   TargetType = "agency"
	TargetContent  TargetType = "content"
	TargetNews     TargetType = "news"
	TargetAdmin    TargetType = "admin"
	TargetSettings TargetType = "settings"
	TargetSystem   TargetType = "system"
)

func (t TargetType) Valid() bool {
	switch t {
	case TargetUser, TargetReview, TargetAgency, TargetContent, TargetNews, TargetAdmin, TargetSettings, TargetSystem:
		return true
	}
	return false
}

type ActivityLog struct {
	ID         string         `json:"id"`
	AdminID    string         `json:"adminId"`
	Action     Action         `json:"action"`
	TargetType TargetType     `json:"targetType"`
	TargetID   *string        `json:"targetId"`
	Details    map[string]any `json:"details"`
	IP         string         `json:"ip"`
	UserAgent  string         `json:"userAgent,omitempty"`
	Timestamp  time.Time      `json:"timestamp"`
}

type SecurityEventType string

const (
	EventFailedLogin          SecurityEventType = "failed_login"
	EventSuspiciousActivity   SecurityEventType = "suspicious_activity"
	EventRateLimitViolation   SecurityEventType = "rate_limit_violation"
	EventCORSRejection        SecurityEventType = "cors_rejection"
	EventInvalidToken         SecurityEventType = "invalid_token"
	EventUnauthorizedAccess   SecurityEventType = "unauthorized_access"
	EventAccountLockout       SecurityEventType = "account_lockout"
	EventSQLInjectionAttempt  SecurityEventType = "sql_injection_attempt"
	EventXSSAttempt           SecurityEventType = "xss_attempt"
	EventBruteForceDetected   SecurityEventType = "brute_force_detected"
	EventUnusualIP            SecurityEventType = "unusual_ip"
	EventSessionHijackAttempt SecurityEventType = "session_hijack_attempt"
)

func (t SecurityEventType) Valid() bool {
	switch t {
	case EventFailedLogin, EventSuspiciousActivity, EventRateLimitViolation, EventCORSRejection,
		EventInvalidToken, EventUnauthorizedAccess, EventAccountLockout, EventSQLInjectionAttempt,
		EventXSSAttempt, EventBruteForceDetected, EventUnusualIP, EventSessionHijackAttempt:
		return true
	}
	return false
}

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

func (s Severity) Valid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

// SecurityLog is immutable apart from the resolution fields, which move
// from unresolved to resolved exactly once.
type SecurityLog struct {
	ID         string            `json:"id"`
	Type       SecurityEventType `json:"type"`
	Severity   Severity          `json:"severity"`
	Message    string            `json:"message"`
	Details    map[string]any    `json:"details"`
	IP         string            `json:"ip"`
	UserAgent  string            `json:"userAgent,omitempty"`
	UserID     *string           `json:"userId"`
	Resolved   bool              `json:"resolved"`
	ResolvedBy *string           `json:"resolvedBy"`
	ResolvedAt *time.Time        `json:"resolvedAt"`
	Timestamp  time.Time         `json:"timestamp"`
}

type SecurityStat struct {
	Type          SecurityEventType `json:"type"`
	Count         int               `json:"count"`
	CriticalCount int               `json:"criticalCount"`
	HighCount     int               `json:"highCount"`
}
