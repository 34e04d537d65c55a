package models

import (
	"strings"
	"time"
)

type Role string

const (
	RoleSuperAdmin Role = "super_admin"
	RoleModerator  Role = "moderator"
	RoleViewer     Role = "viewer"
)

func (r Role) Valid() bool {
	switch r {
	case RoleSuperAdmin, RoleModerator, RoleViewer:
		return true
	}
	return false
}

type Admin struct {
	ID               string     `json:"id"`
	Email            string     `json:"email"`
	PasswordHash     string     `json:"-"`
	FirstName        string     `json:"firstName"`
	LastName         string     `json:"lastName"`
	Role             Role       `json:"role"`
	IsActive         bool       `json:"isActive"`
	TwoFactorEnabled bool       `json:"twoFactorEnabled"`
	TwoFactorSecret  string     `json:"-"`
	LastLogin        *time.Time `json:"lastLogin"`
	LastIP           *string    `json:"lastIP"`
	LoginAttempts    int        `json:"loginAttempts"`
	LockedUntil      *time.Time `json:"lockedUntil"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

func (a *Admin) FullName() string {
	return a.FirstName + " " + a.LastName
}

// IsLocked reports whether a lockout is in force at now.
func (a *Admin) IsLocked(now time.Time) bool {
	return a.LockedUntil != nil && a.LockedUntil.After(now)
}

// RegisterFailedAttempt applies one failed credential check to the lockout
// counters. An expired lock restarts the count at 1 without re-locking.
// It reports whether this attempt put the account into lockout.
func (a *Admin) RegisterFailedAttempt(now time.Time, threshold int, duration time.Duration) bool {
	if a.LockedUntil != nil && !a.LockedUntil.After(now) {
		a.LoginAttempts = 1
		a.LockedUntil = nil
		return false
	}

	a.LoginAttempts++
	if a.LoginAttempts >= threshold && !a.IsLocked(now) {
		until := now.Add(duration)
		a.LockedUntil = &until
		return true
	}
	return false
}

func (a *Admin) ResetLoginAttempts() {
	a.LoginAttempts = 0
	a.LockedUntil = nil
}

// NormalizeEmail trims and lower-cases an address; emails are compared in this form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
