package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdmin_LockoutAfterThreshold(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	admin := &Admin{}

	for i := 1; i <= 4; i++ {
		locked := admin.RegisterFailedAttempt(now, 5, 2*time.Hour)
		assert.False(t, locked)
		assert.Equal(t, i, admin.LoginAttempts)
		assert.Nil(t, admin.LockedUntil)
	}

	locked := admin.RegisterFailedAttempt(now, 5, 2*time.Hour)
	assert.True(t, locked)
	require.NotNil(t, admin.LockedUntil)
	assert.Equal(t, now.Add(2*time.Hour), *admin.LockedUntil)
	assert.True(t, admin.IsLocked(now.Add(2*time.Hour-time.Second)))
	assert.False(t, admin.IsLocked(now.Add(2*time.Hour)))
}

func TestAdmin_ExpiredLockRestartsCount(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	until := now.Add(-time.Minute)
	admin := &Admin{LoginAttempts: 5, LockedUntil: &until}

	locked := admin.RegisterFailedAttempt(now, 5, 2*time.Hour)
	assert.False(t, locked)
	assert.Equal(t, 1, admin.LoginAttempts)
	assert.Nil(t, admin.LockedUntil)
}

func TestAdmin_ResetLoginAttempts(t *testing.T) {
	until := time.Now().Add(time.Hour)
	admin := &Admin{LoginAttempts: 5, LockedUntil: &until}

	admin.ResetLoginAttempts()
	assert.Zero(t, admin.LoginAttempts)
	assert.Nil(t, admin.LockedUntil)
	assert.False(t, admin.IsLocked(time.Now()))
}

func TestRole_Valid(t *testing.T) {
	assert.True(t, RoleSuperAdmin.Valid())
	assert.True(t, RoleModerator.Valid())
	assert.True(t, RoleViewer.Valid())
	assert.False(t, Role("owner").Valid())
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "admin@jamwathq.com", NormalizeEmail("  Admin@JamWatHQ.com "))
}
