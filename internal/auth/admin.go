package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"jamwathq/internal/apperr"
	"jamwathq/internal/database"
	"jamwathq/internal/models"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrAdminNotFound      = apperr.New(apperr.NotFound, "Admin not found")
	ErrAdminExists        = apperr.New(apperr.Conflict, "An admin with that email already exists")
	ErrInvalidCredentials = apperr.New(apperr.Unauthenticated, "Invalid email or password")
	ErrAccountInactive    = apperr.New(apperr.AccountInactive, "Account is inactive")
	ErrAccountLocked      = apperr.New(apperr.AccountLocked, "Account is temporarily locked. Please try again later.")
)

const MinPasswordLength = 8

var emailPattern = regexp.MustCompile(`^\w+([\.-]?\w+)*@\w+([\.-]?\w+)*(\.\w{2,3})+$`)

// LoginFailure explains a rejected login for the security log. Clients only
// see the wrapped public error.
type LoginFailure struct {
	Reason      string
	AdminID     string
	Email       string
	Attempts    int
	LockedUntil *time.Time
	LockedNow   bool
	err         *apperr.Error
}

func (f *LoginFailure) Error() string { return f.err.Error() }
func (f *LoginFailure) Unwrap() error { return f.err }

type AdminServiceOptions struct {
	LockoutThreshold int
	LockoutDuration  time.Duration
	HashCost         int
	Now              func() time.Time
}

type AdminService struct {
	db               *database.DB
	lockoutThreshold int
	lockoutDuration  time.Duration
	hashCost         int
	now              func() time.Time

	dummyOnce sync.Once
	dummyHash []byte
}

func NewAdminService(db *database.DB, opts AdminServiceOptions) *AdminService {
	s := &AdminService{
		db:               db,
		lockoutThreshold: opts.LockoutThreshold,
		lockoutDuration:  opts.LockoutDuration,
		hashCost:         opts.HashCost,
		now:              opts.Now,
	}
	if s.lockoutThreshold <= 0 {
		s.lockoutThreshold = 5
	}
	if s.lockoutDuration <= 0 {
		s.lockoutDuration = 2 * time.Hour
	}
	if s.hashCost == 0 {
		s.hashCost = bcrypt.DefaultCost
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

type CreateAdminInput struct {
	Email     string      `json:"email"`
	Password  string      `json:"password"`
	FirstName string      `json:"firstName"`
	LastName  string      `json:"lastName"`
	Role      models.Role `json:"role"`
}

func (in *CreateAdminInput) validate() error {
	var problems []string
	if !emailPattern.MatchString(in.Email) {
		problems = append(problems, "Please enter a valid email")
	}
	if len(in.Password) < MinPasswordLength {
		problems = append(problems, fmt.Sprintf("Password must be at least %d characters", MinPasswordLength))
	}
	if in.FirstName == "" || in.LastName == "" {
		problems = append(problems, "First and last name are required")
	}
	if !in.Role.Valid() {
		problems = append(problems, "Role must be one of super_admin, moderator, viewer")
	}
	if len(problems) > 0 {
		return apperr.Invalid("Invalid admin details.", problems...)
	}
	return nil
}

func (s *AdminService) Create(ctx context.Context, in CreateAdminInput) (*models.Admin, error) {
	in.Email = models.NormalizeEmail(in.Email)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	if in.Role == "" {
		in.Role = models.RoleViewer
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.now().UTC()
	admin := &models.Admin{
		ID:           uuid.NewString(),
		Email:        in.Email,
		PasswordHash: string(hash),
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Role:         in.Role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO admins (id, email, password_hash, first_name, last_name, role, is_active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		admin.ID, admin.Email, admin.PasswordHash, admin.FirstName, admin.LastName, admin.Role, admin.IsActive, now, now,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return nil, ErrAdminExists
		}
		return nil, apperr.Store("create admin", err)
	}
	return admin, nil
}

// Authenticate checks credentials and drives the lockout state machine.
// Rejections are *LoginFailure values wrapping a public error; unknown
// emails and wrong passwords share ErrInvalidCredentials.
func (s *AdminService) Authenticate(ctx context.Context, email, password, ip string) (*models.Admin, error) {
	email = models.NormalizeEmail(email)
	now := s.now()

	admin, err := s.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrAdminNotFound) {
			s.equalizeTiming(password)
			return nil, &LoginFailure{Reason: "unknown_email", Email: email, err: ErrInvalidCredentials}
		}
		return nil, err
	}

	// An inactive account is only disclosed to a caller holding its password.
	if !admin.IsActive {
		failure := &LoginFailure{Reason: "inactive", AdminID: admin.ID, Email: email, err: ErrAccountInactive}
		if !s.VerifyPassword(admin, password) {
			failure.err = ErrInvalidCredentials
		}
		return nil, failure
	}

	if admin.IsLocked(now) {
		return nil, &LoginFailure{
			Reason:      "locked",
			AdminID:     admin.ID,
			Email:       email,
			Attempts:    admin.LoginAttempts,
			LockedUntil: admin.LockedUntil,
			err:         ErrAccountLocked,
		}
	}

	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)); err != nil {
		lockedNow := admin.RegisterFailedAttempt(now, s.lockoutThreshold, s.lockoutDuration)
		if err := s.saveLoginAttempts(ctx, admin); err != nil {
			return nil, err
		}
		return nil, &LoginFailure{
			Reason:      "wrong_password",
			AdminID:     admin.ID,
			Email:       email,
			Attempts:    admin.LoginAttempts,
			LockedUntil: admin.LockedUntil,
			LockedNow:   lockedNow,
			err:         ErrInvalidCredentials,
		}
	}

	admin.ResetLoginAttempts()
	loginAt := now.UTC()
	admin.LastLogin = &loginAt
	admin.LastIP = &ip
	if _, err := s.db.ExecContext(ctx,
		"UPDATE admins SET login_attempts = 0, locked_until = NULL, last_login = ?, last_ip = ?, updated_at = ? WHERE id = ?",
		loginAt, ip, loginAt, admin.ID,
	); err != nil {
		return nil, apperr.Store("record login", err)
	}

	return admin, nil
}

// VerifyPassword checks a password without touching lockout state.
func (s *AdminService) VerifyPassword(admin *models.Admin, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)) == nil
}

func (s *AdminService) saveLoginAttempts(ctx context.Context, admin *models.Admin) error {
	var lockedUntil any
	if admin.LockedUntil != nil {
		lockedUntil = admin.LockedUntil.UTC()
	}
	_, err := s.db.ExecContext(ctx,
		"UPDATE admins SET login_attempts = ?, locked_until = ?, updated_at = ? WHERE id = ?",
		admin.LoginAttempts, lockedUntil, s.now().UTC(), admin.ID,
	)
	if err != nil {
		return apperr.Store("update login attempts", err)
	}
	return nil
}

// equalizeTiming spends a bcrypt comparison on unknown emails so response
// time does not reveal which addresses exist.
func (s *AdminService) equalizeTiming(password string) {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("jamwathq-timing-equalizer"), s.hashCost)
	})
	bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
}

const adminColumns = `id, email, password_hash, first_name, last_name, role, is_active, two_factor_enabled,
	COALESCE(two_factor_secret, ''), last_login, last_ip, login_attempts, locked_until, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAdmin(row rowScanner) (*models.Admin, error) {
	var (
		admin       models.Admin
		lastLogin   sql.NullTime
		lastIP      sql.NullString
		lockedUntil sql.NullTime
	)
	err := row.Scan(&admin.ID, &admin.Email, &admin.PasswordHash, &admin.FirstName, &admin.LastName,
		&admin.Role, &admin.IsActive, &admin.TwoFactorEnabled, &admin.TwoFactorSecret,
		&lastLogin, &lastIP, &admin.LoginAttempts, &lockedUntil, &admin.CreatedAt, &admin.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if lastLogin.Valid {
		admin.LastLogin = &lastLogin.Time
	}
	if lastIP.Valid {
		admin.LastIP = &lastIP.String
	}
	if lockedUntil.Valid {
		admin.LockedUntil = &lockedUntil.Time
	}
	return &admin, nil
}

func (s *AdminService) GetByID(ctx context.Context, id string) (*models.Admin, error) {
	admin, err := scanAdmin(s.db.QueryRowContext(ctx, "SELECT "+adminColumns+" FROM admins WHERE id = ?", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAdminNotFound
		}
		return nil, apperr.Store("get admin", err)
	}
	return admin, nil
}

func (s *AdminService) GetByEmail(ctx context.Context, email string) (*models.Admin, error) {
	admin, err := scanAdmin(s.db.QueryRowContext(ctx, "SELECT "+adminColumns+" FROM admins WHERE email = ?", models.NormalizeEmail(email)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAdminNotFound
		}
		return nil, apperr.Store("get admin by email", err)
	}
	return admin, nil
}

func (s *AdminService) List(ctx context.Context) ([]models.Admin, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+adminColumns+" FROM admins ORDER BY email")
	if err != nil {
		return nil, apperr.Store("list admins", err)
	}
	defer rows.Close()

	admins := []models.Admin{}
	for rows.Next() {
		admin, err := scanAdmin(rows)
		if err != nil {
			return nil, apperr.Store("scan admin", err)
		}
		admins = append(admins, *admin)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Store("list admins", err)
	}
	return admins, nil
}

type UpdateAdminInput struct {
	FirstName *string      `json:"firstName"`
	LastName  *string      `json:"lastName"`
	Role      *models.Role `json:"role"`
	IsActive  *bool        `json:"isActive"`
	Password  *string      `json:"password"`
}

func (s *AdminService) Update(ctx context.Context, id string, in UpdateAdminInput) (*models.Admin, error) {
	admin, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	var problems []string
	if in.FirstName != nil {
		if admin.FirstName = strings.TrimSpace(*in.FirstName); admin.FirstName == "" {
			problems = append(problems, "First name cannot be empty")
		}
	}
	if in.LastName != nil {
		if admin.LastName = strings.TrimSpace(*in.LastName); admin.LastName == "" {
			problems = append(problems, "Last name cannot be empty")
		}
	}
	if in.Role != nil {
		if !in.Role.Valid() {
			problems = append(problems, "Role must be one of super_admin, moderator, viewer")
		}
		admin.Role = *in.Role
	}
	if in.IsActive != nil {
		admin.IsActive = *in.IsActive
	}
	if in.Password != nil {
		if len(*in.Password) < MinPasswordLength {
			problems = append(problems, fmt.Sprintf("Password must be at least %d characters", MinPasswordLength))
		} else {
			hash, err := bcrypt.GenerateFromPassword([]byte(*in.Password), s.hashCost)
			if err != nil {
				return nil, fmt.Errorf("failed to hash password: %w", err)
			}
			admin.PasswordHash = string(hash)
		}
	}
	if len(problems) > 0 {
		return nil, apperr.Invalid("Invalid admin details.", problems...)
	}

	admin.UpdatedAt = s.now().UTC()
	if _, err := s.db.ExecContext(ctx,
		`UPDATE admins SET first_name = ?, last_name = ?, role = ?, is_active = ?, password_hash = ?, updated_at = ?
		 WHERE id = ?`,
		admin.FirstName, admin.LastName, admin.Role, admin.IsActive, admin.PasswordHash, admin.UpdatedAt, admin.ID,
	); err != nil {
		return nil, apperr.Store("update admin", err)
	}
	return admin, nil
}

// Unlock clears a lockout and the failed-attempt counter.
func (s *AdminService) Unlock(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE admins SET login_attempts = 0, locked_until = NULL, updated_at = ? WHERE id = ?",
		s.now().UTC(), id,
	)
	if err != nil {
		return apperr.Store("unlock admin", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return ErrAdminNotFound
	}
	return nil
}

func (s *AdminService) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM admins").Scan(&count); err != nil {
		return 0, apperr.Store("count admins", err)
	}
	return count, nil
}

// EnsureDefaultAdmin seeds a super admin when the table is empty.
func (s *AdminService) EnsureDefaultAdmin(ctx context.Context, email, password string) error {
	count, err := s.Count(ctx)
	if err != nil {
		return err
	}
	if count == 0 {
		_, err = s.Create(ctx, CreateAdminInput{
			Email:     email,
			Password:  password,
			FirstName: "Site",
			LastName:  "Administrator",
			Role:      models.RoleSuperAdmin,
		})
		return err
	}
	return nil
}

func isUniqueConstraintError(err error) bool {
	return err != nil && (strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "duplicate key"))
}
