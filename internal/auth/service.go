package auth

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/Sharanya-sriram/CBA-project-LibMgmt/internal/config"
	"github.com/Sharanya-sriram/CBA-project-LibMgmt/internal/database/users"
	"github.com/Sharanya-sriram/CBA-project-LibMgmt/internal/entities"
	"github.com/Sharanya-sriram/CBA-project-LibMgmt/internal/issuance"
)

// Validation patterns
var (
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{3,64}$`)
	emailPattern    = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
)

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrUserExists       = errors.New("user already exists")
	ErrInvalidRole      = errors.New("invalid role")
	ErrUsernameRequired = errors.New("username is required")
	ErrEmailRequired    = errors.New("email is required")
	ErrPasswordRequired = errors.New("password is required")
	ErrAccountLocked    = errors.New("account is locked due to too many failed login attempts")
	ErrUsernameInvalid  = errors.New("username must be 3-64 characters, alphanumeric and underscore/hyphen only")
	ErrEmailInvalid     = errors.New("invalid email format")
)

// Service handles authentication and account credential management.
type Service struct {
	users  *users.Repository
	config config.Auth
}

// NewService creates a new authentication service.
func NewService(repo *users.Repository, cfg config.Auth) *Service {
	return &Service{
		users:  repo,
		config: cfg,
	}
}

// NewUserRequest carries the fields needed to register a member account.
type NewUserRequest struct {
	Name     string
	Username string
	Email    string
	Password string
	Age      int
	College  string
	Role     entities.UserRole
}

// CreateUser validates and creates a new user with a hashed password.
func (s *Service) CreateUser(ctx context.Context, req NewUserRequest) (*entities.User, error) {
	if req.Username == "" {
		return nil, ErrUsernameRequired
	}
	if req.Email == "" {
		return nil, ErrEmailRequired
	}
	if req.Password == "" {
		return nil, ErrPasswordRequired
	}
	if !usernamePattern.MatchString(req.Username) {
		return nil, ErrUsernameInvalid
	}
	// RFC 5321 limit is 254
	if len(req.Email) > 254 || !emailPattern.MatchString(req.Email) {
		return nil, ErrEmailInvalid
	}

	role := req.Role
	if role == "" {
		role = entities.UserRoleUser
	}
	switch role {
	case entities.UserRoleUser, entities.UserRoleAdmin:
	default:
		return nil, ErrInvalidRole
	}

	if _, err := s.users.GetUserByUsername(ctx, req.Username); err == nil {
		return nil, ErrUserExists
	} else if !errors.Is(err, issuance.ErrNotFound) {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}

	passwordHash, err := HashPassword(req.Password, s.config.BcryptCost)
	if err != nil {
		return nil, err
	}

	user := &entities.User{
		Name:         req.Name,
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: passwordHash,
		Age:          req.Age,
		College:      req.College,
		Role:         role,
	}

	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// Authenticate validates credentials and returns the user. Accounts lock for
// the configured duration after too many failed attempts.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*entities.User, error) {
	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, issuance.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if user.LockedUntil != nil && time.Now().Before(*user.LockedUntil) {
		return nil, ErrAccountLocked
	}

	if err := CheckPassword(password, user.PasswordHash); err != nil {
		s.recordFailedLogin(ctx, user)
		return nil, err
	}

	now := time.Now()
	user.LastLoginAt = &now
	user.FailedLoginCount = 0
	user.LockedUntil = nil
	if err := s.users.SaveUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to record login: %w", err)
	}

	return user, nil
}

// recordFailedLogin increments the failed login counter and locks the
// account when the threshold is reached.
func (s *Service) recordFailedLogin(ctx context.Context, user *entities.User) {
	user.FailedLoginCount++

	maxAttempts := s.config.MaxLoginAttempts
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	if user.FailedLoginCount >= maxAttempts {
		lockoutDuration := s.config.LockoutDuration
		if lockoutDuration == 0 {
			lockoutDuration = 30 * time.Minute
		}
		lockedUntil := time.Now().Add(lockoutDuration)
		user.LockedUntil = &lockedUntil
	}

	_ = s.users.SaveUser(ctx, user)
}

// ChangePassword hashes and stores a new password for a user.
func (s *Service) ChangePassword(ctx context.Context, userID uint, newPassword string) error {
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return err
	}

	newHash, err := HashPassword(newPassword, s.config.BcryptCost)
	if err != nil {
		return err
	}

	user.PasswordHash = newHash
	return s.users.SaveUser(ctx, user)
}

// GetUserByID retrieves a user by their ID.
func (s *Service) GetUserByID(ctx context.Context, id uint) (*entities.User, error) {
	user, err := s.users.GetUser(ctx, id)
	if err != nil {
		if errors.Is(err, issuance.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// HasUsers returns true if any users exist in the database.
func (s *Service) HasUsers(ctx context.Context) (bool, error) {
	list, err := s.users.ListUsers(ctx)
	if err != nil {
		return false, err
	}
	return len(list) > 0, nil
}

// IsAuthEnabled returns true if authentication is required.
func (s *Service) IsAuthEnabled() bool {
	return s.config.Mode == config.AuthModeLocal
}
