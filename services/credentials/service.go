// Package credentials authenticates users by email and password and
// registers new accounts.
package credentials

import (
	"context"
	"errors"
	"strconv"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/upb/hotel-booking-api/models"
	"github.com/upb/hotel-booking-api/repositories"
	"github.com/upb/hotel-booking-api/services"
	"github.com/upb/hotel-booking-api/services/token"
)

// Service checks passwords against the user store
type Service struct {
	users  repositories.UserRepository
	cost   int
	logger *zap.Logger

	// dummyHash is compared when the email is unknown so both failure paths
	// spend the same bcrypt work.
	dummyHash []byte
}

// NewService creates a credentials service. A cost outside bcrypt's range
// falls back to bcrypt.DefaultCost.
func NewService(users repositories.UserRepository, cost int, logger *zap.Logger) *Service {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	dummy, _ := bcrypt.GenerateFromPassword([]byte("not-a-real-password"), cost)
	return &Service{
		users:     users,
		cost:      cost,
		logger:    logger,
		dummyHash: dummy,
	}
}

// maxPasswordBytes is bcrypt's input limit
const maxPasswordBytes = 72

// HashPassword hashes a plaintext password with the configured cost.
// Passwords longer than 72 bytes yield services.ErrPasswordTooLong.
func (s *Service) HashPassword(password string) (string, error) {
	if len(password) > maxPasswordBytes {
		return "", services.ErrPasswordTooLong
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", services.ErrPasswordTooLong
		}
		return "", services.WrapInternal("failed to hash password", err)
	}
	return string(hash), nil
}

// Authenticate returns the user for a matching email and password.
// Unknown emails and wrong passwords both yield ErrInvalidCredentials.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	// bcrypt ignores bytes past the limit, so such a password could match
	// the hash of its own prefix.
	if len(password) > maxPasswordBytes {
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password[:maxPasswordBytes]))
		return nil, services.ErrInvalidCredentials
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, services.ErrUserNotFound) {
			return nil, err
		}
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
		s.logger.Debug("login for unknown email", zap.String("email", models.NormalizeEmail(email)))
		return nil, services.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) || errors.Is(err, bcrypt.ErrPasswordTooLong) {
			s.logger.Debug("password mismatch", zap.Int64("user_id", user.ID))
			return nil, services.ErrInvalidCredentials
		}
		return nil, services.WrapInternal("failed to compare password", err)
	}

	return user, nil
}

// Register creates an account with the default user role and read permission
func (s *Service) Register(ctx context.Context, email, username, password string) (*models.User, error) {
	hash, err := s.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := models.NewUser(email, username, hash,
		[]string{models.RoleUser},
		[]string{models.PermissionRead},
	)
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user registered", zap.Int64("user_id", user.ID), zap.String("email", user.Email))
	return user, nil
}

// ToPrincipal converts a stored user into the identity embedded in tokens
func ToPrincipal(u *models.User) *token.Principal {
	return &token.Principal{
		ID:          strconv.FormatInt(u.ID, 10),
		Email:       u.Email,
		Username:    u.Username,
		Roles:       token.NormalizeRoles(u.Roles...),
		Permissions: append([]string(nil), u.Permissions...),
	}
}

// DemoAccount describes a seeded development login
type DemoAccount struct {
	Email       string
	Username    string
	Password    string
	Roles       []string
	Permissions []string
}

// DemoAccounts are the logins seeded into the in-memory store
var DemoAccounts = []DemoAccount{
	{
		Email:       "admin@example.com",
		Username:    "admin",
		Password:    "admin123",
		Roles:       []string{models.RoleAdmin, models.RoleUser},
		Permissions: []string{models.PermissionRead, models.PermissionWrite, models.PermissionDelete},
	},
	{
		Email:       "user@example.com",
		Username:    "user",
		Password:    "user123",
		Roles:       []string{models.RoleUser},
		Permissions: []string{models.PermissionRead},
	},
}

// SeedDemoAccounts creates the demo logins, skipping any that already exist
func (s *Service) SeedDemoAccounts(ctx context.Context) error {
	for _, acct := range DemoAccounts {
		hash, err := s.HashPassword(acct.Password)
		if err != nil {
			return err
		}
		user := models.NewUser(acct.Email, acct.Username, hash, acct.Roles, acct.Permissions)
		if err := s.users.Create(ctx, user); err != nil {
			if services.IsConflictError(err) {
				continue
			}
			return err
		}
		s.logger.Debug("seeded demo account", zap.String("email", user.Email), zap.Int64("user_id", user.ID))
	}
	return nil
}
