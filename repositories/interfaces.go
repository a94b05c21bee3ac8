package repositories

import (
	"context"

	"github.com/upb/hotel-booking-api/models"
)

// UserRepository handles user data operations.
// Lookups that find nothing return services.ErrUserNotFound; inserts that
// collide on email or username return services.ErrDuplicateEmail or
// services.ErrDuplicateUsername.
type UserRepository interface {
	// Create inserts a new user and sets its ID
	Create(ctx context.Context, user *models.User) error

	// GetByID retrieves a user by ID
	GetByID(ctx context.Context, id int64) (*models.User, error)

	// GetByEmail retrieves a user by email (case-insensitive)
	GetByEmail(ctx context.Context, email string) (*models.User, error)

	// List retrieves users ordered by ID with pagination
	List(ctx context.Context, limit, offset int) ([]*models.User, error)

	// Update updates email, username, roles and permissions
	Update(ctx context.Context, user *models.User) error

	// Delete deletes a user
	Delete(ctx context.Context, id int64) error
}

// HealthChecker is implemented by stores backed by a remote service
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Repositories holds all repository instances
type Repositories struct {
	Users UserRepository
}
