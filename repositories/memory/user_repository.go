// Package memory provides an in-process user store for development and tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/upb/hotel-booking-api/models"
	"github.com/upb/hotel-booking-api/repositories"
	"github.com/upb/hotel-booking-api/services"
)

// UserRepository implements repositories.UserRepository over a map
type UserRepository struct {
	mu     sync.RWMutex
	users  map[int64]*models.User
	nextID int64
}

// NewUserRepository creates an empty store
func NewUserRepository() *UserRepository {
	return &UserRepository{
		users:  make(map[int64]*models.User),
		nextID: 1,
	}
}

var _ repositories.UserRepository = (*UserRepository)(nil)

func clone(u *models.User) *models.User {
	c := *u
	c.Roles = append([]string(nil), u.Roles...)
	c.Permissions = append([]string(nil), u.Permissions...)
	return &c
}

// conflict reports a clash with another user's email or username; caller holds the lock
func (r *UserRepository) conflict(user *models.User) error {
	for id, existing := range r.users {
		if id == user.ID {
			continue
		}
		if existing.Email == user.Email {
			return services.ErrDuplicateEmail
		}
		if user.Username != "" && existing.Username == user.Username {
			return services.ErrDuplicateUsername
		}
	}
	return nil
}

// Create stores a copy of user and assigns its ID
func (r *UserRepository) Create(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user.Email = models.NormalizeEmail(user.Email)
	user.ID = 0
	if err := r.conflict(user); err != nil {
		return err
	}
	user.ID = r.nextID
	r.nextID++
	r.users[user.ID] = clone(user)
	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(_ context.Context, id int64) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, services.ErrUserNotFound
	}
	return clone(u), nil
}

// GetByEmail retrieves a user by email
func (r *UserRepository) GetByEmail(_ context.Context, email string) (*models.User, error) {
	email = models.NormalizeEmail(email)

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if u.Email == email {
			return clone(u), nil
		}
	}
	return nil, services.ErrUserNotFound
}

// List retrieves users ordered by ID
func (r *UserRepository) List(_ context.Context, limit, offset int) ([]*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]int64, 0, len(r.users))
	for id := range r.users {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	if offset < 0 {
		offset = 0
	}
	if offset >= len(ids) {
		return []*models.User{}, nil
	}
	ids = ids[offset:]
	if limit > 0 && limit < len(ids) {
		ids = ids[:limit]
	}

	out := make([]*models.User, 0, len(ids))
	for _, id := range ids {
		out = append(out, clone(r.users[id]))
	}
	return out, nil
}

// Update replaces the stored user
func (r *UserRepository) Update(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.users[user.ID]
	if !ok {
		return services.ErrUserNotFound
	}
	user.Email = models.NormalizeEmail(user.Email)
	if err := r.conflict(user); err != nil {
		return err
	}
	updated := clone(user)
	updated.PasswordHash = existing.PasswordHash
	updated.CreatedAt = existing.CreatedAt
	r.users[user.ID] = updated
	return nil
}

// Delete removes a user
func (r *UserRepository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[id]; !ok {
		return services.ErrUserNotFound
	}
	delete(r.users, id)
	return nil
}
