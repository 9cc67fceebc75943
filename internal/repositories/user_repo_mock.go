package repositories

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"userapi/internal/models"
)

// MockUserRepository is an in-memory implementation of UserRepository.
// IDs are assigned sequentially starting at 1 and are never reused.
type MockUserRepository struct {
	users  map[uint]models.User
	nextID uint
	mu     sync.RWMutex
}

// NewMockUserRepository creates a new instance of MockUserRepository.
func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		users:  make(map[uint]models.User),
		nextID: 1,
	}
}

// GetAll returns all users ordered by id.
func (r *MockUserRepository) GetAll(ctx context.Context) ([]models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	userList := make([]models.User, 0, len(r.users))
	for _, u := range r.users {
		userList = append(userList, u)
	}
	sort.Slice(userList, func(i, j int) bool { return userList[i].ID < userList[j].ID })
	return userList, nil
}

// GetByID returns a user by its ID.
func (r *MockUserRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return nil, fmt.Errorf("user with ID %d: %w", id, ErrNotFound)
	}
	return &user, nil
}

// Create adds a new user.
func (r *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	if err := user.Validate(); err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	user.ID = r.nextID
	r.nextID++
	r.users[user.ID] = *user
	return nil
}

// Update replaces the username and email of an existing user.
func (r *MockUserRepository) Update(ctx context.Context, user *models.User) error {
	if err := user.Validate(); err != nil {
		return fmt.Errorf("failed to update user %d: %w", user.ID, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.users[user.ID]
	if !ok {
		return fmt.Errorf("user with ID %d: %w", user.ID, ErrNotFound)
	}
	stored.Username = user.Username
	stored.Email = user.Email
	r.users[user.ID] = stored
	*user = stored
	return nil
}

// Delete removes a user by its ID.
func (r *MockUserRepository) Delete(ctx context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[id]; !ok {
		return fmt.Errorf("user with ID %d: %w", id, ErrNotFound)
	}
	delete(r.users, id)
	return nil
}
