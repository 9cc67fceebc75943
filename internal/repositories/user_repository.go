package repositories

import (
	"context"
	"errors"

	"userapi/internal/models"
)

// ErrNotFound is returned when the addressed user does not exist.
var ErrNotFound = errors.New("user not found")

// UserRepository defines the interface for user data access.
type UserRepository interface {
	GetAll(ctx context.Context) ([]models.User, error)
	GetByID(ctx context.Context, id uint) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id uint) error
}
