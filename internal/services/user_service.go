package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"userapi/internal/models"
	"userapi/internal/repositories"
)

// User lifecycle event types, also used as routing keys.
const (
	EventUserCreated = "user.created"
	EventUserUpdated = "user.updated"
	EventUserDeleted = "user.deleted"
)

// EventPublisher delivers an encoded event under a routing key.
type EventPublisher interface {
	Publish(routingKey string, body []byte) error
}

// UserEvent is the payload published after a successful mutation. It never
// carries the password.
type UserEvent struct {
	EventID    string    `json:"event_id"`
	Type       string    `json:"type"`
	UserID     uint      `json:"user_id"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	OccurredAt time.Time `json:"occurred_at"`
}

// UserService handles business logic related to users.
type UserService struct {
	repo   repositories.UserRepository
	events EventPublisher
	now    func() time.Time
}

// NewUserService creates a new UserService. events may be nil, in which case
// no events are published.
func NewUserService(repo repositories.UserRepository, events EventPublisher) *UserService {
	return &UserService{
		repo:   repo,
		events: events,
		now:    time.Now,
	}
}

// ListUsers retrieves all users.
func (s *UserService) ListUsers(ctx context.Context) ([]models.User, error) {
	return s.repo.GetAll(ctx)
}

// GetUser retrieves a single user by its ID.
func (s *UserService) GetUser(ctx context.Context, id uint) (*models.User, error) {
	return s.repo.GetByID(ctx, id)
}

// CreateUser stores a new user with the given username and email. The
// password starts out null.
func (s *UserService) CreateUser(ctx context.Context, username, email string) (*models.User, error) {
	user := &models.User{
		Username: username,
		Email:    email,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	s.publish(EventUserCreated, user)
	return user, nil
}

// UpdateUser replaces the username and email of an existing user.
func (s *UserService) UpdateUser(ctx context.Context, id uint, username, email string) (*models.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	user.Username = username
	user.Email = email
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}

	s.publish(EventUserUpdated, user)
	return user, nil
}

// DeleteUser removes an existing user.
func (s *UserService) DeleteUser(ctx context.Context, id uint) error {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, user.ID); err != nil {
		return err
	}

	s.publish(EventUserDeleted, user)
	return nil
}

// publish sends a lifecycle event. Failures are logged and never reach the
// caller: the mutation has already been committed.
func (s *UserService) publish(eventType string, user *models.User) {
	if s.events == nil {
		return
	}

	body, err := json.Marshal(UserEvent{
		EventID:    uuid.NewString(),
		Type:       eventType,
		UserID:     user.ID,
		Username:   user.Username,
		Email:      user.Email,
		OccurredAt: s.now().UTC(),
	})
	if err != nil {
		log.Error().Err(err).Str("event", eventType).Msg("failed to encode user event")
		return
	}

	if err := s.events.Publish(eventType, body); err != nil {
		log.Warn().Err(err).Str("event", eventType).Uint("user_id", user.ID).Msg("failed to publish user event")
		return
	}
	log.Debug().Str("event", eventType).Uint("user_id", user.ID).Msg("published user event")
}
