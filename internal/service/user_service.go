package service

import (
	"context"
	"fmt"
	"time"

	"progression-service/internal/event"
	"progression-service/internal/models"
	"progression-service/internal/progression"
)

type UserWriter interface {
	Upsert(ctx context.Context, user *models.User) error
}

// UserService keeps the local user projection in sync and provisions the
// progress record when a user.created event arrives. It implements
// event.UserHandler.
type UserService struct {
	users   UserWriter
	machine *progression.Machine
}

func NewUserService(users UserWriter, machine *progression.Machine) *UserService {
	return &UserService{users: users, machine: machine}
}

func (s *UserService) HandleUserCreated(ctx context.Context, data event.UserCreatedData) error {
	user := &models.User{
		ID:        data.UserID,
		Name:      data.Name,
		Email:     data.Email,
		Role:      data.Role,
		CreatedAt: time.Now(),
	}
	if ts, err := time.Parse(time.RFC3339, data.Timestamp); err == nil {
		user.CreatedAt = ts
	}
	if err := s.users.Upsert(ctx, user); err != nil {
		return fmt.Errorf("failed to upsert user %s: %w", data.UserID, err)
	}

	if _, err := s.machine.EnsureProgress(ctx, data.UserID); err != nil {
		return err
	}
	return nil
}
