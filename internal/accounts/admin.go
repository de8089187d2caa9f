package accounts

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"codeberg.org/avksport/server/avk/users"
)

// lists accounts newest first; limit <= 0 returns everything from offset
func (s *Service) ListUsers(ctx context.Context, limit, offset int) ([]*users.User, int64, error) {
	return s.users.List(ctx, limit, offset)
}

func (s *Service) GetUser(ctx context.Context, userID string) (*users.User, error) {
	return s.users.FindByID(ctx, userID)
}

// changes targetID's role; an admin cannot change their own
func (s *Service) SetRole(ctx context.Context, actorID, targetID, role string) (*users.User, error) {
	if actorID == targetID {
		return nil, ErrSelfAction
	}

	return s.users.UpdateRole(ctx, targetID, role)
}

// disables or re-enables an account; disabling ends its cookie sessions
func (s *Service) SetDisabled(ctx context.Context, actorID, targetID string, disabled bool) (*users.User, error) {
	if actorID == targetID {
		return nil, ErrSelfAction
	}

	user, err := s.users.SetActive(ctx, targetID, !disabled)
	if err != nil {
		return nil, err
	}

	if disabled && s.sessions != nil {
		if _, err := s.sessions.DeleteByUser(ctx, targetID); err != nil {
			return nil, fmt.Errorf("failed to end sessions: %w", err)
		}
	}

	return user, nil
}

// removes an account and its sessions
func (s *Service) DeleteUser(ctx context.Context, actorID, targetID string) error {
	if actorID == targetID {
		return ErrSelfAction
	}

	if err := s.users.Delete(ctx, targetID); err != nil {
		return err
	}

	if s.sessions != nil {
		if _, err := s.sessions.DeleteByUser(ctx, targetID); err != nil {
			return fmt.Errorf("failed to end sessions: %w", err)
		}
	}

	return nil
}

// creates an admin account with a password; fails when the email is taken
func (s *Service) CreateAdmin(ctx context.Context, email, password, fullName string) (*users.User, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}

	hash, err := hashNewPassword(password)
	if err != nil {
		return nil, err
	}

	if fullName == "" {
		fullName = "Администратор"
	}

	now := s.now()

	user := &users.User{
		ID:            uuid.NewString(),
		Email:         email,
		FullName:      fullName,
		PasswordHash:  hash,
		Role:          users.RoleAdmin,
		IsActive:      true,
		EmailVerified: true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// sets a password by email without the current one; for operators only
func (s *Service) ForceResetPassword(ctx context.Context, email, password string) error {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return err
	}

	hash, err := hashNewPassword(password)
	if err != nil {
		return err
	}

	return s.users.UpdatePassword(ctx, user.ID, hash)
}

// sets a role by email; for operators only
func (s *Service) SetRoleByEmail(ctx context.Context, email, role string) (*users.User, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	return s.users.UpdateRole(ctx, user.ID, role)
}

// reports whether err is a client mistake rather than a failure
func IsInputError(err error) bool {
	return errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, users.ErrInvalidRole) ||
		errors.Is(err, users.ErrNothingToApply) ||
		errors.Is(err, ErrSelfAction) ||
		errors.Is(err, ErrNoLocalPassword)
}
