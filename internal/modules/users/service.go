// Package users covers the staff-side user directory: listing accounts,
// the master roster for assignment pickers, and role changes.
package users

import (
	"context"
	"errors"
	"fmt"

	"souvenir/internal/access"
	"souvenir/internal/domain"

	"gorm.io/gorm"
)

var (
	ErrNotFound   = errors.New("user not found")
	ErrValidation = errors.New("validation failed")
)

type UserRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	List(ctx context.Context, role *domain.Role, limit, offset int) ([]domain.User, int64, error)
	ListMasters(ctx context.Context) ([]domain.User, error)
	UpdateRole(ctx context.Context, id int64, role domain.Role) error
}

type Service struct {
	users UserRepository
}

func NewService(users UserRepository) *Service {
	return &Service{users: users}
}

// List returns accounts with an optional role filter. Staff only.
func (s *Service) List(ctx context.Context, actor access.Actor, role *domain.Role, limit, offset int) ([]domain.User, int64, error) {
	if err := access.CanListUsers(actor); err != nil {
		return nil, 0, err
	}
	if role != nil && !role.Valid() {
		return nil, 0, fmt.Errorf("%w: unknown role %q", ErrValidation, *role)
	}
	return s.users.List(ctx, role, limit, offset)
}

// Masters is open to any authenticated user: clients see who might work
// on their order, staff use it for the assignment picker.
func (s *Service) Masters(ctx context.Context) ([]domain.User, error) {
	return s.users.ListMasters(ctx)
}

// ChangeRole moves an account to a new role. Only an admin may touch
// another admin's account.
func (s *Service) ChangeRole(ctx context.Context, actor access.Actor, userID int64, role domain.Role) (*domain.User, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", ErrValidation, role)
	}

	target, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if err := access.CanChangeRole(actor, target); err != nil {
		return nil, err
	}

	if err := s.users.UpdateRole(ctx, userID, role); err != nil {
		return nil, err
	}
	target.Role = role
	return target, nil
}
