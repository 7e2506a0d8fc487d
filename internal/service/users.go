package service

import (
	"context"
	"fmt"
	"strings"

	apperr "pujabook/internal/errors"
	"pujabook/internal/logger"
	"pujabook/internal/models"
	"pujabook/internal/repository"
)

type UserService struct {
	users *repository.UserRepository
}

func NewUserService(users *repository.UserRepository) *UserService {
	return &UserService{users: users}
}

func (s *UserService) Get(ctx context.Context, id int64) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, apperr.New(apperr.ErrNotFound, "User not found")
	}
	return user, nil
}

func (s *UserService) List(ctx context.Context, page models.Page) ([]models.User, error) {
	users, err := s.users.List(ctx, page.Skip, page.Limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// UpdateProfile applies the non-nil fields of patch to the user
func (s *UserService) UpdateProfile(ctx context.Context, id int64, patch *models.UserPatch) (*models.User, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, apperr.New(apperr.ErrInvalidInput, "Name cannot be empty")
		}
		user.Name = name
	}

	if patch.Email != nil {
		email := normalizeEmail(patch.Email)
		if email != nil && (user.Email == nil || *user.Email != *email) {
			other, err := s.users.GetByEmail(ctx, *email)
			if err != nil {
				return nil, fmt.Errorf("failed to get user: %w", err)
			}
			if other != nil && other.ID != user.ID {
				return nil, apperr.New(apperr.ErrConflict, "Email already registered")
			}
			user.EmailVerified = false
		}
		user.Email = email
	}

	if patch.Mobile != nil && *patch.Mobile != user.Mobile {
		other, err := s.users.GetByMobile(ctx, *patch.Mobile)
		if err != nil {
			return nil, fmt.Errorf("failed to get user: %w", err)
		}
		if other != nil && other.ID != user.ID {
			return nil, apperr.New(apperr.ErrConflict, "Mobile number already registered")
		}
		user.Mobile = *patch.Mobile
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return user, nil
}

func (s *UserService) Approve(ctx context.Context, id int64) (*models.User, error) {
	return s.setFlag(ctx, id, "approved", func(u *models.User) { u.IsActive = true })
}

func (s *UserService) Deactivate(ctx context.Context, actor Actor, id int64) (*models.User, error) {
	if actor.UserID == id {
		return nil, apperr.New(apperr.ErrPrecondition, "You cannot deactivate your own account")
	}
	target, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if target.Role == models.RoleSuperAdmin && actor.Role != models.RoleSuperAdmin {
		return nil, apperr.New(apperr.ErrForbidden, "Super admin permissions required")
	}
	return s.setFlag(ctx, id, "deactivated", func(u *models.User) { u.IsActive = false })
}

func (s *UserService) VerifyEmail(ctx context.Context, id int64) (*models.User, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.Email == nil {
		return nil, apperr.New(apperr.ErrPrecondition, "User has no email address")
	}
	return s.setFlag(ctx, id, "email verified", func(u *models.User) { u.EmailVerified = true })
}

func (s *UserService) setFlag(ctx context.Context, id int64, action string, apply func(*models.User)) (*models.User, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	apply(user)
	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	logger.WithContext(ctx).Info("User "+action, "target_user_id", id)
	return user, nil
}

// CreateAdmin creates an active staff account with a password. Defaults to admin.
func (s *UserService) CreateAdmin(ctx context.Context, req *models.CreateAdminRequest) (*models.User, error) {
	role := models.RoleAdmin
	if req.Role != nil {
		parsed, err := models.ParseRole(*req.Role)
		if err != nil || !parsed.IsStaff() {
			return nil, apperr.New(apperr.ErrInvalidInput, "Role must be admin or super_admin")
		}
		role = parsed
	}

	email := normalizeEmail(&req.Email)
	if email == nil {
		return nil, apperr.New(apperr.ErrInvalidInput, "Email is required")
	}
	if other, err := s.users.GetByEmail(ctx, *email); err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	} else if other != nil {
		return nil, apperr.New(apperr.ErrConflict, "Email already registered")
	}
	if other, err := s.users.GetByMobile(ctx, req.Mobile); err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	} else if other != nil {
		return nil, apperr.New(apperr.ErrConflict, "Mobile number already registered")
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		Mobile:       req.Mobile,
		Role:         role,
		IsActive:     true,
		PasswordHash: &hash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	logger.WithContext(ctx).Info("Staff account created", "target_user_id", user.ID, "role", role)
	return user, nil
}
