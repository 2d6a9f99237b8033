package services

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/qpaperai/qpaper-api/internal/app/models"
	"github.com/qpaperai/qpaper-api/internal/app/models/dto"
	"github.com/qpaperai/qpaper-api/internal/app/repositories"
	"github.com/qpaperai/qpaper-api/internal/pkg/helpers"
	"github.com/qpaperai/qpaper-api/internal/pkg/logger"
)

// UserService defines the interface for admin user management
type UserService interface {
	ListUsers(ctx context.Context, req *dto.UserFilterRequest) (*dto.UserListResponse, error)
	SetActive(ctx context.Context, userID int64, isActive bool) (*dto.UserResponse, error)
}

// userServiceImpl implements UserService
type userServiceImpl struct {
	userRepo  userStore
	tokenRepo tokenStore
	logger    zerolog.Logger
}

// NewUserService creates a new UserService
func NewUserService(repos *repositories.Repositories) UserService {
	return &userServiceImpl{
		userRepo:  repos.UserRepository,
		tokenRepo: repos.TokenRepository,
		logger:    logger.WithComponent("user_service"),
	}
}

// ListUsers returns users matching the admin filter, newest first.
func (s *userServiceImpl) ListUsers(ctx context.Context, req *dto.UserFilterRequest) (*dto.UserListResponse, error) {
	filters := make(map[string]interface{})
	if req.Role != nil && *req.Role != "" {
		filters["roleType"] = models.RoleType(*req.Role)
	}
	if req.Search != nil && *req.Search != "" {
		filters["search"] = *req.Search
	}

	users, total, err := s.userRepo.List(ctx, filters, req.Page, req.PageSize)
	if err != nil {
		return nil, fmt.Errorf("error listing users: %w", err)
	}

	out := make([]dto.UserResponse, 0, len(users))
	for _, user := range users {
		out = append(out, toUserResponse(user))
	}

	return &dto.UserListResponse{
		Users:      out,
		Pagination: helpers.NewPaginationInfo(total, req.Page, req.PageSize),
	}, nil
}

// SetActive enables or disables an account. Disabling also revokes the
// user's refresh tokens so existing sessions die with the account.
func (s *userServiceImpl) SetActive(ctx context.Context, userID int64, isActive bool) (*dto.UserResponse, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := s.userRepo.SetActive(ctx, userID, isActive); err != nil {
		return nil, err
	}
	user.IsActive = isActive

	if !isActive {
		if err := s.tokenRepo.RevokeAllUserTokens(ctx, userID); err != nil {
			s.logger.Error().Err(err).Int64("userID", userID).Msg("Failed to revoke tokens of disabled user")
		}
	}

	s.logger.Info().Int64("userID", userID).Bool("isActive", isActive).Msg("Updated account state")

	resp := toUserResponse(user)
	return &resp, nil
}
