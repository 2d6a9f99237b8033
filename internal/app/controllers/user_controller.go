package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/qpaperai/qpaper-api/internal/app/models/dto"
	"github.com/qpaperai/qpaper-api/internal/app/services"
	"github.com/qpaperai/qpaper-api/internal/middleware"
	"github.com/qpaperai/qpaper-api/internal/pkg/logger"
)

// UserController handles admin user management operations
type UserController struct {
	userService services.UserService
	logger      zerolog.Logger
}

// NewUserController creates a new UserController
func NewUserController(userService services.UserService) *UserController {
	return &UserController{
		userService: userService,
		logger:      logger.WithComponent("user_controller"),
	}
}

// ListUsers returns accounts filtered by role or free text
// @Summary List users
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param role query string false "STUDENT, FACULTY or ADMIN"
// @Param search query string false "Matches username, email or full name"
// @Param page query int false "Page number (default 1)"
// @Param pageSize query int false "Page size (default 10, max 100)"
// @Success 200 {object} dto.UserListResponse "Users"
// @Failure 400 {object} dto.ErrorResponse "Invalid query parameters"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /admin/users [get]
func (c *UserController) ListUsers(ctx *gin.Context) {
	var req dto.UserFilterRequest
	if !middleware.BindQuery(ctx, &req) {
		return
	}

	resp, err := c.userService.ListUsers(ctx.Request.Context(), &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, resp)
}

// SetUserActive enables or disables an account
// @Summary Enable or disable a user
// @Description Disabling an account revokes all of its refresh tokens
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Param request body dto.SetUserActiveRequest true "Target state"
// @Success 200 {object} dto.UserResponse "Updated user"
// @Failure 400 {object} dto.ErrorResponse "Invalid request format"
// @Failure 404 {object} dto.ErrorResponse "User not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /admin/users/{id}/active [put]
func (c *UserController) SetUserActive(ctx *gin.Context) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid user ID")
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	var req dto.SetUserActiveRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	resp, err := c.userService.SetActive(ctx.Request.Context(), id, *req.IsActive)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	c.logger.Info().Int64("userId", id).Bool("isActive", *req.IsActive).Msg("User active state changed")
	ctx.JSON(http.StatusOK, resp)
}
