package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/qpaperai/qpaper-api/internal/app/models/dto"
	"github.com/qpaperai/qpaper-api/internal/app/services"
	"github.com/qpaperai/qpaper-api/internal/middleware"
	"github.com/qpaperai/qpaper-api/internal/pkg/helpers"
	"github.com/qpaperai/qpaper-api/internal/pkg/logger"
)

// StudentController handles course selection and bookmark operations
type StudentController struct {
	studentService services.StudentService
	logger         zerolog.Logger
}

// NewStudentController creates a new StudentController
func NewStudentController(studentService services.StudentService) *StudentController {
	return &StudentController{
		studentService: studentService,
		logger:         logger.WithComponent("student_controller"),
	}
}

// SelectCourses replaces the student's course selection
// @Summary Select courses
// @Description Replaces the entire selection; one unknown or inactive code rejects the request
// @Tags student
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.SelectCoursesRequest true "Course codes"
// @Success 200 {object} dto.MyCoursesResponse "Selected courses"
// @Failure 400 {object} dto.ErrorResponse "Unknown or inactive course codes"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /student/select-courses [post]
func (c *StudentController) SelectCourses(ctx *gin.Context) {
	userID, ok := middleware.UserIDFromContext(ctx)
	if !ok {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required")
		ctx.JSON(http.StatusUnauthorized, dto.NewErrorResponse(errorDetail))
		return
	}

	var req dto.SelectCoursesRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	resp, err := c.studentService.SelectCourses(ctx.Request.Context(), userID, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	c.logger.Info().Int64("userId", userID).Int("courses", len(resp.Courses)).Msg("Course selection replaced")
	ctx.JSON(http.StatusOK, resp)
}

// MyCourses lists the student's selected courses
// @Summary List selected courses
// @Tags student
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.MyCoursesResponse "Selected courses"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /student/my-courses [get]
func (c *StudentController) MyCourses(ctx *gin.Context) {
	userID, ok := middleware.UserIDFromContext(ctx)
	if !ok {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required")
		ctx.JSON(http.StatusUnauthorized, dto.NewErrorResponse(errorDetail))
		return
	}

	resp, err := c.studentService.MyCourses(ctx.Request.Context(), userID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, resp)
}

// ToggleBookmark flips the bookmark state of a question
// @Summary Toggle a bookmark
// @Tags student
// @Produce json
// @Security BearerAuth
// @Param id path int true "Question ID"
// @Success 200 {object} dto.BookmarkToggleResponse "Resulting state"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 404 {object} dto.ErrorResponse "Question not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /student/bookmark/{id} [post]
func (c *StudentController) ToggleBookmark(ctx *gin.Context) {
	userID, ok := middleware.UserIDFromContext(ctx)
	if !ok {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required")
		ctx.JSON(http.StatusUnauthorized, dto.NewErrorResponse(errorDetail))
		return
	}

	questionID, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid question ID")
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	resp, err := c.studentService.ToggleBookmark(ctx.Request.Context(), userID, questionID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, resp)
}

// ListBookmarks returns the student's bookmarked questions
// @Summary List bookmarks
// @Tags student
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number (default 1)"
// @Param size query int false "Page size (default 10, max 100)"
// @Success 200 {object} dto.QuestionListResponse "Bookmarked questions"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /student/bookmarks [get]
func (c *StudentController) ListBookmarks(ctx *gin.Context) {
	userID, ok := middleware.UserIDFromContext(ctx)
	if !ok {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required")
		ctx.JSON(http.StatusUnauthorized, dto.NewErrorResponse(errorDetail))
		return
	}

	page, pageSize := helpers.ParsePaginationParams(ctx)

	resp, err := c.studentService.ListBookmarks(ctx.Request.Context(), userID, page, pageSize)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, resp)
}
