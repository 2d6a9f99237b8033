package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/qpaperai/qpaper-api/internal/app/models"
	"github.com/qpaperai/qpaper-api/internal/app/models/dto"
	"github.com/qpaperai/qpaper-api/internal/app/services"
	"github.com/qpaperai/qpaper-api/internal/middleware"
	"github.com/qpaperai/qpaper-api/internal/pkg/helpers"
	"github.com/qpaperai/qpaper-api/internal/pkg/logger"
)

// QuestionController handles question search, practice and moderation operations
type QuestionController struct {
	questionService services.QuestionService
	logger          zerolog.Logger
}

// NewQuestionController creates a new QuestionController
func NewQuestionController(questionService services.QuestionService) *QuestionController {
	return &QuestionController{
		questionService: questionService,
		logger:          logger.WithComponent("question_controller"),
	}
}

// questionFilterFromQuery reads the shared search filter parameters.
// Unparseable numeric values are treated as absent, matching how the
// pagination helpers degrade.
func questionFilterFromQuery(ctx *gin.Context) models.QuestionFilter {
	filter := models.QuestionFilter{
		Query:      ctx.Query("q"),
		CourseCode: ctx.Query("course_code"),
		ExamType:   models.ExamType(ctx.Query("exam_type")),
	}

	if v, err := strconv.Atoi(ctx.Query("unit")); err == nil && v > 0 {
		filter.UnitNumber = v
	}
	if v, err := strconv.Atoi(ctx.Query("bloom_level")); err == nil && v > 0 {
		filter.BloomLevel = v
	}
	if v, err := strconv.Atoi(ctx.Query("marks")); err == nil && v > 0 {
		filter.Marks = v
	}
	if v, err := strconv.Atoi(ctx.Query("year")); err == nil && v > 0 {
		filter.ExamYear = v
	}

	return filter
}

// PublicSearch searches approved questions without authentication
// @Summary Search approved questions
// @Description Empty q returns all approved questions, newest first
// @Tags questions
// @Produce json
// @Param q query string false "Text to match against question text"
// @Param course_code query string false "Course code"
// @Param unit query int false "Unit number"
// @Param bloom_level query int false "Bloom level 1-6"
// @Param marks query int false "Marks value"
// @Param exam_type query string false "CIE or SEE"
// @Param year query int false "Exam year"
// @Param page query int false "Page number (default 1)"
// @Param size query int false "Page size (default 20, max 100)"
// @Success 200 {object} dto.QuestionListResponse "Questions"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /public/search [get]
func (c *QuestionController) PublicSearch(ctx *gin.Context) {
	filter := questionFilterFromQuery(ctx)
	page, pageSize := helpers.ParsePaginationParamsWithDefault(ctx, helpers.SearchPageSize)

	resp, err := c.questionService.PublicSearch(ctx.Request.Context(), filter, page, pageSize)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, resp)
}

// StudentSearch searches approved questions with per-user bookmark flags
// @Summary Search questions as a student
// @Description Same filters as the public search plus only_my_courses and bookmarked flags
// @Tags student
// @Produce json
// @Security BearerAuth
// @Param q query string false "Text to match against question text"
// @Param course_code query string false "Course code"
// @Param unit query int false "Unit number"
// @Param bloom_level query int false "Bloom level 1-6"
// @Param marks query int false "Marks value"
// @Param exam_type query string false "CIE or SEE"
// @Param year query int false "Exam year"
// @Param only_my_courses query bool false "Restrict to the student's selected courses"
// @Param page query int false "Page number (default 1)"
// @Param size query int false "Page size (default 20, max 100)"
// @Success 200 {object} dto.QuestionListResponse "Questions"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /student/search [get]
func (c *QuestionController) StudentSearch(ctx *gin.Context) {
	userID, ok := middleware.UserIDFromContext(ctx)
	if !ok {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required")
		ctx.JSON(http.StatusUnauthorized, dto.NewErrorResponse(errorDetail))
		return
	}

	filter := questionFilterFromQuery(ctx)
	onlyMyCourses := ctx.Query("only_my_courses") == "true"
	page, pageSize := helpers.ParsePaginationParamsWithDefault(ctx, helpers.SearchPageSize)

	resp, err := c.questionService.StudentSearch(ctx.Request.Context(), userID, filter, onlyMyCourses, page, pageSize)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, resp)
}

// RandomQuestions returns a practice set of random approved questions
// @Summary Draw random questions for practice
// @Description At most one question per variant group is returned
// @Tags student
// @Produce json
// @Security BearerAuth
// @Param course_code query string false "Course code"
// @Param unit query int false "Unit number"
// @Param bloom_level query int false "Bloom level 1-6"
// @Param marks query int false "Marks value"
// @Param exam_type query string false "CIE or SEE"
// @Param year query int false "Exam year"
// @Param count query int false "Number of questions (default 10, max 50)"
// @Success 200 {object} dto.RandomQuestionsResponse "Questions"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /student/random-questions [get]
func (c *QuestionController) RandomQuestions(ctx *gin.Context) {
	filter := questionFilterFromQuery(ctx)

	count := 0
	if v, err := strconv.Atoi(ctx.Query("count")); err == nil {
		count = v
	}

	resp, err := c.questionService.RandomQuestions(ctx.Request.Context(), filter, count)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, resp)
}

// CreateQuestion adds a hand-entered question
// @Summary Create a question
// @Description Hand-entered questions are approved immediately
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateQuestionRequest true "Question"
// @Success 201 {object} dto.QuestionResponse "Created"
// @Failure 400 {object} dto.ErrorResponse "Invalid request format"
// @Failure 404 {object} dto.ErrorResponse "Course not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /admin/questions [post]
func (c *QuestionController) CreateQuestion(ctx *gin.Context) {
	var req dto.CreateQuestionRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	resp, err := c.questionService.Create(ctx.Request.Context(), &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, resp)
}

// UpdateQuestion modifies a question
// @Summary Update a question
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Question ID"
// @Param request body dto.UpdateQuestionRequest true "Question fields"
// @Success 200 {object} dto.QuestionResponse "Updated"
// @Failure 400 {object} dto.ErrorResponse "Invalid request format"
// @Failure 404 {object} dto.ErrorResponse "Question not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /admin/questions/{id} [put]
func (c *QuestionController) UpdateQuestion(ctx *gin.Context) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid question ID")
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	var req dto.UpdateQuestionRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	resp, err := c.questionService.Update(ctx.Request.Context(), id, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, resp)
}

// DeleteQuestion soft-deletes a question
// @Summary Delete a question
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "Question ID"
// @Success 200 {object} dto.SuccessResponse "Deleted"
// @Failure 404 {object} dto.ErrorResponse "Question not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /admin/questions/{id} [delete]
func (c *QuestionController) DeleteQuestion(ctx *gin.Context) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid question ID")
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	if err := c.questionService.Delete(ctx.Request.Context(), id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.SuccessResponse{Message: "Question deleted"})
}

// ListPendingQuestions returns extracted questions awaiting review
// @Summary List pending questions
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number (default 1)"
// @Param size query int false "Page size (default 10, max 100)"
// @Success 200 {object} dto.QuestionListResponse "Pending questions, lowest OCR confidence first"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /admin/questions/pending [get]
func (c *QuestionController) ListPendingQuestions(ctx *gin.Context) {
	page, pageSize := helpers.ParsePaginationParams(ctx)

	resp, err := c.questionService.ListPending(ctx.Request.Context(), page, pageSize)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, resp)
}

// ReviewQuestion approves or rejects a pending question
// @Summary Review a pending question
// @Description Approving assigns the question to a variant group
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Question ID"
// @Param request body dto.ReviewQuestionRequest true "approve or reject"
// @Success 200 {object} dto.QuestionResponse "Reviewed"
// @Failure 400 {object} dto.ErrorResponse "Invalid request format"
// @Failure 404 {object} dto.ErrorResponse "Question not found"
// @Failure 409 {object} dto.ErrorResponse "Question is not pending"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /admin/questions/{id}/review [post]
func (c *QuestionController) ReviewQuestion(ctx *gin.Context) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid question ID")
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	var req dto.ReviewQuestionRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	resp, err := c.questionService.Review(ctx.Request.Context(), id, req.Action)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	c.logger.Info().Int64("questionId", id).Str("action", req.Action).Msg("Question reviewed")
	ctx.JSON(http.StatusOK, resp)
}
