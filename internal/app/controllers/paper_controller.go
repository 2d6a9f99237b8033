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

// PaperController handles question paper upload and ingest tracking
type PaperController struct {
	paperService services.PaperService
	logger       zerolog.Logger
}

// NewPaperController creates a new PaperController
func NewPaperController(paperService services.PaperService) *PaperController {
	return &PaperController{
		paperService: paperService,
		logger:       logger.WithComponent("paper_controller"),
	}
}

// UploadPaper accepts a PDF question paper for asynchronous extraction
// @Summary Upload a question paper
// @Description The paper is stored immediately and extracted by a background worker
// @Tags admin
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param courseCode formData string true "Course code"
// @Param examType formData string true "CIE or SEE"
// @Param examYear formData int true "Exam year"
// @Param semester formData int true "Semester 1-8"
// @Param file formData file true "PDF file"
// @Success 202 {object} dto.UploadPaperResponse "Accepted for processing"
// @Failure 400 {object} dto.ErrorResponse "Invalid form data or unsupported file"
// @Failure 404 {object} dto.ErrorResponse "Course not found"
// @Failure 409 {object} dto.ErrorResponse "Paper already uploaded for this course and exam"
// @Failure 413 {object} dto.ErrorResponse "File too large"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /admin/papers [post]
func (c *PaperController) UploadPaper(ctx *gin.Context) {
	userID, ok := middleware.UserIDFromContext(ctx)
	if !ok {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required")
		ctx.JSON(http.StatusUnauthorized, dto.NewErrorResponse(errorDetail))
		return
	}

	var req dto.UploadPaperRequest
	if err := ctx.ShouldBind(&req); err != nil {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid form data")
		errorDetail = errorDetail.WithDetails(err.Error())
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	file, err := ctx.FormFile("file")
	if err != nil {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid or missing file")
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	resp, err := c.paperService.Upload(ctx.Request.Context(), userID, &req, file)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	c.logger.Info().
		Int64("paperId", resp.PaperID).
		Str("jobId", resp.JobID).
		Str("courseCode", req.CourseCode).
		Msg("Paper accepted for extraction")

	ctx.JSON(http.StatusAccepted, resp)
}

// ListPapers returns uploaded papers with their ingest status
// @Summary List papers
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param course_code query string false "Course code"
// @Param status query string false "UPLOADED, PROCESSING, PROCESSED or FAILED"
// @Param exam_type query string false "CIE or SEE"
// @Param year query int false "Exam year"
// @Param page query int false "Page number (default 1)"
// @Param size query int false "Page size (default 10, max 100)"
// @Success 200 {object} dto.PaperListResponse "Papers"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /admin/papers [get]
func (c *PaperController) ListPapers(ctx *gin.Context) {
	page, pageSize := helpers.ParsePaginationParams(ctx)

	filters := make(map[string]interface{})
	if courseCode := ctx.Query("course_code"); courseCode != "" {
		filters["courseCode"] = courseCode
	}
	if status := ctx.Query("status"); status != "" {
		filters["status"] = models.PaperStatus(status)
	}
	if examType := ctx.Query("exam_type"); examType != "" {
		filters["examType"] = models.ExamType(examType)
	}
	if yearStr := ctx.Query("year"); yearStr != "" {
		if year, err := strconv.Atoi(yearStr); err == nil {
			filters["examYear"] = year
		}
	}

	resp, err := c.paperService.List(ctx.Request.Context(), filters, page, pageSize)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, resp)
}

// GetPaper returns one paper with its extraction summary
// @Summary Get paper detail
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "Paper ID"
// @Success 200 {object} dto.PaperDetailResponse "Paper with extraction summary"
// @Failure 404 {object} dto.ErrorResponse "Paper not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /admin/papers/{id} [get]
func (c *PaperController) GetPaper(ctx *gin.Context) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid paper ID")
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	resp, err := c.paperService.GetDetail(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, resp)
}
