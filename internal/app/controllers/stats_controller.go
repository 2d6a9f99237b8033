package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/qpaperai/qpaper-api/internal/app/services"
	"github.com/qpaperai/qpaper-api/internal/middleware"
)

// StatsController exposes corpus-level counters for the admin dashboard
type StatsController struct {
	statsService *services.StatsService
}

// NewStatsController creates a new StatsController
func NewStatsController(statsService *services.StatsService) *StatsController {
	return &StatsController{statsService: statsService}
}

// GetStats returns corpus totals and breakdowns
// @Summary Corpus statistics
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.StatsResponse "Totals and per-course, per-level, per-status breakdowns"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /admin/stats [get]
func (c *StatsController) GetStats(ctx *gin.Context) {
	resp, err := c.statsService.GetStats(ctx.Request.Context())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, resp)
}
