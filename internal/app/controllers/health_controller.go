package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/qpaperai/qpaper-api/internal/app/models/dto"
	"github.com/qpaperai/qpaper-api/internal/db"
)

const healthPingTimeout = 2 * time.Second

// HealthController reports liveness of the API and its backing stores
type HealthController struct {
	postgres *db.PostgresDB
	mongo    *db.MongoDB
	redis    *db.RedisDB
}

// NewHealthController creates a new HealthController
func NewHealthController(postgres *db.PostgresDB, mongo *db.MongoDB, redis *db.RedisDB) *HealthController {
	return &HealthController{
		postgres: postgres,
		mongo:    mongo,
		redis:    redis,
	}
}

// Health pings every backing store
// @Summary Health check
// @Tags health
// @Produce json
// @Success 200 {object} dto.HealthResponse "All stores reachable"
// @Failure 503 {object} dto.HealthResponse "One or more stores unreachable"
// @Router /health [get]
func (c *HealthController) Health(ctx *gin.Context) {
	pingCtx, cancel := context.WithTimeout(ctx.Request.Context(), healthPingTimeout)
	defer cancel()

	services := map[string]string{
		"postgres": "ok",
		"mongodb":  "ok",
		"redis":    "ok",
	}
	healthy := true

	if err := c.postgres.Pool.Ping(pingCtx); err != nil {
		services["postgres"] = err.Error()
		healthy = false
	}
	if err := c.mongo.Client.Ping(pingCtx, readpref.Primary()); err != nil {
		services["mongodb"] = err.Error()
		healthy = false
	}
	if c.redis == nil {
		services["redis"] = "disabled"
	} else if err := c.redis.Client.Ping(pingCtx).Err(); err != nil {
		services["redis"] = err.Error()
		healthy = false
	}

	resp := dto.HealthResponse{Status: "ok", Services: services}
	status := http.StatusOK
	if !healthy {
		resp.Status = "degraded"
		status = http.StatusServiceUnavailable
	}

	ctx.JSON(status, resp)
}
