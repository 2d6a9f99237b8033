package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qpaperai/qpaper-api/internal/app/models/dto"
)

func newLimitedEngine(limiter *RateLimiter, pre ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(pre...)
	router.Use(limiter.Middleware())
	router.GET("/ping", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return router
}

func doGet(router *gin.Engine, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.RemoteAddr = remoteAddr
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRateLimiter_BlocksOverLimit(t *testing.T) {
	router := newLimitedEngine(NewRateLimiter(3, time.Minute))

	for i := 0; i < 3; i++ {
		require.Equal(t, http.StatusOK, doGet(router, "192.0.2.1:5000").Code, "request %d", i+1)
	}

	w := doGet(router, "192.0.2.1:5000")
	require.Equal(t, http.StatusTooManyRequests, w.Code)

	retryAfter := w.Header().Get("Retry-After")
	require.NotEmpty(t, retryAfter, "Retry-After header missing on 429 response")
	seconds, err := strconv.Atoi(retryAfter)
	require.NoError(t, err, "Retry-After %q is not an integer", retryAfter)
	assert.GreaterOrEqual(t, seconds, 0)
	assert.LessOrEqual(t, seconds, 60, "Retry-After must stay within the window")

	var resp dto.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.ErrorCodeRateLimited, resp.Error.Code)
}

func TestRateLimiter_KeysClientsByIP(t *testing.T) {
	router := newLimitedEngine(NewRateLimiter(1, time.Minute))

	assert.Equal(t, http.StatusOK, doGet(router, "192.0.2.1:5000").Code)
	assert.Equal(t, http.StatusTooManyRequests, doGet(router, "192.0.2.1:5000").Code)

	// A different address still has budget.
	assert.Equal(t, http.StatusOK, doGet(router, "192.0.2.2:5000").Code)
}

func TestRateLimiter_PrefersUserKeyOverIP(t *testing.T) {
	userFromHeader := func(c *gin.Context) {
		if raw := c.GetHeader("X-Test-User"); raw != "" {
			id, _ := strconv.ParseInt(raw, 10, 64)
			c.Set(CtxUserID, id)
		}
	}
	router := newLimitedEngine(NewRateLimiter(1, time.Minute), userFromHeader)

	send := func(userID string) int {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.RemoteAddr = "192.0.2.1:5000"
		req.Header.Set("X-Test-User", userID)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, send("7"), "user 7 first request")
	// Same IP, different user: own bucket.
	assert.Equal(t, http.StatusOK, send("8"), "user 8 first request")
	assert.Equal(t, http.StatusTooManyRequests, send("7"), "user 7 second request")
}

func TestRateLimiter_WindowExpiryResetsBudget(t *testing.T) {
	router := newLimitedEngine(NewRateLimiter(1, 20*time.Millisecond))

	require.Equal(t, http.StatusOK, doGet(router, "192.0.2.1:5000").Code)
	require.Equal(t, http.StatusTooManyRequests, doGet(router, "192.0.2.1:5000").Code)

	time.Sleep(30 * time.Millisecond)

	assert.Equal(t, http.StatusOK, doGet(router, "192.0.2.1:5000").Code, "budget must reset after the window")
}
