package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qpaperai/qpaper-api/internal/app/models"
	"github.com/qpaperai/qpaper-api/internal/app/models/dto"
	"github.com/qpaperai/qpaper-api/internal/pkg/auth"
)

func newAuthTestSetup(t *testing.T, accessExp time.Duration) (*auth.JWTService, *gin.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	jwtService := auth.NewJWTService(auth.JWTConfig{
		SecretKey:       "middleware-test-secret",
		AccessTokenExp:  accessExp,
		RefreshTokenExp: 24 * time.Hour,
		TokenIssuer:     "qpaper-api",
	})
	authMiddleware := NewAuthMiddleware(jwtService)

	router := gin.New()
	protected := router.Group("/", authMiddleware.JWTAuth())
	protected.GET("/me", func(c *gin.Context) {
		id, ok := UserIDFromContext(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, gin.H{"userId": id})
	})
	protected.GET("/admin", authMiddleware.RoleRequired(string(models.RoleAdmin)), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	return jwtService, router
}

func tokenFor(t *testing.T, jwtService *auth.JWTService, user *models.User) string {
	t.Helper()
	accessToken, _, _, _, err := jwtService.GenerateTokenPair(user)
	require.NoError(t, err)
	return accessToken
}

func getWithAuth(router *gin.Engine, path, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeErrorCode(t *testing.T, w *httptest.ResponseRecorder) dto.ErrorCode {
	t.Helper()
	var resp dto.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error, "error body has no error detail")
	return resp.Error.Code
}

func TestJWTAuth_ValidToken(t *testing.T) {
	jwtService, router := newAuthTestSetup(t, time.Hour)
	token := tokenFor(t, jwtService, &models.User{ID: 7, Username: "jdoe", RoleType: models.RoleStudent})

	w := getWithAuth(router, "/me", "Bearer "+token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var body struct {
		UserID int64 `json:"userId"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, int64(7), body.UserID)
}

func TestJWTAuth_RawTokenWithoutBearerPrefix(t *testing.T) {
	jwtService, router := newAuthTestSetup(t, time.Hour)
	token := tokenFor(t, jwtService, &models.User{ID: 7, Username: "jdoe", RoleType: models.RoleStudent})

	w := getWithAuth(router, "/me", token)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestJWTAuth_MissingHeader(t *testing.T) {
	_, router := newAuthTestSetup(t, time.Hour)

	w := getWithAuth(router, "/me", "")
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, dto.ErrorCodeUnauthorized, decodeErrorCode(t, w))
}

func TestJWTAuth_MalformedToken(t *testing.T) {
	_, router := newAuthTestSetup(t, time.Hour)

	w := getWithAuth(router, "/me", "Bearer not-a-jwt")
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, dto.ErrorCodeInvalidToken, decodeErrorCode(t, w))
}

func TestJWTAuth_ExpiredToken(t *testing.T) {
	jwtService, router := newAuthTestSetup(t, -time.Hour)
	token := tokenFor(t, jwtService, &models.User{ID: 7, Username: "jdoe", RoleType: models.RoleStudent})

	w := getWithAuth(router, "/me", "Bearer "+token)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, dto.ErrorCodeExpiredToken, decodeErrorCode(t, w))
}

func TestRoleRequired(t *testing.T) {
	jwtService, router := newAuthTestSetup(t, time.Hour)

	adminToken := tokenFor(t, jwtService, &models.User{ID: 1, Username: "admin", RoleType: models.RoleAdmin})
	studentToken := tokenFor(t, jwtService, &models.User{ID: 2, Username: "jdoe", RoleType: models.RoleStudent})

	assert.Equal(t, http.StatusOK, getWithAuth(router, "/admin", "Bearer "+adminToken).Code)
	assert.Equal(t, http.StatusForbidden, getWithAuth(router, "/admin", "Bearer "+studentToken).Code)
}

func TestUserIDFromContext(t *testing.T) {
	gin.SetMode(gin.TestMode)

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	_, ok := UserIDFromContext(c)
	assert.False(t, ok, "unset context reported a user id")

	c.Set(CtxUserID, int64(5))
	id, ok := UserIDFromContext(c)
	require.True(t, ok)
	assert.Equal(t, int64(5), id)

	c.Set(CtxUserID, "not-an-int")
	_, ok = UserIDFromContext(c)
	assert.False(t, ok, "non-int64 value reported as user id")
}
