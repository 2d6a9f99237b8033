package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qpaperai/qpaper-api/internal/app/models/dto"
	"github.com/qpaperai/qpaper-api/internal/pkg/apperrors"
)

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   dto.ErrorCode
	}{
		{"validation failed", apperrors.ErrValidationFailed, http.StatusBadRequest, dto.ErrorCodeValidationFailed},
		{"invalid bloom level", apperrors.ErrInvalidBloomLevel, http.StatusBadRequest, dto.ErrorCodeValidationFailed},
		{"invalid exam type", apperrors.ErrInvalidExamType, http.StatusBadRequest, dto.ErrorCodeValidationFailed},
		{"unsupported file", apperrors.ErrUnsupportedFile, http.StatusBadRequest, dto.ErrorCodeUnsupportedFile},
		{"invalid credentials", apperrors.ErrInvalidCredentials, http.StatusUnauthorized, dto.ErrorCodeInvalidCredentials},
		{"token expired", apperrors.ErrTokenExpired, http.StatusUnauthorized, dto.ErrorCodeExpiredToken},
		{"token revoked", apperrors.ErrTokenRevoked, http.StatusUnauthorized, dto.ErrorCodeInvalidToken},
		{"token not found", apperrors.ErrTokenNotFound, http.StatusUnauthorized, dto.ErrorCodeTokenNotFound},
		{"account disabled", apperrors.ErrAccountDisabled, http.StatusForbidden, dto.ErrorCodeUnauthorized},
		{"permission denied", apperrors.ErrPermissionDenied, http.StatusForbidden, dto.ErrorCodeUnauthorized},
		{"course not found", apperrors.ErrCourseNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound},
		{"question not found wrapped", fmt.Errorf("load question: %w", apperrors.ErrQuestionNotFound), http.StatusNotFound, dto.ErrorCodeResourceNotFound},
		{"not enrolled", apperrors.ErrNotEnrolled, http.StatusNotFound, dto.ErrorCodeResourceNotFound},
		{"username exists", apperrors.ErrUsernameAlreadyExists, http.StatusConflict, dto.ErrorCodeResourceAlreadyExists},
		{"paper exists", apperrors.ErrPaperAlreadyExists, http.StatusConflict, dto.ErrorCodeResourceAlreadyExists},
		{"course has questions", apperrors.ErrCourseHasQuestions, http.StatusConflict, dto.ErrorCodeResourceInvalid},
		{"question not pending", apperrors.ErrQuestionNotPending, http.StatusConflict, dto.ErrorCodeResourceInvalid},
		{"extraction too large", apperrors.ErrExtractionTooLarge, http.StatusRequestEntityTooLarge, dto.ErrorCodeResourceInvalid},
		{"unknown error", errors.New("boom"), http.StatusInternalServerError, dto.ErrorCodeInternalServer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, detail := classifyError(tt.err)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantCode, detail.Code)
		})
	}
}

func TestHandleAPIError_CustomMessageWins(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/fail", func(c *gin.Context) {
		HandleAPIError(c, apperrors.NewResourceNotFoundError("Course CS999 not found"))
	})

	req := httptest.NewRequest(http.MethodGet, "/fail", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusNotFound, w.Code)

	var resp dto.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, "Course CS999 not found", resp.Error.Message, "custom message from the service must win")
	assert.Equal(t, dto.ErrorCodeResourceNotFound, resp.Error.Code)
}
