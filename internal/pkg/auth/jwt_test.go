package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qpaperai/qpaper-api/internal/app/models"
)

func testService(accessExp time.Duration) *JWTService {
	return NewJWTService(JWTConfig{
		SecretKey:       "test-secret-key-for-unit-tests",
		AccessTokenExp:  accessExp,
		RefreshTokenExp: 720 * time.Hour,
		TokenIssuer:     "qpaper-api",
	})
}

func TestGenerateTokenPair_RoundTrip(t *testing.T) {
	service := testService(time.Hour)
	user := &models.User{ID: 42, Username: "jdoe", RoleType: models.RoleStudent}

	accessToken, refreshToken, expiresIn, refreshExpiresIn, err := service.GenerateTokenPair(user)
	require.NoError(t, err)

	assert.Equal(t, int64(3600), expiresIn)
	assert.Equal(t, int64(720*3600), refreshExpiresIn)
	_, err = uuid.Parse(refreshToken)
	assert.NoError(t, err, "refresh token %q is not a UUID", refreshToken)

	claims, err := service.ValidateToken(accessToken)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "jdoe", claims.Username)
	assert.Equal(t, string(models.RoleStudent), claims.RoleType)
	assert.Equal(t, "qpaper-api", claims.Issuer)
}

func TestValidateToken_WrongSecret(t *testing.T) {
	service := testService(time.Hour)
	user := &models.User{ID: 1, Username: "jdoe", RoleType: models.RoleStudent}

	accessToken, _, _, _, err := service.GenerateTokenPair(user)
	require.NoError(t, err)

	other := NewJWTService(JWTConfig{SecretKey: "a-different-secret", AccessTokenExp: time.Hour})
	_, err = other.ValidateToken(accessToken)
	assert.Error(t, err, "token signed with another secret must not validate")
}

func TestValidateToken_Expired(t *testing.T) {
	service := testService(-time.Hour)
	user := &models.User{ID: 1, Username: "jdoe", RoleType: models.RoleStudent}

	accessToken, _, _, _, err := service.GenerateTokenPair(user)
	require.NoError(t, err)

	_, err = service.ValidateToken(accessToken)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestValidateAndExtractClaims_Rejections(t *testing.T) {
	service := testService(time.Hour)

	_, err := service.ValidateAndExtractClaims("")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = service.ValidateAndExtractClaims("not.a.token")
	assert.Error(t, err, "malformed token must not validate")

	// A structurally valid token without a positive user id is rejected.
	anonymous := &models.User{ID: 0, Username: "ghost", RoleType: models.RoleStudent}
	accessToken, _, _, _, err := service.GenerateTokenPair(anonymous)
	require.NoError(t, err)
	_, err = service.ValidateAndExtractClaims(accessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestExtractBearerToken(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		want    string
		wantErr bool
	}{
		{"bearer prefix", "Bearer abc.def.ghi", "abc.def.ghi", false},
		{"raw token", "abc.def.ghi", "abc.def.ghi", false},
		{"empty header", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractBearerToken(tt.header)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGetRefreshTokenExpiry(t *testing.T) {
	service := testService(time.Hour)

	expiry := service.GetRefreshTokenExpiry()
	assert.WithinDuration(t, time.Now().Add(720*time.Hour), expiry, time.Minute)
}
