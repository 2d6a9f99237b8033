package services

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qpaperai/qpaper-api/internal/app/models"
	"github.com/qpaperai/qpaper-api/internal/app/models/dto"
	"github.com/qpaperai/qpaper-api/internal/pkg/apperrors"
	"github.com/qpaperai/qpaper-api/internal/pkg/auth"
)

func newTestAuthService(users userStore, tokens tokenStore) *AuthService {
	return &AuthService{
		userRepo:  users,
		tokenRepo: tokens,
		jwtService: auth.NewJWTService(auth.JWTConfig{
			SecretKey:       "auth-service-test-secret",
			AccessTokenExp:  time.Hour,
			RefreshTokenExp: 24 * time.Hour,
			TokenIssuer:     "qpaper-api",
		}),
		logger: zerolog.Nop(),
	}
}

func activeStudent(t *testing.T, password string) *models.User {
	t.Helper()
	hash, err := auth.HashPassword(password)
	require.NoError(t, err)
	return &models.User{
		ID:       7,
		Username: "jdoe",
		Email:    "jdoe@college.edu",
		Password: hash,
		FullName: "Jane Doe",
		RoleType: models.RoleStudent,
		IsActive: true,
	}
}

func TestLogin_IssuesTokenPair(t *testing.T) {
	ctx := context.Background()
	user := activeStudent(t, "Passw0rd!")

	var lastLoginUpdated int64
	users := &fakeUserStore{
		getByUsernameOrEmail: func(_ context.Context, identifier string) (*models.User, error) {
			if identifier != "jdoe" {
				return nil, apperrors.ErrUserNotFound
			}
			return user, nil
		},
		updateLastLogin: func(_ context.Context, userID int64) error {
			lastLoginUpdated = userID
			return nil
		},
	}
	tokens := newFakeTokenStore()
	svc := newTestAuthService(users, tokens)

	resp, err := svc.Login(ctx, &dto.LoginRequest{UsernameOrEmail: "jdoe", Password: "Passw0rd!"})
	require.NoError(t, err)

	assert.NotEmpty(t, resp.Token.AccessToken)
	assert.NotEmpty(t, resp.Token.RefreshToken)
	assert.Equal(t, "Bearer", resp.Token.TokenType)
	assert.Equal(t, int64(3600), resp.Token.ExpiresIn)
	assert.Equal(t, int64(7), resp.User.ID)
	assert.Equal(t, "jdoe", resp.User.Username)

	require.Len(t, tokens.created, 1)
	assert.Equal(t, resp.Token.RefreshToken, tokens.created[0], "issued refresh token must be persisted")
	assert.Equal(t, int64(7), lastLoginUpdated, "login must update last_login_at")
}

func TestLogin_Failures(t *testing.T) {
	ctx := context.Background()
	user := activeStudent(t, "Passw0rd!")
	disabled := *user
	disabled.IsActive = false

	users := &fakeUserStore{
		getByUsernameOrEmail: func(_ context.Context, identifier string) (*models.User, error) {
			switch identifier {
			case "jdoe":
				return user, nil
			case "gone":
				return &disabled, nil
			default:
				return nil, apperrors.ErrUserNotFound
			}
		},
	}
	svc := newTestAuthService(users, newFakeTokenStore())

	tests := []struct {
		name    string
		req     dto.LoginRequest
		wantErr error
	}{
		{"wrong password", dto.LoginRequest{UsernameOrEmail: "jdoe", Password: "WrongPass1"}, apperrors.ErrInvalidCredentials},
		{"unknown identity", dto.LoginRequest{UsernameOrEmail: "nobody", Password: "Passw0rd!"}, apperrors.ErrInvalidCredentials},
		{"disabled account", dto.LoginRequest{UsernameOrEmail: "gone", Password: "Passw0rd!"}, apperrors.ErrAccountDisabled},
		{"empty credentials", dto.LoginRequest{UsernameOrEmail: "", Password: ""}, apperrors.ErrValidationFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Login(ctx, &tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestRefreshToken_RotatesAndRejectsReplay(t *testing.T) {
	ctx := context.Background()
	user := activeStudent(t, "Passw0rd!")

	users := &fakeUserStore{
		getByID: func(_ context.Context, id int64) (*models.User, error) {
			if id != 7 {
				return nil, apperrors.ErrUserNotFound
			}
			return user, nil
		},
	}
	tokens := newFakeTokenStore()
	require.NoError(t, tokens.CreateToken(ctx, "old-refresh", 7, time.Now().Add(time.Hour)))
	svc := newTestAuthService(users, tokens)

	resp, err := svc.RefreshToken(ctx, "old-refresh")
	require.NoError(t, err)
	require.NotEmpty(t, resp.RefreshToken)
	assert.NotEqual(t, "old-refresh", resp.RefreshToken, "refresh token must rotate")
	assert.NotEmpty(t, resp.AccessToken)

	// The presented token was revoked, so replaying it fails.
	_, err = svc.RefreshToken(ctx, "old-refresh")
	require.ErrorIs(t, err, apperrors.ErrTokenRevoked)

	// The rotated token still works.
	_, err = svc.RefreshToken(ctx, resp.RefreshToken)
	require.NoError(t, err)
}

func TestRefreshToken_Rejections(t *testing.T) {
	ctx := context.Background()
	disabled := activeStudent(t, "Passw0rd!")
	disabled.IsActive = false

	users := &fakeUserStore{
		getByID: func(_ context.Context, id int64) (*models.User, error) {
			return disabled, nil
		},
	}
	tokens := newFakeTokenStore()
	_ = tokens.CreateToken(ctx, "expired-token", 7, time.Now().Add(-time.Minute))
	_ = tokens.CreateToken(ctx, "disabled-owner", 7, time.Now().Add(time.Hour))
	svc := newTestAuthService(users, tokens)

	_, err := svc.RefreshToken(ctx, "expired-token")
	assert.ErrorIs(t, err, apperrors.ErrTokenExpired)

	_, err = svc.RefreshToken(ctx, "never-issued")
	assert.ErrorIs(t, err, apperrors.ErrTokenNotFound)

	_, err = svc.RefreshToken(ctx, "disabled-owner")
	assert.ErrorIs(t, err, apperrors.ErrAccountDisabled)

	_, err = svc.RefreshToken(ctx, "  ")
	assert.ErrorIs(t, err, apperrors.ErrTokenInvalid)
}

func TestLogout_Idempotent(t *testing.T) {
	ctx := context.Background()
	tokens := newFakeTokenStore()
	_ = tokens.CreateToken(ctx, "live-token", 7, time.Now().Add(time.Hour))
	svc := newTestAuthService(&fakeUserStore{}, tokens)

	require.NoError(t, svc.Logout(ctx, "live-token"))
	rec := tokens.records["live-token"]
	require.NotNil(t, rec)
	assert.True(t, rec.revoked)

	// Logging out a token that was never issued succeeds quietly.
	assert.NoError(t, svc.Logout(ctx, "never-issued"))

	assert.ErrorIs(t, svc.Logout(ctx, ""), apperrors.ErrTokenInvalid)
}

func TestRegister_CreatesStudent(t *testing.T) {
	ctx := context.Background()

	var created *models.User
	users := &fakeUserStore{
		usernameExists: func(_ context.Context, username string) (bool, error) { return false, nil },
		emailExists:    func(_ context.Context, email string) (bool, error) { return false, nil },
		create: func(_ context.Context, user *models.User) (int64, error) {
			created = user
			return 42, nil
		},
	}
	tokens := newFakeTokenStore()
	svc := newTestAuthService(users, tokens)

	resp, err := svc.Register(ctx, &dto.RegisterRequest{
		Username: "newkid",
		Email:    "NewKid@College.EDU",
		Password: "Secret123",
		FullName: "New Kid",
	})
	require.NoError(t, err)

	require.NotNil(t, created, "user never created")
	assert.Equal(t, models.RoleStudent, created.RoleType)
	assert.True(t, created.IsActive, "new account must be active")
	assert.Equal(t, "newkid@college.edu", created.Email, "email must be lowercased")
	assert.True(t, auth.CheckPassword(created.Password, "Secret123"), "stored password hash must verify")

	assert.NotEmpty(t, resp.Token.AccessToken, "registration must sign the user in")
	assert.NotEmpty(t, resp.Token.RefreshToken)
	assert.Equal(t, int64(42), resp.User.ID)
}

func TestRegister_Rejections(t *testing.T) {
	ctx := context.Background()
	users := &fakeUserStore{
		usernameExists: func(_ context.Context, username string) (bool, error) {
			return username == "taken", nil
		},
		emailExists: func(_ context.Context, email string) (bool, error) {
			return email == "used@college.edu", nil
		},
	}
	svc := newTestAuthService(users, newFakeTokenStore())

	tests := []struct {
		name    string
		req     dto.RegisterRequest
		wantErr error
	}{
		{"username taken", dto.RegisterRequest{Username: "taken", Email: "a@b.edu", Password: "Secret123", FullName: "A"}, apperrors.ErrUsernameAlreadyExists},
		{"email taken", dto.RegisterRequest{Username: "fresh", Email: "used@college.edu", Password: "Secret123", FullName: "A"}, apperrors.ErrEmailAlreadyExists},
		{"short username", dto.RegisterRequest{Username: "ab", Email: "a@b.edu", Password: "Secret123", FullName: "A"}, apperrors.ErrValidationFailed},
		{"bad email", dto.RegisterRequest{Username: "fresh", Email: "not-an-email", Password: "Secret123", FullName: "A"}, apperrors.ErrInvalidEmail},
		{"password without digits", dto.RegisterRequest{Username: "fresh", Email: "a@b.edu", Password: "secretpass", FullName: "A"}, apperrors.ErrInvalidPassword},
		{"password too short", dto.RegisterRequest{Username: "fresh", Email: "a@b.edu", Password: "S3cret", FullName: "A"}, apperrors.ErrInvalidPassword},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(ctx, &tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestChangePassword(t *testing.T) {
	ctx := context.Background()
	user := activeStudent(t, "OldPass12")

	var storedHash string
	users := &fakeUserStore{
		getByID: func(_ context.Context, id int64) (*models.User, error) { return user, nil },
		updatePassword: func(_ context.Context, userID int64, passwordHash string) error {
			storedHash = passwordHash
			return nil
		},
	}
	tokens := newFakeTokenStore()
	_ = tokens.CreateToken(ctx, "session-a", 7, time.Now().Add(time.Hour))
	_ = tokens.CreateToken(ctx, "session-b", 7, time.Now().Add(time.Hour))
	svc := newTestAuthService(users, tokens)

	err := svc.ChangePassword(ctx, 7, &dto.ChangePasswordRequest{
		CurrentPassword: "OldPass12",
		NewPassword:     "NewPass34",
	})
	require.NoError(t, err)

	assert.True(t, auth.CheckPassword(storedHash, "NewPass34"), "stored hash must match the new password")
	for name, rec := range tokens.records {
		assert.True(t, rec.revoked, "session %s survived the password change", name)
	}

	// Wrong current password is rejected before anything changes.
	err = svc.ChangePassword(ctx, 7, &dto.ChangePasswordRequest{
		CurrentPassword: "Guess1234",
		NewPassword:     "Another56",
	})
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
}

func TestGetProfile(t *testing.T) {
	ctx := context.Background()
	user := activeStudent(t, "Passw0rd!")

	users := &fakeUserStore{
		getByID: func(_ context.Context, id int64) (*models.User, error) { return user, nil },
	}
	enroll := &fakeEnrollmentStore{
		listCodesByUser: func(_ context.Context, userID int64) ([]string, error) {
			return []string{"CS301", "CS405"}, nil
		},
	}
	bookmarks := &fakeBookmarkStore{
		countByUser: func(_ context.Context, userID int64) (int64, error) { return 4, nil },
	}

	svc := newTestAuthService(users, newFakeTokenStore())
	svc.enrollRepo = enroll
	svc.bookmarkRepo = bookmarks

	profile, err := svc.GetProfile(ctx, 7)
	require.NoError(t, err)

	assert.Equal(t, "jdoe", profile.Username)
	assert.Equal(t, []string{"CS301", "CS405"}, profile.SelectedCourses)
	assert.Equal(t, int64(4), profile.BookmarkCount)
}
