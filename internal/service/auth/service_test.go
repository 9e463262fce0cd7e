package auth_service

import (
	"context"
	"testing"
	"time"

	"spectrum-academy/internal/models"
	"spectrum-academy/internal/models/config"
	"spectrum-academy/internal/repository/repotest"
	"spectrum-academy/internal/service"
	setting_service "spectrum-academy/internal/service/setting"
	user_service "spectrum-academy/internal/service/user"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestService(t *testing.T, withAdminCode bool) (*authService, service.SettingService) {
	t.Helper()
	users := repotest.NewUserRepo(
		&models.User{ID: 1, Code: "PLY1", Role: models.RolePlayer, Status: models.StatusActive},
		&models.User{ID: 2, Code: "ADM2", Role: models.RoleAdmin, Status: models.StatusActive},
		&models.User{ID: 3, Code: "PLY3" + models.DeactivatedSuffix, Role: models.RolePlayer, Status: models.StatusSuspended},
	)
	settings := setting_service.NewSettingService(repotest.NewSettingRepo(nil), zap.NewNop())
	if withAdminCode {
		require.NoError(t, settings.SetAdminCode(context.Background(), "admin-secret"))
	}

	cfg := config.AuthConfig{JWTSecret: "test-secret", TokenTTL: time.Hour}
	s := NewAuthService(user_service.NewUserService(users), settings, cfg, zap.NewNop()).(*authService)
	return s, settings
}

func TestLogin_IssuesToken(t *testing.T) {
	s, _ := newTestService(t, false)

	token, user, err := s.Login(context.Background(), " ply1 ", "")
	require.NoError(t, err)
	assert.Equal(t, int64(1), user.ID)

	claims, err := s.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, &service.Claims{UserID: 1, Role: models.RolePlayer}, claims)
}

func TestLogin_Failures(t *testing.T) {
	s, _ := newTestService(t, false)
	ctx := context.Background()

	_, _, err := s.Login(ctx, "", "")
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)

	_, _, err = s.Login(ctx, "NOPE", "")
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)

	_, _, err = s.Login(ctx, "PLY3"+models.DeactivatedSuffix, "")
	assert.ErrorIs(t, err, service.ErrAccountInactive)
}

func TestLogin_AdminNeedsAdminCode(t *testing.T) {
	ctx := context.Background()

	s, _ := newTestService(t, false)
	_, _, err := s.Login(ctx, "ADM2", "anything")
	assert.ErrorIs(t, err, service.ErrAdminCodeNotSet)

	s, _ = newTestService(t, true)
	_, _, err = s.Login(ctx, "ADM2", "wrong")
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)

	token, user, err := s.Login(ctx, "ADM2", "admin-secret")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, user.Role)
	assert.NotEmpty(t, token)
}

func TestParseToken_Rejects(t *testing.T) {
	s, _ := newTestService(t, false)

	_, err := s.ParseToken("garbage")
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)

	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": 1, "role": models.RolePlayer, "exp": time.Now().Add(-time.Minute).Unix(),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	_, err = s.ParseToken(expired)
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)

	foreign, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": 1, "role": models.RolePlayer, "exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("other-secret"))
	require.NoError(t, err)
	_, err = s.ParseToken(foreign)
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)

	badRole, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": 1, "role": "root", "exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	_, err = s.ParseToken(badRole)
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)
}
