package auth_service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"spectrum-academy/internal/models"
	"spectrum-academy/internal/models/config"
	"spectrum-academy/internal/service"

	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"
)

type authService struct {
	userService    service.UserService
	settingService service.SettingService
	secret         []byte
	ttl            time.Duration
	logger         *zap.Logger
	now            func() time.Time
}

func NewAuthService(userService service.UserService, settingService service.SettingService, cfg config.AuthConfig, logger *zap.Logger) service.AuthService {
	return &authService{
		userService:    userService,
		settingService: settingService,
		secret:         []byte(cfg.JWTSecret),
		ttl:            cfg.TokenTTL,
		logger:         logger,
		now:            time.Now,
	}
}

// Login входит по коду пользователя; администратору нужен ещё и код администратора
func (s *authService) Login(ctx context.Context, code, adminCode string) (string, *models.User, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return "", nil, service.ErrInvalidCredentials
	}

	user, err := s.userService.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return "", nil, service.ErrInvalidCredentials
		}
		return "", nil, err
	}
	if !user.IsActive() {
		return "", nil, service.ErrAccountInactive
	}

	if user.Role == models.RoleAdmin {
		if err := s.settingService.VerifyAdminCode(ctx, adminCode); err != nil {
			s.logger.Warn("Неудачный вход администратора", zap.Int64("user_id", user.ID), zap.Error(err))
			return "", nil, err
		}
	}

	now := s.now()
	claims := jwt.MapClaims{
		"user_id": user.ID,
		"role":    user.Role,
		"iat":     now.Unix(),
		"exp":     now.Add(s.ttl).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", nil, fmt.Errorf("ошибка подписи токена: %w", err)
	}

	s.logger.Info("Вход выполнен", zap.Int64("user_id", user.ID), zap.String("role", user.Role))
	return token, user, nil
}

func (s *authService) ParseToken(raw string) (*service.Claims, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !tok.Valid {
		return nil, service.ErrInvalidCredentials
	}

	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return nil, service.ErrInvalidCredentials
	}

	// числа в MapClaims приходят как float64
	id, ok := claims["user_id"].(float64)
	if !ok || id <= 0 {
		return nil, service.ErrInvalidCredentials
	}
	role, _ := claims["role"].(string)
	if !models.IsValidRole(role) {
		return nil, service.ErrInvalidCredentials
	}
	return &service.Claims{UserID: int64(id), Role: role}, nil
}
