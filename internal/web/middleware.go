package web

import (
	"strings"
	"time"

	"spectrum-academy/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	localRequestID = "request_id"
	localUserID    = "user_id"
	localRole      = "role"
)

func recoveryMiddleware() fiber.Handler {
	return recover.New(recover.Config{
		EnableStackTrace: true,
	})
}

func requestIDMiddleware() fiber.Handler {
	return requestid.New(requestid.Config{
		Header:     fiber.HeaderXRequestID,
		Generator:  uuid.NewString,
		ContextKey: localRequestID,
	})
}

func corsMiddleware(origins string) fiber.Handler {
	if strings.TrimSpace(origins) == "" {
		origins = "*"
	}
	return cors.New(cors.Config{
		AllowOrigins: origins,
		AllowMethods: "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	})
}

func globalRateLimiter() fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        300,
		Expiration: time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return jsonError(c, fiber.StatusTooManyRequests, "Слишком много запросов, попробуйте позже")
		},
	})
}

// Вход по коду ограничен строже: коды короткие и перебираются
func loginRateLimiter() fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        10,
		Expiration: time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return jsonError(c, fiber.StatusTooManyRequests, "Слишком много попыток входа, попробуйте через минуту")
		},
	})
}

func (h *Handler) requestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		h.logger.Info("HTTP",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", c.Response().StatusCode()),
			zap.Duration("latency", time.Since(start)),
			zap.Any("request_id", c.Locals(localRequestID)),
		)
		return err
	}
}

// authRequired проверяет Bearer-токен и кладёт user_id и role в Locals
func (h *Handler) authRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		authz := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
		if len(authz) < 7 || !strings.EqualFold(authz[:7], "bearer ") {
			return jsonError(c, fiber.StatusUnauthorized, "Требуется авторизация")
		}

		claims, err := h.authService.ParseToken(strings.TrimSpace(authz[7:]))
		if err != nil {
			return jsonError(c, fiber.StatusUnauthorized, "Сессия недействительна, войдите заново")
		}

		c.Locals(localUserID, claims.UserID)
		c.Locals(localRole, claims.Role)
		return c.Next()
	}
}

func requireRoles(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role := currentRole(c)
		for _, r := range roles {
			if r == role {
				return c.Next()
			}
		}
		return jsonError(c, fiber.StatusForbidden, "Недостаточно прав")
	}
}

// maintenanceGate пропускает только администраторов, пока включён режим обслуживания
func (h *Handler) maintenanceGate() fiber.Handler {
	return func(c *fiber.Ctx) error {
		m := h.settingService.Maintenance()
		if !m.Enabled || currentRole(c) == models.RoleAdmin {
			return c.Next()
		}
		message := m.Message
		if message == "" {
			message = "Ведутся технические работы"
		}
		return jsonError(c, fiber.StatusServiceUnavailable, message)
	}
}

func currentUserID(c *fiber.Ctx) int64 {
	id, _ := c.Locals(localUserID).(int64)
	return id
}

func currentRole(c *fiber.Ctx) string {
	role, _ := c.Locals(localRole).(string)
	return role
}

func isStaff(c *fiber.Ctx) bool {
	role := currentRole(c)
	return role == models.RoleTrainer || role == models.RoleAdmin
}

// selfOrStaff: свои данные может смотреть каждый, чужие только тренер и админ
func selfOrStaff(c *fiber.Ctx, userID int64) bool {
	return isStaff(c) || currentUserID(c) == userID
}
