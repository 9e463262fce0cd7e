package web

import (
	"errors"
	"strings"

	"spectrum-academy/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type errorResponse struct {
	Success   bool              `json:"success"`
	Message   string            `json:"message"`
	ErrorCode string            `json:"error_code,omitempty"`
	Errors    map[string]string `json:"errors,omitempty"`
}

func jsonOK(c *fiber.Ctx, message string, data any) error {
	if strings.TrimSpace(message) == "" {
		message = "ok"
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"message": message,
		"data":    data,
	})
}

func jsonCreated(c *fiber.Ctx, message string, data any) error {
	if strings.TrimSpace(message) == "" {
		message = "created"
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": message,
		"data":    data,
	})
}

func jsonError(c *fiber.Ctx, status int, message string) error {
	if status == 0 {
		status = fiber.StatusInternalServerError
	}
	if strings.TrimSpace(message) == "" {
		message = fiber.ErrInternalServerError.Message
	}
	return c.Status(status).JSON(errorResponse{
		Success:   false,
		Message:   message,
		ErrorCode: statusToErrorCode(status),
	})
}

// jsonValidationError отвечает 422 с полями, не прошедшими validator
func jsonValidationError(c *fiber.Ctx, err error) error {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return jsonError(c, fiber.StatusBadRequest, "Некорректные данные")
	}

	fields := make(map[string]string, len(ve))
	for _, fe := range ve {
		fields[fe.Field()] = fe.Tag()
	}
	return c.Status(fiber.StatusUnprocessableEntity).JSON(errorResponse{
		Success:   false,
		Message:   "Проверьте заполнение полей",
		ErrorCode: "VALIDATION_ERROR",
		Errors:    fields,
	})
}

func statusToErrorCode(status int) string {
	switch status {
	case fiber.StatusBadRequest:
		return "BAD_REQUEST"
	case fiber.StatusUnauthorized:
		return "UNAUTHORIZED"
	case fiber.StatusForbidden:
		return "FORBIDDEN"
	case fiber.StatusNotFound:
		return "NOT_FOUND"
	case fiber.StatusConflict:
		return "CONFLICT"
	case fiber.StatusUnprocessableEntity:
		return "VALIDATION_ERROR"
	case fiber.StatusTooManyRequests:
		return "RATE_LIMITED"
	case fiber.StatusServiceUnavailable:
		return "MAINTENANCE"
	default:
		if status >= 500 {
			return "INTERNAL_ERROR"
		}
		return "ERROR"
	}
}

// serviceErrors сопоставляет ошибки сервисов со статусом и текстом для пользователя
var serviceErrors = []struct {
	err     error
	status  int
	message string
}{
	{service.ErrNotFound, fiber.StatusNotFound, "Не найдено"},
	{service.ErrCodeTaken, fiber.StatusConflict, "Такой код уже используется"},
	{service.ErrDuplicateExcuse, fiber.StatusConflict, "Объяснительная за этот день уже отправлена"},
	{service.ErrAlreadyReviewed, fiber.StatusConflict, "Объяснительная уже рассмотрена"},
	{service.ErrInvalidRole, fiber.StatusBadRequest, "Неизвестная роль"},
	{service.ErrInvalidStatus, fiber.StatusBadRequest, "Неизвестный статус"},
	{service.ErrInvalidDecision, fiber.StatusBadRequest, "Решение должно быть approved или rejected"},
	{service.ErrNotAttendee, fiber.StatusBadRequest, "Пользователь не является игроком или учеником"},
	{service.ErrInvalidInput, fiber.StatusBadRequest, ""},
	{service.ErrProtectedSetting, fiber.StatusForbidden, "Эту настройку нельзя менять напрямую"},
	{service.ErrInvalidCredentials, fiber.StatusUnauthorized, "Неверный код"},
	{service.ErrAccountInactive, fiber.StatusForbidden, "Аккаунт приостановлен или неактивен"},
	{service.ErrAdminCodeNotSet, fiber.StatusForbidden, "Код администратора не настроен"},
	{service.ErrAttendanceUpdate, fiber.StatusInternalServerError, "Объяснительная одобрена, но посещаемость не обновлена"},
}

// handleError логирует ошибку и отвечает в едином формате
func (h *Handler) handleError(c *fiber.Ctx, err error) error {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		return jsonValidationError(c, ve)
	}

	for _, se := range serviceErrors {
		if errors.Is(err, se.err) {
			message := se.message
			if message == "" {
				message = err.Error()
			}
			if se.status >= 500 {
				h.logger.Error("Ошибка запроса", zap.String("path", c.Path()), zap.Any("request_id", c.Locals(localRequestID)), zap.Error(err))
			}
			return jsonError(c, se.status, message)
		}
	}

	var fe *fiber.Error
	if errors.As(err, &fe) {
		return jsonError(c, fe.Code, fe.Message)
	}

	h.logger.Error("Внутренняя ошибка", zap.String("path", c.Path()), zap.Any("request_id", c.Locals(localRequestID)), zap.Error(err))
	return jsonError(c, fiber.StatusInternalServerError, "Внутренняя ошибка сервера")
}
