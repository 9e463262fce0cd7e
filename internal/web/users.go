package web

import (
	"time"

	"spectrum-academy/internal/models"

	"github.com/gofiber/fiber/v2"
)

func (h *Handler) ListUsers(c *fiber.Ctx) error {
	filter := models.UserFilter{
		Role:   c.Query("role"),
		Status: c.Query("status"),
	}
	users, err := h.userService.List(c.UserContext(), filter)
	if err != nil {
		return h.handleError(c, err)
	}
	if users == nil {
		users = []*models.User{}
	}
	return jsonOK(c, "", users)
}

func (h *Handler) GetUser(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return jsonError(c, fiber.StatusBadRequest, "Некорректный id")
	}
	if !selfOrStaff(c, id) {
		return jsonError(c, fiber.StatusForbidden, "Недостаточно прав")
	}

	user, err := h.userService.GetByID(c.UserContext(), id)
	if err != nil {
		return h.handleError(c, err)
	}
	return jsonOK(c, "", user)
}

func (h *Handler) GetUserByCode(c *fiber.Ctx) error {
	user, err := h.userService.GetByCode(c.UserContext(), c.Params("code"))
	if err != nil {
		return h.handleError(c, err)
	}
	return jsonOK(c, "", user)
}

func (h *Handler) CreateUser(c *fiber.Ctx) error {
	var req userRequest
	if err := h.bind(c, &req); err != nil {
		return h.handleError(c, err)
	}
	user, err := req.toModel()
	if err != nil {
		return h.handleError(c, err)
	}

	created, err := h.userService.Create(c.UserContext(), user)
	if err != nil {
		return h.handleError(c, err)
	}
	return jsonCreated(c, "Пользователь создан", created)
}

func (h *Handler) UpdateUser(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return jsonError(c, fiber.StatusBadRequest, "Некорректный id")
	}

	var req userRequest
	if err := h.bind(c, &req); err != nil {
		return h.handleError(c, err)
	}
	user, err := req.toModel()
	if err != nil {
		return h.handleError(c, err)
	}
	user.ID = id

	updated, err := h.userService.Update(c.UserContext(), user)
	if err != nil {
		return h.handleError(c, err)
	}
	return jsonOK(c, "Пользователь обновлён", updated)
}

// ChangeUserStatus приостанавливает или возвращает пользователя; код меняется вместе со статусом
func (h *Handler) ChangeUserStatus(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return jsonError(c, fiber.StatusBadRequest, "Некорректный id")
	}

	var req statusRequest
	if err := h.bind(c, &req); err != nil {
		return h.handleError(c, err)
	}

	user, err := h.userService.ChangeStatus(c.UserContext(), id, req.Status)
	if err != nil {
		return h.handleError(c, err)
	}
	return jsonOK(c, "Статус изменён", user)
}

func (h *Handler) DeleteUser(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return jsonError(c, fiber.StatusBadRequest, "Некорректный id")
	}
	if id == currentUserID(c) {
		return jsonError(c, fiber.StatusBadRequest, "Нельзя удалить самого себя")
	}

	if err := h.userService.Delete(c.UserContext(), id); err != nil {
		return h.handleError(c, err)
	}
	return jsonOK(c, "Пользователь удалён", nil)
}

func (h *Handler) GenerateCode(c *fiber.Ctx) error {
	code, err := h.userService.GenerateCode(c.UserContext(), c.Query("role"))
	if err != nil {
		return h.handleError(c, err)
	}
	return jsonOK(c, "", fiber.Map{"code": code})
}

// ExpiringSubscriptions отдаёт подписки, заканчивающиеся в ближайшие ?days= дней (по умолчанию 7)
func (h *Handler) ExpiringSubscriptions(c *fiber.Ctx) error {
	days := c.QueryInt("days", 7)
	if days <= 0 || days > 365 {
		return jsonError(c, fiber.StatusBadRequest, "days должен быть от 1 до 365")
	}

	users, err := h.userService.ExpiringSubscriptions(c.UserContext(), time.Duration(days)*24*time.Hour)
	if err != nil {
		return h.handleError(c, err)
	}
	if users == nil {
		users = []*models.User{}
	}
	return jsonOK(c, "", users)
}
