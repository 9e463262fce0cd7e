package web

import (
	"strconv"

	"spectrum-academy/internal/models"

	"github.com/gofiber/fiber/v2"
)

// ListNotifications: ?user_id= (по умолчанию свои), ?limit=
func (h *Handler) ListNotifications(c *fiber.Ctx) error {
	userID := currentUserID(c)
	if v := c.Query("user_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return jsonError(c, fiber.StatusBadRequest, "Некорректный user_id")
		}
		userID = id
	}
	if !selfOrStaff(c, userID) {
		return jsonError(c, fiber.StatusForbidden, "Недостаточно прав")
	}

	list, err := h.notificationService.ListForUser(c.UserContext(), userID, c.QueryInt("limit", 50))
	if err != nil {
		return h.handleError(c, err)
	}
	if list == nil {
		list = []models.Notification{}
	}
	return jsonOK(c, "", list)
}

// SendNotification пишет уведомление, SMS только логируется
func (h *Handler) SendNotification(c *fiber.Ctx) error {
	var req sendNotificationRequest
	if err := h.bind(c, &req); err != nil {
		return h.handleError(c, err)
	}

	err := h.notificationService.Notify(c.UserContext(), &models.Notification{
		UserID:  req.UserID,
		Title:   req.Title,
		Message: req.Message,
		Type:    req.Type,
		Phone:   req.Phone,
	})
	if err != nil {
		return h.handleError(c, err)
	}
	return c.JSON(fiber.Map{"success": true})
}

func (h *Handler) Dashboard(c *fiber.Ctx) error {
	return jsonOK(c, "", h.dashboardService.Dashboard(c.UserContext()))
}
