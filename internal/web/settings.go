package web

import (
	"github.com/gofiber/fiber/v2"
)

// GetMaintenance доступен без входа: клиент показывает баннер до авторизации
func (h *Handler) GetMaintenance(c *fiber.Ctx) error {
	return jsonOK(c, "", h.settingService.Maintenance())
}

func (h *Handler) ListSettings(c *fiber.Ctx) error {
	settings, err := h.settingService.All(c.UserContext())
	if err != nil {
		return h.handleError(c, err)
	}
	return jsonOK(c, "", settings)
}

func (h *Handler) UpdateSetting(c *fiber.Ctx) error {
	var req settingRequest
	if err := h.bind(c, &req); err != nil {
		return h.handleError(c, err)
	}

	key := c.Params("key")
	if err := h.settingService.Set(c.UserContext(), key, req.Value); err != nil {
		return h.handleError(c, err)
	}
	value, err := h.settingService.Get(c.UserContext(), key)
	if err != nil {
		return h.handleError(c, err)
	}
	return jsonOK(c, "Настройка сохранена", fiber.Map{"key": key, "value": value})
}

func (h *Handler) SetAdminCode(c *fiber.Ctx) error {
	var req adminCodeRequest
	if err := h.bind(c, &req); err != nil {
		return h.handleError(c, err)
	}
	if err := h.settingService.SetAdminCode(c.UserContext(), req.Code); err != nil {
		return h.handleError(c, err)
	}
	return jsonOK(c, "Код администратора обновлён", nil)
}
