package web

import (
	"github.com/gofiber/fiber/v2"
)

// Login выдаёт JWT по коду пользователя
func (h *Handler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := h.bind(c, &req); err != nil {
		return h.handleError(c, err)
	}

	token, user, err := h.authService.Login(c.UserContext(), req.Code, req.AdminCode)
	if err != nil {
		return h.handleError(c, err)
	}
	return jsonOK(c, "Вход выполнен", loginResponse{Token: token, User: user})
}
