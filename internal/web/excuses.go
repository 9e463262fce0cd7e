package web

import (
	"errors"
	"strconv"
	"time"

	"spectrum-academy/internal/models"
	"spectrum-academy/internal/service"

	"github.com/gofiber/fiber/v2"
)

func (h *Handler) ListExcuses(c *fiber.Ctx) error {
	filter := models.ExcuseFilter{Status: c.Query("status")}
	if v := c.Query("player_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return jsonError(c, fiber.StatusBadRequest, "Некорректный player_id")
		}
		filter.PlayerID = id
	}
	if !isStaff(c) {
		filter.PlayerID = currentUserID(c)
	}

	excuses, err := h.excuseService.List(c.UserContext(), filter)
	if err != nil {
		return h.handleError(c, err)
	}
	if excuses == nil {
		excuses = []models.ExcuseSubmission{}
	}
	return jsonOK(c, "", excuses)
}

func (h *Handler) SubmitExcuse(c *fiber.Ctx) error {
	var req excuseRequest
	if err := h.bind(c, &req); err != nil {
		return h.handleError(c, err)
	}

	playerID := currentUserID(c)
	if req.PlayerID != 0 && req.PlayerID != playerID {
		if !isStaff(c) {
			return jsonError(c, fiber.StatusForbidden, "Можно отправить объяснительную только за себя")
		}
		playerID = req.PlayerID
	}

	date, err := time.Parse(models.DateLayout, req.AbsenceDate)
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "Дата должна быть в формате ГГГГ-ММ-ДД")
	}

	excuse, err := h.excuseService.Submit(c.UserContext(), playerID, date, req.Reason)
	if err != nil {
		return h.handleError(c, err)
	}
	return jsonCreated(c, "Объяснительная отправлена", excuse)
}

func (h *Handler) GetExcuse(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return jsonError(c, fiber.StatusBadRequest, "Некорректный id")
	}

	excuse, err := h.excuseService.Get(c.UserContext(), id)
	if err != nil {
		return h.handleError(c, err)
	}
	if !selfOrStaff(c, excuse.PlayerID) {
		return jsonError(c, fiber.StatusNotFound, "Не найдено")
	}
	return jsonOK(c, "", excuse)
}

func (h *Handler) ReviewExcuse(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return jsonError(c, fiber.StatusBadRequest, "Некорректный id")
	}

	var req reviewRequest
	if err := h.bind(c, &req); err != nil {
		return h.handleError(c, err)
	}

	result, err := h.excuseService.Review(c.UserContext(), id, req.Decision, req.Response, currentUserID(c))
	if err != nil {
		if errors.Is(err, service.ErrAttendanceUpdate) && result != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success":    false,
				"message":    "Объяснительная одобрена, но посещаемость не обновлена",
				"error_code": statusToErrorCode(fiber.StatusInternalServerError),
				"data":       result,
			})
		}
		return h.handleError(c, err)
	}

	message := "Объяснительная отклонена"
	if req.Decision == models.ExcuseApproved {
		message = "Объяснительная одобрена"
		if !result.AttendanceUpdated {
			message += ", отметки посещаемости за этот день нет"
		}
	}
	return jsonOK(c, message, result)
}
