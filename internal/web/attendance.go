package web

import (
	"strconv"
	"time"

	"spectrum-academy/internal/models"

	"github.com/gofiber/fiber/v2"
)

// ListAttendance: ?player_id, ?trainer_id, ?status, ?from, ?to (to не включительно).
// Игрок и ученик видят только свои записи
func (h *Handler) ListAttendance(c *fiber.Ctx) error {
	filter := models.AttendanceFilter{Status: c.Query("status")}

	if v := c.Query("player_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return jsonError(c, fiber.StatusBadRequest, "Некорректный player_id")
		}
		filter.PlayerID = id
	}
	if v := c.Query("trainer_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return jsonError(c, fiber.StatusBadRequest, "Некорректный trainer_id")
		}
		filter.TrainerID = id
	}
	for key, dst := range map[string]*time.Time{"from": &filter.From, "to": &filter.To} {
		if v := c.Query(key); v != "" {
			d, err := time.Parse(models.DateLayout, v)
			if err != nil {
				return jsonError(c, fiber.StatusBadRequest, "Дата должна быть в формате ГГГГ-ММ-ДД")
			}
			*dst = d
		}
	}

	if !isStaff(c) {
		filter.PlayerID = currentUserID(c)
	}

	records, err := h.attendanceService.List(c.UserContext(), filter)
	if err != nil {
		return h.handleError(c, err)
	}
	if records == nil {
		records = []models.AttendanceRecord{}
	}
	return jsonOK(c, "", records)
}

func (h *Handler) RecordAttendance(c *fiber.Ctx) error {
	var req attendanceRequest
	if err := h.bind(c, &req); err != nil {
		return h.handleError(c, err)
	}
	record, err := req.toModel()
	if err != nil {
		return h.handleError(c, err)
	}
	if record.TrainerID == nil && currentRole(c) == models.RoleTrainer {
		trainerID := currentUserID(c)
		record.TrainerID = &trainerID
	}

	saved, err := h.attendanceService.Record(c.UserContext(), record)
	if err != nil {
		return h.handleError(c, err)
	}
	return jsonCreated(c, "Посещаемость отмечена", saved)
}

func (h *Handler) UpdateAttendance(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return jsonError(c, fiber.StatusBadRequest, "Некорректный id")
	}

	var req attendanceUpdateRequest
	if err := h.bind(c, &req); err != nil {
		return h.handleError(c, err)
	}

	updated, err := h.attendanceService.Update(c.UserContext(), &models.AttendanceRecord{
		ID:        id,
		TrainerID: req.TrainerID,
		Status:    req.Status,
		Notes:     req.Notes,
	})
	if err != nil {
		return h.handleError(c, err)
	}
	return jsonOK(c, "Запись обновлена", updated)
}

func (h *Handler) DeleteAttendance(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return jsonError(c, fiber.StatusBadRequest, "Некорректный id")
	}
	if err := h.attendanceService.Delete(c.UserContext(), id); err != nil {
		return h.handleError(c, err)
	}
	return jsonOK(c, "Запись удалена", nil)
}

func (h *Handler) MonthlyReport(c *fiber.Ctx) error {
	month, ok := h.monthParam(c)
	if !ok {
		return jsonError(c, fiber.StatusBadRequest, "Месяц должен быть в формате ГГГГ-ММ")
	}

	report, err := h.attendanceService.MonthlyReport(c.UserContext(), month)
	if err != nil {
		return h.handleError(c, err)
	}
	return jsonOK(c, "", report)
}

func (h *Handler) PlayerStats(c *fiber.Ctx) error {
	id, month, ok := h.playerMonth(c)
	if !ok {
		return nil
	}

	stats, err := h.attendanceService.PlayerMonthStats(c.UserContext(), id, month)
	if err != nil {
		return h.handleError(c, err)
	}
	return jsonOK(c, "", stats)
}

// PlayerCalendar отдаёт сетку месяца 6x7 с отметками игрока
func (h *Handler) PlayerCalendar(c *fiber.Ctx) error {
	id, month, ok := h.playerMonth(c)
	if !ok {
		return nil
	}

	days, err := h.attendanceService.MonthCalendar(c.UserContext(), id, month)
	if err != nil {
		return h.handleError(c, err)
	}
	return jsonOK(c, "", fiber.Map{
		"month":         month.Format("2006-01"),
		"week_days":     []string{"ПН", "ВТ", "СР", "ЧТ", "ПТ", "СБ", "ВС"},
		"calendar_days": days,
	})
}

// playerMonth разбирает :id и ?month=; при ошибке ответ уже отправлен
func (h *Handler) playerMonth(c *fiber.Ctx) (int64, time.Time, bool) {
	id, ok := paramID(c, "id")
	if !ok {
		_ = jsonError(c, fiber.StatusBadRequest, "Некорректный id")
		return 0, time.Time{}, false
	}
	if !selfOrStaff(c, id) {
		_ = jsonError(c, fiber.StatusForbidden, "Недостаточно прав")
		return 0, time.Time{}, false
	}
	month, ok := h.monthParam(c)
	if !ok {
		_ = jsonError(c, fiber.StatusBadRequest, "Месяц должен быть в формате ГГГГ-ММ")
		return 0, time.Time{}, false
	}
	return id, month, true
}
