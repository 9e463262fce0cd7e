package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"spectrum-academy/internal/models"
	"spectrum-academy/internal/service"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api"
	"go.uber.org/zap"
)

// Пропуски за последние absenceLookbackDays дней можно объяснить из бота
const (
	absenceLookbackDays = 30
	maxReasonLength     = 1000
	recentRecordsShown  = 10
)

var statusTitles = map[string]string{
	models.AttendancePresent: "✅ был",
	models.AttendanceAbsent:  "❌ пропуск",
	models.AttendanceExcused: "📝 уважительная",
}

func (b *Bot) showMyAttendance(ctx context.Context, chatID int64, user *models.User) {
	if !user.IsAttendee() {
		b.sendError(chatID, "❌ Эта функция доступна только игрокам и ученикам")
		return
	}

	now := b.now()
	stats, err := b.AttendanceService.PlayerMonthStats(ctx, user.ID, now)
	if err != nil {
		b.logger.Error("Ошибка статистики посещаемости", zap.Int64("player_id", user.ID), zap.Error(err))
		b.sendError(chatID, "❌ Ошибка при получении посещаемости")
		return
	}

	today := models.Day(now)
	records, err := b.AttendanceService.List(ctx, models.AttendanceFilter{
		PlayerID: user.ID,
		From:     today.AddDate(0, 0, -absenceLookbackDays),
		To:       today.AddDate(0, 0, 1),
	})
	if err != nil {
		b.logger.Error("Ошибка списка посещаемости", zap.Int64("player_id", user.ID), zap.Error(err))
		b.sendError(chatID, "❌ Ошибка при получении посещаемости")
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📊 Посещаемость за %s\n\n", now.Format("01.2006")))
	sb.WriteString(fmt.Sprintf("Был: %d\nПропуски: %d\nУважительные: %d\nВсего: %d\nПосещаемость: %d%%\n",
		stats.Present, stats.Absent, stats.Excused, stats.Total, stats.Rate))

	if len(records) > 0 {
		sb.WriteString("\nПоследние занятия:\n")
		shown := records
		if len(shown) > recentRecordsShown {
			shown = shown[:recentRecordsShown]
		}
		for _, r := range shown {
			sb.WriteString(fmt.Sprintf("%s — %s\n", r.Date.Format("02.01.2006"), statusTitles[r.Status]))
		}
	}

	msg := tgbotapi.NewMessage(chatID, sb.String())
	msg.ReplyMarkup = createMainKeyboard(user.Role)
	b.send(msg)
}

func (b *Bot) handleExplainAbsence(ctx context.Context, chatID int64, user *models.User) {
	if !user.IsAttendee() {
		b.sendError(chatID, "❌ Эта функция доступна только игрокам и ученикам")
		return
	}

	absences, err := b.unexplainedAbsences(ctx, user.ID)
	if err != nil {
		b.logger.Error("Ошибка получения пропусков", zap.Int64("player_id", user.ID), zap.Error(err))
		b.sendError(chatID, "❌ Ошибка при получении пропусков")
		return
	}

	if len(absences) == 0 {
		b.sendMessage(chatID, "✅ Пропусков без объяснительной нет")
		return
	}

	session := b.getOrCreateSession(chatID)
	session.State = StateSelectingAbsence
	session.Absences = absences

	var sb strings.Builder
	sb.WriteString("📝 Выберите пропуск:\n\n")
	for i, a := range absences {
		sb.WriteString(fmt.Sprintf("%d. %s\n", i+1, a.Date.Format("02.01.2006")))
	}
	sb.WriteString("\nВведите номер или отправьте '" + btnCancel + "'")

	msg := tgbotapi.NewMessage(chatID, sb.String())
	msg.ReplyMarkup = createCancelKeyboard()
	b.send(msg)
}

// unexplainedAbsences: пропуски за последние дни, по которым ещё нет заявки
func (b *Bot) unexplainedAbsences(ctx context.Context, playerID int64) ([]models.AttendanceRecord, error) {
	today := models.Day(b.now())
	records, err := b.AttendanceService.List(ctx, models.AttendanceFilter{
		PlayerID: playerID,
		Status:   models.AttendanceAbsent,
		From:     today.AddDate(0, 0, -absenceLookbackDays),
		To:       today.AddDate(0, 0, 1),
	})
	if err != nil {
		return nil, err
	}

	excuses, err := b.ExcuseService.List(ctx, models.ExcuseFilter{PlayerID: playerID})
	if err != nil {
		return nil, err
	}
	submitted := make(map[string]bool, len(excuses))
	for _, e := range excuses {
		submitted[e.AbsenceDate.Format(models.DateLayout)] = true
	}

	var result []models.AttendanceRecord
	for _, r := range records {
		if !submitted[r.Date.Format(models.DateLayout)] {
			result = append(result, r)
		}
	}
	return result, nil
}

func (b *Bot) handleAbsenceSelection(chatID int64, messageText string) {
	session := b.getOrCreateSession(chatID)

	index, err := strconv.Atoi(strings.TrimSpace(messageText))
	if err != nil || index < 1 || index > len(session.Absences) {
		b.sendError(chatID, "❌ Пожалуйста, введите корректный номер пропуска")
		return
	}

	session.SelectedDate = session.Absences[index-1].Date
	session.State = StateEnteringReason

	msg := tgbotapi.NewMessage(chatID,
		fmt.Sprintf("✏️ Опишите причину пропуска %s:", session.SelectedDate.Format("02.01.2006")))
	msg.ReplyMarkup = createCancelKeyboard()
	b.send(msg)
}

func (b *Bot) handleReasonInput(chatID int64, messageText string) {
	session := b.getOrCreateSession(chatID)

	reason := strings.TrimSpace(messageText)
	if reason == "" {
		b.sendError(chatID, "❌ Причина не может быть пустой")
		return
	}
	if utf8.RuneCountInString(reason) > maxReasonLength {
		b.sendError(chatID, fmt.Sprintf("❌ Слишком длинный текст, максимум %d символов", maxReasonLength))
		return
	}

	session.Reason = reason
	session.State = StateConfirmingExcuse

	msg := tgbotapi.NewMessage(chatID, fmt.Sprintf(
		"📋 Проверьте объяснительную:\n\n📅 Дата: %s\n💬 Причина: %s",
		session.SelectedDate.Format("02.01.2006"), reason))
	msg.ReplyMarkup = createConfirmationKeyboard()
	b.send(msg)
}

func (b *Bot) handleExcuseConfirmation(ctx context.Context, chatID int64, user *models.User, messageText string) {
	if messageText != btnConfirm {
		b.sendError(chatID, "❌ Неизвестная команда")
		return
	}

	session := b.getOrCreateSession(chatID)
	excuse, err := b.ExcuseService.Submit(ctx, user.ID, session.SelectedDate, session.Reason)
	b.resetSession(chatID)

	if err != nil {
		text := "❌ Ошибка при отправке объяснительной"
		switch {
		case errors.Is(err, service.ErrDuplicateExcuse):
			text = "⚠️ Объяснительная за этот день уже отправлена"
		case errors.Is(err, service.ErrInvalidInput):
			text = "❌ Некорректные данные объяснительной"
		default:
			b.logger.Error("Ошибка отправки объяснительной", zap.Int64("player_id", user.ID), zap.Error(err))
		}
		msg := tgbotapi.NewMessage(chatID, text)
		msg.ReplyMarkup = createMainKeyboard(user.Role)
		b.send(msg)
		return
	}

	msg := tgbotapi.NewMessage(chatID, "✅ Объяснительная отправлена тренеру. Мы сообщим о решении.")
	msg.ReplyMarkup = createMainKeyboard(user.Role)
	b.send(msg)

	b.notifyAdmins(fmt.Sprintf("📝 Новая объяснительная #%d\n👤 %s\n📅 %s\n💬 %s",
		excuse.ID, user.FullName, excuse.AbsenceDate.Format("02.01.2006"), excuse.Reason))
}
