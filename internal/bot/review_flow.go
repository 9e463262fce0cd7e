package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"spectrum-academy/internal/models"
	"spectrum-academy/internal/service"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api"
	"go.uber.org/zap"
)

func (b *Bot) handleReviewExcuses(ctx context.Context, chatID int64, user *models.User) {
	if !user.IsStaff() {
		b.sendError(chatID, "❌ Эта функция доступна только тренерам и администраторам")
		return
	}

	pending, err := b.ExcuseService.List(ctx, models.ExcuseFilter{Status: models.ExcusePending})
	if err != nil {
		b.logger.Error("Ошибка получения заявок", zap.Error(err))
		b.sendError(chatID, "❌ Ошибка при получении заявок")
		return
	}

	if len(pending) == 0 {
		b.sendMessage(chatID, "📭 Новых заявок на пропуск нет")
		return
	}

	session := b.getOrCreateSession(chatID)
	session.State = StateSelectingExcuseToReview
	session.PendingExcuses = pending

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📋 Заявки на рассмотрении (%d):\n\n", len(pending)))
	for i, e := range pending {
		sb.WriteString(fmt.Sprintf("%d. %s, %s\n   💬 %s\n",
			i+1, playerLabel(e), e.AbsenceDate.Format("02.01.2006"), e.Reason))
	}
	sb.WriteString("\nВведите номер заявки или отправьте '" + btnCancel + "'")

	msg := tgbotapi.NewMessage(chatID, sb.String())
	msg.ReplyMarkup = createCancelKeyboard()
	b.send(msg)
}

func (b *Bot) handleExcuseSelection(chatID int64, messageText string) {
	session := b.getOrCreateSession(chatID)

	index, err := strconv.Atoi(strings.TrimSpace(messageText))
	if err != nil || index < 1 || index > len(session.PendingExcuses) {
		b.sendError(chatID, "❌ Пожалуйста, введите корректный номер заявки")
		return
	}

	selected := session.PendingExcuses[index-1]
	session.SelectedExcuse = &selected
	session.State = StateChoosingDecision

	msg := tgbotapi.NewMessage(chatID, fmt.Sprintf(
		"👤 %s\n📅 %s\n💬 %s\n\nВыберите решение:",
		playerLabel(selected), selected.AbsenceDate.Format("02.01.2006"), selected.Reason))
	msg.ReplyMarkup = createDecisionKeyboard()
	b.send(msg)
}

func (b *Bot) handleDecisionSelection(chatID int64, messageText string) {
	session := b.getOrCreateSession(chatID)

	switch messageText {
	case btnApprove:
		session.Decision = models.ExcuseApproved
	case btnReject:
		session.Decision = models.ExcuseRejected
	default:
		b.sendError(chatID, "❌ Неизвестная команда")
		return
	}
	session.State = StateEnteringResponse

	msg := tgbotapi.NewMessage(chatID, "💬 Напишите комментарий для игрока или нажмите '"+btnSkip+"'")
	msg.ReplyMarkup = createSkipKeyboard()
	b.send(msg)
}

func (b *Bot) handleResponseInput(ctx context.Context, chatID int64, user *models.User, messageText string) {
	session := b.getOrCreateSession(chatID)
	if session.SelectedExcuse == nil {
		b.cancelOperation(chatID, user)
		return
	}

	response := strings.TrimSpace(messageText)
	if messageText == btnSkip {
		response = ""
	}

	excuseID := session.SelectedExcuse.ID
	decision := session.Decision
	b.resetSession(chatID)

	result, err := b.ExcuseService.Review(ctx, excuseID, decision, response, user.ID)

	var text string
	switch {
	case err == nil:
		text = reviewSummary(result)
	case errors.Is(err, service.ErrAttendanceUpdate):
		b.logger.Error("Заявка рассмотрена, посещаемость не обновлена",
			zap.Int64("excuse_id", excuseID), zap.Error(err))
		text = "⚠️ Решение сохранено, но посещаемость обновить не удалось. Проверьте запись вручную."
	case errors.Is(err, service.ErrAlreadyReviewed):
		text = "⚠️ Эта заявка уже рассмотрена"
	case errors.Is(err, service.ErrNotFound):
		text = "❌ Заявка не найдена"
	default:
		b.logger.Error("Ошибка рассмотрения заявки", zap.Int64("excuse_id", excuseID), zap.Error(err))
		text = "❌ Ошибка при рассмотрении заявки"
	}

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = createMainKeyboard(user.Role)
	b.send(msg)
}

func reviewSummary(result *models.ReviewResult) string {
	if result.Excuse.Status == models.ExcuseRejected {
		return "⛔ Заявка отклонена, игрок получит уведомление"
	}
	if result.AttendanceUpdated {
		return "✅ Заявка одобрена, пропуск отмечен как уважительный"
	}
	return "✅ Заявка одобрена. Записи посещаемости за этот день нет."
}

func playerLabel(e models.ExcuseSubmission) string {
	if e.PlayerName != "" {
		return e.PlayerName
	}
	return fmt.Sprintf("Игрок #%d", e.PlayerID)
}
