package bot

import (
	"time"

	"spectrum-academy/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api"
)

type BotState int

const (
	StateDefault BotState = iota

	// Объяснительная игрока
	StateSelectingAbsence
	StateEnteringReason
	StateConfirmingExcuse

	// Рассмотрение объяснительных тренером
	StateSelectingExcuseToReview
	StateChoosingDecision
	StateEnteringResponse
)

type UserSession struct {
	State BotState

	// Поля для объяснительной
	Absences     []models.AttendanceRecord
	SelectedDate time.Time
	Reason       string

	// Поля для рассмотрения
	PendingExcuses []models.ExcuseSubmission
	SelectedExcuse *models.ExcuseSubmission
	Decision       string
}

func (b *Bot) getOrCreateSession(chatID int64) *UserSession {
	b.mu.Lock()
	defer b.mu.Unlock()

	if session, exists := b.userSessions[chatID]; exists {
		return session
	}

	session := &UserSession{State: StateDefault}
	b.userSessions[chatID] = session
	return session
}

func (b *Bot) resetSession(chatID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.userSessions, chatID)
}

func (b *Bot) cancelOperation(chatID int64, user *models.User) {
	b.resetSession(chatID)
	msg := tgbotapi.NewMessage(chatID, "❌ Операция отменена")
	if user != nil {
		msg.ReplyMarkup = createMainKeyboard(user.Role)
	} else {
		msg.ReplyMarkup = tgbotapi.NewRemoveKeyboard(true)
	}
	b.send(msg)
}
