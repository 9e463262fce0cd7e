package bot

import (
	"context"
	"errors"
	"strings"

	"spectrum-academy/internal/models"
	"spectrum-academy/internal/service"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api"
	"go.uber.org/zap"
)

// Обработка сообщения здесь
func (b *Bot) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	if message.From == nil || message.Chat == nil {
		return
	}
	chatID := message.Chat.ID
	telegramID := int64(message.From.ID)

	b.logger.Debug("Сообщение",
		zap.String("from", message.From.UserName),
		zap.Int64("chat_id", chatID),
		zap.String("text", message.Text))

	user := b.currentUser(ctx, chatID)

	isLogin := (message.IsCommand() && message.Command() == "login") ||
		strings.HasPrefix(message.Text, quickLoginPrefix)
	if !isLogin && b.blockedByMaintenance(user, telegramID) {
		b.resetSession(chatID)
		b.sendMaintenance(chatID)
		return
	}

	// Проверяем состояние пользователя ПРЕЖДЕ обработки команд
	session := b.getOrCreateSession(chatID)
	if session.State != StateDefault {
		if message.Text == btnCancel || user == nil {
			b.cancelOperation(chatID, user)
			return
		}

		switch session.State {
		case StateSelectingAbsence:
			b.handleAbsenceSelection(chatID, message.Text)
		case StateEnteringReason:
			b.handleReasonInput(chatID, message.Text)
		case StateConfirmingExcuse:
			b.handleExcuseConfirmation(ctx, chatID, user, message.Text)
		case StateSelectingExcuseToReview:
			b.handleExcuseSelection(chatID, message.Text)
		case StateChoosingDecision:
			b.handleDecisionSelection(chatID, message.Text)
		case StateEnteringResponse:
			b.handleResponseInput(ctx, chatID, user, message.Text)
		}
		return
	}

	// Команды обрабатываем только без активной сессии
	if message.IsCommand() {
		args := strings.Fields(message.CommandArguments())
		switch message.Command() {
		case "login":
			b.handleLoginCommand(ctx, chatID, telegramID, args)
		case "accounts":
			b.showSavedAccounts(chatID, user)
		case "switch":
			b.handleSwitchCommand(ctx, chatID, telegramID, args)
		case "forget":
			b.handleForgetCommand(chatID, args)
		case "logout":
			b.handleLogout(chatID)
		default:
			b.sendWelcomeMessage(chatID, user)
		}
		return
	}

	if strings.HasPrefix(message.Text, quickLoginPrefix) {
		code := strings.TrimPrefix(message.Text, quickLoginPrefix)
		b.login(ctx, chatID, telegramID, code, "")
		return
	}

	if user == nil {
		b.askLogin(chatID)
		return
	}

	switch message.Text {
	case btnMyAttendance:
		b.showMyAttendance(ctx, chatID, user)
	case btnExplainAbsence:
		b.handleExplainAbsence(ctx, chatID, user)
	case btnReviewExcuses:
		b.handleReviewExcuses(ctx, chatID, user)
	case btnAccounts:
		b.showSavedAccounts(chatID, user)
	case btnLogout:
		b.handleLogout(chatID)
	default:
		b.sendWelcomeMessage(chatID, user)
	}
}

// currentUser возвращает пользователя, под которым в этом чате вошли сегодня
func (b *Bot) currentUser(ctx context.Context, chatID int64) *models.User {
	code, ok := b.accounts.Today(chatID)
	if !ok {
		return nil
	}

	user, err := b.UserService.GetByCode(ctx, code)
	if err != nil {
		if !errors.Is(err, service.ErrNotFound) {
			b.logger.Warn("Ошибка получения пользователя", zap.String("code", code), zap.Error(err))
		}
		return nil
	}
	if !user.IsActive() {
		return nil
	}
	return user
}

func (b *Bot) blockedByMaintenance(user *models.User, telegramID int64) bool {
	if !b.SettingService.Maintenance().Enabled {
		return false
	}
	if b.adminIDs[telegramID] {
		return false
	}
	return user == nil || user.Role != models.RoleAdmin
}

func (b *Bot) sendMaintenance(chatID int64) {
	text := b.SettingService.Maintenance().Message
	if text == "" {
		text = "Ведутся технические работы. Попробуйте позже."
	}
	msg := tgbotapi.NewMessage(chatID, "🛠 "+text)
	msg.ReplyMarkup = tgbotapi.NewRemoveKeyboard(true)
	b.send(msg)
}

func (b *Bot) askLogin(chatID int64) {
	text := "🔐 Войдите по коду: /login КОД\n\nКод выдаёт администратор академии."
	saved := b.accounts.Saved(chatID)
	if len(saved) > 0 {
		text += "\n\nИли выберите сохранённый аккаунт:"
	}
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = createSavedAccountsKeyboard(saved)
	b.send(msg)
}

func (b *Bot) sendWelcomeMessage(chatID int64, user *models.User) {
	if user == nil {
		b.askLogin(chatID)
		return
	}

	var text string
	switch user.Role {
	case models.RoleTrainer, models.RoleAdmin:
		text = "🏅 Добро пожаловать, " + user.FullName + "!\n\nВыберите нужный раздел:"
	case models.RolePlayer, models.RoleStudent:
		text = "⚽ Добро пожаловать в Spectrum Academy, " + user.FullName + "!\n\nВыберите нужный раздел:"
	default:
		text = "👋 Здравствуйте, " + user.FullName + "!"
	}

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = createMainKeyboard(user.Role)
	b.send(msg)
}
