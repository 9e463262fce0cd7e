package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"spectrum-academy/internal/accounts"
	"spectrum-academy/internal/models"
	"spectrum-academy/internal/service"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api"
	"go.uber.org/zap"
)

// /login КОД [КОД_АДМИНИСТРАТОРА]
func (b *Bot) handleLoginCommand(ctx context.Context, chatID, telegramID int64, args []string) {
	if len(args) == 0 {
		b.askLogin(chatID)
		return
	}

	adminCode := ""
	if len(args) > 1 {
		adminCode = args[1]
	}
	b.login(ctx, chatID, telegramID, args[0], adminCode)
}

func (b *Bot) login(ctx context.Context, chatID, telegramID int64, code, adminCode string) {
	code = strings.TrimSpace(code)

	user, err := b.UserService.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			b.sendError(chatID, "❌ Неверный код")
			return
		}
		b.logger.Error("Ошибка входа", zap.String("code", code), zap.Error(err))
		b.sendError(chatID, "❌ Ошибка при входе, попробуйте позже")
		return
	}

	if !user.IsActive() {
		b.sendError(chatID, "⛔ Аккаунт неактивен. Обратитесь к администратору.")
		return
	}

	if b.SettingService.Maintenance().Enabled && user.Role != models.RoleAdmin && !b.adminIDs[telegramID] {
		b.sendMaintenance(chatID)
		return
	}

	if user.Role == models.RoleAdmin {
		if adminCode == "" {
			b.sendMessage(chatID, "🔐 Для входа администратора: /login "+user.Code+" КОД_АДМИНИСТРАТОРА")
			return
		}
		if err := b.SettingService.VerifyAdminCode(ctx, adminCode); err != nil {
			if errors.Is(err, service.ErrAdminCodeNotSet) {
				b.sendError(chatID, "❌ Код администратора не настроен")
				return
			}
			b.sendError(chatID, "❌ Неверный код администратора")
			return
		}
	}

	if user.TelegramID == nil || *user.TelegramID != telegramID {
		if err := b.UserService.LinkTelegram(ctx, user.ID, telegramID); err != nil {
			// Вход не блокируем, просто не будет пуш-уведомлений
			b.logger.Warn("Не удалось привязать Telegram", zap.Int64("user_id", user.ID), zap.Error(err))
		}
	}

	b.accounts.Login(chatID, accounts.SavedAccount{
		Code: user.Code,
		Name: user.FullName,
		Role: user.Role,
	})
	b.resetSession(chatID)

	b.logger.Info("Вход в бот",
		zap.Int64("user_id", user.ID),
		zap.String("role", user.Role),
		zap.Int64("chat_id", chatID))

	b.sendWelcomeMessage(chatID, user)
}

// /switch N [КОД_АДМИНИСТРАТОРА]
func (b *Bot) handleSwitchCommand(ctx context.Context, chatID, telegramID int64, args []string) {
	saved := b.accounts.Saved(chatID)
	if len(args) == 0 {
		b.showSavedAccounts(chatID, nil)
		return
	}

	index, err := strconv.Atoi(args[0])
	if err != nil || index < 1 || index > len(saved) {
		b.sendError(chatID, "❌ Пожалуйста, введите корректный номер аккаунта")
		return
	}

	adminCode := ""
	if len(args) > 1 {
		adminCode = args[1]
	}
	b.login(ctx, chatID, telegramID, saved[index-1].Code, adminCode)
}

func (b *Bot) showSavedAccounts(chatID int64, current *models.User) {
	saved := b.accounts.Saved(chatID)
	if len(saved) == 0 {
		b.askLogin(chatID)
		return
	}

	var sb strings.Builder
	sb.WriteString("👤 Сохранённые аккаунты:\n\n")
	for i, acc := range saved {
		mark := ""
		if current != nil && current.Code == acc.Code {
			mark = " ← текущий"
		}
		sb.WriteString(fmt.Sprintf("%d. %s (%s) %s%s\n", i+1, acc.Name, roleTitle(acc.Role), acc.Code, mark))
	}
	sb.WriteString("\nПереключиться: /switch НОМЕР\nУдалить: /forget НОМЕР")

	msg := tgbotapi.NewMessage(chatID, sb.String())
	msg.ReplyMarkup = createSavedAccountsKeyboard(saved)
	b.send(msg)
}

// /forget N убирает аккаунт из сохранённых
func (b *Bot) handleForgetCommand(chatID int64, args []string) {
	saved := b.accounts.Saved(chatID)
	index := 0
	if len(args) > 0 {
		index, _ = strconv.Atoi(args[0])
	}
	if index < 1 || index > len(saved) {
		b.sendError(chatID, "❌ Пожалуйста, введите корректный номер аккаунта")
		return
	}

	b.accounts.Forget(chatID, saved[index-1].Code)
	b.resetSession(chatID)
	b.sendMessage(chatID, "🗑 Аккаунт "+saved[index-1].Code+" удалён из сохранённых")
}

func (b *Bot) handleLogout(chatID int64) {
	b.accounts.Logout(chatID)
	b.resetSession(chatID)

	msg := tgbotapi.NewMessage(chatID, "🚪 Вы вышли из аккаунта.\n\nВойти снова: /login КОД")
	msg.ReplyMarkup = createSavedAccountsKeyboard(b.accounts.Saved(chatID))
	b.send(msg)
}

func roleTitle(role string) string {
	switch role {
	case models.RoleStudent:
		return "ученик"
	case models.RolePlayer:
		return "игрок"
	case models.RoleTrainer:
		return "тренер"
	case models.RoleAdmin:
		return "администратор"
	case models.RoleEmployee:
		return "сотрудник"
	}
	return role
}
