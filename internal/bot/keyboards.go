package bot

import (
	"spectrum-academy/internal/accounts"
	"spectrum-academy/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api"
)

const (
	btnMyAttendance   = "📊 Моя посещаемость"
	btnExplainAbsence = "📝 Объяснить пропуск"
	btnReviewExcuses  = "📋 Заявки на пропуск"
	btnAccounts       = "👤 Аккаунты"
	btnLogout         = "🚪 Выйти"
	btnCancel         = "❌ Отмена"
	btnConfirm        = "✅ Подтвердить"
	btnApprove        = "✅ Одобрить"
	btnReject         = "⛔ Отклонить"
	btnSkip           = "⏭ Пропустить"

	// Кнопка быстрого входа: "🔑 PLY123456"
	quickLoginPrefix = "🔑 "
)

func createMainKeyboard(role string) tgbotapi.ReplyKeyboardMarkup {
	if role == models.RoleTrainer || role == models.RoleAdmin {
		return tgbotapi.NewReplyKeyboard(
			tgbotapi.NewKeyboardButtonRow(
				tgbotapi.NewKeyboardButton(btnReviewExcuses),
			),
			tgbotapi.NewKeyboardButtonRow(
				tgbotapi.NewKeyboardButton(btnAccounts),
				tgbotapi.NewKeyboardButton(btnLogout),
			),
		)
	}

	if role == models.RolePlayer || role == models.RoleStudent {
		return createStudentMainKeyboard()
	}

	return tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnAccounts),
			tgbotapi.NewKeyboardButton(btnLogout),
		),
	)
}

func createStudentMainKeyboard() tgbotapi.ReplyKeyboardMarkup {
	return tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnMyAttendance),
			tgbotapi.NewKeyboardButton(btnExplainAbsence),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnAccounts),
			tgbotapi.NewKeyboardButton(btnLogout),
		),
	)
}

func createCancelKeyboard() tgbotapi.ReplyKeyboardMarkup {
	return tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnCancel),
		),
	)
}

func createConfirmationKeyboard() tgbotapi.ReplyKeyboardMarkup {
	return tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnConfirm),
			tgbotapi.NewKeyboardButton(btnCancel),
		),
	)
}

func createDecisionKeyboard() tgbotapi.ReplyKeyboardMarkup {
	return tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnApprove),
			tgbotapi.NewKeyboardButton(btnReject),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnCancel),
		),
	)
}

func createSkipKeyboard() tgbotapi.ReplyKeyboardMarkup {
	return tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnSkip),
			tgbotapi.NewKeyboardButton(btnCancel),
		),
	)
}

// createSavedAccountsKeyboard: по кнопке на каждый сохранённый аккаунт
func createSavedAccountsKeyboard(saved []accounts.SavedAccount) interface{} {
	if len(saved) == 0 {
		return tgbotapi.NewRemoveKeyboard(true)
	}

	var rows [][]tgbotapi.KeyboardButton
	for _, acc := range saved {
		rows = append(rows, tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(quickLoginPrefix+acc.Code),
		))
	}
	return tgbotapi.NewReplyKeyboard(rows...)
}
