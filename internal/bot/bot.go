package bot

import (
	"context"
	"fmt"
	"sync"
	"time"

	"spectrum-academy/internal/accounts"
	"spectrum-academy/internal/models/config"
	"spectrum-academy/internal/service"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api"
	"go.uber.org/zap"
)

// sender: часть BotAPI, через которую бот отправляет сообщения
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type Bot struct {
	api    sender
	client *tgbotapi.BotAPI

	UserService       service.UserService
	AttendanceService service.AttendanceService
	ExcuseService     service.ExcuseService
	SettingService    service.SettingService

	accounts *accounts.Store
	adminIDs map[int64]bool
	logger   *zap.Logger
	now      func() time.Time

	userSessions map[int64]*UserSession // chatID -> session
	mu           sync.RWMutex
}

func NewBot(
	cfg config.BotConfig,
	userService service.UserService,
	attendanceService service.AttendanceService,
	excuseService service.ExcuseService,
	settingService service.SettingService,
	logger *zap.Logger,
) (*Bot, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("BOT_TOKEN не установлен в конфигурации")
	}

	client, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot API: %w", err)
	}
	client.Debug = cfg.Debug

	logger.Info("🤖 Бот инициализирован",
		zap.String("username", client.Self.UserName),
		zap.Bool("debug", cfg.Debug),
		zap.Int64s("admin_ids", cfg.AdminIDs))

	b := newBot(client, userService, attendanceService, excuseService, settingService, cfg.AdminIDs, logger)
	b.client = client
	return b, nil
}

func newBot(
	api sender,
	userService service.UserService,
	attendanceService service.AttendanceService,
	excuseService service.ExcuseService,
	settingService service.SettingService,
	adminIDs []int64,
	logger *zap.Logger,
) *Bot {
	admins := make(map[int64]bool, len(adminIDs))
	for _, id := range adminIDs {
		admins[id] = true
	}
	return &Bot{
		api:               api,
		UserService:       userService,
		AttendanceService: attendanceService,
		ExcuseService:     excuseService,
		SettingService:    settingService,
		accounts:          accounts.NewStore(),
		adminIDs:          admins,
		logger:            logger,
		now:               time.Now,
		userSessions:      make(map[int64]*UserSession),
	}
}

// Start читает обновления до отмены ctx; каждое сообщение обрабатывается в своей горутине
func (b *Bot) Start(ctx context.Context) error {
	b.logger.Info("Бот запущен", zap.String("username", b.client.Self.UserName))

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates, err := b.client.GetUpdatesChan(u)
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			b.client.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil {
				continue
			}
			go b.handleMessage(ctx, update.Message)
		}
	}
}

// Deliver отправляет уведомление в привязанный чат
func (b *Bot) Deliver(ctx context.Context, chatID int64, text string) error {
	_, err := b.api.Send(tgbotapi.NewMessage(chatID, text))
	return err
}

func (b *Bot) send(msg tgbotapi.MessageConfig) {
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Warn("Не удалось отправить сообщение", zap.Int64("chat_id", msg.ChatID), zap.Error(err))
	}
}

func (b *Bot) sendMessage(chatID int64, text string) {
	b.send(tgbotapi.NewMessage(chatID, text))
}

func (b *Bot) sendError(chatID int64, text string) {
	b.sendMessage(chatID, text)
}

// notifyAdmins рассылает сообщение администраторам из конфигурации
func (b *Bot) notifyAdmins(text string) {
	for id := range b.adminIDs {
		b.sendMessage(id, text)
	}
}
