package notification_service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"spectrum-academy/internal/models"
	"spectrum-academy/internal/repository"
	"spectrum-academy/internal/service"

	"go.uber.org/zap"
)

const defaultTitle = "Spectrum Academy"

type notificationService struct {
	notificationRepo repository.NotificationRepository
	userRepo         repository.UserRepository
	logger           *zap.Logger

	mu        sync.RWMutex
	deliverer service.Deliverer
}

func NewNotificationService(notificationRepo repository.NotificationRepository, userRepo repository.UserRepository, logger *zap.Logger) service.NotificationService {
	return &notificationService{
		notificationRepo: notificationRepo,
		userRepo:         userRepo,
		logger:           logger,
	}
}

// SetDeliverer подключает бота после сборки графа зависимостей
func (s *notificationService) SetDeliverer(d service.Deliverer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deliverer = d
}

// Notify пишет уведомление в журнал. SMS только логируется,
// в Telegram отправляется без повторов
func (s *notificationService) Notify(ctx context.Context, n *models.Notification) error {
	n.Message = strings.TrimSpace(n.Message)
	if n.Message == "" {
		return fmt.Errorf("%w: message is required", service.ErrInvalidInput)
	}
	if n.Title == "" {
		n.Title = defaultTitle
	}
	if n.Type == "" {
		n.Type = models.NotificationGeneral
	}

	if err := s.notificationRepo.Create(ctx, n); err != nil {
		return fmt.Errorf("ошибка записи уведомления: %w", err)
	}

	if n.Phone != "" {
		s.logger.Info("📱 SMS к отправке",
			zap.String("phone", n.Phone),
			zap.String("title", n.Title),
			zap.String("message", n.Message))
	}

	s.push(ctx, n)
	return nil
}

func (s *notificationService) push(ctx context.Context, n *models.Notification) {
	s.mu.RLock()
	d := s.deliverer
	s.mu.RUnlock()

	// SMS-копия уже доставлена в чат вместе с основной записью
	if d == nil || n.UserID == nil || n.Phone != "" {
		return
	}

	user, err := s.userRepo.GetByID(ctx, *n.UserID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			s.logger.Warn("Не удалось получить получателя уведомления", zap.Int64("user_id", *n.UserID), zap.Error(err))
		}
		return
	}
	if user.TelegramID == nil {
		return
	}

	text := fmt.Sprintf("🔔 %s\n\n%s", n.Title, n.Message)
	if err := d.Deliver(ctx, *user.TelegramID, text); err != nil {
		s.logger.Warn("Не удалось доставить уведомление в Telegram",
			zap.Int64("user_id", user.ID),
			zap.Error(err))
	}
}

func (s *notificationService) ListForUser(ctx context.Context, userID int64, limit int) ([]models.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.notificationRepo.ListByUser(ctx, userID, limit)
}
