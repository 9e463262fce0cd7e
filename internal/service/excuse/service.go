package excuse_service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"spectrum-academy/internal/models"
	"spectrum-academy/internal/repository"
	"spectrum-academy/internal/service"

	"go.uber.org/zap"
)

const maxReasonLength = 1000

type excuseService struct {
	excuseRepo          repository.ExcuseRepository
	userRepo            repository.UserRepository
	attendanceService   service.AttendanceService
	notificationService service.NotificationService
	logger              *zap.Logger
	now                 func() time.Time
}

func NewExcuseService(
	excuseRepo repository.ExcuseRepository,
	userRepo repository.UserRepository,
	attendanceService service.AttendanceService,
	notificationService service.NotificationService,
	logger *zap.Logger,
) service.ExcuseService {
	return &excuseService{
		excuseRepo:          excuseRepo,
		userRepo:            userRepo,
		attendanceService:   attendanceService,
		notificationService: notificationService,
		logger:              logger,
		now:                 time.Now,
	}
}

// Submit создаёт объяснительную; на один день у игрока может быть только одна
func (s *excuseService) Submit(ctx context.Context, playerID int64, absenceDate time.Time, reason string) (*models.ExcuseSubmission, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, fmt.Errorf("%w: reason is required", service.ErrInvalidInput)
	}
	if len([]rune(reason)) > maxReasonLength {
		return nil, fmt.Errorf("%w: reason is longer than %d characters", service.ErrInvalidInput, maxReasonLength)
	}
	if absenceDate.IsZero() {
		return nil, fmt.Errorf("%w: absence date is required", service.ErrInvalidInput)
	}

	player, err := s.userRepo.GetByID(ctx, playerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, service.ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения игрока: %w", err)
	}
	if !player.IsAttendee() {
		return nil, service.ErrNotAttendee
	}

	date := models.Day(absenceDate)
	existing, err := s.excuseRepo.GetByPlayerAndDate(ctx, playerID, date)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("ошибка проверки объяснительной: %w", err)
	}
	if existing != nil {
		return nil, service.ErrDuplicateExcuse
	}

	excuse := &models.ExcuseSubmission{
		PlayerID:    playerID,
		AbsenceDate: date,
		Reason:      reason,
		Status:      models.ExcusePending,
		PlayerName:  player.FullName,
	}
	if err := s.excuseRepo.Create(ctx, excuse); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, service.ErrDuplicateExcuse
		}
		return nil, fmt.Errorf("ошибка создания объяснительной: %w", err)
	}

	s.logger.Info("Новая объяснительная",
		zap.Int64("excuse_id", excuse.ID),
		zap.Int64("player_id", playerID),
		zap.String("date", date.Format(models.DateLayout)))
	return excuse, nil
}

// Review рассматривает объяснительную. Записи не объединены в транзакцию:
// если посещаемость не обновилась, объяснительная остаётся одобренной,
// а ошибка возвращается вместе с результатом
func (s *excuseService) Review(ctx context.Context, id int64, decision, response string, reviewerID int64) (*models.ReviewResult, error) {
	if decision != models.ExcuseApproved && decision != models.ExcuseRejected {
		return nil, service.ErrInvalidDecision
	}

	excuse, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if excuse.Status != models.ExcusePending {
		return nil, service.ErrAlreadyReviewed
	}

	reviewedAt := s.now()
	excuse.Status = decision
	excuse.TrainerResponse = strings.TrimSpace(response)
	excuse.ReviewedBy = &reviewerID
	excuse.ReviewedAt = &reviewedAt

	if err := s.excuseRepo.UpdateReview(ctx, excuse); err != nil {
		return nil, fmt.Errorf("ошибка обновления объяснительной: %w", err)
	}

	result := &models.ReviewResult{Excuse: excuse}
	var attendanceErr error

	if decision == models.ExcuseApproved {
		found, err := s.attendanceService.MarkExcused(ctx, excuse.PlayerID, excuse.AbsenceDate)
		if err != nil {
			s.logger.Error("Объяснительная одобрена, но посещаемость не обновлена",
				zap.Int64("excuse_id", excuse.ID),
				zap.Int64("player_id", excuse.PlayerID),
				zap.Error(err))
			attendanceErr = fmt.Errorf("%w: %v", service.ErrAttendanceUpdate, err)
		} else {
			result.AttendanceUpdated = found
			if !found {
				s.logger.Warn("Нет отметки посещаемости для одобренной объяснительной",
					zap.Int64("excuse_id", excuse.ID),
					zap.String("date", excuse.AbsenceDate.Format(models.DateLayout)))
			}
		}
	}

	s.notifyPlayer(ctx, excuse)

	s.logger.Info("Объяснительная рассмотрена",
		zap.Int64("excuse_id", excuse.ID),
		zap.String("decision", decision),
		zap.Int64("reviewer_id", reviewerID))
	return result, attendanceErr
}

// notifyPlayer пишет уведомление в приложение и, если есть телефон, SMS-копию
func (s *excuseService) notifyPlayer(ctx context.Context, excuse *models.ExcuseSubmission) {
	title, message, kind := reviewMessage(excuse)

	n := &models.Notification{
		UserID:  &excuse.PlayerID,
		Title:   title,
		Message: message,
		Type:    kind,
	}
	if err := s.notificationService.Notify(ctx, n); err != nil {
		s.logger.Warn("Не удалось записать уведомление", zap.Int64("excuse_id", excuse.ID), zap.Error(err))
	}

	player, err := s.userRepo.GetByID(ctx, excuse.PlayerID)
	if err != nil {
		s.logger.Warn("Не удалось получить игрока для SMS", zap.Int64("player_id", excuse.PlayerID), zap.Error(err))
		return
	}
	if player.Phone == "" {
		return
	}

	sms := &models.Notification{
		UserID:  &excuse.PlayerID,
		Title:   title,
		Message: message,
		Type:    kind,
		Phone:   player.Phone,
	}
	if err := s.notificationService.Notify(ctx, sms); err != nil {
		s.logger.Warn("Не удалось записать SMS-уведомление", zap.Int64("excuse_id", excuse.ID), zap.Error(err))
	}
}

func reviewMessage(excuse *models.ExcuseSubmission) (title, message, kind string) {
	date := excuse.AbsenceDate.Format("02.01.2006")
	if excuse.Status == models.ExcuseApproved {
		title = "Пропуск засчитан как уважительный"
		message = fmt.Sprintf("Ваша объяснительная за %s одобрена.", date)
		kind = models.NotificationExcuseApproved
	} else {
		title = "Объяснительная отклонена"
		message = fmt.Sprintf("Ваша объяснительная за %s отклонена.", date)
		kind = models.NotificationExcuseRejected
	}
	if excuse.TrainerResponse != "" {
		message += "\nОтвет тренера: " + excuse.TrainerResponse
	}
	return title, message, kind
}

func (s *excuseService) Get(ctx context.Context, id int64) (*models.ExcuseSubmission, error) {
	excuse, err := s.excuseRepo.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, service.ErrNotFound
	}
	return excuse, err
}

func (s *excuseService) List(ctx context.Context, filter models.ExcuseFilter) ([]models.ExcuseSubmission, error) {
	switch filter.Status {
	case "", models.ExcusePending, models.ExcuseApproved, models.ExcuseRejected:
	default:
		return nil, fmt.Errorf("%w: unknown excuse status %q", service.ErrInvalidInput, filter.Status)
	}
	return s.excuseRepo.List(ctx, filter)
}

func (s *excuseService) PendingCount(ctx context.Context) (int, error) {
	return s.excuseRepo.CountByStatus(ctx, models.ExcusePending)
}
