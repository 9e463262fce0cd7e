package attendance_service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"spectrum-academy/internal/models"
	"spectrum-academy/internal/repository"
	"spectrum-academy/internal/service"

	"go.uber.org/zap"
)

type attendanceService struct {
	attendanceRepo repository.AttendanceRepository
	userRepo       repository.UserRepository
	logger         *zap.Logger
	now            func() time.Time
}

func NewAttendanceService(attendanceRepo repository.AttendanceRepository, userRepo repository.UserRepository, logger *zap.Logger) service.AttendanceService {
	return &attendanceService{
		attendanceRepo: attendanceRepo,
		userRepo:       userRepo,
		logger:         logger,
		now:            time.Now,
	}
}

// Record создаёт или перезаписывает отметку игрока за день
func (s *attendanceService) Record(ctx context.Context, record *models.AttendanceRecord) (*models.AttendanceRecord, error) {
	if !models.IsValidAttendanceStatus(record.Status) {
		return nil, fmt.Errorf("%w: unknown attendance status %q", service.ErrInvalidInput, record.Status)
	}
	if err := s.checkAttendee(ctx, record.PlayerID); err != nil {
		return nil, err
	}

	if record.Date.IsZero() {
		record.Date = s.now()
	}
	record.Date = models.Day(record.Date)

	if err := s.attendanceRepo.Upsert(ctx, record); err != nil {
		return nil, fmt.Errorf("ошибка сохранения посещаемости: %w", err)
	}

	s.logger.Debug("Посещаемость отмечена",
		zap.Int64("player_id", record.PlayerID),
		zap.String("date", record.Date.Format(models.DateLayout)),
		zap.String("status", record.Status))
	return record, nil
}

func (s *attendanceService) Get(ctx context.Context, id int64) (*models.AttendanceRecord, error) {
	record, err := s.attendanceRepo.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, service.ErrNotFound
	}
	return record, err
}

// Update меняет статус, заметку и тренера; игрок и дата не меняются
func (s *attendanceService) Update(ctx context.Context, record *models.AttendanceRecord) (*models.AttendanceRecord, error) {
	existing, err := s.Get(ctx, record.ID)
	if err != nil {
		return nil, err
	}
	if !models.IsValidAttendanceStatus(record.Status) {
		return nil, fmt.Errorf("%w: unknown attendance status %q", service.ErrInvalidInput, record.Status)
	}

	existing.Status = record.Status
	existing.Notes = record.Notes
	if record.TrainerID != nil {
		existing.TrainerID = record.TrainerID
	}

	if err := s.attendanceRepo.Update(ctx, existing); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, service.ErrNotFound
		}
		return nil, fmt.Errorf("ошибка обновления посещаемости: %w", err)
	}
	return existing, nil
}

func (s *attendanceService) Delete(ctx context.Context, id int64) error {
	if err := s.attendanceRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return service.ErrNotFound
		}
		return err
	}
	return nil
}

func (s *attendanceService) List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceRecord, error) {
	if filter.Status != "" && !models.IsValidAttendanceStatus(filter.Status) {
		return nil, fmt.Errorf("%w: unknown attendance status %q", service.ErrInvalidInput, filter.Status)
	}
	return s.attendanceRepo.List(ctx, filter)
}

func (s *attendanceService) MarkExcused(ctx context.Context, playerID int64, date time.Time) (bool, error) {
	n, err := s.attendanceRepo.UpdateStatusByPlayerAndDate(ctx, playerID, models.Day(date), models.AttendanceExcused)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *attendanceService) checkAttendee(ctx context.Context, playerID int64) error {
	user, err := s.userRepo.GetByID(ctx, playerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return service.ErrNotFound
		}
		return fmt.Errorf("ошибка получения игрока: %w", err)
	}
	if !user.IsAttendee() {
		return service.ErrNotAttendee
	}
	return nil
}
