package user_service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"spectrum-academy/internal/models"
	"spectrum-academy/internal/repository"
	"spectrum-academy/internal/service"
)

// Префиксы кодов по ролям
var codePrefixes = map[string]string{
	models.RoleStudent:  "STU",
	models.RolePlayer:   "PLY",
	models.RoleTrainer:  "TRN",
	models.RoleAdmin:    "ADM",
	models.RoleEmployee: "EMP",
}

const maxCodeAttempts = 10

type userService struct {
	userRepo repository.UserRepository
	digits   func() string
	now      func() time.Time
}

func NewUserService(userRepo repository.UserRepository) service.UserService {
	return &userService{
		userRepo: userRepo,
		digits:   randomDigits,
		now:      time.Now,
	}
}

func randomDigits() string {
	return fmt.Sprintf("%06d", rand.Intn(1_000_000))
}

func (s *userService) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if !models.IsValidRole(user.Role) {
		return nil, service.ErrInvalidRole
	}
	if user.Status == "" {
		user.Status = models.StatusActive
	}
	if !models.IsValidStatus(user.Status) {
		return nil, service.ErrInvalidStatus
	}
	if err := validateRoleFields(user); err != nil {
		return nil, err
	}

	user.Code = models.NormalizeCode(user.Code)
	if user.Code == "" {
		code, err := s.GenerateCode(ctx, user.Role)
		if err != nil {
			return nil, err
		}
		user.Code = code
	} else if strings.HasSuffix(user.Code, models.DeactivatedSuffix) {
		return nil, fmt.Errorf("%w: code must not end with %s", service.ErrInvalidInput, models.DeactivatedSuffix)
	}

	if !user.IsActive() {
		user.Code = models.DeactivateCode(user.Code)
	}

	exists, err := s.userRepo.CodeExists(ctx, user.Code)
	if err != nil {
		return nil, fmt.Errorf("ошибка проверки кода: %w", err)
	}
	if exists {
		return nil, service.ErrCodeTaken
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, service.ErrCodeTaken
		}
		return nil, fmt.Errorf("ошибка создания пользователя: %w", err)
	}
	return user, nil
}

func (s *userService) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return mapNotFound(s.userRepo.GetByID(ctx, id))
}

func (s *userService) GetByCode(ctx context.Context, code string) (*models.User, error) {
	return mapNotFound(s.userRepo.GetByCode(ctx, models.NormalizeCode(code)))
}

func (s *userService) GetByTelegramID(ctx context.Context, telegramID int64) (*models.User, error) {
	return mapNotFound(s.userRepo.GetByTelegramID(ctx, telegramID))
}

func (s *userService) List(ctx context.Context, filter models.UserFilter) ([]*models.User, error) {
	if filter.Role != "" && !models.IsValidRole(filter.Role) {
		return nil, service.ErrInvalidRole
	}
	if filter.Status != "" && !models.IsValidStatus(filter.Status) {
		return nil, service.ErrInvalidStatus
	}
	return s.userRepo.List(ctx, filter)
}

func (s *userService) ListAttendees(ctx context.Context) ([]*models.User, error) {
	users, err := s.userRepo.List(ctx, models.UserFilter{Status: models.StatusActive})
	if err != nil {
		return nil, err
	}

	var attendees []*models.User
	for _, u := range users {
		if u.IsAttendee() {
			attendees = append(attendees, u)
		}
	}
	return attendees, nil
}

// Update меняет профиль; статус меняется только через ChangeStatus
func (s *userService) Update(ctx context.Context, user *models.User) (*models.User, error) {
	existing, err := s.GetByID(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if !models.IsValidRole(user.Role) {
		return nil, service.ErrInvalidRole
	}
	if err := validateRoleFields(user); err != nil {
		return nil, err
	}

	code := models.NormalizeCode(user.Code)
	if code == "" {
		code = existing.Code
	}
	if existing.IsActive() {
		code = models.ReactivateCode(code)
	} else {
		code = models.DeactivateCode(code)
	}
	user.Code = code
	user.Status = existing.Status
	user.TelegramID = existing.TelegramID
	user.CreatedAt = existing.CreatedAt

	if err := s.userRepo.Update(ctx, user); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			return nil, service.ErrCodeTaken
		case errors.Is(err, repository.ErrNotFound):
			return nil, service.ErrNotFound
		}
		return nil, fmt.Errorf("ошибка обновления пользователя: %w", err)
	}
	return user, nil
}

func (s *userService) Delete(ctx context.Context, id int64) error {
	if err := s.userRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return service.ErrNotFound
		}
		return err
	}
	return nil
}

// GenerateCode выдаёт свободный код вида PLY123456
func (s *userService) GenerateCode(ctx context.Context, role string) (string, error) {
	prefix, ok := codePrefixes[role]
	if !ok {
		return "", service.ErrInvalidRole
	}

	for i := 0; i < maxCodeAttempts; i++ {
		code := prefix + s.digits()
		exists, err := s.userRepo.CodeExists(ctx, code)
		if err != nil {
			return "", fmt.Errorf("ошибка проверки кода: %w", err)
		}
		if !exists {
			return code, nil
		}
	}
	return "", fmt.Errorf("не удалось подобрать свободный код за %d попыток", maxCodeAttempts)
}

// ChangeStatus при приостановке/деактивации добавляет суффикс к коду,
// при активации снимает его, возвращая исходный код
func (s *userService) ChangeStatus(ctx context.Context, id int64, status string) (*models.User, error) {
	if !models.IsValidStatus(status) {
		return nil, service.ErrInvalidStatus
	}

	user, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	code := models.ReactivateCode(user.Code)
	if status != models.StatusActive {
		code = models.DeactivateCode(code)
	}

	if err := s.userRepo.UpdateCodeAndStatus(ctx, id, code, status); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			return nil, service.ErrCodeTaken
		case errors.Is(err, repository.ErrNotFound):
			return nil, service.ErrNotFound
		}
		return nil, fmt.Errorf("ошибка смены статуса: %w", err)
	}

	user.Code = code
	user.Status = status
	return user, nil
}

func (s *userService) LinkTelegram(ctx context.Context, id int64, telegramID int64) error {
	if err := s.userRepo.LinkTelegram(ctx, id, telegramID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return service.ErrNotFound
		}
		return err
	}
	return nil
}

func (s *userService) ExpiringSubscriptions(ctx context.Context, within time.Duration) ([]*models.User, error) {
	today := models.Day(s.now())
	return s.userRepo.GetSubscriptionsEndingBetween(ctx, today, today.Add(within))
}

func (s *userService) CountByRole(ctx context.Context) (map[string]int, error) {
	return s.userRepo.CountByRole(ctx)
}

func validateRoleFields(user *models.User) error {
	if user.SubscriptionStart != nil && user.SubscriptionEnd != nil &&
		user.SubscriptionEnd.Before(*user.SubscriptionStart) {
		return fmt.Errorf("%w: subscription ends before it starts", service.ErrInvalidInput)
	}
	if user.Salary != nil && *user.Salary < 0 {
		return fmt.Errorf("%w: salary must not be negative", service.ErrInvalidInput)
	}
	if user.TrainerID != nil && !user.IsAttendee() {
		return fmt.Errorf("%w: only players and students have a trainer", service.ErrInvalidInput)
	}
	return nil
}

func mapNotFound(user *models.User, err error) (*models.User, error) {
	if errors.Is(err, repository.ErrNotFound) {
		return nil, service.ErrNotFound
	}
	return user, err
}
