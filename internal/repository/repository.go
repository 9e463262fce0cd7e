package repository

import (
	"context"
	"errors"
	"time"

	"spectrum-academy/internal/models"

	"github.com/lib/pq"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("record already exists")
)

// IsUniqueViolation: нарушение уникального индекса в PostgreSQL (23505)
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByCode(ctx context.Context, code string) (*models.User, error)
	GetByTelegramID(ctx context.Context, telegramID int64) (*models.User, error)
	List(ctx context.Context, filter models.UserFilter) ([]*models.User, error)
	Update(ctx context.Context, user *models.User) error
	UpdateCodeAndStatus(ctx context.Context, id int64, code, status string) error
	LinkTelegram(ctx context.Context, id int64, telegramID int64) error
	Delete(ctx context.Context, id int64) error
	CodeExists(ctx context.Context, code string) (bool, error)
	CountByRole(ctx context.Context) (map[string]int, error)
	GetSubscriptionsEndingBetween(ctx context.Context, from, to time.Time) ([]*models.User, error)
}

type AttendanceRepository interface {
	// Upsert по (player_id, date)
	Upsert(ctx context.Context, record *models.AttendanceRecord) error
	GetByID(ctx context.Context, id int64) (*models.AttendanceRecord, error)
	GetByPlayerAndDate(ctx context.Context, playerID int64, date time.Time) (*models.AttendanceRecord, error)
	List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceRecord, error)
	Update(ctx context.Context, record *models.AttendanceRecord) error
	// UpdateStatusByPlayerAndDate возвращает число изменённых строк
	UpdateStatusByPlayerAndDate(ctx context.Context, playerID int64, date time.Time, status string) (int64, error)
	Delete(ctx context.Context, id int64) error
}

type ExcuseRepository interface {
	Create(ctx context.Context, excuse *models.ExcuseSubmission) error
	GetByID(ctx context.Context, id int64) (*models.ExcuseSubmission, error)
	GetByPlayerAndDate(ctx context.Context, playerID int64, date time.Time) (*models.ExcuseSubmission, error)
	List(ctx context.Context, filter models.ExcuseFilter) ([]models.ExcuseSubmission, error)
	UpdateReview(ctx context.Context, excuse *models.ExcuseSubmission) error
	CountByStatus(ctx context.Context, status string) (int, error)
}

type SettingRepository interface {
	Get(ctx context.Context, key string) (*models.Setting, error)
	GetAll(ctx context.Context) ([]models.Setting, error)
	Upsert(ctx context.Context, key, value string) error
}

type NotificationRepository interface {
	Create(ctx context.Context, notification *models.Notification) error
	ListByUser(ctx context.Context, userID int64, limit int) ([]models.Notification, error)
}
