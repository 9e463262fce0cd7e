package service

import (
	"context"
	"errors"
	"time"

	"spectrum-academy/internal/models"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidRole        = errors.New("invalid role")
	ErrInvalidStatus      = errors.New("invalid status")
	ErrCodeTaken          = errors.New("code is already taken")
	ErrInvalidInput       = errors.New("invalid input")
	ErrNotAttendee        = errors.New("user is not a player or student")
	ErrDuplicateExcuse    = errors.New("excuse for this date already submitted")
	ErrAlreadyReviewed    = errors.New("excuse already reviewed")
	ErrInvalidDecision    = errors.New("decision must be approved or rejected")
	ErrAttendanceUpdate   = errors.New("excuse reviewed but attendance update failed")
	ErrProtectedSetting   = errors.New("setting cannot be changed directly")
	ErrAdminCodeNotSet    = errors.New("admin code is not configured")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountInactive    = errors.New("account is not active")
)

type UserService interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByCode(ctx context.Context, code string) (*models.User, error)
	GetByTelegramID(ctx context.Context, telegramID int64) (*models.User, error)
	List(ctx context.Context, filter models.UserFilter) ([]*models.User, error)
	// ListAttendees: активные игроки и ученики
	ListAttendees(ctx context.Context) ([]*models.User, error)
	Update(ctx context.Context, user *models.User) (*models.User, error)
	Delete(ctx context.Context, id int64) error
	GenerateCode(ctx context.Context, role string) (string, error)
	ChangeStatus(ctx context.Context, id int64, status string) (*models.User, error)
	LinkTelegram(ctx context.Context, id int64, telegramID int64) error
	ExpiringSubscriptions(ctx context.Context, within time.Duration) ([]*models.User, error)
	CountByRole(ctx context.Context) (map[string]int, error)
}

type AttendanceService interface {
	Record(ctx context.Context, record *models.AttendanceRecord) (*models.AttendanceRecord, error)
	Get(ctx context.Context, id int64) (*models.AttendanceRecord, error)
	Update(ctx context.Context, record *models.AttendanceRecord) (*models.AttendanceRecord, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceRecord, error)
	// MarkExcused помечает запись (player_id, date) как excused; false, если записи нет
	MarkExcused(ctx context.Context, playerID int64, date time.Time) (bool, error)

	// Статистика
	PlayerMonthStats(ctx context.Context, playerID int64, month time.Time) (*models.PlayerMonthStats, error)
	MonthlyStats(ctx context.Context, month time.Time, playerIDs []int64) (map[int64]models.AttendanceStats, error)
	MonthlyReport(ctx context.Context, month time.Time) (*models.MonthlyReport, error)
	MonthCalendar(ctx context.Context, playerID int64, month time.Time) ([]models.CalendarDay, error)
	DayStats(ctx context.Context, day time.Time) (models.AttendanceStats, error)
}

type ExcuseService interface {
	Submit(ctx context.Context, playerID int64, absenceDate time.Time, reason string) (*models.ExcuseSubmission, error)
	Review(ctx context.Context, id int64, decision, response string, reviewerID int64) (*models.ReviewResult, error)
	Get(ctx context.Context, id int64) (*models.ExcuseSubmission, error)
	List(ctx context.Context, filter models.ExcuseFilter) ([]models.ExcuseSubmission, error)
	PendingCount(ctx context.Context) (int, error)
}

type SettingService interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	All(ctx context.Context) (map[string]string, error)
	Maintenance() models.Maintenance
	SetAdminCode(ctx context.Context, code string) error
	VerifyAdminCode(ctx context.Context, code string) error
	Refresh(ctx context.Context) error
	// Run перечитывает настройки с заданным интервалом до отмены ctx
	Run(ctx context.Context, interval time.Duration)
}

// Deliverer доставляет текст в привязанный чат (бот)
type Deliverer interface {
	Deliver(ctx context.Context, chatID int64, text string) error
}

type NotificationService interface {
	Notify(ctx context.Context, n *models.Notification) error
	ListForUser(ctx context.Context, userID int64, limit int) ([]models.Notification, error)
	SetDeliverer(d Deliverer)
}

type DashboardService interface {
	Dashboard(ctx context.Context) *models.Dashboard
}

type AuthService interface {
	Login(ctx context.Context, code, adminCode string) (string, *models.User, error)
	ParseToken(token string) (*Claims, error)
}

type Claims struct {
	UserID int64
	Role   string
}
