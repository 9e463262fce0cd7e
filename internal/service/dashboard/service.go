package dashboard_service

import (
	"context"
	"time"

	"spectrum-academy/internal/models"
	"spectrum-academy/internal/service"

	"go.uber.org/zap"
)

// Подписки, заканчивающиеся в ближайшую неделю
const expiringWindow = 7 * 24 * time.Hour

type dashboardService struct {
	userService       service.UserService
	attendanceService service.AttendanceService
	excuseService     service.ExcuseService
	settingService    service.SettingService
	logger            *zap.Logger
	now               func() time.Time
}

func NewDashboardService(
	userService service.UserService,
	attendanceService service.AttendanceService,
	excuseService service.ExcuseService,
	settingService service.SettingService,
	logger *zap.Logger,
) service.DashboardService {
	return &dashboardService{
		userService:       userService,
		attendanceService: attendanceService,
		excuseService:     excuseService,
		settingService:    settingService,
		logger:            logger,
		now:               time.Now,
	}
}

// Dashboard никогда не падает целиком: каждый показатель при ошибке
// обнуляется, а ошибка пишется в лог
func (s *dashboardService) Dashboard(ctx context.Context) *models.Dashboard {
	d := &models.Dashboard{UsersByRole: make(map[string]int)}

	if counts, err := s.userService.CountByRole(ctx); err != nil {
		s.logger.Warn("Дашборд: не удалось посчитать пользователей", zap.Error(err))
	} else {
		for _, role := range models.Roles {
			d.UsersByRole[role] = counts[role]
		}
	}

	if attendees, err := s.userService.ListAttendees(ctx); err != nil {
		s.logger.Warn("Дашборд: не удалось получить игроков", zap.Error(err))
	} else {
		d.ActivePlayers = len(attendees)
	}

	if pending, err := s.excuseService.PendingCount(ctx); err != nil {
		s.logger.Warn("Дашборд: не удалось посчитать объяснительные", zap.Error(err))
	} else {
		d.PendingExcuses = pending
	}

	if stats, err := s.attendanceService.DayStats(ctx, s.now()); err != nil {
		s.logger.Warn("Дашборд: не удалось посчитать посещаемость", zap.Error(err))
	} else {
		d.TodayRate = stats.Rate
	}

	if expiring, err := s.userService.ExpiringSubscriptions(ctx, expiringWindow); err != nil {
		s.logger.Warn("Дашборд: не удалось получить подписки", zap.Error(err))
	} else {
		d.ExpiringSoon = len(expiring)
	}

	d.MaintenanceMode = s.settingService.Maintenance().Enabled
	return d
}
