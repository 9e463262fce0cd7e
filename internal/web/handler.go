package web

import (
	"strconv"
	"time"

	"spectrum-academy/internal/models"
	"spectrum-academy/internal/models/config"
	"spectrum-academy/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type Handler struct {
	userService         service.UserService
	attendanceService   service.AttendanceService
	excuseService       service.ExcuseService
	settingService      service.SettingService
	notificationService service.NotificationService
	dashboardService    service.DashboardService
	authService         service.AuthService
	validate            *validator.Validate
	logger              *zap.Logger
	now                 func() time.Time
}

func NewHandler(
	userService service.UserService,
	attendanceService service.AttendanceService,
	excuseService service.ExcuseService,
	settingService service.SettingService,
	notificationService service.NotificationService,
	dashboardService service.DashboardService,
	authService service.AuthService,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		userService:         userService,
		attendanceService:   attendanceService,
		excuseService:       excuseService,
		settingService:      settingService,
		notificationService: notificationService,
		dashboardService:    dashboardService,
		authService:         authService,
		validate:            validator.New(),
		logger:              logger,
		now:                 time.Now,
	}
}

// NewApp собирает fiber-приложение со всеми middleware и маршрутами
func NewApp(h *Handler, cfg config.HTTPConfig) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "Spectrum Academy",
		DisableStartupMessage: true,
		// параметры и query попадают в кэш настроек и в репозитории, буфер fasthttp переиспользуется
		Immutable: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return h.handleError(c, err)
		},
	})

	app.Use(
		recoveryMiddleware(),
		requestIDMiddleware(),
		h.requestLogger(),
		corsMiddleware(cfg.CORSOrigins),
		globalRateLimiter(),
	)

	h.RegisterRoutes(app)
	return app
}

func (h *Handler) RegisterRoutes(app *fiber.App) {
	staff := requireRoles(models.RoleTrainer, models.RoleAdmin)
	admin := requireRoles(models.RoleAdmin)

	// Публичные маршруты
	app.Get("/health", h.Health)
	app.Post("/api/auth/login", loginRateLimiter(), h.Login)
	app.Get("/api/settings/maintenance", h.GetMaintenance)

	app.Post("/functions/v1/send-notification", h.authRequired(), staff, h.SendNotification)

	api := app.Group("/api", h.authRequired(), h.maintenanceGate())

	users := api.Group("/users")
	users.Get("/", staff, h.ListUsers)
	users.Get("/generate-code", admin, h.GenerateCode)
	users.Get("/expiring", staff, h.ExpiringSubscriptions)
	users.Get("/code/:code", staff, h.GetUserByCode)
	users.Get("/:id", h.GetUser)
	users.Post("/", admin, h.CreateUser)
	users.Put("/:id", admin, h.UpdateUser)
	users.Patch("/:id/status", admin, h.ChangeUserStatus)
	users.Delete("/:id", admin, h.DeleteUser)

	attendance := api.Group("/attendance")
	attendance.Get("/", h.ListAttendance)
	attendance.Get("/report", staff, h.MonthlyReport)
	attendance.Get("/players/:id/stats", h.PlayerStats)
	attendance.Get("/players/:id/calendar", h.PlayerCalendar)
	attendance.Post("/", staff, h.RecordAttendance)
	attendance.Put("/:id", staff, h.UpdateAttendance)
	attendance.Delete("/:id", staff, h.DeleteAttendance)

	excuses := api.Group("/excuses")
	excuses.Get("/", h.ListExcuses)
	excuses.Post("/", h.SubmitExcuse)
	excuses.Get("/:id", h.GetExcuse)
	excuses.Post("/:id/review", staff, h.ReviewExcuse)

	settings := api.Group("/settings", admin)
	settings.Get("/", h.ListSettings)
	settings.Put("/admin-code", h.SetAdminCode)
	settings.Put("/:key", h.UpdateSetting)

	api.Get("/notifications", h.ListNotifications)
	api.Get("/dashboard", staff, h.Dashboard)
}

func (h *Handler) Health(c *fiber.Ctx) error {
	return jsonOK(c, "ok", fiber.Map{"time": h.now().UTC().Format(time.RFC3339)})
}

// bind разбирает тело запроса и проверяет его тегами validate
func (h *Handler) bind(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Некорректный JSON")
	}
	return h.validate.Struct(out)
}

func paramID(c *fiber.Ctx, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Params(name), 10, 64)
	return id, err == nil && id > 0
}

// monthParam читает ?month=YYYY-MM, по умолчанию текущий месяц
func (h *Handler) monthParam(c *fiber.Ctx) (time.Time, bool) {
	q := c.Query("month")
	if q == "" {
		return h.now(), true
	}
	month, err := time.Parse("2006-01", q)
	return month, err == nil
}
