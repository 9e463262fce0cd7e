package web

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"spectrum-academy/internal/models"
	"spectrum-academy/internal/models/config"
	"spectrum-academy/internal/repository/repotest"
	attendance_service "spectrum-academy/internal/service/attendance"
	auth_service "spectrum-academy/internal/service/auth"
	dashboard_service "spectrum-academy/internal/service/dashboard"
	excuse_service "spectrum-academy/internal/service/excuse"
	notification_service "spectrum-academy/internal/service/notification"
	setting_service "spectrum-academy/internal/service/setting"
	user_service "spectrum-academy/internal/service/user"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testAdminCode = "admin-secret"

type testEnv struct {
	app           *fiber.App
	users         *repotest.UserRepo
	attendance    *repotest.AttendanceRepo
	notifications *repotest.NotificationRepo
	settings      *repotest.SettingRepo
	tokens        map[string]string
}

type envelope struct {
	Success   bool              `json:"success"`
	Message   string            `json:"message"`
	ErrorCode string            `json:"error_code"`
	Errors    map[string]string `json:"errors"`
	Data      json.RawMessage   `json:"data"`
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := zap.NewNop()
	ctx := context.Background()

	env := &testEnv{
		users: repotest.NewUserRepo(
			&models.User{ID: 1, Code: "ADM1", FullName: "Админ", Role: models.RoleAdmin, Status: models.StatusActive},
			&models.User{ID: 2, Code: "TRN2", FullName: "Тренер", Role: models.RoleTrainer, Status: models.StatusActive},
			&models.User{ID: 3, Code: "PLY3", FullName: "Игрок", Role: models.RolePlayer, Status: models.StatusActive, Phone: "+79990001122"},
			&models.User{ID: 4, Code: "STU4", FullName: "Ученик", Role: models.RoleStudent, Status: models.StatusActive},
		),
		attendance: repotest.NewAttendanceRepo(
			models.AttendanceRecord{ID: 1, PlayerID: 3, Date: time.Date(2026, 10, 6, 0, 0, 0, 0, time.UTC), Status: models.AttendanceAbsent},
		),
		notifications: repotest.NewNotificationRepo(),
		settings:      repotest.NewSettingRepo(map[string]string{models.SettingMaintenanceMode: "false"}),
		tokens:        make(map[string]string),
	}

	userSvc := user_service.NewUserService(env.users)
	attendanceSvc := attendance_service.NewAttendanceService(env.attendance, env.users, logger)
	notificationSvc := notification_service.NewNotificationService(env.notifications, env.users, logger)
	excuseSvc := excuse_service.NewExcuseService(repotest.NewExcuseRepo(), env.users, attendanceSvc, notificationSvc, logger)
	settingSvc := setting_service.NewSettingService(env.settings, logger)
	require.NoError(t, settingSvc.SetAdminCode(ctx, testAdminCode))
	require.NoError(t, settingSvc.Refresh(ctx))
	dashboardSvc := dashboard_service.NewDashboardService(userSvc, attendanceSvc, excuseSvc, settingSvc, logger)
	authSvc := auth_service.NewAuthService(userSvc, settingSvc, config.AuthConfig{JWTSecret: "test", TokenTTL: time.Hour}, logger)

	h := NewHandler(userSvc, attendanceSvc, excuseSvc, settingSvc, notificationSvc, dashboardSvc, authSvc, logger)
	h.now = func() time.Time { return time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC) }
	env.app = NewApp(h, config.HTTPConfig{Port: "0"})

	for code, adminCode := range map[string]string{"ADM1": testAdminCode, "TRN2": "", "PLY3": "", "STU4": ""} {
		token, _, err := authSvc.Login(ctx, code, adminCode)
		require.NoError(t, err)
		env.tokens[code] = token
	}
	return env
}

func (e *testEnv) do(t *testing.T, method, path, as string, body any) (int, envelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if as != "" {
		req.Header.Set("Authorization", "Bearer "+e.tokens[as])
	}

	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &env), string(raw))
	}
	return resp.StatusCode, env
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	status, body := env.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.True(t, body.Success)
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)

	status, body := env.do(t, http.MethodPost, "/api/auth/login", "", fiber.Map{"code": "PLY3"})
	require.Equal(t, http.StatusOK, status)
	var data loginResponse
	require.NoError(t, json.Unmarshal(body.Data, &data))
	assert.NotEmpty(t, data.Token)
	assert.Equal(t, int64(3), data.User.ID)

	status, body = env.do(t, http.MethodPost, "/api/auth/login", "", fiber.Map{"code": "NOPE"})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.False(t, body.Success)
	assert.Equal(t, "UNAUTHORIZED", body.ErrorCode)

	status, _ = env.do(t, http.MethodPost, "/api/auth/login", "", fiber.Map{"code": "ADM1", "admin_code": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body = env.do(t, http.MethodPost, "/api/auth/login", "", fiber.Map{})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "required", body.Errors["Code"])
}

func TestAuthAndRoles(t *testing.T) {
	env := newTestEnv(t)

	status, _ := env.do(t, http.MethodGet, "/api/users", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = env.do(t, http.MethodGet, "/api/users", "PLY3", nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = env.do(t, http.MethodGet, "/api/users", "TRN2", nil)
	assert.Equal(t, http.StatusOK, status)

	// свой профиль игрок видит, чужой нет
	status, _ = env.do(t, http.MethodGet, "/api/users/3", "PLY3", nil)
	assert.Equal(t, http.StatusOK, status)
	status, _ = env.do(t, http.MethodGet, "/api/users/4", "PLY3", nil)
	assert.Equal(t, http.StatusForbidden, status)
}

func TestUserLifecycle(t *testing.T) {
	env := newTestEnv(t)

	status, body := env.do(t, http.MethodPost, "/api/users", "ADM1", fiber.Map{
		"role": "player", "full_name": "Новый игрок", "subscription_end": "2026-12-31",
	})
	require.Equal(t, http.StatusCreated, status, body.Message)
	var user models.User
	require.NoError(t, json.Unmarshal(body.Data, &user))
	assert.Regexp(t, `^PLY\d{6}$`, user.Code)

	path := "/api/users/" + itoa(user.ID) + "/status"
	status, body = env.do(t, http.MethodPatch, path, "ADM1", fiber.Map{"status": "suspended"})
	require.Equal(t, http.StatusOK, status)
	var suspended models.User
	require.NoError(t, json.Unmarshal(body.Data, &suspended))
	assert.Equal(t, user.Code+models.DeactivatedSuffix, suspended.Code)

	status, body = env.do(t, http.MethodPatch, path, "ADM1", fiber.Map{"status": "active"})
	require.Equal(t, http.StatusOK, status)
	var active models.User
	require.NoError(t, json.Unmarshal(body.Data, &active))
	assert.Equal(t, user.Code, active.Code)

	status, _ = env.do(t, http.MethodPost, "/api/users", "ADM1", fiber.Map{"role": "player", "full_name": "Дубль", "code": "PLY3"})
	assert.Equal(t, http.StatusConflict, status)

	status, body = env.do(t, http.MethodPost, "/api/users", "ADM1", fiber.Map{"role": "coach", "full_name": "x"})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "oneof", body.Errors["Role"])

	status, _ = env.do(t, http.MethodGet, "/api/users/code/PLY3", "TRN2", nil)
	assert.Equal(t, http.StatusOK, status)

	status, body = env.do(t, http.MethodGet, "/api/users/generate-code?role=trainer", "ADM1", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body.Data), `"TRN`)

	status, _ = env.do(t, http.MethodDelete, "/api/users/"+itoa(user.ID), "ADM1", nil)
	assert.Equal(t, http.StatusOK, status)
	status, _ = env.do(t, http.MethodGet, "/api/users/"+itoa(user.ID), "ADM1", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestAttendanceAndReport(t *testing.T) {
	env := newTestEnv(t)

	status, body := env.do(t, http.MethodPost, "/api/attendance", "TRN2", fiber.Map{
		"player_id": 3, "date": "2026-10-07", "status": "present",
	})
	require.Equal(t, http.StatusCreated, status, body.Message)
	var record models.AttendanceRecord
	require.NoError(t, json.Unmarshal(body.Data, &record))
	require.NotNil(t, record.TrainerID)
	assert.Equal(t, int64(2), *record.TrainerID)

	status, _ = env.do(t, http.MethodPost, "/api/attendance", "PLY3", fiber.Map{"player_id": 3, "status": "present"})
	assert.Equal(t, http.StatusForbidden, status)

	status, body = env.do(t, http.MethodGet, "/api/attendance/report?month=2026-10", "TRN2", nil)
	require.Equal(t, http.StatusOK, status)
	var report models.MonthlyReport
	require.NoError(t, json.Unmarshal(body.Data, &report))
	assert.Equal(t, models.AttendanceStats{Present: 1, Absent: 1, Total: 2, Rate: 50}, report.Overall)

	status, _ = env.do(t, http.MethodGet, "/api/attendance/report?month=октябрь", "TRN2", nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = env.do(t, http.MethodGet, "/api/attendance/players/3/stats?month=2026-10", "PLY3", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body.Data), `"rate":50`)

	status, _ = env.do(t, http.MethodGet, "/api/attendance/players/3/stats", "STU4", nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, body = env.do(t, http.MethodGet, "/api/attendance/players/3/calendar?month=2026-10", "PLY3", nil)
	require.Equal(t, http.StatusOK, status)
	var calendar struct {
		Days []models.CalendarDay `json:"calendar_days"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &calendar))
	assert.Len(t, calendar.Days, 42)

	// игрок видит только свои записи, даже если просит чужие
	status, body = env.do(t, http.MethodGet, "/api/attendance?player_id=4", "PLY3", nil)
	require.Equal(t, http.StatusOK, status)
	var records []models.AttendanceRecord
	require.NoError(t, json.Unmarshal(body.Data, &records))
	assert.Len(t, records, 2)
}

func TestExcuseFlow(t *testing.T) {
	env := newTestEnv(t)

	status, body := env.do(t, http.MethodPost, "/api/excuses", "PLY3", fiber.Map{"absence_date": "2026-10-06", "reason": "температура"})
	require.Equal(t, http.StatusCreated, status, body.Message)
	var excuse models.ExcuseSubmission
	require.NoError(t, json.Unmarshal(body.Data, &excuse))
	assert.Equal(t, models.ExcusePending, excuse.Status)

	status, _ = env.do(t, http.MethodPost, "/api/excuses", "PLY3", fiber.Map{"absence_date": "2026-10-06", "reason": "ещё раз"})
	assert.Equal(t, http.StatusConflict, status)

	status, _ = env.do(t, http.MethodPost, "/api/excuses", "PLY3", fiber.Map{"player_id": 4, "absence_date": "2026-10-06", "reason": "за друга"})
	assert.Equal(t, http.StatusForbidden, status)

	reviewPath := "/api/excuses/" + itoa(excuse.ID) + "/review"
	status, _ = env.do(t, http.MethodPost, reviewPath, "PLY3", fiber.Map{"decision": "approved"})
	assert.Equal(t, http.StatusForbidden, status)

	status, body = env.do(t, http.MethodPost, reviewPath, "TRN2", fiber.Map{"decision": "approved", "response": "выздоравливай"})
	require.Equal(t, http.StatusOK, status, body.Message)
	var result models.ReviewResult
	require.NoError(t, json.Unmarshal(body.Data, &result))
	assert.True(t, result.AttendanceUpdated)
	assert.Equal(t, models.AttendanceExcused, env.attendance.Records[1].Status)
	assert.Len(t, env.notifications.All(), 2)

	status, _ = env.do(t, http.MethodPost, reviewPath, "TRN2", fiber.Map{"decision": "rejected"})
	assert.Equal(t, http.StatusConflict, status)

	status, _ = env.do(t, http.MethodGet, "/api/excuses/"+itoa(excuse.ID), "STU4", nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, body = env.do(t, http.MethodGet, "/api/notifications", "PLY3", nil)
	require.Equal(t, http.StatusOK, status)
	var list []models.Notification
	require.NoError(t, json.Unmarshal(body.Data, &list))
	assert.Len(t, list, 2)
}

func TestMaintenanceMode(t *testing.T) {
	env := newTestEnv(t)

	status, _ := env.do(t, http.MethodPut, "/api/settings/maintenance_mode", "ADM1", fiber.Map{"value": "true"})
	require.Equal(t, http.StatusOK, status)
	status, _ = env.do(t, http.MethodPut, "/api/settings/maintenance_message", "ADM1", fiber.Map{"value": "Вернёмся в 18:00"})
	require.Equal(t, http.StatusOK, status)

	status, body := env.do(t, http.MethodGet, "/api/attendance", "PLY3", nil)
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, "Вернёмся в 18:00", body.Message)
	assert.Equal(t, "MAINTENANCE", body.ErrorCode)

	status, _ = env.do(t, http.MethodGet, "/api/dashboard", "TRN2", nil)
	assert.Equal(t, http.StatusServiceUnavailable, status)

	status, body = env.do(t, http.MethodGet, "/api/dashboard", "ADM1", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body.Data), `"maintenance_mode":true`)

	status, body = env.do(t, http.MethodGet, "/api/settings/maintenance", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"enabled":true,"message":"Вернёмся в 18:00"}`, string(body.Data))
}

func TestSettings(t *testing.T) {
	env := newTestEnv(t)

	status, body := env.do(t, http.MethodGet, "/api/settings", "ADM1", nil)
	require.Equal(t, http.StatusOK, status)
	assert.NotContains(t, string(body.Data), models.SettingAdminCode)

	status, _ = env.do(t, http.MethodGet, "/api/settings", "TRN2", nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = env.do(t, http.MethodPut, "/api/settings/admin_code", "ADM1", fiber.Map{"value": "1234"})
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = env.do(t, http.MethodPut, "/api/settings/maintenance_mode", "ADM1", fiber.Map{"value": "maybe"})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = env.do(t, http.MethodPut, "/api/settings/admin-code", "ADM1", fiber.Map{"code": "new-secret"})
	require.Equal(t, http.StatusOK, status)

	status, _ = env.do(t, http.MethodPost, "/api/auth/login", "", fiber.Map{"code": "ADM1", "admin_code": "new-secret"})
	assert.Equal(t, http.StatusOK, status)
}

func TestSettings_KeysFromPathSurviveLaterRequests(t *testing.T) {
	env := newTestEnv(t)

	updates := map[string]string{
		models.SettingMaintenanceMessage: "Вернёмся в 18:00",
		"academy_name":                   "Spectrum",
		"season":                         "2026/2027",
	}
	for key, value := range updates {
		status, body := env.do(t, http.MethodPut, "/api/settings/"+key, "ADM1", fiber.Map{"value": value})
		require.Equal(t, http.StatusOK, status, body.Message)
	}
	// ещё несколько запросов, чтобы буферы fasthttp переиспользовались
	for i := 0; i < 3; i++ {
		status, _ := env.do(t, http.MethodGet, "/api/attendance", "TRN2", nil)
		require.Equal(t, http.StatusOK, status)
	}

	status, body := env.do(t, http.MethodGet, "/api/settings", "ADM1", nil)
	require.Equal(t, http.StatusOK, status)
	var settings map[string]string
	require.NoError(t, json.Unmarshal(body.Data, &settings))

	expected := map[string]string{models.SettingMaintenanceMode: "false"}
	for key, value := range updates {
		expected[key] = value
	}
	assert.Equal(t, expected, settings)

	for key, value := range updates {
		assert.Equal(t, value, env.settings.Values[key], key)
	}
}

func TestSendNotificationFunction(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodPost, "/functions/v1/send-notification", bytes.NewBufferString(
		`{"phone":"+79990001122","message":"Тренировка отменена","title":"Внимание","type":"general","user_id":3}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+env.tokens["TRN2"])

	resp, err := env.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"success":true}`, string(raw))

	sent := env.notifications.All()
	require.Len(t, sent, 1)
	assert.Equal(t, "+79990001122", sent[0].Phone)
	assert.Equal(t, "Внимание", sent[0].Title)
}

func TestRequestIDHeader(t *testing.T) {
	env := newTestEnv(t)

	resp, err := env.app.Test(httptest.NewRequest(http.MethodGet, "/health", nil), -1)
	require.NoError(t, err)
	assert.Len(t, resp.Header.Get(fiber.HeaderXRequestID), 36)
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
