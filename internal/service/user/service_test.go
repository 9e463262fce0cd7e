package user_service

import (
	"context"
	"testing"
	"time"

	"spectrum-academy/internal/models"
	"spectrum-academy/internal/repository/repotest"
	"spectrum-academy/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(repo *repotest.UserRepo, digits ...string) *userService {
	s := NewUserService(repo).(*userService)
	if len(digits) > 0 {
		i := 0
		s.digits = func() string {
			d := digits[i%len(digits)]
			i++
			return d
		}
	}
	return s
}

func TestGenerateCode_PrefixPerRole(t *testing.T) {
	s := newTestService(repotest.NewUserRepo(), "123456")

	tests := map[string]string{
		models.RoleStudent:  "STU123456",
		models.RolePlayer:   "PLY123456",
		models.RoleTrainer:  "TRN123456",
		models.RoleAdmin:    "ADM123456",
		models.RoleEmployee: "EMP123456",
	}
	for role, want := range tests {
		code, err := s.GenerateCode(context.Background(), role)
		require.NoError(t, err)
		assert.Equal(t, want, code, role)
	}
}

func TestGenerateCode_RetriesOnCollision(t *testing.T) {
	repo := repotest.NewUserRepo(&models.User{Code: "PLY000001", Role: models.RolePlayer, Status: models.StatusActive})
	s := newTestService(repo, "000001", "000002")

	code, err := s.GenerateCode(context.Background(), models.RolePlayer)
	require.NoError(t, err)
	assert.Equal(t, "PLY000002", code)
}

func TestGenerateCode_GivesUpAfterMaxAttempts(t *testing.T) {
	repo := repotest.NewUserRepo(&models.User{Code: "PLY000001", Role: models.RolePlayer, Status: models.StatusActive})
	s := newTestService(repo, "000001")

	_, err := s.GenerateCode(context.Background(), models.RolePlayer)
	assert.Error(t, err)
}

func TestGenerateCode_InvalidRole(t *testing.T) {
	s := newTestService(repotest.NewUserRepo())

	_, err := s.GenerateCode(context.Background(), "coach")
	assert.ErrorIs(t, err, service.ErrInvalidRole)
}

func TestDefaultRandomDigits(t *testing.T) {
	for i := 0; i < 20; i++ {
		assert.Len(t, randomDigits(), 6)
	}
}

func TestCreate_GeneratesCodeAndDefaultsStatus(t *testing.T) {
	s := newTestService(repotest.NewUserRepo(), "555555")

	user, err := s.Create(context.Background(), &models.User{Role: models.RoleTrainer, FullName: "Иван Петров"})
	require.NoError(t, err)

	assert.NotZero(t, user.ID)
	assert.Equal(t, "TRN555555", user.Code)
	assert.Equal(t, models.StatusActive, user.Status)
}

func TestCreate_RejectsDuplicateCode(t *testing.T) {
	repo := repotest.NewUserRepo(&models.User{Code: "PLY1", Role: models.RolePlayer, Status: models.StatusActive})
	s := newTestService(repo)

	_, err := s.Create(context.Background(), &models.User{Code: "PLY1", Role: models.RolePlayer})
	assert.ErrorIs(t, err, service.ErrCodeTaken)
}

func TestCodes_NormalizedToUpperCase(t *testing.T) {
	repo := repotest.NewUserRepo(&models.User{ID: 1, Code: "PLY1", Role: models.RolePlayer, Status: models.StatusActive})
	s := newTestService(repo)
	ctx := context.Background()

	created, err := s.Create(ctx, &models.User{Code: " Coach7 ", Role: models.RolePlayer})
	require.NoError(t, err)
	assert.Equal(t, "COACH7", created.Code)

	_, err = s.Create(ctx, &models.User{Code: "ply1", Role: models.RolePlayer})
	assert.ErrorIs(t, err, service.ErrCodeTaken)

	found, err := s.GetByCode(ctx, "coach7")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)

	updated, err := s.Update(ctx, &models.User{ID: created.ID, Code: "coach8", Role: models.RolePlayer})
	require.NoError(t, err)
	assert.Equal(t, "COACH8", updated.Code)
	assert.Equal(t, "COACH8", repo.Users[created.ID].Code)
}

func TestCreate_SuspendedUserGetsSuffix(t *testing.T) {
	s := newTestService(repotest.NewUserRepo())

	user, err := s.Create(context.Background(), &models.User{Code: "PLY9", Role: models.RolePlayer, Status: models.StatusSuspended})
	require.NoError(t, err)
	assert.Equal(t, "PLY9"+models.DeactivatedSuffix, user.Code)
}

func TestCreate_Validation(t *testing.T) {
	s := newTestService(repotest.NewUserRepo())
	ctx := context.Background()

	_, err := s.Create(ctx, &models.User{Role: "coach"})
	assert.ErrorIs(t, err, service.ErrInvalidRole)

	_, err = s.Create(ctx, &models.User{Role: models.RolePlayer, Status: "banned"})
	assert.ErrorIs(t, err, service.ErrInvalidStatus)

	start := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, -1)
	_, err = s.Create(ctx, &models.User{Role: models.RolePlayer, SubscriptionStart: &start, SubscriptionEnd: &end})
	assert.ErrorIs(t, err, service.ErrInvalidInput)

	salary := -10.0
	_, err = s.Create(ctx, &models.User{Role: models.RoleEmployee, Salary: &salary})
	assert.ErrorIs(t, err, service.ErrInvalidInput)

	trainerID := int64(1)
	_, err = s.Create(ctx, &models.User{Role: models.RoleTrainer, TrainerID: &trainerID})
	assert.ErrorIs(t, err, service.ErrInvalidInput)

	_, err = s.Create(ctx, &models.User{Role: models.RolePlayer, Code: "X" + models.DeactivatedSuffix})
	assert.ErrorIs(t, err, service.ErrInvalidInput)
}

func TestChangeStatus_SuspendAndReactivateRestoresCode(t *testing.T) {
	repo := repotest.NewUserRepo(&models.User{ID: 7, Code: "PLY482913", Role: models.RolePlayer, Status: models.StatusActive})
	s := newTestService(repo)
	ctx := context.Background()

	suspended, err := s.ChangeStatus(ctx, 7, models.StatusSuspended)
	require.NoError(t, err)
	assert.Equal(t, "PLY482913"+models.DeactivatedSuffix, suspended.Code)
	assert.Equal(t, models.StatusSuspended, suspended.Status)

	// повторная деактивация не дублирует суффикс
	inactive, err := s.ChangeStatus(ctx, 7, models.StatusInactive)
	require.NoError(t, err)
	assert.Equal(t, "PLY482913"+models.DeactivatedSuffix, inactive.Code)

	active, err := s.ChangeStatus(ctx, 7, models.StatusActive)
	require.NoError(t, err)
	assert.Equal(t, "PLY482913", active.Code)

	stored, err := s.GetByID(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, "PLY482913", stored.Code)
	assert.Equal(t, models.StatusActive, stored.Status)
}

func TestChangeStatus_ReactivationConflict(t *testing.T) {
	repo := repotest.NewUserRepo(
		&models.User{ID: 1, Code: "PLY1" + models.DeactivatedSuffix, Role: models.RolePlayer, Status: models.StatusSuspended},
		&models.User{ID: 2, Code: "PLY1", Role: models.RolePlayer, Status: models.StatusActive},
	)
	s := newTestService(repo)

	_, err := s.ChangeStatus(context.Background(), 1, models.StatusActive)
	assert.ErrorIs(t, err, service.ErrCodeTaken)
}

func TestChangeStatus_Errors(t *testing.T) {
	s := newTestService(repotest.NewUserRepo())

	_, err := s.ChangeStatus(context.Background(), 1, "deleted")
	assert.ErrorIs(t, err, service.ErrInvalidStatus)

	_, err = s.ChangeStatus(context.Background(), 1, models.StatusActive)
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestUpdate_KeepsStatusAndSuffix(t *testing.T) {
	repo := repotest.NewUserRepo(&models.User{ID: 3, Code: "STU1" + models.DeactivatedSuffix, Role: models.RoleStudent, Status: models.StatusInactive})
	s := newTestService(repo)

	updated, err := s.Update(context.Background(), &models.User{ID: 3, Code: "STU2", Role: models.RoleStudent, FullName: "Анна", Status: models.StatusActive})
	require.NoError(t, err)

	assert.Equal(t, "STU2"+models.DeactivatedSuffix, updated.Code)
	assert.Equal(t, models.StatusInactive, updated.Status)
	assert.Equal(t, "Анна", repo.Users[3].FullName)
}

func TestUpdate_NotFound(t *testing.T) {
	s := newTestService(repotest.NewUserRepo())

	_, err := s.Update(context.Background(), &models.User{ID: 99, Role: models.RolePlayer})
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestListAttendees_OnlyActivePlayersAndStudents(t *testing.T) {
	repo := repotest.NewUserRepo(
		&models.User{Code: "a", Role: models.RolePlayer, Status: models.StatusActive},
		&models.User{Code: "b", Role: models.RoleStudent, Status: models.StatusActive},
		&models.User{Code: "c", Role: models.RolePlayer, Status: models.StatusSuspended},
		&models.User{Code: "d", Role: models.RoleTrainer, Status: models.StatusActive},
	)
	s := newTestService(repo)

	attendees, err := s.ListAttendees(context.Background())
	require.NoError(t, err)

	var codes []string
	for _, u := range attendees {
		codes = append(codes, u.Code)
	}
	assert.ElementsMatch(t, []string{"a", "b"}, codes)
}

func TestExpiringSubscriptions(t *testing.T) {
	day := func(d int) *time.Time {
		v := time.Date(2026, 10, d, 0, 0, 0, 0, time.UTC)
		return &v
	}
	repo := repotest.NewUserRepo(
		&models.User{Code: "soon", Role: models.RolePlayer, Status: models.StatusActive, SubscriptionEnd: day(20)},
		&models.User{Code: "later", Role: models.RolePlayer, Status: models.StatusActive, SubscriptionEnd: day(30)},
		&models.User{Code: "past", Role: models.RolePlayer, Status: models.StatusActive, SubscriptionEnd: day(10)},
	)
	s := newTestService(repo)
	s.now = func() time.Time { return time.Date(2026, 10, 18, 15, 0, 0, 0, time.UTC) }

	users, err := s.ExpiringSubscriptions(context.Background(), 7*24*time.Hour)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "soon", users[0].Code)
}

func TestDelete(t *testing.T) {
	repo := repotest.NewUserRepo(&models.User{ID: 1, Code: "x", Role: models.RolePlayer, Status: models.StatusActive})
	s := newTestService(repo)

	require.NoError(t, s.Delete(context.Background(), 1))
	assert.ErrorIs(t, s.Delete(context.Background(), 1), service.ErrNotFound)
}
