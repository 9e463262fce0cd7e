package notification_service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"spectrum-academy/internal/models"
	"spectrum-academy/internal/repository/repotest"
	"spectrum-academy/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type fakeDeliverer struct {
	mu   sync.Mutex
	sent map[int64][]string
	err  error
}

func (d *fakeDeliverer) Deliver(ctx context.Context, chatID int64, text string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	if d.sent == nil {
		d.sent = make(map[int64][]string)
	}
	d.sent[chatID] = append(d.sent[chatID], text)
	return nil
}

func int64Ptr(v int64) *int64 { return &v }

func newTestService(t *testing.T) (service.NotificationService, *repotest.NotificationRepo, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zap.InfoLevel)
	repo := repotest.NewNotificationRepo()
	users := repotest.NewUserRepo(
		&models.User{ID: 1, Code: "PLY1", Role: models.RolePlayer, Status: models.StatusActive, TelegramID: int64Ptr(1001)},
		&models.User{ID: 2, Code: "PLY2", Role: models.RolePlayer, Status: models.StatusActive},
	)
	return NewNotificationService(repo, users, zap.New(core)), repo, logs
}

func TestNotify_InsertsRowWithDefaults(t *testing.T) {
	s, repo, _ := newTestService(t)

	n := &models.Notification{UserID: int64Ptr(2), Message: "  Тренировка перенесена  "}
	require.NoError(t, s.Notify(context.Background(), n))

	all := repo.All()
	require.Len(t, all, 1)
	assert.Equal(t, "Тренировка перенесена", all[0].Message)
	assert.Equal(t, defaultTitle, all[0].Title)
	assert.Equal(t, models.NotificationGeneral, all[0].Type)
	assert.NotZero(t, all[0].ID)
}

func TestNotify_RejectsEmptyMessage(t *testing.T) {
	s, repo, _ := newTestService(t)

	err := s.Notify(context.Background(), &models.Notification{Message: "   "})
	assert.ErrorIs(t, err, service.ErrInvalidInput)
	assert.Empty(t, repo.All())
}

func TestNotify_LogsSMSIntent(t *testing.T) {
	s, _, logs := newTestService(t)

	require.NoError(t, s.Notify(context.Background(), &models.Notification{Phone: "+79990001122", Message: "hi"}))

	entries := logs.FilterField(zap.String("phone", "+79990001122")).All()
	assert.Len(t, entries, 1)
}

func TestNotify_PushesToLinkedChat(t *testing.T) {
	s, _, _ := newTestService(t)
	d := &fakeDeliverer{}
	s.SetDeliverer(d)
	ctx := context.Background()

	require.NoError(t, s.Notify(ctx, &models.Notification{UserID: int64Ptr(1), Title: "Пропуск", Message: "одобрен"}))
	require.NoError(t, s.Notify(ctx, &models.Notification{UserID: int64Ptr(2), Message: "без чата"}))
	require.NoError(t, s.Notify(ctx, &models.Notification{UserID: int64Ptr(1), Phone: "+7", Message: "sms-копия"}))

	assert.Equal(t, map[int64][]string{1001: {"🔔 Пропуск\n\nодобрен"}}, d.sent)
}

func TestNotify_DeliveryFailureIsNotAnError(t *testing.T) {
	s, repo, _ := newTestService(t)
	s.SetDeliverer(&fakeDeliverer{err: errors.New("telegram unavailable")})

	require.NoError(t, s.Notify(context.Background(), &models.Notification{UserID: int64Ptr(1), Message: "hi"}))
	assert.Len(t, repo.All(), 1)
}

func TestNotify_RepositoryError(t *testing.T) {
	s, repo, _ := newTestService(t)
	repo.Err = errors.New("insert failed")

	assert.Error(t, s.Notify(context.Background(), &models.Notification{Message: "hi"}))
}

func TestListForUser(t *testing.T) {
	s, _, _ := newTestService(t)
	ctx := context.Background()

	for _, msg := range []string{"first", "second", "third"} {
		require.NoError(t, s.Notify(ctx, &models.Notification{UserID: int64Ptr(2), Message: msg}))
	}
	require.NoError(t, s.Notify(ctx, &models.Notification{UserID: int64Ptr(1), Message: "other"}))

	list, err := s.ListForUser(ctx, 2, 2)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "third", list[0].Message)
	assert.Equal(t, "second", list[1].Message)
}
