package notification

import (
	"context"

	"spectrum-academy/internal/models"
	"spectrum-academy/internal/repository"

	"github.com/jmoiron/sqlx"
)

type notificationRepository struct {
	db *sqlx.DB
}

func NewNotificationRepository(db *sqlx.DB) repository.NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, n *models.Notification) error {
	query := `
		INSERT INTO academy.notifications (user_id, title, message, type, phone)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	return r.db.QueryRowxContext(ctx, query,
		n.UserID,
		n.Title,
		n.Message,
		n.Type,
		n.Phone,
	).Scan(&n.ID, &n.CreatedAt)
}

func (r *notificationRepository) ListByUser(ctx context.Context, userID int64, limit int) ([]models.Notification, error) {
	query := `
		SELECT id, user_id, title, message, type, phone, created_at
		FROM academy.notifications
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	var notifications []models.Notification
	if err := r.db.SelectContext(ctx, &notifications, query, userID, limit); err != nil {
		return nil, err
	}
	return notifications, nil
}
