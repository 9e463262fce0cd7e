package models

import "time"

const (
	NotificationExcuseApproved = "excuse_approved"
	NotificationExcuseRejected = "excuse_rejected"
	NotificationGeneral        = "general"
)

type Notification struct {
	ID        int64     `db:"id" json:"id"`
	UserID    *int64    `db:"user_id" json:"user_id,omitempty"`
	Title     string    `db:"title" json:"title"`
	Message   string    `db:"message" json:"message"`
	Type      string    `db:"type" json:"type"`
	Phone     string    `db:"phone" json:"phone"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
