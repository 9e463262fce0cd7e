package models

import "time"

const (
	ExcusePending  = "pending"
	ExcuseApproved = "approved"
	ExcuseRejected = "rejected"
)

type ExcuseSubmission struct {
	ID              int64      `db:"id" json:"id"`
	PlayerID        int64      `db:"player_id" json:"player_id"`
	AbsenceDate     time.Time  `db:"absence_date" json:"absence_date"`
	Reason          string     `db:"reason" json:"reason"`
	Status          string     `db:"status" json:"status"`
	TrainerResponse string     `db:"trainer_response" json:"trainer_response"`
	ReviewedBy      *int64     `db:"reviewed_by" json:"reviewed_by,omitempty"`
	ReviewedAt      *time.Time `db:"reviewed_at" json:"reviewed_at,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`

	// Joined fields
	PlayerName string `db:"player_name" json:"player_name,omitempty"`
}

type ExcuseFilter struct {
	Status   string
	PlayerID int64
}

// ReviewResult: итог рассмотрения заявки
type ReviewResult struct {
	Excuse *ExcuseSubmission `json:"excuse"`
	// AttendanceUpdated: нашлась ли запись посещаемости по (player_id, date)
	AttendanceUpdated bool `json:"attendance_updated"`
}
