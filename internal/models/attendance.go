package models

import "time"

const (
	AttendancePresent = "present"
	AttendanceAbsent  = "absent"
	AttendanceExcused = "excused"
)

const DateLayout = "2006-01-02"

type AttendanceRecord struct {
	ID        int64     `db:"id" json:"id"`
	PlayerID  int64     `db:"player_id" json:"player_id"`
	TrainerID *int64    `db:"trainer_id" json:"trainer_id,omitempty"`
	Date      time.Time `db:"date" json:"date"`
	Status    string    `db:"status" json:"status"`
	Notes     string    `db:"notes" json:"notes"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

type AttendanceFilter struct {
	PlayerID  int64
	TrainerID int64
	Status    string
	From      time.Time
	To        time.Time // не включительно
}

func IsValidAttendanceStatus(status string) bool {
	return status == AttendancePresent || status == AttendanceAbsent || status == AttendanceExcused
}

// Day обрезает время до календарного дня в UTC
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// MonthRange возвращает [начало месяца, начало следующего месяца)
func MonthRange(month time.Time) (time.Time, time.Time) {
	start := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}
