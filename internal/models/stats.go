package models

type AttendanceStats struct {
	Present int `json:"present"`
	Absent  int `json:"absent"`
	Excused int `json:"excused"`
	Total   int `json:"total"`
	Rate    int `json:"rate"` // проценты
}

type PlayerMonthStats struct {
	PlayerID   int64  `json:"player_id"`
	PlayerName string `json:"player_name"`
	Code       string `json:"code"`
	AttendanceStats
}

type MonthlyReport struct {
	Month   string             `json:"month"`
	Players []PlayerMonthStats `json:"players"`
	Overall AttendanceStats    `json:"overall"`
}

type CalendarDay struct {
	Date         string `json:"date"`
	IsToday      bool   `json:"is_today"`
	IsOtherMonth bool   `json:"is_other_month"`
	Status       string `json:"status,omitempty"`
	Notes        string `json:"notes,omitempty"`
}

type Dashboard struct {
	UsersByRole     map[string]int `json:"users_by_role"`
	ActivePlayers   int            `json:"active_players"`
	PendingExcuses  int            `json:"pending_excuses"`
	TodayRate       int            `json:"today_rate"`
	ExpiringSoon    int            `json:"expiring_soon"`
	MaintenanceMode bool           `json:"maintenance_mode"`
}
