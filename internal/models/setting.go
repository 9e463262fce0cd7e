package models

import "time"

const (
	SettingMaintenanceMode    = "maintenance_mode"
	SettingMaintenanceMessage = "maintenance_message"
	SettingAdminCode          = "admin_code"
)

type Setting struct {
	Key       string    `db:"key" json:"key"`
	Value     string    `db:"value" json:"value"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

type Maintenance struct {
	Enabled bool   `json:"enabled"`
	Message string `json:"message"`
}
