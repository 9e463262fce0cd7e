package models

import (
	"strings"
	"time"
)

// Роли пользователей
const (
	RoleStudent  = "student"
	RolePlayer   = "player"
	RoleTrainer  = "trainer"
	RoleAdmin    = "admin"
	RoleEmployee = "employee"
)

// Статусы пользователей
const (
	StatusActive    = "active"
	StatusSuspended = "suspended"
	StatusInactive  = "inactive"
)

// DeactivatedSuffix дописывается к коду приостановленного или неактивного пользователя
const DeactivatedSuffix = "_DEACTIVATED"

var Roles = []string{RoleStudent, RolePlayer, RoleTrainer, RoleAdmin, RoleEmployee}

type User struct {
	ID                int64      `db:"id" json:"id"`
	Code              string     `db:"code" json:"code"`
	Role              string     `db:"role" json:"role"`
	Status            string     `db:"status" json:"status"`
	FullName          string     `db:"full_name" json:"full_name"`
	Phone             string     `db:"phone" json:"phone"`
	TelegramID        *int64     `db:"telegram_id" json:"telegram_id,omitempty"`
	TrainerID         *int64     `db:"trainer_id" json:"trainer_id,omitempty"`
	SubscriptionStart *time.Time `db:"subscription_start" json:"subscription_start,omitempty"`
	SubscriptionEnd   *time.Time `db:"subscription_end" json:"subscription_end,omitempty"`
	Salary            *float64   `db:"salary" json:"salary,omitempty"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time  `db:"updated_at" json:"updated_at"`
}

func (u *User) IsActive() bool {
	return u.Status == StatusActive
}

// IsStaff: тренеры и администраторы, которым доступны заявки на пропуск
func (u *User) IsStaff() bool {
	return u.Role == RoleTrainer || u.Role == RoleAdmin
}

// IsAttendee: те, по кому ведётся посещаемость
func (u *User) IsAttendee() bool {
	return u.Role == RolePlayer || u.Role == RoleStudent
}

func IsValidRole(role string) bool {
	for _, r := range Roles {
		if r == role {
			return true
		}
	}
	return false
}

func IsValidStatus(status string) bool {
	return status == StatusActive || status == StatusSuspended || status == StatusInactive
}

// NormalizeCode приводит код входа к единому виду: без пробелов по краям, в верхнем регистре
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// DeactivateCode добавляет суффикс деактивации, не дублируя его
func DeactivateCode(code string) string {
	if strings.HasSuffix(code, DeactivatedSuffix) {
		return code
	}
	return code + DeactivatedSuffix
}

// ReactivateCode снимает суффикс деактивации и возвращает исходный код
func ReactivateCode(code string) string {
	return strings.TrimSuffix(code, DeactivatedSuffix)
}

type UserFilter struct {
	Role   string
	Status string
}
