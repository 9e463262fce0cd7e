package web

import (
	"fmt"
	"strings"
	"time"

	"spectrum-academy/internal/models"
	"spectrum-academy/internal/service"
)

type loginRequest struct {
	Code      string `json:"code" validate:"required,max=64"`
	AdminCode string `json:"admin_code" validate:"max=128"`
}

type loginResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

type userRequest struct {
	Code              string   `json:"code" validate:"omitempty,max=64"`
	Role              string   `json:"role" validate:"required,oneof=student player trainer admin employee"`
	Status            string   `json:"status" validate:"omitempty,oneof=active suspended inactive"`
	FullName          string   `json:"full_name" validate:"required,max=200"`
	Phone             string   `json:"phone" validate:"omitempty,max=32"`
	TrainerID         *int64   `json:"trainer_id" validate:"omitempty,gt=0"`
	SubscriptionStart *string  `json:"subscription_start" validate:"omitempty,datetime=2006-01-02"`
	SubscriptionEnd   *string  `json:"subscription_end" validate:"omitempty,datetime=2006-01-02"`
	Salary            *float64 `json:"salary" validate:"omitempty,gte=0"`
}

func (r userRequest) toModel() (*models.User, error) {
	start, err := parseOptionalDate(r.SubscriptionStart)
	if err != nil {
		return nil, err
	}
	end, err := parseOptionalDate(r.SubscriptionEnd)
	if err != nil {
		return nil, err
	}
	return &models.User{
		Code:              strings.TrimSpace(r.Code),
		Role:              r.Role,
		Status:            r.Status,
		FullName:          strings.TrimSpace(r.FullName),
		Phone:             strings.TrimSpace(r.Phone),
		TrainerID:         r.TrainerID,
		SubscriptionStart: start,
		SubscriptionEnd:   end,
		Salary:            r.Salary,
	}, nil
}

type statusRequest struct {
	Status string `json:"status" validate:"required,oneof=active suspended inactive"`
}

type attendanceRequest struct {
	PlayerID  int64  `json:"player_id" validate:"required,gt=0"`
	TrainerID *int64 `json:"trainer_id" validate:"omitempty,gt=0"`
	Date      string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Status    string `json:"status" validate:"required,oneof=present absent excused"`
	Notes     string `json:"notes" validate:"max=500"`
}

func (r attendanceRequest) toModel() (*models.AttendanceRecord, error) {
	record := &models.AttendanceRecord{
		PlayerID:  r.PlayerID,
		TrainerID: r.TrainerID,
		Status:    r.Status,
		Notes:     strings.TrimSpace(r.Notes),
	}
	if r.Date != "" {
		d, err := time.Parse(models.DateLayout, r.Date)
		if err != nil {
			return nil, fmt.Errorf("%w: bad date", service.ErrInvalidInput)
		}
		record.Date = d
	}
	return record, nil
}

type attendanceUpdateRequest struct {
	TrainerID *int64 `json:"trainer_id" validate:"omitempty,gt=0"`
	Status    string `json:"status" validate:"required,oneof=present absent excused"`
	Notes     string `json:"notes" validate:"max=500"`
}

type excuseRequest struct {
	// игрок отправляет за себя, тренер и админ могут указать игрока
	PlayerID    int64  `json:"player_id" validate:"omitempty,gt=0"`
	AbsenceDate string `json:"absence_date" validate:"required,datetime=2006-01-02"`
	Reason      string `json:"reason" validate:"required,max=1000"`
}

type reviewRequest struct {
	Decision string `json:"decision" validate:"required,oneof=approved rejected"`
	Response string `json:"response" validate:"max=1000"`
}

type settingRequest struct {
	Value string `json:"value" validate:"max=2000"`
}

type adminCodeRequest struct {
	Code string `json:"code" validate:"required,min=4,max=128"`
}

type sendNotificationRequest struct {
	Phone   string `json:"phone" validate:"omitempty,max=32"`
	Message string `json:"message" validate:"required,max=2000"`
	Title   string `json:"title" validate:"max=200"`
	Type    string `json:"type" validate:"max=64"`
	UserID  *int64 `json:"user_id" validate:"omitempty,gt=0"`
}

func parseOptionalDate(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	d, err := time.Parse(models.DateLayout, *s)
	if err != nil {
		return nil, fmt.Errorf("%w: bad date %q", service.ErrInvalidInput, *s)
	}
	return &d, nil
}
