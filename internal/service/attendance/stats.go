package attendance_service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"spectrum-academy/internal/models"
	"spectrum-academy/internal/repository"
	"spectrum-academy/internal/service"
)

const calendarDays = 42

// ComputeStats сводит записи в счётчики и процент посещаемости
func ComputeStats(records []models.AttendanceRecord) models.AttendanceStats {
	var stats models.AttendanceStats
	for _, r := range records {
		switch r.Status {
		case models.AttendancePresent:
			stats.Present++
		case models.AttendanceAbsent:
			stats.Absent++
		case models.AttendanceExcused:
			stats.Excused++
		}
	}
	stats.Total = stats.Present + stats.Absent + stats.Excused
	stats.Rate = Rate(stats.Present, stats.Total)
	return stats
}

// Rate = round(present/total*100), 0 при пустом знаменателе
func Rate(present, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(present) * 100 / float64(total)))
}

func (s *attendanceService) monthRecords(ctx context.Context, month time.Time, playerID int64) ([]models.AttendanceRecord, error) {
	from, to := models.MonthRange(month)
	records, err := s.attendanceRepo.List(ctx, models.AttendanceFilter{PlayerID: playerID, From: from, To: to})
	if err != nil {
		return nil, fmt.Errorf("ошибка получения посещаемости за %s: %w", from.Format("2006-01"), err)
	}
	return records, nil
}

// MonthlyStats группирует записи месяца по игрокам в памяти
func (s *attendanceService) MonthlyStats(ctx context.Context, month time.Time, playerIDs []int64) (map[int64]models.AttendanceStats, error) {
	records, err := s.monthRecords(ctx, month, 0)
	if err != nil {
		return nil, err
	}

	byPlayer := make(map[int64][]models.AttendanceRecord, len(playerIDs))
	for _, id := range playerIDs {
		byPlayer[id] = nil
	}
	for _, r := range records {
		if _, ok := byPlayer[r.PlayerID]; ok {
			byPlayer[r.PlayerID] = append(byPlayer[r.PlayerID], r)
		}
	}

	result := make(map[int64]models.AttendanceStats, len(byPlayer))
	for id, rs := range byPlayer {
		result[id] = ComputeStats(rs)
	}
	return result, nil
}

func (s *attendanceService) PlayerMonthStats(ctx context.Context, playerID int64, month time.Time) (*models.PlayerMonthStats, error) {
	player, err := s.userRepo.GetByID(ctx, playerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, service.ErrNotFound
		}
		return nil, err
	}

	records, err := s.monthRecords(ctx, month, playerID)
	if err != nil {
		return nil, err
	}

	return &models.PlayerMonthStats{
		PlayerID:        player.ID,
		PlayerName:      player.FullName,
		Code:            player.Code,
		AttendanceStats: ComputeStats(records),
	}, nil
}

// MonthlyReport считает статистику за месяц по всем активным игрокам и ученикам
func (s *attendanceService) MonthlyReport(ctx context.Context, month time.Time) (*models.MonthlyReport, error) {
	users, err := s.userRepo.List(ctx, models.UserFilter{Status: models.StatusActive})
	if err != nil {
		return nil, fmt.Errorf("ошибка получения игроков: %w", err)
	}

	var (
		players []*models.User
		ids     []int64
	)
	for _, u := range users {
		if u.IsAttendee() {
			players = append(players, u)
			ids = append(ids, u.ID)
		}
	}

	stats, err := s.MonthlyStats(ctx, month, ids)
	if err != nil {
		return nil, err
	}

	from, _ := models.MonthRange(month)
	report := &models.MonthlyReport{
		Month:   from.Format("2006-01"),
		Players: make([]models.PlayerMonthStats, 0, len(players)),
	}
	for _, p := range players {
		st := stats[p.ID]
		report.Players = append(report.Players, models.PlayerMonthStats{
			PlayerID:        p.ID,
			PlayerName:      p.FullName,
			Code:            p.Code,
			AttendanceStats: st,
		})
		report.Overall.Present += st.Present
		report.Overall.Absent += st.Absent
		report.Overall.Excused += st.Excused
	}
	report.Overall.Total = report.Overall.Present + report.Overall.Absent + report.Overall.Excused
	report.Overall.Rate = Rate(report.Overall.Present, report.Overall.Total)
	return report, nil
}

// MonthCalendar строит сетку 6x7 начиная с понедельника недели, содержащей первое число
func (s *attendanceService) MonthCalendar(ctx context.Context, playerID int64, month time.Time) ([]models.CalendarDay, error) {
	records, err := s.monthRecords(ctx, month, playerID)
	if err != nil {
		return nil, err
	}

	byDate := make(map[string]models.AttendanceRecord, len(records))
	for _, r := range records {
		byDate[r.Date.Format(models.DateLayout)] = r
	}

	firstDay, _ := models.MonthRange(month)
	weekday := int(firstDay.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	startDay := firstDay.AddDate(0, 0, -(weekday - 1))
	today := models.Day(s.now()).Format(models.DateLayout)

	days := make([]models.CalendarDay, 0, calendarDays)
	for i := 0; i < calendarDays; i++ {
		day := startDay.AddDate(0, 0, i)
		key := day.Format(models.DateLayout)

		dayData := models.CalendarDay{
			Date:         key,
			IsToday:      key == today,
			IsOtherMonth: day.Month() != firstDay.Month(),
		}
		if r, ok := byDate[key]; ok {
			dayData.Status = r.Status
			dayData.Notes = r.Notes
		}
		days = append(days, dayData)
	}
	return days, nil
}

func (s *attendanceService) DayStats(ctx context.Context, day time.Time) (models.AttendanceStats, error) {
	from := models.Day(day)
	records, err := s.attendanceRepo.List(ctx, models.AttendanceFilter{From: from, To: from.AddDate(0, 0, 1)})
	if err != nil {
		return models.AttendanceStats{}, err
	}
	return ComputeStats(records), nil
}
