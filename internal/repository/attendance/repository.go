package attendance

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"spectrum-academy/internal/models"
	"spectrum-academy/internal/repository"

	"github.com/jmoiron/sqlx"
)

type attendanceRepository struct {
	db *sqlx.DB
}

func NewAttendanceRepository(db *sqlx.DB) repository.AttendanceRepository {
	return &attendanceRepository{db: db}
}

const attendanceColumns = `id, player_id, trainer_id, date, status, notes, created_at, updated_at`

func (r *attendanceRepository) Upsert(ctx context.Context, record *models.AttendanceRecord) error {
	query := `
		INSERT INTO academy.attendance (player_id, trainer_id, date, status, notes)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (player_id, date)
		DO UPDATE SET
			trainer_id = EXCLUDED.trainer_id,
			status = EXCLUDED.status,
			notes = EXCLUDED.notes,
			updated_at = CURRENT_TIMESTAMP
		RETURNING id, created_at, updated_at
	`
	return r.db.QueryRowxContext(ctx, query,
		record.PlayerID,
		record.TrainerID,
		record.Date.Format(models.DateLayout),
		record.Status,
		record.Notes,
	).Scan(&record.ID, &record.CreatedAt, &record.UpdatedAt)
}

func (r *attendanceRepository) GetByID(ctx context.Context, id int64) (*models.AttendanceRecord, error) {
	var record models.AttendanceRecord
	query := `SELECT ` + attendanceColumns + ` FROM academy.attendance WHERE id = $1`
	if err := r.db.GetContext(ctx, &record, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &record, nil
}

func (r *attendanceRepository) GetByPlayerAndDate(ctx context.Context, playerID int64, date time.Time) (*models.AttendanceRecord, error) {
	var record models.AttendanceRecord
	query := `SELECT ` + attendanceColumns + ` FROM academy.attendance WHERE player_id = $1 AND date = $2`
	if err := r.db.GetContext(ctx, &record, query, playerID, date.Format(models.DateLayout)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &record, nil
}

func (r *attendanceRepository) List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceRecord, error) {
	var (
		conditions []string
		args       []interface{}
	)
	add := func(cond string, arg interface{}) {
		args = append(args, arg)
		conditions = append(conditions, fmt.Sprintf(cond, len(args)))
	}

	if filter.PlayerID != 0 {
		add("player_id = $%d", filter.PlayerID)
	}
	if filter.TrainerID != 0 {
		add("trainer_id = $%d", filter.TrainerID)
	}
	if filter.Status != "" {
		add("status = $%d", filter.Status)
	}
	if !filter.From.IsZero() {
		add("date >= $%d", filter.From.Format(models.DateLayout))
	}
	if !filter.To.IsZero() {
		add("date < $%d", filter.To.Format(models.DateLayout))
	}

	query := `SELECT ` + attendanceColumns + ` FROM academy.attendance`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY date DESC, player_id"

	var records []models.AttendanceRecord
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, err
	}
	return records, nil
}

func (r *attendanceRepository) Update(ctx context.Context, record *models.AttendanceRecord) error {
	query := `
		UPDATE academy.attendance
		SET trainer_id = $1, date = $2, status = $3, notes = $4, updated_at = CURRENT_TIMESTAMP
		WHERE id = $5
		RETURNING updated_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		record.TrainerID,
		record.Date.Format(models.DateLayout),
		record.Status,
		record.Notes,
		record.ID,
	).Scan(&record.UpdatedAt)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return repository.ErrNotFound
	case repository.IsUniqueViolation(err):
		return repository.ErrDuplicate
	case err != nil:
		return fmt.Errorf("ошибка обновления посещаемости: %w", err)
	}
	return nil
}

func (r *attendanceRepository) UpdateStatusByPlayerAndDate(ctx context.Context, playerID int64, date time.Time, status string) (int64, error) {
	query := `
		UPDATE academy.attendance
		SET status = $1, updated_at = CURRENT_TIMESTAMP
		WHERE player_id = $2 AND date = $3
	`
	res, err := r.db.ExecContext(ctx, query, status, playerID, date.Format(models.DateLayout))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *attendanceRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM academy.attendance WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}
