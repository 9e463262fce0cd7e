package excuse

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

type excuseRepository struct {
	db *sqlx.DB
}

func NewExcuseRepository(db *sqlx.DB) repository.ExcuseRepository {
	return &excuseRepository{db: db}
}

const excuseSelect = `
	SELECT
		e.id, e.player_id, e.absence_date, e.reason, e.status, e.trainer_response,
		e.reviewed_by, e.reviewed_at, e.created_at, e.updated_at,
		COALESCE(u.full_name, '') AS player_name
	FROM academy.excuses e
	LEFT JOIN academy.users u ON e.player_id = u.id
`

func (r *excuseRepository) Create(ctx context.Context, excuse *models.ExcuseSubmission) error {
	query := `
		INSERT INTO academy.excuses (player_id, absence_date, reason, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		excuse.PlayerID,
		excuse.AbsenceDate.Format(models.DateLayout),
		excuse.Reason,
		excuse.Status,
	).Scan(&excuse.ID, &excuse.CreatedAt, &excuse.UpdatedAt)
	if repository.IsUniqueViolation(err) {
		return repository.ErrDuplicate
	}
	return err
}

func (r *excuseRepository) getOne(ctx context.Context, where string, args ...interface{}) (*models.ExcuseSubmission, error) {
	var excuse models.ExcuseSubmission
	if err := r.db.GetContext(ctx, &excuse, excuseSelect+" WHERE "+where, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &excuse, nil
}

func (r *excuseRepository) GetByID(ctx context.Context, id int64) (*models.ExcuseSubmission, error) {
	return r.getOne(ctx, "e.id = $1", id)
}

func (r *excuseRepository) GetByPlayerAndDate(ctx context.Context, playerID int64, date time.Time) (*models.ExcuseSubmission, error) {
	return r.getOne(ctx, "e.player_id = $1 AND e.absence_date = $2", playerID, date.Format(models.DateLayout))
}

func (r *excuseRepository) List(ctx context.Context, filter models.ExcuseFilter) ([]models.ExcuseSubmission, error) {
	var (
		conditions []string
		args       []interface{}
	)
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("e.status = $%d", len(args)))
	}
	if filter.PlayerID != 0 {
		args = append(args, filter.PlayerID)
		conditions = append(conditions, fmt.Sprintf("e.player_id = $%d", len(args)))
	}

	query := excuseSelect
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY e.created_at DESC"

	var excuses []models.ExcuseSubmission
	if err := r.db.SelectContext(ctx, &excuses, query, args...); err != nil {
		return nil, err
	}
	return excuses, nil
}

func (r *excuseRepository) UpdateReview(ctx context.Context, excuse *models.ExcuseSubmission) error {
	query := `
		UPDATE academy.excuses
		SET status = $1, trainer_response = $2, reviewed_by = $3, reviewed_at = $4, updated_at = CURRENT_TIMESTAMP
		WHERE id = $5
		RETURNING updated_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		excuse.Status,
		excuse.TrainerResponse,
		excuse.ReviewedBy,
		excuse.ReviewedAt,
		excuse.ID,
	).Scan(&excuse.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return repository.ErrNotFound
	}
	return err
}

func (r *excuseRepository) CountByStatus(ctx context.Context, status string) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM academy.excuses WHERE status = $1`, status)
	return count, err
}
