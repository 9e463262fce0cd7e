package user

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

type userRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) repository.UserRepository {
	return &userRepository{db: db}
}

const userColumns = `id, code, role, status, full_name, phone, telegram_id, trainer_id,
	subscription_start, subscription_end, salary, created_at, updated_at`

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO academy.users
		(code, role, status, full_name, phone, telegram_id, trainer_id, subscription_start, subscription_end, salary)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		user.Code,
		user.Role,
		user.Status,
		user.FullName,
		user.Phone,
		user.TelegramID,
		user.TrainerID,
		user.SubscriptionStart,
		user.SubscriptionEnd,
		user.Salary,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if repository.IsUniqueViolation(err) {
		return repository.ErrDuplicate
	}
	return err
}

func (r *userRepository) get(ctx context.Context, where string, arg interface{}) (*models.User, error) {
	var user models.User
	query := `SELECT ` + userColumns + ` FROM academy.users WHERE ` + where
	if err := r.db.GetContext(ctx, &user, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return r.get(ctx, "id = $1", id)
}

func (r *userRepository) GetByCode(ctx context.Context, code string) (*models.User, error) {
	return r.get(ctx, "code = $1", code)
}

func (r *userRepository) GetByTelegramID(ctx context.Context, telegramID int64) (*models.User, error) {
	return r.get(ctx, "telegram_id = $1", telegramID)
}

func (r *userRepository) List(ctx context.Context, filter models.UserFilter) ([]*models.User, error) {
	var (
		conditions []string
		args       []interface{}
	)
	if filter.Role != "" {
		args = append(args, filter.Role)
		conditions = append(conditions, fmt.Sprintf("role = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}

	query := `SELECT ` + userColumns + ` FROM academy.users`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY full_name, code"

	var users []*models.User
	if err := r.db.SelectContext(ctx, &users, query, args...); err != nil {
		return nil, err
	}
	return users, nil
}

func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	query := `
		UPDATE academy.users
		SET code = $1, role = $2, full_name = $3, phone = $4, trainer_id = $5,
			subscription_start = $6, subscription_end = $7, salary = $8, updated_at = CURRENT_TIMESTAMP
		WHERE id = $9
		RETURNING updated_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		user.Code,
		user.Role,
		user.FullName,
		user.Phone,
		user.TrainerID,
		user.SubscriptionStart,
		user.SubscriptionEnd,
		user.Salary,
		user.ID,
	).Scan(&user.UpdatedAt)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return repository.ErrNotFound
	case repository.IsUniqueViolation(err):
		return repository.ErrDuplicate
	}
	return err
}

func (r *userRepository) UpdateCodeAndStatus(ctx context.Context, id int64, code, status string) error {
	query := `UPDATE academy.users SET code = $1, status = $2, updated_at = CURRENT_TIMESTAMP WHERE id = $3`
	res, err := r.db.ExecContext(ctx, query, code, status, id)
	if err != nil {
		if repository.IsUniqueViolation(err) {
			return repository.ErrDuplicate
		}
		return err
	}
	return expectAffected(res)
}

func (r *userRepository) LinkTelegram(ctx context.Context, id int64, telegramID int64) error {
	// один чат может быть привязан только к одному пользователю
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`UPDATE academy.users SET telegram_id = NULL WHERE telegram_id = $1 AND id <> $2`, telegramID, id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx,
		`UPDATE academy.users SET telegram_id = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`, telegramID, id)
	if err != nil {
		return err
	}
	if err := expectAffected(res); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *userRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM academy.users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return expectAffected(res)
}

func (r *userRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM academy.users WHERE code = $1)`, code)
	return exists, err
}

func (r *userRepository) CountByRole(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.QueryxContext(ctx, `SELECT role, COUNT(*) FROM academy.users GROUP BY role`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			role  string
			count int
		)
		if err := rows.Scan(&role, &count); err != nil {
			return nil, err
		}
		counts[role] = count
	}
	return counts, rows.Err()
}

func (r *userRepository) GetSubscriptionsEndingBetween(ctx context.Context, from, to time.Time) ([]*models.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM academy.users
		WHERE status = 'active' AND subscription_end IS NOT NULL
		  AND subscription_end >= $1 AND subscription_end < $2
		ORDER BY subscription_end
	`
	var users []*models.User
	if err := r.db.SelectContext(ctx, &users, query, from.Format(models.DateLayout), to.Format(models.DateLayout)); err != nil {
		return nil, err
	}
	return users, nil
}

func expectAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}
