package setting

import (
	"context"
	"database/sql"
	"errors"

	"spectrum-academy/internal/models"
	"spectrum-academy/internal/repository"

	"github.com/jmoiron/sqlx"
)

type settingRepository struct {
	db *sqlx.DB
}

func NewSettingRepository(db *sqlx.DB) repository.SettingRepository {
	return &settingRepository{db: db}
}

func (r *settingRepository) Get(ctx context.Context, key string) (*models.Setting, error) {
	var setting models.Setting
	err := r.db.GetContext(ctx, &setting, `SELECT key, value, updated_at FROM academy.settings WHERE key = $1`, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &setting, nil
}

func (r *settingRepository) GetAll(ctx context.Context) ([]models.Setting, error) {
	var settings []models.Setting
	err := r.db.SelectContext(ctx, &settings, `SELECT key, value, updated_at FROM academy.settings ORDER BY key`)
	return settings, err
}

func (r *settingRepository) Upsert(ctx context.Context, key, value string) error {
	query := `
		INSERT INTO academy.settings (key, value)
		VALUES ($1, $2)
		ON CONFLICT (key)
		DO UPDATE SET value = EXCLUDED.value, updated_at = CURRENT_TIMESTAMP
	`
	_, err := r.db.ExecContext(ctx, query, key, value)
	return err
}
