package database

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"spectrum-academy/internal/models/config"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

func NewPostgres(cfg config.DatabaseConfig, logger *zap.Logger) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	logger.Info("🗄️  Подключено к PostgreSQL",
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
		zap.String("db", cfg.Name),
	)
	return db, nil
}

// RunMigrations применяет ещё не применённые файлы migrations/*.sql по порядку имён.
// Применённые файлы запоминаются в academy.schema_migrations.
func RunMigrations(ctx context.Context, db *sqlx.DB, logger *zap.Logger) (int, error) {
	if _, err := db.ExecContext(ctx, `CREATE SCHEMA IF NOT EXISTS academy`); err != nil {
		return 0, fmt.Errorf("failed to create schema: %w", err)
	}

	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS academy.schema_migrations (
			filename TEXT PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to create schema_migrations table: %w", err)
	}

	var appliedList []string
	if err := db.SelectContext(ctx, &appliedList, `SELECT filename FROM academy.schema_migrations`); err != nil {
		return 0, fmt.Errorf("failed to query applied migrations: %w", err)
	}
	applied := make(map[string]bool, len(appliedList))
	for _, name := range appliedList {
		applied[name] = true
	}

	entries, err := fs.ReadDir(migrationsFS, "migrations")
	if err != nil {
		return 0, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	var sqlFiles []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			sqlFiles = append(sqlFiles, entry.Name())
		}
	}
	sort.Strings(sqlFiles)

	count := 0
	for _, filename := range sqlFiles {
		if applied[filename] {
			continue
		}

		content, err := fs.ReadFile(migrationsFS, "migrations/"+filename)
		if err != nil {
			return count, fmt.Errorf("failed to read migration %s: %w", filename, err)
		}

		tx, err := db.BeginTxx(ctx, nil)
		if err != nil {
			return count, fmt.Errorf("failed to begin transaction for %s: %w", filename, err)
		}

		if _, err = tx.ExecContext(ctx, string(content)); err != nil {
			tx.Rollback()
			return count, fmt.Errorf("failed to execute migration %s: %w", filename, err)
		}

		if _, err = tx.ExecContext(ctx, `INSERT INTO academy.schema_migrations (filename) VALUES ($1)`, filename); err != nil {
			tx.Rollback()
			return count, fmt.Errorf("failed to record migration %s: %w", filename, err)
		}

		if err := tx.Commit(); err != nil {
			return count, fmt.Errorf("failed to commit migration %s: %w", filename, err)
		}

		logger.Info("migration applied", zap.String("file", filename))
		count++
	}

	return count, nil
}
