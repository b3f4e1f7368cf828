package repository

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"time"

	"github.com/Soltrivia-App/soltrivia-contract/pkg/logger"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

const migrationTable = "schema_migrations"

// Migrate applies embedded migrations in file name order, each at most once.
// The SQL is written to run unchanged on PostgreSQL and SQLite.
func (r *Repository) Migrate(ctx context.Context) error {
	createSQL := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
    name TEXT PRIMARY KEY,
    applied_at BIGINT NOT NULL
)`, migrationTable)
	if _, err := r.db.ExecContext(ctx, createSQL); err != nil {
		return fmt.Errorf("ensure migration table: %w", err)
	}

	files, err := fs.Glob(migrationFS, "migrations/*.sql")
	if err != nil {
		return fmt.Errorf("list migrations: %w", err)
	}
	sort.Strings(files)

	log := logger.Named("repository")
	for _, file := range files {
		name := strings.TrimPrefix(file, "migrations/")

		applied, err := r.isApplied(ctx, name)
		if err != nil {
			return fmt.Errorf("check migration %s: %w", name, err)
		}
		if applied {
			continue
		}

		content, err := fs.ReadFile(migrationFS, file)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}

		err = r.Atomic(ctx, func(tx *Tx) error {
			for _, stmt := range splitStatements(string(content)) {
				if _, err := tx.tx.ExecContext(ctx, stmt); err != nil {
					return fmt.Errorf("exec migration %s: %w", name, err)
				}
			}

			query, args, err := tx.sq.
				Insert(migrationTable).
				Columns("name", "applied_at").
				Values(name, time.Now().Unix()).
				ToSql()
			if err != nil {
				return fmt.Errorf("failed to build migration record query: %w", err)
			}
			_, err = tx.tx.ExecContext(ctx, query, args...)
			return err
		})
		if err != nil {
			return err
		}

		log.Info("Applied migration", zap.String("name", name))
	}

	return nil
}

func (r *Repository) isApplied(ctx context.Context, name string) (bool, error) {
	query, args, err := r.sq.
		Select("COUNT(*)").
		From(migrationTable).
		Where("name = ?", name).
		ToSql()
	if err != nil {
		return false, err
	}

	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return false, err
	}
	return count > 0, nil
}

// splitStatements breaks a migration into single statements. Migrations must
// not contain semicolons inside literals.
func splitStatements(content string) []string {
	var out []string
	for _, stmt := range strings.Split(content, ";") {
		if s := strings.TrimSpace(stmt); s != "" {
			out = append(out, s)
		}
	}
	return out
}
