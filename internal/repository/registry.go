package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Soltrivia-App/soltrivia-contract/internal/address"
	"github.com/Soltrivia-App/soltrivia-contract/internal/model"

	"github.com/Masterminds/squirrel"
	"github.com/goccy/go-json"
)

type Registry struct {
	Address         string `db:"address"`
	Authority       string `db:"authority"`
	TotalQuestions  int64  `db:"total_questions"`
	ActiveQuestions int64  `db:"active_questions"`
	Curators        string `db:"curators"`
	Version         int64  `db:"version"`
}

func (r Registry) toModel() (model.Registry, error) {
	var curators []model.Identity
	if err := json.Unmarshal([]byte(r.Curators), &curators); err != nil {
		return model.Registry{}, fmt.Errorf("failed to decode curators: %w", err)
	}
	return model.Registry{
		Authority:       model.Identity(r.Authority),
		TotalQuestions:  uint64(r.TotalQuestions),
		ActiveQuestions: uint64(r.ActiveQuestions),
		Curators:        curators,
		Version:         uint64(r.Version),
	}, nil
}

func (t *Tx) GetRegistry(ctx context.Context) (model.Registry, error) {
	var row Registry

	query, args, err := t.sq.
		Select("address", "authority", "total_questions", "active_questions", "curators", "version").
		From("registries").
		Where(squirrel.Eq{"address": address.ForQuestionBank().String()}).
		ToSql()
	if err != nil {
		return model.Registry{}, fmt.Errorf("failed to build registry select query: %w", err)
	}

	err = t.tx.GetContext(ctx, &row, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Registry{}, ErrNotFound
		}
		return model.Registry{}, fmt.Errorf("failed to get registry: %w", err)
	}

	return row.toModel()
}

// CreateRegistry inserts the singleton registry. It returns ErrAlreadyExists
// when one is present.
func (t *Tx) CreateRegistry(ctx context.Context, reg model.Registry) (model.Registry, error) {
	curators, err := json.Marshal(reg.Curators)
	if err != nil {
		return model.Registry{}, fmt.Errorf("failed to encode curators: %w", err)
	}

	query, args, err := t.sq.
		Insert("registries").
		SetMap(map[string]interface{}{
			"address":          address.ForQuestionBank().String(),
			"authority":        string(reg.Authority),
			"total_questions":  int64(reg.TotalQuestions),
			"active_questions": int64(reg.ActiveQuestions),
			"curators":         string(curators),
			"version":          1,
		}).
		Suffix("ON CONFLICT DO NOTHING").
		ToSql()
	if err != nil {
		return model.Registry{}, fmt.Errorf("failed to build registry insert query: %w", err)
	}

	if err := t.insertOnce(ctx, query, args); err != nil {
		return model.Registry{}, err
	}

	reg.Version = 1
	return reg, nil
}

// SaveRegistry stores reg if nobody changed it since it was loaded.
func (t *Tx) SaveRegistry(ctx context.Context, reg model.Registry) (model.Registry, error) {
	curators, err := json.Marshal(reg.Curators)
	if err != nil {
		return model.Registry{}, fmt.Errorf("failed to encode curators: %w", err)
	}

	query, args, err := t.sq.
		Update("registries").
		SetMap(map[string]interface{}{
			"total_questions":  int64(reg.TotalQuestions),
			"active_questions": int64(reg.ActiveQuestions),
			"curators":         string(curators),
			"version":          squirrel.Expr("version + 1"),
		}).
		Where(squirrel.Eq{
			"address": address.ForQuestionBank().String(),
			"version": int64(reg.Version),
		}).
		ToSql()
	if err != nil {
		return model.Registry{}, fmt.Errorf("failed to build registry update query: %w", err)
	}

	if err := t.updateVersioned(ctx, query, args); err != nil {
		return model.Registry{}, err
	}

	reg.Version++
	return reg, nil
}

// insertOnce executes an ON CONFLICT DO NOTHING insert and reports a
// conflict as ErrAlreadyExists.
func (t *Tx) insertOnce(ctx context.Context, query string, args []interface{}) error {
	result, err := t.tx.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to insert record: %w", err)
	}

	rows, err := rowsAffected(result)
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrAlreadyExists
	}
	return nil
}

// updateVersioned executes a version-guarded update. Zero affected rows
// means the snapshot the caller validated against is no longer current.
func (t *Tx) updateVersioned(ctx context.Context, query string, args []interface{}) error {
	result, err := t.tx.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update record: %w", err)
	}

	rows, err := rowsAffected(result)
	if err != nil {
		return err
	}
	if rows == 0 {
		return model.ErrStaleSnapshot
	}
	return nil
}
