package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Soltrivia-App/soltrivia-contract/internal/address"
	"github.com/Soltrivia-App/soltrivia-contract/internal/model"

	"github.com/Masterminds/squirrel"
)

type RewardPool struct {
	Address              string  `db:"address"`
	ID                   int64   `db:"id"`
	Authority            string  `db:"authority"`
	Name                 string  `db:"name"`
	TotalRewards         int64   `db:"total_rewards"`
	DistributedRewards   int64   `db:"distributed_rewards"`
	RewardType           string  `db:"reward_type"`
	TokenIdentity        *string `db:"token_identity"`
	DistributionCriteria string  `db:"distribution_criteria"`
	ExpectedParticipants int64   `db:"expected_participants"`
	StartTime            int64   `db:"start_time"`
	EndTime              int64   `db:"end_time"`
	Active               bool    `db:"active"`
	Version              int64   `db:"version"`
}

func (p RewardPool) toModel() model.RewardPool {
	return model.RewardPool{
		ID:                   uint64(p.ID),
		Authority:            model.Identity(p.Authority),
		Name:                 p.Name,
		TotalRewards:         uint64(p.TotalRewards),
		DistributedRewards:   uint64(p.DistributedRewards),
		RewardType:           model.RewardType(p.RewardType),
		TokenIdentity:        p.TokenIdentity,
		DistributionCriteria: model.DistributionCriteria(p.DistributionCriteria),
		ExpectedParticipants: uint64(p.ExpectedParticipants),
		StartTime:            p.StartTime,
		EndTime:              p.EndTime,
		Active:               p.Active,
		Version:              uint64(p.Version),
	}
}

// poolValues converts the stored fields of pool, refusing values that do not
// fit the signed columns.
func poolValues(pool model.RewardPool) (map[string]interface{}, error) {
	total, err := toInt64(pool.TotalRewards)
	if err != nil {
		return nil, err
	}
	distributed, err := toInt64(pool.DistributedRewards)
	if err != nil {
		return nil, err
	}
	participants, err := toInt64(pool.ExpectedParticipants)
	if err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"total_rewards":         total,
		"distributed_rewards":   distributed,
		"distribution_criteria": string(pool.DistributionCriteria),
		"expected_participants": participants,
		"active":                pool.Active,
	}, nil
}

func (t *Tx) GetPool(ctx context.Context, id uint64) (model.RewardPool, error) {
	var row RewardPool

	query, args, err := t.sq.
		Select("address", "id", "authority", "name", "total_rewards", "distributed_rewards",
			"reward_type", "token_identity", "distribution_criteria", "expected_participants",
			"start_time", "end_time", "active", "version").
		From("reward_pools").
		Where(squirrel.Eq{"address": address.ForPool(id).String()}).
		ToSql()
	if err != nil {
		return model.RewardPool{}, fmt.Errorf("failed to build pool select query: %w", err)
	}

	err = t.tx.GetContext(ctx, &row, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.RewardPool{}, ErrNotFound
		}
		return model.RewardPool{}, fmt.Errorf("failed to get pool %d: %w", id, err)
	}

	return row.toModel(), nil
}

func (t *Tx) CreatePool(ctx context.Context, pool model.RewardPool) (model.RewardPool, error) {
	id, err := toInt64(pool.ID)
	if err != nil {
		return model.RewardPool{}, err
	}
	values, err := poolValues(pool)
	if err != nil {
		return model.RewardPool{}, err
	}
	values["address"] = address.ForPool(pool.ID).String()
	values["id"] = id
	values["authority"] = pool.Authority.String()
	values["name"] = pool.Name
	values["reward_type"] = string(pool.RewardType)
	values["token_identity"] = nil
	if pool.TokenIdentity != nil {
		values["token_identity"] = *pool.TokenIdentity
	}
	values["start_time"] = pool.StartTime
	values["end_time"] = pool.EndTime
	values["version"] = 1

	query, args, err := t.sq.
		Insert("reward_pools").
		SetMap(values).
		Suffix("ON CONFLICT DO NOTHING").
		ToSql()
	if err != nil {
		return model.RewardPool{}, fmt.Errorf("failed to build pool insert query: %w", err)
	}

	if err := t.insertOnce(ctx, query, args); err != nil {
		return model.RewardPool{}, err
	}

	pool.Version = 1
	return pool, nil
}

// SavePool stores the mutable pool fields. Saving an unchanged pool still
// bumps its version, which callers use to serialize work on the pool.
func (t *Tx) SavePool(ctx context.Context, pool model.RewardPool) (model.RewardPool, error) {
	values, err := poolValues(pool)
	if err != nil {
		return model.RewardPool{}, err
	}
	values["version"] = squirrel.Expr("version + 1")

	query, args, err := t.sq.
		Update("reward_pools").
		SetMap(values).
		Where(squirrel.Eq{
			"address": address.ForPool(pool.ID).String(),
			"version": int64(pool.Version),
		}).
		ToSql()
	if err != nil {
		return model.RewardPool{}, fmt.Errorf("failed to build pool update query: %w", err)
	}

	if err := t.updateVersioned(ctx, query, args); err != nil {
		return model.RewardPool{}, err
	}

	pool.Version++
	return pool, nil
}

func (t *Tx) CreateVault(ctx context.Context, vault model.RewardVault) error {
	id, err := toInt64(vault.PoolID)
	if err != nil {
		return err
	}

	query, args, err := t.sq.
		Insert("reward_vaults").
		SetMap(map[string]interface{}{
			"address":      vault.Address,
			"pool_address": address.ForPool(vault.PoolID).String(),
			"pool_id":      id,
		}).
		Suffix("ON CONFLICT DO NOTHING").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build vault insert query: %w", err)
	}

	return t.insertOnce(ctx, query, args)
}

func (t *Tx) GetVault(ctx context.Context, poolID uint64) (model.RewardVault, error) {
	var row struct {
		Address string `db:"address"`
		PoolID  int64  `db:"pool_id"`
	}

	query, args, err := t.sq.
		Select("address", "pool_id").
		From("reward_vaults").
		Where(squirrel.Eq{"address": address.ForVault(poolID).String()}).
		ToSql()
	if err != nil {
		return model.RewardVault{}, fmt.Errorf("failed to build vault select query: %w", err)
	}

	err = t.tx.GetContext(ctx, &row, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.RewardVault{}, ErrNotFound
		}
		return model.RewardVault{}, fmt.Errorf("failed to get vault of pool %d: %w", poolID, err)
	}

	return model.RewardVault{Address: row.Address, PoolID: uint64(row.PoolID)}, nil
}
