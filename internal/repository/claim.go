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

type UserClaim struct {
	Address       string `db:"address"`
	PoolID        int64  `db:"pool_id"`
	User          string `db:"user_identity"`
	AmountClaimed int64  `db:"amount_claimed"`
	TotalEligible int64  `db:"total_eligible"`
	LastClaimTime int64  `db:"last_claim_time"`
	Version       int64  `db:"version"`
}

func (c UserClaim) toModel() model.UserClaim {
	return model.UserClaim{
		PoolID:        uint64(c.PoolID),
		User:          model.Identity(c.User),
		AmountClaimed: uint64(c.AmountClaimed),
		TotalEligible: uint64(c.TotalEligible),
		LastClaimTime: c.LastClaimTime,
		Version:       uint64(c.Version),
	}
}

func claimAddress(poolID uint64, user model.Identity) string {
	return address.ForClaim(poolID, user.String()).String()
}

func claimValues(claim model.UserClaim) (map[string]interface{}, error) {
	claimed, err := toInt64(claim.AmountClaimed)
	if err != nil {
		return nil, err
	}
	eligible, err := toInt64(claim.TotalEligible)
	if err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"amount_claimed":  claimed,
		"total_eligible":  eligible,
		"last_claim_time": claim.LastClaimTime,
	}, nil
}

func (t *Tx) GetClaim(ctx context.Context, poolID uint64, user model.Identity) (model.UserClaim, error) {
	var row UserClaim

	query, args, err := t.sq.
		Select("address", "pool_id", "user_identity", "amount_claimed", "total_eligible",
			"last_claim_time", "version").
		From("user_claims").
		Where(squirrel.Eq{"address": claimAddress(poolID, user)}).
		ToSql()
	if err != nil {
		return model.UserClaim{}, fmt.Errorf("failed to build claim select query: %w", err)
	}

	err = t.tx.GetContext(ctx, &row, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.UserClaim{}, ErrNotFound
		}
		return model.UserClaim{}, fmt.Errorf("failed to get claim of %s in pool %d: %w", user, poolID, err)
	}

	return row.toModel(), nil
}

func (t *Tx) CreateClaim(ctx context.Context, claim model.UserClaim) (model.UserClaim, error) {
	poolID, err := toInt64(claim.PoolID)
	if err != nil {
		return model.UserClaim{}, err
	}
	values, err := claimValues(claim)
	if err != nil {
		return model.UserClaim{}, err
	}
	values["address"] = claimAddress(claim.PoolID, claim.User)
	values["pool_id"] = poolID
	values["user_identity"] = claim.User.String()
	values["version"] = 1

	query, args, err := t.sq.
		Insert("user_claims").
		SetMap(values).
		Suffix("ON CONFLICT DO NOTHING").
		ToSql()
	if err != nil {
		return model.UserClaim{}, fmt.Errorf("failed to build claim insert query: %w", err)
	}

	if err := t.insertOnce(ctx, query, args); err != nil {
		return model.UserClaim{}, err
	}

	claim.Version = 1
	return claim, nil
}

func (t *Tx) SaveClaim(ctx context.Context, claim model.UserClaim) (model.UserClaim, error) {
	values, err := claimValues(claim)
	if err != nil {
		return model.UserClaim{}, err
	}
	values["version"] = squirrel.Expr("version + 1")

	query, args, err := t.sq.
		Update("user_claims").
		SetMap(values).
		Where(squirrel.Eq{
			"address": claimAddress(claim.PoolID, claim.User),
			"version": int64(claim.Version),
		}).
		ToSql()
	if err != nil {
		return model.UserClaim{}, fmt.Errorf("failed to build claim update query: %w", err)
	}

	if err := t.updateVersioned(ctx, query, args); err != nil {
		return model.UserClaim{}, err
	}

	claim.Version++
	return claim, nil
}

// CountClaims returns how many claim records are open in a pool.
func (t *Tx) CountClaims(ctx context.Context, poolID uint64) (uint64, error) {
	id, err := toInt64(poolID)
	if err != nil {
		return 0, err
	}

	query, args, err := t.sq.
		Select("COUNT(*)").
		From("user_claims").
		Where(squirrel.Eq{"pool_id": id}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build claim count query: %w", err)
	}

	var count int64
	if err := t.tx.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("failed to count claims of pool %d: %w", poolID, err)
	}
	return uint64(count), nil
}
