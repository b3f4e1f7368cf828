package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/Soltrivia-App/soltrivia-contract/internal/address"
	"github.com/Soltrivia-App/soltrivia-contract/internal/model"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
)

// Transfer moves t.Amount of t.Asset between holders. The source is debited
// only if it holds enough, so a balance can never go negative. The move is
// journaled under a fresh id and the journaled transfer is returned.
func (t *Tx) Transfer(ctx context.Context, tr model.Transfer) (model.Transfer, error) {
	if err := Authorize(tr); err != nil {
		return model.Transfer{}, err
	}
	if tr.Amount == 0 {
		return model.Transfer{}, model.ErrInvalidRewardAmount
	}
	amount, err := toInt64(tr.Amount)
	if err != nil {
		return model.Transfer{}, err
	}

	query, args, err := t.sq.
		Update("balances").
		Set("amount", squirrel.Expr("amount - ?", amount)).
		Where(squirrel.Eq{"holder": tr.From, "asset": string(tr.Asset)}).
		Where(squirrel.GtOrEq{"amount": amount}).
		ToSql()
	if err != nil {
		return model.Transfer{}, fmt.Errorf("failed to build debit query: %w", err)
	}

	result, err := t.tx.ExecContext(ctx, query, args...)
	if err != nil {
		return model.Transfer{}, fmt.Errorf("failed to debit %s: %w", tr.From, err)
	}
	rows, err := rowsAffected(result)
	if err != nil {
		return model.Transfer{}, err
	}
	if rows == 0 {
		return model.Transfer{}, model.ErrInsufficientFunds
	}

	if err := t.credit(ctx, tr.To, tr.Asset, amount); err != nil {
		return model.Transfer{}, err
	}

	if tr.CreatedAt.IsZero() {
		tr.CreatedAt = time.Now()
	}
	tr.ID = uuid.NewString()

	query, args, err = t.sq.
		Insert("transfers").
		SetMap(map[string]interface{}{
			"id":          tr.ID,
			"asset":       string(tr.Asset),
			"from_holder": tr.From,
			"to_holder":   tr.To,
			"amount":      amount,
			"created_at":  tr.CreatedAt.Unix(),
		}).
		ToSql()
	if err != nil {
		return model.Transfer{}, fmt.Errorf("failed to build transfer journal query: %w", err)
	}

	if _, err := t.tx.ExecContext(ctx, query, args...); err != nil {
		return model.Transfer{}, fmt.Errorf("failed to journal transfer: %w", err)
	}

	return tr, nil
}

// Credit adds amount to holder's balance from outside the ledger.
func (t *Tx) Credit(ctx context.Context, holder string, asset model.Asset, amount uint64) error {
	if amount == 0 {
		return model.ErrInvalidRewardAmount
	}
	v, err := toInt64(amount)
	if err != nil {
		return err
	}
	return t.credit(ctx, holder, asset, v)
}

func (t *Tx) credit(ctx context.Context, holder string, asset model.Asset, amount int64) error {
	query, args, err := t.sq.
		Insert("balances").
		Columns("holder", "asset", "amount").
		Values(holder, string(asset), amount).
		Suffix("ON CONFLICT (holder, asset) DO UPDATE SET amount = balances.amount + excluded.amount "+
			"WHERE balances.amount <= ? - excluded.amount", int64(math.MaxInt64)).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build credit query: %w", err)
	}

	result, err := t.tx.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to credit %s: %w", holder, err)
	}
	rows, err := rowsAffected(result)
	if err != nil {
		return err
	}
	// The conflict update is skipped when the sum would leave BIGINT range.
	if rows == 0 {
		return ErrAmountTooLarge
	}
	return nil
}

// Balance returns holder's balance of asset, zero when it never held any.
func (t *Tx) Balance(ctx context.Context, holder string, asset model.Asset) (uint64, error) {
	query, args, err := t.sq.
		Select("amount").
		From("balances").
		Where(squirrel.Eq{"holder": holder, "asset": string(asset)}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build balance query: %w", err)
	}

	var amount int64
	err = t.tx.GetContext(ctx, &amount, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to get balance of %s: %w", holder, err)
	}
	return uint64(amount), nil
}

// Authorize checks that tr carries proof of control over its source holder:
// either the holder's own signature or the derived authority of the record
// the holder address was derived from.
func Authorize(tr model.Transfer) error {
	auth := tr.Authorization

	switch {
	case auth.Signer != "" && auth.Namespace != "":
		return model.ErrUnauthorizedTransfer
	case auth.Signer != "":
		if auth.Signer.String() != tr.From {
			return model.ErrUnauthorizedTransfer
		}
		return nil
	case auth.Namespace != "":
		derived, err := address.TryDerive(auth.Namespace, auth.Seeds...)
		if err != nil || derived.String() != tr.From {
			return model.ErrUnauthorizedTransfer
		}
		return nil
	default:
		return model.ErrUnauthorizedTransfer
	}
}
