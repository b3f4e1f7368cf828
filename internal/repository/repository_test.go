package repository

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"testing"

	"github.com/Soltrivia-App/soltrivia-contract/internal/address"
	"github.com/Soltrivia-App/soltrivia-contract/internal/model"

	"github.com/Masterminds/squirrel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()

	repo, err := Open(DriverSQLite, filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	require.NoError(t, repo.Migrate(context.Background()))
	return repo
}

func TestMigrate_Idempotent(t *testing.T) {
	repo := newTestRepository(t)
	assert.NoError(t, repo.Migrate(context.Background()))
}

func TestNew_RejectsUnknownDriver(t *testing.T) {
	_, err := New(Config{Driver: "oracle"})
	assert.Error(t, err)

	_, err = New(Config{Driver: DriverSQLite})
	assert.Error(t, err)
}

func TestPlaceholderFor(t *testing.T) {
	tests := []struct {
		driver   string
		expected string
	}{
		{driver: DriverSQLite, expected: "SELECT amount FROM balances WHERE holder = ? AND asset = ?"},
		{driver: DriverPgx, expected: "SELECT amount FROM balances WHERE holder = $1 AND asset = $2"},
		{driver: DriverPostgres, expected: "SELECT amount FROM balances WHERE holder = $1 AND asset = $2"},
	}

	for _, tt := range tests {
		t.Run(tt.driver, func(t *testing.T) {
			query, args, err := squirrel.StatementBuilder.
				PlaceholderFormat(placeholderFor(tt.driver)).
				Select("amount").
				From("balances").
				Where(squirrel.Eq{"holder": "tg:1"}).
				Where(squirrel.Eq{"asset": "SOL"}).
				ToSql()
			require.NoError(t, err)
			assert.Equal(t, tt.expected, query)
			assert.Equal(t, []interface{}{"tg:1", "SOL"}, args)
		})
	}
}

func TestRegistry_Versioning(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	err := repo.Atomic(ctx, func(tx *Tx) error {
		_, err := tx.GetRegistry(ctx)
		assert.ErrorIs(t, err, ErrNotFound)

		reg, err := tx.CreateRegistry(ctx, model.Registry{Authority: "tg:1", Curators: []model.Identity{"tg:1"}})
		require.NoError(t, err)
		assert.Equal(t, uint64(1), reg.Version)

		_, err = tx.CreateRegistry(ctx, model.Registry{Authority: "tg:2", Curators: []model.Identity{"tg:2"}})
		assert.ErrorIs(t, err, ErrAlreadyExists)
		return nil
	})
	require.NoError(t, err)

	var loaded model.Registry
	err = repo.Atomic(ctx, func(tx *Tx) error {
		var err error
		loaded, err = tx.GetRegistry(ctx)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, model.Identity("tg:1"), loaded.Authority)
	assert.Equal(t, []model.Identity{"tg:1"}, loaded.Curators)

	// Two writers loaded the same snapshot; the second store is stale.
	err = repo.Atomic(ctx, func(tx *Tx) error {
		first := loaded.Clone()
		first.TotalQuestions = 1
		_, err := tx.SaveRegistry(ctx, first)
		return err
	})
	require.NoError(t, err)

	err = repo.Atomic(ctx, func(tx *Tx) error {
		second := loaded.Clone()
		second.TotalQuestions = 5
		_, err := tx.SaveRegistry(ctx, second)
		return err
	})
	assert.ErrorIs(t, err, model.ErrStaleSnapshot)

	err = repo.Atomic(ctx, func(tx *Tx) error {
		reg, err := tx.GetRegistry(ctx)
		require.NoError(t, err)
		assert.Equal(t, uint64(1), reg.TotalQuestions)
		assert.Equal(t, uint64(2), reg.Version)
		return nil
	})
	require.NoError(t, err)
}

func TestAtomic_RollsBack(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := repo.Atomic(ctx, func(tx *Tx) error {
		_, err := tx.CreateReputation(ctx, model.NewUserReputation("tg:7"))
		require.NoError(t, err)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	err = repo.Atomic(ctx, func(tx *Tx) error {
		_, err := tx.GetReputation(ctx, "tg:7")
		return err
	})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestQuestions(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	questions := []model.Question{
		{ID: 0, Submitter: "tg:1", Text: "a", Category: "Space", CategorySlug: "space", Difficulty: 1, Status: model.QuestionApproved, Voters: []model.Identity{"tg:2"}},
		{ID: 1, Submitter: "tg:1", Text: "b", Category: "Space", CategorySlug: "space", Difficulty: 2, Status: model.QuestionApproved, Voters: []model.Identity{}},
		{ID: 2, Submitter: "tg:1", Text: "c", Category: "History", CategorySlug: "history", Difficulty: 1, Status: model.QuestionApproved, Voters: []model.Identity{}},
		{ID: 3, Submitter: "tg:1", Text: "d", Category: "Space", CategorySlug: "space", Difficulty: 1, Status: model.QuestionPending, Voters: []model.Identity{}},
	}
	questions[0].Options = [4]string{"w", "x", "y", "z"}

	err := repo.Atomic(ctx, func(tx *Tx) error {
		for _, q := range questions {
			if _, err := tx.CreateQuestion(ctx, q); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)

	tests := []struct {
		name     string
		filter   model.QuestionFilter
		expected []uint64
	}{
		{name: "all approved", filter: model.QuestionFilter{}, expected: []uint64{0, 1, 2}},
		{name: "by category", filter: model.QuestionFilter{Category: "space"}, expected: []uint64{0, 1}},
		{name: "by category and difficulty", filter: model.QuestionFilter{Category: "space", Difficulty: 2}, expected: []uint64{1}},
		{name: "limit", filter: model.QuestionFilter{Limit: 1}, expected: []uint64{0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []model.Question
			err := repo.Atomic(ctx, func(tx *Tx) error {
				var err error
				got, err = tx.ListApprovedQuestions(ctx, tt.filter)
				return err
			})
			require.NoError(t, err)

			ids := make([]uint64, 0, len(got))
			for _, q := range got {
				ids = append(ids, q.ID)
			}
			assert.Equal(t, tt.expected, ids)
		})
	}

	err = repo.Atomic(ctx, func(tx *Tx) error {
		q, err := tx.GetQuestion(ctx, 0)
		require.NoError(t, err)
		assert.Equal(t, [4]string{"w", "x", "y", "z"}, q.Options)
		assert.Equal(t, []model.Identity{"tg:2"}, q.Voters)

		q.Voters = append(q.Voters, "tg:3")
		q.VotesApprove = 2
		saved, err := tx.SaveQuestion(ctx, q)
		require.NoError(t, err)
		assert.Equal(t, uint64(2), saved.Version)

		_, err = tx.GetQuestion(ctx, 99)
		assert.ErrorIs(t, err, ErrNotFound)
		return nil
	})
	require.NoError(t, err)
}

func TestPoolsAndClaims(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	token := "USDC"

	err := repo.Atomic(ctx, func(tx *Tx) error {
		pool, err := tx.CreatePool(ctx, model.RewardPool{
			ID:                   4,
			Authority:            "tg:1",
			Name:                 "Cup",
			TotalRewards:         1000,
			RewardType:           model.RewardToken,
			TokenIdentity:        &token,
			DistributionCriteria: model.DistributionEqualShare,
			ExpectedParticipants: 10,
			StartTime:            100,
			EndTime:              200,
			Active:               true,
		})
		require.NoError(t, err)

		require.NoError(t, tx.CreateVault(ctx, model.RewardVault{Address: address.ForVault(4).String(), PoolID: 4}))
		assert.ErrorIs(t, tx.CreateVault(ctx, model.RewardVault{Address: address.ForVault(4).String(), PoolID: 4}), ErrAlreadyExists)

		loaded, err := tx.GetPool(ctx, 4)
		require.NoError(t, err)
		assert.Equal(t, pool, loaded)

		vault, err := tx.GetVault(ctx, 4)
		require.NoError(t, err)
		assert.Equal(t, address.ForVault(4).String(), vault.Address)

		_, err = tx.CreatePool(ctx, pool)
		assert.ErrorIs(t, err, ErrAlreadyExists)

		_, err = tx.CreateClaim(ctx, model.UserClaim{PoolID: 4, User: "tg:2", TotalEligible: 100})
		require.NoError(t, err)
		_, err = tx.CreateClaim(ctx, model.UserClaim{PoolID: 4, User: "tg:3", TotalEligible: 100})
		require.NoError(t, err)

		count, err := tx.CountClaims(ctx, 4)
		require.NoError(t, err)
		assert.Equal(t, uint64(2), count)

		claim, err := tx.GetClaim(ctx, 4, "tg:2")
		require.NoError(t, err)
		claim.AmountClaimed = 100
		claim.LastClaimTime = 150
		saved, err := tx.SaveClaim(ctx, claim)
		require.NoError(t, err)

		_, err = tx.SaveClaim(ctx, claim)
		assert.ErrorIs(t, err, model.ErrStaleSnapshot)

		reloaded, err := tx.GetClaim(ctx, 4, "tg:2")
		require.NoError(t, err)
		assert.Equal(t, saved, reloaded)

		_, err = tx.GetClaim(ctx, 4, "tg:9")
		assert.ErrorIs(t, err, ErrNotFound)
		return nil
	})
	require.NoError(t, err)
}

func TestPool_NativeHasNoToken(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	err := repo.Atomic(ctx, func(tx *Tx) error {
		_, err := tx.CreatePool(ctx, model.RewardPool{
			ID: 1, Authority: "tg:1", Name: "n", TotalRewards: 10,
			RewardType: model.RewardNative, DistributionCriteria: model.DistributionRandomDrop,
			StartTime: 1, EndTime: 2, Active: true,
		})
		require.NoError(t, err)

		pool, err := tx.GetPool(ctx, 1)
		require.NoError(t, err)
		assert.Nil(t, pool.TokenIdentity)
		assert.True(t, pool.Active)
		return nil
	})
	require.NoError(t, err)
}

func TestTransfer(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	vault := address.ForVault(1).String()

	balance := func(holder string) uint64 {
		var amount uint64
		err := repo.Atomic(ctx, func(tx *Tx) error {
			var err error
			amount, err = tx.Balance(ctx, holder, model.NativeAsset)
			return err
		})
		require.NoError(t, err)
		return amount
	}

	err := repo.Atomic(ctx, func(tx *Tx) error {
		return tx.Credit(ctx, "tg:1", model.NativeAsset, 500)
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(500), balance("tg:1"))
	assert.Zero(t, balance("tg:2"))

	err = repo.Atomic(ctx, func(tx *Tx) error {
		tr, err := tx.Transfer(ctx, model.Transfer{
			Asset: model.NativeAsset, From: "tg:1", To: vault, Amount: 300,
			Authorization: model.SignerAuthorization("tg:1"),
		})
		assert.NotEmpty(t, tr.ID)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(200), balance("tg:1"))
	assert.Equal(t, uint64(300), balance(vault))

	tests := []struct {
		name     string
		transfer model.Transfer
		expected error
	}{
		{
			name:     "insufficient funds",
			transfer: model.Transfer{Asset: model.NativeAsset, From: "tg:1", To: "tg:2", Amount: 201, Authorization: model.SignerAuthorization("tg:1")},
			expected: model.ErrInsufficientFunds,
		},
		{
			name:     "other signer",
			transfer: model.Transfer{Asset: model.NativeAsset, From: "tg:1", To: "tg:2", Amount: 1, Authorization: model.SignerAuthorization("tg:2")},
			expected: model.ErrUnauthorizedTransfer,
		},
		{
			name:     "user cannot sign for vault",
			transfer: model.Transfer{Asset: model.NativeAsset, From: vault, To: "tg:2", Amount: 1, Authorization: model.SignerAuthorization("tg:2")},
			expected: model.ErrUnauthorizedTransfer,
		},
		{
			name:     "derived authority of another vault",
			transfer: model.Transfer{Asset: model.NativeAsset, From: vault, To: "tg:2", Amount: 1, Authorization: model.DerivedAuthorization(address.RewardVault, uint64(2))},
			expected: model.ErrUnauthorizedTransfer,
		},
		{
			name:     "missing authorization",
			transfer: model.Transfer{Asset: model.NativeAsset, From: "tg:1", To: "tg:2", Amount: 1},
			expected: model.ErrUnauthorizedTransfer,
		},
		{
			name:     "other asset",
			transfer: model.Transfer{Asset: "USDC", From: "tg:1", To: "tg:2", Amount: 1, Authorization: model.SignerAuthorization("tg:1")},
			expected: model.ErrInsufficientFunds,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := repo.Atomic(ctx, func(tx *Tx) error {
				_, err := tx.Transfer(ctx, tt.transfer)
				return err
			})
			assert.ErrorIs(t, err, tt.expected)
		})
	}

	err = repo.Atomic(ctx, func(tx *Tx) error {
		_, err := tx.Transfer(ctx, model.Transfer{
			Asset: model.NativeAsset, From: vault, To: "tg:2", Amount: 120,
			Authorization: model.DerivedAuthorization(address.RewardVault, uint64(1)),
		})
		return err
	})
	require.NoError(t, err)

	assert.Equal(t, uint64(200), balance("tg:1"))
	assert.Equal(t, uint64(180), balance(vault))
	assert.Equal(t, uint64(120), balance("tg:2"))
}

func TestCredit_Overflow(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	balance := func(holder string) uint64 {
		var amount uint64
		err := repo.Atomic(ctx, func(tx *Tx) error {
			var err error
			amount, err = tx.Balance(ctx, holder, model.NativeAsset)
			return err
		})
		require.NoError(t, err)
		return amount
	}

	err := repo.Atomic(ctx, func(tx *Tx) error {
		if err := tx.Credit(ctx, "tg:1", model.NativeAsset, math.MaxInt64); err != nil {
			return err
		}
		return tx.Credit(ctx, "tg:2", model.NativeAsset, 10)
	})
	require.NoError(t, err)

	tests := []struct {
		name string
		fn   func(tx *Tx) error
	}{
		{
			name: "credit past the limit",
			fn: func(tx *Tx) error {
				return tx.Credit(ctx, "tg:1", model.NativeAsset, 1)
			},
		},
		{
			name: "transfer into a full holder",
			fn: func(tx *Tx) error {
				_, err := tx.Transfer(ctx, model.Transfer{
					Asset: model.NativeAsset, From: "tg:2", To: "tg:1", Amount: 5,
					Authorization: model.SignerAuthorization("tg:2"),
				})
				return err
			},
		},
		{
			name: "amount outside storage range",
			fn: func(tx *Tx) error {
				return tx.Credit(ctx, "tg:3", model.NativeAsset, math.MaxUint64)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := repo.Atomic(ctx, tt.fn)
			assert.ErrorIs(t, err, ErrAmountTooLarge)

			assert.Equal(t, uint64(math.MaxInt64), balance("tg:1"))
			assert.Equal(t, uint64(10), balance("tg:2"))
			assert.Zero(t, balance("tg:3"))
		})
	}
}
