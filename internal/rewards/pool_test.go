package rewards

import (
	"strings"
	"testing"

	"github.com/Soltrivia-App/soltrivia-contract/internal/address"
	"github.com/Soltrivia-App/soltrivia-contract/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	now       int64          = 1_700_000_000
	authority model.Identity = "tg:100"
	player    model.Identity = "tg:200"
)

func validPoolData() model.PoolData {
	return model.PoolData{
		ID:                   9,
		Name:                 "Weekly quiz",
		TotalRewards:         10_000,
		RewardType:           model.RewardNative,
		DistributionCriteria: model.DistributionAchievementBased,
		StartTime:            now + 60,
		EndTime:              now + 3600,
	}
}

func TestNewPool(t *testing.T) {
	pool, vault, err := NewPool(authority, validPoolData(), 500, now)
	require.NoError(t, err)

	assert.True(t, pool.Active)
	assert.Equal(t, authority, pool.Authority)
	assert.Equal(t, uint64(10_000), pool.TotalRewards)
	assert.Zero(t, pool.DistributedRewards)
	assert.Equal(t, address.ForVault(9).String(), vault.Address)
	assert.Equal(t, uint64(9), vault.PoolID)
}

func TestNewPool_Validation(t *testing.T) {
	token := "USDC"
	empty := ""

	tests := []struct {
		name     string
		mutate   func(d *model.PoolData)
		funding  uint64
		expected error
	}{
		{name: "name too long", mutate: func(d *model.PoolData) { d.Name = strings.Repeat("n", 51) }, expected: model.ErrInvalidPoolName},
		{name: "start in the past", mutate: func(d *model.PoolData) { d.StartTime = now }, expected: model.ErrInvalidStartTime},
		{name: "end before start", mutate: func(d *model.PoolData) { d.EndTime = d.StartTime }, expected: model.ErrInvalidEndTime},
		{name: "zero rewards", mutate: func(d *model.PoolData) { d.TotalRewards = 0 }, expected: model.ErrInvalidRewardAmount},
		{name: "unknown type", mutate: func(d *model.PoolData) { d.RewardType = "gold" }, expected: model.ErrInvalidRewardType},
		{name: "unknown criteria", mutate: func(d *model.PoolData) { d.DistributionCriteria = "lottery" }, expected: model.ErrInvalidDistribution},
		{name: "token without identity", mutate: func(d *model.PoolData) { d.RewardType = model.RewardToken }, expected: model.ErrMissingTokenIdentity},
		{name: "token with empty identity", mutate: func(d *model.PoolData) { d.RewardType = model.RewardToken; d.TokenIdentity = &empty }, expected: model.ErrMissingTokenIdentity},
		{name: "equal share without participants", mutate: func(d *model.PoolData) { d.DistributionCriteria = model.DistributionEqualShare }, expected: model.ErrInvalidParticipants},
		{name: "nft funding", mutate: func(d *model.PoolData) { d.RewardType = model.RewardNonFungible }, funding: 1, expected: model.ErrNFTFundingUnsupported},
		{name: "funding above total rewards", funding: 10_001, expected: model.ErrInvalidRewardAmount},
		{name: "funding equal to total rewards", funding: 10_000},
		{name: "partial funding", funding: 1},
		{name: "nft without funding", mutate: func(d *model.PoolData) { d.RewardType = model.RewardNonFungible }},
		{name: "token pool", mutate: func(d *model.PoolData) { d.RewardType = model.RewardToken; d.TokenIdentity = &token }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := validPoolData()
			if tt.mutate != nil {
				tt.mutate(&data)
			}

			_, _, err := NewPool(authority, data, tt.funding, now)
			if tt.expected == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.expected)
		})
	}
}

func TestAssetOf(t *testing.T) {
	token := "USDC"

	asset, err := AssetOf(model.RewardPool{RewardType: model.RewardNative})
	require.NoError(t, err)
	assert.Equal(t, model.NativeAsset, asset)

	asset, err = AssetOf(model.RewardPool{RewardType: model.RewardToken, TokenIdentity: &token})
	require.NoError(t, err)
	assert.Equal(t, model.Asset("USDC"), asset)

	_, err = AssetOf(model.RewardPool{RewardType: model.RewardNonFungible})
	assert.ErrorIs(t, err, model.ErrNFTClaimUnsupported)
}

func TestFund(t *testing.T) {
	pool, _, err := NewPool(authority, validPoolData(), 0, now)
	require.NoError(t, err)

	funded, err := Fund(pool, 250)
	require.NoError(t, err)
	assert.Equal(t, uint64(10_250), funded.TotalRewards)
	assert.Equal(t, uint64(10_000), pool.TotalRewards)

	_, err = Fund(pool, 0)
	assert.ErrorIs(t, err, model.ErrInvalidRewardAmount)

	closed := pool
	closed.Active = false
	_, err = Fund(closed, 1)
	assert.ErrorIs(t, err, model.ErrPoolNotActive)
}

func TestUpdateCriteria(t *testing.T) {
	pool, _, err := NewPool(authority, validPoolData(), 0, now)
	require.NoError(t, err)

	_, err = UpdateCriteria(pool, player, model.DistributionRandomDrop, 0, now)
	assert.ErrorIs(t, err, model.ErrUnauthorizedAuthority)

	_, err = UpdateCriteria(pool, authority, model.DistributionRandomDrop, 0, pool.StartTime)
	assert.ErrorIs(t, err, model.ErrCannotUpdateActivePool)

	_, err = UpdateCriteria(pool, authority, model.DistributionEqualShare, 0, now)
	assert.ErrorIs(t, err, model.ErrInvalidParticipants)

	updated, err := UpdateCriteria(pool, authority, model.DistributionEqualShare, 20, now)
	require.NoError(t, err)
	assert.Equal(t, model.DistributionEqualShare, updated.DistributionCriteria)
	assert.Equal(t, uint64(20), updated.ExpectedParticipants)
}

func TestClose(t *testing.T) {
	pool, _, err := NewPool(authority, validPoolData(), 0, now)
	require.NoError(t, err)
	pool.DistributedRewards = 4000

	_, err = Close(pool, player, 6000, pool.EndTime+1)
	assert.ErrorIs(t, err, model.ErrUnauthorizedAuthority)

	_, err = Close(pool, authority, 6000, pool.EndTime)
	assert.ErrorIs(t, err, model.ErrPoolStillActive)

	closure, err := Close(pool, authority, 6000, pool.EndTime+1)
	require.NoError(t, err)
	assert.False(t, closure.Pool.Active)
	assert.Equal(t, uint64(6000), closure.Refund)

	underfunded, err := Close(pool, authority, 1500, pool.EndTime+1)
	require.NoError(t, err)
	assert.Equal(t, uint64(1500), underfunded.Refund)

	_, err = Close(closure.Pool, authority, 0, pool.EndTime+1)
	assert.ErrorIs(t, err, model.ErrPoolNotActive)
}
