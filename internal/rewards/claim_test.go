package rewards

import (
	"context"
	"testing"

	"github.com/Soltrivia-App/soltrivia-contract/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openPool(criteria model.DistributionCriteria) model.RewardPool {
	return model.RewardPool{
		ID:                   3,
		Authority:            authority,
		TotalRewards:         10_000,
		RewardType:           model.RewardNative,
		DistributionCriteria: criteria,
		ExpectedParticipants: 2,
		StartTime:            now - 60,
		EndTime:              now + 60,
		Active:               true,
	}
}

func TestAssess(t *testing.T) {
	pool := openPool(model.DistributionAchievementBased)
	data := model.PerformanceData{AchievementsUnlocked: 3}

	first, err := Assess(pool, nil, player, data, 0, now)
	require.NoError(t, err)
	assert.True(t, first.Created)
	assert.Equal(t, uint64(300), first.Calculated)
	assert.Equal(t, uint64(300), first.Claim.TotalEligible)
	assert.Equal(t, player, first.Claim.User)

	again, err := Assess(pool, &first.Claim, player, data, 1, now)
	require.NoError(t, err)
	assert.False(t, again.Created)
	assert.Equal(t, first.Claim.TotalEligible, again.Claim.TotalEligible)
}

func TestAssess_NeverBelowClaimed(t *testing.T) {
	pool := openPool(model.DistributionAchievementBased)
	existing := model.UserClaim{PoolID: pool.ID, User: player, AmountClaimed: 500, TotalEligible: 500}

	got, err := Assess(pool, &existing, player, model.PerformanceData{AchievementsUnlocked: 1}, 1, now)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), got.Calculated)
	assert.Equal(t, uint64(500), got.Claim.TotalEligible)
	assert.Zero(t, got.Claim.Claimable())
}

func TestAssess_Failures(t *testing.T) {
	other := model.Identity("tg:300")

	tests := []struct {
		name     string
		pool     func() model.RewardPool
		data     model.PerformanceData
		at       int64
		expected error
	}{
		{
			name:     "inactive",
			pool:     func() model.RewardPool { p := openPool(model.DistributionRandomDrop); p.Active = false; return p },
			at:       now,
			expected: model.ErrPoolNotActive,
		},
		{
			name:     "before start",
			pool:     func() model.RewardPool { return openPool(model.DistributionRandomDrop) },
			at:       now - 61,
			expected: model.ErrClaimPeriodNotStarted,
		},
		{
			name:     "after end",
			pool:     func() model.RewardPool { return openPool(model.DistributionRandomDrop) },
			at:       now + 61,
			expected: model.ErrClaimPeriodEnded,
		},
		{
			name:     "score out of range",
			pool:     func() model.RewardPool { return openPool(model.DistributionPerformanceBased) },
			data:     model.PerformanceData{Score: 101},
			at:       now,
			expected: model.ErrInvalidPerformanceData,
		},
		{
			name:     "negative completion time",
			pool:     func() model.RewardPool { return openPool(model.DistributionPerformanceBased) },
			data:     model.PerformanceData{CompletionTime: -1},
			at:       now,
			expected: model.ErrInvalidPerformanceData,
		},
		{
			name:     "too many achievements",
			pool:     func() model.RewardPool { return openPool(model.DistributionAchievementBased) },
			data:     model.PerformanceData{AchievementsUnlocked: 1001},
			at:       now,
			expected: model.ErrInvalidPerformanceData,
		},
		{
			name:     "foreign achievement profile",
			pool:     func() model.RewardPool { return openPool(model.DistributionAchievementBased) },
			data:     model.PerformanceData{AchievementProfile: &other},
			at:       now,
			expected: model.ErrInvalidAchievementProfile,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Assess(tt.pool(), nil, player, tt.data, 0, tt.at)
			assert.ErrorIs(t, err, tt.expected)
		})
	}
}

func TestAssess_EqualShareParticipantLimit(t *testing.T) {
	pool := openPool(model.DistributionEqualShare)

	got, err := Assess(pool, nil, player, model.PerformanceData{}, 1, now)
	require.NoError(t, err)
	assert.Equal(t, uint64(5000), got.Claim.TotalEligible)

	_, err = Assess(pool, nil, player, model.PerformanceData{}, 2, now)
	assert.ErrorIs(t, err, model.ErrParticipantLimitReached)

	// Existing participants may recalculate when the pool is full.
	_, err = Assess(pool, &got.Claim, player, model.PerformanceData{}, 2, now)
	assert.NoError(t, err)
}

func TestClaim(t *testing.T) {
	pool := openPool(model.DistributionAchievementBased)
	claim := model.UserClaim{PoolID: pool.ID, User: player, TotalEligible: 700}

	payout, err := Claim(pool, claim, now)
	require.NoError(t, err)
	assert.Equal(t, uint64(700), payout.Amount)
	assert.Equal(t, uint64(700), payout.Pool.DistributedRewards)
	assert.Equal(t, uint64(700), payout.Claim.AmountClaimed)
	assert.Equal(t, now, payout.Claim.LastClaimTime)
	assert.Equal(t, uint64(700), payout.Claim.TotalEligible)

	_, err = Claim(payout.Pool, payout.Claim, now)
	assert.ErrorIs(t, err, model.ErrNothingToClaim)
}

func TestClaim_Failures(t *testing.T) {
	claim := model.UserClaim{PoolID: 3, User: player, TotalEligible: 700}

	drained := openPool(model.DistributionAchievementBased)
	drained.DistributedRewards = 9_500

	nft := openPool(model.DistributionAchievementBased)
	nft.RewardType = model.RewardNonFungible

	closed := openPool(model.DistributionAchievementBased)
	closed.Active = false

	_, err := Claim(drained, claim, now)
	assert.ErrorIs(t, err, model.ErrInsufficientPoolFunds)

	_, err = Claim(nft, claim, now)
	assert.ErrorIs(t, err, model.ErrNFTClaimUnsupported)

	_, err = Claim(closed, claim, now)
	assert.ErrorIs(t, err, model.ErrPoolNotActive)

	_, err = Claim(openPool(model.DistributionAchievementBased), claim, now+61)
	assert.ErrorIs(t, err, model.ErrClaimPeriodEnded)
}

func TestClaimableAmount(t *testing.T) {
	assert.Zero(t, ClaimableAmount(nil))
	assert.Equal(t, uint64(40), ClaimableAmount(&model.UserClaim{TotalEligible: 100, AmountClaimed: 60}))
}

func TestBasicVerifier(t *testing.T) {
	v := BasicVerifier{}
	ctx := context.Background()

	ok, err := v.Verify(ctx, player, model.AchievementData{
		ProfileOwner: player,
		Achievements: []model.Achievement{{ID: "first-win", Points: 10, Timestamp: now}},
	})
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = v.Verify(ctx, player, model.AchievementData{ProfileOwner: authority})
	assert.ErrorIs(t, err, model.ErrInvalidAchievementProfile)

	_, err = v.Verify(ctx, player, model.AchievementData{
		ProfileOwner: player,
		Achievements: make([]model.Achievement, model.MaxVerifiedAchievements+1),
	})
	assert.ErrorIs(t, err, model.ErrTooManyAchievements)

	_, err = v.Verify(ctx, player, model.AchievementData{
		ProfileOwner: player,
		Achievements: []model.Achievement{{ID: "x", Timestamp: 0}},
	})
	assert.ErrorIs(t, err, model.ErrInvalidAchievementData)
}
