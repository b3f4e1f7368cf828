package rewards

import (
	"math"
	"testing"

	"github.com/Soltrivia-App/soltrivia-contract/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func poolWith(criteria model.DistributionCriteria, total uint64) model.RewardPool {
	return model.RewardPool{
		ID:                   1,
		TotalRewards:         total,
		RewardType:           model.RewardNative,
		DistributionCriteria: criteria,
		ExpectedParticipants: 4,
		Active:               true,
	}
}

func TestCalculate(t *testing.T) {
	tests := []struct {
		name     string
		criteria model.DistributionCriteria
		total    uint64
		data     model.PerformanceData
		expected uint64
	}{
		{
			name:     "perfect score without timing truncates to zero",
			criteria: model.DistributionPerformanceBased,
			total:    1000,
			data:     model.PerformanceData{Score: 100},
			expected: 0,
		},
		{
			name:     "performance with fast completion",
			criteria: model.DistributionPerformanceBased,
			total:    1_000_000,
			// 1000 * 4 * (120 - 10) / 100
			data:     model.PerformanceData{Score: 95, CompletionTime: 600},
			expected: 4400,
		},
		{
			name:     "performance slow completion floors bonus at one",
			criteria: model.DistributionPerformanceBased,
			total:    1_000_000,
			data:     model.PerformanceData{Score: 60, CompletionTime: 10 * 3600},
			expected: 20,
		},
		{
			name:     "performance capped at a tenth",
			criteria: model.DistributionPerformanceBased,
			total:    10_000,
			// 10 * 5 * 119 / 100 = 59, under the cap of 1000
			data:     model.PerformanceData{Score: 100, CompletionTime: 60},
			expected: 59,
		},
		{
			name:     "staking counts whole days",
			criteria: model.DistributionStakingRewards,
			total:    365_000,
			data:     model.PerformanceData{StakingDuration: 3*86400 + 86399},
			expected: 3000,
		},
		{
			name:     "staking capped at a tenth",
			criteria: model.DistributionStakingRewards,
			total:    365_000,
			data:     model.PerformanceData{StakingDuration: 400 * 86400},
			expected: 36_500,
		},
		{
			name:     "achievements",
			criteria: model.DistributionAchievementBased,
			total:    10_000,
			data:     model.PerformanceData{AchievementsUnlocked: 7},
			expected: 700,
		},
		{
			name:     "achievements capped at a fifth",
			criteria: model.DistributionAchievementBased,
			total:    10_000,
			data:     model.PerformanceData{AchievementsUnlocked: 1000},
			expected: 2000,
		},
		{
			name:     "random drop hit",
			criteria: model.DistributionRandomDrop,
			total:    5000,
			data:     model.PerformanceData{RandomSeed: 1209},
			expected: 100,
		},
		{
			name:     "random drop miss",
			criteria: model.DistributionRandomDrop,
			total:    5000,
			data:     model.PerformanceData{RandomSeed: 1210},
			expected: 0,
		},
		{
			name:     "equal share divides by expected participants",
			criteria: model.DistributionEqualShare,
			total:    1000,
			expected: 250,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Calculate(poolWith(tt.criteria, tt.total), tt.data)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestCalculate_Overflow(t *testing.T) {
	total := uint64(math.MaxUint64)

	got, err := Calculate(poolWith(model.DistributionStakingRewards, total), model.PerformanceData{StakingDuration: math.MaxInt64})
	require.NoError(t, err)
	assert.Equal(t, total/10, got)

	got, err = Calculate(poolWith(model.DistributionAchievementBased, total), model.PerformanceData{AchievementsUnlocked: math.MaxUint32})
	require.NoError(t, err)
	assert.Equal(t, total/5, got)

	tests := []struct {
		name     string
		data     model.PerformanceData
		expected uint64
	}{
		{
			name:     "top score with full time bonus",
			data:     model.PerformanceData{Score: 100, CompletionTime: 1},
			expected: 110680464442257306,
		},
		{
			name:     "lowest tier without timing",
			data:     model.PerformanceData{Score: 10},
			expected: 184467440737095,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Calculate(poolWith(model.DistributionPerformanceBased, total), tt.data)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
			assert.Less(t, got, total/10)
		})
	}
}

func TestCalculate_UnknownCriteria(t *testing.T) {
	_, err := Calculate(poolWith("lottery", 1000), model.PerformanceData{})
	assert.ErrorIs(t, err, model.ErrInvalidDistribution)
}

func TestScoreMultiplier(t *testing.T) {
	tests := map[uint32]uint64{
		0: 1, 50: 1, 51: 2, 75: 2, 76: 3, 90: 3, 91: 4, 99: 4, 100: 5,
	}
	for score, expected := range tests {
		assert.Equal(t, expected, scoreMultiplier(score), "score %d", score)
	}
}
