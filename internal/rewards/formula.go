package rewards

import (
	"math/bits"

	"github.com/Soltrivia-App/soltrivia-contract/internal/model"
)

const (
	secondsPerDay    = 86400
	daysPerYear      = 365
	randomDropChance = 10
)

// Calculate returns the amount pool would award for data. Every formula is
// integer arithmetic with truncation after each step, in the order written.
func Calculate(pool model.RewardPool, data model.PerformanceData) (uint64, error) {
	total := pool.TotalRewards

	switch pool.DistributionCriteria {
	case model.DistributionEqualShare:
		if pool.ExpectedParticipants == 0 {
			return 0, model.ErrInvalidParticipants
		}
		return total / pool.ExpectedParticipants, nil

	case model.DistributionPerformanceBased:
		// weighted is at most total/200 and the bonus at most 120, so the
		// product stays below total.
		weighted := (total / 1000) * scoreMultiplier(data.Score)
		amount := weighted * timeBonus(data.CompletionTime) / 100
		return min(amount, total/10), nil

	case model.DistributionStakingRewards:
		days := uint64(data.StakingDuration) / secondsPerDay
		return mulCapped(total/daysPerYear, days, total/10), nil

	case model.DistributionAchievementBased:
		return mulCapped(total/100, uint64(data.AchievementsUnlocked), total/5), nil

	case model.DistributionRandomDrop:
		if data.RandomSeed%100 < randomDropChance {
			return total / 50, nil
		}
		return 0, nil

	default:
		return 0, model.ErrInvalidDistribution
	}
}

// scoreMultiplier buckets a 0..100 score into tiers 1..5.
func scoreMultiplier(score uint32) uint64 {
	switch {
	case score >= 100:
		return 5
	case score >= 91:
		return 4
	case score >= 76:
		return 3
	case score >= 51:
		return 2
	default:
		return 1
	}
}

// timeBonus rewards fast completion: 120 minus elapsed minutes, at least 1.
// A zero completion time means no timing was recorded.
func timeBonus(completionTime int64) uint64 {
	if completionTime <= 0 {
		return 1
	}
	bonus := 120 - completionTime/60
	if bonus < 1 {
		return 1
	}
	return uint64(bonus)
}

// mulCapped multiplies a and b, returning limit when the product overflows or
// exceeds it.
func mulCapped(a, b, limit uint64) uint64 {
	hi, lo := bits.Mul64(a, b)
	if hi != 0 || lo > limit {
		return limit
	}
	return lo
}
