package rewards

import (
	"github.com/Soltrivia-App/soltrivia-contract/internal/model"
)

// Assessment is the result of an eligibility calculation.
type Assessment struct {
	Claim      model.UserClaim
	Calculated uint64
	Created    bool
}

// Assess computes user's eligibility in pool and returns the claim record to
// store. existing is nil when the user has no claim record yet; participants
// is the number of claim records already open in the pool.
//
// Recalculation replaces total_eligible but never lowers it below what the
// user has already claimed.
func Assess(
	pool model.RewardPool,
	existing *model.UserClaim,
	user model.Identity,
	data model.PerformanceData,
	participants uint64,
	now int64,
) (Assessment, error) {
	if !pool.Active {
		return Assessment{}, model.ErrPoolNotActive
	}
	if err := pool.InWindow(now); err != nil {
		return Assessment{}, err
	}
	if err := data.Validate(); err != nil {
		return Assessment{}, err
	}
	if data.AchievementProfile != nil && *data.AchievementProfile != user {
		return Assessment{}, model.ErrInvalidAchievementProfile
	}

	calculated, err := Calculate(pool, data)
	if err != nil {
		return Assessment{}, err
	}

	var claim model.UserClaim
	created := existing == nil
	if created {
		if pool.DistributionCriteria == model.DistributionEqualShare && participants >= pool.ExpectedParticipants {
			return Assessment{}, model.ErrParticipantLimitReached
		}
		claim = model.UserClaim{PoolID: pool.ID, User: user}
	} else {
		claim = *existing
	}

	claim.TotalEligible = max(calculated, claim.AmountClaimed)

	return Assessment{Claim: claim, Calculated: calculated, Created: created}, nil
}

// Payout is the result of a successful claim. Amount must be settled from
// the vault to the user in the same unit of work that stores the records.
type Payout struct {
	Pool   model.RewardPool
	Claim  model.UserClaim
	Amount uint64
}

// Claim pays out everything the user is eligible for and has not claimed.
func Claim(pool model.RewardPool, claim model.UserClaim, now int64) (Payout, error) {
	if !pool.Active {
		return Payout{}, model.ErrPoolNotActive
	}
	if err := pool.InWindow(now); err != nil {
		return Payout{}, err
	}

	amount := claim.Claimable()
	if amount == 0 {
		return Payout{}, model.ErrNothingToClaim
	}
	if pool.DistributedRewards > pool.TotalRewards || amount > pool.Remaining() {
		return Payout{}, model.ErrInsufficientPoolFunds
	}
	if pool.RewardType == model.RewardNonFungible {
		return Payout{}, model.ErrNFTClaimUnsupported
	}

	pool.DistributedRewards += amount
	claim.AmountClaimed += amount
	claim.LastClaimTime = now

	return Payout{Pool: pool, Claim: claim, Amount: amount}, nil
}

// ClaimableAmount is what the user could claim now, or 0 without a record.
func ClaimableAmount(claim *model.UserClaim) uint64 {
	if claim == nil {
		return 0
	}
	return claim.Claimable()
}
