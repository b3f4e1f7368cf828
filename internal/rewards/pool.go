// Package rewards implements reward pool and claim ledger transitions.
//
// Like curation, transitions are pure: they take record values and return
// new ones, and never touch balances. The caller settles the returned
// amounts and persists the records in the same unit of work.
package rewards

import (
	"unicode/utf8"

	"github.com/Soltrivia-App/soltrivia-contract/internal/address"
	"github.com/Soltrivia-App/soltrivia-contract/internal/model"

	"golang.org/x/text/unicode/norm"
)

// ValidatePoolData checks a creation request against the current time and
// returns it with the name normalized.
func ValidatePoolData(data model.PoolData, now int64) (model.PoolData, error) {
	data.Name = norm.NFC.String(data.Name)
	if utf8.RuneCountInString(data.Name) > model.MaxPoolNameLength {
		return data, model.ErrInvalidPoolName
	}
	if data.StartTime <= now {
		return data, model.ErrInvalidStartTime
	}
	if data.EndTime <= data.StartTime {
		return data, model.ErrInvalidEndTime
	}
	if data.TotalRewards == 0 {
		return data, model.ErrInvalidRewardAmount
	}
	if !data.RewardType.Valid() {
		return data, model.ErrInvalidRewardType
	}
	if !data.DistributionCriteria.Valid() {
		return data, model.ErrInvalidDistribution
	}
	if data.RewardType == model.RewardToken && (data.TokenIdentity == nil || *data.TokenIdentity == "") {
		return data, model.ErrMissingTokenIdentity
	}
	if data.RewardType != model.RewardToken {
		data.TokenIdentity = nil
	}
	if data.DistributionCriteria == model.DistributionEqualShare && data.ExpectedParticipants == 0 {
		return data, model.ErrInvalidParticipants
	}
	return data, nil
}

// NewPool creates an active pool and its vault. Funding is not part of the
// pool record; initialFunding is only checked for support by reward type.
func NewPool(
	authority model.Identity,
	data model.PoolData,
	initialFunding uint64,
	now int64,
) (model.RewardPool, model.RewardVault, error) {
	if authority == "" {
		return model.RewardPool{}, model.RewardVault{}, model.ErrUnauthorizedAuthority
	}

	data, err := ValidatePoolData(data, now)
	if err != nil {
		return model.RewardPool{}, model.RewardVault{}, err
	}
	if initialFunding > 0 && data.RewardType == model.RewardNonFungible {
		return model.RewardPool{}, model.RewardVault{}, model.ErrNFTFundingUnsupported
	}
	// The vault may never hold more than the pool can pay out.
	if initialFunding > data.TotalRewards {
		return model.RewardPool{}, model.RewardVault{}, model.ErrInvalidRewardAmount
	}

	pool := model.RewardPool{
		ID:                   data.ID,
		Authority:            authority,
		Name:                 data.Name,
		TotalRewards:         data.TotalRewards,
		RewardType:           data.RewardType,
		TokenIdentity:        data.TokenIdentity,
		DistributionCriteria: data.DistributionCriteria,
		ExpectedParticipants: data.ExpectedParticipants,
		StartTime:            data.StartTime,
		EndTime:              data.EndTime,
		Active:               true,
	}
	vault := model.RewardVault{
		Address: address.ForVault(data.ID).String(),
		PoolID:  data.ID,
	}

	return pool, vault, nil
}

// AssetOf reports the settlement asset of pool. Non-fungible pools have none.
func AssetOf(pool model.RewardPool) (model.Asset, error) {
	switch pool.RewardType {
	case model.RewardNative:
		return model.NativeAsset, nil
	case model.RewardToken:
		if pool.TokenIdentity == nil || *pool.TokenIdentity == "" {
			return "", model.ErrMissingTokenIdentity
		}
		return model.Asset(*pool.TokenIdentity), nil
	case model.RewardNonFungible:
		return "", model.ErrNFTClaimUnsupported
	default:
		return "", model.ErrInvalidRewardType
	}
}

// VaultAuthorization is the derived-authority proof a vault presents to move
// its own funds.
func VaultAuthorization(poolID uint64) model.Authorization {
	return model.DerivedAuthorization(address.RewardVault, poolID)
}

// Fund adds amount to the pool's nominal rewards.
func Fund(pool model.RewardPool, amount uint64) (model.RewardPool, error) {
	if !pool.Active {
		return pool, model.ErrPoolNotActive
	}
	if amount == 0 {
		return pool, model.ErrInvalidRewardAmount
	}
	if pool.RewardType == model.RewardNonFungible {
		return pool, model.ErrNFTFundingUnsupported
	}
	if pool.TotalRewards > pool.TotalRewards+amount {
		return pool, model.ErrInvalidRewardAmount
	}

	pool.TotalRewards += amount
	return pool, nil
}

// UpdateCriteria switches the distribution formula before the pool opens.
func UpdateCriteria(
	pool model.RewardPool,
	caller model.Identity,
	criteria model.DistributionCriteria,
	expectedParticipants uint64,
	now int64,
) (model.RewardPool, error) {
	if caller != pool.Authority {
		return pool, model.ErrUnauthorizedAuthority
	}
	if now >= pool.StartTime {
		return pool, model.ErrCannotUpdateActivePool
	}
	if !criteria.Valid() {
		return pool, model.ErrInvalidDistribution
	}
	if expectedParticipants > 0 {
		pool.ExpectedParticipants = expectedParticipants
	}
	if criteria == model.DistributionEqualShare && pool.ExpectedParticipants == 0 {
		return pool, model.ErrInvalidParticipants
	}

	pool.DistributionCriteria = criteria
	return pool, nil
}

// Closure is the result of closing a pool.
type Closure struct {
	Pool   model.RewardPool
	Refund uint64
}

// Close deactivates an ended pool. The refund is the undistributed
// remainder, bounded by what the vault actually holds.
func Close(pool model.RewardPool, caller model.Identity, vaultBalance uint64, now int64) (Closure, error) {
	if caller != pool.Authority {
		return Closure{}, model.ErrUnauthorizedAuthority
	}
	if !pool.Active {
		return Closure{}, model.ErrPoolNotActive
	}
	if now <= pool.EndTime {
		return Closure{}, model.ErrPoolStillActive
	}

	refund := min(pool.Remaining(), vaultBalance)
	if pool.RewardType == model.RewardNonFungible {
		refund = 0
	}

	pool.Active = false
	return Closure{Pool: pool, Refund: refund}, nil
}
