package service

import (
	"context"
	"errors"

	"github.com/Soltrivia-App/soltrivia-contract/internal/events"
	"github.com/Soltrivia-App/soltrivia-contract/internal/model"
	"github.com/Soltrivia-App/soltrivia-contract/internal/repository"
	"github.com/Soltrivia-App/soltrivia-contract/internal/rewards"
	"github.com/Soltrivia-App/soltrivia-contract/pkg/logger"
	"go.uber.org/zap"

	"github.com/jonboulle/clockwork"
)

// PoolSummary is a pool together with its vault holdings.
type PoolSummary struct {
	Pool         model.RewardPool
	Vault        model.RewardVault
	Asset        model.Asset
	VaultBalance uint64
	Refunded     uint64
}

// Eligibility is a user's claim record after a calculation or a claim.
type Eligibility struct {
	Claim      model.UserClaim
	Calculated uint64
	Paid       uint64
}

type RewardService struct {
	ledger   Ledger
	clock    clockwork.Clock
	events   Publisher
	verifier AchievementVerifier
	log      *zap.Logger
}

func NewRewardService(ledger Ledger, clock clockwork.Clock, publisher Publisher, verifier AchievementVerifier) *RewardService {
	if verifier == nil {
		verifier = rewards.BasicVerifier{}
	}
	return &RewardService{
		ledger:   ledger,
		clock:    clock,
		events:   publisher,
		verifier: verifier,
		log:      logger.Named("rewards"),
	}
}

// CreatePool creates the pool and its vault and moves initialFunding from
// the authority into the vault.
func (s *RewardService) CreatePool(
	ctx context.Context,
	authority model.Identity,
	data model.PoolData,
	initialFunding uint64,
) (PoolSummary, error) {
	now := s.clock.Now().Unix()
	var summary PoolSummary

	err := s.ledger.Atomic(ctx, func(tx LedgerTx) error {
		pool, vault, err := rewards.NewPool(authority, data, initialFunding, now)
		if err != nil {
			return err
		}

		if pool, err = tx.CreatePool(ctx, pool); err != nil {
			if errors.Is(err, repository.ErrAlreadyExists) {
				return model.ErrPoolAlreadyExists
			}
			return storeError(err, nil)
		}
		if err := tx.CreateVault(ctx, vault); err != nil {
			if errors.Is(err, repository.ErrAlreadyExists) {
				return model.ErrPoolAlreadyExists
			}
			return storeError(err, nil)
		}

		if initialFunding > 0 {
			if err := s.settle(ctx, tx, pool, authority.String(), vault.Address, initialFunding, model.SignerAuthorization(authority)); err != nil {
				return err
			}
		}

		summary, err = summarize(ctx, tx, pool, vault)
		return err
	})
	if err != nil {
		return PoolSummary{}, err
	}

	s.log.Info("reward pool created",
		zap.Uint64("pool_id", summary.Pool.ID),
		zap.String("authority", authority.String()),
		zap.String("criteria", string(summary.Pool.DistributionCriteria)),
		zap.Uint64("initial_funding", initialFunding))
	s.publish(ctx, events.PoolCreated, authority, map[string]any{
		"pool_id":       summary.Pool.ID,
		"name":          summary.Pool.Name,
		"total_rewards": summary.Pool.TotalRewards,
		"criteria":      summary.Pool.DistributionCriteria,
	})

	return summary, nil
}

func (s *RewardService) GetPool(ctx context.Context, id uint64) (PoolSummary, error) {
	var summary PoolSummary
	err := s.ledger.Atomic(ctx, func(tx LedgerTx) error {
		pool, vault, err := loadPool(ctx, tx, id)
		if err != nil {
			return err
		}
		summary, err = summarize(ctx, tx, pool, vault)
		return err
	})
	return summary, err
}

func (s *RewardService) FundPool(ctx context.Context, poolID uint64, funder model.Identity, amount uint64) (PoolSummary, error) {
	var summary PoolSummary

	err := s.ledger.Atomic(ctx, func(tx LedgerTx) error {
		pool, vault, err := loadPool(ctx, tx, poolID)
		if err != nil {
			return err
		}

		funded, err := rewards.Fund(pool, amount)
		if err != nil {
			return err
		}

		if err := s.settle(ctx, tx, pool, funder.String(), vault.Address, amount, model.SignerAuthorization(funder)); err != nil {
			return err
		}

		if funded, err = tx.SavePool(ctx, funded); err != nil {
			return storeError(err, nil)
		}

		summary, err = summarize(ctx, tx, funded, vault)
		return err
	})
	if err != nil {
		return PoolSummary{}, err
	}

	s.log.Info("reward pool funded",
		zap.Uint64("pool_id", poolID),
		zap.String("funder", funder.String()),
		zap.Uint64("amount", amount))
	s.publish(ctx, events.PoolFunded, funder, map[string]any{
		"pool_id":       poolID,
		"amount":        amount,
		"total_rewards": summary.Pool.TotalRewards,
	})

	return summary, nil
}

func (s *RewardService) UpdateDistributionCriteria(
	ctx context.Context,
	poolID uint64,
	caller model.Identity,
	criteria model.DistributionCriteria,
	expectedParticipants uint64,
) (model.RewardPool, error) {
	now := s.clock.Now().Unix()
	var pool model.RewardPool

	err := s.ledger.Atomic(ctx, func(tx LedgerTx) error {
		current, err := tx.GetPool(ctx, poolID)
		if err != nil {
			return storeError(err, model.ErrPoolNotFound)
		}

		next, err := rewards.UpdateCriteria(current, caller, criteria, expectedParticipants, now)
		if err != nil {
			return err
		}

		pool, err = tx.SavePool(ctx, next)
		return storeError(err, nil)
	})
	if err != nil {
		return model.RewardPool{}, err
	}

	s.log.Info("distribution criteria updated",
		zap.Uint64("pool_id", poolID),
		zap.String("criteria", string(criteria)))
	s.publish(ctx, events.CriteriaUpdated, caller, map[string]any{
		"pool_id":  poolID,
		"criteria": criteria,
	})

	return pool, nil
}

// CalculateRewards records the user's eligibility. Recalculation is allowed
// and replaces the previous amount, floored at what was already claimed.
func (s *RewardService) CalculateRewards(
	ctx context.Context,
	poolID uint64,
	user model.Identity,
	data model.PerformanceData,
) (Eligibility, error) {
	now := s.clock.Now().Unix()
	var result Eligibility

	err := s.ledger.Atomic(ctx, func(tx LedgerTx) error {
		pool, err := tx.GetPool(ctx, poolID)
		if err != nil {
			return storeError(err, model.ErrPoolNotFound)
		}

		var existing *model.UserClaim
		claim, err := tx.GetClaim(ctx, poolID, user)
		switch {
		case err == nil:
			existing = &claim
		case !errors.Is(err, repository.ErrNotFound):
			return err
		}

		var participants uint64
		if existing == nil && pool.DistributionCriteria == model.DistributionEqualShare {
			if participants, err = tx.CountClaims(ctx, poolID); err != nil {
				return err
			}
		}

		assessment, err := rewards.Assess(pool, existing, user, data, participants, now)
		if err != nil {
			return err
		}

		if assessment.Created {
			if claim, err = tx.CreateClaim(ctx, assessment.Claim); err != nil {
				return storeError(err, nil)
			}
			// Equal share slots are counted per pool; bumping the pool
			// version makes concurrent new participants conflict.
			if pool.DistributionCriteria == model.DistributionEqualShare {
				if _, err := tx.SavePool(ctx, pool); err != nil {
					return storeError(err, nil)
				}
			}
		} else if claim, err = tx.SaveClaim(ctx, assessment.Claim); err != nil {
			return storeError(err, nil)
		}

		result = Eligibility{Claim: claim, Calculated: assessment.Calculated}
		return nil
	})
	if err != nil {
		return Eligibility{}, err
	}

	s.log.Info("rewards calculated",
		zap.Uint64("pool_id", poolID),
		zap.String("user", user.String()),
		zap.Uint64("calculated", result.Calculated),
		zap.Uint64("total_eligible", result.Claim.TotalEligible))
	s.publish(ctx, events.RewardsCalculated, user, map[string]any{
		"pool_id":        poolID,
		"calculated":     result.Calculated,
		"total_eligible": result.Claim.TotalEligible,
	})

	return result, nil
}

// Claim pays out the user's unclaimed eligibility from the pool vault.
func (s *RewardService) Claim(ctx context.Context, poolID uint64, user model.Identity) (Eligibility, error) {
	now := s.clock.Now().Unix()
	var result Eligibility

	err := s.ledger.Atomic(ctx, func(tx LedgerTx) error {
		pool, vault, err := loadPool(ctx, tx, poolID)
		if err != nil {
			return err
		}
		if !pool.Active {
			return model.ErrPoolNotActive
		}
		if err := pool.InWindow(now); err != nil {
			return err
		}

		claim, err := tx.GetClaim(ctx, poolID, user)
		if err != nil {
			return storeError(err, model.ErrClaimRecordNotFound)
		}

		payout, err := rewards.Claim(pool, claim, now)
		if err != nil {
			return err
		}

		err = s.settle(ctx, tx, pool, vault.Address, user.String(), payout.Amount, rewards.VaultAuthorization(poolID))
		if err != nil {
			return err
		}

		if _, err := tx.SavePool(ctx, payout.Pool); err != nil {
			return storeError(err, nil)
		}
		if claim, err = tx.SaveClaim(ctx, payout.Claim); err != nil {
			return storeError(err, nil)
		}

		result = Eligibility{Claim: claim, Paid: payout.Amount}
		return nil
	})
	if err != nil {
		return Eligibility{}, err
	}

	s.log.Info("rewards claimed",
		zap.Uint64("pool_id", poolID),
		zap.String("user", user.String()),
		zap.Uint64("amount", result.Paid))
	s.publish(ctx, events.RewardsClaimed, user, map[string]any{
		"pool_id": poolID,
		"amount":  result.Paid,
	})

	return result, nil
}

// GetClaimableAmount is zero for users without a claim record.
func (s *RewardService) GetClaimableAmount(ctx context.Context, poolID uint64, user model.Identity) (uint64, error) {
	var amount uint64

	err := s.ledger.Atomic(ctx, func(tx LedgerTx) error {
		if _, err := tx.GetPool(ctx, poolID); err != nil {
			return storeError(err, model.ErrPoolNotFound)
		}

		claim, err := tx.GetClaim(ctx, poolID, user)
		switch {
		case err == nil:
			amount = rewards.ClaimableAmount(&claim)
		case errors.Is(err, repository.ErrNotFound):
			amount = rewards.ClaimableAmount(nil)
		default:
			return err
		}
		return nil
	})

	return amount, err
}

// ClosePool deactivates an ended pool and refunds what the vault still holds
// of the undistributed rewards to the authority.
func (s *RewardService) ClosePool(ctx context.Context, poolID uint64, caller model.Identity) (PoolSummary, error) {
	now := s.clock.Now().Unix()
	var summary PoolSummary

	err := s.ledger.Atomic(ctx, func(tx LedgerTx) error {
		pool, vault, err := loadPool(ctx, tx, poolID)
		if err != nil {
			return err
		}

		var held uint64
		if asset, err := rewards.AssetOf(pool); err == nil {
			if held, err = tx.Balance(ctx, vault.Address, asset); err != nil {
				return err
			}
		}

		closure, err := rewards.Close(pool, caller, held, now)
		if err != nil {
			return err
		}

		if closure.Refund > 0 {
			err = s.settle(ctx, tx, pool, vault.Address, pool.Authority.String(), closure.Refund, rewards.VaultAuthorization(poolID))
			if err != nil {
				return err
			}
		}

		closed, err := tx.SavePool(ctx, closure.Pool)
		if err != nil {
			return storeError(err, nil)
		}

		summary, err = summarize(ctx, tx, closed, vault)
		summary.Refunded = closure.Refund
		return err
	})
	if err != nil {
		return PoolSummary{}, err
	}

	s.log.Info("reward pool closed",
		zap.Uint64("pool_id", poolID),
		zap.Uint64("refund", summary.Refunded))
	s.publish(ctx, events.PoolClosed, caller, map[string]any{
		"pool_id": poolID,
		"refund":  summary.Refunded,
	})

	return summary, nil
}

func (s *RewardService) VerifyAchievements(
	ctx context.Context,
	poolID uint64,
	caller model.Identity,
	data model.AchievementData,
) (bool, error) {
	err := s.ledger.Atomic(ctx, func(tx LedgerTx) error {
		_, err := tx.GetPool(ctx, poolID)
		return storeError(err, model.ErrPoolNotFound)
	})
	if err != nil {
		return false, err
	}

	return s.verifier.Verify(ctx, caller, data)
}

func (s *RewardService) Balance(ctx context.Context, holder string, asset model.Asset) (uint64, error) {
	var amount uint64
	err := s.ledger.Atomic(ctx, func(tx LedgerTx) error {
		var err error
		amount, err = tx.Balance(ctx, holder, asset)
		return err
	})
	return amount, err
}

// Deposit credits holder from outside the ledger and returns the new
// balance. Callers must restrict it to operators.
func (s *RewardService) Deposit(ctx context.Context, holder string, asset model.Asset, amount uint64) (uint64, error) {
	if holder == "" || asset == "" {
		return 0, model.ErrInvalidRewardAmount
	}

	var balance uint64
	err := s.ledger.Atomic(ctx, func(tx LedgerTx) error {
		if err := tx.Credit(ctx, holder, asset, amount); err != nil {
			return storeError(err, nil)
		}
		var err error
		balance, err = tx.Balance(ctx, holder, asset)
		return err
	})
	if err != nil {
		return 0, err
	}

	s.log.Info("deposit credited",
		zap.String("holder", holder),
		zap.String("asset", string(asset)),
		zap.Uint64("amount", amount))
	s.publish(ctx, events.Deposited, model.Identity(holder), map[string]any{
		"asset":  asset,
		"amount": amount,
	})

	return balance, nil
}

// settle moves amount of the pool's asset between holders.
func (s *RewardService) settle(
	ctx context.Context,
	tx LedgerTx,
	pool model.RewardPool,
	from, to string,
	amount uint64,
	auth model.Authorization,
) error {
	asset, err := rewards.AssetOf(pool)
	if err != nil {
		return err
	}

	_, err = tx.Transfer(ctx, model.Transfer{
		Asset:         asset,
		From:          from,
		To:            to,
		Amount:        amount,
		Authorization: auth,
		CreatedAt:     s.clock.Now(),
	})
	return storeError(err, nil)
}

func (s *RewardService) publish(ctx context.Context, t events.Type, subject model.Identity, payload map[string]any) {
	if s.events == nil {
		return
	}
	s.events.Publish(ctx, events.Event{
		Type:    t,
		Subject: subject,
		Payload: payload,
		At:      s.clock.Now().UTC(),
	})
}

func loadPool(ctx context.Context, tx LedgerTx, id uint64) (model.RewardPool, model.RewardVault, error) {
	pool, err := tx.GetPool(ctx, id)
	if err != nil {
		return model.RewardPool{}, model.RewardVault{}, storeError(err, model.ErrPoolNotFound)
	}
	vault, err := tx.GetVault(ctx, id)
	if err != nil {
		return model.RewardPool{}, model.RewardVault{}, storeError(err, model.ErrPoolNotFound)
	}
	return pool, vault, nil
}

func summarize(ctx context.Context, tx LedgerTx, pool model.RewardPool, vault model.RewardVault) (PoolSummary, error) {
	summary := PoolSummary{Pool: pool, Vault: vault}

	asset, err := rewards.AssetOf(pool)
	if err != nil {
		return summary, nil
	}
	summary.Asset = asset

	summary.VaultBalance, err = tx.Balance(ctx, vault.Address, asset)
	if err != nil {
		return PoolSummary{}, err
	}
	return summary, nil
}
