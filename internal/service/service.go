package service

import (
	"context"
	"errors"

	"github.com/Soltrivia-App/soltrivia-contract/internal/events"
	"github.com/Soltrivia-App/soltrivia-contract/internal/model"
	"github.com/Soltrivia-App/soltrivia-contract/internal/repository"
)

type Service struct {
	*CurationService
	*RewardService
}

func NewService(curation *CurationService, rewards *RewardService) *Service {
	return &Service{
		CurationService: curation,
		RewardService:   rewards,
	}
}

type CurationServiceI interface {
	InitializeRegistry(ctx context.Context, authority model.Identity) (model.Registry, error)
	GetRegistry(ctx context.Context) (model.Registry, error)
	AddCurator(ctx context.Context, caller, curator model.Identity) (model.Registry, error)
	RemoveCurator(ctx context.Context, caller, curator model.Identity) (model.Registry, error)
	SubmitQuestion(ctx context.Context, submitter model.Identity, data model.QuestionData) (model.Question, error)
	Vote(ctx context.Context, questionID uint64, voter model.Identity, vote model.VoteType) (model.Question, error)
	Finalize(ctx context.Context, questionID uint64, curator model.Identity) (model.Question, error)
	GetQuestion(ctx context.Context, id uint64) (model.Question, error)
	ListApprovedQuestions(ctx context.Context, filter model.QuestionFilter) ([]model.Question, error)
	GetReputation(ctx context.Context, user model.Identity) (model.UserReputation, error)
	InitializeReputation(ctx context.Context, user model.Identity) (model.UserReputation, error)
}

type RewardServiceI interface {
	CreatePool(ctx context.Context, authority model.Identity, data model.PoolData, initialFunding uint64) (PoolSummary, error)
	GetPool(ctx context.Context, id uint64) (PoolSummary, error)
	FundPool(ctx context.Context, poolID uint64, funder model.Identity, amount uint64) (PoolSummary, error)
	UpdateDistributionCriteria(ctx context.Context, poolID uint64, caller model.Identity, criteria model.DistributionCriteria, expectedParticipants uint64) (model.RewardPool, error)
	CalculateRewards(ctx context.Context, poolID uint64, user model.Identity, data model.PerformanceData) (Eligibility, error)
	Claim(ctx context.Context, poolID uint64, user model.Identity) (Eligibility, error)
	GetClaimableAmount(ctx context.Context, poolID uint64, user model.Identity) (uint64, error)
	ClosePool(ctx context.Context, poolID uint64, caller model.Identity) (PoolSummary, error)
	VerifyAchievements(ctx context.Context, poolID uint64, caller model.Identity, data model.AchievementData) (bool, error)
	Balance(ctx context.Context, holder string, asset model.Asset) (uint64, error)
	Deposit(ctx context.Context, holder string, asset model.Asset, amount uint64) (uint64, error)
}

// Ledger runs a unit of work against the record store. Every record read
// inside fn is a snapshot; every store is checked against it on commit.
type Ledger interface {
	Atomic(ctx context.Context, fn func(tx LedgerTx) error) error
}

type RegistryStore interface {
	GetRegistry(ctx context.Context) (model.Registry, error)
	CreateRegistry(ctx context.Context, reg model.Registry) (model.Registry, error)
	SaveRegistry(ctx context.Context, reg model.Registry) (model.Registry, error)
}

type QuestionStore interface {
	GetQuestion(ctx context.Context, id uint64) (model.Question, error)
	CreateQuestion(ctx context.Context, q model.Question) (model.Question, error)
	SaveQuestion(ctx context.Context, q model.Question) (model.Question, error)
	ListApprovedQuestions(ctx context.Context, filter model.QuestionFilter) ([]model.Question, error)
}

type ReputationStore interface {
	GetReputation(ctx context.Context, user model.Identity) (model.UserReputation, error)
	CreateReputation(ctx context.Context, rep model.UserReputation) (model.UserReputation, error)
	SaveReputation(ctx context.Context, rep model.UserReputation) (model.UserReputation, error)
}

type PoolStore interface {
	GetPool(ctx context.Context, id uint64) (model.RewardPool, error)
	CreatePool(ctx context.Context, pool model.RewardPool) (model.RewardPool, error)
	SavePool(ctx context.Context, pool model.RewardPool) (model.RewardPool, error)
	CreateVault(ctx context.Context, vault model.RewardVault) error
	GetVault(ctx context.Context, poolID uint64) (model.RewardVault, error)
}

type ClaimStore interface {
	GetClaim(ctx context.Context, poolID uint64, user model.Identity) (model.UserClaim, error)
	CreateClaim(ctx context.Context, claim model.UserClaim) (model.UserClaim, error)
	SaveClaim(ctx context.Context, claim model.UserClaim) (model.UserClaim, error)
	CountClaims(ctx context.Context, poolID uint64) (uint64, error)
}

// Settlement is the value transfer capability.
type Settlement interface {
	Transfer(ctx context.Context, t model.Transfer) (model.Transfer, error)
	Credit(ctx context.Context, holder string, asset model.Asset, amount uint64) error
	Balance(ctx context.Context, holder string, asset model.Asset) (uint64, error)
}

type LedgerTx interface {
	RegistryStore
	QuestionStore
	ReputationStore
	PoolStore
	ClaimStore
	Settlement
}

type Publisher interface {
	Publish(ctx context.Context, e events.Event)
}

type AchievementVerifier interface {
	Verify(ctx context.Context, caller model.Identity, data model.AchievementData) (bool, error)
}

var (
	_ CurationServiceI = (*CurationService)(nil)
	_ RewardServiceI   = (*RewardService)(nil)
)

type repositoryLedger struct {
	repo *repository.Repository
}

// NewLedger adapts the SQL repository to Ledger.
func NewLedger(repo *repository.Repository) Ledger {
	return repositoryLedger{repo: repo}
}

func (l repositoryLedger) Atomic(ctx context.Context, fn func(tx LedgerTx) error) error {
	return l.repo.Atomic(ctx, func(tx *repository.Tx) error {
		return fn(tx)
	})
}

var _ LedgerTx = (*repository.Tx)(nil)

// storeError translates repository failures that carry domain meaning.
// notFound replaces repository.ErrNotFound; a lost creation race surfaces
// as a stale snapshot.
func storeError(err, notFound error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound) && notFound != nil:
		return notFound
	case errors.Is(err, repository.ErrAlreadyExists):
		return model.ErrStaleSnapshot
	case errors.Is(err, repository.ErrAmountTooLarge):
		return model.ErrInvalidRewardAmount
	default:
		return err
	}
}
