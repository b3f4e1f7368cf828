package model

import "time"

const (
	MaxPoolNameLength       = 50
	MaxPerformanceScore     = 100
	MaxAchievements         = 1000
	MaxVerifiedAchievements = 100
)

type RewardType string

const (
	RewardNative      RewardType = "native"
	RewardToken       RewardType = "token"
	RewardNonFungible RewardType = "nft"
)

func (t RewardType) Valid() bool {
	switch t {
	case RewardNative, RewardToken, RewardNonFungible:
		return true
	default:
		return false
	}
}

type DistributionCriteria string

const (
	DistributionEqualShare       DistributionCriteria = "equal_share"
	DistributionPerformanceBased DistributionCriteria = "performance_based"
	DistributionStakingRewards   DistributionCriteria = "staking_rewards"
	DistributionAchievementBased DistributionCriteria = "achievement_based"
	DistributionRandomDrop       DistributionCriteria = "random_drop"
)

func (c DistributionCriteria) Valid() bool {
	switch c {
	case DistributionEqualShare, DistributionPerformanceBased, DistributionStakingRewards,
		DistributionAchievementBased, DistributionRandomDrop:
		return true
	default:
		return false
	}
}

// PoolData is a pool creation request.
type PoolData struct {
	ID                   uint64
	Name                 string
	TotalRewards         uint64
	RewardType           RewardType
	TokenIdentity        *string
	DistributionCriteria DistributionCriteria
	ExpectedParticipants uint64
	StartTime            int64
	EndTime              int64
}

type RewardPool struct {
	ID                   uint64
	Authority            Identity
	Name                 string
	TotalRewards         uint64
	DistributedRewards   uint64
	RewardType           RewardType
	TokenIdentity        *string
	DistributionCriteria DistributionCriteria
	ExpectedParticipants uint64
	StartTime            int64
	EndTime              int64
	Active               bool
	Version              uint64
}

// Remaining is the undistributed part of the pool's nominal rewards.
func (p *RewardPool) Remaining() uint64 {
	return p.TotalRewards - p.DistributedRewards
}

func (p *RewardPool) InWindow(now int64) error {
	if now < p.StartTime {
		return ErrClaimPeriodNotStarted
	}
	if now > p.EndTime {
		return ErrClaimPeriodEnded
	}
	return nil
}

type RewardVault struct {
	Address string
	PoolID  uint64
}

type UserClaim struct {
	PoolID        uint64
	User          Identity
	AmountClaimed uint64
	TotalEligible uint64
	LastClaimTime int64
	Version       uint64
}

// Claimable is what the user may still withdraw.
func (c *UserClaim) Claimable() uint64 {
	if c.TotalEligible <= c.AmountClaimed {
		return 0
	}
	return c.TotalEligible - c.AmountClaimed
}

type PerformanceData struct {
	Score                uint32
	CompletionTime       int64
	StakingDuration      int64
	AchievementsUnlocked uint32
	RandomSeed           uint64
	AchievementProfile   *Identity
}

func (d *PerformanceData) Validate() error {
	if d.Score > MaxPerformanceScore ||
		d.CompletionTime < 0 ||
		d.StakingDuration < 0 ||
		d.AchievementsUnlocked > MaxAchievements {
		return ErrInvalidPerformanceData
	}
	return nil
}

type Achievement struct {
	ID          string
	Name        string
	Description string
	Points      uint32
	Timestamp   int64
	Verified    bool
}

type AchievementData struct {
	ProfileOwner   Identity
	Achievements   []Achievement
	TotalScore     uint64
	CompletionRate uint32
}

// Asset names what a balance holds: "native" or a token identity.
type Asset string

const NativeAsset Asset = "native"

// Authorization proves the right to move funds out of a holder. Exactly one
// of Signer or Namespace is set.
type Authorization struct {
	Signer    Identity
	Namespace string
	Seeds     []any
}

func SignerAuthorization(id Identity) Authorization {
	return Authorization{Signer: id}
}

func DerivedAuthorization(namespace string, seeds ...any) Authorization {
	return Authorization{Namespace: namespace, Seeds: seeds}
}

type Transfer struct {
	ID            string
	Asset         Asset
	From          string
	To            string
	Amount        uint64
	Authorization Authorization
	CreatedAt     time.Time
}
