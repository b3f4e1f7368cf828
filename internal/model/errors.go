package model

import "errors"

// Kind groups ledger errors by how a caller should react to them.
type Kind string

const (
	KindValidation         Kind = "validation"
	KindAuthorization      Kind = "authorization"
	KindNotFound           Kind = "not_found"
	KindStateConflict      Kind = "state_conflict"
	KindResourceExhaustion Kind = "resource_exhaustion"
	KindUnsupported        Kind = "unsupported"
)

// Error is a typed ledger failure. Values are sentinels and compared with
// errors.Is; wrapping them keeps the kind reachable through errors.As.
type Error struct {
	Code    string
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func newError(kind Kind, code, message string) *Error {
	return &Error{Code: code, Kind: kind, Message: message}
}

// Curation errors.
var (
	ErrInvalidFormat              = newError(KindValidation, "InvalidFormat", "invalid question format: check text length, options, category, answer or difficulty")
	ErrInvalidVoteType            = newError(KindValidation, "InvalidVoteType", "vote must be approve or reject")
	ErrUnauthorizedCurator        = newError(KindAuthorization, "UnauthorizedCurator", "only approved curators can finalize questions")
	ErrUnauthorizedAuthority      = newError(KindAuthorization, "UnauthorizedAuthority", "only the authority can perform this action")
	ErrAlreadyVoted               = newError(KindStateConflict, "AlreadyVoted", "user has already voted on this question")
	ErrQuestionNotFound           = newError(KindNotFound, "QuestionNotFound", "question not found")
	ErrInsufficientReputation     = newError(KindAuthorization, "InsufficientReputation", "minimum reputation required to submit questions")
	ErrQuestionNotPending         = newError(KindStateConflict, "QuestionNotPending", "question is not in pending status")
	ErrCannotVoteOnOwnQuestion    = newError(KindAuthorization, "CannotVoteOnOwnQuestion", "users cannot vote on their own submissions")
	ErrInsufficientVotes          = newError(KindResourceExhaustion, "InsufficientVotes", "minimum number of votes required for finalization")
	ErrCuratorAlreadyExists       = newError(KindStateConflict, "CuratorAlreadyExists", "curator is already in the list")
	ErrCuratorNotFound            = newError(KindNotFound, "CuratorNotFound", "curator is not in the list")
	ErrCannotRemoveAuthority      = newError(KindAuthorization, "CannotRemoveAuthority", "the authority cannot be removed as curator")
	ErrCuratorLimitReached        = newError(KindResourceExhaustion, "CuratorLimitReached", "curator list is full")
	ErrVoterLimitReached          = newError(KindResourceExhaustion, "VoterLimitReached", "question has reached the maximum number of voters")
	ErrRegistryNotInitialized     = newError(KindNotFound, "RegistryNotInitialized", "question bank is not initialized")
	ErrRegistryAlreadyInitialized = newError(KindStateConflict, "RegistryAlreadyInitialized", "question bank is already initialized")
	ErrReputationNotFound         = newError(KindNotFound, "ReputationNotFound", "user reputation not found")
)

// Reward errors.
var (
	ErrPoolNotFound              = newError(KindNotFound, "PoolNotFound", "pool not found with the given id")
	ErrPoolAlreadyExists         = newError(KindStateConflict, "PoolAlreadyExists", "a pool with this id already exists")
	ErrInsufficientPoolFunds     = newError(KindResourceExhaustion, "InsufficientPoolFunds", "insufficient funds in the reward pool")
	ErrClaimPeriodEnded          = newError(KindStateConflict, "ClaimPeriodEnded", "claim period has ended for this pool")
	ErrClaimPeriodNotStarted     = newError(KindStateConflict, "ClaimPeriodNotStarted", "claim period has not started yet")
	ErrInvalidPerformanceData    = newError(KindValidation, "InvalidPerformanceData", "invalid performance data provided")
	ErrInvalidPoolName           = newError(KindValidation, "InvalidPoolName", "invalid pool name (max 50 characters)")
	ErrInvalidStartTime          = newError(KindValidation, "InvalidStartTime", "invalid start time (must be in future)")
	ErrInvalidEndTime            = newError(KindValidation, "InvalidEndTime", "invalid end time (must be after start time)")
	ErrInvalidRewardAmount       = newError(KindValidation, "InvalidRewardAmount", "invalid reward amount")
	ErrInvalidRewardType         = newError(KindValidation, "InvalidRewardType", "unknown reward type")
	ErrInvalidDistribution       = newError(KindValidation, "InvalidDistribution", "unknown distribution criteria")
	ErrInvalidParticipants       = newError(KindValidation, "InvalidParticipants", "equal share pools need a positive expected participant count")
	ErrMissingTokenIdentity      = newError(KindValidation, "MissingTokenIdentity", "missing token identity for token rewards")
	ErrNFTFundingUnsupported     = newError(KindUnsupported, "NFTFundingUnsupported", "nft funding not supported in this version")
	ErrNFTClaimUnsupported       = newError(KindUnsupported, "NFTClaimUnsupported", "nft claiming not supported in this version")
	ErrPoolNotActive             = newError(KindStateConflict, "PoolNotActive", "pool is not active")
	ErrClaimRecordNotFound       = newError(KindNotFound, "ClaimRecordNotFound", "no claim record for user; calculate rewards first")
	ErrNothingToClaim            = newError(KindStateConflict, "NothingToClaim", "nothing to claim")
	ErrCannotUpdateActivePool    = newError(KindStateConflict, "CannotUpdateActivePool", "cannot update a pool after it has started")
	ErrPoolStillActive           = newError(KindStateConflict, "PoolStillActive", "pool is still active")
	ErrParticipantLimitReached   = newError(KindResourceExhaustion, "ParticipantLimitReached", "equal share pool has no free participant slots")
	ErrInvalidAchievementProfile = newError(KindAuthorization, "InvalidAchievementProfile", "achievement profile does not belong to the caller")
	ErrTooManyAchievements       = newError(KindValidation, "TooManyAchievements", "too many achievements")
	ErrInvalidAchievementData    = newError(KindValidation, "InvalidAchievementData", "invalid achievement data")
	ErrInsufficientFunds         = newError(KindResourceExhaustion, "InsufficientFunds", "insufficient balance for transfer")
	ErrUnauthorizedTransfer      = newError(KindAuthorization, "UnauthorizedTransfer", "transfer authorization does not match the source holder")
	ErrStaleSnapshot             = newError(KindStateConflict, "StaleSnapshot", "record was modified concurrently; reload and retry")
)

// KindOf reports the kind of a ledger error, or "" for infrastructure errors.
func KindOf(err error) Kind {
	var le *Error
	if errors.As(err, &le) {
		return le.Kind
	}
	return ""
}
