package model

import (
	"slices"
	"time"
)

// Identity names a participant: a Telegram-backed user ("tg:<id>") or any
// other opaque signer key.
type Identity string

func (i Identity) String() string {
	return string(i)
}

const (
	MaxCurators       = 20
	MaxVoters         = 50
	MaxQuestionLength = 500
	MaxOptionLength   = 100
	MaxCategoryLength = 50
	OptionCount       = 4

	// QuorumVotes is the minimum number of total votes before a question may be finalized.
	QuorumVotes = 5
	// MinSubmitReputation gates question submission.
	MinSubmitReputation = 100
)

type QuestionStatus string

const (
	QuestionPending  QuestionStatus = "pending"
	QuestionApproved QuestionStatus = "approved"
	QuestionRejected QuestionStatus = "rejected"
)

type VoteType string

const (
	VoteApprove VoteType = "approve"
	VoteReject  VoteType = "reject"
)

func (v VoteType) Valid() bool {
	switch v {
	case VoteApprove, VoteReject:
		return true
	default:
		return false
	}
}

// Registry is the deployment-wide question bank record.
type Registry struct {
	Authority       Identity
	TotalQuestions  uint64
	ActiveQuestions uint64
	Curators        []Identity
	Version         uint64
}

func (r *Registry) IsCurator(id Identity) bool {
	return slices.Contains(r.Curators, id)
}

// Clone returns a deep copy so transitions never alias the loaded snapshot.
func (r Registry) Clone() Registry {
	r.Curators = slices.Clone(r.Curators)
	return r
}

// QuestionData is a submission request.
type QuestionData struct {
	Text          string
	Options       [OptionCount]string
	CorrectAnswer uint8
	Category      string
	Difficulty    uint8
}

type Question struct {
	ID            uint64
	Submitter     Identity
	Text          string
	Options       [OptionCount]string
	CorrectAnswer uint8
	Category      string
	CategorySlug  string
	Difficulty    uint8
	VotesApprove  uint32
	VotesReject   uint32
	Voters        []Identity
	Status        QuestionStatus
	CreatedAt     int64
	Version       uint64
}

func (q Question) Clone() Question {
	q.Voters = slices.Clone(q.Voters)
	return q
}

func (q *Question) HasVoted(id Identity) bool {
	return slices.Contains(q.Voters, id)
}

func (q *Question) TotalVotes() uint64 {
	return uint64(q.VotesApprove) + uint64(q.VotesReject)
}

func (q *Question) CreatedTime() time.Time {
	return time.Unix(q.CreatedAt, 0).UTC()
}

// QuestionFilter selects approved questions for game use.
type QuestionFilter struct {
	Category   string
	Difficulty uint8
	Limit      uint64
}
