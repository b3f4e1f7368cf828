package model

const (
	StartingReputation = 100
	ReputationFloor    = 10
)

type UserReputation struct {
	User               Identity
	QuestionsSubmitted uint64
	QuestionsApproved  uint64
	CurationVotes      uint64
	ReputationScore    uint64
	Version            uint64
}

func NewUserReputation(user Identity) UserReputation {
	return UserReputation{
		User:            user,
		ReputationScore: StartingReputation,
	}
}

type ReputationAction string

const (
	ActionQuestionSubmitted ReputationAction = "question_submitted"
	ActionQuestionApproved  ReputationAction = "question_approved"
	ActionQuestionRejected  ReputationAction = "question_rejected"
	ActionVoteCast          ReputationAction = "vote_cast"
)
