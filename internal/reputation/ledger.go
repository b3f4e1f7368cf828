// Package reputation applies curation outcomes to user reputation records.
package reputation

import (
	"fmt"
	"math"

	"github.com/Soltrivia-App/soltrivia-contract/internal/model"
)

const (
	ApprovedBonus    = 50
	VoteBonus        = 10
	RejectionPenalty = 10
	SubmissionBonus  = 0
)

type effect struct {
	submitted bool
	approved  bool
	voted     bool
	bonus     uint64
	penalty   uint64
}

var effects = map[model.ReputationAction]effect{
	model.ActionQuestionSubmitted: {submitted: true, bonus: SubmissionBonus},
	model.ActionQuestionApproved:  {approved: true, bonus: ApprovedBonus},
	model.ActionQuestionRejected:  {penalty: RejectionPenalty},
	model.ActionVoteCast:          {voted: true, bonus: VoteBonus},
}

// Apply returns rep updated for action. The input is not modified.
func Apply(rep model.UserReputation, action model.ReputationAction) (model.UserReputation, error) {
	e, ok := effects[action]
	if !ok {
		return rep, fmt.Errorf("unknown reputation action %q", action)
	}

	if e.submitted {
		rep.QuestionsSubmitted = saturatingAdd(rep.QuestionsSubmitted, 1)
	}
	if e.approved {
		rep.QuestionsApproved = saturatingAdd(rep.QuestionsApproved, 1)
	}
	if e.voted {
		rep.CurationVotes = saturatingAdd(rep.CurationVotes, 1)
	}
	rep.ReputationScore = saturatingAdd(rep.ReputationScore, e.bonus)
	rep.ReputationScore = Penalize(rep.ReputationScore, e.penalty)

	return rep, nil
}

// Penalize subtracts penalty but never takes a score below ReputationFloor.
// Scores already at or under the floor are left as they are.
func Penalize(score, penalty uint64) uint64 {
	if penalty == 0 || score <= model.ReputationFloor {
		return score
	}
	if score-model.ReputationFloor < penalty {
		return model.ReputationFloor
	}
	return score - penalty
}

func saturatingAdd(a, b uint64) uint64 {
	if a > math.MaxUint64-b {
		return math.MaxUint64
	}
	return a + b
}
