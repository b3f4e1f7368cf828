package reputation

import (
	"math"
	"testing"

	"github.com/Soltrivia-App/soltrivia-contract/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApply(t *testing.T) {
	tests := []struct {
		name     string
		action   model.ReputationAction
		start    model.UserReputation
		expected model.UserReputation
	}{
		{
			name:   "submission counts but does not score",
			action: model.ActionQuestionSubmitted,
			start:  model.NewUserReputation("tg:1"),
			expected: model.UserReputation{
				User: "tg:1", QuestionsSubmitted: 1, ReputationScore: 100,
			},
		},
		{
			name:   "approval",
			action: model.ActionQuestionApproved,
			start:  model.NewUserReputation("tg:1"),
			expected: model.UserReputation{
				User: "tg:1", QuestionsApproved: 1, ReputationScore: 150,
			},
		},
		{
			name:   "vote",
			action: model.ActionVoteCast,
			start:  model.NewUserReputation("tg:1"),
			expected: model.UserReputation{
				User: "tg:1", CurationVotes: 1, ReputationScore: 110,
			},
		},
		{
			name:   "rejection",
			action: model.ActionQuestionRejected,
			start:  model.NewUserReputation("tg:1"),
			expected: model.UserReputation{
				User: "tg:1", ReputationScore: 90,
			},
		},
		{
			name:   "score saturates",
			action: model.ActionVoteCast,
			start:  model.UserReputation{User: "tg:1", ReputationScore: math.MaxUint64 - 3},
			expected: model.UserReputation{
				User: "tg:1", CurationVotes: 1, ReputationScore: math.MaxUint64,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Apply(tt.start, tt.action)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestApply_UnknownAction(t *testing.T) {
	rep := model.NewUserReputation("tg:1")

	got, err := Apply(rep, "bribe")
	assert.Error(t, err)
	assert.Equal(t, rep, got)
}

func TestApply_RejectionFloor(t *testing.T) {
	rep := model.UserReputation{User: "tg:9", ReputationScore: 15}

	var scores []uint64
	for i := 0; i < 3; i++ {
		var err error
		rep, err = Apply(rep, model.ActionQuestionRejected)
		require.NoError(t, err)
		scores = append(scores, rep.ReputationScore)
	}

	assert.Equal(t, []uint64{10, 10, 10}, scores)
}

func TestPenalize(t *testing.T) {
	tests := []struct {
		score, penalty, expected uint64
	}{
		{score: 100, penalty: 10, expected: 90},
		{score: 20, penalty: 10, expected: 10},
		{score: 19, penalty: 10, expected: 10},
		{score: 10, penalty: 10, expected: 10},
		{score: 4, penalty: 10, expected: 4},
		{score: 50, penalty: 0, expected: 50},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, Penalize(tt.score, tt.penalty), "score=%d penalty=%d", tt.score, tt.penalty)
	}
}
