// Package curation implements the question bank state machine.
//
// Every transition takes record values, validates against that snapshot and
// returns new values. Inputs are never modified, so a failed transition
// leaves the caller's records exactly as they were loaded.
package curation

import (
	"slices"
	"unicode/utf8"

	"github.com/Soltrivia-App/soltrivia-contract/internal/model"
	"github.com/Soltrivia-App/soltrivia-contract/internal/reputation"

	"github.com/gosimple/slug"
	"golang.org/x/text/unicode/norm"
)

// NewRegistry creates the question bank with the authority as first curator.
func NewRegistry(authority model.Identity) (model.Registry, error) {
	if authority == "" {
		return model.Registry{}, model.ErrUnauthorizedAuthority
	}
	return model.Registry{
		Authority: authority,
		Curators:  []model.Identity{authority},
	}, nil
}

// Submission is the result of a successful submit.
type Submission struct {
	Registry  model.Registry
	Question  model.Question
	Submitter model.UserReputation
}

// Submit validates data and creates a pending question numbered from the
// registry counter.
func Submit(
	reg model.Registry,
	rep model.UserReputation,
	submitter model.Identity,
	data model.QuestionData,
	now int64,
) (Submission, error) {
	normalized, err := ValidateQuestion(data)
	if err != nil {
		return Submission{}, err
	}

	if rep.User != submitter {
		return Submission{}, model.ErrReputationNotFound
	}
	if rep.ReputationScore < model.MinSubmitReputation {
		return Submission{}, model.ErrInsufficientReputation
	}

	newRep, err := reputation.Apply(rep, model.ActionQuestionSubmitted)
	if err != nil {
		return Submission{}, err
	}

	newReg := reg.Clone()
	q := model.Question{
		ID:            newReg.TotalQuestions,
		Submitter:     submitter,
		Text:          normalized.Text,
		Options:       normalized.Options,
		CorrectAnswer: normalized.CorrectAnswer,
		Category:      normalized.Category,
		CategorySlug:  CategorySlug(normalized.Category),
		Difficulty:    normalized.Difficulty,
		Voters:        []model.Identity{},
		Status:        model.QuestionPending,
		CreatedAt:     now,
	}
	newReg.TotalQuestions++

	return Submission{
		Registry:  newReg,
		Question:  q,
		Submitter: newRep,
	}, nil
}

// ValidateQuestion checks lengths and ranges and returns the NFC-normalized
// submission. Lengths are counted in characters after normalization.
func ValidateQuestion(data model.QuestionData) (model.QuestionData, error) {
	data.Text = norm.NFC.String(data.Text)
	data.Category = norm.NFC.String(data.Category)

	if utf8.RuneCountInString(data.Text) > model.MaxQuestionLength {
		return data, model.ErrInvalidFormat
	}
	if utf8.RuneCountInString(data.Category) > model.MaxCategoryLength {
		return data, model.ErrInvalidFormat
	}
	if data.Difficulty < 1 || data.Difficulty > 3 {
		return data, model.ErrInvalidFormat
	}
	if data.CorrectAnswer >= model.OptionCount {
		return data, model.ErrInvalidFormat
	}
	for i, option := range data.Options {
		option = norm.NFC.String(option)
		if utf8.RuneCountInString(option) > model.MaxOptionLength {
			return data, model.ErrInvalidFormat
		}
		data.Options[i] = option
	}

	return data, nil
}

// CategorySlug is the normalized category key used for filtering.
func CategorySlug(category string) string {
	return slug.Make(category)
}

// Ballot is the result of a successful vote.
type Ballot struct {
	Question model.Question
	Voter    model.UserReputation
}

// Vote records voter's ballot. Checks run in a fixed order: pending status,
// self-vote, duplicate vote, voter capacity.
func Vote(q model.Question, rep model.UserReputation, voter model.Identity, vote model.VoteType) (Ballot, error) {
	if !vote.Valid() {
		return Ballot{}, model.ErrInvalidVoteType
	}
	if q.Status != model.QuestionPending {
		return Ballot{}, model.ErrQuestionNotPending
	}
	if q.Submitter == voter {
		return Ballot{}, model.ErrCannotVoteOnOwnQuestion
	}
	if q.HasVoted(voter) {
		return Ballot{}, model.ErrAlreadyVoted
	}
	if len(q.Voters) >= model.MaxVoters {
		return Ballot{}, model.ErrVoterLimitReached
	}
	if rep.User != voter {
		return Ballot{}, model.ErrReputationNotFound
	}

	newRep, err := reputation.Apply(rep, model.ActionVoteCast)
	if err != nil {
		return Ballot{}, err
	}

	nq := q.Clone()
	nq.Voters = append(nq.Voters, voter)
	switch vote {
	case model.VoteApprove:
		nq.VotesApprove++
	case model.VoteReject:
		nq.VotesReject++
	}

	return Ballot{Question: nq, Voter: newRep}, nil
}

// Decision is the result of a successful finalization.
type Decision struct {
	Registry  model.Registry
	Question  model.Question
	Submitter model.UserReputation
}

// Finalize settles a pending question once quorum is reached. A strict
// approve majority approves; anything else, ties included, rejects.
func Finalize(reg model.Registry, q model.Question, submitter model.UserReputation, curator model.Identity) (Decision, error) {
	if !reg.IsCurator(curator) {
		return Decision{}, model.ErrUnauthorizedCurator
	}
	if q.Status != model.QuestionPending {
		return Decision{}, model.ErrQuestionNotPending
	}
	if q.TotalVotes() < model.QuorumVotes {
		return Decision{}, model.ErrInsufficientVotes
	}
	if submitter.User != q.Submitter {
		return Decision{}, model.ErrReputationNotFound
	}

	newReg := reg.Clone()
	nq := q.Clone()

	action := model.ActionQuestionRejected
	nq.Status = model.QuestionRejected
	if q.VotesApprove > q.VotesReject {
		action = model.ActionQuestionApproved
		nq.Status = model.QuestionApproved
		newReg.ActiveQuestions++
	}

	newRep, err := reputation.Apply(submitter, action)
	if err != nil {
		return Decision{}, err
	}

	return Decision{Registry: newReg, Question: nq, Submitter: newRep}, nil
}

// AddCurator appends curator to the registry's curator set.
func AddCurator(reg model.Registry, caller, curator model.Identity) (model.Registry, error) {
	if caller != reg.Authority {
		return reg, model.ErrUnauthorizedAuthority
	}
	if reg.IsCurator(curator) {
		return reg, model.ErrCuratorAlreadyExists
	}
	if len(reg.Curators) >= model.MaxCurators {
		return reg, model.ErrCuratorLimitReached
	}

	next := reg.Clone()
	next.Curators = append(next.Curators, curator)
	return next, nil
}

// RemoveCurator drops curator, preserving the order of the rest.
func RemoveCurator(reg model.Registry, caller, curator model.Identity) (model.Registry, error) {
	if caller != reg.Authority {
		return reg, model.ErrUnauthorizedAuthority
	}
	if curator == reg.Authority {
		return reg, model.ErrCannotRemoveAuthority
	}

	pos := slices.Index(reg.Curators, curator)
	if pos < 0 {
		return reg, model.ErrCuratorNotFound
	}

	next := reg.Clone()
	next.Curators = slices.Delete(next.Curators, pos, pos+1)
	return next, nil
}
