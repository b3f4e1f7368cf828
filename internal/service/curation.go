package service

import (
	"context"
	"errors"

	"github.com/Soltrivia-App/soltrivia-contract/internal/curation"
	"github.com/Soltrivia-App/soltrivia-contract/internal/events"
	"github.com/Soltrivia-App/soltrivia-contract/internal/model"
	"github.com/Soltrivia-App/soltrivia-contract/internal/repository"
	"github.com/Soltrivia-App/soltrivia-contract/pkg/logger"
	"go.uber.org/zap"

	"github.com/jonboulle/clockwork"
)

type CurationService struct {
	ledger Ledger
	clock  clockwork.Clock
	events Publisher
	log    *zap.Logger
}

func NewCurationService(ledger Ledger, clock clockwork.Clock, publisher Publisher) *CurationService {
	return &CurationService{
		ledger: ledger,
		clock:  clock,
		events: publisher,
		log:    logger.Named("curation"),
	}
}

func (s *CurationService) InitializeRegistry(ctx context.Context, authority model.Identity) (model.Registry, error) {
	reg, err := curation.NewRegistry(authority)
	if err != nil {
		return model.Registry{}, err
	}

	err = s.ledger.Atomic(ctx, func(tx LedgerTx) error {
		reg, err = tx.CreateRegistry(ctx, reg)
		if errors.Is(err, repository.ErrAlreadyExists) {
			return model.ErrRegistryAlreadyInitialized
		}
		return err
	})
	if err != nil {
		return model.Registry{}, err
	}

	s.log.Info("question bank initialized", zap.String("authority", authority.String()))
	s.publish(ctx, events.RegistryInitialized, authority, nil)

	return reg, nil
}

func (s *CurationService) GetRegistry(ctx context.Context) (model.Registry, error) {
	var reg model.Registry
	err := s.ledger.Atomic(ctx, func(tx LedgerTx) error {
		var err error
		reg, err = loadRegistry(ctx, tx)
		return err
	})
	return reg, err
}

func (s *CurationService) AddCurator(ctx context.Context, caller, curator model.Identity) (model.Registry, error) {
	return s.updateCurators(ctx, caller, curator, curation.AddCurator, events.CuratorAdded)
}

func (s *CurationService) RemoveCurator(ctx context.Context, caller, curator model.Identity) (model.Registry, error) {
	return s.updateCurators(ctx, caller, curator, curation.RemoveCurator, events.CuratorRemoved)
}

func (s *CurationService) updateCurators(
	ctx context.Context,
	caller, curator model.Identity,
	transition func(model.Registry, model.Identity, model.Identity) (model.Registry, error),
	eventType events.Type,
) (model.Registry, error) {
	var reg model.Registry

	err := s.ledger.Atomic(ctx, func(tx LedgerTx) error {
		current, err := loadRegistry(ctx, tx)
		if err != nil {
			return err
		}

		next, err := transition(current, caller, curator)
		if err != nil {
			return err
		}

		reg, err = tx.SaveRegistry(ctx, next)
		return storeError(err, nil)
	})
	if err != nil {
		return model.Registry{}, err
	}

	s.log.Info("curator set changed",
		zap.String("event", string(eventType)),
		zap.String("curator", curator.String()),
		zap.Int("curators", len(reg.Curators)))
	s.publish(ctx, eventType, curator, nil)

	return reg, nil
}

// SubmitQuestion creates a pending question. The registry counter, the new
// question and the submitter's reputation change commit together.
func (s *CurationService) SubmitQuestion(ctx context.Context, submitter model.Identity, data model.QuestionData) (model.Question, error) {
	now := s.clock.Now().Unix()
	var question model.Question

	err := s.ledger.Atomic(ctx, func(tx LedgerTx) error {
		reg, err := loadRegistry(ctx, tx)
		if err != nil {
			return err
		}
		rep, err := s.ensureReputation(ctx, tx, submitter)
		if err != nil {
			return err
		}

		sub, err := curation.Submit(reg, rep, submitter, data, now)
		if err != nil {
			return err
		}

		if _, err := tx.SaveRegistry(ctx, sub.Registry); err != nil {
			return storeError(err, nil)
		}
		if question, err = tx.CreateQuestion(ctx, sub.Question); err != nil {
			return storeError(err, nil)
		}
		_, err = tx.SaveReputation(ctx, sub.Submitter)
		return storeError(err, nil)
	})
	if err != nil {
		return model.Question{}, err
	}

	s.log.Info("question submitted",
		zap.Uint64("question_id", question.ID),
		zap.String("submitter", submitter.String()),
		zap.String("category", question.CategorySlug))
	s.publish(ctx, events.QuestionSubmitted, submitter, map[string]any{
		"question_id": question.ID,
		"category":    question.CategorySlug,
		"difficulty":  question.Difficulty,
	})

	return question, nil
}

func (s *CurationService) Vote(ctx context.Context, questionID uint64, voter model.Identity, vote model.VoteType) (model.Question, error) {
	var question model.Question

	err := s.ledger.Atomic(ctx, func(tx LedgerTx) error {
		q, err := tx.GetQuestion(ctx, questionID)
		if err != nil {
			return storeError(err, model.ErrQuestionNotFound)
		}
		rep, err := s.ensureReputation(ctx, tx, voter)
		if err != nil {
			return err
		}

		ballot, err := curation.Vote(q, rep, voter, vote)
		if err != nil {
			return err
		}

		if question, err = tx.SaveQuestion(ctx, ballot.Question); err != nil {
			return storeError(err, nil)
		}
		_, err = tx.SaveReputation(ctx, ballot.Voter)
		return storeError(err, nil)
	})
	if err != nil {
		return model.Question{}, err
	}

	s.log.Info("vote cast",
		zap.Uint64("question_id", questionID),
		zap.String("voter", voter.String()),
		zap.String("vote", string(vote)))
	s.publish(ctx, events.VoteCast, voter, map[string]any{
		"question_id":   questionID,
		"vote":          vote,
		"votes_approve": question.VotesApprove,
		"votes_reject":  question.VotesReject,
	})

	return question, nil
}

func (s *CurationService) Finalize(ctx context.Context, questionID uint64, curator model.Identity) (model.Question, error) {
	var question model.Question

	err := s.ledger.Atomic(ctx, func(tx LedgerTx) error {
		reg, err := loadRegistry(ctx, tx)
		if err != nil {
			return err
		}
		q, err := tx.GetQuestion(ctx, questionID)
		if err != nil {
			return storeError(err, model.ErrQuestionNotFound)
		}
		rep, err := tx.GetReputation(ctx, q.Submitter)
		if err != nil {
			return storeError(err, model.ErrReputationNotFound)
		}

		decision, err := curation.Finalize(reg, q, rep, curator)
		if err != nil {
			return err
		}

		if _, err := tx.SaveRegistry(ctx, decision.Registry); err != nil {
			return storeError(err, nil)
		}
		if question, err = tx.SaveQuestion(ctx, decision.Question); err != nil {
			return storeError(err, nil)
		}
		_, err = tx.SaveReputation(ctx, decision.Submitter)
		return storeError(err, nil)
	})
	if err != nil {
		return model.Question{}, err
	}

	s.log.Info("question finalized",
		zap.Uint64("question_id", questionID),
		zap.String("status", string(question.Status)),
		zap.String("curator", curator.String()))
	s.publish(ctx, events.QuestionFinalized, question.Submitter, map[string]any{
		"question_id": questionID,
		"status":      question.Status,
	})

	return question, nil
}

func (s *CurationService) GetQuestion(ctx context.Context, id uint64) (model.Question, error) {
	var q model.Question
	err := s.ledger.Atomic(ctx, func(tx LedgerTx) error {
		var err error
		q, err = tx.GetQuestion(ctx, id)
		return storeError(err, model.ErrQuestionNotFound)
	})
	return q, err
}

// ListApprovedQuestions filters by category name or slug; both normalize to
// the same slug.
func (s *CurationService) ListApprovedQuestions(ctx context.Context, filter model.QuestionFilter) ([]model.Question, error) {
	if filter.Category != "" {
		filter.Category = curation.CategorySlug(filter.Category)
	}

	var questions []model.Question
	err := s.ledger.Atomic(ctx, func(tx LedgerTx) error {
		var err error
		questions, err = tx.ListApprovedQuestions(ctx, filter)
		return err
	})
	return questions, err
}

func (s *CurationService) GetReputation(ctx context.Context, user model.Identity) (model.UserReputation, error) {
	var rep model.UserReputation
	err := s.ledger.Atomic(ctx, func(tx LedgerTx) error {
		var err error
		rep, err = tx.GetReputation(ctx, user)
		return storeError(err, model.ErrReputationNotFound)
	})
	return rep, err
}

// InitializeReputation creates user's reputation at the starting score. An
// existing record is returned unchanged.
func (s *CurationService) InitializeReputation(ctx context.Context, user model.Identity) (model.UserReputation, error) {
	var rep model.UserReputation
	err := s.ledger.Atomic(ctx, func(tx LedgerTx) error {
		var err error
		rep, err = s.ensureReputation(ctx, tx, user)
		return err
	})
	return rep, err
}

func (s *CurationService) ensureReputation(ctx context.Context, tx LedgerTx, user model.Identity) (model.UserReputation, error) {
	if user == "" {
		return model.UserReputation{}, model.ErrReputationNotFound
	}

	rep, err := tx.GetReputation(ctx, user)
	if err == nil {
		return rep, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return model.UserReputation{}, err
	}

	rep, err = tx.CreateReputation(ctx, model.NewUserReputation(user))
	if err != nil {
		return model.UserReputation{}, storeError(err, nil)
	}

	s.log.Debug("reputation created", zap.String("user", user.String()))
	return rep, nil
}

func (s *CurationService) publish(ctx context.Context, t events.Type, subject model.Identity, payload map[string]any) {
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

func loadRegistry(ctx context.Context, tx LedgerTx) (model.Registry, error) {
	reg, err := tx.GetRegistry(ctx)
	return reg, storeError(err, model.ErrRegistryNotInitialized)
}
