package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Soltrivia-App/soltrivia-contract/internal/address"
	"github.com/Soltrivia-App/soltrivia-contract/internal/model"

	"github.com/Masterminds/squirrel"
)

type Reputation struct {
	Address            string `db:"address"`
	User               string `db:"user_identity"`
	QuestionsSubmitted int64  `db:"questions_submitted"`
	QuestionsApproved  int64  `db:"questions_approved"`
	CurationVotes      int64  `db:"curation_votes"`
	ReputationScore    int64  `db:"reputation_score"`
	Version            int64  `db:"version"`
}

func (r Reputation) toModel() model.UserReputation {
	return model.UserReputation{
		User:               model.Identity(r.User),
		QuestionsSubmitted: uint64(r.QuestionsSubmitted),
		QuestionsApproved:  uint64(r.QuestionsApproved),
		CurationVotes:      uint64(r.CurationVotes),
		ReputationScore:    uint64(r.ReputationScore),
		Version:            uint64(r.Version),
	}
}

func (t *Tx) GetReputation(ctx context.Context, user model.Identity) (model.UserReputation, error) {
	var row Reputation

	query, args, err := t.sq.
		Select("address", "user_identity", "questions_submitted", "questions_approved",
			"curation_votes", "reputation_score", "version").
		From("reputations").
		Where(squirrel.Eq{"address": address.ForReputation(user.String()).String()}).
		ToSql()
	if err != nil {
		return model.UserReputation{}, fmt.Errorf("failed to build reputation select query: %w", err)
	}

	err = t.tx.GetContext(ctx, &row, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.UserReputation{}, ErrNotFound
		}
		return model.UserReputation{}, fmt.Errorf("failed to get reputation of %s: %w", user, err)
	}

	return row.toModel(), nil
}

func (t *Tx) CreateReputation(ctx context.Context, rep model.UserReputation) (model.UserReputation, error) {
	score, err := toInt64(rep.ReputationScore)
	if err != nil {
		return model.UserReputation{}, err
	}

	query, args, err := t.sq.
		Insert("reputations").
		SetMap(map[string]interface{}{
			"address":             address.ForReputation(rep.User.String()).String(),
			"user_identity":       rep.User.String(),
			"questions_submitted": int64(rep.QuestionsSubmitted),
			"questions_approved":  int64(rep.QuestionsApproved),
			"curation_votes":      int64(rep.CurationVotes),
			"reputation_score":    score,
			"version":             1,
		}).
		Suffix("ON CONFLICT DO NOTHING").
		ToSql()
	if err != nil {
		return model.UserReputation{}, fmt.Errorf("failed to build reputation insert query: %w", err)
	}

	if err := t.insertOnce(ctx, query, args); err != nil {
		return model.UserReputation{}, err
	}

	rep.Version = 1
	return rep, nil
}

func (t *Tx) SaveReputation(ctx context.Context, rep model.UserReputation) (model.UserReputation, error) {
	score, err := toInt64(rep.ReputationScore)
	if err != nil {
		return model.UserReputation{}, err
	}

	query, args, err := t.sq.
		Update("reputations").
		SetMap(map[string]interface{}{
			"questions_submitted": int64(rep.QuestionsSubmitted),
			"questions_approved":  int64(rep.QuestionsApproved),
			"curation_votes":      int64(rep.CurationVotes),
			"reputation_score":    score,
			"version":             squirrel.Expr("version + 1"),
		}).
		Where(squirrel.Eq{
			"address": address.ForReputation(rep.User.String()).String(),
			"version": int64(rep.Version),
		}).
		ToSql()
	if err != nil {
		return model.UserReputation{}, fmt.Errorf("failed to build reputation update query: %w", err)
	}

	if err := t.updateVersioned(ctx, query, args); err != nil {
		return model.UserReputation{}, err
	}

	rep.Version++
	return rep, nil
}
