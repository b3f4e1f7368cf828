package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Soltrivia-App/soltrivia-contract/internal/address"
	"github.com/Soltrivia-App/soltrivia-contract/internal/model"

	"github.com/Masterminds/squirrel"
	"github.com/goccy/go-json"
)

const defaultQuestionLimit = 50

type Question struct {
	Address       string `db:"address"`
	ID            int64  `db:"id"`
	Submitter     string `db:"submitter"`
	Text          string `db:"question_text"`
	Options       string `db:"options"`
	CorrectAnswer int64  `db:"correct_answer"`
	Category      string `db:"category"`
	CategorySlug  string `db:"category_slug"`
	Difficulty    int64  `db:"difficulty"`
	VotesApprove  int64  `db:"votes_approve"`
	VotesReject   int64  `db:"votes_reject"`
	Voters        string `db:"voters"`
	Status        string `db:"status"`
	CreatedAt     int64  `db:"created_at"`
	Version       int64  `db:"version"`
}

var questionColumns = []string{
	"address", "id", "submitter", "question_text", "options", "correct_answer",
	"category", "category_slug", "difficulty", "votes_approve", "votes_reject",
	"voters", "status", "created_at", "version",
}

func (q Question) toModel() (model.Question, error) {
	var options [model.OptionCount]string
	if err := json.Unmarshal([]byte(q.Options), &options); err != nil {
		return model.Question{}, fmt.Errorf("failed to decode options of question %d: %w", q.ID, err)
	}
	var voters []model.Identity
	if err := json.Unmarshal([]byte(q.Voters), &voters); err != nil {
		return model.Question{}, fmt.Errorf("failed to decode voters of question %d: %w", q.ID, err)
	}
	if voters == nil {
		voters = []model.Identity{}
	}

	return model.Question{
		ID:            uint64(q.ID),
		Submitter:     model.Identity(q.Submitter),
		Text:          q.Text,
		Options:       options,
		CorrectAnswer: uint8(q.CorrectAnswer),
		Category:      q.Category,
		CategorySlug:  q.CategorySlug,
		Difficulty:    uint8(q.Difficulty),
		VotesApprove:  uint32(q.VotesApprove),
		VotesReject:   uint32(q.VotesReject),
		Voters:        voters,
		Status:        model.QuestionStatus(q.Status),
		CreatedAt:     q.CreatedAt,
		Version:       uint64(q.Version),
	}, nil
}

func (t *Tx) GetQuestion(ctx context.Context, id uint64) (model.Question, error) {
	var row Question

	query, args, err := t.sq.
		Select(questionColumns...).
		From("questions").
		Where(squirrel.Eq{"address": address.ForQuestion(id).String()}).
		ToSql()
	if err != nil {
		return model.Question{}, fmt.Errorf("failed to build question select query: %w", err)
	}

	err = t.tx.GetContext(ctx, &row, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Question{}, ErrNotFound
		}
		return model.Question{}, fmt.Errorf("failed to get question %d: %w", id, err)
	}

	return row.toModel()
}

func (t *Tx) CreateQuestion(ctx context.Context, q model.Question) (model.Question, error) {
	id, err := toInt64(q.ID)
	if err != nil {
		return model.Question{}, err
	}
	options, err := json.Marshal(q.Options)
	if err != nil {
		return model.Question{}, fmt.Errorf("failed to encode options: %w", err)
	}
	voters, err := json.Marshal(q.Voters)
	if err != nil {
		return model.Question{}, fmt.Errorf("failed to encode voters: %w", err)
	}

	query, args, err := t.sq.
		Insert("questions").
		SetMap(map[string]interface{}{
			"address":        address.ForQuestion(q.ID).String(),
			"id":             id,
			"submitter":      string(q.Submitter),
			"question_text":  q.Text,
			"options":        string(options),
			"correct_answer": int64(q.CorrectAnswer),
			"category":       q.Category,
			"category_slug":  q.CategorySlug,
			"difficulty":     int64(q.Difficulty),
			"votes_approve":  int64(q.VotesApprove),
			"votes_reject":   int64(q.VotesReject),
			"voters":         string(voters),
			"status":         string(q.Status),
			"created_at":     q.CreatedAt,
			"version":        1,
		}).
		Suffix("ON CONFLICT DO NOTHING").
		ToSql()
	if err != nil {
		return model.Question{}, fmt.Errorf("failed to build question insert query: %w", err)
	}

	if err := t.insertOnce(ctx, query, args); err != nil {
		return model.Question{}, err
	}

	q.Version = 1
	return q, nil
}

// SaveQuestion stores the mutable part of a question: votes, voters and
// status.
func (t *Tx) SaveQuestion(ctx context.Context, q model.Question) (model.Question, error) {
	voters, err := json.Marshal(q.Voters)
	if err != nil {
		return model.Question{}, fmt.Errorf("failed to encode voters: %w", err)
	}

	query, args, err := t.sq.
		Update("questions").
		SetMap(map[string]interface{}{
			"votes_approve": int64(q.VotesApprove),
			"votes_reject":  int64(q.VotesReject),
			"voters":        string(voters),
			"status":        string(q.Status),
			"version":       squirrel.Expr("version + 1"),
		}).
		Where(squirrel.Eq{
			"address": address.ForQuestion(q.ID).String(),
			"version": int64(q.Version),
		}).
		ToSql()
	if err != nil {
		return model.Question{}, fmt.Errorf("failed to build question update query: %w", err)
	}

	if err := t.updateVersioned(ctx, query, args); err != nil {
		return model.Question{}, err
	}

	q.Version++
	return q, nil
}

// ListApprovedQuestions returns approved questions ordered by id. Empty
// filter fields match everything.
func (t *Tx) ListApprovedQuestions(ctx context.Context, filter model.QuestionFilter) ([]model.Question, error) {
	limit := filter.Limit
	if limit == 0 || limit > defaultQuestionLimit {
		limit = defaultQuestionLimit
	}

	builder := t.sq.
		Select(questionColumns...).
		From("questions").
		Where(squirrel.Eq{"status": string(model.QuestionApproved)}).
		OrderBy("id ASC").
		Limit(limit)
	if filter.Category != "" {
		builder = builder.Where(squirrel.Eq{"category_slug": filter.Category})
	}
	if filter.Difficulty != 0 {
		builder = builder.Where(squirrel.Eq{"difficulty": int64(filter.Difficulty)})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build approved questions query: %w", err)
	}

	var rows []Question
	if err := t.tx.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list approved questions: %w", err)
	}

	questions := make([]model.Question, 0, len(rows))
	for _, row := range rows {
		q, err := row.toModel()
		if err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}

	return questions, nil
}
