// Package polls implements the question and choice operations behind the
// public poll pages and the authenticated management forms.
package polls

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/garnizeh/polls/pkg/models"
	"github.com/garnizeh/polls/pkg/repository"
)

// LatestLimit is the number of questions shown on the index page.
const LatestLimit = 5

var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidSelection = errors.New("invalid choice selection")
	ErrInvalidInput     = errors.New("invalid input")
)

type Service struct {
	questions repository.QuestionRepo
	choices   repository.ChoiceRepo
	logger    *slog.Logger
	now       func() time.Time
}

type Option func(*Service)

// WithClock overrides the time source used for publish checks.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func NewService(qr repository.QuestionRepo, cr repository.ChoiceRepo, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{questions: qr, choices: cr, logger: logger, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

// ListPublished returns the most recent published questions, newest first.
func (s *Service) ListPublished(ctx context.Context) ([]models.Question, error) {
	qs, err := s.questions.ListPublished(ctx, s.now(), LatestLimit)
	if err != nil {
		return nil, fmt.Errorf("list published: %w", err)
	}
	return qs, nil
}

// ListQuestions returns every question, published or not.
func (s *Service) ListQuestions(ctx context.Context) ([]models.Question, error) {
	qs, err := s.questions.ListQuestions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	return qs, nil
}

// QuestionDetail loads a published question with its choices.
func (s *Service) QuestionDetail(ctx context.Context, id int64) (*models.Question, error) {
	q, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !q.Published(s.now()) {
		return nil, ErrNotFound
	}
	return q, nil
}

// Results loads a question with its choices regardless of publish state.
func (s *Service) Results(ctx context.Context, id int64) (*models.Question, error) {
	return s.load(ctx, id)
}

func (s *Service) load(ctx context.Context, id int64) (*models.Question, error) {
	q, err := s.questions.GetQuestion(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get question %d: %w", id, err)
	}
	if q == nil {
		return nil, ErrNotFound
	}

	choices, err := s.choices.ListChoices(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list choices of %d: %w", id, err)
	}
	q.Choices = choices
	return q, nil
}

// CreateQuestion stores a new question. A zero pubDate publishes it
// immediately.
func (s *Service) CreateQuestion(ctx context.Context, text string, pubDate time.Time) (*models.Question, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("question text is required: %w", ErrInvalidInput)
	}
	if pubDate.IsZero() {
		pubDate = s.now()
	}

	q := &models.Question{QuestionText: text, PubDate: pubDate}
	id, err := s.questions.CreateQuestion(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("create question: %w", err)
	}
	q.ID = id

	s.logger.Info("question created", slog.Int64("question_id", id))
	return q, nil
}

func (s *Service) UpdateQuestionText(ctx context.Context, id int64, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return fmt.Errorf("question text is required: %w", ErrInvalidInput)
	}

	ok, err := s.questions.UpdateQuestionText(ctx, id, text)
	if err != nil {
		return fmt.Errorf("update question %d: %w", id, err)
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

// DeleteQuestion removes a question and its choices. Unknown ids are ignored.
func (s *Service) DeleteQuestion(ctx context.Context, id int64) error {
	if err := s.questions.DeleteQuestion(ctx, id); err != nil {
		return fmt.Errorf("delete question %d: %w", id, err)
	}
	s.logger.Info("question deleted", slog.Int64("question_id", id))
	return nil
}

func (s *Service) AddChoice(ctx context.Context, questionID int64, text string) (*models.Choice, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("choice text is required: %w", ErrInvalidInput)
	}

	q, err := s.questions.GetQuestion(ctx, questionID)
	if err != nil {
		return nil, fmt.Errorf("get question %d: %w", questionID, err)
	}
	if q == nil {
		return nil, ErrNotFound
	}

	c := &models.Choice{QuestionID: questionID, ChoiceText: text}
	id, err := s.choices.CreateChoice(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("create choice: %w", err)
	}
	c.ID = id
	return c, nil
}

// DeleteChoice removes the choice by id. Unknown ids are ignored.
func (s *Service) DeleteChoice(ctx context.Context, choiceID int64) error {
	if err := s.choices.DeleteChoice(ctx, choiceID); err != nil {
		return fmt.Errorf("delete choice %d: %w", choiceID, err)
	}
	return nil
}

// CastVote adds one vote to a choice of a published question. The choice must
// belong to that question, otherwise ErrInvalidSelection is returned and no
// counter changes.
func (s *Service) CastVote(ctx context.Context, questionID, choiceID int64) (*models.Question, error) {
	q, err := s.questions.GetQuestion(ctx, questionID)
	if err != nil {
		return nil, fmt.Errorf("get question %d: %w", questionID, err)
	}
	if q == nil || !q.Published(s.now()) {
		return nil, ErrNotFound
	}
	if choiceID <= 0 {
		return nil, ErrInvalidSelection
	}

	ok, err := s.choices.IncrementVotes(ctx, choiceID, questionID)
	if err != nil {
		return nil, fmt.Errorf("vote for choice %d: %w", choiceID, err)
	}
	if !ok {
		return nil, ErrInvalidSelection
	}
	return q, nil
}

// UpVote adds one vote to any existing choice.
func (s *Service) UpVote(ctx context.Context, choiceID int64) error {
	if choiceID <= 0 {
		return ErrNotFound
	}
	ok, err := s.choices.IncrementVotes(ctx, choiceID, 0)
	if err != nil {
		return fmt.Errorf("up-vote choice %d: %w", choiceID, err)
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}
