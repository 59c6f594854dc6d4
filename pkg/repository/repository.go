package repository

import (
	"context"
	"errors"
	"time"

	"github.com/garnizeh/polls/pkg/models"
)

// Repository interfaces for domain entities. These are the public contracts
// consumers should depend on; concrete implementations live under internal/.
//
// Getters return (nil, nil) when the row does not exist.

// ErrDuplicate is returned when an insert violates a uniqueness constraint.
var ErrDuplicate = errors.New("duplicate record")

type QuestionRepo interface {
	CreateQuestion(ctx context.Context, q *models.Question) (int64, error)
	GetQuestion(ctx context.Context, id int64) (*models.Question, error)
	ListPublished(ctx context.Context, now time.Time, limit int) ([]models.Question, error)
	ListQuestions(ctx context.Context) ([]models.Question, error)
	UpdateQuestionText(ctx context.Context, id int64, text string) (bool, error)
	DeleteQuestion(ctx context.Context, id int64) error
}

type ChoiceRepo interface {
	CreateChoice(ctx context.Context, c *models.Choice) (int64, error)
	GetChoice(ctx context.Context, id int64) (*models.Choice, error)
	ListChoices(ctx context.Context, questionID int64) ([]models.Choice, error)
	DeleteChoice(ctx context.Context, id int64) error
	// IncrementVotes atomically adds one vote to the choice. A questionID of
	// zero matches any question. Reports whether a row was updated.
	IncrementVotes(ctx context.Context, choiceID, questionID int64) (bool, error)
}

type UserRepo interface {
	CreateUser(ctx context.Context, u *models.User) (int64, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
}

type SessionRepo interface {
	CreateSession(ctx context.Context, s *models.Session) error
	GetSession(ctx context.Context, id string) (*models.Session, error)
	DeleteSession(ctx context.Context, id string) error
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)
}
