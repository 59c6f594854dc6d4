package models

import "time"

// Domain models matching the database schema in db/migrations/0001_init.sql

type User struct {
	ID           int64  `json:"id" db:"id"`
	FirstName    string `json:"first_name" db:"first_name"`
	LastName     string `json:"last_name" db:"last_name"`
	Username     string `json:"username" db:"username" validate:"required"`
	PasswordHash string `json:"-" db:"password_hash"`
	Created      int64  `json:"created" db:"created"`
}

type Question struct {
	ID           int64     `json:"id" db:"id"`
	QuestionText string    `json:"question_text" db:"question_text" validate:"required"`
	PubDate      time.Time `json:"pub_date" db:"pub_date"`
	Choices      []Choice  `json:"choices,omitempty" db:"-"`
}

// Published reports whether the question is visible at the given instant.
func (q *Question) Published(now time.Time) bool {
	return !q.PubDate.After(now)
}

// TotalVotes sums the votes of the loaded choices.
func (q *Question) TotalVotes() int64 {
	var total int64
	for _, c := range q.Choices {
		total += c.Votes
	}
	return total
}

type Choice struct {
	ID         int64  `json:"id" db:"id"`
	QuestionID int64  `json:"question_id" db:"question_id"`
	ChoiceText string `json:"choice_text" db:"choice_text" validate:"required"`
	Votes      int64  `json:"votes" db:"votes"`
}

type Session struct {
	ID      string    `json:"id" db:"id"`
	UserID  int64     `json:"user_id" db:"user_id"`
	Created time.Time `json:"created" db:"created"`
	Expires time.Time `json:"expires" db:"expires"`
}

// Expired reports whether the session is no longer valid at the given instant.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.Expires)
}
