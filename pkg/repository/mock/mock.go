package mock

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/garnizeh/polls/pkg/models"
	"github.com/garnizeh/polls/pkg/repository"
)

// Store is an in-memory implementation of every repository interface, used by
// handler and service tests. Set the *Err fields to force failures.
type Store struct {
	mu sync.Mutex

	Questions map[int64]*models.Question
	Choices   map[int64]*models.Choice
	Users     map[int64]*models.User
	Sessions  map[string]*models.Session

	nextQuestion int64
	nextChoice   int64
	nextUser     int64

	CreateErr error
	QueryErr  error
}

var _ repository.QuestionRepo = (*Store)(nil)
var _ repository.ChoiceRepo = (*Store)(nil)
var _ repository.UserRepo = (*Store)(nil)
var _ repository.SessionRepo = (*Store)(nil)

func NewStore() *Store {
	return &Store{
		Questions: map[int64]*models.Question{},
		Choices:   map[int64]*models.Choice{},
		Users:     map[int64]*models.User{},
		Sessions:  map[string]*models.Session{},
	}
}

func (m *Store) CreateQuestion(ctx context.Context, q *models.Question) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateErr != nil {
		return 0, m.CreateErr
	}
	m.nextQuestion++
	m.Questions[m.nextQuestion] = &models.Question{ID: m.nextQuestion, QuestionText: q.QuestionText, PubDate: q.PubDate}
	return m.nextQuestion, nil
}

func (m *Store) GetQuestion(ctx context.Context, id int64) (*models.Question, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.QueryErr != nil {
		return nil, m.QueryErr
	}
	q, ok := m.Questions[id]
	if !ok {
		return nil, nil
	}
	cp := *q
	return &cp, nil
}

func (m *Store) ListPublished(ctx context.Context, now time.Time, limit int) ([]models.Question, error) {
	if limit <= 0 {
		limit = 5
	}
	all, err := m.ListQuestions(ctx)
	if err != nil {
		return nil, err
	}
	var out []models.Question
	for _, q := range all {
		if !q.PubDate.After(now) {
			out = append(out, q)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *Store) ListQuestions(ctx context.Context) ([]models.Question, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.QueryErr != nil {
		return nil, m.QueryErr
	}
	out := make([]models.Question, 0, len(m.Questions))
	for _, q := range m.Questions {
		out = append(out, *q)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].PubDate.Equal(out[j].PubDate) {
			return out[i].ID > out[j].ID
		}
		return out[i].PubDate.After(out[j].PubDate)
	})
	return out, nil
}

func (m *Store) UpdateQuestionText(ctx context.Context, id int64, text string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.Questions[id]
	if !ok {
		return false, nil
	}
	q.QuestionText = text
	return true, nil
}

func (m *Store) DeleteQuestion(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.Questions, id)
	for cid, c := range m.Choices {
		if c.QuestionID == id {
			delete(m.Choices, cid)
		}
	}
	return nil
}

func (m *Store) CreateChoice(ctx context.Context, c *models.Choice) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateErr != nil {
		return 0, m.CreateErr
	}
	if _, ok := m.Questions[c.QuestionID]; !ok {
		return 0, fmt.Errorf("question %d does not exist", c.QuestionID)
	}
	m.nextChoice++
	m.Choices[m.nextChoice] = &models.Choice{ID: m.nextChoice, QuestionID: c.QuestionID, ChoiceText: c.ChoiceText}
	return m.nextChoice, nil
}

func (m *Store) GetChoice(ctx context.Context, id int64) (*models.Choice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.Choices[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (m *Store) ListChoices(ctx context.Context, questionID int64) ([]models.Choice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.QueryErr != nil {
		return nil, m.QueryErr
	}
	var out []models.Choice
	for _, c := range m.Choices {
		if c.QuestionID == questionID {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Store) DeleteChoice(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.Choices, id)
	return nil
}

func (m *Store) IncrementVotes(ctx context.Context, choiceID, questionID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.Choices[choiceID]
	if !ok || (questionID > 0 && c.QuestionID != questionID) {
		return false, nil
	}
	c.Votes++
	return true, nil
}

func (m *Store) CreateUser(ctx context.Context, u *models.User) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateErr != nil {
		return 0, m.CreateErr
	}
	for _, existing := range m.Users {
		if existing.Username == u.Username {
			return 0, repository.ErrDuplicate
		}
	}
	m.nextUser++
	cp := *u
	cp.ID = m.nextUser
	m.Users[cp.ID] = &cp
	return cp.ID, nil
}

func (m *Store) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.QueryErr != nil {
		return nil, m.QueryErr
	}
	u, ok := m.Users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (m *Store) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.QueryErr != nil {
		return nil, m.QueryErr
	}
	for _, u := range m.Users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *Store) CreateSession(ctx context.Context, s *models.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateErr != nil {
		return m.CreateErr
	}
	cp := *s
	m.Sessions[s.ID] = &cp
	return nil
}

func (m *Store) GetSession(ctx context.Context, id string) (*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.QueryErr != nil {
		return nil, m.QueryErr
	}
	s, ok := m.Sessions[id]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (m *Store) DeleteSession(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.Sessions, id)
	return nil
}

func (m *Store) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, s := range m.Sessions {
		if s.Expired(now) {
			delete(m.Sessions, id)
			n++
		}
	}
	return n, nil
}

// Votes returns the current counter of a choice, or -1 when absent.
func (m *Store) Votes(choiceID int64) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.Choices[choiceID]
	if !ok {
		return -1
	}
	return c.Votes
}
