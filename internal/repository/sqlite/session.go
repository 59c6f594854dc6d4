package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/garnizeh/polls/pkg/models"
)

func (r *SQLiteRepo) CreateSession(ctx context.Context, s *models.Session) error {
	if s == nil {
		return fmt.Errorf("session is nil")
	}

	_, err := r.conn.Exec(ctx, `INSERT INTO sessions (id, user_id, created, expires) VALUES (?, ?, ?, ?)`, s.ID, s.UserID, toMillis(s.Created), toMillis(s.Expires))
	return err
}

func (r *SQLiteRepo) GetSession(ctx context.Context, id string) (*models.Session, error) {
	row := r.conn.QueryRow(ctx, `SELECT id, user_id, created, expires FROM sessions WHERE id = ?`, id)
	var s models.Session
	var created, expires int64
	if err := row.Scan(&s.ID, &s.UserID, &created, &expires); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	s.Created = fromMillis(created)
	s.Expires = fromMillis(expires)
	return &s, nil
}

func (r *SQLiteRepo) DeleteSession(ctx context.Context, id string) error {
	_, err := r.conn.Exec(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	return err
}

func (r *SQLiteRepo) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.conn.Exec(ctx, `DELETE FROM sessions WHERE expires <= ?`, toMillis(now))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
