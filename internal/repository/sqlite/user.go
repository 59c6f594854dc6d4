package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/garnizeh/polls/pkg/models"
	"github.com/garnizeh/polls/pkg/repository"
)

func (r *SQLiteRepo) CreateUser(ctx context.Context, u *models.User) (int64, error) {
	if u == nil {
		return 0, fmt.Errorf("user is nil")
	}

	res, err := r.conn.Exec(ctx, `INSERT INTO users (first_name, last_name, username, password_hash, created) VALUES (?, ?, ?, ?, ?)`, u.FirstName, u.LastName, u.Username, u.PasswordHash, now())
	if err != nil {
		if isUniqueViolation(err) {
			r.logger.Debug("duplicate username rejected", slog.String("username", u.Username))
			return 0, fmt.Errorf("username %q: %w", u.Username, repository.ErrDuplicate)
		}
		return 0, err
	}

	return res.LastInsertId()
}

func (r *SQLiteRepo) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	return r.getUser(ctx, `SELECT id, first_name, last_name, username, password_hash, created FROM users WHERE id = ?`, id)
}

func (r *SQLiteRepo) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.getUser(ctx, `SELECT id, first_name, last_name, username, password_hash, created FROM users WHERE username = ?`, username)
}

func (r *SQLiteRepo) getUser(ctx context.Context, query string, arg any) (*models.User, error) {
	row := r.conn.QueryRow(ctx, query, arg)
	var u models.User
	if err := row.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Username, &u.PasswordHash, &u.Created); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}

		return nil, err
	}

	return &u, nil
}
