package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/garnizeh/polls/pkg/models"
)

func (r *SQLiteRepo) CreateQuestion(ctx context.Context, q *models.Question) (int64, error) {
	if q == nil {
		return 0, fmt.Errorf("question is nil")
	}

	res, err := r.conn.Exec(ctx, `INSERT INTO questions (question_text, pub_date) VALUES (?, ?)`, q.QuestionText, toMillis(q.PubDate))
	if err != nil {
		return 0, err
	}

	return res.LastInsertId()
}

func (r *SQLiteRepo) GetQuestion(ctx context.Context, id int64) (*models.Question, error) {
	row := r.conn.QueryRow(ctx, `SELECT id, question_text, pub_date FROM questions WHERE id = ?`, id)
	var q models.Question
	var pub int64
	if err := row.Scan(&q.ID, &q.QuestionText, &pub); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}

		return nil, err
	}
	q.PubDate = fromMillis(pub)

	return &q, nil
}

// ListPublished returns questions with pub_date <= now, newest first.
func (r *SQLiteRepo) ListPublished(ctx context.Context, now time.Time, limit int) ([]models.Question, error) {
	if limit <= 0 {
		limit = 5
	}

	rows, err := r.conn.QueryRows(ctx, `SELECT id, question_text, pub_date FROM questions WHERE pub_date <= ? ORDER BY pub_date DESC, id DESC LIMIT ?`, toMillis(now), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanQuestions(rows)
}

// ListQuestions returns every question regardless of publish state.
func (r *SQLiteRepo) ListQuestions(ctx context.Context) ([]models.Question, error) {
	rows, err := r.conn.QueryRows(ctx, `SELECT id, question_text, pub_date FROM questions ORDER BY pub_date DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanQuestions(rows)
}

func scanQuestions(rows *sql.Rows) ([]models.Question, error) {
	var out []models.Question
	for rows.Next() {
		var q models.Question
		var pub int64
		if err := rows.Scan(&q.ID, &q.QuestionText, &pub); err != nil {
			return nil, err
		}
		q.PubDate = fromMillis(pub)
		out = append(out, q)
	}
	return out, rows.Err()
}

func (r *SQLiteRepo) UpdateQuestionText(ctx context.Context, id int64, text string) (bool, error) {
	res, err := r.conn.Exec(ctx, `UPDATE questions SET question_text = ? WHERE id = ?`, text, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// DeleteQuestion removes the question and its choices. Missing ids are ignored.
func (r *SQLiteRepo) DeleteQuestion(ctx context.Context, id int64) error {
	return r.conn.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM choices WHERE question_id = ?`, id); err != nil {
			return fmt.Errorf("delete choices: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM questions WHERE id = ?`, id); err != nil {
			return fmt.Errorf("delete question: %w", err)
		}
		return nil
	})
}
