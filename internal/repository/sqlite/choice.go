package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/garnizeh/polls/pkg/models"
)

func (r *SQLiteRepo) CreateChoice(ctx context.Context, c *models.Choice) (int64, error) {
	if c == nil {
		return 0, fmt.Errorf("choice is nil")
	}

	res, err := r.conn.Exec(ctx, `INSERT INTO choices (question_id, choice_text, votes) VALUES (?, ?, 0)`, c.QuestionID, c.ChoiceText)
	if err != nil {
		return 0, err
	}

	return res.LastInsertId()
}

func (r *SQLiteRepo) GetChoice(ctx context.Context, id int64) (*models.Choice, error) {
	row := r.conn.QueryRow(ctx, `SELECT id, question_id, choice_text, votes FROM choices WHERE id = ?`, id)
	var c models.Choice
	if err := row.Scan(&c.ID, &c.QuestionID, &c.ChoiceText, &c.Votes); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

func (r *SQLiteRepo) ListChoices(ctx context.Context, questionID int64) ([]models.Choice, error) {
	rows, err := r.conn.QueryRows(ctx, `SELECT id, question_id, choice_text, votes FROM choices WHERE question_id = ? ORDER BY id`, questionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Choice
	for rows.Next() {
		var c models.Choice
		if err := rows.Scan(&c.ID, &c.QuestionID, &c.ChoiceText, &c.Votes); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *SQLiteRepo) DeleteChoice(ctx context.Context, id int64) error {
	_, err := r.conn.Exec(ctx, `DELETE FROM choices WHERE id = ?`, id)
	return err
}

func (r *SQLiteRepo) IncrementVotes(ctx context.Context, choiceID, questionID int64) (bool, error) {
	var (
		res sql.Result
		err error
	)
	if questionID > 0 {
		res, err = r.conn.Exec(ctx, `UPDATE choices SET votes = votes + 1 WHERE id = ? AND question_id = ?`, choiceID, questionID)
	} else {
		res, err = r.conn.Exec(ctx, `UPDATE choices SET votes = votes + 1 WHERE id = ?`, choiceID)
	}
	if err != nil {
		return false, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
