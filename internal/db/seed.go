package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/qri-io/jsonschema"
)

const (
	seedSchemaFile    = "questions.schema.json"
	seedQuestionsFile = "questions.json"
)

type seedDoc struct {
	Questions []seedQuestion `json:"questions"`
}

type seedQuestion struct {
	QuestionText string   `json:"question_text"`
	PubOffset    string   `json:"pub_offset,omitempty"`
	Choices      []string `json:"choices"`
}

// Seed loads seed/questions.json from seedFS, validates it against
// seed/questions.schema.json and inserts every question whose text is not
// already present. It returns the number of questions inserted.
func Seed(ctx context.Context, d *DB, seedFS fs.FS, now time.Time) (int, error) {
	data, err := fs.ReadFile(seedFS, path.Join("seed", seedQuestionsFile))
	if err != nil {
		return 0, fmt.Errorf("read seed: %w", err)
	}
	return SeedBytes(ctx, d, seedFS, data, now)
}

// SeedBytes is Seed for a document supplied by the caller; the schema is still
// read from seedFS.
func SeedBytes(ctx context.Context, d *DB, seedFS fs.FS, data []byte, now time.Time) (int, error) {
	schemaBytes, err := fs.ReadFile(seedFS, path.Join("seed", seedSchemaFile))
	if err != nil {
		return 0, fmt.Errorf("read seed schema: %w", err)
	}

	rs := &jsonschema.Schema{}
	if err := json.Unmarshal(schemaBytes, rs); err != nil {
		return 0, fmt.Errorf("compile seed schema: %w", err)
	}

	verrs, err := rs.ValidateBytes(ctx, data)
	if err != nil {
		return 0, fmt.Errorf("seed validate error: %w", err)
	}
	if len(verrs) > 0 {
		var sb strings.Builder
		for _, v := range verrs {
			sb.WriteString(v.PropertyPath)
			sb.WriteString(": ")
			sb.WriteString(v.Message)
			sb.WriteString("; ")
		}
		return 0, fmt.Errorf("seed does not match schema: %s", sb.String())
	}

	var doc seedDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return 0, fmt.Errorf("decode seed: %w", err)
	}

	inserted := 0
	err = d.WithTx(ctx, func(tx *sql.Tx) error {
		for _, q := range doc.Questions {
			pub := now
			if q.PubOffset != "" {
				off, err := time.ParseDuration(q.PubOffset)
				if err != nil {
					return fmt.Errorf("question %q: bad pub_offset: %w", q.QuestionText, err)
				}
				pub = now.Add(off)
			}

			var exists int
			if err := tx.QueryRowContext(ctx, `SELECT COUNT(1) FROM questions WHERE question_text = ?`, q.QuestionText).Scan(&exists); err != nil {
				return fmt.Errorf("check question: %w", err)
			}
			if exists > 0 {
				continue
			}

			res, err := tx.ExecContext(ctx, `INSERT INTO questions (question_text, pub_date) VALUES (?, ?)`, q.QuestionText, pub.UTC().UnixMilli())
			if err != nil {
				return fmt.Errorf("insert question: %w", err)
			}
			qid, err := res.LastInsertId()
			if err != nil {
				return err
			}
			for _, c := range q.Choices {
				if _, err := tx.ExecContext(ctx, `INSERT INTO choices (question_id, choice_text, votes) VALUES (?, ?, 0)`, qid, c); err != nil {
					return fmt.Errorf("insert choice: %w", err)
				}
			}
			inserted++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	d.logger.Info("seed applied", slog.Int("inserted", inserted))
	return inserted, nil
}
