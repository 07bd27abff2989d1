package sqlite

import (
	"context"
	"database/sql"
	"log/slog"

	"quizboard/internal/quiz"
	"quizboard/internal/storage"
)

type QuizCatalog struct {
	db        *storage.DB
	questions quiz.QuestionSource
	logger    *slog.Logger
}

func NewQuizCatalog(db *storage.DB, questions quiz.QuestionSource, logger *slog.Logger) *QuizCatalog {
	return &QuizCatalog{db: db, questions: questions, logger: logger}
}

// List returns the quizzes that are still open, in insertion order.
func (c *QuizCatalog) List(ctx context.Context) ([]quiz.Quiz, error) {
	quizzes := make([]quiz.Quiz, 0)
	err := c.db.InTx(ctx, "quiz.list", func(ctx context.Context, tx *sql.Tx) error {
		rows, err := tx.QueryContext(
			ctx,
			`SELECT id, name, price, due, kind, is_finished
			 FROM quiz
			 WHERE is_finished = 0
			 ORDER BY id ASC`,
		)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			item, err := scanQuiz(rows)
			if err != nil {
				return err
			}
			quizzes = append(quizzes, item)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, wrapStorageErr("list quizzes", err)
	}
	return quizzes, nil
}

// Questions looks the quiz up in the question source; it does not touch the
// database.
func (c *QuizCatalog) Questions(ctx context.Context, quizID int64) (quiz.QuestionSet, error) {
	if c.questions == nil {
		return nil, quiz.ErrUnknownQuiz
	}
	set, err := c.questions.QuestionSet(quizID)
	if err != nil {
		c.logger.DebugContext(ctx, "question set lookup failed", "quiz_id", quizID, "error", err)
		return nil, err
	}
	return set, nil
}

func scanQuiz(row rowScanner) (quiz.Quiz, error) {
	var (
		item quiz.Quiz
		name sql.NullString
		kind string
	)
	if err := row.Scan(&item.ID, &name, &item.Price, &item.Due, &kind, &item.IsFinished); err != nil {
		return quiz.Quiz{}, err
	}
	item.Name = nullString(name)
	item.Kind = quiz.QuizKind(kind)
	item.Due = item.Due.UTC()
	return item, nil
}
