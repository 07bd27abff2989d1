package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"quizboard/internal/quiz"
	"quizboard/internal/storage"
)

// Seeder writes quiz rows. It backs the quizctl tooling and tests; the
// service itself only reads quizzes.
type Seeder struct {
	db *storage.DB
}

func NewSeeder(db *storage.DB) *Seeder {
	return &Seeder{db: db}
}

// AddQuiz inserts item. A positive item.ID is used verbatim so question sets
// can be aligned with quiz ids; reusing an id reports quiz.ErrConflict.
func (s *Seeder) AddQuiz(ctx context.Context, item quiz.Quiz) (quiz.Quiz, error) {
	if item.Kind == "" {
		item.Kind = quiz.KindDaily
	}
	if !item.Kind.Valid() {
		return quiz.Quiz{}, fmt.Errorf("invalid quiz kind %q", item.Kind)
	}
	item.Due = item.Due.UTC()

	var id any
	if item.ID > 0 {
		id = item.ID
	}

	err := s.db.InTx(ctx, "quiz.add", func(ctx context.Context, tx *sql.Tx) error {
		result, err := tx.ExecContext(
			ctx,
			`INSERT INTO quiz (id, name, price, due, kind, is_finished) VALUES (?, ?, ?, ?, ?, ?)`,
			id,
			item.Name,
			item.Price,
			item.Due,
			string(item.Kind),
			item.IsFinished,
		)
		if err != nil {
			if storage.IsUniqueViolation(err) {
				return fmt.Errorf("%w: quiz %d already exists", quiz.ErrConflict, item.ID)
			}
			return err
		}

		item.ID, err = result.LastInsertId()
		return err
	})
	if err != nil {
		return quiz.Quiz{}, wrapStorageErr("add quiz", err)
	}
	return item, nil
}

// Finish closes a quiz so it no longer shows up in listings.
func (s *Seeder) Finish(ctx context.Context, quizID int64) error {
	err := s.db.InTx(ctx, "quiz.finish", func(ctx context.Context, tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `UPDATE quiz SET is_finished = 1 WHERE id = ?`, quizID)
		if err != nil {
			return err
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return fmt.Errorf("%w: %d", quiz.ErrQuizNotFound, quizID)
		}
		return nil
	})
	return wrapStorageErr("finish quiz", err)
}

// DefaultQuizzes are the two quizzes a fresh database starts with. Their ids
// line up with the two sets of the embedded question bank.
func DefaultQuizzes() []quiz.Quiz {
	due := time.Date(2024, time.August, 6, 7, 0, 0, 0, time.UTC)
	eventName, dailyName := "Event Quiz", "Daily Quiz"
	return []quiz.Quiz{
		{ID: 1, Name: &eventName, Price: 5.0, Due: due, Kind: quiz.KindEvent},
		{ID: 2, Name: &dailyName, Price: 0.5, Due: due, Kind: quiz.KindDaily},
	}
}

// Seed adds every quiz in items, skipping ids that already exist. It returns
// the quizzes that were inserted.
func (s *Seeder) Seed(ctx context.Context, items []quiz.Quiz) ([]quiz.Quiz, error) {
	added := make([]quiz.Quiz, 0, len(items))
	for _, item := range items {
		stored, err := s.AddQuiz(ctx, item)
		if errors.Is(err, quiz.ErrConflict) {
			continue
		}
		if err != nil {
			return added, err
		}
		added = append(added, stored)
	}
	return added, nil
}
