package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"quizboard/internal/quiz"
	"quizboard/internal/storage"
)

// Stores groups the repositories that share one storage handle.
type Stores struct {
	Users   *UserStore
	Quizzes *QuizCatalog
	Scores  *ScoreLedger
	Seeder  *Seeder
}

func New(db *storage.DB, questions quiz.QuestionSource, logger *slog.Logger) *Stores {
	if logger == nil {
		logger = slog.Default()
	}
	return &Stores{
		Users:   NewUserStore(db, logger),
		Quizzes: NewQuizCatalog(db, questions, logger),
		Scores:  NewScoreLedger(db, logger),
		Seeder:  NewSeeder(db),
	}
}

// wrapStorageErr passes domain errors through untouched and tags everything
// else as a storage failure.
func wrapStorageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if quiz.IsDomainError(err) {
		return err
	}
	return fmt.Errorf("%s: %w: %w", op, quiz.ErrStorage, err)
}

func nullString(value sql.NullString) *string {
	if !value.Valid {
		return nil
	}
	s := value.String
	return &s
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUserScore(row rowScanner) (quiz.UserScore, error) {
	var (
		score quiz.UserScore
		shard sql.NullString
	)
	if err := row.Scan(&score.ID, &score.Score, &score.QuizID, &score.UserID, &shard); err != nil {
		return quiz.UserScore{}, err
	}
	score.Shard = nullString(shard)
	return score, nil
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
