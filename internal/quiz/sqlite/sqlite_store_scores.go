package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"quizboard/internal/quiz"
	"quizboard/internal/storage"
)

const userScoreColumns = `id, score, quiz_id, user_id, shard`

type ScoreLedger struct {
	db     *storage.DB
	logger *slog.Logger
}

func NewScoreLedger(db *storage.DB, logger *slog.Logger) *ScoreLedger {
	return &ScoreLedger{db: db, logger: logger}
}

// Create joins userID to quizID. Joining twice returns the original row with
// its score untouched: the second insert hits UNIQUE (user_id, quiz_id), is
// dropped by ON CONFLICT, and the existing row is read back.
func (l *ScoreLedger) Create(ctx context.Context, userID, quizID int64) (quiz.UserScore, error) {
	var score quiz.UserScore
	err := l.db.InTx(ctx, "score.create", func(ctx context.Context, tx *sql.Tx) error {
		result, err := tx.ExecContext(
			ctx,
			`INSERT INTO user_score (score, quiz_id, user_id) VALUES (0, ?, ?)
			ON CONFLICT (user_id, quiz_id) DO NOTHING`,
			quizID,
			userID,
		)
		if err != nil {
			if storage.IsForeignKeyViolation(err) {
				return fmt.Errorf("%w: quiz %d", quiz.ErrUnknownQuiz, quizID)
			}
			return err
		}
		inserted, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if inserted == 0 {
			l.logger.DebugContext(ctx, "join conflict absorbed",
				"user_id", userID,
				"quiz_id", quizID,
			)
		}

		var found bool
		score, found, err = selectUserScore(ctx, tx, userID, quizID)
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("participation for user %d in quiz %d vanished after insert", userID, quizID)
		}
		return nil
	})
	return score, wrapStorageErr("create user score", err)
}

// Update sets the score of an existing participation. It reports false, and
// writes nothing, when userID never joined quizID.
func (l *ScoreLedger) Update(ctx context.Context, userID, quizID int64, score int) (bool, error) {
	var updated bool
	err := l.db.InTx(ctx, "score.update", func(ctx context.Context, tx *sql.Tx) error {
		result, err := tx.ExecContext(
			ctx,
			`UPDATE user_score SET score = ? WHERE user_id = ? AND quiz_id = ?`,
			score,
			userID,
			quizID,
		)
		if err != nil {
			return err
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return err
		}
		updated = affected > 0
		return nil
	})
	if err != nil {
		return false, wrapStorageErr("update user score", err)
	}
	return updated, nil
}

func (l *ScoreLedger) GetByUserID(ctx context.Context, userID int64) ([]quiz.UserScore, error) {
	var scores []quiz.UserScore
	err := l.db.InTx(ctx, "score.by_user", func(ctx context.Context, tx *sql.Tx) error {
		var err error
		scores, err = queryUserScores(
			ctx,
			tx,
			`SELECT `+userScoreColumns+` FROM user_score WHERE user_id = ? ORDER BY id ASC`,
			userID,
		)
		return err
	})
	if err != nil {
		return nil, wrapStorageErr("get user scores", err)
	}
	return scores, nil
}

// List is the leaderboard: highest score first, earliest join first on ties.
func (l *ScoreLedger) List(ctx context.Context, quizID int64) ([]quiz.UserScore, error) {
	var scores []quiz.UserScore
	err := l.db.InTx(ctx, "score.list", func(ctx context.Context, tx *sql.Tx) error {
		var err error
		scores, err = queryUserScores(
			ctx,
			tx,
			`SELECT `+userScoreColumns+` FROM user_score WHERE quiz_id = ? ORDER BY score DESC, id ASC`,
			quizID,
		)
		return err
	})
	if err != nil {
		return nil, wrapStorageErr("list user scores", err)
	}
	return scores, nil
}

// Standings is List with each row's account name attached.
func (l *ScoreLedger) Standings(ctx context.Context, quizID int64) ([]quiz.Standing, error) {
	standings := make([]quiz.Standing, 0)
	err := l.db.InTx(ctx, "score.standings", func(ctx context.Context, tx *sql.Tx) error {
		rows, err := tx.QueryContext(
			ctx,
			`SELECT s.id, s.score, s.quiz_id, s.user_id, s.shard, u.account_name
			 FROM user_score s
			 JOIN "user" u ON u.id = s.user_id
			 WHERE s.quiz_id = ?
			 ORDER BY s.score DESC, s.id ASC`,
			quizID,
		)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var (
				standing quiz.Standing
				shard    sql.NullString
			)
			if err := rows.Scan(
				&standing.ID,
				&standing.Score,
				&standing.QuizID,
				&standing.UserID,
				&shard,
				&standing.AccountName,
			); err != nil {
				return err
			}
			standing.Shard = nullString(shard)
			standings = append(standings, standing)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, wrapStorageErr("list standings", err)
	}
	return standings, nil
}

func selectUserScore(ctx context.Context, tx *sql.Tx, userID, quizID int64) (quiz.UserScore, bool, error) {
	row := tx.QueryRowContext(
		ctx,
		`SELECT `+userScoreColumns+` FROM user_score WHERE user_id = ? AND quiz_id = ?`,
		userID,
		quizID,
	)
	score, err := scanUserScore(row)
	if err != nil {
		if isNoRows(err) {
			return quiz.UserScore{}, false, nil
		}
		return quiz.UserScore{}, false, err
	}
	return score, true, nil
}

func queryUserScores(ctx context.Context, tx *sql.Tx, query string, args ...any) ([]quiz.UserScore, error) {
	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	scores := make([]quiz.UserScore, 0)
	for rows.Next() {
		score, err := scanUserScore(rows)
		if err != nil {
			return nil, err
		}
		scores = append(scores, score)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return scores, nil
}
