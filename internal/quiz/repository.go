package quiz

import (
	"context"
	"time"
)

type QuizKind string

const (
	KindDaily      QuizKind = "daily"
	KindArmageddon QuizKind = "armageddon"
	KindEvent      QuizKind = "event"
)

func (k QuizKind) Valid() bool {
	switch k {
	case KindDaily, KindArmageddon, KindEvent:
		return true
	}
	return false
}

type User struct {
	ID          int64   `json:"id"`
	AccountName string  `json:"account_name"`
	PrivateKey  *string `json:"private_key"`
}

// UserUpdate lists the mutable user fields. Nil fields are left untouched.
type UserUpdate struct {
	PrivateKey *string
}

func (u UserUpdate) Empty() bool {
	return u.PrivateKey == nil
}

type Quiz struct {
	ID         int64     `json:"id"`
	Name       *string   `json:"name"`
	Price      float64   `json:"price"`
	Due        time.Time `json:"due"`
	Kind       QuizKind  `json:"kind"`
	IsFinished bool      `json:"is_finished"`
}

// UserScore is one user's participation in one quiz.
type UserScore struct {
	ID     int64   `json:"id"`
	Score  int     `json:"score"`
	QuizID int64   `json:"quiz_id"`
	UserID int64   `json:"user_id"`
	Shard  *string `json:"shard"`
}

// Standing is a leaderboard row: the participation plus who it belongs to.
type Standing struct {
	UserScore
	AccountName string `json:"account_name"`
}

type ParticipatingQuiz struct {
	Quiz
	IsParticipating bool `json:"is_participating"`
}

type UserStore interface {
	Get(ctx context.Context, accountName string) (User, error)
	GetOrCreate(ctx context.Context, accountName string, privateKey *string) (User, error)
	Update(ctx context.Context, accountName string, update UserUpdate) error
	Delete(ctx context.Context, accountName string) error
}

type QuizCatalog interface {
	List(ctx context.Context) ([]Quiz, error)
	Questions(ctx context.Context, quizID int64) (QuestionSet, error)
}

type ScoreLedger interface {
	Create(ctx context.Context, userID, quizID int64) (UserScore, error)
	Update(ctx context.Context, userID, quizID int64, score int) (bool, error)
	GetByUserID(ctx context.Context, userID int64) ([]UserScore, error)
	List(ctx context.Context, quizID int64) ([]UserScore, error)
	Standings(ctx context.Context, quizID int64) ([]Standing, error)
}

// QuestionSource resolves the bundled question set of a quiz by its 1-based id.
type QuestionSource interface {
	QuestionSet(quizID int64) (QuestionSet, error)
}
