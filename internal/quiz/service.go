package quiz

import (
	"context"
	"fmt"
	"log/slog"
)

// Service composes the user store, quiz catalog and score ledger into the
// operations the HTTP surface exposes. Every call resolves the user first.
type Service struct {
	users   UserStore
	catalog QuizCatalog
	ledger  ScoreLedger
	logger  *slog.Logger
}

func NewService(users UserStore, catalog QuizCatalog, ledger ScoreLedger, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		users:   users,
		catalog: catalog,
		ledger:  ledger,
		logger:  logger,
	}
}

func (s *Service) GetUser(ctx context.Context, accountName string) (User, error) {
	accountName, err := NormalizeAccountName(accountName)
	if err != nil {
		return User{}, err
	}
	return s.users.Get(ctx, accountName)
}

func (s *Service) RegisterUser(ctx context.Context, accountName string, privateKey *string) (User, error) {
	accountName, err := NormalizeAccountName(accountName)
	if err != nil {
		return User{}, err
	}
	return s.users.GetOrCreate(ctx, accountName, privateKey)
}

func (s *Service) UpdateUser(ctx context.Context, accountName string, update UserUpdate) (User, error) {
	user, err := s.GetUser(ctx, accountName)
	if err != nil {
		return User{}, err
	}
	if err := s.users.Update(ctx, user.AccountName, update); err != nil {
		return User{}, err
	}
	return s.users.Get(ctx, user.AccountName)
}

func (s *Service) DeleteUser(ctx context.Context, accountName string) error {
	accountName, err := NormalizeAccountName(accountName)
	if err != nil {
		return err
	}
	return s.users.Delete(ctx, accountName)
}

func (s *Service) JoinQuiz(ctx context.Context, accountName string, quizID int64) (UserScore, error) {
	user, err := s.GetUser(ctx, accountName)
	if err != nil {
		return UserScore{}, err
	}
	return s.ledger.Create(ctx, user.ID, quizID)
}

func (s *Service) QuizQuestions(ctx context.Context, accountName string, quizID int64) (QuestionSet, error) {
	if _, err := s.GetUser(ctx, accountName); err != nil {
		return nil, err
	}
	return s.catalog.Questions(ctx, quizID)
}

// SubmitScore records the score of a joined quiz. Joining is a required
// prior step; scoring an unjoined quiz reports ErrNotJoined.
func (s *Service) SubmitScore(ctx context.Context, accountName string, quizID int64, score int) error {
	user, err := s.GetUser(ctx, accountName)
	if err != nil {
		return err
	}

	updated, err := s.ledger.Update(ctx, user.ID, quizID, score)
	if err != nil {
		return err
	}
	if !updated {
		return fmt.Errorf("%w: user %q, quiz %d", ErrNotJoined, user.AccountName, quizID)
	}

	s.logger.InfoContext(ctx, "score submitted",
		"account_name", user.AccountName,
		"quiz_id", quizID,
		"score", score,
	)
	return nil
}

// QuizzesFor lists the open quizzes, marking the ones the user has joined.
func (s *Service) QuizzesFor(ctx context.Context, accountName string) ([]ParticipatingQuiz, error) {
	user, err := s.GetUser(ctx, accountName)
	if err != nil {
		return nil, err
	}

	scores, err := s.ledger.GetByUserID(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	joined := make(map[int64]struct{}, len(scores))
	for _, score := range scores {
		joined[score.QuizID] = struct{}{}
	}

	quizzes, err := s.catalog.List(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]ParticipatingQuiz, 0, len(quizzes))
	for _, item := range quizzes {
		_, participating := joined[item.ID]
		result = append(result, ParticipatingQuiz{
			Quiz:            item,
			IsParticipating: participating,
		})
	}
	return result, nil
}

func (s *Service) Leaderboard(ctx context.Context, quizID int64) ([]Standing, error) {
	return s.ledger.Standings(ctx, quizID)
}
