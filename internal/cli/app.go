package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"quizboard/internal/client"
	"quizboard/internal/quiz"
)

const defaultMaxAttempts = 3

// QuizClient is the slice of the HTTP client the player needs.
type QuizClient interface {
	BaseURL() string
	RegisterUser(ctx context.Context, accountName string, privateKey *string) (quiz.User, error)
	JoinQuiz(ctx context.Context, accountName string, quizID int64) (quiz.UserScore, error)
	QuizQuestions(ctx context.Context, accountName string, quizID int64) (quiz.QuestionSet, error)
	SubmitScore(ctx context.Context, accountName string, quizID int64, score int) error
	Quizzes(ctx context.Context, accountName string) ([]quiz.ParticipatingQuiz, error)
	Leaderboard(ctx context.Context, quizID int64) ([]quiz.Standing, error)
}

type Config struct {
	Account     string
	MaxAttempts int
}

type Player struct {
	client      QuizClient
	account     string
	maxAttempts int
	reader      *bufio.Reader
	out         io.Writer
}

func NewPlayer(c QuizClient, in io.Reader, out io.Writer, cfg Config) (*Player, error) {
	account := strings.TrimSpace(cfg.Account)
	if account == "" {
		return nil, errors.New("account is required")
	}
	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	return &Player{
		client:      c,
		account:     account,
		maxAttempts: maxAttempts,
		reader:      bufio.NewReader(in),
		out:         out,
	}, nil
}

// Run registers the account and then plays quizID, or starts the command
// loop when quizID is zero.
func (p *Player) Run(ctx context.Context, quizID int64) error {
	if _, err := p.client.RegisterUser(ctx, p.account, nil); err != nil {
		return p.describe(err)
	}
	if quizID > 0 {
		return p.Play(ctx, quizID)
	}
	return p.loop(ctx)
}

func (p *Player) loop(ctx context.Context) error {
	fmt.Fprintf(p.out, "quizctl play\naccount=%s\nserver=%s\n\n", p.account, p.client.BaseURL())
	printHelp(p.out)

	for {
		fmt.Fprint(p.out, "\n> ")
		line, err := p.reader.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(p.out)
				return nil
			}
			return err
		}

		args := strings.Fields(line)
		if len(args) == 0 {
			continue
		}

		switch strings.ToLower(args[0]) {
		case "help":
			printHelp(p.out)
		case "exit", "quit":
			return nil
		case "quizzes":
			if err := p.listQuizzes(ctx); err != nil {
				fmt.Fprintf(p.out, "error: %v\n", err)
			}
		case "leaderboard", "play":
			if len(args) != 2 {
				fmt.Fprintf(p.out, "usage: %s <quiz_id>\n", args[0])
				continue
			}
			quizID, parseErr := strconv.ParseInt(args[1], 10, 64)
			if parseErr != nil || quizID <= 0 {
				fmt.Fprintln(p.out, "quiz_id must be a positive integer")
				continue
			}
			if args[0] == "play" {
				err = p.Play(ctx, quizID)
			} else {
				err = p.printLeaderboard(ctx, quizID)
			}
			if err != nil {
				fmt.Fprintf(p.out, "error: %v\n", err)
			}
		default:
			fmt.Fprintln(p.out, "unknown command. type 'help' for usage.")
		}
	}
}

// Play joins quizID, asks its questions, submits the number of correct
// answers and prints the leaderboard.
func (p *Player) Play(ctx context.Context, quizID int64) error {
	if _, err := p.client.JoinQuiz(ctx, p.account, quizID); err != nil {
		return p.describe(err)
	}
	questions, err := p.client.QuizQuestions(ctx, p.account, quizID)
	if err != nil {
		return p.describe(err)
	}

	score := 0
	for idx, question := range questions {
		printQuestion(p.out, idx+1, question)

		chosen, ok := p.getAnswer(len(question.Answers))
		fmt.Fprintln(p.out)
		correct := answerText(question.Answers, question.CorrectAnswer)
		if !ok {
			fmt.Fprintf(p.out, "Skipping. Correct answer was %s\n", correct)
			continue
		}
		if chosen == question.CorrectAnswer {
			fmt.Fprintln(p.out, "Correct!")
			score++
		} else {
			fmt.Fprintf(p.out, "Wrong. Correct answer was %s\n", correct)
		}
	}

	fmt.Fprintf(p.out, "\nFinal score: %d/%d\n", score, len(questions))
	if err := p.client.SubmitScore(ctx, p.account, quizID, score); err != nil {
		return p.describe(err)
	}
	return p.printLeaderboard(ctx, quizID)
}

func (p *Player) listQuizzes(ctx context.Context) error {
	quizzes, err := p.client.Quizzes(ctx, p.account)
	if err != nil {
		return p.describe(err)
	}
	if len(quizzes) == 0 {
		fmt.Fprintln(p.out, "No open quizzes.")
		return nil
	}

	fmt.Fprintln(p.out, "Open quizzes:")
	for _, item := range quizzes {
		name := "(unnamed)"
		if item.Name != nil {
			name = *item.Name
		}
		marker := " "
		if item.IsParticipating {
			marker = "*"
		}
		fmt.Fprintf(p.out, "%s %d. %s [%s] price=%s due=%s\n",
			marker,
			item.ID,
			name,
			item.Kind,
			strconv.FormatFloat(item.Price, 'f', -1, 64),
			item.Due.Format(time.RFC3339),
		)
	}
	return nil
}

func (p *Player) printLeaderboard(ctx context.Context, quizID int64) error {
	standings, err := p.client.Leaderboard(ctx, quizID)
	if err != nil {
		return p.describe(err)
	}
	if len(standings) == 0 {
		fmt.Fprintf(p.out, "No leaderboard entries for quiz %d.\n", quizID)
		return nil
	}

	fmt.Fprintf(p.out, "Leaderboard for quiz %d:\n", quizID)
	for idx, entry := range standings {
		fmt.Fprintf(p.out, "%d. %s score=%d\n", idx+1, entry.AccountName, entry.Score)
	}
	return nil
}

func (p *Player) getAnswer(optionCount int) (int, bool) {
	if optionCount < 1 {
		return -1, false
	}
	maxLetter := byte('A' + optionCount - 1)

	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		fmt.Fprintf(p.out, "Your answer (A-%c): ", maxLetter)
		line, err := p.reader.ReadString('\n')
		answer := strings.ToUpper(strings.TrimSpace(line))
		if len(answer) == 1 && answer[0] >= 'A' && answer[0] <= maxLetter {
			return int(answer[0] - 'A'), true
		}
		if err != nil {
			return -1, false
		}
		if attempt < p.maxAttempts {
			fmt.Fprintf(p.out, "\nInvalid input. Please enter a letter A-%c.\n", maxLetter)
		}
	}
	return -1, false
}

func (p *Player) describe(err error) error {
	if errors.Is(err, client.ErrServiceUnavailable) {
		return fmt.Errorf("quiz service unavailable at %s", p.client.BaseURL())
	}
	return err
}

func printQuestion(out io.Writer, number int, question quiz.Question) {
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Q%d: %s\n\n", number, question.Question)
	for idx, answer := range question.Answers {
		fmt.Fprintf(out, "%c. %s\n", 'A'+idx, answer)
	}
	fmt.Fprintln(out)
}

func printHelp(out io.Writer) {
	fmt.Fprintln(out, "Commands:")
	fmt.Fprintln(out, "  help")
	fmt.Fprintln(out, "  quizzes")
	fmt.Fprintln(out, "  leaderboard <quiz_id>")
	fmt.Fprintln(out, "  play <quiz_id>")
	fmt.Fprintln(out, "  exit")
}

func answerText(answers []string, index int) string {
	if index < 0 || index >= len(answers) {
		return "unknown"
	}
	return fmt.Sprintf("%c. %s", 'A'+index, answers[index])
}
