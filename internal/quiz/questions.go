package quiz

import (
	"errors"
	"fmt"
	"strings"
)

// AnswerCount is the number of choices every bundled question carries.
const AnswerCount = 4

var ErrMalformedQuestion = errors.New("malformed question")

type Question struct {
	Question      string   `json:"question" yaml:"question"`
	Answers       []string `json:"answers" yaml:"answers"`
	CorrectAnswer int      `json:"correct_answer" yaml:"correct_answer"`
}

type QuestionSet []Question

func (q Question) Validate() error {
	if strings.TrimSpace(q.Question) == "" {
		return fmt.Errorf("%w: empty prompt", ErrMalformedQuestion)
	}
	if len(q.Answers) != AnswerCount {
		return fmt.Errorf("%w: %q has %d answers, want %d", ErrMalformedQuestion, q.Question, len(q.Answers), AnswerCount)
	}
	if q.CorrectAnswer < 0 || q.CorrectAnswer >= len(q.Answers) {
		return fmt.Errorf("%w: %q correct_answer %d out of range", ErrMalformedQuestion, q.Question, q.CorrectAnswer)
	}
	return nil
}

func (s QuestionSet) Validate() error {
	if len(s) == 0 {
		return fmt.Errorf("%w: empty question set", ErrMalformedQuestion)
	}
	for _, question := range s {
		if err := question.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// NormalizeAccountName trims surrounding whitespace. Account names are
// otherwise kept verbatim since they are the natural key of a user.
func NormalizeAccountName(accountName string) (string, error) {
	normalized := strings.TrimSpace(accountName)
	if normalized == "" {
		return "", ErrInvalidAccountName
	}
	return normalized, nil
}
