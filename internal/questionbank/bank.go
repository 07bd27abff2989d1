// Package questionbank holds the question sets served by the quiz catalog.
// Set N backs quiz id N.
package questionbank

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"html"
	"io"
	"math/rand"
	"os"

	"golang.org/x/time/rate"
	"gopkg.in/yaml.v3"

	"quizboard/internal/opentdb"
	"quizboard/internal/quiz"
)

//go:embed default.yaml
var defaultBank []byte

type Bank struct {
	sets []quiz.QuestionSet
}

type bankFile struct {
	Sets []setFile `yaml:"sets"`
}

type setFile struct {
	Name      string           `yaml:"name,omitempty"`
	Questions quiz.QuestionSet `yaml:"questions"`
}

// New validates every set up front so lookups never hand out a malformed
// question.
func New(sets ...quiz.QuestionSet) (*Bank, error) {
	for idx, set := range sets {
		if err := set.Validate(); err != nil {
			return nil, fmt.Errorf("question set %d: %w", idx+1, err)
		}
	}
	return &Bank{sets: sets}, nil
}

// Default returns the bank compiled into the binary.
func Default() (*Bank, error) {
	return Parse(defaultBank)
}

func Parse(data []byte) (*Bank, error) {
	var file bankFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse question bank: %w", err)
	}
	sets := make([]quiz.QuestionSet, 0, len(file.Sets))
	for _, set := range file.Sets {
		sets = append(sets, set.Questions)
	}
	return New(sets...)
}

func Load(r io.Reader) (*Bank, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read question bank: %w", err)
	}
	return Parse(data)
}

func LoadFile(path string) (*Bank, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Load(f)
}

// LoadOrDefault reads path, or returns the embedded bank when path is empty.
func LoadOrDefault(path string) (*Bank, error) {
	if path == "" {
		return Default()
	}
	return LoadFile(path)
}

// QuestionSet returns a copy of the set for a 1-based quiz id.
func (b *Bank) QuestionSet(quizID int64) (quiz.QuestionSet, error) {
	if quizID < 1 || quizID > int64(len(b.sets)) {
		return nil, fmt.Errorf("%w: no question set for quiz %d", quiz.ErrUnknownQuiz, quizID)
	}
	src := b.sets[quizID-1]
	out := make(quiz.QuestionSet, len(src))
	for idx, question := range src {
		question.Answers = append([]string(nil), question.Answers...)
		out[idx] = question
	}
	return out, nil
}

func (b *Bank) Len() int {
	return len(b.sets)
}

func (b *Bank) Encode(w io.Writer) error {
	file := bankFile{Sets: make([]setFile, 0, len(b.sets))}
	for idx, set := range b.sets {
		file.Sets = append(file.Sets, setFile{
			Name:      fmt.Sprintf("set-%d", idx+1),
			Questions: set,
		})
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(file); err != nil {
		return err
	}
	return enc.Close()
}

func (b *Bank) WriteFile(path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, f.Close())
	}()
	return b.Encode(f)
}

// FromTrivia turns OpenTriviaDB questions into sets of perSet questions.
// Answers are unescaped and shuffled; questions that do not carry exactly
// quiz.AnswerCount choices are skipped, as is a trailing partial set.
func FromTrivia(raw []opentdb.RawQuestion, perSet int, rng *rand.Rand) []quiz.QuestionSet {
	if perSet <= 0 {
		return nil
	}

	questions := make([]quiz.Question, 0, len(raw))
	for _, item := range raw {
		if len(item.IncorrectAnswers)+1 != quiz.AnswerCount {
			continue
		}
		questions = append(questions, buildQuestion(item, rng))
	}

	sets := make([]quiz.QuestionSet, 0, len(questions)/perSet)
	for len(questions) >= perSet {
		sets = append(sets, quiz.QuestionSet(questions[:perSet:perSet]))
		questions = questions[perSet:]
	}
	return sets
}

func buildQuestion(raw opentdb.RawQuestion, rng *rand.Rand) quiz.Question {
	type choice struct {
		text      string
		isCorrect bool
	}

	choices := make([]choice, 0, len(raw.IncorrectAnswers)+1)
	for _, incorrect := range raw.IncorrectAnswers {
		choices = append(choices, choice{text: html.UnescapeString(incorrect)})
	}
	choices = append(choices, choice{
		text:      html.UnescapeString(raw.CorrectAnswer),
		isCorrect: true,
	})

	shuffle := rand.Shuffle
	if rng != nil {
		shuffle = rng.Shuffle
	}
	shuffle(len(choices), func(i, j int) {
		choices[i], choices[j] = choices[j], choices[i]
	})

	question := quiz.Question{
		Question: html.UnescapeString(raw.Question),
		Answers:  make([]string, len(choices)),
	}
	for idx, candidate := range choices {
		question.Answers[idx] = candidate.text
		if candidate.isCorrect {
			question.CorrectAnswer = idx
		}
	}
	return question
}

// TriviaFetcher is satisfied by *opentdb.Client.
type TriviaFetcher interface {
	FetchQuestions(ctx context.Context, amount int) ([]opentdb.RawQuestion, error)
}

const maxFetchRounds = 10

// FetchSets pulls multiple-choice questions until it can fill sets question
// sets of perSet questions each. limiter paces the upstream calls; nil means
// unpaced. A rate-limited response uses up a round and is retried.
func FetchSets(ctx context.Context, fetcher TriviaFetcher, sets, perSet int, limiter *rate.Limiter) (*Bank, error) {
	if sets <= 0 || perSet <= 0 {
		return nil, fmt.Errorf("sets and questions per set must be positive, got %d and %d", sets, perSet)
	}

	want := sets * perSet
	collected := make([]opentdb.RawQuestion, 0, want)
	for round := 0; len(collected) < want; round++ {
		if round == maxFetchRounds {
			return nil, fmt.Errorf("gave up after %d requests with %d of %d questions", round, len(collected), want)
		}
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}
		raw, err := fetcher.FetchQuestions(ctx, want-len(collected))
		if errors.Is(err, opentdb.ErrRateLimited) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("fetch trivia: %w", err)
		}
		for _, item := range raw {
			if len(item.IncorrectAnswers)+1 == quiz.AnswerCount {
				collected = append(collected, item)
			}
		}
	}

	return New(FromTrivia(collected[:want], perSet, nil)...)
}
