package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quizboard/internal/httpapi"
	"quizboard/internal/logging"
	"quizboard/internal/questionbank"
	"quizboard/internal/quiz"
	"quizboard/internal/quiz/sqlite"
	"quizboard/internal/storage"
)

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

func newQuizServer(t *testing.T) *httptest.Server {
	t.Helper()
	ctx := context.Background()
	logger := logging.Discard()

	db, err := storage.Open(ctx, storage.Options{
		Path:        filepath.Join(t.TempDir(), "quiz.db"),
		AutoMigrate: true,
		Logger:      logger,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})

	bank, err := questionbank.Default()
	require.NoError(t, err)
	stores := sqlite.New(db, bank, logger)
	name := "Daily Quiz"
	_, err = stores.Seeder.AddQuiz(ctx, quiz.Quiz{Name: &name, Price: 0.5, Due: time.Now().UTC()})
	require.NoError(t, err)

	service := quiz.NewService(stores.Users, stores.Quizzes, stores.Scores, logger)
	server := httptest.NewServer(httpapi.NewRouter(service, db, httpapi.Options{Logger: logger}))
	t.Cleanup(server.Close)
	return server
}

func TestClientAgainstRouter(t *testing.T) {
	server := newQuizServer(t)
	c := New(server.URL+"/", server.Client())
	ctx := context.Background()

	require.NoError(t, c.Health(ctx))

	user, err := c.RegisterUser(ctx, "alice", nil)
	require.NoError(t, err)
	assert.Equal(t, "alice", user.AccountName)

	key := "pk"
	user, err = c.UpdateUser(ctx, "alice", &key)
	require.NoError(t, err)
	require.NotNil(t, user.PrivateKey)

	got, err := c.GetUser(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, user, got)

	joined, err := c.JoinQuiz(ctx, "alice", 1)
	require.NoError(t, err)
	assert.Equal(t, user.ID, joined.UserID)

	questions, err := c.QuizQuestions(ctx, "alice", 1)
	require.NoError(t, err)
	assert.Len(t, questions, 5)

	require.NoError(t, c.SubmitScore(ctx, "alice", 1, 4))

	quizzes, err := c.Quizzes(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, quizzes, 1)
	assert.True(t, quizzes[0].IsParticipating)

	board, err := c.Leaderboard(ctx, 1)
	require.NoError(t, err)
	require.Len(t, board, 1)
	assert.Equal(t, 4, board[0].Score)
	assert.Equal(t, "alice", board[0].AccountName)

	require.NoError(t, c.DeleteUser(ctx, "alice"))
	_, err = c.GetUser(ctx, "alice")
	assert.True(t, IsStatus(err, http.StatusNotFound), "got %v", err)
}

func TestClientSurfacesAPIErrors(t *testing.T) {
	server := newQuizServer(t)
	c := New(server.URL, server.Client())
	ctx := context.Background()

	_, err := c.RegisterUser(ctx, "bob", nil)
	require.NoError(t, err)

	err = c.SubmitScore(ctx, "bob", 1, 3)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Contains(t, apiErr.Message, "not joined")
}

func TestDoJSONReturnsServiceUnavailable(t *testing.T) {
	c := New("http://example.test", &http.Client{
		Transport: roundTripperFunc(func(*http.Request) (*http.Response, error) {
			return nil, errors.New("dial error")
		}),
	})

	err := c.Health(context.Background())
	assert.ErrorIs(t, err, ErrServiceUnavailable)
}

func TestDoJSONFallsBackToStatusText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	err := New(server.URL, server.Client()).Health(context.Background())
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Equal(t, "502 Bad Gateway", apiErr.Message)
}

func TestDoJSONReturnsAPIErrorMessageFromBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(errorResponse{Error: "bad request payload"})
	}))
	defer server.Close()

	_, err := New(server.URL, server.Client()).GetUser(context.Background(), "x")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "bad request payload", apiErr.Error())
}

func TestNewDefaultsBaseURL(t *testing.T) {
	assert.Equal(t, DefaultServer, New("  ", nil).BaseURL())
	assert.Equal(t, "http://q.example", New("http://q.example///", nil).BaseURL())
}
