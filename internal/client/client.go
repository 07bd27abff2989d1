// Package client is a typed HTTP client for the quiz service.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"quizboard/internal/quiz"
)

const DefaultServer = "http://127.0.0.1:8000"

var ErrServiceUnavailable = errors.New("quiz service unavailable")

type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if strings.TrimSpace(e.Message) == "" {
		return fmt.Sprintf("request failed with status %d", e.StatusCode)
	}
	return e.Message
}

// IsStatus reports whether err is an APIError carrying statusCode.
func IsStatus(err error, statusCode int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == statusCode
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

type userRequest struct {
	PrivateKey *string `json:"private_key,omitempty"`
}

type scoreRequest struct {
	Score int `json:"score"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func New(baseURL string, httpClient *http.Client) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultServer
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: baseURL, httpClient: httpClient}
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) Health(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodGet, "/healthz", nil, nil)
}

func (c *Client) GetUser(ctx context.Context, accountName string) (quiz.User, error) {
	var user quiz.User
	err := c.doJSON(ctx, http.MethodGet, userPath(accountName), nil, &user)
	return user, err
}

func (c *Client) RegisterUser(ctx context.Context, accountName string, privateKey *string) (quiz.User, error) {
	var user quiz.User
	err := c.doJSON(ctx, http.MethodPost, userPath(accountName), userRequest{PrivateKey: privateKey}, &user)
	return user, err
}

func (c *Client) UpdateUser(ctx context.Context, accountName string, privateKey *string) (quiz.User, error) {
	var user quiz.User
	err := c.doJSON(ctx, http.MethodPatch, userPath(accountName), userRequest{PrivateKey: privateKey}, &user)
	return user, err
}

func (c *Client) DeleteUser(ctx context.Context, accountName string) error {
	return c.doJSON(ctx, http.MethodDelete, userPath(accountName), nil, nil)
}

func (c *Client) JoinQuiz(ctx context.Context, accountName string, quizID int64) (quiz.UserScore, error) {
	var score quiz.UserScore
	err := c.doJSON(ctx, http.MethodGet, userPath(accountName)+"/join_quiz/"+formatID(quizID), nil, &score)
	return score, err
}

func (c *Client) QuizQuestions(ctx context.Context, accountName string, quizID int64) (quiz.QuestionSet, error) {
	var questions quiz.QuestionSet
	err := c.doJSON(ctx, http.MethodGet, userPath(accountName)+"/quiz_questions/"+formatID(quizID), nil, &questions)
	return questions, err
}

func (c *Client) SubmitScore(ctx context.Context, accountName string, quizID int64, score int) error {
	return c.doJSON(ctx, http.MethodPut, userPath(accountName)+"/quiz_score/"+formatID(quizID), scoreRequest{Score: score}, nil)
}

func (c *Client) Quizzes(ctx context.Context, accountName string) ([]quiz.ParticipatingQuiz, error) {
	var quizzes []quiz.ParticipatingQuiz
	err := c.doJSON(ctx, http.MethodGet, userPath(accountName)+"/quizzes", nil, &quizzes)
	return quizzes, err
}

func (c *Client) Leaderboard(ctx context.Context, quizID int64) ([]quiz.Standing, error) {
	var standings []quiz.Standing
	err := c.doJSON(ctx, http.MethodGet, "/quiz/"+formatID(quizID)+"/leaderboard", nil, &standings)
	return standings, err
}

func userPath(accountName string) string {
	return "/user/" + url.PathEscape(strings.TrimSpace(accountName))
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

func (c *Client) doJSON(ctx context.Context, method, path string, requestBody any, responseBody any) error {
	var body io.Reader
	if requestBody != nil {
		encoded, err := json.Marshal(requestBody)
		if err != nil {
			return err
		}
		body = bytes.NewReader(encoded)
	}

	request, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if requestBody != nil {
		request.Header.Set("Content-Type", "application/json")
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	defer response.Body.Close()

	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		apiErr := APIError{StatusCode: response.StatusCode}
		var payload errorResponse
		if err := json.NewDecoder(response.Body).Decode(&payload); err == nil && strings.TrimSpace(payload.Error) != "" {
			apiErr.Message = payload.Error
		}
		if apiErr.Message == "" {
			apiErr.Message = response.Status
		}
		return &apiErr
	}

	if responseBody == nil {
		_, _ = io.Copy(io.Discard, response.Body)
		return nil
	}
	return json.NewDecoder(response.Body).Decode(responseBody)
}
