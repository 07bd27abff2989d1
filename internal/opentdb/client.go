// Package opentdb fetches trivia from the Open Trivia Database.
package opentdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultBaseURL = "https://opentdb.com/api.php"

	defaultAmount  = 10
	maxAmount      = 50
	defaultTimeout = 10 * time.Second
)

var (
	ErrNoResults        = errors.New("opentdb: not enough questions for the query")
	ErrInvalidParameter = errors.New("opentdb: invalid parameter")
	ErrRateLimited      = errors.New("opentdb: rate limited")
)

// RawQuestion is one entry of an api.php response. Text fields arrive
// HTML-escaped.
type RawQuestion struct {
	Type             string   `json:"type"`
	Difficulty       string   `json:"difficulty"`
	Category         string   `json:"category"`
	Question         string   `json:"question"`
	CorrectAnswer    string   `json:"correct_answer"`
	IncorrectAnswers []string `json:"incorrect_answers"`
}

type apiResponse struct {
	ResponseCode int           `json:"response_code"`
	Results      []RawQuestion `json:"results"`
}

// Options narrow the questions requested. Zero values leave the API
// defaults in place.
type Options struct {
	BaseURL    string
	Category   int
	Difficulty string
}

type Client struct {
	httpClient *http.Client
	baseURL    string
	category   int
	difficulty string
}

// NewClient builds a client that only asks for multiple-choice questions.
// A nil httpClient gets one with a 10s timeout.
func NewClient(httpClient *http.Client, opts Options) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	baseURL := strings.TrimSpace(opts.BaseURL)
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		category:   opts.Category,
		difficulty: strings.ToLower(strings.TrimSpace(opts.Difficulty)),
	}
}

// FetchQuestions asks for amount questions, clamped to 1..50 with
// non-positive values meaning 10.
func (c *Client) FetchQuestions(ctx context.Context, amount int) ([]RawQuestion, error) {
	switch {
	case amount <= 0:
		amount = defaultAmount
	case amount > maxAmount:
		amount = maxAmount
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.requestURL(amount), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("opentdb request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, ErrRateLimited
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("opentdb: unexpected status %d", resp.StatusCode)
	}

	var payload apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("opentdb: decode response: %w", err)
	}
	if err := responseError(payload.ResponseCode); err != nil {
		return nil, err
	}
	return payload.Results, nil
}

func (c *Client) requestURL(amount int) string {
	query := url.Values{}
	query.Set("amount", strconv.Itoa(amount))
	query.Set("type", "multiple")
	if c.category > 0 {
		query.Set("category", strconv.Itoa(c.category))
	}
	if c.difficulty != "" {
		query.Set("difficulty", c.difficulty)
	}
	return c.baseURL + "?" + query.Encode()
}

func responseError(code int) error {
	switch code {
	case 0:
		return nil
	case 1:
		return ErrNoResults
	case 2:
		return ErrInvalidParameter
	case 5:
		return ErrRateLimited
	default:
		return fmt.Errorf("opentdb: response_code %d", code)
	}
}
