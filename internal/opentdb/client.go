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
)

const (
	DefaultBaseURL = "https://opentdb.com"
	defaultAmount  = 10
)

// Response codes documented by Open Trivia DB.
const (
	CodeSuccess          = 0
	CodeNoResults        = 1
	CodeInvalidParameter = 2
	CodeTokenNotFound    = 3
	CodeTokenEmpty       = 4
	CodeRateLimit        = 5
)

var (
	// ErrInsufficientQuestions means the bank has fewer questions than requested
	// for the given category, difficulty and type.
	ErrInsufficientQuestions = errors.New("opentdb: not enough questions for query")
	// ErrUnreachable wraps transport failures (DNS, dial, reset, timeout).
	ErrUnreachable = errors.New("opentdb: service unreachable")
)

// ResponseCodeError is returned for non-zero response codes other than CodeNoResults.
type ResponseCodeError struct {
	Code int
}

func (e *ResponseCodeError) Error() string {
	return fmt.Sprintf("opentdb response_code=%d", e.Code)
}

// RawQuestion mirrors the OpenTriviaDB question payload.
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

// Query holds the api.php parameters. Empty Category, Difficulty or Type are
// left out of the request.
type Query struct {
	Amount     int
	Category   string
	Difficulty string
	Type       string
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(httpClient *http.Client, baseURL string) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
	}
}

// URL builds the api.php request URL for q. Parameter order is fixed so the
// URL is stable for logging.
func (c *Client) URL(q Query) string {
	amount := q.Amount
	if amount <= 0 {
		amount = defaultAmount
	}

	var b strings.Builder
	b.WriteString(c.baseURL)
	b.WriteString("/api.php?amount=")
	b.WriteString(strconv.Itoa(amount))
	for _, param := range []struct{ key, value string }{
		{"category", q.Category},
		{"difficulty", q.Difficulty},
		{"type", q.Type},
	} {
		if param.value == "" {
			continue
		}
		b.WriteString("&")
		b.WriteString(param.key)
		b.WriteString("=")
		b.WriteString(url.QueryEscape(param.value))
	}
	return b.String()
}

func (c *Client) FetchQuestions(ctx context.Context, q Query) ([]RawQuestion, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL(q), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("opentdb returned status %d", resp.StatusCode)
	}

	var payload apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode opentdb response: %w", err)
	}

	switch payload.ResponseCode {
	case CodeSuccess:
		return payload.Results, nil
	case CodeNoResults:
		return nil, ErrInsufficientQuestions
	default:
		return nil, &ResponseCodeError{Code: payload.ResponseCode}
	}
}
