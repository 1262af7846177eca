package userclient

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

	"quiz-launcher/internal/session"
)

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

// conflictErrors maps 409 messages back to the controller's sentinels.
var conflictErrors = []error{
	session.ErrFetchInProgress,
	session.ErrHandedOff,
	session.ErrRatingAlreadySet,
	session.ErrRatingInProgress,
	session.ErrNotReady,
	session.ErrQuizNotStarted,
}

// Unwrap lets callers match the service's session errors with errors.Is.
func (e *APIError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusNotFound:
		return session.ErrSessionNotFound
	case http.StatusBadGateway:
		return session.ErrRatingUnavailable
	case http.StatusConflict:
		for _, candidate := range conflictErrors {
			if e.Message == candidate.Error() {
				return candidate
			}
		}
	}
	return nil
}

// HTTPClient talks to quiz-service.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

type sessionsResponse struct {
	Sessions []session.Started `json:"sessions"`
}

type errorResponse struct {
	Error string `json:"error"`
}

var _ session.Repository = (*HTTPClient)(nil)

func NewHTTPClient(baseURL string, httpClient *http.Client) *HTTPClient {
	baseURL = strings.TrimSpace(baseURL)
	baseURL = strings.TrimRight(baseURL, "/")
	if baseURL == "" {
		baseURL = "http://127.0.0.1:8080"
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &HTTPClient{
		baseURL:    baseURL,
		httpClient: httpClient,
	}
}

func (c *HTTPClient) BaseURL() string {
	return c.baseURL
}

func (c *HTTPClient) GetSnapshot(ctx context.Context) (session.Snapshot, error) {
	var snapshot session.Snapshot
	err := c.doJSON(ctx, http.MethodGet, "/session", nil, &snapshot)
	return snapshot, err
}

func (c *HTTPClient) UpdateConfig(ctx context.Context, update session.ConfigUpdate) (session.Snapshot, error) {
	var snapshot session.Snapshot
	err := c.doJSON(ctx, http.MethodPatch, "/session/config", update, &snapshot)
	return snapshot, err
}

// Reset asks the service to prepare the next quiz once the current one was
// handed off.
func (c *HTTPClient) Reset(ctx context.Context, update session.ConfigUpdate) (session.Snapshot, error) {
	var snapshot session.Snapshot
	err := c.doJSON(ctx, http.MethodPost, "/session/reset", update, &snapshot)
	return snapshot, err
}

// PostAction calls one of the bodiless session actions: rating, retry,
// dismiss or reconnect.
func (c *HTTPClient) PostAction(ctx context.Context, action string) (session.Snapshot, error) {
	var snapshot session.Snapshot
	err := c.doJSON(ctx, http.MethodPost, "/session/"+url.PathEscape(action), nil, &snapshot)
	return snapshot, err
}

func (c *HTTPClient) ListSessions(ctx context.Context, limit int) ([]session.Started, error) {
	if limit <= 0 {
		limit = 10
	}

	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))

	var payload sessionsResponse
	if err := c.doJSON(ctx, http.MethodGet, "/sessions?"+query.Encode(), nil, &payload); err != nil {
		return nil, err
	}
	return payload.Sessions, nil
}

func (c *HTTPClient) GetSession(ctx context.Context, sessionID string) (session.Record, error) {
	if strings.TrimSpace(sessionID) == "" {
		return session.Record{}, errors.New("session_id is required")
	}

	var record session.Record
	if err := c.doJSON(ctx, http.MethodGet, "/sessions/"+url.PathEscape(sessionID), nil, &record); err != nil {
		return session.Record{}, err
	}
	return record, nil
}

func (c *HTTPClient) doJSON(ctx context.Context, method, path string, requestBody any, responseBody any) error {
	fullURL := c.baseURL + path

	var body io.Reader
	if requestBody != nil {
		encoded, err := json.Marshal(requestBody)
		if err != nil {
			return err
		}
		body = bytes.NewReader(encoded)
	}

	request, err := http.NewRequestWithContext(ctx, method, fullURL, body)
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
		return nil
	}
	return json.NewDecoder(response.Body).Decode(responseBody)
}
