package rating

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Scorer is the external scoring service. It returns its output as ordered
// text lines; the last line is expected to carry the rating.
type Scorer interface {
	Score(ctx context.Context, profile StudentProfile) ([]string, error)
}

// LLMScorer asks an OpenAI-compatible chat endpoint (Ollama, LM Studio, vLLM)
// to rate a student profile.
type LLMScorer struct {
	url    string
	model  string
	client *http.Client
}

var _ Scorer = (*LLMScorer)(nil)

func NewLLMScorer(url, model string, timeout time.Duration) *LLMScorer {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &LLMScorer{
		url:    strings.TrimRight(url, "/"),
		model:  model,
		client: &http.Client{Timeout: timeout},
	}
}

type llmRequest struct {
	Model       string       `json:"model"`
	Messages    []llmMessage `json:"messages"`
	Temperature float64      `json:"temperature"`
}

type llmMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type llmResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (s *LLMScorer) Score(ctx context.Context, profile StudentProfile) ([]string, error) {
	reqBody := llmRequest{
		Model: s.model,
		Messages: []llmMessage{
			{Role: "user", Content: buildRatingPrompt(profile)},
		},
		Temperature: 0,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url+"/v1/chat/completions", bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("scoring request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("scoring service returned status %d", resp.StatusCode)
	}

	var llmResp llmResponse
	if err := json.NewDecoder(resp.Body).Decode(&llmResp); err != nil {
		return nil, fmt.Errorf("failed to decode scoring response: %w", err)
	}
	if len(llmResp.Choices) == 0 {
		return nil, fmt.Errorf("scoring service returned no choices")
	}

	return splitLines(llmResp.Choices[0].Message.Content), nil
}

// buildRatingPrompt keeps the answer format last so small models end on the number.
func buildRatingPrompt(profile StudentProfile) string {
	return fmt.Sprintf(`/no_think
You rate students for an adaptive trivia quiz. Read the profile and judge the
student's overall proficiency on a scale from 1 (beginner) to 10 (excellent).

PROFILE:
%s
Explain briefly, then finish with a final line of the form:
Rating: <number>`, profile.String())
}

func splitLines(content string) []string {
	raw := strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n")
	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	return lines
}
