// Package ai scores deal documents with an OpenAI-compatible chat
// completion provider. Results are persisted per document by the caller;
// this client is stateless.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrUpstream marks a provider failure; routes translate it to a 502.
var ErrUpstream = errors.New("ai: upstream failure")

const scorePrompt = `You are an analyst reviewing SPAC deal documents.
Given the document below, respond with ONLY a JSON object:
{"score": <0-100 overall deal quality>, "summary": "<two sentences>", "risks": ["<risk>", ...]}`

// maxDocumentChars truncates oversized documents before sending; provider
// context windows are finite and scoring does not need full exhibits.
const maxDocumentChars = 48_000

// DealScore is a structured AI assessment of a deal document.
type DealScore struct {
	Score   int      `json:"score"`
	Summary string   `json:"summary"`
	Risks   []string `json:"risks"`
}

type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
}

func New(baseURL, apiKey, model string, timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		model:      model,
	}
}

// Model returns the configured model name, recorded alongside each analysis.
func (c *Client) Model() string { return c.model }

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// ScoreDocument asks the provider to assess a document and parses the
// structured verdict.
func (c *Client) ScoreDocument(ctx context.Context, title, text string) (*DealScore, error) {
	if len(text) > maxDocumentChars {
		text = text[:maxDocumentChars]
	}

	payload, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: scorePrompt},
			{Role: "user", Content: fmt.Sprintf("Title: %s\n\n%s", title, text)},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("ai.ScoreDocument: marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("ai.ScoreDocument: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ai.ScoreDocument: %w: %w", ErrUpstream, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("ai.ScoreDocument: %w: %w", ErrUpstream, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ai.ScoreDocument: %w: status %d", ErrUpstream, resp.StatusCode)
	}

	var chat chatResponse
	if err := json.Unmarshal(body, &chat); err != nil {
		return nil, fmt.Errorf("ai.ScoreDocument: decode: %w", err)
	}
	if len(chat.Choices) == 0 {
		return nil, fmt.Errorf("ai.ScoreDocument: %w: empty response", ErrUpstream)
	}

	score, err := parseVerdict(chat.Choices[0].Message.Content)
	if err != nil {
		return nil, fmt.Errorf("ai.ScoreDocument: %w", err)
	}

	return score, nil
}

// parseVerdict extracts the JSON verdict from the model's reply, tolerating
// surrounding prose or markdown fences.
func parseVerdict(content string) (*DealScore, error) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON object in model reply")
	}

	var score DealScore
	if err := json.Unmarshal([]byte(content[start:end+1]), &score); err != nil {
		return nil, fmt.Errorf("parsing model verdict: %w", err)
	}

	if score.Score < 0 {
		score.Score = 0
	}
	if score.Score > 100 {
		score.Score = 100
	}
	if score.Risks == nil {
		score.Risks = []string{}
	}

	return &score, nil
}
