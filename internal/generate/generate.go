// Package generate asks a chat LLM for candidate item lists. The model is
// told to answer with a single JSON document; anything else is a decode
// failure, not a silent drop.
package generate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"dreamland/internal/domain"
)

// Generator produces candidate items for a domain.
type Generator interface {
	Generate(ctx context.Context, domainName string, count int) ([]domain.CandidateItem, error)
}

// DecodeError reports LLM output that is not the expected JSON shape.
// Snippet carries the offending text so the user can see what came back.
type DecodeError struct {
	Snippet string
	Err     error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("llm response is not valid items json: %v (got: %s)", e.Err, e.Snippet)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// ChatClient talks to any OpenAI-compatible chat completion API.
type ChatClient struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64
	MaxTokens   int
	ItemTypes   []string
	HTTPClient  *http.Client
}

// NewChatClient creates a client with sane defaults.
func NewChatClient(baseURL, apiKey, model string) *ChatClient {
	if baseURL == "" {
		baseURL = "https://api.deepseek.com"
	}
	return &ChatClient{
		BaseURL:     baseURL,
		APIKey:      apiKey,
		Model:       model,
		Temperature: 0.7,
		MaxTokens:   2048,
		HTTPClient:  &http.Client{Timeout: 120 * time.Second},
	}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
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

// itemsPayload is the JSON shape the prompt demands from the model.
type itemsPayload struct {
	Items []domain.CandidateItem `json:"items"`
}

// Generate builds the prompt, calls the chat API and decodes the answer.
// All returned items are enabled; the user disables unwanted ones later.
func (c *ChatClient) Generate(ctx context.Context, domainName string, count int) ([]domain.CandidateItem, error) {
	raw, err := c.chat(ctx, c.prompt(domainName, count))
	if err != nil {
		return nil, err
	}
	text := StripFences(raw)
	var payload itemsPayload
	dec := json.NewDecoder(strings.NewReader(text))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&payload); err != nil {
		return nil, &DecodeError{Snippet: snippet(text), Err: err}
	}
	if len(payload.Items) == 0 {
		return nil, &DecodeError{Snippet: snippet(text), Err: fmt.Errorf("no items array")}
	}
	for i := range payload.Items {
		payload.Items[i].IsEnabled = true
	}
	return payload.Items, nil
}

func (c *ChatClient) prompt(domainName string, count int) string {
	types := strings.Join(c.ItemTypes, ", ")
	if types == "" {
		types = "Item"
	}
	return fmt.Sprintf(`You are a PLM data specialist. Invent %d realistic engineering items for the domain %q.
Allowed item types: %s.
Answer with ONLY a JSON object of this exact shape, no prose:
{"items":[{"name":"...","type":"...","desc":"..."}]}`, count, domainName, types)
}

func (c *ChatClient) chat(ctx context.Context, prompt string) (string, error) {
	reqBody := chatRequest{
		Model:       c.Model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: c.Temperature,
		MaxTokens:   c.MaxTokens,
	}
	body, _ := json.Marshal(reqBody)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(c.BaseURL, "/")+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: 120 * time.Second}
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("llm request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("llm error %d: %s", resp.StatusCode, string(b))
	}
	var result chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("llm returned no choices")
	}
	return result.Choices[0].Message.Content, nil
}

// StripFences removes a ```json ... ``` wrapper if the model added one and
// trims surrounding whitespace.
func StripFences(text string) string {
	if strings.Contains(text, "```") {
		text = strings.ReplaceAll(text, "```json", "")
		text = strings.ReplaceAll(text, "```", "")
	}
	return strings.TrimSpace(text)
}

func snippet(text string) string {
	const max = 120
	text = strings.TrimSpace(text)
	if len(text) > max {
		return text[:max] + "..."
	}
	return text
}
