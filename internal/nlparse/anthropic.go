// Package nlparse turns free-text reminder requests into structured
// reminders using the Anthropic Messages API.
package nlparse

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"anchorcal/internal/config"
	"anchorcal/internal/log"
	"anchorcal/internal/model"
)

const (
	anthropicVersion = "2023-06-01"
	maxTokens        = 512

	rephraseHint = "I had trouble understanding that. Could you try rephrasing? e.g., 'Remind me to pack my gym bag 30 minutes before Gym Session'"
)

// Result is one parsed reminder request.
type Result struct {
	AnchorTitle   string `json:"anchorTitle"`
	OffsetMinutes int    `json:"offsetMinutes"`
	Message       string `json:"message"`
	Why           string `json:"why"`
}

// Client calls the Messages API.
type Client struct {
	endpoint string
	model    string
	apiKey   string
	http     *http.Client
}

// New builds a client from cfg. The API key is read from the environment
// variable named by cfg.APIKeyEnv.
func New(cfg config.ParserConfig) (*Client, error) {
	apiKey := os.Getenv(cfg.APIKeyEnv)
	if apiKey == "" {
		return nil, fmt.Errorf("%s environment variable not set", cfg.APIKeyEnv)
	}
	return NewWithKey(cfg, apiKey), nil
}

func NewWithKey(cfg config.ParserConfig, apiKey string) *Client {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Client{
		endpoint: cfg.Endpoint,
		model:    cfg.Model,
		apiKey:   apiKey,
		http:     &http.Client{Timeout: timeout},
	}
}

// Parse asks the model for a reminder whose anchorTitle is exactly one of
// anchorTitles. Unusable answers come back as *model.ValidationError with
// a message meant for the user.
func (c *Client) Parse(ctx context.Context, text string, anchorTitles []string) (Result, error) {
	raw, err := c.callAPI(ctx, buildPrompt(text, anchorTitles))
	if err != nil {
		return Result{}, fmt.Errorf("api call: %w", err)
	}

	res, err := parseResponse(raw)
	if err != nil {
		log.Warn("unparseable reminder response", "err", err)
		return Result{}, &model.ValidationError{Field: "text", Message: rephraseHint}
	}
	if !contains(anchorTitles, res.AnchorTitle) {
		return Result{}, &model.ValidationError{
			Field:   "anchorTitle",
			Message: fmt.Sprintf("I couldn't find an anchor named %q. Please check the name and try again.", res.AnchorTitle),
		}
	}
	return res, nil
}

func buildPrompt(text string, anchorTitles []string) string {
	var sb strings.Builder

	sb.WriteString("You are a helpful scheduling assistant. Parse the user's request into a structured reminder. Return JSON only.\n\n")
	sb.WriteString("Available anchor titles:\n")
	for _, t := range anchorTitles {
		sb.WriteString("- ")
		sb.WriteString(t)
		sb.WriteString("\n")
	}
	sb.WriteString("\nUser request:\n")
	sb.WriteString(text)
	sb.WriteString("\n\n")

	sb.WriteString(`Return a JSON object with this structure:
{"anchorTitle": "Gym Session", "offsetMinutes": -30, "message": "Pack your gym bag", "why": "Because you asked to be reminded."}

Rules:
- "anchorTitle" MUST be an exact match from the list of available anchor titles
- "offsetMinutes" is relative to the anchor start: "10 minutes before" is -10, "at the start" is 0, "5 minutes after" is 5
- "message" is the core of the reminder, phrased for the user
- "why" is one short, friendly sentence

Return ONLY the JSON, no other text.`)

	return sb.String()
}

type apiRequest struct {
	Model     string       `json:"model"`
	MaxTokens int          `json:"max_tokens"`
	Messages  []apiMessage `json:"messages"`
}

type apiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type apiResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (c *Client) callAPI(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(apiRequest{
		Model:     c.model,
		MaxTokens: maxTokens,
		Messages:  []apiMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("api error (status %d): %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var apiResp apiResponse
	if err := json.Unmarshal(data, &apiResp); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}
	if apiResp.Error != nil {
		return "", fmt.Errorf("api error: %s", apiResp.Error.Message)
	}
	for _, part := range apiResp.Content {
		if part.Type == "text" || part.Type == "" {
			return part.Text, nil
		}
	}
	return "", fmt.Errorf("empty response")
}

func parseResponse(resp string) (Result, error) {
	// Models sometimes wrap the JSON in a markdown fence.
	resp = strings.TrimSpace(resp)
	resp = strings.TrimPrefix(resp, "```json")
	resp = strings.TrimPrefix(resp, "```")
	resp = strings.TrimSuffix(resp, "```")
	resp = strings.TrimSpace(resp)

	var res Result
	if err := json.Unmarshal([]byte(resp), &res); err != nil {
		return Result{}, fmt.Errorf("parse json: %w (response: %s)", err, resp)
	}
	if res.AnchorTitle == "" || strings.TrimSpace(res.Message) == "" {
		return Result{}, fmt.Errorf("missing anchorTitle or message (response: %s)", resp)
	}
	return res, nil
}

func contains(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}
