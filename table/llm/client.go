// Package llm asks a chat/completions model (OpenAI or OpenRouter) to pick
// a blackjack action.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"
)

var ErrNoAction = errors.New("no valid action in response")

// Client talks to one model.
type Client struct {
	cfg  apiConfig
	http *http.Client

	Temperature     *float64
	MaxOutputTokens int
}

// New resolves provider settings from the environment for model. An empty
// model falls back to OPENAI_MODEL / OPENROUTER_MODEL.
func New(model string) (*Client, error) {
	cfg, err := resolveAPIConfig(model)
	if err != nil {
		return nil, err
	}
	c := &Client{cfg: cfg, http: &http.Client{Timeout: 45 * time.Second}}
	if v := firstNonEmpty(os.Getenv("OPENAI_TEMPERATURE"), os.Getenv("OPENROUTER_TEMPERATURE")); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Temperature = &f
		}
	}
	if v := firstNonEmpty(os.Getenv("OPENAI_MAX_OUTPUT_TOKENS"), os.Getenv("OPENROUTER_MAX_OUTPUT_TOKENS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.MaxOutputTokens = n
		}
	}
	return c, nil
}

func (c *Client) Model() string    { return c.cfg.Model }
func (c *Client) Provider() string { return c.cfg.Kind.String() }

// Complete sends one system+user exchange and returns the reply text. A
// non-nil schema requests strict structured output.
func (c *Client) Complete(ctx context.Context, system, user string, schemaName string, schema map[string]any) (string, error) {
	payload := map[string]any{
		"model": c.cfg.Model,
		"messages": []map[string]string{
			{"role": "system", "content": system},
			{"role": "user", "content": user},
		},
	}
	if c.MaxOutputTokens > 0 {
		payload["max_tokens"] = c.MaxOutputTokens
	}
	if c.Temperature != nil {
		payload["temperature"] = *c.Temperature
	}
	if schema != nil {
		payload["response_format"] = map[string]any{
			"type": "json_schema",
			"json_schema": map[string]any{
				"name":   firstNonEmpty(schemaName, "structured"),
				"strict": true,
				"schema": schema,
			},
		}
	} else {
		payload["response_format"] = map[string]any{"type": "json_object"}
	}

	b, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/chat/completions", bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	setHeaderPreserveCase(req.Header, c.cfg.HeaderName, c.cfg.HeaderPrefix+c.cfg.APIKey)
	setHeaderPreserveCase(req.Header, "OpenAI-Organization", c.cfg.Organization)
	for k, v := range c.cfg.ExtraHeaders {
		setHeaderPreserveCase(req.Header, k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%s http %d: %s", c.cfg.Kind, resp.StatusCode, truncate(string(body), 800))
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(body, &cc); err != nil {
		return "", err
	}
	if len(cc.Choices) == 0 {
		return "", errors.New("no choices returned")
	}
	return cc.Choices[0].Message.Content, nil
}

// ChooseAction asks for {"action": ...} restricted to legal and returns the
// chosen action with the raw reply.
func (c *Client) ChooseAction(ctx context.Context, system, user string, legal []string) (string, string, error) {
	schema := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"action": map[string]any{
				"type":        "string",
				"enum":        legal,
				"description": "One of the legal blackjack actions",
			},
		},
		"required": []string{"action"},
	}
	text, err := c.Complete(ctx, system, user, "blackjack_action", schema)
	if err != nil {
		return "", text, err
	}
	raw := strings.TrimSpace(text)
	if raw == "" {
		return "", raw, errors.New("empty response")
	}
	act, ok := parseAction(raw, legal)
	if !ok {
		return "", raw, ErrNoAction
	}
	return act, raw, nil
}

// parseAction accepts strict JSON, JSON wrapped in prose, or a bare word.
func parseAction(raw string, legal []string) (string, bool) {
	var parsed map[string]any
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		if cleaned := extractJSONObject(raw); cleaned != "" {
			_ = json.Unmarshal([]byte(cleaned), &parsed)
		}
	}
	act := strings.ToLower(strings.TrimSpace(raw))
	if v, ok := parsed["action"].(string); ok {
		act = strings.ToLower(strings.TrimSpace(v))
	}
	switch act {
	case "h":
		act = "hit"
	case "s", "stay":
		act = "stand"
	}
	for _, k := range legal {
		if k == act {
			return act, true
		}
	}
	return "", false
}

// setHeaderPreserveCase keeps mixed-case names such as HTTP-Referer as given.
// Blank names or values are skipped.
func setHeaderPreserveCase(h http.Header, name, value string) {
	name, value = strings.TrimSpace(name), strings.TrimSpace(value)
	if name == "" || value == "" {
		return
	}
	if http.CanonicalHeaderKey(name) == name {
		h.Set(name, value)
		return
	}
	h[name] = []string{value}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}

func extractJSONObject(s string) string {
	start := strings.Index(s, "{")
	if start < 0 {
		return ""
	}
	end := strings.LastIndex(s, "}")
	if end < start {
		return ""
	}
	return strings.TrimSpace(s[start : end+1])
}
