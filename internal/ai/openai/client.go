package openai

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

	"resume-workspace/internal/ai"
	"resume-workspace/internal/shared/telemetry"
)

const defaultBaseURL = "https://api.openai.com/v1"

// Client implements ai.Gateway against an OpenAI-compatible chat
// completions endpoint.
type Client struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

// NewClient constructs a client. An empty apiKey is reported as
// ai.ErrMissingCredential so callers can fall back to the placeholder.
func NewClient(apiKey, model, baseURL string, timeout time.Duration) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ai.ErrMissingCredential
	}
	if strings.TrimSpace(model) == "" {
		return nil, fmt.Errorf("AI_MODEL is required for OpenAI")
	}
	if strings.TrimSpace(baseURL) == "" {
		baseURL = defaultBaseURL
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		apiKey:     apiKey,
		model:      model,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	Temperature    *float32       `json:"temperature,omitempty"`
	ResponseFormat responseFormat `json:"response_format"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage,omitempty"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

func (c *Client) AnalyzeATS(ctx context.Context, content, jobDescription string) (ai.ATSResult, error) {
	var out ai.ATSResult
	err := c.complete(ctx, "analyze_ats", promptATS, userPrompt(content, jobDescription), &out)
	if err != nil {
		return ai.ATSResult{}, err
	}
	return out.Normalize(), nil
}

func (c *Client) EnhanceText(ctx context.Context, selection, surrounding string) (ai.Enhancement, error) {
	var out ai.Enhancement
	user := fmt.Sprintf("Selected text:\n%s\n\nSurrounding resume context:\n%s", selection, orNA(surrounding))
	if err := c.complete(ctx, "enhance_text", promptEnhance, user, &out); err != nil {
		return ai.Enhancement{}, err
	}
	out = out.Normalize()
	if out.Text == "" {
		return ai.Enhancement{}, ai.Remote("enhance_text", 0, fmt.Errorf("%w: empty text", ai.ErrInvalidResult))
	}
	return out, nil
}

func (c *Client) AnalyzeGaps(ctx context.Context, content string) (ai.GapReport, error) {
	var out ai.GapReport
	if err := c.complete(ctx, "analyze_gaps", promptGaps, userPrompt(content, ""), &out); err != nil {
		return ai.GapReport{}, err
	}
	return out.Normalize(), nil
}

func (c *Client) MatchKeywords(ctx context.Context, content, jobDescription string) (ai.KeywordMatch, error) {
	var out ai.KeywordMatch
	if err := c.complete(ctx, "match_keywords", promptKeywords, userPrompt(content, jobDescription), &out); err != nil {
		return ai.KeywordMatch{}, err
	}
	return out.Normalize(), nil
}

// complete runs one chat completion and decodes its JSON content into out.
// A model that rejects temperature 0 is retried once without it.
func (c *Client) complete(ctx context.Context, op, system, user string, out any) error {
	start := time.Now()
	temp := float32(0)
	req := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature:    &temp,
		ResponseFormat: responseFormat{Type: "json_object"},
	}

	parsed, status, err := c.send(ctx, req)
	if err == nil && parsed.Error != nil && isUnsupportedTemperature(parsed.Error.Message) {
		req.Temperature = nil
		parsed, status, err = c.send(ctx, req)
	}
	if err != nil {
		return ai.Remote(op, status, err)
	}
	if parsed.Error != nil {
		return ai.Remote(op, status, fmt.Errorf("openai error: %s (%s)", parsed.Error.Message, parsed.Error.Type))
	}
	if len(parsed.Choices) == 0 {
		return ai.Remote(op, status, fmt.Errorf("%w: response missing choices", ai.ErrInvalidResult))
	}
	content := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if err := json.Unmarshal([]byte(content), out); err != nil {
		return ai.Remote(op, status, fmt.Errorf("%w: %v", ai.ErrInvalidResult, err))
	}

	fields := map[string]any{
		"op":          op,
		"model":       c.model,
		"duration_ms": time.Since(start).Milliseconds(),
	}
	if parsed.Usage != nil {
		fields["prompt_tokens"] = parsed.Usage.PromptTokens
		fields["completion_tokens"] = parsed.Usage.CompletionTokens
		fields["total_tokens"] = parsed.Usage.TotalTokens
	}
	telemetry.Info("ai.usage", fields)
	return nil
}

func (c *Client) send(ctx context.Context, body chatRequest) (chatResponse, int, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return chatResponse{}, 0, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return chatResponse{}, 0, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "Client.Timeout") {
			return chatResponse{}, 0, fmt.Errorf("openai request timeout: %w", err)
		}
		return chatResponse{}, 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return chatResponse{}, resp.StatusCode, ai.ErrMissingCredential
	}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return chatResponse{}, resp.StatusCode, err
	}
	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		if resp.StatusCode >= 300 {
			return chatResponse{}, resp.StatusCode, fmt.Errorf("openai http status %d", resp.StatusCode)
		}
		return chatResponse{}, resp.StatusCode, fmt.Errorf("openai response parse: %w", err)
	}
	if resp.StatusCode >= 300 && parsed.Error == nil {
		return chatResponse{}, resp.StatusCode, fmt.Errorf("openai http status %d", resp.StatusCode)
	}
	return parsed, resp.StatusCode, nil
}

func isUnsupportedTemperature(msg string) bool {
	msg = strings.ToLower(msg)
	return strings.Contains(msg, "temperature") && strings.Contains(msg, "unsupported")
}

var _ ai.Gateway = (*Client)(nil)
