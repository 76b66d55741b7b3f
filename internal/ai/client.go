// Package ai talks to the FitBuddy function endpoints: the streaming ai-chat
// completion endpoint and the diet-advisor endpoint.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/arin/fitbuddy/internal/config"
	errs "github.com/arin/fitbuddy/internal/errors"
	"github.com/arin/fitbuddy/internal/models"
)

const maxErrorBody = 64 << 10

// Client calls the FitBuddy functions. It implements chat.Endpoint.
type Client struct {
	chatURL string
	dietURL string
	apiKey  string
	// stream has no overall timeout so long replies are not cut off;
	// only the wait for response headers is bounded.
	stream     *http.Client
	httpClient *http.Client
}

func NewClient(cfg *config.Config) *Client {
	timeout := cfg.RequestTimeout()
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.ResponseHeaderTimeout = timeout

	return &Client{
		chatURL:    cfg.ChatURL,
		dietURL:    cfg.DietURL,
		apiKey:     cfg.APIKey,
		stream:     &http.Client{Transport: transport},
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Open posts the conversation to the ai-chat endpoint and returns the event
// stream. Non-success statuses are returned as *errors.APIError carrying the
// server's error message when it sent one.
func (c *Client) Open(ctx context.Context, messages []models.Message) (io.ReadCloser, error) {
	body, err := json.Marshal(chatRequest{Messages: messages})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := c.newRequest(ctx, c.chatURL, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.stream.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("could not reach FitBuddy at %s: %w", c.chatURL, err)
	}
	if !success(resp.StatusCode) {
		defer resp.Body.Close()
		return nil, readAPIError(resp, c.chatURL)
	}
	return resp.Body, nil
}

// DietAdvice asks the diet-advisor endpoint for meal and macro guidance.
func (c *Client) DietAdvice(ctx context.Context, prompt string, profile *Profile) (string, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", fmt.Errorf("prompt is empty")
	}

	reqBody := dietRequest{Prompt: prompt}
	if !profile.IsZero() {
		reqBody.UserProfile = profile
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := c.newRequest(ctx, c.dietURL, body)
	if err != nil {
		return "", err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", fmt.Errorf("could not reach FitBuddy at %s: %w", c.dietURL, err)
	}
	defer resp.Body.Close()

	if !success(resp.StatusCode) {
		return "", readAPIError(resp, c.dietURL)
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	var out dietResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if strings.TrimSpace(out.Advice) == "" {
		return "", fmt.Errorf("%w: empty advice", errs.ErrInvalidResponse)
	}
	return strings.TrimSpace(out.Advice), nil
}

// Ping sends a CORS preflight to the chat endpoint, which every deployment
// of the functions answers without credentials.
func (c *Client) Ping(ctx context.Context) (time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodOptions, c.chatURL, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("could not reach %s: %w", c.chatURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusInternalServerError {
		return 0, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return time.Since(start), nil
}

func (c *Client) newRequest(ctx context.Context, url string, body []byte) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	return req, nil
}

func success(status int) bool {
	return status >= 200 && status < 300
}

// readAPIError builds an APIError from a failed response. The body is read
// best-effort: `{"error": "..."}` and `{"error": {"message": "..."}}` are
// understood, anything else falls back to the generic message.
func readAPIError(resp *http.Response, endpoint string) *errs.APIError {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var msg string
	if gjson.ValidBytes(data) {
		if e := gjson.GetBytes(data, "error"); e.Type == gjson.String {
			msg = e.Str
		} else if m := gjson.GetBytes(data, "error.message"); m.Type == gjson.String {
			msg = m.Str
		}
	}
	return errs.NewAPIError(resp.StatusCode, endpoint, strings.TrimSpace(msg))
}
