package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/arin/fitbuddy/internal/models"
)

// gateway is the upstream OpenAI-compatible completion API.
type gateway struct {
	url    string
	key    string
	model  string
	client *http.Client
}

type completionRequest struct {
	Model    string           `json:"model"`
	Messages []models.Message `json:"messages"`
	Stream   bool             `json:"stream,omitempty"`
}

// upstreamError is a non-success response from the gateway.
type upstreamError struct {
	status int
	body   string
}

func (e *upstreamError) Error() string {
	return fmt.Sprintf("gateway returned %d: %s", e.status, e.body)
}

// complete posts messages to the gateway. On success the caller owns the
// response body; any other status is returned as *upstreamError.
func (g *gateway) complete(ctx context.Context, messages []models.Message, stream bool) (*http.Response, error) {
	body, err := json.Marshal(completionRequest{Model: g.model, Messages: messages, Stream: stream})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+g.key)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		text, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, &upstreamError{status: resp.StatusCode, body: string(text)}
	}
	return resp, nil
}
