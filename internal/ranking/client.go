package ranking

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// CompletionClient produces free-form text for a prompt. Implementations make
// no structural guarantees about the response; callers must treat it as
// untrusted.
type CompletionClient interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

const defaultClientTimeout = 10 * time.Second

// HTTPCompletionClient calls a hosted completion endpoint.
type HTTPCompletionClient struct {
	hc      *http.Client
	baseURL string
	apiKey  string
}

// NewHTTPCompletionClient builds a client for the completion service at
// baseURL, authenticating with apiKey.
func NewHTTPCompletionClient(baseURL, apiKey string, timeout time.Duration) *HTTPCompletionClient {
	if timeout <= 0 {
		timeout = defaultClientTimeout
	}
	return &HTTPCompletionClient{
		hc:      &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
	}
}

type completionRequest struct {
	Prompt string `json:"prompt"`
}

type completionResponse struct {
	Text string `json:"text"`
}

// Complete sends the prompt and returns the raw completion text.
func (c *HTTPCompletionClient) Complete(ctx context.Context, prompt string) (string, error) {
	payload, err := json.Marshal(completionRequest{Prompt: prompt})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/completions", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	res, err := c.hc.Do(req)
	if err != nil {
		return "", fmt.Errorf("ranking: %w", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return "", fmt.Errorf("ranking: reading response: %w", err)
	}
	if res.StatusCode >= 400 {
		return "", fmt.Errorf("ranking: completion failed (status=%d)", res.StatusCode)
	}

	var decoded completionResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return "", fmt.Errorf("ranking: decoding response: %w", err)
	}
	return decoded.Text, nil
}
