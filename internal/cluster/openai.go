package cluster

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/alainprocs/SitemapSageAI/internal/config"
	"github.com/alainprocs/SitemapSageAI/internal/domain"
)

// ChatCompleter is the outbound boundary to the external text-understanding
// service: one prompt in, one JSON document out.
type ChatCompleter interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// openaiClient implements ChatCompleter against the OpenAI /v1/chat/completions
// API format, which also covers compatible self-hosted backends.
type openaiClient struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
}

func newOpenAIClient(cfg config.ClusterConfig) *openaiClient {
	return &openaiClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		client:  &http.Client{Timeout: cfg.Timeout},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
	Temperature    float64         `json:"temperature"`
	MaxTokens      int             `json:"max_tokens"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

const (
	chatTemperature = 0.5
	chatMaxTokens   = 2000
)

// Complete sends one chat-completions request and returns the assistant
// message content. Transport failures, timeouts and non-2xx statuses all
// surface as ClusteringError{ServiceUnavailable}.
func (c *openaiClient) Complete(ctx context.Context, system, user string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		ResponseFormat: &responseFormat{Type: "json_object"},
		Temperature:    chatTemperature,
		MaxTokens:      chatMaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	url := c.baseURL + "/v1/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", &domain.ClusteringError{Kind: domain.ClusteringServiceUnavailable, Msg: "build request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", &domain.ClusteringError{
			Kind: domain.ClusteringServiceUnavailable,
			Msg:  fmt.Sprintf("HTTP POST %s", url),
			Err:  err,
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, domain.MaxSampleBytes))
		return "", &domain.ClusteringError{
			Kind:   domain.ClusteringServiceUnavailable,
			Msg:    fmt.Sprintf("HTTP %d from %s", resp.StatusCode, url),
			Sample: domain.TruncateSample(string(respBody)),
		}
	}

	var result chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", &domain.ClusteringError{Kind: domain.ClusteringMalformedResponse, Msg: "decode response envelope", Err: err}
	}
	if len(result.Choices) == 0 {
		return "", &domain.ClusteringError{Kind: domain.ClusteringMalformedResponse, Msg: "response contains no choices"}
	}

	return result.Choices[0].Message.Content, nil
}
