// Package ai implements the Gemini REST client used for B-roll
// classification: remote file lifecycle (resumable upload, activation
// polling, deletion), the taxonomy-driven classification call, and the
// thumbnail verification requests.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/mkravets/brollscout/internal/retry"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com"
	defaultModel   = "gemini-2.0-flash"

	defaultBackoffUnit  = 5 * time.Second
	defaultPollInterval = 3 * time.Second
	defaultPollTimeout  = 120 * time.Second

	maxAttempts = 3
)

// Config configures the Gemini client. Only APIKey is required; the
// remaining fields exist so tests can point at a local server and shrink
// the waits.
type Config struct {
	APIKey       string
	Model        string
	BaseURL      string
	BackoffUnit  time.Duration
	PollInterval time.Duration
	PollTimeout  time.Duration
}

// Client talks to the Gemini API over plain HTTP.
type Client struct {
	apiKey       string
	model        string
	baseURL      string
	httpClient   *http.Client
	logger       zerolog.Logger
	backoffUnit  time.Duration
	pollInterval time.Duration
	pollTimeout  time.Duration
}

// NewClient builds a Gemini client from config, applying defaults.
func NewClient(cfg Config, logger zerolog.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.BackoffUnit == 0 {
		cfg.BackoffUnit = defaultBackoffUnit
	}
	if cfg.PollInterval == 0 {
		cfg.PollInterval = defaultPollInterval
	}
	if cfg.PollTimeout == 0 {
		cfg.PollTimeout = defaultPollTimeout
	}

	return &Client{
		apiKey:       cfg.APIKey,
		model:        cfg.Model,
		baseURL:      cfg.BaseURL,
		httpClient:   &http.Client{Timeout: 5 * time.Minute},
		logger:       logger.With().Str("component", "ai").Logger(),
		backoffUnit:  cfg.BackoffUnit,
		pollInterval: cfg.PollInterval,
		pollTimeout:  cfg.PollTimeout,
	}, nil
}

func (c *Client) retryPolicy() retry.Policy {
	return retry.Policy{MaxAttempts: maxAttempts, Backoff: retry.Linear(c.backoffUnit)}
}

// generateContent request/response wire types. Only the fields this client
// reads and writes are modeled.

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	FileData   *fileData   `json:"file_data,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type fileData struct {
	FileURI  string `json:"file_uri"`
	MIMEType string `json:"mime_type"`
}

type inlineData struct {
	MIMEType string `json:"mime_type"`
	Data     string `json:"data"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *apiError `json:"error"`
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

// generate issues one generateContent request and returns the concatenated
// text of the first candidate. An empty payload is an error.
func (c *Client) generate(ctx context.Context, parts []part) (string, error) {
	reqBody := generateRequest{Contents: []content{{Parts: parts}}}
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("provider returned status %d: %s", resp.StatusCode, snippet(body))
	}

	var genResp generateResponse
	if err := json.Unmarshal(body, &genResp); err != nil {
		return "", fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if genResp.Error != nil {
		return "", fmt.Errorf("provider error: %s", genResp.Error.Message)
	}
	if len(genResp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates in response")
	}

	var text string
	for _, p := range genResp.Candidates[0].Content.Parts {
		text += p.Text
	}
	if text == "" {
		return "", fmt.Errorf("empty text payload in response")
	}
	return text, nil
}

func snippet(body []byte) string {
	const max = 200
	s := string(bytes.TrimSpace(body))
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}
