package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"
)

const (
	// ClaudeAPIEndpoint is the Anthropic API endpoint.
	ClaudeAPIEndpoint = "https://api.anthropic.com/v1/messages"
	// ClaudeModel is the model to use.
	ClaudeModel = "claude-sonnet-4-20250514"
	// ClaudeAPIVersion is the API version.
	ClaudeAPIVersion = "2023-06-01"
	// DefaultMaxTokens caps the length of a single completion.
	DefaultMaxTokens = 4096
)

// TextGenerator turns a prompt into generated text.
// Implementations report provider failures as errors matching ErrGenerationFailed.
type TextGenerator interface {
	Complete(ctx context.Context, prompt string, temperature float64) (text string, err error)
}

// Client represents a Claude API client.
type Client struct {
	apiKey     string
	model      string
	maxTokens  int
	httpClient *http.Client
	endpoint   string
}

// NewClient creates a new Claude API client.
func NewClient(apiKey, model string) (client *Client) {
	if model == "" {
		model = ClaudeModel
	}
	client = &Client{
		apiKey:    apiKey,
		model:     model,
		maxTokens: DefaultMaxTokens,
		endpoint:  ClaudeAPIEndpoint,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
	return client
}

// Model returns the model the client sends requests to.
func (c *Client) Model() (model string) {
	model = c.model
	return model
}

// Complete sends a single-turn prompt and returns the text of the reply.
// Any transport, status or decoding failure is returned as a *GenerationError.
func (c *Client) Complete(ctx context.Context, prompt string, temperature float64) (text string, err error) {
	text, err = c.sendRequest(ctx, prompt, temperature)
	if err != nil {
		err = &GenerationError{Err: err}
		return text, err
	}

	return text, err
}

// sendRequest sends a request to Claude API.
func (c *Client) sendRequest(ctx context.Context, prompt string, temperature float64) (responseText string, err error) {
	claudeReq := ClaudeRequest{
		Model:       c.model,
		MaxTokens:   c.maxTokens,
		Temperature: temperature,
		Messages: []Message{
			{
				Role:    "user",
				Content: prompt,
			},
		},
	}

	var reqBody []byte
	reqBody, err = json.Marshal(claudeReq)
	if err != nil {
		err = errors.Wrap(err, "failed to marshal request")
		return responseText, err
	}

	var httpReq *http.Request
	httpReq, err = http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(reqBody))
	if err != nil {
		err = errors.Wrap(err, "failed to create HTTP request")
		return responseText, err
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Api-Key", c.apiKey)
	httpReq.Header.Set("Anthropic-Version", ClaudeAPIVersion)

	var resp *http.Response
	resp, err = c.httpClient.Do(httpReq)
	if err != nil {
		err = errors.Wrap(err, "HTTP request failed")
		return responseText, err
	}
	defer resp.Body.Close()

	var respBody []byte
	respBody, err = io.ReadAll(resp.Body)
	if err != nil {
		err = errors.Wrap(err, "failed to read response body")
		return responseText, err
	}

	if resp.StatusCode != http.StatusOK {
		err = errors.Errorf("API request failed with status %d: %s", resp.StatusCode, string(respBody))
		return responseText, err
	}

	var claudeResp ClaudeResponse
	err = json.Unmarshal(respBody, &claudeResp)
	if err != nil {
		err = errors.Wrapf(err, "failed to parse Claude response: %s", string(respBody))
		return responseText, err
	}

	if len(claudeResp.Content) == 0 {
		err = errors.New("no content in Claude response")
		return responseText, err
	}

	// An empty text block is a valid (if useless) completion.
	responseText = claudeResp.Content[0].Text

	return responseText, err
}
