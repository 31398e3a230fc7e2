package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// Client is a generic client for OpenAI-compatible chat completion APIs.
// Request deadlines are taken from the caller's context so that the
// retry layer can grow the per-attempt timeout; the client itself does
// not impose one.
//
// Thread-safe for concurrent use.
type Client struct {
	config     *Config
	httpClient *http.Client
	baseURL    string
}

// NewClient creates a new LLM client with the given configuration
//
// Returns a new Client instance or an error if configuration is invalid
// Example:
//
//	client, err := llm.NewClient(&llm.Config{...})
//	if err != nil {
//		log.Fatal(err)
//	}
func NewClient(config *Config) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &Client{
		config:     config,
		baseURL:    config.APIURL,
		httpClient: &http.Client{},
	}, nil
}

// ChatCompletion creates a chat completion request to the configured LLM API
//
// ctx: Context for the request (carries the per-attempt deadline)
// messages: Array of messages in the conversation
//
// Returns the chat completion response or an error
func (c *Client) ChatCompletion(ctx context.Context, messages []Message) (*ChatResponse, error) {
	request := ChatRequest{
		Model:       c.config.Model,
		Messages:    messages,
		MaxTokens:   c.config.MaxTokens,
		Temperature: c.config.Temperature,
	}

	response, err := c.makeRequest(ctx, "POST", "/chat/completions", request)
	if err != nil {
		return nil, fmt.Errorf("chat completion failed: %w", err)
	}

	return response, nil
}

// CompletionText runs a chat completion and returns the first choice's
// content, failing when the response carries no choices.
func (c *Client) CompletionText(ctx context.Context, messages []Message) (string, error) {
	response, err := c.ChatCompletion(ctx, messages)
	if err != nil {
		return "", err
	}

	if len(response.Choices) == 0 {
		return "", &TransportError{Op: "chat completion", Cause: fmt.Errorf("no choices in response")}
	}

	return response.Choices[0].Message.Content, nil
}

// makeRequest makes a raw HTTP request to the configured LLM API
func (c *Client) makeRequest(ctx context.Context, method, path string, payload interface{}) (*ChatResponse, error) {
	url := c.baseURL + path

	var body io.Reader
	if payload != nil {
		jsonData, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	for key, value := range c.config.GetHeaders() {
		req.Header.Set(key, value)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			// Deadline or cancellation surfaces as the context error so
			// the retry layer can classify it as a timeout.
			return nil, ctx.Err()
		}
		return nil, &TransportError{Op: "request", Cause: err}
	}
	defer resp.Body.Close()

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Op: "read response", Cause: err}
	}

	var chatResponse ChatResponse
	if err := json.Unmarshal(responseBody, &chatResponse); err != nil {
		return nil, &TransportError{Op: "decode response", Cause: err}
	}

	// API errors arrive in-band in the response body
	if chatResponse.Error != nil && chatResponse.Error.Message != "" {
		return &chatResponse, &TransportError{Op: "chat completion", Cause: chatResponse.Error}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &chatResponse, &TransportError{
			Op:    "chat completion",
			Cause: fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(responseBody)),
		}
	}

	return &chatResponse, nil
}
