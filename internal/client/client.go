package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/RichardoC/pad-agent/internal/models"
)

const DefaultBaseURL = "http://127.0.0.1:8000"

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func New(baseURL string, httpClient *http.Client) (*Client, error) {
	trimmed := strings.TrimSpace(baseURL)
	if trimmed == "" {
		return nil, fmt.Errorf("new client: base URL is required")
	}

	parsed, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("new client: parse base URL: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("new client: base URL must include scheme and host")
	}

	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &Client{
		baseURL:    strings.TrimRight(trimmed, "/"),
		httpClient: httpClient,
	}, nil
}

// Chat posts req to the backend and returns the reply text.
func (c *Client) Chat(ctx context.Context, req models.AgentRequest) (string, error) {
	payload := models.ChatRequest{
		ModelName:     req.ModelID,
		ModelProvider: string(req.Provider),
		SystemPrompt:  req.SystemPrompt,
		Messages:      []string{req.UserQuery},
		AllowSearch:   req.AllowSearch,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", &TransportError{Op: "encode request", Err: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat", bytes.NewReader(body))
	if err != nil {
		return "", &TransportError{Op: "build request", Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", &TransportError{Op: "post chat", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return "", &StatusError{StatusCode: resp.StatusCode}
	}

	// Decode into raw fields so a present-but-empty key is still honoured.
	var data map[string]json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return "", &TransportError{Op: "decode response", Err: err}
	}

	if raw, ok := data["error"]; ok {
		return "", &BackendError{Message: rawText(raw)}
	}
	if raw, ok := data["response"]; ok {
		return rawText(raw), nil
	}
	return "", ErrNoResponse
}

// Ask runs Chat and turns every result into something the UI can show.
func (c *Client) Ask(ctx context.Context, req models.AgentRequest) models.Outcome {
	reply, err := c.Chat(ctx, req)
	if err == nil {
		return models.Outcome{Reply: reply}
	}

	var (
		statusErr    *StatusError
		backendErr   *BackendError
		transportErr *TransportError
	)
	switch {
	case errors.As(err, &statusErr):
		return models.Outcome{Error: statusErr.Error()}
	case errors.As(err, &backendErr):
		return models.Outcome{Error: backendErr.Message}
	case errors.Is(err, ErrNoResponse):
		return models.Outcome{Warning: "No valid response received from backend."}
	case errors.As(err, &transportErr):
		return models.Outcome{Error: "Failed to connect to backend: " + transportErr.Error()}
	default:
		return models.Outcome{Error: "Failed to connect to backend: " + err.Error()}
	}
}

func rawText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}
