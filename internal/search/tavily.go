// Package search provides the Tavily web search tool used by the agent.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/tmc/langchaingo/tools"
)

const (
	DefaultBaseURL    = "https://api.tavily.com"
	DefaultMaxResults = 2
)

var _ tools.Tool = (*Tavily)(nil)

type Tavily struct {
	apiKey     string
	baseURL    string
	maxResults int
	httpClient *http.Client
}

type Option func(*Tavily)

func WithBaseURL(u string) Option { return func(t *Tavily) { t.baseURL = strings.TrimRight(u, "/") } }

func WithMaxResults(n int) Option { return func(t *Tavily) { t.maxResults = n } }

func WithHTTPClient(c *http.Client) Option { return func(t *Tavily) { t.httpClient = c } }

func NewTavily(apiKey string, opts ...Option) (*Tavily, error) {
	if apiKey == "" {
		return nil, errors.New("tavily: missing API key")
	}
	t := &Tavily{
		apiKey:     apiKey,
		baseURL:    DefaultBaseURL,
		maxResults: DefaultMaxResults,
		httpClient: http.DefaultClient,
	}
	for _, o := range opts {
		o(t)
	}
	return t, nil
}

func (t *Tavily) MaxResults() int { return t.maxResults }

func (t *Tavily) Name() string { return "tavily_search" }

func (t *Tavily) Description() string {
	return "Search the web for current information. Input is a search query. " +
		"Returns a JSON array of {title, url, content}."
}

type searchRequest struct {
	APIKey     string `json:"api_key"`
	Query      string `json:"query"`
	MaxResults int    `json:"max_results"`
}

type Result struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"`
}

type searchResponse struct {
	Results []Result `json:"results"`
}

func (t *Tavily) Call(ctx context.Context, input string) (string, error) {
	results, err := t.Search(ctx, input)
	if err != nil {
		return "", err
	}
	data, err := json.Marshal(results)
	if err != nil {
		return "", fmt.Errorf("tavily: marshal: %w", err)
	}
	return string(data), nil
}

func (t *Tavily) Search(ctx context.Context, query string) ([]Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("tavily: query is required")
	}

	body, err := json.Marshal(searchRequest{APIKey: t.apiKey, Query: query, MaxResults: t.maxResults})
	if err != nil {
		return nil, fmt.Errorf("tavily: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("tavily: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+t.apiKey)

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tavily: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("tavily: status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var out searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("tavily: decode response: %w", err)
	}
	if len(out.Results) > t.maxResults {
		out.Results = out.Results[:t.maxResults]
	}
	return out.Results, nil
}
