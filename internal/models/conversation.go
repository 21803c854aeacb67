package models

import (
	"fmt"
	"time"
)

// NoResponse is returned as the reply when the agent produced no assistant message.
const NoResponse = "No AI response."

type Provider string

const (
	ProviderGroq   Provider = "Groq"
	ProviderOpenAI Provider = "OpenAI"
)

// Providers lists the supported providers in display order.
var Providers = []Provider{ProviderGroq, ProviderOpenAI}

func ParseProvider(s string) (Provider, error) {
	switch p := Provider(s); p {
	case ProviderGroq, ProviderOpenAI:
		return p, nil
	default:
		return "", fmt.Errorf("unsupported provider: %q", s)
	}
}

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

type ChatMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

type AgentRequest struct {
	Provider     Provider `json:"provider"`
	ModelID      string   `json:"model_id"`
	SystemPrompt string   `json:"system_prompt"`
	UserQuery    string   `json:"user_query"`
	AllowSearch  bool     `json:"allow_search"`
}

type AgentResponse struct {
	Reply string `json:"reply"`
}

// ChatRequest is the body of POST /chat. Messages only ever carries the
// current query; earlier turns are not replayed.
type ChatRequest struct {
	ModelName     string   `json:"model_name"`
	ModelProvider string   `json:"model_provider"`
	SystemPrompt  string   `json:"system_prompt"`
	Messages      []string `json:"messages"`
	AllowSearch   bool     `json:"allow_search"`
}

type ChatResponse struct {
	Response string `json:"response,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Outcome is what the UI shows after a submission. Exactly one field is set.
type Outcome struct {
	Reply   string
	Error   string
	Warning string
}

type Exchange struct {
	ID          string    `json:"id"`
	Provider    string    `json:"provider"`
	Model       string    `json:"model"`
	Query       string    `json:"query"`
	AllowSearch bool      `json:"allow_search"`
	Reply       string    `json:"reply,omitempty"`
	Error       string    `json:"error,omitempty"`
	Duration    int64     `json:"duration_ms"`
	CreatedAt   time.Time `json:"created_at"`
}
