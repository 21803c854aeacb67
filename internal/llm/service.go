package llm

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/RichardoC/pad-agent/internal/agent"
	"github.com/RichardoC/pad-agent/internal/models"
	"github.com/RichardoC/pad-agent/internal/search"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/tools"
	"go.uber.org/zap"
)

// GroqBaseURL is Groq's OpenAI compatible endpoint.
const GroqBaseURL = "https://api.groq.com/openai/v1"

type Credentials struct {
	GroqAPIKey   string
	OpenAIAPIKey string
	TavilyAPIKey string
}

// Agent runs seed messages to completion and returns the transcript.
type Agent interface {
	Invoke(ctx context.Context, seed []models.ChatMessage) ([]models.ChatMessage, error)
}

type AgentFactory func(model llms.Model, toolset []tools.Tool) Agent

type ModelFactory func(provider models.Provider, modelID string) (llms.Model, error)

type ToolFactory func() ([]tools.Tool, error)

type Service struct {
	newModel ModelFactory
	newTools ToolFactory
	newAgent AgentFactory
	logger   *zap.Logger
}

type Option func(*Service)

func WithModelFactory(f ModelFactory) Option { return func(s *Service) { s.newModel = f } }

func WithSearchTools(f ToolFactory) Option { return func(s *Service) { s.newTools = f } }

func WithAgentFactory(f AgentFactory) Option { return func(s *Service) { s.newAgent = f } }

func WithLogger(l *zap.Logger) Option { return func(s *Service) { s.logger = l } }

// WithMaxIterations bounds the default agent loop.
func WithMaxIterations(n int) Option {
	return func(s *Service) {
		s.newAgent = func(model llms.Model, toolset []tools.Tool) Agent {
			return agent.New(model, toolset, agent.Options{MaxIterations: n, Logger: s.logger})
		}
	}
}

// New builds a Service that resolves providers against creds. Options may
// replace any of the model, tool or agent constructors.
func New(creds Credentials, opts ...Option) *Service {
	s := &Service{logger: zap.NewNop()}
	s.newModel = OpenAICompatibleModels(creds, nil)
	s.newTools = TavilyTools(creds.TavilyAPIKey, search.DefaultMaxResults)
	s.newAgent = func(model llms.Model, toolset []tools.Tool) Agent {
		return agent.New(model, toolset, agent.Options{Logger: s.logger})
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// OpenAICompatibleModels resolves both providers to langchaingo's OpenAI
// client; Groq only differs by base URL and key.
func OpenAICompatibleModels(creds Credentials, httpClient *http.Client) ModelFactory {
	return func(provider models.Provider, modelID string) (llms.Model, error) {
		var opts []openai.Option
		switch provider {
		case models.ProviderGroq:
			if creds.GroqAPIKey == "" {
				return nil, &ConfigurationError{Reason: "GROQ_API_KEY is not set"}
			}
			opts = append(opts, openai.WithToken(creds.GroqAPIKey), openai.WithBaseURL(GroqBaseURL))
		case models.ProviderOpenAI:
			if creds.OpenAIAPIKey == "" {
				return nil, &ConfigurationError{Reason: "OPENAI_API_KEY is not set"}
			}
			opts = append(opts, openai.WithToken(creds.OpenAIAPIKey))
		default:
			return nil, &ConfigurationError{Reason: fmt.Sprintf("unsupported provider: %q", provider)}
		}
		opts = append(opts, openai.WithModel(modelID))
		if httpClient != nil {
			opts = append(opts, openai.WithHTTPClient(httpClient))
		}

		llm, err := openai.New(opts...)
		if err != nil {
			return nil, &ConfigurationError{Reason: err.Error()}
		}
		return llm, nil
	}
}

func TavilyTools(apiKey string, maxResults int, opts ...search.Option) ToolFactory {
	return func() ([]tools.Tool, error) {
		if apiKey == "" {
			return nil, &ConfigurationError{Reason: "TAVILY_API_KEY is not set"}
		}
		tv, err := search.NewTavily(apiKey, append([]search.Option{search.WithMaxResults(maxResults)}, opts...)...)
		if err != nil {
			return nil, &ConfigurationError{Reason: err.Error()}
		}
		return []tools.Tool{tv}, nil
	}
}

// RunAgentQuery builds an agent for the request, seeds it with the system
// prompt and the query, and returns the last assistant message. It blocks
// until the agent finishes; cancellation is only whatever ctx carries.
func (s *Service) RunAgentQuery(ctx context.Context, req models.AgentRequest) (models.AgentResponse, error) {
	if _, err := models.ParseProvider(string(req.Provider)); err != nil {
		return models.AgentResponse{}, &ConfigurationError{Reason: err.Error()}
	}
	if req.ModelID == "" {
		return models.AgentResponse{}, &ConfigurationError{Reason: "model id is required"}
	}

	model, err := s.newModel(req.Provider, req.ModelID)
	if err != nil {
		return models.AgentResponse{}, err
	}

	var toolset []tools.Tool
	if req.AllowSearch {
		toolset, err = s.newTools()
		if err != nil {
			return models.AgentResponse{}, err
		}
	}

	a := s.newAgent(model, toolset)

	seed := []models.ChatMessage{
		{Role: models.RoleSystem, Content: req.SystemPrompt},
		{Role: models.RoleUser, Content: req.UserQuery},
	}

	start := time.Now()
	transcript, err := a.Invoke(ctx, seed)
	if err != nil {
		s.logger.Error("agent invocation failed",
			zap.String("provider", string(req.Provider)),
			zap.String("model", req.ModelID),
			zap.Error(err))
		return models.AgentResponse{}, &UpstreamError{Provider: string(req.Provider), Err: err}
	}

	s.logger.Debug("agent finished",
		zap.String("provider", string(req.Provider)),
		zap.String("model", req.ModelID),
		zap.Bool("allow_search", req.AllowSearch),
		zap.Int("messages", len(transcript)),
		zap.Duration("elapsed", time.Since(start)))

	return models.AgentResponse{Reply: LastAssistantReply(transcript)}, nil
}

// LastAssistantReply returns the content of the final assistant message, or
// models.NoResponse when there is none.
func LastAssistantReply(transcript []models.ChatMessage) string {
	for i := len(transcript) - 1; i >= 0; i-- {
		if transcript[i].Role == models.RoleAssistant {
			return transcript[i].Content
		}
	}
	return models.NoResponse
}
