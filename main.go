package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/RichardoC/pad-agent/internal/config"
	"github.com/RichardoC/pad-agent/internal/llm"
	"github.com/RichardoC/pad-agent/internal/models"
	"go.uber.org/zap"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	provider := flag.String("provider", string(models.ProviderGroq), "model provider: Groq or OpenAI")
	model := flag.String("model", "", "model id (defaults to the provider's first catalog entry)")
	system := flag.String("system", "", "system prompt")
	search := flag.Bool("search", false, "allow web search")
	flag.Parse()

	query := strings.Join(flag.Args(), " ")
	if strings.TrimSpace(query) == "" {
		fmt.Fprintln(os.Stderr, "Please enter a query before asking the agent.")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	p := models.Provider(*provider)
	if *model == "" {
		if ids := cfg.Catalog[p]; len(ids) > 0 {
			*model = ids[0]
		}
	}

	service := llm.New(llm.Credentials{
		GroqAPIKey:   cfg.GroqAPIKey,
		OpenAIAPIKey: cfg.OpenAIAPIKey,
		TavilyAPIKey: cfg.TavilyAPIKey,
	}, llm.WithLogger(logger), llm.WithMaxIterations(cfg.MaxIterations))

	resp, err := service.RunAgentQuery(context.Background(), models.AgentRequest{
		Provider:     p,
		ModelID:      *model,
		SystemPrompt: *system,
		UserQuery:    query,
		AllowSearch:  *search,
	})
	if err != nil {
		logger.Fatal("agent query failed", zap.Error(err))
	}
	fmt.Println(resp.Reply)
}
