// Package ui serves the browser front end. Submissions go to a Responder,
// which either runs the agent in-process or forwards to the backend.
package ui

import (
	"bytes"
	"context"
	"embed"
	"html/template"
	"net/http"
	"strings"

	"github.com/RichardoC/pad-agent/internal/config"
	"github.com/RichardoC/pad-agent/internal/models"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/yuin/goldmark"
	"go.uber.org/zap"
)

const emptyQueryWarning = "Please enter a query before asking the agent."

//go:embed templates/index.html
var templateFS embed.FS

var indexTmpl = template.Must(template.ParseFS(templateFS, "templates/index.html"))

// Raw HTML in replies is omitted by goldmark's default renderer.
var markdown = goldmark.New()

func renderMarkdown(text string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(text), &buf); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}

type Responder interface {
	Ask(ctx context.Context, req models.AgentRequest) models.Outcome
}

// Runner is satisfied by *llm.Service.
type Runner interface {
	RunAgentQuery(ctx context.Context, req models.AgentRequest) (models.AgentResponse, error)
}

// InProcess answers by calling the agent directly.
type InProcess struct {
	Runner Runner
}

func (p InProcess) Ask(ctx context.Context, req models.AgentRequest) models.Outcome {
	resp, err := p.Runner.RunAgentQuery(ctx, req)
	if err != nil {
		return models.Outcome{Error: "Agent error: " + err.Error()}
	}
	return models.Outcome{Reply: resp.Reply}
}

type Server struct {
	responder Responder
	catalog   config.Catalog
	mode      string
	logger    *zap.Logger
}

func NewServer(responder Responder, catalog config.Catalog, mode string, logger *zap.Logger) *Server {
	return &Server{responder: responder, catalog: catalog, mode: mode, logger: logger}
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Get("/", s.index)
	r.Post("/ask", s.ask)
	return r
}

type formState struct {
	SystemPrompt string
	Provider     models.Provider
	Model        string
	AllowSearch  bool
	Query        string
}

type providerView struct {
	Name   models.Provider
	Models []string
}

type page struct {
	Mode      string
	Providers []providerView
	Form      formState
	Outcome   *models.Outcome
	HasReply  bool
	Reply     template.HTML
}

func (s *Server) index(w http.ResponseWriter, r *http.Request) {
	form := formState{Provider: models.ProviderGroq}
	if ids := s.catalog[form.Provider]; len(ids) > 0 {
		form.Model = ids[0]
	}
	s.render(w, form, nil)
}

func (s *Server) ask(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}

	provider := models.Provider(r.PostFormValue("provider"))
	form := formState{
		SystemPrompt: r.PostFormValue("system_prompt"),
		Provider:     provider,
		Model:        r.PostFormValue("model_" + string(provider)),
		AllowSearch:  r.PostFormValue("allow_search") != "",
		Query:        r.PostFormValue("query"),
	}

	if strings.TrimSpace(form.Query) == "" {
		s.render(w, form, &models.Outcome{Warning: emptyQueryWarning})
		return
	}

	outcome := s.responder.Ask(r.Context(), models.AgentRequest{
		Provider:     form.Provider,
		ModelID:      form.Model,
		SystemPrompt: form.SystemPrompt,
		UserQuery:    form.Query,
		AllowSearch:  form.AllowSearch,
	})
	if outcome.Error != "" {
		s.logger.Warn("query failed", zap.String("error", outcome.Error))
	}
	s.render(w, form, &outcome)
}

func (s *Server) render(w http.ResponseWriter, form formState, outcome *models.Outcome) {
	p := page{Mode: s.mode, Form: form, Outcome: outcome}
	p.HasReply = outcome != nil && outcome.Error == "" && outcome.Warning == ""
	if p.HasReply {
		html, err := renderMarkdown(outcome.Reply)
		if err != nil {
			s.logger.Warn("Failed to render reply as markdown", zap.Error(err))
			html = template.HTML(template.HTMLEscapeString(outcome.Reply))
		}
		p.Reply = html
	}
	for _, name := range models.Providers {
		p.Providers = append(p.Providers, providerView{Name: name, Models: s.catalog[name]})
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTmpl.Execute(w, p); err != nil {
		s.logger.Error("Failed to render page", zap.Error(err))
	}
}
