// Package agent implements a tool-calling ReAct loop on top of langchaingo
// models. The loop asks the model for a reply, runs any tool calls it makes,
// feeds the results back and stops once the model answers without tools.
package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/RichardoC/pad-agent/internal/models"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/tools"
	"go.uber.org/zap"
)

// ErrMaxIterations is returned when the model keeps calling tools past the
// configured iteration limit.
var ErrMaxIterations = errors.New("agent: max iterations reached")

const DefaultMaxIterations = 10

type Options struct {
	// MaxIterations limits the number of model calls. Zero means DefaultMaxIterations.
	MaxIterations int
	Logger        *zap.Logger
}

type ReActAgent struct {
	model   llms.Model
	tools   map[string]tools.Tool
	defs    []llms.Tool
	maxIter int
	logger  *zap.Logger
}

func New(model llms.Model, toolset []tools.Tool, opts Options) *ReActAgent {
	a := &ReActAgent{
		model:   model,
		tools:   make(map[string]tools.Tool, len(toolset)),
		maxIter: opts.MaxIterations,
		logger:  opts.Logger,
	}
	if a.maxIter <= 0 {
		a.maxIter = DefaultMaxIterations
	}
	if a.logger == nil {
		a.logger = zap.NewNop()
	}
	for _, t := range toolset {
		a.tools[t.Name()] = t
		a.defs = append(a.defs, definition(t))
	}
	return a
}

// Invoke runs the loop on the seed messages and returns the whole transcript,
// seeds included, in turn order.
func (a *ReActAgent) Invoke(ctx context.Context, seed []models.ChatMessage) ([]models.ChatMessage, error) {
	transcript := append([]models.ChatMessage(nil), seed...)

	history := make([]llms.MessageContent, 0, len(seed))
	for _, m := range seed {
		history = append(history, llms.TextParts(chatMessageType(m.Role), m.Content))
	}

	var opts []llms.CallOption
	if len(a.defs) > 0 {
		opts = append(opts, llms.WithTools(a.defs))
	}

	for i := 0; i < a.maxIter; i++ {
		resp, err := a.model.GenerateContent(ctx, history, opts...)
		if err != nil {
			return transcript, fmt.Errorf("generate content: %w", err)
		}
		if len(resp.Choices) == 0 {
			return transcript, errors.New("generate content: empty response")
		}
		choice := resp.Choices[0]

		transcript = append(transcript, models.ChatMessage{Role: models.RoleAssistant, Content: choice.Content})
		if len(choice.ToolCalls) == 0 {
			return transcript, nil
		}

		call := llms.MessageContent{Role: llms.ChatMessageTypeAI}
		if choice.Content != "" {
			call.Parts = append(call.Parts, llms.TextContent{Text: choice.Content})
		}
		for _, tc := range choice.ToolCalls {
			call.Parts = append(call.Parts, tc)
		}
		history = append(history, call)

		for _, tc := range choice.ToolCalls {
			result := a.callTool(ctx, tc)
			history = append(history, llms.MessageContent{
				Role: llms.ChatMessageTypeTool,
				Parts: []llms.ContentPart{llms.ToolCallResponse{
					ToolCallID: tc.ID,
					Name:       toolName(tc),
					Content:    result,
				}},
			})
			transcript = append(transcript, models.ChatMessage{Role: models.RoleTool, Content: result})
		}
	}

	return transcript, ErrMaxIterations
}

// callTool never fails the run; errors are reported back to the model.
func (a *ReActAgent) callTool(ctx context.Context, tc llms.ToolCall) string {
	name := toolName(tc)
	t, ok := a.tools[name]
	if !ok {
		a.logger.Warn("model called unknown tool", zap.String("tool", name))
		return fmt.Sprintf("error: unknown tool %q", name)
	}

	var args string
	if tc.FunctionCall != nil {
		args = tc.FunctionCall.Arguments
	}
	out, err := t.Call(ctx, toolInput(args))
	if err != nil {
		a.logger.Warn("tool call failed", zap.String("tool", name), zap.Error(err))
		return "error: " + err.Error()
	}
	return out
}

func toolName(tc llms.ToolCall) string {
	if tc.FunctionCall == nil {
		return ""
	}
	return tc.FunctionCall.Name
}

// Tools take a single string, so every definition exposes one "input" field.
func definition(t tools.Tool) llms.Tool {
	return llms.Tool{
		Type: "function",
		Function: &llms.FunctionDefinition{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"input": map[string]any{"type": "string", "description": "Input for the tool."},
				},
				"required": []string{"input"},
			},
		},
	}
}

func toolInput(arguments string) string {
	var args struct {
		Input *string `json:"input"`
	}
	if err := json.Unmarshal([]byte(arguments), &args); err != nil || args.Input == nil {
		return arguments
	}
	return *args.Input
}

func chatMessageType(r models.Role) llms.ChatMessageType {
	switch r {
	case models.RoleSystem:
		return llms.ChatMessageTypeSystem
	case models.RoleAssistant:
		return llms.ChatMessageTypeAI
	case models.RoleTool:
		return llms.ChatMessageTypeTool
	default:
		return llms.ChatMessageTypeHuman
	}
}
