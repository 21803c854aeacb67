package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/RichardoC/pad-agent/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/tools"
)

// scriptedModel returns a sequence of preconfigured choices and records what
// it was asked.
type scriptedModel struct {
	choices []*llms.ContentChoice
	calls   [][]llms.MessageContent
	tools   [][]llms.Tool
	err     error
}

func (m *scriptedModel) GenerateContent(_ context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	var opts llms.CallOptions
	for _, o := range options {
		o(&opts)
	}
	m.calls = append(m.calls, append([]llms.MessageContent(nil), messages...))
	m.tools = append(m.tools, opts.Tools)

	if m.err != nil {
		return nil, m.err
	}
	if len(m.choices) == 0 {
		return nil, errors.New("no more replies")
	}
	c := m.choices[0]
	m.choices = m.choices[1:]
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{c}}, nil
}

func (m *scriptedModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, m, prompt, options...)
}

type echoTool struct {
	inputs []string
	err    error
}

func (t *echoTool) Name() string        { return "echo" }
func (t *echoTool) Description() string { return "Echoes input" }
func (t *echoTool) Call(_ context.Context, input string) (string, error) {
	t.inputs = append(t.inputs, input)
	if t.err != nil {
		return "", t.err
	}
	return "echo: " + input, nil
}

func toolCall(id, name, args string) llms.ToolCall {
	return llms.ToolCall{ID: id, Type: "function", FunctionCall: &llms.FunctionCall{Name: name, Arguments: args}}
}

var seed = []models.ChatMessage{
	{Role: models.RoleSystem, Content: "be brief"},
	{Role: models.RoleUser, Content: "hi"},
}

func TestInvokeNoToolCalls(t *testing.T) {
	m := &scriptedModel{choices: []*llms.ContentChoice{{Content: "Done."}}}

	out, err := New(m, nil, Options{}).Invoke(context.Background(), seed)
	require.NoError(t, err)

	assert.Equal(t, []models.ChatMessage{
		seed[0], seed[1],
		{Role: models.RoleAssistant, Content: "Done."},
	}, out)

	require.Len(t, m.calls, 1)
	assert.Equal(t, llms.ChatMessageTypeSystem, m.calls[0][0].Role)
	assert.Equal(t, llms.ChatMessageTypeHuman, m.calls[0][1].Role)
	assert.Empty(t, m.tools[0])
}

func TestInvokeRunsTools(t *testing.T) {
	tool := &echoTool{}
	m := &scriptedModel{choices: []*llms.ContentChoice{
		{ToolCalls: []llms.ToolCall{toolCall("c1", "echo", `{"input":"ping"}`)}},
		{Content: "pong"},
	}}

	out, err := New(m, []tools.Tool{tool}, Options{}).Invoke(context.Background(), seed)
	require.NoError(t, err)

	assert.Equal(t, []string{"ping"}, tool.inputs)
	require.Len(t, out, 5)
	assert.Equal(t, models.ChatMessage{Role: models.RoleTool, Content: "echo: ping"}, out[3])
	assert.Equal(t, models.ChatMessage{Role: models.RoleAssistant, Content: "pong"}, out[4])

	require.Len(t, m.tools[0], 1)
	assert.Equal(t, "echo", m.tools[0][0].Function.Name)

	// Second call carries the tool call and its response.
	require.Len(t, m.calls, 2)
	second := m.calls[1]
	require.Len(t, second, 4)
	assert.Equal(t, llms.ChatMessageTypeAI, second[2].Role)
	assert.Equal(t, llms.ChatMessageTypeTool, second[3].Role)
	resp, ok := second[3].Parts[0].(llms.ToolCallResponse)
	require.True(t, ok)
	assert.Equal(t, "c1", resp.ToolCallID)
	assert.Equal(t, "echo: ping", resp.Content)
}

func TestInvokeToolErrorsAreFedBack(t *testing.T) {
	tool := &echoTool{err: errors.New("boom")}
	m := &scriptedModel{choices: []*llms.ContentChoice{
		{ToolCalls: []llms.ToolCall{
			toolCall("c1", "echo", "raw text"),
			toolCall("c2", "missing", `{}`),
		}},
		{Content: "sorry"},
	}}

	out, err := New(m, []tools.Tool{tool}, Options{}).Invoke(context.Background(), seed)
	require.NoError(t, err)

	assert.Equal(t, []string{"raw text"}, tool.inputs)
	assert.Equal(t, "error: boom", out[3].Content)
	assert.Equal(t, `error: unknown tool "missing"`, out[4].Content)
	assert.Equal(t, "sorry", out[5].Content)
}

func TestInvokeMaxIterations(t *testing.T) {
	loop := &llms.ContentChoice{ToolCalls: []llms.ToolCall{toolCall("c", "echo", `{"input":"x"}`)}}
	m := &scriptedModel{choices: []*llms.ContentChoice{loop, loop, loop}}

	_, err := New(m, []tools.Tool{&echoTool{}}, Options{MaxIterations: 2}).Invoke(context.Background(), seed)
	assert.ErrorIs(t, err, ErrMaxIterations)
	assert.Len(t, m.calls, 2)
}

func TestInvokeModelError(t *testing.T) {
	m := &scriptedModel{err: errors.New("rate limited")}

	out, err := New(m, nil, Options{}).Invoke(context.Background(), seed)
	assert.ErrorContains(t, err, "rate limited")
	assert.Equal(t, seed, out)
}

func TestToolInput(t *testing.T) {
	assert.Equal(t, "golang", toolInput(`{"input":"golang"}`))
	assert.Equal(t, `{"query":"golang"}`, toolInput(`{"query":"golang"}`))
	assert.Equal(t, "plain", toolInput("plain"))
}

func TestInvokeKeepsTextSentWithToolCalls(t *testing.T) {
	m := &scriptedModel{choices: []*llms.ContentChoice{
		{Content: "Let me check.", ToolCalls: []llms.ToolCall{toolCall("c1", "echo", `{"input":"ping"}`)}},
		{Content: "pong"},
	}}

	out, err := New(m, []tools.Tool{&echoTool{}}, Options{}).Invoke(context.Background(), seed)
	require.NoError(t, err)
	assert.Equal(t, models.ChatMessage{Role: models.RoleAssistant, Content: "Let me check."}, out[2])

	require.Len(t, m.calls, 2)
	call := m.calls[1][2]
	assert.Equal(t, llms.ChatMessageTypeAI, call.Role)
	require.Len(t, call.Parts, 2)
	assert.Equal(t, llms.TextContent{Text: "Let me check."}, call.Parts[0])
	tc, ok := call.Parts[1].(llms.ToolCall)
	require.True(t, ok)
	assert.Equal(t, "c1", tc.ID)
}

func TestInvokeToolOnlyTurnHasNoTextPart(t *testing.T) {
	m := &scriptedModel{choices: []*llms.ContentChoice{
		{ToolCalls: []llms.ToolCall{toolCall("c1", "echo", `{"input":"ping"}`)}},
		{Content: "pong"},
	}}

	_, err := New(m, []tools.Tool{&echoTool{}}, Options{}).Invoke(context.Background(), seed)
	require.NoError(t, err)

	require.Len(t, m.calls[1][2].Parts, 1)
	_, ok := m.calls[1][2].Parts[0].(llms.ToolCall)
	assert.True(t, ok)
}
