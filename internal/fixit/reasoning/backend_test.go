// SPDX-License-Identifier: Apache-2.0

package reasoning

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/kusari-oss/fixit/internal/core/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAPI serves canned JSON bodies in order and records request bodies
type fakeAPI struct {
	mu       sync.Mutex
	path     string
	bodies   []string
	requests []map[string]interface{}
	repeat   bool
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if r.URL.Path != f.path {
		http.NotFound(w, r)
		return
	}

	data, _ := io.ReadAll(r.Body)
	var req map[string]interface{}
	_ = json.Unmarshal(data, &req)
	f.requests = append(f.requests, req)

	body := f.bodies[0]
	if !f.repeat || len(f.bodies) > 1 {
		f.bodies = f.bodies[1:]
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = io.WriteString(w, body)
}

func (f *fakeAPI) messages(i int) []interface{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[i]["messages"].([]interface{})
}

const openAIToolCall = `{"id":"c1","object":"chat.completion","created":0,"model":"llama3.2",
"choices":[{"index":0,"finish_reason":"tool_calls","message":{"role":"assistant","content":"",
"tool_calls":[{"id":"call_1","type":"function","function":{"name":"echo","arguments":"{\"text\":\"hi\"}"}}]}}]}`

const openAIAnswer = `{"id":"c2","object":"chat.completion","created":0,"model":"llama3.2",
"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"all good"}}]}`

func newOpenAITestModel(t *testing.T, api *fakeAPI) *OpenAIModel {
	server := httptest.NewServer(api)
	t.Cleanup(server.Close)

	model, err := NewOpenAIModel(config.LLMConfig{Model: "llama3.2", BaseURL: server.URL, APIKey: "not-needed"})
	require.NoError(t, err)
	return model
}

func TestOpenAIModelPlainAnswer(t *testing.T) {
	api := &fakeAPI{path: "/chat/completions", bodies: []string{openAIAnswer}}
	model := newOpenAITestModel(t, api)

	out, err := model.Converse(context.Background(), Conversation{
		System: "sys", Prompt: "hello", Temperature: 0.7, MaxTokens: 64, MaxToolRounds: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, "all good", out)
	assert.Equal(t, "llama3.2", model.Name())

	require.Len(t, api.requests, 1)
	req := api.requests[0]
	assert.Equal(t, "llama3.2", req["model"])
	assert.Equal(t, 0.7, req["temperature"])
	assert.Nil(t, req["tools"])
	msgs := api.messages(0)
	require.Len(t, msgs, 2)
	assert.Equal(t, "system", msgs[0].(map[string]interface{})["role"])
	assert.Equal(t, "user", msgs[1].(map[string]interface{})["role"])
}

func TestOpenAIModelToolLoop(t *testing.T) {
	api := &fakeAPI{path: "/chat/completions", bodies: []string{openAIToolCall, openAIAnswer}}
	model := newOpenAITestModel(t, api)
	tool := &echoTool{}

	out, err := model.Converse(context.Background(), Conversation{
		Prompt: "hello", Tools: []Tool{tool}, MaxToolRounds: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, "all good", out)

	require.Len(t, tool.calls, 1)
	assert.Equal(t, "hi", tool.calls[0]["text"])

	require.Len(t, api.requests, 2)
	tools := api.requests[0]["tools"].([]interface{})
	require.Len(t, tools, 1)
	fn := tools[0].(map[string]interface{})["function"].(map[string]interface{})
	assert.Equal(t, "echo", fn["name"])

	msgs := api.messages(1)
	last := msgs[len(msgs)-1].(map[string]interface{})
	assert.Equal(t, "tool", last["role"])
	assert.Equal(t, "call_1", last["tool_call_id"])
	assert.Equal(t, "echo: hi", last["content"])
}

func TestOpenAIModelToolRoundLimit(t *testing.T) {
	api := &fakeAPI{path: "/chat/completions", bodies: []string{openAIToolCall}, repeat: true}
	model := newOpenAITestModel(t, api)
	tool := &echoTool{}

	_, err := model.Converse(context.Background(), Conversation{
		Prompt: "hello", Tools: []Tool{tool}, MaxToolRounds: 2,
	})
	assert.ErrorIs(t, err, ErrToolRounds)
	assert.Len(t, tool.calls, 2)
}

func TestOpenAIModelServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":{"message":"model not found"}}`, http.StatusNotFound)
	}))
	defer server.Close()

	model, err := NewOpenAIModel(config.LLMConfig{Model: "missing", BaseURL: server.URL})
	require.NoError(t, err)

	_, err = model.Converse(context.Background(), Conversation{Prompt: "hello"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat completion failed")
}

func TestNewOpenAIModelRequiresModel(t *testing.T) {
	_, err := NewOpenAIModel(config.LLMConfig{})
	assert.Error(t, err)
}

const anthropicToolUse = `{"id":"msg_1","type":"message","role":"assistant","model":"claude",
"content":[{"type":"text","text":"checking"},{"type":"tool_use","id":"tu_1","name":"echo","input":{"text":"hi"}}],
"stop_reason":"tool_use","usage":{"input_tokens":1,"output_tokens":1}}`

const anthropicAnswer = `{"id":"msg_2","type":"message","role":"assistant","model":"claude",
"content":[{"type":"text","text":"fixed"}],
"stop_reason":"end_turn","usage":{"input_tokens":1,"output_tokens":1}}`

func newAnthropicTestModel(t *testing.T, api *fakeAPI) *AnthropicModel {
	server := httptest.NewServer(api)
	t.Cleanup(server.Close)

	model, err := NewAnthropicModel(config.LLMConfig{Model: "claude", BaseURL: server.URL, APIKey: "test"})
	require.NoError(t, err)
	return model
}

func TestAnthropicModelToolLoop(t *testing.T) {
	api := &fakeAPI{path: "/v1/messages", bodies: []string{anthropicToolUse, anthropicAnswer}}
	model := newAnthropicTestModel(t, api)
	tool := &echoTool{}

	out, err := model.Converse(context.Background(), Conversation{
		System: "sys", Prompt: "hello", Tools: []Tool{tool}, MaxToolRounds: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, "fixed", out)
	require.Len(t, tool.calls, 1)
	assert.Equal(t, "hi", tool.calls[0]["text"])

	require.Len(t, api.requests, 2)
	first := api.requests[0]
	assert.Equal(t, "claude", first["model"])
	assert.EqualValues(t, defaultAnthropicMaxTokens, first["max_tokens"])
	tools := first["tools"].([]interface{})
	require.Len(t, tools, 1)
	assert.Equal(t, "echo", tools[0].(map[string]interface{})["name"])
	assert.Equal(t, "Echo text back", tools[0].(map[string]interface{})["description"])

	msgs := api.messages(1)
	require.Len(t, msgs, 3)
	assert.Equal(t, "assistant", msgs[1].(map[string]interface{})["role"])
	reply := msgs[2].(map[string]interface{})
	assert.Equal(t, "user", reply["role"])
	block := reply["content"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, "tool_result", block["type"])
	assert.Equal(t, "tu_1", block["tool_use_id"])
}

func TestAnthropicModelToolRoundLimit(t *testing.T) {
	api := &fakeAPI{path: "/v1/messages", bodies: []string{anthropicToolUse}, repeat: true}
	model := newAnthropicTestModel(t, api)
	tool := &echoTool{}

	_, err := model.Converse(context.Background(), Conversation{
		Prompt: "hello", Tools: []Tool{tool}, MaxToolRounds: 1,
	})
	assert.ErrorIs(t, err, ErrToolRounds)
	assert.Len(t, tool.calls, 1)
}

func TestProbeOllama(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/":
			_, _ = io.WriteString(w, "Ollama is running")
		case "/api/tags":
			w.Header().Set("Content-Type", "application/json")
			_, _ = io.WriteString(w, `{"models":[{"name":"llama3.2:latest","model":"llama3.2:latest"},{"name":"qwen2.5:7b","model":"qwen2.5:7b"}]}`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	status, err := ProbeOllama(context.Background(), server.URL+"/v1", "llama3.2", nil)
	require.NoError(t, err)
	assert.True(t, status.Reachable)
	assert.True(t, status.ModelAvailable)
	assert.Equal(t, []string{"llama3.2:latest", "qwen2.5:7b"}, status.Models)
	assert.Equal(t, server.URL, status.Host)

	status, err = ProbeOllama(context.Background(), server.URL+"/v1/", "mistral", server.Client())
	require.NoError(t, err)
	assert.False(t, status.ModelAvailable)
}

func TestProbeOllamaUnreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	status, err := ProbeOllama(context.Background(), url+"/v1", "llama3.2", nil)
	require.Error(t, err)
	assert.False(t, status.Reachable)
}

func TestModelMatches(t *testing.T) {
	assert.True(t, modelMatches("llama3.2", "llama3.2"))
	assert.True(t, modelMatches("llama3.2:latest", "llama3.2"))
	assert.False(t, modelMatches("llama3.2:1b", "llama3.2"))
	assert.False(t, modelMatches("llama3.2:latest", "llama3.2:1b"))
}

func TestOllamaHost(t *testing.T) {
	assert.Equal(t, "http://localhost:11434", OllamaHost("http://localhost:11434/v1"))
	assert.Equal(t, "http://localhost:11434", OllamaHost("http://localhost:11434/v1/"))
	assert.Equal(t, "http://localhost:11434", OllamaHost("http://localhost:11434"))
}

func TestFactory(t *testing.T) {
	f := NewDefaultFactory()
	assert.Equal(t, []string{"anthropic", "ollama", "openai"}, f.Backends())

	model, err := f.Create(config.LLMConfig{Backend: "openai", Model: "llama3.2"})
	require.NoError(t, err)
	assert.IsType(t, &OpenAIModel{}, model)

	model, err = f.Create(config.LLMConfig{Backend: "ollama", Model: "llama3.2"})
	require.NoError(t, err)
	assert.IsType(t, &OpenAIModel{}, model)

	model, err = f.Create(config.LLMConfig{Backend: "anthropic", Model: "claude"})
	require.NoError(t, err)
	assert.IsType(t, &AnthropicModel{}, model)

	_, err = f.Create(config.LLMConfig{Backend: "nope", Model: "x"})
	assert.EqualError(t, err, "unknown LLM backend: nope")

	f.Register("scripted", func(config.LLMConfig) (Model, error) {
		return &scriptedModel{replies: []string{"ok"}}, nil
	})
	svc, err := f.NewService(config.LLMConfig{Backend: "scripted", MaxToolRounds: 1})
	require.NoError(t, err)
	out, err := svc.Submit(context.Background(), Batch{Tasks: []Task{{Description: "x", Role: testRole("Executor")}}})
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
}
