package openai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/bnema/helpdesk-agent/internal/domain"
	"github.com/bnema/helpdesk-agent/internal/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedRequest struct {
	Model               string `json:"model"`
	MaxCompletionTokens int    `json:"max_completion_tokens"`
	Messages            []struct {
		Role       string `json:"role"`
		Content    string `json:"content"`
		ToolCallID string `json:"tool_call_id"`
		ToolCalls  []struct {
			ID       string `json:"id"`
			Function struct {
				Name      string `json:"name"`
				Arguments string `json:"arguments"`
			} `json:"function"`
		} `json:"tool_calls"`
	} `json:"messages"`
	Tools []struct {
		Type     string `json:"type"`
		Function struct {
			Name string `json:"name"`
		} `json:"function"`
	} `json:"tools"`
}

type fakeAPI struct {
	mu       sync.Mutex
	requests []recordedRequest
	auth     []string
	reply    func(w http.ResponseWriter, r *http.Request)
}

func (f *fakeAPI) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			http.NotFound(w, r)
			return
		}

		body, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		var req recordedRequest
		assert.NoError(t, json.Unmarshal(body, &req))

		f.mu.Lock()
		f.requests = append(f.requests, req)
		f.auth = append(f.auth, r.Header.Get("Authorization"))
		reply := f.reply
		f.mu.Unlock()

		reply(w, r)
	}
}

func (f *fakeAPI) last() recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

func jsonReply(body string) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, body)
	}
}

func newTestClient(t *testing.T, api *fakeAPI) *Client {
	t.Helper()

	srv := httptest.NewServer(api.handler(t))
	t.Cleanup(srv.Close)

	client, err := New(Config{
		BaseURL:    srv.URL + "/v1/",
		APIKey:     "sk-test",
		FastModel:  "fast-model",
		SmartModel: "smart-model",
	})
	require.NoError(t, err)

	return client
}

func TestNewValidatesConfig(t *testing.T) {
	t.Parallel()

	_, err := New(Config{FastModel: "a", SmartModel: "b"})
	require.Error(t, err)

	_, err = New(Config{APIKey: "sk", FastModel: "a"})
	require.Error(t, err)
}

func TestCompleteUsesTierModel(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{reply: jsonReply(`{"choices":[{"message":{"role":"assistant","content":"  WISMO|92 \n"},"finish_reason":"stop"}]}`)}
	client := newTestClient(t, api)

	text, err := client.Complete(context.Background(), ports.CompletionRequest{
		Tier:      ports.ModelFast,
		System:    "be brief",
		Prompt:    "Classify the customer message",
		MaxTokens: 16,
	})
	require.NoError(t, err)
	assert.Equal(t, "WISMO|92", text)

	req := api.last()
	assert.Equal(t, "fast-model", req.Model)
	assert.Equal(t, 16, req.MaxCompletionTokens)
	require.Len(t, req.Messages, 2)
	assert.Equal(t, "system", req.Messages[0].Role)
	assert.Equal(t, "user", req.Messages[1].Role)
	assert.Equal(t, "Bearer sk-test", api.auth[0])

	_, err = client.Complete(context.Background(), ports.CompletionRequest{Tier: ports.ModelSmart, Prompt: "revise"})
	require.NoError(t, err)
	assert.Equal(t, "smart-model", api.last().Model)
	assert.Equal(t, defaultMaxTokens, api.last().MaxCompletionTokens)
}

func TestReasonParsesToolCalls(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{reply: jsonReply(`{"choices":[{"message":{"role":"assistant","content":"","tool_calls":[
		{"id":"call_1","type":"function","function":{"name":"shopify_get_order_details","arguments":"{\"orderId\":\"#43189\"}"}},
		{"id":"call_2","type":"function","function":{"name":"shopify_add_tags","arguments":"not json"}}
	]},"finish_reason":"tool_calls"}]}`)}
	client := newTestClient(t, api)

	result, err := client.Reason(context.Background(), ports.ReasonRequest{
		System: "You are Caz",
		Messages: []ports.ChatMessage{
			{Role: ports.ChatUser, Content: "Where is my order?"},
			{Role: ports.ChatAssistant, ToolCalls: []domain.ToolCall{{ID: "call_0", Name: domain.ToolGetCustomerOrders, Args: map[string]any{"email": "sarah@example.com"}}}},
			{Role: ports.ChatTool, ToolCallID: "call_0", Content: `{"success":true}`},
		},
		Tools: []ports.ToolSpec{
			{Name: domain.ToolGetOrderDetails, Description: "look up", Parameters: map[string]any{"type": "object"}},
			{Name: domain.ToolAddTags},
		},
	})
	require.NoError(t, err)

	require.Len(t, result.ToolCalls, 2)
	assert.Equal(t, domain.ToolCall{ID: "call_1", Name: domain.ToolGetOrderDetails, Args: map[string]any{"orderId": "#43189"}}, result.ToolCalls[0])
	assert.Empty(t, result.ToolCalls[1].Args)

	req := api.last()
	assert.Equal(t, "smart-model", req.Model)
	require.Len(t, req.Messages, 4)
	assert.Equal(t, "assistant", req.Messages[2].Role)
	require.Len(t, req.Messages[2].ToolCalls, 1)
	assert.JSONEq(t, `{"email":"sarah@example.com"}`, req.Messages[2].ToolCalls[0].Function.Arguments)
	assert.Equal(t, "tool", req.Messages[3].Role)
	assert.Equal(t, "call_0", req.Messages[3].ToolCallID)
	require.Len(t, req.Tools, 2)
	assert.Equal(t, "function", req.Tools[0].Type)
	assert.Equal(t, domain.ToolGetOrderDetails, req.Tools[0].Function.Name)
}

func TestReasonReturnsText(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{reply: jsonReply(`{"choices":[{"message":{"role":"assistant","content":"Hey Sarah! 💛\n\nCaz"}}]}`)}
	client := newTestClient(t, api)

	result, err := client.Reason(context.Background(), ports.ReasonRequest{Messages: []ports.ChatMessage{{Role: ports.ChatUser, Content: "hi"}}})
	require.NoError(t, err)
	assert.Equal(t, "Hey Sarah! 💛\n\nCaz", result.Text)
	assert.Empty(t, result.ToolCalls)
	assert.Empty(t, api.last().Tools)
}

func TestErrorsSurface(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{reply: func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, `{"error":{"message":"boom","type":"server_error"}}`)
	}}
	client := newTestClient(t, api)

	_, err := client.Complete(context.Background(), ports.CompletionRequest{Prompt: "x"})
	require.Error(t, err)
	assert.ErrorContains(t, err, "chat completion")

	api.mu.Lock()
	api.reply = jsonReply(`{"choices":[]}`)
	api.mu.Unlock()

	_, err = client.Complete(context.Background(), ports.CompletionRequest{Prompt: "x"})
	require.ErrorIs(t, err, errNoChoices)
}

func TestDeadlineIsReportedAsTimeout(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{reply: func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}}
	client := newTestClient(t, api)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.Complete(ctx, ports.CompletionRequest{Prompt: "x"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestRateLimiterHonoursContext(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{reply: jsonReply(`{"choices":[{"message":{"role":"assistant","content":"ok"}}]}`)}
	srv := httptest.NewServer(api.handler(t))
	t.Cleanup(srv.Close)

	client, err := New(Config{
		BaseURL:           srv.URL + "/v1",
		APIKey:            "sk-test",
		FastModel:         "fast-model",
		SmartModel:        "smart-model",
		RequestsPerSecond: 0.001,
		Burst:             1,
	})
	require.NoError(t, err)

	_, err = client.Complete(context.Background(), ports.CompletionRequest{Prompt: "first"})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = client.Complete(ctx, ports.CompletionRequest{Prompt: "second"})
	require.Error(t, err)
	assert.ErrorContains(t, err, "rate limit")
}
