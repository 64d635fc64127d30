package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/bnema/helpdesk-agent/internal/domain"
	"github.com/bnema/helpdesk-agent/internal/ports"
	"github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const defaultMaxTokens = 1024

var tracer = otel.Tracer("helpdesk.reasoning")

var errNoChoices = errors.New("reasoning service returned no choices")

type Config struct {
	BaseURL    string
	APIKey     string
	FastModel  string
	SmartModel string
	// RequestsPerSecond caps outbound calls. Zero disables the limiter.
	RequestsPerSecond float64
	Burst             int
	HTTPClient        *http.Client
	Logger            *zap.Logger
}

// Client implements ports.Reasoner over any OpenAI-compatible
// chat-completions endpoint.
type Client struct {
	client  *openai.Client
	models  map[ports.ModelTier]string
	limiter *rate.Limiter
	logger  *zap.Logger
}

var _ ports.Reasoner = (*Client)(nil)

func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("reasoning api key is empty")
	}
	if cfg.FastModel == "" || cfg.SmartModel == "" {
		return nil, errors.New("reasoning fast and smart models are required")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	if cfg.HTTPClient != nil {
		clientConfig.HTTPClient = cfg.HTTPClient
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		client: openai.NewClientWithConfig(clientConfig),
		models: map[ports.ModelTier]string{
			ports.ModelFast:  cfg.FastModel,
			ports.ModelSmart: cfg.SmartModel,
		},
		limiter: limiter,
		logger:  logger,
	}, nil
}

func (c *Client) model(tier ports.ModelTier) string {
	if model, ok := c.models[tier]; ok {
		return model
	}

	return c.models[ports.ModelSmart]
}

func (c *Client) Complete(ctx context.Context, req ports.CompletionRequest) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: req.System})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: req.Prompt})

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	msg, err := c.create(ctx, "complete", openai.ChatCompletionRequest{
		Model:               c.model(req.Tier),
		Messages:            messages,
		MaxCompletionTokens: maxTokens,
	})
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(msg.Content), nil
}

func (c *Client) Reason(ctx context.Context, req ports.ReasonRequest) (ports.ReasonResult, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages)+1)
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: req.System})
	}
	for _, m := range req.Messages {
		messages = append(messages, toChatMessage(m))
	}

	msg, err := c.create(ctx, "reason", openai.ChatCompletionRequest{
		Model:               c.model(ports.ModelSmart),
		Messages:            messages,
		Tools:               toTools(req.Tools),
		MaxCompletionTokens: defaultMaxTokens,
	})
	if err != nil {
		return ports.ReasonResult{}, err
	}

	if len(msg.ToolCalls) == 0 {
		return ports.ReasonResult{Text: strings.TrimSpace(msg.Content)}, nil
	}

	calls := make([]domain.ToolCall, 0, len(msg.ToolCalls))
	for _, tc := range msg.ToolCalls {
		args := map[string]any{}
		if raw := strings.TrimSpace(tc.Function.Arguments); raw != "" {
			if err := json.Unmarshal([]byte(raw), &args); err != nil {
				c.logger.Warn("tool call arguments are not a JSON object",
					zap.String("tool", tc.Function.Name), zap.Error(err))
				args = map[string]any{}
			}
		}
		calls = append(calls, domain.ToolCall{ID: tc.ID, Name: tc.Function.Name, Args: args})
	}

	return ports.ReasonResult{Text: strings.TrimSpace(msg.Content), ToolCalls: calls}, nil
}

func (c *Client) create(ctx context.Context, op string, req openai.ChatCompletionRequest) (openai.ChatCompletionMessage, error) {
	ctx, span := tracer.Start(ctx, "reasoner."+op, trace.WithAttributes(
		attribute.String("model", req.Model),
		attribute.Int("messages", len(req.Messages)),
		attribute.Int("tools", len(req.Tools)),
	))
	defer span.End()

	if err := c.limiter.Wait(ctx); err != nil {
		span.RecordError(err)
		return openai.ChatCompletionMessage{}, fmt.Errorf("wait for reasoning rate limit: %w", err)
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "chat completion failed")
		c.logger.Debug("chat completion failed", zap.String("model", req.Model), zap.Error(err))
		return openai.ChatCompletionMessage{}, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		span.SetStatus(codes.Error, errNoChoices.Error())
		return openai.ChatCompletionMessage{}, errNoChoices
	}

	choice := resp.Choices[0]
	span.SetAttributes(
		attribute.String("finish_reason", string(choice.FinishReason)),
		attribute.Int("usage.total_tokens", resp.Usage.TotalTokens),
	)

	return choice.Message, nil
}

func toChatMessage(m ports.ChatMessage) openai.ChatCompletionMessage {
	switch m.Role {
	case ports.ChatAssistant:
		msg := openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: m.Content}
		for _, call := range m.ToolCalls {
			raw, err := json.Marshal(call.Args)
			if err != nil {
				raw = []byte("{}")
			}
			msg.ToolCalls = append(msg.ToolCalls, openai.ToolCall{
				ID:       call.ID,
				Type:     openai.ToolTypeFunction,
				Function: openai.FunctionCall{Name: call.Name, Arguments: string(raw)},
			})
		}
		return msg
	case ports.ChatTool:
		return openai.ChatCompletionMessage{Role: openai.ChatMessageRoleTool, Content: m.Content, ToolCallID: m.ToolCallID}
	default:
		return openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: m.Content}
	}
}

func toTools(specs []ports.ToolSpec) []openai.Tool {
	if len(specs) == 0 {
		return nil
	}

	tools := make([]openai.Tool, 0, len(specs))
	for _, spec := range specs {
		params := spec.Parameters
		if params == nil {
			params = map[string]any{"type": "object", "properties": map[string]any{}}
		}
		tools = append(tools, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        spec.Name,
				Description: spec.Description,
				Parameters:  params,
			},
		})
	}

	return tools
}
