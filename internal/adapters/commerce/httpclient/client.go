// Package httpclient calls the downstream commerce API over HTTP.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bnema/helpdesk-agent/internal/domain"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	maxResponseBytes = 1 << 20
	toolsPath        = "tools/"
)

var tracer = otel.Tracer("helpdesk.commerce")

type Client struct {
	BaseURL        string
	APIKey         string
	HTTPClient     *http.Client
	RequestTimeout time.Duration
}

func New(baseURL, apiKey string, httpClient *http.Client) (*Client, error) {
	if _, err := buildToolURL(baseURL, domain.ToolGetOrderDetails); err != nil {
		return nil, err
	}

	return &Client{BaseURL: baseURL, APIKey: apiKey, HTTPClient: httpClient}, nil
}

// Execute posts args to {base}/tools/{operation}. Any response that decodes as
// an envelope is returned, including 4xx business failures; everything else is
// an error.
func (c *Client) Execute(ctx context.Context, operation string, args map[string]any) (domain.ToolResult, error) {
	endpoint, err := buildToolURL(c.BaseURL, operation)
	if err != nil {
		return domain.ToolResult{}, err
	}
	if args == nil {
		args = map[string]any{}
	}
	body, err := json.Marshal(args)
	if err != nil {
		return domain.ToolResult{}, fmt.Errorf("encode %s arguments: %w", operation, err)
	}

	ctx, span := tracer.Start(ctx, "commerce."+operation, trace.WithAttributes(attribute.String("tool", operation)))
	defer span.End()

	requestCtx, cancel := c.requestContext(ctx)
	defer cancel()
	req, err := http.NewRequestWithContext(requestCtx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return domain.ToolResult{}, fmt.Errorf("create %s request: %w", operation, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "request failed")
		return domain.ToolResult{}, fmt.Errorf("call %s: %w", operation, err)
	}
	defer func() { _ = resp.Body.Close() }()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	result, decodeErr := decodeEnvelope(resp.Body)
	if resp.StatusCode >= http.StatusInternalServerError || decodeErr != nil {
		err := fmt.Errorf("call %s: status %d", operation, resp.StatusCode)
		if decodeErr != nil && resp.StatusCode < http.StatusMultipleChoices {
			err = fmt.Errorf("decode %s response: %w", operation, decodeErr)
		}
		span.SetStatus(codes.Error, err.Error())
		return domain.ToolResult{}, err
	}

	span.SetAttributes(attribute.Bool("success", result.Success))
	return result.Normalize(), nil
}

func decodeEnvelope(r io.Reader) (domain.ToolResult, error) {
	var payload struct {
		Success *bool           `json:"success"`
		Data    json.RawMessage `json:"data"`
		Error   string          `json:"error"`
	}
	if err := json.NewDecoder(io.LimitReader(r, maxResponseBytes)).Decode(&payload); err != nil {
		return domain.ToolResult{}, err
	}
	if payload.Success == nil {
		return domain.ToolResult{}, errors.New("response is not a tool envelope")
	}

	result := domain.ToolResult{Success: *payload.Success, Error: payload.Error}
	if len(payload.Data) > 0 && string(payload.Data) != "null" {
		var data any
		if err := json.Unmarshal(payload.Data, &data); err != nil {
			return domain.ToolResult{}, err
		}
		result.Data = data
	}

	return result, nil
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

// requestContext applies RequestTimeout only when the caller set no deadline.
func (c *Client) requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		return ctx, func() {}
	}

	timeout := c.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return context.WithTimeout(ctx, timeout)
}

func buildToolURL(baseURL string, operation string) (string, error) {
	if baseURL == "" {
		return "", errors.New("commerce base url is required")
	}
	if operation == "" || strings.ContainsAny(operation, "/?#") {
		return "", fmt.Errorf("invalid operation name %q", operation)
	}

	parsed, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("parse commerce base url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", errors.New("commerce base url must use http or https")
	}
	if parsed.Host == "" {
		return "", errors.New("commerce base url host is required")
	}
	if !strings.HasSuffix(parsed.Path, "/") {
		parsed.Path += "/"
	}

	endpoint, err := parsed.Parse(toolsPath + operation)
	if err != nil {
		return "", fmt.Errorf("parse tool path: %w", err)
	}
	return endpoint.String(), nil
}
