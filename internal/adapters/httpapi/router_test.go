package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bnema/helpdesk-agent/internal/application"
	"github.com/bnema/helpdesk-agent/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type mockService struct {
	mock.Mock
}

func (m *mockService) StartSession(ctx context.Context, cmd application.StartSessionCommand) (string, error) {
	args := m.Called(ctx, cmd)
	return args.String(0), args.Error(1)
}

func (m *mockService) SendMessage(ctx context.Context, cmd application.SendMessageCommand) (application.TurnResult, error) {
	args := m.Called(ctx, cmd)
	return args.Get(0).(application.TurnResult), args.Error(1)
}

func (m *mockService) GetTrace(ctx context.Context, id string) (application.SessionTrace, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(application.SessionTrace), args.Error(1)
}

func (m *mockService) ListSessions(ctx context.Context) ([]application.SessionSummary, error) {
	args := m.Called(ctx)
	summaries, _ := args.Get(0).([]application.SessionSummary)
	return summaries, args.Error(1)
}

func do(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()

	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestHealth(t *testing.T) {
	t.Parallel()
	router := NewRouter(new(mockService), Options{})

	w := do(t, router, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestMetricsRouteIsOptional(t *testing.T) {
	t.Parallel()

	router := NewRouter(new(mockService), Options{})
	assert.Equal(t, http.StatusNotFound, do(t, router, http.MethodGet, "/metrics", "").Code)

	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = fmt.Fprint(w, "hda_turns_total 1")
	})
	router = NewRouter(new(mockService), Options{Metrics: metrics})
	w := do(t, router, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "hda_turns_total 1", w.Body.String())
}

func TestStartSession(t *testing.T) {
	t.Parallel()
	svc := new(mockService)
	svc.On("StartSession", mock.Anything, application.StartSessionCommand{
		Email:      "sarah@example.com",
		FirstName:  "Sarah",
		LastName:   "Jones",
		CustomerID: "gid://shopify/Customer/7424155189325",
	}).Return("session_0123456789ab", nil)
	router := NewRouter(svc, Options{})

	w := do(t, router, http.MethodPost, "/v1/sessions",
		`{"email":"sarah@example.com","first_name":"Sarah","last_name":"Jones","customer_id":"gid://shopify/Customer/7424155189325"}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "session_0123456789ab", decodeBody[startSessionResponse](t, w).SessionID)
	svc.AssertExpectations(t)
}

func TestStartSessionValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
		err  error
		want int
	}{
		{name: "missing first name", body: `{"email":"sarah@example.com"}`, want: http.StatusBadRequest},
		{name: "malformed json", body: `{"email":`, want: http.StatusBadRequest},
		{name: "rejected identity", body: `{"email":"nope","first_name":"Sarah"}`, err: domain.ErrInvalidCustomer, want: http.StatusBadRequest},
		{name: "store failure", body: `{"email":"sarah@example.com","first_name":"Sarah"}`, err: errors.New("disk full"), want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			svc := new(mockService)
			if tt.err != nil {
				svc.On("StartSession", mock.Anything, mock.Anything).Return("", fmt.Errorf("start: %w", tt.err))
			}
			router := NewRouter(svc, Options{})

			w := do(t, router, http.MethodPost, "/v1/sessions", tt.body)
			assert.Equal(t, tt.want, w.Code)
			body := decodeBody[errorResponse](t, w)
			assert.NotEmpty(t, body.Error)
			assert.NotContains(t, body.Error, "disk full")
		})
	}
}

func TestSendMessage(t *testing.T) {
	t.Parallel()
	svc := new(mockService)
	svc.On("SendMessage", mock.Anything, application.SendMessageCommand{
		SessionID: "session_abc",
		Message:   "where is my order #43200?",
	}).Return(application.TurnResult{
		SessionID:        "session_abc",
		Response:         "Your order #43200 is being prepared.",
		ActionsTaken:     []string{"Looked up order #43200"},
		Agent:            domain.SpecialistWISMO,
		Intent:           domain.CategoryWISMO,
		IntentConfidence: 95,
	}, nil)
	router := NewRouter(svc, Options{})

	w := do(t, router, http.MethodPost, "/v1/sessions/session_abc/messages", `{"message":"where is my order #43200?"}`)

	require.Equal(t, http.StatusOK, w.Code)
	var raw map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &raw))
	assert.Equal(t, "Your order #43200 is being prepared.", raw["response"])
	assert.Equal(t, false, raw["is_escalated"])
	assert.Equal(t, "wismo_agent", raw["agent"])
	assert.Equal(t, "WISMO", raw["intent"])
	assert.InDelta(t, 95, raw["intent_confidence"], 0)
	assert.Equal(t, false, raw["was_revised"])
	assert.Equal(t, false, raw["intent_shifted"])
	assert.Equal(t, []any{"Looked up order #43200"}, raw["actions_taken"])
	svc.AssertExpectations(t)
}

func TestSendMessageErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "unknown session", err: domain.ErrSessionNotFound, want: http.StatusNotFound},
		{name: "invalid request", err: domain.ErrInvalidRequest, want: http.StatusBadRequest},
		{name: "concurrent turn", err: domain.ErrConcurrentTurn, want: http.StatusConflict},
		{name: "unexpected", err: errors.New("badger: closed"), want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			svc := new(mockService)
			svc.On("SendMessage", mock.Anything, mock.Anything).
				Return(application.TurnResult{}, fmt.Errorf("get session: %w", tt.err))
			router := NewRouter(svc, Options{})

			w := do(t, router, http.MethodPost, "/v1/sessions/session_missing/messages", `{"message":"hi"}`)
			assert.Equal(t, tt.want, w.Code)
			assert.NotContains(t, w.Body.String(), "badger")
		})
	}
}

func TestGetTrace(t *testing.T) {
	t.Parallel()
	passed := true
	updated := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	svc := new(mockService)
	svc.On("GetTrace", mock.Anything, "session_abc").Return(application.SessionTrace{
		SessionID: "session_abc",
		Customer:  domain.Customer{Email: "sarah@example.com", FirstName: "Sarah"},
		Intent:    domain.CategoryRefund,
		Agent:     domain.SpecialistIssue,
		Events: []domain.TraceEvent{
			{At: updated, State: "REFLECTING", Kind: domain.TraceReflection, Detail: "passed", Passed: &passed},
		},
		Escalated: true,
		Escalation: &domain.EscalationPayload{
			CustomerEmail: "sarah@example.com",
			Category:      domain.EscalationCategory("refund_request"),
			Priority:      "normal",
		},
		TurnCount: 2,
		UpdatedAt: updated,
	}, nil)
	router := NewRouter(svc, Options{})

	w := do(t, router, http.MethodGet, "/v1/sessions/session_abc/trace", "")

	require.Equal(t, http.StatusOK, w.Code)
	trace := decodeBody[traceResponse](t, w)
	assert.Equal(t, "REFUND", trace.Intent)
	assert.True(t, trace.IsEscalated)
	require.Len(t, trace.Events, 1)
	assert.Equal(t, domain.TraceReflection, trace.Events[0].Kind)
	require.NotNil(t, trace.Escalation)
	assert.Equal(t, "sarah@example.com", trace.Escalation.CustomerEmail)
	assert.NotNil(t, trace.Handoffs)
	assert.True(t, updated.Equal(trace.UpdatedAt))
}

func TestGetTraceUnknownSession(t *testing.T) {
	t.Parallel()
	svc := new(mockService)
	svc.On("GetTrace", mock.Anything, "session_nope").
		Return(application.SessionTrace{}, fmt.Errorf("get session: %w", domain.ErrSessionNotFound))
	router := NewRouter(svc, Options{})

	w := do(t, router, http.MethodGet, "/v1/sessions/session_nope/trace", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "session not found", decodeBody[errorResponse](t, w).Error)
}

func TestListSessions(t *testing.T) {
	t.Parallel()
	svc := new(mockService)
	svc.On("ListSessions", mock.Anything).Return([]application.SessionSummary{
		{SessionID: "session_b", CustomerEmail: "mike@example.com", Agent: domain.SpecialistAccount, Turns: 3},
		{SessionID: "session_a", CustomerEmail: "sarah@example.com", Escalated: true, Turns: 1},
	}, nil)
	router := NewRouter(svc, Options{})

	w := do(t, router, http.MethodGet, "/v1/sessions", "")

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody[struct {
		Sessions []sessionSummaryResponse `json:"sessions"`
	}](t, w)
	require.Len(t, body.Sessions, 2)
	assert.Equal(t, "session_b", body.Sessions[0].SessionID)
	assert.Equal(t, "account_agent", body.Sessions[0].Agent)
	assert.True(t, body.Sessions[1].IsEscalated)
}

func TestListSessionsEmpty(t *testing.T) {
	t.Parallel()
	svc := new(mockService)
	svc.On("ListSessions", mock.Anything).Return(nil, nil)
	router := NewRouter(svc, Options{})

	w := do(t, router, http.MethodGet, "/v1/sessions", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"sessions":[]}`, w.Body.String())
}
