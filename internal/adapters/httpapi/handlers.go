package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/bnema/helpdesk-agent/internal/application"
	"github.com/bnema/helpdesk-agent/internal/domain"
	"github.com/bnema/helpdesk-agent/internal/version"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type handlers struct {
	service SessionService
	logger  *zap.Logger
}

type startSessionRequest struct {
	Email      string `json:"email" binding:"required"`
	FirstName  string `json:"first_name" binding:"required"`
	LastName   string `json:"last_name"`
	CustomerID string `json:"customer_id"`
}

type startSessionResponse struct {
	SessionID string `json:"session_id"`
}

type sendMessageRequest struct {
	Message string `json:"message"`
}

type turnResponse struct {
	SessionID        string   `json:"session_id"`
	Response         string   `json:"response"`
	IsEscalated      bool     `json:"is_escalated"`
	ActionsTaken     []string `json:"actions_taken"`
	Agent            string   `json:"agent"`
	Intent           string   `json:"intent"`
	IntentConfidence int      `json:"intent_confidence"`
	WasRevised       bool     `json:"was_revised"`
	IntentShifted    bool     `json:"intent_shifted"`
}

type traceResponse struct {
	SessionID            string                    `json:"session_id"`
	Customer             domain.Customer           `json:"customer"`
	Intent               string                    `json:"intent"`
	IntentConfidence     int                       `json:"intent_confidence"`
	Agent                string                    `json:"agent"`
	Events               []domain.TraceEvent       `json:"events"`
	FinalResponse        string                    `json:"final_response"`
	ActionsTaken         []string                  `json:"actions_taken"`
	IsEscalated          bool                      `json:"is_escalated"`
	WasRevised           bool                      `json:"was_revised"`
	IntentShifted        bool                      `json:"intent_shifted"`
	Handoffs             []string                  `json:"handoffs"`
	ReflectionViolations []string                  `json:"reflection_violations"`
	GuardrailBlocks      []string                  `json:"guardrail_blocks"`
	Messages             []domain.Message          `json:"messages"`
	Escalation           *domain.EscalationPayload `json:"escalation,omitempty"`
	TurnCount            int                       `json:"turn_count"`
	UpdatedAt            time.Time                 `json:"updated_at"`
}

type sessionSummaryResponse struct {
	SessionID     string    `json:"session_id"`
	CustomerEmail string    `json:"customer_email"`
	Agent         string    `json:"agent"`
	Intent        string    `json:"intent"`
	IsEscalated   bool      `json:"is_escalated"`
	Turns         int       `json:"turns"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *handlers) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "service": serviceName, "version": version.Version})
}

func (h *handlers) startSession(c *gin.Context) {
	var req startSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "email and first_name are required"})
		return
	}

	id, err := h.service.StartSession(c.Request.Context(), application.StartSessionCommand{
		Email:      req.Email,
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		CustomerID: req.CustomerID,
	})
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, startSessionResponse{SessionID: id})
}

func (h *handlers) sendMessage(c *gin.Context) {
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "request body must be JSON with a message field"})
		return
	}

	result, err := h.service.SendMessage(c.Request.Context(), application.SendMessageCommand{
		SessionID: c.Param("id"),
		Message:   req.Message,
	})
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, turnResponse{
		SessionID:        result.SessionID,
		Response:         result.Response,
		IsEscalated:      result.Escalated,
		ActionsTaken:     nonNil(result.ActionsTaken),
		Agent:            string(result.Agent),
		Intent:           string(result.Intent),
		IntentConfidence: result.IntentConfidence,
		WasRevised:       result.Revised,
		IntentShifted:    result.IntentShifted,
	})
}

func (h *handlers) getTrace(c *gin.Context) {
	trace, err := h.service.GetTrace(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, traceResponse{
		SessionID:            trace.SessionID,
		Customer:             trace.Customer,
		Intent:               string(trace.Intent),
		IntentConfidence:     trace.IntentConfidence,
		Agent:                string(trace.Agent),
		Events:               nonNil(trace.Events),
		FinalResponse:        trace.FinalResponse,
		ActionsTaken:         nonNil(trace.ActionsTaken),
		IsEscalated:          trace.Escalated,
		WasRevised:           trace.Revised,
		IntentShifted:        trace.IntentShifted,
		Handoffs:             nonNil(trace.Handoffs),
		ReflectionViolations: nonNil(trace.ReflectionViolations),
		GuardrailBlocks:      nonNil(trace.GuardrailBlocks),
		Messages:             nonNil(trace.Messages),
		Escalation:           trace.Escalation,
		TurnCount:            trace.TurnCount,
		UpdatedAt:            trace.UpdatedAt,
	})
}

func (h *handlers) listSessions(c *gin.Context) {
	summaries, err := h.service.ListSessions(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}

	out := make([]sessionSummaryResponse, 0, len(summaries))
	for _, s := range summaries {
		out = append(out, sessionSummaryResponse{
			SessionID:     s.SessionID,
			CustomerEmail: s.CustomerEmail,
			Agent:         string(s.Agent),
			Intent:        string(s.Intent),
			IsEscalated:   s.Escalated,
			Turns:         s.Turns,
			UpdatedAt:     s.UpdatedAt,
		})
	}

	c.JSON(http.StatusOK, gin.H{"sessions": out})
}

// fail maps application errors to status codes. Internal error text is
// logged, never returned.
func (h *handlers) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, errorResponse{Error: "session not found"})
	case errors.Is(err, domain.ErrInvalidCustomer), errors.Is(err, domain.ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrSessionExists):
		c.JSON(http.StatusConflict, errorResponse{Error: "session already exists"})
	case errors.Is(err, domain.ErrConcurrentTurn):
		c.JSON(http.StatusConflict, errorResponse{Error: "session was modified concurrently, retry the request"})
	default:
		h.logger.Error("session api request failed",
			zap.String("route", c.FullPath()),
			zap.String("session_id", c.Param("id")),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
