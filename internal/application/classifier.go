package application

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/bnema/helpdesk-agent/internal/domain"
	"github.com/bnema/helpdesk-agent/internal/ports"
	"go.uber.org/zap"
)

const (
	fallbackConfidence  = 50
	classifierMaxTokens = 32
)

var shortAcknowledgements = map[string]struct{}{
	"yes":         {},
	"yep":         {},
	"yeah":        {},
	"sure":        {},
	"ok":          {},
	"okay":        {},
	"sounds good": {},
	"that works":  {},
	"works":       {},
	"please do":   {},
	"go ahead":    {},
	"do it":       {},
	"thanks":      {},
	"thank you":   {},
	"got it":      {},
	"alright":     {},
}

var ackPunctuation = regexp.MustCompile(`[^a-z0-9\s]`)

// IsShortAcknowledgement reports whether message is a brief confirmation that
// should keep the current specialist without a classifier call.
func IsShortAcknowledgement(message string) bool {
	cleaned := ackPunctuation.ReplaceAllString(strings.ToLower(message), " ")
	cleaned = strings.Join(strings.Fields(cleaned), " ")
	if cleaned == "" {
		return false
	}
	if _, ok := shortAcknowledgements[cleaned]; ok {
		return true
	}
	tokens := strings.Fields(cleaned)
	if len(tokens) > 3 {
		return false
	}
	for _, token := range []string{"yes", "sure", "ok", "okay"} {
		if slices.Contains(tokens, token) {
			return true
		}
	}

	return false
}

type Classification struct {
	Category   domain.Category
	Confidence int
}

// ParseClassification accepts "LABEL|CONF" or {"intent": ..., "confidence": ...}.
// Unknown labels degrade to GENERAL at the fallback confidence.
func ParseClassification(raw string) Classification {
	text := strings.TrimSpace(raw)
	label := ""
	confidence := fallbackConfidence

	parsed := false
	if strings.HasPrefix(text, "{") && strings.HasSuffix(text, "}") {
		var obj struct {
			Intent     string `json:"intent"`
			Confidence any    `json:"confidence"`
		}
		if err := json.Unmarshal([]byte(text), &obj); err == nil {
			label = obj.Intent
			confidence = clampConfidence(obj.Confidence)
			parsed = true
		}
	}

	if !parsed {
		parts := make([]string, 0, 2)
		for _, part := range strings.Split(text, "|") {
			if p := strings.TrimSpace(part); p != "" {
				parts = append(parts, p)
			}
		}
		if len(parts) > 0 {
			label = parts[0]
		}
		if len(parts) > 1 {
			confidence = clampConfidence(parts[1])
		}
	}

	category, ok := domain.ParseCategory(label)
	if !ok {
		return Classification{Category: domain.CategoryGeneral, Confidence: fallbackConfidence}
	}

	return Classification{Category: category, Confidence: confidence}
}

func clampConfidence(raw any) int {
	value := fallbackConfidence
	switch v := raw.(type) {
	case float64:
		value = int(v)
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(v), "%"))); err == nil {
			value = n
		}
	}

	return max(0, min(value, 100))
}

type IntentClassifier struct {
	reasoner  ports.Reasoner
	policy    RetryPolicy
	telemetry ports.Telemetry
	logger    *zap.Logger
}

func NewIntentClassifier(reasoner ports.Reasoner, policy RetryPolicy, telemetry ports.Telemetry, logger *zap.Logger) *IntentClassifier {
	if telemetry == nil {
		telemetry = ports.NopTelemetry{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &IntentClassifier{reasoner: reasoner, policy: policy, telemetry: telemetry, logger: logger}
}

func (c *IntentClassifier) Classify(ctx context.Context, message string) (Classification, error) {
	started := time.Now()
	text, err := withRetry(ctx, c.policy, func(ctx context.Context) (string, error) {
		return c.reasoner.Complete(ctx, ports.CompletionRequest{
			Tier:      ports.ModelFast,
			Prompt:    classifierPrompt(message),
			MaxTokens: classifierMaxTokens,
		})
	})
	if err != nil {
		c.telemetry.ReasonerCalled("classify", "error", time.Since(started))
		return Classification{}, fmt.Errorf("classify intent: %w", err)
	}
	c.telemetry.ReasonerCalled("classify", "ok", time.Since(started))

	result := ParseClassification(text)
	c.logger.Debug("intent classified",
		zap.String("category", string(result.Category)),
		zap.Int("confidence", result.Confidence))

	return result, nil
}

type ShiftDecision struct {
	Classification
	// Checked is false when the message was a short acknowledgement and no
	// classifier call was made.
	Checked bool
	Shifted bool
	Target  domain.Specialist
	Reason  string
}

// DetectShift decides whether a later-turn message moves the conversation to
// a different specialist.
func (c *IntentClassifier) DetectShift(ctx context.Context, message string, current domain.Specialist, threshold int) (ShiftDecision, error) {
	if IsShortAcknowledgement(message) {
		return ShiftDecision{
			Target: current,
			Reason: fmt.Sprintf("short acknowledgement, continuing with %s", current),
		}, nil
	}

	result, err := c.Classify(ctx, message)
	if err != nil {
		return ShiftDecision{}, err
	}

	decision := ShiftDecision{Classification: result, Checked: true, Target: current}
	expected := result.Category.Specialist()

	switch {
	case result.Category == domain.CategoryGeneral && current != domain.SpecialistSupervisor:
		decision.Reason = fmt.Sprintf("ignoring GENERAL drift, continuing with %s (checked %s @ %d%%)", current, result.Category, result.Confidence)
	case expected != current && result.Confidence >= threshold:
		decision.Shifted = true
		decision.Target = expected
		decision.Reason = fmt.Sprintf("intent shift %s -> %s (%s @ %d%%)", current, expected, result.Category, result.Confidence)
	default:
		decision.Reason = fmt.Sprintf("continuing with %s (checked %s @ %d%%)", current, result.Category, result.Confidence)
	}

	return decision, nil
}
