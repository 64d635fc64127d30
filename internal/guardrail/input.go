package guardrail

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/bnema/helpdesk-agent/internal/domain"
)

const (
	RuleEmptyInput      = "EMPTY_OR_GIBBERISH"
	RulePromptInjection = "PROMPT_INJECTION"
)

// Persona carries the names used in fixed replies and the signature check.
type Persona struct {
	AgentName   string
	LeadName    string
	LeadTitle   string
	LeadPronoun string
}

func DefaultPersona() Persona {
	return Persona{
		AgentName:   "Caz",
		LeadName:    "Monica",
		LeadTitle:   "Head of CS",
		LeadPronoun: "She",
	}
}

func (p Persona) Sign(body string) string {
	return body + "\n\n" + p.AgentName
}

type InputOptions struct {
	FirstName string
	MaxChars  int
	Persona   Persona
}

type InputResult struct {
	domain.GuardrailVerdict
	Text        string
	PIIRedacted bool
	Truncated   bool
	Aggressive  bool
	HealthRisk  bool
}

// Notes lists the non-blocking observations, for the trace.
func (r InputResult) Notes() []string {
	notes := make([]string, 0, 4)
	if r.PIIRedacted {
		notes = append(notes, "PII redacted")
	}
	if r.Truncated {
		notes = append(notes, "truncated")
	}
	if r.Aggressive {
		notes = append(notes, "aggressive language")
	}
	if r.HealthRisk {
		notes = append(notes, "health concern")
	}

	return notes
}

func CheckInput(raw string, opts InputOptions) InputResult {
	persona := opts.Persona
	if persona.AgentName == "" {
		persona = DefaultPersona()
	}
	name := strings.TrimSpace(opts.FirstName)
	if name == "" {
		name = "there"
	}
	maxChars := opts.MaxChars
	if maxChars <= 0 {
		maxChars = DefaultMaxInputChars
	}

	norm := normalize(raw)

	if len([]rune(norm)) < 3 || !hasLetter(norm) {
		return InputResult{
			GuardrailVerdict: domain.GuardrailVerdict{
				Passed:     false,
				Violations: []string{RuleEmptyInput},
				Override: persona.Sign(fmt.Sprintf(
					"Hey %s! 😊 It looks like your message didn't come through properly. Could you tell me what you need help with?", name)),
			},
		}
	}

	if containsAny(norm, injectionPhrases) || containsAny(norm, internalKeywords) {
		return InputResult{
			GuardrailVerdict: domain.GuardrailVerdict{
				Passed:     false,
				Violations: []string{RulePromptInjection},
				Override: persona.Sign(fmt.Sprintf(
					"Hey %s! 😊 I'm here to help with your orders, shipping, and product questions. What can I do for you today?", name)),
			},
		}
	}

	cleaned, redacted := RedactPII(raw)
	truncated := false
	if runes := []rune(cleaned); len(runes) > maxChars {
		cleaned = string(runes[:maxChars]) + truncationSuffix
		truncated = true
	}

	return InputResult{
		GuardrailVerdict: domain.GuardrailVerdict{Passed: true},
		Text:             cleaned,
		PIIRedacted:      redacted,
		Truncated:        truncated,
		Aggressive:       containsAny(norm, aggressivePhrases),
		HealthRisk:       containsAny(norm, healthPhrases),
	}
}

// RedactPII masks card numbers, SSNs, emails, phone numbers and street
// addresses, reporting whether anything changed.
func RedactPII(text string) (string, bool) {
	if text == "" {
		return text, false
	}

	cleaned := text
	for _, r := range redactions {
		cleaned = r.pattern.ReplaceAllString(cleaned, r.placeholder)
	}

	return cleaned, cleaned != text
}

func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

func hasLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}

	return false
}

func containsAny(haystack string, needles []string) bool {
	for _, needle := range needles {
		if strings.Contains(haystack, needle) {
			return true
		}
	}

	return false
}
