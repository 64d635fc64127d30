package guardrail

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/bnema/helpdesk-agent/internal/domain"
)

// ToolSnapshot is the slice of session state the tool guardrail reads.
type ToolSnapshot struct {
	CustomerID           string
	CustomerEmail        string
	DiscountCodesCreated int
	Log                  []domain.ToolCallLogEntry
}

type ToolVerdict struct {
	Allowed bool
	Reason  string
	Args    map[string]any
}

func allow(args map[string]any) ToolVerdict {
	return ToolVerdict{Allowed: true, Reason: "OK", Args: args}
}

func reject(args map[string]any, format string, a ...any) ToolVerdict {
	return ToolVerdict{Allowed: false, Reason: fmt.Sprintf(format, a...), Args: args}
}

// CheckToolCall validates and corrects a requested tool call. It never calls
// out; the same input always yields the same verdict.
func CheckToolCall(tool string, requested map[string]any, snap ToolSnapshot) ToolVerdict {
	args := cloneArgs(requested)

	if tool == domain.ToolGetOrderDetails {
		if raw, ok := args["orderId"]; ok {
			args["orderId"] = domain.DisplayOrderNumber(stringArg(raw))
		}
	}

	if field, ok := domain.CanonicalIDField[tool]; ok {
		value := stringArg(args[field])
		if value != "" && !domain.IsCanonicalID(value) {
			return reject(args,
				"Tool '%s' requires a canonical identifier (gid://shopify/...) in %q, got '%s'. Look up the order with %s first to obtain its canonical id.",
				tool, field, value, domain.ToolGetOrderDetails)
		}
	}

	if field, ok := domain.DestructiveIDField[tool]; ok {
		if stringArg(args[field]) == "" {
			return reject(args, "Cannot run %s without a valid %s", tool, field)
		}
	}

	switch tool {
	case domain.ToolCancelOrder:
		setDefault(args, "reason", "CUSTOMER")
		setDefault(args, "notifyCustomer", true)
		setDefault(args, "restock", true)
		setDefault(args, "staffNote", "Customer requested cancellation via chat")
		setDefault(args, "refundMode", "ORIGINAL")
		setDefault(args, "storeCredit", map[string]any{"expiresAt": nil})

	case domain.ToolCreateDiscountCode:
		if snap.DiscountCodesCreated >= maxDiscountCodes {
			return reject(args, "Already created a discount code for this customer (max %d)", maxDiscountCodes)
		}
		args["type"] = "percentage"
		args["value"] = 0.10
		args["duration"] = 48
		setDefault(args, "productIds", []any{})

	case domain.ToolCreateStoreCredit:
		if credit, ok := args["creditAmount"].(map[string]any); ok {
			if amount, ok := floatArg(credit["amount"]); ok {
				credit["amount"] = strconv.FormatFloat(ApplyStoreCreditMarkup(amount), 'f', 2, 64)
			}
		}
		if stringArg(args["id"]) == "" && snap.CustomerID != "" {
			args["id"] = snap.CustomerID
		}
		setDefault(args, "expiresAt", nil)

	case domain.ToolGetCustomerOrders:
		if stringArg(args["email"]) == "" && snap.CustomerEmail != "" {
			args["email"] = snap.CustomerEmail
		}
		setDefault(args, "after", "null")
		setDefault(args, "limit", 10)

	case domain.ToolGetSubscriptionStatus:
		if stringArg(args["email"]) == "" && snap.CustomerEmail != "" {
			args["email"] = snap.CustomerEmail
		}
	}

	if isDuplicate(tool, args, snap.Log) {
		return reject(args, "Duplicate tool call detected: %s was just called with the same arguments", tool)
	}

	return allow(args)
}

// ApplyStoreCreditMarkup adds the fixed 10% bonus, rounded to cents.
func ApplyStoreCreditMarkup(amount float64) float64 {
	return math.Round(amount*storeCreditMarkup*100) / 100
}

func isDuplicate(tool string, args map[string]any, log []domain.ToolCallLogEntry) bool {
	start := len(log) - duplicateWindow
	if start < 0 {
		start = 0
	}

	canonical := domain.CanonicalArgs(args)
	for _, entry := range log[start:] {
		if entry.Tool == tool && domain.CanonicalArgs(entry.Args) == canonical {
			return true
		}
	}

	return false
}

func cloneArgs(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = cloneValue(v)
	}

	return out
}

func cloneValue(v any) any {
	switch typed := v.(type) {
	case map[string]any:
		return cloneArgs(typed)
	case []any:
		out := make([]any, len(typed))
		for i := range typed {
			out[i] = cloneValue(typed[i])
		}
		return out
	default:
		return v
	}
}

func setDefault(args map[string]any, key string, value any) {
	if _, ok := args[key]; !ok {
		args[key] = value
	}
}

func stringArg(v any) string {
	switch typed := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(typed)
	default:
		return strings.TrimSpace(fmt.Sprint(typed))
	}
}

func floatArg(v any) (float64, bool) {
	switch typed := v.(type) {
	case float64:
		return typed, true
	case float32:
		return float64(typed), true
	case int:
		return float64(typed), true
	case int64:
		return float64(typed), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(typed), 64)
		return f, err == nil
	default:
		return 0, false
	}
}
