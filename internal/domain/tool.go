package domain

import (
	"encoding/json"
	"time"
)

type ToolCall struct {
	ID   string         `json:"id"`
	Name string         `json:"name"`
	Args map[string]any `json:"args,omitempty"`
}

// ToolResult is the uniform envelope every downstream operation returns.
type ToolResult struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func Succeeded(data any) ToolResult {
	return ToolResult{Success: true, Data: data}
}

func Failed(message string) ToolResult {
	return ToolResult{Success: false, Error: message}
}

// Normalize enforces that failures never carry data.
func (r ToolResult) Normalize() ToolResult {
	if !r.Success {
		r.Data = nil
		if r.Error == "" {
			r.Error = "operation failed"
		}
	}

	return r
}

// DataMap returns the payload as a JSON object when it has that shape.
func (r ToolResult) DataMap() (map[string]any, bool) {
	switch v := r.Data.(type) {
	case map[string]any:
		return v, true
	case nil:
		return nil, false
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, false
		}
		var out map[string]any
		if err := json.Unmarshal(raw, &out); err != nil {
			return nil, false
		}
		return out, true
	}
}

type ToolCallLogEntry struct {
	Tool       string         `json:"tool"`
	Args       map[string]any `json:"args"`
	Result     ToolResult     `json:"result"`
	Specialist Specialist     `json:"specialist"`
	Turn       int            `json:"turn"`
	Blocked    bool           `json:"blocked,omitempty"`
	Transport  bool           `json:"transport,omitempty"`
	At         time.Time      `json:"at"`
}

// CanonicalArgs renders args with sorted keys so that two calls compare equal
// regardless of map order or numeric representation after a JSON round-trip.
func CanonicalArgs(args map[string]any) string {
	if len(args) == 0 {
		return "{}"
	}

	raw, err := json.Marshal(args)
	if err != nil {
		return ""
	}

	var normalized any
	if err := json.Unmarshal(raw, &normalized); err != nil {
		return string(raw)
	}

	out, err := json.Marshal(normalized)
	if err != nil {
		return string(raw)
	}

	return string(out)
}
