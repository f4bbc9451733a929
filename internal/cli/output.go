package cli

import (
	"encoding/json"
	"fmt"
	"strings"
)

// NoDataMessage is the default fallback for empty structured output.
const NoDataMessage = "No data returned"

// rawOutputLimit bounds the raw-output fragment kept on parse failures.
const rawOutputLimit = 1000

// Payload is the parsed output of a CLI command. The Databricks CLI is
// inconsistent about shape: some commands return a JSON object, others a
// bare JSON array. At most one of Object and List is set; call sites must
// branch on the shape explicitly rather than assume one.
type Payload struct {
	Object map[string]any
	List   []any
}

// IsList reports whether the payload is a bare JSON array.
func (p Payload) IsList() bool { return p.List != nil }

// Value returns the underlying object or list.
func (p Payload) Value() any {
	if p.List != nil {
		return p.List
	}
	return p.Object
}

// MarshalJSON serializes the payload as its underlying value.
func (p Payload) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.Value())
}

// ErrorMessage returns the in-band error message when the payload is an
// error-shaped container (an object carrying an "error" key).
func (p Payload) ErrorMessage() (string, bool) {
	if p.Object == nil {
		return "", false
	}
	msg, ok := p.Object["error"].(string)
	return msg, ok
}

// ObjectPayload wraps a map in a Payload.
func ObjectPayload(m map[string]any) Payload { return Payload{Object: m} }

// ListPayload wraps a slice in a Payload.
func ListPayload(l []any) Payload { return Payload{List: l} }

// ParseOutput parses CLI stdout into a Payload. It never fails: empty text
// yields an error container carrying fallback, and malformed JSON yields an
// error container carrying the parser message and a bounded raw fragment.
func ParseOutput(text, fallback string) Payload {
	if strings.TrimSpace(text) == "" {
		return ObjectPayload(map[string]any{"error": fallback})
	}

	var v any
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		return parseFailure(text, err.Error())
	}

	switch parsed := v.(type) {
	case map[string]any:
		return ObjectPayload(parsed)
	case []any:
		return ListPayload(parsed)
	default:
		// Scalars never come out of the CLI; treat them like garbage.
		return parseFailure(text, "top-level JSON value is not an object or array")
	}
}

func parseFailure(text, reason string) Payload {
	raw := text
	if len(raw) > rawOutputLimit {
		raw = raw[:rawOutputLimit]
	}
	return ObjectPayload(map[string]any{
		"error":      "Failed to parse JSON output: " + reason,
		"raw_output": raw,
	})
}

// ExtractCommandError derives a human-readable message from a failed
// command's output. Best-effort over free-form CLI text: it never fails and
// always returns a non-empty string. Parts are joined with " | " when more
// than one source applies.
//
// Sources, in order: trimmed stderr; an error field (error, message,
// error_message, detail) from JSON stdout mentioning "error", or the raw
// stdout truncated to 500 characters when it is not JSON; and finally the
// bare exit code.
func ExtractCommandError(stdout, stderr string, exitCode int) string {
	var parts []string

	if stderr != "" {
		parts = append(parts, "Error: "+strings.TrimSpace(stderr))
	}

	if stdout != "" && strings.Contains(strings.ToLower(stdout), "error") {
		var v any
		if err := json.Unmarshal([]byte(stdout), &v); err == nil {
			if data, ok := v.(map[string]any); ok {
				for _, key := range []string{"error", "message", "error_message", "detail"} {
					if msg, ok := data[key].(string); ok && msg != "" {
						parts = append(parts, msg)
						break
					}
				}
			}
		} else {
			parts = append(parts, "Output: "+TruncateOutput(stdout, 500))
		}
	}

	if len(parts) == 0 {
		return fmt.Sprintf("Command failed with exit code %d", exitCode)
	}

	return strings.Join(parts, " | ")
}

// TruncateOutput bounds output for logging or display.
func TruncateOutput(output string, maxLen int) string {
	if len(output) <= maxLen {
		return output
	}
	return output[:maxLen] + "... [output truncated]"
}
