package reservy

import (
	"encoding/json"
	"errors"
)

// ToolResult is the outcome of one tool call: exactly one of Result or Error is set.
type ToolResult struct {
	CallID   string
	ToolName string
	Result   json.RawMessage
	Error    error
}

// OK reports whether the call produced a payload.
func (r ToolResult) OK() bool { return r.Error == nil }

// Payload renders the flat object callers see on the wire. Failures become
// {"error": "<message>"}; a success with no payload becomes {}.
func (r ToolResult) Payload() json.RawMessage {
	if r.Error != nil {
		b, err := json.Marshal(map[string]string{"error": ErrorMessage(r.Error)})
		if err != nil {
			return json.RawMessage(`{"error":"internal system error during tool execution"}`)
		}
		return b
	}
	if len(r.Result) == 0 {
		return json.RawMessage(`{}`)
	}
	return r.Result
}

// ErrorMessage returns the caller-visible message for err. ClientError yields its
// Reason verbatim; everything else yields err.Error() (SystemError hides details).
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	var ce *ClientError
	if errors.As(err, &ce) {
		return ce.Reason
	}
	return err.Error()
}
