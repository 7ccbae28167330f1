package reservy

import (
	"context"
	"encoding/json"
	"time"
)

// Tool is a named operation callable over the tool protocol.
type Tool interface {
	Name() string
	Description() string
	// Parameters returns the input JSON Schema as a map (published in tools/list).
	Parameters() map[string]any
	// Execute runs the tool on raw JSON arguments and returns the flat JSON result object.
	Execute(ctx context.Context, argsJSON []byte) ([]byte, error)
}

// ToolMetadata is implemented by tools created with NewTool. Registry uses Timeout()
// to override the default execution timeout when set; the protocol layer publishes
// OutputSchema and ReadOnly as tool annotations.
type ToolMetadata interface {
	Timeout() time.Duration
	Tags() []string
	ReadOnly() bool
	// OutputSchema returns the JSON Schema of a successful result, or nil.
	OutputSchema() map[string]any
}

// ToolCall is a single execution request.
type ToolCall struct {
	ID       string
	ToolName string
	Args     json.RawMessage // JSON payload of arguments
}
