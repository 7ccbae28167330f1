// Package reservy is the tool engine behind the restaurant reservation server.
//
// # Overview
//
// Clients (the interactive assistant, the CLI, or any JSON-RPC caller) send tool
// calls as JSON. The engine turns that JSON into typed Go handler calls:
// unmarshal → apply defaults → validate (against the same JSON Schema published in
// tools/list) → execute → marshal the flat result object.
//
// Pipeline: argument struct + handler → NewTool (reflection + schema) → Tool →
// Registry → Execute → ToolResult.
//
// # Key concepts
//
//   - One set of struct tags drives both the published input schema and the
//     validation of incoming arguments. The `default` tag is published too, and
//     argument types implementing Defaulter pre-fill the same values.
//   - Every call yields a ToolResult: either a JSON payload or an error. The
//     protocol edge renders failures as {"error": "<message>"} via ToolResult.Payload.
//   - ClientError carries a caller-visible message (bad date, unknown reservation,
//     upstream failure). SystemError hides internal details.
//
// # Example
//
//	type Args struct {
//	    ReservationID string `json:"reservation_id" jsonschema:"Reservation identifier"`
//	}
//	type Out struct {
//	    Status string `json:"status"`
//	}
//	tool, err := reservy.NewTool("lookup", "Look up a reservation", func(_ context.Context, a Args) (Out, error) {
//	    return Out{Status: "confirmed"}, nil
//	})
//	if err != nil { ... }
//	reg := reservy.NewRegistry()
//	reg.Register(tool)
//	res := reg.Execute(ctx, reservy.ToolCall{ID: "1", ToolName: "lookup", Args: []byte(`{"reservation_id":"A1B2C3D4"}`)})
package reservy
