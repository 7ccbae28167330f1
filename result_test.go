package reservy

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToolResult_Payload(t *testing.T) {
	tests := []struct {
		name string
		res  ToolResult
		want string
		ok   bool
	}{
		{"success", ToolResult{Result: raw(`{"status":"confirmed"}`)}, `{"status":"confirmed"}`, true},
		{"empty success", ToolResult{}, `{}`, true},
		{"client error", ToolResult{Error: NotFound("Reservation ZZ not found")}, `{"error":"Reservation ZZ not found"}`, false},
		{"system error hides cause", ToolResult{Error: &SystemError{Err: errors.New("disk")}}, `{"error":"internal system error during tool execution"}`, false},
		{"unknown tool", ToolResult{Error: fmt.Errorf("%w: %s", ErrToolNotFound, "cancel")}, `{"error":"tool not found: cancel"}`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.ok, tt.res.OK())
			assert.JSONEq(t, tt.want, string(tt.res.Payload()))
		})
	}
}

func TestErrorMessage_Nil(t *testing.T) {
	assert.Empty(t, ErrorMessage(nil))
}
