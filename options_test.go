package reservy

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type lookupArgs struct {
	ReservationID string `json:"reservation_id"`
}

type lookupOut struct {
	Found bool `json:"found"`
}

func lookup(_ context.Context, a lookupArgs) (lookupOut, error) {
	return lookupOut{Found: a.ReservationID != ""}, nil
}

func TestNewTool_RejectsUnknownProperties(t *testing.T) {
	tool, err := NewTool("lookup", "desc", lookup)
	require.NoError(t, err)

	out, err := tool.Execute(context.Background(), []byte(`{"reservation_id":"abc"}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"found":true}`, string(out))

	_, err = tool.Execute(context.Background(), []byte(`{"reservation_id":"abc","extra":2}`))
	require.Error(t, err)
	assert.True(t, IsClientError(err))
}

func TestWithTimeout(t *testing.T) {
	tool, err := NewTool("lookup", "desc", lookup, WithTimeout(time.Second))
	require.NoError(t, err)
	meta, ok := tool.(ToolMetadata)
	require.True(t, ok)
	assert.Equal(t, time.Second, meta.Timeout())
}

func TestWithTags(t *testing.T) {
	tool, err := NewTool("lookup", "desc", lookup, WithTags("booking", "calendar"))
	require.NoError(t, err)
	meta, ok := tool.(ToolMetadata)
	require.True(t, ok)
	assert.Equal(t, []string{"booking", "calendar"}, meta.Tags())
}

func TestWithReadOnly(t *testing.T) {
	plain, err := NewTool("lookup", "desc", lookup)
	require.NoError(t, err)
	assert.False(t, plain.(ToolMetadata).ReadOnly())

	ro, err := NewTool("lookup", "desc", lookup, WithReadOnly())
	require.NoError(t, err)
	assert.True(t, ro.(ToolMetadata).ReadOnly())
}

func TestToolOptions_Combined(t *testing.T) {
	tool, err := NewTool("lookup", "desc", lookup,
		WithTimeout(time.Millisecond), WithReadOnly(), WithTags("booking"))
	require.NoError(t, err)
	out, err := tool.Execute(context.Background(), []byte(`{"reservation_id":""}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"found":false}`, string(out))
}
