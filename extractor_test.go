package reservy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type windowArgs struct {
	From int `json:"from"`
	To   int `json:"to"`
}

func (w *windowArgs) Validate() error {
	if w.From > w.To {
		return &ClientError{Reason: "from must not be after to", Err: ErrValidation}
	}
	return nil
}

func TestExtractor_Schema(t *testing.T) {
	t.Parallel()
	ext, err := NewExtractor[bookingArgs]()
	require.NoError(t, err)
	schema := ext.Schema()
	assert.Equal(t, "object", schema["type"])
	props, ok := schema["properties"].(map[string]any)
	require.True(t, ok)
	party, ok := props["party_size"].(map[string]any)
	require.True(t, ok)
	assert.InDelta(t, 2.0, party["default"], 0)
	seating, ok := props["seating"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, []any{"indoor", "outdoor"}, seating["enum"])
	required, ok := schema["required"].([]any)
	require.True(t, ok)
	assert.Equal(t, []any{"restaurant_name"}, required)

	schema["mutated"] = true
	_, ok = ext.Schema()["mutated"]
	assert.False(t, ok)
}

func TestExtractor_ParseAndValidate_EmptyArgsMeansObject(t *testing.T) {
	t.Parallel()
	type noArgs struct {
		Email string `json:"customer_email,omitempty"`
	}
	ext, err := NewExtractor[noArgs]()
	require.NoError(t, err)
	args, err := ext.ParseAndValidate(nil)
	require.NoError(t, err)
	assert.Empty(t, args.Email)
}

func TestExtractor_ParseAndValidate_PointerReceiverValidate(t *testing.T) {
	t.Parallel()
	ext, err := NewExtractor[windowArgs]()
	require.NoError(t, err)
	args, err := ext.ParseAndValidate([]byte(`{"from": 17, "to": 21}`))
	require.NoError(t, err)
	assert.Equal(t, 17, args.From)

	_, err = ext.ParseAndValidate([]byte(`{"from": 21, "to": 17}`))
	require.Error(t, err)
	var ce *ClientError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "from must not be after to", ce.Reason)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestExtractor_ParseAndValidate_PointerT(t *testing.T) {
	t.Parallel()
	ext, err := NewExtractor[*windowArgs]()
	require.NoError(t, err)
	args, err := ext.ParseAndValidate([]byte(`{"from": 1, "to": 2}`))
	require.NoError(t, err)
	require.NotNil(t, args)
	assert.Equal(t, 2, args.To)
	_, err = ext.ParseAndValidate([]byte(`{"from": 3, "to": 2}`))
	assert.ErrorIs(t, err, ErrValidation)
}

type countingArgs struct {
	N int `json:"n"`
}

var countingValidateCalls int

func (c countingArgs) Validate() error {
	countingValidateCalls++
	return nil
}

func TestExtractor_ValidateRunsOnce(t *testing.T) {
	countingValidateCalls = 0
	defer func() { countingValidateCalls = 0 }()
	ext, err := NewExtractor[countingArgs]()
	require.NoError(t, err)
	_, err = ext.ParseAndValidate([]byte(`{"n": 1}`))
	require.NoError(t, err)
	assert.Equal(t, 1, countingValidateCalls)
}
