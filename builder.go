package reservy

import (
	"context"
	"encoding/json"
	"maps"
	"time"

	invjs "github.com/invopop/jsonschema"
)

type tool struct {
	name        string
	description string
	schema      map[string]any
	output      map[string]any
	execute     func(context.Context, []byte) ([]byte, error)
	opts        toolOptions
}

// NewTool builds a Tool from a typed handler. Input schema, defaults and validation
// are delegated to Extractor[T]; the output schema is reflected from R.
// Handler errors that are not ClientError are wrapped as SystemError.
func NewTool[T any, R any](
	name, description string,
	fn func(ctx context.Context, args T) (R, error),
	opts ...ToolOption,
) (Tool, error) {
	var o toolOptions
	for _, opt := range opts {
		opt(&o)
	}
	ext, err := NewExtractor[T]()
	if err != nil {
		return nil, err
	}
	output, err := reflectOutputSchema[R]()
	if err != nil {
		return nil, err
	}
	execute := func(ctx context.Context, argsJSON []byte) ([]byte, error) {
		args, err := ext.ParseAndValidate(argsJSON)
		if err != nil {
			return nil, err
		}
		res, err := fn(ctx, args)
		if err != nil {
			return nil, wrapHandlerError(err)
		}
		b, err := json.Marshal(res)
		if err != nil {
			return nil, &SystemError{Err: err}
		}
		return b, nil
	}
	return &tool{
		name:        name,
		description: description,
		schema:      ext.Schema(),
		output:      output,
		execute:     execute,
		opts:        o,
	}, nil
}

// reflectOutputSchema describes a successful result. Definitions are inlined so the
// schema can be published as-is next to the input schema.
func reflectOutputSchema[R any]() (map[string]any, error) {
	r := &invjs.Reflector{
		DoNotReference:            true,
		ExpandedStruct:            true,
		AllowAdditionalProperties: true,
	}
	s := r.Reflect(new(R))
	data, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	// Interface-typed results reflect to the boolean schema `true`; publish nothing.
	out, ok := v.(map[string]any)
	if !ok {
		return nil, nil
	}
	delete(out, "$schema")
	stripSchemaIDs(out)
	return out, nil
}

func (t *tool) Name() string        { return t.name }
func (t *tool) Description() string { return t.description }

// Parameters returns a shallow copy of the input schema. Nested maps are shared.
func (t *tool) Parameters() map[string]any { return maps.Clone(t.schema) }

func (t *tool) Execute(ctx context.Context, argsJSON []byte) ([]byte, error) {
	return t.execute(ctx, argsJSON)
}

func (t *tool) Timeout() time.Duration { return t.opts.timeout }
func (t *tool) Tags() []string         { return append([]string(nil), t.opts.tags...) }
func (t *tool) ReadOnly() bool         { return t.opts.readOnly }

func (t *tool) OutputSchema() map[string]any { return maps.Clone(t.output) }

func wrapHandlerError(err error) error {
	if err == nil {
		return nil
	}
	if IsClientError(err) {
		return err
	}
	return &SystemError{Err: err}
}

var (
	_ Tool         = (*tool)(nil)
	_ ToolMetadata = (*tool)(nil)
)
