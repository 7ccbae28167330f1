package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/skosovsky/reservy/internal/llm"
	"github.com/skosovsky/reservy/internal/llmjson"
	"github.com/skosovsky/reservy/internal/tools"
	"github.com/skosovsky/reservy/mcp"
)

const extractPrompt = `Extract these fields from the restaurant search request: "%s".
Return valid JSON for the following keys:
  - location: string
  - cuisine_type: string
  - min_rating: float
  - max_results: int (default 10)
Omit keys if not specified.`

// ErrNoGenerator is returned by ParamExtractor.Extract when no model is configured.
var ErrNoGenerator = errors.New("assistant: no text generator configured")

// ToolLister is the part of the tool client used to fetch published schemas.
type ToolLister interface {
	ListTools(ctx context.Context) ([]mcp.ToolInfo, error)
}

// ParamExtractor asks a text generator for search parameters and checks the
// reply against the search tool's published input schema.
type ParamExtractor struct {
	gen   llm.Generator
	tools ToolLister

	mu     sync.Mutex
	schema *jsonschema.Schema
	props  map[string]bool
}

// NewParamExtractor returns an extractor. gen may be nil.
func NewParamExtractor(gen llm.Generator, tools ToolLister) *ParamExtractor {
	return &ParamExtractor{gen: gen, tools: tools}
}

// Extract returns the search arguments found in query. Keys the search tool
// does not accept are dropped; nothing is filled in.
func (p *ParamExtractor) Extract(ctx context.Context, query string) (map[string]any, error) {
	if p.gen == nil {
		return nil, ErrNoGenerator
	}
	text, err := p.gen.Generate(ctx, fmt.Sprintf(extractPrompt, query))
	if err != nil {
		return nil, err
	}
	obj, err := llmjson.ExtractObject(text)
	if err != nil {
		return nil, err
	}
	if err := p.load(ctx); err != nil {
		return nil, err
	}
	for k := range obj {
		if !p.props[k] {
			delete(obj, k)
		}
	}
	if err := p.validate(obj); err != nil {
		return nil, err
	}
	return obj, nil
}

// load fetches and compiles the search schema on first success. Failures are
// not cached, so the next query tries again.
func (p *ParamExtractor) load(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.schema != nil {
		return nil
	}
	return p.compile(ctx)
}

func (p *ParamExtractor) compile(ctx context.Context) error {
	infos, err := p.tools.ListTools(ctx)
	if err != nil {
		return fmt.Errorf("list tools: %w", err)
	}
	for _, info := range infos {
		if info.Name != tools.SearchRestaurants {
			continue
		}
		raw, err := json.Marshal(info.InputSchema)
		if err != nil {
			return err
		}
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
		if err != nil {
			return err
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource("search_restaurants.json", doc); err != nil {
			return err
		}
		sch, err := c.Compile("search_restaurants.json")
		if err != nil {
			return fmt.Errorf("compile search schema: %w", err)
		}
		props := make(map[string]bool)
		if m, ok := info.InputSchema["properties"].(map[string]any); ok {
			for k := range m {
				props[k] = true
			}
		}
		p.schema, p.props = sch, props
		return nil
	}
	return fmt.Errorf("tool %s not published", tools.SearchRestaurants)
}

func (p *ParamExtractor) validate(obj map[string]any) error {
	raw, err := json.Marshal(obj)
	if err != nil {
		return err
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return err
	}
	if err := p.schema.Validate(inst); err != nil {
		return fmt.Errorf("model output does not match search schema: %w", err)
	}
	return nil
}
