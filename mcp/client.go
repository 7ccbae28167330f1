package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/skosovsky/reservy"
)

// Client calls a remote Server over HTTP.
type Client struct {
	hc       *http.Client
	endpoint string
	info     Implementation
	nextID   atomic.Int64
	log      zerolog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.hc = hc }
}

// WithClientTimeout sets the per-request timeout.
func WithClientTimeout(d time.Duration) ClientOption {
	return func(c *Client) { c.hc.Timeout = d }
}

// WithClientInfo sets the name and version sent on initialize.
func WithClientInfo(name, version string) ClientOption {
	return func(c *Client) { c.info = Implementation{Name: name, Version: version} }
}

// WithClientLogger sets the client logger.
func WithClientLogger(l zerolog.Logger) ClientOption {
	return func(c *Client) { c.log = l }
}

// NewClient returns a Client for endpoint. A bare host URL gets /mcp appended.
func NewClient(endpoint string, opts ...ClientOption) *Client {
	endpoint = strings.TrimRight(endpoint, "/")
	if !strings.HasSuffix(endpoint, "/mcp") {
		endpoint += "/mcp"
	}
	c := &Client{
		hc:       &http.Client{Timeout: 60 * time.Second},
		endpoint: endpoint,
		info:     Implementation{Name: "reservy-assistant", Version: "dev"},
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Initialize performs the handshake and sends the initialized notification.
func (c *Client) Initialize(ctx context.Context) (InitializeResult, error) {
	var res InitializeResult
	err := c.call(ctx, MethodInitialize, InitializeParams{
		ProtocolVersion: ProtocolVersion,
		Capabilities:    map[string]any{},
		ClientInfo:      c.info,
	}, &res)
	if err != nil {
		return InitializeResult{}, err
	}
	if err := c.notify(ctx, MethodInitialized); err != nil {
		return InitializeResult{}, err
	}
	return res, nil
}

// Ping checks the server is answering.
func (c *Client) Ping(ctx context.Context) error {
	return c.call(ctx, MethodPing, struct{}{}, nil)
}

// ListTools returns the server's tool descriptions.
func (c *Client) ListTools(ctx context.Context) ([]ToolInfo, error) {
	var res ListToolsResult
	if err := c.call(ctx, MethodToolsList, struct{}{}, &res); err != nil {
		return nil, err
	}
	return res.Tools, nil
}

// CallTool invokes name with args (any JSON-marshalable value) and returns the
// flat result object. A tool failure is not a Go error: the object carries an
// "error" key. Errors are transport or protocol failures only.
func (c *Client) CallTool(ctx context.Context, name string, args any) (json.RawMessage, error) {
	rawArgs, err := marshalArgs(args)
	if err != nil {
		return nil, err
	}
	var res CallToolResult
	if err := c.call(ctx, MethodToolsCall, CallToolParams{Name: name, Arguments: rawArgs}, &res); err != nil {
		return nil, err
	}
	return res.Object()
}

// Object returns the flat result object: StructuredContent when present,
// otherwise the first text content block.
func (r CallToolResult) Object() (json.RawMessage, error) {
	if len(r.StructuredContent) > 0 {
		return r.StructuredContent, nil
	}
	for _, c := range r.Content {
		if c.Type == "text" && json.Valid([]byte(c.Text)) {
			return json.RawMessage(c.Text), nil
		}
	}
	return nil, errors.New("mcp: tool result carries no JSON object")
}

func (c *Client) call(ctx context.Context, method string, params, out any) error {
	id := json.RawMessage(strconv.FormatInt(c.nextID.Add(1), 10))
	resp, err := c.post(ctx, method, id, params)
	if err != nil {
		return err
	}
	var r Response
	if err := json.Unmarshal(resp, &r); err != nil {
		return fmt.Errorf("mcp: decode %s response: %w", method, err)
	}
	if r.Error != nil {
		return r.Error
	}
	if out == nil || len(r.Result) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Result, out); err != nil {
		return fmt.Errorf("mcp: decode %s result: %w", method, err)
	}
	return nil
}

func (c *Client) notify(ctx context.Context, method string) error {
	_, err := c.post(ctx, method, nil, nil)
	return err
}

func (c *Client) post(ctx context.Context, method string, id json.RawMessage, params any) ([]byte, error) {
	req := Request{JSONRPC: "2.0", ID: id, Method: method}
	if params != nil {
		p, err := json.Marshal(params)
		if err != nil {
			return nil, fmt.Errorf("mcp: marshal %s params: %w", method, err)
		}
		req.Params = p
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	start := time.Now()
	res, err := c.hc.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("mcp: %s: %w", method, err)
	}
	defer res.Body.Close()
	data, err := io.ReadAll(io.LimitReader(res.Body, 8<<20))
	if err != nil {
		return nil, fmt.Errorf("mcp: read %s response: %w", method, err)
	}
	c.log.Debug().Str("method", method).Int("status", res.StatusCode).Dur("duration", time.Since(start)).Msg("mcp call")
	if res.StatusCode == http.StatusAccepted && id == nil {
		return nil, nil
	}
	if res.StatusCode >= 400 && len(data) == 0 {
		return nil, fmt.Errorf("mcp: %s: http status %d", method, res.StatusCode)
	}
	return data, nil
}

// InProcess serves the Client call surface straight from a Registry, without HTTP.
type InProcess struct {
	reg *reservy.Registry
}

// NewInProcess wraps reg.
func NewInProcess(reg *reservy.Registry) *InProcess {
	return &InProcess{reg: reg}
}

// ListTools describes the registry's tools.
func (p *InProcess) ListTools(context.Context) ([]ToolInfo, error) {
	return Describe(p.reg.GetAllTools()), nil
}

// CallTool executes name on the registry and returns the flat result object.
func (p *InProcess) CallTool(ctx context.Context, name string, args any) (json.RawMessage, error) {
	rawArgs, err := marshalArgs(args)
	if err != nil {
		return nil, err
	}
	res := p.reg.Execute(ctx, reservy.ToolCall{ToolName: name, Args: rawArgs})
	return res.Payload(), nil
}

func marshalArgs(args any) (json.RawMessage, error) {
	switch v := args.(type) {
	case nil:
		return json.RawMessage(`{}`), nil
	case json.RawMessage:
		return v, nil
	case []byte:
		return json.RawMessage(v), nil
	}
	b, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("mcp: marshal arguments: %w", err)
	}
	return b, nil
}
