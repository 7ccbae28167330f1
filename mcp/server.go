package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"github.com/sourcegraph/conc/iter"

	"github.com/skosovsky/reservy"
)

const maxBodyBytes = 1 << 20

// Server answers JSON-RPC requests against a Registry.
type Server struct {
	reg  *reservy.Registry
	info Implementation
	log  zerolog.Logger
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithServerInfo sets the name and version reported by initialize.
func WithServerInfo(name, version string) ServerOption {
	return func(s *Server) { s.info = Implementation{Name: name, Version: version} }
}

// WithServerLogger sets the request logger.
func WithServerLogger(l zerolog.Logger) ServerOption {
	return func(s *Server) { s.log = l }
}

// NewServer returns a Server for reg.
func NewServer(reg *reservy.Registry, opts ...ServerOption) *Server {
	s := &Server{
		reg:  reg,
		info: Implementation{Name: "reservy", Version: "dev"},
		log:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler routes POST /mcp to the JSON-RPC endpoint and GET /healthz to a
// liveness check, with access logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("POST /mcp", s)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = io.WriteString(w, "ok\n")
	})

	var h http.Handler = mux
	h = hlog.AccessHandler(func(r *http.Request, status, size int, d time.Duration) {
		hlog.FromRequest(r).Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Int("size", size).
			Dur("duration", d).
			Msg("http request")
	})(h)
	h = hlog.RequestIDHandler("req_id", "X-Request-Id")(h)
	return hlog.NewHandler(s.log)(h)
}

// ServeHTTP handles one JSON-RPC message or batch.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse(nil, CodeInvalidRequest, "request body too large"))
		return
	}
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse(nil, CodeInvalidRequest, "empty request"))
		return
	}

	if body[0] == '[' {
		var raws []json.RawMessage
		if err := json.Unmarshal(body, &raws); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse(nil, CodeParseError, "parse error: "+err.Error()))
			return
		}
		if len(raws) == 0 {
			writeJSON(w, http.StatusBadRequest, errorResponse(nil, CodeInvalidRequest, "empty batch"))
			return
		}
		results := iter.Map(raws, func(raw *json.RawMessage) *Response {
			return s.handleRaw(r.Context(), *raw)
		})
		out := make([]*Response, 0, len(results))
		for _, resp := range results {
			if resp != nil {
				out = append(out, resp)
			}
		}
		if len(out) == 0 {
			w.WriteHeader(http.StatusAccepted)
			return
		}
		writeJSON(w, http.StatusOK, out)
		return
	}

	resp := s.handleRaw(r.Context(), body)
	if resp == nil {
		w.WriteHeader(http.StatusAccepted)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleRaw returns nil for notifications.
func (s *Server) handleRaw(ctx context.Context, raw json.RawMessage) *Response {
	var req Request
	if err := json.Unmarshal(raw, &req); err != nil {
		return errorResponse(nil, CodeParseError, "parse error: "+err.Error())
	}
	if req.JSONRPC != "2.0" || req.Method == "" {
		return errorResponse(req.ID, CodeInvalidRequest, "invalid request")
	}
	result, rpcErr := s.dispatch(ctx, req)
	if req.IsNotification() {
		return nil
	}
	if rpcErr != nil {
		return &Response{JSONRPC: "2.0", ID: req.ID, Error: rpcErr}
	}
	data, err := json.Marshal(result)
	if err != nil {
		return errorResponse(req.ID, CodeInternalError, "marshal result")
	}
	return &Response{JSONRPC: "2.0", ID: req.ID, Result: data}
}

func (s *Server) dispatch(ctx context.Context, req Request) (any, *RPCError) {
	switch req.Method {
	case MethodInitialize:
		return InitializeResult{
			ProtocolVersion: ProtocolVersion,
			Capabilities:    map[string]any{"tools": map[string]any{"listChanged": false}},
			ServerInfo:      s.info,
		}, nil
	case MethodInitialized:
		return struct{}{}, nil
	case MethodPing:
		return struct{}{}, nil
	case MethodToolsList:
		return ListToolsResult{Tools: Describe(s.reg.GetAllTools())}, nil
	case MethodToolsCall:
		var p CallToolParams
		if len(req.Params) == 0 || json.Unmarshal(req.Params, &p) != nil {
			return nil, &RPCError{Code: CodeInvalidParams, Message: "invalid tools/call params"}
		}
		p.Name = strings.TrimSpace(p.Name)
		if p.Name == "" {
			return nil, &RPCError{Code: CodeInvalidParams, Message: "tools/call params.name is required"}
		}
		res := s.reg.Execute(ctx, reservy.ToolCall{ID: string(req.ID), ToolName: p.Name, Args: p.Arguments})
		if !res.OK() && !reservy.IsClientError(res.Error) {
			s.log.Warn().Err(res.Error).Str("tool", p.Name).Msg("tool call failed")
		}
		return ToCallResult(res), nil
	}
	return nil, &RPCError{Code: CodeMethodNotFound, Message: "method not found: " + req.Method}
}

// Describe converts registry tools to their protocol descriptions.
func Describe(tools []reservy.Tool) []ToolInfo {
	out := make([]ToolInfo, 0, len(tools))
	for _, t := range tools {
		info := ToolInfo{
			Name:        t.Name(),
			Description: t.Description(),
			InputSchema: t.Parameters(),
		}
		if meta, ok := t.(reservy.ToolMetadata); ok {
			info.OutputSchema = meta.OutputSchema()
			info.Annotations = &ToolAnnotations{ReadOnlyHint: meta.ReadOnly()}
			info.Tags = meta.Tags()
		}
		out = append(out, info)
	}
	return out
}

// ToCallResult renders a ToolResult on the wire.
func ToCallResult(res reservy.ToolResult) CallToolResult {
	payload := res.Payload()
	return CallToolResult{
		Content:           []Content{{Type: "text", Text: string(payload)}},
		StructuredContent: payload,
		IsError:           !res.OK(),
	}
}

func errorResponse(id json.RawMessage, code int, msg string) *Response {
	if len(id) == 0 {
		id = json.RawMessage("null")
	}
	return &Response{JSONRPC: "2.0", ID: id, Error: &RPCError{Code: code, Message: msg}}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
