package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/skosovsky/reservy"
	"github.com/skosovsky/reservy/testutil"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type echoArgs struct {
	Name  string `json:"name" jsonschema:"Who to greet"`
	Fail  bool   `json:"fail,omitempty"`
	Crash bool   `json:"crash,omitempty"`
}

type echoOut struct {
	Greeting string `json:"greeting"`
}

func newRegistry(t *testing.T) *reservy.Registry {
	t.Helper()
	greet, err := reservy.NewTool("greet", "Greets someone", func(_ context.Context, a echoArgs) (echoOut, error) {
		if a.Fail {
			return echoOut{}, reservy.NotFound("Guest %s not found", a.Name)
		}
		if a.Crash {
			return echoOut{}, errors.New("disk on fire")
		}
		return echoOut{Greeting: "hello " + a.Name}, nil
	}, reservy.WithReadOnly(), reservy.WithTags("demo"))
	require.NoError(t, err)
	reg := reservy.NewRegistry()
	reg.Register(greet)
	return reg
}

func newTestServer(t *testing.T) (*httptest.Server, *Client) {
	t.Helper()
	srv := httptest.NewServer(NewServer(newRegistry(t), WithServerInfo("reservy", "test")).Handler())
	t.Cleanup(srv.Close)
	return srv, NewClient(srv.URL, WithHTTPClient(srv.Client()))
}

func TestClient_Initialize(t *testing.T) {
	_, c := newTestServer(t)
	res, err := c.Initialize(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ProtocolVersion, res.ProtocolVersion)
	assert.Equal(t, Implementation{Name: "reservy", Version: "test"}, res.ServerInfo)
	require.NoError(t, c.Ping(context.Background()))
}

func TestClient_ListTools(t *testing.T) {
	_, c := newTestServer(t)
	tools, err := c.ListTools(context.Background())
	require.NoError(t, err)
	require.Len(t, tools, 1)
	tl := tools[0]
	assert.Equal(t, "greet", tl.Name)
	assert.Equal(t, "Greets someone", tl.Description)
	assert.Equal(t, "object", tl.InputSchema["type"])
	assert.Equal(t, []any{"name"}, tl.InputSchema["required"])
	require.NotNil(t, tl.OutputSchema)
	assert.Contains(t, tl.OutputSchema["properties"], "greeting")
	require.NotNil(t, tl.Annotations)
	assert.True(t, tl.Annotations.ReadOnlyHint)
	assert.Equal(t, []string{"demo"}, tl.Tags)
}

func TestClient_CallTool(t *testing.T) {
	_, c := newTestServer(t)
	ctx := context.Background()

	out, err := c.CallTool(ctx, "greet", map[string]any{"name": "Ada"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"greeting":"hello Ada"}`, string(out))

	out, err = c.CallTool(ctx, "greet", map[string]any{"name": "Bob", "fail": true})
	require.NoError(t, err)
	assert.JSONEq(t, `{"error":"Guest Bob not found"}`, string(out))

	out, err = c.CallTool(ctx, "greet", json.RawMessage(`{"name":"Eve","crash":true}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"error":"internal system error during tool execution"}`, string(out))

	out, err = c.CallTool(ctx, "nope", nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"error":"tool not found: nope"}`, string(out))
}

func rpc(t *testing.T, srv *httptest.Server, body string) (int, []byte) {
	t.Helper()
	res, err := srv.Client().Post(srv.URL+"/mcp", "application/json", bytes.NewBufferString(body))
	require.NoError(t, err)
	defer res.Body.Close()
	var buf bytes.Buffer
	_, err = buf.ReadFrom(res.Body)
	require.NoError(t, err)
	return res.StatusCode, buf.Bytes()
}

func TestServer_CallResultShape(t *testing.T) {
	srv, _ := newTestServer(t)
	status, body := rpc(t, srv, `{"jsonrpc":"2.0","id":7,"method":"tools/call","params":{"name":"greet","arguments":{"name":"Ada","fail":true}}}`)
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{
		"jsonrpc":"2.0","id":7,
		"result":{
			"content":[{"type":"text","text":"{\"error\":\"Guest Ada not found\"}"}],
			"structuredContent":{"error":"Guest Ada not found"},
			"isError":true
		}
	}`, string(body))
}

func TestServer_ProtocolErrors(t *testing.T) {
	srv, _ := newTestServer(t)
	for name, tc := range map[string]struct {
		body string
		code int
	}{
		"parse":          {`{not json`, CodeParseError},
		"bad version":    {`{"jsonrpc":"1.0","id":1,"method":"ping"}`, CodeInvalidRequest},
		"unknown method": {`{"jsonrpc":"2.0","id":1,"method":"resources/list"}`, CodeMethodNotFound},
		"missing params": {`{"jsonrpc":"2.0","id":1,"method":"tools/call"}`, CodeInvalidParams},
		"empty name":     {`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":" "}}`, CodeInvalidParams},
	} {
		t.Run(name, func(t *testing.T) {
			_, body := rpc(t, srv, tc.body)
			var resp Response
			require.NoError(t, json.Unmarshal(body, &resp))
			require.NotNil(t, resp.Error)
			assert.Equal(t, tc.code, resp.Error.Code)
		})
	}
}

func TestServer_Notification(t *testing.T) {
	srv, _ := newTestServer(t)
	status, body := rpc(t, srv, `{"jsonrpc":"2.0","method":"notifications/initialized"}`)
	assert.Equal(t, http.StatusAccepted, status)
	assert.Empty(t, body)
}

func TestServer_Batch(t *testing.T) {
	srv, _ := newTestServer(t)
	status, body := rpc(t, srv, `[
		{"jsonrpc":"2.0","id":1,"method":"ping"},
		{"jsonrpc":"2.0","method":"notifications/initialized"},
		{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"greet","arguments":{"name":"Ada"}}}
	]`)
	assert.Equal(t, http.StatusOK, status)
	var resps []Response
	require.NoError(t, json.Unmarshal(body, &resps))
	require.Len(t, resps, 2)
	assert.JSONEq(t, `1`, string(resps[0].ID))
	assert.JSONEq(t, `2`, string(resps[1].ID))
	var res CallToolResult
	require.NoError(t, json.Unmarshal(resps[1].Result, &res))
	assert.False(t, res.IsError)
	assert.JSONEq(t, `{"greeting":"hello Ada"}`, string(res.StructuredContent))
}

func TestServer_Healthz(t *testing.T) {
	srv, _ := newTestServer(t)
	res, err := srv.Client().Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.NotEmpty(t, res.Header.Get("X-Request-Id"))
}

func TestInProcess(t *testing.T) {
	p := NewInProcess(newRegistry(t))
	tools, err := p.ListTools(context.Background())
	require.NoError(t, err)
	require.Len(t, tools, 1)

	out, err := p.CallTool(context.Background(), "greet", map[string]any{"name": "Ada"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"greeting":"hello Ada"}`, string(out))
}

func TestCallToolResult_ObjectFallsBackToText(t *testing.T) {
	r := CallToolResult{Content: []Content{{Type: "text", Text: `{"a":1}`}}}
	obj, err := r.Object()
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, string(obj))

	_, err = CallToolResult{Content: []Content{{Type: "text", Text: "plain"}}}.Object()
	require.Error(t, err)
}

func TestServer_HandWrittenTool(t *testing.T) {
	mock := &testutil.MockTool{
		NameVal: "cancel_reservation",
		DescVal: "Cancels a reservation",
		ExecuteFn: func(_ context.Context, args []byte) ([]byte, error) {
			if bytes.Contains(args, []byte(`"boom"`)) {
				panic("boom")
			}
			return []byte(`{"status":"cancelled"}`), nil
		},
	}
	srv := httptest.NewServer(NewServer(testutil.NewTestRegistry(mock)).Handler())
	t.Cleanup(srv.Close)
	c := NewClient(srv.URL, WithHTTPClient(srv.Client()))
	ctx := context.Background()

	tools, err := c.ListTools(ctx)
	require.NoError(t, err)
	require.Len(t, tools, 1)
	assert.Equal(t, "cancel_reservation", tools[0].Name)
	assert.Nil(t, tools[0].Annotations)
	assert.Nil(t, tools[0].OutputSchema)

	out, err := c.CallTool(ctx, "cancel_reservation", map[string]string{"reservation_id": "abc"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"cancelled"}`, string(out))

	out, err = c.CallTool(ctx, "cancel_reservation", map[string]string{"reservation_id": "boom"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"error":"internal system error during tool execution"}`, string(out))

	calls := mock.Calls()
	require.Len(t, calls, 2)
	assert.JSONEq(t, `{"reservation_id":"abc"}`, string(calls[0]))
}
