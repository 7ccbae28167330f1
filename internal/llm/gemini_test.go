package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGemini(t *testing.T, h http.HandlerFunc, opts ...Option) *Gemini {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	g, err := NewGemini(context.Background(), "k", append([]Option{WithBaseURL(srv.URL)}, opts...)...)
	require.NoError(t, err)
	return g
}

func TestGenerate(t *testing.T) {
	g := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1beta/models/gemini-test:generateContent", r.URL.Path)
		assert.Equal(t, "k", r.Header.Get("x-goog-api-key"))
		var req struct {
			Contents []struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"contents"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if assert.Len(t, req.Contents, 1) && assert.NotEmpty(t, req.Contents[0].Parts) {
			assert.Equal(t, "hello", req.Contents[0].Parts[0].Text)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"{\"location\":"},{"text":"\"Paris\"}\n"}]}}]}`))
	}, WithModel("models/gemini-test"))

	assert.Equal(t, "gemini-test", g.Model())
	got, err := g.Generate(context.Background(), "hello")
	require.NoError(t, err)
	assert.JSONEq(t, `{"location":"Paris"}`, got)
}

func TestGenerate_Empty(t *testing.T) {
	g := newTestGemini(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[]}`))
	})
	_, err := g.Generate(context.Background(), "x")
	require.ErrorIs(t, err, ErrEmptyResponse)
}

func TestGenerate_APIError(t *testing.T) {
	g := newTestGemini(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"code":403,"message":"API key not valid","status":"PERMISSION_DENIED"}}`))
	})
	_, err := g.Generate(context.Background(), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key not valid")
}

func TestGenerate_MissingKey(t *testing.T) {
	g, err := NewGemini(context.Background(), "")
	require.NoError(t, err)
	_, err = g.Generate(context.Background(), "x")
	require.ErrorIs(t, err, ErrMissingKey)
	_, err = g.ListModels(context.Background())
	require.ErrorIs(t, err, ErrMissingKey)
}

func TestListModels_Pages(t *testing.T) {
	g := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v1beta/models", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Query().Get("pageToken") {
		case "":
			_, _ = w.Write([]byte(`{"models":[{"name":"models/a","displayName":"A","supportedGenerationMethods":["generateContent"]}],"nextPageToken":"p2"}`))
		case "p2":
			_, _ = w.Write([]byte(`{"models":[{"name":"models/b"}]}`))
		default:
			t.Errorf("unexpected page token %q", r.URL.Query().Get("pageToken"))
		}
	})
	models, err := g.ListModels(context.Background())
	require.NoError(t, err)
	require.Len(t, models, 2)
	assert.Equal(t, "models/a", models[0].Name)
	assert.Equal(t, "A", models[0].DisplayName)
	assert.Equal(t, []string{"generateContent"}, models[0].SupportedGenerationMethods)
	assert.Equal(t, "models/b", models[1].Name)
}
