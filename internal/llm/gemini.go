// Package llm wraps the Gemini API behind a one-shot text Generator.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/genai"
)

const (
	// DefaultBaseURL is the public Generative Language API host.
	DefaultBaseURL = "https://generativelanguage.googleapis.com"
	// APIVersion is the API version path segment appended to the base URL.
	APIVersion = "v1beta"
	// DefaultModel is used when no model is configured.
	DefaultModel = "gemini-2.0-flash"
)

var (
	// ErrMissingKey means no API key was configured.
	ErrMissingKey = errors.New("llm: api key not configured")
	// ErrEmptyResponse means the model returned no text candidates.
	ErrEmptyResponse = errors.New("llm: empty response")
)

// Generator turns a prompt into free text.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Model is one entry of the model listing.
type Model struct {
	Name                       string
	DisplayName                string
	Description                string
	SupportedGenerationMethods []string
}

// Gemini is a Generator backed by the genai client.
type Gemini struct {
	client *genai.Client
	model  string
	log    zerolog.Logger
}

type options struct {
	model   string
	baseURL string
	timeout time.Duration
	log     zerolog.Logger
}

// Option configures a Gemini client.
type Option func(*options)

// WithModel selects the model name, with or without the "models/" prefix.
func WithModel(m string) Option {
	return func(o *options) {
		if m != "" {
			o.model = strings.TrimPrefix(m, "models/")
		}
	}
}

// WithBaseURL points the client at another host.
func WithBaseURL(u string) Option {
	return func(o *options) { o.baseURL = strings.TrimRight(u, "/") + "/" }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.log = l }
}

// NewGemini returns a client for apiKey. An empty key is allowed; every call
// then fails with ErrMissingKey.
func NewGemini(ctx context.Context, apiKey string, opts ...Option) (*Gemini, error) {
	o := options{
		model:   DefaultModel,
		baseURL: DefaultBaseURL + "/",
		timeout: 30 * time.Second,
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	g := &Gemini{model: o.model, log: o.log}
	if apiKey == "" {
		return g, nil
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: o.timeout},
		HTTPOptions: genai.HTTPOptions{
			BaseURL:    o.baseURL,
			APIVersion: APIVersion,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("llm: %w", err)
	}
	g.client = client
	return g, nil
}

// Model returns the configured model name.
func (g *Gemini) Model() string { return g.model }

// Generate sends prompt as a single user turn and returns the concatenated text
// of the first candidate.
func (g *Gemini) Generate(ctx context.Context, prompt string) (string, error) {
	if g.client == nil {
		return "", ErrMissingKey
	}
	start := time.Now()
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	g.log.Debug().Str("op", "generate").Str("model", g.model).Dur("duration", time.Since(start)).Err(err).Msg("llm request")
	if err != nil {
		return "", fmt.Errorf("llm: generate: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", ErrEmptyResponse
	}
	var b strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if p != nil {
			b.WriteString(p.Text)
		}
	}
	text := strings.TrimSpace(b.String())
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

// ListModels pages through every model visible to the key.
func (g *Gemini) ListModels(ctx context.Context) ([]Model, error) {
	if g.client == nil {
		return nil, ErrMissingKey
	}
	var out []Model
	for m, err := range g.client.Models.All(ctx) {
		if err != nil {
			return nil, fmt.Errorf("llm: list models: %w", err)
		}
		out = append(out, Model{
			Name:                       m.Name,
			DisplayName:                m.DisplayName,
			Description:                m.Description,
			SupportedGenerationMethods: m.SupportedActions,
		})
	}
	return out, nil
}

var _ Generator = (*Gemini)(nil)
