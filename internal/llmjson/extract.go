// Package llmjson recovers a JSON value from free-form model output that may wrap
// it in prose, markdown code fences, or trailing commentary.
package llmjson

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	// ErrEmpty is returned for blank input.
	ErrEmpty = errors.New("llmjson: empty input")
	// ErrNotObject is returned by ExtractObject when the recovered value is not a JSON object.
	ErrNotObject = errors.New("llmjson: value is not a JSON object")
)

var (
	fenceLine     = regexp.MustCompile("(?m)^[ \t]*```[A-Za-z0-9_+.-]*[ \t]*$")
	trailingComma = regexp.MustCompile(`,\s*([}\]])`)
)

// ParseError describes a candidate span that did not parse even after repair.
type ParseError struct {
	Candidate string
	Err       error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("llmjson: no valid JSON in response (candidate %q): %v", truncate(e.Candidate, 80), e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ExtractRaw returns the JSON span found in text, with trailing commas removed
// only if the strict parse failed. The returned bytes always satisfy json.Valid.
func ExtractRaw(text string) (json.RawMessage, error) {
	cleaned := clean(text)
	if cleaned == "" {
		return nil, ErrEmpty
	}
	candidate := span(cleaned)
	var v any
	err := json.Unmarshal([]byte(candidate), &v)
	if err == nil {
		return json.RawMessage(candidate), nil
	}
	repaired := trailingComma.ReplaceAllString(candidate, "$1")
	if json.Valid([]byte(repaired)) {
		return json.RawMessage(repaired), nil
	}
	return nil, &ParseError{Candidate: candidate, Err: err}
}

// Extract returns the decoded JSON value found in text (object, array, or scalar).
func Extract(text string) (any, error) {
	raw, err := ExtractRaw(text)
	if err != nil {
		return nil, err
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, &ParseError{Candidate: string(raw), Err: err}
	}
	return v, nil
}

// ExtractObject is Extract restricted to JSON objects.
func ExtractObject(text string) (map[string]any, error) {
	v, err := Extract(text)
	if err != nil {
		return nil, err
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: got %T", ErrNotObject, v)
	}
	return m, nil
}

func clean(text string) string {
	s := strings.TrimSpace(text)
	s = fenceLine.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)
	s = strings.Trim(s, "`")
	return strings.TrimSpace(s)
}

// span picks the outermost {...} span, then [...], then the whole text.
func span(s string) string {
	if i, j := strings.Index(s, "{"), strings.LastIndex(s, "}"); i >= 0 && j > i {
		return s[i : j+1]
	}
	if i, j := strings.Index(s, "["), strings.LastIndex(s, "]"); i >= 0 && j > i {
		return s[i : j+1]
	}
	return s
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
