package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// maxErrorBody bounds how much of a failed response is kept for the error message
const maxErrorBody = 64 << 10

// compatTransport sits under the OpenAI-compatible clients. Failed responses
// become *APIError with their headers kept, so retry hints survive the SDK.
type compatTransport struct {
	base   http.RoundTripper
	strict bool
}

// newCompatHTTPClient returns the client handed to the eino OpenAI model
func newCompatHTTPClient(strict bool) *http.Client {
	return &http.Client{Transport: &compatTransport{base: http.DefaultTransport, strict: strict}}
}

func (t *compatTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.strict && req.Body != nil && req.Method == http.MethodPost {
		if err := strictenRequest(req); err != nil {
			return nil, err
		}
	}

	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < http.StatusBadRequest {
		return resp, nil
	}

	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return nil, &APIError{
		StatusCode: resp.StatusCode,
		Message:    errorMessage(body),
		Header:     resp.Header.Clone(),
	}
}

// errorMessage pulls error.message out of an OpenAI-style error payload
func errorMessage(body []byte) string {
	var payload struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error.Message != "" {
		return payload.Error.Message
	}
	return strings.TrimSpace(string(body))
}

// strictenRequest rewrites the JSON request body so every tool uses strict schemas
func strictenRequest(req *http.Request) error {
	raw, err := io.ReadAll(req.Body)
	req.Body.Close()
	if err != nil {
		return fmt.Errorf("failed to read request body: %w", err)
	}

	out, err := strictToolPayload(raw)
	if err != nil {
		out = raw
	}
	req.Body = io.NopCloser(bytes.NewReader(out))
	req.ContentLength = int64(len(out))
	req.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(out)), nil
	}
	return nil
}

// strictToolPayload marks each function tool strict. Strict mode requires every
// property listed as required and no additional properties, so optional fields
// are turned into nullable ones.
func strictToolPayload(raw []byte) ([]byte, error) {
	var body map[string]any
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, err
	}

	tools, ok := body["tools"].([]any)
	if !ok || len(tools) == 0 {
		return raw, nil
	}
	for _, tool := range tools {
		entry, ok := tool.(map[string]any)
		if !ok {
			continue
		}
		fn, ok := entry["function"].(map[string]any)
		if !ok {
			continue
		}
		fn["strict"] = true
		if params, ok := fn["parameters"].(map[string]any); ok {
			strictSchema(params)
		}
	}
	return json.Marshal(body)
}

func strictSchema(s map[string]any) {
	if props, ok := s["properties"].(map[string]any); ok {
		required := map[string]bool{}
		if list, ok := s["required"].([]any); ok {
			for _, r := range list {
				if name, ok := r.(string); ok {
					required[name] = true
				}
			}
		}

		names := make([]any, 0, len(props))
		for name, p := range props {
			child, ok := p.(map[string]any)
			if !ok {
				continue
			}
			strictSchema(child)
			if !required[name] {
				makeNullable(child)
			}
			names = append(names, name)
		}
		s["required"] = names
		s["additionalProperties"] = false
	}

	if items, ok := s["items"].(map[string]any); ok {
		strictSchema(items)
	}
}

func makeNullable(s map[string]any) {
	switch t := s["type"].(type) {
	case string:
		s["type"] = []any{t, "null"}
	case []any:
		for _, v := range t {
			if v == "null" {
				return
			}
		}
		s["type"] = append(t, "null")
	}
}
