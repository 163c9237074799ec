// Package llm provides one generate contract over the local and cloud
// text-generation providers, with token and cost accounting.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const (
	// DefaultMaxTokens caps the length of a completion.
	DefaultMaxTokens = 2000

	// DefaultTemperature is the sampling temperature for every provider.
	DefaultTemperature = 0.7

	// maxResponseSize bounds how much of a provider response is read.
	maxResponseSize = 4 << 20
)

// Call is one provider request.
type Call struct {
	Model       string
	Prompt      string
	Credential  string
	MaxTokens   int
	Temperature float64
}

// Completion is a provider response with the token counts it reported.
type Completion struct {
	Text         string
	Model        string
	InputTokens  int
	OutputTokens int
}

// Billed reports whether the provider charged for the call.
func (c Completion) Billed() bool {
	return c.InputTokens > 0 || c.OutputTokens > 0
}

// Provider is one text-generation backend.
type Provider interface {
	Name() string
	Metered() bool
	DefaultModel() string
	Complete(ctx context.Context, call Call) (Completion, error)
}

// Lister is implemented by providers that can enumerate installed models.
type Lister interface {
	ListModels(ctx context.Context) ([]LocalModel, error)
}

// LocalModel is a model installed on the local inference server.
type LocalModel struct {
	Name       string `json:"name"`
	ModifiedAt string `json:"modified_at,omitempty"`
	Size       int64  `json:"size,omitempty"`
}

func withDefaults(call Call) Call {
	if call.MaxTokens <= 0 {
		call.MaxTokens = DefaultMaxTokens
	}
	if call.Temperature == 0 {
		call.Temperature = DefaultTemperature
	}
	return call
}

// postJSON sends body as JSON and decodes a 2xx response into out. Non-2xx
// responses become ReasonUpstream errors carrying the status and a short body.
func postJSON(ctx context.Context, client *http.Client, provider, url string, headers map[string]string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return &Error{Reason: ReasonUpstream, Provider: provider, Message: "failed to read response", Cause: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &Error{
			Reason:     ReasonUpstream,
			Provider:   provider,
			StatusCode: resp.StatusCode,
			Message:    upstreamMessage(data),
		}
	}

	if err := json.Unmarshal(data, out); err != nil {
		return &Error{Reason: ReasonInvalidResponse, Provider: provider, Message: "malformed response body", Cause: err}
	}
	return nil
}

// upstreamMessage extracts error.message from a JSON error body, or a
// truncated copy of the raw body.
func upstreamMessage(body []byte) string {
	var env struct {
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(body, &env); err == nil && len(env.Error) > 0 {
		var obj struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(env.Error, &obj) == nil && obj.Message != "" {
			return obj.Message
		}
		var s string
		if json.Unmarshal(env.Error, &s) == nil && s != "" {
			return s
		}
	}

	msg := strings.TrimSpace(string(body))
	if len(msg) > 200 {
		msg = msg[:200] + "..."
	}
	if msg == "" {
		msg = "empty response"
	}
	return msg
}
