package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// DefaultOllamaURL is the local inference server address.
const DefaultOllamaURL = "http://localhost:11434"

// Ollama talks to a local Ollama server. It is free; token counts are estimated.
type Ollama struct {
	client  *http.Client
	baseURL string
	model   string
}

// NewOllama creates the local provider. A nil client uses http.DefaultClient.
func NewOllama(baseURL, defaultModel string, client *http.Client) *Ollama {
	if baseURL == "" {
		baseURL = DefaultOllamaURL
	}
	if defaultModel == "" {
		defaultModel = "mistral"
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &Ollama{client: client, baseURL: strings.TrimRight(baseURL, "/"), model: defaultModel}
}

func (o *Ollama) Name() string         { return "ollama" }
func (o *Ollama) Metered() bool        { return false }
func (o *Ollama) DefaultModel() string { return o.model }

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
	TopP        float64 `json:"top_p"`
	NumPredict  int     `json:"num_predict"`
}

type ollamaGenerateRequest struct {
	Model   string        `json:"model"`
	Prompt  string        `json:"prompt"`
	Options ollamaOptions `json:"options"`
	Stream  bool          `json:"stream"`
}

type ollamaGenerateResponse struct {
	Model    string `json:"model"`
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// Complete calls POST /api/generate without streaming.
func (o *Ollama) Complete(ctx context.Context, call Call) (Completion, error) {
	call = withDefaults(call)
	if call.Model == "" {
		call.Model = o.model
	}

	body := ollamaGenerateRequest{
		Model:  call.Model,
		Prompt: call.Prompt,
		Stream: false,
		Options: ollamaOptions{
			Temperature: call.Temperature,
			TopP:        0.9,
			NumPredict:  call.MaxTokens,
		},
	}

	var resp ollamaGenerateResponse
	if err := postJSON(ctx, o.client, o.Name(), o.baseURL+"/api/generate", nil, body, &resp); err != nil {
		return Completion{Model: call.Model}, o.classify(err)
	}

	return Completion{
		Text:         resp.Response,
		Model:        call.Model,
		InputTokens:  EstimateTokens(call.Prompt),
		OutputTokens: EstimateTokens(resp.Response),
	}, nil
}

func (o *Ollama) classify(err error) error {
	if _, ok := err.(*Error); ok {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return transportError(o.Name(), err)
	}
	if isConnRefused(err) {
		return &Error{
			Reason:   ReasonServerNotRunning,
			Provider: o.Name(),
			Message:  "Ollama is not running. Please start Ollama and try again.",
			Cause:    err,
		}
	}
	return transportError(o.Name(), err)
}

type ollamaTagsResponse struct {
	Models []LocalModel `json:"models"`
}

// ListModels calls GET /api/tags.
func (o *Ollama) ListModels(ctx context.Context) ([]LocalModel, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.baseURL+"/api/tags", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, o.classify(err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &Error{Reason: ReasonUpstream, Provider: o.Name(), StatusCode: resp.StatusCode, Message: upstreamMessage(data)}
	}

	var tags ollamaTagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return nil, &Error{Reason: ReasonInvalidResponse, Provider: o.Name(), Message: "malformed tags response", Cause: err}
	}
	return tags.Models, nil
}
