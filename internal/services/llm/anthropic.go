package llm

import (
	"context"
	"net/http"
	"strings"
)

const (
	// DefaultAnthropicURL is the Anthropic API base.
	DefaultAnthropicURL = "https://api.anthropic.com/v1"

	anthropicVersion = "2023-06-01"
)

// Anthropic calls the Claude messages endpoint.
type Anthropic struct {
	client  *http.Client
	baseURL string
	model   string
}

// NewAnthropic creates the Claude provider. A nil client uses http.DefaultClient.
func NewAnthropic(baseURL, defaultModel string, client *http.Client) *Anthropic {
	if baseURL == "" {
		baseURL = DefaultAnthropicURL
	}
	if defaultModel == "" {
		defaultModel = "claude-3-sonnet-20240229"
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &Anthropic{client: client, baseURL: strings.TrimRight(baseURL, "/"), model: defaultModel}
}

func (p *Anthropic) Name() string         { return "claude" }
func (p *Anthropic) Metered() bool        { return true }
func (p *Anthropic) DefaultModel() string { return p.model }

type anthropicRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature,omitempty"`
}

type anthropicResponse struct {
	Model   string `json:"model"`
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Usage *struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// Complete calls POST /messages.
func (p *Anthropic) Complete(ctx context.Context, call Call) (Completion, error) {
	call = withDefaults(call)
	if call.Model == "" {
		call.Model = p.model
	}
	out := Completion{Model: call.Model}

	if call.Credential == "" {
		return out, &Error{
			Reason:   ReasonCredentialMissing,
			Provider: p.Name(),
			Message:  "Claude API key not configured. Please add it in Settings.",
		}
	}

	body := anthropicRequest{
		Model:       call.Model,
		Messages:    []chatMessage{{Role: "user", Content: call.Prompt}},
		MaxTokens:   call.MaxTokens,
		Temperature: call.Temperature,
	}
	headers := map[string]string{
		"x-api-key":         call.Credential,
		"anthropic-version": anthropicVersion,
	}

	var resp anthropicResponse
	if err := postJSON(ctx, p.client, p.Name(), p.baseURL+"/messages", headers, body, &resp); err != nil {
		if _, ok := err.(*Error); ok {
			return out, err
		}
		return out, transportError(p.Name(), err)
	}

	if resp.Usage != nil {
		out.InputTokens = resp.Usage.InputTokens
		out.OutputTokens = resp.Usage.OutputTokens
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "" || block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return out, &Error{Reason: ReasonInvalidResponse, Provider: p.Name(), Message: "response has no text content"}
	}

	out.Text = text.String()
	return out, nil
}
