package llm

import (
	"context"
	"net/http"
	"strings"
)

// DefaultOpenAIURL is the OpenAI API base.
const DefaultOpenAIURL = "https://api.openai.com/v1"

// OpenAI calls the chat completions endpoint.
type OpenAI struct {
	client  *http.Client
	baseURL string
	model   string
}

// NewOpenAI creates the OpenAI provider. A nil client uses http.DefaultClient.
func NewOpenAI(baseURL, defaultModel string, client *http.Client) *OpenAI {
	if baseURL == "" {
		baseURL = DefaultOpenAIURL
	}
	if defaultModel == "" {
		defaultModel = "gpt-4"
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &OpenAI{client: client, baseURL: strings.TrimRight(baseURL, "/"), model: defaultModel}
}

func (p *OpenAI) Name() string         { return "openai" }
func (p *OpenAI) Metered() bool        { return true }
func (p *OpenAI) DefaultModel() string { return p.model }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type openAIResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

// Complete calls POST /chat/completions.
func (p *OpenAI) Complete(ctx context.Context, call Call) (Completion, error) {
	call = withDefaults(call)
	if call.Model == "" {
		call.Model = p.model
	}
	out := Completion{Model: call.Model}

	if call.Credential == "" {
		return out, &Error{
			Reason:   ReasonCredentialMissing,
			Provider: p.Name(),
			Message:  "OpenAI API key not configured. Please add it in Settings.",
		}
	}

	body := openAIRequest{
		Model:       call.Model,
		Messages:    []chatMessage{{Role: "user", Content: call.Prompt}},
		Temperature: call.Temperature,
		MaxTokens:   call.MaxTokens,
	}
	headers := map[string]string{"Authorization": "Bearer " + call.Credential}

	var resp openAIResponse
	if err := postJSON(ctx, p.client, p.Name(), p.baseURL+"/chat/completions", headers, body, &resp); err != nil {
		if _, ok := err.(*Error); ok {
			return out, err
		}
		return out, transportError(p.Name(), err)
	}

	if resp.Usage != nil {
		out.InputTokens = resp.Usage.PromptTokens
		out.OutputTokens = resp.Usage.CompletionTokens
	}
	if len(resp.Choices) == 0 {
		return out, &Error{Reason: ReasonInvalidResponse, Provider: p.Name(), Message: "response has no choices"}
	}

	out.Text = resp.Choices[0].Message.Content
	return out, nil
}
