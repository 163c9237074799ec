package models

import "time"

// Request kinds recorded on usage records.
const (
	RequestKindChat     = "chat"
	RequestKindFeedback = "feedback"
)

// UsageRecord is the accounting entry of one LLM call.
type UsageRecord struct {
	Timestamp    time.Time `json:"timestamp"`
	Provider     string    `json:"provider"`
	Model        string    `json:"model"`
	RequestKind  string    `json:"request_kind"`
	RequestID    string    `json:"request_id,omitempty"`
	Error        string    `json:"error,omitempty"`
	ID           int64     `json:"id"`
	InputTokens  int       `json:"input_tokens"`
	OutputTokens int       `json:"output_tokens"`
	LatencyMs    int64     `json:"latency_ms"`
	Cost         float64   `json:"cost"`
}

// ProviderUsage aggregates usage for one provider and model in a period.
type ProviderUsage struct {
	Provider     string  `json:"provider"`
	Model        string  `json:"model"`
	Calls        int     `json:"calls"`
	InputTokens  int64   `json:"input_tokens"`
	OutputTokens int64   `json:"output_tokens"`
	Cost         float64 `json:"cost"`
}
