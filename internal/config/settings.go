package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Settings store keys.
const (
	KeyMonthlyBudget      = "monthly_budget"
	KeyBudgetWarnings     = "budget_warnings"
	KeyBudgetThreshold    = "budget_warning_threshold"
	KeyFeedbackFrequency  = "feedback_frequency"
	KeyAutoFeedback       = "auto_feedback"
	KeyFeedbackTone       = "feedback_tone"
	KeyDefaultPersonality = "default_personality"
	KeyDefaultLLM         = "default_llm"
	KeyOllamaModel        = "ollama_model"
	KeyOpenAIModel        = "openai_model"
	KeyClaudeModel        = "claude_model"
	KeyOpenAIAPIKey       = "openai_api_key"
	KeyClaudeAPIKey       = "claude_api_key"
)

// Provider ids accepted by default_llm.
const (
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
	ProviderClaude = "claude"
)

// Settings is the typed view of the key-value settings store.
type Settings struct {
	FeedbackTone       string
	DefaultPersonality string
	DefaultLLM         string
	OllamaModel        string
	OpenAIModel        string
	ClaudeModel        string
	OpenAIAPIKey       string
	ClaudeAPIKey       string
	MonthlyBudget      float64
	BudgetThreshold    float64
	FeedbackFrequency  int
	BudgetWarnings     bool
	AutoFeedback       bool
}

// DefaultSettings returns the settings a fresh store is seeded with.
func DefaultSettings() Settings {
	return Settings{
		MonthlyBudget:      100,
		BudgetWarnings:     true,
		BudgetThreshold:    80,
		FeedbackFrequency:  3,
		AutoFeedback:       true,
		FeedbackTone:       "supportive",
		DefaultPersonality: "Coach",
		DefaultLLM:         ProviderOllama,
		OllamaModel:        "mistral",
		OpenAIModel:        "gpt-4",
		ClaudeModel:        "claude-3-sonnet-20240229",
	}
}

// ParseSettings decodes raw store values over the defaults.
// Malformed values keep their default and are reported in the returned error;
// the returned Settings is always usable.
func ParseSettings(raw map[string]string) (Settings, error) {
	s := DefaultSettings()
	var errs []error

	parseFloat := func(key string, dst *float64) {
		v, ok := raw[key]
		if !ok || strings.TrimSpace(v) == "" {
			return
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: invalid number %q", key, v))
			return
		}
		*dst = f
	}
	parseInt := func(key string, dst *int) {
		v, ok := raw[key]
		if !ok || strings.TrimSpace(v) == "" {
			return
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: invalid integer %q", key, v))
			return
		}
		*dst = n
	}
	parseBool := func(key string, dst *bool) {
		v, ok := raw[key]
		if !ok || strings.TrimSpace(v) == "" {
			return
		}
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: invalid boolean %q", key, v))
			return
		}
		*dst = b
	}
	parseString := func(key string, dst *string) {
		if v, ok := raw[key]; ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}

	parseFloat(KeyMonthlyBudget, &s.MonthlyBudget)
	parseBool(KeyBudgetWarnings, &s.BudgetWarnings)
	parseFloat(KeyBudgetThreshold, &s.BudgetThreshold)
	parseInt(KeyFeedbackFrequency, &s.FeedbackFrequency)
	parseBool(KeyAutoFeedback, &s.AutoFeedback)
	parseString(KeyFeedbackTone, &s.FeedbackTone)
	parseString(KeyDefaultPersonality, &s.DefaultPersonality)
	parseString(KeyDefaultLLM, &s.DefaultLLM)
	parseString(KeyOllamaModel, &s.OllamaModel)
	parseString(KeyOpenAIModel, &s.OpenAIModel)
	parseString(KeyClaudeModel, &s.ClaudeModel)
	parseString(KeyOpenAIAPIKey, &s.OpenAIAPIKey)
	parseString(KeyClaudeAPIKey, &s.ClaudeAPIKey)

	return s, errors.Join(errs...)
}

// Validate reports values that parse but make no sense.
func (s Settings) Validate() error {
	var errs []error
	if s.MonthlyBudget <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive, got %g", KeyMonthlyBudget, s.MonthlyBudget))
	}
	if s.BudgetThreshold < 0 || s.BudgetThreshold > 100 {
		errs = append(errs, fmt.Errorf("%s must be within 0-100, got %g", KeyBudgetThreshold, s.BudgetThreshold))
	}
	if s.FeedbackFrequency < 0 || s.FeedbackFrequency > 24 {
		errs = append(errs, fmt.Errorf("%s must be within 0-24, got %d", KeyFeedbackFrequency, s.FeedbackFrequency))
	}
	switch s.DefaultLLM {
	case ProviderOllama, ProviderOpenAI, ProviderClaude:
	default:
		errs = append(errs, fmt.Errorf("%s: unknown provider %q", KeyDefaultLLM, s.DefaultLLM))
	}
	return errors.Join(errs...)
}

// ModelFor returns the configured model id for a provider.
func (s Settings) ModelFor(provider string) string {
	switch provider {
	case ProviderOllama:
		return s.OllamaModel
	case ProviderOpenAI:
		return s.OpenAIModel
	case ProviderClaude:
		return s.ClaudeModel
	}
	return ""
}

// CredentialFor returns the stored credential for a metered provider.
func (s Settings) CredentialFor(provider string) string {
	switch provider {
	case ProviderOpenAI:
		return s.OpenAIAPIKey
	case ProviderClaude:
		return s.ClaudeAPIKey
	}
	return ""
}

// Values encodes the settings back into store form. Empty credentials are omitted.
func (s Settings) Values() map[string]string {
	v := map[string]string{
		KeyMonthlyBudget:      strconv.FormatFloat(s.MonthlyBudget, 'f', -1, 64),
		KeyBudgetWarnings:     strconv.FormatBool(s.BudgetWarnings),
		KeyBudgetThreshold:    strconv.FormatFloat(s.BudgetThreshold, 'f', -1, 64),
		KeyFeedbackFrequency:  strconv.Itoa(s.FeedbackFrequency),
		KeyAutoFeedback:       strconv.FormatBool(s.AutoFeedback),
		KeyFeedbackTone:       s.FeedbackTone,
		KeyDefaultPersonality: s.DefaultPersonality,
		KeyDefaultLLM:         s.DefaultLLM,
		KeyOllamaModel:        s.OllamaModel,
		KeyOpenAIModel:        s.OpenAIModel,
		KeyClaudeModel:        s.ClaudeModel,
	}
	if s.OpenAIAPIKey != "" {
		v[KeyOpenAIAPIKey] = s.OpenAIAPIKey
	}
	if s.ClaudeAPIKey != "" {
		v[KeyClaudeAPIKey] = s.ClaudeAPIKey
	}
	return v
}

// IsSecret reports whether a settings key holds a credential.
func IsSecret(key string) bool {
	return key == KeyOpenAIAPIKey || key == KeyClaudeAPIKey
}
