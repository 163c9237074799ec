package config

import (
	"strings"
	"testing"
)

func TestParseSettings_Defaults(t *testing.T) {
	s, err := ParseSettings(nil)
	if err != nil {
		t.Fatalf("ParseSettings(nil) error = %v", err)
	}
	if s != DefaultSettings() {
		t.Errorf("ParseSettings(nil) = %+v, want defaults", s)
	}
}

func TestParseSettings_Values(t *testing.T) {
	raw := map[string]string{
		KeyMonthlyBudget:     "25.5",
		KeyBudgetWarnings:    "false",
		KeyFeedbackFrequency: "5",
		KeyAutoFeedback:      "true",
		KeyFeedbackTone:      " direct ",
		KeyDefaultLLM:        "claude",
		KeyClaudeAPIKey:      "sk-test",
	}

	s, err := ParseSettings(raw)
	if err != nil {
		t.Fatalf("ParseSettings() error = %v", err)
	}

	if s.MonthlyBudget != 25.5 {
		t.Errorf("MonthlyBudget = %v, want 25.5", s.MonthlyBudget)
	}
	if s.BudgetWarnings {
		t.Error("BudgetWarnings should be false")
	}
	if s.FeedbackFrequency != 5 {
		t.Errorf("FeedbackFrequency = %d, want 5", s.FeedbackFrequency)
	}
	if s.FeedbackTone != "direct" {
		t.Errorf("FeedbackTone = %q, want direct", s.FeedbackTone)
	}
	if s.CredentialFor(ProviderClaude) != "sk-test" {
		t.Errorf("CredentialFor(claude) = %q", s.CredentialFor(ProviderClaude))
	}
	if s.ModelFor(ProviderClaude) != "claude-3-sonnet-20240229" {
		t.Errorf("ModelFor(claude) = %q", s.ModelFor(ProviderClaude))
	}
}

func TestParseSettings_MalformedKeepsDefault(t *testing.T) {
	raw := map[string]string{
		KeyMonthlyBudget:     "lots",
		KeyFeedbackFrequency: "three",
		KeyBudgetWarnings:    "maybe",
	}

	s, err := ParseSettings(raw)
	if err == nil {
		t.Fatal("ParseSettings() should report malformed values")
	}
	for _, key := range []string{KeyMonthlyBudget, KeyFeedbackFrequency, KeyBudgetWarnings} {
		if !strings.Contains(err.Error(), key) {
			t.Errorf("error %q does not mention %s", err, key)
		}
	}

	def := DefaultSettings()
	if s.MonthlyBudget != def.MonthlyBudget || s.FeedbackFrequency != def.FeedbackFrequency || s.BudgetWarnings != def.BudgetWarnings {
		t.Errorf("malformed values should keep defaults, got %+v", s)
	}
}

func TestSettings_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Settings)
		wantErr bool
	}{
		{"Defaults", func(*Settings) {}, false},
		{"ZeroFrequency", func(s *Settings) { s.FeedbackFrequency = 0 }, false},
		{"NegativeBudget", func(s *Settings) { s.MonthlyBudget = -1 }, true},
		{"ThresholdTooHigh", func(s *Settings) { s.BudgetThreshold = 150 }, true},
		{"UnknownProvider", func(s *Settings) { s.DefaultLLM = "gemini" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultSettings()
			tt.mutate(&s)
			if err := s.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSettings_ValuesRoundTrip(t *testing.T) {
	s := DefaultSettings()
	s.OpenAIAPIKey = "sk-openai"
	s.FeedbackFrequency = 4

	values := s.Values()
	if _, ok := values[KeyClaudeAPIKey]; ok {
		t.Error("empty credential should be omitted")
	}

	back, err := ParseSettings(values)
	if err != nil {
		t.Fatalf("ParseSettings() error = %v", err)
	}
	if back != s {
		t.Errorf("round trip = %+v, want %+v", back, s)
	}
}

func TestIsSecret(t *testing.T) {
	if !IsSecret(KeyOpenAIAPIKey) || !IsSecret(KeyClaudeAPIKey) {
		t.Error("API keys should be secret")
	}
	if IsSecret(KeyMonthlyBudget) {
		t.Error("monthly_budget is not secret")
	}
}
