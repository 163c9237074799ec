package config

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// KV is the raw key-value settings table.
type KV interface {
	AllSettings(ctx context.Context) (map[string]string, error)
	SetSetting(ctx context.Context, key, value string) error
	SeedSettings(ctx context.Context, defaults map[string]string) error
}

// Store decodes the settings table into Settings at the boundary.
type Store struct {
	kv KV
}

// NewStore wraps a settings table.
func NewStore(kv KV) *Store {
	return &Store{kv: kv}
}

// Seed stores the defaults for missing keys, then any credentials from the
// process configuration that are not already stored.
func (s *Store) Seed(ctx context.Context, cfg *Config) error {
	if err := s.kv.SeedSettings(ctx, DefaultSettings().Values()); err != nil {
		return err
	}
	if cfg == nil {
		return nil
	}

	creds := map[string]string{}
	if cfg.OpenAIAPIKey != "" {
		creds[KeyOpenAIAPIKey] = cfg.OpenAIAPIKey
	}
	if cfg.AnthropicAPIKey != "" {
		creds[KeyClaudeAPIKey] = cfg.AnthropicAPIKey
	}
	if len(creds) == 0 {
		return nil
	}
	return s.kv.SeedSettings(ctx, creds)
}

// Load returns the decoded settings. The returned Settings is usable even
// when err is non-nil: unreadable tables yield the defaults and malformed
// values keep their default.
func (s *Store) Load(ctx context.Context) (Settings, error) {
	raw, err := s.kv.AllSettings(ctx)
	if err != nil {
		return DefaultSettings(), fmt.Errorf("failed to read settings: %w", err)
	}
	return ParseSettings(raw)
}

// Raw returns the stored values with credentials masked.
func (s *Store) Raw(ctx context.Context) (map[string]string, error) {
	raw, err := s.kv.AllSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read settings: %w", err)
	}
	for k, v := range raw {
		if IsSecret(k) {
			raw[k] = MaskSecret(v)
		}
	}
	return raw, nil
}

// Set validates and stores one value.
func (s *Store) Set(ctx context.Context, key, value string) error {
	if !IsKnownKey(key) {
		return fmt.Errorf("unknown setting %q", key)
	}

	current, _ := s.Load(ctx)
	raw := current.Values()
	raw[key] = value

	next, err := ParseSettings(raw)
	if err != nil {
		return err
	}
	if err := next.Validate(); err != nil {
		return err
	}

	return s.kv.SetSetting(ctx, key, strings.TrimSpace(value))
}

// KnownKeys lists every settings key, sorted.
func KnownKeys() []string {
	keys := []string{
		KeyMonthlyBudget, KeyBudgetWarnings, KeyBudgetThreshold,
		KeyFeedbackFrequency, KeyAutoFeedback, KeyFeedbackTone,
		KeyDefaultPersonality, KeyDefaultLLM,
		KeyOllamaModel, KeyOpenAIModel, KeyClaudeModel,
		KeyOpenAIAPIKey, KeyClaudeAPIKey,
	}
	sort.Strings(keys)
	return keys
}

// IsKnownKey reports whether key is a settings key.
func IsKnownKey(key string) bool {
	for _, k := range KnownKeys() {
		if k == key {
			return true
		}
	}
	return false
}

// MaskSecret keeps the last four characters of a credential.
func MaskSecret(v string) string {
	if v == "" {
		return ""
	}
	if len(v) <= 4 {
		return "****"
	}
	return "****" + v[len(v)-4:]
}
