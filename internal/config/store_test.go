package config

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type memKV struct {
	values  map[string]string
	readErr error
}

func newMemKV() *memKV {
	return &memKV{values: map[string]string{}}
}

func (m *memKV) AllSettings(context.Context) (map[string]string, error) {
	if m.readErr != nil {
		return nil, m.readErr
	}
	out := make(map[string]string, len(m.values))
	for k, v := range m.values {
		out[k] = v
	}
	return out, nil
}

func (m *memKV) SetSetting(_ context.Context, key, value string) error {
	m.values[key] = value
	return nil
}

func (m *memKV) SeedSettings(_ context.Context, defaults map[string]string) error {
	for k, v := range defaults {
		if _, ok := m.values[k]; !ok {
			m.values[k] = v
		}
	}
	return nil
}

func TestStore_SeedAndLoad(t *testing.T) {
	kv := newMemKV()
	kv.values[KeyMonthlyBudget] = "40"
	store := NewStore(kv)
	ctx := context.Background()

	if err := store.Seed(ctx, &Config{AnthropicAPIKey: "sk-ant-123456"}); err != nil {
		t.Fatalf("Seed() failed: %v", err)
	}

	s, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if s.MonthlyBudget != 40 {
		t.Errorf("seed must not overwrite stored values, got %v", s.MonthlyBudget)
	}
	if s.FeedbackTone != "supportive" {
		t.Errorf("FeedbackTone = %q, want supportive", s.FeedbackTone)
	}
	if s.ClaudeAPIKey != "sk-ant-123456" {
		t.Errorf("credential from environment not seeded: %q", s.ClaudeAPIKey)
	}
}

func TestStore_LoadReadError(t *testing.T) {
	kv := newMemKV()
	kv.readErr = errors.New("database is locked")

	s, err := NewStore(kv).Load(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if s != DefaultSettings() {
		t.Errorf("Load() on error should return defaults, got %+v", s)
	}
}

func TestStore_Set(t *testing.T) {
	kv := newMemKV()
	store := NewStore(kv)
	ctx := context.Background()

	tests := []struct {
		key     string
		value   string
		wantErr bool
	}{
		{KeyMonthlyBudget, "25", false},
		{KeyMonthlyBudget, "lots", true},
		{KeyMonthlyBudget, "-1", true},
		{KeyDefaultLLM, "claude", false},
		{KeyDefaultLLM, "gemini", true},
		{"favourite_colour", "blue", true},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			err := store.Set(ctx, tt.key, tt.value)
			if (err != nil) != tt.wantErr {
				t.Errorf("Set(%q, %q) error = %v, wantErr %v", tt.key, tt.value, err, tt.wantErr)
			}
		})
	}

	if kv.values[KeyMonthlyBudget] != "25" || kv.values[KeyDefaultLLM] != "claude" {
		t.Errorf("stored values = %v", kv.values)
	}
}

func TestStore_RawMasksSecrets(t *testing.T) {
	kv := newMemKV()
	kv.values[KeyOpenAIAPIKey] = "sk-abcdefgh"
	kv.values[KeyFeedbackTone] = "direct"

	raw, err := NewStore(kv).Raw(context.Background())
	if err != nil {
		t.Fatalf("Raw() failed: %v", err)
	}
	if raw[KeyOpenAIAPIKey] != "****efgh" {
		t.Errorf("secret not masked: %q", raw[KeyOpenAIAPIKey])
	}
	if raw[KeyFeedbackTone] != "direct" {
		t.Errorf("plain value changed: %q", raw[KeyFeedbackTone])
	}
	if strings.Contains(raw[KeyOpenAIAPIKey], "abcd") {
		t.Error("masked value leaks the prefix")
	}
}

func TestMaskSecret(t *testing.T) {
	tests := map[string]string{
		"":          "",
		"abc":       "****",
		"sk-123456": "****3456",
	}
	for in, want := range tests {
		if got := MaskSecret(in); got != want {
			t.Errorf("MaskSecret(%q) = %q, want %q", in, got, want)
		}
	}
}
