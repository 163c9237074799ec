package info

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/omnicoach/internal/app"
	"github.com/j-veylop/omnicoach/internal/config"
	"github.com/j-veylop/omnicoach/internal/services/llm"
)

func testConfig() *config.Config {
	return &config.Config{
		DatabasePath: "/tmp/omnicoach/omnicoach.db",
		WeightsPath:  "/tmp/omnicoach/weights.toml",
		APIAddr:      "127.0.0.1:7420",
		OllamaURL:    "http://localhost:11434",
		LLMTimeout:   30 * time.Second,
	}
}

func TestNew(t *testing.T) {
	m := New(app.NewState(), testConfig(), nil)
	if m == nil {
		t.Fatal("New returned nil")
	}
	if m.Init() != nil {
		t.Error("Init without services should not load")
	}
}

func TestModel_View(t *testing.T) {
	m := New(app.NewState(), testConfig(), nil)
	m.SetSize(100, 80)

	view := m.View()
	for _, want := range []string{"/tmp/omnicoach/omnicoach.db", "127.0.0.1:7420", "30s", "Settings not loaded", "About OmniCoach"} {
		if !strings.Contains(view, want) {
			t.Errorf("View missing %q", want)
		}
	}
}

func TestModel_ViewWithoutConfig(t *testing.T) {
	m := New(app.NewState(), nil, nil)
	m.SetSize(100, 80)

	if !strings.Contains(m.View(), "Configuration not loaded") {
		t.Error("View should note the missing configuration")
	}
}

func TestModel_SettingsLoaded(t *testing.T) {
	m := New(app.NewState(), testConfig(), nil)
	m.SetSize(100, 80)

	m.Update(settingsLoadedMsg{
		settings: map[string]string{
			config.KeyMonthlyBudget: "100",
			config.KeyOpenAIAPIKey:     config.MaskSecret("sk-test-abcd1234"),
		},
		models:    []llm.LocalModel{{Name: "mistral:latest"}},
		providers: []string{"ollama", "openai", "claude"},
	})

	view := m.View()
	for _, want := range []string{config.KeyMonthlyBudget, "****1234", "mistral:latest", "ollama, openai, claude"} {
		if !strings.Contains(view, want) {
			t.Errorf("View missing %q", want)
		}
	}
	if strings.Contains(view, "sk-test") {
		t.Error("View should never show a raw credential")
	}
}

func TestModel_SettingsError(t *testing.T) {
	m := New(app.NewState(), testConfig(), nil)
	m.SetSize(100, 80)

	m.Update(settingsLoadedMsg{err: errors.New("database is locked")})
	if !strings.Contains(m.View(), "database is locked") {
		t.Error("View should show the load error")
	}
}

func TestModel_Keys(t *testing.T) {
	m := New(app.NewState(), testConfig(), nil)
	if _, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'s'}}); cmd != nil {
		t.Error("reload without services should be a no-op")
	}
	if len(m.ShortHelp()) == 0 || len(m.FullHelp()) == 0 {
		t.Error("help bindings empty")
	}
}
