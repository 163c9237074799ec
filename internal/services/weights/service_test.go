package weights

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/j-veylop/omnicoach/internal/models"
)

func newTestService(t *testing.T) (*Service, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "weights.toml")
	svc, err := New(path)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = svc.Close()
	})
	return svc, path
}

func TestNew_CreatesFile(t *testing.T) {
	svc, path := newTestService(t)

	_, err := os.Stat(path)
	require.NoError(t, err)
	assert.Empty(t, svc.Weights())

	select {
	case ev := <-svc.Events():
		assert.Equal(t, EventLoaded, ev.Type)
	default:
		t.Fatal("expected a loaded event")
	}
}

func TestNew_EmptyPath(t *testing.T) {
	_, err := New("")
	assert.Error(t, err)
}

func TestNew_LoadsExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weights.toml")
	content := `
[weights]
"Figma" = 85
"steam" = 5

[categories]
development = ["figma"]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	svc, err := New(path)
	require.NoError(t, err)
	defer svc.Close()

	assert.Equal(t, map[string]float64{"figma": 85, "steam": 5}, svc.Weights())
	assert.Equal(t, []string{"figma"}, svc.Categories()[models.CategoryDevelopment])
}

func TestNew_InvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weights.toml")
	require.NoError(t, os.WriteFile(path, []byte("[weights\n"), 0o600))

	_, err := New(path)
	assert.Error(t, err)
}

func TestSetWeight_Persists(t *testing.T) {
	svc, path := newTestService(t)

	require.NoError(t, svc.SetWeight("  Figma ", 85))
	assert.Error(t, svc.SetWeight("", 10))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	parsed, err := parseFile(data)
	require.NoError(t, err)
	assert.Equal(t, 85.0, parsed.Weights["figma"])
}

func TestSnapshot_IsCopy(t *testing.T) {
	svc, _ := newTestService(t)
	require.NoError(t, svc.SetWeight("figma", 85))

	snap := svc.Snapshot()
	snap.Weights["figma"] = 1

	assert.Equal(t, 85.0, svc.Weights()["figma"])
}

func TestReloadOnExternalChange(t *testing.T) {
	svc, path := newTestService(t)

	changed := make(chan File, 1)
	svc.OnChange(func(f File) {
		select {
		case changed <- f:
		default:
		}
	})

	require.NoError(t, os.WriteFile(path, []byte("[weights]\nblender = 90\n"), 0o600))

	select {
	case f := <-changed:
		assert.Equal(t, 90.0, f.Weights["blender"])
	case <-time.After(3 * time.Second):
		t.Fatal("OnChange was not called after the file changed")
	}
	assert.Equal(t, 90.0, svc.Weights()["blender"])
}

func TestClose_Idempotent(t *testing.T) {
	svc, _ := newTestService(t)
	require.NoError(t, svc.Close())
	assert.NoError(t, svc.Close())
}
