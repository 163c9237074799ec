package version

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

const scenarioEnv = "OMNICOACH_FAKE_GIT"

// TestFakeGit is re-executed as the git binary by fakeGit. It answers
// "describe" according to the scenario passed in the environment.
func TestFakeGit(t *testing.T) {
	scenario := os.Getenv(scenarioEnv)
	if scenario == "" {
		return
	}

	args := os.Args
	for i, a := range args {
		if a == "--" {
			args = args[i+1:]
			break
		}
	}

	tags := len(args) > 2 && args[2] == "--tags"
	switch {
	case scenario == "fail":
		os.Exit(1)
	case tags && scenario == "untagged":
		os.Exit(0)
	case tags:
		fmt.Fprint(os.Stdout, "v1.0.0\n")
	default:
		fmt.Fprint(os.Stdout, "abc1234-dirty\n")
	}
	os.Exit(0)
}

func fakeGit(t *testing.T, scenario string) {
	t.Helper()
	Reset()
	execCommand = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		cs := append([]string{"-test.run=TestFakeGit", "--", name}, args...)
		cmd := exec.CommandContext(ctx, os.Args[0], cs...)
		cmd.Env = append(os.Environ(), scenarioEnv+"="+scenario)
		return cmd
	}
	t.Cleanup(func() {
		execCommand = exec.CommandContext
		Reset()
	})
}

func TestResolveFromGit(t *testing.T) {
	tests := []struct {
		scenario    string
		wantVersion string
		wantCommit  string
	}{
		{"tagged", "1.0.0", "abc1234-dirty"},
		{"untagged", "dev", "abc1234-dirty"},
		{"fail", "dev", "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.scenario, func(t *testing.T) {
			fakeGit(t, tt.scenario)

			assert.Equal(t, tt.wantVersion, GetVersion())
			assert.Equal(t, tt.wantCommit, GetCommit())
			assert.Equal(t, time.Now().Format("2006-01-02"), GetDate())
		})
	}
}

func TestLdflagsWin(t *testing.T) {
	fakeGit(t, "tagged")
	Version, Commit, Date = "2.3.4", "deadbee", "2026-01-02"

	assert.Equal(t, "2.3.4", GetVersion())
	assert.Equal(t, "deadbee", GetCommit())
	assert.Equal(t, "2026-01-02", GetDate())
}

func TestResolvesOnce(t *testing.T) {
	fakeGit(t, "tagged")
	assert.Equal(t, "1.0.0", GetVersion())

	execCommand = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		t.Fatal("git should not run twice")
		return nil
	}
	assert.Equal(t, "1.0.0", GetVersion())
}

func TestInfo(t *testing.T) {
	fakeGit(t, "tagged")

	want := fmt.Sprintf("omnicoach 1.0.0 (commit: abc1234-dirty, built: %s, %s/%s)",
		time.Now().Format("2006-01-02"), runtime.GOOS, runtime.GOARCH)
	assert.Equal(t, want, Info())
}
