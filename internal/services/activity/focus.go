package activity

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"time"
)

// UnknownApp is the application name used when the focused window cannot be identified.
const UnknownApp = "Unknown"

// DefaultFocusTimeout bounds a single focus query.
const DefaultFocusTimeout = 5 * time.Second

// Window identifies the focused application.
type Window struct {
	App   string
	Title string
}

// FocusProvider reports the application that currently has input focus.
type FocusProvider interface {
	ActiveWindow(ctx context.Context) (Window, error)
}

// CommandFocusProvider queries the focused window with a per-OS command.
type CommandFocusProvider struct {
	// run executes a command and returns its stdout; replaced in tests.
	run     func(ctx context.Context, name string, args ...string) ([]byte, error)
	goos    string
	Timeout time.Duration
}

// NewCommandFocusProvider returns a provider for the current platform.
func NewCommandFocusProvider() *CommandFocusProvider {
	return &CommandFocusProvider{
		run:     runCommand,
		goos:    runtime.GOOS,
		Timeout: DefaultFocusTimeout,
	}
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// ActiveWindow runs the platform query under a timeout. On failure the
// returned window is UnknownApp together with the error.
func (p *CommandFocusProvider) ActiveWindow(ctx context.Context) (Window, error) {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = DefaultFocusTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	unknown := Window{App: UnknownApp, Title: UnknownApp}

	switch p.goos {
	case "windows":
		out, err := p.run(ctx, "powershell", "-NoProfile", "-Command",
			`Get-Process | Where-Object {$_.MainWindowTitle -ne ""} | Select-Object ProcessName, MainWindowTitle | ConvertTo-Json`)
		if err != nil {
			return unknown, fmt.Errorf("failed to query focused window: %w", err)
		}
		return parsePowerShellOutput(out)

	case "darwin":
		out, err := p.run(ctx, "osascript", "-e",
			`tell application "System Events" to get name of first application process whose frontmost is true`)
		if err != nil {
			return unknown, fmt.Errorf("failed to query focused window: %w", err)
		}
		return plainWindow(out), nil

	default:
		out, err := p.run(ctx, "xdotool", "getwindowfocus", "getwindowname")
		if err != nil {
			return unknown, fmt.Errorf("failed to query focused window: %w", err)
		}
		return plainWindow(out), nil
	}
}

func plainWindow(out []byte) Window {
	name := strings.TrimSpace(string(out))
	if name == "" {
		name = UnknownApp
	}
	return Window{App: name, Title: name}
}

type psProcess struct {
	ProcessName     string `json:"ProcessName"`
	MainWindowTitle string `json:"MainWindowTitle"`
}

// parsePowerShellOutput accepts the single-object and array forms ConvertTo-Json emits.
func parsePowerShellOutput(out []byte) (Window, error) {
	unknown := Window{App: UnknownApp, Title: UnknownApp}
	trimmed := strings.TrimSpace(string(out))
	if trimmed == "" {
		return unknown, nil
	}

	var procs []psProcess
	if strings.HasPrefix(trimmed, "[") {
		if err := json.Unmarshal([]byte(trimmed), &procs); err != nil {
			return unknown, fmt.Errorf("failed to parse process list: %w", err)
		}
	} else {
		var one psProcess
		if err := json.Unmarshal([]byte(trimmed), &one); err != nil {
			return unknown, fmt.Errorf("failed to parse process list: %w", err)
		}
		procs = append(procs, one)
	}

	if len(procs) == 0 || procs[0].ProcessName == "" {
		return unknown, nil
	}
	return Window{App: procs[0].ProcessName, Title: procs[0].MainWindowTitle}, nil
}
