// Package weights keeps the user's productivity weight overrides in a TOML
// file and reloads them when the file changes on disk.
package weights

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/fsnotify/fsnotify"

	"github.com/j-veylop/omnicoach/internal/logger"
	"github.com/j-veylop/omnicoach/internal/models"
)

// File is the on-disk layout of the overrides file.
//
//	[weights]
//	"figma" = 85
//
//	[categories]
//	development = ["figma", "terminal"]
type File struct {
	Weights    map[string]float64  `toml:"weights"`
	Categories map[string][]string `toml:"categories"`
}

// EventType defines the type of weights event.
type EventType int

const (
	EventLoaded EventType = iota
	EventChanged
	EventError
)

// Event represents a weights service event.
type Event struct {
	Error error
	Type  EventType
}

// Service owns the overrides file.
type Service struct {
	mu            sync.RWMutex
	file          File
	filePath      string
	watcher       *fsnotify.Watcher
	onChange      func(File)
	eventChan     chan Event
	stopChan      chan struct{}
	debounceTimer *time.Timer
	closeOnce     sync.Once
}

// New loads the overrides file, creating an empty one when missing, and
// starts watching it.
func New(filePath string) (*Service, error) {
	if filePath == "" {
		return nil, fmt.Errorf("weights file path is empty")
	}

	s := &Service{
		file:      emptyFile(),
		filePath:  filePath,
		eventChan: make(chan Event, 16),
		stopChan:  make(chan struct{}),
	}

	if err := os.MkdirAll(filepath.Dir(filePath), 0o750); err != nil {
		return nil, fmt.Errorf("failed to create weights directory: %w", err)
	}

	if err := s.load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load weights: %w", err)
		}
		if err := s.save(); err != nil {
			return nil, fmt.Errorf("failed to create weights file: %w", err)
		}
	}

	if err := s.startWatcher(); err != nil {
		return nil, fmt.Errorf("failed to start file watcher: %w", err)
	}

	s.sendEvent(Event{Type: EventLoaded})
	return s, nil
}

func emptyFile() File {
	return File{Weights: map[string]float64{}, Categories: map[string][]string{}}
}

// Path returns the overrides file path.
func (s *Service) Path() string {
	return s.filePath
}

// Events returns the event channel.
func (s *Service) Events() <-chan Event {
	return s.eventChan
}

// OnChange registers a callback invoked with the new contents after every reload.
func (s *Service) OnChange(fn func(File)) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

// Snapshot returns a copy of the current overrides.
func (s *Service) Snapshot() File {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyFile(s.file)
}

// Weights returns a copy of the weight overrides.
func (s *Service) Weights() map[string]float64 {
	return s.Snapshot().Weights
}

// Categories returns the extra category keywords keyed by category.
func (s *Service) Categories() map[models.Category][]string {
	snap := s.Snapshot()
	out := make(map[models.Category][]string, len(snap.Categories))
	for k, v := range snap.Categories {
		out[models.Category(strings.ToLower(k))] = v
	}
	return out
}

// SetWeight stores an override for app and writes the file.
func (s *Service) SetWeight(app string, weight float64) error {
	name := strings.ToLower(strings.TrimSpace(app))
	if name == "" {
		return fmt.Errorf("application name is empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prev, had := s.file.Weights[name]
	s.file.Weights[name] = weight
	if err := s.saveLocked(); err != nil {
		if had {
			s.file.Weights[name] = prev
		} else {
			delete(s.file.Weights, name)
		}
		return fmt.Errorf("failed to save weights: %w", err)
	}
	return nil
}

func copyFile(f File) File {
	out := emptyFile()
	for k, v := range f.Weights {
		out.Weights[k] = v
	}
	for k, v := range f.Categories {
		out.Categories[k] = append([]string(nil), v...)
	}
	return out
}

func parseFile(data []byte) (File, error) {
	f := emptyFile()
	if _, err := toml.Decode(string(data), &f); err != nil {
		return File{}, fmt.Errorf("failed to parse weights file: %w", err)
	}
	if f.Weights == nil {
		f.Weights = map[string]float64{}
	}
	if f.Categories == nil {
		f.Categories = map[string][]string{}
	}
	normalised := make(map[string]float64, len(f.Weights))
	for k, v := range f.Weights {
		normalised[strings.ToLower(strings.TrimSpace(k))] = v
	}
	f.Weights = normalised
	return f, nil
}

func (s *Service) load() error {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		return err
	}
	f, err := parseFile(data)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.file = f
	s.mu.Unlock()
	return nil
}

func (s *Service) save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked()
}

// saveLocked writes the file atomically (must hold lock).
func (s *Service) saveLocked() error {
	var buf bytes.Buffer
	buf.WriteString("# Productivity weight overrides (0-100), matched case-insensitively.\n")
	if err := toml.NewEncoder(&buf).Encode(sortedFile(s.file)); err != nil {
		return fmt.Errorf("failed to encode weights: %w", err)
	}

	tmpFile := s.filePath + ".tmp"
	if err := os.WriteFile(tmpFile, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	if err := os.Rename(tmpFile, s.filePath); err != nil {
		if removeErr := os.Remove(tmpFile); removeErr != nil {
			logger.Error("failed to remove temp file", "error", removeErr)
		}
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// sortedFile sorts category keyword lists so rewrites are stable.
func sortedFile(f File) File {
	out := copyFile(f)
	for k := range out.Categories {
		sort.Strings(out.Categories[k])
	}
	return out
}

func (s *Service) startWatcher() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	s.watcher = watcher

	// Watch the directory so atomic renames are seen.
	if err := watcher.Add(filepath.Dir(s.filePath)); err != nil {
		if closeErr := watcher.Close(); closeErr != nil {
			logger.Error("failed to close watcher", "error", closeErr)
		}
		return err
	}

	go s.watchLoop()
	return nil
}

func (s *Service) watchLoop() {
	const debounceInterval = 100 * time.Millisecond

	for {
		select {
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filepath.Base(s.filePath) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				s.mu.Lock()
				if s.debounceTimer != nil {
					s.debounceTimer.Stop()
				}
				s.debounceTimer = time.AfterFunc(debounceInterval, s.handleFileChange)
				s.mu.Unlock()
			}

		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("weights watcher error", "error", err)
			s.sendEvent(Event{Type: EventError, Error: err})

		case <-s.stopChan:
			return
		}
	}
}

func (s *Service) handleFileChange() {
	select {
	case <-s.stopChan:
		return
	default:
	}

	if err := s.load(); err != nil {
		if os.IsNotExist(err) {
			return
		}
		logger.Warn("failed to reload weights", "path", s.filePath, "error", err)
		s.sendEvent(Event{Type: EventError, Error: err})
		return
	}

	s.sendEvent(Event{Type: EventChanged})

	s.mu.RLock()
	onChange := s.onChange
	snap := copyFile(s.file)
	s.mu.RUnlock()

	if onChange != nil {
		onChange(snap)
	}
}

// sendEvent sends an event non-blocking, dropping the oldest when full.
func (s *Service) sendEvent(event Event) {
	select {
	case s.eventChan <- event:
	default:
		select {
		case <-s.eventChan:
		default:
		}
		select {
		case s.eventChan <- event:
		default:
		}
	}
}

// Close stops the file watcher. Safe to call more than once.
func (s *Service) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.stopChan)

		s.mu.Lock()
		if s.debounceTimer != nil {
			s.debounceTimer.Stop()
		}
		s.mu.Unlock()

		if s.watcher != nil {
			err = s.watcher.Close()
		}
	})
	return err
}
