// Package skills discovers SKILL.md-style agent profiles in a workspace
// directory and assembles them, plus a protocol preamble and working
// directory reminder, into the worker system prompt. Spec.md (§1) treats
// this composition as an external pure function from workspace directory to
// prompt string; this package implements that function and caches it,
// invalidating the cache on file changes via fsnotify, grounded in the
// teacher's internal/hooks/discovery.go and internal/skills/discovery.go.
package skills

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

const skillFilename = "SKILL.md"
const frontmatterDelimiter = "---"

// Metadata is a SKILL.md's YAML frontmatter. This is a different dialect
// from task.md's minimal key:value grammar (internal/tasks): full YAML,
// nested maps allowed, parsed with gopkg.in/yaml.v3 rather than the
// hand-rolled scanner tasks.Frontmatter uses.
type Metadata struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Tags        []string `yaml:"tags"`
}

// Entry is one discovered skill: its metadata plus the markdown body
// following the frontmatter.
type Entry struct {
	Metadata Metadata
	Body     string
	Path     string
}

// Discovery scans a skills directory for SKILL.md files and caches the
// scanned entries, invalidating the cache when the directory changes.
type Discovery struct {
	dir    string
	logger *slog.Logger

	mu      sync.RWMutex
	entries []Entry
	loaded  bool

	watcher *fsnotify.Watcher
}

// NewDiscovery builds a Discovery rooted at dir. It does not scan until the
// first call to Summaries or Entries.
func NewDiscovery(dir string, logger *slog.Logger) *Discovery {
	if logger == nil {
		logger = slog.Default()
	}
	return &Discovery{dir: dir, logger: logger}
}

// Watch starts an fsnotify watch on the skills directory, invalidating the
// cached scan on any write/create/remove/rename event. Callers should defer
// Close. Watch failures (e.g. directory missing) are logged, not fatal: the
// discovery then rescans on every call instead of caching.
func (d *Discovery) Watch() error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("skills: create watcher: %w", err)
	}
	if err := w.Add(d.dir); err != nil {
		d.logger.Warn("skills: watch directory failed, discovery will rescan on demand", "dir", d.dir, "error", err)
		_ = w.Close()
		return nil
	}
	d.watcher = w

	go func() {
		for {
			select {
			case event, ok := <-w.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
					d.invalidate()
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				d.logger.Warn("skills: watcher error", "error", err)
			}
		}
	}()
	return nil
}

// Close releases the fsnotify watcher, if one was started.
func (d *Discovery) Close() error {
	if d.watcher == nil {
		return nil
	}
	return d.watcher.Close()
}

func (d *Discovery) invalidate() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.loaded = false
	d.entries = nil
}

// Entries returns the discovered skills, scanning (or using the cache) as
// needed.
func (d *Discovery) Entries() ([]Entry, error) {
	d.mu.RLock()
	if d.loaded {
		entries := d.entries
		d.mu.RUnlock()
		return entries, nil
	}
	d.mu.RUnlock()

	entries, err := scan(d.dir)
	if err != nil {
		return nil, err
	}

	// Without a running watch nothing would invalidate the cache, so the
	// result is only cached while Watch is active.
	d.mu.Lock()
	d.entries = entries
	d.loaded = d.watcher != nil
	d.mu.Unlock()

	return entries, nil
}

func scan(dir string) ([]Entry, error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("skills: stat %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("skills: %s is not a directory", dir)
	}

	subdirs, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("skills: read %s: %w", dir, err)
	}

	var entries []Entry
	for _, sub := range subdirs {
		if !sub.IsDir() {
			continue
		}
		path := filepath.Join(dir, sub.Name(), skillFilename)
		data, err := os.ReadFile(path)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("skills: read %s: %w", path, err)
		}
		meta, body, err := parseSkill(data)
		if err != nil {
			return nil, fmt.Errorf("skills: parse %s: %w", path, err)
		}
		if meta.Name == "" {
			meta.Name = sub.Name()
		}
		entries = append(entries, Entry{Metadata: meta, Body: body, Path: path})
	}
	return entries, nil
}

func parseSkill(data []byte) (Metadata, string, error) {
	text := string(data)
	lines := strings.Split(text, "\n")
	if len(lines) == 0 || strings.TrimSpace(lines[0]) != frontmatterDelimiter {
		return Metadata{}, text, nil
	}

	end := -1
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == frontmatterDelimiter {
			end = i
			break
		}
	}
	if end < 0 {
		return Metadata{}, text, nil
	}

	var meta Metadata
	fmBlock := strings.Join(lines[1:end], "\n")
	if err := yaml.Unmarshal([]byte(fmBlock), &meta); err != nil {
		return Metadata{}, "", fmt.Errorf("parse frontmatter: %w", err)
	}
	body := strings.Join(lines[end+1:], "\n")
	return meta, strings.TrimSpace(body), nil
}

// Summaries renders one-line "name: description" summaries for every
// discovered skill, in discovery order.
func (d *Discovery) Summaries() (string, error) {
	entries, err := d.Entries()
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	for _, e := range entries {
		sb.WriteString(fmt.Sprintf("- %s: %s\n", e.Metadata.Name, e.Metadata.Description))
	}
	return sb.String(), nil
}
