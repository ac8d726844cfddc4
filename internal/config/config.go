// Package config loads termharness's YAML configuration and watches it
// for changes, keeping the Loader's current value up to date. A running
// `termharness serve` logs each reload, but the Supervisor it built at
// startup keeps the poll/history/shell-allow-list settings it was
// constructed with; those take effect only on restart.
package config

import (
	"os"
	"sync"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/ptyhost/termharness/internal/logger"
)

// Config is the on-disk settings document, overlaid on the values from
// defaults().
type Config struct {
	Server struct {
		Addr string `yaml:"addr,omitempty"` // parsed but not read by any command; serve speaks MCP over stdio only
	} `yaml:"server,omitempty"`

	Sessions struct {
		HistoryMaxBytes  int      `yaml:"history_max_bytes,omitempty"`
		PollPeriodMS     int      `yaml:"poll_period_ms,omitempty"`
		CommandTimeoutMS int      `yaml:"command_timeout_ms,omitempty"`
		GlobalDeadlineMS int      `yaml:"global_deadline_ms,omitempty"`
		ExtraShells      []string `yaml:"extra_shells,omitempty"`
		DefaultShell     string   `yaml:"default_shell,omitempty"`
	} `yaml:"sessions,omitempty"`

	Render struct {
		DefaultFormat string `yaml:"default_format,omitempty"`
		DefaultTheme  string `yaml:"default_theme,omitempty"`
		DefaultFont   int    `yaml:"default_font_size,omitempty"`
	} `yaml:"render,omitempty"`

	Log struct {
		Level string `yaml:"level,omitempty"`
	} `yaml:"log,omitempty"`
}

func defaults() Config {
	var c Config
	c.Sessions.HistoryMaxBytes = 64 * 1024
	c.Sessions.PollPeriodMS = 100
	c.Sessions.CommandTimeoutMS = 30_000
	c.Sessions.GlobalDeadlineMS = 60_000
	c.Sessions.DefaultShell = ""
	c.Render.DefaultFormat = "png"
	c.Render.DefaultTheme = "dark"
	c.Render.DefaultFont = 14
	c.Log.Level = "info"
	return c
}

// Loader loads a Config from path and keeps an atomically-swappable
// current value refreshed on file changes, mirroring the project/user
// overlay pattern but against a single watched file rather than two.
type Loader struct {
	path string

	mu      sync.Mutex
	current atomic.Pointer[Config]

	watcher   *fsnotify.Watcher
	onReload  func(*Config)
	closeOnce sync.Once
}

// NewLoader reads path once (if present; a missing file just yields
// defaults) and returns a Loader ready for Watch.
func NewLoader(path string) (*Loader, error) {
	l := &Loader{path: path}
	cfg, err := load(path)
	if err != nil {
		return nil, err
	}
	l.current.Store(cfg)
	return l, nil
}

func load(path string) (*Config, error) {
	cfg := defaults()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &cfg, nil
		}
		return nil, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Get returns the current config snapshot. Safe to call concurrently
// with a reload in progress.
func (l *Loader) Get() *Config {
	return l.current.Load()
}

// Watch starts an fsnotify watch on the config file's directory and
// reloads on any Write/Create event targeting it. onReload, if non-nil,
// is invoked with the newly loaded config after each successful reload;
// a reload that fails is logged as a warning and the previous config is
// kept in place.
func (l *Loader) Watch(onReload func(*Config)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	dir := parentDir(l.path)
	if err := w.Add(dir); err != nil {
		w.Close()
		return err
	}

	l.mu.Lock()
	l.watcher = w
	l.onReload = onReload
	l.mu.Unlock()

	go l.watchLoop(w)
	return nil
}

func (l *Loader) watchLoop(w *fsnotify.Watcher) {
	for event := range w.Events {
		if event.Name != l.path {
			continue
		}
		if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
			continue
		}
		cfg, err := load(l.path)
		if err != nil {
			logger.Warn("config reload failed, keeping previous config", "path", l.path, "err", err)
			continue // keep serving the last good config
		}
		l.current.Store(cfg)
		if l.onReload != nil {
			l.onReload(cfg)
		}
	}
}

// Close stops the underlying watcher. Idempotent.
func (l *Loader) Close() error {
	var err error
	l.closeOnce.Do(func() {
		l.mu.Lock()
		w := l.watcher
		l.mu.Unlock()
		if w != nil {
			err = w.Close()
		}
	})
	return err
}

func parentDir(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			return path[:i]
		}
	}
	return "."
}
