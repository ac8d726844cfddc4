package termcore

import (
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Config carries the defaults POLL_PERIOD, HISTORY_MAX, and the global
// deadline, letting the ambient config loader (internal/config) override
// the spec's built-in constants without touching the core's contract.
type Config struct {
	HistoryMax     int
	PollPeriod     time.Duration
	CommandTimeout time.Duration // used when a caller omits an explicit timeout
	GlobalDeadline time.Duration
	ExtraShells    []string // additional basenames accepted by this Supervisor (not by the package-level ValidateShell)
}

// DefaultConfig returns the spec's built-in defaults.
func DefaultConfig() Config {
	return Config{
		HistoryMax:     defaultHistoryMax,
		PollPeriod:     defaultPollPeriod,
		CommandTimeout: 30 * time.Second,
		GlobalDeadline: 60 * time.Second,
	}
}

// CreateOptions configures Supervisor.Create. Zero values take the
// documented defaults: cols=80, rows=24, shell=platform default,
// cwd=process cwd.
type CreateOptions struct {
	Cols  int
	Rows  int
	Shell string
	CWD   string
	Env   map[string]string
	Title string
}

// Supervisor holds the registry of sessions: their lifetimes, creation,
// lookup, and fan-out cleanup. It is a plain value constructed once at
// startup and dependency-injected wherever it's needed — never a global.
type Supervisor struct {
	mu          sync.RWMutex
	sessions    map[string]*Session
	cfg         Config
	extraShells map[string]bool
}

// NewSupervisor constructs a Supervisor with the given config. Pass
// DefaultConfig() for the spec's built-in constants.
func NewSupervisor(cfg Config) *Supervisor {
	if cfg.HistoryMax <= 0 {
		cfg.HistoryMax = defaultHistoryMax
	}
	if cfg.PollPeriod <= 0 {
		cfg.PollPeriod = defaultPollPeriod
	}
	if cfg.CommandTimeout <= 0 {
		cfg.CommandTimeout = 30 * time.Second
	}
	if cfg.GlobalDeadline <= 0 {
		cfg.GlobalDeadline = 60 * time.Second
	}
	extra := make(map[string]bool, len(cfg.ExtraShells))
	for _, name := range cfg.ExtraShells {
		extra[name] = true
	}
	return &Supervisor{sessions: make(map[string]*Session), cfg: cfg, extraShells: extra}
}

func (sup *Supervisor) pollPeriod() time.Duration { return sup.cfg.PollPeriod }

// effectiveTimeout resolves a per-call timeout against the configured
// command timeout and the global deadline ceiling (per-call ∧ global 60s).
func (sup *Supervisor) effectiveTimeout(requested time.Duration) time.Duration {
	t := requested
	if t <= 0 {
		t = sup.cfg.CommandTimeout
	}
	if t > sup.cfg.GlobalDeadline {
		t = sup.cfg.GlobalDeadline
	}
	return t
}

// Create spawns a new PTY-backed session and registers it. It waits a
// short fixed grace (~100ms) after spawn before returning — not a
// correctness mechanism (the Command Engine will still detect the first
// prompt on its own), just predictability for the caller's first
// ExecuteCommand.
func (sup *Supervisor) Create(opts CreateOptions) (SessionInfo, error) {
	cols, rows := opts.Cols, opts.Rows
	if cols == 0 {
		cols = 80
	}
	if rows == 0 {
		rows = 24
	}
	shell := opts.Shell
	if shell == "" {
		shell = defaultShell()
	}
	cwd := opts.CWD
	if cwd == "" {
		if wd, err := os.Getwd(); err == nil {
			cwd = wd
		}
	}

	if err := validateShellWith(shell, sup.extraShells); err != nil {
		return SessionInfo{}, err
	}

	handle, err := spawnPTY(shell, cols, rows, cwd, opts.Env, sup.extraShells)
	if err != nil {
		return SessionInfo{}, err
	}

	id := uuid.New().String()
	sess := newSession(id, shell, cwd, opts.Env, cols, rows, sup.cfg.HistoryMax, handle, sup.removeOnExit)
	sess.SetTitle(opts.Title)

	sup.mu.Lock()
	sup.sessions[id] = sess
	sup.mu.Unlock()

	time.Sleep(100 * time.Millisecond)

	return sess.Info(), nil
}

func (sup *Supervisor) removeOnExit(id string) {
	sup.mu.Lock()
	delete(sup.sessions, id)
	sup.mu.Unlock()
}

// Get resolves a session by id, failing SESSION_NOT_FOUND if absent or
// already closed.
func (sup *Supervisor) Get(id string) (*Session, error) {
	sup.mu.RLock()
	sess, ok := sup.sessions[id]
	sup.mu.RUnlock()
	if !ok {
		return nil, errSessionNotFound(id)
	}
	return sess, nil
}

// GetInfo resolves a session by id and returns its SessionInfo snapshot.
func (sup *Supervisor) GetInfo(id string) (SessionInfo, error) {
	sess, err := sup.Get(id)
	if err != nil {
		return SessionInfo{}, err
	}
	return sess.Info(), nil
}

// List returns SessionInfo for every currently registered session.
func (sup *Supervisor) List() []SessionInfo {
	sup.mu.RLock()
	defer sup.mu.RUnlock()
	out := make([]SessionInfo, 0, len(sup.sessions))
	for _, sess := range sup.sessions {
		out = append(out, sess.Info())
	}
	return out
}

// Close closes one session by id. Subsequent lookups return
// SESSION_NOT_FOUND.
func (sup *Supervisor) Close(id string) error {
	sess, err := sup.Get(id)
	if err != nil {
		return err
	}
	sess.Close()
	sup.removeOnExit(id)
	return nil
}

// CloseAll closes every registered session concurrently, bounding wall
// clock to roughly the slowest single close rather than the sum of all of
// them — the resource-cap guarantee from the concurrency design.
func (sup *Supervisor) CloseAll() error {
	sup.mu.RLock()
	sessions := make([]*Session, 0, len(sup.sessions))
	for _, sess := range sup.sessions {
		sessions = append(sessions, sess)
	}
	sup.mu.RUnlock()

	var g errgroup.Group
	for _, sess := range sessions {
		sess := sess
		g.Go(func() error {
			sess.Close()
			sup.removeOnExit(sess.id)
			return nil
		})
	}
	return g.Wait()
}

func defaultShell() string {
	if sh := os.Getenv("SHELL"); sh != "" {
		if ValidateShell(sh) == nil {
			return sh
		}
	}
	return "bash"
}
