package termcore

import (
	"bytes"
	"regexp"
	"sync"
	"time"
)

// State is the Session lifecycle. Transitions are one-way:
// Creating -> Active -> Closing -> Closed.
type State int

const (
	StateCreating State = iota
	StateActive
	StateClosing
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateCreating:
		return "Creating"
	case StateActive:
		return "Active"
	case StateClosing:
		return "Closing"
	case StateClosed:
		return "Closed"
	default:
		return "Unknown"
	}
}

// defaultHistoryMax is HISTORY_MAX from the design — small because the
// buffer is treated as display content, not scrollback.
const defaultHistoryMax = 64 * 1024

// promptMarkers are the exact two-character sequences checked before the
// regex fallback — see matchesPromptMarker and promptDetected.
var promptMarkers = [][]byte{
	[]byte("$ "), []byte("# "), []byte("> "), []byte("% "), []byte("❯ "),
}

var promptRegex = regexp.MustCompile(`\n.*[@$#%>]\s*$`)

// Session is one PTY-backed shell: its process, rolling output buffer, and
// metadata. A Session exclusively owns its PTY handle, its reader task, and
// its buffer; consumers only ever see snapshots or typed results.
type Session struct {
	id    string
	shell string
	cwd   string
	env   map[string]string

	historyMax int

	handle *ptyHandle

	mu           sync.Mutex
	buf          []byte
	trimmed      int64 // total bytes ever trimmed from the front
	promptLog    []byte
	cols, rows   int
	title        string
	state        State
	lastActivity time.Time
	createdAt    time.Time
	promptOverride *regexp.Regexp

	// cmdLane serializes Execute calls on this session — size-1 channel
	// used as a lock that callers acquire/release around one Execute.
	cmdLane chan struct{}

	done     chan struct{} // closed once the reader task has exited
	closeMu  sync.Mutex
	closed   bool
	onExit   func(id string) // Supervisor-supplied cleanup hook, not a back-reference
}

// newSession constructs a Session around an already-spawned PTY handle and
// starts its reader task. onExit is invoked exactly once, after the reader
// task observes EOF/error and the Session has transitioned to Closed.
func newSession(id, shell, cwd string, env map[string]string, cols, rows, historyMax int, handle *ptyHandle, onExit func(string)) *Session {
	now := time.Now()
	s := &Session{
		id:           id,
		shell:        shell,
		cwd:          cwd,
		env:          env,
		historyMax:   historyMax,
		handle:       handle,
		cols:         cols,
		rows:         rows,
		state:        StateActive,
		createdAt:    now,
		lastActivity: now,
		cmdLane:      make(chan struct{}, 1),
		done:         make(chan struct{}),
		onExit:       onExit,
	}
	go s.readLoop()
	return s
}

// SetPromptOverride installs a per-session regex that replaces the built-in
// prompt regex. The literal two-character prompt markers are still checked
// first.
func (s *Session) SetPromptOverride(re *regexp.Regexp) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.promptOverride = re
}

// readLoop consumes PTY output until EOF/error, appending to the buffer
// under the session lock and updating lastActivity on every chunk.
func (s *Session) readLoop() {
	buf := make([]byte, 4096)
	for {
		n, err := s.handle.read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			s.appendOutput(chunk)
		}
		if err != nil {
			break
		}
	}
	s.transitionClosed()
}

func (s *Session) appendOutput(chunk []byte) {
	s.mu.Lock()
	s.buf = append(s.buf, chunk...)
	s.lastActivity = time.Now()
	if nl := bytes.LastIndexByte(chunk, '\n'); nl >= 0 && matchesPromptMarker(chunk[nl+1:], s.promptOverride) {
		s.promptLog = append(s.promptLog, chunk...)
	}
	s.trimIfOverCap()
	s.mu.Unlock()
}

// trimIfOverCap halves the buffer when it exceeds historyMax, keeping the
// monotonic-offset invariant by tracking bytes trimmed. Must be called with
// mu held.
func (s *Session) trimIfOverCap() {
	if len(s.buf) <= s.historyMax {
		return
	}
	cut := len(s.buf) / 2
	s.trimmed += int64(cut)
	rest := make([]byte, len(s.buf)-cut)
	copy(rest, s.buf[cut:])
	s.buf = rest
}

func (s *Session) transitionClosed() {
	s.mu.Lock()
	s.state = StateClosed
	s.mu.Unlock()
	close(s.done)
	if s.onExit != nil {
		s.onExit(s.id)
	}
}

// SendInput writes bytes to the PTY and updates lastActivity. Fails if the
// Session isn't Active.
func (s *Session) SendInput(p []byte) error {
	s.mu.Lock()
	if s.state != StateActive {
		s.mu.Unlock()
		return errSessionNotFound(s.id)
	}
	s.mu.Unlock()

	if _, err := s.handle.write(p); err != nil {
		return newErr(KindUnknown, "write to pty: %v", err)
	}
	s.mu.Lock()
	s.lastActivity = time.Now()
	s.mu.Unlock()
	return nil
}

// bufferLen returns the current absolute buffer length (trimmed-adjusted).
// Callers must treat this as an opaque cursor, never compare it across
// sessions.
func (s *Session) bufferLen() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.trimmed + int64(len(s.buf))
}

// sinceOffset returns the bytes appended since absolute offset baseline,
// accounting for any trim that has happened since. If the offset predates
// the oldest byte still held, the whole remaining buffer is returned.
func (s *Session) sinceOffset(baseline int64) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	rel := baseline - s.trimmed
	if rel < 0 {
		rel = 0
	}
	if rel >= int64(len(s.buf)) {
		return nil
	}
	out := make([]byte, len(s.buf)-int(rel))
	copy(out, s.buf[rel:])
	return out
}

// Snapshot returns a consistent point-in-time copy of the Session's
// observable state. Cursor is always the placeholder value — the Session
// does not run a VT state machine (open question, see design notes).
func (s *Session) Snapshot() TerminalState {
	s.mu.Lock()
	defer s.mu.Unlock()
	content := make([]byte, len(s.buf))
	copy(content, s.buf)
	return TerminalState{
		Content:    content,
		Cursor:     Cursor{X: 0, Y: 0, Visible: true},
		Dimensions: Dimensions{Cols: s.cols, Rows: s.rows},
	}
}

// Resize validates bounds, applies the resize at the kernel level, then
// updates metadata — in that order, so the PTY's size always equals the
// Session's declared dims immediately after Resize returns.
func (s *Session) Resize(cols, rows int) error {
	if cols < 1 || cols > 1000 || rows < 1 || rows > 1000 {
		return errInvalidParameter("cols/rows must be in [1,1000], got %dx%d", cols, rows)
	}
	s.mu.Lock()
	state := s.state
	s.mu.Unlock()
	if state != StateActive {
		return errSessionNotFound(s.id)
	}
	if err := s.handle.resize(cols, rows); err != nil {
		return newErr(KindResourceError, "resize: %v", err)
	}
	s.mu.Lock()
	s.cols, s.rows = cols, rows
	s.mu.Unlock()
	return nil
}

// SetTitle sets the display title. Independent of any terminal-emulator
// title reporting — this is caller-driven only.
func (s *Session) SetTitle(title string) {
	s.mu.Lock()
	s.title = title
	s.mu.Unlock()
}

// Close is idempotent: kills the child, waits for the reader task to
// observe EOF, and leaves the Session Closed.
func (s *Session) Close() {
	s.closeMu.Lock()
	if s.closed {
		s.closeMu.Unlock()
		return
	}
	s.closed = true
	s.closeMu.Unlock()

	s.mu.Lock()
	if s.state == StateActive {
		s.state = StateClosing
	}
	s.mu.Unlock()

	s.handle.kill()
	<-s.done
}

// Info returns the read-only SessionInfo view.
func (s *Session) Info() SessionInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SessionInfo{
		ID:           s.id,
		PID:          s.handle.pid,
		Shell:        s.shell,
		CWD:          s.cwd,
		Dimensions:   Dimensions{Cols: s.cols, Rows: s.rows},
		Title:        s.title,
		State:        s.state,
		Env:          s.env,
		CreatedAt:    s.createdAt,
		LastActivity: s.lastActivity,
	}
}

// acquireCmdLane blocks until no other Execute is in flight on this
// session, implementing "serialize per session" by queueing (the design's
// documented choice over failing outright).
func (s *Session) acquireCmdLane(stop <-chan struct{}) bool {
	select {
	case s.cmdLane <- struct{}{}:
		return true
	case <-stop:
		return false
	}
}

func (s *Session) releaseCmdLane() {
	<-s.cmdLane
}

// matchesPromptMarker reports whether buf — the tail of a chunk *after*
// its last newline — looks like a shell prompt: either it ends with one of
// the literal two-character markers, or, reconstructing the line break the
// caller split on, it satisfies the prompt regex.
func matchesPromptMarker(buf []byte, override *regexp.Regexp) bool {
	for _, m := range promptMarkers {
		if bytes.HasSuffix(buf, m) {
			return true
		}
	}
	tail := buf
	if len(tail) > 256 {
		tail = tail[len(tail)-256:]
	}
	re := promptRegex
	if override != nil {
		re = override
	}
	withNL := append([]byte("\n"), tail...)
	return re.Match(withNL)
}
