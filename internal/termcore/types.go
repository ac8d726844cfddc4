package termcore

import "time"

// Dimensions is a cols/rows pair shared across Session, TerminalState, and
// resize requests.
type Dimensions struct {
	Cols int `json:"cols"`
	Rows int `json:"rows"`
}

// Cursor is the best-effort cursor position reported in a TerminalState.
// Per the design notes, the core does not run a VT state machine, so this
// is always the placeholder (0,0,visible=true) — see Session.Snapshot.
type Cursor struct {
	X       int  `json:"x"`
	Y       int  `json:"y"`
	Visible bool `json:"visible"`
}

// SessionInfo is the read-only view of a Session returned by the
// Supervisor's Create/Get/List operations — never a reference into the
// Session's interior.
type SessionInfo struct {
	ID           string            `json:"id"`
	PID          int               `json:"pid"`
	Shell        string            `json:"shell"`
	CWD          string            `json:"cwd"`
	Dimensions   Dimensions        `json:"dimensions"`
	Title        string            `json:"title,omitempty"`
	State        State             `json:"state"`
	Env          map[string]string `json:"env,omitempty"`
	CreatedAt    time.Time         `json:"createdAt"`
	LastActivity time.Time         `json:"lastActivity"`
}

// CommandResult is the outcome of Execute. ExitCode is always nil — see
// the design notes on why the core cannot recover a per-command exit code
// from a bare PTY without mutating shell state.
type CommandResult struct {
	Command     string    `json:"command"`
	Output      []byte    `json:"output"`
	Duration    time.Duration `json:"duration"`
	CompletedAt time.Time `json:"completedAt"`
	ExitCode    *int      `json:"exitCode"`
}

// TerminalState is a consistent, point-in-time snapshot of a Session's
// observable state.
type TerminalState struct {
	Content    []byte     `json:"content"`
	Cursor     Cursor     `json:"cursor"`
	Dimensions Dimensions `json:"dimensions"`
}

// WatchResult is the outcome of Watch.
type WatchResult struct {
	Matched   bool      `json:"matched"`
	Pattern   string    `json:"pattern"`
	Content   []byte    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}
