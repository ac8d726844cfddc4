package termcore

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"time"
)

// Envelope is the uniform RPC response shape: exactly one of Data or Error
// is populated, mirroring Success.
type Envelope struct {
	Success bool            `json:"success"`
	Data    any             `json:"data,omitempty"`
	Error   *EnvelopeError  `json:"error,omitempty"`
}

// EnvelopeError is the wire form of an *Error.
type EnvelopeError struct {
	Kind    Kind           `json:"kind"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

func ok(data any) Envelope {
	return Envelope{Success: true, Data: data}
}

func fail(err error) Envelope {
	e := AsError(err)
	return Envelope{Success: false, Error: &EnvelopeError{Kind: e.Kind, Message: e.Message, Details: e.Details}}
}

// globalDeadline caps the timeout that execute_command and
// watch_terminal_output pass to the Supervisor. Other tools run without a
// dispatch-level deadline.
const globalDeadline = 60 * time.Second

// Dispatcher adapts a Supervisor to the tool surface: typed argument
// decoding per tool name, panic recovery, and envelope formatting. It is
// the one place transport adapters (MCP stdio, HTTP, whatever) need to
// call into.
type Dispatcher struct {
	sup *Supervisor
}

// NewDispatcher wraps sup. sup is owned by the caller; Dispatcher never
// constructs or reaches for a Supervisor itself.
func NewDispatcher(sup *Supervisor) *Dispatcher {
	return &Dispatcher{sup: sup}
}

// Dispatch decodes args for toolName, invokes the matching Supervisor
// operation, and returns an Envelope — never an error; any failure,
// including a recovered panic, is folded into Envelope.Error.
func (d *Dispatcher) Dispatch(toolName string, args json.RawMessage) (env Envelope) {
	defer func() {
		if r := recover(); r != nil {
			env = fail(newErr(KindUnknown, "panic in %s: %v", toolName, r))
		}
	}()

	switch toolName {
	case "create_terminal_session":
		return d.createSession(args)
	case "list_terminal_sessions":
		return d.listSessions(args)
	case "get_terminal_session":
		return d.getSession(args)
	case "close_terminal_session":
		return d.closeSession(args)
	case "resize_terminal":
		return d.resizeTerminal(args)
	case "execute_command":
		return d.executeCommand(args)
	case "send_input":
		return d.sendInput(args)
	case "send_keys":
		return d.sendKeys(args)
	case "interrupt_command":
		return d.interruptCommand(args)
	case "get_terminal_content":
		return d.getTerminalContent(args)
	case "screenshot_terminal":
		return d.screenshotTerminal(args)
	case "get_terminal_buffer":
		return d.getTerminalBuffer(args)
	case "watch_terminal_output":
		return d.watchTerminalOutput(args)
	default:
		return fail(errInvalidParameter("unknown tool %q", toolName))
	}
}

// lastNLines returns the final n lines of content, or content unchanged
// if n is non-positive or content has n lines or fewer.
func lastNLines(content []byte, n int) []byte {
	if n <= 0 {
		return content
	}
	lines := bytes.Split(content, []byte("\n"))
	if len(lines) <= n {
		return content
	}
	return bytes.Join(lines[len(lines)-n:], []byte("\n"))
}

func decode[T any](args json.RawMessage) (T, error) {
	var v T
	if len(args) == 0 {
		return v, nil
	}
	if err := json.Unmarshal(args, &v); err != nil {
		return v, errInvalidParameter("invalid arguments: %v", err)
	}
	return v, nil
}

type createSessionArgs struct {
	Cols  int               `json:"cols"`
	Rows  int               `json:"rows"`
	Shell string            `json:"shell"`
	CWD   string             `json:"cwd"`
	Env   map[string]string `json:"env"`
	Title string            `json:"title"`
}

func (d *Dispatcher) createSession(raw json.RawMessage) Envelope {
	a, err := decode[createSessionArgs](raw)
	if err != nil {
		return fail(err)
	}
	info, err := d.sup.Create(CreateOptions{
		Cols: a.Cols, Rows: a.Rows, Shell: a.Shell, CWD: a.CWD, Env: a.Env, Title: a.Title,
	})
	if err != nil {
		return fail(err)
	}
	return ok(info)
}

func (d *Dispatcher) listSessions(raw json.RawMessage) Envelope {
	return ok(d.sup.List())
}

type sessionIDArgs struct {
	SessionID string `json:"sessionId"`
}

func (d *Dispatcher) getSession(raw json.RawMessage) Envelope {
	a, err := decode[sessionIDArgs](raw)
	if err != nil {
		return fail(err)
	}
	info, err := d.sup.GetInfo(a.SessionID)
	if err != nil {
		return fail(err)
	}
	return ok(info)
}

func (d *Dispatcher) closeSession(raw json.RawMessage) Envelope {
	a, err := decode[sessionIDArgs](raw)
	if err != nil {
		return fail(err)
	}
	if err := d.sup.Close(a.SessionID); err != nil {
		return fail(err)
	}
	return ok(map[string]bool{"closed": true})
}

type resizeArgs struct {
	SessionID string `json:"sessionId"`
	Cols      int    `json:"cols"`
	Rows      int    `json:"rows"`
}

func (d *Dispatcher) resizeTerminal(raw json.RawMessage) Envelope {
	a, err := decode[resizeArgs](raw)
	if err != nil {
		return fail(err)
	}
	sess, err := d.sup.Get(a.SessionID)
	if err != nil {
		return fail(err)
	}
	if err := sess.Resize(a.Cols, a.Rows); err != nil {
		return fail(err)
	}
	return ok(map[string]any{"sessionId": a.SessionID, "cols": a.Cols, "rows": a.Rows})
}

type executeCommandArgs struct {
	SessionID    string `json:"sessionId"`
	Command      string `json:"command"`
	TimeoutMS    int    `json:"timeoutMs"`
	ExpectOutput *bool  `json:"expectOutput"`
}

func (d *Dispatcher) executeCommand(raw json.RawMessage) Envelope {
	a, err := decode[executeCommandArgs](raw)
	if err != nil {
		return fail(err)
	}
	expect := true
	if a.ExpectOutput != nil {
		expect = *a.ExpectOutput
	}
	timeout := time.Duration(a.TimeoutMS) * time.Millisecond
	if timeout > globalDeadline {
		timeout = globalDeadline
	}
	result, err := d.sup.Execute(a.SessionID, a.Command, ExecuteOptions{Timeout: timeout, ExpectOutput: expect})
	if err != nil {
		return fail(err)
	}
	return ok(result)
}

type sendInputArgs struct {
	SessionID string `json:"sessionId"`
	Input     string `json:"input"`
}

func (d *Dispatcher) sendInput(raw json.RawMessage) Envelope {
	a, err := decode[sendInputArgs](raw)
	if err != nil {
		return fail(err)
	}
	sess, err := d.sup.Get(a.SessionID)
	if err != nil {
		return fail(err)
	}
	if err := sess.SendInput([]byte(a.Input)); err != nil {
		return fail(err)
	}
	return ok(map[string]bool{"sent": true})
}

type sendKeysArgs struct {
	SessionID string   `json:"sessionId"`
	Keys      []string `json:"keys"`
}

func (d *Dispatcher) sendKeys(raw json.RawMessage) Envelope {
	a, err := decode[sendKeysArgs](raw)
	if err != nil {
		return fail(err)
	}
	sess, err := d.sup.Get(a.SessionID)
	if err != nil {
		return fail(err)
	}
	for _, name := range a.Keys {
		seq, err := ResolveKey(name)
		if err != nil {
			return fail(err)
		}
		if err := sess.SendInput(seq); err != nil {
			return fail(err)
		}
	}
	return ok(map[string]bool{"sent": true})
}

func (d *Dispatcher) interruptCommand(raw json.RawMessage) Envelope {
	a, err := decode[sessionIDArgs](raw)
	if err != nil {
		return fail(err)
	}
	sess, err := d.sup.Get(a.SessionID)
	if err != nil {
		return fail(err)
	}
	if err := sess.SendInput(InterruptBytes()); err != nil {
		return fail(err)
	}
	return ok(map[string]bool{"interrupted": true})
}

type getContentArgs struct {
	SessionID         string `json:"sessionId"`
	LastNLines        int    `json:"lastNLines"`
	IncludeFormatting bool   `json:"includeFormatting"`
}

func (d *Dispatcher) getTerminalContent(raw json.RawMessage) Envelope {
	a, err := decode[getContentArgs](raw)
	if err != nil {
		return fail(err)
	}
	sess, err := d.sup.Get(a.SessionID)
	if err != nil {
		return fail(err)
	}
	state := sess.Snapshot()
	content := state.Content
	if !a.IncludeFormatting {
		content = StripANSI(content)
	}
	return ok(map[string]any{
		"content":    string(lastNLines(content, a.LastNLines)),
		"cursor":     state.Cursor,
		"dimensions": state.Dimensions,
	})
}

type screenshotArgs struct {
	SessionID  string `json:"sessionId"`
	Format     string `json:"format"`
	FontSize   int    `json:"fontSize"`
	FontFamily string `json:"fontFamily"`
	Theme      string `json:"theme"`
	Background string `json:"background"`
	Quality    int    `json:"quality"`
}

func (d *Dispatcher) screenshotTerminal(raw json.RawMessage) Envelope {
	a, err := decode[screenshotArgs](raw)
	if err != nil {
		return fail(err)
	}
	img, err := d.sup.Screenshot(a.SessionID, RenderOptions{
		Format: a.Format, FontSize: a.FontSize, FontFamily: a.FontFamily,
		Theme: a.Theme, Background: a.Background, Quality: a.Quality,
	})
	if err != nil {
		return fail(err)
	}
	return ok(map[string]any{
		"screenshot": base64.StdEncoding.EncodeToString(img),
		"format":     a.Format,
		"size":       len(img),
	})
}

type getBufferArgs struct {
	SessionID         string `json:"sessionId"`
	IncludeScrollback bool   `json:"includeScrollback"`
	MaxLines          int    `json:"maxLines"`
}

func (d *Dispatcher) getTerminalBuffer(raw json.RawMessage) Envelope {
	a, err := decode[getBufferArgs](raw)
	if err != nil {
		return fail(err)
	}
	sess, err := d.sup.Get(a.SessionID)
	if err != nil {
		return fail(err)
	}
	state := sess.Snapshot()
	lines := bytes.Split(state.Content, []byte("\n"))

	truncated := false
	sess.mu.Lock()
	if sess.trimmed > 0 {
		truncated = true
	}
	sess.mu.Unlock()

	if !a.IncludeScrollback {
		rows := state.Dimensions.Rows
		if rows > 0 && len(lines) > rows {
			lines = lines[len(lines)-rows:]
			truncated = true
		}
	}
	if a.MaxLines > 0 && len(lines) > a.MaxLines {
		lines = lines[len(lines)-a.MaxLines:]
		truncated = true
	}

	return ok(map[string]any{
		"buffer":    string(bytes.Join(lines, []byte("\n"))),
		"lineCount": len(lines),
		"truncated": truncated,
	})
}

type watchArgs struct {
	SessionID string `json:"sessionId"`
	Pattern   string `json:"pattern"`
	TimeoutMS int    `json:"timeoutMs"`
}

func (d *Dispatcher) watchTerminalOutput(raw json.RawMessage) Envelope {
	a, err := decode[watchArgs](raw)
	if err != nil {
		return fail(err)
	}
	timeout := time.Duration(a.TimeoutMS) * time.Millisecond
	if timeout > globalDeadline {
		timeout = globalDeadline
	}
	result, err := d.sup.Watch(a.SessionID, a.Pattern, timeout, nil)
	if err != nil {
		return fail(err)
	}
	return ok(result)
}
