package termcore

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/creack/pty"
)

// allowedShellBasenames is the closed set of shell basenames the adapter
// will spawn, per the external interface contract.
var allowedShellBasenames = map[string]bool{
	"bash": true, "zsh": true, "sh": true, "fish": true,
	"powershell": true, "powershell.exe": true,
	"cmd": true, "cmd.exe": true,
}

// allowedShellRoots is the set of directories a full shell path must be
// rooted at to be accepted.
var allowedShellRoots = []string{"/bin", "/usr/bin"}

// ValidateShell checks shell against the built-in allow-list: either a bare
// basename from allowedShellBasenames, or a path rooted at /bin or
// /usr/bin whose basename is in the allow-list. Supervisors with their own
// ExtraShells configured should use validateShellWith instead so the extra
// set doesn't leak across independent Supervisor instances.
func ValidateShell(shell string) error {
	return validateShellWith(shell, nil)
}

func validateShellWith(shell string, extra map[string]bool) error {
	if shell == "" {
		return errInvalidShell(shell)
	}
	base := filepath.Base(shell)
	if !allowedShellBasenames[base] && !extra[base] {
		return errInvalidShell(shell)
	}
	if base == shell {
		return nil // bare basename, e.g. "bash"
	}
	if !filepath.IsAbs(shell) {
		return errInvalidShell(shell)
	}
	for _, root := range allowedShellRoots {
		if strings.HasPrefix(shell, root+string(filepath.Separator)) {
			return nil
		}
	}
	return errInvalidShell(shell)
}

// ptyHandle wraps the OS resources backing one spawned shell: the PTY
// master file and the child process it controls.
type ptyHandle struct {
	file *os.File
	cmd  *exec.Cmd
	pid  int
}

// spawnPTY starts shell under a PTY of the given dimensions, in cwd, with
// env layered over the inherited process environment. TERM defaults to
// xterm-256color when the caller doesn't set it.
func spawnPTY(shell string, cols, rows int, cwd string, env map[string]string, extraShells map[string]bool) (*ptyHandle, error) {
	if err := validateShellWith(shell, extraShells); err != nil {
		return nil, err
	}

	cmd := exec.Command(shell)
	cmd.Dir = cwd
	cmd.Env = mergeEnv(os.Environ(), env)

	ws := &pty.Winsize{Cols: uint16(cols), Rows: uint16(rows)}
	f, err := pty.StartWithSize(cmd, ws)
	if err != nil {
		return nil, mapSpawnError(err)
	}
	return &ptyHandle{file: f, cmd: cmd, pid: cmd.Process.Pid}, nil
}

func mergeEnv(base []string, overlay map[string]string) []string {
	hasTerm := false
	for _, kv := range base {
		if strings.HasPrefix(kv, "TERM=") {
			hasTerm = true
			break
		}
	}
	out := make([]string, 0, len(base)+len(overlay)+1)
	out = append(out, base...)
	if !hasTerm {
		out = append(out, "TERM=xterm-256color")
	}
	for k, v := range overlay {
		if k == "" {
			continue
		}
		out = append(out, k+"="+v)
	}
	return out
}

// mapSpawnError translates an OS-level spawn failure into a typed core
// error per the error-handling design's adapter-boundary mapping.
func mapSpawnError(err error) *Error {
	switch {
	case errors.Is(err, syscall.ENOENT):
		return newErr(KindSessionNotFound, "shell not found: %v", err)
	case errors.Is(err, syscall.EACCES):
		return newErr(KindPermissionDenied, "permission denied spawning shell: %v", err)
	case errors.Is(err, os.ErrNotExist):
		return newErr(KindSessionNotFound, "shell not found: %v", err)
	case errors.Is(err, os.ErrPermission):
		return newErr(KindPermissionDenied, "permission denied spawning shell: %v", err)
	default:
		return newErr(KindUnknown, "spawn failed: %v", err)
	}
}

func (h *ptyHandle) write(p []byte) (int, error) {
	return h.file.Write(p)
}

func (h *ptyHandle) read(buf []byte) (int, error) {
	return h.file.Read(buf)
}

func (h *ptyHandle) resize(cols, rows int) error {
	return pty.Setsize(h.file, &pty.Winsize{Cols: uint16(cols), Rows: uint16(rows)})
}

// kill sends termination to the child and reaps it. Idempotent: calling
// it twice on an already-dead process is harmless.
func (h *ptyHandle) kill() {
	if h.cmd.Process != nil {
		_ = h.cmd.Process.Kill()
	}
	_ = h.file.Close()
	_, _ = h.cmd.Process.Wait()
}
