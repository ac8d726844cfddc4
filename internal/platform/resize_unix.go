//go:build unix

// Package platform isolates the one piece of termharness that is
// genuinely OS-specific: the signal a controlling terminal uses to tell
// its foreground process its size changed.
package platform

import (
	"os"

	"golang.org/x/sys/unix"
)

// WindowChangeSupported reports whether this platform delivers a
// terminal-resize signal at all.
const WindowChangeSupported = true

// WindowChangeSignal is the OS signal delivered when the host terminal's
// size changes. `termharness serve --attach` listens for it to propagate
// a resize into the attached session without polling.
var WindowChangeSignal os.Signal = unix.SIGWINCH

// CurrentSize reads the controlling terminal's size via TIOCGWINSZ on fd
// (typically os.Stdout.Fd()).
func CurrentSize(fd uintptr) (cols, rows int, err error) {
	ws, err := unix.IoctlGetWinsize(int(fd), unix.TIOCGWINSZ)
	if err != nil {
		return 0, 0, err
	}
	return int(ws.Col), int(ws.Row), nil
}
