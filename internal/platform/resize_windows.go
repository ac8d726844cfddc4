//go:build windows

package platform

import (
	"errors"
	"os"
)

// Windows has no SIGWINCH equivalent delivered to console processes;
// `termharness serve --attach` does not propagate host resizes into the
// attached session on this platform.
const WindowChangeSupported = false

var WindowChangeSignal os.Signal = nil

// CurrentSize is unsupported on Windows consoles through this code path;
// `serve --attach` then starts the session at 80x24.
func CurrentSize(fd uintptr) (cols, rows int, err error) {
	return 0, 0, errors.New("platform: CurrentSize unsupported on windows")
}
