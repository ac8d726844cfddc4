package facades

import "sync"

// Clipboard stages text for a subsequent paste-as-input into a session.
// It is process-local (not the OS clipboard) — pasting across sessions
// within one termharness process, nothing more.
type Clipboard struct {
	cap Capability

	mu   sync.Mutex
	text string
}

func NewClipboard(cap Capability) *Clipboard {
	return &Clipboard{cap: cap}
}

// Copy stores text for a later Paste.
func (c *Clipboard) Copy(text string) {
	c.mu.Lock()
	c.text = text
	c.mu.Unlock()
}

// Paste writes the currently stored text into sessionID as raw input.
func (c *Clipboard) Paste(sessionID string) error {
	c.mu.Lock()
	text := c.text
	c.mu.Unlock()
	return c.cap.SendInput(sessionID, []byte(text))
}
