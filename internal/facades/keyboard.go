package facades

import "github.com/ptyhost/termharness/internal/termcore"

// Keyboard sends named key sequences to a session through a Capability,
// without needing anything from Supervisor beyond SendInput.
type Keyboard struct {
	cap Capability
}

func NewKeyboard(cap Capability) *Keyboard {
	return &Keyboard{cap: cap}
}

// Press sends one named key (see termcore.ResolveKey for the table).
func (k *Keyboard) Press(sessionID, keyName string) error {
	seq, err := termcore.ResolveKey(keyName)
	if err != nil {
		return err
	}
	return k.cap.SendInput(sessionID, seq)
}

// Sequence sends several named keys in order, stopping at the first
// unresolved name or failed write.
func (k *Keyboard) Sequence(sessionID string, keyNames []string) error {
	for _, name := range keyNames {
		if err := k.Press(sessionID, name); err != nil {
			return err
		}
	}
	return nil
}

// Type sends literal text as raw input, letter by letter semantics are
// the PTY's concern — this just forwards the bytes.
func (k *Keyboard) Type(sessionID, text string) error {
	return k.cap.SendInput(sessionID, []byte(text))
}

// Interrupt sends Ctrl+C.
func (k *Keyboard) Interrupt(sessionID string) error {
	return k.cap.SendInput(sessionID, termcore.InterruptBytes())
}
