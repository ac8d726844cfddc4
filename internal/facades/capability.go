// Package facades holds small, single-purpose helpers that sit in front
// of a Supervisor but never see it: each depends only on the narrow
// Capability interface below, per the re-architecture note that ancillary
// features should never reach for a peer manager or a concrete
// *termcore.Supervisor — only the slice of behavior they actually need.
package facades

import (
	"time"

	"github.com/ptyhost/termharness/internal/termcore"
)

// Capability is the entire surface an ancillary facade is allowed to
// depend on. A *termcore.Supervisor satisfies it; tests can satisfy it
// with a hand-written fake instead of a real PTY.
type Capability interface {
	Get(id string) (*termcore.Session, error)
	SendInput(id string, data []byte) error
	Snapshot(id string) (termcore.TerminalState, error)
	Resize(id string, cols, rows int) error
	Close(id string) error
}

// supervisorCapability adapts *termcore.Supervisor to Capability. The
// Supervisor itself exposes a richer surface (Create, List, Execute,
// Watch, ...); facades only ever see this adapter.
type supervisorCapability struct {
	sup *termcore.Supervisor
}

// NewCapability wraps sup as a Capability for the facades above to depend
// on instead of the full Supervisor type.
func NewCapability(sup *termcore.Supervisor) Capability {
	return &supervisorCapability{sup: sup}
}

func (c *supervisorCapability) Get(id string) (*termcore.Session, error) {
	return c.sup.Get(id)
}

func (c *supervisorCapability) SendInput(id string, data []byte) error {
	sess, err := c.sup.Get(id)
	if err != nil {
		return err
	}
	return sess.SendInput(data)
}

func (c *supervisorCapability) Snapshot(id string) (termcore.TerminalState, error) {
	sess, err := c.sup.Get(id)
	if err != nil {
		return termcore.TerminalState{}, err
	}
	return sess.Snapshot(), nil
}

func (c *supervisorCapability) Resize(id string, cols, rows int) error {
	sess, err := c.sup.Get(id)
	if err != nil {
		return err
	}
	return sess.Resize(cols, rows)
}

func (c *supervisorCapability) Close(id string) error {
	return c.sup.Close(id)
}

// clock abstracts the wall-clock time source. No facade in this package
// reads it; Keyboard sends keys without any debouncing.
type clock interface{ Now() time.Time }

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }
