package termcore

import "fmt"

// keySequences is the symbolic-name → byte-sequence table from the key-name
// mapping contract. Names are matched case-sensitively as specified.
var keySequences = map[string][]byte{
	"enter":      {'\r'},
	"tab":        {'\t'},
	"space":      {' '},
	"backspace":  {'\b'},
	"delete":     {0x7F},
	"escape":     {0x1B},
	"ctrl+c":     {0x03},
	"ctrl+d":     {0x04},
	"ctrl+z":     {0x1A},
	"ctrl+l":     {0x0C},
	"arrow_up":   {0x1B, '[', 'A'},
	"arrow_down": {0x1B, '[', 'B'},
	"arrow_right": {0x1B, '[', 'C'},
	"arrow_left": {0x1B, '[', 'D'},
	"home":       {0x1B, '[', 'H'},
	"end":        {0x1B, '[', 'F'},
	"page_up":    {0x1B, '[', '5', '~'},
	"page_down":  {0x1B, '[', '6', '~'},
	"f1":         {0x1B, 'O', 'P'},
	"f2":         {0x1B, 'O', 'Q'},
	"f3":         {0x1B, 'O', 'R'},
	"f4":         {0x1B, 'O', 'S'},
	"f5":         {0x1B, '[', '1', '5', '~'},
	"f6":         {0x1B, '[', '1', '7', '~'},
	"f7":         {0x1B, '[', '1', '8', '~'},
	"f8":         {0x1B, '[', '1', '9', '~'},
	"f9":         {0x1B, '[', '2', '0', '~'},
	"f10":        {0x1B, '[', '2', '1', '~'},
	"f11":        {0x1B, '[', '2', '3', '~'},
	"f12":        {0x1B, '[', '2', '4', '~'},
}

// ResolveKey maps a symbolic key name to its byte sequence. Unknown names
// fail with INVALID_PARAMETER — the RPC surface never guesses.
func ResolveKey(name string) ([]byte, error) {
	seq, ok := keySequences[name]
	if !ok {
		return nil, errInvalidParameter("unknown key name %q", name)
	}
	out := make([]byte, len(seq))
	copy(out, seq)
	return out, nil
}

// InterruptBytes is the byte sequence sent by interrupt_command — equivalent
// to ctrl+c.
func InterruptBytes() []byte {
	return []byte{0x03}
}

func init() {
	// Fail fast in development if the table is ever edited into an
	// inconsistent state (empty sequence for a registered name).
	for name, seq := range keySequences {
		if len(seq) == 0 {
			panic(fmt.Sprintf("termcore: key %q has an empty sequence", name))
		}
	}
}
