package termcore

import (
	"bytes"
	"testing"
)

func TestStripANSIRemovesCSI(t *testing.T) {
	in := []byte("\x1b[31mred\x1b[0m plain")
	got := string(StripANSI(in))
	if got != "red plain" {
		t.Errorf("StripANSI = %q, want %q", got, "red plain")
	}
}

func TestStripANSIRemovesOSCWithBEL(t *testing.T) {
	in := []byte("\x1b]0;window title\x07hello")
	got := string(StripANSI(in))
	if got != "hello" {
		t.Errorf("StripANSI = %q, want %q", got, "hello")
	}
}

func TestStripANSIRemovesOSCWithST(t *testing.T) {
	in := []byte("\x1b]0;window title\x1b\\hello")
	got := string(StripANSI(in))
	if got != "hello" {
		t.Errorf("StripANSI = %q, want %q", got, "hello")
	}
}

func TestStripANSIRemovesStringSequences(t *testing.T) {
	// DCS sequence terminated by ST, followed by plain text.
	in := append([]byte("\x1bPsome-dcs-data"), append([]byte("\x1b\\"), []byte("after")...)...)
	got := string(StripANSI(in))
	if got != "after" {
		t.Errorf("StripANSI = %q, want %q", got, "after")
	}
}

func TestStripANSIRemovesControlBytes(t *testing.T) {
	in := []byte("a\x00b\x0cc\x1fd")
	got := string(StripANSI(in))
	if got != "abcd" {
		t.Errorf("StripANSI = %q, want %q", got, "abcd")
	}
}

func TestStripANSIKeepsNewlinesAndTabs(t *testing.T) {
	in := []byte("line1\nline2\tindented")
	got := string(StripANSI(in))
	if got != string(in) {
		t.Errorf("StripANSI changed plain text: %q", got)
	}
}

func TestStripANSIIdempotent(t *testing.T) {
	in := []byte("\x1b[1;32mgreen\x1b[0m\x1b]2;title\x07 end\x7f")
	once := StripANSI(in)
	twice := StripANSI(once)
	if !bytes.Equal(once, twice) {
		t.Errorf("StripANSI not idempotent: once=%q twice=%q", once, twice)
	}
}

func TestStripANSIEmptyInput(t *testing.T) {
	if got := StripANSI(nil); len(got) != 0 {
		t.Errorf("StripANSI(nil) = %q, want empty", got)
	}
	if got := StripANSI([]byte{}); len(got) != 0 {
		t.Errorf("StripANSI([]byte{}) = %q, want empty", got)
	}
}

func TestStripANSIUnterminatedEscapeDoesNotPanic(t *testing.T) {
	// An unterminated CSI sequence falls through to the generic ESC-x
	// catch-all (consuming just ESC and the next byte); it must not panic
	// or hang regardless of exactly what it leaves behind.
	in := []byte("before\x1b[31")
	got := StripANSI(in)
	if !bytes.HasPrefix(got, []byte("before")) {
		t.Errorf("StripANSI(truncated) = %q, want prefix %q", got, "before")
	}
}

func TestStripANSILoneTrailingEscape(t *testing.T) {
	in := []byte("text\x1b")
	got := string(StripANSI(in))
	if got != "text" {
		t.Errorf("StripANSI(trailing ESC) = %q, want %q", got, "text")
	}
}
