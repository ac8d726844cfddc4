package termcore

import (
	"bytes"
	"regexp"
	"testing"
	"time"
)

func TestSessionSendInputAndSnapshot(t *testing.T) {
	sup := newTestSupervisor()
	shell := testShell(t)
	defer sup.CloseAll()

	info, err := sup.Create(CreateOptions{Shell: shell})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	sess, err := sup.Get(info.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}

	if err := sess.SendInput([]byte("echo hello-session-test\r")); err != nil {
		t.Fatalf("SendInput: %v", err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		snap := sess.Snapshot()
		if bytes.Contains(snap.Content, []byte("hello-session-test")) {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("expected output never appeared in snapshot")
}

func TestSessionSendInputAfterCloseFails(t *testing.T) {
	sup := newTestSupervisor()
	shell := testShell(t)
	info, err := sup.Create(CreateOptions{Shell: shell})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	sess, _ := sup.Get(info.ID)
	sess.Close()

	if err := sess.SendInput([]byte("echo x\r")); err == nil {
		t.Fatal("SendInput on a closed session should fail")
	}
}

func TestSessionResizeRejectsOutOfRangeDims(t *testing.T) {
	sup := newTestSupervisor()
	shell := testShell(t)
	defer sup.CloseAll()
	info, _ := sup.Create(CreateOptions{Shell: shell})
	sess, _ := sup.Get(info.ID)

	if err := sess.Resize(0, 24); err == nil {
		t.Error("Resize(0, 24) should fail")
	}
	if err := sess.Resize(80, 1001); err == nil {
		t.Error("Resize(80, 1001) should fail")
	}
	if err := sess.Resize(100, 40); err != nil {
		t.Errorf("Resize(100, 40) should succeed: %v", err)
	}
	info2 := sess.Info()
	if info2.Dimensions.Cols != 100 || info2.Dimensions.Rows != 40 {
		t.Errorf("Dimensions after Resize = %+v", info2.Dimensions)
	}
}

func TestBufferTrimKeepsOffsetsMonotonic(t *testing.T) {
	sess := &Session{historyMax: 16, state: StateActive}
	sess.cmdLane = make(chan struct{}, 1)
	sess.done = make(chan struct{})

	sess.appendOutput(bytes.Repeat([]byte("a"), 10))
	before := sess.bufferLen()
	sess.appendOutput(bytes.Repeat([]byte("b"), 10)) // pushes buffer over historyMax, triggers a trim
	after := sess.bufferLen()

	if after <= before {
		t.Fatalf("bufferLen should grow monotonically across a trim: before=%d after=%d", before, after)
	}

	// A cursor taken before the trim must still resolve to content
	// written since it, not panic or silently go out of range.
	delta := sess.sinceOffset(before)
	if !bytes.Equal(delta, bytes.Repeat([]byte("b"), 10)) {
		t.Errorf("sinceOffset after trim = %q, want the 10 b's", delta)
	}
}

func TestMatchesPromptMarkerLiteral(t *testing.T) {
	if !matchesPromptMarker([]byte("user@host:~$ "), nil) {
		t.Error("expected literal marker '$ ' to match")
	}
	if matchesPromptMarker([]byte("not a prompt"), nil) {
		t.Error("unexpected match on plain text")
	}
}

func TestMatchesPromptMarkerPerSessionOverride(t *testing.T) {
	// The override regex only replaces the regex fallback — the literal
	// two-character markers are still checked first, unconditionally.
	override := regexp.MustCompile(`\nREADY\s*$`)
	if !matchesPromptMarker([]byte("READY"), override) {
		t.Error("expected the override regex to match its own pattern")
	}
	if matchesPromptMarker([]byte("not a prompt at all"), override) {
		t.Error("unexpected match: text matches neither a literal marker nor the override")
	}
}
