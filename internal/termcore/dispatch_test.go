package termcore

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"testing"
	"time"
)

func newTestDispatcher(t *testing.T) (*Dispatcher, string) {
	t.Helper()
	sup := newTestSupervisor()
	shell := testShell(t)
	d := NewDispatcher(sup)

	env := d.Dispatch("create_terminal_session", mustJSON(t, map[string]any{"shell": shell}))
	if !env.Success {
		t.Fatalf("create_terminal_session failed: %+v", env.Error)
	}
	info, ok := env.Data.(SessionInfo)
	if !ok {
		t.Fatalf("Data = %T, want SessionInfo", env.Data)
	}
	t.Cleanup(func() { sup.CloseAll() })
	return d, info.ID
}

func mustJSON(t *testing.T, v any) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("json.Marshal: %v", err)
	}
	return b
}

func TestDispatchUnknownToolFails(t *testing.T) {
	d := NewDispatcher(newTestSupervisor())
	env := d.Dispatch("not_a_real_tool", nil)
	if env.Success {
		t.Fatal("expected failure for an unknown tool name")
	}
	if env.Error.Kind != KindInvalidParameter {
		t.Errorf("Error.Kind = %v, want %v", env.Error.Kind, KindInvalidParameter)
	}
}

func TestDispatchCreateAndListSessions(t *testing.T) {
	d, id := newTestDispatcher(t)

	env := d.Dispatch("list_terminal_sessions", nil)
	if !env.Success {
		t.Fatalf("list_terminal_sessions failed: %+v", env.Error)
	}
	list, ok := env.Data.([]SessionInfo)
	if !ok {
		t.Fatalf("Data = %T, want []SessionInfo", env.Data)
	}
	found := false
	for _, info := range list {
		if info.ID == id {
			found = true
		}
	}
	if !found {
		t.Errorf("created session %q not present in list_terminal_sessions: %+v", id, list)
	}
}

func TestDispatchMalformedArgumentsFail(t *testing.T) {
	d := NewDispatcher(newTestSupervisor())
	env := d.Dispatch("create_terminal_session", json.RawMessage(`{"cols": "not-a-number"}`))
	if env.Success {
		t.Fatal("expected failure decoding malformed arguments")
	}
	if env.Error.Kind != KindInvalidParameter {
		t.Errorf("Error.Kind = %v, want %v", env.Error.Kind, KindInvalidParameter)
	}
}

func TestDispatchGetSessionUnknownIDFails(t *testing.T) {
	d := NewDispatcher(newTestSupervisor())
	env := d.Dispatch("get_terminal_session", mustJSON(t, map[string]string{"sessionId": "does-not-exist"}))
	if env.Success {
		t.Fatal("expected failure for an unknown session id")
	}
	if env.Error.Kind != KindSessionNotFound {
		t.Errorf("Error.Kind = %v, want %v", env.Error.Kind, KindSessionNotFound)
	}
}

func TestDispatchSendInputAndGetContent(t *testing.T) {
	d, id := newTestDispatcher(t)

	env := d.Dispatch("send_input", mustJSON(t, map[string]string{"sessionId": id, "input": "echo dispatch-test\r"}))
	if !env.Success {
		t.Fatalf("send_input failed: %+v", env.Error)
	}

	env = d.Dispatch("get_terminal_content", mustJSON(t, map[string]string{"sessionId": id}))
	if !env.Success {
		t.Fatalf("get_terminal_content failed: %+v", env.Error)
	}
	if _, ok := env.Data.(map[string]any); !ok {
		t.Errorf("Data = %T, want map[string]any", env.Data)
	}
}

func TestDispatchSendKeysWithUnknownKeyFails(t *testing.T) {
	d, id := newTestDispatcher(t)

	env := d.Dispatch("send_keys", mustJSON(t, map[string]any{"sessionId": id, "keys": []string{"not_a_real_key"}}))
	if env.Success {
		t.Fatal("expected failure for an unresolvable key name")
	}
	if env.Error.Kind != KindInvalidParameter {
		t.Errorf("Error.Kind = %v, want %v", env.Error.Kind, KindInvalidParameter)
	}
}

func TestDispatchResizeTerminalReturnsFlatShape(t *testing.T) {
	d, id := newTestDispatcher(t)

	env := d.Dispatch("resize_terminal", mustJSON(t, map[string]any{"sessionId": id, "cols": 132, "rows": 43}))
	if !env.Success {
		t.Fatalf("resize_terminal failed: %+v", env.Error)
	}
	data, ok := env.Data.(map[string]any)
	if !ok {
		t.Fatalf("Data = %T, want map[string]any", env.Data)
	}
	if data["sessionId"] != id {
		t.Errorf("sessionId = %v, want %v", data["sessionId"], id)
	}
	if data["cols"] != 132 || data["rows"] != 43 {
		t.Errorf("cols/rows = %v/%v, want 132/43", data["cols"], data["rows"])
	}
}

func TestDispatchScreenshotReturnsBase64AndSize(t *testing.T) {
	d, id := newTestDispatcher(t)

	env := d.Dispatch("screenshot_terminal", mustJSON(t, map[string]string{"sessionId": id, "format": "png"}))
	if !env.Success {
		t.Fatalf("screenshot_terminal failed: %+v", env.Error)
	}
	data, ok := env.Data.(map[string]any)
	if !ok {
		t.Fatalf("Data = %T, want map[string]any", env.Data)
	}
	encoded, ok := data["screenshot"].(string)
	if !ok || encoded == "" {
		t.Fatalf("screenshot field = %v, want a non-empty base64 string", data["screenshot"])
	}
	decoded, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		t.Fatalf("screenshot field is not valid base64: %v", err)
	}
	if data["size"] != len(decoded) {
		t.Errorf("size = %v, want %d", data["size"], len(decoded))
	}
	if data["format"] != "png" {
		t.Errorf("format = %v, want png", data["format"])
	}
}

func TestDispatchGetTerminalBufferReturnsDocumentedShape(t *testing.T) {
	d, id := newTestDispatcher(t)

	env := d.Dispatch("get_terminal_buffer", mustJSON(t, map[string]any{"sessionId": id, "includeScrollback": true}))
	if !env.Success {
		t.Fatalf("get_terminal_buffer failed: %+v", env.Error)
	}
	data, ok := env.Data.(map[string]any)
	if !ok {
		t.Fatalf("Data = %T, want map[string]any", env.Data)
	}
	if _, ok := data["buffer"].(string); !ok {
		t.Errorf("buffer = %v, want a string", data["buffer"])
	}
	if _, ok := data["lineCount"].(int); !ok {
		t.Errorf("lineCount = %v, want an int", data["lineCount"])
	}
	if _, ok := data["truncated"].(bool); !ok {
		t.Errorf("truncated = %v, want a bool", data["truncated"])
	}
}

func TestDispatchGetTerminalContentHonorsLastNLines(t *testing.T) {
	d, id := newTestDispatcher(t)

	env := d.Dispatch("send_input", mustJSON(t, map[string]string{
		"sessionId": id, "input": "printf 'one\\ntwo\\nthree\\n'\r",
	}))
	if !env.Success {
		t.Fatalf("send_input failed: %+v", env.Error)
	}

	deadline := false
	var data map[string]any
	for i := 0; i < 100 && !deadline; i++ {
		env = d.Dispatch("get_terminal_content", mustJSON(t, map[string]any{"sessionId": id, "lastNLines": 1}))
		if !env.Success {
			t.Fatalf("get_terminal_content failed: %+v", env.Error)
		}
		data = env.Data.(map[string]any)
		if content, _ := data["content"].(string); bytes.Contains([]byte(content), []byte("three")) {
			deadline = true
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	content, _ := data["content"].(string)
	if bytes.Contains([]byte(content), []byte("one")) {
		t.Errorf("lastNLines: 1 should have dropped earlier lines, got %q", content)
	}
}

func TestDispatchWatchTerminalOutputEchoesPattern(t *testing.T) {
	d, id := newTestDispatcher(t)

	env := d.Dispatch("watch_terminal_output", mustJSON(t, map[string]any{"sessionId": id, "pattern": ""}))
	if !env.Success {
		t.Fatalf("watch_terminal_output failed: %+v", env.Error)
	}
	result, ok := env.Data.(WatchResult)
	if !ok {
		t.Fatalf("Data = %T, want WatchResult", env.Data)
	}
	if result.Pattern != "" {
		t.Errorf("Pattern = %q, want empty string to echo the request", result.Pattern)
	}
}

func TestDispatchCloseSession(t *testing.T) {
	d, id := newTestDispatcher(t)

	env := d.Dispatch("close_terminal_session", mustJSON(t, map[string]string{"sessionId": id}))
	if !env.Success {
		t.Fatalf("close_terminal_session failed: %+v", env.Error)
	}

	env = d.Dispatch("get_terminal_session", mustJSON(t, map[string]string{"sessionId": id}))
	if env.Success {
		t.Error("session should no longer be resolvable after close")
	}
}
