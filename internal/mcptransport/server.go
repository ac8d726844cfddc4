// Package mcptransport exposes the termcore RPC dispatch surface over
// the Model Context Protocol, so an MCP-speaking client can drive
// terminal sessions as tool calls. This is the one external-collaborator
// concern the core ancillary facades are deliberately kept narrow
// against — see internal/facades.
package mcptransport

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/ptyhost/termharness/internal/termcore"
)

// toolSpecs is the tool surface the server advertises, one entry per
// Dispatcher-handled tool name with its input schema.
var toolSpecs = []mcp.Tool{
	mcp.NewTool("create_terminal_session",
		mcp.WithDescription("Spawn a new PTY-backed shell session"),
		mcp.WithNumber("cols"), mcp.WithNumber("rows"),
		mcp.WithString("shell"), mcp.WithString("cwd"), mcp.WithString("title"),
	),
	mcp.NewTool("list_terminal_sessions", mcp.WithDescription("List all active sessions")),
	mcp.NewTool("get_terminal_session",
		mcp.WithDescription("Get session metadata"),
		mcp.WithString("sessionId", mcp.Required()),
	),
	mcp.NewTool("close_terminal_session",
		mcp.WithDescription("Close a session"),
		mcp.WithString("sessionId", mcp.Required()),
	),
	mcp.NewTool("resize_terminal",
		mcp.WithDescription("Resize a session's PTY"),
		mcp.WithString("sessionId", mcp.Required()),
		mcp.WithNumber("cols", mcp.Required()), mcp.WithNumber("rows", mcp.Required()),
	),
	mcp.NewTool("execute_command",
		mcp.WithDescription("Run a command and wait for the next shell prompt"),
		mcp.WithString("sessionId", mcp.Required()),
		mcp.WithString("command", mcp.Required()),
		mcp.WithNumber("timeoutMs"), mcp.WithBoolean("expectOutput"),
	),
	mcp.NewTool("send_input",
		mcp.WithDescription("Write raw bytes to a session"),
		mcp.WithString("sessionId", mcp.Required()), mcp.WithString("input", mcp.Required()),
	),
	mcp.NewTool("send_keys",
		mcp.WithDescription("Send one or more named key sequences"),
		mcp.WithString("sessionId", mcp.Required()), mcp.WithArray("keys", mcp.Required()),
	),
	mcp.NewTool("interrupt_command",
		mcp.WithDescription("Send Ctrl+C to a session"),
		mcp.WithString("sessionId", mcp.Required()),
	),
	mcp.NewTool("get_terminal_content",
		mcp.WithDescription("Get the current terminal content, ANSI-stripped by default"),
		mcp.WithString("sessionId", mcp.Required()),
		mcp.WithNumber("lastNLines"), mcp.WithBoolean("includeFormatting"),
	),
	mcp.NewTool("screenshot_terminal",
		mcp.WithDescription("Render the terminal to a PNG/JPEG image"),
		mcp.WithString("sessionId", mcp.Required()),
		mcp.WithString("format"), mcp.WithNumber("fontSize"), mcp.WithString("fontFamily"),
		mcp.WithString("theme"), mcp.WithString("background"), mcp.WithNumber("quality"),
	),
	mcp.NewTool("get_terminal_buffer",
		mcp.WithDescription("Get the session's scrollback buffer"),
		mcp.WithString("sessionId", mcp.Required()),
		mcp.WithBoolean("includeScrollback"), mcp.WithNumber("maxLines"),
	),
	mcp.NewTool("watch_terminal_output",
		mcp.WithDescription("Block until a regex pattern appears in a session's output"),
		mcp.WithString("sessionId", mcp.Required()), mcp.WithString("pattern", mcp.Required()),
		mcp.WithNumber("timeoutMs"),
	),
}

// NewServer wires dispatch into a standard mark3labs/mcp-go server: one
// generic handler shared by every registered tool, since Dispatch already
// does the per-tool argument decoding and envelope formatting.
func NewServer(dispatch *termcore.Dispatcher, name, version string) *server.MCPServer {
	s := server.NewMCPServer(name, version)
	for _, spec := range toolSpecs {
		spec := spec
		s.AddTool(spec, handlerFor(dispatch, spec.Name))
	}
	return s
}

func handlerFor(dispatch *termcore.Dispatcher, toolName string) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		raw, err := json.Marshal(req.Params.Arguments)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		env := dispatch.Dispatch(toolName, raw)
		body, err := json.Marshal(env)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if !env.Success {
			return mcp.NewToolResultError(string(body)), nil
		}
		return mcp.NewToolResultText(string(body)), nil
	}
}

// ServeStdio runs the server over stdio until the transport stops or errors
// out (e.g. the client closed stdin). ctx is not passed to the server;
// cancelling it does not stop ServeStdio.
func ServeStdio(ctx context.Context, s *server.MCPServer) error {
	return server.ServeStdio(s)
}
