package termcore

import "fmt"

// Kind is the closed set of error kinds the core ever returns.
type Kind string

const (
	KindSessionNotFound  Kind = "SESSION_NOT_FOUND"
	KindCommandFailed    Kind = "COMMAND_FAILED"
	KindTimeout          Kind = "TIMEOUT_ERROR"
	KindPermissionDenied Kind = "PERMISSION_DENIED"
	KindInvalidShell     Kind = "INVALID_SHELL"
	KindScreenshotError  Kind = "SCREENSHOT_ERROR"
	KindParsingError     Kind = "PARSING_ERROR"
	KindResourceError    Kind = "RESOURCE_ERROR"
	KindInvalidParameter Kind = "INVALID_PARAMETER"
	KindUnknown          Kind = "UNKNOWN_ERROR"
)

// Error is the typed error every core operation raises. It carries enough
// structure for the RPC dispatch to translate it straight into an envelope.
type Error struct {
	Kind    Kind
	Message string
	Details map[string]any
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// WithDetail returns e with one detail key set, creating the map if needed.
// Used at construction sites that want to attach a single extra field.
func (e *Error) WithDetail(key string, value any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any, 1)
	}
	e.Details[key] = value
	return e
}

func newErr(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func errSessionNotFound(id string) *Error {
	return newErr(KindSessionNotFound, "session %q not found", id).WithDetail("sessionId", id)
}

func errInvalidShell(shell string) *Error {
	return newErr(KindInvalidShell, "shell %q is not in the allow-list", shell).WithDetail("shell", shell)
}

func errTimeout(format string, args ...any) *Error {
	return newErr(KindTimeout, format, args...)
}

func errInvalidParameter(format string, args ...any) *Error {
	return newErr(KindInvalidParameter, format, args...)
}

// AsError unwraps err into a *Error, coercing anything else to UNKNOWN_ERROR
// with the original message preserved in details — the dispatch boundary's
// last line of defense per the error-handling design.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	if e, ok := err.(*Error); ok {
		return e
	}
	return newErr(KindUnknown, "unexpected error").WithDetail("cause", err.Error())
}
