package termcore

import (
	"bytes"
	"regexp"
	"time"
)

// defaultPollPeriod is POLL_PERIOD — the interval Execute and Watch poll a
// session's buffer at. Overridable per Supervisor via Config.
const defaultPollPeriod = 100 * time.Millisecond

// promptDetected reports whether delta contains a prompt marker: one of the
// literal two-character sequences, or the regex applied to delta's
// ANSI-stripped form. Unlike matchesPromptMarker (used for the per-chunk
// prompt-completion log), this never synthesizes a newline — the regex
// must see a real line break in delta, otherwise a same-line echo of the
// command could never be told apart from a freshly completed prompt.
func promptDetected(delta []byte, override *regexp.Regexp) bool {
	for _, m := range promptMarkers {
		if bytes.HasSuffix(delta, m) {
			return true
		}
	}
	re := promptRegex
	if override != nil {
		re = override
	}
	return re.Match(StripANSI(delta))
}

// ExecuteOptions configures one Execute call.
type ExecuteOptions struct {
	Timeout      time.Duration
	ExpectOutput bool
}

// Execute writes command to the session and waits for the next shell
// prompt (or timeout), per the Command Engine contract:
//  1. resolve the session,
//  2. snapshot baselineLen *before* writing — otherwise the echoed command
//     itself could be mistaken for a previous prompt,
//  3. write command+"\r",
//  4. if ExpectOutput is false, return immediately,
//  5. otherwise poll every pollPeriod until a prompt marker appears in the
//     delta or the deadline passes.
//
// Execute is not reentrant on a single session: it acquires the session's
// command lane for its duration, queueing behind any Execute already in
// flight (the design's documented choice over failing outright).
func (sup *Supervisor) Execute(id, command string, opts ExecuteOptions) (CommandResult, error) {
	sess, err := sup.Get(id)
	if err != nil {
		return CommandResult{}, err
	}

	stop := make(chan struct{})
	timer := time.AfterFunc(sup.effectiveTimeout(opts.Timeout), func() { close(stop) })
	defer timer.Stop()

	if !sess.acquireCmdLane(stop) {
		return CommandResult{}, errTimeout("timed out waiting for a prior command to finish on session %q", id)
	}
	defer sess.releaseCmdLane()

	start := time.Now()
	baseline := sess.bufferLen()

	if err := sess.SendInput(append([]byte(command), '\r')); err != nil {
		return CommandResult{}, err
	}

	if !opts.ExpectOutput {
		return CommandResult{
			Command:     command,
			Output:      nil,
			Duration:    0,
			CompletedAt: time.Now(),
			ExitCode:    nil,
		}, nil
	}

	deadline := start.Add(sup.effectiveTimeout(opts.Timeout))
	ticker := time.NewTicker(sup.pollPeriod())
	defer ticker.Stop()

	for {
		delta := sess.sinceOffset(baseline)
		sess.mu.Lock()
		override := sess.promptOverride
		sess.mu.Unlock()
		if promptDetected(delta, override) {
			return CommandResult{
				Command:     command,
				Output:      trimPromptTail(delta, override),
				Duration:    time.Since(start),
				CompletedAt: time.Now(),
				ExitCode:    nil,
			}, nil
		}
		if time.Now().After(deadline) {
			return CommandResult{}, errTimeout("command %q timed out after %s", command, sup.effectiveTimeout(opts.Timeout))
		}
		<-ticker.C
	}
}

// trimPromptTail trims a trailing prompt marker and surrounding whitespace
// from delta, satisfying the "prompt-trim" invariant: the returned output
// never ends with a prompt marker or trailing whitespace.
func trimPromptTail(delta []byte, override *regexp.Regexp) []byte {
	out := delta
	for _, m := range promptMarkers {
		if bytes.HasSuffix(out, m) {
			out = out[:len(out)-len(m)]
			break
		}
	}
	re := promptRegex
	if override != nil {
		re = override
	}
	if loc := re.FindIndex(out); loc != nil && loc[1] == len(out) {
		out = out[:loc[0]]
	}
	return bytes.TrimRight(out, " \t\r\n")
}
