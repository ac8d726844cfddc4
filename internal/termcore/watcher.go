package termcore

import (
	"regexp"
	"time"
)

// Watch polls sessionId's full buffer every pollPeriod against pattern
// until it matches or the deadline passes. An empty pattern succeeds
// immediately with the current content. cancel, if non-nil, is checked at
// every tick boundary and short-circuits the poll loop.
func (sup *Supervisor) Watch(id, pattern string, timeout time.Duration, cancel <-chan struct{}) (WatchResult, error) {
	sess, err := sup.Get(id)
	if err != nil {
		return WatchResult{}, err
	}

	if pattern == "" {
		snap := sess.Snapshot()
		return WatchResult{Matched: true, Pattern: pattern, Content: snap.Content, Timestamp: time.Now()}, nil
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return WatchResult{}, newErr(KindParsingError, "invalid pattern %q: %v", pattern, err)
	}

	deadline := time.Now().Add(sup.effectiveTimeout(timeout))
	ticker := time.NewTicker(sup.pollPeriod())
	defer ticker.Stop()

	for {
		snap := sess.Snapshot()
		if re.Match(snap.Content) {
			return WatchResult{Matched: true, Pattern: pattern, Content: snap.Content, Timestamp: time.Now()}, nil
		}
		if time.Now().After(deadline) {
			return WatchResult{}, errTimeout("pattern %q not matched within %s", pattern, sup.effectiveTimeout(timeout))
		}
		select {
		case <-ticker.C:
		case <-cancel:
			return WatchResult{}, errTimeout("watch on %q cancelled before match", id)
		}
	}
}
