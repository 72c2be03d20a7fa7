package main

// track records one message for the user and reports whether they breached
// the limit. The window is pruned to the trailing spamtimewindow on every
// call, and on a breach it resets to empty, so the next message counts from
// one again.
func (t *spamTracker) track(userID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	window := append(t.messages[userID], now)

	recent := window[:0]
	for _, ts := range window {
		if now.Sub(ts) < t.window {
			recent = append(recent, ts)
		}
	}

	if len(recent) >= t.threshold {
		t.messages[userID] = nil
		return true
	}

	t.messages[userID] = recent

	return false
}
