package main

import (
	"sync"
	"time"
)

// inviteCache holds the last known invite-use snapshot for every guild, plus
// a per-guild guard so only one join at a time can run its
// fetch-diff-replace sequence.
type inviteCache struct {
	mu     sync.Mutex
	uses   map[string]map[string]int
	guards map[string]*sync.Mutex
}

func newInviteCache() *inviteCache {
	return &inviteCache{
		uses:   make(map[string]map[string]int),
		guards: make(map[string]*sync.Mutex),
	}
}

// inviteLedger counts valid attributed invites per guild and inviter.
// Entries are never removed.
type inviteLedger struct {
	mu     sync.Mutex
	counts map[string]int
}

func newInviteLedger() *inviteLedger {
	return &inviteLedger{counts: make(map[string]int)}
}

// spamTracker keeps a sliding window of message timestamps per user.
type spamTracker struct {
	mu        sync.Mutex
	messages  map[string][]time.Time
	threshold int
	window    time.Duration
	now       func() time.Time
}

func newSpamTracker(threshold int, window time.Duration) *spamTracker {
	return &spamTracker{
		messages:  make(map[string][]time.Time),
		threshold: threshold,
		window:    window,
		now:       time.Now,
	}
}
