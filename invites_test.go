package main

import (
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindUsedInvite(t *testing.T) {
	old := map[string]int{"A": 1, "B": 2}
	fetched := []*discordgo.Invite{
		{Code: "A", Uses: 1, Inviter: &discordgo.User{ID: "10"}},
		{Code: "B", Uses: 3, Inviter: &discordgo.User{ID: "20"}},
	}

	used := findUsedInvite(old, fetched)
	require.NotNil(t, used)
	assert.Equal(t, "B", used.Code)
	assert.Equal(t, "20", used.Inviter.ID)
}

func TestFindUsedInviteMissingCodeCountsAsZero(t *testing.T) {
	fetched := []*discordgo.Invite{
		{Code: "new", Uses: 1, Inviter: &discordgo.User{ID: "10"}},
	}

	used := findUsedInvite(map[string]int{}, fetched)
	require.NotNil(t, used)
	assert.Equal(t, "new", used.Code)
}

func TestFindUsedInviteNoMatch(t *testing.T) {
	// A code disappearing (deleted invite) is not a use
	old := map[string]int{"A": 5}
	fetched := []*discordgo.Invite{
		{Code: "B", Uses: 0, Inviter: &discordgo.User{ID: "10"}},
	}

	assert.Nil(t, findUsedInvite(old, fetched))
}

func TestFindUsedInviteFetchOrderTieBreak(t *testing.T) {
	// Two codes grew in the same window, the first one in fetch order wins
	old := map[string]int{"A": 1, "B": 1}
	fetched := []*discordgo.Invite{
		{Code: "B", Uses: 2, Inviter: &discordgo.User{ID: "20"}},
		{Code: "A", Uses: 2, Inviter: &discordgo.User{ID: "10"}},
	}

	used := findUsedInvite(old, fetched)
	require.NotNil(t, used)
	assert.Equal(t, "B", used.Code)
}

func TestNoDoubleCount(t *testing.T) {
	c := newInviteCache()
	c.replace("g", map[string]int{"A": 1, "B": 2})

	fetched := []*discordgo.Invite{
		{Code: "A", Uses: 1, Inviter: &discordgo.User{ID: "10"}},
		{Code: "B", Uses: 3, Inviter: &discordgo.User{ID: "20"}},
	}

	require.NotNil(t, findUsedInvite(c.snapshot("g"), fetched))
	c.replace("g", snapshotOf(fetched))

	// Replaying the same fetch attributes nothing, old == new now
	assert.Nil(t, findUsedInvite(c.snapshot("g"), fetched))
	assert.Equal(t, map[string]int{"A": 1, "B": 3}, c.snapshot("g"))
}

func TestInviteCacheIncrementalEvents(t *testing.T) {
	c := newInviteCache()

	c.setUses("g", "A", 0)
	c.setUses("g", "B", 4)
	assert.Equal(t, map[string]int{"A": 0, "B": 4}, c.snapshot("g"))

	c.deleteCode("g", "A")
	assert.Equal(t, map[string]int{"B": 4}, c.snapshot("g"))

	// Deleting from a guild we never saw shouldn't blow up
	c.deleteCode("other", "X")
}

func TestInviteCacheSnapshotIsACopy(t *testing.T) {
	c := newInviteCache()
	c.setUses("g", "A", 1)

	snap := c.snapshot("g")
	snap["A"] = 99

	assert.Equal(t, map[string]int{"A": 1}, c.snapshot("g"))
}

func TestInviteCacheGuildLock(t *testing.T) {
	c := newInviteCache()

	unlock := c.lockGuild("g")
	unlock()

	// Must be reacquirable after release
	unlock = c.lockGuild("g")
	unlock()
}

func TestInviteCacheGuildLockSerializes(t *testing.T) {
	c := newInviteCache()
	unlock := c.lockGuild("g")

	acquired := make(chan struct{})
	go func() {
		u := c.lockGuild("g")
		close(acquired)
		u()
	}()

	// A second sequence for the same guild must wait for the first,
	// whether it's a join attribution or a full re-sync
	select {
	case <-acquired:
		t.Fatal("guild lock acquired while already held")
	case <-time.After(50 * time.Millisecond):
	}

	unlock()

	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("guild lock never released")
	}
}

func TestShouldGrantReward(t *testing.T) {
	// Below the threshold nothing happens
	assert.False(t, shouldGrantReward(2, 3, nil, "r1"))

	// At the threshold the role is granted
	assert.True(t, shouldGrantReward(3, 3, []string{"other"}, "r1"))

	// A fourth valid invite never attempts a duplicate grant
	assert.False(t, shouldGrantReward(4, 3, []string{"other", "r1"}, "r1"))
}

func TestLedgerIncrement(t *testing.T) {
	l := newInviteLedger()

	assert.Equal(t, 1, l.increment("g1", "u1"))
	assert.Equal(t, 2, l.increment("g1", "u1"))
	assert.Equal(t, 3, l.increment("g1", "u1"))

	// Same user in another guild counts separately
	assert.Equal(t, 1, l.increment("g2", "u1"))

	assert.Equal(t, 3, l.count("g1", "u1"))
	assert.Equal(t, 0, l.count("g1", "nobody"))
}
