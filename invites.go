package main

import (
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/bwmarrin/lit"
)

// lockGuild blocks until no other attribution sequence is running for the
// guild, and returns the function that releases it.
func (c *inviteCache) lockGuild(guildID string) func() {
	c.mu.Lock()
	g := c.guards[guildID]
	if g == nil {
		g = &sync.Mutex{}
		c.guards[guildID] = g
	}
	c.mu.Unlock()

	g.Lock()
	return g.Unlock
}

// snapshot returns a copy of the stored uses for a guild, empty if we never
// loaded it.
func (c *inviteCache) snapshot(guildID string) map[string]int {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make(map[string]int, len(c.uses[guildID]))
	for code, uses := range c.uses[guildID] {
		out[code] = uses
	}

	return out
}

func (c *inviteCache) replace(guildID string, snap map[string]int) {
	c.mu.Lock()
	c.uses[guildID] = snap
	c.mu.Unlock()
}

func (c *inviteCache) setUses(guildID, code string, uses int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.uses[guildID] == nil {
		c.uses[guildID] = make(map[string]int)
	}
	c.uses[guildID][code] = uses
}

func (c *inviteCache) deleteCode(guildID, code string) {
	c.mu.Lock()
	delete(c.uses[guildID], code)
	c.mu.Unlock()
}

// snapshotOf flattens a fetched invite list into a code → uses map.
func snapshotOf(invites []*discordgo.Invite) map[string]int {
	snap := make(map[string]int, len(invites))
	for _, inv := range invites {
		snap[inv.Code] = inv.Uses
	}

	return snap
}

// findUsedInvite returns the first invite whose use count grew since the old
// snapshot, a code we never saw counting as zero. If two codes grew in the
// same window the fetch order decides, which is arbitrary but matches what
// the gateway gives us.
func findUsedInvite(old map[string]int, invites []*discordgo.Invite) *discordgo.Invite {
	for _, inv := range invites {
		if inv.Uses > old[inv.Code] {
			return inv
		}
	}

	return nil
}

// increment adds one valid invite for the inviter and returns the new total.
func (l *inviteLedger) increment(guildID, userID string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	key := guildID + "-" + userID
	l.counts[key]++

	return l.counts[key]
}

func (l *inviteLedger) count(guildID, userID string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.counts[guildID+"-"+userID]
}

// loadInvites replaces the stored snapshot for a guild from a live fetch.
// Used at startup and when the bot joins a new guild, no diffing happens.
// Takes the guild guard so a re-sync can't clobber the store of an
// attribution sequence that is mid-flight.
func loadInvites(s *discordgo.Session, guildID string) {
	unlock := invites.lockGuild(guildID)
	defer unlock()

	inv, err := s.GuildInvites(guildID)
	if err != nil {
		lit.Warn("Could not load invites for guild %s, %s", guildID, err)
		return
	}

	invites.replace(guildID, snapshotOf(inv))
	lit.Info("Loaded %d invites for guild %s", len(inv), guildID)
}

// guildMemberAdd figures out which invite brought the new member in, and
// credits the inviter if the member passes the account age gate.
func guildMemberAdd(s *discordgo.Session, m *discordgo.GuildMemberAdd) {
	defer handlerGuard("guildMemberAdd")

	lit.Info("%s joined guild %s", m.User.Username, m.GuildID)

	unlock := invites.lockGuild(m.GuildID)
	defer unlock()

	newInvites, err := s.GuildInvites(m.GuildID)
	if err != nil {
		lit.Error("Can't fetch invites for guild %s, %s", m.GuildID, err)
		return
	}

	used := findUsedInvite(invites.snapshot(m.GuildID), newInvites)

	// The snapshot is replaced no matter what, otherwise drift compounds
	invites.replace(m.GuildID, snapshotOf(newInvites))

	if used == nil || used.Inviter == nil {
		lit.Warn("Could not determine invite used by %s", m.User.Username)
		return
	}

	if age := accountAgeDays(m.User.ID, time.Now()); age < cfg.MinAccountAgeDays {
		lit.Info("Ignored invite for %s, account is only %.1f days old", m.User.Username, age)
		return
	}

	newCount := ledger.increment(m.GuildID, used.Inviter.ID)
	lit.Info("%s now has %d valid invites", used.Inviter.Username, newCount)
	recordAttribution(m.GuildID, used.Code, used.Inviter.ID, m.User.ID)

	if newCount >= cfg.RequiredInvites {
		grantRewardRole(s, m.GuildID, used.Inviter.ID, newCount)
	}
}

// shouldGrantReward decides whether reaching count warrants a role grant,
// short-circuiting when the role is already held so repeated threshold
// crossings never attempt a duplicate grant.
func shouldGrantReward(count, required int, heldRoles []string, roleID string) bool {
	return count >= required && !contains(heldRoles, roleID)
}

// grantRewardRole gives the configured reward role to the inviter, if they
// are still in the guild and don't already hold it.
func grantRewardRole(s *discordgo.Session, guildID, userID string, count int) {
	member, err := s.GuildMember(guildID, userID)
	if err != nil {
		lit.Warn("Can't fetch member %s in guild %s, %s", userID, guildID, err)
		return
	}

	role := findRoleByName(s, guildID, cfg.RewardRole)
	if role == nil {
		lit.Warn("Role %q not found in guild %s", cfg.RewardRole, guildID)
		return
	}

	if !shouldGrantReward(count, cfg.RequiredInvites, member.Roles, role.ID) {
		return
	}

	err = s.GuildMemberRoleAdd(guildID, userID, role.ID)
	if err != nil {
		lit.Error("Can't add role %q to %s, %s", cfg.RewardRole, userID, err)
		return
	}

	lit.Info("Granted %q role to %s (%d invites)", cfg.RewardRole, userID, count)
}

func inviteCreate(_ *discordgo.Session, i *discordgo.InviteCreate) {
	defer handlerGuard("inviteCreate")

	invites.setUses(i.GuildID, i.Code, i.Uses)
	lit.Debug("New invite created: %s", i.Code)
}

func inviteDelete(_ *discordgo.Session, i *discordgo.InviteDelete) {
	defer handlerGuard("inviteDelete")

	invites.deleteCode(i.GuildID, i.Code)
	lit.Debug("Invite deleted: %s", i.Code)
}
