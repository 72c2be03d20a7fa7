package main

import (
	"errors"
	"strconv"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
)

func testMembers(n int) []*discordgo.Member {
	members := make([]*discordgo.Member, 0, n)
	for i := 0; i < n; i++ {
		members = append(members, &discordgo.Member{User: &discordgo.User{ID: strconv.Itoa(i)}})
	}

	return members
}

func TestBroadcastTalliesFailuresWithoutAborting(t *testing.T) {
	calls := 0
	sent, failed := broadcast(testMembers(10), func(m *discordgo.Member) error {
		calls++
		if m.User.ID == "3" {
			return errors.New("cannot send messages to this user")
		}
		return nil
	}, 0, nil)

	assert.Equal(t, 10, calls)
	assert.Equal(t, 9, sent)
	assert.Equal(t, 1, failed)
}

func TestBroadcastSkipsBots(t *testing.T) {
	members := testMembers(3)
	members[1].User.Bot = true

	var delivered []string
	sent, failed := broadcast(members, func(m *discordgo.Member) error {
		delivered = append(delivered, m.User.ID)
		return nil
	}, 0, nil)

	assert.Equal(t, 2, sent)
	assert.Zero(t, failed)
	assert.Equal(t, []string{"0", "2"}, delivered)
}

func TestBroadcastStopsWhenCancelled(t *testing.T) {
	done := 0
	sent, failed := broadcast(testMembers(10), func(_ *discordgo.Member) error {
		done++
		return nil
	}, 0, func() bool {
		return done >= 3
	})

	// In-flight tallies stand, nothing more is attempted
	assert.Equal(t, 3, sent)
	assert.Zero(t, failed)
	assert.Equal(t, 3, done)
}
