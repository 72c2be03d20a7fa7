package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasMassMention(t *testing.T) {
	assert.True(t, hasMassMention("hello @everyone"))
	assert.True(t, hasMassMention("@here come look"))
	assert.False(t, hasMassMention("hello @someone"))
	assert.False(t, hasMassMention(""))
}

func TestMatchBlockedLink(t *testing.T) {
	tests := []struct {
		name    string
		content string
		blocked bool
	}{
		{"invite link", "join discord.gg/abc123", true},
		{"invite link full", "https://discord.com/invite/xyz", true},
		{"invite link legacy", "discordapp.com/invite/q", true},
		{"youtube", "check https://www.youtube.com/watch?v=dQw4w9WgXcQ", true},
		{"youtube short", "youtu.be/dQw4w9WgXcQ", true},
		{"spotify", "open.spotify.com/track/4cOdK2wGLETKBW3PvgPWqT", true},
		{"plain text", "hello world", false},
		{"unrelated url", "https://example.com/discord", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.blocked {
				assert.NotEmpty(t, matchBlockedLink(tt.content))
			} else {
				assert.Empty(t, matchBlockedLink(tt.content))
			}
		})
	}
}

func TestMatchBlockedLinkOrder(t *testing.T) {
	// Invite patterns come before the media ones
	got := matchBlockedLink("discord.gg/a and youtube.com/watch?v=b")
	assert.Equal(t, linkPatterns[0].String(), got)
}
