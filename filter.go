package main

import (
	"regexp"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/bwmarrin/lit"
)

// Links that get a message removed, checked in order. Invite links first,
// then the media platforms.
var linkPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)discord\.gg/[\w-]+`),
	regexp.MustCompile(`(?i)discord\.com/invite/[\w-]+`),
	regexp.MustCompile(`(?i)discordapp\.com/invite/[\w-]+`),
	regexp.MustCompile(`(?i)(https?://)?(www\.)?(youtube\.com|youtu\.be)/[\w\-?=&]+`),
	regexp.MustCompile(`(?i)(https?://)?(open\.)?spotify\.com/[\w\-?=&/]+`),
}

// hasMassMention reports whether the text carries an @everyone or @here marker.
func hasMassMention(content string) bool {
	return strings.Contains(content, "@everyone") || strings.Contains(content, "@here")
}

// matchBlockedLink returns the first pattern the text matches, or an empty
// string if the text is clean.
func matchBlockedLink(content string) string {
	for _, p := range linkPatterns {
		if p.MatchString(content) {
			return p.String()
		}
	}

	return ""
}

// canMentionEveryone checks the author's effective permissions in the channel
// the message was sent to.
func canMentionEveryone(s *discordgo.Session, channelID, userID string) bool {
	perms, err := s.UserChannelPermissions(userID, channelID)
	if err != nil {
		lit.Warn("Can't compute permissions for %s, %s", userID, err)
		return false
	}

	return perms&discordgo.PermissionMentionEveryone != 0
}
