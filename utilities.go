package main

import (
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/bwmarrin/lit"
)

// isOwner reports whether the user owns the guild or holds the configured
// owner role. Owners are exempt from every content policy and are the only
// ones allowed to run massdm.
func isOwner(s *discordgo.Session, guildID, userID string, roles []string) bool {
	return ownerOf(guildFor(s, guildID), userID, roles, cfg.OwnerRole)
}

// ownerOf is the decision behind isOwner: guild ownership, or holding the
// role with the given name. A guild we can't resolve exempts nobody.
func ownerOf(g *discordgo.Guild, userID string, roles []string, roleName string) bool {
	if g == nil {
		return false
	}

	if g.OwnerID == userID {
		return true
	}

	return hasRoleNamed(roles, g.Roles, roleName)
}

// hasRoleNamed reports whether any of the held role IDs resolves to the
// given role name.
func hasRoleNamed(roles []string, guildRoles []*discordgo.Role, name string) bool {
	for _, r := range guildRoles {
		if r.Name == name && contains(roles, r.ID) {
			return true
		}
	}

	return false
}

// accountAgeDays computes how old an account is from its snowflake ID. An
// unparsable ID counts as a brand new account.
func accountAgeDays(userID string, now time.Time) float64 {
	created, err := discordgo.SnowflakeTimestamp(userID)
	if err != nil {
		return 0
	}

	return now.Sub(created).Hours() / 24
}

// Resolves a guild from the state cache, falling back to the API.
func guildFor(s *discordgo.Session, guildID string) *discordgo.Guild {
	g, err := s.State.Guild(guildID)
	if err == nil {
		return g
	}

	g, err = s.Guild(guildID)
	if err != nil {
		lit.Warn("Can't resolve guild %s, %s", guildID, err)
		return nil
	}

	return g
}

func findRoleByName(s *discordgo.Session, guildID, name string) *discordgo.Role {
	g := guildFor(s, guildID)
	if g == nil {
		return nil
	}

	for _, r := range g.Roles {
		if r.Name == name {
			return r
		}
	}

	return nil
}

func findChannelByName(g *discordgo.Guild, name string) *discordgo.Channel {
	for _, c := range g.Channels {
		if c.Name == name && c.Type == discordgo.ChannelTypeGuildText {
			return c
		}
	}

	return nil
}

// deleteMessage removes a message best-effort and records why. Deletion
// failures are swallowed, moderation here is not guaranteed enforcement.
func deleteMessage(s *discordgo.Session, m *discordgo.Message, rule string) {
	err := s.ChannelMessageDelete(m.ChannelID, m.ID)
	if err != nil {
		lit.Warn("Can't delete message %s, %s", m.ID, err)
	}

	recordModeration(m, rule)
}

// Ephemeral text reply, used for denials and errors
func replyEphemeral(s *discordgo.Session, i *discordgo.Interaction, content string) {
	err := s.InteractionRespond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Content: content, Flags: discordgo.MessageFlagsEphemeral},
	})
	if err != nil {
		lit.Error("InteractionRespond failed: %s", err)
	}
}

// Acknowledges the interaction so we have time to work through the batch
func deferEphemeral(s *discordgo.Session, i *discordgo.Interaction) {
	err := s.InteractionRespond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Flags: discordgo.MessageFlagsEphemeral},
	})
	if err != nil {
		lit.Error("InteractionRespond failed: %s", err)
	}
}

func editResponse(s *discordgo.Session, i *discordgo.Interaction, content string) {
	_, err := s.InteractionResponseEdit(i, &discordgo.WebhookEdit{Content: &content})
	if err != nil {
		lit.Error("InteractionResponseEdit failed: %s", err)
	}
}

func editResponseEmbed(s *discordgo.Session, i *discordgo.Interaction, embed *discordgo.MessageEmbed) {
	sliceEmbed := []*discordgo.MessageEmbed{embed}
	_, err := s.InteractionResponseEdit(i, &discordgo.WebhookEdit{Embeds: &sliceEmbed})
	if err != nil {
		lit.Error("InteractionResponseEdit failed: %s", err)
	}
}

// handlerGuard keeps a panicking event handler from taking the whole process
// down. Used as `defer handlerGuard("name")` at the top of every handler.
func handlerGuard(name string) {
	if r := recover(); r != nil {
		lit.Error("Recovered panic in %s: %v", name, r)
	}
}
