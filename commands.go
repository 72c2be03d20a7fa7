package main

import (
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/bwmarrin/lit"
)

var (
	// Commands
	commands = []*discordgo.ApplicationCommand{
		{
			Name:        "massdm",
			Description: "Send a DM to all server members (Owner only)",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "message",
					Description: "The message to send",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionAttachment,
					Name:        "attachment",
					Description: "Optional image/video/file to send",
					Required:    false,
				},
			},
		},
	}

	// Handler
	commandHandlers = map[string]func(s *discordgo.Session, i *discordgo.InteractionCreate){
		"massdm": massDM,
	}
)

// Registers the slash commands on a guild
func registerCommands(s *discordgo.Session, guildID string) {
	for _, c := range commands {
		_, err := s.ApplicationCommandCreate(s.State.User.ID, guildID, c)
		if err != nil {
			lit.Error("Cannot create '%s' command: %s", c.Name, err)
		}
	}
}

// massDM sends the given message to every non-bot member of the guild, one
// at a time with a pause in between so we don't trip the rate limiter.
func massDM(s *discordgo.Session, i *discordgo.InteractionCreate) {
	defer commandGuard(s, i)

	if i.Member == nil || !isOwner(s, i.GuildID, i.Member.User.ID, i.Member.Roles) {
		replyEphemeral(s, i.Interaction, "Only users with the Owner role can use this command!")
		return
	}

	deferEphemeral(s, i.Interaction)

	data := i.ApplicationCommandData()
	content := data.Options[0].StringValue()

	// Forward the attachment as its URL, if one was given
	for _, o := range data.Options[1:] {
		if o.Name == "attachment" {
			if a := data.Resolved.Attachments[o.Value.(string)]; a != nil {
				content += "\n" + a.URL
			}
		}
	}

	members, err := fetchAllMembers(s, i.GuildID)
	if err != nil {
		lit.Error("Can't fetch members for guild %s, %s", i.GuildID, err)
		editResponse(s, i.Interaction, "Couldn't fetch the member list.")
		return
	}

	lit.Info("Mass DM started by %s to %d members", i.Member.User.Username, len(members))

	sent, failed := broadcast(members, func(m *discordgo.Member) error {
		ch, err := s.UserChannelCreate(m.User.ID)
		if err != nil {
			return err
		}

		_, err = s.ChannelMessageSend(ch.ID, content)
		return err
	}, time.Second, func() bool {
		// Stop sending if the guild went away mid-batch
		_, err := s.State.Guild(i.GuildID)
		return err != nil
	})

	editResponseEmbed(s, i.Interaction, NewEmbed().SetTitle(s.State.User.Username).
		SetDescription("Mass DM complete!").
		AddField("Report", fmt.Sprintf("Successfully sent: %d\nFailed: %d", sent, failed)).
		SetColor(0x7289DA).MessageEmbed)
	lit.Info("Mass DM complete: %d sent, %d failed", sent, failed)
}

// broadcast delivers to every non-bot member in order. One recipient failing
// never stops the batch, it just lands in the failed tally. A cancel check
// between recipients lets the batch stop early with the tallies standing.
func broadcast(members []*discordgo.Member, send func(*discordgo.Member) error, pause time.Duration, cancelled func() bool) (sent, failed int) {
	for _, m := range members {
		if m.User == nil || m.User.Bot {
			continue
		}

		if cancelled != nil && cancelled() {
			return
		}

		if err := send(m); err != nil {
			failed++
			continue
		}

		sent++
		time.Sleep(pause)
	}

	return
}

// fetchAllMembers pages through the whole member list of a guild.
func fetchAllMembers(s *discordgo.Session, guildID string) ([]*discordgo.Member, error) {
	var (
		out   []*discordgo.Member
		after string
	)

	for {
		page, err := s.GuildMembers(guildID, after, 1000)
		if err != nil {
			return nil, err
		}

		out = append(out, page...)
		if len(page) < 1000 {
			return out, nil
		}

		after = page[len(page)-1].User.ID
	}
}

// commandGuard reports a failed command back to the invoker, using a
// followup edit if the reply was already deferred.
func commandGuard(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if r := recover(); r != nil {
		lit.Error("Recovered panic in command %s: %v", i.ApplicationCommandData().Name, r)

		if _, err := s.InteractionResponse(i.Interaction); err == nil {
			editResponse(s, i.Interaction, "An error occurred while processing the command.")
		} else {
			replyEphemeral(s, i.Interaction, "An error occurred while processing the command.")
		}
	}
}
