package main

import (
	"database/sql"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/bwmarrin/lit"
	_ "github.com/go-sql-driver/mysql"
	"github.com/kkyr/fig"
)

// Config holds data parsed from the config.yml, every value overridable via
// GUARDIAN_* environment variables
type Config struct {
	Token             string        `fig:"token" validate:"required"`
	Driver            string        `fig:"drivername" default:"mysql"`
	DSN               string        `fig:"datasourcename"`
	LogLevel          string        `fig:"loglevel" default:"logerror"`
	Port              int           `fig:"port" default:"3000"`
	RequiredInvites   int           `fig:"requiredinvites" default:"3"`
	MinAccountAgeDays float64       `fig:"minaccountagedays" default:"3"`
	SpamMessageCount  int           `fig:"spammessagecount" default:"5"`
	SpamTimeWindow    time.Duration `fig:"spamtimewindow" default:"2s"`
	HeartbeatInterval time.Duration `fig:"heartbeatinterval" default:"4h"`
	OwnerRole         string        `fig:"ownerrole" default:"Owner"`
	RewardRole        string        `fig:"rewardrole" default:"Member"`
	LogChannel        string        `fig:"logchannel" default:"bot-logs"`
}

var (
	// Bot configuration
	cfg Config
	// Database connection for the optional audit log
	db *sql.DB
	// Per-guild invite snapshots
	invites = newInviteCache()
	// Valid invites counted per inviter
	ledger = newInviteLedger()
	// Message timestamps per user
	spam *spamTracker
	// Used for the uptime reported by the keep-alive endpoint
	startTime = time.Now()
)

func init() {
	lit.LogLevel = lit.LogError

	err := fig.Load(&cfg, fig.File("config.yml"), fig.Dirs(".", "./data"), fig.UseEnv("guardian"))
	if err != nil {
		lit.Error(err.Error())
		return
	}

	// Set lit.LogLevel to the given value
	switch strings.ToLower(cfg.LogLevel) {
	case "logwarning", "warning":
		lit.LogLevel = lit.LogWarning
	case "loginformational", "informational":
		lit.LogLevel = lit.LogInformational
	case "logdebug", "debug":
		lit.LogLevel = lit.LogDebug
	}

	spam = newSpamTracker(cfg.SpamMessageCount, cfg.SpamTimeWindow)

	// The audit log is optional, everything works without it
	if cfg.DSN != "" {
		db, err = sql.Open(cfg.Driver, cfg.DSN)
		if err != nil {
			lit.Error("Error opening db connection, %s", err)
			db = nil
			return
		}

		// Initialize tables
		execQuery(tblAttributions, tblModeration)
	}
}

func main() {
	if cfg.Token == "" {
		lit.Error("No token provided. Set it in config.yml or via GUARDIAN_TOKEN.")
		os.Exit(1)
	}

	// Create a new Discord session using the provided bot token.
	dg, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		lit.Error("error creating Discord session, %s", err)
		os.Exit(1)
	}

	// Add events handler
	dg.AddHandler(ready)
	dg.AddHandler(guildCreate)
	dg.AddHandler(guildMemberAdd)
	dg.AddHandler(inviteCreate)
	dg.AddHandler(inviteDelete)
	dg.AddHandler(messageCreate)

	// Add commands handler
	dg.AddHandler(func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		// Ignores commands from DM
		if i.User == nil {
			if h, ok := commandHandlers[i.ApplicationCommandData().Name]; ok {
				h(s, i)
			}
		}
	})

	// Initialize intents that we use
	dg.Identify.Intents = discordgo.MakeIntent(discordgo.IntentsGuilds | discordgo.IntentsGuildMembers |
		discordgo.IntentsGuildInvites | discordgo.IntentsGuildMessages | discordgo.IntentMessageContent)

	// Open a websocket connection to Discord and begin listening.
	err = dg.Open()
	if err != nil {
		lit.Error("error opening connection, %s", err)
		os.Exit(1)
	}

	loadScheduler(dg)
	startKeepAlive(cfg.Port)

	// Wait here until CTRL-C or other term signal is received.
	lit.Info("guardian is now running. Press CTRL-C to exit.")
	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM, os.Interrupt, os.Kill)
	<-sc

	// Cleanly close down the Discord session.
	_ = dg.Close()

	// And the database connection
	if db != nil {
		_ = db.Close()
	}
}

func ready(s *discordgo.Session, _ *discordgo.Ready) {
	defer handlerGuard("ready")

	// Set the playing status.
	err := s.UpdateGameStatus(0, "with invites")
	if err != nil {
		lit.Error("Can't set status, %s", err)
	}
}

// Loads the invite snapshot and registers commands, both on startup and when
// the bot gets added to a new guild
func guildCreate(s *discordgo.Session, g *discordgo.GuildCreate) {
	defer handlerGuard("guildCreate")

	loadInvites(s, g.ID)
	registerCommands(s, g.ID)
}

// messageCreate runs the spam window and the content policy on every message
// from a non-bot, non-owner author. First rule that matches deletes the
// message, nothing else runs after that.
func messageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	defer handlerGuard("messageCreate")

	if m.Author == nil || m.Author.Bot || m.GuildID == "" {
		return
	}

	var roles []string
	if m.Member != nil {
		roles = m.Member.Roles
	}

	if isOwner(s, m.GuildID, m.Author.ID, roles) {
		return
	}

	if spam.track(m.Author.ID) {
		deleteMessage(s, m.Message, "spam")
		lit.Info("Deleted message from %s, %d messages in %s", m.Author.Username, cfg.SpamMessageCount, cfg.SpamTimeWindow)
		return
	}

	if hasMassMention(m.Content) && !canMentionEveryone(s, m.ChannelID, m.Author.ID) {
		deleteMessage(s, m.Message, "mention")
		lit.Info("Deleted mass mention from %s", m.Author.Username)
		return
	}

	if matchBlockedLink(m.Content) != "" {
		deleteMessage(s, m.Message, "link")
		lit.Info("Deleted message from %s, contained a blocked link", m.Author.Username)
	}
}
