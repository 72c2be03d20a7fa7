package main

import (
	"github.com/bwmarrin/discordgo"
	"github.com/bwmarrin/lit"
	"github.com/goccy/go-json"
)

const (
	tblAttributions = "CREATE TABLE IF NOT EXISTS `attributions`( `id` int(11) NOT NULL AUTO_INCREMENT, `guildID` varchar(20) NOT NULL, `code` varchar(32) NOT NULL, `inviterID` varchar(20) NOT NULL, `memberID` varchar(20) NOT NULL, `timestamp` datetime NOT NULL, PRIMARY KEY (`id`), KEY `guildID` (`guildID`), KEY `inviterID` (`inviterID`)) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;"
	tblModeration   = "CREATE TABLE IF NOT EXISTS `moderation`( `id` int(11) NOT NULL AUTO_INCREMENT, `guildID` varchar(20) NOT NULL, `channelID` varchar(20) NOT NULL, `messageID` varchar(20) NOT NULL, `authorID` varchar(20) DEFAULT NULL, `rule` varchar(16) NOT NULL, `message` longtext CHARACTER SET utf8mb4 DEFAULT NULL CHECK (json_valid(`message`)), `timestamp` datetime NOT NULL, PRIMARY KEY (`id`), KEY `guildID` (`guildID`), KEY `authorID` (`authorID`)) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;"
)

// Executes a simple query given a DB
func execQuery(query ...string) {
	for _, q := range query {
		_, err := db.Exec(q)
		if err != nil {
			lit.Error("Error executing query, %s", err)
			return
		}
	}
}

// recordAttribution stores who invited whom with which code. No-op when the
// audit log is disabled, the in-memory ledger never depends on it.
func recordAttribution(guildID, code, inviterID, memberID string) {
	if db == nil {
		return
	}

	_, err := db.Exec("INSERT INTO attributions (guildID, code, inviterID, memberID, timestamp) VALUES(?, ?, ?, ?, NOW())", guildID, code, inviterID, memberID)
	if err != nil {
		lit.Error("Error while inserting attribution into db, %s", err)
	}
}

// recordModeration stores a deleted message and the rule that removed it.
func recordModeration(m *discordgo.Message, rule string) {
	if db == nil {
		return
	}

	var (
		err      error
		inJSON   []byte
		authorID string
	)

	inJSON, _ = json.Marshal(m)
	if m.Author != nil {
		authorID = m.Author.ID
	}

	_, err = db.Exec("INSERT INTO moderation (guildID, channelID, messageID, authorID, rule, message, timestamp) VALUES(?, ?, ?, ?, ?, ?, NOW())", m.GuildID, m.ChannelID, m.ID, authorID, rule, inJSON)
	if err != nil {
		lit.Error("Error while inserting moderation row into db, %s", err)
	}
}
