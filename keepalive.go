package main

import (
	"net/http"
	"strconv"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/bwmarrin/lit"
	"github.com/go-co-op/gocron"
	"github.com/goccy/go-json"
)

type pingResponse struct {
	Status string  `json:"status"`
	Uptime float64 `json:"uptime"`
}

// loadScheduler sends a liveness message to every guild's log channel on a
// fixed schedule. One guild failing never stops the timer or the others.
func loadScheduler(s *discordgo.Session) {
	// Create cron scheduler
	cron := gocron.NewScheduler(time.UTC)

	_, err := cron.Every(cfg.HeartbeatInterval).Do(func() {
		for _, g := range s.State.Guilds {
			channel := findChannelByName(g, cfg.LogChannel)
			if channel == nil {
				continue
			}

			_, err := s.ChannelMessageSend(channel.ID, "Still alive")
			if err != nil {
				lit.Warn("Can't send heartbeat to \"%s\", %s", g.Name, err)
				continue
			}

			lit.Debug("Heartbeat sent to %s/#%s", g.Name, cfg.LogChannel)
		}
	})
	if err != nil {
		lit.Error("Can't schedule heartbeat, %s", err)
		return
	}

	// And start the scheduler
	cron.StartAsync()
}

// startKeepAlive serves the liveness endpoint used by the hosting platform.
func startKeepAlive(port int) {
	http.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("guardian is running!"))
	})

	http.HandleFunc("/ping", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(pingResponse{Status: "alive", Uptime: time.Since(startTime).Seconds()})
	})

	go func() {
		err := http.ListenAndServe(":"+strconv.Itoa(port), nil)
		if err != nil {
			lit.Error("Keep-alive server stopped, %s", err)
		}
	}()
}
