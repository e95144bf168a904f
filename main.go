package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"cadence/src-server/handler"
	"cadence/src-server/handler/recurring_handler"
	"cadence/src-server/metric"
	"cadence/src-server/model"
	"cadence/src-server/route"
	"cadence/src-server/scheduler"
	"cadence/src-server/service"
	"cadence/src-server/utils"

	"github.com/bwmarrin/discordgo"
	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func init() {
	if err := godotenv.Load(); err != nil {
		slog.Info(err.Error())
	}
	slog.SetDefault(slog.New(
		tint.NewHandler(os.Stderr, &tint.Options{
			Level:      slog.LevelDebug,
			TimeFormat: time.RFC1123Z,
		}),
	))
}

func main() {
	// There are 2 important things (and others) inside the AppState:
	// - appCmdInfo: a map of all slash commands
	// - appCmdHandler: a map of all slash command handlers
	as := utils.NewAppState()
	defer as.BunDB.Close()

	if err := model.CreateSchema(context.Background(), as.BunDB); err != nil {
		slog.Error("can't create database schema", "error", err)
		os.Exit(1)
	}

	repo := model.NewBunRepository(as.BunDB)
	as.Recurring = service.NewRecurring(repo,
		service.WithSimilarityThreshold(as.Config.GetSimilarityThreshold()),
		service.WithWindow(as.Config.GetDetectionLookback(), as.Config.GetDetectionLookahead()),
		service.WithLocation(as.Config.GetLocation()),
		service.WithObserver(metric.NewRecorder(prometheus.DefaultRegisterer)),
	)

	if as.DgSession != nil {
		startDiscord(as)
		defer as.DgSession.Close()
	} else {
		slog.Warn("DISCORD_APP_TOKEN not set, running without the bot")
	}

	metric.Init(as, repo)

	if spec := as.Config.GetDetectionCron(); spec != utils.DetectionCronOff {
		if err := scheduler.DetectionSweep(spec, as.Config.GetLocation(), as.Recurring, as.CreateGracefulShutdownChan()); err != nil {
			slog.Error("can't schedule detection sweep", "error", err)
			os.Exit(1)
		}
	}

	// http server
	go func() {
		muxer := http.NewServeMux()
		muxer.Handle("GET /metrics", promhttp.Handler())
		route.Health(muxer, as)
		route.Calendar(muxer, as)
		route.Recurring(muxer, as)
		route.Series(muxer, as)
		slog.Info("http server listening", "port", as.Config.GetPort())
		if err := http.ListenAndServe(":"+as.Config.GetPort(), muxer); err != nil {
			slog.Error("cannot start HTTP server", "error", err)
			as.AppCloseSignalChan <- syscall.SIGTERM
		}
	}()

	slog.Info("app is now running, press Ctrl+C to exit")

	signal.Notify(as.AppCloseSignalChan, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-as.AppCloseSignalChan
	as.GracefulShutdown()

	slog.Info("Gracefully shutting down...")
}

// startDiscord registers the slash commands and connects the bot.
func startDiscord(as *utils.AppState) {
	// injecting interaction handlers into appCmdInfo, appCmdHandler in AppState
	recurring_handler.Init(as)
	handler.Ping(as)

	// tell discordgo how to handle interactions from Discord (w/ appCmdHandler)
	as.DgSession.AddHandler(func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		if i.Type != discordgo.InteractionApplicationCommand {
			slog.Debug("ignoring interaction", "type", i.Type)
			return
		}
		id := i.ApplicationCommandData().Name
		if handler, ok := as.GetAppCmdHandler(id); ok {
			if err := handler(s, i); err != nil {
				slog.Error("handler error", "command", id, "error", err.Error())
			}
			return
		}
		if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseChannelMessageWithSource,
			Data: &discordgo.InteractionResponseData{
				Flags:   discordgo.MessageFlagsEphemeral,
				Content: "Unknown command",
			},
		}); err != nil {
			slog.Warn("can't respond", "error", err.Error())
		}
	})

	// open a connection to Discord
	if err := as.DgSession.Open(); err != nil {
		slog.Error("can't open discord connection", "error", err)
		os.Exit(1)
	}

	// tell Discord what commands we have (w/ appCmdInfo)
	if _, err := as.DgSession.ApplicationCommandBulkOverwrite(
		as.Config.GetDiscordClientId(),
		as.Config.GetDiscordGuildID(),
		func() []*discordgo.ApplicationCommand {
			var cmds []*discordgo.ApplicationCommand
			as.IterateAppCmdInfo(func(k string, v *discordgo.ApplicationCommand) {
				cmds = append(cmds, v)
			})
			return cmds
		}()); err != nil {
		slog.Error("can't create slash commands", "error", err.Error())
	}

	// cleanup appCmdInfo from memory
	as.NukeAppCmdInfo()
	runtime.GC()

	slog.Info("number of guilds", "guilds", len(as.DgSession.State.Guilds))
}
