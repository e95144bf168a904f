package utils

import (
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/robfig/cron/v3"
)

// DetectionCronOff disables the background detection sweep.
const DetectionCronOff = "off"

type Config struct {
	port         string
	databasePath string
	location     *time.Location

	discordGuildID  string
	discordAppToken string
	discordClientId string

	detectionCron       string
	detectionLookback   time.Duration
	detectionLookahead  time.Duration
	similarityThreshold float64

	metricCollectionInterval time.Duration
}

func durationEnv(name, fallback string) time.Duration {
	value := os.Getenv(name)
	if value == "" {
		value = fallback
	}
	duration, err := time.ParseDuration(value)
	if err != nil || duration <= 0 {
		slog.Error("invalid duration", "env", name, "value", value, "error", err)
		os.Exit(1)
	}
	slog.Debug("env", name, value, "duration", duration)
	return duration
}

func NewConfig() *Config {
	return &Config{
		port: func() string {
			port := os.Getenv("PORT")
			if port == "" {
				port = "8080"
			}
			slog.Debug("env", "PORT", port)
			return port
		}(),
		databasePath: func() string {
			path := os.Getenv("DATABASE_PATH")
			if path == "" {
				path = "./sqlite.db"
			}
			slog.Debug("env", "DATABASE_PATH", path)
			return path
		}(),
		location: func() *time.Location {
			timezoneStr := os.Getenv("TIMEZONE")
			var loc *time.Location
			var err error
			switch timezoneStr {
			case "":
				slog.Warn("TIMEZONE is not set, using local timezone", "timezone", time.Local)
				loc = time.Local
			case "UTC":
				loc = time.UTC
			default:
				loc, err = time.LoadLocation(timezoneStr)
				if err != nil {
					slog.Error("invalid timezone", "timezone", timezoneStr, "error", err)
					os.Exit(1)
				}
			}
			slog.Debug("env", "TIMEZONE", timezoneStr)
			return loc
		}(),

		discordGuildID: func() string {
			discordGuildID := os.Getenv("DISCORD_GUILD_ID")
			slog.Debug("env", "DISCORD_GUILD_ID", discordGuildID)
			return discordGuildID
		}(),
		discordAppToken: func() string {
			discordAppToken := os.Getenv("DISCORD_APP_TOKEN")
			if len(discordAppToken) < 4 {
				slog.Warn("DISCORD_APP_TOKEN is not set, the bot is disabled")
				return ""
			}
			slog.Debug("env", "DISCORD_APP_TOKEN", discordAppToken[0:3]+"...")
			return discordAppToken
		}(),
		discordClientId: func() string {
			discordClientId := os.Getenv("DISCORD_CLIENT_ID")
			slog.Debug("env", "DISCORD_CLIENT_ID", discordClientId)
			return discordClientId
		}(),

		detectionCron: func() string {
			spec := os.Getenv("DETECTION_CRON")
			if spec == "" {
				spec = "@every 6h"
			}
			if spec != DetectionCronOff {
				if _, err := cron.ParseStandard(spec); err != nil {
					slog.Error("invalid DETECTION_CRON", "value", spec, "error", err)
					os.Exit(1)
				}
			}
			slog.Debug("env", "DETECTION_CRON", spec)
			return spec
		}(),
		detectionLookback:  durationEnv("DETECTION_LOOKBACK", "1440h"),
		detectionLookahead: durationEnv("DETECTION_LOOKAHEAD", "4320h"),
		similarityThreshold: func() float64 {
			value := os.Getenv("SIMILARITY_THRESHOLD")
			if value == "" {
				value = "0.9"
			}
			threshold, err := strconv.ParseFloat(value, 64)
			if err != nil || threshold <= 0 || threshold > 1 {
				slog.Error("invalid SIMILARITY_THRESHOLD, want (0, 1]", "value", value, "error", err)
				os.Exit(1)
			}
			slog.Debug("env", "SIMILARITY_THRESHOLD", threshold)
			return threshold
		}(),

		metricCollectionInterval: durationEnv("METRIC_COLLECTION_INTERVAL", "15s"),
	}
}

// Get PORT env, default to 8080
func (c *Config) GetPort() string {
	return c.port
}

// Get DATABASE_PATH env, default to ./sqlite.db
func (c *Config) GetDatabasePath() string {
	return c.databasePath
}

// Get TIMEZONE env
func (c *Config) GetLocation() *time.Location {
	return c.location
}

// Get DISCORD_GUILD_ID env
func (c *Config) GetDiscordGuildID() string {
	return c.discordGuildID
}

// Get DISCORD_APP_TOKEN env
func (c *Config) GetDiscordAppToken() string {
	return c.discordAppToken
}

// Get DISCORD_CLIENT_ID env
func (c *Config) GetDiscordClientId() string {
	return c.discordClientId
}

func (c *Config) IsDiscordEnabled() bool {
	return c.discordAppToken != ""
}

// Get DETECTION_CRON env, default to "@every 6h"
func (c *Config) GetDetectionCron() string {
	return c.detectionCron
}

// Get DETECTION_LOOKBACK env
func (c *Config) GetDetectionLookback() time.Duration {
	return c.detectionLookback
}

// Get DETECTION_LOOKAHEAD env
func (c *Config) GetDetectionLookahead() time.Duration {
	return c.detectionLookahead
}

// Get SIMILARITY_THRESHOLD env
func (c *Config) GetSimilarityThreshold() float64 {
	return c.similarityThreshold
}

// Get METRIC_COLLECTION_INTERVAL env
func (c *Config) GetMetricCollectionInterval() time.Duration {
	return c.metricCollectionInterval
}
