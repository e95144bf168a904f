package metric

import (
	"context"
	"log/slog"
	"time"

	"cadence/src-server/utils"

	"github.com/prometheus/client_golang/prometheus"
)

// Pinger is the cheapest read the database can answer.
type Pinger interface {
	Ping(ctx context.Context) error
}

func register(collector prometheus.Collector, name string) bool {
	if err := prometheus.Register(collector); err != nil {
		if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
			slog.Error("can't register metric", "metric", name, "error", err)
			return false
		}
	}
	slog.Debug("metric registered", "metric", name)
	return true
}

func unregister(collector prometheus.Collector, name string) {
	switch prometheus.Unregister(collector) {
	case true:
		slog.Debug("metric unregistered", "metric", name)
	case false:
		slog.Warn("metric not registered", "metric", name)
	}
}

func databaseEmptyRead(as *utils.AppState, db Pinger, tickerInterval time.Duration) {
	name := "cadence_database_empty_read_microsec"
	gauge := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: name,
		Help: "The latency of an empty database read in microseconds",
	})
	if !register(gauge, name) {
		return
	}
	gauge.Set(0)

	go func() {
		gracefulShutdownCh := as.CreateGracefulShutdownChan()
		ticker := time.NewTicker(tickerInterval)
		defer ticker.Stop()
		for {
			select {
			case <-*gracefulShutdownCh:
				unregister(gauge, name)
				return
			case <-ticker.C:
				start := time.Now()
				if err := db.Ping(context.Background()); err != nil {
					slog.Error("can't get database latency", "error", err)
					continue
				}
				gauge.Set(float64(time.Since(start).Microseconds()))
			}
		}
	}()
}

func discordSendMessage(as *utils.AppState, clearTickerInterval time.Duration) {
	name := "cadence_discord_send_message_microsec"
	gauge := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: name,
		Help: "The latency of a discord message send in microseconds",
	})
	if !register(gauge, name) {
		return
	}
	gauge.Set(0)

	go func() {
		gracefulShutdownCh := as.CreateGracefulShutdownChan()
		clearTicker := time.NewTicker(clearTickerInterval)
		defer clearTicker.Stop()
		for {
			select {
			case <-*gracefulShutdownCh:
				unregister(gauge, name)
				return
			case latency := <-as.MetricChans.DiscordSendMessage:
				gauge.Set(latency)
				clearTicker.Reset(clearTickerInterval)
			case <-clearTicker.C:
				gauge.Set(0)
			}
		}
	}()
}

func discordHeartbeatLatency(as *utils.AppState, tickerInterval time.Duration) {
	name := "cadence_discord_heartbeat_latency_microsec"
	gauge := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: name,
		Help: "The latency of a discord heartbeat in microseconds",
	})
	if !register(gauge, name) {
		return
	}
	gauge.Set(0)

	go func() {
		gracefulShutdownCh := as.CreateGracefulShutdownChan()
		ticker := time.NewTicker(tickerInterval)
		defer ticker.Stop()
		for {
			select {
			case <-*gracefulShutdownCh:
				unregister(gauge, name)
				return
			case <-ticker.C:
				gauge.Set(float64(as.DgSession.HeartbeatLatency().Microseconds()))
			}
		}
	}()
}

// Init starts the sampled gauges. Discord gauges are only started when the
// bot is enabled.
func Init(as *utils.AppState, db Pinger) {
	tickerInterval := as.Config.GetMetricCollectionInterval()
	clearTickerInterval := tickerInterval * 2

	databaseEmptyRead(as, db, tickerInterval)
	if as.DgSession != nil {
		discordSendMessage(as, clearTickerInterval)
		discordHeartbeatLatency(as, tickerInterval)
	}
}
