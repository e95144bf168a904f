package utils

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"cadence/src-server/service"

	"github.com/bwmarrin/discordgo"
	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"github.com/uptrace/bun/extra/bundebug"
)

type AppState struct {
	Config    *Config
	BunDB     *bun.DB
	DgSession *discordgo.Session // nil when the bot is disabled
	When      *when.Parser

	Recurring   *service.Recurring
	MetricChans *Metric

	// will be send to Discord
	appCmdInfo map[string]*discordgo.ApplicationCommand
	// handling commands from Discord WSAPI
	appCmdHandler map[string]func(s *discordgo.Session, i *discordgo.InteractionCreate) error
	cmdMu         sync.RWMutex

	AppCloseSignalChan  chan os.Signal
	gracefulShutdownChs []chan struct{}
	shutdownMu          sync.Mutex

	startTime time.Time
}

func NewWhenParser() *when.Parser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return w
}

// NewAppState reads the config and opens the database and, when a token is
// configured, the Discord session. The session is not connected yet.
func NewAppState() *AppState {
	as := &AppState{
		appCmdInfo:         make(map[string]*discordgo.ApplicationCommand),
		appCmdHandler:      make(map[string]func(s *discordgo.Session, i *discordgo.InteractionCreate) error),
		AppCloseSignalChan: make(chan os.Signal, 1),
		MetricChans:        NewMetric(),
		When:               NewWhenParser(),
		startTime:          time.Now(),
	}

	// env
	as.Config = NewConfig()

	// database
	db, err := OpenDB(as.Config.GetDatabasePath())
	if err != nil {
		slog.Error("cannot open sqlite database", "error", err)
		os.Exit(1)
	}
	as.BunDB = db
	as.BunDB.AddQueryHook(bundebug.NewQueryHook(
		bundebug.WithVerbose(true),
		bundebug.FromEnv("BUNDEBUG"),
	))

	// discord
	if as.Config.IsDiscordEnabled() {
		as.DgSession, err = discordgo.New("Bot " + as.Config.GetDiscordAppToken())
		if err != nil {
			slog.Error("can't create discord session", "error", err)
			os.Exit(1)
		}
	}

	return as
}

// OpenDB opens the sqlite database at path behind a single pooled connection;
// concurrent callers wait for it rather than hitting SQLITE_BUSY. File
// databases run in WAL mode.
func OpenDB(path string) (*bun.DB, error) {
	rawDB, err := sql.Open(sqliteshim.ShimName, path)
	if err != nil {
		return nil, fmt.Errorf("OpenDB: %w", err)
	}
	rawDB.SetMaxOpenConns(1)
	rawDB.SetMaxIdleConns(1)
	rawDB.SetConnMaxLifetime(0)

	pragmas := []string{"PRAGMA busy_timeout = 5000"}
	if path != ":memory:" {
		pragmas = append(pragmas, "PRAGMA journal_mode = WAL")
	}
	for _, pragma := range pragmas {
		if _, err := rawDB.Exec(pragma); err != nil {
			rawDB.Close()
			return nil, fmt.Errorf("OpenDB: %s: %w", pragma, err)
		}
	}
	return bun.NewDB(rawDB, sqlitedialect.New()), nil
}

func (as *AppState) AddAppCmdInfo(id string, info *discordgo.ApplicationCommand) {
	as.cmdMu.Lock()
	defer as.cmdMu.Unlock()
	as.appCmdInfo[id] = info
}

func (as *AppState) IterateAppCmdInfo(fn func(id string, info *discordgo.ApplicationCommand)) {
	as.cmdMu.RLock()
	defer as.cmdMu.RUnlock()
	for id, info := range as.appCmdInfo {
		fn(id, info)
	}
}

// NukeAppCmdInfo drops the command definitions once Discord has them.
func (as *AppState) NukeAppCmdInfo() {
	as.cmdMu.Lock()
	defer as.cmdMu.Unlock()
	as.appCmdInfo = make(map[string]*discordgo.ApplicationCommand)
}

func (as *AppState) AddAppCmdHandler(id string, handler func(s *discordgo.Session, i *discordgo.InteractionCreate) error) {
	as.cmdMu.Lock()
	defer as.cmdMu.Unlock()
	as.appCmdHandler[id] = handler
}

func (as *AppState) GetAppCmdHandler(id string) (func(s *discordgo.Session, i *discordgo.InteractionCreate) error, bool) {
	as.cmdMu.RLock()
	defer as.cmdMu.RUnlock()
	handler, ok := as.appCmdHandler[id]
	return handler, ok
}

// CreateGracefulShutdownChan returns a channel that is closed on shutdown.
func (as *AppState) CreateGracefulShutdownChan() *chan struct{} {
	as.shutdownMu.Lock()
	defer as.shutdownMu.Unlock()
	ch := make(chan struct{})
	as.gracefulShutdownChs = append(as.gracefulShutdownChs, ch)
	return &ch
}

func (as *AppState) GracefulShutdown() {
	as.shutdownMu.Lock()
	defer as.shutdownMu.Unlock()
	for _, ch := range as.gracefulShutdownChs {
		close(ch)
	}
	as.gracefulShutdownChs = nil
}

func (as *AppState) GetUptime() time.Duration {
	return time.Since(as.startTime).Truncate(time.Second)
}

// Now is the current time in the configured timezone.
func (as *AppState) Now() time.Time {
	if as.Config == nil {
		return time.Now()
	}
	return time.Now().In(as.Config.GetLocation())
}
