// Package app wires configuration, the catalog and the conversation machine
// into a runnable Telegram bot.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/kitbot/core/bootstrap"
	"github.com/m3rciful/kitbot/core/logger"
	coretelegram "github.com/m3rciful/kitbot/core/telegram"
	tghelpers "github.com/m3rciful/kitbot/core/telegram/helpers"
	"github.com/m3rciful/kitbot/core/telegram/router"
	tgsender "github.com/m3rciful/kitbot/core/telegram/sender"
	"github.com/m3rciful/kitbot/migrations"
	"github.com/m3rciful/kitbot/shop/catalog"
	"github.com/m3rciful/kitbot/shop/conversation"
	"github.com/m3rciful/kitbot/shop/selection"
	"github.com/m3rciful/kitbot/shop/tgbot"

	tele "gopkg.in/telebot.v4"
)

// ErrNoDatabase is returned when the postgres catalog source has no connection.
var ErrNoDatabase = errors.New("app: postgres catalog source requires a database")

// App holds the running bot's components.
type App struct {
	cfg *Config
	db  *sqlx.DB

	Catalog  *catalog.Catalog
	Registry *conversation.Registry
	Store    *selection.Store
	Machine  *conversation.Machine

	handlers *tgbot.Handlers
}

// Bootstrap initializes logging and, for the postgres source, migrates and
// connects to the database before building the app.
func Bootstrap(cfg *Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("app: nil config")
	}
	opts := bootstrap.Options{Config: &cfg.Config}
	if cfg.UsesDatabase() {
		opts.Database = &cfg.Database
		opts.Migrations = migrations.FS
	}
	res, err := bootstrap.Run(opts)
	if err != nil {
		return nil, err
	}
	return New(context.Background(), cfg, res.DB)
}

// New loads the catalog, builds the menu registry and starts an empty
// conversation machine. db may be nil unless the catalog source is postgres.
func New(ctx context.Context, cfg *Config, db *sqlx.DB) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("app: nil config")
	}
	loader, err := catalogLoader(cfg, db)
	if err != nil {
		return nil, err
	}
	return build(ctx, cfg, db, loader)
}

func build(ctx context.Context, cfg *Config, db *sqlx.DB, loader catalog.Loader) (*App, error) {
	c := catalog.New()
	if err := loader.Load(ctx, c); err != nil {
		return nil, fmt.Errorf("app: load catalog from %s: %w", cfg.Catalog.Source, err)
	}
	reg, err := conversation.BuildRegistry(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("app: build menu registry: %w", err)
	}

	store := selection.NewStore()
	machine := conversation.NewMachine(reg, store, conversation.Options{
		Policy:    conversation.Policy(cfg.Conversation.BusyPolicy),
		Finalizer: tgbot.OrderFinalizer{},
	})

	logger.Info(ctx, "app", "app.built",
		slog.String("source", cfg.Catalog.Source),
		slog.Int("products", c.Len()),
		slog.Int("variants", c.VariantCount()),
		slog.String("policy", cfg.Conversation.BusyPolicy),
	)

	return &App{
		cfg:      cfg,
		db:       db,
		Catalog:  c,
		Registry: reg,
		Store:    store,
		Machine:  machine,
		handlers: tgbot.NewHandlers(machine, store),
	}, nil
}

func catalogLoader(cfg *Config, db *sqlx.DB) (catalog.Loader, error) {
	switch cfg.Catalog.Source {
	case SourceStatic, "":
		return catalog.Static(), nil
	case SourceYAML:
		return catalog.FileLoader{Path: cfg.Catalog.Path}, nil
	case SourcePostgres:
		if db == nil {
			return nil, ErrNoDatabase
		}
		return catalog.PostgresLoader{DB: db}, nil
	}
	return nil, fmt.Errorf("app: unknown catalog source %q", cfg.Catalog.Source)
}

// TelegramRunOptions wires commands, button presses and free text to the
// conversation handlers.
func (a *App) TelegramRunOptions() (coretelegram.RunOptions, error) {
	reg := coretelegram.NewRegistry()
	a.handlers.Register(reg)

	var routes []coretelegram.Route
	routes = append(routes, router.CommandRoutes(reg, router.CommandRouteOptions{
		AdminID: a.cfg.Telegram.AdminID,
	})...)
	routes = append(routes, router.TextRoutes(reg, router.TextOptions{})...)
	routes = append(routes, router.CallbackRoute(reg))

	return coretelegram.RunOptions{
		Config:   &a.cfg.Config,
		Registry: reg,
		DispatcherOptions: tgsender.Options{
			QueueSize:  a.cfg.Sender.QueueSize,
			Workers:    a.cfg.Sender.Workers,
			MaxRetries: a.cfg.Sender.MaxRetries,
		},
		Middlewares: coretelegram.DefaultMiddlewares(&a.cfg.Config, onLimited),
		Routes:      routes,
		OnStop: func(ctx context.Context, rt coretelegram.Runtime) error {
			attrs := []slog.Attr{slog.Int("conversations", a.Machine.Conversations())}
			if rt.Dispatcher != nil {
				attrs = append(attrs,
					slog.Uint64("sent", rt.Dispatcher.SentCount()),
					slog.Uint64("send_errors", rt.Dispatcher.ErrorCount()),
				)
			}
			logger.Info(ctx, "app", "app.stats", attrs...)
			return a.Close()
		},
	}, nil
}

// Close releases the database connection, if any.
func (a *App) Close() error {
	if a.db == nil {
		return nil
	}
	err := a.db.Close()
	a.db = nil
	if err != nil {
		logger.Warn(context.Background(), "db", "db.close",
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
		)
	}
	return err
}

func onLimited(c tele.Context) error {
	if c.Callback() != nil {
		return nil
	}
	return tghelpers.SendText(c, "Too many messages, slow down a little")
}
