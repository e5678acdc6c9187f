package cli

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/roach88/campusmart/internal/catalog"
	"github.com/roach88/campusmart/internal/checkout"
	"github.com/roach88/campusmart/internal/config"
	"github.com/roach88/campusmart/internal/ids"
	"github.com/roach88/campusmart/internal/insight"
	"github.com/roach88/campusmart/internal/ledger"
	"github.com/roach88/campusmart/internal/session"
	"github.com/roach88/campusmart/internal/store"
)

// App is every component a command may need, wired over one store.
type App struct {
	Config   config.Config
	Store    *store.Store
	Catalog  *catalog.Store
	Log      *ledger.Log
	Checkout *checkout.Engine
	Session  *session.Store
	Insight  *insight.Client
	Logger   *slog.Logger

	// User is the logged-in user, loaded once per command.
	User *session.User
}

// Hooks replaces id generation, the clock and the text generator (for
// testing). Nil fields keep the production defaults.
type Hooks struct {
	IDs       ids.Generator
	TxIDs     ids.Generator
	Clock     ids.Clock
	Generator insight.Generator
}

// openApp loads configuration, configures logging and opens the store.
func openApp(opts *RootOptions, cmd *cobra.Command) (*App, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}
	if opts.Database != "" {
		cfg.Database = opts.Database
	}

	logger := newLogger(opts, cmd.ErrOrStderr())
	slog.SetDefault(logger)

	policy, err := store.ParseCorruptPolicy(cfg.CorruptPolicy)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid config", err)
	}
	stockPolicy, err := checkout.ParsePolicy(cfg.StockPolicy)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid config", err)
	}

	logger.Debug("opening database", "path", cfg.Database)
	st, err := store.Open(cfg.Database)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}

	hooks := opts.Hooks
	if hooks == nil {
		hooks = &Hooks{}
	}

	cat, err := catalog.New(st, catalog.Options{Policy: policy, IDs: hooks.IDs, Logger: logger})
	if err != nil {
		st.Close()
		return nil, WrapExitError(ExitCommandError, "failed to open catalog", err)
	}
	log := ledger.New(st, policy, logger)

	gen := hooks.Generator
	if gen == nil && cfg.Insight.APIKey != "" {
		gen = insight.NewChatClient(cfg.Insight.BaseURL, cfg.Insight.Model, cfg.Insight.APIKey, cfg.Insight.Timeout)
	}

	app := &App{
		Config:  cfg,
		Store:   st,
		Catalog: cat,
		Log:     log,
		Checkout: checkout.New(st, cat, log, checkout.Options{
			Policy: stockPolicy,
			IDs:    hooks.TxIDs,
			Clock:  hooks.Clock,
			Logger: logger,
		}),
		Session: session.New(st, policy, logger),
		Insight: insight.New(gen, logger),
		Logger:  logger,
	}

	app.User, err = app.Session.Current(commandContext(cmd))
	if err != nil {
		app.Close()
		return nil, WrapExitError(ExitCommandError, "failed to read session", err)
	}
	return app, nil
}

// openAuthedApp opens the app and fails unless someone is logged in. The
// returned context carries the user.
func openAuthedApp(opts *RootOptions, cmd *cobra.Command) (*App, context.Context, error) {
	app, err := openApp(opts, cmd)
	if err != nil {
		return nil, nil, err
	}
	if app.User == nil {
		app.Close()
		return nil, nil, WrapExitError(ExitCommandError, "login required (run: campusmart login <username>)", session.ErrNotLoggedIn)
	}
	return app, session.WithUser(commandContext(cmd), *app.User), nil
}

// Close releases the store.
func (a *App) Close() {
	if err := a.Store.Close(); err != nil {
		a.Logger.Error("error closing database", "error", err)
	}
}

func newLogger(opts *RootOptions, w io.Writer) *slog.Logger {
	logLevel := slog.LevelWarn
	if opts.Verbose {
		logLevel = slog.LevelDebug
	}
	if w == nil {
		w = os.Stderr
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: logLevel}))
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// storeError maps errors from the data layer to exit codes. Corrupt data
// and validation failures are command errors; everything else is a failure.
func storeError(message string, err error) error {
	var exitErr *ExitError
	switch {
	case errors.As(err, &exitErr):
		return err
	case errors.Is(err, store.ErrCorrupt),
		errors.Is(err, catalog.ErrInvalidProduct),
		errors.Is(err, catalog.ErrProductNotFound):
		return WrapExitError(ExitCommandError, message, err)
	default:
		return WrapExitError(ExitFailure, message, err)
	}
}

func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}

func money(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}
