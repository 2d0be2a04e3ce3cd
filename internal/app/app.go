// Package app wires configuration, storage, the access guard and the
// services into the crm command tree for a single invocation.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/epicevents/crm/internal/auth"
	"github.com/epicevents/crm/internal/cli"
	"github.com/epicevents/crm/internal/config"
	"github.com/epicevents/crm/internal/dbx"
	"github.com/epicevents/crm/internal/logging"
	"github.com/epicevents/crm/internal/repositories/repomanager"
	"github.com/epicevents/crm/internal/services"
)

// Streams are the process's standard streams.
type Streams struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

type App struct {
	logger logging.Logger
	db     *sql.DB
	cli    *cli.App
}

// openDB is a test seam for dbx.Open.
var openDB = dbx.Open

// NewApp opens the database and builds the services. The connection is
// released by Close.
func NewApp(ctx context.Context, c *config.Config, s Streams) (*App, error) {
	logger, err := logging.NewLogger(c.LogLevel, s.Err)
	if err != nil {
		return nil, err
	}

	db, dialect, err := openDB(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	repos, err := repomanager.NewSQLRepositoryManager(dialect, logger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	tokenPath := c.TokenFile
	if tokenPath == "" {
		if tokenPath, err = auth.DefaultTokenPath(); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	store := auth.NewFileTokenStore(tokenPath)

	codec, err := auth.NewTokenCodec([]byte(c.SecretKey))
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	guard := auth.NewGuard(store, codec, repomanager.NewUserLookup(db, repos), logger)

	svc := services.New(services.Deps{
		DB:       db,
		Repos:    repos,
		Guard:    guard,
		Hasher:   auth.NewHasher(auth.DefaultParams),
		Codec:    codec,
		Store:    store,
		TokenTTL: c.TokenTTL,
		Logger:   logger,
	})

	setup := func(ctx context.Context) error {
		if err := repos.RunMigrations(ctx, db); err != nil {
			return err
		}
		return repos.Seed(ctx, db)
	}

	return &App{
		logger: logger,
		db:     db,
		cli: cli.NewApp(cli.Options{
			Services: svc,
			Setup:    setup,
			In:       s.In,
			Out:      s.Out,
			Err:      s.Err,
			Logger:   logger,
		}),
	}, nil
}

func (app *App) initSignalHandler(ctx context.Context, cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		defer signal.Stop(sigs)
		select {
		case <-sigs:
			cancelFunc()
		case <-ctx.Done():
		}
	}()
}

// Run executes one command and returns the process exit code.
func (app *App) Run(ctx context.Context, args []string) int {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()
	app.initSignalHandler(ctx, cancelFunc)

	if len(args) > 0 {
		app.logger.With("command", args[0]).Debug(ctx, "running command", "args", len(args)-1)
	}
	return app.cli.Run(ctx, args)
}

func (app *App) Close() error {
	return app.db.Close()
}

// NeedsDatabase reports whether args run a command rather than only
// printing help.
func NeedsDatabase(args []string) bool {
	if len(args) == 0 {
		return false
	}
	switch args[0] {
	case "-h", "--help", "help":
		return false
	}
	return true
}

// PrintHelp prints the command overview without touching storage.
func PrintHelp(s Streams) int {
	return cli.NewApp(cli.Options{In: s.In, Out: s.Out, Err: s.Err}).Run(context.Background(), []string{"--help"})
}
