// Package server wires the account service together: storage, the library
// catalog, services, the facade and both transports.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/accountkeeper/internal/logging"
	"github.com/dmitrijs2005/accountkeeper/internal/server/config"
	"github.com/dmitrijs2005/accountkeeper/internal/server/facade"
	"github.com/dmitrijs2005/accountkeeper/internal/server/httpapi"
	"github.com/dmitrijs2005/accountkeeper/internal/server/library"
	"github.com/dmitrijs2005/accountkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/accountkeeper/internal/server/services"
	"golang.org/x/sync/errgroup"

	gs "github.com/dmitrijs2005/accountkeeper/internal/server/grpc"
)

// runner is a transport that serves until its context is done.
type runner interface {
	Run(ctx context.Context) error
}

type App struct {
	config  *config.Config
	logger  logging.Logger
	servers []runner
	closers []io.Closer
}

func openRepositories(ctx context.Context, c *config.Config) (repomanager.RepositoryManager, io.Closer, error) {
	if c.DatabaseDSN == config.InMemoryDSN {
		return repomanager.NewMemoryRepositoryManager(), nil, nil
	}

	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("db open error: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("db ping error: %w", err)
	}

	m := repomanager.NewPostgresRepositoryManager(db)
	if err := m.RunMigrations(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("migrations error: %w", err)
	}
	return m, db, nil
}

func openLibrary(ctx context.Context, c *config.Config) (library.Summarizer, error) {
	if c.S3Bucket == "" {
		return library.NoLibraries{}, nil
	}
	return library.NewS3Summarizer(ctx, c)
}

func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	repos, closer, err := openRepositories(ctx, c)
	if err != nil {
		return nil, err
	}
	app := &App{config: c, logger: logger}
	if closer != nil {
		app.closers = append(app.closers, closer)
	}

	lib, err := openLibrary(ctx, c)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("library catalog init error: %w", err)
	}

	api := facade.New(
		services.NewAccountService(repos, logger),
		services.NewViewAssembler(lib, c.ViewBuildConcurrency),
		services.NewSessionService(repos, c),
		logger,
	)

	app.servers = append(app.servers, gs.NewGRPCServer(c.EndpointAddrGRPC, logger, api, c.SecretKey))
	if c.EndpointAddrHTTP != "" {
		app.servers = append(app.servers, httpapi.NewHTTPServer(c.EndpointAddrHTTP, logger, api, c.SecretKey))
	}

	return app, nil
}

func (app *App) Close() {
	for _, c := range app.closers {
		if err := c.Close(); err != nil {
			app.logger.Error(context.Background(), "close failed", "error", err)
		}
	}
}

// Run serves every transport until ctx is done, a termination signal
// arrives or one of the transports fails.
func (app *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()
	defer app.Close()

	app.logger.Info(ctx, "Starting app...")

	g, ctx := errgroup.WithContext(ctx)
	for _, s := range app.servers {
		g.Go(func() error {
			return s.Run(ctx)
		})
	}

	err := g.Wait()
	if err != nil {
		app.logger.Error(ctx, "server stopped with error", "error", err)
	}
	app.logger.Info(ctx, "App stopped")
	return err
}
