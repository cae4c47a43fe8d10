package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nkiryanov/castbook/internal/db"
	"github.com/nkiryanov/castbook/internal/handlers"
	"github.com/nkiryanov/castbook/internal/logger"
	"github.com/nkiryanov/castbook/internal/repository"
	"github.com/nkiryanov/castbook/internal/repository/memory"
	"github.com/nkiryanov/castbook/internal/repository/postgres"
	"github.com/nkiryanov/castbook/internal/service/auth"
	"github.com/nkiryanov/castbook/internal/service/auth/tokenmanager"
	"github.com/nkiryanov/castbook/internal/service/cast"
	"github.com/nkiryanov/castbook/internal/service/favorite"
	"github.com/nkiryanov/castbook/internal/service/pruner"
	"github.com/nkiryanov/castbook/internal/service/review"
)

type ServerApp struct {
	ListenAddr string
	Handler    http.Handler

	logger logger.Logger

	// Nil when pruning is disabled
	pruner *pruner.Pruner

	// Release resources (db pool)
	close func()
}

func NewServerApp(ctx context.Context, c *Config) (*ServerApp, error) {
	// Initialize logger
	logger, err := logger.New(c.Environment, c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("error while initializing logger: %w", err)
	}

	// Initialize repositories: postgres if configured, in memory otherwise
	var storage repository.Storage
	closeFn := func() {}

	if c.DatabaseDSN != "" {
		pool, err := db.ConnectAndMigrate(ctx, c.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("error while connecting to db. Err: %w", err)
		}
		storage = postgres.NewStorage(pool)
		closeFn = pool.Close
	} else {
		logger.Warn("database is not configured, data is kept in memory")
		storage = memory.NewStorage()
	}

	// Initialize services
	tokenManager, err := tokenmanager.New(tokenmanager.Config{
		SecretKey:  c.SecretKey,
		AccessTTL:  c.AccessTokenTTL,
		RefreshTTL: c.RefreshTokenTTL,
	}, storage.Refresh())
	if err != nil {
		closeFn()
		return nil, fmt.Errorf("error while creating token manager. Err: %w", err)
	}

	authService, err := auth.NewService(auth.Config{Logger: logger}, tokenManager, storage)
	if err != nil {
		closeFn()
		return nil, fmt.Errorf("error while creating auth service. Err: %w", err)
	}

	mux := handlers.NewRouter(
		authService,
		cast.NewService(storage.Cast()),
		favorite.NewService(storage.Favorite()),
		review.NewService(storage),
		logger,
	)

	app := &ServerApp{
		ListenAddr: c.ListenAddr,
		Handler:    mux,
		logger:     logger,
		close:      closeFn,
	}
	if c.PruneInterval > 0 {
		app.pruner = pruner.New(c.PruneInterval, tokenManager, logger)
	}

	return app, nil
}

func (s *ServerApp) Close() {
	s.close()
}

// Run starts http server and expired tokens pruner
// Both stop gracefully on context cancellation
func (s *ServerApp) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              s.ListenAddr,
		Handler:           s.Handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("Starting server", "address", s.ListenAddr)
		err := httpServer.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})

	g.Go(func() error {
		<-gCtx.Done()

		timeoutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(timeoutCtx); errors.Is(err, context.DeadlineExceeded) {
			s.logger.Error("HTTP server shutdown timeout exceeded, forcing shutdown...")
		}
		s.logger.Info("HTTP server stopped")
		return nil
	})

	if s.pruner != nil {
		g.Go(func() error {
			<-s.pruner.Run(gCtx)
			return nil
		})
	}

	return g.Wait()
}
