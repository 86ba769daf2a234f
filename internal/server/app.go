// Package server wires configuration, storage, the auth service and both
// transports (HTTP and gRPC) into a runnable application.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/authkeeper/internal/cryptox"
	"github.com/dmitrijs2005/authkeeper/internal/logging"
	"github.com/dmitrijs2005/authkeeper/internal/server/audit"
	"github.com/dmitrijs2005/authkeeper/internal/server/auth"
	"github.com/dmitrijs2005/authkeeper/internal/server/config"
	"github.com/dmitrijs2005/authkeeper/internal/server/httpapi"
	"github.com/dmitrijs2005/authkeeper/internal/server/metrics"
	"github.com/dmitrijs2005/authkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/authkeeper/internal/server/services"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	gs "github.com/dmitrijs2005/authkeeper/internal/server/grpc"
)

type App struct {
	config   *config.Config
	logger   logging.Logger
	db       *sql.DB
	auth     *services.AuthService
	tokens   *auth.TokenIssuer
	registry *prometheus.Registry
	archiver *audit.S3Archiver
}

var (
	openPostgres       = repomanager.OpenPostgres
	newPostgresManager = repomanager.NewPostgresRepositoryManager
	newS3Client        = audit.NewS3Client
)

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	logger := logging.NewJSON(os.Stdout, c.LogLevel)

	var (
		db *sql.DB
		rm repomanager.RepositoryManager
	)
	if c.UseMemoryStore {
		rm = repomanager.NewMemoryRepositoryManager()
		logger.Warn(ctx, "using in-memory store, accounts are lost on exit")
	} else {
		var err error
		db, err = openPostgres(ctx, c.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("db init error: %w", err)
		}
		rm = newPostgresManager()
		if err := rm.RunMigrations(ctx, db); err != nil {
			db.Close()
			return nil, fmt.Errorf("db migration error: %w", err)
		}
	}

	var sinks []audit.Sink
	var archiver *audit.S3Archiver
	if c.AuditS3Enabled {
		client, err := newS3Client(ctx, audit.S3Settings{
			Region:       c.S3Region,
			BaseEndpoint: c.S3BaseEndpoint,
			AccessKey:    c.S3AccessKey,
			SecretKey:    c.S3SecretKey,
		})
		if err != nil {
			if db != nil {
				db.Close()
			}
			return nil, fmt.Errorf("s3 init error: %w", err)
		}
		archiver = audit.NewS3Archiver(client, c.S3Bucket, c.AuditS3Prefix, c.AuditBatchSize)
		sinks = append(sinks, archiver)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	tokens := auth.NewTokenIssuer(auth.Settings{
		SigningKey: c.SigningKey,
		Issuer:     c.TokenIssuer,
		Audience:   c.TokenAudience,
	})

	svc := services.NewAuthService(db, rm, cryptox.PBKDF2Hasher{}, tokens,
		audit.NewLogger(logger, sinks...),
		services.WithMetrics(metrics.NewCollector(registry)))

	return &App{
		config:   c,
		logger:   logger,
		db:       db,
		auth:     svc,
		tokens:   tokens,
		registry: registry,
		archiver: archiver,
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.auth, app.tokens)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, "grpc server failed", "error", err)
		cancelFunc()
	}
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := httpapi.New(httpapi.Config{
		Addr:            app.config.EndpointAddrHTTP,
		RateLimitPerMin: app.config.RateLimitPerMinute,
		ShutdownTimeout: app.config.ShutdownTimeout,
	}, app.auth, app.tokens, app.registry, app.logger)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, "http server failed", "error", err)
		cancelFunc()
	}
}

// Run blocks until a signal arrives, ctx is cancelled or a server fails.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	if app.archiver != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			app.archiver.Run(ctx, app.config.AuditFlushInterval, func(err error) {
				app.logger.Error(ctx, "audit archive flush failed",
					"error", err, "pending", app.archiver.Pending(), "dropped", app.archiver.Dropped())
			})
		}()
	}

	wg.Wait()

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error(ctx, "db close failed", "error", err)
		}
	}
	app.logger.Info(ctx, "App stopped")
}
