package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"task_manager/internal/config"
	"task_manager/internal/handlers"
	"task_manager/internal/logger"
	"task_manager/internal/repository"
	"task_manager/internal/repository/db"
	"task_manager/internal/repository/mongostore"
	"task_manager/internal/server"
	"task_manager/internal/service"
)

// @title                       Task Manager API
// @version                     1.0
// @description                 Multi-user task tracker with bearer-token auth and user/admin roles.
// @BasePath                    /api/v1
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func main() {
	// load config.yml + env
	cfg, err := config.Load()
	if err != nil {
		logger.Get(logger.InfoLevel).Fatalw("error reading config", "err", err)
	}

	// init logger
	log := logger.Init(cfg.Log.Level, cfg.Log.Format)
	defer func() { _ = log.Sync() }()

	// open store
	repos, closeStore, err := openStore(cfg, log)
	if err != nil {
		log.Fatalw("failed to open store", "driver", cfg.DB.Driver, "err", err)
	}
	defer closeStore()

	// wire dependencies
	services := service.NewService(repos, service.AuthConfig{
		SigningKey: []byte(cfg.JWT.Secret),
		TokenTTL:   cfg.JWT.TTL,
		BcryptCost: cfg.BcryptCost,
	}, log)

	opts := []handlers.Option{
		handlers.WithMetrics(handlers.NewMetrics()),
		handlers.WithCORSOrigins(cfg.CORS.AllowedOrigins),
	}
	if rdb := handlers.NewRedisClient(context.Background(), cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB); rdb != nil {
		defer func() { _ = rdb.Close() }()
		opts = append(opts, handlers.WithRateLimiter(
			handlers.NewRateLimiter(rdb, cfg.RateLimit.AuthRequests, cfg.RateLimit.AuthWindow),
		))
		log.Infow("auth rate limiting enabled", "redis", cfg.Redis.Addr)
	} else if cfg.Redis.Addr != "" {
		log.Warnw("redis unreachable; auth rate limiting disabled", "redis", cfg.Redis.Addr)
	}
	apiHandler := handlers.NewHandler(services, log, opts...)

	// start HTTP server
	srv := server.New(server.Timeouts{
		ReadHeader: cfg.Server.ReadHeaderTimeout,
		Write:      cfg.Server.WriteTimeout,
		Idle:       cfg.Server.IdleTimeout,
	})
	runHTTPServer(srv, cfg.Port, apiHandler, log)

	// graceful shutdown
	waitForShutdown(srv, cfg.Server.ShutdownTimeout, log)
}

// openStore builds the repositories for the configured driver.
func openStore(cfg *config.Config, log *logger.Logger) (*repository.Repository, func(), error) {
	switch cfg.DB.Driver {
	case config.DriverMongo:
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		client, database, err := mongostore.Connect(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
		if err != nil {
			return nil, nil, err
		}
		log.Infow("using mongodb", "database", cfg.Mongo.Database)
		return mongostore.NewRepository(database), func() {
			if err := client.Disconnect(context.Background()); err != nil {
				log.Errorw("failed to disconnect mongodb", "err", err)
			}
		}, nil
	case config.DriverSQLite:
		conn, err := db.InitDB(cfg.DB.Path)
		if err != nil {
			return nil, nil, err
		}
		log.Infow("using sqlite", "path", cfg.DB.Path)
		return repository.NewRepository(conn), func() {
			if err := conn.Close(); err != nil {
				log.Errorw("failed to close sqlite", "err", err)
			}
		}, nil
	default:
		return nil, nil, fmt.Errorf("unsupported db driver %q", cfg.DB.Driver)
	}
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, port string, handler *handlers.Handler, log *logger.Logger) {
	go func() {
		log.Infow("server started", "port", port)
		if err := srv.Run(port, handler.InitRoutes()); err != nil {
			log.Fatalw("error starting server", "err", err)
		}
	}()
}

// waitForShutdown listens for termination signals and performs graceful shutdown.
func waitForShutdown(srv *server.Server, timeout time.Duration, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server...")

	// allow in-flight requests to complete
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("server forced to shutdown", "err", err)
	}
}
