package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/sudo-init-do/favo/internal/alerts"
	"github.com/sudo-init-do/favo/internal/api"
	"github.com/sudo-init-do/favo/internal/auth"
	"github.com/sudo-init-do/favo/internal/config"
	"github.com/sudo-init-do/favo/internal/db"
	"github.com/sudo-init-do/favo/internal/marketplace"
	"github.com/sudo-init-do/favo/internal/messaging"
	"github.com/sudo-init-do/favo/internal/queue"
	"github.com/sudo-init-do/favo/internal/repository"
	"github.com/sudo-init-do/favo/internal/user"
	"github.com/sudo-init-do/favo/internal/utils"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "application error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log, err := utils.NewLogger(cfg.IsProduction(), cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer func() { _ = log.Sync() }()
	zap.ReplaceGlobals(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.Open(ctx, cfg.DSN())
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()
	if err := db.EnsureSchema(ctx, pool, log); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	log.Info("database connected")

	users := repository.NewUserRepo(pool)
	ubicaciones := repository.NewUbicacionRepo(pool)
	pedidos := repository.NewPedidoRepo(pool)
	notifs := repository.NewNotificacionRepo(pool)
	ratings := repository.NewRatingRepo(pool)
	catalog := repository.NewCatalogRepo(pool)

	rdb := config.NewRedisClient(cfg)
	if rdb == nil {
		log.Warn("redis unavailable, using in-memory rate limit and no response cache", zap.String("addr", cfg.RedisAddr))
	} else {
		defer func() { _ = rdb.Close() }()
	}

	hub := messaging.NewHub(log.Named("ws"))
	events := queue.Fanout{}

	if cfg.RabbitURL != "" && queue.Reachable(cfg.RabbitURL, 3*time.Second) {
		pub := queue.NewPublisher(cfg.RabbitURL, cfg.EventsQueue, log.Named("rabbitmq"))
		defer pub.Close()
		events = append(events, pub)

		consumer := queue.NewConsumer(cfg.RabbitURL, cfg.EventsQueue, hub, log.Named("rabbitmq"))
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("event consumer stopped", zap.Error(err))
			}
		}()
	} else {
		log.Warn("rabbitmq unavailable, pushing events to local websockets only")
		events = append(events, queue.SinkPublisher{Sink: hub})
	}

	if cfg.AsynqEnabled && rdb != nil {
		redisOpt := asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB}
		client := asynq.NewClient(redisOpt)
		defer func() { _ = client.Close() }()
		events = append(events, alerts.NewEnqueuer(client, users, cfg.AppURL, log.Named("alerts")))

		processor := alerts.NewProcessor(redisOpt, alerts.NewMailer(config.LoadMailConfig(), log.Named("mail")), log.Named("asynq"))
		if err := processor.Start(); err != nil {
			return err
		}
		defer processor.Shutdown()
	}

	authSvc := auth.NewService(users, events, auth.Options{
		Secret:     cfg.JWTSecret,
		TTL:        cfg.AccessTTL,
		BcryptCost: cfg.BcryptCost,
	}, log.Named("auth"))

	marketSvc := marketplace.NewService(marketplace.Stores{
		Pedidos:    pedidos,
		Offers:     notifs,
		Respuestas: notifs,
		Feed:       notifs,
		Ratings:    ratings,
		Catalog:    catalog,
		Users:      users,
	}, events, log.Named("marketplace"))

	userSvc := user.NewService(users, ubicaciones, ratings, log.Named("user"))

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = api.NewValidator()
	e.HTTPErrorHandler = api.HTTPErrorHandler(log)

	registerRoutes(e, routeDeps{
		cfg:       cfg,
		log:       log,
		pool:      pool,
		rdb:       rdb,
		authSvc:   authSvc,
		auth:      auth.NewHandler(authSvc, cfg.RequestTimeout),
		market:    marketplace.NewHandler(marketSvc, cfg.RequestTimeout),
		users:     user.NewHandler(userSvc, cfg.RequestTimeout),
		ws:        messaging.NewHandler(hub, authSvc, cfg.RequestTimeout, cfg.AllowedOrigins()),
		rateLimit: config.LoadRateLimitConfig(),
		cache:     config.LoadCacheConfig(),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting", zap.String("port", cfg.Port), zap.String("env", cfg.Env))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	log.Info("server stopped gracefully")
	return nil
}
