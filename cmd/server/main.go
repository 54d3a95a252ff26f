package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Freeeeeet/mentorship_hub/internal/app"
	"github.com/Freeeeeet/mentorship_hub/internal/auth"
	"github.com/Freeeeeet/mentorship_hub/internal/config"
	"github.com/Freeeeeet/mentorship_hub/internal/controller"
	"github.com/Freeeeeet/mentorship_hub/internal/httpapi"
	"github.com/Freeeeeet/mentorship_hub/internal/realtime"
	"github.com/Freeeeeet/mentorship_hub/internal/service"
	"github.com/go-telegram/bot"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := app.NewLogger(cfg.Environment, "server")
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stores, err := app.OpenStores(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to open storage", zap.Error(err))
	}
	defer stores.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := realtime.NewMetrics(registry)

	hub := realtime.NewHub(metrics, logger)
	defer hub.Close()

	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			cancel()
			logger.Fatal("Redis ping failed", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		}
		cancel()
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("Redis close error", zap.Error(err))
			}
		}()

		bridge := realtime.NewRedisBridge(redisClient, cfg.RedisChannel, hub, logger)
		hub.SetBridge(bridge)
		go func() {
			if err := bridge.Run(ctx); err != nil {
				logger.Error("Redis bridge stopped", zap.Error(err))
			}
		}()
	}

	observers := service.Observers{realtime.NewBroadcaster(hub, metrics, logger)}

	var telegram *bot.Bot
	if cfg.TelegramToken != "" {
		telegram, err = bot.New(cfg.TelegramToken)
		if err != nil {
			logger.Fatal("Failed to create telegram bot", zap.Error(err))
		}
		observers = append(observers, controller.NewNotifier(telegram, stores.Users, logger))
	} else {
		logger.Info("TELEGRAM_TOKEN is empty, telegram bot disabled")
	}

	userService := service.NewUserService(stores.Users, logger)
	relationService := service.NewRelationshipService(stores.ConnectionRequests, stores.Users, observers, logger)
	bookingService := service.NewBookingService(stores.Bookings, stores.Users, observers, logger)
	messageService := service.NewMessageService(stores.Messages, stores.ConnectionRequests, stores.Users, observers, logger)

	if telegram != nil {
		botController := controller.NewBotController(telegram, userService, relationService, bookingService, time.Local, logger)
		if err := botController.RegisterHandlers(ctx); err != nil {
			logger.Warn("Failed to register bot commands", zap.Error(err))
		}
		go botController.Start(ctx)
	}

	identifier := auth.NewIdentifier(cfg.JWTSecret)
	if !identifier.Enabled() {
		logger.Warn("JWT_SECRET is empty, identifying users by X-User-Id/X-User-Role headers")
	}

	wsHandler := realtime.NewHandler(
		hub,
		identifier,
		relationService,
		bookingService,
		messageService,
		realtime.Options{WriteTimeout: cfg.WSWriteTimeout, BufferSize: cfg.WSBufferSize},
		logger,
	)

	server := httpapi.NewServer(httpapi.Deps{
		Identifier: identifier,
		Users:      userService,
		Relations:  relationService,
		Bookings:   bookingService,
		Messages:   messageService,
		WebSocket:  wsHandler,
		Gatherer:   registry,
		Logger:     logger,
	})

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("HTTP server listening", zap.String("addr", cfg.HTTPAddr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("Shutdown error", zap.Error(err))
	}
}
