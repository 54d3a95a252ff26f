package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Freeeeeet/mentorship_hub/internal/api"
	"github.com/Freeeeeet/mentorship_hub/internal/app"
	"github.com/Freeeeeet/mentorship_hub/internal/config"
	"github.com/Freeeeeet/mentorship_hub/internal/model"
	"github.com/Freeeeeet/mentorship_hub/internal/notification"
	"github.com/Freeeeeet/mentorship_hub/internal/session"
	"github.com/Freeeeeet/mentorship_hub/internal/storage/local"
	"go.uber.org/zap"
)

func main() {
	testNotification := flag.Bool("test-notification", false, "raise a local test notification after sign in")
	markRead := flag.Bool("mark-read", false, "mark every notification from the first poll as read and exit")
	flag.Parse()

	cfg, err := config.LoadClient()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := app.NewLogger(cfg.Environment, "client")
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Fatal пропускает defer, поэтому run сам закрывает сессию и хранилище до выхода
	if err := run(ctx, cfg, logger, *testNotification, *markRead); err != nil {
		logger.Fatal("Client stopped", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.ClientConfig, logger *zap.Logger, testNotification, markRead bool) error {
	store, err := local.Open(ctx, cfg.LocalDBPath)
	if err != nil {
		return fmt.Errorf("open local storage %s: %w", cfg.LocalDBPath, err)
	}
	defer store.Close()

	role := model.Role(cfg.UserRole)
	client := api.New(cfg.APIBaseURL, api.Credentials{Token: cfg.APIToken, UserID: cfg.UserID, Role: role})

	sess := session.New(client, store, session.Options{
		WSBaseURL:    cfg.WSBaseURL,
		APIToken:     cfg.APIToken,
		PollInterval: cfg.PollInterval,
	}, logger)

	if err := sess.SignIn(ctx, local.Profile{UserID: cfg.UserID, Role: role}); err != nil {
		return fmt.Errorf("sign in: %w", err)
	}
	defer func() {
		if err := sess.SignOut(context.Background()); err != nil {
			logger.Warn("Sign out error", zap.Error(err))
		}
	}()

	notifications, err := sess.Notifications()
	if err != nil {
		return err
	}

	if markRead {
		if err := notifications.Poll(ctx); err != nil {
			logger.Warn("Poll finished with errors", zap.Error(err))
		}
		if err := notifications.MarkAllRead(ctx); err != nil {
			return fmt.Errorf("mark notifications read: %w", err)
		}
		logger.Info("Notifications marked read", zap.Int("count", len(notifications.List())))
		return nil
	}

	notifications.OnChange(func() {
		printNotifications(logger, notifications)
	})

	if testNotification {
		notifications.Raise(notification.LocalEvent{
			Kind:        notification.KindMessage,
			Title:       "Test Notification",
			Description: "This is a test notification",
		})
	}

	pushChannel, err := sess.NotificationChannel()
	if err != nil {
		return err
	}

	select {
	case <-ctx.Done():
	case <-pushChannel.Done():
		// переподключения нет: остаётся только опрос
		logger.Warn("Notification channel closed, continuing with polling only", zap.Error(pushChannel.Err()))
		<-ctx.Done()
	}
	logger.Info("Shutting down...")
	return nil
}

func printNotifications(logger *zap.Logger, agg *notification.Aggregator) {
	items := agg.List()
	logger.Info("Notifications updated",
		zap.Int("total", len(items)),
		zap.Int("unread", agg.UnreadCount()),
	)
	for _, it := range items {
		logger.Info(it.Title,
			zap.String("id", it.ID.String()),
			zap.String("key", it.Key),
			zap.String("kind", string(it.Kind)),
			zap.String("source", string(it.Source)),
			zap.Bool("unread", it.Unread),
			zap.Int("count", it.Count),
			zap.String("description", it.Description),
		)
	}
}
