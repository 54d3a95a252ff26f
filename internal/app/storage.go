package app

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/mentorship_hub/internal/config"
	"github.com/Freeeeeet/mentorship_hub/internal/repository"
	"github.com/Freeeeeet/mentorship_hub/internal/repository/memory"
	"github.com/Freeeeeet/mentorship_hub/internal/service"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Stores хранилища, с которыми работают сервисы
type Stores struct {
	Users              service.UserStore
	ConnectionRequests service.ConnectionRequestStore
	Bookings           service.BookingStore
	Messages           service.MessageStore

	pool *pgxpool.Pool
}

// OpenStores postgres при заданном DB_DSN, иначе хранилище в памяти
func OpenStores(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Stores, error) {
	if cfg.UseMemoryStore() {
		logger.Warn("DB_DSN is empty, using in-memory storage")
		return MemoryStores(memory.New()), nil
	}

	pool, err := pgxpool.New(ctx, cfg.DBDSN)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	logger.Info("✅ Connected to database")

	if cfg.Migrations {
		if err := migrate(ctx, pool, logger); err != nil {
			pool.Close()
			return nil, err
		}
	}

	return &Stores{
		Users:              repository.NewUserRepository(pool),
		ConnectionRequests: repository.NewConnectionRequestRepository(pool),
		Bookings:           repository.NewBookingRepository(pool),
		Messages:           repository.NewMessageRepository(pool),
		pool:               pool,
	}, nil
}

// MemoryStores хранилища поверх одного memory.Store
func MemoryStores(store *memory.Store) *Stores {
	return &Stores{
		Users:              store.Users(),
		ConnectionRequests: store.ConnectionRequests(),
		Bookings:           store.Bookings(),
		Messages:           store.Messages(),
	}
}

func migrate(ctx context.Context, pool *pgxpool.Pool, logger *zap.Logger) error {
	migrator, err := NewMigrator(pool, logger)
	if err != nil {
		return err
	}
	defer migrator.Close()

	if err := migrator.Run(ctx); err != nil {
		return err
	}

	version, err := migrator.Version(ctx)
	if err != nil {
		return err
	}
	logger.Info("Database schema version", zap.Int64("version", version))
	return nil
}

// Close закрывает пул соединений, если он есть
func (s *Stores) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}
