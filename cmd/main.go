package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"printflow/internal/config"
	"printflow/internal/database"
	"printflow/internal/events"
	httpapi "printflow/internal/http"
	"printflow/internal/logger"
	"printflow/internal/repository"
	"printflow/internal/service"
	"printflow/migrations"

	_ "printflow/docs"
)

// @title printflow API
// @version 1.0
// @description Print-shop order workflow: status transitions, department routing and approvals.
// @BasePath /api/v1
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{
		Level:       cfg.Service.LogLevel,
		Environment: cfg.Service.Environment,
		ServiceName: cfg.Service.Name,
		Version:     cfg.Service.Version,
	})

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("service stopped")
	}
}

func run(cfg *config.Config, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, db, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	}

	pub, closer, err := openPublisher(cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := closer.Close(); err != nil {
			log.Warn().Err(err).Msg("publisher close")
		}
	}()

	bus := events.NewBroadcaster()
	defer bus.Close()

	core := service.NewCore(store, bus, pub, log)
	srv := httpapi.NewServer(
		service.NewOrderService(core),
		service.NewProductService(core),
		service.NewApprovalService(core),
		log,
	)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      srv.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", httpServer.Addr).Str("store", cfg.Store).Str("publisher", cfg.Publisher.Backend).Msg("HTTP server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down")
		// живые SSE-подписки закрываются вместе с шиной
		bus.Close()
		sctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(sctx); err != nil {
			return fmt.Errorf("shutdown error: %w", err)
		}
		return nil
	})
	return g.Wait()
}

func openStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (repository.OrderStore, *sql.DB, error) {
	if cfg.Store != config.StorePostgres {
		return repository.NewMemoryStore(), nil, nil
	}
	db, err := database.NewConnection(&cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	if cfg.Database.Migrate {
		n, err := database.Migrate(ctx, db, migrations.FS)
		if err != nil {
			db.Close()
			return nil, nil, err
		}
		log.Info().Int("applied", n).Msg("migrations applied")
	}
	return repository.NewPostgresStore(db), db, nil
}

func openPublisher(cfg *config.Config, log zerolog.Logger) (events.Publisher, io.Closer, error) {
	switch cfg.Publisher.Backend {
	case config.PublisherRabbitMQ:
		p, err := events.NewRabbitMQPublisher(cfg.Publisher.RabbitMQURL, cfg.Publisher.Exchange, log)
		if err != nil {
			return nil, nil, err
		}
		return p, p, nil
	case config.PublisherRedis:
		client := redis.NewClient(&redis.Options{Addr: cfg.Publisher.RedisAddr})
		return events.NewRedisPublisher(client, cfg.Publisher.RedisChannel), client, nil
	}
	return events.NopPublisher{}, io.NopCloser(nil), nil
}
