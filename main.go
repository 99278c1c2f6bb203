package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	account "property-bidding/internal/accountService"
	"property-bidding/internal/auth"
	bidding "property-bidding/internal/biddingService"
	catalog "property-bidding/internal/catalogService"
	"property-bidding/internal/config"
	"property-bidding/internal/database"
	"property-bidding/internal/notify"
	"property-bidding/internal/repository"
	"property-bidding/internal/server"
	"property-bidding/utils"

	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		utils.Fatal("Failed to load configuration", map[string]any{"error": err.Error()})
	}
	utils.SetLevel(cfg.Log.Level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		utils.Fatal("Server stopped with error", map[string]any{"error": err.Error()})
	}
	utils.Info("Server stopped", nil)
}

func run(ctx context.Context, cfg *config.Config) error {
	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.close()

	var revocations auth.RevocationStore
	if cfg.Redis.Enabled {
		client, err := database.InitRedis(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		defer client.Close()
		revocations = auth.NewRedisRevocationStore(client)
	}

	hub := notify.NewHub(cfg.Notify.BufferSize)
	gate := auth.NewGate(auth.NewTokenManager(cfg.JWT.SecretKey), revocations)

	accounts := account.NewAccountService(store.db, gate)
	products := catalog.NewCatalogService(store.db)
	ledger := bidding.NewBiddingService(store.db, hub)

	if cfg.Seed.Demo {
		if err := prepopulateProducts(ctx, accounts, products, cfg.Seed); err != nil {
			return fmt.Errorf("seed demo data: %w", err)
		}
	}

	router := server.SetupRouter(server.Dependencies{
		Bidding:        ledger,
		Accounts:       accounts,
		Catalog:        products,
		Events:         hub,
		Auth:           gate,
		Sessions:       gate,
		RequestTimeout: cfg.Server.RequestTimeout,
		Heartbeat:      cfg.Notify.Heartbeat,
		HealthCheck:    store.health,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      server.WithCORS(router, cfg.CORS.AllowedOrigins),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		// request contexts end with ctx so open event streams let shutdown finish
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		utils.Info("Starting auction server", map[string]any{
			"addr":       srv.Addr,
			"storage":    cfg.Storage.Driver,
			"revocation": gate.RevocationEnabled(),
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		utils.Info("Server shutting down...", nil)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		return nil
	})

	return g.Wait()
}

// backingStore is the selected storage plus its lifecycle hooks
type backingStore struct {
	db     repository.AuctionDB
	health func(ctx context.Context) error
	close  func()
}

// openStore selects the storage driver named in the configuration
func openStore(ctx context.Context, cfg *config.Config) (backingStore, error) {
	switch cfg.Storage.Driver {
	case config.StoragePostgres, config.StoragePgx:
		db, err := database.OpenSQL(ctx, cfg.Storage.Driver, cfg.Database)
		if err != nil {
			return backingStore{}, err
		}

		repo := repository.NewPostgresRepo(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			db.Close()
			return backingStore{}, err
		}

		return backingStore{
			db:     repo,
			health: db.PingContext,
			close:  func() { db.Close() },
		}, nil
	default:
		return backingStore{
			db:    repository.NewMemoryRepo(),
			close: func() {},
		}, nil
	}
}
