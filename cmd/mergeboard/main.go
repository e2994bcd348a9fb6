package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	githubadapter "github.com/ericfisherdev/mergeboard/internal/adapter/driven/github"
	sqliteadapter "github.com/ericfisherdev/mergeboard/internal/adapter/driven/sqlite"
	httphandler "github.com/ericfisherdev/mergeboard/internal/adapter/driving/http"
	"github.com/ericfisherdev/mergeboard/internal/application"
	"github.com/ericfisherdev/mergeboard/internal/cache"
	"github.com/ericfisherdev/mergeboard/internal/config"
	"github.com/ericfisherdev/mergeboard/internal/domain/model"
	"github.com/ericfisherdev/mergeboard/internal/domain/port/driven"
	"github.com/ericfisherdev/mergeboard/internal/secrets"
)

// identity is the single logical credential owner in this deployment.
// The store's schema keys by identity, so it supports more without the
// app exposing more.
const identity = "github"

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load configuration (insecure master-key fallback is logged inside).
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.Info("config loaded",
		"listen_addr", cfg.ListenAddr,
		"db_path", cfg.DBPath,
		"cache_ttl", cfg.CacheTTL,
		"cache_capacity", cfg.CacheCapacity,
	)

	// 2. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Open database (dual reader/writer with WAL mode).
	db, err := sqliteadapter.NewDB(ctx, cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()
	slog.Info("database opened", "path", cfg.DBPath)

	// 4. Run migrations on the writer connection.
	if err := sqliteadapter.RunMigrations(db.Writer); err != nil {
		return err
	}
	slog.Info("migrations complete")

	// 5. Wire the credential store and the result cache.
	cipher := secrets.NewCipher(cfg.MasterKey)
	credentialStore := sqliteadapter.NewCredentialRepo(db, cipher)

	results := cache.New[model.FetchResult](cfg.CacheCapacity, cfg.CacheTTL, cfg.SweepInterval)
	defer results.Destroy()

	// 6. Pre-warm the client provider from a stored credential. A blob
	// that no longer decrypts (rotated master key) is left in place; the
	// API reports it as unusable and the user re-enters the token.
	provider := application.NewClientProvider(nil, "")
	if token, err := credentialStore.Get(ctx, identity); err != nil {
		slog.Warn("stored credential is unusable, re-enter it via the API", "error", err)
	} else if token != "" {
		provider.Replace(githubadapter.NewClient(token), "")
		slog.Info("github client created from stored credential",
			"fingerprint", secrets.Fingerprint(token))
	} else {
		slog.Info("no github credential configured, set one via the API")
	}

	// 7. Create services.
	fetchSvc := application.NewFetchService(provider, credentialStore, results, cfg.CacheTTL, identity)
	secretSvc := application.NewSecretService(
		credentialStore,
		provider,
		fetchSvc,
		func(token string) driven.GitHubClient { return githubadapter.NewClient(token) },
		identity,
	)

	// 8. Create HTTP handler and register routes.
	handler := httphandler.NewHandler(secretSvc, fetchSvc, slog.Default())
	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           httphandler.NewServeMux(handler, slog.Default()),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      5 * time.Minute, // Aggregations can need many upstream round trips.
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.Info("http server starting", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server error", "error", err)
		}
	}()

	slog.Info("mergeboard started", "listen_addr", cfg.ListenAddr)

	// 9. Wait for shutdown signal.
	<-ctx.Done()
	slog.Info("shutting down")

	// 10. Graceful shutdown with 10s timeout; the deferred cache Destroy
	// and db Close run after the drain.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}
