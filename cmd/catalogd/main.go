// catalogd is a read-through proxy for the remote course collection.
// It serves cached collection pages and course details over HTTP,
// along with health and Prometheus metrics endpoints.
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

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/coursedeck/catalog-client/pkg/cache"
	"github.com/coursedeck/catalog-client/pkg/catalog"
	"github.com/coursedeck/catalog-client/pkg/logging"
	"github.com/coursedeck/catalog-client/pkg/store"
)

func main() {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "catalogd: %v\n", err)
		os.Exit(1)
	}

	logging.Setup(logging.Config{
		Level:  logging.LogLevel(cfg.Logging.Level),
		Pretty: cfg.Logging.Pretty,
		Output: os.Stderr,
	})

	st, err := openStore(cfg.Store)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open store")
	}
	defer st.Close()

	client, err := catalog.New(catalog.DefaultConfig(cfg.BaseURL))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create catalog client")
	}

	srv := newServer(client, cache.NewManager(st), cfg.PageSize)

	mux := http.NewServeMux()
	mux.HandleFunc("/collection", srv.handleList)
	mux.HandleFunc("/collection/", srv.handleDetail)
	mux.HandleFunc("/health", handleHealth)
	mux.Handle("/metrics", promhttp.Handler())

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info().
			Str("addr", cfg.Addr).
			Str("base_url", cfg.BaseURL).
			Str("store", cfg.Store.Backend).
			Msg("Starting catalogd")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Shutdown failed")
	}
}

// openStore builds the configured durable backend.
func openStore(cfg StoreConfig) (store.Store, error) {
	switch cfg.Backend {
	case "bolt":
		return store.NewBoltStore(cfg.BoltPath, "catalog")
	case "redis":
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := client.Ping(context.Background()).Err(); err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		return store.NewRedisStore(client, "catalog")
	case "memory":
		return store.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "OK")
}
