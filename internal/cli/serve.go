package cli

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/romangod6/sitemapgen/config"
	"github.com/romangod6/sitemapgen/internal/api"
	"github.com/romangod6/sitemapgen/internal/cache"
	"github.com/romangod6/sitemapgen/internal/generator"
	"github.com/romangod6/sitemapgen/internal/output"
	"github.com/romangod6/sitemapgen/internal/utils"
)

func newServeCmd(root *rootOptions) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the sitemap over HTTP, regenerating it when the cache expires",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}
			if port != 0 {
				cfg.Server.Port = port
			}
			return serve(cmd.Context(), cfg)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "listen port (default: server.port)")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config) error {
	logger, err := utils.NewGenerationLogger("serve", cfg.Log.Dir)
	if err != nil {
		return err
	}
	defer logger.Close()

	store, err := openStore(cfg, logger)
	if err != nil {
		logger.LogError("Database unavailable, skipping collections: %v", err)
		store = nil
	}
	if store != nil {
		defer store.Close()
	}

	documents := newCache(cfg)
	defer documents.Close()

	gen := generator.New(cfg, generator.Deps{Store: store, Logger: logger})
	handler := api.NewHandler(gen, documents, cfg.Site.BaseURL, output.Limits{
		MaxURLs:  cfg.Sitemap.MaxURLs,
		MaxBytes: cfg.Sitemap.MaxBytes,
	})
	server := api.NewServer(cfg.Server.Port, handler)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if interval := cfg.GetRefreshInterval(); interval > 0 {
		go refreshPeriodically(ctx, handler, interval)
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Starting sitemap server on port %d", cfg.Server.Port)
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	return waitForShutdown(ctx, cancel, server, errCh)
}

// newCache connects to Redis when an address is configured. Without it
// every request regenerates the sitemap.
func newCache(cfg *config.Config) cache.Cache {
	if cfg.Redis.Address == "" {
		return cache.Noop{}
	}
	rc, err := cache.NewRedisCache(cfg.Redis.Address, cfg.GetCacheTTL())
	if err != nil {
		log.Printf("Redis unavailable at %s, caching disabled: %v", cfg.Redis.Address, err)
		return cache.Noop{}
	}
	return rc
}

func refreshPeriodically(ctx context.Context, handler *api.Handler, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			log.Println("Starting periodic sitemap refresh...")
			stats, err := handler.Warm(ctx)
			if err != nil {
				log.Printf("Periodic refresh failed: %v", err)
				continue
			}
			log.Printf("Refreshed sitemap: %d URLs in %d files", stats.URLs, stats.Files)
		case <-ctx.Done():
			return
		}
	}
}

func waitForShutdown(ctx context.Context, cancel context.CancelFunc, server *api.Server, errCh <-chan error) error {
	// Handle system signals for shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	var serveErr error
	select {
	case <-sigChan:
	case <-ctx.Done():
	case serveErr = <-errCh:
	}
	log.Println("Shutting down...")
	cancel()

	// Graceful server shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error shutting down server: %v", err)
	}
	log.Println("Server shut down gracefully")
	return serveErr
}
