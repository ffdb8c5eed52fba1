package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	mydb "storefront/internal/db"
	"storefront/internal/handlers"
	"storefront/internal/media"
)

const cacheSweepInterval = time.Minute

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	cfg := a.cfg

	if a.db != nil {
		if err := mydb.Migrate(ctx, a.db); err != nil {
			return err
		}
	}

	gin.SetMode(gin.ReleaseMode)
	router := handlers.NewRouter(handlers.Deps{
		Catalog:        a.catalog,
		Categories:     a.categories,
		Accounts:       a.accounts,
		Media:          media.NewLocalStore(cfg.Media.Root, cfg.Media.URLPrefix),
		Metrics:        a.metrics,
		Log:            a.log.With().Str("component", "http").Logger(),
		SessionSecret:  cfg.Server.SessionSecret,
		SessionMaxAge:  cfg.Server.SessionMaxAge,
		SecureCookies:  cfg.Server.SecureCookies,
		MediaRoot:      cfg.Media.Root,
		MediaURL:       cfg.Media.URLPrefix,
		MaxUploadBytes: cfg.Media.MaxUploadMB << 20,
		Health:         a.health,
	})

	srv := &http.Server{
		Addr:         net.JoinHostPort("", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.log.Info().Str("addr", srv.Addr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		a.log.Info().Msg("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	if a.memCache != nil {
		g.Go(func() error {
			t := time.NewTicker(cacheSweepInterval)
			defer t.Stop()
			for {
				select {
				case <-gctx.Done():
					return nil
				case <-t.C:
					if n := a.memCache.Sweep(); n > 0 {
						a.log.Debug().Int("expired", n).Msg("cache swept")
					}
				}
			}
		})
	}
	return g.Wait()
}
